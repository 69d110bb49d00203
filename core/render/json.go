// Package render — JSON renderer.
// Emits the knowledge base as indented JSON: document metadata plus rows.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/docrows/core"
)

// JSONRenderer produces structured JSON output.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the knowledge base.
func (r *JSONRenderer) Render(kb *core.KnowledgeBase) ([]byte, error) {
	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
