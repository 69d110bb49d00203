// Package render — Embeddings renderer.
// Embeds every row (concept, content and usage example) through an
// Ollama-compatible embedding API. Output is a human-readable .embeddings.txt file.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav-prasanna/docrows/core"
)

const (
	DefaultOllamaURL = "http://localhost:11434/api/embeddings"
	embeddingTimeout = 60 * time.Second
)

// OllamaEmbedder calls an Ollama-compatible /api/embeddings endpoint.
type OllamaEmbedder struct {
	url    string
	client *http.Client
}

// NewOllamaEmbedder creates an embedder for endpoint. An empty endpoint uses
// DefaultOllamaURL.
func NewOllamaEmbedder(endpoint string) *OllamaEmbedder {
	if endpoint == "" {
		endpoint = DefaultOllamaURL
	}
	return &OllamaEmbedder{
		url:    endpoint,
		client: &http.Client{Timeout: embeddingTimeout},
	}
}

// ollamaRequest is the request body for the Ollama embeddings API.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaResponse is the response body from the Ollama embeddings API.
type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed calls the embedding API for a single text input.
func (e *OllamaEmbedder) Embed(ctx context.Context, text, model string) ([]float64, error) {
	bodyBytes, err := json.Marshal(ollamaRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API returned %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("decoding Ollama response: %w", err)
	}
	return ollamaResp.Embedding, nil
}

// EmbeddingsRenderer generates one embedding per knowledge-base row.
type EmbeddingsRenderer struct {
	Model    string
	embedder core.Embedder
}

// NewEmbeddingsRenderer creates an EmbeddingsRenderer.
func NewEmbeddingsRenderer(model string, embedder core.Embedder) *EmbeddingsRenderer {
	return &EmbeddingsRenderer{Model: model, embedder: embedder}
}

// Render embeds each row and produces the .embeddings.txt output.
func (r *EmbeddingsRenderer) Render(kb *core.KnowledgeBase) ([]byte, error) {
	if len(kb.Rows) == 0 {
		return nil, fmt.Errorf("no rows to embed")
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "# source: %s\n", kb.URL)
	fmt.Fprintf(&buf, "# model: %s\n", r.Model)
	fmt.Fprintf(&buf, "# rows: %d\n\n", len(kb.Rows))

	ctx := context.Background()
	for _, row := range kb.Rows {
		text := EmbeddingText(row)
		embedding, err := r.embedder.Embed(ctx, text, r.Model)
		if err != nil {
			return nil, fmt.Errorf("embedding row %d: %w", row.ID, err)
		}

		fmt.Fprintf(&buf, "--- row %d ---\n", row.ID)
		fmt.Fprintf(&buf, "TEXT:\n%s\n\n", text)

		vecStrs := make([]string, len(embedding))
		for j, v := range embedding {
			vecStrs[j] = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(&buf, "VECTOR:\n[%s]\n\n", strings.Join(vecStrs, ", "))
	}

	return []byte(buf.String()), nil
}

// Extension returns the file extension for embeddings output.
func (r *EmbeddingsRenderer) Extension() string {
	return ".embeddings.txt"
}

// EmbeddingText is the text embedded for a row.
func EmbeddingText(row core.Row) string {
	parts := []string{row.Concept}
	if row.Content != "" {
		parts = append(parts, row.Content)
	}
	if row.UsageExample != "" {
		parts = append(parts, row.UsageExample)
	}
	return strings.Join(parts, "\n\n")
}
