// Package render — Markdown renderer.
// One "##" section per row; usage examples are fenced, links listed last.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/docrows/core"
)

// MarkdownRenderer renders the knowledge base for human reading.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the knowledge base as Markdown.
func (r *MarkdownRenderer) Render(kb *core.KnowledgeBase) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", kb.Topic)
	fmt.Fprintf(&b, "Source: %s  \nCategory: %s\n", kb.URL, kb.Category)

	for _, row := range kb.Rows {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", row.ID, row.Concept)
		if row.Content != "" {
			b.WriteString(row.Content)
			b.WriteString("\n")
		}
		if row.UsageExample != "" {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", row.UsageExample)
		}
		if len(row.Links) > 0 {
			b.WriteString("\nLinks:\n")
			for _, l := range row.Links {
				fmt.Fprintf(&b, "- <%s>\n", l)
			}
		}
		fmt.Fprintf(&b, "\n[%s](%s)\n", row.URL, row.URL)
	}

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
