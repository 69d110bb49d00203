// Package render provides output renderers for the docrows pipeline.
// Every renderer takes the finished knowledge base of one document.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/docrows/core"
)

// CSV column names.
const (
	ColumnID           = "document_id"
	ColumnCategory     = "category"
	ColumnTopic        = "topic"
	ColumnConcept      = "concept"
	ColumnContent      = "content"
	ColumnUsageExample = "usage_example"
	ColumnURL          = "url"
	ColumnLinkTo       = "link_to"
	ColumnTags         = "tags"
)

// CSVRenderer writes one row per knowledge-base row with full RFC 4180 quoting.
type CSVRenderer struct{}

// NewCSVRenderer creates a CSVRenderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Header returns the column names; usage_example is present when rows were
// split on kept code blocks.
func Header(usageColumn bool) []string {
	cols := []string{ColumnID, ColumnCategory, ColumnTopic, ColumnConcept, ColumnContent}
	if usageColumn {
		cols = append(cols, ColumnUsageExample)
	}
	return append(cols, ColumnURL, ColumnLinkTo, ColumnTags)
}

// Render converts the knowledge base into CSV bytes.
func (r *CSVRenderer) Render(kb *core.KnowledgeBase) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header(kb.UsageColumn)); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range kb.Rows {
		rec := []string{strconv.Itoa(row.ID), row.Category, row.Topic, row.Concept, row.Content}
		if kb.UsageColumn {
			rec = append(rec, row.UsageExample)
		}
		rec = append(rec, row.URL, strings.Join(row.Links, "\n"), row.Tags)
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("writing CSV row %d: %w", row.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for CSV output.
func (r *CSVRenderer) Extension() string {
	return ".csv"
}
