// Package render — PDF renderer.
// Lays out the knowledge base with gofpdf: topic title, source line, then one
// heading per row with its content, usage example and links.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/docrows/core"
)

// PDFRenderer renders the knowledge base as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the knowledge base into PDF bytes.
func (r *PDFRenderer) Render(kb *core.KnowledgeBase) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(kb.Topic, true)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	renderHeading(pdf, tr(kb.Topic), 1)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr("Source: "+kb.URL), "", "L", false)
	pdf.MultiCell(0, 5, tr("Category: "+kb.Category), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for _, row := range kb.Rows {
		renderHeading(pdf, tr(fmt.Sprintf("%d. %s", row.ID, row.Concept)), 2)

		pdf.SetFont("Helvetica", "", 10)
		for _, line := range strings.Split(row.Content, "\n") {
			if strings.TrimSpace(line) == "" {
				pdf.Ln(3)
				continue
			}
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}

		if row.UsageExample != "" {
			pdf.Ln(2)
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			for _, line := range strings.Split(row.UsageExample, "\n") {
				pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			}
			pdf.Ln(2)
		}

		if len(row.Links) > 0 {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(0, 0, 180)
			for _, l := range row.Links {
				pdf.MultiCell(0, 4, tr(l), "", "L", false)
			}
			pdf.SetTextColor(0, 0, 0)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 14, 3: 12}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}
