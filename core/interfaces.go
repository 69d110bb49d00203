// Package core defines the pipeline types and interfaces for docrows.
// Each stage of the pipeline is a clean, testable unit; the chunk stages
// live in their own packages and exchange the types declared here.
package core

import (
	"context"

	"github.com/gaurav-prasanna/docrows/core/urls"
)

// Sentinel values used when a structural element cannot be found.
const (
	UnknownTopic   = "Unknown Topic"
	UnknownConcept = "Unknown Concept"
	UnknownContent = "Unknown Content"
	NoAnchorID     = "no-id"
	DefaultTags    = "None"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Document is one fetched page: raw HTML plus the reference URL it came from.
type Document struct {
	URL      string
	SiteRoot string
	HTML     string
}

// NewDocument builds a Document and derives the site root from the URL.
func NewDocument(rawURL, html string) Document {
	return Document{URL: rawURL, SiteRoot: urls.SiteRoot(rawURL), HTML: html}
}

// Section is a heading-delimited part of the content region.
type Section struct {
	Title       string `json:"title"`
	AnchorID    string `json:"anchor_id"`
	ContentHTML string `json:"content_html"`
}

// Row is one record of the knowledge base.
type Row struct {
	ID           int      `json:"id"`
	Category     string   `json:"category"`
	Topic        string   `json:"topic"`
	Concept      string   `json:"concept"`
	Content      string   `json:"content"`
	UsageExample string   `json:"usage_example,omitempty"`
	URL          string   `json:"url"`
	Links        []string `json:"links"`
	Tags         string   `json:"tags"`
}

// KnowledgeBase is the complete output for a single document.
type KnowledgeBase struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Language string `json:"language"`
	// UsageColumn reports whether rows were split on kept code blocks.
	UsageColumn bool  `json:"-"`
	Rows        []Row `json:"rows"`
}

// Fetcher retrieves raw HTML from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor isolates the main content region from a full HTML page.
// pageURL is the page's own address; it may be empty.
type Extractor interface {
	Extract(html, pageURL string) (string, error)
}

// Renderer converts a knowledge base into a final output format.
type Renderer interface {
	Render(kb *KnowledgeBase) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".csv", ".pdf").
	Extension() string
}

// Embedder generates a vector embedding for a text input.
type Embedder interface {
	Embed(ctx context.Context, text string, model string) ([]float64, error)
}
