// Package extract implements the Extractor interface.
// It isolates the main content from a full HTML page by:
//  1. Removing noise elements (nav, footer, scripts, forms, etc.)
//  2. Taking the configured content selectors, then <main> or <article>
//  3. Keeping <body> when it already carries headings
//  4. Falling back to readability scoring, then <body>
package extract

import (
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/go-readability"

	"github.com/gaurav-prasanna/docrows/core"
)

// DefaultContentSelectors match the article body of Docsy-based documentation sites.
var DefaultContentSelectors = []string{"div.td-content"}

// noiseSelectors are HTML elements removed before extraction.
// These contribute no meaningful content to the page text.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
	".td-sidebar", ".td-toc", ".feedback--prompt",
}

var semanticContainers = []string{"main", "article"}

const headingSelector = "h1, h2, h3, h4, h5, h6"

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct {
	selectors []namedMatcher
}

type namedMatcher struct {
	raw     string
	matcher cascadia.Selector
}

// New creates an HTMLExtractor preferring the given content selectors.
// With no selectors the Docsy defaults are used. An invalid selector is an error.
func New(contentSelectors ...string) (*HTMLExtractor, error) {
	if len(contentSelectors) == 0 {
		contentSelectors = DefaultContentSelectors
	}
	e := &HTMLExtractor{}
	for _, raw := range contentSelectors {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling content selector %q: %w", raw, err)
		}
		e.selectors = append(e.selectors, namedMatcher{raw: raw, matcher: sel})
	}
	return e, nil
}

// Extract takes raw HTML and returns a cleaned HTML fragment containing
// only the main content. pageURL is handed to the readability fallback.
func (e *HTMLExtractor) Extract(html, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", core.ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	// Remove noise elements first (operates on the whole document).
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	e.removePageHeaders(doc)

	// Configured selectors win; every match of the first matching selector is kept.
	for _, sel := range e.selectors {
		matches := doc.FindMatcher(sel.matcher)
		if matches.Length() == 0 {
			continue
		}
		parts := make([]string, 0, matches.Length())
		var outerErr error
		matches.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			part, err := goquery.OuterHtml(s)
			if err != nil {
				outerErr = err
				return false
			}
			parts = append(parts, part)
			return true
		})
		if outerErr != nil {
			return "", fmt.Errorf("serializing %s: %w", sel.raw, outerErr)
		}
		return strings.Join(parts, "\n\n"), nil
	}

	for _, tag := range semanticContainers {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			return outerHTML(sel.First())
		}
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", core.ErrNoContent
	}
	// Readability rewrites heading levels; structured bodies skip it.
	if body.Find(headingSelector).Length() > 0 {
		return outerHTML(body.First())
	}

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	if content := readable(cleaned, pageURL); content != "" {
		return content, nil
	}
	return outerHTML(body.First())
}

// removePageHeaders drops site-level <header> elements. Headers inside a
// content container or a <main>/<article> belong to the document.
func (e *HTMLExtractor) removePageHeaders(doc *goquery.Document) {
	doc.Find("header").Each(func(_ int, s *goquery.Selection) {
		if s.Closest("main, article").Length() > 0 {
			return
		}
		for _, sel := range e.selectors {
			if s.ParentsMatcher(sel.matcher).Length() > 0 {
				return
			}
		}
		s.Remove()
	})
}

func outerHTML(s *goquery.Selection) (string, error) {
	result, err := goquery.OuterHtml(s)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}

// readable runs readability scoring over the page and returns the article
// HTML, or "" when nothing article-like is found.
func readable(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" {
		parsed = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}
	}
	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return ""
	}
	return article.Content
}

// Language returns the <html lang> attribute of a page, "en" when absent.
func Language(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "en"
	}
	lang := strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))
	if lang == "" {
		return "en"
	}
	return lang
}

// Markdown renders an extracted fragment as Markdown for human review.
func Markdown(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
