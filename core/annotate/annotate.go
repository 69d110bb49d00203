// Package annotate rewrites hyperlinks into inline text annotations so link
// targets survive markup stripping further down the pipeline.
package annotate

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/docrows/core"
)

// LinkPrefix opens a link annotation; the annotation is " [LINK:<href>]".
const LinkPrefix = "[LINK:"

// Annotation renders the suffix appended after a link's text.
func Annotation(href string) string {
	return " " + LinkPrefix + href + "]"
}

// Annotate replaces every <a> element in fragment with its text followed by a
// link annotation. Anchors without an href keep only their text.
func Annotate(fragment string) (string, error) {
	doc, err := core.ParseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("parsing fragment: %w", err)
	}

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := a.Text()
		if href := strings.TrimSpace(a.AttrOr("href", "")); href != "" {
			text += Annotation(href)
		}
		a.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: text})
	})

	return core.RenderFragment(doc)
}
