package core

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseFragment parses an HTML fragment permissively. The fragment ends up
// as the children of the document's <body>.
func ParseFragment(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(fragment))
}

// RenderFragment serializes the <body> children of a document parsed with
// ParseFragment.
func RenderFragment(doc *goquery.Document) (string, error) {
	return doc.Find("body").First().Html()
}
