// Package codeblock finds code fragments in section HTML, keeps the
// significant ones as usage examples and flattens the rest into prose.
//
// Kept fragments are swapped for private-use tokens before the fragment is
// serialized and expanded afterwards, so code text never passes through the
// HTML escaper and comes out byte-exact.
package codeblock

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/chunk"
)

// DefaultHighlightClasses mark syntax-highlighting wrappers around <code>.
var DefaultHighlightClasses = []string{"highlight", "code-sample"}

const (
	tokenOpen  = "\uE000"
	tokenClose = "\uE001"
)

// Embedder rewrites code fragments of one section.
type Embedder struct {
	classifier Classifier
	container  cascadia.Selector
	inline     bool
}

// New creates an Embedder. A nil classifier uses DefaultClassifier; nil
// highlight classes use DefaultHighlightClasses. With inline set, significant
// fragments are wrapped in code fences in place instead of being listed.
func New(classifier Classifier, highlightClasses []string, inline bool) (*Embedder, error) {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if highlightClasses == nil {
		highlightClasses = DefaultHighlightClasses
	}

	parts := []string{"pre"}
	for _, class := range highlightClasses {
		class = strings.TrimPrefix(strings.TrimSpace(class), ".")
		if class != "" {
			parts = append(parts, "."+class)
		}
	}
	container, err := cascadia.Compile(strings.Join(parts, ", "))
	if err != nil {
		return nil, fmt.Errorf("compiling code container selector: %w", err)
	}

	return &Embedder{classifier: classifier, container: container, inline: inline}, nil
}

// Inline reports whether kept fragments are fenced in place.
func (e *Embedder) Inline() bool { return e.inline }

// Embed returns the rewritten fragment and the kept code texts. Kept block n
// is kept[n-1] and is referenced by placeholder n in the fragment. In inline
// mode kept is always empty.
func (e *Embedder) Embed(fragment string) (string, []string, error) {
	doc, err := core.ParseFragment(fragment)
	if err != nil {
		return "", nil, fmt.Errorf("parsing fragment: %w", err)
	}

	targets := e.targets(doc)

	var codes []string
	for _, target := range targets {
		text := strings.TrimSpace(target.Text())
		replacement := text
		if e.classifier.Significant(text) {
			codes = append(codes, text)
			replacement = tokenOpen + fmt.Sprint(len(codes)) + tokenClose
		}
		target.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: replacement})
	}

	rendered, err := core.RenderFragment(doc)
	if err != nil {
		return "", nil, fmt.Errorf("rendering fragment: %w", err)
	}

	var kept []string
	for i, code := range codes {
		n := i + 1
		var expansion string
		if e.inline {
			expansion = "\n" + chunk.CodeStart + "\n" + code + "\n" + chunk.CodeEnd + "\n"
		} else {
			expansion = "\n" + chunk.Placeholder(n) + "\n"
			kept = append(kept, code)
		}
		rendered = strings.Replace(rendered, tokenOpen+fmt.Sprint(n)+tokenClose, expansion, 1)
	}

	return strings.TrimSpace(rendered), kept, nil
}

// targets returns the nodes to replace in document order: the outermost
// code container around each <code>, or the <code> itself. Each node is
// returned once, and nodes inside an earlier target are skipped.
func (e *Embedder) targets(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var targets []*goquery.Selection

	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		target := code.ParentsMatcher(e.container).Last()
		if target.Length() == 0 {
			target = code
		}
		node := target.Get(0)
		if seen[node] {
			return
		}
		for p := node.Parent; p != nil; p = p.Parent {
			if seen[p] {
				return
			}
		}
		seen[node] = true
		targets = append(targets, target)
	})

	return targets
}
