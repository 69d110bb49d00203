// Package segment splits an annotated content region into heading-delimited
// sections and extracts the document topic.
package segment

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/docrows/core"
)

// DefaultHeadingLevel is the heading level that starts a section.
const DefaultHeadingLevel = 2

// Segmenter splits HTML on headings of one level.
type Segmenter struct {
	tag string
}

// New creates a Segmenter for <h{level}> headings. Levels outside 1..6 fall
// back to DefaultHeadingLevel.
func New(level int) *Segmenter {
	if level < 1 || level > 6 {
		level = DefaultHeadingLevel
	}
	return &Segmenter{tag: fmt.Sprintf("h%d", level)}
}

// Segment returns the topic (text of the first <h1>) and one section per
// heading. A section holds every sibling after its heading up to the next
// heading of the same level, or the end of the parent.
func (s *Segmenter) Segment(fragment string) (string, []core.Section, error) {
	doc, err := core.ParseFragment(fragment)
	if err != nil {
		return "", nil, fmt.Errorf("parsing fragment: %w", err)
	}

	topic := core.UnknownTopic
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if text := collapse(h1.Text()); text != "" {
			topic = text
		}
	}

	var sections []core.Section
	var renderErr error
	doc.Find(s.tag).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		content, err := s.siblingHTML(h.Get(0))
		if err != nil {
			renderErr = err
			return false
		}
		anchor := strings.TrimSpace(h.AttrOr("id", ""))
		if anchor == "" {
			anchor = core.NoAnchorID
		}
		sections = append(sections, core.Section{
			Title:       collapse(h.Text()),
			AnchorID:    anchor,
			ContentHTML: content,
		})
		return true
	})
	if renderErr != nil {
		return "", nil, fmt.Errorf("rendering section: %w", renderErr)
	}

	return topic, sections, nil
}

func (s *Segmenter) siblingHTML(heading *html.Node) (string, error) {
	var buf bytes.Buffer
	for n := heading.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == s.tag {
			break
		}
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
