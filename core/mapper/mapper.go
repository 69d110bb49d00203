// Package mapper turns refined chunk text into knowledge-base rows: one row
// per chunk, or one row per kept code block when the chunk carries a listing.
package mapper

import (
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/chunk"
	"github.com/gaurav-prasanna/docrows/core/urls"
)

var (
	linkRe = regexp.MustCompile(`\[LINK:([^\]]*)\]`)
	// linkStripRe takes one blank next to an annotation: the following one
	// at the start of a line, the preceding one elsewhere. Line breaks stay.
	linkStripRe = regexp.MustCompile(`(?m)^\[LINK:[^\]]*\][ \t]?|[ \t]?\[LINK:[^\]]*\]`)
)

// Options carry the per-document values rows are stamped with.
type Options struct {
	Category     string
	ReferenceURL string
	// SiteRoot resolves root-relative links; derived from ReferenceURL when empty.
	SiteRoot string
}

// Map parses refined chunk text and maps it to rows.
func Map(text string, opts Options) ([]core.Row, error) {
	doc, err := chunk.Parse(text)
	if err != nil {
		return nil, err
	}
	return MapDocument(doc, opts), nil
}

// MapDocument maps parsed chunks to rows. Row ids run 1..N across the whole
// document, in chunk order then placeholder order.
func MapDocument(doc chunk.Document, opts Options) []core.Row {
	if opts.SiteRoot == "" {
		opts.SiteRoot = urls.SiteRoot(opts.ReferenceURL)
	}

	var rows []core.Row
	nextID := 1
	for _, c := range doc.Chunks {
		if c.Empty {
			continue
		}
		for _, part := range split(c) {
			row := core.Row{
				ID:       nextID,
				Category: opts.Category,
				Topic:    doc.Topic,
				Concept:  c.Title,
				URL:      rowURL(opts.ReferenceURL, c.AnchorID),
				Tags:     core.DefaultTags,
			}
			var links []string
			row.Content, links = resolveLinks(clean(part.prose), opts, nil)
			row.UsageExample, links = resolveLinks(part.usage, opts, links)
			if links == nil {
				links = []string{}
			}
			row.Links = links
			rows = append(rows, row)
			nextID++
		}
	}
	return rows
}

type part struct {
	prose []string
	usage string
}

// split partitions a chunk body at its placeholders. Prose after the last
// placeholder joins the last part. Without placeholders or kept blocks the
// whole body is one part.
func split(c chunk.Chunk) []part {
	lines := strings.Split(c.Body, "\n")
	if !c.Listing || len(c.Kept) == 0 {
		return []part{{prose: lines}}
	}

	var parts []part
	var current []string
	inCode := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inCode:
			inCode = trimmed != chunk.CodeEnd
		case trimmed == chunk.CodeStart:
			inCode = true
		default:
			if n, ok := chunk.PlaceholderIndex(trimmed); ok {
				parts = append(parts, part{prose: current, usage: kept(c.Kept, n)})
				current = nil
				continue
			}
		}
		current = append(current, line)
	}

	if len(parts) == 0 {
		return []part{{prose: lines}}
	}
	last := &parts[len(parts)-1]
	last.prose = append(last.prose, current...)
	return parts
}

func kept(blocks []string, n int) string {
	if n < 1 || n > len(blocks) {
		return ""
	}
	return strings.TrimSpace(blocks[n-1])
}

// clean drops structural marker lines and blank lines outside code regions.
// Inline code keeps its lines; only the fences go.
func clean(lines []string) string {
	var out []string
	inCode := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inCode && trimmed == chunk.CodeEnd:
			inCode = false
		case inCode:
			out = append(out, line)
		case trimmed == chunk.CodeStart:
			inCode = true
		case trimmed == "" || chunk.IsStructural(trimmed):
		default:
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// resolveLinks strips link annotations from text and appends their resolved
// targets to links, skipping ones already present.
func resolveLinks(text string, opts Options, links []string) (string, []string) {
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		seen[l] = true
	}
	for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
		resolved := urls.Resolve(m[1], opts.ReferenceURL, opts.SiteRoot)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
	}
	return strings.TrimSpace(linkStripRe.ReplaceAllString(text, "")), links
}

func rowURL(reference, anchorID string) string {
	if anchorID == "" || anchorID == core.NoAnchorID {
		return reference
	}
	return urls.WithoutFragment(reference) + "#" + anchorID
}
