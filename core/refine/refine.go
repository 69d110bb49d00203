// Package refine touches up serialized chunk text so that every structural
// marker sits on its own line with predictable spacing. It only moves
// whitespace and splits lines at marker boundaries; code lines pass through
// exactly as written.
package refine

import (
	"strings"

	"github.com/gaurav-prasanna/docrows/core/chunk"
)

type kind int

const (
	kindProse kind = iota
	kindCode
	kindCodeStart
	kindCodeEnd
	kindPlaceholder
	kindTopic
	kindStart
	kindHeader
	kindContent
	kindKeptSummary
	kindKeptEntry
	kindNoKept
	kindEnd
)

// loose markers get exactly one blank line on each side.
func (k kind) loose() bool {
	return k >= kindTopic
}

type unit struct {
	kind kind
	text string
	gap  int // blank lines before this unit in the input
}

// Refiner is the marker fix-up stage.
type Refiner struct{}

// New creates a Refiner.
func New() *Refiner {
	return &Refiner{}
}

// Refine returns text with marker spacing normalized. Refine is idempotent.
func (r *Refiner) Refine(text string) string {
	units := scan(text)
	if len(units) == 0 {
		return ""
	}

	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString(strings.Repeat("\n", blanksBetween(units[i-1], u)))
		}
		b.WriteString(u.text)
		b.WriteByte('\n')
	}
	return b.String()
}

func blanksBetween(prev, next unit) int {
	switch {
	case next.kind == kindCode && (prev.kind == kindCode || prev.kind == kindCodeStart || prev.kind == kindKeptEntry):
		return 0
	case next.kind == kindCodeEnd && (prev.kind == kindCode || prev.kind == kindCodeStart):
		return 0
	case prev.kind == kindHeader && next.kind == kindContent:
		return 0
	case prev.kind == kindContent && !next.kind.loose():
		return 0
	case prev.kind.loose() || next.kind.loose():
		return 1
	default:
		return next.gap
	}
}

// scan splits text into units. Code lines inside inline regions and kept
// listings are protected: they keep their exact text, blank ones included.
func scan(text string) []unit {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		units     []unit
		gap       int
		inInline  bool
		inListing bool
		inEntry   bool // inside the code of a [Code Block j]: entry
		entryCode bool // the current entry has seen a non-blank line
	)

	add := func(k kind, s string) {
		units = append(units, unit{kind: k, text: s, gap: gap})
		gap = 0
	}
	// endEntry turns trailing blank code lines of a listing entry into gap.
	endEntry := func() {
		for len(units) > 0 {
			last := units[len(units)-1]
			if last.kind != kindCode || strings.TrimSpace(last.text) != "" {
				break
			}
			units = units[:len(units)-1]
			gap++
		}
		inEntry = false
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inInline {
			if trimmed == chunk.CodeEnd {
				add(kindCodeEnd, trimmed)
				inInline = false
			} else {
				add(kindCode, line)
			}
			continue
		}

		if inEntry {
			_, isEntry := chunk.KeptEntryIndex(trimmed)
			_, _, isStart := chunk.ParseStartMarker(trimmed)
			if !isEntry && !isStart && trimmed != chunk.Separator {
				if trimmed == "" && !entryCode {
					gap++
					continue
				}
				entryCode = true
				add(kindCode, line)
				continue
			}
			endEntry()
		}

		if trimmed == "" {
			gap++
			continue
		}

		switch {
		case trimmed == chunk.StrayRule:
			// dropped
		case trimmed == chunk.CodeStart:
			add(kindCodeStart, trimmed)
			inInline = true
		case trimmed == chunk.CodeEnd:
			add(kindCodeEnd, trimmed)
		case trimmed == chunk.Separator:
			add(kindEnd, trimmed)
			inListing = false
		case trimmed == chunk.ContentMarker:
			add(kindContent, trimmed)
		case trimmed == chunk.NoKeptMarker:
			add(kindNoKept, trimmed)
			inListing = true
		case chunk.IsKeptSummary(trimmed):
			add(kindKeptSummary, trimmed)
			inListing = true
		case isStart(trimmed):
			add(kindStart, trimmed)
			inListing = false
		case isTopic(trimmed):
			add(kindTopic, trimmed)
		case chunk.IsHeader(trimmed):
			add(kindHeader, trimmed)
		case inListing && isEntry(trimmed):
			add(kindKeptEntry, trimmed)
			inEntry, entryCode = true, false
		case isPlaceholder(trimmed):
			add(kindPlaceholder, trimmed)
		default:
			if splitProse(line, add) {
				inListing = true
			}
		}
	}
	if inEntry {
		endEntry()
	}
	return units
}

// splitProse emits a prose line, moving any embedded placeholder or listing
// summary onto a line of its own. It reports whether a listing was opened.
func splitProse(line string, add func(kind, string)) (listing bool) {
	locs := chunk.InlineMarkers().FindAllStringIndex(line, -1)
	if locs == nil {
		add(kindProse, line)
		return false
	}

	prev := 0
	for _, loc := range locs {
		if before := strings.TrimSpace(line[prev:loc[0]]); before != "" {
			add(kindProse, before)
		}
		marker := line[loc[0]:loc[1]]
		switch {
		case isPlaceholder(marker):
			add(kindPlaceholder, marker)
		case marker == chunk.NoKeptMarker:
			add(kindNoKept, marker)
			listing = true
		default:
			add(kindKeptSummary, marker)
			listing = true
		}
		prev = loc[1]
	}
	if after := strings.TrimSpace(line[prev:]); after != "" {
		add(kindProse, after)
	}
	return listing
}

func isStart(s string) bool {
	_, _, ok := chunk.ParseStartMarker(s)
	return ok
}

func isTopic(s string) bool {
	_, ok := chunk.ParseTopicLine(s)
	return ok
}

func isEntry(s string) bool {
	_, ok := chunk.KeptEntryIndex(s)
	return ok
}

func isPlaceholder(s string) bool {
	_, ok := chunk.PlaceholderIndex(s)
	return ok
}
