package chunk

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/docrows/core"
)

// Parse reads intermediate text back into a Document. Missing headers and
// content markers degrade to sentinel values; the only error is a start
// marker whose number breaks the 1..N sequence.
func Parse(text string) (Document, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	doc := Document{Topic: core.UnknownTopic, Kind: KindConcept}

	topicSeen := false
	var current []string
	inChunk := false
	expected := 1

	flush := func() {
		if inChunk {
			doc.Chunks = append(doc.Chunks, parseRecord(expected-1, current))
		}
		current = nil
		inChunk = false
	}

	for _, line := range lines {
		if kind, n, ok := ParseStartMarker(line); ok {
			flush()
			if n != expected {
				return Document{}, &core.StageError{
					Stage: core.StageParse,
					Chunk: n,
					Err:   fmt.Errorf("%w: expected #%d", core.ErrChunkOrder, expected),
				}
			}
			if expected == 1 {
				doc.Kind = kind
			}
			expected++
			inChunk = true
			continue
		}
		if !inChunk {
			if topic, ok := ParseTopicLine(line); ok && !topicSeen {
				doc.Topic = topic
				topicSeen = true
			}
			continue
		}
		if strings.TrimSpace(line) == Separator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return doc, nil
}

// parseRecord builds one Chunk from the lines between its markers.
func parseRecord(index int, lines []string) Chunk {
	c := Chunk{Index: index}

	if strings.TrimSpace(strings.Join(lines, "")) == "" {
		c.Empty = true
		return c
	}

	contentAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == ContentMarker {
			contentAt = i
			break
		}
	}

	headerScope := lines
	if contentAt != -1 {
		headerScope = lines[:contentAt]
	}
	c.Title = core.UnknownConcept
	for _, line := range headerScope {
		if title, id, ok := ParseHeader(line); ok {
			c.Title = title
			c.AnchorID = id
			break
		}
	}

	if contentAt == -1 {
		c.Body = core.UnknownContent
		return c
	}

	body, listing := splitListing(lines[contentAt+1:])
	c.Body = strings.TrimSpace(strings.Join(body, "\n"))
	if listing != nil {
		c.Listing = true
		c.Kept = parseListing(listing)
	}
	return c
}

// splitListing separates body lines from a trailing kept-blocks listing.
// Lines inside inline code regions never start a listing.
func splitListing(lines []string) (body, listing []string) {
	inCode := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inCode:
			if trimmed == CodeEnd {
				inCode = false
			}
		case trimmed == CodeStart:
			inCode = true
		case trimmed == NoKeptMarker || IsKeptSummary(trimmed):
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

// parseListing returns the kept blocks of a listing, indexed by entry number.
func parseListing(lines []string) []string {
	if strings.TrimSpace(lines[0]) == NoKeptMarker {
		return nil
	}

	entries := map[int][]string{}
	maxIndex := 0
	current := 0
	for _, line := range lines[1:] {
		if j, ok := KeptEntryIndex(line); ok {
			current = j
			if j > maxIndex {
				maxIndex = j
			}
			entries[j] = []string{}
			continue
		}
		if current > 0 {
			entries[current] = append(entries[current], line)
		}
	}

	if maxIndex == 0 {
		return nil
	}
	kept := make([]string, maxIndex)
	for j, code := range entries {
		kept[j-1] = strings.TrimSpace(strings.Join(code, "\n"))
	}
	return kept
}
