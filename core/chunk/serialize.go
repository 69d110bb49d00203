package chunk

import "strings"

// Serialize renders doc in the intermediate text format. Chunks are numbered
// by position, so the start markers are always sequential from 1.
func Serialize(doc Document) string {
	kind := doc.Kind
	if kind == "" {
		kind = KindConcept
	}
	format := doc.Format
	if format == "" {
		format = FormatNumberedConcept
	}

	var b strings.Builder
	b.WriteString(TopicLine(doc.Topic))
	b.WriteString("\n\n")

	for i, c := range doc.Chunks {
		n := i + 1
		b.WriteString(StartMarker(kind, n))
		b.WriteString("\n\n")
		if !c.Empty {
			writeChunk(&b, format, n, c)
		}
		b.WriteString(Separator)
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeChunk(b *strings.Builder, format HeaderFormat, n int, c Chunk) {
	b.WriteString(Header(format, n, c.Title, c.AnchorID))
	b.WriteString("\n")
	b.WriteString(ContentMarker)
	b.WriteString("\n")
	if body := strings.TrimSpace(c.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !c.Listing {
		return
	}
	if len(c.Kept) == 0 {
		b.WriteString(NoKeptMarker)
		b.WriteString("\n\n")
		return
	}
	b.WriteString(KeptSummary(len(c.Kept)))
	b.WriteString("\n\n")
	for j, code := range c.Kept {
		b.WriteString(KeptEntry(j + 1))
		b.WriteString("\n")
		if code = strings.TrimSpace(code); code != "" {
			b.WriteString(code)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}
