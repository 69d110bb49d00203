// Package chunk implements the intermediate chunk text format shared by the
// pipeline stages: a topic line followed by delimited chunk records, one per
// section, each with a header line, a "Content:" marker, a body and an
// optional kept-code listing.
//
// Stages pass Document values in memory; the text form is produced by
// Serialize and read back by Parse only where a file boundary needs it.
package chunk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/docrows/core"
)

// Fixed markers of the format. They must stay byte-exact.
const (
	Separator     = "=================================================="
	ContentMarker = "Content:"
	CodeStart     = "[CODE_BLOCK_START]"
	CodeEnd       = "[CODE_BLOCK_END]"
	NoKeptMarker  = "=== No code blocks kept ==="
	StrayRule     = "=========="
)

// Kind is the label carried in chunk start markers.
type Kind string

const (
	KindConcept  Kind = "CONCEPT"
	KindCategory Kind = "CATEGORY"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindConcept, "":
		return KindConcept, nil
	case KindCategory:
		return KindCategory, nil
	default:
		return "", fmt.Errorf("unknown chunk kind %q", s)
	}
}

// HeaderFormat selects the grammar of the per-chunk header line.
type HeaderFormat string

const (
	// FormatConcept renders "Concept: <title> [id: <id>]".
	FormatConcept HeaderFormat = "concept"
	// FormatNumberedCategory renders "[<n>] Category Title: <title>".
	FormatNumberedCategory HeaderFormat = "numbered-category"
	// FormatNumberedConcept renders "[<n>] Concept: <title> [id: <id>]".
	FormatNumberedConcept HeaderFormat = "numbered-concept"
)

// ParseHeaderFormat validates a header format name.
func ParseHeaderFormat(s string) (HeaderFormat, error) {
	switch HeaderFormat(strings.TrimSpace(s)) {
	case FormatNumberedConcept, "":
		return FormatNumberedConcept, nil
	case FormatConcept:
		return FormatConcept, nil
	case FormatNumberedCategory:
		return FormatNumberedCategory, nil
	default:
		return "", fmt.Errorf("unknown header format %q", s)
	}
}

// Chunk is the typed form of one chunk record.
type Chunk struct {
	Index    int
	Title    string
	AnchorID string
	Body     string
	// Listing is true when the chunk carries a kept-blocks listing or the
	// no-blocks sentinel. Kept[j-1] is the text of "[Code Block j]".
	Listing bool
	Kept    []string
	// Empty marks a record with nothing between its markers.
	Empty bool
}

// Document is the typed form of a whole intermediate file.
type Document struct {
	Topic  string
	Kind   Kind
	Format HeaderFormat
	Chunks []Chunk
}

var (
	topicRe       = regexp.MustCompile(`^\[TOPIC:\s*(.*?)\]$`)
	startRe       = regexp.MustCompile(`^===== ([A-Z]+) CHUNK #(\d+) =====$`)
	placeholderRe = regexp.MustCompile(`========\[code block (\d+)\]========`)
	keptSummaryRe = regexp.MustCompile(`=== Kept (\d+) Code Block\(s\) ===`)
	keptEntryRe   = regexp.MustCompile(`^\[Code Block (\d+)\]:$`)

	numberedConceptRe  = regexp.MustCompile(`^\[(\d+)\]\s*Concept:\s*(.*?)\s*\[id:\s*(.*?)\]$`)
	conceptRe          = regexp.MustCompile(`^Concept:\s*(.*?)\s*\[id:\s*(.*?)\]$`)
	numberedCategoryRe = regexp.MustCompile(`^\[(\d+)\]\s*Category Title:\s*(.*?)$`)
)

// TopicLine renders the leading topic line.
func TopicLine(topic string) string {
	return "[TOPIC: " + topic + "]"
}

// StartMarker renders "===== <KIND> CHUNK #<n> =====".
func StartMarker(kind Kind, n int) string {
	return fmt.Sprintf("===== %s CHUNK #%d =====", kind, n)
}

// Placeholder renders the sentinel line standing in for kept block n.
func Placeholder(n int) string {
	return fmt.Sprintf("========[code block %d]========", n)
}

// KeptSummary renders "=== Kept <n> Code Block(s) ===".
func KeptSummary(n int) string {
	return fmt.Sprintf("=== Kept %d Code Block(s) ===", n)
}

// KeptEntry renders the "[Code Block j]:" listing line.
func KeptEntry(j int) string {
	return fmt.Sprintf("[Code Block %d]:", j)
}

// Header renders the header line of chunk n in the given format.
func Header(format HeaderFormat, n int, title, anchorID string) string {
	if anchorID == "" {
		anchorID = core.NoAnchorID
	}
	switch format {
	case FormatConcept:
		return fmt.Sprintf("Concept: %s [id: %s]", title, anchorID)
	case FormatNumberedCategory:
		return fmt.Sprintf("[%d] Category Title: %s", n, title)
	default:
		return fmt.Sprintf("[%d] Concept: %s [id: %s]", n, title, anchorID)
	}
}

// ParseHeader extracts the title and anchor id from a header line in any of
// the supported formats.
func ParseHeader(line string) (title, anchorID string, ok bool) {
	line = strings.TrimSpace(line)
	if m := numberedConceptRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), true
	}
	if m := conceptRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := numberedCategoryRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), "", true
	}
	return "", "", false
}

// IsHeader reports whether line is a header line.
func IsHeader(line string) bool {
	_, _, ok := ParseHeader(line)
	return ok
}

// ParseStartMarker returns the kind and index of a start marker line.
func ParseStartMarker(line string) (Kind, int, bool) {
	m := startRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return Kind(m[1]), n, true
}

// ParseTopicLine returns the topic of a "[TOPIC: ...]" line.
func ParseTopicLine(line string) (string, bool) {
	m := topicRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// PlaceholderIndex returns n when line is exactly a placeholder sentinel.
func PlaceholderIndex(line string) (int, bool) {
	line = strings.TrimSpace(line)
	loc := placeholderRe.FindStringSubmatchIndex(line)
	if loc == nil || loc[0] != 0 || loc[1] != len(line) {
		return 0, false
	}
	n, err := strconv.Atoi(line[loc[2]:loc[3]])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsKeptSummary reports whether line is exactly a kept-blocks summary.
func IsKeptSummary(line string) bool {
	line = strings.TrimSpace(line)
	loc := keptSummaryRe.FindStringIndex(line)
	return loc != nil && loc[0] == 0 && loc[1] == len(line)
}

// KeptEntryIndex returns j when line is a "[Code Block j]:" entry.
func KeptEntryIndex(line string) (int, bool) {
	m := keptEntryRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// InlineMarkers returns the regular expression matching structural markers
// that may end up embedded in a prose line: placeholders, kept summaries and
// the no-blocks sentinel.
func InlineMarkers() *regexp.Regexp {
	return inlineMarkerRe
}

var inlineMarkerRe = regexp.MustCompile(
	placeholderRe.String() + `|` + keptSummaryRe.String() + `|` + regexp.QuoteMeta(NoKeptMarker),
)

// IsStructural reports whether a trimmed line is any structural marker of
// the format. Used to strip residual markers from final text.
func IsStructural(line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case Separator, ContentMarker, CodeStart, CodeEnd, NoKeptMarker, StrayRule:
		return true
	}
	if _, _, ok := ParseStartMarker(line); ok {
		return true
	}
	if _, ok := ParseTopicLine(line); ok {
		return true
	}
	if _, ok := PlaceholderIndex(line); ok {
		return true
	}
	if _, ok := KeptEntryIndex(line); ok {
		return true
	}
	return IsKeptSummary(line) || IsHeader(line)
}
