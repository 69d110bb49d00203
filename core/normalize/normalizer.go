// Package normalize flattens chunk bodies into plain text: markup becomes
// whitespace, whitespace runs collapse, and every sentence ends its line.
// Code regions fenced by [CODE_BLOCK_START]/[CODE_BLOCK_END] pass through
// untouched.
package normalize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/docrows/core/chunk"
)

// TextNormalizer normalizes chunk bodies.
type TextNormalizer struct{}

// New creates a TextNormalizer.
func New() *TextNormalizer {
	return &TextNormalizer{}
}

// Document returns doc with every chunk body normalized. Headers and kept
// listings are not touched.
func (n *TextNormalizer) Document(doc chunk.Document) chunk.Document {
	out := doc
	out.Chunks = make([]chunk.Chunk, len(doc.Chunks))
	for i, c := range doc.Chunks {
		if !c.Empty {
			c.Body = n.Normalize(c.Body)
		}
		out.Chunks[i] = c
	}
	return out
}

// Normalize flattens one body. Fence lines are located before any markup
// is parsed, so code never reaches the tokenizer.
func (n *TextNormalizer) Normalize(body string) string {
	var out []string
	var prose []string

	flush := func() {
		if len(prose) > 0 {
			out = append(out, flatten(strings.Join(prose, "\n"))...)
			prose = nil
		}
	}

	lines := strings.Split(body, "\n")
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != chunk.CodeStart {
			prose = append(prose, lines[i])
			continue
		}
		flush()
		out = append(out, chunk.CodeStart)
		i++
		for ; i < len(lines) && strings.TrimSpace(lines[i]) != chunk.CodeEnd; i++ {
			out = append(out, lines[i])
		}
		// An unterminated region runs to the end of the body.
		out = append(out, chunk.CodeEnd)
	}
	flush()

	return strings.Join(out, "\n")
}

// flatten turns a prose run into trimmed, non-empty lines.
func flatten(text string) []string {
	text = strings.Join(strings.Fields(stripMarkup(text)), " ")
	text = strings.ReplaceAll(text, ". ", ".\n")
	text = chunk.InlineMarkers().ReplaceAllString(text, "\n$0\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// stripMarkup renders tags as single spaces and decodes entities. Tags that
// are not HTML elements are kept as text.
func stripMarkup(text string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Placeholders such as <service-name> are prose.
			raw := string(z.Raw())
			name, _ := z.TagName()
			if !elements[atom.Lookup(name)] {
				b.WriteString(raw)
				continue
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
		}
	}
}

// elements are the HTML element names stripped as markup.
var elements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.Address: true, atom.Area: true, atom.Article: true,
	atom.Aside: true, atom.Audio: true, atom.B: true, atom.Base: true, atom.Bdi: true,
	atom.Bdo: true, atom.Big: true, atom.Blockquote: true, atom.Body: true, atom.Br: true,
	atom.Button: true, atom.Canvas: true, atom.Caption: true, atom.Center: true, atom.Cite: true,
	atom.Code: true, atom.Col: true, atom.Colgroup: true, atom.Data: true, atom.Datalist: true,
	atom.Dd: true, atom.Del: true, atom.Details: true, atom.Dfn: true, atom.Dialog: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Em: true, atom.Embed: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Font: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Head: true, atom.Header: true, atom.Hgroup: true,
	atom.Hr: true, atom.Html: true, atom.I: true, atom.Iframe: true, atom.Img: true,
	atom.Input: true, atom.Ins: true, atom.Kbd: true, atom.Label: true, atom.Legend: true,
	atom.Li: true, atom.Link: true, atom.Main: true, atom.Map: true, atom.Mark: true,
	atom.Math: true, atom.Menu: true, atom.Meta: true, atom.Meter: true, atom.Nav: true,
	atom.Noscript: true, atom.Object: true, atom.Ol: true, atom.Optgroup: true, atom.Option: true,
	atom.Output: true, atom.P: true, atom.Param: true, atom.Picture: true, atom.Pre: true,
	atom.Progress: true, atom.Q: true, atom.Rp: true, atom.Rt: true, atom.Ruby: true,
	atom.S: true, atom.Samp: true, atom.Script: true, atom.Section: true, atom.Select: true,
	atom.Slot: true, atom.Small: true, atom.Source: true, atom.Span: true, atom.Strike: true,
	atom.Strong: true, atom.Style: true, atom.Sub: true, atom.Summary: true, atom.Sup: true,
	atom.Svg: true, atom.Table: true, atom.Tbody: true, atom.Td: true, atom.Template: true,
	atom.Textarea: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Time: true,
	atom.Title: true, atom.Tr: true, atom.Track: true, atom.Tt: true, atom.U: true,
	atom.Ul: true, atom.Var: true, atom.Video: true, atom.Wbr: true,
}
