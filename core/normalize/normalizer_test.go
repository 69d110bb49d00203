package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/docrows/core/chunk"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tags become spaces",
			in:   "<p>An <strong>Ingress</strong> routes traffic.</p><p>It has rules.</p>",
			want: "An Ingress routes traffic.\nIt has rules.",
		},
		{
			name: "whitespace collapses",
			in:   "<p>  many\n\n   spaces\there </p>",
			want: "many spaces here",
		},
		{
			name: "entities decoded",
			in:   "<p>A &amp; B&nbsp;rules</p>",
			want: "A & B rules",
		},
		{
			name: "placeholder on own line",
			in:   "<p>Create it: \n" + chunk.Placeholder(1) + "\n then check.</p>",
			want: "Create it:\n" + chunk.Placeholder(1) + "\nthen check.",
		},
		{
			name: "placeholder glued to prose",
			in:   "Run this." + chunk.Placeholder(2) + "Done",
			want: "Run this.\n" + chunk.Placeholder(2) + "\nDone",
		},
		{
			name: "link annotations survive",
			in:   "<p>See install [LINK:#install]. Then go.</p>",
			want: "See install [LINK:#install].\nThen go.",
		},
		{
			name: "empty",
			in:   "  <div> </div> ",
			want: "",
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_CodeRegionsVerbatim(t *testing.T) {
	code := "  <b>not   markup</b>. keep\n\n  indented line"
	in := "<p>Before. Here.</p>\n" + chunk.CodeStart + "\n" + code + "\n" + chunk.CodeEnd + "\n<p>After.</p>"

	got := New().Normalize(in)
	assert.Equal(t, "Before.\nHere.\n"+chunk.CodeStart+"\n"+code+"\n"+chunk.CodeEnd+"\nAfter.", got)
}

func TestNormalize_UnterminatedCode(t *testing.T) {
	in := "Intro.\n" + chunk.CodeStart + "\nx <y>\n z"

	got := New().Normalize(in)
	assert.Equal(t, "Intro.\n"+chunk.CodeStart+"\nx <y>\n z\n"+chunk.CodeEnd, got)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"<p>An <em>Ingress</em> exposes routes.   It is an API object. See docs [LINK:/docs/b].</p>",
		"<ul><li>one.</li><li>two</li></ul>\n" + chunk.Placeholder(1) + "<p>tail. more</p>",
		"Prose.\n" + chunk.CodeStart + "\n  a.  b\n" + chunk.CodeEnd + "\n<p>x</p>",
		"<p>Replace <code>&lt;service-name&gt;</code> with your name. Then a &lt; b holds.</p>",
		"<p>Run <code>kubectl get pods -n &lt;namespace&gt; &lt;name&gt;</code>.</p>",
		"",
	}

	n := New()
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), in)
	}
}

func TestNormalize_Placeholders(t *testing.T) {
	got := New().Normalize("<p>Replace <code>&lt;service-name&gt;</code> with your name. Then a &lt; b holds.</p>")
	assert.Equal(t, "Replace <service-name> with your name.\nThen a < b holds.", got)
}

func TestDocument(t *testing.T) {
	doc := chunk.Document{
		Topic: "t",
		Chunks: []chunk.Chunk{
			{Index: 1, Title: "A", Body: "<p>One. Two.</p>", Listing: true, Kept: []string{"<raw>  code"}},
			{Index: 2, Empty: true},
		},
	}

	got := New().Document(doc)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "One.\nTwo.", got.Chunks[0].Body)
	assert.Equal(t, []string{"<raw>  code"}, got.Chunks[0].Kept)
	assert.True(t, got.Chunks[1].Empty)
	assert.Equal(t, "<p>One. Two.</p>", doc.Chunks[0].Body)
}
