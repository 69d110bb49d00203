package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/docrows/core/chunk"
)

func canonical() string {
	return chunk.Serialize(chunk.Document{
		Topic:  "ingress",
		Format: chunk.FormatNumberedConcept,
		Chunks: []chunk.Chunk{
			{Title: "Terminology", AnchorID: "terminology", Body: "An Ingress exposes routes.\nSee docs."},
			{
				Title:    "Example",
				AnchorID: "example",
				Body:     "Create it:\n" + chunk.Placeholder(1) + "\nThen check.",
				Listing:  true,
				Kept:     []string{"spec:\n\n  rules: []\n==========\nend"},
			},
			{Title: "Inline", AnchorID: "inline", Body: "Run:\n" + chunk.CodeStart + "\n  a\n\n" + chunk.StrayRule + "\n" + chunk.CodeEnd},
			{Title: "Nothing", AnchorID: "nothing", Listing: true},
			{Empty: true},
		},
	})
}

func TestRefine_CanonicalIsFixedPoint(t *testing.T) {
	in := canonical()
	assert.Equal(t, in, New().Refine(in))
}

func TestRefine_Idempotent(t *testing.T) {
	messy := strings.Join([]string{
		"[TOPIC: t]",
		"===== CONCEPT CHUNK #1 =====",
		"[1] Concept: A [id: a]",
		"",
		"Content:",
		"",
		"",
		"Intro text " + chunk.Placeholder(1) + " trailing words.",
		"==========",
		"More." + chunk.KeptSummary(1),
		"[Code Block 1]:",
		"",
		"  kubectl apply -f x.yaml",
		"",
		"",
		chunk.Separator,
	}, "\n")

	r := New()
	once := r.Refine(messy)
	assert.Equal(t, once, r.Refine(once))
}

func TestRefine_FixUps(t *testing.T) {
	in := strings.Join([]string{
		"[TOPIC: t]",
		"===== CONCEPT CHUNK #1 =====",
		"[1] Concept: A [id: a]",
		"",
		"Content:",
		"",
		"Intro " + chunk.Placeholder(1) + " tail.",
		"==========",
		"More." + chunk.KeptSummary(1),
		"[Code Block 1]:",
		"",
		"kubectl get pods",
		chunk.Separator,
	}, "\n")

	want := strings.Join([]string{
		"[TOPIC: t]",
		"",
		"===== CONCEPT CHUNK #1 =====",
		"",
		"[1] Concept: A [id: a]",
		"Content:",
		"Intro",
		chunk.Placeholder(1),
		"tail.",
		"More.",
		"",
		chunk.KeptSummary(1),
		"",
		"[Code Block 1]:",
		"kubectl get pods",
		"",
		chunk.Separator,
		"",
	}, "\n")

	assert.Equal(t, want, New().Refine(in))
}

func TestRefine_ProtectsCode(t *testing.T) {
	code := "  x ==  " + chunk.Placeholder(3) + "\n\n" + chunk.StrayRule + "\n\t" + chunk.NoKeptMarker
	in := "Content:\n" + chunk.CodeStart + "\n" + code + "\n" + chunk.CodeEnd + "\n"

	got := New().Refine(in)
	assert.Contains(t, got, chunk.CodeStart+"\n"+code+"\n"+chunk.CodeEnd)
}

func TestRefine_RoundTripsThroughParse(t *testing.T) {
	got, err := chunk.Parse(New().Refine(canonical()))
	require.NoError(t, err)
	require.Len(t, got.Chunks, 5)

	assert.Equal(t, []string{"spec:\n\n  rules: []\n==========\nend"}, got.Chunks[1].Kept)
	assert.Equal(t, "Run:\n"+chunk.CodeStart+"\n  a\n\n"+chunk.StrayRule+"\n"+chunk.CodeEnd, got.Chunks[2].Body)
	assert.True(t, got.Chunks[3].Listing)
	assert.Empty(t, got.Chunks[3].Kept)
	assert.True(t, got.Chunks[4].Empty)
}

func TestRefine_Empty(t *testing.T) {
	assert.Equal(t, "", New().Refine("\n\n  \n"))
}
