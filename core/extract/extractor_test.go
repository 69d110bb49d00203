package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/docrows/core"
)

const docsyPage = `<!doctype html>
<html lang="de">
<head><title>Ingress</title><script>var x = 1;</script></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
  <div class="td-sidebar">menu</div>
  <div class="td-content">
    <h1>Ingress</h1>
    <p>An API object that manages external access.</p>
  </div>
</main>
<footer>copyright</footer>
</body>
</html>`

func TestExtract_ContentSelector(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(docsyPage, "https://kubernetes.io/docs/ingress/")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, `<div class="td-content">`))
	assert.Contains(t, got, "<h1>Ingress</h1>")
	assert.NotContains(t, got, "menu")
	assert.NotContains(t, got, "copyright")
}

func TestExtract_MultipleMatchesJoined(t *testing.T) {
	page := `<html><body><section class="doc"><p>one</p></section><div>skip</div><section class="doc"><p>two</p></section></body></html>`

	e, err := New("section.doc")
	require.NoError(t, err)

	got, err := e.Extract(page, "")
	require.NoError(t, err)
	assert.Equal(t, `<section class="doc"><p>one</p></section>`+"\n\n"+`<section class="doc"><p>two</p></section>`, got)
}

func TestExtract_MainFallback(t *testing.T) {
	page := `<html><body><nav>links</nav><main><h1>Title</h1><p>Body.</p></main></body></html>`

	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(page, "")
	require.NoError(t, err)
	assert.Equal(t, "<main><h1>Title</h1><p>Body.</p></main>", got)
}

func TestExtract_NoContainerFallsBack(t *testing.T) {
	para := strings.Repeat("Ingress exposes HTTP and HTTPS routes from outside the cluster to services. ", 8)
	page := `<html><body><div class="wrapper"><div class="post"><p>` + para + `</p><p>` + para + `</p></div></div></body></html>`

	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(page, "https://x.io/docs/a")
	require.NoError(t, err)
	assert.Contains(t, got, "Ingress exposes HTTP and HTTPS routes")
}

func TestExtract_StructuredBodyKeepsHeadings(t *testing.T) {
	page := `<html><body><h1>ingress</h1><h2 id="a">A</h2><p>one</p><h2 id="b">B</h2><p>two</p></body></html>`

	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(page, "https://x.io/docs/ingress/")
	require.NoError(t, err)
	assert.Equal(t, `<body><h1>ingress</h1><h2 id="a">A</h2><p>one</p><h2 id="b">B</h2><p>two</p></body>`, got)
}

func TestExtract_Headers(t *testing.T) {
	page := `<html><body>
<header><a href="/">Site</a> banner</header>
<article><header><h1>ingress</h1></header><h2>A</h2><p>one</p></article>
</body></html>`

	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(page, "")
	require.NoError(t, err)
	assert.Contains(t, got, "<header><h1>ingress</h1></header>")
	assert.NotContains(t, got, "banner")
}

func TestExtract_HeaderInsideContentSelector(t *testing.T) {
	page := `<html><body><header>banner</header><div class="td-content"><header><h1>ingress</h1></header></div></body></html>`

	e, err := New()
	require.NoError(t, err)

	got, err := e.Extract(page, "")
	require.NoError(t, err)
	assert.Equal(t, `<div class="td-content"><header><h1>ingress</h1></header></div>`, got)
}

func TestExtract_Empty(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	_, err = e.Extract("   ", "")
	assert.True(t, errors.Is(err, core.ErrEmptyDocument))
}

func TestNew_BadSelector(t *testing.T) {
	_, err := New("div[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"div["`)
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "de", Language(docsyPage))
	assert.Equal(t, "en", Language("<html><body></body></html>"))
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown("<h2>Rules</h2><p>Each rule has a <strong>host</strong>.</p>")
	require.NoError(t, err)
	assert.Contains(t, md, "## Rules")
	assert.Contains(t, md, "**host**")
}
