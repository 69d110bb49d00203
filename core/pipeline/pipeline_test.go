package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/codeblock"
	"github.com/gaurav-prasanna/docrows/core/config"
	"github.com/gaurav-prasanna/docrows/core/output"
)

const ingressURL = "https://kubernetes.io/docs/concepts/services-networking/ingress/"

const ingressCode = "apiVersion: networking.k8s.io/v1\nkind: Ingress\nmetadata:\n  name: minimal-ingress"

const ingressHTML = `<!DOCTYPE html>
<html lang="en">
<head><title>Ingress | Kubernetes</title><script>var x = 1;</script></head>
<body>
<nav><a href="/docs/home/">Home</a></nav>
<div class="td-content">
<h1>ingress</h1>
<p>Intro text.</p>
<h2 id="terminology">Terminology</h2>
<p>An <a href="/docs/concepts/">Ingress</a> exposes routes. See <a href="#example">below</a>.</p>
<h2 id="example">Example</h2>
<p>Create the resource:</p>
<pre><code>` + ingressCode + `</code></pre>
</div>
<footer>footer</footer>
</body>
</html>`

func newPipeline(t *testing.T, mutate func(*config.Config), opts ...Option) *Pipeline {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	p, err := New(cfg, opts...)
	require.NoError(t, err)
	return p
}

func TestRun_Ingress(t *testing.T) {
	p := newPipeline(t, nil)

	kb, err := p.Run(context.Background(), core.NewDocument(ingressURL, ingressHTML))
	require.NoError(t, err)

	assert.Equal(t, "ingress", kb.Topic)
	assert.Equal(t, "Kubernetes_ingress", kb.Category)
	assert.Equal(t, "en", kb.Language)
	assert.True(t, kb.UsageColumn)
	require.Len(t, kb.Rows, 2)

	first := kb.Rows[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Terminology", first.Concept)
	assert.Equal(t, ingressURL+"#terminology", first.URL)
	assert.Empty(t, first.UsageExample)
	assert.Equal(t, []string{
		"https://kubernetes.io/docs/concepts/",
		ingressURL + "#example",
	}, first.Links)
	assert.NotContains(t, first.Content, "[LINK:")
	assert.Contains(t, first.Content, "An Ingress exposes routes.")

	second := kb.Rows[1]
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "Example", second.Concept)
	assert.Equal(t, "Create the resource:", second.Content)
	assert.Equal(t, ingressCode, second.UsageExample)
	assert.Equal(t, ingressURL+"#example", second.URL)
	assert.Equal(t, core.DefaultTags, second.Tags)
}

func TestRun_BareBody(t *testing.T) {
	code := "kubectl apply -f a.yaml\nkubectl get ingress\nkubectl describe ingress\nkubectl delete ingress"
	pages := map[string]string{
		"body": `<html><body><h1>ingress</h1>
<h2 id="a">A</h2><p>First section.</p>
<h2 id="b">B</h2><p>Run:</p><pre><code>` + code + `</code></pre>
</body></html>`,
		"article header": `<html><body><header>Site banner</header><article><header><h1>ingress</h1></header>
<h2 id="a">A</h2><p>First section.</p>
<h2 id="b">B</h2><p>Run:</p><pre><code>` + code + `</code></pre>
</article></body></html>`,
	}

	for name, html := range pages {
		t.Run(name, func(t *testing.T) {
			p := newPipeline(t, nil)

			kb, err := p.Run(context.Background(), core.NewDocument(ingressURL, html))
			require.NoError(t, err)

			assert.Equal(t, "ingress", kb.Topic)
			require.Len(t, kb.Rows, 2)
			assert.Equal(t, 1, kb.Rows[0].ID)
			assert.Equal(t, "A", kb.Rows[0].Concept)
			assert.Empty(t, kb.Rows[0].UsageExample)
			assert.Equal(t, 2, kb.Rows[1].ID)
			assert.Equal(t, "B", kb.Rows[1].Concept)
			assert.Equal(t, code, kb.Rows[1].UsageExample)
		})
	}
}

func TestRun_InlineCode(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) { c.Code.Inline = true })

	kb, err := p.Run(context.Background(), core.NewDocument(ingressURL, ingressHTML))
	require.NoError(t, err)

	assert.False(t, kb.UsageColumn)
	require.Len(t, kb.Rows, 2)
	assert.Empty(t, kb.Rows[1].UsageExample)
	assert.Contains(t, kb.Rows[1].Content, "kind: Ingress")
	assert.NotContains(t, kb.Rows[1].Content, "[CODE_BLOCK_START]")
}

func TestRun_CustomClassifier(t *testing.T) {
	never := codeblock.ClassifierFunc(func(string) bool { return false })
	p := newPipeline(t, nil, WithClassifier(never))

	kb, err := p.Run(context.Background(), core.NewDocument(ingressURL, ingressHTML))
	require.NoError(t, err)
	require.Len(t, kb.Rows, 2)
	assert.Empty(t, kb.Rows[1].UsageExample)
}

func TestRun_NoHeadings(t *testing.T) {
	p := newPipeline(t, nil)
	html := `<html><body><div class="td-content"><p>Nothing to split.</p></div></body></html>`

	kb, err := p.Run(context.Background(), core.NewDocument("https://x.io/docs/a/", html))
	require.NoError(t, err)
	assert.Equal(t, core.UnknownTopic, kb.Topic)
	assert.Empty(t, kb.Rows)
}

func TestRun_Errors(t *testing.T) {
	p := newPipeline(t, nil)

	t.Run("empty document", func(t *testing.T) {
		_, err := p.Run(context.Background(), core.NewDocument(ingressURL, "  "))
		require.Error(t, err)

		var stageErr *core.StageError
		require.True(t, errors.As(err, &stageErr))
		assert.Equal(t, core.StageExtract, stageErr.Stage)
		assert.ErrorIs(t, err, core.ErrEmptyDocument)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Run(ctx, core.NewDocument(ingressURL, ingressHTML))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRun_Workspace(t *testing.T) {
	ws, err := output.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	p := newPipeline(t, nil, WithWorkspace(ws))

	kb, err := p.Run(context.Background(), core.NewDocument(ingressURL, ingressHTML))
	require.NoError(t, err)
	require.Len(t, kb.Rows, 2)

	for _, name := range []string{
		output.ArtifactContent,
		output.ArtifactMarkdown,
		output.ArtifactAnnotated,
		output.ArtifactSections,
		output.ArtifactCode,
		output.ArtifactNormalized,
		output.ArtifactRefined,
	} {
		assert.FileExists(t, ws.Path(name))
	}

	coded, err := ws.Read(output.ArtifactCode)
	require.NoError(t, err)
	assert.Contains(t, coded, "========[code block 1]========")
	assert.Contains(t, coded, "=== Kept 1 Code Block(s) ===")
}

func TestResume(t *testing.T) {
	ws, err := output.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	p := newPipeline(t, nil, WithWorkspace(ws))
	doc := core.NewDocument(ingressURL, ingressHTML)

	want, err := p.Run(context.Background(), doc)
	require.NoError(t, err)

	for _, stage := range []string{core.StageNormalize, core.StageRefine, core.StageMap} {
		t.Run(stage, func(t *testing.T) {
			got, err := p.Resume(context.Background(), doc, stage)
			require.NoError(t, err)
			assert.Equal(t, want.Rows, got.Rows)
		})
	}

	_, err = p.Resume(context.Background(), doc, core.StageSegment)
	assert.Error(t, err)
}

func TestResume_MissingArtifact(t *testing.T) {
	ws, err := output.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	p := newPipeline(t, nil, WithWorkspace(ws))

	_, err = p.Resume(context.Background(), core.NewDocument(ingressURL, ""), core.StageRefine)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingArtifact)

	var stageErr *core.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, core.StageRefine, stageErr.Stage)
	assert.Equal(t, ws.Path(output.ArtifactNormalized), stageErr.Path)

	_, err = newPipeline(t, nil).Resume(context.Background(), core.Document{}, core.StageMap)
	assert.Error(t, err)
}

func TestForWorkspace(t *testing.T) {
	p := newPipeline(t, nil)
	ws, err := output.NewWorkspace(t.TempDir())
	require.NoError(t, err)

	_, err = p.ForWorkspace(ws).Run(context.Background(), core.NewDocument(ingressURL, ingressHTML))
	require.NoError(t, err)
	assert.FileExists(t, ws.Path(output.ArtifactRefined))
	assert.Nil(t, p.workspace)
}

func TestRunBatch_Isolation(t *testing.T) {
	urls := []string{"https://x.io/a", "https://x.io/bad", "https://x.io/c"}

	results := RunBatch(context.Background(), urls, 2, func(_ context.Context, i int, u string) (string, int, error) {
		if u == "https://x.io/bad" {
			return "", 0, fmt.Errorf("fetch %s: boom", u)
		}
		return fmt.Sprintf("out/%d.csv", i), i + 1, nil
	}, nil)

	require.Len(t, results, 3)
	assert.Equal(t, 1, Failed(results))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, urls[i], r.URL)
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "out/2.csv", results[2].Path)
	assert.Equal(t, 3, results[2].Rows)
}

func TestRunBatch_Limit(t *testing.T) {
	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://x.io/%d", i)
	}

	var inFlight, peak atomic.Int32
	results := RunBatch(context.Background(), urls, 2, func(context.Context, int, string) (string, int, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return "", 0, nil
	}, nil)

	assert.Equal(t, 0, Failed(results))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := RunBatch(ctx, []string{"a", "b"}, 1, func(context.Context, int, string) (string, int, error) {
		calls.Add(1)
		return "", 0, nil
	}, nil)

	assert.Equal(t, 2, Failed(results))
	assert.Zero(t, calls.Load())
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
