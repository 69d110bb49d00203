// Package pipeline runs one document through the chunk stages:
// extract → annotate → segment → embed → normalize → refine → map.
//
// Stages hand typed values to each other in memory. When a workspace is
// attached, every stage boundary is also written to disk and the text stages
// read their input back from the predecessor's artifact.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/annotate"
	"github.com/gaurav-prasanna/docrows/core/chunk"
	"github.com/gaurav-prasanna/docrows/core/codeblock"
	"github.com/gaurav-prasanna/docrows/core/config"
	"github.com/gaurav-prasanna/docrows/core/extract"
	"github.com/gaurav-prasanna/docrows/core/mapper"
	"github.com/gaurav-prasanna/docrows/core/normalize"
	"github.com/gaurav-prasanna/docrows/core/output"
	"github.com/gaurav-prasanna/docrows/core/refine"
	"github.com/gaurav-prasanna/docrows/core/segment"
	"github.com/gaurav-prasanna/docrows/core/urls"
)

// Pipeline holds the configured stages. It is safe for concurrent use; a
// per-document workspace is attached with ForWorkspace.
type Pipeline struct {
	categoryPrefix string
	kind           chunk.Kind
	format         chunk.HeaderFormat

	extractor  core.Extractor
	segmenter  *segment.Segmenter
	classifier codeblock.Classifier
	embedder   *codeblock.Embedder
	normalizer *normalize.TextNormalizer
	refiner    *refine.Refiner

	workspace *output.Workspace
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkspace makes the pipeline hand stage output through ws.
func WithWorkspace(ws *output.Workspace) Option {
	return func(p *Pipeline) {
		p.workspace = ws
	}
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClassifier replaces the code classifier built from the config.
func WithClassifier(c codeblock.Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// New builds a Pipeline from a validated config.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	kind, err := chunk.ParseKind(cfg.Chunk.Kind)
	if err != nil {
		return nil, err
	}
	format, err := chunk.ParseHeaderFormat(cfg.Chunk.HeaderFormat)
	if err != nil {
		return nil, err
	}
	extractor, err := extract.New(cfg.ContentSelectors...)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		categoryPrefix: cfg.CategoryPrefix,
		kind:           kind,
		format:         format,
		extractor:      extractor,
		segmenter:      segment.New(cfg.HeadingLevel),
		normalizer:     normalize.New(),
		refiner:        refine.New(),
		logger:         zap.NewNop(),
		classifier:     cfg.Classifier(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.embedder, err = codeblock.New(p.classifier, cfg.Code.HighlightClasses, cfg.Code.Inline)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ForWorkspace returns a copy of p that hands stage output through ws.
func (p *Pipeline) ForWorkspace(ws *output.Workspace) *Pipeline {
	cp := *p
	cp.workspace = ws
	return &cp
}

// Run converts one document into a knowledge base. Every failure is a
// *core.StageError naming the stage it happened in.
func (p *Pipeline) Run(ctx context.Context, doc core.Document) (*core.KnowledgeBase, error) {
	log := p.logger.With(zap.String("url", doc.URL))
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := p.extractor.Extract(doc.HTML, doc.URL)
	if err != nil {
		return nil, core.NewStageError(core.StageExtract, 0, err)
	}
	if err := p.save(core.StageExtract, output.ArtifactContent, content); err != nil {
		return nil, err
	}
	if p.workspace != nil {
		if md, err := extract.Markdown(content); err != nil {
			log.Warn("markdown rendering failed", zap.Error(err))
		} else if err := p.save(core.StageExtract, output.ArtifactMarkdown, md); err != nil {
			return nil, err
		}
	}
	log.Debug("stage done", zap.String("stage", core.StageExtract), zap.Int("bytes", len(content)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	annotated, err := annotate.Annotate(content)
	if err != nil {
		return nil, core.NewStageError(core.StageAnnotate, 0, err)
	}
	if err := p.save(core.StageAnnotate, output.ArtifactAnnotated, annotated); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic, sections, err := p.segmenter.Segment(annotated)
	if err != nil {
		return nil, core.NewStageError(core.StageSegment, 0, err)
	}
	segmented := p.document(topic, len(sections))
	for i, s := range sections {
		segmented.Chunks[i] = chunk.Chunk{Index: i + 1, Title: s.Title, AnchorID: s.AnchorID, Body: s.ContentHTML}
	}
	if err := p.save(core.StageSegment, output.ArtifactSections, chunk.Serialize(segmented)); err != nil {
		return nil, err
	}
	log.Debug("stage done", zap.String("stage", core.StageSegment),
		zap.String("topic", topic), zap.Int("sections", len(sections)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	embedded := p.document(topic, len(sections))
	kept := 0
	for i, c := range segmented.Chunks {
		body, codes, err := p.embedder.Embed(c.Body)
		if err != nil {
			return nil, core.NewStageError(core.StageEmbed, i+1, err)
		}
		c.Body = body
		c.Listing = !p.embedder.Inline()
		c.Kept = codes
		embedded.Chunks[i] = c
		kept += len(codes)
	}
	log.Debug("stage done", zap.String("stage", core.StageEmbed), zap.Int("kept", kept))

	kb, err := p.finish(ctx, doc, chunk.Serialize(embedded))
	if err != nil {
		return nil, err
	}
	log.Info("document converted",
		zap.String("topic", kb.Topic),
		zap.Int("rows", len(kb.Rows)),
		zap.Duration("duration", time.Since(start)))
	return kb, nil
}

// Resume re-runs the text stages from the artifacts already in the
// workspace, starting at stage (normalize, refine or map). doc supplies the
// reference URL and the page HTML for the language; its HTML may be empty.
func (p *Pipeline) Resume(ctx context.Context, doc core.Document, stage string) (*core.KnowledgeBase, error) {
	if p.workspace == nil {
		return nil, fmt.Errorf("resume needs a workspace")
	}

	var input string
	switch stage {
	case core.StageNormalize:
		input = output.ArtifactCode
	case core.StageRefine:
		input = output.ArtifactNormalized
	case core.StageMap:
		input = output.ArtifactRefined
	default:
		return nil, fmt.Errorf("cannot resume from stage %q", stage)
	}

	text, err := p.load(stage, input)
	if err != nil {
		return nil, err
	}

	switch stage {
	case core.StageNormalize:
		return p.finish(ctx, doc, text)
	case core.StageRefine:
		return p.refineAndMap(ctx, doc, text)
	default:
		return p.mapRows(ctx, doc, text)
	}
}

// finish runs normalize, refine and map over the serialized embedded chunks.
func (p *Pipeline) finish(ctx context.Context, doc core.Document, coded string) (*core.KnowledgeBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := p.handoff(core.StageEmbed, core.StageNormalize, output.ArtifactCode, coded)
	if err != nil {
		return nil, err
	}
	parsed, err := chunk.Parse(text)
	if err != nil {
		return nil, err
	}
	parsed.Format = p.format
	normalized := chunk.Serialize(p.normalizer.Document(parsed))

	return p.refineAndMap(ctx, doc, normalized)
}

func (p *Pipeline) refineAndMap(ctx context.Context, doc core.Document, normalized string) (*core.KnowledgeBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := p.handoff(core.StageNormalize, core.StageRefine, output.ArtifactNormalized, normalized)
	if err != nil {
		return nil, err
	}
	return p.mapRows(ctx, doc, p.refiner.Refine(text))
}

func (p *Pipeline) mapRows(ctx context.Context, doc core.Document, refined string) (*core.KnowledgeBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := p.handoff(core.StageRefine, core.StageMap, output.ArtifactRefined, refined)
	if err != nil {
		return nil, err
	}

	category := urls.CategoryFromURL(p.categoryPrefix, doc.URL)
	parsed, err := chunk.Parse(text)
	if err != nil {
		return nil, err
	}
	rows := mapper.MapDocument(parsed, mapper.Options{
		Category:     category,
		ReferenceURL: doc.URL,
		SiteRoot:     doc.SiteRoot,
	})

	language := "en"
	if doc.HTML != "" {
		language = extract.Language(doc.HTML)
	}

	return &core.KnowledgeBase{
		Topic:       parsed.Topic,
		Category:    category,
		URL:         doc.URL,
		Language:    language,
		UsageColumn: !p.embedder.Inline(),
		Rows:        rows,
	}, nil
}

// document returns an empty chunk document of n chunks in the configured format.
func (p *Pipeline) document(topic string, n int) chunk.Document {
	return chunk.Document{
		Topic:  topic,
		Kind:   p.kind,
		Format: p.format,
		Chunks: make([]chunk.Chunk, n),
	}
}

// save writes an artifact when a workspace is attached.
func (p *Pipeline) save(stage, name, data string) error {
	if p.workspace == nil {
		return nil
	}
	path, err := p.workspace.Write(name, data)
	if err != nil {
		return &core.StageError{Stage: stage, Path: p.workspace.Path(name), Err: err}
	}
	p.logger.Debug("artifact written", zap.String("stage", stage), zap.String("path", path))
	return nil
}

// load reads the artifact a stage consumes.
func (p *Pipeline) load(stage, name string) (string, error) {
	text, err := p.workspace.Read(name)
	if err != nil {
		return "", &core.StageError{Stage: stage, Path: p.workspace.Path(name), Err: err}
	}
	return text, nil
}

// handoff passes data from producer to consumer. Without a workspace the
// data is returned as is; with one it is written and read back.
func (p *Pipeline) handoff(producer, consumer, name, data string) (string, error) {
	if p.workspace == nil {
		return data, nil
	}
	if err := p.save(producer, name, data); err != nil {
		return "", err
	}
	return p.load(consumer, name)
}
