// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// fetch → extract → annotate → segment → embed code → normalize → refine → map → render → write.
//
// It handles flag validation, renderer selection and the optional SQLite sink.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/fetch"
	"github.com/gaurav-prasanna/docrows/core/output"
	"github.com/gaurav-prasanna/docrows/core/pipeline"
	"github.com/gaurav-prasanna/docrows/core/render"
	"github.com/gaurav-prasanna/docrows/core/store"
	"github.com/gaurav-prasanna/docrows/core/urls"
)

// Flag variables.
var (
	flagCSV        bool
	flagPDF        bool
	flagMarkdown   bool
	flagJSON       bool
	flagEmbeddings bool
	flagOutputDir  string
	flagSiteRoot   string
	flagDB         string

	// Bound to config keys; read through cfg.
	flagModel             string
	flagEmbedURL          string
	flagCategory          string
	flagKeepIntermediates bool
	flagInlineCode        bool
	flagHeaderFormat      string
	flagTimeout           time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert <url>",
	Short: "Convert a documentation URL into knowledge-base rows",
	Long: `Convert fetches a documentation page, isolates its main content, splits it
into one chunk per section, demarcates significant code samples and writes the
resulting rows in the chosen output format (CSV by default).

Examples:
  docrows convert https://kubernetes.io/docs/concepts/services-networking/ingress/
  docrows convert https://kubernetes.io/docs/concepts/workloads/pods/ --json --output_dir ./out
  docrows convert https://kubernetes.io/docs/concepts/workloads/pods/ --inline-code --category K8s
  docrows convert https://kubernetes.io/docs/concepts/workloads/pods/ --embeddings --model nomic-embed-text`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	addFormatFlags(convertCmd.Flags())
	addPipelineFlags(convertCmd.Flags())
	convertCmd.Flags().DurationVar(&flagTimeout, "timeout", fetch.DefaultTimeout, "HTTP fetch timeout")
}

// addFormatFlags registers the output format flags (mutually exclusive).
func addFormatFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&flagCSV, "csv", false, "Output CSV (default)")
	fs.BoolVar(&flagPDF, "pdf", false, "Output PDF")
	fs.BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	fs.BoolVar(&flagJSON, "json", false, "Output structured JSON")
	fs.BoolVar(&flagEmbeddings, "embeddings", false, "Output embeddings")

	// Embedding-specific flags.
	fs.StringVar(&flagModel, "model", "", "Embedding model (required with --embeddings)")
	fs.StringVar(&flagEmbedURL, "embed-url", render.DefaultOllamaURL, "Ollama-compatible embeddings endpoint")

	// Output directory.
	fs.StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

// addPipelineFlags registers the per-run pipeline overrides.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagCategory, "category", "", "Category prefix (default from config: Kubernetes)")
	fs.StringVar(&flagSiteRoot, "site-root", "", "Site root for /path links (default: scheme://host of the URL)")
	fs.BoolVar(&flagKeepIntermediates, "keep-intermediates", false, "Keep stage artifacts under work_dir")
	fs.StringVar(&flagDB, "db", "", "Also store rows in this SQLite database")
	fs.BoolVar(&flagInlineCode, "inline-code", false, "Keep code in place instead of one row per code sample")
	fs.StringVar(&flagHeaderFormat, "header-format", "", "Chunk header format: numbered-concept, concept, numbered-category")
}

func runConvert(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	// --- Validate flags ---
	if err := validateFlags(); err != nil {
		return err
	}

	// Validate URL.
	if !urls.IsAbsolute(rawURL) {
		return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", rawURL)
	}

	// Select renderer.
	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	fetcher := newFetcher()
	ctx := cmd.Context()

	result, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return core.NewStageError(core.StageFetch, 0, err)
	}
	logger.Info("fetched", zap.String("url", rawURL), zap.Int("status", result.StatusCode), zap.Int("bytes", len(result.HTML)))

	return convertDocument(ctx, newDocument(rawURL, result.HTML), renderer, writer)
}

// convertDocument runs one document through the pipeline, renders it and
// writes the result (and, with --db, stores the rows).
func convertDocument(ctx context.Context, doc core.Document, renderer core.Renderer, writer *output.Writer) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	if cfg.KeepIntermediates {
		ws, err := output.DocumentWorkspace(cfg.WorkDir, output.NewRunID(), 1, doc.URL)
		if err != nil {
			return err
		}
		p = p.ForWorkspace(ws)
		fmt.Fprintf(os.Stdout, "  Artifacts: %s\n", ws.Dir())
	}

	kb, err := p.Run(ctx, doc)
	if err != nil {
		return err
	}
	return writeKnowledgeBase(ctx, kb, renderer, writer)
}

// writeKnowledgeBase renders kb, writes it next to the other outputs and
// stores it when --db is set.
func writeKnowledgeBase(ctx context.Context, kb *core.KnowledgeBase, renderer core.Renderer, writer *output.Writer) error {
	data, err := renderer.Render(kb)
	if err != nil {
		return core.NewStageError(core.StageRender, 0, err)
	}

	path, err := writer.WriteDocument(kb.URL, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s (%d rows)\n", path, len(kb.Rows))

	if flagDB == "" {
		return nil
	}
	db, err := store.Open(flagDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.SaveKnowledgeBase(ctx, kb); err != nil {
		return fmt.Errorf("storing rows: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✓ Stored: %s\n", flagDB)
	return nil
}

// newFetcher builds the HTTP fetcher from the loaded config.
func newFetcher() core.Fetcher {
	return fetch.New(fetch.WithTimeout(cfg.Fetch.Timeout), fetch.WithUserAgent(cfg.Fetch.UserAgent))
}

// newPipeline builds the pipeline from the loaded config.
func newPipeline() (*pipeline.Pipeline, error) {
	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initializing pipeline: %w", err)
	}
	return p, nil
}

// newDocument builds the pipeline input, honouring --site-root.
func newDocument(rawURL, html string) core.Document {
	doc := core.NewDocument(rawURL, html)
	if flagSiteRoot != "" {
		doc.SiteRoot = flagSiteRoot
	}
	return doc
}

// validateFlags checks that at most one output format is chosen.
func validateFlags() error {
	// Count output formats.
	formatCount := 0
	for _, set := range []bool{flagCSV, flagPDF, flagMarkdown, flagJSON, flagEmbeddings} {
		if set {
			formatCount++
		}
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	// A model is required with --embeddings.
	if flagEmbeddings && cfg.Embed.Model == "" {
		return fmt.Errorf("--model is required when using --embeddings")
	}

	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	case flagEmbeddings:
		return render.NewEmbeddingsRenderer(cfg.Embed.Model, render.NewOllamaEmbedder(cfg.Embed.URL)), nil
	default:
		return render.NewCSVRenderer(), nil
	}
}
