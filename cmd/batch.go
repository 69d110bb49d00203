package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/fetch"
	"github.com/gaurav-prasanna/docrows/core/output"
	"github.com/gaurav-prasanna/docrows/core/pipeline"
	"github.com/gaurav-prasanna/docrows/core/render"
	"github.com/gaurav-prasanna/docrows/core/store"
	"github.com/gaurav-prasanna/docrows/core/urls"
)

var (
	flagInput       string
	flagBatchOutput string
	flagWorkers     int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert a list of URLs and merge the rows into one CSV",
	Long: `Batch runs an independent pipeline for every URL in the input file (one URL
per line, blank lines and # comments ignored, duplicates dropped) and merges the
per-document CSVs in input order. A failing URL is reported and skipped; the
command fails only when every URL failed.

Examples:
  docrows batch --input urls.txt
  docrows batch --input urls.txt --output multi_final.csv --workers 8 --keep-intermediates`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&flagInput, "input", "", "File with one URL per line (required)")
	batchCmd.Flags().StringVar(&flagBatchOutput, "output", "multi_final.csv", "Merged CSV path")
	batchCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Documents processed in parallel (default: GOMAXPROCS)")
	batchCmd.Flags().DurationVar(&flagTimeout, "timeout", fetch.DefaultTimeout, "HTTP fetch timeout per URL")
	_ = batchCmd.MarkFlagRequired("input")

	addPipelineFlags(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(flagInput)
	if err != nil {
		return fmt.Errorf("opening URL list: %w", err)
	}
	list, skipped, err := urls.ReadList(f)
	f.Close()
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "  ✗ Skipped: %s (not an absolute page URL)\n", s)
	}
	if list.Len() == 0 {
		return fmt.Errorf("no URLs in %s", flagInput)
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	var db *store.DB
	if flagDB != "" {
		if db, err = store.Open(flagDB); err != nil {
			return err
		}
		defer db.Close()
	}

	runID := output.NewRunID()
	runDir := filepath.Join(cfg.WorkDir, runID)
	defer func() {
		if cfg.KeepIntermediates {
			fmt.Fprintf(os.Stdout, "  Artifacts: %s\n", runDir)
			return
		}
		if err := os.RemoveAll(runDir); err != nil {
			logger.Warn("removing run directory", zap.String("dir", runDir), zap.Error(err))
		}
	}()
	fetcher := newFetcher()
	renderer := render.NewCSVRenderer()

	all := list.All()
	fmt.Fprintf(os.Stdout, "Processing %d URLs with %d workers (run %s)\n", len(all), cfg.Workers, runID)

	process := func(ctx context.Context, i int, rawURL string) (string, int, error) {
		ws, err := output.DocumentWorkspace(cfg.WorkDir, runID, i+1, rawURL)
		if err != nil {
			return "", 0, err
		}

		result, err := fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return "", 0, core.NewStageError(core.StageFetch, 0, err)
		}

		kb, err := p.ForWorkspace(ws).Run(ctx, newDocument(rawURL, result.HTML))
		if err != nil {
			return "", 0, err
		}

		data, err := renderer.Render(kb)
		if err != nil {
			return "", 0, core.NewStageError(core.StageRender, 0, err)
		}
		path, err := ws.Write(output.ArtifactRows, string(data))
		if err != nil {
			return "", 0, err
		}

		if db != nil {
			if _, err := db.SaveKnowledgeBase(ctx, kb); err != nil {
				return "", 0, fmt.Errorf("storing rows: %w", err)
			}
		}
		return path, len(kb.Rows), nil
	}

	results := pipeline.RunBatch(cmd.Context(), all, cfg.Workers, process, logger)

	var paths []string
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: [%d/%d] %s: %v\n", r.Index+1, len(all), r.URL, r.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "  ✓ [%d/%d] %s (%d rows)\n", r.Index+1, len(all), r.URL, r.Rows)
		paths = append(paths, r.Path)
	}

	failed := pipeline.Failed(results)
	if failed == len(results) {
		return fmt.Errorf("all %d URLs failed", failed)
	}

	total, err := output.MergeFiles(flagBatchOutput, paths)
	if err != nil {
		return fmt.Errorf("merging CSVs: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s (%d rows from %d documents)\n", flagBatchOutput, total, len(paths))
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d pages failed\n", failed, len(results))
	}
	return nil
}
