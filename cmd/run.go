package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/docrows/core"
	"github.com/gaurav-prasanna/docrows/core/output"
	"github.com/gaurav-prasanna/docrows/core/urls"
)

var (
	flagRefURL    string
	flagWorkspace string
	flagFrom      string
)

var runCmd = &cobra.Command{
	Use:   "run [file.html]",
	Short: "Run the pipeline on a local HTML file",
	Long: `Run converts an already-downloaded HTML page. --url is the page's reference
address: it names the output, fills the row URLs and resolves relative links.

With --workspace the stage artifacts are written to that directory. Adding
--from normalize|refine|map re-runs the later stages from the artifacts already
there, so a hand-edited artifact can be carried through to the rows.

Examples:
  docrows run ingress.html --url https://kubernetes.io/docs/concepts/services-networking/ingress/
  docrows run ingress.html --url https://kubernetes.io/docs/concepts/services-networking/ingress/ --workspace ./ws
  docrows run --from refine --workspace ./ws --url https://kubernetes.io/docs/concepts/services-networking/ingress/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&flagRefURL, "url", "", "Reference URL of the page (required)")
	runCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "Directory for stage artifacts")
	runCmd.Flags().StringVar(&flagFrom, "from", "", "Resume from a stage: normalize, refine or map (needs --workspace)")
	_ = runCmd.MarkFlagRequired("url")

	addFormatFlags(runCmd.Flags())
	addPipelineFlags(runCmd.Flags())
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	if !urls.IsAbsolute(flagRefURL) {
		return fmt.Errorf("invalid --url: %s (must include scheme, e.g. https://example.com)", flagRefURL)
	}
	if flagFrom != "" && flagWorkspace == "" {
		return fmt.Errorf("--from needs --workspace")
	}
	if flagFrom == "" && len(args) == 0 {
		return fmt.Errorf("an HTML file is required unless --from is set")
	}

	var html string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		html = string(data)
	}
	doc := newDocument(flagRefURL, html)

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}
	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	if flagWorkspace == "" {
		return convertDocument(cmd.Context(), doc, renderer, writer)
	}

	ws, err := output.NewWorkspace(flagWorkspace)
	if err != nil {
		return err
	}
	p, err := newPipeline()
	if err != nil {
		return err
	}
	p = p.ForWorkspace(ws)

	var kb *core.KnowledgeBase
	if flagFrom != "" {
		kb, err = p.Resume(cmd.Context(), doc, flagFrom)
	} else {
		kb, err = p.Run(cmd.Context(), doc)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "  Artifacts: %s\n", ws.Dir())
	return writeKnowledgeBase(cmd.Context(), kb, renderer, writer)
}
