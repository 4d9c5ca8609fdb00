package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/processor"
	"github.com/rezonia/invoice-renderer/internal/render"
)

var (
	renderTo    string
	variantName string
	bothCopies  bool
	byID        bool
	outputDir   string
	timeout     time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render [files or ids...]",
	Short: "Render invoices to PDF, HTML or XLSX",
	Long: `Render one or more invoices into the output directory.

Arguments are invoice JSON files, directories or globs. With --id they are
invoice ids looked up in the data directory, together with the live client
and company profiles.

Missing fields never stop rendering: they are replaced by a placeholder and
listed in the result.

Examples:
  invoice-renderer render invoice.json
  invoice-renderer render invoices/ --to html -o site/
  invoice-renderer render --id FACT-2024-001 --variant company
  invoice-renderer render --id FACT-2024-001 --both -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderTo, "to", "t", "pdf", "Document format (pdf, html, xlsx)")
	renderCmd.Flags().StringVar(&variantName, "variant", "client", "Copy to render (client, company)")
	renderCmd.Flags().BoolVar(&bothCopies, "both", false, "Render the client and the company copy")
	renderCmd.Flags().BoolVar(&byID, "id", false, "Treat arguments as stored invoice ids")
	renderCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (env: RENDERER_OUTPUT_DIR)")
	renderCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Timeout per invoice")
}

func runRender(cmd *cobra.Command, args []string) error {
	backend, err := render.ParseBackend(renderTo)
	if err != nil {
		return err
	}

	variants := []document.Variant{document.VariantClient, document.VariantCompany}
	if !bothCopies {
		v, err := document.ParseVariant(variantName)
		if err != nil {
			return err
		}
		variants = []document.Variant{v}
	}

	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	log := cliLogger()
	defer func() { _ = log.Sync() }()

	pipeline, err := newPipeline(log)
	if err != nil {
		return err
	}

	sources, err := loadSources(context.Background(), pipeline, args, byID)
	if err != nil {
		return err
	}
	printVerbose("Rendering %d invoices to %s\n", len(sources), outputDir)

	results := make([]*RenderResult, 0, len(sources)*len(variants))
	failed := 0
	for _, src := range sources {
		for _, v := range variants {
			result := renderSource(pipeline, src, v, backend)
			results = append(results, result)

			if result.Error != "" {
				failed++
				printVerbose("  %s (%s): %s\n", src.Name, v, result.Error)
			} else {
				printVerbose("  %s (%s) -> %s\n", src.Name, v, result.Path)
			}
		}
	}

	if err := outputRenderResults(os.Stdout, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func renderSource(pipeline *processor.Pipeline, src source, variant document.Variant, backend render.Backend) *RenderResult {
	result := &RenderResult{Source: src.Name, Variant: variant.String(), Format: backend.String()}
	if src.Err != nil {
		result.Error = src.Err.Error()
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := pipeline.RenderRecordFile(ctx, outputDir, src.Record, variant, backend)
	if err != nil {
		result.Error = describeError(err)
		return result
	}

	result.Path = res.Render.Path
	result.Pages = res.Render.Pages
	result.Bytes = res.Render.Bytes
	result.Warnings = res.Warnings()
	return result
}

// describeError flattens validation failures into one line per field
func describeError(err error) string {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Field + ": " + v.Message
		}
		return "invalid invoice: " + strings.Join(msgs, "; ")
	}
	return err.Error()
}

func outputRenderResults(w io.Writer, results []*RenderResult) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCOPY\tOUTPUT\tPAGES\tWARNINGS")
	fmt.Fprintln(tw, "------\t----\t------\t-----\t--------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\tERROR: %s\t\t\n", r.Source, r.Variant, r.Error)
			continue
		}
		pages := "-"
		if r.Pages > 0 {
			pages = fmt.Sprint(r.Pages)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Source, r.Variant, r.Path, pages, strings.Join(r.Warnings, ", "))
	}

	return tw.Flush()
}

// RenderResult holds the result of rendering one copy of one invoice
type RenderResult struct {
	Source   string   `json:"source"`
	Variant  string   `json:"variant"`
	Format   string   `json:"format"`
	Path     string   `json:"path,omitempty"`
	Pages    int      `json:"pages,omitempty"`
	Bytes    int64    `json:"bytes,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}
