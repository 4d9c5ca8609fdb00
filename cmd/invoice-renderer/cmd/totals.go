package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-renderer/internal/money"
)

var totalsByID bool

var totalsCmd = &cobra.Command{
	Use:   "totals [files or ids...]",
	Short: "Compute invoice totals",
	Long: `Compute HT, TVA and TTC for one or more invoices.

Each amount is rounded to the cent on its own, so TTC may differ from
HT + TVA by one cent. The gap column shows that difference.

Examples:
  invoice-renderer totals invoice.json
  invoice-renderer totals --id FACT-2024-001 -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)

	totalsCmd.Flags().BoolVar(&totalsByID, "id", false, "Treat arguments as stored invoice ids")
}

func runTotals(cmd *cobra.Command, args []string) error {
	log := cliLogger()
	defer func() { _ = log.Sync() }()

	pipeline, err := newPipeline(log)
	if err != nil {
		return err
	}

	sources, err := loadSources(context.Background(), pipeline, args, totalsByID)
	if err != nil {
		return err
	}

	results := make([]*TotalsResult, 0, len(sources))
	failed := 0
	for _, src := range sources {
		result := &TotalsResult{Source: src.Name}
		switch {
		case src.Err != nil:
			result.Error = src.Err.Error()
		default:
			if err := pipeline.Validate(src.Record); err != nil {
				result.Error = describeError(err)
			} else {
				result.fill(src.Record.Totals())
			}
		}
		if result.Error != "" {
			failed++
		}
		results = append(results, result)
	}

	if err := outputTotals(os.Stdout, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d invoices failed", failed, len(results))
	}
	return nil
}

func outputTotals(w io.Writer, results []*TotalsResult) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tRATE\tHT\tTVA\tTTC\tGAP")
	fmt.Fprintln(tw, "------\t----\t--\t---\t---\t---")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\n", r.Source, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Source, r.VATRate, r.HT, r.VAT, r.TTC, r.Gap)
	}

	return tw.Flush()
}

// TotalsResult holds the computed totals of one invoice
type TotalsResult struct {
	Source  string `json:"source"`
	VATRate string `json:"vat_rate,omitempty"`
	HT      string `json:"ht,omitempty"`
	VAT     string `json:"vat,omitempty"`
	TTC     string `json:"ttc,omitempty"`
	Gap     string `json:"gap,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *TotalsResult) fill(t money.Totals) {
	r.VATRate = money.FormatPercent(t.VATRate)
	r.HT = money.FormatEuro(t.HT)
	r.VAT = money.FormatEuro(t.VAT)
	r.TTC = money.FormatEuro(t.TTC)
	r.Gap = t.ReconciliationGap().StringFixed(2)
}
