package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-renderer/internal/render"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Show information about rendered PDF files",
	Long: `Display information about rendered PDF documents.

Shows:
  - Page count
  - File size
  - Structural validation result

Examples:
  invoice-renderer inspect out/facture-FACT-2024-001.pdf
  invoice-renderer inspect out/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	results := make([]*InspectResult, 0, len(files))
	invalid := 0
	for _, file := range files {
		printVerbose("Inspecting: %s\n", file)
		result := &InspectResult{File: file}
		report, err := render.InspectFile(file)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Report = report
		}
		if result.Report == nil || !result.Report.Valid {
			invalid++
		}
		results = append(results, result)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printInspectResult(r)
			fmt.Println()
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d files are not valid PDF documents", invalid, len(results))
	}
	return nil
}

func printInspectResult(r *InspectResult) {
	fmt.Printf("File: %s\n", r.File)
	if r.Error != "" {
		fmt.Printf("  Error: %s\n", r.Error)
		return
	}

	fmt.Printf("  Size: %d bytes\n", r.Report.Bytes)
	fmt.Printf("  Pages: %d\n", r.Report.Pages)
	if r.Report.Valid {
		fmt.Println("  Valid: yes")
	} else {
		fmt.Printf("  Valid: no (%s)\n", r.Report.ValidationError)
	}
}

// InspectResult holds the inspection of a single file
type InspectResult struct {
	File   string         `json:"file"`
	Report *render.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}
