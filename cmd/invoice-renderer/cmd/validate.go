package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/model"
)

var strictValidation bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files",
	Long: `Validate one or more invoice JSON files before rendering.

Checks performed:
  - Required fields present (id, issue date, line descriptions)
  - Dates in YYYY-MM-DD format
  - Quantity > 0 and unit price >= 0 on every line
  - VAT rate between 0 and 100, SIRET format, emitter email

Fields the renderer would replace by a placeholder are reported as
warnings; --strict turns them into errors.

Examples:
  invoice-renderer validate invoice.json
  invoice-renderer validate invoices/ --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat placeholder fields as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	validator := model.NewValidator()
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(validator, file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	// Output results
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				for _, e := range r.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(validator *model.Validator, filePath string) *ValidationResult {
	result := &ValidationResult{
		File:     filePath,
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	inv, err := readRecord(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if err := validator.Validate(inv); err != nil {
		result.Valid = false
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", v.Field, v.Message))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	// Completeness: what the document would show as a placeholder
	doc := document.Build(inv, nil, nil)
	for _, w := range doc.Warnings {
		msg := fmt.Sprintf("%s missing, rendered as %q", w.Field, w.Placeholder)
		if strictValidation {
			result.Valid = false
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
