package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/config"
	"github.com/rezonia/invoice-renderer/internal/logger"
	"github.com/rezonia/invoice-renderer/internal/processor"
	"github.com/rezonia/invoice-renderer/internal/render"
	"github.com/rezonia/invoice-renderer/internal/store"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	dataDir      string
	marginMM     float64
	footerMM     float64

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "invoice-renderer",
	Short: "Render French invoices to PDF, HTML and XLSX",
	Long: `Invoice Renderer turns invoice records into print-ready documents.

Supports:
  - PDF: paginated A4 layout, repeated table header, company copy watermark
  - HTML: the same document for browser printing
  - XLSX: summary and line sheets

Invoices are read from JSON files or, by id, from the data directory.

Examples:
  # Render a file to PDF
  invoice-renderer render invoice.json

  # Render both copies of a stored invoice
  invoice-renderer render --id FACT-2024-001 --both

  # Show totals of every invoice in a directory
  invoice-renderer totals invoices/ -f table

  # Check a rendered PDF
  invoice-renderer inspect out/facture-FACT-2024-001.pdf`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory for stored invoices (env: RENDERER_DATA_DIR)")
	rootCmd.PersistentFlags().Float64Var(&marginMM, "margin", 0, "Page margin in mm (env: RENDERER_MARGIN_MM)")
	rootCmd.PersistentFlags().Float64Var(&footerMM, "footer", 0, "Footer band height in mm (env: RENDERER_FOOTER_MM)")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	cfg = config.Load()

	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if marginMM <= 0 {
		marginMM = cfg.MarginMM
	}
	if footerMM <= 0 {
		footerMM = cfg.FooterMM
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// newPipeline wires the file store, renderer and CLI logger together
func newPipeline(log *zap.Logger, extra ...processor.Option) (*processor.Pipeline, error) {
	geom := config.Config{MarginMM: marginMM, FooterMM: footerMM}.Geometry()
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid page geometry: %w", err)
	}

	opts := []processor.Option{
		processor.WithRepository(store.NewFileStore(dataDir)),
		processor.WithRenderer(render.New(render.WithGeometry(geom), render.WithLogger(log))),
		processor.WithLogger(log),
	}
	return processor.NewPipeline(append(opts, extra...)...), nil
}

func cliLogger() *zap.Logger {
	return logger.NewCLI(verbose)
}

// collectFiles expands files, globs and directories, keeping files with one of exts
func collectFiles(args []string, exts ...string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				sub, err := walkDir(arg, exts)
				if err != nil {
					return nil, err
				}
				files = append(files, sub...)
			} else {
				files = append(files, arg)
			}
		} else {
			for _, match := range matches {
				info, err := os.Stat(match)
				if err != nil {
					continue
				}
				if info.IsDir() {
					sub, err := walkDir(match, exts)
					if err != nil {
						return nil, err
					}
					files = append(files, sub...)
				} else if hasExt(match, exts) {
					files = append(files, match)
				}
			}
		}
	}

	return files, nil
}

// walkDir lists the files under dir with one of exts
func walkDir(dir string, exts []string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
