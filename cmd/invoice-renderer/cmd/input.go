package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/processor"
)

// source is one invoice to work on, read from a file or the data directory
type source struct {
	Name   string
	Record *model.InvoiceRecord
	Err    error
}

// loadSources reads args as JSON files, or as stored invoice ids when byID is set
func loadSources(ctx context.Context, pipeline *processor.Pipeline, args []string, byID bool) ([]source, error) {
	if byID {
		sources := make([]source, 0, len(args))
		for _, id := range args {
			inv, err := pipeline.Load(ctx, id)
			sources = append(sources, source{Name: id, Record: inv, Err: err})
		}
		return sources, nil
	}

	files, err := collectFiles(args, ".json")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no invoice files found")
	}

	sources := make([]source, 0, len(files))
	for _, file := range files {
		inv, err := readRecord(file)
		sources = append(sources, source{Name: file, Record: inv, Err: err})
	}
	return sources, nil
}

// readRecord decodes an invoice JSON file; the id defaults to the file name
func readRecord(path string) (*model.InvoiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var inv model.InvoiceRecord
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("invalid invoice JSON: %w", err)
	}
	if inv.ID == "" {
		inv.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &inv, nil
}
