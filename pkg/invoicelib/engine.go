package invoicelib

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/processor"
	"github.com/rezonia/invoice-renderer/internal/render"
	"github.com/rezonia/invoice-renderer/internal/store"
)

// EngineOptions configures engine behavior
type EngineOptions struct {
	// Page margins and footer band in mm; zero keeps the A4 defaults (20/20)
	MarginMM float64
	FooterMM float64

	// DisableCompression writes PDF streams uncompressed; the zero value compresses
	DisableCompression bool

	// DataDir enables id-based rendering from JSON files
	// (invoices/<id>.json, clients/<id>.json, company.json)
	DataDir string

	// Repository overrides DataDir
	Repository Repository

	Logger *zap.Logger
}

// DefaultEngineOptions returns default engine options
func DefaultEngineOptions() EngineOptions {
	defaults := layout.A4()
	return EngineOptions{
		MarginMM: defaults.MarginTopMM,
		FooterMM: defaults.FooterReservedMM,
	}
}

// Engine validates, totals and renders invoices. It is safe for concurrent use.
type Engine struct {
	pipeline *processor.Pipeline
	options  EngineOptions
}

// NewEngineWithOptions creates an engine with the given options
func NewEngineWithOptions(opts EngineOptions) (*Engine, error) {
	defaults := DefaultEngineOptions()
	if opts.MarginMM <= 0 {
		opts.MarginMM = defaults.MarginMM
	}
	if opts.FooterMM <= 0 {
		opts.FooterMM = defaults.FooterMM
	}

	geom := layout.A4().WithMargins(opts.MarginMM).WithFooter(opts.FooterMM)
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	repo := opts.Repository
	if repo == nil && opts.DataDir != "" {
		repo = store.NewFileStore(opts.DataDir)
	}

	pipelineOpts := []processor.Option{
		processor.WithRenderer(render.New(
			render.WithGeometry(geom),
			render.WithCompression(!opts.DisableCompression),
			render.WithLogger(opts.Logger),
		)),
		processor.WithLogger(opts.Logger),
	}
	if repo != nil {
		pipelineOpts = append(pipelineOpts, processor.WithRepository(repo))
	}

	return &Engine{
		pipeline: processor.NewPipeline(pipelineOpts...),
		options:  opts,
	}, nil
}

// NewEngine creates an engine with default options
func NewEngine() *Engine {
	e, err := NewEngineWithOptions(DefaultEngineOptions())
	if err != nil {
		// A4 defaults always validate
		panic(err)
	}
	return e
}

// Validate checks a record; the error is ValidationErrors on field failures
func (e *Engine) Validate(inv *InvoiceRecord) error {
	return e.pipeline.Validate(inv)
}

// Totals validates inv and computes its totals
func (e *Engine) Totals(inv *InvoiceRecord) (Totals, error) {
	if err := e.pipeline.Validate(inv); err != nil {
		return Totals{}, err
	}
	return inv.Totals(), nil
}

// Build validates inv and resolves it into a renderable document
func (e *Engine) Build(ctx context.Context, inv *InvoiceRecord, variant Variant) (*Document, error) {
	return e.pipeline.Prepare(ctx, inv, variant)
}

// Render validates, builds and renders inv to w
func (e *Engine) Render(ctx context.Context, w io.Writer, inv *InvoiceRecord, variant Variant, format Format) (*Result, error) {
	res, err := e.pipeline.RenderRecord(ctx, w, inv, variant, format)
	if err != nil {
		return nil, err
	}
	return res.Render, nil
}

// RenderByID loads a stored invoice and renders it to w
func (e *Engine) RenderByID(ctx context.Context, w io.Writer, id string, variant Variant, format Format) (*Result, error) {
	res, err := e.pipeline.RenderInvoice(ctx, w, id, variant, format)
	if err != nil {
		return nil, err
	}
	return res.Render, nil
}

// RenderToDir renders inv into dir under its default file name
func (e *Engine) RenderToDir(ctx context.Context, dir string, inv *InvoiceRecord, variant Variant, format Format) (*Result, error) {
	res, err := e.pipeline.RenderRecordFile(ctx, dir, inv, variant, format)
	if err != nil {
		return nil, err
	}
	return res.Render, nil
}

// RenderBatch renders stored invoices into dir concurrently
func (e *Engine) RenderBatch(ctx context.Context, dir string, ids []string, variant Variant, format Format) ([]*Result, error) {
	results, err := e.pipeline.RenderBatch(ctx, dir, ids, variant, format)
	out := make([]*Result, len(results))
	for i, r := range results {
		if r != nil {
			out[i] = r.Render
		}
	}
	return out, err
}

// Inspect counts pages and validates a rendered PDF
func (e *Engine) Inspect(rs io.ReadSeeker) (*Report, error) {
	return render.Inspect(rs)
}

// FileName returns the default artifact name for inv
func FileName(inv *InvoiceRecord, variant Variant, format Format) string {
	return processor.FileName(inv, variant, format)
}
