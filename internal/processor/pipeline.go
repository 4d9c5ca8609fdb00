package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/metrics"
	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/money"
	"github.com/rezonia/invoice-renderer/internal/render"
	"github.com/rezonia/invoice-renderer/internal/store"
)

// ErrNoRepository is returned by id-based calls when no repository is configured
var ErrNoRepository = errors.New("no repository configured")

// Pipeline runs an invoice through validation, document building and rendering
type Pipeline struct {
	repo      store.Repository
	validator *model.Validator
	renderer  *render.Renderer
	metrics   *metrics.RenderMetrics
	log       *zap.Logger
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithRepository sets the record source for id-based calls and live profiles
func WithRepository(r store.Repository) Option {
	return func(p *Pipeline) {
		p.repo = r
	}
}

// WithRenderer sets the output renderer
func WithRenderer(r *render.Renderer) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.renderer = r
		}
	}
}

// WithMetrics enables render metrics
func WithMetrics(m *metrics.RenderMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPipeline creates a new rendering pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		validator: model.NewValidator(),
		renderer:  render.New(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result contains the rendered artifact and the document it came from
type Result struct {
	Document *document.Document
	Render   *render.Result
}

// Warnings returns the defaulted field names
func (r *Result) Warnings() []string {
	if r == nil || r.Document == nil {
		return nil
	}
	return warningFields(r.Document.Warnings)
}

// Validate checks the record without rendering it
func (p *Pipeline) Validate(inv *model.InvoiceRecord) error {
	return p.validator.Validate(inv)
}

// Prepare validates inv, loads its live profiles and builds the document
func (p *Pipeline) Prepare(ctx context.Context, inv *model.InvoiceRecord, variant document.Variant) (*document.Document, error) {
	if err := p.validator.Validate(inv); err != nil {
		return nil, err
	}

	var (
		client  *model.ClientProfile
		company *model.CompanyProfile
	)
	if p.repo != nil {
		var err error
		client, company, err = store.Profiles(ctx, p.repo, inv)
		if err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}

	return document.Build(inv, client, company,
		document.WithVariant(variant),
		document.WithLogger(p.log),
	), nil
}

// RenderRecord renders an invoice record to w
func (p *Pipeline) RenderRecord(ctx context.Context, w io.Writer, inv *model.InvoiceRecord, variant document.Variant, backend render.Backend) (*Result, error) {
	started := time.Now()

	doc, err := p.Prepare(ctx, inv, variant)
	if err != nil {
		p.observe(backend, started, nil, nil, err)
		return nil, err
	}

	res, err := p.renderer.Render(w, doc, backend)
	p.observe(backend, started, doc, res, err)
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Render: res}, nil
}

// RenderInvoice loads the invoice id from the repository and renders it to w
func (p *Pipeline) RenderInvoice(ctx context.Context, w io.Writer, id string, variant document.Variant, backend render.Backend) (*Result, error) {
	inv, err := p.Load(ctx, id)
	if err != nil {
		p.observe(backend, time.Now(), nil, nil, err)
		return nil, err
	}
	return p.RenderRecord(ctx, w, inv, variant, backend)
}

// RenderRecordFile renders an invoice record into dir under its default file name
func (p *Pipeline) RenderRecordFile(ctx context.Context, dir string, inv *model.InvoiceRecord, variant document.Variant, backend render.Backend) (*Result, error) {
	started := time.Now()

	doc, err := p.Prepare(ctx, inv, variant)
	if err != nil {
		p.observe(backend, started, nil, nil, err)
		return nil, err
	}

	path := filepath.Join(dir, FileName(inv, variant, backend))
	res, err := p.renderer.RenderFile(path, doc, backend)
	p.observe(backend, started, doc, res, err)
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Render: res}, nil
}

// RenderBatch renders stored invoices into dir concurrently.
// Results keep the order of ids; failed entries are nil and the first error is returned.
func (p *Pipeline) RenderBatch(ctx context.Context, dir string, ids []string, variant document.Variant, backend render.Backend) ([]*Result, error) {
	results := make([]*Result, len(ids))
	errCh := make(chan error, len(ids))

	for i, id := range ids {
		go func(idx int, id string) {
			inv, err := p.Load(ctx, id)
			if err != nil {
				errCh <- fmt.Errorf("invoice %s: %w", id, err)
				return
			}
			res, err := p.RenderRecordFile(ctx, dir, inv, variant, backend)
			if err != nil {
				errCh <- fmt.Errorf("invoice %s: %w", id, err)
				return
			}
			results[idx] = res
			errCh <- nil
		}(i, id)
	}

	var firstErr error
	for range ids {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// Load fetches an invoice from the repository
func (p *Pipeline) Load(ctx context.Context, id string) (*model.InvoiceRecord, error) {
	if p.repo == nil {
		return nil, ErrNoRepository
	}
	return p.repo.GetInvoice(ctx, id)
}

// Totals loads the invoice id and computes its totals
func (p *Pipeline) Totals(ctx context.Context, id string) (money.Totals, error) {
	inv, err := p.Load(ctx, id)
	if err != nil {
		return money.Totals{}, err
	}
	if err := p.validator.Validate(inv); err != nil {
		return money.Totals{}, err
	}
	return inv.Totals(), nil
}

func (p *Pipeline) observe(backend render.Backend, started time.Time, doc *document.Document, res *render.Result, err error) {
	outcome := metrics.ClassifyOutcome(err)
	pages := 0
	if res != nil {
		pages = res.Pages
	}
	p.metrics.ObserveRender(backend.String(), outcome, started, pages)
	if doc != nil && err == nil {
		p.metrics.ObserveWarnings(warningFields(doc.Warnings))
	}
	if err != nil && outcome == metrics.OutcomeRenderFail {
		p.log.Error("render failed", zap.String("format", backend.String()), zap.Error(err))
	}
}

// FileName returns the default artifact name, e.g. facture-FACT-2024-001-entreprise.pdf
func FileName(inv *model.InvoiceRecord, variant document.Variant, backend render.Backend) string {
	name := inv.Number
	if strings.TrimSpace(name) == "" {
		name = inv.ID
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))

	suffix := ""
	if variant == document.VariantCompany {
		suffix = "-entreprise"
	}
	return "facture-" + name + suffix + backend.Extension()
}

func warningFields(ws []document.FieldWarning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Field
	}
	return out
}
