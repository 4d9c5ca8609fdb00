package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/model"
)

// Backend selects the output format
type Backend int

const (
	// BackendBinary is the paginated PDF document
	BackendBinary Backend = iota
	// BackendFlow is the HTML document, paginated by the browser
	BackendFlow
	// BackendSheet is the XLSX summary workbook
	BackendSheet
)

func (b Backend) String() string {
	switch b {
	case BackendBinary:
		return "pdf"
	case BackendFlow:
		return "html"
	case BackendSheet:
		return "xlsx"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ContentType returns the MIME type of the backend output
func (b Backend) ContentType() string {
	switch b {
	case BackendBinary:
		return "application/pdf"
	case BackendFlow:
		return "text/html; charset=utf-8"
	case BackendSheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension, dot included
func (b Backend) Extension() string {
	return "." + b.String()
}

// ParseBackend accepts pdf, html or xlsx
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdf", "binary":
		return BackendBinary, nil
	case "html", "htm", "flow":
		return BackendFlow, nil
	case "xlsx", "sheet":
		return BackendSheet, nil
	default:
		return BackendBinary, fmt.Errorf("unsupported format %q (want pdf, html or xlsx)", s)
	}
}

// Result describes a rendered artifact
type Result struct {
	Backend  Backend                 `json:"-"`
	Format   string                  `json:"format"`
	Pages    int                     `json:"pages,omitempty"`
	Bytes    int64                   `json:"bytes"`
	Path     string                  `json:"path,omitempty"`
	Warnings []document.FieldWarning `json:"warnings,omitempty"`
}

// Renderer emits documents through one of the backends.
// It holds configuration only and is safe for concurrent use.
type Renderer struct {
	geom     layout.Geometry
	compress bool
	log      *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithGeometry sets the page geometry used by the PDF backend
func WithGeometry(g layout.Geometry) Option {
	return func(r *Renderer) {
		r.geom = g
	}
}

// WithCompression toggles PDF stream compression
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a renderer with A4 geometry and compression on
func New(opts ...Option) *Renderer {
	r := &Renderer{
		geom:     layout.A4(),
		compress: true,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Geometry returns the page geometry
func (r *Renderer) Geometry() layout.Geometry {
	return r.geom
}

// Render writes doc to w in the backend's format
func (r *Renderer) Render(w io.Writer, doc *document.Document, backend Backend) (*Result, error) {
	cw := &countingWriter{w: w}
	res := &Result{Backend: backend, Format: backend.String(), Warnings: doc.Warnings}

	var err error
	switch backend {
	case BackendBinary:
		res.Pages, err = r.RenderPDF(cw, doc)
	case BackendFlow:
		err = r.RenderHTML(cw, doc)
	case BackendSheet:
		err = r.RenderXLSX(cw, doc)
	default:
		err = model.NewRenderError("render", "", fmt.Errorf("unsupported backend %s", backend))
	}
	if err != nil {
		return nil, err
	}

	res.Bytes = cw.n
	r.log.Debug("document rendered",
		zap.String("format", res.Format),
		zap.Int("pages", res.Pages),
		zap.Int64("bytes", res.Bytes),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// RenderFile renders doc to path, creating the parent directory.
// The file is closed on every path and removed when rendering fails.
func (r *Renderer) RenderFile(path string, doc *document.Document, backend Backend) (res *Result, err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, model.NewRenderError("mkdir", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, model.NewRenderError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = model.NewRenderError("close", path, cerr)
		}
		if err != nil {
			res = nil
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				r.log.Warn("failed to remove partial output", zap.String("path", path), zap.Error(rmErr))
			}
		}
	}()

	res, err = r.Render(f, doc, backend)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// RenderPDFFile renders the PDF backend to path
func (r *Renderer) RenderPDFFile(path string, doc *document.Document) (*Result, error) {
	return r.RenderFile(path, doc, BackendBinary)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
