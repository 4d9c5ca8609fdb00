package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/store"
)

const metricPrefix = "invoice_renderer_"

// Outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeRenderFail = "render_error"
)

// RenderMetrics records render throughput and latency
type RenderMetrics struct {
	renders  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pages    prometheus.Histogram
	warnings *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *RenderMetrics
)

// Default returns the metrics registered on the default registerer
func Default() *RenderMetrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates the render metrics and registers them on reg
func New(reg prometheus.Registerer) *RenderMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &RenderMetrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "renders_total",
			Help: "Invoice renders by output format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "render_duration_seconds",
			Help:    "Invoice render latency by output format.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"format"}),
		pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "document_pages",
			Help:    "Pages per rendered paginated document.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "field_warnings_total",
			Help: "Missing fields replaced by a placeholder, by field.",
		}, []string{"field"}),
	}

	m.renders = register(reg, m.renders)
	m.duration = register(reg, m.duration)
	m.pages = register(reg, m.pages)
	m.warnings = register(reg, m.warnings)
	return m
}

// register returns the already registered collector on duplicate registration
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRender records one render attempt
func (m *RenderMetrics) ObserveRender(format, outcome string, started time.Time, pages int) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(time.Since(started).Seconds())
	if pages > 0 {
		m.pages.Observe(float64(pages))
	}
}

// ObserveWarnings counts placeholder substitutions
func (m *RenderMetrics) ObserveWarnings(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.warnings.WithLabelValues(f).Inc()
	}
}

// ClassifyOutcome maps a render error to an outcome label
func ClassifyOutcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var verrs model.ValidationErrors
	var verr *model.ValidationError
	if errors.As(err, &verrs) || errors.As(err, &verr) {
		return OutcomeInvalid
	}
	if errors.Is(err, store.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeRenderFail
}
