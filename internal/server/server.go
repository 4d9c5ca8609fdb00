package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/processor"
	"github.com/rezonia/invoice-renderer/internal/render"
	"github.com/rezonia/invoice-renderer/internal/store"
)

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	Debug          bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	metrics  http.Handler
	log      *zap.Logger
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsHandler replaces the default /metrics handler
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		if h != nil {
			s.metrics = h
		}
	}
}

// NewServer creates a new API server rendering through pipeline
func NewServer(config *Config, pipeline *processor.Pipeline, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:   config,
		router:   router,
		pipeline: pipeline,
		metrics:  promhttp.Handler(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics))

	v1 := s.router.Group("/api/v1")
	{
		invoices := v1.Group("/invoices/:id")
		invoices.GET("/pdf", s.handleStoredInvoice(render.BackendBinary))
		invoices.GET("/html", s.handleStoredInvoice(render.BackendFlow))
		invoices.GET("/xlsx", s.handleStoredInvoice(render.BackendSheet))
		invoices.GET("/totals", s.handleTotals)

		v1.POST("/render/:format", s.handleRender)
		v1.POST("/validate", s.handleValidate)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStoredInvoice(backend render.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant, err := document.ParseVariant(c.Query("variant"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
		defer cancel()

		inv, err := s.pipeline.Load(ctx, c.Param("id"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.render(ctx, c, inv, variant, backend)
	}
}

func (s *Server) handleRender(c *gin.Context) {
	backend, err := render.ParseBackend(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	variant, err := document.ParseVariant(c.Query("variant"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var inv model.InvoiceRecord
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	s.render(ctx, c, &inv, variant, backend)
}

// render buffers the whole artifact so a failure never sends a partial body
func (s *Server) render(ctx context.Context, c *gin.Context, inv *model.InvoiceRecord, variant document.Variant, backend render.Backend) {
	var buf bytes.Buffer
	res, err := s.pipeline.RenderRecord(ctx, &buf, inv, variant, backend)
	if err != nil {
		s.writeError(c, err)
		return
	}

	disposition := "inline"
	if backend == render.BackendSheet {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, processor.FileName(inv, variant, backend)))
	if res.Render.Pages > 0 {
		c.Header("X-Page-Count", fmt.Sprint(res.Render.Pages))
	}
	if n := len(res.Document.Warnings); n > 0 {
		c.Header("X-Field-Warnings", fmt.Sprint(n))
	}
	c.Data(http.StatusOK, backend.ContentType(), buf.Bytes())
}

func (s *Server) handleTotals(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	id := c.Param("id")
	totals, err := s.pipeline.Totals(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTotalsResponse(id, totals))
}

func (s *Server) handleValidate(c *gin.Context) {
	var inv model.InvoiceRecord
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
		return
	}

	if err := s.pipeline.Validate(&inv); err != nil {
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, ValidationResponse{Valid: false, Errors: verrs.Fields()})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ValidationResponse{Valid: true})
}

func (s *Server) writeError(c *gin.Context, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, ValidationResponse{Valid: false, Errors: verrs.Fields()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"})
	default:
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("id", c.Param("id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "render failed", Details: err.Error()})
	}
}
