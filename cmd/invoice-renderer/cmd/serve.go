package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/logger"
	"github.com/rezonia/invoice-renderer/internal/metrics"
	"github.com/rezonia/invoice-renderer/internal/processor"
	"github.com/rezonia/invoice-renderer/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server rendering invoices from the data directory.

The API provides endpoints for:
  - GET  /api/v1/invoices/:id/pdf     - Render a stored invoice as PDF
  - GET  /api/v1/invoices/:id/html    - Render a stored invoice as HTML
  - GET  /api/v1/invoices/:id/xlsx    - Export a stored invoice as XLSX
  - GET  /api/v1/invoices/:id/totals  - Compute totals
  - POST /api/v1/render/:format       - Render an invoice sent as JSON
  - POST /api/v1/validate             - Validate an invoice sent as JSON
  - GET  /metrics                     - Prometheus metrics
  - GET  /health                      - Health check

Add ?variant=company to render the company copy.

Examples:
  # Start server on default port
  invoice-renderer serve

  # Start on custom port with another data directory
  invoice-renderer serve --address :9090 --data-dir /srv/invoices

  # Start in debug mode
  invoice-renderer serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: RENDERER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode (env: RENDERER_DEBUG)")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serverAddr == "" {
		serverAddr = cfg.Address
	}
	if !serverDebug {
		serverDebug = cfg.Debug
	}

	level := cfg.LogLevel
	if serverDebug {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pipeline, err := newPipeline(log, processor.WithMetrics(metrics.Default()))
	if err != nil {
		return err
	}

	config := &server.Config{
		Address:      serverAddr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}

	srv := server.NewServer(config, pipeline, server.WithLogger(log))

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down server")
		_ = log.Sync()
		os.Exit(0)
	}()

	log.Info("starting server",
		zap.String("address", serverAddr),
		zap.String("data_dir", dataDir),
	)

	return srv.Run()
}
