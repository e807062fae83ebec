package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/pipeline"
	"github.com/mnakata/islandhop/internal/server"
)

var serveAddr string

// serveCmd runs the HTTP chat endpoint
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Start the HTTP server exposing POST /api/chat and GET /health.

Example:
  islandhop serve
  islandhop serve --addr :9000 --data-dir ./data`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	registerCommonFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyCommonFlags(cmd, cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	p := pipeline.NewPipeline(cfg, logger)

	// Surface data problems at startup rather than on the first query
	if report, err := p.Store().Validate(); err != nil {
		logger.Warn("ferry data unavailable", zap.Error(err))
	} else {
		logger.Info("ferry data loaded",
			zap.Int("routes", report.RouteCount),
			zap.Int("ports", report.PortCount),
			zap.Int("companies", report.CompanyCount),
			zap.Int("issues", len(report.Issues)),
		)
	}

	srv := server.NewServer(cfg.Server, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
