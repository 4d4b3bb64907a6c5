package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/server"
	"github.com/MeKo-Tech/qrscan/internal/version"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for QR extraction API",
	Long: `Start an HTTP server that provides REST API endpoints for QR code extraction.

The server provides the following endpoints:
  POST /v1/analyze - Analyze an uploaded file (multipart field "file")
  GET  /health     - Health check endpoint
  GET  /metrics    - Prometheus metrics

Examples:
  qrscan serve
  qrscan serve --port 8080
  qrscan serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", cfg.Server.Port)
		}

		srv, err := server.NewServer(serverConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(cfg.Server.TimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(cfg.Server.TimeoutSec) * time.Second,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go func() {
			slog.Info("Starting QR extraction server", "host", cfg.Server.Host, "port", cfg.Server.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
			return fmt.Errorf("shutdown: %w", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

// serverConfig maps the resolved configuration onto the server settings.
func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: int64(cfg.Server.MaxUploadMB),
		TimeoutSec:  cfg.Server.TimeoutSec,
		Version:     version.Version,
		Extract:     cfg.ToExtractOptions(),
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := config.DefaultConfig()
	serveCmd.Flags().StringP("host", "H", defaults.Server.Host, "server host")
	serveCmd.Flags().IntP("port", "p", defaults.Server.Port, "server port")
	serveCmd.Flags().String("cors-origin", defaults.Server.CORSOrigin, "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", defaults.Server.MaxUploadMB, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", defaults.Server.TimeoutSec, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "shutdown timeout in seconds")

	bindFlags(serveCmd.Flags(), []flagBinding{
		{"server.host", "host"},
		{"server.port", "port"},
		{"server.cors_origin", "cors-origin"},
		{"server.max_upload_mb", "max-upload-size"},
		{"server.timeout_sec", "timeout"},
		{"server.shutdown_timeout", "shutdown-timeout"},
	})
}
