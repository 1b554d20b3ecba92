package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload and query server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides HTTP_ADDR")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := api.NewServer(a.manager, api.Options{
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
	}, a.logger)
	if err != nil {
		return err
	}

	addr := a.cfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("variant", a.cfg.PipelineVariant),
			zap.String("sink", a.cfg.SinkDriver))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Graceful shutdown failed", zap.Error(err))
		if err := srv.Close(); err != nil {
			a.logger.Error("Forced shutdown failed", zap.Error(err))
		}
	}

	a.logger.Info("Server stopped")
	a.logger.Info(a.manager.Metrics().GenerateMetricsReport())
	return nil
}
