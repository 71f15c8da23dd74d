package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/power-forecast/internal/adapter/httpadapter"
	"github.com/couchcryptid/power-forecast/internal/evaluate"
)

// runCmd executes one pipeline pass and prints the evaluation table.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the forecasting pipeline once and print the evaluation table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := a.pipeline.Run(ctx, a.cfg.InputPath)
			if report == nil {
				return err
			}
			if err != nil {
				a.logger.Warn("pipeline finished with errors", "error", err)
			}
			return evaluate.WriteTable(cmd.OutOrStdout(), report)
		},
	}
}

// serveCmd runs the pipeline in the background and serves health probes,
// metrics and the latest report until interrupted.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline and serve /healthz, /readyz, /metrics and /report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			logger := a.logger
			srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, a.pipeline, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
				}
			}()

			go func() {
				if _, err := a.pipeline.Run(ctx, a.cfg.InputPath); err != nil {
					logger.Error("pipeline error", "error", err)
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}
