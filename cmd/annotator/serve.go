package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"annotator/internal/gateway/app"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the annotation gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if port != "" {
				cfg.Port = ":" + port
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- a.Start() }()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("server error", zap.Error(err))
				}
			case <-ctx.Done():
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.Shutdown(shutdownCtx); err != nil {
				logger.Error("server forced to shutdown", zap.Error(err))
				return err
			}
			logger.Info("server exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
