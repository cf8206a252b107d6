package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"annotator/internal/gateway/config"
	"annotator/internal/logging"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:           "annotator",
	Short:         "Screenshot element annotator gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newProjectCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfigAndLogger() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err = logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
