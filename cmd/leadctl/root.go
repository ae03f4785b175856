package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "leadctl",
		Short:        "Extract business listings from maps search results",
		SilenceUsage: true,
	}
	root.AddCommand(newExtractCmd(), newTokenCmd())
	return root
}

// loadEnv reads the configuration and installs the global logger.
func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, zl, nil
}
