package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codepair/codepair-server/internal/app"
	"github.com/codepair/codepair-server/internal/config"
	"github.com/codepair/codepair-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "codepair-server",
		Short: "Realtime collaborative code editing server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				overrides.LogLevel = logLevel
			}
			cfg.UpdateFrom(overrides)
			logger = log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Str("config", path).Msg("starting codepair server")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	root.Flags().StringVar(&overrides.StaticDir, "static-dir", "", "frontend build directory")
	root.Flags().StringVar(&overrides.ExecuteURL, "execute-url", "", "execution service URL")
	root.Flags().StringVar(&overrides.HistoryDBPath, "history-db", "", "sqlite file for the execution audit log")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
