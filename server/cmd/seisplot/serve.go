package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seisplot/seisplot/server/internal/app"
	"github.com/seisplot/seisplot/server/internal/config"
	"github.com/seisplot/seisplot/server/internal/logging"
)

// serve: run the HTTP server until SIGINT/SIGTERM.
func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the plot form, /plot and the websocket routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger := logging.Setup(cfg.Server.Log)
			defer logger.Close() //nolint:errcheck

			slog.Info("seisplot starting", "config", *configPath)
			slog.Info("config loaded",
				"http_port", cfg.Server.HTTPPort,
				"auth_mode", cfg.Server.Auth.Mode,
				"renderer", cfg.Renderer.Endpoint,
				"cache_ttl", cfg.Renderer.CacheTTL,
				"cache_max_entries", cfg.Renderer.CacheMaxEntries,
			)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// Hot reload applies the log level only; ports and routes are fixed
			// for the life of the process.
			go func() {
				if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
					logger.Apply(updated.Server.Log)
				}); err != nil {
					slog.Error("config watcher stopped", "err", err)
				}
			}()

			a, err := app.New(cfg, nil)
			if err != nil {
				slog.Error("failed to build server", "err", err)
				return err
			}
			if err := a.Run(ctx); err != nil {
				slog.Error("server stopped", "err", err)
				return err
			}
			return nil
		},
	}
}
