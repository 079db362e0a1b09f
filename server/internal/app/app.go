// Package app assembles the seisplot HTTP server from its parts: the web
// endpoints, the renderer (optionally cached), the websocket routing table
// and the example consumer hub. All process state hangs off App; nothing is
// kept in package-level variables.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/seisplot/seisplot/server/internal/auth"
	"github.com/seisplot/seisplot/server/internal/config"
	"github.com/seisplot/seisplot/server/internal/metrics"
	"github.com/seisplot/seisplot/server/internal/render"
	"github.com/seisplot/seisplot/server/internal/routing"
	"github.com/seisplot/seisplot/server/internal/store"
	"github.com/seisplot/seisplot/server/internal/web"
	"github.com/seisplot/seisplot/server/internal/ws"
)

// App is one configured server instance.
type App struct {
	cfg     *config.Config
	cache   *store.Store // nil when caching is disabled
	hub     *ws.Hub
	routes  *routing.Table
	handler http.Handler
}

// New wires an App from cfg. When r is nil an HTTPRenderer is built from
// cfg.Renderer.
func New(cfg *config.Config, r render.Renderer) (*App, error) {
	if r == nil {
		hr, err := render.NewHTTP(cfg.Renderer)
		if err != nil {
			return nil, err
		}
		r = hr
	}

	a := &App{cfg: cfg, hub: ws.New("example")}

	if cfg.Renderer.CacheTTL > 0 {
		a.cache = store.New(cfg.Renderer.CacheTTL, cfg.Renderer.CacheMaxEntries)
		r = render.Cached(r, a.cache)
	}

	reg := metrics.New()
	reg.NewGaugeFunc("seisplot_ws_clients", "Connected websocket clients.",
		func() float64 { return float64(a.hub.Count()) })
	if a.cache != nil {
		reg.NewGaugeFunc("seisplot_cache_entries", "Rendered images held in the cache.",
			func() float64 { return float64(a.cache.Count()) })
	}

	routes, err := routing.Websocket(auth.Middleware(cfg.Server.Auth)(a.hub))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.routes = routes

	mux := http.NewServeMux()
	mux.Handle("/", web.New(r, reg))
	mux.Handle("/example/ws/", routes)
	a.handler = mux

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Routes returns the websocket routing table.
func (a *App) Routes() *routing.Table { return a.routes }

// Run serves HTTP on the configured port until ctx is cancelled, then shuts
// down gracefully within cfg.Server.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a.cache != nil {
		go a.cache.Run(ctx)
	}
	go a.hub.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.HTTPPort),
		Handler: a.handler,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("seisplot shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}
