package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seisplot/seisplot/server/internal/query"
	"github.com/seisplot/seisplot/server/internal/store"
)

// ContentType is the media type of every image a Renderer returns.
const ContentType = "image/png"

// Failure reasons the renderer reports in a way users can act on.
var (
	// ErrNoData means the selection matched no waveform data.
	ErrNoData = errors.New("no data for selection")

	// ErrInvalidQuery means the renderer rejected the selection itself,
	// for example an unparseable or inverted time range.
	ErrInvalidQuery = errors.New("invalid selection")
)

// Renderer turns a complete PlotQuery into an image.
type Renderer interface {
	Render(ctx context.Context, q query.PlotQuery) ([]byte, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, q query.PlotQuery) ([]byte, error)

// Render calls f(ctx, q).
func (f RendererFunc) Render(ctx context.Context, q query.PlotQuery) ([]byte, error) {
	return f(ctx, q)
}

// Error is a renderer failure with the message reported by the renderer.
// Reason is ErrNoData or ErrInvalidQuery.
type Error struct {
	Reason  error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "render: " + e.Reason.Error()
	}
	return fmt.Sprintf("render: %s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error { return e.Reason }

// Notice is the user-facing description of the failure.
func (e *Error) Notice() string {
	var base string
	switch {
	case errors.Is(e.Reason, ErrNoData):
		base = "No data available for this selection"
	default:
		base = "The plotter rejected this selection"
	}
	if e.Message != "" {
		return base + ": " + e.Message
	}
	return base
}

// IsRejected reports whether err is a renderer failure that should be shown
// to the user rather than treated as an outage.
func IsRejected(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrInvalidQuery)
}

// cached serves repeated selections from the image store.
type cached struct {
	next  Renderer
	store *store.Store
}

// Cached wraps next so that successful renders are kept in st and reused
// until they expire. Failures are never cached.
func Cached(next Renderer, st *store.Store) Renderer {
	return &cached{next: next, store: st}
}

func (c *cached) Render(ctx context.Context, q query.PlotQuery) ([]byte, error) {
	key := q.Key()
	if e, ok := c.store.Get(key); ok {
		slog.Debug("render: cache hit", "query", q.String())
		return e.Image, nil
	}
	img, err := c.next.Render(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store.Put(key, img)
	return img, nil
}
