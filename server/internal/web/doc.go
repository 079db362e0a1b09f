// Package web implements the browser-facing endpoints of seisplot.
//
// New(renderer, registry) returns an http.Handler that serves:
//
//	GET /         the static input form (same page for any query string)
//	GET /plot     image/png for a complete selection; the form plus a
//	              notice ("Missing end") when a field is absent or empty
//	GET /metrics  Prometheus text exposition (only when a registry is given)
//
// /plot calls the renderer at most once per request and only with a fully
// validated query.PlotQuery. A renderer rejection (no data, invalid range)
// re-renders the form with the renderer's reason and status 422; any other
// renderer failure is logged and answered with the form and status 502.
//
// Non-GET methods return 405 with a JSON error body. The form template is
// embedded in the binary.
package web
