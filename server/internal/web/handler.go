package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seisplot/seisplot/server/internal/metrics"
	"github.com/seisplot/seisplot/server/internal/query"
	"github.com/seisplot/seisplot/server/internal/render"
)

//go:embed templates/index.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Outcome label values for seisplot_plot_requests_total.
const (
	OutcomeOK               = "ok"
	OutcomeMissingParam     = "missing_param"
	OutcomeRendererRejected = "renderer_rejected"
	OutcomeRendererError    = "renderer_error"
)

const unavailableNotice = "The plotter could not produce an image right now. Please try again later."

// Handler serves the input form at / and rendered plots at /plot.
type Handler struct {
	renderer render.Renderer
	mux      *http.ServeMux

	plots *prometheus.CounterVec
	index *prometheus.CounterVec
}

// formData is the template context for index.html.
type formData struct {
	Notices []string
}

// New creates a Handler that delegates plotting to r and registers its request
// counters on reg. When reg is nil no /metrics route is mounted and counters
// are kept on a private registry.
func New(r render.Renderer, reg *metrics.Registry) http.Handler {
	h := &Handler{renderer: r, mux: http.NewServeMux()}

	counters := reg
	if counters == nil {
		counters = metrics.New()
	}
	h.plots = counters.NewCounterVec("seisplot_plot_requests_total",
		"Plot requests by outcome.", "outcome")
	h.index = counters.NewCounterVec("seisplot_index_requests_total",
		"Index form requests by outcome.", "outcome")

	h.mux.HandleFunc("/", h.serveIndex)
	h.mux.HandleFunc("/plot", h.plot)
	if reg != nil {
		h.mux.Handle("/metrics", reg)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// serveIndex returns GET /: the static input form.
func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.index.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.index.WithLabelValues(OutcomeOK).Inc()
	writeForm(w, http.StatusOK)
}

// plot returns GET /plot: the rendered image for a complete selection, or the
// input form with a notice when the selection is incomplete or unusable.
func (h *Handler) plot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q, err := query.Parse(r.URL.Query())
	if err != nil {
		notice := err.Error()
		var missing *query.MissingError
		if errors.As(err, &missing) {
			notice = missing.Notice()
		}
		h.plots.WithLabelValues(OutcomeMissingParam).Inc()
		writeForm(w, http.StatusOK, notice)
		return
	}

	img, err := h.renderer.Render(r.Context(), q)
	if err != nil {
		h.renderFailed(w, q, err)
		return
	}

	h.plots.WithLabelValues(OutcomeOK).Inc()
	slog.Debug("web: plot rendered", "query", q.String(), "bytes", len(img))
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck
}

// renderFailed maps a renderer error to the form page. Selections the
// renderer rejected get their reason as the notice; anything else is logged
// and reported as an outage.
func (h *Handler) renderFailed(w http.ResponseWriter, q query.PlotQuery, err error) {
	var re *render.Error
	switch {
	case errors.As(err, &re):
		h.plots.WithLabelValues(OutcomeRendererRejected).Inc()
		slog.Info("web: renderer rejected selection", "query", q.String(), "err", err)
		writeForm(w, http.StatusUnprocessableEntity, re.Notice())
	case render.IsRejected(err):
		h.plots.WithLabelValues(OutcomeRendererRejected).Inc()
		slog.Info("web: renderer rejected selection", "query", q.String(), "err", err)
		writeForm(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.plots.WithLabelValues(OutcomeRendererError).Inc()
		slog.Error("web: renderer failed", "query", q.String(), "err", err)
		writeForm(w, http.StatusBadGateway, unavailableNotice)
	}
}

// --- helpers ----------------------------------------------------------------

// writeForm renders the input form with the given notices.
func writeForm(w http.ResponseWriter, code int, notices ...string) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, formData{Notices: notices}); err != nil {
		slog.Error("web: execute form template", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
