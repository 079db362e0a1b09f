package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the process's counters and gauges and serves them in the
// Prometheus text exposition format. It embeds a private prometheus.Registry,
// so Gather and Register are available directly.
type Registry struct {
	*prometheus.Registry
	handler http.Handler
}

// New creates an empty Registry. Go runtime collectors are not included.
func New() *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{
		Registry: reg,
		handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}),
	}
}

// NewCounterVec registers a counter named name partitioned by label.
// It panics if name is already registered.
func (r *Registry) NewCounterVec(name, help, label string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{label})
	r.MustRegister(c)
	return c
}

// NewGaugeFunc registers a gauge whose value is read from fn at scrape time.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) {
	r.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// ServeHTTP answers GET /metrics.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.handler.ServeHTTP(w, req)
}
