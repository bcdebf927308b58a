// Package metrics counts and times endpoint dispatches with Prometheus.
//
// Register the collector as a global linker middleware and expose its
// handler next to the app:
//
//	m := metrics.New()
//	l := linker.New(routing.NewAdapter(routing.WithHandler("GET", "/metrics", m.Handler())),
//	    linker.WithMiddlewares(m.Middleware()))
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-composer/framework/core"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector owns a private registry so several apps, or tests, can live in
// one process.
type Collector struct {
	registry   *prometheus.Registry
	dispatched *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates a Collector with the dispatch metrics plus the Go runtime and
// process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "composer_dispatch_total",
				Help: "Number of endpoint dispatches by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "composer_dispatch_duration_seconds",
				Help:    "Time taken to dispatch an endpoint, middleware included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
	c.registry.MustRegister(
		c.dispatched,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry for registering app metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handle implements core.MiddlewareHandler. The endpoint label is the name
// the linker stored on ctx.
func (c *Collector) Handle(ctx core.Context, next core.Next) (any, error) {
	endpoint := core.Endpoint(ctx)
	start := time.Now()
	res, err := next()
	c.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.dispatched.WithLabelValues(endpoint, outcome).Inc()
	return res, err
}

// Middleware returns Handle as a linker middleware.
func (c *Collector) Middleware() core.MiddlewareFunc { return c.Handle }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
