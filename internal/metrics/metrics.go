package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pethoria"

// Recorder owns the service collectors. Each Recorder registers into its own
// registry so tests can build as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	candidatesReturned *prometheus.HistogramVec
	swipesTotal        *prometheus.CounterVec
	matchesFormed      prometheus.Counter
	matchRepairs       *prometheus.CounterVec
	repairBacklog      prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		candidatesReturned: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discovery_candidates",
				Help:      "Candidates returned per discovery request",
				Buckets:   []float64{0, 1, 5, 10, 20, 35, 50},
			},
			[]string{"kind"},
		),
		swipesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swipes_total",
				Help:      "Recorded swipes by decision",
			},
			[]string{"decision"},
		),
		matchesFormed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_formed_total",
				Help:      "Mutual matches created",
			},
		),
		matchRepairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_repairs_total",
				Help:      "Match pair repairs by outcome",
			},
			[]string{"outcome"},
		),
		repairBacklog: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "match_repair_backlog",
				Help:      "Match pairs waiting for reconciliation",
			},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequestDuration,
		r.httpRequestsTotal,
		r.candidatesReturned,
		r.swipesTotal,
		r.matchesFormed,
		r.matchRepairs,
		r.repairBacklog,
	)

	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveCandidates(kind string, n int) {
	if r == nil {
		return
	}
	r.candidatesReturned.WithLabelValues(kind).Observe(float64(n))
}

func (r *Recorder) ObserveSwipe(decision string) {
	if r == nil {
		return
	}
	r.swipesTotal.WithLabelValues(decision).Inc()
}

func (r *Recorder) ObserveMatchFormed() {
	if r == nil {
		return
	}
	r.matchesFormed.Inc()
}

func (r *Recorder) ObserveRepair(outcome string) {
	if r == nil {
		return
	}
	r.matchRepairs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SetRepairBacklog(n int64) {
	if r == nil {
		return
	}
	r.repairBacklog.Set(float64(n))
}
