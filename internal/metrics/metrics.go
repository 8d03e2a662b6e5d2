package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/cauldronio/poolsched/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatcher tick/admission metrics

	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schedworker",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of one dispatcher tick.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	TicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "ticks_total",
		Help:      "Total dispatcher ticks, by whether a job ran.",
	}, []string{"ran"})

	IntentionsAdmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "intentions_admitted_total",
		Help:      "Intentions admitted onto a new job, by kind.",
	}, []string{"kind"})

	IntentionsCoalescedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "intentions_coalesced_total",
		Help:      "Intentions coalesced onto an already-running job, by kind.",
	}, []string{"kind"})

	IntentionsResumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "intentions_resumed_total",
		Help:      "Jobs resumed via next_job, by kind.",
	}, []string{"kind"})

	// Execution / archival metrics

	JobExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "schedworker",
		Name:      "job_execution_duration_seconds",
		Help:      "Duration of a TaskRunner invocation.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"kind"})

	JobsArchivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "jobs_archived_total",
		Help:      "Jobs archived, by kind and terminal status.",
	}, []string{"kind", "status"})

	JobsSuspendedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "jobs_suspended_total",
		Help:      "Jobs released back to the pool after a rate-limit suspension, by kind.",
	}, []string{"kind"})

	// Token admission metrics

	TokensExhaustedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "tokens_exhausted_total",
		Help:      "Admission attempts that found no ready token, by token kind.",
	}, []string{"kind"})

	// Periodic materializer metrics

	PeriodicMaterializedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "periodic_materialized_total",
		Help:      "Scheduled intentions materialized, by outcome.",
	}, []string{"outcome"})

	// Reaper metrics (supplemented lease-expiry sweep)

	ReaperReleasedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "reaper_released_total",
		Help:      "Jobs released by the reaper after their lease expired.",
	})

	// HTTP metrics (intention-creation / archive-listing API)

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "schedworker",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schedworker",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TickDuration,
		TicksTotal,
		IntentionsAdmittedTotal,
		IntentionsCoalescedTotal,
		IntentionsResumedTotal,
		JobExecutionDuration,
		JobsArchivedTotal,
		JobsSuspendedTotal,
		TokensExhaustedTotal,
		PeriodicMaterializedTotal,
		ReaperReleasedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if result.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}
