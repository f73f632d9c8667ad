package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/bookhive/library-backend/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Loan lifecycle metrics

	LoansBorrowedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "loans_borrowed_total",
		Help:      "Total loans created by the borrow operation.",
	})

	LoansReturnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "loans_returned_total",
		Help:      "Total loans closed by the return operation.",
	})

	BorrowConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "borrow_conflicts_total",
		Help:      "Borrow attempts rejected because the book was unavailable.",
	})

	// Sweeper metrics

	LoansOverdueTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "loans_overdue_total",
		Help:      "Total loans flipped to overdue by the sweep.",
	})

	SweepCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "library",
		Name:      "sweep_cycle_duration_seconds",
		Help:      "Time taken for one overdue sweep cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Catalog proxy metrics

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "catalog_requests_total",
		Help:      "Outbound Google Books requests, by outcome.",
	}, []string{"outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "library",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "library",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LoansBorrowedTotal,
		LoansReturnedTotal,
		BorrowConflictsTotal,
		LoansOverdueTotal,
		SweepCycleDuration,
		CatalogRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves the ops surface: metrics plus liveness and readiness,
// kept off the public API port.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
