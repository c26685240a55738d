// Package metrics exposes Prometheus counters for hunt runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tweetbot/pkg/logger"
)

// Like outcomes.
const (
	OutcomeLiked     = "liked"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	Polls           prometheus.Counter
	StatusesScanned prometheus.Counter
	Matches         prometheus.Counter
	Rejected        *prometheus.CounterVec
	Likes           *prometheus.CounterVec
	RateLimitWaits  prometheus.Counter
	RateLimitWaited prometheus.Counter
	SearchRemaining prometheus.Gauge
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Polls: f.NewCounter(prometheus.CounterOpts{
			Name: "tweetbot_polls_total",
			Help: "Number of search pages requested",
		}),
		StatusesScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "tweetbot_statuses_scanned_total",
			Help: "Number of statuses run through the filter",
		}),
		Matches: f.NewCounter(prometheus.CounterOpts{
			Name: "tweetbot_matches_total",
			Help: "Number of statuses that passed the filter",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetbot_rejected_total",
			Help: "Number of statuses rejected, by first failing predicate",
		}, []string{"reason"}),
		Likes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetbot_likes_total",
			Help: "Like attempts by outcome",
		}, []string{"outcome"}),
		RateLimitWaits: f.NewCounter(prometheus.CounterOpts{
			Name: "tweetbot_rate_limit_waits_total",
			Help: "Number of times a run paused for the search budget",
		}),
		RateLimitWaited: f.NewCounter(prometheus.CounterOpts{
			Name: "tweetbot_rate_limit_wait_seconds_total",
			Help: "Seconds spent waiting for the search budget",
		}),
		SearchRemaining: f.NewGauge(prometheus.GaugeOpts{
			Name: "tweetbot_search_remaining",
			Help: "Search requests left in the current window, as last reported",
		}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetbot_runs_total",
			Help: "Completed hunt runs by status",
		}, []string{"status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tweetbot_run_duration_seconds",
			Help:    "Wall time of hunt runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// RecordWait counts one rate-limit pause of length d.
func (m *Metrics) RecordWait(d time.Duration) {
	m.RateLimitWaits.Inc()
	m.RateLimitWaited.Add(d.Seconds())
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(d time.Duration, err error) {
	status := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "cancelled"
	case err != nil:
		status = "error"
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// Serve exposes g on addr at path until ctx is done.
func Serve(ctx context.Context, addr, path string, g prometheus.Gatherer, log logger.Logger) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.InfoWithFields("Metrics endpoint listening", map[string]interface{}{
			"addr": addr,
			"path": path,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
