package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CompetitorFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscribe_competitor_fetches_total",
			Help: "Competitor page fetches by outcome",
		},
		[]string{"domain", "status", "challenged"},
	)

	CompetitorFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seoscribe_competitor_fetch_duration_seconds",
			Help:    "Duration of competitor page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"domain"},
	)

	CompetitorFetchBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscribe_competitor_fetch_bytes_total",
			Help: "Bytes downloaded from competitor pages",
		},
		[]string{"domain"},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscribe_pipeline_runs_total",
			Help: "Generation pipeline runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seoscribe_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)
)

// Fetch describes one competitor fetch for RecordFetch.
type Fetch struct {
	Domain     string
	StatusCode int
	Failed     bool
	Challenged bool
	Bytes      int
	Duration   time.Duration
}

// RecordFetch updates the competitor fetch metrics.
func RecordFetch(f Fetch) {
	status := strconv.Itoa(f.StatusCode)
	if f.Failed && f.StatusCode == 0 {
		status = "error"
	}

	CompetitorFetchesTotal.WithLabelValues(f.Domain, status, strconv.FormatBool(f.Challenged)).Inc()
	CompetitorFetchDuration.WithLabelValues(f.Domain).Observe(f.Duration.Seconds())
	CompetitorFetchBytes.WithLabelValues(f.Domain).Add(float64(f.Bytes))
}

// RecordRun counts one pipeline run.
func RecordRun(trigger, outcome string) {
	PipelineRunsTotal.WithLabelValues(trigger, outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Server exposes /metrics on its own listener.
type Server struct {
	srv *http.Server
}

// Start begins listening on port and serves /metrics in the background.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
