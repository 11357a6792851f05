// Package metrics exposes prometheus instruments for harvest runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "harvester"

var (
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Pages fetched from the YouTube API per stream",
	}, []string{"stream"})

	CommentsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_collected_total",
		Help:      "Top-level comments collected across all runs",
	})

	Videos = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "videos_total",
		Help:      "Videos handled by the harvester by outcome",
	}, []string{"outcome"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Harvest runs by mode and outcome",
	}, []string{"mode", "outcome"})

	RunDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of harvest runs",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"mode"})
)

// Stream labels for PagesFetched.
const (
	StreamVideos   = "videos"
	StreamComments = "comments"
)

// Video outcome labels.
const (
	VideoProcessed = "processed"
	VideoSkipped   = "skipped"
	VideoFailed    = "failed"
)

// ObserveRun records one finished run.
func ObserveRun(mode, outcome string, started time.Time) {
	Runs.WithLabelValues(mode, outcome).Inc()
	RunDurations.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
