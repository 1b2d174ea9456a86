// Package telemetry exposes the control loop's operational counters via
// Prometheus and serves them over HTTP.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	Ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "it2flc_loop_ticks_total",
		Help: "The total number of control loop ticks",
	})
	CommandsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "it2flc_commands_emitted_total",
		Help: "The total number of actuator commands emitted",
	})
	TicksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "it2flc_ticks_skipped_total",
		Help: "The total number of ticks skipped, by reason",
	}, []string{"reason"})
	GainUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "it2flc_gain_updates_total",
		Help: "The total number of gain set replacements received",
	})
	SamplesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "it2flc_samples_dropped_total",
		Help: "The total number of inbound samples dropped on full channels, by kind",
	}, []string{"kind"})
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "it2flc_tick_duration_seconds",
		Help:    "Wall time spent computing and publishing one command",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
)

// StartMonitor serves the metrics endpoint on addr. It blocks; run it in its
// own goroutine.
func StartMonitor(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, mux)
	log.Error("metrics endpoint stopped", zap.String("addr", addr), zap.Error(err))
}
