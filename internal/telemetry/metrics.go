// Package telemetry exposes Prometheus metrics for the detection pipeline.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	WindowsProcessed prometheus.Counter
	InferenceErrors  prometheus.Counter
	InferenceSeconds prometheus.Histogram

	EventsConfirmed  *prometheus.CounterVec
	TodayCount       *prometheus.GaugeVec
	LatestConfidence *prometheus.GaugeVec
}

// NewMetrics creates and registers all metric collectors.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		WindowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barkwatch_windows_processed_total",
			Help: "Total number of audio windows classified.",
		}),
		InferenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barkwatch_inference_errors_total",
			Help: "Total number of classifier inference failures.",
		}),
		InferenceSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "barkwatch_inference_duration_seconds",
			Help:    "Time taken to classify one audio window.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		EventsConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barkwatch_events_confirmed_total",
			Help: "Total number of confirmed events partitioned by class.",
		}, []string{"class"}),
		TodayCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "barkwatch_events_today",
			Help: "Number of events stored for the current day partitioned by class.",
		}, []string{"class"}),
		LatestConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "barkwatch_latest_confidence",
			Help: "Most recent per-window confidence partitioned by class.",
		}, []string{"class"}),
	}

	collectors := []prometheus.Collector{
		m.WindowsProcessed,
		m.InferenceErrors,
		m.InferenceSeconds,
		m.EventsConfirmed,
		m.TodayCount,
		m.LatestConfidence,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	return m, nil
}

// RegisterHandlers mounts the metrics endpoint on the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
