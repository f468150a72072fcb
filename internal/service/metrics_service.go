package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for exports and
// upstream traffic.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	exportTotal     *prometheus.CounterVec
	exportDuration  *prometheus.HistogramVec
	upstreamTotal   *prometheus.CounterVec
	imageResolution *prometheus.CounterVec
}

// NewMetricsService registers the service collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paper_exports_total",
		Help: "Total paper export attempts by format and outcome",
	}, []string{"format", "outcome"})

	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paper_export_duration_seconds",
		Help:    "Duration of paper export rendering",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "question_bank_requests_total",
		Help: "Total question bank requests by operation and outcome",
	}, []string{"operation", "outcome"})

	imageResolution := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_resolutions_total",
		Help: "Total image proxy resolutions by outcome",
	}, []string{"outcome"})

	registry.MustRegister(exportTotal, exportDuration, upstreamTotal, imageResolution)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		exportTotal:     exportTotal,
		exportDuration:  exportDuration,
		upstreamTotal:   upstreamTotal,
		imageResolution: imageResolution,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// RecordExport observes one export attempt.
func (s *MetricsService) RecordExport(format string, duration time.Duration, err error) {
	if s == nil {
		return
	}
	s.exportTotal.WithLabelValues(format, outcome(err)).Inc()
	if err == nil {
		s.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// RecordUpstream observes one question bank call.
func (s *MetricsService) RecordUpstream(operation string, err error) {
	if s == nil {
		return
	}
	s.upstreamTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// RecordImageResolution observes one image proxy call.
func (s *MetricsService) RecordImageResolution(err error) {
	if s == nil {
		return
	}
	s.imageResolution.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
