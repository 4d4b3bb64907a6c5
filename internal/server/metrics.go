package server

import (
	"github.com/MeKo-Tech/qrscan/internal/extract"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Analysis metrics
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrscan_documents_total",
			Help: "Total number of analysed documents",
		},
		[]string{"strategy", "status"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrscan_analysis_duration_seconds",
			Help:    "Document analysis duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 25, 50},
		},
		[]string{"strategy"},
	)

	imagesProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrscan_images_processed",
			Help:    "Number of images processed per document",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	featuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrscan_features_total",
			Help: "Total number of emitted feature values",
		},
		[]string{"feature"},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrscan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)
)

// recordResult updates the analysis metrics for one document.
func recordResult(res *extract.Result) {
	documentsTotal.WithLabelValues(res.Strategy, string(res.Status.Label)).Inc()
	analysisDuration.WithLabelValues(res.Strategy).Observe(res.Duration.Seconds())
	imagesProcessed.Observe(float64(res.ImagesProcessed))
	for _, f := range res.Features {
		featuresTotal.WithLabelValues(string(f.Name)).Inc()
	}
}
