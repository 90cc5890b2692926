// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Uploads to the media host by kind and result",
		},
		[]string{"kind", "result"},
	)

	// MediaDestroys counts destroys by reason: compensate (undo an upload of
	// a failed request) or release (drop assets of a replaced or deleted movie).
	MediaDestroys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_destroys_total",
			Help: "Destroys against the media host by reason and result",
		},
		[]string{"reason", "result"},
	)

	MoviePipeline = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_pipeline_total",
			Help: "Movie create/update/delete pipeline outcomes",
		},
		[]string{"op", "outcome"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordUpload records one upload attempt.
func RecordUpload(kind string, err error) {
	MediaUploads.WithLabelValues(kind, result(err)).Inc()
}

// RecordDestroy records one destroy attempt.
func RecordDestroy(reason string, err error) {
	MediaDestroys.WithLabelValues(reason, result(err)).Inc()
}

// RecordPipeline records the outcome of one movie pipeline run.
func RecordPipeline(op, outcome string) {
	MoviePipeline.WithLabelValues(op, outcome).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
