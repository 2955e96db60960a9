package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	objectsStoredTotal   *prometheus.CounterVec
	objectsDeletedTotal  prometheus.Counter
	uploadRejectedTotal  *prometheus.CounterVec
	uploadLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaksha_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kaksha_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaksha_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		objectsStoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaksha_objects_stored_total",
			Help: "Total number of objects written to the blob store.",
		}, []string{"kind"})

		objectsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kaksha_objects_deleted_total",
			Help: "Total number of objects removed from the blob store.",
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaksha_upload_rejected_total",
			Help: "Uploads rejected before reaching the blob store.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kaksha_upload_latency_seconds",
			Help:    "Time spent validating and storing uploaded files.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			objectsStoredTotal,
			objectsDeletedTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ObjectsStored exposes the counter for stored blobs, labelled by upload kind.
func ObjectsStored() *prometheus.CounterVec {
	RegisterMetrics()
	return objectsStoredTotal
}

// ObjectsDeleted exposes the counter for deleted blobs.
func ObjectsDeleted() prometheus.Counter {
	RegisterMetrics()
	return objectsDeletedTotal
}

// UploadRejected exposes the counter for rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
