// Package metrics provides Prometheus metrics for sharefastly.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefastly_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharefastly_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Upload metrics
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefastly_uploads_total",
			Help: "Total uploads by final state",
		},
		[]string{"result"},
	)

	uploadRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sharefastly_upload_retries_total",
			Help: "Total upload retry attempts",
		},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sharefastly_upload_bytes_total",
			Help: "Total bytes of completed uploads",
		},
	)

	uploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sharefastly_upload_duration_seconds",
			Help:    "Upload duration including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	uploadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharefastly_uploads_in_flight",
			Help: "Uploads currently in progress",
		},
	)

	// Delete metrics
	deletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefastly_deletes_total",
			Help: "Total delete operations",
		},
		[]string{"result"},
	)

	// Listing metrics
	listRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefastly_list_requests_total",
			Help: "Total directory listings",
		},
		[]string{"result"},
	)

	listDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sharefastly_list_duration_seconds",
			Help:    "Directory listing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	snapshotEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharefastly_snapshot_entries",
			Help: "Entries in the current snapshot",
		},
	)

	snapshotFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharefastly_snapshot_folders",
			Help: "Named folders in the current snapshot",
		},
	)

	snapshotDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharefastly_snapshot_degraded",
			Help: "1 when the current snapshot came from a failed listing",
		},
	)

	// Feed metrics
	feedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sharefastly_feed_subscribers",
			Help: "Active snapshot feed subscribers",
		},
	)

	feedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefastly_feed_events_total",
			Help: "Total feed events published",
		},
		[]string{"type"},
	)

	// Drop folder metrics
	dropQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sharefastly_drop_files_queued_total",
			Help: "Files queued for upload by the drop folder watcher",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpload records a finished upload.
func RecordUpload(bytes int, success bool, duration time.Duration) {
	if success {
		uploadBytesTotal.Add(float64(bytes))
	}

	uploadsTotal.WithLabelValues(resultLabel(success)).Inc()
	uploadDuration.Observe(duration.Seconds())
}

// RecordUploadRetry records a retry attempt.
func RecordUploadRetry() {
	uploadRetriesTotal.Inc()
}

// UploadStarted and UploadDone track in-flight uploads.
func UploadStarted() { uploadsInFlight.Inc() }
func UploadDone()    { uploadsInFlight.Dec() }

// RecordDelete records a delete operation.
func RecordDelete(success bool) {
	deletesTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordList records a directory listing.
func RecordList(success bool, duration time.Duration) {
	listRequestsTotal.WithLabelValues(resultLabel(success)).Inc()
	listDuration.Observe(duration.Seconds())
}

// SetSnapshot publishes the shape of the current snapshot.
func SetSnapshot(entries, folders int, degraded bool) {
	snapshotEntries.Set(float64(entries))
	snapshotFolders.Set(float64(folders))

	if degraded {
		snapshotDegraded.Set(1)
	} else {
		snapshotDegraded.Set(0)
	}
}

// SetFeedSubscribers sets the number of active feed subscribers.
func SetFeedSubscribers(count int) {
	feedSubscribers.Set(float64(count))
}

// RecordFeedEvent records a feed event publication.
func RecordFeedEvent(eventType string) {
	feedEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordDropQueued records files handed from the drop folder to the uploader.
func RecordDropQueued(n int) {
	dropQueuedTotal.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the websocket feed take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}

	rw.statusCode = http.StatusSwitchingProtocols

	return hj.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics. Routes
// are labelled by mux pattern so file names never become label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
