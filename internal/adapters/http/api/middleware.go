package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/metrics"
)

// Dataset label values for requests that do not name a known dataset.
const (
	datasetNone    = "none"
	datasetUnknown = "unknown"
)

// MetricsMiddleware records request count, latency and error class per endpoint and dataset.
// It must wrap a handler registered on a pattern so the {dataset} path value is populated.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		ms := float64(time.Since(start).Milliseconds())
		dataset := datasetLabel(r)
		status := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, dataset, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, dataset, r.Method, status, ms)

		if sw.status >= http.StatusBadRequest {
			kind := errorKind(sw.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
			metrics.RecordErrorByType(kind, severity(sw.status))
			metrics.RecordErrorLatency("http", kind, ms)
		}
	}
}

// datasetLabel bounds label cardinality: anything that is not a known dataset collapses to "unknown".
func datasetLabel(r *http.Request) string {
	raw := r.PathValue("dataset")
	if raw == "" {
		return datasetNone
	}
	d, err := model.ParseDataset(raw)
	if err != nil {
		return datasetUnknown
	}
	return string(d)
}

// errorKind names the failure classes the handlers in this package produce.
func errorKind(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusGone:
		return "expired"
	case http.StatusPreconditionFailed:
		return "not_approved"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnprocessableEntity:
		return "undecodable"
	case http.StatusTooManyRequests:
		return "rate_limit"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

func severity(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case status == http.StatusUnprocessableEntity:
		return "medium"
	default:
		return "low"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
