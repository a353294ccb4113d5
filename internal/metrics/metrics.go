// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	approvalActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_approval_actions_total",
		Help: "Approval actions processed, by document type, action and outcome.",
	}, []string{"document_type", "action", "outcome"})

	classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_document_classifications_total",
		Help: "Tab classifications computed for list views.",
	}, []string{"document_type", "classification"})

	backendRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "erp_backend_request_duration_seconds",
		Help:    "Round-trip time of ERP backend and directory requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// RecordAction counts one approve/reject/pay/acknowledge attempt.
// outcome is "success" or the error code that stopped it.
func RecordAction(docType, action, outcome string) {
	approvalActions.WithLabelValues(docType, action, outcome).Inc()
}

// RecordClassification counts one computed tab classification.
func RecordClassification(docType, classification string) {
	classifications.WithLabelValues(docType, classification).Inc()
}

// ObserveBackendRequest records one collaborator round trip. status 0
// means the request never produced a response.
func ObserveBackendRequest(method string, status int, d time.Duration) {
	backendRequests.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
