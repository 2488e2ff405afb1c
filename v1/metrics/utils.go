package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// Operation statuses used as the "status" label.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ObserveOperation records one completed storage operation. It implements
// observability.Observer.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := StatusSuccess
	if op.Error != nil {
		status = StatusError
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, op.SubResource, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation, op.Resource, op.SubResource, status).
		Observe(op.Duration.Seconds())
	if op.Size > 0 {
		m.documentsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, op.SubResource).
			Add(float64(op.Size))
	}
}

// createCounterVec defines a new CounterVec with standard options.
func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// createHistogramVec defines a new HistogramVec with configurable buckets.
func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
