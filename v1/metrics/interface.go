package metrics

import "github.com/Aleph-Alpha/odm/v1/observability"

// MetricsCollector records storage operations as Prometheus metrics.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	observability.Observer
}

var _ MetricsCollector = (*Metrics)(nil)
