package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// operationLabels are the labels of every ODM operation metric.
var operationLabels = []string{"component", "operation", "database", "collection", "status"}

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing ODM operation metrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	documentsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated registry holding the ODM operation metrics,
// labelled with the service name, and an HTTP server exposing it.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "document-index",
//	})
//	conns := mongo.NewConnections(log).WithObserver(m)
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()

	// Every metric gets service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry: registry,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "odm_operations_total",
		"Total number of storage operations performed by the ODM", operationLabels)
	m.operationDuration = createHistogramVec(cfg.Namespace, "odm_operation_duration_seconds",
		"Duration of storage operations in seconds", operationLabels, prometheus.DefBuckets)
	m.documentsTotal = createCounterVec(cfg.Namespace, "odm_documents_total",
		"Documents returned or affected by storage operations", operationLabels[:4])

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.documentsTotal,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
