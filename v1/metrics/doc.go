// Package metrics exposes ODM storage operations as Prometheus metrics.
//
// *Metrics implements observability.Observer. Handed to the mongo package
// it records, per component, operation, database, collection and outcome:
//
//   - odm_operations_total: a counter of operations
//   - odm_operation_duration_seconds: a latency histogram
//   - odm_documents_total: documents returned or affected
//
// Every metric carries a constant "service" label and is prefixed with
// Config.Namespace when set.
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "search-store"})
//	go m.Server.ListenAndServe()
//
//	conns := mongo.NewConnections(log).WithObserver(m)
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,  // Optional: provides logger
//		metrics.FXModule, // Provides *Metrics, MetricsCollector and observability.Observer
//		mongo.FXModule,
//		fx.Provide(func() metrics.Config {
//			return metrics.Config{Address: ":9090", ServiceName: "search-store"}
//		}),
//	)
//
// # Configuration
//
//	METRICS_ADDRESS=:9090                      # Port and address for /metrics endpoint
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true     # Enable runtime and process metrics
//	METRICS_NAMESPACE=pharia_data              # Optional prefix for all metric names
//	METRICS_SERVICE_NAME=search-store          # Adds service label to all metrics
//
// # Thread Safety
//
// ObserveOperation is safe for concurrent use.
package metrics
