// Package logger provides the structured logger used across the ODM.
//
// It wraps Uber's zap with a small, uniform call shape: every method takes a
// message, an optional error and optional field maps. The same shape is
// declared as a local Logger interface by the packages that log (model,
// mongo, tracer), so any implementation, including *LoggerClient, can be
// injected without adapters.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: the logging contract
//   - LoggerClient struct: the zap-backed implementation
//   - NewLoggerClient constructor: returns *LoggerClient
//   - FXModule: provides both *LoggerClient and Logger
//
// # Direct Usage (Without FX)
//
//	import "github.com/Aleph-Alpha/odm/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Info,
//		ServiceName: "orders",
//	})
//
//	log.Info("model registered", nil, map[string]interface{}{
//		"model":      "User",
//		"collection": "users",
//	})
//
//	registry := model.NewRegistry(connections, model.WithLogger(log))
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: logger.Debug, ServiceName: "orders"}
//		}),
//		// ... other modules
//	)
//
// # Tracing Integration
//
// With EnableTracing set, the *WithContext methods add the trace_id and
// span_id of the active OpenTelemetry span to the entry, which correlates
// ODM logs with the spans emitted by the tracer package.
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_SERVICE_NAME=orders      # value of the "service" field
//	LOGGER_ENABLE_TRACING=true      # include trace and span IDs
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
