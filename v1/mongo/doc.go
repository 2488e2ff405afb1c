// Package mongo connects the model package to MongoDB.
//
// Connections is an explicit, caller-owned registry of databases keyed by
// alias. It implements model.Connector, so a model.Registry resolves its
// collections through it:
//
//	conns := mongo.NewConnections(log)
//	if _, err := conns.Open(ctx, mongo.Config{URI: "mongodb://localhost:27017/app"}); err != nil {
//		return err
//	}
//	defer conns.Close(ctx)
//
//	registry := model.NewRegistry(conns)
//
// The first database opened is also available as "default", which is the
// alias models use unless their options name another one. Databases on
// the same hosts share a single client.
//
// # Collections
//
// Collection implements model.Collection on top of the official driver:
//
//   - write concerns are applied per call, w=0 being unacknowledged
//   - update documents holding modifiers go through UpdateOne, others
//     replace the stored document
//   - cursors run their query on the first Next and count on the server
//   - decoded documents are normalized to map[string]any, []any and UTC
//     time.Time values
//
// Driver errors are returned unchanged; IsDuplicateKey and IsTimeout
// classify them.
//
// # Observability
//
// WithObserver reports every collection operation to an
// observability.Observer, such as *metrics.Metrics, and WithTracer opens a
// "mongo.<operation>" span around it.
package mongo
