package mongo

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: the database name
//   - subResource: the collection name
func (c *Connections) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "mongo",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}

// operation is one traced and observed collection call.
type operation struct {
	coll  *Collection
	name  string
	start time.Time
	span  trace.Span
}

// begin starts timing name and opens a span when a tracer is configured.
func (c *Collection) begin(ctx context.Context, name string) (context.Context, *operation) {
	op := &operation{coll: c, name: name, start: time.Now()}
	if t := c.conns.tracer; t != nil {
		ctx, op.span = t.StartSpan(ctx, "mongo."+name)
		t.SetAttributes(op.span, map[string]interface{}{
			"db.system":     "mongodb",
			"db.name":       c.database,
			"db.collection": c.coll.Name(),
			"db.operation":  name,
		})
	}
	return ctx, op
}

// end reports the outcome. size is the number of documents affected or
// returned.
func (op *operation) end(size int64, err error) {
	if op.span != nil {
		if err != nil {
			op.coll.conns.tracer.RecordErrorOnSpan(op.span, err)
		}
		op.span.End()
	}
	op.coll.conns.observeOperation(op.name, op.coll.database, op.coll.coll.Name(), time.Since(op.start), err, size, nil)
}
