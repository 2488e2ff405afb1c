package mongo

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Tracer creates spans around storage operations. *tracer.Tracer from
// odm/v1/tracer implements it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
}
