// Package tracer provides distributed tracing on top of OpenTelemetry.
//
// A Tracer owns an SDK TracerProvider, optionally exporting spans over OTLP
// HTTP, and offers helpers to start spans, record errors, set attributes and
// carry trace context across process boundaries:
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "my-service"}, log)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(ctx)
//
//	ctx, span := t.StartSpan(ctx, "process-request")
//	defer span.End()
//	t.SetAttributes(span, map[string]interface{}{"request.id": "abc"})
//
// The mongo package accepts a *Tracer and opens a span named
// "mongo.<operation>" for every collection call.
package tracer
