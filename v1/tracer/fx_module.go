package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/logger"
)

// FXModule provides the *Tracer and shuts it down when the application
// stops, flushing pending spans.
//
// Usage:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config {
//	        return tracer.Config{ServiceName: "user-service", AppEnv: "production"}
//	    }),
//	)
//
// When mongo.FXModule is in the same application every collection
// operation gets its own span.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies needed to create a Tracer
type TracerParams struct {
	fx.In

	Config Config
	Logger logger.Logger `optional:"true"` // Optional logger from odm/v1/logger
}

// NewClientWithDI creates a Tracer from injected dependencies.
func NewClientWithDI(params TracerParams) (*Tracer, error) {
	var log Logger
	if params.Logger != nil {
		log = params.Logger
	}
	return NewClient(params.Config, log)
}

// RegisterTracerLifecycle shuts the tracer down on application stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			t.logger.Info("shutting down tracer", nil)
			return t.Shutdown(ctx)
		},
	})
}
