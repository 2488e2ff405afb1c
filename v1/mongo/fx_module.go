package mongo

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/logger"
	"github.com/Aleph-Alpha/odm/v1/model"
	"github.com/Aleph-Alpha/odm/v1/observability"
	"github.com/Aleph-Alpha/odm/v1/tracer"
)

// FXModule is an fx.Module that provides *Connections, also as a
// model.Connector, opens the configured database on start and disconnects
// on stop.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,  // Optional: provides logger
//	    metrics.FXModule, // Optional: provides the operation observer
//	    tracer.FXModule,  // Optional: provides spans per operation
//	    mongo.FXModule,
//	    model.FXModule,
//	    fx.Provide(func() mongo.Config {
//	        return mongo.Config{URI: "mongodb://localhost:27017/app"}
//	    }),
//	)
var FXModule = fx.Module("mongo",
	fx.Provide(
		NewConnectionsWithDI,
		func(c *Connections) model.Connector { return c },
	),
	fx.Invoke(RegisterConnectionsLifecycle),
)

// ConnectionsParams groups the dependencies needed to create Connections
type ConnectionsParams struct {
	fx.In

	Logger   logger.Logger          `optional:"true"` // Optional logger from odm/v1/logger
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewConnectionsWithDI creates Connections wired with the optional logger,
// observer and tracer found in the container.
func NewConnectionsWithDI(params ConnectionsParams) *Connections {
	var log Logger
	if params.Logger != nil {
		log = params.Logger
	}
	c := NewConnections(log)
	if params.Observer != nil {
		c.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		c.WithTracer(params.Tracer)
	}
	return c
}

// ConnectionsLifecycleParams groups the dependencies needed for lifecycle
// management
type ConnectionsLifecycleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Connections *Connections
	Config      Config
}

// RegisterConnectionsLifecycle opens the configured database and pings it
// on start, and closes every connection on stop.
func RegisterConnectionsLifecycle(params ConnectionsLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := params.Connections.Open(ctx, params.Config); err != nil {
				return err
			}
			return params.Connections.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return params.Connections.Close(ctx)
		},
	})
}
