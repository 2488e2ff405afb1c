package model

import (
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/logger"
)

// FXModule is an fx.Module that provides the model *Registry.
//
// The registry resolves collections through the model.Connector in the
// container, which mongo.FXModule provides. When a Config with a
// DefinitionsPath is available, the models in that file are defined
// before the registry is handed out.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule, // Optional: provides logger
//	    mongo.FXModule,
//	    model.FXModule,
//	    fx.Invoke(func(r *model.Registry) {
//	        r.MustDefine("User", model.Options{Collection: "users"})
//	    }),
//	)
var FXModule = fx.Module("model",
	fx.Provide(
		NewRegistryWithDI,
	),
)

// RegistryParams groups the dependencies needed to create a Registry
type RegistryParams struct {
	fx.In

	Connector Connector
	Config    Config        `optional:"true"`
	Logger    logger.Logger `optional:"true"` // Optional logger from odm/v1/logger
}

// NewRegistryWithDI creates a Registry from injected dependencies and
// loads the model definitions named by the Config, if any.
func NewRegistryWithDI(params RegistryParams) (*Registry, error) {
	var opts []RegistryOption
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	r := NewRegistry(params.Connector, opts...)

	if params.Config.DefinitionsPath == "" {
		return r, nil
	}
	f, err := os.Open(params.Config.DefinitionsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer f.Close()

	if _, err := r.Load(f); err != nil {
		return nil, err
	}
	return r, nil
}
