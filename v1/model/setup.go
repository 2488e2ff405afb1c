package model

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry holds the models of an application and the Connector their
// collections are resolved through. It is safe for concurrent use.
type Registry struct {
	connector Connector
	logger    Logger
	clock     func() time.Time

	mu     sync.RWMutex
	models map[string]*Meta
}

// NewRegistry creates an empty registry. connector may be nil for models
// that are only used to map names; every storage operation then fails
// with a connection error.
//
// Example:
//
//	conns := mongo.NewConnections(log)
//	if err := conns.Open(ctx, mongo.Config{URI: "mongodb://localhost:27017", Database: "app"}); err != nil {
//		return err
//	}
//
//	registry := model.NewRegistry(conns, model.WithLogger(log))
//	users := registry.MustDefine("User", model.Options{
//		RequiredFields: model.StringList{"email"},
//	})
func NewRegistry(connector Connector, opts ...RegistryOption) *Registry {
	r := &Registry{
		connector: connector,
		logger:    nopLogger{},
		clock:     time.Now,
		models:    make(map[string]*Meta),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define builds and registers the model name. The parent named by
// opts.Extends must already be defined.
func (r *Registry) Define(name string, opts Options) (*Meta, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: model name must not be empty", ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateModel, name)
	}

	var parent *Meta
	if opts.Extends != "" {
		p, ok := r.models[opts.Extends]
		if !ok {
			return nil, fmt.Errorf("%w: model %q extends undefined model %q", ErrConfiguration, name, opts.Extends)
		}
		parent = p
	}

	m, err := newMeta(r, name, parent, opts)
	if err != nil {
		return nil, err
	}
	r.models[name] = m

	r.logger.Debug("model defined", nil, map[string]interface{}{
		"model":      name,
		"collection": m.collection,
		"database":   m.database,
	})
	return m, nil
}

// MustDefine is Define that panics on error, for package-level model
// declarations.
func (r *Registry) MustDefine(name string, opts Options) *Meta {
	m, err := r.Define(name, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the model registered as name.
func (r *Registry) Lookup(name string) (*Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns the names of all registered models in sorted order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.models))
}

// Load defines every model in a YAML document mapping model names to
// Options. Parents are defined before the models extending them,
// regardless of their order in the document. Models defined before an
// error stay registered.
func (r *Registry) Load(in io.Reader) ([]*Meta, error) {
	var decls map[string]Options
	if err := yaml.NewDecoder(in).Decode(&decls); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	pending := slices.Sorted(maps.Keys(decls))
	defined := make([]*Meta, 0, len(pending))
	for len(pending) > 0 {
		var next []string
		for _, name := range pending {
			opts := decls[name]
			if opts.Extends != "" && !r.has(opts.Extends) {
				next = append(next, name)
				continue
			}
			m, err := r.Define(name, opts)
			if err != nil {
				return defined, err
			}
			defined = append(defined, m)
		}

		if len(next) == len(pending) {
			return defined, fmt.Errorf("%w: models %v extend undefined models or each other", ErrConfiguration, next)
		}
		pending = next
	}
	return defined, nil
}

func (r *Registry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[name]
	return ok
}

func (r *Registry) now() time.Time {
	return r.clock().UTC().Truncate(time.Millisecond)
}
