package model

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/query"
)

// Meta is the resolved configuration of one model. It is built once by
// Registry.Define and never changes afterwards, apart from the lazily
// resolved collection handle.
type Meta struct {
	name     string
	parent   *Meta
	registry *Registry

	// options holds the declared options merged along the Extends chain.
	options Options

	collection    string
	database      string
	fields        fieldmap.Map
	typed         map[string]*FieldType
	required      []string
	sort          []query.SortField
	autoTimestamp bool
	w             int
	reserved      map[string]struct{}

	handle atomic.Pointer[collectionHandle]
	group  singleflight.Group
}

type collectionHandle struct {
	c Collection
}

// instanceMethods are the exported methods of *Instance with a lower-cased
// first letter. Names in this list are reserved for every model.
var instanceMethods = sync.OnceValue(func() []string {
	t := reflect.TypeFor[*Instance]()
	names := make([]string, 0, t.NumMethod())
	for i := range t.NumMethod() {
		n := t.Method(i).Name
		names = append(names, strings.ToLower(n[:1])+n[1:])
	}
	return names
})

func newMeta(r *Registry, name string, parent *Meta, declared Options) (*Meta, error) {
	opts := declared
	if parent != nil {
		opts = parent.options.overlay(declared)
	}

	m := &Meta{
		name:          name,
		parent:        parent,
		registry:      r,
		options:       opts,
		collection:    opts.Collection,
		database:      DefaultDatabase,
		autoTimestamp: true,
		w:             DefaultW,
	}
	if m.collection == "" {
		m.collection = strings.ToLower(name) + "s"
	}
	if opts.Database != "" {
		m.database = opts.Database
	}
	if opts.AutoTimestamp != nil {
		m.autoTimestamp = *opts.AutoTimestamp
	}

	m.fields = make(fieldmap.Map, len(opts.FieldMap)+1)
	for public, storage := range opts.FieldMap {
		if public == "" || storage == "" {
			return nil, fmt.Errorf("%w: field_map of %q maps %q to %q", ErrConfiguration, name, public, storage)
		}
		m.fields[public] = storage
	}
	if opts.MapID == nil || *opts.MapID {
		if _, ok := m.fields["id"]; !ok {
			m.fields["id"] = IDField
		}
	}

	// The model's own declaration wins over an inherited one, w over safe.
	w, safe := declared.W, declared.Safe
	if w == nil && safe == nil {
		w, safe = opts.W, opts.Safe
	}
	switch {
	case w != nil:
		if *w < 0 {
			return nil, fmt.Errorf("%w: w of %q must not be negative, got %d", ErrConfiguration, name, *w)
		}
		m.w = *w
	case safe != nil:
		m.w = 0
		if *safe {
			m.w = 1
		}
	}
	if declared.Safe != nil {
		r.logger.Warn("model option safe is deprecated, use w", nil, map[string]interface{}{
			"model": name,
			"w":     m.w,
		})
	}

	m.typed = make(map[string]*FieldType, len(opts.TypedFields)+1)
	for field, decl := range opts.TypedFields {
		ft, err := parseFieldType(field, decl)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		m.typed[m.fields.Name(field)] = ft
	}
	if _, ok := m.typed[IDField]; !ok {
		m.typed[IDField] = &FieldType{Type: objectIDType}
	}

	for _, field := range opts.RequiredFields {
		m.required = append(m.required, m.fields.Name(field))
	}
	m.sort = query.ParseSort(m.fields, opts.Sort...)

	m.reserved = make(map[string]struct{})
	for _, n := range instanceMethods() {
		m.reserved[n] = struct{}{}
	}
	for _, n := range append([]string{"_document", "_meta"}, opts.Attributes...) {
		m.reserved[n] = struct{}{}
	}
	return m, nil
}

// Name returns the model name.
func (m *Meta) Name() string { return m.name }

// Parent returns the model this one extends, or nil.
func (m *Meta) Parent() *Meta { return m.parent }

// CollectionName returns the name of the backing collection.
func (m *Meta) CollectionName() string { return m.collection }

// Database returns the connection alias.
func (m *Meta) Database() string { return m.database }

// Fields returns a copy of the alias table, including the id mapping.
func (m *Meta) Fields() fieldmap.Map { return maps.Clone(m.fields) }

// RequiredFields returns the storage names of the required fields.
func (m *Meta) RequiredFields() []string { return slices.Clone(m.required) }

// Sort returns the default sort.
func (m *Meta) Sort() []query.SortField { return slices.Clone(m.sort) }

// AutoTimestamp reports whether Save stamps created and modified.
func (m *Meta) AutoTimestamp() bool { return m.autoTimestamp }

// W returns the write concern as an acknowledgement count.
func (m *Meta) W() int { return m.w }

// TypedField returns the declared type of the storage field name. ok is
// false when the field is not declared; a declared field without a type
// check returns nil and true.
func (m *Meta) TypedField(name string) (ft *FieldType, ok bool) {
	ft, ok = m.typed[name]
	return ft, ok
}

// IsReserved reports whether name is stored on instances rather than in
// their documents.
func (m *Meta) IsReserved(name string) bool {
	_, ok := m.reserved[name]
	return ok
}

// Extends reports whether m is other or derives from it.
func (m *Meta) Extends(other *Meta) bool {
	for p := m; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

// Collection returns the storage handle, resolving it through the
// registry's Connector on first use. Concurrent first calls share one
// resolution.
func (m *Meta) Collection(ctx context.Context) (Collection, error) {
	if h := m.handle.Load(); h != nil {
		return h.c, nil
	}
	if m.registry == nil || m.registry.connector == nil {
		return nil, fmt.Errorf("%w: model %q", ErrNoConnector, m.name)
	}

	v, err, _ := m.group.Do(m.name, func() (any, error) {
		if h := m.handle.Load(); h != nil {
			return h.c, nil
		}
		c, err := m.registry.connector.Collection(ctx, m.database, m.collection)
		if err != nil {
			return nil, fmt.Errorf("%w: model %q: %w", ErrConnection, m.name, err)
		}
		m.handle.CompareAndSwap(nil, &collectionHandle{c: c})
		return m.handle.Load().c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Collection), nil
}

// coercesID reports whether _id values are converted to object ids.
func (m *Meta) coercesID() bool {
	ft := m.typed[IDField]
	return ft != nil && !ft.List && ft.Type == objectIDType
}

// resolveQuery translates a filter to storage names and operators.
func (m *Meta) resolveQuery(filter map[string]any) (map[string]any, error) {
	spec := m.fields.Resolve(filter, fieldmap.WithOperators(), fieldmap.Flatten())
	if !m.coercesID() {
		return spec, nil
	}
	return coerceIDs(spec)
}

func (m *Meta) String() string {
	return m.name + ".Meta"
}
