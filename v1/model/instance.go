package model

import (
	"fmt"
	"reflect"

	"github.com/Aleph-Alpha/odm/v1/nested"
)

// Instance is one document of a model.
//
// Fields are read and written with Get, Set and Unset using public names;
// "__" or "." address embedded documents. Names reserved by the model
// (the instance's method names, "_document" and Options.Attributes) are
// kept on the instance and never reach storage.
//
// An Instance is not safe for concurrent use.
type Instance struct {
	meta    *Meta
	doc     map[string]any
	core    map[string]any
	deleted bool
}

func (m *Meta) wrap(doc map[string]any) *Instance {
	if doc == nil {
		doc = map[string]any{}
	}
	return &Instance{meta: m, doc: doc, core: map[string]any{}}
}

// New returns an unsaved instance holding fields.
//
//	user, err := users.New(map[string]any{"name": "Ada", "address__city": "London"})
func (m *Meta) New(fields map[string]any) (*Instance, error) {
	inst := m.wrap(nil)
	resolved := m.fields.Resolve(fields)
	for _, k := range sortedKeys(resolved) {
		if err := inst.assign(k, resolved[k]); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// assign stores a resolved top-level name.
func (i *Instance) assign(name string, value any) error {
	switch {
	case name == "_meta":
		return ErrMetaReadOnly
	case name == "_document":
		doc, ok := nested.AsMap(value)
		if !ok {
			return &FieldTypeError{Field: name, Want: "map[string]any", Value: value}
		}
		i.doc = nested.Copy(doc)
	case i.meta.IsReserved(name):
		i.core[name] = value
	default:
		i.doc[name] = value
	}
	return nil
}

// Meta returns the model of the instance.
func (i *Instance) Meta() *Meta { return i.meta }

// Get returns the value of name.
func (i *Instance) Get(name string) (any, error) {
	if i.meta.IsReserved(name) {
		if name == "_document" {
			return i.Document(), nil
		}
		if v, ok := i.core[name]; ok {
			return v, nil
		}
	}

	path := i.meta.fields.Name(name)
	if v, err := nested.Get(i.doc, path); err == nil {
		return v, nil
	}
	if v, ok := i.doc[name]; ok {
		return v, nil
	}
	return nil, &AttributeError{Model: i.meta.name, Name: path}
}

// Set stores value under name. A mapping value is deep-merged into the
// mapping already stored there, so sibling keys survive. Setting "_meta"
// is refused with ErrMetaReadOnly.
func (i *Instance) Set(name string, value any) error {
	if name == "_meta" || name == "_document" || i.meta.IsReserved(name) {
		return i.assign(name, value)
	}
	path := i.meta.fields.Name(name)
	if updates, ok := nested.AsMap(value); ok {
		if current, err := nested.Get(i.doc, path); err == nil {
			if existing, ok := nested.AsMap(current); ok {
				merged, err := nested.Merge(nested.Copy(existing), updates)
				if err != nil {
					return err
				}
				value = merged
			}
		}
	}
	nested.Set(i.doc, path, value)
	return nil
}

// Unset removes name from the document, or from the instance if it is a
// reserved name that was set.
func (i *Instance) Unset(name string) error {
	path := i.meta.fields.Name(name)
	if nested.Has(i.doc, path) {
		doc, err := nested.Remove(i.doc, path)
		if err != nil {
			return err
		}
		i.doc = doc
		delete(i.core, name)
		return nil
	}
	if _, ok := i.core[name]; ok {
		delete(i.core, name)
		return nil
	}
	return &AttributeError{Model: i.meta.name, Name: path}
}

// Has reports whether the document holds name.
func (i *Instance) Has(name string) bool {
	return nested.Has(i.doc, i.meta.fields.Name(name))
}

// Core returns a reserved name set on the instance.
func (i *Instance) Core(name string) (any, bool) {
	v, ok := i.core[name]
	return v, ok
}

// ID returns the primary key and whether it is set.
func (i *Instance) ID() (any, bool) {
	v, ok := i.doc[IDField]
	return v, ok && v != nil
}

// Document returns a copy of the document with storage names.
func (i *Instance) Document() map[string]any {
	return nested.Copy(i.doc)
}

// IsDeleted reports whether Delete has been called.
func (i *Instance) IsDeleted() bool { return i.deleted }

// Equal reports whether i and other are the same stored document: related
// models sharing database and collection, with equal primary keys. An
// instance without a primary key equals nothing.
func (i *Instance) Equal(other *Instance) bool {
	if i == nil || other == nil {
		return false
	}
	if !i.meta.Extends(other.meta) && !other.meta.Extends(i.meta) {
		return false
	}
	if i.meta.database != other.meta.database || i.meta.collection != other.meta.collection {
		return false
	}

	id, ok := i.ID()
	if !ok {
		return false
	}
	otherID, ok := other.ID()
	return ok && reflect.DeepEqual(id, otherID)
}

func (i *Instance) String() string {
	if id, ok := i.ID(); ok {
		return fmt.Sprintf("<%s: %v>", i.meta.name, id)
	}
	return fmt.Sprintf("<%s: unsaved>", i.meta.name)
}
