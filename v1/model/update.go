package model

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/nested"
)

// Update modifiers accepted in atomic update documents.
const (
	Set         = "$set"
	Unset       = "$unset"
	Inc         = "$inc"
	Rename      = "$rename"
	Push        = "$push"
	PushAll     = "$pushAll"
	AddToSet    = "$addToSet"
	Pop         = "$pop"
	Pull        = "$pull"
	PullAll     = "$pullAll"
	Bit         = "$bit"
	SetOnInsert = "$setOnInsert"
	Min         = "$min"
	Max         = "$max"
	Mul         = "$mul"
	CurrentDate = "$currentDate"
)

var modifiers = map[string]struct{}{
	Set: {}, Unset: {}, Inc: {}, Rename: {}, Push: {}, PushAll: {}, AddToSet: {}, Pop: {},
	Pull: {}, PullAll: {}, Bit: {}, SetOnInsert: {}, Min: {}, Max: {}, Mul: {}, CurrentDate: {},
}

// ErrUnknownModifier is returned for "$" keys that are not update modifiers,
// and for documents mixing modifiers with plain fields.
var ErrUnknownModifier = kindError(ErrValidation, "model: invalid update modifier")

// isAtomic reports whether doc is a modifier document. Mixing modifiers and
// plain fields is an error.
func isAtomic(doc map[string]any) (bool, error) {
	var atomic, plain bool
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			atomic = true
		} else {
			plain = true
		}
	}
	if atomic && plain {
		return false, fmt.Errorf("%w: document mixes modifiers and fields", ErrUnknownModifier)
	}
	return atomic, nil
}

// resolveUpdate translates an update document written with public names.
// Modifier documents are resolved per modifier into flattened storage
// paths. Full documents are resolved into their nested form.
func (m *Meta) resolveUpdate(doc map[string]any) (map[string]any, bool, error) {
	atomic, err := isAtomic(doc)
	if err != nil {
		return nil, false, err
	}
	if !atomic {
		return m.fields.Resolve(doc), false, nil
	}

	out := make(map[string]any, len(doc))
	for op, v := range doc {
		if _, ok := modifiers[op]; !ok {
			return nil, true, fmt.Errorf("%w: %q", ErrUnknownModifier, op)
		}
		fields, ok := nested.AsMap(v)
		if !ok {
			return nil, true, fmt.Errorf("%w: %s needs a mapping of fields, got %T", ErrUnknownModifier, op, v)
		}

		resolved := m.fields.Resolve(fields, fieldmap.Flatten())
		if op == Rename {
			for src, dst := range resolved {
				if name, ok := dst.(string); ok {
					resolved[src] = m.fields.Name(name)
				}
			}
		}
		out[op] = resolved
	}
	return out, true, nil
}

// validate runs the type and required-field checks on a resolved update.
func (m *Meta) validate(doc map[string]any, atomic bool) error {
	if !atomic {
		if err := m.checkTypes(doc); err != nil {
			return err
		}
		return m.checkRequired(doc)
	}

	if set, ok := nested.AsMap(doc[Set]); ok {
		for _, k := range sortedKeys(set) {
			if err := m.checkSetType(k, set[k]); err != nil {
				return err
			}
		}
	}

	if rename, ok := nested.AsMap(doc[Rename]); ok {
		for _, src := range sortedKeys(rename) {
			dst, _ := rename[src].(string)
			if m.typed[src] != nil || m.typed[dst] != nil {
				m.registry.logger.Warn("renaming a typed field", nil, map[string]interface{}{
					"model": m.name,
					"from":  src,
					"to":    dst,
				})
			}
		}
	}

	var removed []string
	for _, op := range []string{Unset, Rename} {
		if fields, ok := nested.AsMap(doc[op]); ok {
			removed = append(removed, sortedKeys(fields)...)
		}
	}
	var missing []string
	for _, req := range m.required {
		for _, k := range removed {
			if k == req || strings.HasPrefix(req, k+".") {
				missing = append(missing, req)
				break
			}
		}
	}
	if len(missing) > 0 {
		return &RequiredFieldsError{Model: m.name, Required: slices.Clone(m.required), Missing: missing}
	}
	return nil
}

// checkTypes checks every typed field present in a full document.
func (m *Meta) checkTypes(doc map[string]any) error {
	for _, path := range sortedKeys(m.typed) {
		ft := m.typed[path]
		if ft == nil {
			continue
		}
		v, err := nested.Get(doc, path)
		if err != nil {
			continue
		}
		if !ft.Accepts(v) {
			return &FieldTypeError{Field: path, Want: ft.String(), Value: v}
		}
	}
	return nil
}

// checkSetType checks the value of a $set at path, and the typed fields
// below path when the value is a mapping.
func (m *Meta) checkSetType(path string, v any) error {
	if ft := m.typed[path]; ft != nil && !ft.Accepts(v) {
		return &FieldTypeError{Field: path, Want: ft.String(), Value: v}
	}

	sub, ok := nested.AsMap(v)
	if !ok {
		return nil
	}
	prefix := path + "."
	for _, typed := range sortedKeys(m.typed) {
		rest, ok := strings.CutPrefix(typed, prefix)
		ft := m.typed[typed]
		if !ok || ft == nil {
			continue
		}
		if value, err := nested.Get(sub, rest); err == nil && !ft.Accepts(value) {
			return &FieldTypeError{Field: typed, Want: ft.String(), Value: value}
		}
	}
	return nil
}

func (m *Meta) checkRequired(doc map[string]any) error {
	var missing []string
	for _, req := range m.required {
		if !nested.Has(doc, req) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return &RequiredFieldsError{Model: m.name, Required: slices.Clone(m.required), Missing: missing}
	}
	return nil
}

// id returns the primary key, converted to an object id when the model
// types it so. The converted value replaces the stored one.
func (i *Instance) id() (any, error) {
	v, ok := i.ID()
	if !ok {
		return nil, nil
	}
	if !i.meta.coercesID() {
		return v, nil
	}
	id, err := GuaranteeObjectID(v)
	if err != nil {
		return nil, err
	}
	i.doc[IDField] = id
	return id, nil
}

// requireID is id for operations that need a persisted document.
func (i *Instance) requireID() (any, error) {
	if i.deleted {
		return nil, ErrDeleted
	}
	id, err := i.id()
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w: the '%s' object cannot be updated because its 'id' attribute has not been set",
			ErrNoPrimaryKey, i.meta.name)
	}
	return id, nil
}

// Save writes the whole document, inserting it when it has no primary key
// yet and replacing the stored one otherwise.
//
// With auto timestamping, "modified" is set to the current time on every
// save, and "created" on the first save unless already present.
func (i *Instance) Save(ctx context.Context) error {
	if i.deleted {
		return ErrDeleted
	}
	id, err := i.id()
	if err != nil {
		return err
	}

	doc := nested.Copy(i.doc)
	stamps := i.timestamps(doc, id == nil)
	for path, v := range stamps {
		nested.Set(doc, path, v)
	}
	delete(doc, IDField)
	if err := i.meta.validate(doc, false); err != nil {
		return err
	}

	coll, err := i.meta.Collection(ctx)
	if err != nil {
		return err
	}

	if id == nil {
		newID, err := coll.Insert(ctx, doc, i.meta.w)
		if err != nil {
			return err
		}
		i.doc[IDField] = newID
	} else if _, err := coll.Update(ctx, map[string]any{IDField: id}, doc, true, i.meta.w); err != nil {
		return err
	}

	for path, v := range stamps {
		nested.Set(i.doc, path, v)
	}
	return nil
}

// timestamps returns the storage paths Save stamps with the current time.
// The instance is only stamped once the write went through.
func (i *Instance) timestamps(doc map[string]any, inserting bool) map[string]any {
	if !i.meta.autoTimestamp {
		return nil
	}
	now := i.meta.registry.now()
	stamps := map[string]any{i.meta.fields.Name(ModifiedField): now}
	if created := i.meta.fields.Name(CreatedField); inserting && !nested.Has(doc, created) {
		stamps[created] = now
	}
	return stamps
}

// Update sets fields atomically and refreshes them from storage.
//
//	err := user.Update(ctx, map[string]any{"name": "Ada", "address__city": "London"})
func (i *Instance) Update(ctx context.Context, fields map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	return i.RawUpdate(ctx, map[string]any{Set: fields})
}

// Increment adds the given amounts to fields atomically and loads the
// results from storage.
func (i *Instance) Increment(ctx context.Context, fields map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	return i.RawUpdate(ctx, map[string]any{Inc: fields})
}

// RemoveFields unsets names in storage and in the document.
func (i *Instance) RemoveFields(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return ErrNoFields
	}
	unset := make(map[string]any, len(names))
	for _, name := range names {
		unset[name] = 1
	}
	return i.RawUpdate(ctx, map[string]any{Unset: unset})
}

// SaveFields writes the current values of names with $set. Every name must
// be present in the document.
func (i *Instance) SaveFields(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return ErrNoFields
	}

	set := make(map[string]any, len(names))
	for _, name := range names {
		path := i.meta.fields.Name(name)
		v, err := nested.Get(i.doc, path)
		if err != nil {
			return fmt.Errorf("%w: the '%s' object does not have all of the specified fields: %w",
				ErrAttributeNotFound, i.meta.name, err)
		}
		set[path] = v
	}

	id, err := i.requireID()
	if err != nil {
		return err
	}
	return i.apply(ctx, id, map[string]any{Set: set})
}

// RawUpdate sends doc as given, either a modifier document or a full
// replacement, bypassing the implicit $set of Update. "modified" is not
// touched.
//
// Without a primary key RawUpdate fails unless WithUpsert is given; the
// upserted document's id is then adopted and the whole document is loaded
// from storage.
func (i *Instance) RawUpdate(ctx context.Context, doc map[string]any, opts ...RawOption) error {
	var o rawOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.upsert {
		id, err := i.requireID()
		if err != nil {
			return err
		}
		resolved, atomic, err := i.meta.resolveUpdate(doc)
		if err != nil {
			return err
		}
		if !atomic {
			return i.replace(ctx, id, resolved)
		}
		return i.apply(ctx, id, resolved)
	}

	if i.deleted {
		return ErrDeleted
	}
	id, err := i.id()
	if err != nil {
		return err
	}
	if id == nil {
		id = primitive.NewObjectID()
	}

	resolved, atomic, err := i.meta.resolveUpdate(doc)
	if err != nil {
		return err
	}
	if err := i.meta.validate(resolved, atomic); err != nil {
		return err
	}

	coll, err := i.meta.Collection(ctx)
	if err != nil {
		return err
	}
	res, err := coll.Update(ctx, map[string]any{IDField: id}, resolved, true, i.meta.w)
	if err != nil {
		return err
	}
	if res.UpsertedID != nil {
		id = res.UpsertedID
	}

	fresh, err := coll.FindOne(ctx, map[string]any{IDField: id}, nil)
	if err != nil {
		return err
	}
	if fresh == nil {
		fresh = map[string]any{}
	}
	fresh[IDField] = id
	i.doc = fresh
	return nil
}

// replace stores a resolved full document under id.
func (i *Instance) replace(ctx context.Context, id any, doc map[string]any) error {
	if err := i.meta.validate(doc, false); err != nil {
		return err
	}
	coll, err := i.meta.Collection(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.Update(ctx, map[string]any{IDField: id}, doc, false, i.meta.w); err != nil {
		return err
	}

	i.doc = nested.Copy(doc)
	i.doc[IDField] = id
	return nil
}

// apply sends a resolved modifier document and reconciles the local
// document with the result.
func (i *Instance) apply(ctx context.Context, id any, update map[string]any) error {
	if err := i.meta.validate(update, true); err != nil {
		return err
	}
	coll, err := i.meta.Collection(ctx)
	if err != nil {
		return err
	}
	spec := map[string]any{IDField: id}
	if _, err := coll.Update(ctx, spec, update, false, i.meta.w); err != nil {
		return err
	}
	return i.reconcile(ctx, coll, spec, update)
}

// reconcile brings the local document in line with an applied modifier
// document. Unset fields are removed locally; everything else is fetched
// back, restricted to the touched fields, and merged in.
func (i *Instance) reconcile(ctx context.Context, coll Collection, spec, update map[string]any) error {
	var fetch []string
	for _, op := range sortedKeys(update) {
		fields, _ := nested.AsMap(update[op])
		for _, k := range sortedKeys(fields) {
			switch op {
			case Unset:
				i.removeLocal(k)
			case Rename:
				i.removeLocal(k)
				if dst, ok := fields[k].(string); ok {
					fetch = append(fetch, dst)
				}
			default:
				fetch = append(fetch, k)
			}
		}
	}
	if len(fetch) == 0 {
		return nil
	}

	projection := make(map[string]any, len(fetch))
	for _, k := range fetch {
		projection[k] = 1
	}
	fresh, err := coll.FindOne(ctx, spec, projection)
	if err != nil {
		return err
	}
	if fresh == nil {
		return nil
	}

	merged, err := nested.Merge(i.doc, fresh)
	if err != nil {
		return err
	}
	i.doc = merged
	return nil
}

func (i *Instance) removeLocal(path string) {
	if doc, err := nested.Remove(i.doc, path); err == nil {
		i.doc = doc
	}
}

// Delete removes the document from storage and clears the instance. The
// instance cannot be written again afterwards.
func (i *Instance) Delete(ctx context.Context) error {
	id, err := i.requireID()
	if err != nil {
		return err
	}
	coll, err := i.meta.Collection(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.Remove(ctx, map[string]any{IDField: id}, i.meta.w); err != nil {
		return err
	}

	i.doc = map[string]any{}
	i.deleted = true
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
