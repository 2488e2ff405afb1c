package model

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Aleph-Alpha/odm/v1/aggregation"
	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/query"
)

// Find returns the instances matching q. The model's default sort applies
// unless WithSort is given. Nothing is read from storage until the set is.
//
//	adults, err := users.Find(ctx, query.New(map[string]any{"age__gte": 18}), model.WithLimit(10))
//	for user, err := range adults.Iter(ctx) {
//	    ...
//	}
func (m *Meta) Find(ctx context.Context, q query.Q, opts ...FindOption) (*query.Set[*Instance], error) {
	cursor, _, err := m.cursor(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	return query.NewSet(cursor, m.fields, m.load), nil
}

// FindDocuments is Find returning the raw stored documents.
func (m *Meta) FindDocuments(ctx context.Context, q query.Q, opts ...FindOption) (*query.Set[map[string]any], error) {
	cursor, _, err := m.cursor(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	return query.Documents(cursor, m.fields), nil
}

func (m *Meta) load(doc map[string]any) (*Instance, error) {
	return m.wrap(doc), nil
}

func (m *Meta) cursor(ctx context.Context, q query.Q, opts ...FindOption) (query.Cursor, map[string]any, error) {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}

	spec, err := m.resolveQuery(q.Filter())
	if err != nil {
		return nil, nil, err
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, nil, err
	}

	cursor := coll.Find(spec)
	switch {
	case o.sort != nil:
		cursor = cursor.Sort(query.ParseSort(m.fields, o.sort...)...)
	case len(m.sort) > 0:
		cursor = cursor.Sort(m.sort...)
	}
	if o.skip != nil {
		cursor = cursor.Skip(*o.skip)
	}
	if o.limit != nil {
		cursor = cursor.Limit(*o.limit)
	}
	return cursor, spec, nil
}

// Get returns the only instance matching q. It fails with a
// *NoDocumentFoundError when nothing matches and with a
// *MultipleDocumentsFoundError when more than one document does.
func (m *Meta) Get(ctx context.Context, q query.Q) (*Instance, error) {
	cursor, spec, err := m.cursor(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	n, err := cursor.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	switch {
	case n == 0:
		return nil, &NoDocumentFoundError{Model: m.name, Query: spec}
	case n > 1:
		return nil, &MultipleDocumentsFoundError{Model: m.name, Count: n, Query: spec}
	}

	doc, err := cursor.Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil, &NoDocumentFoundError{Model: m.name, Query: spec}
	}
	if err != nil {
		return nil, err
	}
	return m.wrap(doc), nil
}

// GetOrCreate returns the only instance matching q, or creates one from
// the plain field conditions of q merged with extra. created reports which
// happened. Errors other than a missing document are returned as is.
func (m *Meta) GetOrCreate(ctx context.Context, q query.Q, extra map[string]any) (inst *Instance, created bool, err error) {
	inst, err = m.Get(ctx, q)
	if err == nil {
		return inst, false, nil
	}
	if !IsNoDocumentFound(err) {
		return nil, false, err
	}

	fields := make(map[string]any, len(extra))
	for k, v := range q.Filter() {
		if isCondition(k) {
			continue
		}
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	inst, err = m.Create(ctx, fields)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// isCondition reports whether a filter key is a logical connective or
// carries an operator suffix, which cannot become a stored field.
func isCondition(key string) bool {
	if strings.HasPrefix(key, "$") {
		return true
	}
	i := strings.LastIndex(key, "__")
	return i > 0 && fieldmap.IsOperator(key[i+2:])
}

// Create is New followed by Save.
func (m *Meta) Create(ctx context.Context, fields map[string]any) (*Instance, error) {
	inst, err := m.New(fields)
	if err != nil {
		return nil, err
	}
	if err := inst.Save(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// Distinct returns the distinct values of field among the documents
// matching q.
func (m *Meta) Distinct(ctx context.Context, field string, q query.Q) ([]any, error) {
	spec, err := m.resolveQuery(q.Filter())
	if err != nil {
		return nil, err
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Distinct(ctx, m.fields.Name(field), spec)
}

// Aggregate runs p against the model's collection.
func (m *Meta) Aggregate(ctx context.Context, p *aggregation.Pipeline) ([]map[string]any, error) {
	stages := p.Stages(m.fields)
	if m.coercesID() {
		for i, stage := range stages {
			if len(stage) != 1 || stage[0].Key != "$match" {
				continue
			}
			filter, ok := stage[0].Value.(map[string]any)
			if !ok {
				continue
			}
			coerced, err := coerceIDs(filter)
			if err != nil {
				return nil, err
			}
			stages[i] = bson.D{{Key: "$match", Value: coerced}}
		}
	}

	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Aggregate(ctx, stages)
}
