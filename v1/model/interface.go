package model

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Aleph-Alpha/odm/v1/query"
)

// UpdateResult is the outcome of Collection.Update.
type UpdateResult struct {
	Matched  int64
	Modified int64

	// UpsertedID is the _id of the document inserted by an upsert, or nil.
	UpsertedID any
}

// Collection is the storage handle a model reads and writes through.
//
// Documents are passed with storage names. w is the number of
// acknowledgements to wait for; 0 means fire and forget. Storage errors are
// returned unchanged.
//
//go:generate mockgen -source=interface.go -destination=mock_collection.go -package=model
type Collection interface {
	// Find returns a lazy cursor; nothing is sent to storage until it is
	// read.
	Find(filter map[string]any) query.Cursor

	// FindOne returns the first match restricted to projection, or nil
	// when nothing matches.
	FindOne(ctx context.Context, filter, projection map[string]any) (map[string]any, error)

	// Insert stores doc and returns its _id.
	Insert(ctx context.Context, doc map[string]any, w int) (any, error)

	// Update applies doc to the first document matching spec. doc is
	// either a modifier document ($set, $inc, ...) or a full replacement.
	Update(ctx context.Context, spec, doc map[string]any, upsert bool, w int) (UpdateResult, error)

	// Remove deletes the documents matching spec and returns how many were
	// deleted.
	Remove(ctx context.Context, spec map[string]any, w int) (int64, error)

	Distinct(ctx context.Context, field string, filter map[string]any) ([]any, error)

	Aggregate(ctx context.Context, pipeline []bson.D) ([]map[string]any, error)
}

// Connector resolves the collection of a model from its database alias.
type Connector interface {
	Collection(ctx context.Context, database, name string) (Collection, error)
}
