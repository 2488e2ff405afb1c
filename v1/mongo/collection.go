package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/Aleph-Alpha/odm/v1/model"
	"github.com/Aleph-Alpha/odm/v1/query"
)

// Collection adapts a driver collection to model.Collection. Documents
// returned from it are normalized to plain maps and slices.
type Collection struct {
	conns    *Connections
	database string
	coll     *mongo.Collection
}

var _ model.Collection = (*Collection)(nil)

// Name returns the collection name.
func (c *Collection) Name() string { return c.coll.Name() }

// withW returns the collection with write concern w. 0 means
// unacknowledged.
func (c *Collection) withW(w int) (*mongo.Collection, error) {
	wc := &writeconcern.WriteConcern{W: w}
	if w == 0 {
		wc = writeconcern.Unacknowledged()
	}
	return c.coll.Clone(options.Collection().SetWriteConcern(wc))
}

// acknowledged drops the error the driver reports for unacknowledged
// writes, which are successful by definition.
func acknowledged(err error) error {
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return nil
	}
	return err
}

// Find returns a lazy cursor over the documents matching filter.
func (c *Collection) Find(filter map[string]any) query.Cursor {
	return &cursor{coll: c, filter: filter}
}

// FindOne returns the first document matching filter, restricted to
// projection when it is not nil, or nil when nothing matches.
func (c *Collection) FindOne(ctx context.Context, filter, projection map[string]any) (doc map[string]any, err error) {
	ctx, op := c.begin(ctx, "find_one")
	defer func() {
		var n int64
		if doc != nil {
			n = 1
		}
		op.end(n, err)
	}()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var raw bson.M
	err = c.coll.FindOne(ctx, filter, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return normalizeDocument(raw), nil
}

// Insert stores doc and returns its _id, generating an object id when doc
// has none.
func (c *Collection) Insert(ctx context.Context, doc map[string]any, w int) (id any, err error) {
	ctx, op := c.begin(ctx, "insert")
	defer func() { op.end(1, err) }()

	coll, err := c.withW(w)
	if err != nil {
		return nil, err
	}

	id, ok := doc[model.IDField]
	if !ok || id == nil {
		id = primitive.NewObjectID()
		withID := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			withID[k] = v
		}
		withID[model.IDField] = id
		doc = withID
	}

	if _, err := coll.InsertOne(ctx, doc); acknowledged(err) != nil {
		return nil, err
	}
	return id, nil
}

// Update applies doc to the first document matching spec. Modifier
// documents go through UpdateOne, anything else replaces the document.
func (c *Collection) Update(ctx context.Context, spec, doc map[string]any, upsert bool, w int) (res model.UpdateResult, err error) {
	ctx, op := c.begin(ctx, "update")
	defer func() { op.end(res.Modified, err) }()

	coll, err := c.withW(w)
	if err != nil {
		return model.UpdateResult{}, err
	}

	var result *mongo.UpdateResult
	if isModifierDocument(doc) {
		result, err = coll.UpdateOne(ctx, spec, doc, options.Update().SetUpsert(upsert))
	} else {
		result, err = coll.ReplaceOne(ctx, spec, doc, options.Replace().SetUpsert(upsert))
	}
	if err = acknowledged(err); err != nil || result == nil {
		return model.UpdateResult{}, err
	}
	return model.UpdateResult{
		Matched:    result.MatchedCount,
		Modified:   result.ModifiedCount,
		UpsertedID: result.UpsertedID,
	}, nil
}

func isModifierDocument(doc map[string]any) bool {
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// Remove deletes every document matching spec and returns how many were
// removed. Unacknowledged removes report 0.
func (c *Collection) Remove(ctx context.Context, spec map[string]any, w int) (n int64, err error) {
	ctx, op := c.begin(ctx, "remove")
	defer func() { op.end(n, err) }()

	coll, err := c.withW(w)
	if err != nil {
		return 0, err
	}
	result, err := coll.DeleteMany(ctx, spec)
	if err = acknowledged(err); err != nil || result == nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Distinct returns the distinct values of field among the documents
// matching filter.
func (c *Collection) Distinct(ctx context.Context, field string, filter map[string]any) (values []any, err error) {
	ctx, op := c.begin(ctx, "distinct")
	defer func() { op.end(int64(len(values)), err) }()

	if filter == nil {
		filter = map[string]any{}
	}
	raw, err := c.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	values = make([]any, len(raw))
	for i, v := range raw {
		values[i] = normalize(v)
	}
	return values, nil
}

// Aggregate runs stages and returns every resulting document.
func (c *Collection) Aggregate(ctx context.Context, stages []bson.D) (docs []map[string]any, err error) {
	ctx, op := c.begin(ctx, "aggregate")
	defer func() { op.end(int64(len(docs)), err) }()

	cur, err := c.coll.Aggregate(ctx, mongo.Pipeline(stages))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs = make([]map[string]any, len(raw))
	for i, d := range raw {
		docs[i] = normalizeDocument(d)
	}
	return docs, nil
}
