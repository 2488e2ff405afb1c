package mongo

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aleph-Alpha/odm/v1/query"
)

// cursor runs its find on the first call to Next. Sort, Limit and Skip
// have no effect afterwards.
type cursor struct {
	coll   *Collection
	filter map[string]any
	sort   []query.SortField
	limit  int64
	skip   int64

	cur *mongo.Cursor
	op  *operation
	n   int64
}

var _ query.Cursor = (*cursor)(nil)

func (c *cursor) Sort(fields ...query.SortField) query.Cursor {
	c.sort = fields
	return c
}

func (c *cursor) Limit(n int64) query.Cursor {
	c.limit = n
	return c
}

func (c *cursor) Skip(n int64) query.Cursor {
	c.skip = n
	return c
}

func (c *cursor) Clone() query.Cursor {
	return &cursor{
		coll:   c.coll,
		filter: c.filter,
		sort:   append([]query.SortField(nil), c.sort...),
		limit:  c.limit,
		skip:   c.skip,
	}
}

func (c *cursor) query() map[string]any {
	if c.filter == nil {
		return map[string]any{}
	}
	return c.filter
}

// Count counts the matching documents on the server.
func (c *cursor) Count(ctx context.Context, withLimitAndSkip bool) (n int64, err error) {
	ctx, op := c.coll.begin(ctx, "count")
	defer func() { op.end(n, err) }()

	opts := options.Count()
	if withLimitAndSkip {
		if c.limit > 0 {
			opts.SetLimit(c.limit)
		}
		if c.skip > 0 {
			opts.SetSkip(c.skip)
		}
	}
	return c.coll.coll.CountDocuments(ctx, c.query(), opts)
}

func (c *cursor) execute(ctx context.Context) error {
	opts := options.Find()
	if len(c.sort) > 0 {
		sort := make(bson.D, 0, len(c.sort))
		for _, f := range c.sort {
			sort = append(sort, bson.E{Key: f.Name, Value: f.Direction})
		}
		opts.SetSort(sort)
	}
	if c.limit > 0 {
		opts.SetLimit(c.limit)
	}
	if c.skip > 0 {
		opts.SetSkip(c.skip)
	}

	var op *operation
	ctx, op = c.coll.begin(ctx, "find")
	cur, err := c.coll.coll.Find(ctx, c.query(), opts)
	if err != nil {
		op.end(0, err)
		return err
	}
	c.cur, c.op = cur, op
	return nil
}

// Next returns the next document, or io.EOF once the results are
// exhausted.
func (c *cursor) Next(ctx context.Context) (map[string]any, error) {
	if c.cur == nil {
		if err := c.execute(ctx); err != nil {
			return nil, err
		}
	}
	if !c.cur.Next(ctx) {
		if err := c.cur.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var raw bson.M
	if err := c.cur.Decode(&raw); err != nil {
		return nil, err
	}
	c.n++
	return normalizeDocument(raw), nil
}

func (c *cursor) Distinct(ctx context.Context, field string) ([]any, error) {
	return c.coll.Distinct(ctx, field, c.query())
}

// Close releases the server cursor and reports the find with the number
// of documents read.
func (c *cursor) Close(ctx context.Context) error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close(ctx)
	c.op.end(c.n, err)
	c.cur, c.op = nil, nil
	return err
}
