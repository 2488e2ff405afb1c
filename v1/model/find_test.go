package model

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/odm/v1/aggregation"
	"github.com/Aleph-Alpha/odm/v1/query"
)

func TestGetCardinality(t *testing.T) {
	ctx := context.Background()
	q := query.New(map[string]any{"email": "ada@example.com"})
	spec := map[string]any{"email": "ada@example.com"}

	t.Run("none", func(t *testing.T) {
		f := newFixture(t)
		cursor := query.NewMockCursor(f.ctrl)
		f.coll.EXPECT().Find(spec).Return(cursor)
		cursor.EXPECT().Count(ctx, true).Return(int64(0), nil)
		cursor.EXPECT().Close(ctx).Return(nil)

		_, err := f.registry.MustDefine("User", Options{}).Get(ctx, q)
		var notFound *NoDocumentFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, spec, notFound.Query)
		assert.EqualError(t, err, "no document found: 'User' matching query does not exist; the query was map[email:ada@example.com]")
		assert.True(t, IsNoDocumentFound(err))
	})

	t.Run("many", func(t *testing.T) {
		f := newFixture(t)
		cursor := query.NewMockCursor(f.ctrl)
		f.coll.EXPECT().Find(spec).Return(cursor)
		cursor.EXPECT().Count(ctx, true).Return(int64(2), nil)
		cursor.EXPECT().Close(ctx).Return(nil)

		_, err := f.registry.MustDefine("User", Options{}).Get(ctx, q)
		var many *MultipleDocumentsFoundError
		require.True(t, errors.As(err, &many))
		assert.Equal(t, int64(2), many.Count)
		assert.Contains(t, err.Error(), `multiple documents found: get() returned more than one "User": it returned 2`)
		assert.True(t, IsMultipleDocumentsFound(err))
	})

	t.Run("one", func(t *testing.T) {
		f := newFixture(t)
		id := primitive.NewObjectID()
		cursor := query.NewMockCursor(f.ctrl)
		f.coll.EXPECT().Find(spec).Return(cursor)
		cursor.EXPECT().Count(ctx, true).Return(int64(1), nil)
		cursor.EXPECT().Next(ctx).Return(map[string]any{"_id": id, "email": "ada@example.com"}, nil)
		cursor.EXPECT().Close(ctx).Return(nil)

		u, err := f.registry.MustDefine("User", Options{}).Get(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, "<User: "+id.String()+">", u.String())
	})

	t.Run("vanished between count and read", func(t *testing.T) {
		f := newFixture(t)
		cursor := query.NewMockCursor(f.ctrl)
		f.coll.EXPECT().Find(spec).Return(cursor)
		cursor.EXPECT().Count(ctx, true).Return(int64(1), nil)
		cursor.EXPECT().Next(ctx).Return(nil, io.EOF)
		cursor.EXPECT().Close(ctx).Return(nil)

		_, err := f.registry.MustDefine("User", Options{}).Get(ctx, q)
		assert.True(t, IsNoDocumentFound(err))
	})
}

func TestFindOptions(t *testing.T) {
	ctx := context.Background()
	spec := map[string]any{"age": map[string]any{"$gte": 18}}
	q := query.New(map[string]any{"age__gte": 18})

	t.Run("default sort", func(t *testing.T) {
		f := newFixture(t)
		users := f.registry.MustDefine("User", Options{Sort: StringList{"-created", "nick"}, FieldMap: map[string]string{"nick": "n"}})
		cursor := query.NewMockCursor(f.ctrl)
		f.coll.EXPECT().Find(spec).Return(cursor)
		cursor.EXPECT().Sort(
			query.SortField{Name: "created", Direction: query.Descending},
			query.SortField{Name: "n", Direction: query.Ascending},
		).Return(cursor)

		_, err := users.Find(ctx, q)
		require.NoError(t, err)
	})

	t.Run("explicit sort skip and limit", func(t *testing.T) {
		f := newFixture(t)
		users := f.registry.MustDefine("User", Options{Sort: StringList{"-created"}, FieldMap: map[string]string{"nick": "n"}})
		cursor := query.NewMockCursor(f.ctrl)
		gomock.InOrder(
			f.coll.EXPECT().Find(spec).Return(cursor),
			cursor.EXPECT().Sort(query.SortField{Name: "n", Direction: query.Descending}).Return(cursor),
			cursor.EXPECT().Skip(int64(20)).Return(cursor),
			cursor.EXPECT().Limit(int64(10)).Return(cursor),
		)

		_, err := users.Find(ctx, q, WithSort("-nick"), WithSkip(20), WithLimit(10))
		require.NoError(t, err)
	})
}

func TestFindWrapsDocuments(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{FieldMap: map[string]string{"nick": "n"}})
	ctx := context.Background()
	cursor := query.NewMockCursor(f.ctrl)

	f.coll.EXPECT().Find(map[string]any{}).Return(cursor)
	gomock.InOrder(
		cursor.EXPECT().Next(ctx).Return(map[string]any{"n": "ada"}, nil),
		cursor.EXPECT().Next(ctx).Return(map[string]any{"n": "bob"}, nil),
		cursor.EXPECT().Next(ctx).Return(nil, io.EOF),
	)

	set, err := users.Find(ctx, query.Q{})
	require.NoError(t, err)
	all, err := set.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	nick, err := all[1].Get("nick")
	require.NoError(t, err)
	assert.Equal(t, "bob", nick)
	assert.Same(t, users, all[0].Meta())
}

func TestFindCoercesObjectIDs(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{})
	id := primitive.NewObjectID()
	other := primitive.NewObjectID()
	cursor := query.NewMockCursor(f.ctrl)

	f.coll.EXPECT().
		Find(map[string]any{"$or": []any{
			map[string]any{"_id": id},
			map[string]any{"_id": map[string]any{"$in": []any{other}}},
		}}).
		Return(cursor)

	q := query.New(map[string]any{"id": id.Hex()}).Or(query.New(map[string]any{"id__in": []string{other.Hex()}}))
	_, err := users.Find(context.Background(), q)
	require.NoError(t, err)

	_, err = users.Find(context.Background(), query.New(map[string]any{"id": "not-hex"}))
	assert.ErrorIs(t, err, ErrInvalidObjectID)
}

func TestGetOrCreate(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{AutoTimestamp: boolPtr(false)})
	ctx := context.Background()
	newID := primitive.NewObjectID()
	q := query.New(map[string]any{"email": "ada@example.com", "age__gte": 18})

	cursor := query.NewMockCursor(f.ctrl)
	f.coll.EXPECT().Find(gomock.Any()).Return(cursor)
	cursor.EXPECT().Count(ctx, true).Return(int64(0), nil)
	cursor.EXPECT().Close(ctx).Return(nil)
	f.coll.EXPECT().
		Insert(ctx, map[string]any{"email": "ada@example.com", "name": "Ada"}, 1).
		Return(newID, nil)

	u, created, err := users.GetOrCreate(ctx, q, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.True(t, created)
	id, _ := u.ID()
	assert.Equal(t, newID, id)
}

func TestGetOrCreateReturnsOtherErrors(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{})
	ctx := context.Background()

	cursor := query.NewMockCursor(f.ctrl)
	f.coll.EXPECT().Find(gomock.Any()).Return(cursor)
	cursor.EXPECT().Count(ctx, true).Return(int64(3), nil)
	cursor.EXPECT().Close(ctx).Return(nil)

	_, created, err := users.GetOrCreate(ctx, query.New(map[string]any{"name": "Ada"}), nil)
	assert.False(t, created)
	assert.True(t, IsMultipleDocumentsFound(err))
}

func TestDistinct(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{FieldMap: map[string]string{"city": "address.city"}})
	ctx := context.Background()

	f.coll.EXPECT().
		Distinct(ctx, "address.city", map[string]any{"active": true}).
		Return([]any{"London", "Paris"}, nil)

	got, err := users.Distinct(ctx, "city", query.New(map[string]any{"active": true}))
	require.NoError(t, err)
	assert.Equal(t, []any{"London", "Paris"}, got)
}

func TestAggregate(t *testing.T) {
	f := newFixture(t)
	users := f.registry.MustDefine("User", Options{FieldMap: map[string]string{"city": "address.city"}})
	ctx := context.Background()
	id := primitive.NewObjectID()

	f.coll.EXPECT().
		Aggregate(ctx, []bson.D{
			{{Key: "$match", Value: map[string]any{"_id": id}}},
			{{Key: "$unwind", Value: "$address.city"}},
			{{Key: "$limit", Value: int64(5)}},
		}).
		Return([]map[string]any{{"_id": id}}, nil)

	p := aggregation.New().Match(query.New(map[string]any{"id": id.Hex()})).Unwind("city").Limit(5)
	got, err := users.Aggregate(ctx, p)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCollectionFailureStopsQueries(t *testing.T) {
	users := NewRegistry(nil).MustDefine("User", Options{})
	ctx := context.Background()

	_, err := users.Find(ctx, query.Q{})
	assert.True(t, IsConnection(err))
	_, err = users.Get(ctx, query.Q{})
	assert.True(t, IsConnection(err))
	_, err = users.Distinct(ctx, "name", query.Q{})
	assert.True(t, IsConnection(err))
	_, err = users.Aggregate(ctx, aggregation.New())
	assert.True(t, IsConnection(err))
}

func TestFXModule(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := NewMockConnector(ctrl)

	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("User:\n  collection: members\n"), 0o600))

	var registry *Registry
	app := fxtest.New(t,
		fx.Provide(func() Connector { return conn }),
		fx.Supply(Config{DefinitionsPath: path}),
		FXModule,
		fx.Populate(&registry),
	)
	app.RequireStart()
	defer app.RequireStop()

	users, err := registry.Lookup("User")
	require.NoError(t, err)
	assert.Equal(t, "members", users.CollectionName())
}

func TestNewRegistryWithDIMissingFile(t *testing.T) {
	_, err := NewRegistryWithDI(RegistryParams{
		Config: Config{DefinitionsPath: filepath.Join(t.TempDir(), "missing.yaml")},
	})
	assert.True(t, IsConfiguration(err))
}
