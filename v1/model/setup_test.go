package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/odm/v1/logger"
	"github.com/Aleph-Alpha/odm/v1/query"
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.UTC)

type fixture struct {
	ctrl     *gomock.Controller
	coll     *MockCollection
	registry *Registry
	logs     *observer.ObservedLogs
	now      time.Time
}

// newFixture returns a registry whose models all share one mocked
// collection and whose clock reads f.now.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	coll := NewMockCollection(ctrl)
	conn := NewMockConnector(ctrl)
	conn.EXPECT().Collection(gomock.Any(), gomock.Any(), gomock.Any()).Return(coll, nil).AnyTimes()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{ctrl: ctrl, coll: coll, logs: logs, now: fixedNow}
	f.registry = NewRegistry(conn,
		WithLogger(logger.NewFromZap(zap.New(core), false)),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestDefineDefaults(t *testing.T) {
	r := NewRegistry(nil)
	m, err := r.Define("User", Options{})
	require.NoError(t, err)

	assert.Equal(t, "User", m.Name())
	assert.Equal(t, "users", m.CollectionName())
	assert.Equal(t, DefaultDatabase, m.Database())
	assert.Equal(t, "_id", m.Fields()["id"])
	assert.True(t, m.AutoTimestamp())
	assert.Equal(t, 1, m.W())
	assert.Empty(t, m.RequiredFields())
	assert.Empty(t, m.Sort())

	ft, ok := m.TypedField("_id")
	require.True(t, ok)
	assert.Equal(t, objectIDType, ft.Type)
	assert.False(t, ft.List)
}

func TestDefineOptions(t *testing.T) {
	r := NewRegistry(nil)
	m, err := r.Define("Person", Options{
		Collection:     "people",
		Database:       "archive",
		FieldMap:       map[string]string{"city": "address.city"},
		MapID:          boolPtr(false),
		RequiredFields: StringList{"name", "city"},
		Sort:           StringList{"-created", "name"},
		AutoTimestamp:  boolPtr(false),
		TypedFields: map[string]any{
			"city":  "string",
			"tags":  ListOf[string](),
			"notes": nil,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "people", m.CollectionName())
	assert.Equal(t, "archive", m.Database())
	assert.NotContains(t, m.Fields(), "id")
	assert.False(t, m.AutoTimestamp())
	assert.Equal(t, []string{"name", "address.city"}, m.RequiredFields())
	assert.Equal(t, []query.SortField{
		{Name: "created", Direction: query.Descending},
		{Name: "name", Direction: query.Ascending},
	}, m.Sort())

	ft, ok := m.TypedField("address.city")
	require.True(t, ok)
	assert.Equal(t, "string", ft.String())

	ft, ok = m.TypedField("tags")
	require.True(t, ok)
	assert.Equal(t, "[string]", ft.String())

	ft, ok = m.TypedField("notes")
	assert.True(t, ok)
	assert.Nil(t, ft)
}

func TestDefineWriteConcern(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
		warn bool
	}{
		{name: "default", want: 1},
		{name: "w", opts: Options{W: intPtr(3)}, want: 3},
		{name: "fire and forget", opts: Options{W: intPtr(0)}, want: 0},
		{name: "safe", opts: Options{Safe: boolPtr(true)}, want: 1, warn: true},
		{name: "unsafe", opts: Options{Safe: boolPtr(false)}, want: 0, warn: true},
		{name: "w wins over safe", opts: Options{W: intPtr(2), Safe: boolPtr(false)}, want: 2, warn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			m, err := f.registry.Define("Thing", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.W())

			warnings := f.logs.FilterLevelExact(zapcore.WarnLevel).Len()
			if tt.warn {
				assert.Equal(t, 1, warnings)
			} else {
				assert.Zero(t, warnings)
			}
		})
	}
}

func TestDefineErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		is   error
	}{
		{name: "negative w", opts: Options{W: intPtr(-1)}, is: ErrConfiguration},
		{name: "typed field value", opts: Options{TypedFields: map[string]any{"a": 1}}, is: ErrInvalidTypedField},
		{name: "typed list of two", opts: Options{TypedFields: map[string]any{"a": []any{"int", "string"}}}, is: ErrInvalidTypedField},
		{name: "unknown type name", opts: Options{TypedFields: map[string]any{"a": "decimal"}}, is: ErrInvalidTypedField},
		{name: "empty alias", opts: Options{FieldMap: map[string]string{"a": ""}}, is: ErrConfiguration},
		{name: "unknown parent", opts: Options{Extends: "Base"}, is: ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(nil).Define("Thing", tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			assert.True(t, IsConfiguration(err))
		})
	}
}

func TestDefineDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	r.MustDefine("User", Options{})

	_, err := r.Define("User", Options{})
	assert.ErrorIs(t, err, ErrDuplicateModel)
	assert.Panics(t, func() { r.MustDefine("User", Options{}) })
}

func TestDefineInheritance(t *testing.T) {
	r := NewRegistry(nil)
	base := r.MustDefine("Base", Options{
		Collection:     "things",
		RequiredFields: StringList{"name"},
		W:              intPtr(2),
	})
	child := r.MustDefine("Child", Options{
		Extends:        "Base",
		RequiredFields: StringList{"kind"},
	})
	plain := r.MustDefine("Plain", Options{AutoTimestamp: boolPtr(false)})
	orphan := r.MustDefine("Orphan", Options{Extends: "Plain"})

	assert.Same(t, base, child.Parent())
	assert.True(t, child.Extends(base))
	assert.False(t, base.Extends(child))

	assert.Equal(t, "things", child.CollectionName())
	assert.Equal(t, []string{"kind"}, child.RequiredFields())
	assert.Equal(t, 2, child.W())

	assert.Equal(t, "orphans", orphan.CollectionName())
	assert.Equal(t, plain.AutoTimestamp(), orphan.AutoTimestamp())
}

func TestReservedNames(t *testing.T) {
	m := NewRegistry(nil).MustDefine("User", Options{Attributes: []string{"session"}})

	for _, name := range []string{"save", "delete", "update", "rawUpdate", "_document", "_meta", "session"} {
		assert.True(t, m.IsReserved(name), name)
	}
	assert.False(t, m.IsReserved("name"))
	assert.False(t, m.IsReserved("id"))
}

func TestLookupAndModels(t *testing.T) {
	r := NewRegistry(nil)
	u := r.MustDefine("User", Options{})
	r.MustDefine("Account", Options{})

	got, err := r.Lookup("User")
	require.NoError(t, err)
	assert.Same(t, u, got)

	_, err = r.Lookup("Nope")
	assert.True(t, IsLookup(err))
	assert.ErrorIs(t, err, ErrUnknownModel)

	assert.Equal(t, []string{"Account", "User"}, r.Models())
}

func TestLoad(t *testing.T) {
	const definitions = `
Admin:
  extends: User
  required_fields: role
User:
  collection: members
  field_map:
    city: address.city
  required_fields: [email]
  typed_fields:
    age: int
    tags: [string]
    city: string
  sort: -created
  w: 2
`
	r := NewRegistry(nil)
	defined, err := r.Load(strings.NewReader(definitions))
	require.NoError(t, err)
	require.Len(t, defined, 2)
	assert.Equal(t, "User", defined[0].Name())
	assert.Equal(t, "Admin", defined[1].Name())

	admin, err := r.Lookup("Admin")
	require.NoError(t, err)
	assert.Equal(t, "members", admin.CollectionName())
	assert.Equal(t, []string{"role"}, admin.RequiredFields())
	assert.Equal(t, 2, admin.W())
	assert.Equal(t, []query.SortField{{Name: "created", Direction: query.Descending}}, admin.Sort())

	ft, ok := admin.TypedField("tags")
	require.True(t, ok)
	assert.True(t, ft.List)

	ft, ok = admin.TypedField("address.city")
	require.True(t, ok)
	assert.Equal(t, "string", ft.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "cycle", yaml: "A:\n  extends: B\nB:\n  extends: A\n"},
		{name: "unknown parent", yaml: "A:\n  extends: Missing\n"},
		{name: "invalid yaml", yaml: "A: [\n"},
		{name: "invalid typed field", yaml: "A:\n  typed_fields:\n    x: [int, string]\n"},
		{name: "invalid list", yaml: "A:\n  sort:\n    key: value\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(nil).Load(strings.NewReader(tt.yaml))
			assert.True(t, IsConfiguration(err), "got %v", err)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	defined, err := NewRegistry(nil).Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, defined)
}

func TestCollectionIsResolvedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	coll := NewMockCollection(ctrl)
	conn := NewMockConnector(ctrl)
	conn.EXPECT().Collection(gomock.Any(), "default", "users").Return(coll, nil).Times(1)

	m := NewRegistry(conn).MustDefine("User", Options{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Collection(context.Background())
			assert.NoError(t, err)
			assert.Same(t, coll, got)
		}()
	}
	wg.Wait()

	got, err := m.Collection(context.Background())
	require.NoError(t, err)
	assert.Same(t, coll, got)
}

func TestCollectionErrors(t *testing.T) {
	m := NewRegistry(nil).MustDefine("User", Options{})
	_, err := m.Collection(context.Background())
	assert.True(t, IsConnection(err))

	ctrl := gomock.NewController(t)
	conn := NewMockConnector(ctrl)
	boom := errors.New("There is no connection for database 'default'")
	conn.EXPECT().Collection(gomock.Any(), "default", "users").Return(nil, boom).Times(2)

	m = NewRegistry(conn).MustDefine("User", Options{})
	_, err = m.Collection(context.Background())
	assert.True(t, IsConnection(err))
	assert.ErrorIs(t, err, boom)

	// failures are not memoized
	_, err = m.Collection(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGuaranteeObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	other := primitive.NewObjectID()

	got, err := GuaranteeObjectID(id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = GuaranteeObjectID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = GuaranteeObjectID(map[string]any{"$in": []any{id.Hex(), other}, "$ne": other.Hex()})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$in": []any{id, other}, "$ne": other}, got)

	got, err = GuaranteeObjectID(map[string]any{"$exists": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$exists": true}, got)

	got, err = GuaranteeObjectID(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = GuaranteeObjectID("not-an-id")
	assert.ErrorIs(t, err, ErrInvalidObjectID)
	assert.True(t, IsValidation(err))

	_, err = GuaranteeObjectID(42)
	assert.ErrorIs(t, err, ErrInvalidObjectID)
}

func TestFieldTypeAccepts(t *testing.T) {
	intType := FieldType{Type: TypeOf[int]()}
	assert.True(t, intType.Accepts(1))
	assert.True(t, intType.Accepts(int64(1)))
	assert.True(t, intType.Accepts(int32(1)))
	assert.False(t, intType.Accepts("1"))
	assert.False(t, intType.Accepts(1.5))
	assert.False(t, intType.Accepts(nil))

	floatType := FieldType{Type: TypeOf[float64]()}
	assert.True(t, floatType.Accepts(float32(1)))
	assert.False(t, floatType.Accepts(1))

	mapType := FieldType{Type: TypeOf[map[string]any]()}
	assert.True(t, mapType.Accepts(primitive.M{"a": 1}))
	assert.True(t, mapType.Accepts(map[string]string{"a": "b"}))

	intList := FieldType{Type: TypeOf[int](), List: true}
	assert.True(t, intList.Accepts([]any{1, 2}))
	assert.True(t, intList.Accepts([]int{}))
	assert.False(t, intList.Accepts([]any{1, "x"}))
	assert.False(t, intList.Accepts(1))
}
