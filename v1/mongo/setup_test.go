package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/odm/v1/logger"
	"github.com/Aleph-Alpha/odm/v1/model"
)

// Connecting is lazy in the driver, so none of these tests need a server.

func newTestConnections(t *testing.T) (*Connections, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewConnections(logger.NewFromZap(zap.New(core), false))
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, logs
}

func TestOpenRegistersAliases(t *testing.T) {
	c, logs := newTestConnections(t)
	ctx := context.Background()

	db, err := c.Open(ctx, Config{URI: "mongodb://localhost:27017/app"})
	require.NoError(t, err)
	assert.Equal(t, "app", db.Name())

	_, err = c.Open(ctx, Config{URI: "mongodb://localhost:27017", Database: "archive", Alias: "old"})
	require.NoError(t, err)

	assert.Equal(t, []string{"app", "default", "old"}, c.Aliases())
	assert.Len(t, c.clients, 1)

	def, err := c.Database(DefaultAlias)
	require.NoError(t, err)
	assert.Equal(t, "app", def.Name())

	old, err := c.Database("old")
	require.NoError(t, err)
	assert.Equal(t, "archive", old.Name())

	assert.Equal(t, 2, logs.FilterMessage("mongo database opened").Len())
}

func TestOpenSeparateHosts(t *testing.T) {
	c, _ := newTestConnections(t)
	ctx := context.Background()

	_, err := c.Open(ctx, Config{URI: "mongodb://a.example.com:27017,b.example.com:27017/app?replicaSet=rs0"})
	require.NoError(t, err)
	_, err = c.Open(ctx, Config{URI: "mongodb://c.example.com:27017/app", Alias: "other"})
	require.NoError(t, err)

	assert.Len(t, c.clients, 2)
	assert.Contains(t, c.clients, "a.example.com:27017,b.example.com:27017/rs0")
}

func TestOpenErrors(t *testing.T) {
	c, _ := newTestConnections(t)
	ctx := context.Background()

	_, err := c.Open(ctx, Config{URI: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, ErrNoDatabaseName)

	_, err = c.Open(ctx, Config{URI: "http://localhost"})
	assert.ErrorIs(t, err, ErrInvalidURI)

	_, err = c.Open(ctx, Config{URI: "mongodb://localhost:27017/app"})
	require.NoError(t, err)
	_, err = c.Open(ctx, Config{URI: "mongodb://localhost:27017/other", Alias: "app"})
	assert.ErrorIs(t, err, ErrAliasInUse)
}

func TestDatabaseNotOpen(t *testing.T) {
	c, _ := newTestConnections(t)

	_, err := c.Database("missing")
	assert.EqualError(t, err, "There is no connection for database 'missing'")
	assert.True(t, IsNoConnection(err))
	assert.True(t, model.IsConnection(err))

	var noConn *NoConnectionError
	require.True(t, errors.As(err, &noConn))
	assert.Equal(t, "missing", noConn.Alias)
}

func TestConnector(t *testing.T) {
	c, _ := newTestConnections(t)
	ctx := context.Background()
	_, err := c.Open(ctx, Config{URI: "mongodb://localhost:27017/app"})
	require.NoError(t, err)

	registry := model.NewRegistry(c)
	users := registry.MustDefine("User", model.Options{})
	archived := registry.MustDefine("Archived", model.Options{Database: "archive"})

	coll, err := users.Collection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "users", coll.(*Collection).Name())
	assert.Equal(t, "app", coll.(*Collection).database)

	_, err = archived.Collection(ctx)
	assert.True(t, model.IsConnection(err))
	assert.True(t, IsNoConnection(err))
}

func TestCloseForgetsAliases(t *testing.T) {
	c, logs := newTestConnections(t)
	ctx := context.Background()
	_, err := c.Open(ctx, Config{URI: "mongodb://localhost:27017/app"})
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	assert.Empty(t, c.Aliases())
	assert.True(t, IsNoConnection(func() error { _, err := c.Database("app"); return err }()))
	assert.Equal(t, 1, logs.FilterMessage("mongo connections closed").Len())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultURI, cfg.URI)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultServerSelectionTimeout, cfg.ServerSelectionTimeout)

	custom := Config{URI: "mongodb://db:27017/x", ConnectTimeout: 1}.withDefaults()
	assert.Equal(t, "mongodb://db:27017/x", custom.URI)
	assert.EqualValues(t, 1, custom.ConnectTimeout)
}
