package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/Aleph-Alpha/odm/v1/model"
	"github.com/Aleph-Alpha/odm/v1/observability"
)

// Connections is a registry of open databases keyed by alias. Clients are
// shared between databases on the same hosts.
//
// Connections implements model.Connector.
type Connections struct {
	logger   Logger
	observer observability.Observer
	tracer   Tracer

	mu        sync.RWMutex
	clients   map[string]*mongo.Client
	databases map[string]*mongo.Database
}

var _ model.Connector = (*Connections)(nil)

// NewConnections creates an empty registry. A nil logger disables logging.
//
// Example:
//
//	conns := mongo.NewConnections(log)
//	if _, err := conns.Open(ctx, mongo.Config{URI: "mongodb://localhost:27017/app"}); err != nil {
//		return err
//	}
//	defer conns.Close(ctx)
//
//	registry := model.NewRegistry(conns)
func NewConnections(logger Logger) *Connections {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Connections{
		logger:    logger,
		clients:   make(map[string]*mongo.Client),
		databases: make(map[string]*mongo.Database),
	}
}

// WithObserver sets the observer notified after every collection operation.
func (c *Connections) WithObserver(observer observability.Observer) *Connections {
	c.observer = observer
	return c
}

// WithTracer sets the tracer used to create a span per collection operation.
func (c *Connections) WithTracer(tracer Tracer) *Connections {
	c.tracer = tracer
	return c
}

// Open connects to the database described by cfg and registers it under
// its alias. The first database opened is also registered as "default".
// Databases on the same hosts share one client.
func (c *Connections) Open(ctx context.Context, cfg Config) (*mongo.Database, error) {
	cfg = cfg.withDefaults()

	cs, err := connstring.ParseAndValidate(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	name := cfg.Database
	if name == "" {
		name = cs.Database
	}
	if name == "" {
		return nil, ErrNoDatabaseName
	}
	alias := cfg.Alias
	if alias == "" {
		alias = name
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.databases[alias]; ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasInUse, alias)
	}

	key := clientKey(cs.Hosts, cs.ReplicaSet)
	client, ok := c.clients[key]
	if !ok {
		opts := options.Client().
			ApplyURI(cfg.URI).
			SetConnectTimeout(cfg.ConnectTimeout).
			SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
		if cfg.AppName != "" {
			opts.SetAppName(cfg.AppName)
		}
		client, err = mongo.Connect(ctx, opts)
		if err != nil {
			c.logger.Error("failed to connect to mongo", err, map[string]interface{}{"hosts": key})
			return nil, err
		}
		c.clients[key] = client
	}

	db := client.Database(name)
	c.databases[alias] = db
	if _, ok := c.databases[DefaultAlias]; !ok {
		c.databases[DefaultAlias] = db
	}

	c.logger.Info("mongo database opened", nil, map[string]interface{}{
		"alias":    alias,
		"database": name,
		"hosts":    key,
	})
	return db, nil
}

// clientKey identifies the deployment a connection string points at.
func clientKey(hosts []string, replicaSet string) string {
	hosts = append([]string(nil), hosts...)
	sort.Strings(hosts)
	key := strings.Join(hosts, ",")
	if replicaSet != "" {
		key += "/" + replicaSet
	}
	return key
}

// Database returns the database registered under alias.
func (c *Connections) Database(alias string) (*mongo.Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	db, ok := c.databases[alias]
	if !ok {
		return nil, &NoConnectionError{Alias: alias}
	}
	return db, nil
}

// Aliases returns the registered aliases in sorted order.
func (c *Connections) Aliases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	aliases := make([]string, 0, len(c.databases))
	for alias := range c.databases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Collection returns the named collection of the database registered under
// alias database.
func (c *Connections) Collection(_ context.Context, database, name string) (model.Collection, error) {
	db, err := c.Database(database)
	if err != nil {
		return nil, err
	}
	return &Collection{
		conns:    c,
		database: db.Name(),
		coll:     db.Collection(name),
	}, nil
}

// Ping checks every open client.
func (c *Connections) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, client := range c.clients {
		if err := client.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: ping %s: %w", key, err)
		}
	}
	return nil
}

// Close disconnects every client and forgets all aliases.
func (c *Connections) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, client := range c.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo: disconnect %s: %w", key, err))
		}
	}
	c.clients = make(map[string]*mongo.Client)
	c.databases = make(map[string]*mongo.Database)

	c.logger.Info("mongo connections closed", nil)
	return errors.Join(errs...)
}
