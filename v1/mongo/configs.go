package mongo

import "time"

// Defaults applied by Connections.Open.
const (
	DefaultURI                    = "mongodb://localhost:27017"
	DefaultConnectTimeout         = 10 * time.Second
	DefaultServerSelectionTimeout = 10 * time.Second

	// DefaultAlias is also registered for the first database opened.
	DefaultAlias = "default"
)

// Config describes one database to open.
type Config struct {
	// URI is a MongoDB connection string. A database name in its path is
	// used when Database is empty.
	// Default: "mongodb://localhost:27017"
	URI string `yaml:"uri" envconfig:"MONGO_URI"`

	// Database is the name of the database on the server.
	Database string `yaml:"database" envconfig:"MONGO_DATABASE"`

	// Alias is the name models use to refer to the database. Defaults to
	// the database name.
	Alias string `yaml:"alias" envconfig:"MONGO_ALIAS"`

	// AppName is reported to the server in the connection handshake.
	AppName string `yaml:"app_name" envconfig:"MONGO_APP_NAME"`

	// ConnectTimeout bounds establishing a connection.
	// Default: 10 seconds
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"MONGO_CONNECT_TIMEOUT"`

	// ServerSelectionTimeout bounds waiting for a suitable server.
	// Default: 10 seconds
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout" envconfig:"MONGO_SERVER_SELECTION_TIMEOUT"`
}

func (c Config) withDefaults() Config {
	if c.URI == "" {
		c.URI = DefaultURI
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ServerSelectionTimeout == 0 {
		c.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	return c
}

// Logger is the subset of odm/v1/logger.Logger used by this package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
