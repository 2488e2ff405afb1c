package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Aleph-Alpha/odm/v1/model"
)

var (
	// ErrNoConnection is returned for aliases that have not been opened.
	// It also matches model.ErrConnection.
	ErrNoConnection = errors.New("mongo: no connection")

	// ErrNoDatabaseName is returned by Open when neither the Config nor the
	// URI names a database.
	ErrNoDatabaseName = errors.New("mongo: no database name was provided, make sure to append it to the host URI")

	// ErrAliasInUse is returned by Open for an alias that is already open.
	ErrAliasInUse = errors.New("mongo: alias is already open")

	// ErrInvalidURI is returned by Open for connection strings that cannot
	// be parsed.
	ErrInvalidURI = errors.New("mongo: invalid connection string")
)

// NoConnectionError names the alias that has no open database.
type NoConnectionError struct {
	Alias string
}

func (e *NoConnectionError) Error() string {
	return fmt.Sprintf("There is no connection for database '%s'", e.Alias)
}

func (e *NoConnectionError) Unwrap() []error {
	return []error{ErrNoConnection, model.ErrConnection}
}

// IsNoConnection checks if the error is caused by an unknown alias.
func IsNoConnection(err error) bool {
	return errors.Is(err, ErrNoConnection)
}

// IsDuplicateKey checks if the error is a duplicate key error reported by
// the server.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsTimeout checks if the error is a network or server selection timeout.
func IsTimeout(err error) bool {
	return mongo.IsTimeout(err)
}
