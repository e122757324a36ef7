// Package godm is an object-document mapper for MongoDB-like stores.
//
// Entities are structs embedding [Document]. They are created from a
// [Registry], which binds them to a connection, and they carry validation,
// scopes, relations, lifecycle hooks and behaviors.
//
// The usual setup is calling [Open] with a [Config], which connects to either
// a MongoDB server or an in-memory store, and then creating documents with
// [New] or querying them with [Model].
package godm

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinicius-lino-figueiredo/godm/adapter/connection"
	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/document"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned when a driver is used before connecting.
	ErrNotConnected = domain.ErrNotConnected
	// ErrUnknownScope is returned when applying a scope that the entity
	// does not declare.
	ErrUnknownScope = domain.ErrUnknownScope
	// ErrUnknownRelation is returned when resolving a relation that the
	// entity does not declare.
	ErrUnknownRelation = domain.ErrUnknownRelation
	// ErrInvalidCriteria is returned when a criteria argument is neither a
	// map nor a [Criteria].
	ErrInvalidCriteria = domain.ErrInvalidCriteria
	// ErrCursorClosed is returned when using a closed cursor.
	ErrCursorClosed = domain.ErrCursorClosed
	// ErrCannotModifyID is returned when an update tries to change the _id
	// of a document.
	ErrCannotModifyID = domain.ErrCannotModifyID
	// ErrUnsupportedDriver is returned by [Open] for an unknown driver
	// name.
	ErrUnsupportedDriver = errors.New("unsupported driver")
)

// ConnectionError is returned when the store cannot be reached.
type ConnectionError = domain.ConnectionError

// InvalidStateError is returned when an operation is not allowed in the
// current state of a document, like inserting a document that is not new.
type InvalidStateError = domain.InvalidStateError

// MissingKeyError is returned when an operation needs a primary key that is
// not set.
type MissingKeyError = domain.MissingKeyError

// PersistenceError wraps a failure reported by the store. Documents keep the
// last one, see [Document.LastError].
type PersistenceError = domain.PersistenceError

// Config holds the connection settings. See [LoadConfig].
type Config = connection.Config

// Connection is an open handle to a database.
type Connection = connection.Connection

// Document is embedded by every entity.
type Document = document.Document

// Registry creates documents bound to a connection.
type Registry = document.Registry

// Criteria is a query builder.
type Criteria = criteria.Criteria

// WriteConcern is the acknowledgment level requested for writes.
type WriteConcern = domain.WriteConcern

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	return connection.LoadConfig(path)
}

// DB is an open connection and the registry of the documents bound to it.
type DB struct {
	*Connection
	registry *Registry
}

// Registry returns the registry of the documents of db.
func (db *DB) Registry() *Registry {
	return db.registry
}

// Open selects the driver named by cfg, connects to it and returns a [DB]
// ready to create documents. The driver can be replaced with [WithDriver].
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	o := openOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	driver := o.driver
	if driver == nil {
		switch cfg.Driver {
		case "", "mongo", "mongodb":
			driver = newMongoDriver(cfg, o.logger)
		case "memory":
			driver = newMemoryDriver(cfg, o.logger)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
		}
	}

	conn := connection.New(driver,
		connection.WithConfig(cfg),
		connection.WithLogger(o.logger),
	)
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	reg := document.NewRegistry(conn, document.WithLogger(o.logger))
	return &DB{Connection: conn, registry: reg}, nil
}

// New returns a new document of type T bound to db.
func New[T document.Interface](db *DB, scenario ...string) (T, error) {
	return document.New[T](db.registry, scenario...)
}

// Model returns the prototype of T, used to run queries.
func Model[T document.Interface](db *DB) (T, error) {
	return document.Model[T](db.registry)
}
