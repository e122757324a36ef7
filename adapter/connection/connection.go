// Package connection contains the Connection: the handle to a document store
// database, its write concern defaults and collection lookup.
package connection

import (
	"context"
	"sync"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// Connection owns a [domain.Driver], the selected database and the default
// write concern. It connects lazily, once, and is safe for concurrent use.
type Connection struct {
	mu        sync.Mutex
	driver    domain.Driver
	server    string
	dbName    string
	db        domain.Database
	connected bool
	wc        domain.WriteConcern
	readPref  string
	readTags  []map[string]string
	logger    *zap.Logger
}

// New returns a Connection over driver. Nothing is opened until the first
// operation or an explicit call to [Connection.Connect].
func New(driver domain.Driver, opts ...Option) *Connection {
	j := false
	c := &Connection{
		driver:   driver,
		dbName:   DefaultDatabase,
		wc:       domain.WriteConcern{W: 1, J: &j},
		readPref: "primary",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the network handle. Calling it again while connected does
// nothing. Failures are returned as [*domain.ConnectionError].
func (c *Connection) Connect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect(ctx)
}

func (c *Connection) connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	if err := c.driver.Connect(ctx); err != nil {
		c.logger.Error("connection failed", zap.String("server", c.server), zap.Error(err))
		return &domain.ConnectionError{Server: c.server, Err: err}
	}
	c.connected = true
	c.logger.Info("connected", zap.String("server", c.server), zap.String("database", c.dbName))
	return nil
}

// IsConnected reports whether the handle is open.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close releases the handle. A later operation reconnects.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	c.connected = false
	c.db = nil
	return c.driver.Disconnect(ctx)
}

// SetDatabase selects another database. The change is applied on the next
// call to [Connection.Database].
func (c *Connection) SetDatabase(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dbName = name
	c.db = nil
}

// DatabaseName returns the name of the selected database.
func (c *Connection) DatabaseName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dbName
}

// Database returns the selected database, connecting first if needed.
func (c *Connection) Database(ctx context.Context) (domain.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if c.db == nil {
		c.db = c.driver.Database(c.dbName)
	}
	return c.db, nil
}

// Collection returns a handle for the named collection. It never fails: the
// connection is opened by the first operation on the handle.
func (c *Connection) Collection(name string) domain.Collection {
	return &lazyCollection{conn: c, name: name}
}

// DefaultWriteConcern returns the write concern stamped on every write.
func (c *Connection) DefaultWriteConcern() domain.WriteConcern {
	return c.wc.Clone()
}

// ReadPreference returns the read preference mode and tag sets.
func (c *Connection) ReadPreference() (string, []map[string]string) {
	return c.readPref, c.readTags
}

// Server returns the configured server address.
func (c *Connection) Server() string {
	return c.server
}

// Driver returns the underlying driver.
func (c *Connection) Driver() domain.Driver {
	return c.driver
}

// Logger returns the connection logger, which components created from the
// connection reuse.
func (c *Connection) Logger() *zap.Logger {
	return c.logger
}

// RunCommand runs a database command on the selected database.
func (c *Connection) RunCommand(ctx context.Context, cmd domain.Document) (domain.Document, error) {
	db, err := c.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.RunCommand(ctx, cmd)
}

// Execute runs a database command and returns its "retval" field, or false if
// the response is not ok.
func (c *Connection) Execute(ctx context.Context, cmd domain.Document) (any, error) {
	res, err := c.RunCommand(ctx, cmd)
	if err != nil {
		return false, err
	}
	if !truthy(res["ok"]) {
		return false, nil
	}
	return res["retval"], nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	}
	return true
}
