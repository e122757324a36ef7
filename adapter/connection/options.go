package connection

import (
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// WithServer sets the server address, used in logs and errors.
func WithServer(server string) Option {
	return func(c *Connection) {
		c.server = server
	}
}

// WithDatabase sets the database selected on connect.
func WithDatabase(name string) Option {
	return func(c *Connection) {
		if name != "" {
			c.dbName = name
		}
	}
}

// WithWriteConcern overlays wc on the default write concern.
func WithWriteConcern(wc domain.WriteConcern) Option {
	return func(c *Connection) {
		c.wc = c.wc.Overlay(wc)
	}
}

// WithReadPreference sets the read preference mode and tag sets.
func WithReadPreference(mode string, tags ...map[string]string) Option {
	return func(c *Connection) {
		if mode != "" {
			c.readPref = mode
		}
		c.readTags = tags
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConfig applies the connection settings of cfg.
func WithConfig(cfg Config) Option {
	return func(c *Connection) {
		j := cfg.J
		WithServer(cfg.Server)(c)
		WithDatabase(cfg.Database)(c)
		WithWriteConcern(domain.WriteConcern{W: cfg.W, J: &j})(c)
		WithReadPreference(cfg.ReadPreference, cfg.ReadPreferenceTags...)(c)
	}
}

// Option configures a [Connection] through the functional options pattern.
type Option func(*Connection)
