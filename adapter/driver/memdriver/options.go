package memdriver

import (
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// WithDatafile sets the file data is loaded from on connect and saved to on
// disconnect. Without it, data only lives in memory.
func WithDatafile(name string) Option {
	return func(d *Driver) {
		d.datafile = name
	}
}

// WithPersistence replaces the datafile persistence.
func WithPersistence(p domain.Persistence) Option {
	return func(d *Driver) {
		d.persistence = p
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithIDGenerator sets the generator used by [Driver.NewID].
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(d *Driver) {
		d.idGenerator = g
	}
}

// WithComparer sets the comparer used to match and sort values.
func WithComparer(c domain.Comparer) Option {
	return func(d *Driver) {
		d.comparer = c
	}
}

// WithFieldNavigator sets how dotted field names are resolved.
func WithFieldNavigator(fn domain.FieldNavigator) Option {
	return func(d *Driver) {
		d.fieldNavigator = fn
	}
}

// Option configures a [Driver] through the functional options pattern.
type Option func(*Driver)
