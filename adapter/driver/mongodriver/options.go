package mongodriver

import "go.uber.org/zap"

// WithURI sets the connection URI. An empty URI is ignored.
func WithURI(uri string) Option {
	return func(d *Driver) {
		if uri != "" {
			d.uri = uri
		}
	}
}

// WithReadPreference sets the read preference mode and the tag sets that
// restrict eligible members.
func WithReadPreference(mode string, tags []map[string]string) Option {
	return func(d *Driver) {
		d.mode = mode
		d.tags = tags
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

// Option configures a [Driver] through the functional options pattern.
type Option func(*Driver)
