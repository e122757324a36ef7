package godm

import (
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

type openOptions struct {
	driver domain.Driver
	logger *zap.Logger
}

// WithDriver uses d instead of the driver named in the config.
func WithDriver(d domain.Driver) Option {
	return func(o *openOptions) {
		o.driver = d
	}
}

// WithLogger sets the logger used by the connection, the driver and the
// documents. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Option configures [Open].
type Option func(*openOptions)
