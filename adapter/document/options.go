package document

import "go.uber.org/zap"

// WithLogger sets the logger used to report swallowed store failures. A nil
// logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Option configures a [Registry] through the functional options pattern.
type Option func(*Registry)
