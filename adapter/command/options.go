package command

import "go.uber.org/zap"

// WithLogger sets the logger used to profile terminal calls at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Command) {
		if l != nil {
			c.logger = l
		}
	}
}

// Option configures a [Command] through the functional options pattern.
type Option func(*Command)
