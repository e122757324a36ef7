package idgenerator

import "io"

// WithReader sets the source of the random bytes ids are made of. A nil
// reader is ignored.
func WithReader(r io.Reader) Option {
	return func(g *IDGenerator) {
		if r != nil {
			g.reader = r
		}
	}
}

// Option configures an [IDGenerator].
type Option func(*IDGenerator)
