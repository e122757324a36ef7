package criteria

import "github.com/vinicius-lino-figueiredo/godm/domain"

// WithCondition sets the initial condition.
func WithCondition(cond domain.Document) Option {
	return func(c *Criteria) {
		c.SetCondition(cond)
	}
}

// WithSort sets the initial sort.
func WithSort(fields ...domain.SortName) Option {
	return func(c *Criteria) {
		c.SetSort(fields...)
	}
}

// WithSkip sets the initial skip.
func WithSkip(skip int64) Option {
	return func(c *Criteria) {
		c.SetSkip(skip)
	}
}

// WithLimit sets the initial limit.
func WithLimit(limit int64) Option {
	return func(c *Criteria) {
		c.SetLimit(limit)
	}
}

// Option configures a [Criteria] through the functional options pattern.
type Option func(*Criteria)
