// Package timegetter contains the default [domain.TimeGetter] implementation,
// the clock used by timestamp behaviors.
package timegetter

import (
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// TimeGetter implements [domain.TimeGetter].
type TimeGetter struct {
	loc *time.Location
}

// Option configures a [TimeGetter].
type Option func(*TimeGetter)

// WithLocation makes the clock return times in loc.
func WithLocation(loc *time.Location) Option {
	return func(t *TimeGetter) {
		t.loc = loc
	}
}

// NewTimeGetter returns a new implementation of domain.TimeGetter.
func NewTimeGetter(opts ...Option) domain.TimeGetter {
	t := &TimeGetter{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetTime implements [domain.TimeGetter].
func (t *TimeGetter) GetTime() time.Time {
	now := time.Now()
	if t.loc != nil {
		return now.In(t.loc)
	}
	return now
}

// Fixed is a [domain.TimeGetter] that always returns the same instant.
type Fixed time.Time

// GetTime implements [domain.TimeGetter].
func (f Fixed) GetTime() time.Time {
	return time.Time(f)
}
