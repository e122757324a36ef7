package behavior

import (
	"context"

	"github.com/vinicius-lino-figueiredo/godm/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Default timestamp attributes.
const (
	DefaultCreateAttribute = "create_time"
	DefaultUpdateAttribute = "update_time"
)

// Timestamp stamps the creation time of new documents and the update time
// of existing ones. An empty attribute name disables that stamp.
type Timestamp struct {
	CreateAttribute   string
	UpdateAttribute   string
	SetUpdateOnCreate bool
	Clock             domain.TimeGetter
}

// TimestampOption configures a [Timestamp].
type TimestampOption func(*Timestamp)

// WithAttributes changes the stamped attributes.
func WithAttributes(create, update string) TimestampOption {
	return func(t *Timestamp) {
		t.CreateAttribute = create
		t.UpdateAttribute = update
	}
}

// WithUpdateOnCreate also stamps the update time of new documents.
func WithUpdateOnCreate() TimestampOption {
	return func(t *Timestamp) {
		t.SetUpdateOnCreate = true
	}
}

// WithClock changes the time source.
func WithClock(c domain.TimeGetter) TimestampOption {
	return func(t *Timestamp) {
		t.Clock = c
	}
}

// NewTimestamp returns a Timestamp stamping the default attributes with the
// system clock.
func NewTimestamp(opts ...TimestampOption) *Timestamp {
	t := &Timestamp{
		CreateAttribute: DefaultCreateAttribute,
		UpdateAttribute: DefaultUpdateAttribute,
		Clock:           timegetter.NewTimeGetter(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BeforeSave implements [BeforeSaver].
func (t *Timestamp) BeforeSave(_ context.Context, owner Owner) bool {
	clock := t.Clock
	if clock == nil {
		clock = timegetter.NewTimeGetter()
	}
	now := clock.GetTime()
	isNew := owner.IsNewRecord()
	if isNew && t.CreateAttribute != "" {
		if !set(owner, t.CreateAttribute, now) {
			return false
		}
	}
	if (!isNew || t.SetUpdateOnCreate) && t.UpdateAttribute != "" {
		if !set(owner, t.UpdateAttribute, now) {
			return false
		}
	}
	return true
}
