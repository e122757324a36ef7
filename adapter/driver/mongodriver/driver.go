// Package mongodriver implements the driver interfaces on top of the official
// MongoDB Go driver.
package mongodriver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/tag"
	"go.uber.org/zap"
)

// DefaultURI is used when no server is configured.
const DefaultURI = "mongodb://localhost:27017"

// ErrInvalidID is returned by [Driver.ToID] for values that are not object
// ids in any known form.
var ErrInvalidID = errors.New("invalid object id")

// Driver implements [domain.Driver].
type Driver struct {
	mu      sync.RWMutex
	client  *mongo.Client
	uri     string
	mode    string
	tags    []map[string]string
	logger  *zap.Logger
}

// NewDriver returns a new [Driver]. It does not connect.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		uri:    DefaultURI,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect implements [domain.Driver].
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return nil
	}

	opts, err := d.clientOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return err
	}
	d.logger.Debug("connected", zap.String("uri", d.uri))
	d.client = client
	return nil
}

func (d *Driver) clientOptions() (*options.ClientOptions, error) {
	opts := options.Client().ApplyURI(d.uri)
	rp, err := readPreferenceOf(d.mode, d.tags)
	if err != nil {
		return nil, err
	}
	if rp != nil {
		opts.SetReadPreference(rp)
	}
	return opts, nil
}

// readPreferenceOf builds a read preference. An empty mode keeps the driver
// default.
func readPreferenceOf(mode string, tags []map[string]string) (*readpref.ReadPref, error) {
	if mode == "" {
		return nil, nil
	}
	m, err := readpref.ModeFromString(mode)
	if err != nil {
		return nil, fmt.Errorf("read preference %q: %w", mode, err)
	}
	if len(tags) == 0 {
		return readpref.New(m)
	}
	sets := make([]tag.Set, len(tags))
	for n, t := range tags {
		sets[n] = tag.NewTagSetFromMap(t)
	}
	return readpref.New(m, readpref.WithTagSets(sets...))
}

// Disconnect implements [domain.Driver].
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Disconnect(ctx)
	d.client = nil
	return err
}

func (d *Driver) connected() (*mongo.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, domain.ErrNotConnected
	}
	return d.client, nil
}

// Database implements [domain.Driver].
func (d *Driver) Database(name string) domain.Database {
	return &Database{driver: d, name: name}
}

// NewID implements [domain.Driver].
func (d *Driver) NewID() any {
	return primitive.NewObjectID()
}

// ToID implements [domain.Driver]. Hex strings are converted to object ids.
func (d *Driver) ToID(v any) (any, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case *primitive.ObjectID:
		if t != nil {
			return *t, nil
		}
	case string:
		id, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, t)
		}
		return id, nil
	case [12]byte:
		return primitive.ObjectID(t), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidID, v)
}
