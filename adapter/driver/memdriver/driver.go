// Package memdriver implements the driver interfaces in memory. Data can be
// loaded from and saved to a datafile, which stays locked while the driver is
// connected.
package memdriver

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/godm/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/godm/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/godm/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/godm/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/godm/adapter/modifier"
	"github.com/vinicius-lino-figueiredo/godm/adapter/persistence"
	"github.com/vinicius-lino-figueiredo/godm/adapter/projector"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/ctxsync"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// IDLength is the length of the identifiers returned by [Driver.NewID].
const IDLength = 24

// Driver implements [domain.Driver].
type Driver struct {
	mu          *ctxsync.RWMutex
	dbs         map[string]*Database
	connected   bool
	datafile    string
	persistence domain.Persistence

	logger         *zap.Logger
	idGenerator    domain.IDGenerator
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
	matcher        *matcher.Matcher
	modifier       domain.Modifier
	projector      domain.Projector
}

// NewDriver returns a new in-memory [domain.Driver].
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		mu:     ctxsync.NewRWMutex(),
		dbs:    make(map[string]*Database),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.idGenerator == nil {
		d.idGenerator = idgenerator.NewIDGenerator()
	}
	if d.comparer == nil {
		d.comparer = comparer.NewComparer()
	}
	if d.fieldNavigator == nil {
		d.fieldNavigator = fieldnavigator.NewFieldNavigator()
	}
	d.matcher = matcher.NewMatcher(
		matcher.WithComparer(d.comparer),
		matcher.WithFieldNavigator(d.fieldNavigator),
	).(*matcher.Matcher)
	d.modifier = modifier.NewModifier(
		modifier.WithComparer(d.comparer),
		modifier.WithFieldNavigator(d.fieldNavigator),
		modifier.WithMatcher(d.matcher),
	)
	d.projector = projector.NewProjector(
		projector.WithFieldNavigator(d.fieldNavigator),
	)
	return d
}

// Connect implements [domain.Driver]. With a datafile, it locks the file and
// loads every collection it holds.
func (d *Driver) Connect(ctx context.Context) error {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}
	if d.persistence == nil && d.datafile != "" {
		p, err := persistence.NewPersistence(persistence.WithFilename(d.datafile))
		if err != nil {
			return err
		}
		d.persistence = p
	}
	if d.persistence != nil {
		data, err := d.persistence.Load(ctx)
		if err != nil {
			return err
		}
		if err := d.restore(data); err != nil {
			return multierr.Append(err, d.persistence.Close())
		}
		d.logger.Debug("datafile loaded",
			zap.String("datafile", d.datafile),
			zap.Int("collections", len(data)),
		)
	}
	d.connected = true
	return nil
}

func (d *Driver) restore(data map[string][]domain.Document) error {
	d.dbs = make(map[string]*Database)
	for key, docs := range data {
		dbName, collName, ok := strings.Cut(key, ".")
		if !ok {
			continue
		}
		coll := d.database(dbName).collection(collName)
		if err := coll.reset(docs); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect implements [domain.Driver]. With a datafile, data is saved and
// the lock released. The data stays in memory for the next connection.
func (d *Driver) Disconnect(ctx context.Context) error {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false
	if d.persistence == nil {
		return nil
	}
	err := d.save(ctx)
	return multierr.Append(err, d.persistence.Close())
}

// Flush saves the data to the datafile without disconnecting.
func (d *Driver) Flush(ctx context.Context) error {
	if err := d.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.Unlock()

	if !d.connected {
		return domain.ErrNotConnected
	}
	if d.persistence == nil {
		return nil
	}
	return d.save(ctx)
}

func (d *Driver) save(ctx context.Context) error {
	data := make(map[string][]domain.Document)
	for _, dbName := range slices.Sorted(maps.Keys(d.dbs)) {
		db := d.dbs[dbName]
		for collName, coll := range db.colls {
			docs, err := coll.snapshot(ctx)
			if err != nil {
				return err
			}
			data[dbName+"."+collName] = docs
		}
	}
	if err := d.persistence.Save(ctx, data); err != nil {
		d.logger.Warn("datafile save failed", zap.String("datafile", d.datafile), zap.Error(err))
		return err
	}
	d.logger.Debug("datafile saved", zap.String("datafile", d.datafile), zap.Int("collections", len(data)))
	return nil
}

// Database implements [domain.Driver].
func (d *Driver) Database(name string) domain.Database {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.database(name)
}

func (d *Driver) database(name string) *Database {
	db, ok := d.dbs[name]
	if !ok {
		db = &Database{driver: d, name: name, colls: make(map[string]*Collection)}
		d.dbs[name] = db
	}
	return db
}

func (d *Driver) isConnected(ctx context.Context) error {
	if err := d.mu.RLockWithContext(ctx); err != nil {
		return err
	}
	defer d.mu.RUnlock()
	if !d.connected {
		return domain.ErrNotConnected
	}
	return nil
}

// NewID implements [domain.Driver]. Identifiers are hex strings.
func (d *Driver) NewID() any {
	id, err := d.idGenerator.GenerateID(IDLength)
	if err != nil {
		d.logger.Warn("id generation failed, using a plain uuid", zap.Error(err))
		return uuid.NewString()
	}
	return id
}

// ToID implements [domain.Driver]. Any value can be an identifier.
func (d *Driver) ToID(v any) (any, error) {
	return v, nil
}
