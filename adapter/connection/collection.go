package connection

import (
	"context"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// lazyCollection resolves the real collection on every call, so a handle can
// be taken before the connection is opened.
type lazyCollection struct {
	conn *Connection
	name string
}

func (l *lazyCollection) resolve(ctx context.Context) (domain.Collection, error) {
	db, err := l.conn.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(l.name), nil
}

// Name implements [domain.Collection].
func (l *lazyCollection) Name() string {
	return l.name
}

// Find implements [domain.Collection].
func (l *lazyCollection) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.DriverCursor, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Find(ctx, filter, opts)
}

// FindOne implements [domain.Collection].
func (l *lazyCollection) FindOne(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.Document, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return coll.FindOne(ctx, filter, opts)
}

// Insert implements [domain.Collection].
func (l *lazyCollection) Insert(ctx context.Context, docs []domain.Document, wc domain.WriteConcern) (domain.WriteResult, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return coll.Insert(ctx, docs, wc)
}

// Update implements [domain.Collection].
func (l *lazyCollection) Update(ctx context.Context, filter, update domain.Document, opts domain.UpdateOptions) (domain.WriteResult, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return coll.Update(ctx, filter, update, opts)
}

// Remove implements [domain.Collection].
func (l *lazyCollection) Remove(ctx context.Context, filter domain.Document, opts domain.RemoveOptions) (domain.WriteResult, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return coll.Remove(ctx, filter, opts)
}

// Count implements [domain.Collection].
func (l *lazyCollection) Count(ctx context.Context, filter domain.Document, opts domain.CountOptions) (int64, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return coll.Count(ctx, filter, opts)
}

// Aggregate implements [domain.Collection].
func (l *lazyCollection) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	coll, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Aggregate(ctx, pipeline)
}
