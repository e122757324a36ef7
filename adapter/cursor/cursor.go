// Package cursor contains the lazy query cursor returned by find operations
// and a [domain.DriverCursor] over in-memory documents.
package cursor

import (
	"context"
	"maps"
	"slices"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Populator turns a raw document into a result.
type Populator[T any] func(ctx context.Context, d domain.Document) (T, error)

// Cursor is a lazy query over a collection. The query only runs on the first
// call to [Cursor.Next]; until then, its sort, skip, limit and projection can
// be changed. Results are built by the populator on [Cursor.Current].
type Cursor[T any] struct {
	coll     domain.Collection
	filter   domain.Document
	opts     domain.FindOptions
	populate Populator[T]

	raw     domain.DriverCursor
	empty   bool
	started bool
	closed  bool
	current domain.Document
	err     error
}

// New returns a cursor over the documents of coll matching filter.
func New[T any](coll domain.Collection, filter domain.Document, opts domain.FindOptions, populate Populator[T]) *Cursor[T] {
	return &Cursor[T]{
		coll:     coll,
		filter:   filter,
		opts:     opts,
		populate: populate,
	}
}

// Empty returns a cursor without results. It never queries a collection.
func Empty[T any](populate Populator[T]) *Cursor[T] {
	return &Cursor[T]{populate: populate, empty: true}
}

// Filter returns the query condition.
func (c *Cursor[T]) Filter() domain.Document {
	return maps.Clone(c.filter)
}

// Options returns the query options.
func (c *Cursor[T]) Options() domain.FindOptions {
	return c.opts
}

func (c *Cursor[T]) check(op string) error {
	if c.started {
		return &domain.IllegalStateError{Op: op}
	}
	return nil
}

// Sort replaces the sort of the query.
func (c *Cursor[T]) Sort(s domain.Sort) error {
	if err := c.check("sort"); err != nil {
		return err
	}
	c.opts.Sort = slices.Clone(s)
	return nil
}

// Skip replaces the number of documents skipped.
func (c *Cursor[T]) Skip(n int64) error {
	if err := c.check("skip"); err != nil {
		return err
	}
	c.opts.Skip = max(n, 0)
	return nil
}

// Limit replaces the maximum number of documents returned.
func (c *Cursor[T]) Limit(n int64) error {
	if err := c.check("limit"); err != nil {
		return err
	}
	c.opts.Limit = max(n, 0)
	return nil
}

// Select replaces the projection.
func (c *Cursor[T]) Select(projection domain.Document) error {
	if err := c.check("select"); err != nil {
		return err
	}
	c.opts.Projection = maps.Clone(projection)
	return nil
}

// Next runs the query if needed and advances to the next document.
func (c *Cursor[T]) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if c.empty {
		c.started = true
		return false
	}
	if !c.started {
		c.started = true
		raw, err := c.coll.Find(ctx, c.filter, c.opts)
		if err != nil {
			c.err = err
			return false
		}
		c.raw = raw
	}
	if !c.raw.Next(ctx) {
		c.current = nil
		c.err = c.raw.Err()
		return false
	}
	d, err := c.raw.Current()
	if err != nil {
		c.err = err
		return false
	}
	c.current = d
	return true
}

// Current builds the result for the current document.
func (c *Cursor[T]) Current(ctx context.Context) (T, error) {
	var zero T
	if c.closed {
		return zero, domain.ErrCursorClosed
	}
	if c.current == nil {
		return zero, domain.ErrCurrentBeforeNext
	}
	return c.populate(ctx, c.current)
}

// Document returns the current raw document.
func (c *Cursor[T]) Document() domain.Document {
	return c.current
}

// Raw returns the driver cursor, or nil if the query did not run yet.
func (c *Cursor[T]) Raw() domain.DriverCursor {
	return c.raw
}

// Count counts the documents matching the query. With applySkipLimit, the
// skip and limit of the cursor are honored.
func (c *Cursor[T]) Count(ctx context.Context, applySkipLimit bool) (int64, error) {
	if c.empty {
		return 0, nil
	}
	var opts domain.CountOptions
	if applySkipLimit {
		opts.Skip = c.opts.Skip
		opts.Limit = c.opts.Limit
	}
	return c.coll.Count(ctx, c.filter, opts)
}

// All reads every remaining result and closes the cursor.
func (c *Cursor[T]) All(ctx context.Context) ([]T, error) {
	defer c.Close(ctx)
	var res []T
	for c.Next(ctx) {
		v, err := c.Current(ctx)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Err returns the error that stopped the iteration, if any.
func (c *Cursor[T]) Err() error {
	return c.err
}

// Close releases the driver cursor. Closing twice is a no-op.
func (c *Cursor[T]) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.current = nil
	if c.raw != nil {
		return c.raw.Close(ctx)
	}
	return nil
}
