package cursor

import (
	"context"
	"errors"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Slice implements [domain.DriverCursor] over documents already in memory.
type Slice struct {
	data   []domain.Document
	ctx    context.Context
	cancel context.CancelCauseFunc
	index  int
}

// NewSlice returns a cursor over data. Closing it, or canceling ctx, stops
// the iteration.
func NewSlice(ctx context.Context, data []domain.Document) (*Slice, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ctx, cancel := context.WithCancelCause(ctx)
	return &Slice{
		ctx:    ctx,
		cancel: cancel,
		index:  -1,
		data:   data,
	}, nil
}

// Err implements [domain.DriverCursor]. Closing is not reported as an error.
func (c *Slice) Err() error {
	err := context.Cause(c.ctx)
	if errors.Is(err, domain.ErrCursorClosed) {
		return nil
	}
	return err
}

// Current implements [domain.DriverCursor]. The returned document is a copy.
func (c *Slice) Current() (domain.Document, error) {
	select {
	case <-c.ctx.Done():
		return nil, context.Cause(c.ctx)
	default:
	}
	if c.index < 0 {
		return nil, domain.ErrCurrentBeforeNext
	}
	return doc.CloneDoc(c.data[c.index]), nil
}

// Close implements [domain.DriverCursor].
func (c *Slice) Close(context.Context) error {
	select {
	case <-c.ctx.Done():
		return nil
	default:
	}
	c.cancel(domain.ErrCursorClosed)
	c.data = nil
	return nil
}

// Next implements [domain.DriverCursor].
func (c *Slice) Next(ctx context.Context) bool {
	select {
	case <-c.ctx.Done():
		return false
	case <-ctx.Done():
		c.cancel(ctx.Err())
		return false
	default:
	}
	if c.index+1 < len(c.data) {
		c.index++
		return true
	}
	return false
}
