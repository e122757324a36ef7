package mongodriver

import (
	"context"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Cursor implements [domain.DriverCursor] over a server cursor.
type Cursor struct {
	cur *mongo.Cursor
}

// Next implements [domain.DriverCursor].
func (c *Cursor) Next(ctx context.Context) bool {
	return c.cur.Next(ctx)
}

// Current implements [domain.DriverCursor].
func (c *Cursor) Current() (domain.Document, error) {
	if c.cur.Current == nil {
		return nil, domain.ErrCurrentBeforeNext
	}
	var m bson.M
	if err := c.cur.Decode(&m); err != nil {
		return nil, err
	}
	return documentOf(m), nil
}

// Err implements [domain.DriverCursor].
func (c *Cursor) Err() error {
	return c.cur.Err()
}

// Close implements [domain.DriverCursor].
func (c *Cursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
