package command

import (
	"context"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

func (c *Command) prepare() (domain.Collection, error) {
	if c.collection == "" {
		return nil, domain.ErrNoCollection
	}
	return c.conn.Collection(c.collection), nil
}

func (c *Command) writeConcern(wc []domain.WriteConcern) domain.WriteConcern {
	res := c.conn.DefaultWriteConcern()
	for _, w := range wc {
		res = res.Overlay(w)
	}
	return res
}

func (c *Command) persistenceError(op string, err error) error {
	return &domain.PersistenceError{Op: op, Collection: c.collection, Err: err}
}

// GetCursor runs the staged query and returns the raw driver cursor. The
// builder is reset before the cursor is returned.
func (c *Command) GetCursor(ctx context.Context) (cur domain.DriverCursor, err error) {
	defer c.clear("get")
	coll, err := c.prepare()
	if err != nil {
		return nil, err
	}
	defer c.profile("get", time.Now(), &err)
	cur, err = coll.Find(ctx, c.Wheres(), c.findOptions())
	if err != nil {
		return nil, c.persistenceError("get", err)
	}
	return cur, nil
}

// Get runs the staged query and returns every matching document.
func (c *Command) Get(ctx context.Context) ([]domain.Document, error) {
	cur, err := c.GetCursor(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var res []domain.Document
	for cur.Next(ctx) {
		d, err := cur.Current()
		if err != nil {
			return nil, c.persistenceError("get", err)
		}
		res = append(res, d)
	}
	if err := cur.Err(); err != nil {
		return nil, c.persistenceError("get", err)
	}
	return res, nil
}

// GetOne runs the staged query and returns the first matching document, or
// nil if there is none.
func (c *Command) GetOne(ctx context.Context) (d domain.Document, err error) {
	defer c.clear("getOne")
	coll, err := c.prepare()
	if err != nil {
		return nil, err
	}
	defer c.profile("getOne", time.Now(), &err)
	opts := c.findOptions()
	opts.Limit = 1
	d, err = coll.FindOne(ctx, c.Wheres(), opts)
	if err != nil {
		return nil, c.persistenceError("getOne", err)
	}
	return d, nil
}

// GetOneWhere adds conds to the condition and runs [Command.GetOne].
func (c *Command) GetOneWhere(ctx context.Context, conds domain.Document) (domain.Document, error) {
	return c.WhereMap(conds).GetOne(ctx)
}

// Count counts the documents matching the staged condition, honoring the
// staged offset and limit.
func (c *Command) Count(ctx context.Context) (n int64, err error) {
	defer c.clear("count")
	coll, err := c.prepare()
	if err != nil {
		return 0, err
	}
	defer c.profile("count", time.Now(), &err)
	n, err = coll.Count(ctx, c.Wheres(), domain.CountOptions{Skip: c.offset, Limit: c.limit})
	if err != nil {
		return 0, c.persistenceError("count", err)
	}
	return n, nil
}

// Insert writes document and returns its primary key, generating one if the
// document has none. The given document is not modified.
func (c *Command) Insert(ctx context.Context, document domain.Document, wc ...domain.WriteConcern) (id any, err error) {
	defer c.clear("insert")
	if len(document) == 0 {
		return nil, &domain.EmptyOperationError{Op: "insert"}
	}
	coll, err := c.prepare()
	if err != nil {
		return nil, err
	}
	defer c.profile("insert", time.Now(), &err)

	d := c.withID(document)
	if _, err = coll.Insert(ctx, []domain.Document{d}, c.writeConcern(wc)); err != nil {
		return nil, c.persistenceError("insert", err)
	}
	return d[domain.DefaultPrimaryKey], nil
}

// BatchInsert writes every document and returns their primary keys.
func (c *Command) BatchInsert(ctx context.Context, documents []domain.Document, wc ...domain.WriteConcern) (ids []any, err error) {
	defer c.clear("batchInsert")
	if len(documents) == 0 {
		return nil, &domain.EmptyOperationError{Op: "batchInsert"}
	}
	for _, d := range documents {
		if len(d) == 0 {
			return nil, &domain.EmptyOperationError{Op: "batchInsert"}
		}
	}
	coll, err := c.prepare()
	if err != nil {
		return nil, err
	}
	defer c.profile("batchInsert", time.Now(), &err)

	docs := make([]domain.Document, len(documents))
	ids = make([]any, len(documents))
	for n, d := range documents {
		docs[n] = c.withID(d)
		ids[n] = docs[n][domain.DefaultPrimaryKey]
	}
	if _, err = coll.Insert(ctx, docs, c.writeConcern(wc)); err != nil {
		return nil, c.persistenceError("batchInsert", err)
	}
	return ids, nil
}

func (c *Command) withID(d domain.Document) domain.Document {
	res := make(domain.Document, len(d)+1)
	for k, v := range d {
		res[k] = v
	}
	if res[domain.DefaultPrimaryKey] == nil {
		res[domain.DefaultPrimaryKey] = c.conn.Driver().NewID()
	}
	return res
}

// Update applies the staged update to the first document matching the staged
// condition. It returns false when the write was acknowledged but matched no
// document.
func (c *Command) Update(ctx context.Context, wc ...domain.WriteConcern) (bool, error) {
	res, err := c.runUpdate(ctx, "update", domain.UpdateOptions{WriteConcern: c.writeConcern(wc)})
	if err != nil {
		return false, err
	}
	return res.UpdatedExisting(), nil
}

// Upsert applies the staged update to the first matching document, inserting
// one if none matches.
func (c *Command) Upsert(ctx context.Context, wc ...domain.WriteConcern) (bool, error) {
	_, err := c.runUpdate(ctx, "upsert", domain.UpdateOptions{WriteConcern: c.writeConcern(wc), Upsert: true})
	return err == nil, err
}

// UpdateAll applies the staged update to every matching document.
func (c *Command) UpdateAll(ctx context.Context, wc ...domain.WriteConcern) (bool, error) {
	_, err := c.runUpdate(ctx, "updateAll", domain.UpdateOptions{WriteConcern: c.writeConcern(wc), Multiple: true})
	return err == nil, err
}

func (c *Command) runUpdate(ctx context.Context, action string, opts domain.UpdateOptions) (res domain.WriteResult, err error) {
	defer c.clear(action)
	if len(c.updates) == 0 {
		return res, &domain.EmptyOperationError{Op: action}
	}
	coll, err := c.prepare()
	if err != nil {
		return res, err
	}
	defer c.profile(action, time.Now(), &err)
	res, err = coll.Update(ctx, c.Wheres(), c.Updates(), opts)
	if err != nil {
		return res, c.persistenceError(action, err)
	}
	return res, nil
}

// Delete removes the first document matching the staged condition.
func (c *Command) Delete(ctx context.Context, wc ...domain.WriteConcern) (bool, error) {
	return c.runDelete(ctx, "delete", true, wc)
}

// DeleteAll removes every document matching the staged condition.
func (c *Command) DeleteAll(ctx context.Context, wc ...domain.WriteConcern) (bool, error) {
	return c.runDelete(ctx, "deleteAll", false, wc)
}

func (c *Command) runDelete(ctx context.Context, action string, justOne bool, wc []domain.WriteConcern) (ok bool, err error) {
	defer c.clear(action)
	coll, err := c.prepare()
	if err != nil {
		return false, err
	}
	defer c.profile(action, time.Now(), &err)
	opts := domain.RemoveOptions{WriteConcern: c.writeConcern(wc), JustOne: justOne}
	if _, err = coll.Remove(ctx, c.Wheres(), opts); err != nil {
		return false, c.persistenceError(action, err)
	}
	return true, nil
}
