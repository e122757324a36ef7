package mongodriver

import (
	"context"
	"errors"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection implements [domain.Collection].
type Collection struct {
	db   *Database
	name string
}

// Name implements [domain.Collection].
func (c *Collection) Name() string { return c.name }

// handle returns the driver collection, using wc for writes when set.
func (c *Collection) handle(wc domain.WriteConcern) (*mongo.Collection, error) {
	mdb, err := c.db.handle()
	if err != nil {
		return nil, err
	}
	opts := options.Collection()
	if w := writeConcernOf(wc); w != nil {
		opts.SetWriteConcern(w)
	}
	return mdb.Collection(c.name, opts), nil
}

func findOptionsOf(opts domain.FindOptions) *options.FindOptions {
	fo := options.Find()
	if s := sortOf(opts.Sort); s != nil {
		fo.SetSort(s)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if opts.Projection != nil {
		fo.SetProjection(toBSON(opts.Projection))
	}
	return fo
}

// Find implements [domain.Collection].
func (c *Collection) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.DriverCursor, error) {
	coll, err := c.handle(domain.WriteConcern{})
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, filterOf(filter), findOptionsOf(opts))
	if err != nil {
		return nil, err
	}
	return &Cursor{cur: cur}, nil
}

// FindOne implements [domain.Collection].
func (c *Collection) FindOne(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.Document, error) {
	coll, err := c.handle(domain.WriteConcern{})
	if err != nil {
		return nil, err
	}
	fo := options.FindOne()
	if s := sortOf(opts.Sort); s != nil {
		fo.SetSort(s)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Projection != nil {
		fo.SetProjection(toBSON(opts.Projection))
	}
	var m bson.M
	err = coll.FindOne(ctx, filterOf(filter), fo).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return documentOf(m), nil
}

// Insert implements [domain.Collection].
func (c *Collection) Insert(ctx context.Context, docs []domain.Document, wc domain.WriteConcern) (domain.WriteResult, error) {
	coll, err := c.handle(wc)
	if err != nil {
		return domain.WriteResult{}, err
	}
	items := make([]any, len(docs))
	for n, doc := range docs {
		items[n] = filterOf(doc)
	}
	res, err := coll.InsertMany(ctx, items)
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return domain.WriteResult{}, nil
	}
	if err != nil {
		return domain.WriteResult{}, err
	}
	ids := make([]any, len(res.InsertedIDs))
	for n, id := range res.InsertedIDs {
		ids[n] = fromBSON(id)
	}
	return domain.WriteResult{Acknowledged: true, InsertedIDs: ids}, nil
}

// hasOperators reports whether update is made of update operators rather than
// being a replacement document.
func hasOperators(update domain.Document) bool {
	for k := range update {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// Update implements [domain.Collection].
func (c *Collection) Update(ctx context.Context, filter, update domain.Document, opts domain.UpdateOptions) (domain.WriteResult, error) {
	coll, err := c.handle(opts.WriteConcern)
	if err != nil {
		return domain.WriteResult{}, err
	}

	var res *mongo.UpdateResult
	switch {
	case !hasOperators(update):
		ro := options.Replace().SetUpsert(opts.Upsert)
		res, err = coll.ReplaceOne(ctx, filterOf(filter), filterOf(update), ro)
	case opts.Multiple:
		uo := options.Update().SetUpsert(opts.Upsert)
		res, err = coll.UpdateMany(ctx, filterOf(filter), filterOf(update), uo)
	default:
		uo := options.Update().SetUpsert(opts.Upsert)
		res, err = coll.UpdateOne(ctx, filterOf(filter), filterOf(update), uo)
	}
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return domain.WriteResult{}, nil
	}
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.WriteResult{
		Acknowledged: true,
		Matched:      res.MatchedCount,
		Modified:     res.ModifiedCount,
		UpsertedID:   fromBSON(res.UpsertedID),
	}, nil
}

// Remove implements [domain.Collection].
func (c *Collection) Remove(ctx context.Context, filter domain.Document, opts domain.RemoveOptions) (domain.WriteResult, error) {
	coll, err := c.handle(opts.WriteConcern)
	if err != nil {
		return domain.WriteResult{}, err
	}
	var res *mongo.DeleteResult
	if opts.JustOne {
		res, err = coll.DeleteOne(ctx, filterOf(filter))
	} else {
		res, err = coll.DeleteMany(ctx, filterOf(filter))
	}
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return domain.WriteResult{}, nil
	}
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.WriteResult{Acknowledged: true, Deleted: res.DeletedCount}, nil
}

// Count implements [domain.Collection].
func (c *Collection) Count(ctx context.Context, filter domain.Document, opts domain.CountOptions) (int64, error) {
	coll, err := c.handle(domain.WriteConcern{})
	if err != nil {
		return 0, err
	}
	co := options.Count()
	if opts.Skip > 0 {
		co.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		co.SetLimit(opts.Limit)
	}
	return coll.CountDocuments(ctx, filterOf(filter), co)
}

// Aggregate implements [domain.Collection].
func (c *Collection) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	coll, err := c.handle(domain.WriteConcern{})
	if err != nil {
		return nil, err
	}
	stages := make(bson.A, len(pipeline))
	for n, stage := range pipeline {
		stages[n] = commandOf(stage)
	}
	cur, err := coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	res := make([]domain.Document, len(raw))
	for n, m := range raw {
		res[n] = documentOf(m)
	}
	return res, nil
}
