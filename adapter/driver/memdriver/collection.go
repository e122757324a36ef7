package memdriver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/cursor"
	"github.com/vinicius-lino-figueiredo/godm/adapter/index"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/ctxsync"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Collection implements [domain.Collection]. Stored documents are never
// changed in place: updates replace them.
type Collection struct {
	db    *Database
	name  string
	mu    *ctxsync.RWMutex
	docs  []domain.Document
	index domain.Index
}

func newCollection(db *Database, name string) *Collection {
	// _id is always a valid address.
	idx, _ := index.NewIndex(
		index.WithComparer(db.driver.comparer),
		index.WithFieldNavigator(db.driver.fieldNavigator),
	)
	return &Collection{
		db:    db,
		name:  name,
		mu:    ctxsync.NewRWMutex(),
		index: idx,
	}
}

// Name implements [domain.Collection].
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) lock(ctx context.Context) error {
	if err := c.db.driver.isConnected(ctx); err != nil {
		return err
	}
	return c.mu.LockWithContext(ctx)
}

func (c *Collection) rlock(ctx context.Context) error {
	if err := c.db.driver.isConnected(ctx); err != nil {
		return err
	}
	return c.mu.RLockWithContext(ctx)
}

func (c *Collection) reset(docs []domain.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = slices.Clone(docs)
	return c.index.Reset(c.docs...)
}

func (c *Collection) snapshot(ctx context.Context) ([]domain.Document, error) {
	if err := c.mu.RLockWithContext(ctx); err != nil {
		return nil, err
	}
	defer c.mu.RUnlock()
	return slices.Clone(c.docs), nil
}

// Find implements [domain.Collection].
func (c *Collection) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.DriverCursor, error) {
	docs, err := c.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return cursor.NewSlice(ctx, docs)
}

// FindOne implements [domain.Collection].
func (c *Collection) FindOne(ctx context.Context, filter domain.Document, opts domain.FindOptions) (domain.Document, error) {
	opts.Limit = 1
	docs, err := c.find(ctx, filter, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (c *Collection) find(ctx context.Context, filter domain.Document, opts domain.FindOptions) ([]domain.Document, error) {
	if err := c.rlock(ctx); err != nil {
		return nil, err
	}
	defer c.mu.RUnlock()

	positions, err := c.matching(filter)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(positions))
	for n, p := range positions {
		docs[n] = c.docs[p]
	}
	if err := c.sort(docs, opts.Sort); err != nil {
		return nil, err
	}
	docs = window(docs, opts.Skip, opts.Limit)
	return c.output(docs, opts.Projection)
}

func (c *Collection) output(docs []domain.Document, proj domain.Document) ([]domain.Document, error) {
	if len(proj) > 0 {
		var err error
		if docs, err = c.db.driver.projector.Project(docs, proj); err != nil {
			return nil, err
		}
	}
	res := make([]domain.Document, len(docs))
	for n, d := range docs {
		res[n] = doc.CloneDoc(d)
	}
	return res, nil
}

// matching returns the positions of the documents matching filter, in
// insertion order.
func (c *Collection) matching(filter domain.Document) ([]int, error) {
	if id, ok := c.idOnly(filter); ok {
		found, err := c.index.Lookup(id)
		if err != nil {
			return nil, err
		}
		positions := make([]int, 0, len(found))
		for _, d := range found {
			if p := c.position(d); p >= 0 {
				positions = append(positions, p)
			}
		}
		slices.Sort(positions)
		return positions, nil
	}

	lo, err := c.db.driver.matcher.Compile(filter)
	if err != nil {
		return nil, err
	}
	var positions []int
	for p, d := range c.docs {
		ok, err := c.db.driver.matcher.MatchCompiled(d, lo)
		if err != nil {
			return nil, err
		}
		if ok {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

// idOnly reports whether filter is a plain equality on the primary key.
func (c *Collection) idOnly(filter domain.Document) (any, bool) {
	if len(filter) != 1 {
		return nil, false
	}
	id, ok := filter[domain.DefaultPrimaryKey]
	if !ok || id == nil {
		return nil, false
	}
	switch reflect.ValueOf(id).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer:
		return nil, false
	}
	if _, ok := id.(domain.Regex); ok {
		return nil, false
	}
	return id, true
}

func (c *Collection) position(d domain.Document) int {
	ptr := reflect.ValueOf(d).UnsafePointer()
	return slices.IndexFunc(c.docs, func(x domain.Document) bool {
		return reflect.ValueOf(x).UnsafePointer() == ptr
	})
}

func (c *Collection) value(d domain.Document, field string) (any, error) {
	fn := c.db.driver.fieldNavigator
	addr, err := fn.GetAddress(field)
	if err != nil {
		return nil, err
	}
	fields, expanded, err := fn.GetField(d, addr...)
	if err != nil {
		return nil, err
	}
	if !expanded {
		v, _ := fields[0].Get()
		return v, nil
	}
	values := make([]any, 0, len(fields))
	for _, f := range fields {
		if v, ok := f.Get(); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

func (c *Collection) sort(docs []domain.Document, s domain.Sort) error {
	if len(s) == 0 {
		return nil
	}
	var sortErr error
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		for _, sn := range s {
			va, err := c.value(a, sn.Key)
			if err != nil {
				sortErr = cmpErr(sortErr, err)
				return 0
			}
			vb, err := c.value(b, sn.Key)
			if err != nil {
				sortErr = cmpErr(sortErr, err)
				return 0
			}
			res, err := c.db.driver.comparer.Compare(va, vb)
			if err != nil {
				sortErr = cmpErr(sortErr, err)
				return 0
			}
			if res != 0 {
				if sn.Order < 0 {
					return -res
				}
				return res
			}
		}
		return 0
	})
	return sortErr
}

func cmpErr(prev, err error) error {
	if prev != nil {
		return prev
	}
	return err
}

func window(docs []domain.Document, skip, limit int64) []domain.Document {
	skip = min(max(skip, 0), int64(len(docs)))
	docs = docs[skip:]
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}

// Insert implements [domain.Collection]. Documents without a primary key get
// one from the driver. Either every document is inserted or none is.
func (c *Collection) Insert(ctx context.Context, docs []domain.Document, wc domain.WriteConcern) (domain.WriteResult, error) {
	if err := c.lock(ctx); err != nil {
		return domain.WriteResult{}, err
	}
	defer c.mu.Unlock()

	prepared := make([]domain.Document, len(docs))
	ids := make([]any, len(docs))
	for n, d := range docs {
		nd, _ := doc.Normalize(d).(domain.Document)
		if nd == nil {
			nd = domain.Document{}
		}
		if nd[domain.DefaultPrimaryKey] == nil {
			nd[domain.DefaultPrimaryKey] = c.db.driver.NewID()
		}
		prepared[n] = nd
		ids[n] = nd[domain.DefaultPrimaryKey]
	}
	if err := c.index.Insert(prepared...); err != nil {
		return domain.WriteResult{}, err
	}
	c.docs = append(c.docs, prepared...)
	return domain.WriteResult{Acknowledged: wc.Acknowledged(), InsertedIDs: ids}, nil
}

// Update implements [domain.Collection]. Without Multiple, only the first
// matching document in insertion order is updated. An upsert builds the new
// document from the equality conditions of filter.
func (c *Collection) Update(ctx context.Context, filter, update domain.Document, opts domain.UpdateOptions) (domain.WriteResult, error) {
	if err := c.lock(ctx); err != nil {
		return domain.WriteResult{}, err
	}
	defer c.mu.Unlock()

	update, _ = doc.Normalize(update).(domain.Document)
	res := domain.WriteResult{Acknowledged: opts.WriteConcern.Acknowledged()}

	positions, err := c.matching(filter)
	if err != nil {
		return domain.WriteResult{}, err
	}
	if !opts.Multiple && len(positions) > 1 {
		positions = positions[:1]
	}
	if len(positions) == 0 {
		if !opts.Upsert {
			return res, nil
		}
		return c.upsert(filter, update, res)
	}

	olds := make([]domain.Document, len(positions))
	news := make([]domain.Document, len(positions))
	for n, p := range positions {
		olds[n] = c.docs[p]
		if news[n], err = c.db.driver.modifier.Modify(c.docs[p], update); err != nil {
			return domain.WriteResult{}, err
		}
	}
	if err := c.swapIndexed(olds, news); err != nil {
		return domain.WriteResult{}, err
	}

	for n, p := range positions {
		c.docs[p] = news[n]
		res.Matched++
		if same, err := c.db.driver.comparer.Compare(olds[n], news[n]); err != nil || same != 0 {
			res.Modified++
		}
	}
	return res, nil
}

func (c *Collection) swapIndexed(olds, news []domain.Document) error {
	if err := c.index.Remove(olds...); err != nil {
		return err
	}
	if err := c.index.Insert(news...); err != nil {
		return errors.Join(err, c.index.Insert(olds...))
	}
	return nil
}

func (c *Collection) upsert(filter, update domain.Document, res domain.WriteResult) (domain.WriteResult, error) {
	base, err := c.upsertBase(filter)
	if err != nil {
		return domain.WriteResult{}, err
	}
	nd, err := c.db.driver.modifier.Modify(base, update)
	if err != nil {
		return domain.WriteResult{}, err
	}
	if nd[domain.DefaultPrimaryKey] == nil {
		nd[domain.DefaultPrimaryKey] = c.db.driver.NewID()
	}
	if err := c.index.Insert(nd); err != nil {
		return domain.WriteResult{}, err
	}
	c.docs = append(c.docs, nd)
	res.UpsertedID = nd[domain.DefaultPrimaryKey]
	return res, nil
}

// upsertBase keeps the fields of filter compared by equality.
func (c *Collection) upsertBase(filter domain.Document) (domain.Document, error) {
	base := domain.Document{}
	for k, v := range filter {
		if strings.HasPrefix(k, "$") {
			continue
		}
		switch t := v.(type) {
		case domain.Regex, *regexp.Regexp:
			continue
		case domain.Document:
			if _, isRef := domain.AsDBRef(t); !isRef && hasOperator(t) {
				eq, ok := t["$eq"]
				if !ok {
					continue
				}
				v = eq
			}
		}
		addr, err := c.db.driver.fieldNavigator.GetAddress(k)
		if err != nil {
			return nil, err
		}
		field, err := c.db.driver.fieldNavigator.EnsureField(base, addr...)
		if err != nil {
			return nil, err
		}
		field.Set(doc.Normalize(v))
	}
	return base, nil
}

func hasOperator(d domain.Document) bool {
	for k := range d {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// Remove implements [domain.Collection].
func (c *Collection) Remove(ctx context.Context, filter domain.Document, opts domain.RemoveOptions) (domain.WriteResult, error) {
	if err := c.lock(ctx); err != nil {
		return domain.WriteResult{}, err
	}
	defer c.mu.Unlock()

	positions, err := c.matching(filter)
	if err != nil {
		return domain.WriteResult{}, err
	}
	if opts.JustOne && len(positions) > 1 {
		positions = positions[:1]
	}

	removed := make([]domain.Document, len(positions))
	for n, p := range positions {
		removed[n] = c.docs[p]
	}
	if err := c.index.Remove(removed...); err != nil {
		return domain.WriteResult{}, err
	}

	kept := make([]domain.Document, 0, len(c.docs)-len(positions))
	for p, d := range c.docs {
		if _, found := slices.BinarySearch(positions, p); !found {
			kept = append(kept, d)
		}
	}
	c.docs = kept

	return domain.WriteResult{
		Acknowledged: opts.WriteConcern.Acknowledged(),
		Deleted:      int64(len(removed)),
	}, nil
}

// Count implements [domain.Collection].
func (c *Collection) Count(ctx context.Context, filter domain.Document, opts domain.CountOptions) (int64, error) {
	if err := c.rlock(ctx); err != nil {
		return 0, err
	}
	defer c.mu.RUnlock()

	positions, err := c.matching(filter)
	if err != nil {
		return 0, err
	}
	n := int64(len(positions))
	n -= min(max(opts.Skip, 0), n)
	if opts.Limit > 0 {
		n = min(n, opts.Limit)
	}
	return n, nil
}

// ErrUnsupportedStage is returned by [Collection.Aggregate] for pipeline
// stages the memory driver does not run.
var ErrUnsupportedStage = errors.New("unsupported pipeline stage")

// Aggregate implements [domain.Collection]. The stages $match, $sort, $skip,
// $limit, $project, $unwind and $count are supported. $sort documents are
// applied in key name order, so multi-key sorts should use [domain.Sort].
func (c *Collection) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	if err := c.rlock(ctx); err != nil {
		return nil, err
	}
	defer c.mu.RUnlock()

	docs := slices.Clone(c.docs)
	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("%w: a stage must have exactly one key, got %d", ErrUnsupportedStage, len(stage))
		}
		var err error
		for op, arg := range stage {
			docs, err = c.stage(docs, op, arg)
		}
		if err != nil {
			return nil, err
		}
	}
	return c.output(docs, nil)
}

func (c *Collection) stage(docs []domain.Document, op string, arg any) ([]domain.Document, error) {
	switch op {
	case "$match":
		query, ok := arg.(domain.Document)
		if !ok {
			return nil, fmt.Errorf("$match needs a document, got %T", arg)
		}
		lo, err := c.db.driver.matcher.Compile(query)
		if err != nil {
			return nil, err
		}
		var res []domain.Document
		for _, d := range docs {
			ok, err := c.db.driver.matcher.MatchCompiled(d, lo)
			if err != nil {
				return nil, err
			}
			if ok {
				res = append(res, d)
			}
		}
		return res, nil
	case "$sort":
		s, err := sortOf(arg)
		if err != nil {
			return nil, err
		}
		return docs, c.sort(docs, s)
	case "$skip":
		n, ok := asInt64(arg)
		if !ok {
			return nil, fmt.Errorf("$skip needs a number, got %T", arg)
		}
		return window(docs, n, 0), nil
	case "$limit":
		n, ok := asInt64(arg)
		if !ok {
			return nil, fmt.Errorf("$limit needs a number, got %T", arg)
		}
		return window(docs, 0, n), nil
	case "$project":
		proj, ok := arg.(domain.Document)
		if !ok {
			return nil, fmt.Errorf("$project needs a document, got %T", arg)
		}
		return c.db.driver.projector.Project(docs, proj)
	case "$unwind":
		return c.unwind(docs, arg)
	case "$count":
		name, ok := arg.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("$count needs a field name, got %v", arg)
		}
		return []domain.Document{{name: int64(len(docs))}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedStage, op)
}

func (c *Collection) unwind(docs []domain.Document, arg any) ([]domain.Document, error) {
	path, ok := arg.(string)
	if !ok || !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("$unwind needs a field path, got %v", arg)
	}
	field := path[1:]
	fn := c.db.driver.fieldNavigator
	addr, err := fn.GetAddress(field)
	if err != nil {
		return nil, err
	}

	var res []domain.Document
	for _, d := range docs {
		v, err := c.value(d, field)
		if err != nil {
			return nil, err
		}
		list, ok := v.([]any)
		if !ok {
			if v != nil {
				res = append(res, d)
			}
			continue
		}
		for _, item := range list {
			nd := doc.CloneDoc(d)
			gs, err := fn.EnsureField(nd, addr...)
			if err != nil {
				return nil, err
			}
			gs.Set(item)
			res = append(res, nd)
		}
	}
	return res, nil
}

func sortOf(arg any) (domain.Sort, error) {
	switch t := arg.(type) {
	case domain.Sort:
		return t, nil
	case domain.Document:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		s := make(domain.Sort, len(keys))
		for n, k := range keys {
			order, ok := asInt64(t[k])
			if !ok || order == 0 {
				return nil, fmt.Errorf("$sort order of %q must be 1 or -1", k)
			}
			s[n] = domain.SortName{Key: k, Order: order}
		}
		return s, nil
	}
	return nil, fmt.Errorf("$sort needs a document, got %T", arg)
}

func asInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
