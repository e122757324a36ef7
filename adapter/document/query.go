package document

import (
	"context"
	"fmt"
	"maps"
	"reflect"

	"github.com/vinicius-lino-figueiredo/godm/adapter/behavior"
	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/cursor"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// scopes returns the scopes of the behaviors, in name order, overlaid with
// the scopes of the document.
func (d *Document) scopes() map[string]*criteria.Criteria {
	res := make(map[string]*criteria.Criteria)
	for _, b := range d.behaviorList() {
		if p, ok := b.value.(behavior.ScopeProvider); ok {
			maps.Copy(res, p.Scopes())
		}
	}
	if s, ok := d.Owner().(Scoper); ok {
		maps.Copy(res, s.Scopes())
	}
	return res
}

// HasScope reports whether a scope is declared under name.
func (d *Document) HasScope(name string) bool {
	_, ok := d.scopes()[name]
	return ok
}

// Scope merges the named scopes into the scope criteria of the document and
// returns it for chaining. An undeclared name makes the next query fail with
// [domain.ErrUnknownScope].
func (d *Document) Scope(names ...string) *Document {
	declared := d.scopes()
	for _, name := range names {
		s, ok := declared[name]
		if !ok {
			if d.scopeErr == nil {
				d.scopeErr = fmt.Errorf("%w: %q", domain.ErrUnknownScope, name)
			}
			continue
		}
		d.MergeDbCriteria(s)
	}
	return d
}

// DbCriteria returns the scope criteria, set to the default scope when no
// other scope is active.
func (d *Document) DbCriteria() *criteria.Criteria {
	if d.scope.IsEmpty() {
		d.scope = nil
		if ds, ok := d.Owner().(DefaultScoper); ok {
			if c := ds.DefaultScope(); c != nil {
				d.scope = c.Clone()
			}
		}
		if d.scope == nil {
			d.scope = criteria.New()
		}
	}
	return d.scope
}

// MergeDbCriteria overlays c on the scope criteria.
func (d *Document) MergeDbCriteria(c *criteria.Criteria) *Document {
	d.scope = d.DbCriteria().MergeWith(c)
	return d
}

// ResetScope clears the scope criteria and any pending scope error.
func (d *Document) ResetScope() *Document {
	d.scope = nil
	d.scopeErr = nil
	return d
}

// query combines crit with the scope criteria and resets the scope. A
// Criteria is overlaid with the scope; the scope condition is the base of a
// condition document.
func (d *Document) query(crit any) (domain.Document, domain.FindOptions, error) {
	defer d.ResetScope()
	if d.scopeErr != nil {
		return nil, domain.FindOptions{}, d.scopeErr
	}
	scope := d.DbCriteria()

	var c *criteria.Criteria
	switch t := crit.(type) {
	case nil:
		c = scope
	case *criteria.Criteria:
		if t == nil {
			c = scope
		} else {
			c = t.MergeWith(scope)
		}
	case domain.Document:
		c = scope.MergeWith(criteria.New(criteria.WithCondition(t)))
	default:
		return nil, domain.FindOptions{}, fmt.Errorf("%w: %T", domain.ErrInvalidCriteria, crit)
	}
	return c.Condition(), c.FindOptions(), nil
}

func (d *Document) populator() cursor.Populator[Interface] {
	t := reflect.TypeOf(d.Owner())
	return func(ctx context.Context, raw domain.Document) (Interface, error) {
		return d.reg.populate(ctx, t, raw)
	}
}

// Find returns a lazy cursor over the documents matching crit and the
// active scopes. crit may be nil, a [*criteria.Criteria] or a condition
// document. The scope is reset.
func (d *Document) Find(ctx context.Context, crit any) (*cursor.Cursor[Interface], error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	d.beforeFind(ctx)
	cond, opts, err := d.query(crit)
	if err != nil {
		return nil, err
	}
	return cursor.New(d.Collection(), cond, opts, d.populator()), nil
}

// FindOne returns the first document matching crit and the active scopes,
// or nil. The scope is reset.
func (d *Document) FindOne(ctx context.Context, crit any) (Interface, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	d.beforeFind(ctx)
	cond, opts, err := d.query(crit)
	if err != nil {
		return nil, err
	}
	opts.Limit = 1
	raw, err := d.Collection().FindOne(ctx, cond, opts)
	if err != nil {
		d.fail("findOne", err)
		return nil, nil
	}
	if raw == nil {
		return nil, nil
	}
	v, err := d.populator()(ctx, raw)
	if err != nil {
		d.fail("findOne", err)
		return nil, nil
	}
	return v, nil
}

// FindByPk returns the document with primary key pk, or nil.
func (d *Document) FindByPk(ctx context.Context, pk any) (Interface, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	return d.FindOne(ctx, domain.Document{d.primaryKey(): d.toID(pk)})
}

// FindAllByPk returns a cursor over the documents whose primary key is one
// of pks.
func (d *Document) FindAllByPk(ctx context.Context, pks ...any) (*cursor.Cursor[Interface], error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	ids := make(domain.A, len(pks))
	for n, pk := range pks {
		ids[n] = d.toID(pk)
	}
	return d.Find(ctx, domain.Document{d.primaryKey(): domain.Document{"$in": ids}})
}

// Count counts the documents matching crit and the active scopes, honoring
// the skip and limit of the scope. It returns 0 when the store fails. The
// scope is reset.
func (d *Document) Count(ctx context.Context, crit any) (int64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	d.beforeFind(ctx)
	cond, opts, err := d.query(crit)
	if err != nil {
		return 0, err
	}
	n, err := d.Collection().Count(ctx, cond, domain.CountOptions{Skip: opts.Skip, Limit: opts.Limit})
	if err != nil {
		d.fail("count", err)
		return 0, nil
	}
	return n, nil
}

// Exists reports whether a document matches crit and the active scopes. The
// scope is reset.
func (d *Document) Exists(ctx context.Context, crit any) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	d.beforeFind(ctx)
	cond, _, err := d.query(crit)
	if err != nil {
		return false, err
	}
	raw, err := d.Collection().FindOne(ctx, cond, domain.FindOptions{Projection: domain.Document{d.primaryKey(): 1}, Limit: 1})
	if err != nil {
		d.fail("exists", err)
		return false, nil
	}
	return raw != nil, nil
}

// Aggregate runs pipeline on the collection of the document and returns its
// result, or nil when the store fails.
func (d *Document) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	res, err := d.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		d.fail("aggregate", err)
		return nil, nil
	}
	return res, nil
}

// All reads every result of a cursor as values of type T.
func All[T Interface](ctx context.Context, c *cursor.Cursor[Interface]) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(items))
	for _, item := range items {
		v, ok := item.(T)
		if !ok {
			return nil, fmt.Errorf("document: cursor returned %T", item)
		}
		res = append(res, v)
	}
	return res, nil
}
