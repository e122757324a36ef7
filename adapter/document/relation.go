package document

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vinicius-lino-figueiredo/godm/adapter/cursor"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Kind is the cardinality of a relation.
type Kind int

// Relation cardinalities.
const (
	One Kind = iota + 1
	Many
)

// Shape is the form of the result of a [Many] relation.
type Shape int

// Result shapes of [Many] relations.
const (
	// ShapeModel returns a []Interface of populated documents.
	ShapeModel Shape = iota
	// ShapeArray returns a []domain.Document of raw documents.
	ShapeArray
	// ShapeCursor returns the lazy *cursor.Cursor[Interface], unread.
	ShapeCursor
)

// Relation declares how to load documents related to another one.
type Relation struct {
	Kind Kind
	// Target returns an instance of the related type to query with. See
	// [To].
	Target func(r *Registry) (Interface, error)
	// ForeignKey is the field of the related documents holding the local
	// value. It defaults to their primary key.
	ForeignKey string
	// On is the local field holding the value to look for. It defaults to
	// the primary key.
	On string
	// Where is merged into the condition of the query.
	Where domain.Document
	// Shape is the result form of Many relations.
	Shape Shape
}

// Relationer declares the relations of a document by name.
type Relationer interface {
	Relations() map[string]Relation
}

// To returns a [Relation.Target] for the type T.
func To[T Interface]() func(r *Registry) (Interface, error) {
	return func(r *Registry) (Interface, error) {
		return Detached[T](r)
	}
}

func (d *Document) relations() map[string]Relation {
	if r, ok := d.Owner().(Relationer); ok {
		return r.Relations()
	}
	return nil
}

// HasRelated reports whether the relation name was loaded and cached.
func (d *Document) HasRelated(name string) bool {
	_, ok := d.related[name]
	return ok
}

// GetRelated loads the relation name. The cached result is returned unless
// refresh is true or extraWhere is given; results loaded with extraWhere are
// not cached. References stored as native references are dereferenced
// instead of queried.
//
// A One relation results in an Interface, nil when nothing is found. A Many
// relation results in the value described by its [Shape].
func (d *Document) GetRelated(ctx context.Context, name string, refresh bool, extraWhere domain.Document) (any, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	rel, ok := d.relations()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRelation, name)
	}
	if !refresh && len(extraWhere) == 0 {
		if v, ok := d.related[name]; ok {
			return v, nil
		}
	}
	if rel.Target == nil {
		return nil, fmt.Errorf("document: relation %q has no target", name)
	}
	target, err := rel.Target(d.reg)
	if err != nil {
		return nil, err
	}

	res, err := d.resolve(ctx, rel, target.base(), extraWhere)
	if err != nil {
		return nil, err
	}
	if len(extraWhere) == 0 {
		if d.related == nil {
			d.related = make(map[string]any)
		}
		d.related[name] = res
	}
	return res, nil
}

func (d *Document) resolve(ctx context.Context, rel Relation, target *Document, extraWhere domain.Document) (any, error) {
	on := rel.On
	if on == "" {
		on = d.primaryKey()
	}
	local := d.Value(on)

	if ref, ok := domain.AsDBRef(local); ok {
		return d.dereference(ctx, rel, target, []domain.DBRef{ref})
	}
	list, isList := listOf(local)
	if refs, ok := refsOf(list); isList && ok {
		if rel.Kind == Many && rel.Shape == ShapeCursor {
			ids := make(domain.A, len(refs))
			for n, ref := range refs {
				ids[n] = ref.ID
			}
			cond := doc.Merge(rel.Where, extraWhere, domain.Document{target.primaryKey(): domain.Document{"$in": ids}})
			return target.Find(ctx, cond)
		}
		return d.dereference(ctx, rel, target, refs)
	}

	if absent(local) {
		return emptyResult(rel, target), nil
	}

	foreign := rel.ForeignKey
	if foreign == "" {
		foreign = target.primaryKey()
	}
	var key domain.Document
	if isList {
		key = domain.Document{foreign: domain.Document{"$in": list}}
	} else {
		key = domain.Document{foreign: local}
	}
	cond := doc.Merge(rel.Where, extraWhere, key)

	if rel.Kind != Many {
		v, err := target.FindOne(ctx, cond)
		if err != nil || v == nil {
			d.lastErr = target.lastErr
			return nil, err
		}
		return v, nil
	}

	cur, err := target.Find(ctx, cond)
	if err != nil {
		return nil, err
	}
	switch rel.Shape {
	case ShapeCursor:
		return cur, nil
	case ShapeArray:
		defer cur.Close(ctx)
		res := []domain.Document{}
		for cur.Next(ctx) {
			res = append(res, cur.Document())
		}
		if err := cur.Err(); err != nil {
			d.fail("getRelated", err)
			return nil, nil
		}
		return res, nil
	}
	items, err := cur.All(ctx)
	if err != nil {
		d.fail("getRelated", err)
		return nil, nil
	}
	if items == nil {
		items = []Interface{}
	}
	return items, nil
}

// emptyResult is the result of a relation whose local value is unset.
func emptyResult(rel Relation, target *Document) any {
	if rel.Kind != Many {
		return nil
	}
	switch rel.Shape {
	case ShapeCursor:
		return cursor.Empty(target.populator())
	case ShapeArray:
		return []domain.Document{}
	}
	return []Interface{}
}

// absent reports whether a local relation value is unset: nil, or the zero
// value of a non-scalar type such as an empty string or identifier. Zero
// numbers and false are values.
func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Array, reflect.Struct, reflect.Pointer,
		reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsZero()
	}
	return false
}

// dereference resolves native references through the database. Missing
// targets are skipped.
func (d *Document) dereference(ctx context.Context, rel Relation, target *Document, refs []domain.DBRef) (any, error) {
	db, err := d.reg.conn.Database(ctx)
	if err != nil {
		d.fail("getRelated", err)
		return nil, nil
	}

	var raws []domain.Document
	for _, ref := range refs {
		raw, err := db.Dereference(ctx, ref)
		if err != nil {
			d.fail("getRelated", err)
			return nil, nil
		}
		if raw != nil {
			raws = append(raws, raw)
		}
	}

	if rel.Kind != Many {
		if len(raws) == 0 {
			return nil, nil
		}
		return d.hydrate(ctx, target, raws[0])
	}
	if rel.Shape == ShapeArray {
		if raws == nil {
			raws = []domain.Document{}
		}
		return raws, nil
	}
	res := make([]Interface, 0, len(raws))
	for _, raw := range raws {
		v, err := d.hydrate(ctx, target, raw)
		if err != nil {
			return nil, err
		}
		if v != nil {
			res = append(res, v)
		}
	}
	return res, nil
}

func (d *Document) hydrate(ctx context.Context, target *Document, raw domain.Document) (Interface, error) {
	v, err := target.populator()(ctx, raw)
	if err != nil {
		d.fail("getRelated", err)
		return nil, nil
	}
	return v, nil
}

// listOf reports whether v is a list, other than bytes, and returns its
// items.
func listOf(v any) (domain.A, bool) {
	if a, ok := v.(domain.A); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	res := make(domain.A, rv.Len())
	for i := range res {
		res[i] = rv.Index(i).Interface()
	}
	return res, true
}

// refsOf reports whether every item of list is a native reference.
func refsOf(list domain.A) ([]domain.DBRef, bool) {
	if len(list) == 0 {
		return nil, false
	}
	refs := make([]domain.DBRef, len(list))
	for n, item := range list {
		ref, ok := domain.AsDBRef(item)
		if !ok {
			return nil, false
		}
		refs[n] = ref
	}
	return refs, true
}
