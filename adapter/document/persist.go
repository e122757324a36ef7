package document

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Save validates the document, unless validate is false, and then inserts
// or updates it. attrs limits both the validation and the update to the
// given attributes. It returns false without touching the store when the
// validation fails.
func (d *Document) Save(ctx context.Context, validate bool, attrs ...string) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if validate && !d.Validate(ctx, attrs...) {
		return false, nil
	}
	if d.isNew {
		return d.Insert(ctx, attrs...)
	}
	return d.Update(ctx, attrs...)
}

// Insert writes the document, generating its primary key if it has none.
// attrs limits the written attributes; the primary key is always written.
// Inserting a document that is not new returns an
// [*domain.InvalidStateError].
func (d *Document) Insert(ctx context.Context, attrs ...string) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if !d.isNew {
		return false, &domain.InvalidStateError{Op: "insert", Reason: "the record is not new"}
	}
	if !d.beforeSave(ctx) {
		return false, nil
	}

	pk := d.primaryKey()
	if !d.hasPrimaryKey() {
		if err := d.Set(pk, d.reg.conn.Driver().NewID()); err != nil {
			return false, err
		}
	}
	document := d.AsDocument(attrs...)
	document[pk] = model.FilterDocument(d.PrimaryKeyValue())

	wc := d.reg.conn.DefaultWriteConcern()
	if _, err := d.Collection().Insert(ctx, []domain.Document{document}, wc); err != nil {
		d.fail("insert", err)
		return false, nil
	}

	d.isNew = false
	d.SetScenario(model.ScenarioUpdate)
	d.afterSave(ctx)
	return true, nil
}

// Update writes the document over its stored version. With no attrs the
// whole document is replaced (and inserted if missing); otherwise only the
// given attributes are set. Updating a new document returns an
// [*domain.InvalidStateError] and updating a document without primary key a
// [*domain.MissingKeyError].
func (d *Document) Update(ctx context.Context, attrs ...string) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if d.isNew {
		return false, &domain.InvalidStateError{Op: "update", Reason: "the record is new"}
	}
	pk := d.primaryKey()
	id := d.PrimaryKeyValue()
	if !d.hasPrimaryKey() {
		return false, &domain.MissingKeyError{Op: "update", Key: pk}
	}
	if !d.beforeSave(ctx) {
		return false, nil
	}

	filter := domain.Document{pk: id}
	opts := domain.UpdateOptions{WriteConcern: d.reg.conn.DefaultWriteConcern()}
	var update domain.Document
	if len(attrs) == 0 {
		update = doc.Without(d.AsDocument(), pk)
		opts.Upsert = true
	} else {
		set := doc.Without(d.AsDocument(attrs...), pk)
		if len(set) == 0 {
			return false, &domain.EmptyOperationError{Op: "update"}
		}
		update = domain.Document{"$set": set}
	}

	res, err := d.Collection().Update(ctx, filter, update, opts)
	if err != nil {
		d.fail("update", err)
		return false, nil
	}
	if !res.UpdatedExisting() {
		return false, nil
	}
	d.afterSave(ctx)
	return true, nil
}

// toID converts a primary key value through the driver. Values the driver
// does not recognize are used as they are, so custom keys keep working.
func (d *Document) toID(v any) any {
	id, err := d.reg.conn.Driver().ToID(v)
	if err != nil {
		return v
	}
	return id
}

// conditionOf extracts the condition of a criteria argument: nil, a
// [*criteria.Criteria] or a condition document.
func conditionOf(crit any) (domain.Document, error) {
	switch c := crit.(type) {
	case nil:
		return domain.Document{}, nil
	case *criteria.Criteria:
		if c == nil {
			return domain.Document{}, nil
		}
		return c.Condition(), nil
	case domain.Document:
		return doc.CloneDoc(c), nil
	}
	return nil, fmt.Errorf("%w: %T", domain.ErrInvalidCriteria, crit)
}

// UpdateByPk applies update to the document with primary key pk. The
// condition of crit is merged over the primary key filter, so its keys win.
// It returns false when an acknowledged write matched nothing.
func (d *Document) UpdateByPk(ctx context.Context, pk any, update domain.Document, crit any, opts ...domain.UpdateOption) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	cond, err := conditionOf(crit)
	if err != nil {
		return false, err
	}
	if len(update) == 0 {
		return false, &domain.EmptyOperationError{Op: "updateByPk"}
	}

	filter := doc.Merge(domain.Document{d.primaryKey(): d.toID(pk)}, cond)
	uo := domain.UpdateOptions{WriteConcern: d.reg.conn.DefaultWriteConcern()}
	for _, opt := range opts {
		opt(&uo)
	}
	res, err := d.Collection().Update(ctx, filter, update, uo)
	if err != nil {
		d.fail("updateByPk", err)
		return false, nil
	}
	return res.UpdatedExisting(), nil
}

// UpsertByPk sets the fields of values on the document with primary key pk,
// inserting it if missing.
func (d *Document) UpsertByPk(ctx context.Context, pk any, values domain.Document, crit any, opts ...domain.UpdateOption) (bool, error) {
	opts = append(slices.Clone(opts), domain.WithUpsert(true))
	return d.UpdateByPk(ctx, pk, domain.Document{"$set": values}, crit, opts...)
}

// UpdateAll applies update to every document matching crit. Unlike
// [Document.UpdateByPk], matching nothing is not a failure.
func (d *Document) UpdateAll(ctx context.Context, crit any, update domain.Document, opts ...domain.UpdateOption) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	cond, err := conditionOf(crit)
	if err != nil {
		return false, err
	}
	if len(update) == 0 {
		return false, &domain.EmptyOperationError{Op: "updateAll"}
	}

	uo := domain.UpdateOptions{WriteConcern: d.reg.conn.DefaultWriteConcern(), Multiple: true}
	for _, opt := range opts {
		opt(&uo)
	}
	if _, err := d.Collection().Update(ctx, cond, update, uo); err != nil {
		d.fail("updateAll", err)
		return false, nil
	}
	return true, nil
}

// SaveCounters adds each counter to the attribute of the same name, locally
// and in the store with $inc.
func (d *Document) SaveCounters(ctx context.Context, counters map[string]any) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if d.isNew {
		return false, &domain.InvalidStateError{Op: "saveCounters", Reason: "the record is new"}
	}
	if len(counters) == 0 {
		return false, nil
	}
	for _, k := range slices.Sorted(maps.Keys(counters)) {
		sum, err := add(d.Value(k), counters[k])
		if err != nil {
			return false, fmt.Errorf("saveCounters: %q: %w", k, err)
		}
		if err := d.Set(k, sum); err != nil {
			return false, err
		}
	}
	return d.UpdateByPk(ctx, d.PrimaryKeyValue(), domain.Document{"$inc": maps.Clone(counters)}, nil)
}

// SaveAttributes sets values on the document and writes only them, without
// validation or save hooks.
func (d *Document) SaveAttributes(ctx context.Context, values map[string]any) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if d.isNew {
		return false, &domain.InvalidStateError{Op: "saveAttributes", Reason: "the record is new"}
	}
	names := slices.Sorted(maps.Keys(values))
	for _, k := range names {
		if err := d.Set(k, values[k]); err != nil {
			return false, err
		}
	}
	set := doc.Without(d.AsDocument(names...), d.primaryKey())
	if len(set) == 0 {
		return false, &domain.EmptyOperationError{Op: "saveAttributes"}
	}
	return d.UpdateByPk(ctx, d.PrimaryKeyValue(), domain.Document{"$set": set}, nil)
}

// Delete removes the document from the store. The document stays usable in
// memory. Deleting a new document returns an [*domain.InvalidStateError].
func (d *Document) Delete(ctx context.Context) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if d.isNew {
		return false, &domain.InvalidStateError{Op: "delete", Reason: "the record is new"}
	}
	if !d.beforeDelete(ctx) {
		return false, nil
	}
	ok, err := d.DeleteByPk(ctx, d.PrimaryKeyValue(), nil)
	if err != nil {
		return false, err
	}
	d.afterDelete(ctx)
	return ok, nil
}

// DeleteByPk removes the document with primary key pk. The condition of crit
// is merged over the primary key filter.
func (d *Document) DeleteByPk(ctx context.Context, pk any, crit any, opts ...domain.RemoveOption) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	cond, err := conditionOf(crit)
	if err != nil {
		return false, err
	}
	filter := doc.Merge(domain.Document{d.primaryKey(): d.toID(pk)}, cond)
	ro := domain.RemoveOptions{WriteConcern: d.reg.conn.DefaultWriteConcern(), JustOne: true}
	for _, opt := range opts {
		opt(&ro)
	}
	if _, err := d.Collection().Remove(ctx, filter, ro); err != nil {
		d.fail("deleteByPk", err)
		return false, nil
	}
	return true, nil
}

// DeleteAll removes every document matching crit.
func (d *Document) DeleteAll(ctx context.Context, crit any, opts ...domain.RemoveOption) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	cond, err := conditionOf(crit)
	if err != nil {
		return false, err
	}
	ro := domain.RemoveOptions{WriteConcern: d.reg.conn.DefaultWriteConcern()}
	for _, opt := range opts {
		opt(&ro)
	}
	if _, err := d.Collection().Remove(ctx, cond, ro); err != nil {
		d.fail("deleteAll", err)
		return false, nil
	}
	return true, nil
}

// Refresh reloads the attributes of the document from the store. It returns
// false for new documents and documents that are no longer stored.
func (d *Document) Refresh(ctx context.Context) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	id := d.PrimaryKeyValue()
	if d.isNew || !d.hasPrimaryKey() {
		return false, nil
	}
	raw, err := d.Collection().FindOne(ctx, domain.Document{d.primaryKey(): id}, domain.FindOptions{})
	if err != nil {
		d.fail("refresh", err)
		return false, nil
	}
	if raw == nil {
		return false, nil
	}
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		if err := d.Set(k, raw[k]); err != nil {
			return false, err
		}
	}
	return true, nil
}

// add sums two numbers. Integers stay integers unless either side is a
// float; nil counts as zero.
func add(a, b any) (any, error) {
	if a == nil {
		a = 0
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	ai, aInt := intOf(av)
	bi, bInt := intOf(bv)
	if aInt && bInt {
		return ai + bi, nil
	}
	af, aok := floatOf(av)
	bf, bok := floatOf(bv)
	if !aok || !bok {
		return nil, fmt.Errorf("cannot add %T and %T", a, b)
	}
	return af + bf, nil
}

func intOf(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), true
	}
	return 0, false
}

func floatOf(v reflect.Value) (float64, bool) {
	if i, ok := intOf(v); ok {
		return float64(i), true
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
