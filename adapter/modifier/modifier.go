// Package modifier contains a [domain.Modifier] implementation to apply changes
// to a doc based on a mongo-like API.
package modifier

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/godm/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/godm/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

var (
	// ErrMixedOperators is returned when user provides an update query with
	// mixed use of normal fields and dollar fields.
	ErrMixedOperators = errors.New("cannot mix modifiers and normal fields")
	// ErrInvalidPushField is returned when user passes some field other
	// than $slice and $each when using $push modifier.
	ErrInvalidPushField = errors.New("can only use $slice in conjunction with $each when $push to array")
)

// ErrModArgType is returned when a modification function is called with an
// argument of a type that is not accepted.
type ErrModArgType struct {
	Mod    string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrModArgType) Error() string {
	return fmt.Sprintf("%s expects %s arg, got %T", e.Mod, e.Want, e.Actual)
}

type modFunc func(d domain.Document, field string, addr []string, arg any) error

// Modifier implements [domain.Modifier].
type Modifier struct {
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
	matcher        domain.Matcher
	mods           map[string]modFunc
}

// NewModifier returns a new implementation of [domain.Modifier].
func NewModifier(opts ...Option) domain.Modifier {
	m := &Modifier{}
	for _, opt := range opts {
		opt(m)
	}
	if m.comparer == nil {
		m.comparer = comparer.NewComparer()
	}
	if m.fieldNavigator == nil {
		m.fieldNavigator = fieldnavigator.NewFieldNavigator()
	}
	if m.matcher == nil {
		m.matcher = matcher.NewMatcher(
			matcher.WithComparer(m.comparer),
			matcher.WithFieldNavigator(m.fieldNavigator),
		)
	}
	m.mods = map[string]modFunc{
		"$set":      m.set,
		"$unset":    m.unset,
		"$inc":      m.inc,
		"$max":      m.max,
		"$min":      m.min,
		"$push":     m.push,
		"$addToSet": m.addToSet,
		"$pop":      m.pop,
		"$pull":     m.pull,
		"$rename":   m.rename,
	}
	return m
}

// Modify implements [domain.Modifier]. An update without operators replaces
// the document, keeping its _id. d is never changed.
func (m *Modifier) Modify(d domain.Document, update domain.Document) (domain.Document, error) {
	dollar, err := m.ensureNotMixed(update)
	if err != nil {
		return nil, err
	}
	if !dollar {
		return m.replace(d, update)
	}

	res := doc.CloneDoc(d)
	for _, op := range slices.Sorted(maps.Keys(update)) {
		fn, ok := m.mods[op]
		if !ok {
			return nil, domain.ErrUnknownOperator{Operator: op}
		}
		fields, ok := update[op].(domain.Document)
		if !ok {
			return nil, ErrModArgType{Mod: op, Want: "document", Actual: update[op]}
		}
		for _, field := range slices.Sorted(maps.Keys(fields)) {
			addr, err := m.fieldNavigator.GetAddress(field)
			if err != nil {
				return nil, err
			}
			if err := fn(res, field, addr, fields[field]); err != nil {
				return nil, err
			}
		}
	}

	if !m.equal(res["_id"], d["_id"]) {
		return nil, domain.ErrCannotModifyID
	}
	return res, nil
}

func (m *Modifier) replace(d, update domain.Document) (domain.Document, error) {
	res := doc.Normalize(doc.CloneDoc(update)).(domain.Document)
	id, hasID := d["_id"]
	if !hasID {
		return res, nil
	}
	if newID, ok := res["_id"]; ok && !m.equal(newID, id) {
		return nil, domain.ErrCannotModifyID
	}
	res["_id"] = id
	return res, nil
}

func (m *Modifier) ensureNotMixed(update domain.Document) (bool, error) {
	var dollar int
	for k := range update {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	if dollar > 0 && dollar != len(update) {
		return false, ErrMixedOperators
	}
	return dollar > 0, nil
}

func (m *Modifier) equal(a, b any) bool {
	c, err := m.comparer.Compare(a, b)
	if err != nil {
		return reflect.DeepEqual(a, b)
	}
	return c == 0
}

func (m *Modifier) set(d domain.Document, _ string, addr []string, arg any) error {
	gs, err := m.fieldNavigator.EnsureField(d, addr...)
	if err != nil {
		return err
	}
	gs.Set(doc.Normalize(arg))
	return nil
}

func (m *Modifier) unset(d domain.Document, _ string, addr []string, _ any) error {
	fields, expanded, err := m.fieldNavigator.GetField(d, addr...)
	if err != nil || expanded {
		return err
	}
	for _, f := range fields {
		f.Unset()
	}
	return nil
}

func (m *Modifier) inc(d domain.Document, field string, addr []string, arg any) error {
	if !isNumber(arg) {
		return ErrModArgType{Mod: "$inc", Want: "number", Actual: arg}
	}
	gs, err := m.fieldNavigator.EnsureField(d, addr...)
	if err != nil {
		return err
	}
	cur, ok := gs.Get()
	if !ok || cur == nil {
		gs.Set(arg)
		return nil
	}
	sum, ok := add(cur, arg)
	if !ok {
		return domain.ErrFieldType{Field: field, Operator: "$inc", Actual: cur}
	}
	gs.Set(sum)
	return nil
}

func (m *Modifier) max(d domain.Document, _ string, addr []string, arg any) error {
	return m.keep(d, addr, arg, 1)
}

func (m *Modifier) min(d domain.Document, _ string, addr []string, arg any) error {
	return m.keep(d, addr, arg, -1)
}

// keep sets the field to arg when it is missing or when arg compares to it
// with the sign of want.
func (m *Modifier) keep(d domain.Document, addr []string, arg any, want int) error {
	gs, err := m.fieldNavigator.EnsureField(d, addr...)
	if err != nil {
		return err
	}
	cur, ok := gs.Get()
	if !ok {
		gs.Set(doc.Normalize(arg))
		return nil
	}
	c, err := m.comparer.Compare(arg, cur)
	if err != nil {
		return err
	}
	if c == want {
		gs.Set(doc.Normalize(arg))
	}
	return nil
}

// list returns the list at addr, creating it when missing.
func (m *Modifier) list(d domain.Document, op, field string, addr []string) (domain.GetSetter, []any, error) {
	gs, err := m.fieldNavigator.EnsureField(d, addr...)
	if err != nil {
		return nil, nil, err
	}
	cur, ok := gs.Get()
	if !ok || cur == nil {
		return gs, []any{}, nil
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil, nil, domain.ErrFieldType{Field: field, Operator: op, Actual: cur}
	}
	return gs, arr, nil
}

// each returns the items of an $each argument, or arg itself.
func (m *Modifier) each(op string, arg any, allowed ...string) ([]any, domain.Document, error) {
	opts, ok := arg.(domain.Document)
	if !ok {
		return []any{doc.Normalize(arg)}, nil, nil
	}
	raw, ok := opts["$each"]
	if !ok {
		return []any{doc.Normalize(arg)}, nil, nil
	}
	for k := range opts {
		if k != "$each" && !slices.Contains(allowed, k) {
			return nil, nil, ErrInvalidPushField
		}
	}
	items, ok := doc.Normalize(raw).([]any)
	if !ok {
		return nil, nil, ErrModArgType{Mod: op, Want: "list in $each", Actual: raw}
	}
	return items, opts, nil
}

func (m *Modifier) push(d domain.Document, field string, addr []string, arg any) error {
	items, opts, err := m.each("$push", arg, "$slice")
	if err != nil {
		return err
	}
	gs, arr, err := m.list(d, "$push", field, addr)
	if err != nil {
		return err
	}
	res := append(slices.Clone(arr), items...)

	if raw, ok := opts["$slice"]; ok {
		n, ok := toInt(raw)
		if !ok {
			return ErrModArgType{Mod: "$slice", Want: "integer", Actual: raw}
		}
		switch {
		case n >= 0 && n < len(res):
			res = res[:n]
		case n < 0 && -n < len(res):
			res = res[len(res)+n:]
		}
	}
	gs.Set(res)
	return nil
}

func (m *Modifier) addToSet(d domain.Document, field string, addr []string, arg any) error {
	items, _, err := m.each("$addToSet", arg)
	if err != nil {
		return err
	}
	gs, arr, err := m.list(d, "$addToSet", field, addr)
	if err != nil {
		return err
	}
	res := slices.Clone(arr)
	for _, item := range items {
		if !slices.ContainsFunc(res, func(v any) bool { return m.equal(v, item) }) {
			res = append(res, item)
		}
	}
	gs.Set(res)
	return nil
}

func (m *Modifier) pop(d domain.Document, field string, addr []string, arg any) error {
	n, ok := toInt(arg)
	if !ok {
		return ErrModArgType{Mod: "$pop", Want: "integer", Actual: arg}
	}
	gs, arr, err := m.list(d, "$pop", field, addr)
	if err != nil || len(arr) == 0 {
		return err
	}
	if n < 0 {
		gs.Set(slices.Clone(arr[1:]))
	} else {
		gs.Set(slices.Clone(arr[:len(arr)-1]))
	}
	return nil
}

func (m *Modifier) pull(d domain.Document, field string, addr []string, arg any) error {
	gs, arr, err := m.list(d, "$pull", field, addr)
	if err != nil {
		return err
	}
	res := make([]any, 0, len(arr))
	for _, item := range arr {
		matches, err := m.pulls(item, arg)
		if err != nil {
			return err
		}
		if !matches {
			res = append(res, item)
		}
	}
	gs.Set(res)
	return nil
}

// pulls reports whether item is matched by the $pull condition cond.
func (m *Modifier) pulls(item, cond any) (bool, error) {
	q, ok := cond.(domain.Document)
	if !ok {
		return m.equal(item, doc.Normalize(cond)), nil
	}
	operators, err := m.ensureNotMixed(q)
	if err != nil {
		return false, err
	}
	if operators {
		return m.matcher.Match(domain.Document{"item": item}, domain.Document{"item": q})
	}
	sub, ok := item.(domain.Document)
	if !ok {
		return false, nil
	}
	return m.matcher.Match(sub, q)
}

func (m *Modifier) rename(d domain.Document, field string, addr []string, arg any) error {
	target, ok := arg.(string)
	if !ok || target == "" {
		return ErrModArgType{Mod: "$rename", Want: "field name", Actual: arg}
	}
	fields, expanded, err := m.fieldNavigator.GetField(d, addr...)
	if err != nil || expanded {
		return err
	}
	v, ok := fields[0].Get()
	if !ok {
		return nil
	}
	fields[0].Unset()

	to, err := m.fieldNavigator.GetAddress(target)
	if err != nil {
		return err
	}
	gs, err := m.fieldNavigator.EnsureField(d, to...)
	if err != nil {
		return err
	}
	gs.Set(v)
	return nil
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// add sums two numbers. Integers stay integers, keeping the type of a when
// both have the same type.
func add(a, b any) (any, bool) {
	if !isNumber(a) || !isNumber(b) {
		return nil, false
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if ai, ok := toInt64(av); ok {
		if bi, ok := toInt64(bv); ok {
			sum := ai + bi
			if av.Type() == bv.Type() {
				return reflect.ValueOf(sum).Convert(av.Type()).Interface(), true
			}
			return sum, true
		}
	}
	return toFloat(av) + toFloat(bv), true
}

func toInt64(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), true
	}
	return 0, false
}

func toFloat(v reflect.Value) float64 {
	if i, ok := toInt64(v); ok {
		return float64(i)
	}
	return v.Float()
}

func toInt(v any) (int, bool) {
	if !isNumber(v) {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if i, ok := toInt64(rv); ok {
		return int(i), true
	}
	f := rv.Float()
	if f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
