// Package matcher contains the default implementation of [domain.Matcher]
// using basic mongo-like match API.
package matcher

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/godm/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

var (
	// ErrMixedOperators is returned when user provides a query with mixed
	// use of normal fields and operators.
	ErrMixedOperators = errors.New("cannot mix operators and normal fields")
)

// ErrCompArgType is returned when a comparison operator is called with an
// argument of invalid type.
type ErrCompArgType struct {
	Comp   string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrCompArgType) Error() string {
	return fmt.Sprintf(
		"%s value should be of type %s, got %T",
		e.Comp, e.Want, e.Actual,
	)
}

type elemMatch struct {
	query *LogicOp
	conds []Cond
}

// Matcher implements [domain.Matcher].
type Matcher struct {
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...Option) domain.Matcher {
	m := &Matcher{
		comparer:       comparer.NewComparer(),
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Match implements [domain.Matcher].
func (m *Matcher) Match(d domain.Document, query domain.Document) (bool, error) {
	lo, err := m.Compile(query)
	if err != nil {
		return false, err
	}
	return m.MatchCompiled(d, lo)
}

// Compile parses query once so it can be matched against many documents with
// [Matcher.MatchCompiled].
func (m *Matcher) Compile(query domain.Document) (LogicOp, error) {
	lo := LogicOp{Type: And}
	for _, key := range slices.Sorted(maps.Keys(query)) {
		value := query[key]
		if strings.HasPrefix(key, "$") {
			sub, err := m.makeLogicOp(key, value)
			if err != nil {
				return lo, err
			}
			lo.Sub = append(lo.Sub, sub)
			continue
		}
		rule, err := m.makeFieldRule(key, value)
		if err != nil {
			return lo, err
		}
		lo.Rules = append(lo.Rules, rule)
	}
	return lo, nil
}

func (m *Matcher) makeLogicOp(key string, value any) (LogicOp, error) {
	var typ uint8
	switch key {
	case "$and":
		typ = And
	case "$or":
		typ = Or
	case "$nor":
		typ = Nor
	case "$not":
		d, ok := value.(domain.Document)
		if !ok {
			return LogicOp{}, ErrCompArgType{Comp: key, Want: "document", Actual: value}
		}
		sub, err := m.Compile(d)
		if err != nil {
			return LogicOp{}, err
		}
		return LogicOp{Type: Not, Sub: []LogicOp{sub}}, nil
	case "$where":
		fn, ok := value.(func(map[string]any) (bool, error))
		if !ok {
			return LogicOp{}, ErrCompArgType{Comp: key, Want: "func(map[string]any) (bool, error)", Actual: value}
		}
		return LogicOp{Type: Where, Where: fn}, nil
	default:
		return LogicOp{}, domain.ErrUnknownOperator{Operator: key}
	}

	items, ok := docsOf(value)
	if !ok || len(items) == 0 {
		return LogicOp{}, ErrCompArgType{Comp: key, Want: "non-empty list of documents", Actual: value}
	}
	lo := LogicOp{Type: typ, Sub: make([]LogicOp, 0, len(items))}
	for _, item := range items {
		sub, err := m.Compile(item)
		if err != nil {
			return lo, err
		}
		lo.Sub = append(lo.Sub, sub)
	}
	return lo, nil
}

func (m *Matcher) makeFieldRule(field string, value any) (FieldRule, error) {
	addr, err := m.fieldNavigator.GetAddress(field)
	if err != nil {
		return FieldRule{}, err
	}
	conds, err := m.makeConds(value)
	if err != nil {
		return FieldRule{}, err
	}
	return FieldRule{Addr: addr, Conds: conds}, nil
}

func (m *Matcher) makeConds(value any) ([]Cond, error) {
	switch t := value.(type) {
	case *regexp.Regexp:
		return []Cond{{Op: Regex, Val: t}}, nil
	case domain.Regex:
		rgx, err := CompileRegex(t.Pattern, t.Options)
		if err != nil {
			return nil, err
		}
		return []Cond{{Op: Regex, Val: rgx}}, nil
	case domain.Document:
		if _, isRef := domain.AsDBRef(t); isRef {
			return []Cond{{Op: Eq, Val: doc.Normalize(t)}}, nil
		}
		dollar, err := m.ensureNotMixed(t)
		if err != nil {
			return nil, err
		}
		if !dollar {
			return []Cond{{Op: Eq, Val: doc.Normalize(t)}}, nil
		}
		conds := make([]Cond, 0, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			if k == "$options" {
				continue
			}
			cond, err := m.makeCond(k, t[k], t)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
		return conds, nil
	}
	return []Cond{{Op: Eq, Val: doc.Normalize(value)}}, nil
}

// ensureNotMixed reports whether the keys of d are operators.
func (m *Matcher) ensureNotMixed(d domain.Document) (bool, error) {
	var dollar int
	for k := range d {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	if dollar > 0 && dollar != len(d) {
		return false, ErrMixedOperators
	}
	return dollar > 0, nil
}

func (m *Matcher) makeCond(k string, v any, all domain.Document) (Cond, error) {
	switch k {
	case "$eq":
		return Cond{Op: Eq, Val: doc.Normalize(v)}, nil
	case "$ne":
		return Cond{Op: Ne, Val: doc.Normalize(v)}, nil
	case "$lt":
		return Cond{Op: Lt, Val: v}, nil
	case "$lte":
		return Cond{Op: Lte, Val: v}, nil
	case "$gt":
		return Cond{Op: Gt, Val: v}, nil
	case "$gte":
		return Cond{Op: Gte, Val: v}, nil
	case "$in":
		return m.makeList(In, k, v)
	case "$nin":
		return m.makeList(Nin, k, v)
	case "$all":
		return m.makeList(All, k, v)
	case "$exists":
		return Cond{Op: Exists, Val: truthy(v)}, nil
	case "$size":
		n, ok := asInteger(v)
		if !ok {
			return Cond{}, ErrCompArgType{Comp: k, Want: "integer", Actual: v}
		}
		return Cond{Op: Size, Val: n}, nil
	case "$regex":
		return m.makeRegex(v, all)
	case "$elemMatch":
		return m.makeElemMatch(v)
	case "$not":
		conds, err := m.makeConds(v)
		if err != nil {
			return Cond{}, err
		}
		return Cond{Op: NotCond, Val: conds}, nil
	}
	return Cond{}, domain.ErrUnknownOperator{Operator: k}
}

func (m *Matcher) makeList(op uint8, k string, v any) (Cond, error) {
	list, ok := doc.Normalize(v).([]any)
	if !ok {
		return Cond{}, ErrCompArgType{Comp: k, Want: "list", Actual: v}
	}
	for n, item := range list {
		switch t := item.(type) {
		case domain.Regex:
			rgx, err := CompileRegex(t.Pattern, t.Options)
			if err != nil {
				return Cond{}, err
			}
			list[n] = rgx
		}
	}
	return Cond{Op: op, Val: list}, nil
}

func (m *Matcher) makeRegex(v any, all domain.Document) (Cond, error) {
	options, _ := all["$options"].(string)
	switch t := v.(type) {
	case *regexp.Regexp:
		return Cond{Op: Regex, Val: t}, nil
	case domain.Regex:
		if options == "" {
			options = t.Options
		}
		rgx, err := CompileRegex(t.Pattern, options)
		return Cond{Op: Regex, Val: rgx}, err
	case string:
		rgx, err := CompileRegex(t, options)
		return Cond{Op: Regex, Val: rgx}, err
	}
	return Cond{}, ErrCompArgType{Comp: "$regex", Want: "regex", Actual: v}
}

func (m *Matcher) makeElemMatch(v any) (Cond, error) {
	d, ok := v.(domain.Document)
	if !ok {
		return Cond{}, ErrCompArgType{Comp: "$elemMatch", Want: "document", Actual: v}
	}
	dollar, err := m.ensureNotMixed(d)
	if err != nil {
		return Cond{}, err
	}
	if dollar {
		conds, err := m.makeConds(d)
		return Cond{Op: ElemMatch, Val: elemMatch{conds: conds}}, err
	}
	lo, err := m.Compile(d)
	return Cond{Op: ElemMatch, Val: elemMatch{query: &lo}}, err
}

// CompileRegex compiles a pattern with store flag letters. Only i, m and s
// change the expression; x and u are accepted and ignored.
func CompileRegex(pattern, options string) (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags.WriteRune(o)
		case 'x', 'u':
		default:
			return nil, fmt.Errorf("invalid regex flag %q", o)
		}
	}
	if flags.Len() > 0 {
		pattern = "(?" + flags.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// MatchCompiled matches d against a query built by [Matcher.Compile].
func (m *Matcher) MatchCompiled(d domain.Document, lo LogicOp) (bool, error) {
	switch lo.Type {
	case And:
		for _, rule := range lo.Rules {
			matches, err := m.matchRule(d, rule)
			if err != nil || !matches {
				return false, err
			}
		}
		for _, sub := range lo.Sub {
			matches, err := m.MatchCompiled(d, sub)
			if err != nil || !matches {
				return false, err
			}
		}
		return true, nil
	case Or, Nor:
		for _, sub := range lo.Sub {
			matches, err := m.MatchCompiled(d, sub)
			if err != nil {
				return false, err
			}
			if matches {
				return lo.Type == Or, nil
			}
		}
		return lo.Type == Nor, nil
	case Not:
		matches, err := m.MatchCompiled(d, lo.Sub[0])
		return !matches && err == nil, err
	case Where:
		return lo.Where(d)
	}
	return false, nil
}

func (m *Matcher) matchRule(d domain.Document, rule FieldRule) (bool, error) {
	fields, _, err := m.fieldNavigator.GetField(d, rule.Addr...)
	if err != nil {
		return false, err
	}
	values := make([]any, 0, len(fields))
	for _, f := range fields {
		if v, ok := f.Get(); ok {
			values = append(values, v)
		}
	}
	return m.matchConds(values, rule.Conds)
}

func (m *Matcher) matchConds(values []any, conds []Cond) (bool, error) {
	for _, cond := range conds {
		matches, err := m.matchCond(values, cond)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) matchCond(values []any, cond Cond) (bool, error) {
	switch cond.Op {
	case Eq:
		return m.eq(values, cond.Val), nil
	case Ne:
		return !m.eq(values, cond.Val), nil
	case Exists:
		return (len(values) > 0) == cond.Val.(bool), nil
	case Lt, Lte, Gt, Gte:
		return m.order(values, cond), nil
	case In:
		return m.in(values, cond.Val.([]any)), nil
	case Nin:
		return !m.in(values, cond.Val.([]any)), nil
	case All:
		return m.all(values, cond.Val.([]any)), nil
	case Size:
		return m.size(values, cond.Val.(int)), nil
	case Regex:
		return m.regex(values, cond.Val.(*regexp.Regexp)), nil
	case ElemMatch:
		return m.elemMatch(values, cond.Val.(elemMatch))
	case NotCond:
		matches, err := m.matchConds(values, cond.Val.([]Cond))
		return !matches && err == nil, err
	}
	return false, nil
}

// candidates returns the values and the items of the list values.
func (m *Matcher) candidates(values []any) []any {
	res := make([]any, 0, len(values))
	for _, v := range values {
		res = append(res, v)
		if arr, ok := v.([]any); ok {
			res = append(res, arr...)
		}
	}
	return res
}

func (m *Matcher) equal(a, b any) bool {
	c, err := m.comparer.Compare(a, b)
	if err != nil {
		return reflect.DeepEqual(a, b)
	}
	return c == 0
}

// eq follows the store rules: a list matches when it equals the target or
// holds it, and nil matches missing fields.
func (m *Matcher) eq(values []any, target any) bool {
	if rgx, ok := target.(*regexp.Regexp); ok {
		return m.regex(values, rgx)
	}
	if target == nil && len(values) == 0 {
		return true
	}
	for _, v := range m.candidates(values) {
		if m.equal(v, target) {
			return true
		}
	}
	return false
}

func (m *Matcher) order(values []any, cond Cond) bool {
	for _, v := range m.candidates(values) {
		if !m.comparer.Comparable(v, cond.Val) {
			continue
		}
		c, err := m.comparer.Compare(v, cond.Val)
		if err != nil {
			continue
		}
		switch {
		case cond.Op == Lt && c < 0,
			cond.Op == Lte && c <= 0,
			cond.Op == Gt && c > 0,
			cond.Op == Gte && c >= 0:
			return true
		}
	}
	return false
}

func (m *Matcher) in(values []any, list []any) bool {
	for _, item := range list {
		if m.eq(values, item) {
			return true
		}
	}
	return false
}

func (m *Matcher) all(values []any, list []any) bool {
	if len(list) == 0 {
		return false
	}
	for _, item := range list {
		if !m.eq(values, item) {
			return false
		}
	}
	return true
}

func (m *Matcher) size(values []any, n int) bool {
	for _, v := range values {
		if arr, ok := v.([]any); ok && len(arr) == n {
			return true
		}
	}
	return false
}

func (m *Matcher) regex(values []any, rgx *regexp.Regexp) bool {
	for _, v := range m.candidates(values) {
		if s, ok := v.(string); ok && rgx.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *Matcher) elemMatch(values []any, em elemMatch) (bool, error) {
	for _, v := range values {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		for _, elem := range arr {
			var matches bool
			var err error
			if em.query != nil {
				d, isDoc := elem.(domain.Document)
				if !isDoc {
					continue
				}
				matches, err = m.MatchCompiled(d, *em.query)
			} else {
				matches, err = m.matchConds([]any{elem}, em.conds)
			}
			if err != nil || matches {
				return matches, err
			}
		}
	}
	return false, nil
}

func docsOf(v any) ([]domain.Document, bool) {
	switch t := v.(type) {
	case []domain.Document:
		return t, true
	case []any:
		res := make([]domain.Document, len(t))
		for n, item := range t {
			d, ok := item.(domain.Document)
			if !ok {
				return nil, false
			}
			res[n] = d
		}
		return res, true
	}
	return nil, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	}
	if n, ok := asInteger(v); ok {
		return n != 0
	}
	return true
}

func asInteger(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}
