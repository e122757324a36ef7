// Package criteria contains the query Criteria value type: a condition, an
// ordered sort, a skip and a limit that can be built, merged and turned into a
// map.
package criteria

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

var (
	compareRe = regexp.MustCompile(`^(?:\s*(<>|!=|<=|>=|<|>|=))?(.*)$`)
	intRe     = regexp.MustCompile(`^[0-9]+$`)
	numberRe  = regexp.MustCompile(`^[0-9.]+$`)
)

var compareOps = map[string]string{
	"<=": "$lte",
	">=": "$gte",
	"<":  "$lt",
	">":  "$gt",
	"<>": "$ne",
	"!=": "$ne",
}

// Criteria holds the condition, sort, skip and limit of a query. Methods
// returning *Criteria modify the receiver and return it for chaining; query
// execution never modifies a Criteria, and [Criteria.MergeWith] returns a
// derived copy.
type Criteria struct {
	condition domain.Document
	sort      domain.Sort
	skip      int64
	limit     int64
	skipSet   bool
	limitSet  bool
}

// New returns an empty Criteria configured by opts.
func New(opts ...Option) *Criteria {
	c := &Criteria{condition: domain.Document{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromMap builds a Criteria from a map with the optional keys "condition",
// "sort", "skip" and "limit". The sort may be a [domain.Sort] or a map of
// field to direction (in which case fields are sorted by name, as map
// iteration order is random).
func FromMap(m map[string]any) *Criteria {
	c := New()
	if cond, ok := m["condition"].(map[string]any); ok {
		c.condition = doc.CloneDoc(cond)
	}
	switch s := m["sort"].(type) {
	case domain.Sort:
		c.SetSort(s...)
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(s)) {
			c.SetSort(domain.SortName{Key: k, Order: Direction(s[k])})
		}
	}
	if v, ok := toInt(m["skip"]); ok {
		c.SetSkip(v)
	}
	if v, ok := toInt(m["limit"]); ok {
		c.SetLimit(v)
	}
	return c
}

// Clone returns a deep copy of c.
func (c *Criteria) Clone() *Criteria {
	if c == nil {
		return New()
	}
	cp := *c
	cp.condition = doc.CloneDoc(c.condition)
	cp.sort = slices.Clone(c.sort)
	return &cp
}

// Condition returns a copy of the condition.
func (c *Criteria) Condition() domain.Document {
	return doc.CloneDoc(c.condition)
}

// Sort returns a copy of the sort specification.
func (c *Criteria) Sort() domain.Sort {
	return slices.Clone(c.sort)
}

// Skip returns the number of documents to skip.
func (c *Criteria) Skip() int64 { return c.skip }

// Limit returns the maximum number of documents, zero meaning unlimited.
func (c *Criteria) Limit() int64 { return c.limit }

// IsEmpty reports whether c has no condition, no sort, no skip and no limit.
func (c *Criteria) IsEmpty() bool {
	return c == nil || (len(c.condition) == 0 && len(c.sort) == 0 && !c.skipSet && !c.limitSet)
}

// AddCondition adds {field: value}, or {field: {op: value}} when an operator
// is given. An existing condition on the same field is replaced.
func (c *Criteria) AddCondition(field string, value any, op ...string) *Criteria {
	if len(op) > 0 && op[0] != "" {
		c.condition[field] = domain.Document{op[0]: value}
	} else {
		c.condition[field] = value
	}
	return c
}

// AddBetween adds a condition for field to be between lo and hi, both
// inclusive.
func (c *Criteria) AddBetween(field string, lo, hi any) *Criteria {
	c.condition[field] = domain.Document{"$gte": lo, "$lte": hi}
	return c
}

// AddOr sets the $or list of the condition.
func (c *Criteria) AddOr(conds ...domain.Document) *Criteria {
	list := make(domain.A, len(conds))
	for n, cond := range conds {
		list[n] = doc.CloneDoc(cond)
	}
	c.condition["$or"] = list
	return c
}

// SetCondition merges cond under the current condition: keys already set on
// c keep their value.
func (c *Criteria) SetCondition(cond domain.Document) *Criteria {
	c.condition = doc.Merge(cond, c.condition)
	return c
}

// SetSort appends sort fields. A field already present keeps its position and
// takes the new direction.
func (c *Criteria) SetSort(fields ...domain.SortName) *Criteria {
	c.sort = overlaySort(c.sort, fields)
	return c
}

// SetSkip sets the number of documents to skip. Negative values are clamped
// to zero.
func (c *Criteria) SetSkip(skip int64) *Criteria {
	c.skip = max(skip, 0)
	c.skipSet = true
	return c
}

// SetLimit sets the maximum number of results. Zero means unlimited and
// negative values are clamped to zero.
func (c *Criteria) SetLimit(limit int64) *Criteria {
	c.limit = max(limit, 0)
	c.limitSet = true
	return c
}

// Compare adds a condition parsed from a raw search value. The value may start
// with one of the operators <, <=, >, >=, <> or != (equality is the default).
// Numeric values are converted to int or float. When strong is false and the
// value is not numeric, a case-insensitive substring match is used instead of
// equality. Blank values leave c unchanged.
//
// The new condition is merged under the existing one, so a field already
// constrained by an operator document gets both operators.
func (c *Criteria) Compare(field string, raw any, strong bool) *Criteria {
	if raw == nil {
		return c
	}
	var value string
	switch t := raw.(type) {
	case string:
		value = t
	case int, int32, int64, float32, float64:
		value = strconv.FormatFloat(toFloat(t), 'f', -1, 64)
	default:
		return c
	}
	if value == "" {
		return c
	}

	m := compareRe.FindStringSubmatch(value)
	op, rest := m[1], m[2]

	var parsed any = rest
	switch {
	case !strong && !numberRe.MatchString(rest):
		parsed = domain.Regex{Pattern: regexp.QuoteMeta(rest), Options: "i"}
	case intRe.MatchString(rest):
		if n, err := strconv.Atoi(rest); err == nil {
			parsed = n
		}
	case numberRe.MatchString(rest):
		if f, err := strconv.ParseFloat(rest, 64); err == nil {
			parsed = f
		}
	}

	var frag domain.Document
	if mop, ok := compareOps[op]; ok {
		frag = domain.Document{field: domain.Document{mop: parsed}}
	} else {
		frag = domain.Document{field: parsed}
	}

	c.condition = doc.Merge(frag, c.condition)
	return c
}

// MergeWith returns a new Criteria made of c overlaid with other: other's
// condition keys win on collision (nested documents are merged recursively),
// other's sort fields are overlaid and other's skip and limit replace c's if
// they were explicitly set. Neither c nor other is modified.
func (c *Criteria) MergeWith(other *Criteria) *Criteria {
	res := c.Clone()
	if other == nil {
		return res
	}
	res.condition = doc.Merge(c.condition, other.condition)
	res.sort = overlaySort(res.sort, other.sort)
	if other.skipSet {
		res.skip, res.skipSet = other.skip, true
	}
	if other.limitSet {
		res.limit, res.limitSet = other.limit, true
	}
	return res
}

// ToMap returns the criteria as a map with "condition", "sort", "skip" and
// "limit" keys, or only the condition if onlyCondition is true.
func (c *Criteria) ToMap(onlyCondition bool) map[string]any {
	if onlyCondition {
		return c.Condition()
	}
	res := map[string]any{"condition": c.Condition()}
	if len(c.sort) > 0 {
		res["sort"] = c.Sort()
	}
	if c.skipSet {
		res["skip"] = c.skip
	}
	if c.limitSet {
		res["limit"] = c.limit
	}
	return res
}

// FindOptions converts sort, skip and limit into driver find options.
func (c *Criteria) FindOptions() domain.FindOptions {
	return domain.FindOptions{Sort: c.Sort(), Skip: c.skip, Limit: c.limit}
}

// Direction converts a sort direction given as a number, a bool or a string
// ("asc"/"desc") into 1 or -1. Anything that is not explicitly descending is
// ascending.
func Direction(v any) int64 {
	switch t := v.(type) {
	case bool:
		if !t {
			return -1
		}
	case string:
		if strings.EqualFold(strings.TrimSpace(t), "desc") || t == "-1" {
			return -1
		}
	default:
		if f := toFloat(v); f < 0 {
			return -1
		}
	}
	return 1
}

func overlaySort(base, over domain.Sort) domain.Sort {
	res := slices.Clone(base)
	for _, s := range over {
		i := slices.IndexFunc(res, func(e domain.SortName) bool { return e.Key == s.Key })
		if i >= 0 {
			res[i].Order = s.Order
			continue
		}
		res = append(res, s)
	}
	return res
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	}
	return 0
}
