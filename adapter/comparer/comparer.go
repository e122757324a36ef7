// Package comparer contains the default [domain.Comparer] implementation.
package comparer

import (
	"cmp"
	"maps"
	"math/big"
	"slices"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Comparer implements [domain.Comparer]. Values of different types are
// ordered as nil < numbers < strings < booleans < dates < arrays <
// documents.
type Comparer struct{}

// NewComparer returns a new implementation of [domain.Comparer].
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Comparable implements [domain.Comparer].
func (c *Comparer) Comparable(a, b any) bool {
	a, b = c.normalize(a), c.normalize(b)

	if _, ok := c.asNumber(a); ok {
		_, ok = c.asNumber(b)
		return ok
	}

	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case time.Time:
		_, ok := b.(time.Time)
		return ok
	}
	return false
}

// Compare implements [domain.Comparer].
func (c *Comparer) Compare(a, b any) (int, error) {
	a, b = c.normalize(a), c.normalize(b)

	if c, ok := c.checkNil(a, b); ok {
		return c, nil
	}

	if c, ok := c.checkNumbers(a, b); ok {
		return c, nil
	}

	if c, ok := c.checkStrings(a, b); ok {
		return c, nil
	}

	if c, ok := c.checkBooleans(a, b); ok {
		return c, nil
	}

	if c, ok := c.checkTime(a, b); ok {
		return c, nil
	}

	if c, ok, err := c.checkArrays(a, b); err != nil || ok {
		return c, err
	}

	if c, ok, err := c.checkDocs(a, b); err != nil || ok {
		return c, err
	}

	return 0, domain.ErrCannotCompare{A: a, B: b}
}

// normalize turns references into documents so they are ordered like them.
func (c *Comparer) normalize(v any) any {
	switch t := v.(type) {
	case domain.DBRef:
		return t.Document()
	case *domain.DBRef:
		if t == nil {
			return nil
		}
		return t.Document()
	case domain.Regex:
		return t.String()
	}
	return v
}

func (c *Comparer) checkNil(a, b any) (int, bool) {
	if a == nil {
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	if b == nil {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkNumbers(a, b any) (int, bool) {
	if a, ok := c.asNumber(a); ok {
		// big.Float compares floats and 64 bit integers without precision
		// loss
		if b, ok := c.asNumber(b); ok {
			return a.Cmp(b), true
		}
		return -1, true
	}
	if _, ok := c.asNumber(b); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkStrings(a, b any) (int, bool) {
	if a, ok := a.(string); ok {
		if b, ok := b.(string); ok {
			return cmp.Compare(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(string); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkBooleans(a, b any) (int, bool) {
	if a, ok := a.(bool); ok {
		if b, ok := b.(bool); ok {
			return c.compareBool(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(bool); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkTime(a, b any) (int, bool) {
	if a, ok := a.(time.Time); ok {
		if b, ok := b.(time.Time); ok {
			return a.Compare(b), true
		}
		return -1, true
	}
	if _, ok := b.(time.Time); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkArrays(a, b any) (int, bool, error) {
	if a, ok := a.([]any); ok {
		if b, ok := b.([]any); ok {
			comp, err := c.compareArray(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.([]any); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func (c *Comparer) checkDocs(a, b any) (int, bool, error) {
	if a, ok := a.(domain.Document); ok {
		if b, ok := b.(domain.Document); ok {
			comp, err := c.compareDoc(a, b)
			return comp, true, err
		}
		return -1, true, nil
	}
	if _, ok := b.(domain.Document); ok {
		return 1, true, nil
	}
	return 0, false, nil
}

func (c *Comparer) compareArray(a, b []any) (int, error) {
	for i := range min(len(a), len(b)) {
		comp, err := c.Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}

	// common section was identical, longest one wins
	return cmp.Compare(len(a), len(b)), nil
}

func (c *Comparer) compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func (c *Comparer) compareDoc(a, b domain.Document) (int, error) {
	aKeys := slices.Sorted(maps.Keys(a))
	bKeys := slices.Sorted(maps.Keys(b))

	for i := range min(len(aKeys), len(bKeys)) {
		comp, err := c.Compare(a[aKeys[i]], b[bKeys[i]])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}

	if comp := cmp.Compare(len(a), len(b)); comp != 0 {
		return comp, nil
	}

	return slices.Compare(aKeys, bKeys), nil
}

func (c *Comparer) asNumber(v any) (*big.Float, bool) {
	r := new(big.Float)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		r.SetFloat64(float64(n))
	case float64:
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
