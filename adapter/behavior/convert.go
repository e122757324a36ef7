package behavior

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/command"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
)

// ID converts attributes to the native identifier type of the driver before
// saving. Lists are converted item by item.
type ID struct {
	Attributes []string
	// KeepNull converts nil values too, generating new identifiers.
	KeepNull bool
}

// BeforeSave implements [BeforeSaver].
func (b *ID) BeforeSave(_ context.Context, owner Owner) bool {
	drv := owner.Connection().Driver()
	m := model.Of(owner)
	for _, attr := range b.Attributes {
		if !m.Has(attr) {
			continue
		}
		v := m.Value(attr)
		if v == nil && !b.KeepNull {
			continue
		}
		conv, err := convertEach(v, func(item any) (any, error) {
			if item == nil {
				return drv.NewID(), nil
			}
			return drv.ToID(item)
		})
		if err != nil {
			m.AddError(attr, fmt.Sprintf("%s is not a valid identifier.", m.AttributeLabel(attr)))
			return false
		}
		if !set(owner, attr, conv) {
			return false
		}
	}
	return true
}

// Int converts attributes to 32 or 64 bit integers before saving and after
// loading. Lists are converted item by item and values that cannot be parsed
// become zero.
type Int struct {
	Int32 []string
	Int64 []string
}

// BeforeSave implements [BeforeSaver].
func (b *Int) BeforeSave(_ context.Context, owner Owner) bool {
	return b.run(owner)
}

// AfterFind implements [AfterFinder].
func (b *Int) AfterFind(_ context.Context, owner Owner) {
	b.run(owner)
}

func (b *Int) run(owner Owner) bool {
	m := model.Of(owner)
	ok := true
	for _, attr := range b.Int32 {
		if m.Has(attr) {
			v, _ := convertEach(m.Value(attr), func(item any) (any, error) {
				return int32(clamp(toInt64(item), math.MinInt32, math.MaxInt32)), nil
			})
			ok = set(owner, attr, v) && ok
		}
	}
	for _, attr := range b.Int64 {
		if m.Has(attr) {
			v, _ := convertEach(m.Value(attr), func(item any) (any, error) {
				return toInt64(item), nil
			})
			ok = set(owner, attr, v) && ok
		}
	}
	return ok
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return int64(t)
	case float64:
		return int64(t)
	case bool:
		if t {
			return 1
		}
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func clamp(n, lo, hi int64) int64 {
	return min(max(n, lo), hi)
}

// Date converts attributes to [time.Time] before saving. Nil values are kept
// unless KeepNull is set, in which case they become the current time.
type Date struct {
	Attributes []string
	KeepNull   bool
}

// BeforeSave implements [BeforeSaver].
func (b *Date) BeforeSave(_ context.Context, owner Owner) bool {
	m := model.Of(owner)
	for _, attr := range b.Attributes {
		if !m.Has(attr) {
			continue
		}
		v := m.Value(attr)
		if v == nil && !b.KeepNull {
			continue
		}
		d, err := command.Date(v)
		if err != nil {
			m.AddError(attr, fmt.Sprintf("%s is not a valid date.", m.AttributeLabel(attr)))
			return false
		}
		if !set(owner, attr, d) {
			return false
		}
	}
	return true
}
