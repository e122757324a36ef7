// Package doc contains helpers to merge and copy map-shaped documents.
package doc

import (
	"maps"
	"reflect"
)

// Merge recursively merges the given documents into a new one. Later
// documents win on key collision, except when both values are documents (they
// are merged recursively) or both are lists (they are concatenated). None of
// the inputs is modified.
func Merge(docs ...map[string]any) map[string]any {
	res := make(map[string]any)
	for _, d := range docs {
		mergeInto(res, d)
	}
	return res
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		cur, exists := dst[k]
		if !exists {
			dst[k] = Clone(v)
			continue
		}
		switch sv := v.(type) {
		case map[string]any:
			if dv, ok := cur.(map[string]any); ok {
				merged := Clone(dv).(map[string]any)
				mergeInto(merged, sv)
				dst[k] = merged
				continue
			}
		case []any:
			if dv, ok := cur.([]any); ok {
				merged := make([]any, 0, len(dv)+len(sv))
				merged = append(merged, dv...)
				for _, item := range sv {
					merged = append(merged, Clone(item))
				}
				dst[k] = merged
				continue
			}
		}
		dst[k] = Clone(v)
	}
}

// Clone returns a deep copy of v, copying nested documents and lists. Other
// values are returned as they are.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		res := make(map[string]any, len(t))
		for k, item := range t {
			res[k] = Clone(item)
		}
		return res
	case []any:
		if t == nil {
			return t
		}
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = Clone(item)
		}
		return res
	}
	return v
}

// CloneDoc is a typed shortcut for [Clone] on documents. A nil document
// results in an empty one.
func CloneDoc(d map[string]any) map[string]any {
	if d == nil {
		return make(map[string]any)
	}
	return Clone(d).(map[string]any)
}

// Without returns a shallow copy of d without the given keys.
func Without(d map[string]any, keys ...string) map[string]any {
	res := maps.Clone(d)
	if res == nil {
		res = make(map[string]any)
	}
	for _, k := range keys {
		delete(res, k)
	}
	return res
}

// Normalize returns a deep copy of v where typed slices become []any and
// maps keyed by strings become documents, the shapes a document has after a
// round trip through a store. Byte slices are kept as they are.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any, []any:
		return normalizeValue(reflect.ValueOf(t))
	case []byte:
		return t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
	default:
		return v
	}
	return normalizeValue(rv)
}

func normalizeValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any(nil)
		}
		res := make([]any, rv.Len())
		for i := range res {
			res[i] = Normalize(rv.Index(i).Interface())
		}
		return res
	case reflect.Map:
		if rv.IsNil() {
			return map[string]any(nil)
		}
		res := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			res[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return res
	}
	return rv.Interface()
}
