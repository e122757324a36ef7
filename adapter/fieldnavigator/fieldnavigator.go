// Package fieldnavigator contains the default [domain.FieldNavigator]
// implementation.
package fieldnavigator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// ErrEmptyPath is returned when a field path has no parts.
var ErrEmptyPath = errors.New("empty field path")

// ErrCannotTraverse is returned when a path goes through a value that is
// neither a document nor a list.
type ErrCannotTraverse struct {
	Field string
	Value any
}

func (e ErrCannotTraverse) Error() string {
	return fmt.Sprintf("cannot create field %q in element %T", e.Field, e.Value)
}

// FieldNavigator implements [domain.FieldNavigator].
type FieldNavigator struct{}

// NewFieldNavigator returns a new instance of [domain.FieldNavigator].
func NewFieldNavigator() domain.FieldNavigator {
	return &FieldNavigator{}
}

// GetAddress implements [domain.FieldNavigator].
func (fn *FieldNavigator) GetAddress(field string) ([]string, error) {
	if field == "" {
		return nil, ErrEmptyPath
	}
	return strings.Split(field, "."), nil
}

// GetField implements [domain.FieldNavigator]. A numeric part indexes a list;
// any other part applied to a list is read from each of its documents.
func (fn *FieldNavigator) GetField(obj any, addr ...string) ([]domain.GetSetter, bool, error) {
	invalid := []domain.GetSetter{NewGetSetterEmpty()}
	if obj == nil || len(addr) == 0 {
		return invalid, false, nil
	}

	curr := []domain.GetSetter{NewReadOnlyGetSetter(obj)}
	expanded := false

	for _, part := range addr {
		next := make([]domain.GetSetter, 0, len(curr))
		for _, gs := range curr {
			v, ok := gs.Get()
			if !ok {
				continue
			}
			switch t := v.(type) {
			case domain.Document:
				if _, has := t[part]; has {
					next = append(next, NewGetSetterWithDoc(t, part))
				}
			case []any:
				if i, err := strconv.Atoi(part); err == nil {
					if i >= 0 && i < len(t) {
						next = append(next, NewGetSetterWithArrayIndex(t, i))
					}
					continue
				}
				expanded = true
				for _, item := range t {
					if d, ok := item.(domain.Document); ok {
						if _, has := d[part]; has {
							next = append(next, NewGetSetterWithDoc(d, part))
						}
					}
				}
			}
		}
		curr = next
	}

	if len(curr) == 0 {
		return invalid, expanded, nil
	}
	return curr, expanded, nil
}

// EnsureField implements [domain.FieldNavigator]. Lists are padded with nil
// up to a numeric part.
func (fn *FieldNavigator) EnsureField(doc domain.Document, addr ...string) (domain.GetSetter, error) {
	if len(addr) == 0 {
		return nil, ErrEmptyPath
	}

	var parent domain.GetSetter = NewReadOnlyGetSetter(doc)
	for idx, part := range addr {
		last := idx == len(addr)-1
		v, _ := parent.Get()

		var gs domain.GetSetter
		switch t := v.(type) {
		case domain.Document:
			gs = NewGetSetterWithDoc(t, part)
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 {
				return nil, ErrCannotTraverse{Field: strings.Join(addr[:idx+1], "."), Value: t}
			}
			if i >= len(t) {
				grown := make([]any, i+1)
				copy(grown, t)
				parent.Set(grown)
				t = grown
			}
			gs = NewGetSetterWithArrayIndex(t, i)
		default:
			return nil, ErrCannotTraverse{Field: strings.Join(addr[:idx+1], "."), Value: t}
		}

		if !last {
			if cur, ok := gs.Get(); !ok || cur == nil {
				gs.Set(domain.Document{})
			}
		}
		parent = gs
	}
	return parent, nil
}
