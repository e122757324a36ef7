package model

import (
	"fmt"
	"iter"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Array is a multi sub-document: an ordered list of models of one type. Raw
// items are turned into models on first access.
type Array struct {
	factory func() (Interface, error)
	items   []arrayItem
}

type arrayItem struct {
	model Interface
	raw   any
}

// NewArray returns an Array of the models created by factory, populated with
// data.
func NewArray(factory func() (Interface, error), data []any) *Array {
	a := &Array{factory: factory}
	a.Populate(data)
	return a
}

// Len returns the number of items.
func (a *Array) Len() int {
	return len(a.items)
}

// At returns the model at index i, creating it from the raw item if needed.
// Models created from a non-empty item are in the update scenario, the
// others in the insert scenario.
func (a *Array) At(i int) (Interface, error) {
	if i < 0 || i >= len(a.items) {
		return nil, a.rangeError(i)
	}
	it := &a.items[i]
	if it.model != nil {
		return it.model, nil
	}
	m, err := a.materialize(it.raw)
	if err != nil {
		return nil, err
	}
	it.model = m
	it.raw = nil
	return m, nil
}

func (a *Array) materialize(raw any) (Interface, error) {
	if m, ok := raw.(Interface); ok {
		if m.attributes().schema == nil {
			return m, Bind(m, ScenarioInsert)
		}
		return m, nil
	}
	m, err := a.factory()
	if err != nil {
		return nil, err
	}
	data, _ := raw.(map[string]any)
	attrs := m.attributes()
	if len(data) == 0 {
		attrs.SetScenario(ScenarioInsert)
		return m, nil
	}
	attrs.SetScenario(ScenarioUpdate)
	if err := attrs.SetAttributes(data, false); err != nil {
		return nil, err
	}
	return m, nil
}

// Append adds a model or a map at the end of the array.
func (a *Array) Append(v any) error {
	it, err := newArrayItem(v)
	if err != nil {
		return err
	}
	a.items = append(a.items, it)
	return nil
}

// InsertAt inserts a model or a map at index i, shifting the following items.
// Inserting at Len appends.
func (a *Array) InsertAt(i int, v any) error {
	if i < 0 || i > len(a.items) {
		return a.rangeError(i)
	}
	it, err := newArrayItem(v)
	if err != nil {
		return err
	}
	a.items = append(a.items, arrayItem{})
	copy(a.items[i+1:], a.items[i:])
	a.items[i] = it
	return nil
}

// RemoveAt removes the item at index i.
func (a *Array) RemoveAt(i int) error {
	if i < 0 || i >= len(a.items) {
		return a.rangeError(i)
	}
	a.items = append(a.items[:i], a.items[i+1:]...)
	return nil
}

// Populate replaces every item with data. Items that are neither maps nor
// models are dropped.
func (a *Array) Populate(data []any) {
	a.items = make([]arrayItem, 0, len(data))
	for _, v := range data {
		if it, err := newArrayItem(v); err == nil {
			a.items = append(a.items, it)
		}
	}
}

// Models returns every item as a model.
func (a *Array) Models() ([]Interface, error) {
	res := make([]Interface, len(a.items))
	for i := range a.items {
		m, err := a.At(i)
		if err != nil {
			return nil, err
		}
		res[i] = m
	}
	return res, nil
}

// All iterates over the items as models. Iteration stops at the first item
// that cannot be created.
func (a *Array) All() iter.Seq2[int, Interface] {
	return func(yield func(int, Interface) bool) {
		for i := range a.items {
			m, err := a.At(i)
			if err != nil || !yield(i, m) {
				return
			}
		}
	}
}

// Documents returns the persistable form of the items.
func (a *Array) Documents() domain.A {
	res := make(domain.A, len(a.items))
	for n, it := range a.items {
		if it.model != nil {
			res[n] = FilterDocument(it.model)
			continue
		}
		res[n] = FilterDocument(doc.Clone(it.raw))
	}
	return res
}

func (a *Array) rangeError(i int) error {
	return fmt.Errorf("model: index %d out of range [0:%d]", i, len(a.items))
}

func newArrayItem(v any) (arrayItem, error) {
	switch t := v.(type) {
	case Interface:
		if t.attributes().schema == nil {
			return arrayItem{raw: t}, nil
		}
		return arrayItem{model: t}, nil
	case map[string]any:
		return arrayItem{raw: t}, nil
	case nil:
		return arrayItem{raw: map[string]any{}}, nil
	}
	return arrayItem{}, fmt.Errorf("%w: %T", domain.ErrInvalidSubDocumentValue, v)
}
