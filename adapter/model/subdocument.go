package model

import (
	"fmt"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// SubDocument returns the sub-document name, creating an empty one on first
// access if it is declared. Single sub-documents are returned as [Interface]
// and multi sub-documents as [*Array].
func (m *Model) SubDocument(name string) (any, error) {
	if v, ok := m.subs[name]; ok {
		return v, nil
	}
	decl, ok := m.subDocumentDecl(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSubDocument, name)
	}
	v, err := newSubDocument(decl, nil)
	if err != nil {
		return nil, err
	}
	m.storeSub(name, v)
	return v, nil
}

func newSubDocument(decl SubDocument, value any) (any, error) {
	if decl.Kind == Multi {
		items, err := toList(value)
		if err != nil {
			return nil, err
		}
		return NewArray(decl.New, items), nil
	}
	sub, err := decl.New()
	if err != nil {
		return nil, err
	}
	if data, ok := value.(map[string]any); ok {
		if err := sub.attributes().SetAttributes(data, false); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (m *Model) storeSub(name string, v any) {
	if m.subs == nil {
		m.subs = make(map[string]any)
	}
	m.subs[name] = v
}

// SetSubDocument assigns a sub-document. Accepted values are nil, a map, a
// list of maps, a model or an [*Array]:
//
//   - a model or an array replaces the sub-document;
//   - on a multi sub-document, nil empties it and a list repopulates it;
//   - on a single sub-document, nil cleans every attribute and a map is
//     assigned with [Model.SetAttributes] without the safe check.
//
// Any other value returns [domain.ErrInvalidSubDocumentValue].
func (m *Model) SetSubDocument(name string, value any) error {
	switch v := value.(type) {
	case *Array:
		m.storeSub(name, v)
		return nil
	case Interface:
		if v.attributes().schema == nil {
			if err := Bind(v, ScenarioInsert); err != nil {
				return err
			}
		}
		m.storeSub(name, v)
		return nil
	}

	decl, declared := m.subDocumentDecl(name)
	if !declared {
		if _, ok := m.subs[name]; !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownSubDocument, name)
		}
		decl = inferDecl(m.subs[name])
	}

	if decl.Kind == Multi {
		items, err := toList(value)
		if err != nil {
			return fmt.Errorf("%w: %q got %T", domain.ErrInvalidSubDocumentValue, name, value)
		}
		cur, err := m.SubDocument(name)
		if err != nil {
			return err
		}
		arr, ok := cur.(*Array)
		if !ok {
			m.storeSub(name, NewArray(decl.New, items))
			return nil
		}
		arr.Populate(items)
		return nil
	}

	switch v := value.(type) {
	case nil:
		cur, err := m.SubDocument(name)
		if err != nil {
			return err
		}
		if sub, ok := cur.(Interface); ok {
			return sub.attributes().Clean()
		}
		return nil
	case map[string]any:
		cur, err := m.SubDocument(name)
		if err != nil {
			return err
		}
		sub, ok := cur.(Interface)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidSubDocumentValue, name)
		}
		return sub.attributes().SetAttributes(v, false)
	}
	return fmt.Errorf("%w: %q got %T", domain.ErrInvalidSubDocumentValue, name, value)
}

// inferDecl describes a sub-document that was assigned without being
// declared.
func inferDecl(cur any) SubDocument {
	switch t := cur.(type) {
	case *Array:
		return SubDocument{Kind: Multi, New: t.factory}
	case Interface:
		owner := t
		return SubDocument{Kind: Single, New: func() (Interface, error) { return owner, nil }}
	}
	return SubDocument{}
}

func toList(value any) ([]any, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	case []map[string]any:
		res := make([]any, len(t))
		for n, d := range t {
			res[n] = d
		}
		return res, nil
	}
	return nil, domain.ErrInvalidSubDocumentValue
}
