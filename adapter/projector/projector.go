// Package projector contains the default [domain.Projector] implementation.
package projector

import (
	"errors"
	"maps"
	"slices"

	"github.com/vinicius-lino-figueiredo/godm/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

var (
	// ErrMixOmitType is returned when user provides a projection object
	// with mixed "omit" and "show" operators.
	ErrMixOmitType = errors.New("can't both keep and omit fields except for _id")
)

// Projector implements [domain.Projector].
type Projector struct {
	fn domain.FieldNavigator
}

// NewProjector returns a new implementation of [domain.Projector].
func NewProjector(opts ...Option) domain.Projector {
	p := Projector{}
	for _, opt := range opts {
		opt(&p)
	}
	if p.fn == nil {
		p.fn = fieldnavigator.NewFieldNavigator()
	}
	return &p
}

// Project implements [domain.Projector]. Values in proj are read as keep
// when true or non-zero numbers.
func (q *Projector) Project(docs []domain.Document, proj domain.Document) ([]domain.Document, error) {
	if len(proj) == 0 {
		return docs, nil
	}

	id, idMentioned := proj["_id"]
	keepID := !idMentioned || keep(id)
	_projection := make([][]string, 0, len(proj))

	fields := 0
	oneFields := 0
	for _, field := range slices.Sorted(maps.Keys(proj)) {
		if field == "_id" {
			continue
		}
		fields++
		if keep(proj[field]) {
			oneFields++
		}
		if oneFields > 0 && oneFields != fields {
			return nil, ErrMixOmitType
		}
		addr, err := q.fn.GetAddress(field)
		if err != nil {
			return nil, err
		}
		_projection = append(_projection, addr)
	}

	res := make([]domain.Document, len(docs))
	for n, d := range docs {
		projected, err := q.projectDoc(d, _projection, oneFields != 0)
		if err != nil {
			return nil, err
		}

		if v, ok := d["_id"]; keepID && ok {
			projected["_id"] = v
		} else {
			delete(projected, "_id")
		}
		res[n] = projected
	}

	return res, nil
}

func (q *Projector) projectDoc(d domain.Document, p [][]string, add bool) (domain.Document, error) {
	if add {
		return q.positiveProject(d, p)
	}
	return q.negativeProject(d, p)
}

func (q *Projector) positiveProject(d domain.Document, p [][]string) (domain.Document, error) {
	res := domain.Document{}

	for _, field := range p {
		values, expanded, err := q.fn.GetField(d, field...)
		if err != nil {
			return nil, err
		}
		fieldValues, ok := q.readFields(values, expanded)
		if !ok {
			continue
		}
		created, err := q.fn.EnsureField(res, field...)
		if err != nil {
			return nil, err
		}
		created.Set(doc.Clone(fieldValues))
	}
	return res, nil
}

func (q *Projector) readFields(f []domain.GetSetter, expanded bool) (any, bool) {
	if !expanded {
		return f[0].Get()
	}
	res := make([]any, 0, len(f))
	for _, field := range f {
		if value, ok := field.Get(); ok {
			res = append(res, value)
		}
	}
	return res, true
}

func (q *Projector) negativeProject(d domain.Document, p [][]string) (domain.Document, error) {
	res := doc.CloneDoc(d)
	for _, field := range p {
		values, _, err := q.fn.GetField(res, field...)
		if err != nil {
			return nil, err
		}
		for _, value := range values {
			value.Unset()
		}
	}
	return res, nil
}

func keep(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case uint8:
		return t != 0
	}
	return v != nil
}
