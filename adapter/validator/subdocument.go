package validator

import (
	"context"
	"strconv"

	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
)

// SubDocument validates the models of a sub-document attribute. Errors of
// the children are added to the parent under nested names: "address.street"
// for single sub-documents and "phones.0.number" for multi ones. When Message
// is set, a single error with that message is added instead.
//
// Rules, when not empty, replace the rules declared by the children.
type SubDocument struct {
	Rules   []model.Rule
	Message string
}

// ValidateAttribute implements [model.Validator].
func (v SubDocument) ValidateAttribute(ctx context.Context, obj model.Interface, attribute string) {
	sub, err := model.Of(obj).SubDocument(attribute)
	if err != nil {
		addError(obj, attribute, orDefault(v.Message, "{attribute} is invalid."))
		return
	}

	failed := false
	var nested []nestedError
	switch t := sub.(type) {
	case model.Interface:
		if !v.validate(ctx, t) {
			failed = true
			nested = append(nested, collect(attribute, t)...)
		}
	case *model.Array:
		for i, item := range t.All() {
			if !v.validate(ctx, item) {
				failed = true
				nested = append(nested, collect(attribute+"."+strconv.Itoa(i), item)...)
			}
		}
	}
	if !failed {
		return
	}
	if v.Message != "" {
		addError(obj, attribute, v.Message)
		return
	}
	parent := model.Of(obj)
	for _, e := range nested {
		parent.AddError(e.attribute, e.message)
	}
}

func (v SubDocument) validate(ctx context.Context, child model.Interface) bool {
	m := model.Of(child)
	if len(v.Rules) > 0 {
		return m.ValidateRules(ctx, v.Rules)
	}
	return m.Validate(ctx)
}

type nestedError struct {
	attribute string
	message   string
}

func collect(prefix string, child model.Interface) []nestedError {
	var res []nestedError
	for attr, msgs := range model.Of(child).Errors() {
		for _, msg := range msgs {
			res = append(res, nestedError{attribute: prefix + "." + attr, message: msg})
		}
	}
	return res
}
