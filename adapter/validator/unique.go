package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
)

// Persistent is implemented by stored models, which the [Unique] validator
// needs to look up existing documents.
type Persistent interface {
	model.Interface
	Connection() domain.Connection
	CollectionName() string
	PrimaryKey() string
	PrimaryKeyValue() any
}

// Unique fails when another document of the collection already has the
// value of the attribute.
type Unique struct {
	// CaseInsensitive compares string values ignoring case.
	CaseInsensitive bool
	ValidateEmpty   bool
	// Collection is the collection searched. Defaults to the collection of
	// the validated object.
	Collection string
	// AttributeName is the document field searched. Defaults to the
	// validated attribute.
	AttributeName string
	// Criteria is merged into the lookup condition.
	Criteria *criteria.Criteria
	Message  string
}

// ValidateAttribute implements [model.Validator]. The object must implement
// [Persistent].
func (v Unique) ValidateAttribute(ctx context.Context, obj model.Interface, attribute string) {
	value := valueOf(obj, attribute)
	if !v.ValidateEmpty && IsEmpty(value) {
		return
	}
	switch value.(type) {
	case []any, map[string]any:
		addError(obj, attribute, "{attribute} is invalid.")
		return
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}

	p, ok := obj.(Persistent)
	if !ok {
		addError(obj, attribute, "{attribute} cannot be checked for uniqueness.")
		return
	}
	collection := orDefault(v.Collection, p.CollectionName())
	field := orDefault(v.AttributeName, attribute)

	var search any = value
	if s, isStr := value.(string); isStr && v.CaseInsensitive {
		search = domain.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
	}
	var extra domain.Document
	if v.Criteria != nil {
		extra = v.Criteria.Condition()
	}
	cond := doc.Merge(extra, domain.Document{field: search})

	pk := p.PrimaryKey()
	found, err := p.Connection().Collection(collection).FindOne(ctx, cond, domain.FindOptions{
		Projection: domain.Document{pk: 1},
	})
	if err != nil {
		addError(obj, attribute, "{attribute} cannot be checked for uniqueness.")
		return
	}
	if found != nil && fmt.Sprint(found[pk]) != fmt.Sprint(p.PrimaryKeyValue()) {
		addError(obj, attribute, orDefault(v.Message, `{attribute} "{value}" has already been taken.`),
			PlaceholderValue, fmt.Sprint(value))
	}
}
