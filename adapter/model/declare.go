package model

import (
	"context"
	"slices"
)

// Kind tells whether a sub-document holds one model or a list of models.
type Kind int

// Sub-document kinds.
const (
	Single Kind = iota
	Multi
)

// SubDocument declares an embedded sub-document.
type SubDocument struct {
	Kind Kind
	// New creates an empty, bound instance of the sub-document model. See
	// [Constructor].
	New func() (Interface, error)
}

// SubDocumentsDeclarer is implemented by models with sub-documents.
type SubDocumentsDeclarer interface {
	SubDocuments() map[string]SubDocument
}

// LabelsDeclarer is implemented by models with custom attribute labels.
type LabelsDeclarer interface {
	AttributeLabels() map[string]string
}

// RulesDeclarer is implemented by models with validation rules.
type RulesDeclarer interface {
	Rules() []Rule
}

// Initializer is implemented by models that need setup once bound.
type Initializer interface {
	Init()
}

// UnsafeAttributeHandler receives attributes rejected by a safe
// [Model.SetAttributes].
type UnsafeAttributeHandler interface {
	OnUnsafeAttribute(name string, value any)
}

// BeforeValidator can abort a validation by returning false.
type BeforeValidator interface {
	BeforeValidate(ctx context.Context) bool
}

// AfterValidator is called at the end of a validation.
type AfterValidator interface {
	AfterValidate(ctx context.Context)
}

// Validator checks one attribute of obj and records errors with
// [Model.AddError].
type Validator interface {
	ValidateAttribute(ctx context.Context, obj Interface, attribute string)
}

// Rule binds a validator to fields and scenarios.
type Rule struct {
	Fields    []string
	Validator Validator
	// On lists the scenarios the rule applies to. Empty means all.
	On []string
	// Except lists the scenarios the rule does not apply to.
	Except []string
	// SkipOnError skips fields that already have errors.
	SkipOnError bool
}

// AppliesTo reports whether the rule runs in scenario.
func (r Rule) AppliesTo(scenario string) bool {
	if slices.Contains(r.Except, scenario) {
		return false
	}
	return len(r.On) == 0 || slices.Contains(r.On, scenario)
}
