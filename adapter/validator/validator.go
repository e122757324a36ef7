// Package validator contains the attribute validators used in model rules.
package validator

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
)

// Message placeholders.
const (
	PlaceholderAttribute = "{attribute}"
	PlaceholderValue     = "{value}"
	PlaceholderMin       = "{min}"
	PlaceholderMax       = "{max}"
	PlaceholderLength    = "{length}"
)

// addError formats message and adds it to attribute of obj. The attribute
// placeholder is always available.
func addError(obj model.Interface, attribute, message string, params ...string) {
	m := model.Of(obj)
	params = append(params, PlaceholderAttribute, m.AttributeLabel(attribute))
	m.AddError(attribute, strings.NewReplacer(params...).Replace(message))
}

func valueOf(obj model.Interface, attribute string) any {
	return model.Of(obj).Value(attribute)
}

// IsEmpty reports whether v is nil, a blank string, an empty list or map, or
// the zero value of its type.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

// Required fails on empty values (see [IsEmpty]). When RequiredValue is set,
// the value must be equal to it instead.
type Required struct {
	RequiredValue any
	Message       string
}

// ValidateAttribute implements [model.Validator].
func (v Required) ValidateAttribute(_ context.Context, obj model.Interface, attribute string) {
	value := valueOf(obj, attribute)
	if v.RequiredValue != nil {
		if fmt.Sprint(value) != fmt.Sprint(v.RequiredValue) {
			addError(obj, attribute, orDefault(v.Message, "{attribute} must be {value}."),
				PlaceholderValue, fmt.Sprint(v.RequiredValue))
		}
		return
	}
	if IsEmpty(value) {
		addError(obj, attribute, orDefault(v.Message, "{attribute} cannot be blank."))
	}
}

// Safe marks attributes as safe for mass assignment without checking them.
type Safe struct{}

// ValidateAttribute implements [model.Validator].
func (Safe) ValidateAttribute(context.Context, model.Interface, string) {}

// Unsafe marks attributes as unsafe for mass assignment.
type Unsafe struct{}

// ValidateAttribute implements [model.Validator].
func (Unsafe) ValidateAttribute(context.Context, model.Interface, string) {}

// Unsafe reports true.
func (Unsafe) Unsafe() bool { return true }

// Match checks a string value against Pattern. With Not, the value must not
// match. Empty values are skipped unless ValidateEmpty is set.
type Match struct {
	Pattern       *regexp.Regexp
	Not           bool
	ValidateEmpty bool
	Message       string
}

// ValidateAttribute implements [model.Validator].
func (v Match) ValidateAttribute(_ context.Context, obj model.Interface, attribute string) {
	value := valueOf(obj, attribute)
	if !v.ValidateEmpty && IsEmpty(value) {
		return
	}
	s, ok := stringOf(value)
	if !ok || v.Pattern == nil || v.Pattern.MatchString(s) == v.Not {
		addError(obj, attribute, orDefault(v.Message, "{attribute} is invalid."))
	}
}

// Length checks the number of characters of a string value. Zero Min, Max or
// Is are not checked. Empty values are skipped unless ValidateEmpty is set.
type Length struct {
	Min, Max, Is  int
	ValidateEmpty bool
	TooShort      string
	TooLong       string
	Message       string
}

// ValidateAttribute implements [model.Validator].
func (v Length) ValidateAttribute(_ context.Context, obj model.Interface, attribute string) {
	value := valueOf(obj, attribute)
	if !v.ValidateEmpty && IsEmpty(value) {
		return
	}
	s, ok := stringOf(value)
	if !ok {
		addError(obj, attribute, orDefault(v.Message, "{attribute} is invalid."))
		return
	}
	n := utf8.RuneCountInString(s)
	switch {
	case v.Min > 0 && n < v.Min:
		addError(obj, attribute, orDefault(v.TooShort, "{attribute} is too short (minimum is {min} characters)."),
			PlaceholderMin, strconv.Itoa(v.Min))
	case v.Max > 0 && n > v.Max:
		addError(obj, attribute, orDefault(v.TooLong, "{attribute} is too long (maximum is {max} characters)."),
			PlaceholderMax, strconv.Itoa(v.Max))
	case v.Is > 0 && n != v.Is:
		addError(obj, attribute, orDefault(v.Message, "{attribute} is of the wrong length (should be {length} characters)."),
			PlaceholderLength, strconv.Itoa(v.Is))
	}
}

func stringOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case int, int32, int64, float64:
		return fmt.Sprint(t), true
	}
	return "", false
}

func orDefault(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
