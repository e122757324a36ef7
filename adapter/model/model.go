// Package model contains the Attribute Model: a carrier of declared struct
// fields, dynamic attributes and embedded sub-documents, which serializes into
// a map-shaped document.
//
// Types become models by embedding [Model] and being bound with [Bind] or
// created with [New]:
//
//	type Address struct {
//		model.Model
//		Street string `odm:"street,safe"`
//		City   string `odm:"city,safe"`
//	}
//
//	addr, err := model.New[*Address]()
package model

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Scenarios used by the mapper. Applications may use their own.
const (
	ScenarioInsert = "insert"
	ScenarioUpdate = "update"
	ScenarioSearch = "search"
)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// Interface is implemented by every type embedding [Model].
type Interface interface {
	attributes() *Model
}

// Model is the attribute carrier. Embed it in a struct; do not use it by
// value on its own.
type Model struct {
	owner    Interface
	schema   *Schema
	dynamic  map[string]any
	subs     map[string]any
	errors   map[string][]string
	scenario string
}

func (m *Model) attributes() *Model { return m }

// Of returns the embedded [Model] of v.
func Of(v Interface) *Model {
	return v.attributes()
}

// Bind attaches owner to its embedded [Model] and schema, and sets the
// scenario. Owners implementing [Initializer] get Init called. Binding an
// already bound model only changes its scenario.
func Bind(owner Interface, scenario string) error {
	m := owner.attributes()
	if m.schema != nil && m.owner == owner {
		m.scenario = scenario
		return nil
	}
	if err := Attach(owner, scenario); err != nil {
		return err
	}
	if in, ok := owner.(Initializer); ok {
		in.Init()
	}
	return nil
}

// Attach is like [Bind] but never calls Init. It is meant for detached
// instances that only serve as metadata holders.
func Attach(owner Interface, scenario string) error {
	s, err := SchemaOf(owner)
	if err != nil {
		return err
	}
	m := owner.attributes()
	m.owner = owner
	m.schema = s
	m.scenario = scenario
	if m.dynamic == nil {
		m.dynamic = make(map[string]any)
	}
	if m.subs == nil {
		m.subs = make(map[string]any)
	}
	if m.errors == nil {
		m.errors = make(map[string][]string)
	}
	return nil
}

// Bound reports whether v was bound with [Bind] or [Attach].
func Bound(v Interface) bool {
	return v.attributes().schema != nil
}

// New creates and binds a new T, which must be a pointer to a struct
// embedding [Model]. The default scenario is [ScenarioInsert].
func New[T Interface](scenario ...string) (T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Ptr {
		return zero, fmt.Errorf("model: %T is not a pointer type", zero)
	}
	v, ok := reflect.New(t.Elem()).Interface().(T)
	if !ok {
		return zero, fmt.Errorf("model: cannot create %s", t)
	}
	sc := ScenarioInsert
	if len(scenario) > 0 {
		sc = scenario[0]
	}
	if err := Bind(v, sc); err != nil {
		return zero, err
	}
	return v, nil
}

// Constructor returns a constructor of T suitable for [SubDocument.New].
func Constructor[T Interface]() func() (Interface, error) {
	return func() (Interface, error) {
		return New[T]()
	}
}

// Owner returns the value embedding m, or nil if m is not bound.
func (m *Model) Owner() Interface { return m.owner }

// Schema returns the schema of the bound type.
func (m *Model) Schema() *Schema { return m.schema }

// Scenario returns the current scenario.
func (m *Model) Scenario() string { return m.scenario }

// SetScenario changes the current scenario.
func (m *Model) SetScenario(s string) { m.scenario = s }

func (m *Model) ownerValue() reflect.Value {
	return reflect.ValueOf(m.owner).Elem()
}

// Has reports whether name is a declared field, a dynamic attribute
// or a declared sub-document.
func (m *Model) Has(name string) bool {
	if _, ok := m.schema.Field(name); ok {
		return true
	}
	if _, ok := m.dynamic[name]; ok {
		return true
	}
	_, ok := m.subDocumentDecl(name)
	return ok
}

// AttributeNames returns the declared fields in declaration order, followed
// by the dynamic attributes and the sub-documents, both sorted.
func (m *Model) AttributeNames() []string {
	names := m.schema.FieldNames()
	names = append(names, slices.Sorted(maps.Keys(m.dynamic))...)
	for _, sd := range m.subDocumentNames() {
		if !slices.Contains(names, sd) {
			names = append(names, sd)
		}
	}
	return names
}

func (m *Model) subDocumentNames() []string {
	names := m.schema.SubDocumentNames()
	for k := range m.subs {
		if !slices.Contains(names, k) {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}

func (m *Model) subDocumentDecl(name string) (SubDocument, bool) {
	if m.schema == nil {
		return SubDocument{}, false
	}
	sd, ok := m.schema.SubDocuments[name]
	return sd, ok
}

// Get returns the value of an attribute. Declared fields are looked up
// first, then dynamic attributes, then sub-documents. Declared sub-documents
// are created on first access. The second result is false if name is none of
// those.
func (m *Model) Get(name string) (any, bool) {
	if f, ok := m.schema.Field(name); ok && m.owner != nil {
		return m.ownerValue().FieldByIndex(f.Index).Interface(), true
	}
	if v, ok := m.dynamic[name]; ok {
		return v, true
	}
	if v, ok := m.subs[name]; ok {
		return v, true
	}
	if _, ok := m.subDocumentDecl(name); ok {
		v, err := m.SubDocument(name)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// Value is like [Model.Get] but returns only the value.
func (m *Model) Value(name string) any {
	v, _ := m.Get(name)
	return v
}

// Set assigns an attribute. Sub-documents are handled by
// [Model.SetSubDocument]; declared fields are converted to the field type;
// any other name becomes a dynamic attribute.
func (m *Model) Set(name string, value any) error {
	if _, ok := m.subDocumentDecl(name); ok {
		return m.SetSubDocument(name, value)
	}
	if _, ok := m.subs[name]; ok {
		return m.SetSubDocument(name, value)
	}
	if f, ok := m.schema.Field(name); ok && m.owner != nil {
		if err := assign(m.ownerValue().FieldByIndex(f.Index), value); err != nil {
			return fmt.Errorf("model: setting %q: %w", name, err)
		}
		return nil
	}
	if m.dynamic == nil {
		m.dynamic = make(map[string]any)
	}
	m.dynamic[name] = value
	return nil
}

// Unset removes a dynamic attribute or a cached sub-document, or sets a
// declared field to its zero value.
func (m *Model) Unset(name string) {
	if f, ok := m.schema.Field(name); ok && m.owner != nil {
		fv := m.ownerValue().FieldByIndex(f.Index)
		fv.Set(reflect.Zero(fv.Type()))
		return
	}
	delete(m.dynamic, name)
	delete(m.subs, name)
}

// Attributes returns the values of the given attributes, or of every
// attribute if none is given. Sub-documents are returned as models.
func (m *Model) Attributes(names ...string) map[string]any {
	if len(names) == 0 {
		names = m.AttributeNames()
	}
	res := make(map[string]any, len(names))
	for _, n := range names {
		res[n] = m.Value(n)
	}
	return res
}

// SafeAttributeNames returns the attributes that may be mass-assigned in the
// current scenario: fields tagged "safe" and fields named by a rule that
// applies to the scenario and is not unsafe.
func (m *Model) SafeAttributeNames() []string {
	var safe, unsafe []string
	for _, f := range m.schema.Fields {
		if f.Safe {
			safe = append(safe, f.Name)
		}
	}
	for _, r := range m.rules() {
		if !r.AppliesTo(m.scenario) {
			continue
		}
		if u, ok := r.Validator.(interface{ Unsafe() bool }); ok && u.Unsafe() {
			unsafe = append(unsafe, r.Fields...)
			continue
		}
		safe = append(safe, r.Fields...)
	}
	res := make([]string, 0, len(safe))
	for _, s := range safe {
		if !slices.Contains(unsafe, s) && !slices.Contains(res, s) {
			res = append(res, s)
		}
	}
	return res
}

// SetAttributes assigns values in bulk. With safeOnly, only safe attributes
// (see [Model.SafeAttributeNames]) are assigned and the others are passed to
// [UnsafeAttributeHandler.OnUnsafeAttribute] when the owner implements it.
//
// Strings made only of digits are converted to int before assignment, a
// legacy behavior kept for compatibility.
func (m *Model) SetAttributes(values map[string]any, safeOnly bool) error {
	var safe []string
	if safeOnly {
		safe = m.SafeAttributeNames()
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		v := values[name]
		if safeOnly && !slices.Contains(safe, name) {
			if h, ok := m.owner.(UnsafeAttributeHandler); ok {
				h.OnUnsafeAttribute(name, v)
			}
			continue
		}
		if s, ok := v.(string); ok && digitsRe.MatchString(s) {
			if n, err := strconv.Atoi(s); err == nil {
				v = n
			}
		}
		if err := m.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Clean sets every attribute to nil: declared fields get their zero value,
// single sub-documents are cleaned and multi sub-documents emptied.
func (m *Model) Clean() error {
	for _, name := range m.AttributeNames() {
		if err := m.Set(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// AsDocument returns the persistable form of the model: a map of the given
// fields (every attribute if none is given) where sub-documents are unwrapped
// into maps and lists. Declared fields tagged omitempty are left out when zero
// unless explicitly requested.
func (m *Model) AsDocument(fields ...string) domain.Document {
	explicit := len(fields) > 0
	if !explicit {
		fields = m.AttributeNames()
	}
	res := make(domain.Document, len(fields))
	for _, name := range fields {
		v, ok := m.Get(name)
		if !ok {
			continue
		}
		if f, declared := m.schema.Field(name); declared && f.OmitEmpty && !explicit {
			if v == nil || reflect.ValueOf(v).IsZero() {
				continue
			}
		}
		res[name] = FilterDocument(v)
	}
	return res
}

// FilterDocument recursively unwraps models into documents and model arrays
// into lists, at any depth. Other values are returned unchanged.
func FilterDocument(v any) any {
	switch t := v.(type) {
	case Interface:
		if t == nil {
			return nil
		}
		return t.attributes().AsDocument()
	case *Array:
		if t == nil {
			return domain.A{}
		}
		return t.Documents()
	case map[string]any:
		res := make(map[string]any, len(t))
		for k, item := range t {
			res[k] = FilterDocument(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = FilterDocument(item)
		}
		return res
	}
	return v
}

// Scan decodes the document of the model into target, a pointer to a plain
// struct or map.
func (m *Model) Scan(target any) error {
	return decoder.NewDecoder().Decode(m.AsDocument(), target)
}

// AttributeLabel returns the declared label of an attribute, or one
// generated from its name.
func (m *Model) AttributeLabel(name string) string {
	if m.schema != nil {
		if l, ok := m.schema.Labels[name]; ok {
			return l
		}
	}
	return GenerateLabel(name)
}

func (m *Model) rules() []Rule {
	if d, ok := m.owner.(RulesDeclarer); ok {
		return d.Rules()
	}
	return nil
}

// Validate runs the rules that apply to the current scenario on the given
// attributes (every attribute if none is given) and reports whether no error
// was found. Previous errors of the validated attributes are cleared.
func (m *Model) Validate(ctx context.Context, names ...string) bool {
	return m.ValidateRules(ctx, m.rules(), names...)
}

// ValidateRules is like [Model.Validate] but runs rules instead of the rules
// declared by the owner.
func (m *Model) ValidateRules(ctx context.Context, rules []Rule, names ...string) bool {
	m.ClearErrors(names...)
	if bv, ok := m.owner.(BeforeValidator); ok && !bv.BeforeValidate(ctx) {
		return false
	}
	for _, r := range rules {
		if !r.AppliesTo(m.scenario) || r.Validator == nil {
			continue
		}
		for _, field := range r.Fields {
			if len(names) > 0 && !slices.Contains(names, field) {
				continue
			}
			if r.SkipOnError && m.HasErrors(field) {
				continue
			}
			r.Validator.ValidateAttribute(ctx, m.owner, field)
		}
	}
	if av, ok := m.owner.(AfterValidator); ok {
		av.AfterValidate(ctx)
	}
	return !m.HasErrors()
}

// AddError adds an error message for attribute.
func (m *Model) AddError(attribute, message string) {
	if m.errors == nil {
		m.errors = make(map[string][]string)
	}
	m.errors[attribute] = append(m.errors[attribute], message)
}

// HasErrors reports whether there is any error, or any error for the given
// attributes. Errors of nested attributes ("address.street") count as errors
// of their parent.
func (m *Model) HasErrors(attributes ...string) bool {
	if len(attributes) == 0 {
		return len(m.errors) > 0
	}
	for k, msgs := range m.errors {
		if len(msgs) == 0 {
			continue
		}
		for _, a := range attributes {
			if k == a || strings.HasPrefix(k, a+".") {
				return true
			}
		}
	}
	return false
}

// Errors returns a copy of the validation errors.
func (m *Model) Errors() map[string][]string {
	res := make(map[string][]string, len(m.errors))
	for k, v := range m.errors {
		res[k] = slices.Clone(v)
	}
	return res
}

// ClearErrors removes the errors of the given attributes and their nested
// attributes, or all errors.
func (m *Model) ClearErrors(attributes ...string) {
	if len(attributes) == 0 {
		m.errors = make(map[string][]string)
		return
	}
	for k := range m.errors {
		for _, a := range attributes {
			if k == a || strings.HasPrefix(k, a+".") {
				delete(m.errors, k)
			}
		}
	}
}
