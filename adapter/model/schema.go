package model

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/goccy/go-reflect"
)

// TagName is the struct tag read to build a [Schema]. The tag value is the
// document field name, optionally followed by the options "safe" (the field
// may be mass-assigned) and "omitempty" (zero values are left out of the
// document). A "-" name skips the field.
const TagName = "odm"

var (
	modelType = reflect.TypeOf(Model{})

	schemasMu sync.RWMutex
	schemas   = make(map[reflect.Type]*Schema)
)

// Field describes a declared field.
type Field struct {
	// Name is the document field name.
	Name string
	// GoName is the struct field name.
	GoName    string
	Index     []int
	Type      reflect.Type
	Safe      bool
	OmitEmpty bool
}

// Schema is the descriptor of a model type: its declared fields, sub-document
// declarations and labels. It is built once per type.
type Schema struct {
	Type         reflect.Type
	Fields       []Field
	SubDocuments map[string]SubDocument
	Labels       map[string]string
	byName       map[string]int
}

// Field returns the declared field with the given document name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// FieldNames returns the declared field names, in declaration order.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Fields))
	for n, f := range s.Fields {
		names[n] = f.Name
	}
	return names
}

// SubDocumentNames returns the declared sub-document names, sorted.
func (s *Schema) SubDocumentNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.SubDocuments))
	for k := range s.SubDocuments {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// SchemaOf returns the schema of the type of owner, building and caching it
// on first use. owner must be a pointer to a struct embedding [Model], either
// directly or through another embedded struct.
func SchemaOf(owner Interface) (*Schema, error) {
	t := reflect.TypeOf(owner)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("model: %T is not a pointer to a struct", owner)
	}
	t = t.Elem()

	schemasMu.RLock()
	s, ok := schemas[t]
	schemasMu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := buildSchema(t, owner)
	if err != nil {
		return nil, err
	}

	schemasMu.Lock()
	defer schemasMu.Unlock()
	if cached, ok := schemas[t]; ok {
		return cached, nil
	}
	schemas[t] = s
	return s, nil
}

func buildSchema(t reflect.Type, owner Interface) (*Schema, error) {
	s := &Schema{
		Type:   t,
		byName: make(map[string]int),
		Labels: make(map[string]string),
	}
	if err := s.collect(t, nil); err != nil {
		return nil, err
	}

	if d, ok := owner.(SubDocumentsDeclarer); ok {
		s.SubDocuments = d.SubDocuments()
	}
	for name, sd := range s.SubDocuments {
		if _, ok := s.byName[name]; ok {
			return nil, fmt.Errorf("model: %s declares %q both as a field and as a sub-document", t, name)
		}
		if sd.New == nil {
			return nil, fmt.Errorf("model: sub-document %q of %s has no constructor", name, t)
		}
	}

	if d, ok := owner.(LabelsDeclarer); ok {
		for k, v := range d.AttributeLabels() {
			s.Labels[k] = v
		}
	}
	return s, nil
}

func (s *Schema) collect(t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(slices.Clone(index), i)

		if sf.Anonymous {
			ft := sf.Type
			if ft == modelType {
				continue
			}
			if ft.Kind() == reflect.Struct && sf.Tag.Get(TagName) == "" {
				if err := s.collect(ft, idx); err != nil {
					return err
				}
				continue
			}
		}
		if sf.PkgPath != "" {
			continue
		}

		name, opts, _ := strings.Cut(sf.Tag.Get(TagName), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, dup := s.byName[name]; dup {
			return fmt.Errorf("model: duplicate field %q in %s", name, s.Type)
		}

		f := Field{Name: name, GoName: sf.Name, Index: idx, Type: sf.Type}
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "safe":
				f.Safe = true
			case "omitempty":
				f.OmitEmpty = true
			}
		}
		s.byName[name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
	return nil
}

// GenerateLabel builds a user friendly label from a field name: "first_name"
// and "firstName" become "First Name".
func GenerateLabel(name string) string {
	var b strings.Builder
	prev := rune(0)
	for n, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
			prev = ' '
			continue
		case n == 0 || prev == ' ':
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return strings.TrimSpace(b.String())
}
