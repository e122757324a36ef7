// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"fmt"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// TagName is the struct tag read when decoding into structs.
const TagName = "odm"

// Decoder implements domain.Decoder.
type Decoder struct {
	tagName string
}

// Option configures a [Decoder].
type Option func(*Decoder)

// WithTagName changes the struct tag read by the decoder.
func WithTagName(name string) Option {
	return func(d *Decoder) {
		d.tagName = name
	}
}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder(opts ...Option) domain.Decoder {
	d := &Decoder{tagName: TagName}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode implements domain.Decoder. Source values are decoded with weak
// typing, so numeric strings fill numeric fields and so on.
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return domain.ErrTargetNil
	}

	if reflect.TypeOf(target).Kind() != reflect.Ptr {
		return domain.ErrNonPointer
	}

	if _, isDoc := target.(*domain.Document); !isDoc {
		source = d.adjustDoc(source)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          d.tagName,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := domain.ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

// adjustDoc turns references into their document form so they can be
// decoded into plain structs.
func (d *Decoder) adjustDoc(value any) any {
	switch t := value.(type) {
	case domain.Document:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = d.adjustDoc(v)
		}
		return doc
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjustDoc(v)
		}
		return lst
	case domain.DBRef:
		return t.Document()
	case *domain.DBRef:
		if t == nil {
			return nil
		}
		return t.Document()
	default:
		return value
	}
}
