package index

import "github.com/vinicius-lino-figueiredo/godm/domain"

// WithFieldName sets the dotted field indexed.
func WithFieldName(name string) Option {
	return func(i *Index) {
		i.fieldName = name
	}
}

// WithUnique sets whether keys must be unique.
func WithUnique(u bool) Option {
	return func(i *Index) {
		i.unique = u
	}
}

// WithComparer sets the comparer ordering keys.
func WithComparer(c domain.Comparer) Option {
	return func(i *Index) {
		i.bstComparer = NewBSTComparer(c)
	}
}

// WithFieldNavigator sets the navigator reading keys from documents.
func WithFieldNavigator(fn domain.FieldNavigator) Option {
	return func(i *Index) {
		i.fieldNavigator = fn
	}
}

// Option configures index behavior through the functional options pattern.
type Option func(*Index)
