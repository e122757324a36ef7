package modifier

import "github.com/vinicius-lino-figueiredo/godm/domain"

// WithComparer sets the [domain.Comparer] used to compare values in $max,
// $min, $addToSet and $pull.
func WithComparer(c domain.Comparer) Option {
	return func(m *Modifier) {
		m.comparer = c
	}
}

// WithFieldNavigator sets the [domain.FieldNavigator] used to resolve
// dotted fields.
func WithFieldNavigator(fn domain.FieldNavigator) Option {
	return func(m *Modifier) {
		m.fieldNavigator = fn
	}
}

// WithMatcher sets the [domain.Matcher] used by $pull conditions.
func WithMatcher(mt domain.Matcher) Option {
	return func(m *Modifier) {
		m.matcher = mt
	}
}

// Option configures modifier behavior through the functional options pattern.
type Option func(*Modifier)
