package behavior

import (
	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// DefaultSoftDeleteField is the flag used when none is given.
const DefaultSoftDeleteField = "is_deleted"

// Scope names contributed by [SoftDelete].
const (
	ScopeNotRemoved = "notRemoved"
	ScopeRemoved    = "removed"
)

// SoftDelete flags documents as removed instead of deleting them. Remove and
// Restore only change the flag; the owner must be saved afterwards.
type SoftDelete struct {
	FieldName string
}

// NewSoftDelete returns a SoftDelete using field, or
// [DefaultSoftDeleteField] if field is empty.
func NewSoftDelete(field string) *SoftDelete {
	if field == "" {
		field = DefaultSoftDeleteField
	}
	return &SoftDelete{FieldName: field}
}

func (s *SoftDelete) field() string {
	if s.FieldName == "" {
		return DefaultSoftDeleteField
	}
	return s.FieldName
}

// Remove flags owner as removed.
func (s *SoftDelete) Remove(owner model.Interface) error {
	return model.Of(owner).Set(s.field(), true)
}

// Restore clears the removed flag of owner.
func (s *SoftDelete) Restore(owner model.Interface) error {
	return model.Of(owner).Set(s.field(), false)
}

// IsRemoved reports whether owner is flagged as removed.
func (s *SoftDelete) IsRemoved(owner model.Interface) bool {
	v, _ := model.Of(owner).Get(s.field())
	b, _ := v.(bool)
	return b
}

// Scopes implements [ScopeProvider]. "notRemoved" matches documents whose
// flag is false or missing and "removed" matches flagged ones.
func (s *SoftDelete) Scopes() map[string]*criteria.Criteria {
	return map[string]*criteria.Criteria{
		ScopeNotRemoved: criteria.New(criteria.WithCondition(domain.Document{
			s.field(): domain.Document{"$in": domain.A{false, nil}},
		})),
		ScopeRemoved: criteria.New(criteria.WithCondition(domain.Document{
			s.field(): true,
		})),
	}
}
