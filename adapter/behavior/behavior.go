// Package behavior contains reusable document behaviors. A behavior is any
// value implementing one or more of the hook interfaces of this package;
// documents list them by name and the hooks run in name order.
package behavior

import (
	"context"
	"fmt"

	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Owner is the document a behavior is attached to.
type Owner interface {
	model.Interface
	IsNewRecord() bool
	Connection() domain.Connection
}

// BeforeSaver runs before a document is saved. Returning false aborts the
// save.
type BeforeSaver interface {
	BeforeSave(ctx context.Context, owner Owner) bool
}

// AfterSaver runs after a document is saved.
type AfterSaver interface {
	AfterSave(ctx context.Context, owner Owner)
}

// BeforeFinder runs before a find query is built.
type BeforeFinder interface {
	BeforeFind(ctx context.Context, owner Owner)
}

// AfterFinder runs after a document is populated from a query result.
type AfterFinder interface {
	AfterFind(ctx context.Context, owner Owner)
}

// BeforeDeleter runs before a document is deleted. Returning false aborts
// the deletion.
type BeforeDeleter interface {
	BeforeDelete(ctx context.Context, owner Owner) bool
}

// AfterDeleter runs after a document is deleted.
type AfterDeleter interface {
	AfterDelete(ctx context.Context, owner Owner)
}

// ScopeProvider contributes named scopes to its owner.
type ScopeProvider interface {
	Scopes() map[string]*criteria.Criteria
}

// set assigns an attribute and reports failures as validation errors of the
// owner.
func set(owner Owner, attribute string, value any) bool {
	m := model.Of(owner)
	if err := m.Set(attribute, value); err != nil {
		m.AddError(attribute, fmt.Sprintf("%s cannot be converted: %v", m.AttributeLabel(attribute), err))
		return false
	}
	return true
}

// convertEach applies conv to v, or to every item of v if it is a list.
func convertEach(v any, conv func(any) (any, error)) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return conv(v)
	}
	res := make([]any, len(list))
	for n, item := range list {
		c, err := convertEach(item, conv)
		if err != nil {
			return nil, err
		}
		res[n] = c
	}
	return res, nil
}
