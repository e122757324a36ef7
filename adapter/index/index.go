// Package index contains the default [domain.Index] implementation.
package index

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/bst/adapter/avl"
	"github.com/vinicius-lino-figueiredo/godm/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/godm/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Index implements [domain.Index] over an AVL tree.
type Index struct {
	fieldName string
	addr      []string
	unique    bool
	// Exported to allow testing. Should not be a problem because Index is
	// used as interface.
	Tree           bst.BST[any, domain.Document]
	bstComparer    bst.Comparer[any, domain.Document]
	fieldNavigator domain.FieldNavigator
}

// NewIndex returns a new implementation of domain.Index. It indexes _id
// uniquely unless told otherwise.
func NewIndex(opts ...Option) (domain.Index, error) {
	i := &Index{
		fieldName: domain.DefaultPrimaryKey,
		unique:    true,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.fieldNavigator == nil {
		i.fieldNavigator = fieldnavigator.NewFieldNavigator()
	}
	if i.bstComparer == nil {
		i.bstComparer = NewBSTComparer(comparer.NewComparer())
	}

	addr, err := i.fieldNavigator.GetAddress(i.fieldName)
	if err != nil {
		return nil, err
	}
	i.addr = addr
	i.Tree = avl.NewBST(i.unique, 8, i.bstComparer)
	return i, nil
}

// FieldName returns the indexed field.
func (i *Index) FieldName() string {
	return i.fieldName
}

// Unique reports whether keys cannot repeat.
func (i *Index) Unique() bool {
	return i.unique
}

// Reset implements [domain.Index].
func (i *Index) Reset(newData ...domain.Document) error {
	i.Tree = avl.NewBST(i.unique, 8, i.bstComparer)
	return i.Insert(newData...)
}

// key returns the indexed value of d, nil when it is missing.
func (i *Index) key(d domain.Document) (any, error) {
	fields, _, err := i.fieldNavigator.GetField(d, i.addr...)
	if err != nil {
		return nil, err
	}
	v, _ := fields[0].Get()
	return v, nil
}

// Insert implements [domain.Index]. Either every document is inserted or
// none is.
func (i *Index) Insert(docs ...domain.Document) error {
	inserted := make([]domain.Document, 0, len(docs))
	var err error
	for _, d := range docs {
		var k any
		if k, err = i.key(d); err != nil {
			break
		}
		if err = i.Tree.Insert(k, d); err != nil {
			if e := new(bst.ErrUniqueViolated); errors.As(err, e) {
				err = fmt.Errorf("%w: %s %v", domain.ErrConstraintViolated, i.fieldName, k)
			}
			break
		}
		inserted = append(inserted, d)
	}
	if err != nil {
		if rbErr := i.Remove(inserted...); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// Remove implements [domain.Index].
func (i *Index) Remove(docs ...domain.Document) error {
	errs := make([]error, 0, len(docs))
	for _, d := range docs {
		k, err := i.key(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := i.Tree.Delete(k, &d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup implements [domain.Index].
func (i *Index) Lookup(key any) ([]domain.Document, error) {
	found, err := i.Tree.Search(key)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	return slices.Clone(found.Values()), nil
}

// Len implements [domain.Index].
func (i *Index) Len() int {
	return i.Tree.GetNumberOfKeys()
}
