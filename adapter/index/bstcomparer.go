package index

import (
	"cmp"
	"fmt"
	"reflect"

	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type bstComparer struct {
	comparer domain.Comparer
}

// NewBSTComparer adapts a [domain.Comparer] to order index keys. Keys the
// comparer cannot order, like driver-specific identifiers, are ordered by
// type and printed form. Values are equal only when they are the same
// document.
func NewBSTComparer(comparer domain.Comparer) bst.Comparer[any, domain.Document] {
	return &bstComparer{
		comparer: comparer,
	}
}

// CompareKeys implements bst.Comparer.
func (bc *bstComparer) CompareKeys(a any, b any) (int, error) {
	c, err := bc.comparer.Compare(a, b)
	if err == nil {
		return c, nil
	}
	if c := cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); c != 0 {
		return c, nil
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b)), nil
}

// CompareValues implements bst.Comparer.
func (bc *bstComparer) CompareValues(a domain.Document, b domain.Document) (bool, error) {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer(), nil
}
