// Package document contains the Document active record: a model bound to a
// collection that can insert, update, delete and find itself, plus the
// registry that creates documents, the named scopes and the relation
// resolver.
//
// Entity types embed [Document] and are created through a [Registry]:
//
//	type User struct {
//		document.Document
//		ID   any    `odm:"_id"`
//		Name string `odm:"name,safe"`
//	}
//
//	func (*User) CollectionName() string { return "users" }
//
//	u, err := document.New[*User](reg)
//	u.Name = "john"
//	ok, err := u.Save(ctx, true)
package document

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/vinicius-lino-figueiredo/godm/adapter/behavior"
	"github.com/vinicius-lino-figueiredo/godm/adapter/command"
	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// ScenarioDetached is the scenario of prototypes and query instances, which
// never represent stored data.
const ScenarioDetached = "detached"

// Interface is implemented by every type embedding [Document].
type Interface interface {
	model.Interface
	base() *Document
}

// Document is the active record. Embed it in a struct and create values with
// [New], [Model] or [Registry.Attach].
type Document struct {
	model.Model

	reg       *Registry
	isNew     bool
	scope     *criteria.Criteria
	scopeErr  error
	behaviors []namedBehavior
	related   map[string]any
	lastErr   error
}

type namedBehavior struct {
	name  string
	value any
}

func (d *Document) base() *Document { return d }

// Of returns the embedded [Document] of v.
func Of(v Interface) *Document {
	return v.base()
}

// CollectionNamer is implemented by documents with an explicit collection
// name. [Document] implements it with the name of the entity type.
type CollectionNamer interface {
	CollectionName() string
}

// PrimaryKeyNamer is implemented by documents whose primary key is not
// [domain.DefaultPrimaryKey].
type PrimaryKeyNamer interface {
	PrimaryKey() string
}

// Scoper declares the named scopes of a document.
type Scoper interface {
	Scopes() map[string]*criteria.Criteria
}

// DefaultScoper declares the criteria applied to every query when no other
// scope is active.
type DefaultScoper interface {
	DefaultScope() *criteria.Criteria
}

// Behaviorer declares the behaviors of a document by name. Their hooks run in
// name order, before the hooks of the document itself.
type Behaviorer interface {
	Behaviors() map[string]any
}

// BeforeSaver is implemented by documents that run code before a save.
// Returning false cancels it.
type BeforeSaver interface {
	BeforeSave(ctx context.Context) bool
}

// AfterSaver is implemented by documents that run code after a save.
type AfterSaver interface {
	AfterSave(ctx context.Context)
}

// BeforeDeleter is implemented by documents that run code before a delete.
// Returning false cancels it.
type BeforeDeleter interface {
	BeforeDelete(ctx context.Context) bool
}

// AfterDeleter is implemented by documents that run code after a delete.
type AfterDeleter interface {
	AfterDelete(ctx context.Context)
}

// BeforeFinder is implemented by documents that run code before a query.
type BeforeFinder interface {
	BeforeFind(ctx context.Context)
}

// AfterFinder is implemented by documents that run code after being
// populated from a query result.
type AfterFinder interface {
	AfterFind(ctx context.Context)
}

// CollectionName returns the name of the entity type. Entity types override
// it to use another collection.
func (d *Document) CollectionName() string {
	t := reflect.TypeOf(d.Owner())
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// PrimaryKey returns [domain.DefaultPrimaryKey]. Entity types override it to
// use another field.
func (d *Document) PrimaryKey() string {
	return domain.DefaultPrimaryKey
}

func (d *Document) collectionName() string {
	if n, ok := d.Owner().(CollectionNamer); ok {
		return n.CollectionName()
	}
	return d.CollectionName()
}

func (d *Document) primaryKey() string {
	if n, ok := d.Owner().(PrimaryKeyNamer); ok {
		return n.PrimaryKey()
	}
	return d.PrimaryKey()
}

// PrimaryKeyValue returns the value of the primary key, nil if unset.
func (d *Document) PrimaryKeyValue() any {
	return d.Value(d.primaryKey())
}

// hasPrimaryKey reports whether the primary key is set. A declared field
// holding its zero value counts as unset.
func (d *Document) hasPrimaryKey() bool {
	v := d.PrimaryKeyValue()
	if v == nil {
		return false
	}
	return !reflect.ValueOf(v).IsZero()
}

// Registry returns the registry that created the document.
func (d *Document) Registry() *Registry {
	return d.reg
}

// Connection returns the connection of the registry, or nil when the
// document was not created by one.
func (d *Document) Connection() domain.Connection {
	if d.reg == nil {
		return nil
	}
	return d.reg.conn
}

// Collection returns the collection handle of the document.
func (d *Document) Collection() domain.Collection {
	return d.reg.conn.Collection(d.collectionName())
}

// CreateCommand returns a command builder over the collection of the
// document.
func (d *Document) CreateCommand() *command.Command {
	return command.New(d.reg.conn, d.collectionName(), command.WithLogger(d.reg.logger))
}

// IsNewRecord reports whether the document was not inserted yet.
func (d *Document) IsNewRecord() bool {
	return d.isNew
}

// SetIsNewRecord changes the new record flag.
func (d *Document) SetIsNewRecord(v bool) {
	d.isNew = v
}

// LastError returns the store failure behind the last false or nil result
// of a persistence or query method, or nil.
func (d *Document) LastError() error {
	return d.lastErr
}

// Equals reports whether other is stored in the same collection under the
// same primary key.
func (d *Document) Equals(other Interface) bool {
	if other == nil {
		return false
	}
	o := other.base()
	return d.collectionName() == o.collectionName() &&
		fmt.Sprint(d.PrimaryKeyValue()) == fmt.Sprint(o.PrimaryKeyValue())
}

func (d *Document) check() error {
	if d.reg == nil || d.Owner() == nil {
		return domain.ErrNotRegistered
	}
	d.lastErr = nil
	return nil
}

// fail records a swallowed store failure.
func (d *Document) fail(op string, err error) {
	d.lastErr = &domain.PersistenceError{Op: op, Collection: d.collectionName(), Err: err}
	d.reg.logger.Warn("document operation failed",
		zap.String("collection", d.collectionName()),
		zap.String("op", op),
		zap.Error(err),
	)
}

func (d *Document) owner() behavior.Owner {
	o, _ := d.Owner().(behavior.Owner)
	return o
}

func (d *Document) behaviorList() []namedBehavior {
	if d.behaviors != nil {
		return d.behaviors
	}
	d.behaviors = []namedBehavior{}
	b, ok := d.Owner().(Behaviorer)
	if !ok {
		return d.behaviors
	}
	declared := b.Behaviors()
	for _, name := range slices.Sorted(maps.Keys(declared)) {
		d.behaviors = append(d.behaviors, namedBehavior{name: name, value: declared[name]})
	}
	return d.behaviors
}

// Behavior returns the behavior declared under name.
func (d *Document) Behavior(name string) (any, bool) {
	for _, b := range d.behaviorList() {
		if b.name == name {
			return b.value, true
		}
	}
	return nil, false
}

func (d *Document) beforeSave(ctx context.Context) bool {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.BeforeSaver); ok && !h.BeforeSave(ctx, d.owner()) {
			return false
		}
	}
	if h, ok := d.Owner().(BeforeSaver); ok {
		return h.BeforeSave(ctx)
	}
	return true
}

func (d *Document) afterSave(ctx context.Context) {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.AfterSaver); ok {
			h.AfterSave(ctx, d.owner())
		}
	}
	if h, ok := d.Owner().(AfterSaver); ok {
		h.AfterSave(ctx)
	}
}

func (d *Document) beforeDelete(ctx context.Context) bool {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.BeforeDeleter); ok && !h.BeforeDelete(ctx, d.owner()) {
			return false
		}
	}
	if h, ok := d.Owner().(BeforeDeleter); ok {
		return h.BeforeDelete(ctx)
	}
	return true
}

func (d *Document) afterDelete(ctx context.Context) {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.AfterDeleter); ok {
			h.AfterDelete(ctx, d.owner())
		}
	}
	if h, ok := d.Owner().(AfterDeleter); ok {
		h.AfterDelete(ctx)
	}
}

func (d *Document) beforeFind(ctx context.Context) {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.BeforeFinder); ok {
			h.BeforeFind(ctx, d.owner())
		}
	}
	if h, ok := d.Owner().(BeforeFinder); ok {
		h.BeforeFind(ctx)
	}
}

func (d *Document) afterFind(ctx context.Context) {
	for _, b := range d.behaviorList() {
		if h, ok := b.value.(behavior.AfterFinder); ok {
			h.AfterFind(ctx, d.owner())
		}
	}
	if h, ok := d.Owner().(AfterFinder); ok {
		h.AfterFind(ctx)
	}
}
