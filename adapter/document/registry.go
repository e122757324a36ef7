package document

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/vinicius-lino-figueiredo/godm/adapter/model"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.uber.org/zap"
)

// Registry binds documents to a connection and keeps one detached prototype
// per entity type. It is safe for concurrent use; the documents it creates
// are not.
type Registry struct {
	conn   domain.Connection
	logger *zap.Logger

	mu     sync.RWMutex
	protos map[reflect.Type]Interface
}

// NewRegistry returns a registry creating documents over conn.
func NewRegistry(conn domain.Connection, opts ...Option) *Registry {
	r := &Registry{
		conn:   conn,
		logger: zap.NewNop(),
		protos: make(map[reflect.Type]Interface),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connection returns the connection documents are bound to.
func (r *Registry) Connection() domain.Connection {
	return r.conn
}

// Logger returns the logger of the registry.
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

func typeOf[T Interface]() (reflect.Type, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("document: %s is not a pointer to a struct", t)
	}
	return t, nil
}

func (r *Registry) instantiate(t reflect.Type) (Interface, error) {
	v, ok := reflect.New(t.Elem()).Interface().(Interface)
	if !ok {
		return nil, fmt.Errorf("document: %s does not embed Document", t)
	}
	return v, nil
}

func (r *Registry) bind(v Interface, scenario string, init, isNew bool) error {
	if err := model.Attach(v, scenario); err != nil {
		return err
	}
	b := v.base()
	b.reg = r
	b.isNew = isNew
	if init {
		if in, ok := v.(model.Initializer); ok {
			in.Init()
		}
	}
	return nil
}

func create[T Interface](r *Registry, scenario string, init, isNew bool) (T, error) {
	var zero T
	t, err := typeOf[T]()
	if err != nil {
		return zero, err
	}
	v, err := r.instantiate(t)
	if err != nil {
		return zero, err
	}
	if err := r.bind(v, scenario, init, isNew); err != nil {
		return zero, err
	}
	return v.(T), nil
}

// New returns a new record of type T, in the insert scenario unless another
// one is given. Init is called if T implements [model.Initializer].
func New[T Interface](r *Registry, scenario ...string) (T, error) {
	sc := model.ScenarioInsert
	if len(scenario) > 0 {
		sc = scenario[0]
	}
	return create[T](r, sc, true, true)
}

// Detached returns a fresh instance of T that does not represent stored data
// and was not initialized. It is useful to run queries with their own scope
// state, as the prototype returned by [Model] is shared.
func Detached[T Interface](r *Registry) (T, error) {
	return create[T](r, ScenarioDetached, false, false)
}

// Model returns the prototype of T, created on first use. The prototype
// carries no data: use it to run queries and to read declarations.
func Model[T Interface](r *Registry) (T, error) {
	var zero T
	t, err := typeOf[T]()
	if err != nil {
		return zero, err
	}
	p, err := r.prototype(t)
	if err != nil {
		return zero, err
	}
	return p.(T), nil
}

func (r *Registry) prototype(t reflect.Type) (Interface, error) {
	r.mu.RLock()
	p, ok := r.protos[t]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err := r.instantiate(t)
	if err != nil {
		return nil, err
	}
	if err := r.bind(v, ScenarioDetached, false, false); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.protos[t]; ok {
		return p, nil
	}
	r.protos[t] = v
	return v, nil
}

// Register builds the schema and the prototype of the types of values ahead
// of use.
func (r *Registry) Register(values ...Interface) error {
	for _, v := range values {
		if _, err := r.prototype(reflect.TypeOf(v)); err != nil {
			return err
		}
	}
	return nil
}

// Attach binds a value built by the caller, such as &User{Name: "x"}, as a
// new record. Values already bound to a registry are left untouched.
func (r *Registry) Attach(v Interface) error {
	if model.Bound(v) && v.base().reg != nil {
		return nil
	}
	return r.bind(v, model.ScenarioInsert, true, true)
}

// populate builds a stored record of type t from a raw document and fires
// the after find hooks.
func (r *Registry) populate(ctx context.Context, t reflect.Type, raw domain.Document) (Interface, error) {
	v, err := r.instantiate(t)
	if err != nil {
		return nil, err
	}
	if err := r.bind(v, model.ScenarioUpdate, true, false); err != nil {
		return nil, err
	}
	m := model.Of(v)
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		if err := m.Set(k, raw[k]); err != nil {
			return nil, fmt.Errorf("document: cannot set %q: %w", k, err)
		}
	}
	v.base().afterFind(ctx)
	return v, nil
}

// Populate builds a stored record with the type of d from a raw document,
// firing the after find hooks.
func (d *Document) Populate(ctx context.Context, raw domain.Document) (Interface, error) {
	if d.reg == nil || d.Owner() == nil {
		return nil, domain.ErrNotRegistered
	}
	return d.reg.populate(ctx, reflect.TypeOf(d.Owner()), raw)
}
