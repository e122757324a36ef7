// Package command contains the fluent query and update builder. A Command
// stages conditions, projections, sort, paging and update operators for one
// collection, executes them in a single terminal call and then resets.
//
// A Command is not safe for concurrent use: a chain of staging calls must end
// in a terminal call before another chain starts on the same instance.
package command

import (
	"maps"
	"slices"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/adapter/criteria"
	"github.com/vinicius-lino-figueiredo/godm/domain"
	"github.com/vinicius-lino-figueiredo/godm/pkg/doc"
	"go.uber.org/zap"
)

// Query is the snapshot of the staged state taken when a terminal call
// resets the builder.
type Query struct {
	Collection string
	Action     string
	Wheres     domain.Document
	Updates    domain.Document
	Selects    domain.Document
	Sorts      domain.Sort
	Limit      int64
	Offset     int64
}

// Command is the fluent builder. Create it with [New].
type Command struct {
	conn       domain.Connection
	logger     *zap.Logger
	collection string
	wheres     domain.Document
	updates    domain.Document
	selects    domain.Document
	sorts      domain.Sort
	limit      int64
	offset     int64
	lastQuery  Query
}

// New returns a Command bound to conn. The collection can be empty and set
// later with [Command.From].
func New(conn domain.Connection, collection string, opts ...Option) *Command {
	c := &Command{
		conn:       conn,
		logger:     zap.NewNop(),
		collection: collection,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

// From selects the collection the next terminal call runs against.
func (c *Command) From(collection string) *Command {
	c.collection = collection
	return c
}

// Collection returns the selected collection name.
func (c *Command) Collection() string {
	return c.collection
}

// LastQuery returns the state staged for the last terminal call.
func (c *Command) LastQuery() Query {
	return c.lastQuery
}

// Where adds {field: value} to the condition, replacing any condition on
// field.
func (c *Command) Where(field string, value any) *Command {
	c.wheres[field] = value
	return c
}

// WhereMap adds every entry of conds to the condition.
func (c *Command) WhereMap(conds domain.Document) *Command {
	for k, v := range conds {
		c.wheres[k] = doc.Clone(v)
	}
	return c
}

// WhereCriteria adds the condition, sort, skip and limit of crit.
func (c *Command) WhereCriteria(crit *criteria.Criteria) *Command {
	c.WhereMap(crit.Condition())
	for _, s := range crit.Sort() {
		c.OrderBy(s.Key, s.Order)
	}
	c.Limit(crit.Limit())
	c.Offset(crit.Skip())
	return c
}

// OrWhere sets the $or list of the condition to conds. Empty conditions are
// ignored, and nothing changes if none is left.
func (c *Command) OrWhere(conds ...domain.Document) *Command {
	ready := make(domain.A, 0, len(conds))
	for _, cond := range conds {
		if len(cond) > 0 {
			ready = append(ready, doc.CloneDoc(cond))
		}
	}
	if len(ready) > 0 {
		c.wheres["$or"] = ready
	}
	return c
}

// WhereIn matches documents where field is any of values.
func (c *Command) WhereIn(field string, values ...any) *Command {
	c.whereOp(field, "$in", list(values))
	return c
}

// WhereInAll matches documents where field contains all values.
func (c *Command) WhereInAll(field string, values ...any) *Command {
	c.whereOp(field, "$all", list(values))
	return c
}

// WhereNotIn matches documents where field is none of values.
func (c *Command) WhereNotIn(field string, values ...any) *Command {
	c.whereOp(field, "$nin", list(values))
	return c
}

// WhereGt matches documents where field is greater than value.
func (c *Command) WhereGt(field string, value any) *Command {
	c.whereOp(field, "$gt", value)
	return c
}

// WhereGte matches documents where field is greater than or equal to value.
func (c *Command) WhereGte(field string, value any) *Command {
	c.whereOp(field, "$gte", value)
	return c
}

// WhereLt matches documents where field is less than value.
func (c *Command) WhereLt(field string, value any) *Command {
	c.whereOp(field, "$lt", value)
	return c
}

// WhereLte matches documents where field is less than or equal to value.
func (c *Command) WhereLte(field string, value any) *Command {
	c.whereOp(field, "$lte", value)
	return c
}

// WhereBetween matches documents where field is between lo and hi, both
// inclusive.
func (c *Command) WhereBetween(field string, lo, hi any) *Command {
	c.whereOp(field, "$gte", lo)
	c.whereOp(field, "$lte", hi)
	return c
}

// WhereBetweenNe matches documents where field is between lo and hi, both
// exclusive.
func (c *Command) WhereBetweenNe(field string, lo, hi any) *Command {
	c.whereOp(field, "$gt", lo)
	c.whereOp(field, "$lt", hi)
	return c
}

// WhereNe matches documents where field is not value.
func (c *Command) WhereNe(field string, value any) *Command {
	c.whereOp(field, "$ne", value)
	return c
}

// WhereNear matches documents near the given coordinates. A nil distance
// does not limit the distance.
func (c *Command) WhereNear(field string, coords []float64, distance any, spherical bool) *Command {
	op := "$near"
	if spherical {
		op = "$nearSphere"
	}
	c.whereOp(field, op, slices.Clone(coords))
	if distance != nil {
		c.whereOp(field, "$maxDistance", distance)
	}
	return c
}

// WhereLike matches field against value as a pattern. The value is trimmed
// and its regular expression metacharacters are escaped. By default the match
// is case-insensitive and unanchored.
func (c *Command) WhereLike(field, value string, opts ...LikeOption) *Command {
	c.wheres[field] = likePattern(value, opts...)
	return c
}

// whereOp sets {field: {op: value}}, keeping other operators already set on
// field. A plain value on field is replaced.
func (c *Command) whereOp(field, op string, value any) {
	cur, ok := c.wheres[field].(domain.Document)
	if !ok {
		cur = domain.Document{}
		c.wheres[field] = cur
	}
	cur[op] = value
}

// Select sets the projection. When includes is not empty, excludes is
// ignored.
func (c *Command) Select(includes []string, excludes []string) *Command {
	if len(includes) > 0 {
		for _, f := range includes {
			c.selects[f] = 1
		}
		return c
	}
	for _, f := range excludes {
		c.selects[f] = 0
	}
	return c
}

// OrderBy adds a sort field. Any direction that is not false, "desc" or
// negative is ascending.
func (c *Command) OrderBy(field string, direction any) *Command {
	order := criteria.Direction(direction)
	for n, s := range c.sorts {
		if s.Key == field {
			c.sorts[n].Order = order
			return c
		}
	}
	c.sorts = append(c.sorts, domain.SortName{Key: field, Order: order})
	return c
}

// Limit sets the maximum number of results. Values lower than 1 are ignored.
func (c *Command) Limit(n int64) *Command {
	if n >= 1 {
		c.limit = n
	}
	return c
}

// Offset sets the number of results to skip. Values lower than 1 are
// ignored.
func (c *Command) Offset(n int64) *Command {
	if n >= 1 {
		c.offset = n
	}
	return c
}

// Set stages {$set: {field: value}}.
func (c *Command) Set(field string, value any) *Command {
	c.updateOp("$set")[field] = value
	return c
}

// SetMap stages a $set of every entry of values.
func (c *Command) SetMap(values domain.Document) *Command {
	set := c.updateOp("$set")
	for k, v := range values {
		set[k] = v
	}
	return c
}

// Inc stages {$inc: {field: value}}. A nil value increments by one.
func (c *Command) Inc(field string, value any) *Command {
	if value == nil {
		value = 1
	}
	c.updateOp("$inc")[field] = value
	return c
}

// Dec stages {$inc: {field: -value}}. A nil value decrements by one; values
// that are not positive result in an increment of zero.
func (c *Command) Dec(field string, value any) *Command {
	if value == nil {
		value = 1
	}
	c.updateOp("$inc")[field] = negate(value)
	return c
}

// Unset stages {$unset: {field: 1}} for every field.
func (c *Command) Unset(fields ...string) *Command {
	unset := c.updateOp("$unset")
	for _, f := range fields {
		unset[f] = 1
	}
	return c
}

// AddToSet stages an $addToSet. Multiple values are added with $each.
func (c *Command) AddToSet(field string, values ...any) *Command {
	if len(values) == 1 {
		if _, isList := values[0].([]any); !isList {
			c.updateOp("$addToSet")[field] = values[0]
			return c
		}
		values = values[0].([]any)
	}
	c.updateOp("$addToSet")[field] = domain.Document{"$each": list(values)}
	return c
}

// Push stages {$push: {field: value}}.
func (c *Command) Push(field string, value any) *Command {
	c.updateOp("$push")[field] = value
	return c
}

// Pop stages the removal of the first element of every field.
func (c *Command) Pop(fields ...string) *Command {
	pop := c.updateOp("$pop")
	for _, f := range fields {
		pop[f] = -1
	}
	return c
}

// Pull stages {$pull: {field: value}}, replacing any previous $pull.
func (c *Command) Pull(field string, value any) *Command {
	c.updates["$pull"] = domain.Document{field: value}
	return c
}

// Rename stages {$rename: {oldName: newName}}.
func (c *Command) Rename(oldName, newName string) *Command {
	c.updateOp("$rename")[oldName] = newName
	return c
}

func (c *Command) updateOp(op string) domain.Document {
	cur, ok := c.updates[op].(domain.Document)
	if !ok {
		cur = domain.Document{}
		c.updates[op] = cur
	}
	return cur
}

// Wheres returns a copy of the staged condition.
func (c *Command) Wheres() domain.Document {
	return doc.CloneDoc(c.wheres)
}

// Updates returns a copy of the staged update document.
func (c *Command) Updates() domain.Document {
	return doc.CloneDoc(c.updates)
}

func (c *Command) reset() {
	c.wheres = domain.Document{}
	c.updates = domain.Document{}
	c.selects = domain.Document{}
	c.sorts = nil
	c.limit = 0
	c.offset = 0
}

// clear records the staged state as the last query and resets it.
func (c *Command) clear(action string) {
	c.lastQuery = Query{
		Collection: c.collection,
		Action:     action,
		Wheres:     c.wheres,
		Updates:    c.updates,
		Selects:    c.selects,
		Sorts:      c.sorts,
		Limit:      c.limit,
		Offset:     c.offset,
	}
	c.reset()
}

func (c *Command) findOptions() domain.FindOptions {
	var proj domain.Document
	if len(c.selects) > 0 {
		proj = maps.Clone(c.selects)
	}
	return domain.FindOptions{
		Projection: proj,
		Sort:       slices.Clone(c.sorts),
		Skip:       c.offset,
		Limit:      c.limit,
	}
}

// profile logs a terminal call at debug level.
func (c *Command) profile(action string, start time.Time, errp *error) {
	if ce := c.logger.Check(zap.DebugLevel, "query"); ce != nil {
		ce.Write(
			zap.String("collection", c.collection),
			zap.String("action", action),
			zap.Any("wheres", c.wheres),
			zap.Any("updates", c.updates),
			zap.Duration("took", time.Since(start)),
			zap.Error(*errp),
		)
	}
}

func list(values []any) domain.A {
	res := make(domain.A, len(values))
	copy(res, values)
	return res
}

func negate(v any) any {
	switch t := v.(type) {
	case int:
		return -max(t, 0)
	case int32:
		return -max(t, 0)
	case int64:
		return -max(t, 0)
	case float32:
		return -max(t, 0)
	case float64:
		return -max(t, 0)
	}
	return 0
}
