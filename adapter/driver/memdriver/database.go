package memdriver

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// Database implements [domain.Database].
type Database struct {
	driver *Driver
	name   string
	colls  map[string]*Collection
}

// Name implements [domain.Database].
func (db *Database) Name() string {
	return db.name
}

// Collection implements [domain.Database].
func (db *Database) Collection(name string) domain.Collection {
	db.driver.mu.Lock()
	defer db.driver.mu.Unlock()
	return db.collection(name)
}

func (db *Database) collection(name string) *Collection {
	c, ok := db.colls[name]
	if !ok {
		c = newCollection(db, name)
		db.colls[name] = c
	}
	return c
}

// Dereference implements [domain.Database]. References without a database
// point to this one.
func (db *Database) Dereference(ctx context.Context, ref domain.DBRef) (domain.Document, error) {
	target := domain.Database(db)
	if ref.DB != "" && ref.DB != db.name {
		target = db.driver.Database(ref.DB)
	}
	filter := domain.Document{domain.DefaultPrimaryKey: ref.ID}
	return target.Collection(ref.Ref).FindOne(ctx, filter, domain.FindOptions{})
}

// RunCommand implements [domain.Database]. It understands ping,
// listCollections, count, drop and dropDatabase. Other commands get a
// response with ok set to 0.
func (db *Database) RunCommand(ctx context.Context, cmd domain.Document) (domain.Document, error) {
	if err := db.driver.isConnected(ctx); err != nil {
		return nil, err
	}
	switch {
	case has(cmd, "ping"):
		return domain.Document{"ok": 1.0}, nil
	case has(cmd, "listCollections"):
		return domain.Document{"ok": 1.0, "collections": db.collectionNames()}, nil
	case has(cmd, "count"):
		name, _ := cmd["count"].(string)
		query, _ := cmd["query"].(domain.Document)
		n, err := db.Collection(name).Count(ctx, query, domain.CountOptions{})
		if err != nil {
			return nil, err
		}
		return domain.Document{"ok": 1.0, "n": n}, nil
	case has(cmd, "drop"):
		name, _ := cmd["drop"].(string)
		if !db.drop(name) {
			return domain.Document{"ok": 0.0, "errmsg": "ns not found"}, nil
		}
		return domain.Document{"ok": 1.0}, nil
	case has(cmd, "dropDatabase"):
		for _, name := range db.collectionNames() {
			db.drop(name.(string))
		}
		return domain.Document{"ok": 1.0}, nil
	}
	keys := slices.Sorted(maps.Keys(cmd))
	return domain.Document{"ok": 0.0, "errmsg": fmt.Sprintf("no such command: %v", keys)}, nil
}

func (db *Database) collectionNames() []any {
	db.driver.mu.RLock()
	defer db.driver.mu.RUnlock()
	names := make([]any, 0, len(db.colls))
	for _, name := range slices.Sorted(maps.Keys(db.colls)) {
		names = append(names, name)
	}
	return names
}

func (db *Database) drop(name string) bool {
	db.driver.mu.Lock()
	defer db.driver.mu.Unlock()
	if _, ok := db.colls[name]; !ok {
		return false
	}
	delete(db.colls, name)
	return true
}

func has(d domain.Document, key string) bool {
	_, ok := d[key]
	return ok
}
