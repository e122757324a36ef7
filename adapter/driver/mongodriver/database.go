package mongodriver

import (
	"context"
	"errors"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database implements [domain.Database].
type Database struct {
	driver *Driver
	name   string
}

// Name implements [domain.Database].
func (db *Database) Name() string { return db.name }

// Collection implements [domain.Database].
func (db *Database) Collection(name string) domain.Collection {
	return &Collection{db: db, name: name}
}

func (db *Database) handle(opts ...*options.DatabaseOptions) (*mongo.Database, error) {
	client, err := db.driver.connected()
	if err != nil {
		return nil, err
	}
	return client.Database(db.name, opts...), nil
}

// Dereference implements [domain.Database].
func (db *Database) Dereference(ctx context.Context, ref domain.DBRef) (domain.Document, error) {
	target := db
	if ref.DB != "" && ref.DB != db.name {
		target = &Database{driver: db.driver, name: ref.DB}
	}
	return target.Collection(ref.Ref).FindOne(ctx, domain.Document{"_id": ref.ID}, domain.FindOptions{})
}

// RunCommand implements [domain.Database]. Failed commands are reported in
// the response, as the server does, with ok set to 0.
func (db *Database) RunCommand(ctx context.Context, cmd domain.Document) (domain.Document, error) {
	mdb, err := db.handle()
	if err != nil {
		return nil, err
	}
	var res bson.M
	err = mdb.RunCommand(ctx, commandOf(cmd)).Decode(&res)
	if cmdErr := (mongo.CommandError{}); errors.As(err, &cmdErr) {
		return domain.Document{"ok": 0.0, "errmsg": cmdErr.Message, "code": cmdErr.Code}, nil
	}
	if err != nil {
		return nil, err
	}
	return documentOf(res), nil
}
