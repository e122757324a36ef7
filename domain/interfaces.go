package domain

import (
	"context"
	"os"
	"time"
)

// Driver is the document-store client the mapper delegates persistence to.
type Driver interface {
	// Connect opens the network handle. Implementations may assume it is
	// called once; [Connection] guarantees that.
	Connect(ctx context.Context) error
	// Disconnect releases the handle.
	Disconnect(ctx context.Context) error
	// Database selects a database by name. Selection is lazy and never
	// fails.
	Database(name string) Database
	// NewID generates a new globally unique document identifier.
	NewID() any
	// ToID converts v to the driver's native identifier type, if it is
	// not one already.
	ToID(v any) (any, error)
}

// Database is a named database handle.
type Database interface {
	Name() string
	// Collection selects a collection. The collection does not need to
	// exist.
	Collection(name string) Collection
	// Dereference resolves a native reference. It returns a nil document
	// and no error when the target does not exist.
	Dereference(ctx context.Context, ref DBRef) (Document, error)
	// RunCommand runs a database command and returns its response.
	RunCommand(ctx context.Context, cmd Document) (Document, error)
}

// Collection is a handle for a collection of documents.
type Collection interface {
	Name() string
	// Find returns a cursor over the documents matching filter.
	Find(ctx context.Context, filter Document, opts FindOptions) (DriverCursor, error)
	// FindOne returns the first document matching filter or nil if there is
	// none.
	FindOne(ctx context.Context, filter Document, opts FindOptions) (Document, error)
	// Insert writes docs. Every document must carry its primary key.
	Insert(ctx context.Context, docs []Document, wc WriteConcern) (WriteResult, error)
	// Update applies update to the documents matching filter. An update
	// without operator keys replaces the matched document.
	Update(ctx context.Context, filter, update Document, opts UpdateOptions) (WriteResult, error)
	// Remove deletes the documents matching filter.
	Remove(ctx context.Context, filter Document, opts RemoveOptions) (WriteResult, error)
	// Count counts the documents matching filter.
	Count(ctx context.Context, filter Document, opts CountOptions) (int64, error)
	// Aggregate runs an aggregation pipeline.
	Aggregate(ctx context.Context, pipeline []Document) ([]Document, error)
}

// DriverCursor iterates over raw documents returned by a [Collection].
type DriverCursor interface {
	// Next advances the cursor, returning false when there are no more
	// documents or an error happened.
	Next(ctx context.Context) bool
	// Current returns the document the cursor points at.
	Current() (Document, error)
	// Err returns the last error found while iterating.
	Err() error
	// Close releases the cursor.
	Close(ctx context.Context) error
}

// Connection is what the mapper needs from a connection: collection lookup
// and write-concern defaults.
type Connection interface {
	// Collection returns a lazily bound collection handle.
	Collection(name string) Collection
	// Database returns the selected database, connecting if needed.
	Database(ctx context.Context) (Database, error)
	// DefaultWriteConcern returns the write concern used to stamp every
	// write unless the caller overrides a key.
	DefaultWriteConcern() WriteConcern
	// Driver returns the underlying driver.
	Driver() Driver
}

// Decoder decodes a source value into a target pointer.
type Decoder interface {
	Decode(source any, target any) error
}

// IDGenerator generates random document identifiers of a given length.
type IDGenerator interface {
	GenerateID(l int) (string, error)
}

// TimeGetter is used to obtain the current time.
type TimeGetter interface {
	GetTime() time.Time
}

// Comparer compares and orders document values.
type Comparer interface {
	Compare(a, b any) (int, error)
	Comparable(a, b any) bool
}

// Matcher checks whether a document matches a query.
type Matcher interface {
	Match(doc Document, query Document) (bool, error)
}

// Modifier applies an update document to a copy of a document.
type Modifier interface {
	Modify(doc Document, update Document) (Document, error)
}

// Projector applies a projection to documents.
type Projector interface {
	Project(docs []Document, proj Document) ([]Document, error)
}

// Index maps a key to documents, used to enforce uniqueness.
type Index interface {
	Insert(docs ...Document) error
	Remove(docs ...Document) error
	Lookup(key any) ([]Document, error)
	Reset(docs ...Document) error
	Len() int
}

// Persistence stores and loads every collection of a database to and from a
// datafile.
type Persistence interface {
	Load(ctx context.Context) (map[string][]Document, error)
	Save(ctx context.Context, data map[string][]Document) error
	Close() error
}

// GetSetter reads and writes one location of a document.
type GetSetter interface {
	// Get returns the value and whether it is defined.
	Get() (value any, defined bool)
	Set(value any)
	Unset()
}

// FieldNavigator resolves dotted field paths in documents.
type FieldNavigator interface {
	// GetAddress splits a dotted path.
	GetAddress(field string) ([]string, error)
	// GetField reads the locations at addr. Lists met while walking are
	// expanded over their documents, reported by expanded.
	GetField(doc any, addr ...string) (fields []GetSetter, expanded bool, err error)
	// EnsureField returns a writable location at addr, creating missing
	// intermediate documents.
	EnsureField(doc Document, addr ...string) (GetSetter, error)
}

// Storage performs the file operations of a [Persistence].
type Storage interface {
	// CrashSafeWriteFile replaces the content of filename so that either
	// the old or the new content survives a crash.
	CrashSafeWriteFile(ctx context.Context, filename string, data []byte, dirMode, fileMode os.FileMode) error
	// EnsureDatafileIntegrity restores a datafile from its temporary copy,
	// or creates an empty one.
	EnsureDatafileIntegrity(filename string, mode os.FileMode) error
	EnsureParentDirectoryExists(filename string, mode os.FileMode) error
	Exists(filename string) (bool, error)
	ReadFile(ctx context.Context, filename string) ([]byte, error)
	Remove(filename string) error
}
