package domain

import "fmt"

// Document is the map-shaped representation of a stored record, as sent to and
// received from a [Driver].
type Document = map[string]any

// A is a shorthand for a document array.
type A = []any

// DefaultPrimaryKey is the primary key field used when a type does not declare
// its own.
const DefaultPrimaryKey = "_id"

// Sort represents an ordered list of fields which should be used to sort query
// results, applied in sequence.
type Sort = []SortName

// SortName represents a single field and the order which should be used to sort
// it. A positive Order value means ascending order and a negative value means
// descending order.
type SortName struct {
	Key   string
	Order int64
}

// DBRef is a native document reference: a pointer to a document living in
// another collection (and optionally another database).
type DBRef struct {
	Ref string `mapstructure:"$ref" bson:"$ref" yaml:"$ref"`
	ID  any    `mapstructure:"$id" bson:"$id" yaml:"$id"`
	DB  string `mapstructure:"$db,omitempty" bson:"$db,omitempty" yaml:"$db,omitempty"`
}

// Document returns the map form of the reference.
func (r DBRef) Document() Document {
	d := Document{"$ref": r.Ref, "$id": r.ID}
	if r.DB != "" {
		d["$db"] = r.DB
	}
	return d
}

func (r DBRef) String() string {
	if r.DB != "" {
		return fmt.Sprintf("DBRef(%s.%s, %v)", r.DB, r.Ref, r.ID)
	}
	return fmt.Sprintf("DBRef(%s, %v)", r.Ref, r.ID)
}

// AsDBRef reports whether v is a native reference, either as a [DBRef] value
// or as a {$ref, $id[, $db]} document, and returns it.
func AsDBRef(v any) (DBRef, bool) {
	switch t := v.(type) {
	case DBRef:
		return t, true
	case *DBRef:
		if t == nil {
			return DBRef{}, false
		}
		return *t, true
	case Document:
		ref, ok := t["$ref"].(string)
		if !ok {
			return DBRef{}, false
		}
		id, ok := t["$id"]
		if !ok {
			return DBRef{}, false
		}
		db, _ := t["$db"].(string)
		return DBRef{Ref: ref, ID: id, DB: db}, true
	}
	return DBRef{}, false
}

// WriteConcern is the acknowledgment level requested for a write. A nil W or
// J means "not set" so that explicit values can be overlaid on defaults key by
// key.
type WriteConcern struct {
	// W is the acknowledgment level: a number of nodes or a tag such as
	// "majority".
	W any `yaml:"w" mapstructure:"w"`
	// J requires the write to be flushed to the journal.
	J *bool `yaml:"j" mapstructure:"j"`
}

// Clone returns a copy of w that does not share its J flag.
func (w WriteConcern) Clone() WriteConcern {
	if w.J != nil {
		j := *w.J
		w.J = &j
	}
	return w
}

// Overlay returns a copy of w where every key set in o replaces the value of
// w.
func (w WriteConcern) Overlay(o WriteConcern) WriteConcern {
	w = w.Clone()
	if o.W != nil {
		w.W = o.W
	}
	if o.J != nil {
		j := *o.J
		w.J = &j
	}
	return w
}

// Journal returns the J flag, false when unset.
func (w WriteConcern) Journal() bool {
	return w.J != nil && *w.J
}

// Acknowledged reports whether the concern asks for any acknowledgment.
func (w WriteConcern) Acknowledged() bool {
	switch n := w.W.(type) {
	case nil:
		return true
	case int:
		return n != 0 || w.Journal()
	case int32:
		return n != 0 || w.Journal()
	case int64:
		return n != 0 || w.Journal()
	}
	return true
}

// WriteResult is the driver's acknowledgment of a write.
type WriteResult struct {
	// Acknowledged is false for unacknowledged writes (w=0), in which case
	// every counter is meaningless.
	Acknowledged bool
	Matched      int64
	Modified     int64
	Deleted      int64
	UpsertedID   any
	InsertedIDs  []any
}

// UpdatedExisting reports whether an acknowledged update touched an existing
// document. Unacknowledged writes are reported as successful.
func (r WriteResult) UpdatedExisting() bool {
	return !r.Acknowledged || r.Matched > 0 || r.UpsertedID != nil
}

// Regex is a driver-independent regular expression value used in conditions.
// Options follows the store's flag letters ("i" for case-insensitive, "m",
// "s", "x").
type Regex struct {
	Pattern string
	Options string
}

func (r Regex) String() string {
	return "/" + r.Pattern + "/" + r.Options
}
