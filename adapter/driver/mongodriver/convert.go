package mongodriver

import (
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// commandNames are put first when a command document is ordered, as the
// server reads the command name from the first key.
var commandNames = []string{
	"aggregate", "buildInfo", "collStats", "count", "create", "createIndexes",
	"dbStats", "distinct", "drop", "dropDatabase", "eval", "find", "hello",
	"isMaster", "listCollections", "ping", "serverStatus",
}

// toBSON converts a value of the mapper into what the mongo driver encodes.
func toBSON(v any) any {
	switch t := v.(type) {
	case domain.Document:
		if ref, ok := domain.AsDBRef(t); ok {
			return dbRefOf(ref)
		}
		res := make(bson.M, len(t))
		for k, item := range t {
			res[k] = toBSON(item)
		}
		return res
	case domain.Sort:
		return sortOf(t)
	case []any:
		res := make(bson.A, len(t))
		for n, item := range t {
			res[n] = toBSON(item)
		}
		return res
	case domain.Regex:
		return primitive.Regex{Pattern: t.Pattern, Options: t.Options}
	case *regexp.Regexp:
		if t == nil {
			return nil
		}
		return primitive.Regex{Pattern: t.String()}
	case domain.DBRef:
		return dbRefOf(t)
	case *domain.DBRef:
		if t == nil {
			return nil
		}
		return dbRefOf(*t)
	}
	return v
}

// dbRefOf orders a reference the way the server expects it.
func dbRefOf(ref domain.DBRef) bson.D {
	d := bson.D{{Key: "$ref", Value: ref.Ref}, {Key: "$id", Value: toBSON(ref.ID)}}
	if ref.DB != "" {
		d = append(d, bson.E{Key: "$db", Value: ref.DB})
	}
	return d
}

func filterOf(d domain.Document) any {
	if d == nil {
		return bson.M{}
	}
	return toBSON(d)
}

// fromBSON converts a decoded value back into the types of the mapper.
// References come back as [domain.DBRef].
func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		res := make(domain.Document, len(t))
		for k, item := range t {
			res[k] = fromBSON(item)
		}
		if ref, ok := domain.AsDBRef(res); ok {
			return ref
		}
		return res
	case bson.D:
		res := make(domain.Document, len(t))
		for _, e := range t {
			res[e.Key] = fromBSON(e.Value)
		}
		if ref, ok := domain.AsDBRef(res); ok {
			return ref
		}
		return res
	case bson.A:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = fromBSON(item)
		}
		return res
	case primitive.Regex:
		return domain.Regex{Pattern: t.Pattern, Options: t.Options}
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	}
	return v
}

func documentOf(m bson.M) domain.Document {
	if m == nil {
		return nil
	}
	d, ok := fromBSON(m).(domain.Document)
	if !ok {
		// A whole document shaped like a reference.
		d = domain.Document{}
		for k, item := range m {
			d[k] = fromBSON(item)
		}
	}
	return d
}

// sortOf keeps the order of the sort fields.
func sortOf(s domain.Sort) bson.D {
	if len(s) == 0 {
		return nil
	}
	d := make(bson.D, len(s))
	for n, sn := range s {
		order := int32(1)
		if sn.Order < 0 {
			order = -1
		}
		d[n] = bson.E{Key: sn.Key, Value: order}
	}
	return d
}

// commandOf orders a command document: the command name first, then the
// other keys sorted.
func commandOf(cmd domain.Document) bson.D {
	keys := slices.Sorted(maps.Keys(cmd))
	for _, name := range commandNames {
		if n := slices.Index(keys, name); n > 0 {
			keys = append([]string{name}, slices.Delete(keys, n, n+1)...)
			break
		} else if n == 0 {
			break
		}
	}
	d := make(bson.D, len(keys))
	for n, k := range keys {
		d[n] = bson.E{Key: k, Value: toBSON(cmd[k])}
	}
	return d
}

// writeConcernOf converts a write concern. Unset keys stay unset so the
// server defaults apply.
func writeConcernOf(wc domain.WriteConcern) *writeconcern.WriteConcern {
	if wc.W == nil && wc.J == nil {
		return nil
	}
	res := &writeconcern.WriteConcern{W: wc.W}
	if wc.J != nil {
		j := *wc.J
		res.Journal = &j
	}
	if n, ok := wc.W.(int64); ok {
		res.W = int(n)
	}
	if n, ok := wc.W.(int32); ok {
		res.W = int(n)
	}
	return res
}
