package persistence

import (
	"os"
	"time"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

func modeOf(m uint32) os.FileMode {
	return os.FileMode(m)
}

// encodeValue turns the values YAML cannot tell apart from strings into
// tagged documents.
func encodeValue(v any) any {
	switch t := v.(type) {
	case domain.Document:
		res := make(map[string]any, len(t))
		for k, item := range t {
			res[k] = encodeValue(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = encodeValue(item)
		}
		return res
	case time.Time:
		return map[string]any{"$date": t.UTC().Format(time.RFC3339Nano)}
	case domain.DBRef:
		return t.Document()
	case *domain.DBRef:
		if t == nil {
			return nil
		}
		return t.Document()
	case domain.Regex:
		return map[string]any{"$regex": t.Pattern, "$options": t.Options}
	}
	return v
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t["$date"].(string); ok {
				if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return at
				}
			}
		}
		if len(t) == 2 {
			pattern, okP := t["$regex"].(string)
			options, okO := t["$options"].(string)
			if okP && okO {
				return domain.Regex{Pattern: pattern, Options: options}
			}
		}
		res := make(domain.Document, len(t))
		for k, item := range t {
			res[k] = decodeValue(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = decodeValue(item)
		}
		return res
	}
	return v
}
