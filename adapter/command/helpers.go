package command

import (
	"fmt"
	"strconv"
	"time"
)

// Date converts v into a [time.Time]. It accepts times, Unix timestamps in
// seconds (integers or floats) and RFC 3339 or "2006-01-02 15:04:05"
// strings. A nil value results in the current time.
func Date(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Now(), nil
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Now(), nil
		}
		return *t, nil
	case int:
		return time.Unix(int64(t), 0), nil
	case int32:
		return time.Unix(int64(t), 0), nil
	case int64:
		return time.Unix(t, 0), nil
	case float64:
		sec := int64(t)
		return time.Unix(sec, int64((t-float64(sec))*1e9)), nil
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(n, 0), nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			if d, err := time.Parse(layout, t); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as a date", t)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to a date", v)
}

// ID converts v to the native identifier of the driver of c. A nil value
// generates a new identifier.
func (c *Command) ID(v any) (any, error) {
	if v == nil {
		return c.conn.Driver().NewID(), nil
	}
	return c.conn.Driver().ToID(v)
}
