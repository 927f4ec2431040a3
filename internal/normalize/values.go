package normalize

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/straye-as/erp-desk/internal/domain"
)

// lookup returns the first present value among keys, in the order given.
// A dotted key ("customer.name") walks nested objects. Nil values and blank
// strings count as absent so a legacy alias can fill an empty new key.
func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		v, ok := walk(raw, key)
		if !ok || isBlank(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func walk(raw map[string]any, key string) (any, bool) {
	if raw == nil {
		return nil, false
	}
	parts := strings.Split(key, ".")
	var cur any = raw
	for _, p := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case domain.RawRecord:
		return t, true
	}
	return nil, false
}

// str reads a string field; maps and slices never convert
func str(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if _, isMap := asMap(v); isMap {
			continue
		}
		if _, isList := v.([]any); isList {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func optStr(raw map[string]any, keys ...string) *string {
	if s := str(raw, keys...); s != "" {
		return &s
	}
	return nil
}

// num reads a numeric field. Strings like "1,250.50" are accepted.
func num(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr {
			v = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			continue
		}
		return &f
	}
	return nil
}

func numOr(raw map[string]any, def float64, keys ...string) float64 {
	if f := num(raw, keys...); f != nil {
		return *f
	}
	return def
}

// boolean reads a flag; the second return is false when no key is present
func boolean(raw map[string]any, keys ...string) (bool, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			continue
		}
		return b, true
	}
	return false, false
}

// timestamp parses ISO strings, bare dates and unix seconds or milliseconds.
// Unparseable values are treated as absent.
func timestamp(raw map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if t, ok := parseTime(v); ok {
			return &t
		}
	}
	return nil
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return fromUnix(int64(t)), true
	case int64:
		return fromUnix(t), true
	case int:
		return fromUnix(int64(t)), true
	}
	parsed, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

func fromUnix(n int64) time.Time {
	// Values past year 33658 in seconds are certainly milliseconds
	if n > 1e12 || n < -1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func list(raw map[string]any, keys ...string) ([]any, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if l, ok := v.([]any); ok {
			return l, true
		}
	}
	return nil, false
}

func object(raw map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if m, ok := asMap(v); ok {
			return m, true
		}
	}
	return nil, false
}

// scalarString returns v as a string when it is not an object or list
func scalarString(raw map[string]any, key string) string {
	v, ok := lookup(raw, key)
	if !ok {
		return ""
	}
	if _, isMap := asMap(v); isMap {
		return ""
	}
	if _, isList := v.([]any); isList {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}
