package engine

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayouts are tried in order when a string is coerced to a date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// toNumber converts v to a float64. The second result is false when v has no
// numeric interpretation. Strings, booleans and BSON datetimes are not
// numbers here; coerceNumber applies the loose rules for those.
func toNumber(v interface{}) (float64, bool) {
	switch v.(type) {
	case nil, bool, string, []byte, primitive.DateTime:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// coerceNumber follows the loose numeric conversion of query values: blank
// strings and nil are zero, booleans are 1 or 0, anything unparseable is NaN.
func coerceNumber(v interface{}) float64 {
	if f, ok := toNumber(v); ok {
		return f
	}
	switch n := v.(type) {
	case nil:
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return math.NaN()
		}
		return f
	case time.Time:
		return float64(n.UnixMilli())
	}
	return math.NaN()
}

// coerceBoolean is true only for the boolean true or the string "true".
func coerceBoolean(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

// parseDate interprets date-like values: native times, BSON datetimes,
// formatted strings and epoch milliseconds.
func parseDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case primitive.DateTime:
		return d.Time().UTC(), true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if ms, err := strconv.ParseFloat(s, 64); err == nil && s != "" {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
		return time.Time{}, false
	}
	if f, ok := toNumber(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// stringify renders v the way query values are rendered as text.
func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case float64:
		return formatFloat(s)
	case float32:
		return formatFloat(float64(s))
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case primitive.DateTime:
		return s.Time().UTC().Format(time.RFC3339Nano)
	}
	if items, ok := sequenceItems(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sequenceItems returns the elements of any slice or array value. Byte
// slices are treated as scalars.
func sequenceItems(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return s, true
	case primitive.A:
		return []interface{}(s), true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
