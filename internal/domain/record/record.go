// Package record reads fields out of loosely shaped rows (database maps,
// decoded JSON) whose key casing is not known in advance.
package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Lookup returns the value stored under name, trying the exact key, the
// lowercased key, the snake_case key and finally a case-insensitive scan.
// Keys holding nil are treated as absent.
func Lookup(rec map[string]any, name string) (any, bool) {
	if len(rec) == 0 {
		return nil, false
	}
	if v, ok := present(rec, name); ok {
		return v, true
	}
	if v, ok := present(rec, strings.ToLower(name)); ok {
		return v, true
	}
	if v, ok := present(rec, SnakeCase(name)); ok {
		return v, true
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := strings.ToLower(name)
	for _, k := range keys {
		if strings.ToLower(k) != want {
			continue
		}
		if v, ok := present(rec, k); ok {
			return v, true
		}
	}
	return nil, false
}

func present(rec map[string]any, key string) (any, bool) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// SnakeCase rewrites every uppercase letter as an underscore followed by its
// lowercase form: "employeeId" becomes "employee_id".
func SnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Number resolves name and coerces it to a decimal. Absent and
// non-numeric values are zero.
func Number(rec map[string]any, name string) decimal.Decimal {
	v, ok := Lookup(rec, name)
	if !ok {
		return decimal.Zero
	}
	return ToDecimal(v)
}

// ToDecimal coerces v to a decimal, returning zero for anything that does
// not carry a finite number.
func ToDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int8:
		return decimal.NewFromInt(int64(x))
	case int16:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return decimal.NewFromUint64(uint64(x))
	case uint8:
		return decimal.NewFromUint64(uint64(x))
	case uint16:
		return decimal.NewFromUint64(uint64(x))
	case uint32:
		return decimal.NewFromUint64(uint64(x))
	case uint64:
		return decimal.NewFromUint64(x)
	case json.Number:
		return parseDecimal(string(x))
	case string:
		return parseDecimal(x)
	case []byte:
		return parseDecimal(string(x))
	case driver.Valuer:
		// pgtype.Numeric and friends.
		inner, err := x.Value()
		if err != nil {
			return decimal.Zero
		}
		if _, loop := inner.(driver.Valuer); loop {
			return decimal.Zero
		}
		return ToDecimal(inner)
	default:
		return decimal.Zero
	}
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func parseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Int resolves name as a whole number, truncating any fraction.
func Int(rec map[string]any, name string) int {
	return int(Number(rec, name).IntPart())
}

// String resolves name as text. Absent values are the empty string.
func String(rec map[string]any, name string) string {
	v, ok := Lookup(rec, name)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time resolves name as a timestamp. Unparseable values are the zero time.
func Time(rec map[string]any, name string) time.Time {
	v, ok := Lookup(rec, name)
	if !ok {
		return time.Time{}
	}
	switch x := v.(type) {
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return time.Time{}
		}
		return *x
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	default:
		return time.Time{}
	}
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Date resolves name as a calendar date in YYYY-MM-DD form. Text that does
// not parse as a time is returned unchanged.
func Date(rec map[string]any, name string) string {
	if t := Time(rec, name); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return String(rec, name)
}
