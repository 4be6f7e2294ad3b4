package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Record is one candidate item: a custom choice or a list row.
type Record = map[string]any

type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindNumber
	kindBool
	kindComposite
)

func kindOf(value any) valueKind {
	if value == nil {
		return kindAbsent
	}
	switch value.(type) {
	case string, []byte:
		return kindString
	case bool:
		return kindBool
	case json.Number:
		return kindNumber
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Bool:
		return kindBool
	default:
		return kindComposite
	}
}

// String renders a value the way string operators see it: lists join their
// elements with commas and objects collapse to "[object Object]".
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = String(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		return "[object Object]"
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return String(rv.Elem().Interface())
	default:
		return fmt.Sprint(value)
	}
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

// Number converts a value to a float. The boolean result is false where a
// numeric conversion yields NaN.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return parseNumber(v)
	case []byte:
		return parseNumber(string(v))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	case reflect.String:
		return parseNumber(rv.String())
	case reflect.Slice, reflect.Array:
		return parseNumber(String(value))
	default:
		return 0, false
	}
}

func parseNumber(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "":
		return 0, true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// LooseEqual compares two values with the loose equality used for option
// keys and the eq operator: numbers and numeric strings compare numerically,
// booleans compare as 1/0, lists and objects compare by their string form
// against primitives.
func LooseEqual(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka == kindAbsent || kb == kindAbsent {
		return ka == kb
	}

	switch {
	case ka == kindString && kb == kindString:
		return String(a) == String(b)
	case ka == kindBool && kb == kindBool:
		return reflect.ValueOf(a).Bool() == reflect.ValueOf(b).Bool()
	case ka == kindComposite && kb == kindComposite:
		return reflect.DeepEqual(a, b)
	case ka == kindBool:
		n, _ := Number(a)
		return LooseEqual(n, b)
	case kb == kindBool:
		n, _ := Number(b)
		return LooseEqual(a, n)
	case ka == kindComposite:
		return LooseEqual(String(a), b)
	case kb == kindComposite:
		return LooseEqual(a, String(b))
	}

	x, okx := Number(a)
	y, oky := Number(b)
	return okx && oky && x == y
}

// compare orders two present values. Two strings compare lexically;
// everything else compares numerically and reports false when either side
// is not a number.
func compare(a, b any) (int, bool) {
	if kindOf(a) == kindComposite {
		a = String(a)
	}
	if kindOf(b) == kindComposite {
		b = String(b)
	}
	if kindOf(a) == kindString && kindOf(b) == kindString {
		return strings.Compare(String(a), String(b)), true
	}

	x, okx := Number(a)
	y, oky := Number(b)
	if !okx || !oky {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

// Index reads key from value the way a member access does: map keys, list
// positions, and string characters. Reading from an absent value fails;
// reading a missing member yields nil.
func Index(value any, key string) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: read %q", ErrNotIndexable, key)
	}
	if m, ok := value.(map[string]any); ok {
		return m[key], nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		item := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !item.IsValid() {
			return nil, nil
		}
		return item.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, nil
		}
		return rv.Index(idx).Interface(), nil
	case reflect.String:
		runes := []rune(rv.String())
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(runes) {
			return nil, nil
		}
		return string(runes[idx]), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: read %q", ErrNotIndexable, key)
		}
		return Index(rv.Elem().Interface(), key)
	default:
		return nil, nil
	}
}

// SubKeys lists the member names of a sample value: sorted map keys, list
// positions, or string character positions. Scalars have no members.
func SubKeys(sample any) ([]string, error) {
	if sample == nil {
		return nil, fmt.Errorf("%w: list members", ErrNotIndexable)
	}

	rv := reflect.ValueOf(sample)
	switch rv.Kind() {
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, String(k.Interface()))
		}
		sort.Strings(keys)
		return keys, nil
	case reflect.Slice, reflect.Array:
		return positions(rv.Len()), nil
	case reflect.String:
		return positions(len([]rune(rv.String()))), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: list members", ErrNotIndexable)
		}
		return SubKeys(rv.Elem().Interface())
	default:
		return []string{}, nil
	}
}

func positions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// Truthy reports whether a value counts as true in a boolean display.
func Truthy(value any) bool {
	switch kindOf(value) {
	case kindAbsent:
		return false
	case kindBool:
		return reflect.ValueOf(value).Bool()
	case kindString:
		return String(value) != ""
	case kindNumber:
		n, ok := Number(value)
		return ok && n != 0
	default:
		return true
	}
}
