package mustache

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// IsFalsyForSection reports whether v hides a {{#section}} and shows an
// {{^inverted}} section. The falsy values are exactly: nil, a nil pointer,
// map, slice, func, chan or interface, false, numeric zero and NaN, the empty
// string and an empty slice or array. Everything else is truthy, including
// empty maps and structs.
func IsFalsyForSection(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case int:
		return x == 0
	case float64:
		return x == 0 || math.IsNaN(x)
	case []any:
		return len(x) == 0
	case map[string]any:
		return x == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isSequence reports whether v is iterated by a section. Byte slices are
// treated as text.
func isSequence(v any) bool {
	switch v.(type) {
	case []any:
		return true
	case []byte:
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// isScope reports whether a truthy section value gets its own context scope.
func isScope(v any) bool {
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Struct, reflect.String:
		return true
	}
	return isNumber(v)
}

func forEach(v any, fn func(any) error) error {
	if items, ok := v.([]any); ok {
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	for i := 0; i < rv.Len(); i++ {
		if err := fn(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// toString formats an interpolated value.
func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float(), rv.Type().Bits())
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(v)
}

// formatFloat never uses exponent notation, so 1e21 prints as
// 1000000000000000000000.
func formatFloat(f float64, bits int) string {
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// call invokes v if it is a function taking no arguments and returning one
// value, or a value and an error. A failing call yields nil, and so does a
// function with no results, which is not called. Anything else is returned
// unchanged.
func call(v any) any {
	switch f := v.(type) {
	case nil:
		return nil
	case func() any:
		return f()
	case func() string:
		return f()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return v
	}
	t := rv.Type()
	if t.NumIn() != 0 {
		return v
	}
	switch {
	case t.NumOut() == 0:
		return nil
	case t.NumOut() == 1:
		return rv.Call(nil)[0].Interface()
	case t.NumOut() == 2 && t.Out(1) == errorType:
		out := rv.Call(nil)
		if !out[1].IsNil() {
			return nil
		}
		return out[0].Interface()
	}
	return v
}

type fieldKey struct {
	typ  reflect.Type
	name string
}

// fieldIndexes caches struct field resolution per (type, name); a nil entry
// records a miss.
var fieldIndexes sync.Map

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	key := fieldKey{rv.Type(), name}
	if idx, ok := fieldIndexes.Load(key); ok {
		if idx == nil {
			return reflect.Value{}, false
		}
		fv, err := rv.FieldByIndexErr(idx.([]int))
		return fv, err == nil
	}

	idx := findField(rv.Type(), name)
	if idx == nil {
		fieldIndexes.Store(key, nil)
		return reflect.Value{}, false
	}
	fieldIndexes.Store(key, idx)
	fv, err := rv.FieldByIndexErr(idx)
	return fv, err == nil
}

func findField(t reflect.Type, name string) []int {
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return f.Index
	}
	fields := reflect.VisibleFields(t)
	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("mustache"), ","); tag == name {
			return f.Index
		}
	}
	for _, f := range fields {
		if f.IsExported() && !f.Anonymous && strings.EqualFold(f.Name, name) {
			return f.Index
		}
	}
	return nil
}

// property looks name up on a single view value. The second result reports
// whether the property exists, even if its value is nil.
func property(view any, name string) (any, bool) {
	if m, ok := view.(map[string]any); ok {
		v, found := m[name]
		return v, found
	}

	rv := reflect.ValueOf(view)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, false
	}
	if m := methodByName(rv, name); m.IsValid() {
		return m.Interface(), true
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(kt))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		if fv, ok := structField(rv, name); ok && fv.CanInterface() {
			return fv.Interface(), true
		}
		if m := methodByName(rv, name); m.IsValid() {
			return m.Interface(), true
		}
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func methodByName(rv reflect.Value, name string) reflect.Value {
	if name == "" || !isExportedName(name) {
		return reflect.Value{}
	}
	return rv.MethodByName(name)
}

func isExportedName(name string) bool {
	return name[0] >= 'A' && name[0] <= 'Z'
}
