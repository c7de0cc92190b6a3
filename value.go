package altar

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Value is the single tagged-variant type threaded through the whole
// evaluator: every context entry, literal and filter/test argument is a
// *Value wrapping a reflect.Value, plus two booleans that don't fit
// naturally into reflect.Kind: safe (auto-escape has been satisfied) and
// undefined (the name this Value came from wasn't found anywhere).
type Value struct {
	val       reflect.Value
	safe      bool
	undefined bool
}

// AsValue wraps a Go value for use in a Context or as a filter/test
// argument or return value.
func AsValue(i interface{}) *Value {
	return &Value{val: reflect.ValueOf(i)}
}

// AsSafeValue wraps a string value already known not to need escaping
// (grounded on the "safe"/"escape" filters' return convention).
func AsSafeValue(s string) *Value {
	return &Value{val: reflect.ValueOf(s), safe: true}
}

// Undefined is the result of resolving a name that isn't present
// anywhere reachable from the current ExecutionContext. It renders as
// the empty string and is falsy, but is distinguishable from an
// explicit nil/None via IsUndefined so that `is defined`/`default` can
// tell the two apart.
func Undefined() *Value {
	return &Value{undefined: true}
}

func (v *Value) getResolvedValue() reflect.Value {
	if v.val.IsValid() && v.val.Kind() == reflect.Ptr {
		return v.val.Elem()
	}
	return v.val
}

// IsUndefined reports whether this Value came from an unresolved name.
func (v *Value) IsUndefined() bool { return v.undefined }

// IsSafe reports whether this Value is marked as not needing
// auto-escaping before being written out.
func (v *Value) IsSafe() bool { return v.safe }

// AsSafe returns a copy of v marked safe, without mutating v.
func (v *Value) AsSafe() *Value {
	return &Value{val: v.val, safe: true, undefined: v.undefined}
}

func (v *Value) IsString() bool {
	return v.getResolvedValue().Kind() == reflect.String
}

func (v *Value) IsFloat() bool {
	k := v.getResolvedValue().Kind()
	return k == reflect.Float32 || k == reflect.Float64
}

func (v *Value) IsInteger() bool {
	switch v.getResolvedValue().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func (v *Value) IsNumber() bool {
	return v.IsInteger() || v.IsFloat()
}

func (v *Value) IsBool() bool {
	return v.getResolvedValue().Kind() == reflect.Bool
}

func (v *Value) IsNil() bool {
	if v.undefined {
		return true
	}
	rv := v.getResolvedValue()
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func (v *Value) IsMapping() bool {
	return v.getResolvedValue().Kind() == reflect.Map || v.getResolvedValue().Kind() == reflect.Struct
}

func (v *Value) IsSequence() bool {
	k := v.getResolvedValue().Kind()
	return k == reflect.Array || k == reflect.Slice
}

func (v *Value) IsIterable() bool {
	return v.IsSequence() || v.IsMapping() || v.IsString()
}

func (v *Value) String() string {
	if v.undefined {
		return ""
	}
	switch v.getResolvedValue().Kind() {
	case reflect.String:
		return v.getResolvedValue().String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatInt(v.Integer64(), 10)
	case reflect.Float32, reflect.Float64:
		f := v.getResolvedValue().Float()
		if f == float64(int64(f)) {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case reflect.Bool:
		if v.Bool() {
			return "True"
		}
		return "False"
	default:
		if v.IsNil() {
			return ""
		}
		return fmt.Sprint(v.Interface())
	}
}

func (v *Value) Integer() int {
	return int(v.Integer64())
}

func (v *Value) Integer64() int64 {
	switch v.getResolvedValue().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.getResolvedValue().Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.getResolvedValue().Uint())
	case reflect.Float32, reflect.Float64:
		return int64(v.getResolvedValue().Float())
	case reflect.String:
		i, err := strconv.ParseInt(v.getResolvedValue().String(), 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func (v *Value) Float() float64 {
	switch v.getResolvedValue().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Integer64())
	case reflect.Float32, reflect.Float64:
		return v.getResolvedValue().Float()
	case reflect.String:
		f, err := strconv.ParseFloat(v.getResolvedValue().String(), 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

func (v *Value) Bool() bool {
	if v.getResolvedValue().Kind() == reflect.Bool {
		return v.getResolvedValue().Bool()
	}
	return false
}

// IsTrue implements truthiness for `if`/`and`/`or`/`not` and for
// implicit boolean coercion of filter/test arguments.
func (v *Value) IsTrue() bool {
	if v.undefined {
		return false
	}
	rv := v.getResolvedValue()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Invalid:
		return false
	default:
		return !v.IsNil()
	}
}

// Negate implements the `not` operator.
func (v *Value) Negate() *Value {
	return AsValue(!v.IsTrue())
}

func (v *Value) Len() int {
	switch v.getResolvedValue().Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return v.getResolvedValue().Len()
	default:
		return 0
	}
}

// Slice implements sequence slicing with an optional step, supporting
// negative indices the way Jinja/Python does ([-1], [:-1], [::2]).
func (v *Value) Slice(i, j, step int) *Value {
	rv := v.getResolvedValue()
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		n := rv.Len()
		i, j = normalizeSliceBounds(i, j, n)
		if i >= j {
			return AsValue(reflect.MakeSlice(rv.Type(), 0, 0).Interface())
		}
		out := reflect.MakeSlice(rv.Type(), 0, (j-i)/maxInt(step, 1)+1)
		for k := i; k < j; k += maxInt(step, 1) {
			out = reflect.Append(out, rv.Index(k))
		}
		return AsValue(out.Interface())
	case reflect.String:
		runes := []rune(rv.String())
		n := len(runes)
		i, j = normalizeSliceBounds(i, j, n)
		if i >= j {
			return AsValue("")
		}
		var b strings.Builder
		for k := i; k < j; k += maxInt(step, 1) {
			b.WriteRune(runes[k])
		}
		return AsValue(b.String())
	default:
		return AsValue(nil)
	}
}

func normalizeSliceBounds(i, j, n int) (int, int) {
	if i < 0 {
		i += n
	}
	if j < 0 {
		j += n
	}
	if i < 0 {
		i = 0
	}
	if j > n {
		j = n
	}
	if i > n {
		i = n
	}
	if j < 0 {
		j = 0
	}
	return i, j
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (v *Value) CanSlice() bool {
	switch v.getResolvedValue().Kind() {
	case reflect.Array, reflect.Slice, reflect.String:
		return true
	}
	return false
}

// Contains implements the `in` operator: substring, map-key and
// sequence-membership tests.
func (v *Value) Contains(other *Value) bool {
	rv := v.getResolvedValue()
	switch rv.Kind() {
	case reflect.Struct:
		return rv.FieldByName(other.String()).IsValid()
	case reflect.Map:
		key := reflect.ValueOf(other.Interface())
		if !key.IsValid() || !key.Type().AssignableTo(rv.Type().Key()) {
			return false
		}
		return rv.MapIndex(key).IsValid()
	case reflect.String:
		return strings.Contains(rv.String(), other.String())
	case reflect.Array, reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if (&Value{val: rv.Index(i)}).EqualValueTo(other) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Iterate walks a sequence or mapping. fn receives (idx, count, key,
// value) for maps and (idx, count, value, nil) for sequences/strings
// (iterating string yields one-rune Values); empty is called instead if
// there is nothing to iterate.
func (v *Value) Iterate(fn func(idx, count int, key, value *Value) bool, empty func()) {
	rv := v.getResolvedValue()
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		n := len(keys)
		if n == 0 {
			empty()
			return
		}
		for idx, key := range keys {
			if !fn(idx, n, &Value{val: key}, &Value{val: rv.MapIndex(key)}) {
				return
			}
		}
	case reflect.Array, reflect.Slice:
		n := rv.Len()
		if n == 0 {
			empty()
			return
		}
		for i := 0; i < n; i++ {
			if !fn(i, n, &Value{val: rv.Index(i)}, nil) {
				return
			}
		}
	case reflect.String:
		runes := []rune(rv.String())
		n := len(runes)
		if n == 0 {
			empty()
			return
		}
		for i, r := range runes {
			if !fn(i, n, AsValue(string(r)), nil) {
				return
			}
		}
	default:
		empty()
	}
}

// IterateOrder is Iterate with optional pre-collection sort and/or
// reversal, for `{% for x in seq|sort %}`-equivalents expressed as the
// for-tag's own "reversed"/"sorted" modifiers rather than a filter.
func (v *Value) IterateOrder(fn func(idx, count int, key, value *Value) bool, empty func(), reverse, sortBy bool) {
	if !reverse && !sortBy {
		v.Iterate(fn, empty)
		return
	}

	type pair struct{ key, value *Value }
	var pairs []pair
	v.Iterate(func(idx, count int, key, value *Value) bool {
		pairs = append(pairs, pair{key, value})
		return true
	}, func() {})

	if len(pairs) == 0 {
		empty()
		return
	}

	if sortBy {
		// For a mapping, key holds the map key; for a sequence, key holds
		// the element itself (value is nil) — sorting by key covers both.
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].key.Compare(pairs[j].key) < 0
		})
	}
	if reverse {
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}

	n := len(pairs)
	for i, p := range pairs {
		if !fn(i, n, p.key, p.value) {
			return
		}
	}
}

// Compare orders two Values the way Python/Jinja does for `<`/`>`/
// sort: numerically if both are numbers, lexically if both are
// strings, falling back to string-form comparison otherwise.
func (v *Value) Compare(other *Value) int {
	switch {
	case v.IsNumber() && other.IsNumber():
		a, b := v.Float(), other.Float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	default:
		a, b := v.String(), other.String()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

func (v *Value) Interface() interface{} {
	if v.val.IsValid() {
		return v.val.Interface()
	}
	return nil
}

func (v *Value) EqualValueTo(other *Value) bool {
	if v.undefined || other.undefined {
		return v.undefined == other.undefined
	}
	if v.IsNumber() && other.IsNumber() {
		if v.IsFloat() || other.IsFloat() {
			return v.Float() == other.Float()
		}
		return v.Integer64() == other.Integer64()
	}

	a, b := v.getResolvedValue(), other.getResolvedValue()
	switch a.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
	switch b.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
	return v.Interface() == other.Interface()
}

// DynamicAttrGetter is implemented by values whose attributes can't be
// enumerated through reflection alone (e.g. self.blockname(), which
// dispatches to whichever block names exist in a particular template's
// inheritance chain). Checked before struct fields/map keys/methods.
type DynamicAttrGetter interface {
	GetDynamicAttr(name string) (*Value, bool)
}

// GetAttr resolves dotted attribute access (dynamic attr, method-by-name,
// struct field, map key) in that order, matching Jinja's "try
// attribute, then item" rule. ok is false if the attribute doesn't
// exist, in which case the caller should fall back to GetItem.
func (v *Value) GetAttr(name string) (result *Value, ok bool) {
	if dyn, isDyn := v.Interface().(DynamicAttrGetter); isDyn {
		return dyn.GetDynamicAttr(name)
	}

	rv := v.getResolvedValue()
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Undefined(), false
	}

	if m := v.methodByName(rv, name); m.IsValid() {
		return &Value{val: m}, true
	}

	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if f.IsValid() {
			return &Value{val: f}, true
		}
	case reflect.Map:
		key := reflect.ValueOf(name)
		if key.Type().AssignableTo(rv.Type().Key()) {
			if mv := rv.MapIndex(key); mv.IsValid() {
				return &Value{val: mv}, true
			}
		}
	}
	return Undefined(), false
}

func (v *Value) methodByName(rv reflect.Value, name string) reflect.Value {
	if rv.CanAddr() {
		if m := rv.Addr().MethodByName(name); m.IsValid() {
			return m
		}
	}
	return rv.MethodByName(name)
}

// GetItem resolves subscript access (`x[key]`): integer index into a
// sequence/string, or key lookup into a map/struct.
func (v *Value) GetItem(key *Value) (result *Value, ok bool) {
	rv := v.getResolvedValue()
	switch rv.Kind() {
	case reflect.String:
		runes := []rune(rv.String())
		i := key.Integer()
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return Undefined(), false
		}
		return AsValue(string(runes[i])), true
	case reflect.Array, reflect.Slice:
		i := key.Integer()
		if i < 0 {
			i += rv.Len()
		}
		if i < 0 || i >= rv.Len() {
			return Undefined(), false
		}
		return &Value{val: rv.Index(i)}, true
	case reflect.Map:
		mk := reflect.ValueOf(key.Interface())
		if !mk.IsValid() || !mk.Type().AssignableTo(rv.Type().Key()) {
			return Undefined(), false
		}
		mv := rv.MapIndex(mk)
		if !mv.IsValid() {
			return Undefined(), false
		}
		return &Value{val: mv}, true
	case reflect.Struct:
		f := rv.FieldByName(key.String())
		if !f.IsValid() {
			return Undefined(), false
		}
		return &Value{val: f}, true
	default:
		return Undefined(), false
	}
}
