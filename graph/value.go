// Package graph provides the core workflow graph execution engine.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Value is the dynamic data representation shared across the workflow
// graph: node inputs/outputs, context variables, and condition operands
// are all Values. It has exactly the shapes JSON can express (null, bool,
// number, string, array, object), so it round-trips losslessly through
// the spec registry and the data-transform layer without resorting to
// reflection over arbitrary Go types.
//
// Value deliberately does not implement a generic "any" escape hatch:
// callers build and inspect it through the typed constructors and
// accessors below, routing all context access through explicit variants
// rather than dynamic attribute lookup.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []Value
	obj  map[string]Value
}

// ValueKind identifies which shape a Value currently holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an integer as a Number.
func Int(n int) Value { return Value{kind: KindNumber, n: float64(n)} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps a slice of Values.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Object wraps a map of Values.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// Kind reports the dynamic shape of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null (including the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload, or false if v is not a bool.
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsNumber returns the numeric payload, or 0 if v is not a number.
func (v Value) AsNumber() float64 {
	if v.kind == KindNumber {
		return v.n
	}
	return 0
}

// AsString returns the string payload. Non-string Values render a best
// effort textual form so that templating and logging never panic.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNull:
		return ""
	default:
		b, _ := json.Marshal(v.Native())
		return string(b)
	}
}

// AsList returns the element slice, or nil if v is not a list.
func (v Value) AsList() []Value {
	if v.kind == KindList {
		return v.list
	}
	return nil
}

// AsObject returns the underlying map, or nil if v is not an object.
func (v Value) AsObject() map[string]Value {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

// Get looks up a field on an object Value. It returns (Null(), false) for
// non-objects or missing fields.
func (v Value) Get(field string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	val, ok := v.obj[field]
	return val, ok
}

// IsEmpty implements the is_empty / is_not_empty condition operators:
// null, false, zero, "", an empty list, and an empty object are all
// empty; everything else is not.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return !v.b
	case KindNumber:
		return v.n == 0
	case KindString:
		return v.s == ""
	case KindList:
		return len(v.list) == 0
	case KindObject:
		return len(v.obj) == 0
	default:
		return true
	}
}

// Truthy implements the is_true / is_false condition operators.
func (v Value) Truthy() bool {
	return !v.IsEmpty()
}

// Equal reports deep structural equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		// Allow cross number/string comparisons used by loose condition
		// matching (e.g. comparing a ctx variable stored as a string "5"
		// against a literal number 5).
		if v.kind == KindNumber && other.kind == KindString {
			return v.AsString() == other.s
		}
		if v.kind == KindString && other.kind == KindNumber {
			return v.s == other.AsString()
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, a := range v.obj {
			b, ok := other.obj[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two Values for the gt/lt/ge/le condition operators.
// Numbers compare numerically, strings lexicographically. Mismatched or
// incomparable kinds return ok=false.
func (v Value) Compare(other Value) (result int, ok bool) {
	if v.kind == KindNumber && other.kind == KindNumber {
		switch {
		case v.n < other.n:
			return -1, true
		case v.n > other.n:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.kind == KindString && other.kind == KindString {
		switch {
		case v.s < other.s:
			return -1, true
		case v.s > other.s:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// Native converts a Value into plain Go data (nil, bool, float64, string,
// []any, map[string]any) suitable for json.Marshal or handing to a Tool
// implementation's input map.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative converts plain Go data (as produced by json.Unmarshal into
// interface{}, or hand-built maps/slices) into a Value tree.
func FromNative(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromNative(e)
		}
		return List(items...)
	case []Value:
		return List(t...)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromNative(e)
		}
		return Object(m)
	case map[string]Value:
		return Object(t)
	default:
		// Best effort: round-trip through JSON for arbitrary structs.
		b, err := json.Marshal(t)
		if err != nil {
			return Null()
		}
		var generic interface{}
		if err := json.Unmarshal(b, &generic); err != nil {
			return Null()
		}
		return FromNative(generic)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	*v = FromNative(generic)
	return nil
}

// String renders a deterministic, human-readable form (objects have
// sorted keys) used in logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%s: %s", k, v.obj[k].String())
		}
		return out + "}"
	case KindList:
		out := "["
		for i, e := range v.list {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	default:
		return v.AsString()
	}
}

// MergeObjects shallow-merges b's fields over a's, returning a new object
// Value. Non-object inputs are treated as empty objects. Used by the
// Parallel node's "merge" collection mode and the Transform node's MERGE
// kind.
func MergeObjects(a, b Value) Value {
	out := make(map[string]Value, len(a.AsObject())+len(b.AsObject()))
	for k, v := range a.AsObject() {
		out[k] = v
	}
	for k, v := range b.AsObject() {
		out[k] = v
	}
	return Object(out)
}
