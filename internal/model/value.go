package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the attribute value types a Version
// snapshot may hold. Only Null, String, Int, Bool, List, and Attrs
// implement it. There is no float type: attribute snapshots must compare
// byte-for-byte across round trips, and floats break that.
type Value interface {
	attrValue() // sealed
}

// Null represents an explicit JSON null attribute value.
type Null struct{}

func (Null) attrValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string attribute value.
type String string

func (String) attrValue() {}

// Int represents an integer attribute value. Always int64.
type Int int64

func (Int) attrValue() {}

// Bool represents a boolean attribute value.
type Bool bool

func (Bool) attrValue() {}

// List represents an ordered list of attribute values.
type List []Value

func (List) attrValue() {}

// Attrs is the attribute snapshot of a Version: a map of attribute names
// to values. Use SortedKeys for deterministic iteration.
type Attrs map[string]Value

func (Attrs) attrValue() {}

// SortedKeys returns the attribute names in canonical order (UTF-16 code
// units, per RFC 8785). Go's sort.Strings compares UTF-8 bytes, which
// produces a different order for strings outside the ASCII range.
func (a Attrs) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units as RFC 8785
// requires. utf16.Encode handles surrogate pairs correctly.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// Clone returns a deep copy of the snapshot. Staged versions clone their
// input so later caller mutations cannot leak into a commit.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Attrs:
		return val.Clone()
	default:
		// Null, String, Int, Bool are immutable scalars.
		return val
	}
}

// UnmarshalJSON implements json.Unmarshaler for Attrs.
func (a *Attrs) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = make(Attrs, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", k, err)
		}
		(*a)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = make(List, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		(*l)[i] = val
	}
	return nil
}

// ParseAttrs decodes a stored snapshot back into Attrs. Floats in the
// input are rejected; they can only appear if the snapshot was written by
// something other than MarshalCanonical.
func ParseAttrs(data []byte) (Attrs, error) {
	var a Attrs
	if err := a.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return a, nil
}

// unmarshalValue decodes a JSON value into the matching Value type.
func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return Null{}, nil
	case '[':
		var l List
		if err := l.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return l, nil
	case '{':
		var a Attrs
		if err := a.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return a, nil
	default:
		// Numbers: accept integers only.
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q not allowed in snapshot", n)
		}
		return Int(i), nil
	}
}

// ToValue converts a plain Go value (as produced by yaml or json decoding)
// into a Value. Floats and unrecognized types are rejected.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case float64, float32:
		return nil, fmt.Errorf("float values not allowed in snapshot: %v", val)
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			ev, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(Attrs, len(val))
		for k, elem := range val {
			ev, err := ToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot value type: %T", v)
	}
}

// ToAttrs converts a plain map into an Attrs snapshot via ToValue.
func ToAttrs(m map[string]any) (Attrs, error) {
	v, err := ToValue(m)
	if err != nil {
		return nil, err
	}
	return v.(Attrs), nil
}
