// Package chaincall builds typed call descriptors for the bitgenius-agent
// contract and decodes typed results back into native Go values.
//
// The wire format is a small tagged union: every value is an object with a
// "type" tag and a "value" payload. Optionals carry either a nested value or
// an explicit null, so an absent fee is distinguishable from fee=0 on the
// wire and after decoding.
package chaincall

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wire type tags understood by the contract gateway.
const (
	TypeUint        = "uint"
	TypeBool        = "bool"
	TypeStringASCII = "string-ascii"
	TypeStringUTF8  = "string-utf8"
	TypeBuff        = "buff"
	TypeOptional    = "optional"
	TypeTuple       = "tuple"
	TypeList        = "list"
)

// Value is one typed wire value. Exactly one of the payload fields is
// meaningful for a given Type:
//
//	uint, bool, buff, string-*  -> Raw (string form)
//	optional                    -> Inner (nil means absent)
//	tuple                       -> Fields
//	list                        -> Items
//
// Unrecognized tags keep their payload in Raw and pass through untouched.
type Value struct {
	Type   string
	Raw    string
	Inner  *Value
	Fields map[string]Value
	Items  []Value
}

// Uint builds an unsigned-integer wire value.
func Uint(v uint64) Value {
	return Value{Type: TypeUint, Raw: strconv.FormatUint(v, 10)}
}

// Bool builds a boolean wire value. Booleans travel as lowercase strings.
func Bool(v bool) Value {
	return Value{Type: TypeBool, Raw: strconv.FormatBool(v)}
}

// StringASCII builds a bounded-length ascii string wire value.
func StringASCII(v string) Value {
	return Value{Type: TypeStringASCII, Raw: v}
}

// Buff builds a byte-buffer wire value from its hex form.
func Buff(v string) Value {
	return Value{Type: TypeBuff, Raw: v}
}

// Some wraps a value as a present optional.
func Some(v Value) Value {
	return Value{Type: TypeOptional, Inner: &v}
}

// None is the absent optional. Its wire form carries an explicit null value,
// which is not the same wire value as a present zero.
func None() Value {
	return Value{Type: TypeOptional}
}

// Tuple builds a named-field wire value.
func Tuple(fields map[string]Value) Value {
	return Value{Type: TypeTuple, Fields: fields}
}

// List builds a sequence wire value.
func List(items ...Value) Value {
	return Value{Type: TypeList, Items: items}
}

// wireValue is the JSON shape the gateway expects: {"type": ..., "value": ...}.
type wireValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value in the gateway wire shape.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Type {
	case TypeOptional:
		if v.Inner == nil {
			payload = nil
		} else {
			payload = *v.Inner
		}
	case TypeTuple:
		payload = v.Fields
	case TypeList:
		if v.Items == nil {
			payload = []Value{}
		} else {
			payload = v.Items
		}
	default:
		payload = v.Raw
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.Type, Value: raw})
}

// UnmarshalJSON decodes a gateway wire value back into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	v.Type = w.Type
	v.Raw = ""
	v.Inner = nil
	v.Fields = nil
	v.Items = nil

	switch w.Type {
	case TypeOptional:
		if isJSONNull(w.Value) {
			return nil
		}
		var inner Value
		if err := json.Unmarshal(w.Value, &inner); err != nil {
			return err
		}
		v.Inner = &inner
	case TypeTuple:
		return json.Unmarshal(w.Value, &v.Fields)
	case TypeList:
		return json.Unmarshal(w.Value, &v.Items)
	default:
		// Scalars travel as strings; anything else is an unknown tag whose
		// raw payload is preserved for passthrough.
		var s string
		if err := json.Unmarshal(w.Value, &s); err == nil {
			v.Raw = s
			return nil
		}
		v.Raw = string(w.Value)
	}
	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

// Decode converts a wire value into its native Go representation:
//
//	uint            -> int64
//	bool            -> bool (case-insensitive "true")
//	string-*, buff  -> string
//	optional        -> nil or the decoded inner value
//	tuple           -> map[string]any with each member decoded
//	list            -> []any with each element decoded
//
// Unrecognized tags decode to their raw payload rather than failing, so
// newer gateway types degrade gracefully.
func Decode(v Value) any {
	switch v.Type {
	case TypeUint:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return v.Raw
		}
		return n
	case TypeBool:
		return strings.EqualFold(v.Raw, "true")
	case TypeStringASCII, TypeStringUTF8, TypeBuff:
		return v.Raw
	case TypeOptional:
		if v.Inner == nil {
			return nil
		}
		return Decode(*v.Inner)
	case TypeTuple:
		out := make(map[string]any, len(v.Fields))
		for k, field := range v.Fields {
			out[k] = Decode(field)
		}
		return out
	case TypeList:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = Decode(item)
		}
		return out
	default:
		return v.Raw
	}
}
