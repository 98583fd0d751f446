// Package types defines the runtime values and diagnostics shared by every
// stage of the interpreter: nil, bool, number and string.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueType represents the type of a runtime value.
type ValueType int

const (
	TypeNil    ValueType = iota
	TypeBool             // bool
	TypeNumber           // float64
	TypeString           // string
)

// String returns the type name used in error messages and JSON output.
func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a runtime value. The zero Value is Nil.
type Value struct {
	typ       ValueType
	boolVal   bool
	numberVal float64
	stringVal string
}

// Nil is the singleton nil value.
var Nil = Value{typ: TypeNil}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewNumber creates a number value (64-bit float).
func NewNumber(v float64) Value {
	return Value{typ: TypeNumber, numberVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNil returns true if the value is nil.
func (v Value) IsNil() bool {
	return v.typ == TypeNil
}

// IsNumber returns true if the value is a number.
func (v Value) IsNumber() bool {
	return v.typ == TypeNumber
}

// IsString returns true if the value is a string.
func (v Value) IsString() bool {
	return v.typ == TypeString
}

// AsBool returns the boolean value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsNumber returns the number value. Panics if not a number.
func (v Value) AsNumber() float64 {
	if v.typ != TypeNumber {
		panic(fmt.Sprintf("AsNumber called on %s value", v.typ))
	}
	return v.numberVal
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// Truthy reports the truthiness of a value.
// Only nil and false are falsy; 0 and "" are truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNil:
		return false
	case TypeBool:
		return v.boolVal
	default:
		return true
	}
}

// Equal tests exact equality between two values. Values of different types
// are never equal. Numbers compare with ==, so NaN is not equal to itself.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNil:
		return true
	case TypeBool:
		return v.boolVal == other.boolVal
	case TypeNumber:
		return v.numberVal == other.numberVal
	case TypeString:
		return v.stringVal == other.stringVal
	}
	return false
}

// String returns the text print writes for the value: nil is the empty
// string and numbers use the shortest decimal form without an exponent.
func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return ""
	case TypeBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case TypeNumber:
		return FormatNumber(v.numberVal)
	case TypeString:
		return v.stringVal
	}
	return "<unknown>"
}

// FormatNumber renders a number the way print does.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON converts a Value to JSON. Non-finite numbers have no JSON
// form and are emitted as their printed string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNil:
		return []byte("null"), nil
	case TypeBool:
		return json.Marshal(v.boolVal)
	case TypeNumber:
		if math.IsInf(v.numberVal, 0) || math.IsNaN(v.numberVal) {
			return json.Marshal(FormatNumber(v.numberVal))
		}
		return json.Marshal(v.numberVal)
	case TypeString:
		return json.Marshal(v.stringVal)
	}
	return nil, fmt.Errorf("cannot marshal unknown type %d", v.typ)
}

// ToGoValue converts a Value to a plain Go value suitable for JSON and
// protobuf struct encoding.
func (v Value) ToGoValue() interface{} {
	switch v.typ {
	case TypeBool:
		return v.boolVal
	case TypeNumber:
		if math.IsInf(v.numberVal, 0) || math.IsNaN(v.numberVal) {
			return FormatNumber(v.numberVal)
		}
		return v.numberVal
	case TypeString:
		return v.stringVal
	}
	return nil
}
