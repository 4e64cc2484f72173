package tably

import (
	"fmt"
	"strconv"
)

// Value is a single cell: a tagged union over the supported data types.
// The zero Value is a null of no particular type.
type Value struct {
	kind DataType
	i    int64
	f    float64
	s    string
	b    bool
	null bool
}

// IntValue creates an integer value.
func IntValue(v int64) Value { return Value{kind: Int64, i: v} }

// FloatValue creates a float value.
func FloatValue(v float64) Value { return Value{kind: Float64, f: v} }

// StrValue creates a string value.
func StrValue(v string) Value { return Value{kind: String, s: v} }

// BoolValue creates a boolean value.
func BoolValue(v bool) Value { return Value{kind: Boolean, b: v} }

// FactorValue creates a categorical value with the given label.
func FactorValue(label string) Value { return Value{kind: Factor, s: label} }

// NullValue creates a typed missing value.
func NullValue(kind DataType) Value { return Value{kind: kind, null: true} }

// Kind returns the value's data type.
func (v Value) Kind() DataType { return v.kind }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.null }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the value as a float, promoting integers.
func (v Value) Float() float64 {
	if v.kind.Family() == FamilyInteger {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string payload (string and factor values).
func (v Value) Str() string { return v.s }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// String renders the value for display.
func (v Value) String() string {
	if v.null {
		return "null"
	}
	switch v.kind.Family() {
	case FamilyInteger:
		return strconv.FormatInt(v.i, 10)
	case FamilyFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case FamilyString, FamilyFactor:
		return v.s
	case FamilyBoolean:
		return strconv.FormatBool(v.b)
	}
	return "?"
}

// key returns a representation suitable for hashing group-key tuples.
// The kind tag keeps 1 (int) and "1" (string) distinct; numeric values
// share one tag and hash by their float representation, so keying
// agrees with equal across int/float.
func (v Value) key() string {
	if v.null {
		return "\x00null"
	}
	if v.kind.IsNumeric() {
		return "num\x00" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	}
	return fmt.Sprintf("%d\x00%s", v.kind.Family(), v.String())
}

// equal compares two values for grouping and distinct semantics.
// Numeric values compare across int/float; nulls equal only nulls.
func (v Value) equal(o Value) bool {
	if v.null || o.null {
		return v.null && o.null
	}
	if v.kind.IsNumeric() && o.kind.IsNumeric() {
		return v.Float() == o.Float()
	}
	if v.kind.Family() != o.kind.Family() {
		return false
	}
	switch v.kind.Family() {
	case FamilyString, FamilyFactor:
		return v.s == o.s
	case FamilyBoolean:
		return v.b == o.b
	}
	return false
}

// Vector is an ordered sequence of values of one semantic type.
type Vector []Value

// Ints builds an integer vector.
func Ints(vals ...int64) Vector {
	out := make(Vector, len(vals))
	for i, v := range vals {
		out[i] = IntValue(v)
	}
	return out
}

// Floats builds a float vector.
func Floats(vals ...float64) Vector {
	out := make(Vector, len(vals))
	for i, v := range vals {
		out[i] = FloatValue(v)
	}
	return out
}

// Strs builds a string vector.
func Strs(vals ...string) Vector {
	out := make(Vector, len(vals))
	for i, v := range vals {
		out[i] = StrValue(v)
	}
	return out
}

// Bools builds a boolean vector.
func Bools(vals ...bool) Vector {
	out := make(Vector, len(vals))
	for i, v := range vals {
		out[i] = BoolValue(v)
	}
	return out
}

// Factors builds a categorical vector.
func Factors(labels ...string) Vector {
	out := make(Vector, len(labels))
	for i, v := range labels {
		out[i] = FactorValue(v)
	}
	return out
}

// recycle repeats a length-1 vector to n elements. Vectors already of
// length n are returned as-is; any other length is the caller's error.
func (v Vector) recycle(n int) Vector {
	if len(v) == n {
		return v
	}
	out := make(Vector, n)
	for i := range out {
		out[i] = v[0]
	}
	return out
}

// take returns a new vector with the values at the given 0-based indices.
func (v Vector) take(idx []int) Vector {
	out := make(Vector, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

// kind returns the type of the vector's first non-null value.
func (v Vector) kind() DataType {
	for _, val := range v {
		if !val.null {
			return val.kind
		}
	}
	if len(v) > 0 {
		return v[0].kind
	}
	return String
}

// Int64s extracts the integer payloads; nulls become zero.
func (v Vector) Int64s() []int64 {
	out := make([]int64, len(v))
	for i, val := range v {
		if !val.null {
			out[i] = val.Int()
		}
	}
	return out
}

// Float64s extracts the values as floats, promoting integers; nulls become zero.
func (v Vector) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, val := range v {
		if !val.null {
			out[i] = val.Float()
		}
	}
	return out
}

// Strings extracts the string payloads; nulls become empty strings.
func (v Vector) Strings() []string {
	out := make([]string, len(v))
	for i, val := range v {
		if !val.null {
			out[i] = val.s
		}
	}
	return out
}
