package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType identifies the variant held by a Value.
type ValueType uint8

const (
	// ValNumber is a 64-bit IEEE-754 floating point number.
	ValNumber ValueType = iota
)

// String returns a human-readable name for the value type.
func (t ValueType) String() string {
	switch t {
	case ValNumber:
		return "number"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Value is the runtime datum manipulated by the VM. It is a small tagged
// union passed by value; numbers are the only variant today.
type Value struct {
	Type   ValueType
	Number float64
}

// NumberVal wraps a float64.
func NumberVal(n float64) Value {
	return Value{Type: ValNumber, Number: n}
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.Type == ValNumber }

// AsNumber returns the numeric payload. The result is meaningless unless
// IsNumber is true.
func (v Value) AsNumber() float64 { return v.Number }

// String formats the value the way programs print it: shortest decimal
// that round-trips, never in exponent form.
func (v Value) String() string {
	switch v.Type {
	case ValNumber:
		return formatNumber(v.Number)
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// TypeError reports an operator applied to operands of the wrong type.
type TypeError struct {
	Op      string
	Message string
}

func (e *TypeError) Error() string {
	return e.Message
}

// Add returns v + other.
func (v Value) Add(other Value) (Value, error) {
	if !v.IsNumber() || !other.IsNumber() {
		return Value{}, &TypeError{Op: "+", Message: "only numbers can be added together."}
	}
	return NumberVal(v.Number + other.Number), nil
}

// Sub returns v - other.
func (v Value) Sub(other Value) (Value, error) {
	if !v.IsNumber() || !other.IsNumber() {
		return Value{}, &TypeError{Op: "-", Message: "only numbers can be subtracted."}
	}
	return NumberVal(v.Number - other.Number), nil
}

// Mul returns v * other.
func (v Value) Mul(other Value) (Value, error) {
	if !v.IsNumber() || !other.IsNumber() {
		return Value{}, &TypeError{Op: "*", Message: "only numbers can be multiplied together."}
	}
	return NumberVal(v.Number * other.Number), nil
}

// Div returns v / other. Division by zero follows IEEE-754 and yields an
// infinity or NaN.
func (v Value) Div(other Value) (Value, error) {
	if !v.IsNumber() || !other.IsNumber() {
		return Value{}, &TypeError{Op: "/", Message: "only numbers can be divided."}
	}
	return NumberVal(v.Number / other.Number), nil
}

// Negate returns -v.
func (v Value) Negate() (Value, error) {
	if !v.IsNumber() {
		return Value{}, &TypeError{Op: "neg", Message: "only numbers can be negated."}
	}
	return NumberVal(-v.Number), nil
}
