package bytecode

import (
	"errors"
	"math"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{10.5, "10.5"},
		{-3, "-3"},
		{1.0 / 3.0, "0.3333333333333333"},
		{1e21, "1000000000000000000000"},
		{0.0001, "0.0001"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		if got := NumberVal(tt.in).String(); got != tt.want {
			t.Errorf("NumberVal(%v).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueArithmetic(t *testing.T) {
	a, b := NumberVal(7), NumberVal(2)

	tests := []struct {
		name string
		fn   func(Value, Value) (Value, error)
		want float64
	}{
		{"add", Value.Add, 9},
		{"sub", Value.Sub, 5},
		{"mul", Value.Mul, 14},
		{"div", Value.Div, 3.5},
	}

	for _, tt := range tests {
		got, err := tt.fn(a, b)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !got.IsNumber() || got.AsNumber() != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	neg, err := a.Negate()
	if err != nil || neg.AsNumber() != -7 {
		t.Errorf("Negate() = %v, %v; want -7, nil", neg, err)
	}
}

func TestValueDivideByZero(t *testing.T) {
	got, err := NumberVal(1).Div(NumberVal(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got.AsNumber(), 1) {
		t.Errorf("1/0 = %v, want +inf", got)
	}

	got, err = NumberVal(0).Div(NumberVal(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(got.AsNumber()) {
		t.Errorf("0/0 = %v, want NaN", got)
	}
}

func TestValueTypeErrors(t *testing.T) {
	bogus := Value{Type: ValueType(0xFF)}
	num := NumberVal(1)

	tests := []struct {
		name string
		fn   func() (Value, error)
		msg  string
	}{
		{"add", func() (Value, error) { return num.Add(bogus) }, "only numbers can be added together."},
		{"sub", func() (Value, error) { return bogus.Sub(num) }, "only numbers can be subtracted."},
		{"mul", func() (Value, error) { return num.Mul(bogus) }, "only numbers can be multiplied together."},
		{"div", func() (Value, error) { return num.Div(bogus) }, "only numbers can be divided."},
		{"neg", bogus.Negate, "only numbers can be negated."},
	}

	for _, tt := range tests {
		_, err := tt.fn()
		var typeErr *TypeError
		if !errors.As(err, &typeErr) {
			t.Errorf("%s: error = %v, want *TypeError", tt.name, err)
			continue
		}
		if typeErr.Error() != tt.msg {
			t.Errorf("%s: message = %q, want %q", tt.name, typeErr.Error(), tt.msg)
		}
	}
}
