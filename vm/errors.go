package vm

import (
	"errors"
	"fmt"

	"github.com/TamplierS1/rox/pkg/bytecode"
)

// Runtime failure kinds. A RuntimeError wraps one of these, or the
// bytecode.TypeError raised by value arithmetic.
var (
	ErrStackUnderflow  = errors.New("failed to get a value from the stack. The stack is empty.")
	ErrInvalidConstant = errors.New("constant index out of range")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrOutput          = errors.New("cannot write program output")
)

// RuntimeError aborts an Interpret call. It records the failing
// instruction so callers can point at the source line.
type RuntimeError struct {
	Err   error
	Op    bytecode.Opcode
	Index int // instruction index in the chunk
	Line  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Runtime Error: %v [line %d]", e.Err, e.Line)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuntimeError reports whether err is (or wraps) a RuntimeError.
func IsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
