package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tliron/commonlog"

	"github.com/TamplierS1/rox/manifest"
	"github.com/TamplierS1/rox/pkg/bytecode"
)

// demoChunk builds 10.5 10.5 - return, with the return on line 2.
func demoChunk() *bytecode.Chunk {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.NumberVal(10.5))
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: idx, Line: 1})
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: idx, Line: 1})
	c.WriteOp(bytecode.OpSubtract, 1)
	c.WriteOp(bytecode.OpReturn, 2)
	return c
}

func newTestVM(opts ...Option) (*VM, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithLogger(commonlog.MOCK_LOGGER)}, opts...)
	return New(opts...), &out
}

func TestInterpretDemo(t *testing.T) {
	vm, out := newTestVM()

	if err := vm.Interpret(demoChunk()); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if got := out.String(); got != "10.5\n10.5\n0\n" {
		t.Errorf("output = %q, want %q", got, "10.5\n10.5\n0\n")
	}
	if len(vm.Stack()) != 0 {
		t.Errorf("stack after return = %v, want empty", vm.Stack())
	}
}

func TestInterpretArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		op   bytecode.Opcode
		want string
	}{
		{"add", 1.5, 2, bytecode.OpAdd, "3.5"},
		{"subtract", 1, 3, bytecode.OpSubtract, "-2"},
		{"multiply", 4, 2.5, bytecode.OpMultiply, "10"},
		{"divide", 7, 2, bytecode.OpDivide, "3.5"},
		{"divide by zero", 1, 0, bytecode.OpDivide, "inf"},
		{"zero by zero", 0, 0, bytecode.OpDivide, "NaN"},
	}

	for _, tt := range tests {
		c := bytecode.NewChunk()
		c.WriteConstant(bytecode.NumberVal(tt.a), 1)
		c.WriteConstant(bytecode.NumberVal(tt.b), 1)
		c.WriteOp(tt.op, 1)
		c.WriteOp(bytecode.OpReturn, 1)

		vm, out := newTestVM()
		if err := vm.Interpret(c); err != nil {
			t.Fatalf("%s: Interpret failed: %v", tt.name, err)
		}
		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		if got := lines[len(lines)-1]; got != tt.want {
			t.Errorf("%s: result = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInterpretNegate(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(bytecode.NumberVal(1.2), 1)
	c.WriteOp(bytecode.OpNegate, 1)
	c.WriteConstant(bytecode.NumberVal(3.4), 1)
	c.WriteOp(bytecode.OpAdd, 1)

	vm, _ := newTestVM()
	if err := vm.Interpret(c); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	stack := vm.Stack()
	if len(stack) != 1 {
		t.Fatalf("stack = %v, want one value", stack)
	}
	// -1.2 + 3.4 in float64
	if got := stack[0].AsNumber(); got < 2.19 || got > 2.21 {
		t.Errorf("result = %v, want 2.2", got)
	}
}

func TestReturnOnEmptyStack(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpReturn, 1)

	vm, out := newTestVM()
	if err := vm.Interpret(c); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if out.String() != "<empty>\n" {
		t.Errorf("output = %q, want <empty>", out.String())
	}
}

func TestBinaryOpUnderflowHalts(t *testing.T) {
	for _, op := range []bytecode.Opcode{bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide} {
		for _, depth := range []int{0, 1} {
			c := bytecode.NewChunk()
			for i := 0; i < depth; i++ {
				c.WriteConstant(bytecode.NumberVal(1), 1)
			}
			c.WriteOp(op, 3)
			c.WriteConstant(bytecode.NumberVal(99), 4)
			c.WriteOp(bytecode.OpReturn, 4)

			vm, out := newTestVM()
			err := vm.Interpret(c)
			if !errors.Is(err, ErrStackUnderflow) {
				t.Fatalf("%s with %d operands: error = %v, want stack underflow", op, depth, err)
			}

			re, ok := IsRuntimeError(err)
			if !ok {
				t.Fatalf("%s: error is %T, want *RuntimeError", op, err)
			}
			if re.Line != 3 || re.Index != depth || re.Op != op {
				t.Errorf("%s: RuntimeError = %+v", op, re)
			}
			if strings.Contains(out.String(), "99") {
				t.Errorf("%s: instructions after the failure ran: %q", op, out.String())
			}
		}
	}
}

func TestNegateUnderflow(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpNegate, 7)

	vm, _ := newTestVM()
	err := vm.Interpret(c)
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("error = %v, want stack underflow", err)
	}
	want := "Runtime Error: failed to get a value from the stack. The stack is empty. [line 7]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInvalidConstant(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: 5, Line: 2})

	vm, out := newTestVM()
	err := vm.Interpret(c)
	if !errors.Is(err, ErrInvalidConstant) {
		t.Fatalf("error = %v, want invalid constant", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestUnknownOpcode(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(bytecode.Instruction{Op: bytecode.Opcode(0x77), Line: 1})

	vm, _ := newTestVM()
	if err := vm.Interpret(c); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("error = %v, want unknown opcode", err)
	}
}

func TestTypeErrorPropagates(t *testing.T) {
	c := bytecode.NewChunk()
	c.AddConstant(bytecode.Value{Type: bytecode.ValueType(9)})
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: 0, Line: 1})
	c.WriteConstant(bytecode.NumberVal(1), 1)
	c.WriteOp(bytecode.OpAdd, 1)
	c.WriteOp(bytecode.OpReturn, 2)

	vm, _ := newTestVM()
	err := vm.Interpret(c)

	var typeErr *bytecode.TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error = %v, want wrapped *bytecode.TypeError", err)
	}
	if _, ok := IsRuntimeError(err); !ok {
		t.Errorf("type error not reported as RuntimeError: %T", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestOutputErrorIsRuntimeError(t *testing.T) {
	vm := New(WithOutput(failingWriter{}), WithLogger(commonlog.MOCK_LOGGER))

	err := vm.Interpret(demoChunk())
	if !errors.Is(err, ErrOutput) {
		t.Fatalf("error = %v, want output error", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q does not mention the cause", err)
	}
}

func TestInterpretResetsStack(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteConstant(bytecode.NumberVal(1), 1)

	vm, _ := newTestVM()
	vm.Interpret(c)
	vm.Interpret(c)

	if n := len(vm.Stack()); n != 1 {
		t.Errorf("stack depth after second run = %d, want 1", n)
	}
}

func TestTraceOutput(t *testing.T) {
	var trace bytes.Buffer
	vm, out := newTestVM(WithTrace(true), WithTraceOutput(&trace))

	if err := vm.Interpret(demoChunk()); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}

	if out.String() != "10.5\n10.5\n0\n" {
		t.Errorf("tracing changed program output: %q", out.String())
	}

	want := "\t\n" +
		"\t[10.5]\n" +
		"\t[10.5][10.5]\n" +
		"\t[0]\n" +
		"\n== backtrace_chunk ==\n" +
		demoChunk().String() + "\n"
	if trace.String() != want {
		t.Errorf("trace output:\n%q\nwant:\n%q", trace.String(), want)
	}
}

func TestTraceSharesOutputByDefault(t *testing.T) {
	vm, out := newTestVM(WithTrace(true))
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpReturn, 1)

	if err := vm.Interpret(c); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	want := "\t\n<empty>\n\n== backtrace_chunk ==\n0000  1  OP_RETURN\n\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestNoBacktraceAfterFailure(t *testing.T) {
	var trace bytes.Buffer
	vm, _ := newTestVM(WithTrace(true), WithTraceOutput(&trace))

	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpAdd, 1)
	vm.Interpret(c)

	if strings.Contains(trace.String(), "backtrace_chunk") {
		t.Errorf("backtrace written after failed run: %q", trace.String())
	}
}

func TestNewFromConfig(t *testing.T) {
	if !NewFromConfig(manifest.VM{Trace: true}).Tracing() {
		t.Error("NewFromConfig(trace=true) not tracing")
	}
	if NewFromConfig(manifest.VM{}).Tracing() {
		t.Error("NewFromConfig(trace=false) tracing")
	}
	if NewFromConfig(manifest.VM{Trace: true}, WithTrace(false)).Tracing() {
		t.Error("explicit option should override config")
	}
}

func TestChunkSharedBetweenVMs(t *testing.T) {
	c := demoChunk()
	before := c.String()

	for i := 0; i < 3; i++ {
		vm, out := newTestVM()
		if err := vm.Interpret(c); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if out.String() != "10.5\n10.5\n0\n" {
			t.Errorf("run %d output = %q", i, out.String())
		}
	}
	if c.String() != before {
		t.Error("Interpret mutated the chunk")
	}
}
