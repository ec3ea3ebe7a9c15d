package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/TamplierS1/rox/manifest"
	"github.com/TamplierS1/rox/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// VM: The rox Virtual Machine
// ---------------------------------------------------------------------------

// BacktraceLabel names the listing written after a traced run.
const BacktraceLabel = "backtrace_chunk"

// VM executes bytecode chunks.
type VM struct {
	stack []bytecode.Value // value stack, bottom first

	out      io.Writer // program output
	traceOut io.Writer // stack dumps and backtrace listing
	trace    bool
	log      commonlog.Logger
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sets the writer for program output. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithTrace turns per-instruction stack tracing on or off.
func WithTrace(on bool) Option {
	return func(vm *VM) { vm.trace = on }
}

// WithTraceOutput sets the writer for trace output. Default: the program
// output writer.
func WithTraceOutput(w io.Writer) Option {
	return func(vm *VM) { vm.traceOut = w }
}

// WithLogger sets the logger. Default: the "rox.vm" logger.
func WithLogger(log commonlog.Logger) Option {
	return func(vm *VM) { vm.log = log }
}

// New creates a new VM instance.
func New(opts ...Option) *VM {
	vm := &VM{
		stack: make([]bytecode.Value, 0, 256),
		out:   os.Stdout,
		log:   commonlog.GetLogger("rox.vm"),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.traceOut == nil {
		vm.traceOut = vm.out
	}
	return vm
}

// NewFromConfig creates a VM from the [vm] section of a manifest. Extra
// options are applied after the configuration.
func NewFromConfig(cfg manifest.VM, opts ...Option) *VM {
	return New(append([]Option{WithTrace(cfg.Trace)}, opts...)...)
}

// Tracing reports whether the VM traces execution.
func (vm *VM) Tracing() bool {
	return vm.trace
}

// Stack returns a copy of the current value stack, bottom first.
func (vm *VM) Stack() []bytecode.Value {
	return append([]bytecode.Value(nil), vm.stack...)
}

// Interpret runs chunk to completion. The stack is reset first. It returns
// nil on success or a *RuntimeError describing the first failure; the
// instructions after a failure are not executed.
func (vm *VM) Interpret(chunk *bytecode.Chunk) error {
	vm.stack = vm.stack[:0]
	vm.log.Debugf("interpret: %d instructions, %d constants", chunk.Len(), chunk.ConstantCount())

	if err := vm.run(chunk); err != nil {
		vm.log.Debugf("interpret failed: %s", err)
		return err
	}

	if vm.trace {
		if err := chunk.Disassemble(vm.traceOut, BacktraceLabel); err != nil {
			return &RuntimeError{Err: fmt.Errorf("%w: %w", ErrOutput, err), Op: bytecode.OpReturn, Index: chunk.Len(), Line: lastLine(chunk)}
		}
	}
	return nil
}

// run is the main execution loop.
func (vm *VM) run(chunk *bytecode.Chunk) error {
	for i, ins := range chunk.Code {
		fail := func(err error) error {
			return &RuntimeError{Err: err, Op: ins.Op, Index: i, Line: ins.Line}
		}

		if vm.trace {
			if _, err := fmt.Fprintln(vm.traceOut, bytecode.FormatStack(vm.stack)); err != nil {
				return fail(fmt.Errorf("%w: %w", ErrOutput, err))
			}
		}

		switch ins.Op {
		case bytecode.OpConstant:
			val, ok := chunk.Constant(ins.Operand)
			if !ok {
				return fail(fmt.Errorf("%w: %d (pool has %d)", ErrInvalidConstant, ins.Operand, chunk.ConstantCount()))
			}
			vm.push(val)
			if err := vm.emit(val.String()); err != nil {
				return fail(err)
			}

		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
			b, ok := vm.pop()
			if !ok {
				return fail(ErrStackUnderflow)
			}
			a, ok := vm.pop()
			if !ok {
				return fail(ErrStackUnderflow)
			}
			result, err := binaryOp(ins.Op, a, b)
			if err != nil {
				return fail(err)
			}
			vm.push(result)

		case bytecode.OpNegate:
			v, ok := vm.pop()
			if !ok {
				return fail(ErrStackUnderflow)
			}
			result, err := v.Negate()
			if err != nil {
				return fail(err)
			}
			vm.push(result)

		case bytecode.OpReturn:
			text := "<empty>"
			if v, ok := vm.pop(); ok {
				text = v.String()
			}
			if err := vm.emit(text); err != nil {
				return fail(err)
			}

		default:
			return fail(fmt.Errorf("%w: 0x%02x at offset %d", ErrUnknownOpcode, byte(ins.Op), i))
		}
	}
	return nil
}

func binaryOp(op bytecode.Opcode, a, b bytecode.Value) (bytecode.Value, error) {
	switch op {
	case bytecode.OpAdd:
		return a.Add(b)
	case bytecode.OpSubtract:
		return a.Sub(b)
	case bytecode.OpMultiply:
		return a.Mul(b)
	default:
		return a.Div(b)
	}
}

// emit writes one line of program output.
func (vm *VM) emit(text string) error {
	if _, err := fmt.Fprintln(vm.out, text); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

// Stack helpers

func (vm *VM) push(val bytecode.Value) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() (bytecode.Value, bool) {
	if len(vm.stack) == 0 {
		return bytecode.Value{}, false
	}
	val := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return val, true
}

func lastLine(chunk *bytecode.Chunk) int {
	if chunk.Len() == 0 {
		return 0
	}
	return chunk.Code[chunk.Len()-1].Line
}
