package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// String returns the instruction listing for the chunk, one line per
// instruction.
func (c *Chunk) String() string {
	var sb strings.Builder
	for i := range c.Code {
		sb.WriteString(c.DisassembleInstruction(i))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Disassemble writes a labelled listing of the chunk to w.
func (c *Chunk) Disassemble(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "\n== %s ==\n%s\n", name, c)
	return err
}

// DisassembleInstruction formats the instruction at index i, without a
// trailing newline. The line column shows "|" when the instruction shares
// the line of the one before it.
func (c *Chunk) DisassembleInstruction(i int) string {
	if i < 0 || i >= len(c.Code) {
		return fmt.Sprintf("%04d <end of code>", i)
	}
	ins := c.Code[i]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", i)
	if i > 0 && c.Code[i-1].Line == ins.Line {
		sb.WriteString(center("|", 4))
	} else {
		sb.WriteString(center(strconv.Itoa(ins.Line), 4))
	}

	switch ins.Op {
	case OpConstant:
		constVal := "<invalid>"
		if v, ok := c.Constant(ins.Operand); ok {
			constVal = v.String()
		}
		fmt.Fprintf(&sb, "%s %d '%s'", ins.Op, ins.Operand, constVal)
	default:
		sb.WriteString(ins.Op.String())
	}
	return sb.String()
}

// center pads s with spaces to width, putting the odd space on the right.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// FormatStack renders stack contents bottom to top as "\t[v1][v2]...".
func FormatStack(stack []Value) string {
	var sb strings.Builder
	sb.WriteByte('\t')
	for _, v := range stack {
		sb.WriteByte('[')
		sb.WriteString(v.String())
		sb.WriteByte(']')
	}
	return sb.String()
}
