package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytecodeVersion is the current ROXB format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// Magic bytes for bytecode files: "ROXB" (ROX Bytecode)
var BytecodeMagic = []byte{'R', 'O', 'X', 'B'}

// ChunkFlags contains encoding flags for a chunk.
type ChunkFlags uint16

const (
	// ChunkFlagLines indicates a line table follows the code section.
	ChunkFlagLines ChunkFlags = 1 << 0
)

// Instruction is one decoded operation. Operand is the constant pool index
// for OpConstant and zero for every other opcode. Line is the source line
// that produced the instruction.
type Instruction struct {
	Op      Opcode
	Operand int
	Line    int
}

// Chunk is a compiled program: an append-only instruction sequence plus its
// constant pool. A chunk carries no execution state, so one chunk may be run
// by any number of VMs.
type Chunk struct {
	Code      []Instruction
	Constants []Value
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]Instruction, 0, 64),
		Constants: make([]Value, 0, 8),
	}
}

// Write appends an instruction and returns its index. No validation is
// performed; see Validate.
func (c *Chunk) Write(ins Instruction) int {
	c.Code = append(c.Code, ins)
	return len(c.Code) - 1
}

// WriteOp appends an operand-less instruction.
func (c *Chunk) WriteOp(op Opcode, line int) int {
	return c.Write(Instruction{Op: op, Line: line})
}

// WriteConstant adds value to the pool and emits an OpConstant for it.
// Returns the constant index.
func (c *Chunk) WriteConstant(value Value, line int) int {
	idx := c.AddConstant(value)
	c.Write(Instruction{Op: OpConstant, Operand: idx, Line: line})
	return idx
}

// AddConstant appends a value to the pool and returns its index.
// Equal values are not deduplicated.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// Constant returns the pool entry at index, or false if index is out of range.
func (c *Chunk) Constant(index int) (Value, bool) {
	if index < 0 || index >= len(c.Constants) {
		return Value{}, false
	}
	return c.Constants[index], true
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// Validate checks the invariants a producer must uphold: every opcode is
// known and every OpConstant refers to an existing pool entry.
func (c *Chunk) Validate() error {
	for i, ins := range c.Code {
		if !ins.Op.Valid() {
			return fmt.Errorf("instruction %d: unknown opcode 0x%02X", i, byte(ins.Op))
		}
		if ins.Op == OpConstant {
			if ins.Operand < 0 || ins.Operand >= len(c.Constants) {
				return fmt.Errorf("instruction %d: constant index %d out of range (pool size %d)",
					i, ins.Operand, len(c.Constants))
			}
		}
	}
	return nil
}

// lineRun is one entry of the run-length encoded line table.
type lineRun struct {
	line  uint32
	count uint32
}

func (c *Chunk) lineRuns() []lineRun {
	var runs []lineRun
	for _, ins := range c.Code {
		if n := len(runs); n > 0 && runs[n-1].line == uint32(ins.Line) {
			runs[n-1].count++
			continue
		}
		runs = append(runs, lineRun{line: uint32(ins.Line), count: 1})
	}
	return runs
}

// Serialize encodes the chunk to bytes for storage/transport.
// Format (big-endian):
//
//	[magic:4] [version:2] [flags:2]
//	[const_count:4] [constants: tag:1 bits:8 ...]
//	[instr_count:4] [code: op:1 operand:4? ...]
//	[run_count:4] [lines: line:4 count:4 ...] (if ChunkFlagLines)
func (c *Chunk) Serialize() ([]byte, error) {
	estimatedSize := 8 + 4 + len(c.Constants)*9 + 4 + len(c.Code)*5 + 4 + len(c.Code)*8
	buf := make([]byte, 0, estimatedSize)

	buf = append(buf, BytecodeMagic...)
	buf = binary.BigEndian.AppendUint16(buf, BytecodeVersion)
	buf = binary.BigEndian.AppendUint16(buf, uint16(ChunkFlagLines))

	// Constants
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Constants)))
	for i, v := range c.Constants {
		switch v.Type {
		case ValNumber:
			buf = append(buf, byte(v.Type))
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.Number))
		default:
			return nil, fmt.Errorf("constant %d: cannot encode value of type %s", i, v.Type)
		}
	}

	// Code
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Code)))
	for i, ins := range c.Code {
		if !ins.Op.Valid() {
			return nil, fmt.Errorf("instruction %d: unknown opcode 0x%02X", i, byte(ins.Op))
		}
		buf = append(buf, byte(ins.Op))
		if ins.Op.OperandLen() == 4 {
			if ins.Operand < 0 || uint64(ins.Operand) > math.MaxUint32 {
				return nil, fmt.Errorf("instruction %d: operand %d does not fit in 32 bits", i, ins.Operand)
			}
			buf = binary.BigEndian.AppendUint32(buf, uint32(ins.Operand))
		}
	}

	// Lines
	runs := c.lineRuns()
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(runs)))
	for _, r := range runs {
		buf = binary.BigEndian.AppendUint32(buf, r.line)
		buf = binary.BigEndian.AppendUint32(buf, r.count)
	}

	return buf, nil
}

// Deserialize decodes a chunk from bytes.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("bytecode too short: need at least 8 bytes, got %d", len(data))
	}

	if string(data[0:4]) != string(BytecodeMagic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", BytecodeMagic, data[0:4])
	}

	version := binary.BigEndian.Uint16(data[4:6])
	flags := ChunkFlags(binary.BigEndian.Uint16(data[6:8]))
	if version == 0 {
		return nil, fmt.Errorf("invalid bytecode version 0")
	}
	if version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", version, BytecodeVersion)
	}

	pos := 8

	// Constants
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading constant count at pos %d", pos)
	}
	constCount := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4

	if constCount > (len(data)-pos)/9 {
		return nil, fmt.Errorf("unexpected end of bytecode: %d constants declared, %d bytes left", constCount, len(data)-pos)
	}
	c := &Chunk{Constants: make([]Value, constCount)}
	for i := range c.Constants {
		tag := ValueType(data[pos])
		pos++
		if tag != ValNumber {
			return nil, fmt.Errorf("constant %d: unknown value tag %d", i, tag)
		}
		c.Constants[i] = NumberVal(math.Float64frombits(binary.BigEndian.Uint64(data[pos:])))
		pos += 8
	}

	// Code
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading instruction count at pos %d", pos)
	}
	instrCount := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4

	if instrCount > len(data)-pos {
		return nil, fmt.Errorf("unexpected end of bytecode: %d instructions declared, %d bytes left", instrCount, len(data)-pos)
	}
	c.Code = make([]Instruction, instrCount)
	for i := range c.Code {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading instruction %d", i)
		}
		op := Opcode(data[pos])
		pos++
		if !op.Valid() {
			return nil, fmt.Errorf("instruction %d: unknown opcode 0x%02X", i, byte(op))
		}
		c.Code[i].Op = op
		if op.OperandLen() == 4 {
			if pos+4 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading operand of instruction %d", i)
			}
			c.Code[i].Operand = int(binary.BigEndian.Uint32(data[pos:]))
			pos += 4
		}
	}

	if flags&ChunkFlagLines == 0 {
		if err := checkTrailing(data, pos); err != nil {
			return nil, err
		}
		return c, nil
	}

	// Lines
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading line table size")
	}
	runCount := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4

	next := 0
	for r := 0; r < runCount; r++ {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading line run %d", r)
		}
		line := int(binary.BigEndian.Uint32(data[pos:]))
		count := int(binary.BigEndian.Uint32(data[pos+4:]))
		pos += 8
		if count > len(c.Code)-next {
			return nil, fmt.Errorf("line table covers more than %d instructions", len(c.Code))
		}
		for j := 0; j < count; j++ {
			c.Code[next].Line = line
			next++
		}
	}
	if next != len(c.Code) {
		return nil, fmt.Errorf("line table covers %d of %d instructions", next, len(c.Code))
	}
	if err := checkTrailing(data, pos); err != nil {
		return nil, err
	}

	return c, nil
}

// checkTrailing rejects bytes left over after a complete chunk.
func checkTrailing(data []byte, pos int) error {
	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after bytecode", len(data)-pos)
	}
	return nil
}
