package bytecode

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// demoChunk builds 10.5 10.5 - return, with the return on line 2.
func demoChunk() *Chunk {
	c := NewChunk()
	idx := c.AddConstant(NumberVal(10.5))
	c.Write(Instruction{Op: OpConstant, Operand: idx, Line: 1})
	c.Write(Instruction{Op: OpConstant, Operand: idx, Line: 1})
	c.WriteOp(OpSubtract, 1)
	c.WriteOp(OpReturn, 2)
	return c
}

func TestNewChunk(t *testing.T) {
	c := NewChunk()

	if c.Code == nil {
		t.Error("Code is nil")
	}
	if c.Constants == nil {
		t.Error("Constants is nil")
	}
	if c.Len() != 0 || c.ConstantCount() != 0 {
		t.Errorf("new chunk has %d instructions, %d constants", c.Len(), c.ConstantCount())
	}
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk()

	idx0 := c.AddConstant(NumberVal(1))
	if idx0 != 0 {
		t.Errorf("First constant index = %d, want 0", idx0)
	}

	idx1 := c.AddConstant(NumberVal(2))
	if idx1 != 1 {
		t.Errorf("Second constant index = %d, want 1", idx1)
	}

	// Duplicates get a fresh slot
	idx2 := c.AddConstant(NumberVal(1))
	if idx2 != 2 {
		t.Errorf("Duplicate constant index = %d, want 2", idx2)
	}

	if v, ok := c.Constant(1); !ok || v.AsNumber() != 2 {
		t.Errorf("Constant(1) = %v, %v; want 2, true", v, ok)
	}
	if _, ok := c.Constant(3); ok {
		t.Error("Constant(3) should be out of range")
	}
	if _, ok := c.Constant(-1); ok {
		t.Error("Constant(-1) should be out of range")
	}
}

func TestChunkWritePreservesLines(t *testing.T) {
	c := NewChunk()
	lines := []int{1, 1, 3, 7, 7, 2}
	for i, line := range lines {
		if got := c.WriteOp(OpNegate, line); got != i {
			t.Errorf("WriteOp returned index %d, want %d", got, i)
		}
	}

	for i, line := range lines {
		if c.Code[i].Line != line {
			t.Errorf("Code[%d].Line = %d, want %d", i, c.Code[i].Line, line)
		}
	}
}

func TestChunkWriteConstant(t *testing.T) {
	c := NewChunk()
	idx := c.WriteConstant(NumberVal(4.25), 9)

	if idx != 0 {
		t.Errorf("WriteConstant index = %d, want 0", idx)
	}
	want := Instruction{Op: OpConstant, Operand: 0, Line: 9}
	if c.Code[0] != want {
		t.Errorf("Code[0] = %+v, want %+v", c.Code[0], want)
	}
}

func TestChunkValidate(t *testing.T) {
	if err := demoChunk().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	c := NewChunk()
	c.Write(Instruction{Op: OpConstant, Operand: 3, Line: 1})
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("Validate() = %v, want out of range error", err)
	}

	c = NewChunk()
	c.Write(Instruction{Op: Opcode(0x42), Line: 1})
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "unknown opcode") {
		t.Errorf("Validate() = %v, want unknown opcode error", err)
	}
}

func TestChunkSerializeRoundTrip(t *testing.T) {
	c := demoChunk()
	c.WriteConstant(NumberVal(-0.125), 40)

	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if !bytes.HasPrefix(data, BytecodeMagic) {
		t.Errorf("Serialized data missing magic, got %q", data[:4])
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if len(got.Code) != len(c.Code) {
		t.Fatalf("Code length = %d, want %d", len(got.Code), len(c.Code))
	}
	for i := range c.Code {
		if got.Code[i] != c.Code[i] {
			t.Errorf("Code[%d] = %+v, want %+v", i, got.Code[i], c.Code[i])
		}
	}
	if len(got.Constants) != len(c.Constants) {
		t.Fatalf("Constants length = %d, want %d", len(got.Constants), len(c.Constants))
	}
	for i := range c.Constants {
		if got.Constants[i] != c.Constants[i] {
			t.Errorf("Constants[%d] = %v, want %v", i, got.Constants[i], c.Constants[i])
		}
	}
}

func TestChunkSerializeEmpty(t *testing.T) {
	data, err := NewChunk().Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Len() != 0 || got.ConstantCount() != 0 {
		t.Errorf("round trip of empty chunk has %d instructions, %d constants", got.Len(), got.ConstantCount())
	}
}

func TestDeserializeErrors(t *testing.T) {
	valid, err := demoChunk().Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	badVersion := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(badVersion[4:], BytecodeVersion+1)

	zeroVersion := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(zeroVersion[4:], 0)

	trailing := append(append([]byte(nil), valid...), 0xde, 0xad, 0xbe, 0xef)

	// Header (8) + const count (4) + one constant (9) + instr count (4) = 25
	badOpcode := append([]byte(nil), valid...)
	badOpcode[25] = 0x7F

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"too short", []byte("ROX"), "too short"},
		{"bad magic", append([]byte("TTBC"), valid[4:]...), "invalid bytecode magic"},
		{"newer version", badVersion, "newer than supported"},
		{"zero version", zeroVersion, "invalid bytecode version 0"},
		{"trailing bytes", trailing, "4 trailing bytes"},
		{"bad opcode", badOpcode, "unknown opcode"},
		{"truncated lines", valid[:len(valid)-4], "unexpected end"},
		{"truncated code", valid[:28], "unexpected end"},
	}

	for _, tt := range tests {
		_, err := Deserialize(tt.data)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error = %q, want it to contain %q", tt.name, err, tt.want)
		}
	}
}

func TestDeserializeLineTableMismatch(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpReturn, 1)
	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// The last 4 bytes are the length of the only line run.
	binary.BigEndian.PutUint32(data[len(data)-4:], 2)
	if _, err := Deserialize(data); err == nil {
		t.Error("expected error for line table covering too many instructions")
	}

	binary.BigEndian.PutUint32(data[len(data)-4:], 0)
	if _, err := Deserialize(data); err == nil {
		t.Error("expected error for line table covering too few instructions")
	}
}

func TestSerializeRejectsUnknownOpcode(t *testing.T) {
	c := NewChunk()
	c.Write(Instruction{Op: Opcode(0x99), Line: 1})
	if _, err := c.Serialize(); err == nil {
		t.Error("expected error serializing unknown opcode")
	}
}
