package bytecode

import "fmt"

// Opcode represents a bytecode instruction. The numeric values are part of
// the ROXB encoding and must not be reordered.
type Opcode byte

const (
	OpConstant Opcode = 0x00 // Push constant from pool: OpConstant <index:u32>
	OpAdd      Opcode = 0x01 // Pop two, push sum
	OpSubtract Opcode = 0x02 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x03 // Pop two, push product
	OpDivide   Opcode = 0x04 // Pop two, push quotient (a / b where b is TOS)
	OpNegate   Opcode = 0x05 // Negate top of stack
	OpReturn   Opcode = 0x06 // Pop and print result, "<empty>" if none
)

// OpcodeInfo provides metadata about each opcode for disassembly and
// validation.
type OpcodeInfo struct {
	Name       string // Mnemonic used in listings and assembly
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes in the encoded form
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant: {"OP_CONSTANT", 0, 1, 4},
	OpAdd:      {"OP_ADD", 2, 1, 0},
	OpSubtract: {"OP_SUBTRACT", 2, 1, 0},
	OpMultiply: {"OP_MULTIPLY", 2, 1, 0},
	OpDivide:   {"OP_DIVIDE", 2, 1, 0},
	OpNegate:   {"OP_NEGATE", 1, 1, 0},
	OpReturn:   {"OP_RETURN", 1, 0, 0},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// LookupOpcode resolves a mnemonic such as "OP_ADD".
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// IsBinary returns true for the two-operand arithmetic opcodes.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpDivide
}

// AllOpcodes returns every defined opcode in encoding order.
func AllOpcodes() []Opcode {
	return []Opcode{OpConstant, OpAdd, OpSubtract, OpMultiply, OpDivide, OpNegate, OpReturn}
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
