// Package bytecode defines the rox program representation: runtime values,
// the opcode set, chunks of instructions with their constant pools, the
// ROXB binary encoding, and the disassembler.
//
// The format is designed for:
//   - A small, fixed opcode set (one byte each) with a single operand form
//   - Line numbers kept per instruction for diagnostics
//   - Easy serialization (files, or bytes inside service messages)
//
// # Architecture Overview
//
//   - Value: a tagged union; numbers (float64) are the only variant. All
//     arithmetic checks operand types and reports a TypeError instead of
//     substituting a placeholder.
//
//   - Opcodes: OP_CONSTANT, OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE,
//     OP_NEGATE and OP_RETURN, each described by an OpcodeInfo entry.
//
//   - Chunk: append-only instruction records plus an append-only constant
//     pool. A chunk is the static program only; the value stack belongs to
//     whichever VM runs it.
//
//   - Disassembler: the listing format
//
//     0000  1  OP_CONSTANT 0 '10.5'
//     0001  |  OP_CONSTANT 1 '10.5'
//     0002  |  OP_SUBTRACT
//     0003  2  OP_RETURN
//
// # Encoding
//
// Serialize and Deserialize convert a chunk to and from the "ROXB" format:
// a header, the constant pool, the opcode stream with 32-bit constant
// operands, and a run-length encoded line table.
package bytecode
