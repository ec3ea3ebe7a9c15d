// Package vm implements the rox virtual machine.
//
// A VM executes a bytecode.Chunk in a single linear pass over its
// instructions, keeping operands on a value stack it owns. Chunks are never
// mutated, so one chunk may be run by many VMs; a single VM is not safe for
// concurrent use.
//
// Every OP_CONSTANT echoes the pushed value to the output writer, and
// OP_RETURN pops and prints the final value (or "<empty>"). With tracing
// enabled the VM writes the stack before each instruction and a
// "backtrace_chunk" listing once the run completes.
package vm
