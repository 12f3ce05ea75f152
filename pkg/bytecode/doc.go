// Package bytecode provides the builtin opcode set for the Xtella execution
// core, together with the tools a host needs around a bytecode buffer.
//
// The bytecode format is a flat sequence of signed 32-bit cells. Each
// instruction is an opcode number followed by the immediates that opcode
// consumes; the encoding of every builtin is recorded in its descriptor's
// Docs field.
//
// # Components
//
//   - Opcodes: arithmetic, bitwise, comparison, string, conversion, stack
//     and control-flow instructions, installed into a vm.Registry by
//     Install or NewRegistry
//
//   - Builder: emits instructions and patches forward jumps
//
//   - Parse: reads a buffer written as text, one integer per cell
//
//   - Disassemble: renders a buffer as an annotated listing using the
//     registry's names and immediate counts
//
//   - WriteCatalog: exports the registry's descriptors as YAML
//
// # Example
//
//	reg, _ := bytecode.NewRegistry()
//	b := bytecode.NewBuilder()
//	b.EmitInt(5)
//	b.EmitInt(7)
//	b.Emit(bytecode.OpAdd)
//	b.Emit(bytecode.OpHalt)
//	e := vm.NewEngine(16, b.Code(), reg)
//	err := e.Run() // stack: [12]
package bytecode
