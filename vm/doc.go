// Package vm implements the Xtella execution core.
//
// This package contains:
//   - Tagged operand values (Integer, String, Rational, OpcodeRef)
//   - The bounded operand stack and its allocator boundary
//   - The opcode registry and dispatch
//   - The fetch-decode-execute engine
//
// The core never terminates the hosting process. Every fallible operation
// returns an error, and the engine surfaces the first fault unchanged to its
// caller.
package vm
