package vm

import (
	"fmt"
	"sort"
	"sync"
)

// Operands is the operand-stack half of a Machine. *Stack implements it.
type Operands interface {
	Push(v Value) error
	Pop() (Value, error)
	Peek(depth int) (Value, error)
	Len() int
}

// Machine is the execution-context handle passed to opcode operations.
// Fetch consumes the next bytecode cell, which is how an opcode reads its
// immediate operands. Jump moves the instruction pointer to an absolute
// bytecode index. Dispatch runs another opcode against the same machine.
// Halt stops the machine once the current instruction completes, even
// when it was reached through Dispatch.
type Machine interface {
	Operands
	Fetch() (int32, error)
	Jump(target int) error
	Dispatch(nr int32) error
	Halt()
}

// Operation implements an opcode. On success it must have popped exactly
// Params values and pushed exactly Results values.
type Operation func(m Machine) error

// VariableImmediates marks an opcode whose first immediate cell is the count
// of immediate cells that follow it.
const VariableImmediates = -1

// Descriptor describes one opcode.
type Descriptor struct {
	Number     int32  // Unique opcode number
	Name       string // Mnemonic for listings and traces
	Params     uint32 // Values popped from the stack
	Results    uint32 // Values pushed to the stack
	Immediates int    // Bytecode cells consumed after the opcode
	Builtin    bool   // Provided by the VM rather than user code
	Docs       string // Human documentation, including operand encoding
	Operation  Operation
}

// String returns the mnemonic, or the number when the descriptor is unnamed.
func (d Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("op%d", d.Number)
}

// Registry maps opcode numbers to descriptors and mediates all dispatch.
// Descriptors are immutable once registered. Lookups are safe for
// concurrent use, so one registry can back any number of engines.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[int32]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[int32]Descriptor)}
}

// Register adds d. It fails with DuplicateOpcode if d.Number is taken, in
// which case the existing registration is left intact.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Number]; exists {
		return &Error{Kind: DuplicateOpcode, Opcode: d.Number}
	}
	r.descriptors[d.Number] = d
	return nil
}

// Lookup returns the descriptor registered under nr.
func (r *Registry) Lookup(nr int32) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.descriptors[nr]
	r.mu.RUnlock()

	if !ok {
		return Descriptor{}, &Error{Kind: UnknownOpcode, Opcode: nr}
	}
	return d, nil
}

// Dispatch resolves nr and invokes its operation against m.
//
// A descriptor without an operation fails with UnimplementedOpcode; that is
// reported, not fatal, and the caller decides whether to stop. Before
// invoking, the stack must hold at least Params values or Dispatch fails
// with StackUnderflow. Neither failure touches the stack.
func (r *Registry) Dispatch(nr int32, m Machine) error {
	d, err := r.Lookup(nr)
	if err != nil {
		return err
	}
	if d.Operation == nil {
		return &Error{Kind: UnimplementedOpcode, Opcode: nr}
	}
	if have := m.Len(); have < int(d.Params) {
		return &Error{
			Kind:   StackUnderflow,
			Opcode: nr,
			Detail: fmt.Sprintf("%s needs %d operands, stack holds %d", d, d.Params, have),
		}
	}
	return d.Operation(m)
}

// Len returns the number of registered opcodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Descriptors returns all descriptors ordered by number.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
