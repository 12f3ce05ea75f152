package vm

import "fmt"

// Stack is the bounded LIFO operand stack. Its capacity is fixed at
// construction and checked on every push.
type Stack struct {
	slots    []Value
	capacity int
	alloc    Allocator
}

// NewStack creates an empty stack. A nil allocator means an unlimited
// Budget.
func NewStack(capacity int, alloc Allocator) *Stack {
	if capacity < 0 {
		capacity = 0
	}
	if alloc == nil {
		alloc = NewBudget(0)
	}
	return &Stack{
		slots:    make([]Value, 0, capacity),
		capacity: capacity,
		alloc:    alloc,
	}
}

// Push appends v. It fails with StackOverflow when the stack is full and
// with OutOfMemory when the allocator refuses the value; in both cases the
// stack is left unchanged.
func (s *Stack) Push(v Value) error {
	if v == nil {
		return &Error{Kind: TypeMismatch, Detail: "cannot push a nil value"}
	}
	if len(s.slots) >= s.capacity {
		return &Error{Kind: StackOverflow, Detail: fmt.Sprintf("capacity %d", s.capacity)}
	}
	if err := s.alloc.Allocate(v); err != nil {
		return err
	}
	s.slots = append(s.slots, v)
	return nil
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (Value, error) {
	n := len(s.slots)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	v := s.slots[n-1]
	s.slots[n-1] = nil
	s.slots = s.slots[:n-1]
	s.alloc.Release(v)
	return v, nil
}

// Peek returns the value depth slots below the top without removing it.
// Peek(0) is the top of the stack.
func (s *Stack) Peek(depth int) (Value, error) {
	if depth < 0 || depth >= len(s.slots) {
		return nil, ErrStackUnderflow
	}
	return s.slots[len(s.slots)-1-depth], nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int { return len(s.slots) }

// Cap returns the configured capacity.
func (s *Stack) Cap() int { return s.capacity }

// Values returns a copy of the stack contents, bottom first.
func (s *Stack) Values() []Value {
	out := make([]Value, len(s.slots))
	copy(out, s.slots)
	return out
}
