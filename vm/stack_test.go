package vm

import (
	"errors"
	"testing"
)

func TestStackLIFO(t *testing.T) {
	s := NewStack(8, nil)
	pushed := []Value{
		NewInteger(1),
		NewString("two"),
		NewRationalFromInt(3),
		NewOpcodeRef(4),
	}
	for _, v := range pushed {
		if err := s.Push(v); err != nil {
			t.Fatalf("Push(%s) failed: %v", v, err)
		}
	}

	for i := len(pushed) - 1; i >= 0; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if !Equal(v, pushed[i]) {
			t.Errorf("Pop = %s, want %s", v, pushed[i])
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after popping everything", s.Len())
	}
}

func TestStackOverflowLeavesStackUnchanged(t *testing.T) {
	s := NewStack(2, nil)
	s.Push(NewInteger(1))
	s.Push(NewInteger(2))

	err := s.Push(NewInteger(3))
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("Push on full stack = %v, want StackOverflow", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	top, _ := s.Peek(0)
	if !Equal(top, NewInteger(2)) {
		t.Errorf("top = %s, want 2", top)
	}
}

func TestStackUnderflowLeavesStackUnchanged(t *testing.T) {
	s := NewStack(2, nil)
	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Pop on empty stack = %v, want StackUnderflow", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStackZeroCapacity(t *testing.T) {
	s := NewStack(0, nil)
	if err := s.Push(NewInteger(1)); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("Push on zero-capacity stack = %v, want StackOverflow", err)
	}
}

func TestStackPeek(t *testing.T) {
	s := NewStack(4, nil)
	s.Push(NewInteger(10))
	s.Push(NewInteger(20))

	tests := []struct {
		depth int
		want  int64
	}{
		{0, 20},
		{1, 10},
	}
	for _, tt := range tests {
		v, err := s.Peek(tt.depth)
		if err != nil {
			t.Fatalf("Peek(%d) failed: %v", tt.depth, err)
		}
		if n, _ := AsInteger(v); n != tt.want {
			t.Errorf("Peek(%d) = %d, want %d", tt.depth, n, tt.want)
		}
	}
	if _, err := s.Peek(2); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Peek(2) = %v, want StackUnderflow", err)
	}
	if s.Len() != 2 {
		t.Errorf("Peek changed Len to %d", s.Len())
	}
}

func TestStackRejectsNil(t *testing.T) {
	s := NewStack(1, nil)
	if err := s.Push(nil); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Push(nil) = %v, want TypeMismatch", err)
	}
}

func TestStackValuesIsACopy(t *testing.T) {
	s := NewStack(2, nil)
	s.Push(NewInteger(1))
	vals := s.Values()
	vals[0] = NewInteger(99)
	top, _ := s.Peek(0)
	if !Equal(top, NewInteger(1)) {
		t.Errorf("Values() aliased the stack storage")
	}
}
