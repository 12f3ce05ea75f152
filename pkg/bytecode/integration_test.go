package bytecode

import (
	"errors"
	"testing"

	"github.com/chazu/xtella/vm"
)

// These tests assemble whole programs and run them on a fresh engine with
// the builtin registry installed.

func TestIntegrationParsedProgram(t *testing.T) {
	code, err := Parse("1 5 1 7 2 0  # 5 + 7, halt")
	if err != nil {
		t.Fatal(err)
	}
	e, _ := runProgram(t, code)
	if e.State() != vm.Halted {
		t.Fatalf("state = %v, fault = %v", e.State(), e.Fault())
	}
	if got := top(t, e); !vm.Equal(got, vm.NewInteger(12)) {
		t.Errorf("result = %s, want 12", got)
	}
	if e.Steps() != 4 {
		t.Errorf("steps = %d, want 4", e.Steps())
	}
}

func TestIntegrationCountdownLoop(t *testing.T) {
	// Push 10, 9, ..., 1 with a backward jump, then fold them with ADD.
	b := NewBuilder()
	b.EmitInt(10)
	loop := b.Offset()
	b.Emit(OpDup)
	exit := b.EmitJump(OpJumpIfFalse)
	b.Emit(OpDup)
	b.EmitInt(1)
	b.Emit(OpSub)
	b.Emit(OpJump, int32(loop))
	b.PatchJump(exit)
	b.Emit(OpPop)
	for i := 0; i < 9; i++ {
		b.Emit(OpAdd)
	}
	b.Emit(OpHalt)

	reg, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	e := vm.NewEngine(32, b.Code(), reg)
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v\n%s", err, Disassemble(b.Code(), reg))
	}

	stack := e.Stack()
	if len(stack) != 1 || !vm.Equal(stack[0], vm.NewInteger(55)) {
		t.Errorf("stack = %v, want [55]", stack)
	}
	if e.Steps() != 74 {
		t.Errorf("steps = %d, want 74", e.Steps())
	}
}

func TestIntegrationMixedValues(t *testing.T) {
	b := NewBuilder()
	b.EmitString("total: ")
	b.EmitRational(3, 4)
	b.EmitInt(2)
	b.Emit(OpToRational)
	b.Emit(OpMul)
	b.Emit(OpToInteger)
	b.EmitInt(1)
	b.Emit(OpEq)
	b.Emit(OpHalt)

	e, _ := runProgram(t, b.Code())
	if e.State() != vm.Halted {
		t.Fatalf("state = %v, fault = %v", e.State(), e.Fault())
	}
	stack := e.Stack()
	want := []vm.Value{vm.NewString("total: "), vm.NewInteger(1)}
	if len(stack) != len(want) {
		t.Fatalf("stack = %v, want %v", stack, want)
	}
	for i := range want {
		if !vm.Equal(stack[i], want[i]) {
			t.Errorf("stack[%d] = %s, want %s", i, stack[i], want[i])
		}
	}
}

func TestIntegrationFaultSnapshot(t *testing.T) {
	b := NewBuilder()
	b.EmitInt(1)
	b.EmitInt(0)
	div := b.Emit(OpDiv)
	b.Emit(OpHalt)

	e, _ := runProgram(t, b.Code())
	if !errors.Is(e.Fault(), vm.ErrDivideByZero) {
		t.Fatalf("fault = %v, want DivideByZero", e.Fault())
	}
	if e.FaultIP() != div {
		t.Errorf("FaultIP = %d, want %d", e.FaultIP(), div)
	}

	data, err := vm.MarshalSnapshot(e.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	s, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.State != vm.Faulted.String() || s.Opcode != OpDiv || s.FaultIP != div {
		t.Errorf("snapshot = %+v", s)
	}
	if len(s.Stack) != 0 {
		t.Errorf("snapshot stack = %v, want empty after operands were popped", s.Stack)
	}
}
