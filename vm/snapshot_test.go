package vm

import (
	"errors"
	"testing"
)

func TestSnapshotOfFault(t *testing.T) {
	e := NewEngine(4, []int32{1, 5, 2, 0}, newTestRegistry(t))
	if err := e.Run(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Run = %v, want StackUnderflow", err)
	}

	data, err := MarshalSnapshot(e.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot failed: %v", err)
	}
	s, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot failed: %v", err)
	}

	if s.RunID != e.ID().String() {
		t.Errorf("RunID = %q, want %q", s.RunID, e.ID())
	}
	if s.State != "faulted" {
		t.Errorf("State = %q, want faulted", s.State)
	}
	if s.FaultIP != 2 || s.IP != 3 {
		t.Errorf("FaultIP/IP = %d/%d, want 2/3", s.FaultIP, s.IP)
	}
	if s.Opcode != testAdd {
		t.Errorf("Opcode = %d, want %d", s.Opcode, testAdd)
	}
	if len(s.Stack) != 1 || s.Stack[0].Kind != "Integer" || s.Stack[0].Repr != "5" {
		t.Errorf("Stack = %+v, want [Integer 5]", s.Stack)
	}
	if s.Fault == "" {
		t.Error("Fault text missing")
	}
}

func TestSnapshotEncodingIsDeterministic(t *testing.T) {
	e := NewEngine(4, []int32{1, 5, 0}, newTestRegistry(t))
	e.Run()

	a, err := MarshalSnapshot(e.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalSnapshot(e.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("canonical encoding produced different bytes for the same snapshot")
	}
}

func TestUnmarshalSnapshotGarbage(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}
}
