package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a point-in-time record of an engine, suitable for shipping a
// fault report to a debugger or writing next to a failed run.
type Snapshot struct {
	RunID   string         `cbor:"1,keyasint"`
	State   string         `cbor:"2,keyasint"`
	IP      int            `cbor:"3,keyasint"`
	FaultIP int            `cbor:"4,keyasint"`
	Opcode  int32          `cbor:"5,keyasint"`
	Steps   uint64         `cbor:"6,keyasint"`
	Stack   []SlotSnapshot `cbor:"7,keyasint,omitempty"` // bottom first
	Fault   string         `cbor:"8,keyasint,omitempty"`
	Code    []int32        `cbor:"9,keyasint,omitempty"`
}

// SlotSnapshot renders one stack slot.
type SlotSnapshot struct {
	Kind string `cbor:"1,keyasint"`
	Repr string `cbor:"2,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot captures the engine's current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		RunID:   e.id.String(),
		State:   e.state.String(),
		IP:      e.ip,
		FaultIP: e.faultIP,
		Opcode:  e.current,
		Steps:   e.steps,
		Code:    append([]int32(nil), e.code...),
	}
	for _, v := range e.stack.Values() {
		s.Stack = append(s.Stack, SlotSnapshot{Kind: v.Kind().String(), Repr: v.String()})
	}
	if e.fault != nil {
		s.Fault = e.fault.Error()
	}
	return s
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return s, nil
}
