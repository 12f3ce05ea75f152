package bytecode

import (
	"strconv"
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}

	b := NewBuilder()
	b.EmitInt(5)
	b.EmitString("hi")
	b.EmitRational(1, 3)
	b.Emit(OpPushOpcode, OpAdd)
	b.EmitInt(1 << 40)
	b.Emit(OpJump, 0)
	b.Emit(77)
	b.Emit(OpHalt)

	out := DisassembleWithName(b.Code(), reg, "sample")

	wants := []string{
		"; === sample ===",
		"0000  PUSH_INT 5",
		`0002  PUSH_STRING "hi"`,
		"0006  PUSH_RATIONAL 1 3    ; 1/3",
		"0009  PUSH_OPCODE 2    ; &ADD",
		"0011  PUSH_WIDE 256 0    ; 1099511627776",
		"0014  JUMP 0",
		"0016  ??? 77",
		"0017  HALT",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q\n%s", want, out)
		}
	}
}

func TestDisassembleTruncated(t *testing.T) {
	reg, _ := NewRegistry()

	tests := []struct {
		name string
		code []int32
		want string
	}{
		{"fixed immediates", []int32{OpPushRational, 1}, "PUSH_RATIONAL 1 <truncated>"},
		{"missing count", []int32{OpPushString}, "PUSH_STRING <truncated>"},
		{"short string", []int32{OpPushString, 5, 'a'}, "PUSH_STRING 5 <truncated>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Disassemble(tt.code, reg)
			if !strings.Contains(out, tt.want) {
				t.Errorf("listing missing %q\n%s", tt.want, out)
			}
		})
	}
}

func TestDisassembleLongStringKeepsRunesWhole(t *testing.T) {
	reg, _ := NewRegistry()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"short multi-byte", strings.Repeat("é", 30), strconv.Quote(strings.Repeat("é", 30))},
		{"truncated multi-byte", strings.Repeat("é", 45), strconv.Quote(strings.Repeat("é", 37) + "...")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			b.EmitString(tt.text)
			out := Disassemble(b.Code(), reg)
			if !strings.Contains(out, "PUSH_STRING "+tt.want+"\n") {
				t.Errorf("listing missing %s\n%s", tt.want, out)
			}
			if strings.Contains(out, `\x`) {
				t.Errorf("listing contains a split rune escape\n%s", out)
			}
		})
	}
}
