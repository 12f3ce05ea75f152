package bytecode

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int32
	}{
		{"spaces", "1 5 1 7 2 0", []int32{1, 5, 1, 7, 2, 0}},
		{"commas", "1,5, 1 ,7", []int32{1, 5, 1, 7}},
		{"comments", "1 5   # push five\n# whole line\n0", []int32{1, 5, 0}},
		{"negative and hex", "1 -3 1 0x10", []int32{1, -3, 1, 16}},
		{"empty", "  \n# nothing\n", nil},
		{"int32 bounds", "-2147483648 2147483647", []int32{-2147483648, 2147483647}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text    string
		wantMsg string
	}{
		{"1 five", `line 1: invalid cell "five"`},
		{"0\n2147483648", `line 2: invalid cell "2147483648"`},
	}
	for _, tt := range tests {
		_, err := Parse(tt.text)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tt.text)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("Parse(%q) error = %v, want %q", tt.text, err, tt.wantMsg)
		}
	}
}

func TestParseLongLine(t *testing.T) {
	// One line well past bufio.Scanner's 64 KiB default token size.
	text := strings.Repeat("33 ", 30000) + "0"
	code, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(code) != 30001 {
		t.Fatalf("len = %d, want 30001", len(code))
	}
	if code[0] != 33 || code[len(code)-1] != 0 {
		t.Errorf("first/last = %d/%d, want 33/0", code[0], code[len(code)-1])
	}
}

func TestParseLongStringLiteral(t *testing.T) {
	b := NewBuilder()
	b.EmitString(strings.Repeat("x", 40000))
	b.Emit(OpHalt)

	var sb strings.Builder
	for _, c := range b.Code() {
		sb.WriteString(strconv.Itoa(int(c)))
		sb.WriteByte(' ')
	}
	code, err := Parse(sb.String())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(code, b.Code()) {
		t.Error("parsed buffer differs from the assembled one")
	}
}
