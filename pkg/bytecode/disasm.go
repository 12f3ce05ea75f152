package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/xtella/vm"
)

// Disassemble returns a human-readable listing of code, resolving opcode
// names and immediate counts through reg.
func Disassemble(code []int32, reg *vm.Registry) string {
	return DisassembleWithName(code, reg, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(code []int32, reg *vm.Registry, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Xtella bytecode, %d cells\n", len(code)))

	offset := 0
	for offset < len(code) {
		line, n := disassembleInstruction(code, offset, reg)
		sb.WriteString(fmt.Sprintf("%04d  %s\n", offset, line))
		offset += n
	}

	return sb.String()
}

// disassembleInstruction disassembles the instruction at offset.
// Returns the formatted string and the instruction length in cells.
func disassembleInstruction(code []int32, offset int, reg *vm.Registry) (string, int) {
	nr := code[offset]
	d, err := reg.Lookup(nr)
	if err != nil {
		return fmt.Sprintf("??? %d", nr), 1
	}

	rest := code[offset+1:]
	switch {
	case d.Immediates == 0:
		return d.String(), 1

	case d.Immediates == vm.VariableImmediates:
		if len(rest) == 0 {
			return d.String() + " <truncated>", 1
		}
		count := int(rest[0])
		if count < 0 || count > len(rest)-1 {
			return fmt.Sprintf("%s %d <truncated>", d, rest[0]), len(rest) + 1
		}
		cells := rest[1 : 1+count]
		if nr == OpPushString {
			return fmt.Sprintf("%s %s", d, quoteRunes(cells)), count + 2
		}
		return fmt.Sprintf("%s %d %s", d, count, joinCells(cells)), count + 2

	default:
		if len(rest) < d.Immediates {
			return fmt.Sprintf("%s %s <truncated>", d, joinCells(rest)), len(rest) + 1
		}
		cells := rest[:d.Immediates]
		line := fmt.Sprintf("%s %s", d, joinCells(cells))
		switch nr {
		case OpPushRational:
			line += fmt.Sprintf("    ; %d/%d", cells[0], cells[1])
		case OpPushWide:
			line += fmt.Sprintf("    ; %d", int64(cells[0])<<32|int64(uint32(cells[1])))
		case OpPushOpcode:
			if ref, err := reg.Lookup(cells[0]); err == nil {
				line += "    ; &" + ref.String()
			}
		}
		return line, d.Immediates + 1
	}
}

func joinCells(cells []int32) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = strconv.FormatInt(int64(c), 10)
	}
	return strings.Join(parts, " ")
}

func quoteRunes(cells []int32) string {
	var sb strings.Builder
	for _, c := range cells {
		sb.WriteRune(rune(c))
	}
	display := []rune(sb.String())
	if len(display) > 40 {
		return strconv.Quote(string(display[:37]) + "...")
	}
	return strconv.Quote(string(display))
}
