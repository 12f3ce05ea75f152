package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a bytecode buffer written as signed 32-bit integers separated
// by whitespace or commas. A '#' starts a comment running to end of line.
// Cells may be written in any base strconv accepts with base 0 (e.g. 0x1F).
func Parse(text string) ([]int32, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader is Parse over an io.Reader. Lines may be of any length.
func ParseReader(r io.Reader) ([]int32, error) {
	var code []int32
	rd := bufio.NewReader(r)
	line := 0
	for {
		text, err := rd.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read bytecode: %w", err)
		}
		if text != "" {
			line++
			cells, perr := parseLine(text, line)
			if perr != nil {
				return nil, perr
			}
			code = append(code, cells...)
		}
		if err == io.EOF {
			return code, nil
		}
	}
}

func parseLine(text string, line int) ([]int32, error) {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	cells := make([]int32, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cell %q: %w", line, f, err)
		}
		cells = append(cells, int32(n))
	}
	return cells, nil
}
