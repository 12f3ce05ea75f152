package vm

import "fmt"

// ErrorKind classifies a VM failure.
type ErrorKind uint8

const (
	OutOfMemory ErrorKind = iota + 1
	TypeMismatch
	DuplicateOpcode
	UnknownOpcode
	UnimplementedOpcode
	StackOverflow
	StackUnderflow
	EndOfBytecode
	InvalidOperand
	DivideByZero
	NoRegistry
)

var errorKindNames = map[ErrorKind]string{
	OutOfMemory:         "out of memory",
	TypeMismatch:        "type mismatch",
	DuplicateOpcode:     "duplicate opcode",
	UnknownOpcode:       "unknown opcode",
	UnimplementedOpcode: "unimplemented opcode",
	StackOverflow:       "stack overflow",
	StackUnderflow:      "stack underflow",
	EndOfBytecode:       "end of bytecode",
	InvalidOperand:      "invalid operand",
	DivideByZero:        "division by zero",
	NoRegistry:          "no opcode registry",
}

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is the single error type returned by the execution core.
// Opcode is set for the opcode-related kinds, Expected and Found for
// TypeMismatch. Detail carries free-form context.
type Error struct {
	Kind     ErrorKind
	Opcode   int32
	Expected Kind
	Found    Kind
	Detail   string
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case TypeMismatch:
		msg = fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	case DuplicateOpcode, UnknownOpcode, UnimplementedOpcode:
		msg = fmt.Sprintf("%s %d", e.Kind, e.Opcode)
	default:
		msg = e.Kind.String()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is an *Error of the same kind, so that the
// sentinels below work with errors.Is regardless of the attached context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is. Use errors.As to get at the details.
var (
	ErrOutOfMemory         = &Error{Kind: OutOfMemory}
	ErrTypeMismatch        = &Error{Kind: TypeMismatch}
	ErrDuplicateOpcode     = &Error{Kind: DuplicateOpcode}
	ErrUnknownOpcode       = &Error{Kind: UnknownOpcode}
	ErrUnimplementedOpcode = &Error{Kind: UnimplementedOpcode}
	ErrStackOverflow       = &Error{Kind: StackOverflow}
	ErrStackUnderflow      = &Error{Kind: StackUnderflow}
	ErrEndOfBytecode       = &Error{Kind: EndOfBytecode}
	ErrInvalidOperand      = &Error{Kind: InvalidOperand}
	ErrDivideByZero        = &Error{Kind: DivideByZero}
	ErrNoRegistry          = &Error{Kind: NoRegistry}
)

func typeMismatch(expected Kind, found Value) error {
	return &Error{Kind: TypeMismatch, Expected: expected, Found: KindOf(found)}
}

// InvalidOperandf builds an InvalidOperand error. Opcode implementations use
// it to reject malformed immediates.
func InvalidOperandf(format string, args ...any) error {
	return &Error{Kind: InvalidOperand, Detail: fmt.Sprintf(format, args...)}
}
