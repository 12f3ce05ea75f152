package vm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is active.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindString
	KindRational
	KindOpcodeRef
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindRational:
		return "Rational"
	case KindOpcodeRef:
		return "OpcodeRef"
	default:
		return "invalid"
	}
}

// RationalPrec is the mantissa precision of Rational values in bits.
// It matches the 64-bit significand of an x87 extended double.
const RationalPrec = 64

// Value is an operand held by the stack. The set of implementations is
// closed: Integer, String, Rational and OpcodeRef. Consumers switch on the
// concrete type; no variant is ever reinterpreted as another.
//
// Values are immutable once constructed.
type Value interface {
	Kind() Kind
	String() string

	// footprint is the approximate number of bytes the allocator accounts
	// for this value.
	footprint() int64
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// Integer is a signed 64-bit integer value.
type Integer int64

func (Integer) Kind() Kind { return KindInteger }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (Integer) footprint() int64 { return 8 }

// String is an owned UTF-8 byte sequence.
type String string

func (String) Kind() Kind { return KindString }
func (s String) String() string { return strconv.Quote(string(s)) }
func (s String) footprint() int64 { return 16 + int64(len(s)) }

// Rational is an extended-precision floating point value.
type Rational struct {
	f *big.Float
}

func (Rational) Kind() Kind { return KindRational }

func (r Rational) String() string {
	if r.f == nil {
		return "0"
	}
	return r.f.Text('g', -1)
}

func (r Rational) footprint() int64 {
	return 32 + RationalPrec/8
}

// OpcodeRef is a reference to an opcode by number.
type OpcodeRef int32

func (OpcodeRef) Kind() Kind { return KindOpcodeRef }
func (o OpcodeRef) String() string { return fmt.Sprintf("&%d", int32(o)) }
func (OpcodeRef) footprint() int64 { return 4 }

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewInteger returns an Integer value.
func NewInteger(n int64) Value {
	return Integer(n)
}

// NewString returns a String value. Invalid UTF-8 sequences are replaced
// with U+FFFD so the stored content is always valid UTF-8.
func NewString(s string) Value {
	return String(strings.ToValidUTF8(s, "\uFFFD"))
}

// NewRational returns a Rational holding a private copy of f rounded to
// RationalPrec bits. A nil f yields zero.
func NewRational(f *big.Float) Value {
	c := new(big.Float).SetPrec(RationalPrec)
	if f != nil {
		c.Set(f)
	}
	return Rational{f: c}
}

// NewRationalFromFloat64 returns a Rational holding x.
func NewRationalFromFloat64(x float64) Value {
	return Rational{f: new(big.Float).SetPrec(RationalPrec).SetFloat64(x)}
}

// NewRationalFromInt returns a Rational holding n.
func NewRationalFromInt(n int64) Value {
	return Rational{f: new(big.Float).SetPrec(RationalPrec).SetInt64(n)}
}

// NewOpcodeRef returns an OpcodeRef value.
func NewOpcodeRef(nr int32) Value {
	return OpcodeRef(nr)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// KindOf returns the kind of v, or KindInvalid for a nil Value.
func KindOf(v Value) Kind {
	if v == nil {
		return KindInvalid
	}
	return v.Kind()
}

// AsInteger returns the payload of an Integer value.
func AsInteger(v Value) (int64, error) {
	if i, ok := v.(Integer); ok {
		return int64(i), nil
	}
	return 0, typeMismatch(KindInteger, v)
}

// AsString returns the payload of a String value.
func AsString(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	return "", typeMismatch(KindString, v)
}

// AsRational returns a copy of the payload of a Rational value.
func AsRational(v Value) (*big.Float, error) {
	if r, ok := v.(Rational); ok {
		c := new(big.Float).SetPrec(RationalPrec)
		if r.f != nil {
			c.Set(r.f)
		}
		return c, nil
	}
	return nil, typeMismatch(KindRational, v)
}

// AsOpcodeRef returns the opcode number held by an OpcodeRef value.
func AsOpcodeRef(v Value) (int32, error) {
	if o, ok := v.(OpcodeRef); ok {
		return int32(o), nil
	}
	return 0, typeMismatch(KindOpcodeRef, v)
}

// Equal reports whether a and b are the same variant with the same payload.
// Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Rational:
		y, ok := b.(Rational)
		if !ok {
			return false
		}
		xf, _ := AsRational(x)
		yf, _ := AsRational(y)
		return xf.Cmp(yf) == 0
	case OpcodeRef:
		y, ok := b.(OpcodeRef)
		return ok && x == y
	default:
		return false
	}
}
