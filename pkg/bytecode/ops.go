package bytecode

import (
	"math"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/chazu/xtella/vm"
)

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

// popPair pops b (top of stack) and then a.
func popPair(m vm.Machine) (a, b vm.Value, err error) {
	if b, err = m.Pop(); err != nil {
		return nil, nil, err
	}
	if a, err = m.Pop(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func pushBool(m vm.Machine, cond bool) error {
	if cond {
		return m.Push(vm.NewInteger(1))
	}
	return m.Push(vm.NewInteger(0))
}

func sameKind(a, b vm.Value) error {
	if a.Kind() != b.Kind() {
		return &vm.Error{Kind: vm.TypeMismatch, Expected: a.Kind(), Found: b.Kind()}
	}
	return nil
}

func newRat() *big.Float {
	return new(big.Float).SetPrec(vm.RationalPrec)
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

type intFunc func(a, b int64) (int64, error)
type ratFunc func(a, b *big.Float) (*big.Float, error)

// arith builds a binary numeric operation over Integer×Integer or
// Rational×Rational. A nil ratOp restricts the operation to integers.
func arith(intOp intFunc, ratOp ratFunc) vm.Operation {
	return func(m vm.Machine) error {
		a, b, err := popPair(m)
		if err != nil {
			return err
		}
		switch x := a.(type) {
		case vm.Integer:
			y, ok := b.(vm.Integer)
			if !ok {
				return sameKind(a, b)
			}
			n, err := intOp(int64(x), int64(y))
			if err != nil {
				return err
			}
			return m.Push(vm.NewInteger(n))
		case vm.Rational:
			if ratOp == nil {
				return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindInteger, Found: vm.KindRational}
			}
			if err := sameKind(a, b); err != nil {
				return err
			}
			xf, _ := vm.AsRational(x)
			yf, _ := vm.AsRational(b)
			z, err := safeRat(ratOp, xf, yf)
			if err != nil {
				return err
			}
			return m.Push(vm.NewRational(z))
		default:
			return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindInteger, Found: a.Kind()}
		}
	}
}

// safeRat converts the big.ErrNaN panic (e.g. Inf - Inf) into an error.
func safeRat(op ratFunc, a, b *big.Float) (z *big.Float, err error) {
	defer func() {
		if r := recover(); r != nil {
			nan, ok := r.(big.ErrNaN)
			if !ok {
				panic(r)
			}
			z, err = nil, vm.InvalidOperandf("%s", nan.Error())
		}
	}()
	return op(a, b)
}

func addInt(a, b int64) (int64, error) { return a + b, nil }
func subInt(a, b int64) (int64, error) { return a - b, nil }
func mulInt(a, b int64) (int64, error) { return a * b, nil }

func divInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, vm.ErrDivideByZero
	}
	return a / b, nil
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, vm.ErrDivideByZero
	}
	return a % b, nil
}

func addRat(a, b *big.Float) (*big.Float, error) { return newRat().Add(a, b), nil }
func subRat(a, b *big.Float) (*big.Float, error) { return newRat().Sub(a, b), nil }
func mulRat(a, b *big.Float) (*big.Float, error) { return newRat().Mul(a, b), nil }

func divRat(a, b *big.Float) (*big.Float, error) {
	if b.Sign() == 0 {
		return nil, vm.ErrDivideByZero
	}
	return newRat().Quo(a, b), nil
}

func intBinary(op intFunc) vm.Operation {
	return arith(op, nil)
}

func shiftLeft(a, b int64) (int64, error) {
	if b < 0 || b > 63 {
		return 0, vm.InvalidOperandf("shift count %d", b)
	}
	return a << uint(b), nil
}

func shiftRight(a, b int64) (int64, error) {
	if b < 0 || b > 63 {
		return 0, vm.InvalidOperandf("shift count %d", b)
	}
	return a >> uint(b), nil
}

func opNeg(m vm.Machine) error {
	a, err := m.Pop()
	if err != nil {
		return err
	}
	switch x := a.(type) {
	case vm.Integer:
		return m.Push(vm.NewInteger(-int64(x)))
	case vm.Rational:
		f, _ := vm.AsRational(x)
		return m.Push(vm.NewRational(f.Neg(f)))
	default:
		return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindInteger, Found: a.Kind()}
	}
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func opEquality(want bool) vm.Operation {
	return func(m vm.Machine) error {
		a, b, err := popPair(m)
		if err != nil {
			return err
		}
		return pushBool(m, vm.Equal(a, b) == want)
	}
}

func compare(test func(c int) bool) vm.Operation {
	return func(m vm.Machine) error {
		a, b, err := popPair(m)
		if err != nil {
			return err
		}
		if err := sameKind(a, b); err != nil {
			return err
		}
		var c int
		switch x := a.(type) {
		case vm.Integer:
			y := b.(vm.Integer)
			switch {
			case x < y:
				c = -1
			case x > y:
				c = 1
			}
		case vm.Rational:
			xf, _ := vm.AsRational(x)
			yf, _ := vm.AsRational(b)
			c = xf.Cmp(yf)
		case vm.String:
			c = strings.Compare(string(x), string(b.(vm.String)))
		default:
			return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindInteger, Found: a.Kind()}
		}
		return pushBool(m, test(c))
	}
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

func opPushInt(m vm.Machine) error {
	n, err := m.Fetch()
	if err != nil {
		return err
	}
	return m.Push(vm.NewInteger(int64(n)))
}

func opPushWide(m vm.Machine) error {
	hi, err := m.Fetch()
	if err != nil {
		return err
	}
	lo, err := m.Fetch()
	if err != nil {
		return err
	}
	return m.Push(vm.NewInteger(int64(hi)<<32 | int64(uint32(lo))))
}

func opPushString(m vm.Machine) error {
	n, err := m.Fetch()
	if err != nil {
		return err
	}
	if n < 0 {
		return vm.InvalidOperandf("string length %d", n)
	}
	var sb strings.Builder
	for i := int32(0); i < n; i++ {
		r, err := m.Fetch()
		if err != nil {
			return err
		}
		if !utf8.ValidRune(rune(r)) {
			return vm.InvalidOperandf("invalid rune %d at offset %d", r, i)
		}
		sb.WriteRune(rune(r))
	}
	return m.Push(vm.NewString(sb.String()))
}

func opPushRational(m vm.Machine) error {
	num, err := m.Fetch()
	if err != nil {
		return err
	}
	den, err := m.Fetch()
	if err != nil {
		return err
	}
	if den == 0 {
		return vm.InvalidOperandf("zero denominator")
	}
	f := newRat().Quo(newRat().SetInt64(int64(num)), newRat().SetInt64(int64(den)))
	return m.Push(vm.NewRational(f))
}

func opPushOpcode(m vm.Machine) error {
	nr, err := m.Fetch()
	if err != nil {
		return err
	}
	return m.Push(vm.NewOpcodeRef(nr))
}

// ---------------------------------------------------------------------------
// Stack manipulation
// ---------------------------------------------------------------------------

func opNop(vm.Machine) error { return nil }

func opHalt(m vm.Machine) error {
	m.Halt()
	return nil
}

func opPop(m vm.Machine) error {
	_, err := m.Pop()
	return err
}

func opDup(m vm.Machine) error {
	v, err := m.Peek(0)
	if err != nil {
		return err
	}
	return m.Push(v)
}

func opSwap(m vm.Machine) error {
	a, b, err := popPair(m)
	if err != nil {
		return err
	}
	if err := m.Push(b); err != nil {
		return err
	}
	return m.Push(a)
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func opJump(m vm.Machine) error {
	target, err := m.Fetch()
	if err != nil {
		return err
	}
	return m.Jump(int(target))
}

func opJumpIf(when bool) vm.Operation {
	return func(m vm.Machine) error {
		target, err := m.Fetch()
		if err != nil {
			return err
		}
		v, err := m.Pop()
		if err != nil {
			return err
		}
		cond, err := vm.AsInteger(v)
		if err != nil {
			return err
		}
		if (cond != 0) == when {
			return m.Jump(int(target))
		}
		return nil
	}
}

func opInvoke(m vm.Machine) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	nr, err := vm.AsOpcodeRef(v)
	if err != nil {
		return err
	}
	return m.Dispatch(nr)
}

// ---------------------------------------------------------------------------
// Strings and conversions
// ---------------------------------------------------------------------------

func opConcat(m vm.Machine) error {
	a, b, err := popPair(m)
	if err != nil {
		return err
	}
	x, err := vm.AsString(a)
	if err != nil {
		return err
	}
	y, err := vm.AsString(b)
	if err != nil {
		return err
	}
	return m.Push(vm.NewString(x + y))
}

func opStrLen(m vm.Machine) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	s, err := vm.AsString(v)
	if err != nil {
		return err
	}
	return m.Push(vm.NewInteger(int64(utf8.RuneCountInString(s))))
}

func opToRational(m vm.Machine) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case vm.Rational:
		return m.Push(x)
	case vm.Integer:
		return m.Push(vm.NewRationalFromInt(int64(x)))
	default:
		return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindInteger, Found: v.Kind()}
	}
}

func opToInteger(m vm.Machine) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case vm.Integer:
		return m.Push(x)
	case vm.Rational:
		f, _ := vm.AsRational(x)
		if f.IsInf() {
			return vm.InvalidOperandf("%s has no integer value", x)
		}
		i, _ := f.Int(nil)
		if !i.IsInt64() {
			return vm.InvalidOperandf("%s overflows Integer (max %d)", x, int64(math.MaxInt64))
		}
		return m.Push(vm.NewInteger(i.Int64()))
	default:
		return &vm.Error{Kind: vm.TypeMismatch, Expected: vm.KindRational, Found: v.Kind()}
	}
}
