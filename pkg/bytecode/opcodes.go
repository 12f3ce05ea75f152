package bytecode

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/xtella/vm"
)

var log = commonlog.GetLogger("xtella.bytecode")

// Builtin opcode numbers. Immediates follow the opcode in the bytecode
// buffer; the second operand of a binary operation is the top of stack.
const (
	OpHalt         = vm.OpHalt
	OpPushInt      = 1  // PUSH_INT <n>
	OpAdd          = 2  // a b -> a+b
	OpSub          = 3  // a b -> a-b
	OpMul          = 4  // a b -> a*b
	OpDiv          = 5  // a b -> a/b
	OpMod          = 6  // a b -> a%b
	OpNeg          = 7  // a -> -a
	OpPushString   = 8  // PUSH_STRING <len> <rune>...
	OpPushRational = 9  // PUSH_RATIONAL <num> <den>
	OpPushOpcode   = 10 // PUSH_OPCODE <nr>
	OpPop          = 11 // a ->
	OpDup          = 12 // a -> a a
	OpSwap         = 13 // a b -> b a
	OpBitAnd       = 14 // a b -> a&b
	OpBitOr        = 15 // a b -> a|b
	OpBitXor       = 16 // a b -> a^b
	OpShiftLeft    = 17 // a b -> a<<b
	OpShiftRight   = 18 // a b -> a>>b
	OpEq           = 19 // a b -> 1 if a == b else 0
	OpNe           = 20
	OpLt           = 21
	OpLe           = 22
	OpGt           = 23
	OpGe           = 24
	OpJump         = 25 // JUMP <target>
	OpJumpIfTrue   = 26 // JUMP_IF_TRUE <target>
	OpJumpIfFalse  = 27 // JUMP_IF_FALSE <target>
	OpConcat       = 28 // a b -> a..b
	OpStrLen       = 29 // s -> len(s) in runes
	OpToRational   = 30 // n -> Rational(n)
	OpToInteger    = 31 // r -> Integer(trunc(r))
	OpInvoke       = 32 // &op -> results of op
	OpNop          = 33
	OpPushWide     = 34 // PUSH_WIDE <hi> <lo>
)

// Builtins returns the descriptors of the builtin opcode set, ordered by
// number.
func Builtins() []vm.Descriptor {
	return []vm.Descriptor{
		{Number: OpHalt, Name: "HALT", Operation: opHalt,
			Docs: "Stop the engine cleanly. No operands."},
		{Number: OpPushInt, Name: "PUSH_INT", Results: 1, Immediates: 1, Operation: opPushInt,
			Docs: "Push the next bytecode cell as an Integer.\nEncoding: PUSH_INT <n:i32>."},
		{Number: OpAdd, Name: "ADD", Params: 2, Results: 1, Operation: arith(addInt, addRat),
			Docs: "Pop b then a, push a+b. Integer+Integer or Rational+Rational; integers wrap."},
		{Number: OpSub, Name: "SUB", Params: 2, Results: 1, Operation: arith(subInt, subRat),
			Docs: "Pop b then a, push a-b. Integer or Rational operands of one kind."},
		{Number: OpMul, Name: "MUL", Params: 2, Results: 1, Operation: arith(mulInt, mulRat),
			Docs: "Pop b then a, push a*b. Integer or Rational operands of one kind."},
		{Number: OpDiv, Name: "DIV", Params: 2, Results: 1, Operation: arith(divInt, divRat),
			Docs: "Pop b then a, push a/b. Integer division truncates. b == 0 fails."},
		{Number: OpMod, Name: "MOD", Params: 2, Results: 1, Operation: arith(modInt, nil),
			Docs: "Pop b then a, push a%b. Integers only. b == 0 fails."},
		{Number: OpNeg, Name: "NEG", Params: 1, Results: 1, Operation: opNeg,
			Docs: "Pop a, push -a. Integer or Rational."},
		{Number: OpPushString, Name: "PUSH_STRING", Results: 1, Immediates: vm.VariableImmediates, Operation: opPushString,
			Docs: "Push a String built from the following cells.\nEncoding: PUSH_STRING <len:i32> <rune:i32>{len}."},
		{Number: OpPushRational, Name: "PUSH_RATIONAL", Results: 1, Immediates: 2, Operation: opPushRational,
			Docs: "Push num/den as a Rational.\nEncoding: PUSH_RATIONAL <num:i32> <den:i32>, den != 0."},
		{Number: OpPushOpcode, Name: "PUSH_OPCODE", Results: 1, Immediates: 1, Operation: opPushOpcode,
			Docs: "Push an OpcodeRef.\nEncoding: PUSH_OPCODE <nr:i32>."},
		{Number: OpPop, Name: "POP", Params: 1, Operation: opPop,
			Docs: "Discard the top of stack."},
		{Number: OpDup, Name: "DUP", Params: 1, Results: 2, Operation: opDup,
			Docs: "Duplicate the top of stack."},
		{Number: OpSwap, Name: "SWAP", Params: 2, Results: 2, Operation: opSwap,
			Docs: "Swap the top two values."},
		{Number: OpBitAnd, Name: "BAND", Params: 2, Results: 1, Operation: intBinary(func(a, b int64) (int64, error) { return a & b, nil }),
			Docs: "Pop b then a, push a&b. Integers only."},
		{Number: OpBitOr, Name: "BOR", Params: 2, Results: 1, Operation: intBinary(func(a, b int64) (int64, error) { return a | b, nil }),
			Docs: "Pop b then a, push a|b. Integers only."},
		{Number: OpBitXor, Name: "BXOR", Params: 2, Results: 1, Operation: intBinary(func(a, b int64) (int64, error) { return a ^ b, nil }),
			Docs: "Pop b then a, push a^b. Integers only."},
		{Number: OpShiftLeft, Name: "SHL", Params: 2, Results: 1, Operation: intBinary(shiftLeft),
			Docs: "Pop b then a, push a<<b. 0 <= b < 64."},
		{Number: OpShiftRight, Name: "SHR", Params: 2, Results: 1, Operation: intBinary(shiftRight),
			Docs: "Pop b then a, push a>>b (arithmetic). 0 <= b < 64."},
		{Number: OpEq, Name: "EQ", Params: 2, Results: 1, Operation: opEquality(true),
			Docs: "Pop b then a, push 1 if a and b are the same kind and payload, else 0."},
		{Number: OpNe, Name: "NE", Params: 2, Results: 1, Operation: opEquality(false),
			Docs: "Pop b then a, push 0 if a and b are the same kind and payload, else 1."},
		{Number: OpLt, Name: "LT", Params: 2, Results: 1, Operation: compare(func(c int) bool { return c < 0 }),
			Docs: "Pop b then a, push 1 if a < b else 0. Operands of one kind: Integer, Rational or String."},
		{Number: OpLe, Name: "LE", Params: 2, Results: 1, Operation: compare(func(c int) bool { return c <= 0 }),
			Docs: "Pop b then a, push 1 if a <= b else 0."},
		{Number: OpGt, Name: "GT", Params: 2, Results: 1, Operation: compare(func(c int) bool { return c > 0 }),
			Docs: "Pop b then a, push 1 if a > b else 0."},
		{Number: OpGe, Name: "GE", Params: 2, Results: 1, Operation: compare(func(c int) bool { return c >= 0 }),
			Docs: "Pop b then a, push 1 if a >= b else 0."},
		{Number: OpJump, Name: "JUMP", Immediates: 1, Operation: opJump,
			Docs: "Continue at an absolute bytecode index.\nEncoding: JUMP <target:i32>."},
		{Number: OpJumpIfTrue, Name: "JUMP_IF_TRUE", Params: 1, Immediates: 1, Operation: opJumpIf(true),
			Docs: "Pop an Integer; jump to target if it is non-zero.\nEncoding: JUMP_IF_TRUE <target:i32>."},
		{Number: OpJumpIfFalse, Name: "JUMP_IF_FALSE", Params: 1, Immediates: 1, Operation: opJumpIf(false),
			Docs: "Pop an Integer; jump to target if it is zero.\nEncoding: JUMP_IF_FALSE <target:i32>."},
		{Number: OpConcat, Name: "CONCAT", Params: 2, Results: 1, Operation: opConcat,
			Docs: "Pop b then a, push the String a followed by b."},
		{Number: OpStrLen, Name: "STRLEN", Params: 1, Results: 1, Operation: opStrLen,
			Docs: "Pop a String, push its length in runes."},
		{Number: OpToRational, Name: "TO_RATIONAL", Params: 1, Results: 1, Operation: opToRational,
			Docs: "Pop an Integer (or Rational), push it as a Rational."},
		{Number: OpToInteger, Name: "TO_INTEGER", Params: 1, Results: 1, Operation: opToInteger,
			Docs: "Pop a Rational (or Integer), push it truncated toward zero as an Integer."},
		{Number: OpInvoke, Name: "INVOKE", Params: 1, Operation: opInvoke,
			Docs: "Pop an OpcodeRef and dispatch that opcode. Stack effect is that of the invoked opcode."},
		{Number: OpNop, Name: "NOP", Operation: opNop,
			Docs: "Do nothing."},
		{Number: OpPushWide, Name: "PUSH_WIDE", Results: 1, Immediates: 2, Operation: opPushWide,
			Docs: "Push a 64-bit Integer from two cells.\nEncoding: PUSH_WIDE <hi:i32> <lo:u32 as i32>."},
	}
}

// Install registers every builtin opcode in reg.
func Install(reg *vm.Registry) error {
	for _, d := range Builtins() {
		d.Builtin = true
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("install builtin %s: %w", d.Name, err)
		}
	}
	log.Debugf("installed %d builtin opcodes", reg.Len())
	return nil
}

// NewRegistry returns a registry holding the builtin opcode set.
func NewRegistry() (*vm.Registry, error) {
	reg := vm.NewRegistry()
	if err := Install(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
