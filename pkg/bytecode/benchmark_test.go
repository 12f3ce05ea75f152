package bytecode

import (
	"testing"

	"github.com/chazu/xtella/vm"
)

// Run: go test -bench=. -benchmem ./pkg/bytecode/...

func countdown(n int64) []int32 {
	b := NewBuilder()
	b.EmitInt(n)
	loop := b.Offset()
	b.Emit(OpDup)
	exit := b.EmitJump(OpJumpIfFalse)
	b.EmitInt(1)
	b.Emit(OpSub)
	b.Emit(OpJump, int32(loop))
	b.PatchJump(exit)
	b.Emit(OpHalt)
	return b.Code()
}

func BenchmarkEngineCountdown(b *testing.B) {
	reg, err := NewRegistry()
	if err != nil {
		b.Fatal(err)
	}
	code := countdown(10000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := vm.NewEngine(8, code, reg)
		if err := e.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRationalArithmetic(b *testing.B) {
	reg, err := NewRegistry()
	if err != nil {
		b.Fatal(err)
	}
	bld := NewBuilder()
	bld.EmitRational(1, 3)
	for i := 0; i < 100; i++ {
		bld.EmitRational(1, 7)
		bld.Emit(OpAdd)
	}
	bld.Emit(OpHalt)
	code := bld.Code()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := vm.NewEngine(8, code, reg)
		if err := e.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDispatch(b *testing.B) {
	reg, err := NewRegistry()
	if err != nil {
		b.Fatal(err)
	}
	e := vm.NewEngine(8, nil, reg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := reg.Dispatch(OpNop, e); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	text := "1 5 1 7 2 1 3 4 1 2 5 0\n"
	for i := 0; i < b.N; i++ {
		if _, err := Parse(text); err != nil {
			b.Fatal(err)
		}
	}
}
