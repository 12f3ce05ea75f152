package bytecode

import "math"

// Builder assembles a bytecode buffer for the builtin opcode set.
type Builder struct {
	code []int32
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{code: make([]int32, 0, 64)}
}

// Emit appends an opcode and its immediates and returns the opcode's offset.
func (b *Builder) Emit(op int32, immediates ...int32) int {
	offset := len(b.code)
	b.code = append(b.code, op)
	b.code = append(b.code, immediates...)
	return offset
}

// EmitInt pushes n, using PUSH_WIDE when it does not fit one cell.
func (b *Builder) EmitInt(n int64) int {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return b.Emit(OpPushInt, int32(n))
	}
	return b.Emit(OpPushWide, int32(n>>32), int32(uint32(n)))
}

// EmitString pushes s, one cell per rune.
func (b *Builder) EmitString(s string) int {
	runes := []rune(s)
	cells := make([]int32, 0, len(runes)+1)
	cells = append(cells, int32(len(runes)))
	for _, r := range runes {
		cells = append(cells, int32(r))
	}
	return b.Emit(OpPushString, cells...)
}

// EmitRational pushes num/den.
func (b *Builder) EmitRational(num, den int32) int {
	return b.Emit(OpPushRational, num, den)
}

// EmitJump emits a jump with a placeholder target.
// Returns the offset of the placeholder for later patching.
func (b *Builder) EmitJump(op int32) int {
	offset := b.Emit(op, -1)
	return offset + 1
}

// PatchJump points the jump placeholder at the current offset.
func (b *Builder) PatchJump(placeholder int) {
	b.code[placeholder] = int32(len(b.code))
}

// PatchJumpTo points the jump placeholder at target.
func (b *Builder) PatchJumpTo(placeholder, target int) {
	b.code[placeholder] = int32(target)
}

// Offset returns the offset the next emitted cell will occupy.
func (b *Builder) Offset() int {
	return len(b.code)
}

// Code returns a copy of the assembled buffer.
func (b *Builder) Code() []int32 {
	return append([]int32(nil), b.code...)
}
