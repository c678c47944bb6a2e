package tir

// Block is a maximal straight-line run of instructions ending in a
// terminator (Ret, JumpCond, or JumpBlockUnCond) once lowering finishes a
// function. Mid-lowering, a Block may be temporarily open (no terminator
// yet), which is why the builder always appends rather than validating.
type Block struct {
	ID           BlockID
	Instructions []Instruction
}

// HasTerminator reports whether the block already ends in a control-flow
// instruction.
func (b *Block) HasTerminator() bool {
	if len(b.Instructions) == 0 {
		return false
	}
	switch b.Instructions[len(b.Instructions)-1].(type) {
	case *Ret, *JumpCond, *JumpBlockUnCond:
		return true
	default:
		return false
	}
}
