package tir

// Ref is one edge in the heap-reference graph: "the instruction at
// (FuncIndex, BlockID, ValueID) references this allocation". The triple
// form (rather than a single SsaValue) is necessary because the same
// ValueID numbering space is per-function, so a reference graph spanning
// multiple functions needs the function index to disambiguate.
type Ref struct {
	FuncIndex int
	BlockID   BlockID
	ValueID   ValueID
}

// HeapAllocation records one allocation site and every instruction in the
// program that goes on to reference the allocated value (returned, stored
// into or read out of a struct, passed to a call, or merged through a Phi);
// binding it to a variable adds no Ref. The downstream lifetime pass walks Refs to decide
// where the allocation's last use is and where a free can be spliced in.
type HeapAllocation struct {
	FuncIndex   int
	BlockID     BlockID
	Instruction Instruction
	Refs        []Ref
}

// Value returns the SsaValue this allocation produced.
func (h *HeapAllocation) Value() SsaValue {
	return *h.Instruction.Result()
}
