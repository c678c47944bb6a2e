// Package viewer provides read-only queries over a frozen set of lowered
// functions, the surface a downstream lifetime-analysis pass uses instead
// of walking tir.Function/Block/Instruction directly.
package viewer

import (
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/tir"
)

// Viewer answers positional and reference queries over a tir.Builder's
// functions without mutating them.
type Viewer struct {
	functions []*tir.Function
}

// New builds a Viewer over b's current functions. b must not be mutated
// through any other reference while the Viewer is in use.
func New(b *tir.Builder) *Viewer {
	return &Viewer{functions: b.Functions}
}

// InstructionLocation pins an instruction to the block and index it lives
// at inside its owning function.
type InstructionLocation struct {
	BlockID     tir.BlockID
	Instruction tir.Instruction
	Index       int
}

// Ref names one instruction that consumes a searched value: ValueID is the
// consuming instruction's own result id when it has one, or the searched
// value's own id when the consumer is a terminator, a void call, or a
// struct write with no result of its own — the same convention
// tir.Builder's heap-reference tracking uses.
type Ref struct {
	ValueID tir.ValueID
	BlockID tir.BlockID
}

// FindSSAValue linear-scans funcIndex's blocks for the instruction that
// defines vid.
func (v *Viewer) FindSSAValue(funcIndex int, vid tir.ValueID) (InstructionLocation, error) {
	fn, err := v.function(funcIndex)
	if err != nil {
		return InstructionLocation{}, err
	}
	for _, blk := range fn.Blocks {
		for idx, ins := range blk.Instructions {
			if res := ins.Result(); res != nil && res.ID == vid {
				return InstructionLocation{BlockID: blk.ID, Instruction: ins, Index: idx}, nil
			}
		}
	}
	return InstructionLocation{}, missingInstruction("no instruction defines value %%%d in function %d", vid, funcIndex)
}

// FindHeapAllocations locates every heap allocation recorded for funcIndex
// (allocating extern calls and struct literals), resolving each HeapAllocation's owning instruction back to its
// block and position.
func (v *Viewer) FindHeapAllocations(funcIndex int) ([]InstructionLocation, error) {
	fn, err := v.function(funcIndex)
	if err != nil {
		return nil, err
	}
	out := make([]InstructionLocation, 0, len(fn.HeapAllocations))
	for _, alloc := range fn.HeapAllocations {
		loc, err := locateInstruction(fn, alloc.Instruction)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

// FindRef returns every instruction in funcIndex that consumes vid as an
// operand, examining BoolInfix/NumericInfix, Ret, both call kinds, struct
// field reads/writes/literals, and Phi the way every instruction's own
// Operands() already exposes. Duplicates are intentional: the same value
// can be referenced more than once by a single instruction (e.g. x + x),
// and each textual occurrence is its own entry.
func (v *Viewer) FindRef(funcIndex int, vid tir.ValueID) ([]Ref, error) {
	fn, err := v.function(funcIndex)
	if err != nil {
		return nil, err
	}
	var out []Ref
	for _, blk := range fn.Blocks {
		for _, ins := range blk.Instructions {
			for _, op := range ins.Operands() {
				if op.ID != vid {
					continue
				}
				id := op.ID
				if res := ins.Result(); res != nil {
					id = res.ID
				}
				out = append(out, Ref{ValueID: id, BlockID: blk.ID})
			}
		}
	}
	return out, nil
}

func (v *Viewer) function(idx int) (*tir.Function, error) {
	if idx < 0 || idx >= len(v.functions) {
		return nil, missingInstruction("no function at index %d", idx)
	}
	return v.functions[idx], nil
}

func locateInstruction(fn *tir.Function, target tir.Instruction) (InstructionLocation, error) {
	for _, blk := range fn.Blocks {
		for idx, ins := range blk.Instructions {
			if ins == target {
				return InstructionLocation{BlockID: blk.ID, Instruction: ins, Index: idx}, nil
			}
		}
	}
	return InstructionLocation{}, missingInstruction("heap allocation instruction not found in function %q", fn.Name)
}

func missingInstruction(format string, args ...interface{}) error {
	return diag.New(diag.KindMissingInstruction, lexer.Position{}, format, args...)
}
