package tir

import "fmt"

// Instruction is one operation inside a Block. Every instruction that
// produces a value has a non-nil Result; terminators (Ret, JumpCond,
// JumpBlockUnCond) and void calls do not.
type Instruction interface {
	String() string
	Operands() []SsaValue
	Result() *SsaValue
}

// IConst materializes an integer literal.
type IConst struct {
	Dest  SsaValue
	Value int64
}

func (i *IConst) String() string         { return fmt.Sprintf("%%%d = iconst %d", i.Dest.ID, i.Value) }
func (i *IConst) Operands() []SsaValue   { return nil }
func (i *IConst) Result() *SsaValue      { return &i.Dest }

// FConst materializes a float literal.
type FConst struct {
	Dest  SsaValue
	Value float64
}

func (i *FConst) String() string       { return fmt.Sprintf("%%%d = fconst %g", i.Dest.ID, i.Value) }
func (i *FConst) Operands() []SsaValue { return nil }
func (i *FConst) Result() *SsaValue    { return &i.Dest }

// ItoF converts an I64 value to F64.
type ItoF struct {
	Dest SsaValue
	Src  SsaValue
}

func (i *ItoF) String() string       { return fmt.Sprintf("%%%d = itof %%%d", i.Dest.ID, i.Src.ID) }
func (i *ItoF) Operands() []SsaValue { return []SsaValue{i.Src} }
func (i *ItoF) Result() *SsaValue    { return &i.Dest }

// NumericInfix is an arithmetic binary op over two I64 or two F64 operands.
type NumericInfix struct {
	Dest  SsaValue
	Op    NumericOp
	Left  SsaValue
	Right SsaValue
}

func (i *NumericInfix) String() string {
	return fmt.Sprintf("%%%d = %s %%%d, %%%d", i.Dest.ID, i.Op, i.Left.ID, i.Right.ID)
}
func (i *NumericInfix) Operands() []SsaValue { return []SsaValue{i.Left, i.Right} }
func (i *NumericInfix) Result() *SsaValue    { return &i.Dest }

// BoolInfix is a comparison or logical connective, always producing I1.
type BoolInfix struct {
	Dest  SsaValue
	Op    BoolOp
	Left  SsaValue
	Right SsaValue
}

func (i *BoolInfix) String() string {
	return fmt.Sprintf("%%%d = %s %%%d, %%%d", i.Dest.ID, i.Op, i.Left.ID, i.Right.ID)
}
func (i *BoolInfix) Operands() []SsaValue { return []SsaValue{i.Left, i.Right} }
func (i *BoolInfix) Result() *SsaValue    { return &i.Dest }

// Not is boolean negation.
type Not struct {
	Dest SsaValue
	Src  SsaValue
}

func (i *Not) String() string       { return fmt.Sprintf("%%%d = not %%%d", i.Dest.ID, i.Src.ID) }
func (i *Not) Operands() []SsaValue { return []SsaValue{i.Src} }
func (i *Not) Result() *SsaValue    { return &i.Dest }

// JumpCond is a conditional branch terminator. It does not itself pick a
// branch; callers query TrueBlock/FalseBlock to know where control flows.
type JumpCond struct {
	Cond       SsaValue
	TrueBlock  BlockID
	FalseBlock BlockID
}

func (i *JumpCond) String() string {
	return fmt.Sprintf("jumpcond %%%d, block%d, block%d", i.Cond.ID, i.TrueBlock, i.FalseBlock)
}
func (i *JumpCond) Operands() []SsaValue { return []SsaValue{i.Cond} }
func (i *JumpCond) Result() *SsaValue    { return nil }

// JumpBlockUnCond is an unconditional branch terminator.
type JumpBlockUnCond struct {
	Target BlockID
}

func (i *JumpBlockUnCond) String() string       { return fmt.Sprintf("jump block%d", i.Target) }
func (i *JumpBlockUnCond) Operands() []SsaValue { return nil }
func (i *JumpBlockUnCond) Result() *SsaValue    { return nil }

// Ret returns from the current function. For a void return HasValue is
// false and Value is the zero SsaValue.
type Ret struct {
	Value    SsaValue
	HasValue bool
}

func (i *Ret) String() string {
	if !i.HasValue {
		return "ret void"
	}
	return fmt.Sprintf("ret %%%d", i.Value.ID)
}
func (i *Ret) Operands() []SsaValue {
	if !i.HasValue {
		return nil
	}
	return []SsaValue{i.Value}
}
func (i *Ret) Result() *SsaValue { return nil }

// CallLocalFunction calls a function defined in this compilation unit.
type CallLocalFunction struct {
	Dest     SsaValue
	HasDest  bool
	Callee   string
	Args     []SsaValue
}

func (i *CallLocalFunction) String() string {
	if i.HasDest {
		return fmt.Sprintf("%%%d = call_local %s(%v)", i.Dest.ID, i.Callee, i.Args)
	}
	return fmt.Sprintf("call_local %s(%v)", i.Callee, i.Args)
}
func (i *CallLocalFunction) Operands() []SsaValue { return i.Args }
func (i *CallLocalFunction) Result() *SsaValue {
	if i.HasDest {
		return &i.Dest
	}
	return nil
}

// CallExternFunction calls a registered C runtime function. Allocates is
// true when this call is the site of a new heap allocation (toy_malloc,
// toy_malloc_arr): the builder creates a matching HeapAllocation whenever
// Allocates is set.
type CallExternFunction struct {
	Dest      SsaValue
	HasDest   bool
	Callee    string
	Args      []SsaValue
	Allocates bool
}

func (i *CallExternFunction) String() string {
	if i.HasDest {
		return fmt.Sprintf("%%%d = call_extern %s(%v) allocates=%v", i.Dest.ID, i.Callee, i.Args, i.Allocates)
	}
	return fmt.Sprintf("call_extern %s(%v) allocates=%v", i.Callee, i.Args, i.Allocates)
}
func (i *CallExternFunction) Operands() []SsaValue { return i.Args }
func (i *CallExternFunction) Result() *SsaValue {
	if i.HasDest {
		return &i.Dest
	}
	return nil
}

// CallExternVoid is an extern call with no return value, used for
// CTLA-inserted frees. It never creates a HeapAllocation; when emitted
// through Builder.CallExternVoid its arguments still gain Refs.
type CallExternVoid struct {
	Callee string
	Args   []SsaValue
}

func (i *CallExternVoid) String() string       { return fmt.Sprintf("call_extern_void %s(%v)", i.Callee, i.Args) }
func (i *CallExternVoid) Operands() []SsaValue { return i.Args }
func (i *CallExternVoid) Result() *SsaValue    { return nil }

// CreateStructInterface declares a struct layout (field order only; no
// runtime effect) so ReadStructLiteral/WriteStructLiteral can resolve field
// indices against a named type without every lowering site re-deriving
// canonical field order from types.Tag.
type CreateStructInterface struct {
	Name   string
	Fields []string
}

func (i *CreateStructInterface) String() string {
	return fmt.Sprintf("struct_interface %s%v", i.Name, i.Fields)
}
func (i *CreateStructInterface) Operands() []SsaValue { return nil }
func (i *CreateStructInterface) Result() *SsaValue    { return nil }

// CreateStructLiteral allocates and populates a struct value in canonical
// field order. It is itself an allocating call wrapper; the builder
// registers a HeapAllocation for it.
type CreateStructLiteral struct {
	Dest       SsaValue
	StructName string
	FieldVals  []SsaValue
}

func (i *CreateStructLiteral) String() string {
	return fmt.Sprintf("%%%d = create_struct %s%v", i.Dest.ID, i.StructName, i.FieldVals)
}
func (i *CreateStructLiteral) Operands() []SsaValue { return i.FieldVals }
func (i *CreateStructLiteral) Result() *SsaValue    { return &i.Dest }

// ReadStructLiteral reads one field out of a struct value by its canonical
// index.
type ReadStructLiteral struct {
	Dest       SsaValue
	StructName string
	Base       SsaValue
	FieldIndex int
}

func (i *ReadStructLiteral) String() string {
	return fmt.Sprintf("%%%d = read_struct %%%d[%d]", i.Dest.ID, i.Base.ID, i.FieldIndex)
}
func (i *ReadStructLiteral) Operands() []SsaValue { return []SsaValue{i.Base} }
func (i *ReadStructLiteral) Result() *SsaValue    { return &i.Dest }

// WriteStructLiteral writes one field of a struct value in place.
type WriteStructLiteral struct {
	StructName string
	Base       SsaValue
	FieldIndex int
	Value      SsaValue
}

func (i *WriteStructLiteral) String() string {
	return fmt.Sprintf("write_struct %%%d[%d] = %%%d", i.Base.ID, i.FieldIndex, i.Value.ID)
}
func (i *WriteStructLiteral) Operands() []SsaValue { return []SsaValue{i.Base, i.Value} }
func (i *WriteStructLiteral) Result() *SsaValue    { return nil }

// Phi merges values from distinct predecessor blocks at a join point (an
// if/else join or a while loop header). BlockIDs[i] supplies Values[i].
type Phi struct {
	Dest     SsaValue
	BlockIDs []BlockID
	Values   []SsaValue
}

func (i *Phi) String() string {
	return fmt.Sprintf("%%%d = phi %v %v", i.Dest.ID, i.BlockIDs, i.Values)
}
func (i *Phi) Operands() []SsaValue { return i.Values }
func (i *Phi) Result() *SsaValue    { return &i.Dest }

// GlobalString emits a string literal's backing storage. It is lowered as
// a CallExternFunction to toy_malloc followed by a retroactive type patch
// to I8PTR (toy_malloc's registered return type is I64, since it's the
// general-purpose allocator); GlobalString packages that two-step sequence
// and the matching HeapAllocation.alloc_ins.ty patch.
type GlobalString struct {
	Dest  SsaValue
	Bytes []byte
}

func (i *GlobalString) String() string {
	return fmt.Sprintf("%%%d = global_string %q", i.Dest.ID, string(i.Bytes))
}
func (i *GlobalString) Operands() []SsaValue { return nil }
func (i *GlobalString) Result() *SsaValue    { return &i.Dest }
