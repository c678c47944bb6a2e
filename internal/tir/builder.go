package tir

import "fmt"

// ExternSig is one entry in the registered extern-function table (the ABI
// contract from section 6): its parameter/return shape and whether calling
// it allocates heap memory the lifetime pass must eventually free.
type ExternSig struct {
	ParamTypes []Type
	RetType    Type
	Allocates  bool
}

// Builder assembles one or more Functions into typed SSA form. It tracks a
// "current" function and block the way a classic single-pass IR builder
// does: every value-producing method appends to whatever block SwitchBlock
// last pointed at.
type Builder struct {
	Functions []*Function

	externs   map[string]ExternSig
	localSet  map[string]bool
	funcIndex map[string]int

	curFunc  int
	curBlock BlockID
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		externs:   map[string]ExternSig{},
		localSet:  map[string]bool{},
		funcIndex: map[string]int{},
	}
}

// RegisterExtern adds name to the fixed ABI table the builder consults when
// Call needs to decide between a local and an extern dispatch.
func (b *Builder) RegisterExtern(name string, paramTypes []Type, retType Type, allocates bool) {
	b.externs[name] = ExternSig{ParamTypes: paramTypes, RetType: retType, Allocates: allocates}
}

// DeclareFunc reserves name as a known local function returning retType
// before its body is lowered, so a function defined earlier in the unit
// can call one defined later via Call without either caller caring about
// declaration order. NewFunc fills in the reserved slot's params and
// blocks when the body is actually lowered; calling DeclareFunc twice for
// the same name is a no-op.
func (b *Builder) DeclareFunc(name string, retType Type) {
	if _, exists := b.funcIndex[name]; exists {
		return
	}
	idx := len(b.Functions)
	b.Functions = append(b.Functions, &Function{Name: name, RetType: retType})
	b.localSet[name] = true
	b.funcIndex[name] = idx
}

// NewFunc starts a new function, binds its parameters as the first N SSA
// values of block 0, and makes it the current function/block. If name was
// already reserved via DeclareFunc, that slot is filled in rather than a
// new one appended.
func (b *Builder) NewFunc(name string, paramNames []string, paramTypes []Type, retType Type) int {
	idx, exists := b.funcIndex[name]
	var f *Function
	if exists {
		f = b.Functions[idx]
		f.RetType = retType
	} else {
		f = &Function{Name: name, RetType: retType}
		idx = len(b.Functions)
		b.Functions = append(b.Functions, f)
		b.localSet[name] = true
		b.funcIndex[name] = idx
	}
	for i, pn := range paramNames {
		v := SsaValue{ID: ValueID(i), Type: paramTypes[i]}
		f.Params = append(f.Params, Param{Name: pn, Value: v})
	}
	f.nextValueID = ValueID(len(paramNames))
	entry := &Block{ID: 0}
	f.Blocks = append(f.Blocks, entry)
	f.nextBlockID = 1

	b.curFunc = idx
	b.curBlock = 0
	return idx
}

func (b *Builder) fn() *Function { return b.Functions[b.curFunc] }

func (b *Builder) block() *Block {
	blk := b.fn().Block(b.curBlock)
	if blk == nil {
		panic(fmt.Sprintf("tir: no block %d in function %s", b.curBlock, b.fn().Name))
	}
	return blk
}

func (b *Builder) append(ins Instruction) {
	blk := b.block()
	blk.Instructions = append(blk.Instructions, ins)
}

// AllocValueID reserves the next value id in the current function without
// emitting an instruction. Used by the while-loop phi back-patch scheme,
// which must know a phi's destination id before the loop body (and hence
// the phi's second operand) has been lowered.
func (b *Builder) AllocValueID() ValueID {
	f := b.fn()
	id := f.nextValueID
	f.nextValueID++
	return id
}

// PeekNextValueID reports the id AllocValueID would hand out next, without
// consuming it.
func (b *Builder) PeekNextValueID() ValueID {
	return b.fn().nextValueID
}

// GenericSSA reserves a value id and returns it typed as t.
func (b *Builder) GenericSSA(t Type) SsaValue {
	return SsaValue{ID: b.AllocValueID(), Type: t}
}

// SwitchFn changes the current function by index.
func (b *Builder) SwitchFn(idx int) { b.curFunc = idx }

// SwitchBlock changes the current block within the current function.
func (b *Builder) SwitchBlock(id BlockID) { b.curBlock = id }

// CreateBlock allocates a new, empty block in the current function without
// switching to it.
func (b *Builder) CreateBlock() BlockID {
	f := b.fn()
	id := f.nextBlockID
	f.nextBlockID++
	f.Blocks = append(f.Blocks, &Block{ID: id})
	return id
}

// CurrentBlock reports the block the next emitted instruction will land
// in, for callers (lowering's if/while terminator checks) that need to
// inspect it after a nested statement may have switched blocks.
func (b *Builder) CurrentBlock() BlockID { return b.curBlock }

// BlockHasTerminator reports whether the named block in the current
// function already ends in a control-flow instruction.
func (b *Builder) BlockHasTerminator(id BlockID) bool {
	blk := b.fn().Block(id)
	return blk != nil && blk.HasTerminator()
}

// Retype returns v relabeled to t. Used for the builtin numeric/bool
// conversions that reinterpret a value already sitting in the right
// machine word (e.g. int(boolExpr)) without emitting a runtime call.
func (b *Builder) Retype(v SsaValue, t Type) SsaValue {
	v.Type = t
	return v
}

// GetBlockInsCount reports how many instructions a block currently holds.
func (b *Builder) GetBlockInsCount(id BlockID) int {
	blk := b.fn().Block(id)
	if blk == nil {
		return 0
	}
	return len(blk.Instructions)
}

// InsertAtBlockStart splices ins before every existing instruction in
// block id, used to place a while-loop header's Phi once the loop body's
// final value is known.
func (b *Builder) InsertAtBlockStart(id BlockID, ins Instruction) {
	blk := b.fn().Block(id)
	blk.Instructions = append([]Instruction{ins}, blk.Instructions...)
}

// FinalizePhi builds a Phi for a destination reserved earlier via
// ReservePhi and splices it at the start of headerBlock — the back-patch
// step while-loop lowering needs once the loop body's final value is
// known and both incoming edges can be named. Any incoming value that is
// a tracked allocation gains a Ref to dest, same as EmitPhi.
func (b *Builder) FinalizePhi(headerBlock BlockID, dest SsaValue, blockIDs []BlockID, values []SsaValue) {
	b.InsertAtBlockStart(headerBlock, &Phi{Dest: dest, BlockIDs: blockIDs, Values: values})
	b.trackRefs(&dest.ID, values)
}

// BConst emits a boolean constant. IConst is fixed to I64 (the toy
// language's integer constants never need a narrower width), so bool
// literals get their own entry point typed I1 from the start rather than
// a constant that needs a later coercion.
func (b *Builder) BConst(v bool) SsaValue {
	var iv int64
	if v {
		iv = 1
	}
	dest := SsaValue{ID: b.AllocValueID(), Type: I1}
	b.append(&IConst{Dest: dest, Value: iv})
	return dest
}

// IConst emits an integer constant in the current block.
func (b *Builder) IConst(v int64) SsaValue {
	dest := b.GenericSSA(I64)
	b.append(&IConst{Dest: dest, Value: v})
	return dest
}

// FConst emits a float constant in the current block.
func (b *Builder) FConst(v float64) SsaValue {
	dest := b.GenericSSA(F64)
	b.append(&FConst{Dest: dest, Value: v})
	return dest
}

// ItoF converts src (I64) to F64.
func (b *Builder) ItoF(src SsaValue) SsaValue {
	dest := b.GenericSSA(F64)
	b.append(&ItoF{Dest: dest, Src: src})
	return dest
}

// NumericInfix emits an arithmetic binary op. The result takes its
// operands' shared type (callers are responsible for having already
// unified int/float via ItoF).
func (b *Builder) NumericInfix(op NumericOp, l, r SsaValue) SsaValue {
	dest := b.GenericSSA(l.Type)
	b.append(&NumericInfix{Dest: dest, Op: op, Left: l, Right: r})
	return dest
}

// BoolInfix emits a comparison or logical connective, always typed I1.
func (b *Builder) BoolInfix(op BoolOp, l, r SsaValue) SsaValue {
	dest := b.GenericSSA(I1)
	b.append(&BoolInfix{Dest: dest, Op: op, Left: l, Right: r})
	return dest
}

// Not emits boolean negation.
func (b *Builder) Not(src SsaValue) SsaValue {
	dest := b.GenericSSA(I1)
	b.append(&Not{Dest: dest, Src: src})
	return dest
}

// JumpCond appends a conditional terminator to the current block and
// returns two freshly allocated blocks for the true/false arms. It does
// not switch the current block; callers pick which arm to lower first.
func (b *Builder) JumpCond(cond SsaValue) (trueBlock, falseBlock BlockID) {
	trueBlock = b.CreateBlock()
	falseBlock = b.CreateBlock()
	b.append(&JumpCond{Cond: cond, TrueBlock: trueBlock, FalseBlock: falseBlock})
	return trueBlock, falseBlock
}

// JumpBlockUnCond appends an unconditional terminator to the current
// block. A block that already has a terminator (e.g. a Ret from an early
// return) is left with trailing dead code rather than rejected; downstream
// passes are expected to tolerate that.
func (b *Builder) JumpBlockUnCond(target BlockID) {
	b.append(&JumpBlockUnCond{Target: target})
}

// trackRefs appends a Ref to every heap allocation in the current function
// whose defining value appears in operands. When owner is non-nil, the Ref
// is attributed to that instruction's own result id (the normal case: a
// call, struct op, or phi that produces a fresh value). When owner is nil
// the consuming instruction has no result of its own (Ret, a void call, a
// struct write) and the Ref instead carries the matching operand's own id,
// the same convention the Viewer's FindRef documents for terminator and
// void sites.
func (b *Builder) trackRefs(owner *ValueID, operands []SsaValue) {
	for _, op := range operands {
		for _, alloc := range b.fn().HeapAllocations {
			if alloc.Value().ID != op.ID {
				continue
			}
			id := op.ID
			if owner != nil {
				id = *owner
			}
			alloc.Refs = append(alloc.Refs, Ref{
				FuncIndex: b.curFunc,
				BlockID:   b.curBlock,
				ValueID:   id,
			})
		}
	}
}

// Ret appends a return terminator. If value references a tracked heap
// allocation anywhere in the current function, that allocation gains a Ref
// to this instruction, since returning the value lets it escape the
// function that allocated it.
func (b *Builder) Ret(value *SsaValue) {
	ins := &Ret{}
	if value != nil {
		ins.Value = *value
		ins.HasValue = true
	}
	b.append(ins)
	if value == nil {
		return
	}
	b.trackRefs(nil, []SsaValue{*value})
}

// CallLocal calls a function defined in this unit. Every argument that
// references a tracked heap allocation gains a Ref to this call site.
func (b *Builder) CallLocal(callee string, args []SsaValue, retType Type) *SsaValue {
	ins := &CallLocalFunction{Callee: callee, Args: args}
	if retType != Void {
		dest := b.GenericSSA(retType)
		ins.Dest = dest
		ins.HasDest = true
		b.append(ins)
		b.trackRefs(&dest.ID, args)
		return &dest
	}
	b.append(ins)
	b.trackRefs(nil, args)
	return nil
}

// CallExtern calls a registered extern function. When sig.Allocates is
// set, the call site is recorded as a new HeapAllocation. Every argument
// that references an existing tracked allocation gains a Ref to this call.
func (b *Builder) CallExtern(callee string, args []SsaValue, sig ExternSig) *SsaValue {
	ins := &CallExternFunction{Callee: callee, Args: args, Allocates: sig.Allocates}
	var result *SsaValue
	if sig.RetType != Void {
		dest := b.GenericSSA(sig.RetType)
		ins.Dest = dest
		ins.HasDest = true
		result = &dest
	}
	b.append(ins)
	if sig.Allocates {
		b.fn().HeapAllocations = append(b.fn().HeapAllocations, &HeapAllocation{
			FuncIndex:   b.curFunc,
			BlockID:     b.curBlock,
			Instruction: ins,
		})
	}
	if result != nil {
		b.trackRefs(&result.ID, args)
	} else {
		b.trackRefs(nil, args)
	}
	return result
}

// CallExternVoid calls a registered extern function for side effect only.
// SpliceFreeBefore inserts the same instruction type for frees; lowering
// emits toy_write_to_arr through Call, as a CallExternFunction with no
// result. Arguments still gain heap-allocation Refs since passing an
// allocation into a void call is itself a use the Viewer must surface.
func (b *Builder) CallExternVoid(callee string, args []SsaValue) {
	b.append(&CallExternVoid{Callee: callee, Args: args})
	b.trackRefs(nil, args)
}

// Call dispatches to CallLocal or CallExtern based on whether callee is a
// name this builder already knows as a local function or a registered
// extern, so lowering call sites don't need to track that distinction
// themselves.
func (b *Builder) Call(callee string, args []SsaValue) (*SsaValue, error) {
	if b.localSet[callee] {
		idx, ok := b.funcIndex[callee]
		if !ok {
			return nil, fmt.Errorf("tir: local function %q has no recorded index", callee)
		}
		return b.CallLocal(callee, args, b.Functions[idx].RetType), nil
	}
	if sig, ok := b.externs[callee]; ok {
		return b.CallExtern(callee, args, sig), nil
	}
	return nil, fmt.Errorf("tir: unknown callee %q", callee)
}

// CreateStructInterface records a struct's canonical field order so
// Read/WriteStructLiteral can resolve field indices by name later.
func (b *Builder) CreateStructInterface(name string, fields []string) {
	b.append(&CreateStructInterface{Name: name, Fields: fields})
}

// CreateStructLiteral allocates and populates a struct value. Every struct
// literal is a heap allocation, and any field value that is itself a
// tracked allocation (a string, array, or nested struct) gains a Ref to
// this instruction.
func (b *Builder) CreateStructLiteral(structName string, fieldVals []SsaValue) SsaValue {
	dest := b.GenericSSA(I8PTR)
	ins := &CreateStructLiteral{Dest: dest, StructName: structName, FieldVals: fieldVals}
	b.append(ins)
	b.fn().HeapAllocations = append(b.fn().HeapAllocations, &HeapAllocation{
		FuncIndex:   b.curFunc,
		BlockID:     b.curBlock,
		Instruction: ins,
	})
	b.trackRefs(&dest.ID, fieldVals)
	return dest
}

// ReadStructLiteral reads a struct field by canonical index. base gains a
// Ref to this instruction when it is a tracked allocation.
func (b *Builder) ReadStructLiteral(structName string, base SsaValue, fieldIndex int, fieldType Type) SsaValue {
	dest := b.GenericSSA(fieldType)
	b.append(&ReadStructLiteral{Dest: dest, StructName: structName, Base: base, FieldIndex: fieldIndex})
	b.trackRefs(&dest.ID, []SsaValue{base})
	return dest
}

// WriteStructLiteral writes a struct field by canonical index. Both base
// and the new value gain a Ref to this instruction when they are tracked
// allocations; a write has no result id of its own, so the Ref carries
// each matching operand's own id.
func (b *Builder) WriteStructLiteral(structName string, base SsaValue, fieldIndex int, value SsaValue) {
	b.append(&WriteStructLiteral{StructName: structName, Base: base, FieldIndex: fieldIndex, Value: value})
	b.trackRefs(nil, []SsaValue{base, value})
}

// EmitPhi appends a Phi in the current block. len(blockIDs) must equal
// len(values); the result's type is taken from the first value, matching
// every incoming value's type by construction. Any incoming value that is
// a tracked allocation gains a Ref to the phi's own result id, since
// merging control flow is itself a use of the value.
func (b *Builder) EmitPhi(blockIDs []BlockID, values []SsaValue) (SsaValue, error) {
	if len(blockIDs) != len(values) {
		return SsaValue{}, fmt.Errorf("tir: phi block/value count mismatch: %d blocks, %d values", len(blockIDs), len(values))
	}
	if len(values) == 0 {
		return SsaValue{}, fmt.Errorf("tir: phi with no incoming values")
	}
	dest := b.GenericSSA(values[0].Type)
	b.append(&Phi{Dest: dest, BlockIDs: blockIDs, Values: values})
	b.trackRefs(&dest.ID, values)
	return dest, nil
}

// ReservePhi allocates a phi's destination id for the while-loop
// back-patch scheme: the caller later passes it to FinalizePhi, which
// builds the Phi and inserts it at the header's start once the loop body
// has been lowered and its final value is known.
func (b *Builder) ReservePhi(t Type) SsaValue {
	return b.GenericSSA(t)
}

// GlobalString emits a string literal's backing storage as a call to
// toy_malloc (registered returning I64) and then retroactively re-types
// both the resulting value and the matching HeapAllocation's instruction
// to I8PTR, mirroring the two-step emit-then-patch sequence the original
// lowering used for string globals.
func (b *Builder) GlobalString(bytes []byte) (SsaValue, error) {
	sig, ok := b.externs["toy_malloc"]
	if !ok {
		return SsaValue{}, fmt.Errorf("tir: toy_malloc is not registered")
	}
	size := b.IConst(int64(len(bytes) + 1))
	result := b.CallExtern("toy_malloc", []SsaValue{size}, sig)
	if result == nil {
		return SsaValue{}, fmt.Errorf("tir: toy_malloc call produced no result")
	}
	result.Type = I8PTR
	for _, alloc := range b.fn().HeapAllocations {
		if alloc.Value().ID == result.ID {
			alloc.Instruction.Result().Type = I8PTR
		}
	}
	return *result, nil
}

// GetFuncRetType looks up a previously declared function's return type.
func (b *Builder) GetFuncRetType(name string) (Type, bool) {
	if idx, ok := b.funcIndex[name]; ok {
		return b.Functions[idx].RetType, true
	}
	if sig, ok := b.externs[name]; ok {
		return sig.RetType, true
	}
	return Void, false
}

// DetectHeapAllocations returns every heap allocation recorded for the
// function at funcIdx. Allocations are tracked incrementally as CallExtern,
// CreateStructLiteral, and GlobalString run, so this is just an accessor.
// The Viewer does not call it; it reads Function.HeapAllocations directly.
func (b *Builder) DetectHeapAllocations(funcIdx int) []*HeapAllocation {
	return b.Functions[funcIdx].HeapAllocations
}

// SpliceFreeBefore is the sole mutation entry point exposed to the
// out-of-scope lifetime-analysis pass: it inserts a void call to
// freeFuncName on value immediately before instruction index beforeIndex
// in the named function's block.
func (b *Builder) SpliceFreeBefore(funcName string, blockID BlockID, beforeIndex int, value SsaValue, freeFuncName string) error {
	idx, ok := b.funcIndex[funcName]
	if !ok {
		return fmt.Errorf("tir: unknown function %q", funcName)
	}
	blk := b.Functions[idx].Block(blockID)
	if blk == nil {
		return fmt.Errorf("tir: function %q has no block %d", funcName, blockID)
	}
	if beforeIndex < 0 || beforeIndex > len(blk.Instructions) {
		return fmt.Errorf("tir: splice index %d out of range for block %d (%d instructions)", beforeIndex, blockID, len(blk.Instructions))
	}
	free := &CallExternVoid{Callee: freeFuncName, Args: []SsaValue{value}}
	blk.Instructions = append(blk.Instructions[:beforeIndex:beforeIndex], append([]Instruction{free}, blk.Instructions[beforeIndex:]...)...)
	return nil
}
