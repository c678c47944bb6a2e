package tir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFuncBindsParams(t *testing.T) {
	b := NewBuilder()
	idx := b.NewFunc("add", []string{"a", "b"}, []Type{I64, I64}, I64)
	f := b.Functions[idx]
	require.Len(t, f.Params, 2)
	require.Equal(t, ValueID(0), f.Params[0].Value.ID)
	require.Equal(t, ValueID(1), f.Params[1].Value.ID)
	require.Equal(t, ValueID(2), f.PeekNextIDForTest())
}

// PeekNextIDForTest exposes the unexported nextValueID for the test above
// without widening the builder's real API.
func (f *Function) PeekNextIDForTest() ValueID { return f.nextValueID }

func TestIConstAndNumericInfix(t *testing.T) {
	b := NewBuilder()
	b.NewFunc("main", nil, nil, I64)
	x := b.IConst(2)
	y := b.IConst(3)
	sum := b.NumericInfix(NumAdd, x, y)
	require.Equal(t, I64, sum.Type)
	require.Len(t, b.block().Instructions, 3)
}

func TestRetTracksHeapAllocationRef(t *testing.T) {
	b := NewBuilder()
	b.RegisterExtern("toy_malloc", []Type{I64}, I64, true)
	b.NewFunc("makeIt", nil, nil, I8PTR)
	size := b.IConst(8)
	alloc := b.CallExtern("toy_malloc", []SsaValue{size}, b.externs["toy_malloc"])
	require.NotNil(t, alloc)
	b.Ret(alloc)

	f := b.Functions[0]
	require.Len(t, f.HeapAllocations, 1)
	require.Len(t, f.HeapAllocations[0].Refs, 1)
	require.Equal(t, alloc.ID, f.HeapAllocations[0].Refs[0].ValueID)
}

func TestGlobalStringPatchesTypeToI8PTR(t *testing.T) {
	b := NewBuilder()
	b.RegisterExtern("toy_malloc", []Type{I64}, I64, true)
	b.NewFunc("main", nil, nil, Void)
	v, err := b.GlobalString([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, I8PTR, v.Type)

	f := b.Functions[0]
	require.Len(t, f.HeapAllocations, 1)
	require.Equal(t, I8PTR, f.HeapAllocations[0].Value().Type)
}

func TestJumpCondAllocatesTwoBlocksWithoutSwitching(t *testing.T) {
	b := NewBuilder()
	b.NewFunc("main", nil, nil, Void)
	cond := b.IConst(1)
	trueB, falseB := b.JumpCond(SsaValue{ID: cond.ID, Type: I1})
	require.NotEqual(t, trueB, falseB)
	require.Equal(t, BlockID(0), b.curBlock)
	require.NotNil(t, b.fn().Block(trueB))
	require.NotNil(t, b.fn().Block(falseB))
}

func TestEmitPhiRequiresMatchingLengths(t *testing.T) {
	b := NewBuilder()
	b.NewFunc("main", nil, nil, Void)
	_, err := b.EmitPhi([]BlockID{0, 1}, []SsaValue{{ID: 0, Type: I64}})
	require.Error(t, err)
}

func TestEmitPhiTakesTypeFromFirstValue(t *testing.T) {
	b := NewBuilder()
	b.NewFunc("main", nil, nil, Void)
	phi, err := b.EmitPhi([]BlockID{0, 1}, []SsaValue{{ID: 0, Type: F64}, {ID: 1, Type: F64}})
	require.NoError(t, err)
	require.Equal(t, F64, phi.Type)
}

func TestCallDispatchesLocalVsExtern(t *testing.T) {
	b := NewBuilder()
	b.RegisterExtern("toy_println", []Type{I8PTR}, Void, false)
	b.NewFunc("helper", nil, nil, I64)
	b.NewFunc("main", nil, nil, Void)

	_, err := b.Call("helper", nil)
	require.NoError(t, err)
	_, err = b.Call("toy_println", []SsaValue{{ID: 0, Type: I8PTR}})
	require.NoError(t, err)
	_, err = b.Call("nonexistent", nil)
	require.Error(t, err)
}

func TestSpliceFreeBeforeInsertsCallExternVoid(t *testing.T) {
	b := NewBuilder()
	b.RegisterExtern("toy_malloc", []Type{I64}, I64, true)
	b.NewFunc("main", nil, nil, Void)
	size := b.IConst(4)
	alloc := b.CallExtern("toy_malloc", []SsaValue{size}, b.externs["toy_malloc"])
	retIns := &Ret{}
	b.append(retIns)

	err := b.SpliceFreeBefore("main", 0, 2, *alloc, "toy_free")
	require.NoError(t, err)

	blk := b.Functions[0].Block(0)
	require.Len(t, blk.Instructions, 4)
	freeCall, ok := blk.Instructions[2].(*CallExternVoid)
	require.True(t, ok)
	require.Equal(t, "toy_free", freeCall.Callee)
}

func TestDetectHeapAllocationsReturnsRecordedSites(t *testing.T) {
	b := NewBuilder()
	b.RegisterExtern("toy_malloc", []Type{I64}, I64, true)
	b.NewFunc("main", nil, nil, Void)
	size := b.IConst(4)
	b.CallExtern("toy_malloc", []SsaValue{size}, b.externs["toy_malloc"])
	require.Len(t, b.DetectHeapAllocations(0), 1)
}
