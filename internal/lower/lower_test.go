package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/tir"
	"github.com/hassan/toyc/internal/types"
)

var pos lexer.Position

func TestLowerArithmeticPrecedence(t *testing.T) {
	five := ast.NewIntLit(pos, pos, 5)
	three := ast.NewIntLit(pos, pos, 3)
	nine := ast.NewIntLit(pos, pos, 9)
	mul := ast.NewInfixExpr(pos, pos, ast.OpMultiply, three, nine, types.Int)
	add := ast.NewInfixExpr(pos, pos, ast.OpPlus, five, mul, types.Int)
	stmt := ast.NewExprStmt(pos, pos, add)

	b, err := Lower([]ast.Stmt{stmt}, true)
	require.NoError(t, err)

	blk := b.Functions[0].Block(0)
	require.Len(t, blk.Instructions, 7)
	require.IsType(t, &tir.IConst{}, blk.Instructions[0])
	require.IsType(t, &tir.IConst{}, blk.Instructions[1])
	require.IsType(t, &tir.IConst{}, blk.Instructions[2])

	mulIns, ok := blk.Instructions[3].(*tir.NumericInfix)
	require.True(t, ok)
	require.Equal(t, tir.NumMul, mulIns.Op)
	require.Equal(t, tir.ValueID(1), mulIns.Left.ID)
	require.Equal(t, tir.ValueID(2), mulIns.Right.ID)

	addIns, ok := blk.Instructions[4].(*tir.NumericInfix)
	require.True(t, ok)
	require.Equal(t, tir.NumAdd, addIns.Op)
	require.Equal(t, tir.ValueID(0), addIns.Left.ID)
	require.Equal(t, tir.ValueID(3), addIns.Right.ID)

	require.IsType(t, &tir.IConst{}, blk.Instructions[5])
	require.IsType(t, &tir.Ret{}, blk.Instructions[6])
}

func TestLowerCompoundAssignmentRenumbers(t *testing.T) {
	nine := ast.NewIntLit(pos, pos, 9)
	varDec := ast.NewVarDec(pos, pos, "x", nine)
	three := ast.NewIntLit(pos, pos, 3)
	xRef := ast.NewVarRef(pos, pos, "x", types.Int)
	sum := ast.NewInfixExpr(pos, pos, ast.OpPlus, xRef, three, types.Int)
	assign := ast.NewAssignment(pos, pos, "x", sum)

	b, err := Lower([]ast.Stmt{varDec, assign}, true)
	require.NoError(t, err)

	blk := b.Functions[0].Block(0)
	require.Len(t, blk.Instructions, 5)
	require.IsType(t, &tir.IConst{}, blk.Instructions[0])
	require.IsType(t, &tir.IConst{}, blk.Instructions[1])

	infix, ok := blk.Instructions[2].(*tir.NumericInfix)
	require.True(t, ok)
	require.Equal(t, tir.ValueID(0), infix.Left.ID)
	require.Equal(t, tir.ValueID(1), infix.Right.ID)
}

func TestLowerIfWithoutElseShape(t *testing.T) {
	tru := ast.NewBoolLit(pos, pos, true)
	fls := ast.NewBoolLit(pos, pos, false)
	or := ast.NewInfixExpr(pos, pos, ast.OpOr, tru, fls, types.Bool)
	varDec := ast.NewVarDec(pos, pos, "x", or)
	xRef := ast.NewVarRef(pos, pos, "x", types.Bool)
	five := ast.NewIntLit(pos, pos, 5)
	ifStmt := ast.NewIfStmt(pos, pos, xRef, []ast.Stmt{ast.NewExprStmt(pos, pos, five)}, nil)

	b, err := Lower([]ast.Stmt{varDec, ifStmt}, true)
	require.NoError(t, err)

	fn := b.Functions[0]
	require.Len(t, fn.Blocks, 3)

	b0 := fn.Block(0)
	require.IsType(t, &tir.JumpCond{}, b0.Instructions[len(b0.Instructions)-1])

	b1 := fn.Block(1)
	require.IsType(t, &tir.IConst{}, b1.Instructions[0])
	require.IsType(t, &tir.JumpBlockUnCond{}, b1.Instructions[len(b1.Instructions)-1])

	b2 := fn.Block(2)
	require.IsType(t, &tir.Ret{}, b2.Instructions[len(b2.Instructions)-1])
}

func TestLowerWhileLoopShape(t *testing.T) {
	zero := ast.NewIntLit(pos, pos, 0)
	varDec := ast.NewVarDec(pos, pos, "x", zero)
	xRef1 := ast.NewVarRef(pos, pos, "x", types.Int)
	three := ast.NewIntLit(pos, pos, 3)
	cond := ast.NewInfixExpr(pos, pos, ast.OpLessThan, xRef1, three, types.Bool)
	xRef2 := ast.NewVarRef(pos, pos, "x", types.Int)
	one := ast.NewIntLit(pos, pos, 1)
	sum := ast.NewInfixExpr(pos, pos, ast.OpPlus, xRef2, one, types.Int)
	assign := ast.NewAssignment(pos, pos, "x", sum)
	whileStmt := ast.NewWhileStmt(pos, pos, cond, []ast.Stmt{assign})

	b, err := Lower([]ast.Stmt{varDec, whileStmt}, true)
	require.NoError(t, err)

	fn := b.Functions[0]
	require.Len(t, fn.Blocks, 4)

	header := fn.Block(1)
	require.IsType(t, &tir.Phi{}, header.Instructions[0])
	phi := header.Instructions[0].(*tir.Phi)
	require.Equal(t, []tir.BlockID{0, 2}, phi.BlockIDs)

	exit := fn.Block(3)
	require.IsType(t, &tir.Ret{}, exit.Instructions[len(exit.Instructions)-1])
}

func TestLowerStringOps(t *testing.T) {
	foo := ast.NewStringLit(pos, pos, "foo")
	fee := ast.NewStringLit(pos, pos, "fee")
	xDec := ast.NewVarDec(pos, pos, "x", foo)
	yDec := ast.NewVarDec(pos, pos, "y", fee)
	xRef := ast.NewVarRef(pos, pos, "x", types.Str)
	yRef := ast.NewVarRef(pos, pos, "y", types.Str)
	concat := ast.NewInfixExpr(pos, pos, ast.OpPlus, xRef, yRef, types.Str)
	zDec := ast.NewVarDec(pos, pos, "z", concat)
	xRef2 := ast.NewVarRef(pos, pos, "x", types.Str)
	yRef2 := ast.NewVarRef(pos, pos, "y", types.Str)
	eq := ast.NewInfixExpr(pos, pos, ast.OpEquals, xRef2, yRef2, types.Bool)
	aDec := ast.NewVarDec(pos, pos, "a", eq)

	b, err := Lower([]ast.Stmt{xDec, yDec, zDec, aDec}, true)
	require.NoError(t, err)

	fn := b.Functions[0]
	var concatCalls, strequalCalls int
	for _, ins := range fn.Block(0).Instructions {
		if c, ok := ins.(*tir.CallExternFunction); ok {
			switch c.Callee {
			case "toy_concat":
				concatCalls++
			case "toy_strequal":
				strequalCalls++
			}
		}
	}
	require.Equal(t, 1, concatCalls)
	require.Equal(t, 1, strequalCalls)
	require.Len(t, fn.HeapAllocations, 3)
}

func TestLowerStructFieldRoundTrip(t *testing.T) {
	pointFields := []ast.FuncParam{{Name: "x", Type: types.Float}, {Name: "y", Type: types.Float}}
	structDecl := ast.NewStructInterface(pos, pos, "Point", pointFields)
	pointTag := types.NewStruct("Point", []types.Field{{Name: "x", Type: types.Float}, {Name: "y", Type: types.Float}})

	xVal := ast.NewFloatLit(pos, pos, 1.5)
	yVal := ast.NewFloatLit(pos, pos, 2.5)
	lit := ast.NewStructLit(pos, pos, []ast.Expr{xVal, yVal}, pointTag)
	pDec := ast.NewVarDec(pos, pos, "p", lit)

	pRef := ast.NewVarRef(pos, pos, "p", pointTag)
	newX := ast.NewFloatLit(pos, pos, 9.0)
	assign := ast.NewStructFieldAssign(pos, pos, pRef, []string{"x"}, newX)

	pRef2 := ast.NewVarRef(pos, pos, "p", pointTag)
	read := ast.NewStructRef(pos, pos, pRef2, []string{"y"}, types.Float)
	readDec := ast.NewVarDec(pos, pos, "got", read)

	b, err := Lower([]ast.Stmt{structDecl, pDec, assign, readDec}, true)
	require.NoError(t, err)

	fn := b.Functions[0]
	var sawCreate, sawWrite, sawRead bool
	for _, ins := range fn.Block(0).Instructions {
		switch v := ins.(type) {
		case *tir.CreateStructLiteral:
			sawCreate = true
			require.Equal(t, "Point", v.StructName)
		case *tir.WriteStructLiteral:
			sawWrite = true
			require.Equal(t, 0, v.FieldIndex)
		case *tir.ReadStructLiteral:
			sawRead = true
			require.Equal(t, 1, v.FieldIndex)
		}
	}
	require.True(t, sawCreate)
	require.True(t, sawWrite)
	require.True(t, sawRead)
}

func TestLowerArrayLiteralAndIndex(t *testing.T) {
	elems := []ast.Expr{ast.NewIntLit(pos, pos, 1), ast.NewIntLit(pos, pos, 2), ast.NewIntLit(pos, pos, 3)}
	arrType := types.ArrayOf(types.Int)
	lit := ast.NewArrLit(pos, pos, elems, arrType)
	arrDec := ast.NewVarDec(pos, pos, "xs", lit)

	arrRef := ast.NewVarRef(pos, pos, "xs", arrType)
	idx := ast.NewIntLit(pos, pos, 1)
	read := ast.NewArrRef(pos, pos, arrRef, idx, types.Int)
	readDec := ast.NewVarDec(pos, pos, "v", read)

	b, err := Lower([]ast.Stmt{arrDec, readDec}, true)
	require.NoError(t, err)

	fn := b.Functions[0]
	var mallocCalls, writeCalls, readCalls int
	for _, ins := range fn.Block(0).Instructions {
		switch v := ins.(type) {
		case *tir.CallExternFunction:
			if v.Callee == "toy_malloc_arr" {
				mallocCalls++
			}
			if v.Callee == "toy_read_from_arr" {
				readCalls++
			}
			if v.Callee == "toy_write_to_arr" {
				writeCalls++
			}
		}
	}
	require.Equal(t, 1, mallocCalls)
	require.Equal(t, 3, writeCalls)
	require.Equal(t, 1, readCalls)
}

func TestLowerBreakOutsideLoopIsError(t *testing.T) {
	brk := ast.NewBreakStmt(pos, pos)
	_, err := Lower([]ast.Stmt{brk}, true)
	require.Error(t, err)
}

func TestLowerUndefinedVariableIsError(t *testing.T) {
	ref := ast.NewVarRef(pos, pos, "missing", types.Int)
	stmt := ast.NewExprStmt(pos, pos, ref)
	_, err := Lower([]ast.Stmt{stmt}, true)
	// a bare VarRef with no prior binding surfaces as a nil scope lookup
	// miss, same diag.KindUndefinedVariable path Assignment uses.
	require.Error(t, err)
}

func TestLowerForwardFunctionReference(t *testing.T) {
	// fn a() calls fn b(), declared later in the same unit — DeclareFunc
	// must make this resolvable regardless of source order.
	callB := ast.NewFuncCall(pos, pos, "b", nil, types.Int)
	retCallB := ast.NewReturnStmt(pos, pos, callB)
	fnA := ast.NewFuncDec(pos, pos, "a", nil, types.Int, []ast.Stmt{retCallB})

	five := ast.NewIntLit(pos, pos, 5)
	retFive := ast.NewReturnStmt(pos, pos, five)
	fnB := ast.NewFuncDec(pos, pos, "b", nil, types.Int, []ast.Stmt{retFive})

	b, err := Lower([]ast.Stmt{fnA, fnB}, false)
	require.NoError(t, err)
	require.Len(t, b.Functions, 2)

	callIns, ok := b.Functions[0].Block(0).Instructions[0].(*tir.CallLocalFunction)
	require.True(t, ok)
	require.Equal(t, "b", callIns.Callee)
}

func TestEveryBlockTerminated(t *testing.T) {
	zero := ast.NewIntLit(pos, pos, 0)
	varDec := ast.NewVarDec(pos, pos, "x", zero)
	xRef := ast.NewVarRef(pos, pos, "x", types.Int)
	three := ast.NewIntLit(pos, pos, 3)
	cond := ast.NewInfixExpr(pos, pos, ast.OpLessThan, xRef, three, types.Bool)
	xRef2 := ast.NewVarRef(pos, pos, "x", types.Int)
	one := ast.NewIntLit(pos, pos, 1)
	sum := ast.NewInfixExpr(pos, pos, ast.OpPlus, xRef2, one, types.Int)
	assign := ast.NewAssignment(pos, pos, "x", sum)
	whileStmt := ast.NewWhileStmt(pos, pos, cond, []ast.Stmt{assign})

	b, err := Lower([]ast.Stmt{varDec, whileStmt}, true)
	require.NoError(t, err)

	for _, fn := range b.Functions {
		for _, blk := range fn.Blocks {
			require.True(t, blk.HasTerminator(), "block %d in %s has no terminator", blk.ID, fn.Name)
		}
	}
}
