package astgen

import (
	"fmt"
	"testing"

	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/boxer"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/session"
	"github.com/hassan/toyc/internal/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lex(t *testing.T, source string) []lexer.Token {
	t.Helper()
	l := lexer.New(source, "test.toy")
	var toks []lexer.Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == lexer.KindEOF {
			return toks
		}
	}
}

func boxAll(t *testing.T, source string) []boxer.Box {
	t.Helper()
	boxes, err := boxer.New(lex(t, source)).BoxAll()
	require.NoError(t, err)
	return boxes
}

func newGen(t *testing.T, loader ModuleLoader) *Generator {
	t.Helper()
	sess, err := session.NewWithLogger(zap.NewNop())
	require.NoError(t, err)
	return New(sess, loader)
}

func generate(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	out, err := newGen(t, nil).Generate(boxAll(t, source))
	require.NoError(t, err)
	return out
}

func generateErr(t *testing.T, source string) error {
	t.Helper()
	_, err := newGen(t, nil).Generate(boxAll(t, source))
	return err
}

func TestVarDecInferredType(t *testing.T) {
	out := generate(t, "let x = 5 ;")
	require.Len(t, out, 1)
	vd, ok := out[0].(*ast.VarDec)
	require.True(t, ok)
	require.Equal(t, "x", vd.Name)
	require.Equal(t, types.Int, vd.Value.Type())
}

func TestVarDecDeclaredArrayType(t *testing.T) {
	out := generate(t, "let xs : [ ] int = [ 1 , 2 , 3 ] ;")
	vd := out[0].(*ast.VarDec)
	require.True(t, vd.Value.Type().IsArray())
	require.Equal(t, types.Int, types.ElemType(vd.Value.Type()))
}

func TestVarDecTypeMismatch(t *testing.T) {
	err := generateErr(t, "let x : int = true ;")
	require.Error(t, err)
}

func TestBinaryExprPrecedence(t *testing.T) {
	out := generate(t, "let x = 1 + 2 * 3 ;")
	vd := out[0].(*ast.VarDec)
	top, ok := vd.Value.(*ast.InfixExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpPlus, top.Op)
	_, ok = top.Right.(*ast.InfixExpr)
	require.True(t, ok, "2 * 3 should bind tighter and sit on the right")
}

func TestLeftAssociativeSubtraction(t *testing.T) {
	out := generate(t, "let x = 10 - 3 - 2 ;")
	vd := out[0].(*ast.VarDec)
	top := vd.Value.(*ast.InfixExpr)
	require.Equal(t, ast.OpMinus, top.Op)
	left, ok := top.Left.(*ast.InfixExpr)
	require.True(t, ok, "(10 - 3) - 2 should nest on the left")
	require.Equal(t, int64(10), left.Left.(*ast.IntLit).Value)
	require.Equal(t, int64(2), top.Right.(*ast.IntLit).Value)
}

func TestUnaryMinusDesugars(t *testing.T) {
	out := generate(t, "let x = 0 - 5 ;")
	vd := out[0].(*ast.VarDec)
	require.Equal(t, int64(0), vd.Value.(*ast.InfixExpr).Left.(*ast.IntLit).Value)

	out = generate(t, "let y = - 5 ;")
	vd = out[0].(*ast.VarDec)
	inf := vd.Value.(*ast.InfixExpr)
	require.Equal(t, ast.OpMinus, inf.Op)
	require.Equal(t, int64(0), inf.Left.(*ast.IntLit).Value)
	require.Equal(t, int64(5), inf.Right.(*ast.IntLit).Value)
}

func TestParenthesizedExpr(t *testing.T) {
	out := generate(t, "let x = ( 1 + 2 ) * 3 ;")
	vd := out[0].(*ast.VarDec)
	top := vd.Value.(*ast.InfixExpr)
	require.Equal(t, ast.OpMultiply, top.Op)
	_, ok := top.Left.(*ast.InfixExpr)
	require.True(t, ok)
}

func TestStringConcatInfersStr(t *testing.T) {
	out := generate(t, `let x = "a" + "b" ;`)
	vd := out[0].(*ast.VarDec)
	require.Equal(t, types.Str, vd.Value.Type())
}

func TestStructLitAndFieldAccess(t *testing.T) {
	out := generate(t, `
		struct Point { x : int , y : int }
		let p = Point { 1 , 2 } ;
		let px = p . x ;
	`)
	require.Len(t, out, 3)
	_, ok := out[0].(*ast.StructInterface)
	require.True(t, ok)

	pDec := out[1].(*ast.VarDec)
	lit, ok := pDec.Value.(*ast.StructLit)
	require.True(t, ok)
	require.Len(t, lit.Fields, 2)

	pxDec := out[2].(*ast.VarDec)
	ref, ok := pxDec.Value.(*ast.StructRef)
	require.True(t, ok)
	require.Equal(t, []string{"x"}, ref.Fields)
	require.Equal(t, types.Int, ref.Type())
}

func TestStructFieldReassign(t *testing.T) {
	out := generate(t, `
		struct Point { x : int , y : int }
		let p = Point { 1 , 2 } ;
		p . x = 9 ;
	`)
	assign, ok := out[2].(*ast.StructFieldAssign)
	require.True(t, ok)
	require.Equal(t, []string{"x"}, assign.Fields)
}

func TestArrayIndexAndReassign(t *testing.T) {
	out := generate(t, `
		let xs : [ ] int = [ 1 , 2 , 3 ] ;
		let y = xs [ 0 ] ;
		xs [ 0 ] = 9 ;
	`)
	yDec := out[1].(*ast.VarDec)
	ref, ok := yDec.Value.(*ast.ArrRef)
	require.True(t, ok)
	require.Equal(t, types.Int, ref.Type())

	assign, ok := out[2].(*ast.ArrAssign)
	require.True(t, ok)
	require.Equal(t, types.Int, assign.Value.Type())
}

func TestIfElseConditionMustBeBool(t *testing.T) {
	err := generateErr(t, `
		fn f ( ) : void {
			if ( 5 ) { return ; }
		}
	`)
	require.Error(t, err)
}

func TestIfElseLowersBothBranches(t *testing.T) {
	out := generate(t, `
		fn f ( x : int ) : int {
			if ( x > 0 ) {
				return 1 ;
			} else {
				return 0 ;
			}
		}
	`)
	fd := out[0].(*ast.FuncDec)
	ifStmt, ok := fd.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Body, 1)
	require.Len(t, ifStmt.Alt, 1)
}

func TestWhileAllowsBreakAndContinue(t *testing.T) {
	out := generate(t, `
		fn f ( ) : void {
			while ( true ) {
				break ;
				continue ;
			}
		}
	`)
	fd := out[0].(*ast.FuncDec)
	wh := fd.Body[0].(*ast.WhileStmt)
	require.Len(t, wh.Body, 2)
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	err := generateErr(t, `
		fn f ( ) : void {
			break ;
		}
	`)
	require.Error(t, err)
}

func TestReturnTypeMismatch(t *testing.T) {
	err := generateErr(t, `
		fn f ( ) : int {
			return true ;
		}
	`)
	require.Error(t, err)
}

func TestFunctionOverloadByParamType(t *testing.T) {
	out := generate(t, `
		fn describe ( x : int ) : str {
			return str ( x ) ;
		}
		fn describe ( x : float ) : str {
			return str ( x ) ;
		}
		let a = describe ( 1 ) ;
		let b = describe ( 1.5 ) ;
	`)
	a := out[2].(*ast.VarDec)
	b := out[3].(*ast.VarDec)
	callA := a.Value.(*ast.FuncCall)
	callB := b.Value.(*ast.FuncCall)
	require.NotEqual(t, callA.Callee, callB.Callee)
}

func TestUndefinedFunctionCallIsError(t *testing.T) {
	err := generateErr(t, `
		let x = nope ( 1 , 2 ) ;
	`)
	require.Error(t, err)
}

func TestExternFunctionCall(t *testing.T) {
	out := generate(t, `
		extern fn sys_write ( n : int ) : int ;
		let x = sys_write ( 1 ) ;
	`)
	vd := out[1].(*ast.VarDec)
	call := vd.Value.(*ast.FuncCall)
	require.Equal(t, "sys_write", call.Callee)
	require.Equal(t, types.Int, call.Type())
}

func TestStructMethodDispatch(t *testing.T) {
	out := generate(t, `
		struct Point { x : int , y : int }
		for Point {
			fn sum ( ) : int {
				return this . x + this . y ;
			}
		}
		let p = Point { 1 , 2 } ;
		let s = sum ( p ) ;
	`)
	fd := out[1].(*ast.FuncDec)
	require.Equal(t, "Point:::sum", fd.Name)
	require.Equal(t, "this", fd.Params[0].Name)

	sDec := out[3].(*ast.VarDec)
	call := sDec.Value.(*ast.FuncCall)
	require.Equal(t, "Point:::sum", call.Callee)
}

func TestBuiltinCallsResolveFixedTypes(t *testing.T) {
	out := generate(t, `
		let a = len ( [ 1 , 2 ] ) ;
		let b = str ( 5 ) ;
		let c = int ( "5" ) ;
		let d = float ( 5 ) ;
		let e = bool ( 1 ) ;
	`)
	require.Equal(t, types.Int, out[0].(*ast.VarDec).Value.Type())
	require.Equal(t, types.Str, out[1].(*ast.VarDec).Value.Type())
	require.Equal(t, types.Int, out[2].(*ast.VarDec).Value.Type())
	require.Equal(t, types.Float, out[3].(*ast.VarDec).Value.Type())
	require.Equal(t, types.Bool, out[4].(*ast.VarDec).Value.Type())
}

func TestDuplicateFunctionSignatureIsError(t *testing.T) {
	err := generateErr(t, `
		fn f ( x : int ) : int { return x ; }
		fn f ( x : int ) : int { return x ; }
	`)
	require.Error(t, err)
}

func TestArrayLiteralElementTypeMismatch(t *testing.T) {
	err := generateErr(t, `
		let xs = [ 1 , "two" ] ;
	`)
	require.Error(t, err)
}

func TestNotExprNegatesBool(t *testing.T) {
	out := generate(t, "let x = ! true ;")
	vd := out[0].(*ast.VarDec)
	not, ok := vd.Value.(*ast.NotExpr)
	require.True(t, ok)
	require.Equal(t, types.Bool, not.Type())
}

type stubLoader struct {
	sources map[string][]byte
}

func (s stubLoader) LoadModule(path string) ([]byte, error) {
	src, ok := s.sources[path]
	if !ok {
		return nil, fmt.Errorf("no such module %q", path)
	}
	return src, nil
}

func TestImportMergesModuleDeclarations(t *testing.T) {
	loader := stubLoader{sources: map[string][]byte{
		"math.util": []byte(`
			fn square ( x : int ) : int {
				return x * x ;
			}
		`),
	}}
	gen := newGen(t, loader)
	out, err := gen.Generate(boxAll(t, `
		import math.util ;
		let x = square ( 4 ) ;
	`))
	require.NoError(t, err)
	require.Len(t, out, 2)
	_, ok := out[0].(*ast.FuncDec)
	require.True(t, ok)
	xDec := out[1].(*ast.VarDec)
	call := xDec.Value.(*ast.FuncCall)
	require.Equal(t, types.Int, call.Type())
}

func TestImportDedupesRepeatedContent(t *testing.T) {
	shared := []byte(`
		fn helper ( ) : int {
			return 1 ;
		}
	`)
	loader := stubLoader{sources: map[string][]byte{
		"a.mod": shared,
		"b.mod": shared,
	}}
	gen := newGen(t, loader)
	out, err := gen.Generate(boxAll(t, `
		import a.mod ;
		import b.mod ;
	`))
	require.NoError(t, err)
	require.Len(t, out, 1, "identical module content should only be merged once")
}
