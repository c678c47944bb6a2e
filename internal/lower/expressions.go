package lower

import (
	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/tir"
	"github.com/hassan/toyc/internal/types"
)

func (l *Lowerer) lowerExpr(e ast.Expr) (tir.SsaValue, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return l.b.IConst(v.Value), nil
	case *ast.FloatLit:
		return l.b.FConst(v.Value), nil
	case *ast.BoolLit:
		return l.b.BConst(v.Value), nil
	case *ast.StringLit:
		return l.b.GlobalString([]byte(v.Value))
	case *ast.EmptyExpr:
		return tir.SsaValue{Type: tir.Void}, nil
	case *ast.VarRef:
		val, ok := l.scope.lookup(v.Name)
		if !ok {
			return tir.SsaValue{}, undefinedVariable(v.Name, v.Pos())
		}
		return val, nil
	case *ast.NotExpr:
		operand, err := l.lowerExpr(v.Operand)
		if err != nil {
			return tir.SsaValue{}, err
		}
		return l.b.Not(operand), nil
	case *ast.InfixExpr:
		return l.lowerInfix(v)
	case *ast.ArrLit:
		return l.lowerArrLit(v)
	case *ast.ArrRef:
		return l.lowerArrRef(v)
	case *ast.StructLit:
		return l.lowerStructLit(v)
	case *ast.StructRef:
		return l.lowerStructRef(v)
	case *ast.FuncCall:
		return l.lowerFuncCall(v)
	default:
		return tir.SsaValue{}, l.errorf("unhandled expression %T", e)
	}
}

// lowerInfix dispatches on operand type rather than operator alone: a str
// operand always routes through the runtime's string externs, regardless
// of which of +, ==, != was written.
func (l *Lowerer) lowerInfix(v *ast.InfixExpr) (tir.SsaValue, error) {
	left, err := l.lowerExpr(v.Left)
	if err != nil {
		return tir.SsaValue{}, err
	}
	right, err := l.lowerExpr(v.Right)
	if err != nil {
		return tir.SsaValue{}, err
	}

	if v.Left.Type().Kind == types.KindStr || v.Right.Type().Kind == types.KindStr {
		return l.lowerStrInfix(v.Op, left, right)
	}

	if v.Op == ast.OpAnd || v.Op == ast.OpOr {
		op := tir.BoolAnd
		if v.Op == ast.OpOr {
			op = tir.BoolOr
		}
		return l.b.BoolInfix(op, left, right), nil
	}

	left, right = l.unifyNumeric(left, right)
	if v.Op.IsBoolean() {
		return l.b.BoolInfix(boolOpFor(v.Op), left, right), nil
	}
	return l.b.NumericInfix(numericOpFor(v.Op), left, right), nil
}

// unifyNumeric promotes whichever side is still an int to float when its
// partner is a float, mirroring astgen's own int/float unification so
// lowering never hands NumericInfix/BoolInfix a mismatched operand pair.
func (l *Lowerer) unifyNumeric(left, right tir.SsaValue) (tir.SsaValue, tir.SsaValue) {
	if left.Type == right.Type {
		return left, right
	}
	if left.Type == tir.I64 && right.Type == tir.F64 {
		return l.b.ItoF(left), right
	}
	if left.Type == tir.F64 && right.Type == tir.I64 {
		return left, l.b.ItoF(right)
	}
	return left, right
}

func numericOpFor(op ast.InfixOp) tir.NumericOp {
	switch op {
	case ast.OpPlus:
		return tir.NumAdd
	case ast.OpMinus:
		return tir.NumSub
	case ast.OpMultiply:
		return tir.NumMul
	case ast.OpDivide:
		return tir.NumDiv
	case ast.OpModulo:
		return tir.NumMod
	default:
		return tir.NumAdd
	}
}

func boolOpFor(op ast.InfixOp) tir.BoolOp {
	switch op {
	case ast.OpLessThan:
		return tir.BoolLessThan
	case ast.OpLessThanEq:
		return tir.BoolLessThanEq
	case ast.OpGreaterThan:
		return tir.BoolGreaterThan
	case ast.OpGreaterThanEq:
		return tir.BoolGreaterThanEq
	case ast.OpEquals:
		return tir.BoolEquals
	case ast.OpNotEquals:
		return tir.BoolNotEquals
	default:
		return tir.BoolEquals
	}
}

func (l *Lowerer) lowerStrInfix(op ast.InfixOp, left, right tir.SsaValue) (tir.SsaValue, error) {
	switch op {
	case ast.OpPlus:
		res, err := l.b.Call("toy_concat", []tir.SsaValue{left, right})
		if err != nil {
			return tir.SsaValue{}, err
		}
		return *res, nil
	case ast.OpEquals:
		res, err := l.b.Call("toy_strequal", []tir.SsaValue{left, right})
		if err != nil {
			return tir.SsaValue{}, err
		}
		return *res, nil
	case ast.OpNotEquals:
		res, err := l.b.Call("toy_strequal", []tir.SsaValue{left, right})
		if err != nil {
			return tir.SsaValue{}, err
		}
		return l.b.Not(*res), nil
	default:
		return tir.SsaValue{}, l.errorf("unsupported string operator %s", op)
	}
}

// lowerArrLit allocates backing storage sized for the literal's elements
// and writes each one in, mirroring the two-step allocate-then-populate
// shape GlobalString uses for strings.
func (l *Lowerer) lowerArrLit(v *ast.ArrLit) (tir.SsaValue, error) {
	elemType := types.Any
	if len(v.Elements) > 0 {
		elemType = v.Elements[0].Type()
	} else if v.Type().IsArray() {
		elemType = types.ElemType(v.Type())
	}
	length := l.b.IConst(int64(len(v.Elements)))
	typeCode := l.b.IConst(int64(tir.InjectTypeCode(elemType)))
	arr, err := l.b.Call("toy_malloc_arr", []tir.SsaValue{length, typeCode})
	if err != nil {
		return tir.SsaValue{}, err
	}
	for i, elemExpr := range v.Elements {
		val, err := l.lowerExpr(elemExpr)
		if err != nil {
			return tir.SsaValue{}, err
		}
		idx := l.b.IConst(int64(i))
		elemTypeCode := l.b.IConst(int64(tir.InjectTypeCode(elemExpr.Type())))
		if _, err := l.b.Call("toy_write_to_arr", []tir.SsaValue{*arr, val, idx, elemTypeCode}); err != nil {
			return tir.SsaValue{}, err
		}
	}
	return *arr, nil
}

// lowerArrRef reads base[index] through the runtime's generic word-sized
// accessor and retypes the result to the element's real shape, the same
// retroactive-patch trick GlobalString uses for I8PTR.
func (l *Lowerer) lowerArrRef(v *ast.ArrRef) (tir.SsaValue, error) {
	base, err := l.lowerExpr(v.Base)
	if err != nil {
		return tir.SsaValue{}, err
	}
	idx, err := l.lowerExpr(v.Index)
	if err != nil {
		return tir.SsaValue{}, err
	}
	elemType := v.Type()
	typeCode := l.b.IConst(int64(tir.InjectTypeCode(elemType)))
	res, err := l.b.Call("toy_read_from_arr", []tir.SsaValue{base, idx, typeCode})
	if err != nil {
		return tir.SsaValue{}, err
	}
	return l.b.Retype(*res, tir.TypeTagToType(elemType)), nil
}

func (l *Lowerer) lowerStructLit(v *ast.StructLit) (tir.SsaValue, error) {
	fieldVals := make([]tir.SsaValue, len(v.Fields))
	for i, f := range v.Fields {
		val, err := l.lowerExpr(f)
		if err != nil {
			return tir.SsaValue{}, err
		}
		fieldVals[i] = val
	}
	return l.b.CreateStructLiteral(v.Type().StructName, fieldVals), nil
}

func (l *Lowerer) lowerStructRef(v *ast.StructRef) (tir.SsaValue, error) {
	base, err := l.lowerExpr(v.Base)
	if err != nil {
		return tir.SsaValue{}, err
	}
	curType := v.Base.Type()
	for _, fieldName := range v.Fields {
		idx, fieldType, err := l.fieldIndex(curType, fieldName, v.Pos())
		if err != nil {
			return tir.SsaValue{}, err
		}
		base = l.b.ReadStructLiteral(curType.StructName, base, idx, tir.TypeTagToType(fieldType))
		curType = fieldType
	}
	return base, nil
}

func (l *Lowerer) lowerFuncCall(v *ast.FuncCall) (tir.SsaValue, error) {
	switch v.Callee {
	case "print":
		return l.lowerPrintLike("toy_print", v)
	case "println":
		return l.lowerPrintLike("toy_println", v)
	case "len":
		return l.lowerLen(v)
	case "input":
		return l.lowerInput()
	case "int":
		return l.lowerBuiltinConvert(types.Int, v)
	case "float":
		return l.lowerBuiltinConvert(types.Float, v)
	case "bool":
		return l.lowerBuiltinConvert(types.Bool, v)
	case "str":
		return l.lowerBuiltinConvert(types.Str, v)
	}

	args := make([]tir.SsaValue, len(v.Args))
	for i, a := range v.Args {
		val, err := l.lowerExpr(a)
		if err != nil {
			return tir.SsaValue{}, err
		}
		args[i] = val
	}
	res, err := l.b.Call(v.Callee, args)
	if err != nil {
		return tir.SsaValue{}, err
	}
	if res == nil {
		return tir.SsaValue{Type: tir.Void}, nil
	}
	return *res, nil
}

// lowerPrintLike handles print/println: both take the value itself plus
// the runtime type code and array dimension the C side needs to format it,
// per the fixed toy_print/toy_println ABI shape.
func (l *Lowerer) lowerPrintLike(runtimeName string, v *ast.FuncCall) (tir.SsaValue, error) {
	val, err := l.lowerExpr(v.Args[0])
	if err != nil {
		return tir.SsaValue{}, err
	}
	argType := v.Args[0].Type()
	typeCode := l.b.IConst(int64(tir.InjectTypeCode(argType)))
	dimension := l.b.IConst(int64(argType.ArrayDepth))
	if _, err := l.b.Call(runtimeName, []tir.SsaValue{val, typeCode, dimension}); err != nil {
		return tir.SsaValue{}, err
	}
	return tir.SsaValue{Type: tir.Void}, nil
}

func (l *Lowerer) lowerLen(v *ast.FuncCall) (tir.SsaValue, error) {
	val, err := l.lowerExpr(v.Args[0])
	if err != nil {
		return tir.SsaValue{}, err
	}
	name := "toy_strlen"
	if v.Args[0].Type().IsArray() {
		name = "toy_arrlen"
	}
	res, err := l.b.Call(name, []tir.SsaValue{val})
	if err != nil {
		return tir.SsaValue{}, err
	}
	return *res, nil
}

func (l *Lowerer) lowerInput() (tir.SsaValue, error) {
	res, err := l.b.Call("toy_read_input", nil)
	if err != nil {
		return tir.SsaValue{}, err
	}
	return *res, nil
}

// lowerBuiltinConvert lowers int()/float()/bool()/str(). A conversion that
// only reinterprets a value already sitting in the right machine word
// (int<->bool) retypes in place, int to float emits an ItoF, and everything
// else routes through the matching toy_* runtime extern.
func (l *Lowerer) lowerBuiltinConvert(target types.Tag, v *ast.FuncCall) (tir.SsaValue, error) {
	val, err := l.lowerExpr(v.Args[0])
	if err != nil {
		return tir.SsaValue{}, err
	}
	src := v.Args[0].Type()
	if src.Kind == target.Kind {
		return val, nil
	}

	switch target.Kind {
	case types.KindInt:
		switch src.Kind {
		case types.KindBool:
			return l.b.Retype(val, tir.I64), nil
		case types.KindFloat:
			return l.callConversion("toy_float_to_int", val)
		case types.KindStr:
			return l.callConversion("toy_str_to_int", val)
		}
	case types.KindFloat:
		switch src.Kind {
		case types.KindInt:
			return l.b.ItoF(val), nil
		case types.KindStr:
			return l.callConversion("toy_str_to_float", val)
		}
	case types.KindBool:
		if src.Kind == types.KindInt {
			return l.b.Retype(val, tir.I1), nil
		}
	case types.KindStr:
		switch src.Kind {
		case types.KindInt:
			return l.callConversion("toy_int_to_str", val)
		case types.KindFloat:
			return l.callConversion("toy_float_to_str", val)
		case types.KindBool:
			return l.callConversion("toy_int_to_str", l.b.Retype(val, tir.I64))
		}
	}
	return tir.SsaValue{}, l.errorf("unsupported conversion from %s to %s", src, target)
}

func (l *Lowerer) callConversion(runtimeName string, arg tir.SsaValue) (tir.SsaValue, error) {
	res, err := l.b.Call(runtimeName, []tir.SsaValue{arg})
	if err != nil {
		return tir.SsaValue{}, err
	}
	return *res, nil
}
