package astgen

import (
	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/boxer"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/types"
)

func (g *Generator) lowerBlock(boxes []boxer.Box, parent *scope, inLoop bool) ([]ast.Stmt, error) {
	sc := newScope(parent)
	out := make([]ast.Stmt, 0, len(boxes))
	for _, b := range boxes {
		st, err := g.lowerBox(b, sc, inLoop)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (g *Generator) lowerBox(b boxer.Box, sc *scope, inLoop bool) (ast.Stmt, error) {
	switch v := b.(type) {
	case *boxer.VarDec:
		return g.lowerVarDec(v, sc)
	case *boxer.Assign:
		return g.lowerAssign(v, sc)
	case *boxer.StructReassign:
		return g.lowerStructReassign(v, sc)
	case *boxer.ArrReassign:
		return g.lowerArrReassign(v, sc)
	case *boxer.IfStmt:
		return g.lowerIf(v, sc, inLoop)
	case *boxer.While:
		return g.lowerWhile(v, sc)
	case *boxer.Return:
		return g.lowerReturn(v, sc)
	case *boxer.Break:
		if !inLoop {
			return nil, diag.New(diag.KindInvalidLocationForBreak, v.Span().Start, "break outside of a loop")
		}
		return ast.NewBreakStmt(v.Span().Start, v.Span().End), nil
	case *boxer.Continue:
		if !inLoop {
			return nil, diag.New(diag.KindInvalidLocationForContinue, v.Span().Start, "continue outside of a loop")
		}
		return ast.NewContinueStmt(v.Span().Start, v.Span().End), nil
	case *boxer.ExprStmt:
		val, err := g.parseExpr(v.Tokens, sc)
		if err != nil {
			return nil, err
		}
		return ast.NewExprStmt(v.Span().Start, v.Span().End, val), nil
	default:
		return nil, diag.New(diag.KindUnknownSymbol, b.Span().Start, "unexpected statement in this position")
	}
}

func (g *Generator) lowerVarDec(v *boxer.VarDec, sc *scope) (ast.Stmt, error) {
	value, err := g.parseExpr(v.Value, sc)
	if err != nil {
		return nil, err
	}
	declared := value.Type()
	if len(v.Type) > 0 {
		t, err := g.resolveTypeExpr(v.Type)
		if err != nil {
			return nil, err
		}
		if !value.Type().AssignableTo(t) {
			return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "variable %q declared as %s but initialized with %s", v.Name.Text, t, value.Type())
		}
		declared = t
	}
	sc.define(v.Name.Text, declared)
	return ast.NewVarDec(v.Span().Start, v.Span().End, v.Name.Text, value), nil
}

func (g *Generator) lowerAssign(v *boxer.Assign, sc *scope) (ast.Stmt, error) {
	t, ok := sc.lookup(v.Name.Text)
	if !ok {
		return nil, diag.New(diag.KindUndefinedVariable, v.Name.Position, "undefined variable %q", v.Name.Text)
	}
	value, err := g.parseExpr(v.Value, sc)
	if err != nil {
		return nil, err
	}
	if !value.Type().AssignableTo(t) {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "cannot assign %s to variable %q of type %s", value.Type(), v.Name.Text, t)
	}
	return ast.NewAssignment(v.Span().Start, v.Span().End, v.Name.Text, value), nil
}

func (g *Generator) lowerStructReassign(v *boxer.StructReassign, sc *scope) (ast.Stmt, error) {
	baseType, ok := sc.lookup(v.Name.Text)
	if !ok {
		return nil, diag.New(diag.KindUndefinedVariable, v.Name.Position, "undefined variable %q", v.Name.Text)
	}
	cur := baseType
	for _, field := range v.Fields {
		if !cur.IsStruct() {
			return nil, diag.New(diag.KindUndefinedField, v.Span().Start, "%s is not a struct", cur)
		}
		ft, ok := cur.FieldType(field)
		if !ok {
			return nil, diag.New(diag.KindUndefinedField, v.Span().Start, "undefined field %q on %s", field, cur.StructName)
		}
		cur = ft
	}
	value, err := g.parseExpr(v.Value, sc)
	if err != nil {
		return nil, err
	}
	if !value.Type().AssignableTo(cur) {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "cannot assign %s to field of type %s", value.Type(), cur)
	}
	base := ast.NewVarRef(v.Name.Position, v.Name.Position, v.Name.Text, baseType)
	return ast.NewStructFieldAssign(v.Span().Start, v.Span().End, base, v.Fields, value), nil
}

func (g *Generator) lowerArrReassign(v *boxer.ArrReassign, sc *scope) (ast.Stmt, error) {
	baseType, ok := sc.lookup(v.Name.Text)
	if !ok {
		return nil, diag.New(diag.KindUndefinedVariable, v.Name.Position, "undefined variable %q", v.Name.Text)
	}
	if !baseType.IsArray() {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "%s is not an array", baseType)
	}
	idx, err := g.parseExpr(v.Index, sc)
	if err != nil {
		return nil, err
	}
	if idx.Type().Kind != types.KindInt {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "array index must be int, got %s", idx.Type())
	}
	elem := types.ElemType(baseType)
	value, err := g.parseExpr(v.Value, sc)
	if err != nil {
		return nil, err
	}
	if !value.Type().AssignableTo(elem) {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "cannot assign %s to array element of type %s", value.Type(), elem)
	}
	base := ast.NewVarRef(v.Name.Position, v.Name.Position, v.Name.Text, baseType)
	return ast.NewArrAssign(v.Span().Start, v.Span().End, base, idx, value), nil
}

func (g *Generator) lowerIf(v *boxer.IfStmt, sc *scope, inLoop bool) (ast.Stmt, error) {
	cond, err := g.parseExpr(v.Cond, sc)
	if err != nil {
		return nil, err
	}
	if cond.Type().Kind != types.KindBool {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "if condition must be bool, got %s", cond.Type())
	}
	body, err := g.lowerBlock(v.Body, sc, inLoop)
	if err != nil {
		return nil, err
	}
	var alt []ast.Stmt
	if v.Alt != nil {
		alt, err = g.lowerBlock(v.Alt, sc, inLoop)
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIfStmt(v.Span().Start, v.Span().End, cond, body, alt), nil
}

func (g *Generator) lowerWhile(v *boxer.While, sc *scope) (ast.Stmt, error) {
	cond, err := g.parseExpr(v.Cond, sc)
	if err != nil {
		return nil, err
	}
	if cond.Type().Kind != types.KindBool {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "while condition must be bool, got %s", cond.Type())
	}
	body, err := g.lowerBlock(v.Body, sc, true)
	if err != nil {
		return nil, err
	}
	return ast.NewWhileStmt(v.Span().Start, v.Span().End, cond, body), nil
}

func (g *Generator) lowerReturn(v *boxer.Return, sc *scope) (ast.Stmt, error) {
	if len(v.Value) == 0 {
		if g.curRetType.Kind != types.KindVoid {
			return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "function must return %s", g.curRetType)
		}
		return ast.NewReturnStmt(v.Span().Start, v.Span().End, nil), nil
	}
	value, err := g.parseExpr(v.Value, sc)
	if err != nil {
		return nil, err
	}
	if !value.Type().AssignableTo(g.curRetType) {
		return nil, diag.New(diag.KindTypeMismatch, v.Span().Start, "return type mismatch: expected %s, got %s", g.curRetType, value.Type())
	}
	return ast.NewReturnStmt(v.Span().Start, v.Span().End, value), nil
}
