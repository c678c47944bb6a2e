package astgen

import (
	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/types"
)

// parseExpr parses toks into a typed expression, recursively splitting at
// the lowest-precedence binary operator found at bracket depth zero until
// only a primary expression remains.
func (g *Generator) parseExpr(toks []lexer.Token, sc *scope) (ast.Expr, error) {
	if len(toks) == 0 {
		var zero lexer.Position
		return ast.NewEmptyExpr(zero, zero), nil
	}
	if wrapsFully(toks) {
		return g.parseExpr(toks[1:len(toks)-1], sc)
	}
	if idx, opTok, ok := topLevelSplit(toks); ok {
		left, err := g.parseExpr(toks[:idx], sc)
		if err != nil {
			return nil, err
		}
		right, err := g.parseExpr(toks[idx+1:], sc)
		if err != nil {
			return nil, err
		}
		return g.buildInfix(opTok, left, right)
	}
	return g.parsePrimary(toks, sc)
}

func infixOpFor(k lexer.Kind) (ast.InfixOp, bool) {
	switch k {
	case lexer.KindPlus:
		return ast.OpPlus, true
	case lexer.KindMinus:
		return ast.OpMinus, true
	case lexer.KindStar:
		return ast.OpMultiply, true
	case lexer.KindSlash:
		return ast.OpDivide, true
	case lexer.KindPercent:
		return ast.OpModulo, true
	case lexer.KindLess:
		return ast.OpLessThan, true
	case lexer.KindLessEqual:
		return ast.OpLessThanEq, true
	case lexer.KindGreater:
		return ast.OpGreaterThan, true
	case lexer.KindGreaterEqual:
		return ast.OpGreaterThanEq, true
	case lexer.KindEqual:
		return ast.OpEquals, true
	case lexer.KindNotEqual:
		return ast.OpNotEquals, true
	case lexer.KindAnd:
		return ast.OpAnd, true
	case lexer.KindOr:
		return ast.OpOr, true
	default:
		return 0, false
	}
}

func (g *Generator) buildInfix(opTok lexer.Token, left, right ast.Expr) (ast.Expr, error) {
	op, ok := infixOpFor(opTok.Kind)
	if !ok {
		return nil, diag.New(diag.KindUnknownSymbol, opTok.Position, "unrecognized operator %s", opTok.Kind)
	}
	lt, rt := left.Type(), right.Type()

	switch opTok.Kind {
	case lexer.KindAnd, lexer.KindOr:
		if lt.Kind != types.KindBool || rt.Kind != types.KindBool {
			return nil, diag.New(diag.KindTypeMismatch, left.Pos(), "%s requires bool operands, got %s and %s", op, lt, rt)
		}
		return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, types.Bool), nil

	case lexer.KindEqual, lexer.KindNotEqual:
		if !lt.Equals(rt) {
			return nil, diag.New(diag.KindTypeMismatch, left.Pos(), "%s requires matching operand types, got %s and %s", op, lt, rt)
		}
		return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, types.Bool), nil

	case lexer.KindLess, lexer.KindLessEqual, lexer.KindGreater, lexer.KindGreaterEqual:
		if !lt.Equals(rt) || (lt.Kind != types.KindInt && lt.Kind != types.KindFloat) {
			return nil, diag.New(diag.KindTypeMismatch, left.Pos(), "%s requires two operands of the same numeric type, got %s and %s", op, lt, rt)
		}
		return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, types.Bool), nil

	default: // + - * / %
		if opTok.Kind == lexer.KindPlus && lt.Kind == types.KindStr && rt.Kind == types.KindStr {
			return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, types.Str), nil
		}
		if !lt.IsArray() && !rt.IsArray() &&
			((lt.Kind == types.KindInt && rt.Kind == types.KindFloat) || (lt.Kind == types.KindFloat && rt.Kind == types.KindInt)) {
			return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, types.Float), nil
		}
		if !lt.Equals(rt) || (lt.Kind != types.KindInt && lt.Kind != types.KindFloat) {
			return nil, diag.New(diag.KindTypeMismatch, left.Pos(), "%s requires two operands of the same numeric type, got %s and %s", op, lt, rt)
		}
		return ast.NewInfixExpr(left.Pos(), right.End(), op, left, right, lt), nil
	}
}

func (g *Generator) parsePrimary(toks []lexer.Token, sc *scope) (ast.Expr, error) {
	head := toks[0]
	switch head.Kind {
	case lexer.KindMinus:
		operand, err := g.parseExpr(toks[1:], sc)
		if err != nil {
			return nil, err
		}
		return g.negate(head.Position, operand)
	case lexer.KindNot:
		operand, err := g.parseExpr(toks[1:], sc)
		if err != nil {
			return nil, err
		}
		return ast.NewNotExpr(head.Position, operand.End(), operand), nil
	case lexer.KindInt:
		return ast.NewIntLit(head.Position, head.Position, head.IntVal), nil
	case lexer.KindFloat:
		return ast.NewFloatLit(head.Position, head.Position, head.FloatVal), nil
	case lexer.KindStr:
		return ast.NewStringLit(head.Position, head.Position, head.StrVal), nil
	case lexer.KindTrue:
		return ast.NewBoolLit(head.Position, head.Position, true), nil
	case lexer.KindFalse:
		return ast.NewBoolLit(head.Position, head.Position, false), nil
	case lexer.KindLBracket:
		return g.parseArrLit(toks, sc)
	case lexer.KindIdent, lexer.KindThis:
		return g.parseIdentChain(toks, sc)
	case lexer.KindTypeInt, lexer.KindTypeFloat, lexer.KindTypeBool, lexer.KindTypeStr:
		// int/float/bool/str double as the names of the builtin conversion
		// functions, so the lexer hands them back as type keywords rather
		// than KindIdent; only the call-expression shape is legal here.
		if len(toks) < 2 || toks[1].Kind != lexer.KindLParen {
			return nil, diag.New(diag.KindUnknownSymbol, head.Position, "%s used outside of a call", head.Text)
		}
		return g.parseCallExpr(head.Text, head.Position, toks[len(toks)-1].Position, toks[1:], sc)
	default:
		return nil, diag.New(diag.KindUnknownSymbol, head.Position, "unexpected token %s in expression", head.Kind)
	}
}

func (g *Generator) negate(pos lexer.Position, operand ast.Expr) (ast.Expr, error) {
	switch operand.Type().Kind {
	case types.KindInt:
		zero := ast.NewIntLit(pos, pos, 0)
		return ast.NewInfixExpr(pos, operand.End(), ast.OpMinus, zero, operand, types.Int), nil
	case types.KindFloat:
		zero := ast.NewFloatLit(pos, pos, 0)
		return ast.NewInfixExpr(pos, operand.End(), ast.OpMinus, zero, operand, types.Float), nil
	default:
		return nil, diag.New(diag.KindTypeMismatch, pos, "unary '-' requires a numeric operand, got %s", operand.Type())
	}
}

func (g *Generator) parseArrLit(toks []lexer.Token, sc *scope) (ast.Expr, error) {
	if toks[len(toks)-1].Kind != lexer.KindRBracket {
		return nil, diag.New(diag.KindUnclosedDelimiter, toks[0].Position, "unclosed '[' in array literal")
	}
	inner := toks[1 : len(toks)-1]
	groups := splitTopLevelCommas(inner)
	if len(inner) == 0 {
		return ast.NewArrLit(toks[0].Position, toks[len(toks)-1].Position, nil, types.ArrayOf(types.Any)), nil
	}
	elems := make([]ast.Expr, 0, len(groups))
	var elemType types.Tag
	for i, grp := range groups {
		e, err := g.parseExpr(grp, sc)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elemType = e.Type()
		} else if !e.Type().Equals(elemType) {
			return nil, diag.New(diag.KindTypeMismatch, e.Pos(), "array elements must share a type: expected %s, got %s", elemType, e.Type())
		}
		elems = append(elems, e)
	}
	return ast.NewArrLit(toks[0].Position, toks[len(toks)-1].Position, elems, types.ArrayOf(elemType)), nil
}

// parseCallExpr parses a `( args )` group following a call name already
// consumed by the caller (an identifier, or a type keyword standing in for
// a builtin conversion function) and resolves the overload.
func (g *Generator) parseCallExpr(name string, pos, end lexer.Position, rest []lexer.Token, sc *scope) (ast.Expr, error) {
	if rest[len(rest)-1].Kind != lexer.KindRParen {
		return nil, diag.New(diag.KindUnclosedDelimiter, pos, "malformed call to %q", name)
	}
	argGroups := splitTopLevelCommas(rest[1 : len(rest)-1])
	args := make([]ast.Expr, 0, len(argGroups))
	argTypes := make([]types.Tag, 0, len(argGroups))
	for _, grp := range argGroups {
		a, err := g.parseExpr(grp, sc)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		argTypes = append(argTypes, a.Type())
	}
	resolved, ret, err := g.resolveCall(name, argTypes, pos)
	if err != nil {
		return nil, err
	}
	return ast.NewFuncCall(pos, end, resolved, args, ret), nil
}

func (g *Generator) parseIdentChain(toks []lexer.Token, sc *scope) (ast.Expr, error) {
	name := toks[0].Text
	pos := toks[0].Position
	rest := toks[1:]
	end := toks[len(toks)-1].Position

	if len(rest) > 0 && rest[0].Kind == lexer.KindLParen {
		return g.parseCallExpr(name, pos, end, rest, sc)
	}

	if structTag, isStruct := g.structs[name]; isStruct && len(rest) > 0 && rest[0].Kind == lexer.KindLBrace {
		if rest[len(rest)-1].Kind != lexer.KindRBrace {
			return nil, diag.New(diag.KindMalformedStructField, pos, "malformed struct literal for %q", name)
		}
		fieldGroups := splitTopLevelCommas(rest[1 : len(rest)-1])
		if len(fieldGroups) != len(structTag.Fields) {
			return nil, diag.New(diag.KindArityMismatch, pos, "struct %q expects %d field(s), got %d", name, len(structTag.Fields), len(fieldGroups))
		}
		vals := make([]ast.Expr, len(fieldGroups))
		for i, grp := range fieldGroups {
			v, err := g.parseExpr(grp, sc)
			if err != nil {
				return nil, err
			}
			if !v.Type().AssignableTo(structTag.Fields[i].Type) {
				return nil, diag.New(diag.KindTypeMismatch, pos, "field %q of %q expects %s, got %s", structTag.Fields[i].Name, name, structTag.Fields[i].Type, v.Type())
			}
			vals[i] = v
		}
		return ast.NewStructLit(pos, end, vals, structTag), nil
	}

	varType, ok := sc.lookup(name)
	if !ok {
		return nil, diag.New(diag.KindUndefinedVariable, pos, "undefined variable %q", name)
	}
	var base ast.Expr = ast.NewVarRef(pos, pos, name, varType)
	cur := varType
	i := 0
	for i < len(rest) {
		switch rest[i].Kind {
		case lexer.KindDot:
			if i+1 >= len(rest) || rest[i+1].Kind != lexer.KindIdent {
				return nil, diag.New(diag.KindUnknownSymbol, rest[i].Position, "expected field name after '.'")
			}
			fieldName := rest[i+1].Text
			if !cur.IsStruct() {
				return nil, diag.New(diag.KindUndefinedField, rest[i+1].Position, "%s is not a struct", cur)
			}
			ft, ok := cur.FieldType(fieldName)
			if !ok {
				return nil, diag.New(diag.KindUndefinedField, rest[i+1].Position, "undefined field %q on %s", fieldName, cur.StructName)
			}
			base = ast.NewStructRef(base.Pos(), rest[i+1].Position, base, []string{fieldName}, ft)
			cur = ft
			i += 2
		case lexer.KindLBracket:
			closeIdx, err := findMatchingBracket(rest, i)
			if err != nil {
				return nil, err
			}
			if !cur.IsArray() {
				return nil, diag.New(diag.KindTypeMismatch, rest[i].Position, "%s is not an array", cur)
			}
			idxExpr, err := g.parseExpr(rest[i+1:closeIdx], sc)
			if err != nil {
				return nil, err
			}
			elem := types.ElemType(cur)
			base = ast.NewArrRef(base.Pos(), rest[closeIdx].Position, base, idxExpr, elem)
			cur = elem
			i = closeIdx + 1
		default:
			return nil, diag.New(diag.KindUnknownSymbol, rest[i].Position, "unexpected token %s after %q", rest[i].Kind, name)
		}
	}
	return base, nil
}
