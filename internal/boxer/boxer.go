package boxer

import (
	"github.com/hassan/toyc/internal/lexer"
)

// Boxer walks a flat token slice and groups it into Box values, tracking
// paren/bracket/brace depth so nested expressions never get mistaken for
// statement boundaries.
type Boxer struct {
	toks []lexer.Token
	pos  int
}

// New returns a Boxer over toks. toks must already include a trailing
// KindEOF token.
func New(toks []lexer.Token) *Boxer {
	return &Boxer{toks: toks}
}

// BoxAll boxes every statement until EOF.
func (b *Boxer) BoxAll() ([]Box, error) {
	var boxes []Box
	for !b.atEOF() {
		if b.cur().Kind == lexer.KindFor {
			methods, err := b.boxMethodBlockFlat()
			if err != nil {
				return nil, err
			}
			boxes = append(boxes, methods...)
			continue
		}
		box, err := b.boxOne()
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

func (b *Boxer) atEOF() bool {
	return b.cur().Kind == lexer.KindEOF
}

func (b *Boxer) cur() lexer.Token {
	if b.pos >= len(b.toks) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return b.toks[b.pos]
}

func (b *Boxer) peekAt(offset int) lexer.Token {
	i := b.pos + offset
	if i >= len(b.toks) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return b.toks[i]
}

func (b *Boxer) advance() lexer.Token {
	t := b.cur()
	if b.pos < len(b.toks) {
		b.pos++
	}
	return t
}

func (b *Boxer) expect(kind lexer.Kind, what string) (lexer.Token, error) {
	if b.cur().Kind != kind {
		return lexer.Token{}, errAt(ExpectedToken, b.cur().Position, "expected %s, got %s", what, b.cur().Kind)
	}
	return b.advance(), nil
}

// readTypeTokens consumes a type annotation: a run of `[` `]` pairs marking
// array depth, followed by a base type token (a primitive keyword or a
// struct name identifier).
func (b *Boxer) readTypeTokens() (TypeExpr, error) {
	var toks TypeExpr
	for b.cur().Kind == lexer.KindLBracket {
		lb := b.advance()
		rb, err := b.expect(lexer.KindRBracket, "']'")
		if err != nil {
			return nil, err
		}
		toks = append(toks, lb, rb)
	}
	base := b.cur()
	if !base.IsType() && base.Kind != lexer.KindIdent {
		return nil, errAt(MalformedLetStatement, base.Position, "expected type")
	}
	b.advance()
	toks = append(toks, base)
	return toks, nil
}

func (b *Boxer) boxOne() (Box, error) {
	switch b.cur().Kind {
	case lexer.KindLet:
		return b.boxVarDec()
	case lexer.KindIf:
		return b.boxIf()
	case lexer.KindWhile:
		return b.boxWhile()
	case lexer.KindFn:
		return b.boxFuncDec()
	case lexer.KindExtern:
		return b.boxExternFuncDec()
	case lexer.KindStruct:
		return b.boxStructInterface()
	case lexer.KindReturn:
		return b.boxReturn()
	case lexer.KindBreak:
		return b.boxBreak()
	case lexer.KindContinue:
		return b.boxContinue()
	case lexer.KindImport:
		return b.boxImport()
	default:
		return b.boxAssignOrExpr()
	}
}

// boxBlock consumes `{ BODY }`, recursively boxing BODY.
func (b *Boxer) boxBlock() ([]Box, error) {
	if _, err := b.expect(lexer.KindLBrace, "{"); err != nil {
		return nil, err
	}
	var body []Box
	for b.cur().Kind != lexer.KindRBrace {
		if b.atEOF() {
			return nil, errAt(UnclosedDelimiter, b.cur().Position, "unclosed '{'")
		}
		box, err := b.boxOne()
		if err != nil {
			return nil, err
		}
		body = append(body, box)
	}
	b.advance() // consume '}'
	return body, nil
}

// scanUntilTopLevel collects tokens (not including the stop token) until it
// sees one of stopKinds at bracket/paren/brace depth zero.
func (b *Boxer) scanUntilTopLevel(stopKinds ...lexer.Kind) ([]lexer.Token, lexer.Kind, error) {
	depth := 0
	start := b.pos
	for {
		cur := b.cur()
		if cur.Kind == lexer.KindEOF {
			return nil, lexer.KindEOF, errAt(UnclosedDelimiter, cur.Position, "unexpected end of input")
		}
		if depth == 0 {
			for _, sk := range stopKinds {
				if cur.Kind == sk {
					toks := append([]lexer.Token{}, b.toks[start:b.pos]...)
					return toks, sk, nil
				}
			}
		}
		switch cur.Kind {
		case lexer.KindLParen, lexer.KindLBracket, lexer.KindLBrace:
			depth++
		case lexer.KindRParen, lexer.KindRBracket, lexer.KindRBrace:
			depth--
		}
		b.advance()
	}
}

func (b *Boxer) boxVarDec() (Box, error) {
	start := b.cur().Position
	b.advance() // let
	name, err := b.expect(lexer.KindIdent, "variable name")
	if err != nil {
		return nil, err
	}
	var typ TypeExpr
	if b.cur().Kind == lexer.KindColon {
		b.advance()
		tt, err := b.readTypeTokens()
		if err != nil {
			return nil, err
		}
		typ = tt
	}
	if _, err := b.expect(lexer.KindAssign, "'='"); err != nil {
		return nil, errAt(MalformedLetStatement, b.cur().Position, "expected '=' in let statement")
	}
	value, _, err := b.scanUntilTopLevel(lexer.KindSemicolon)
	if err != nil {
		return nil, err
	}
	end := b.cur().Position
	b.advance() // ;
	return &VarDec{base: base{lexer.Span{Start: start, End: end}}, Name: name, Type: typ, Value: value}, nil
}

func (b *Boxer) boxIf() (Box, error) {
	start := b.cur().Position
	b.advance() // if
	if _, err := b.expect(lexer.KindLParen, "'('"); err != nil {
		return nil, err
	}
	cond, _, err := b.scanUntilTopLevel(lexer.KindRParen)
	if err != nil {
		return nil, err
	}
	b.advance() // )
	body, err := b.boxBlock()
	if err != nil {
		return nil, err
	}
	var alt []Box
	if b.cur().Kind == lexer.KindElse {
		b.advance()
		alt, err = b.boxBlock()
		if err != nil {
			return nil, err
		}
	}
	end := b.peekAt(-1).Position
	return &IfStmt{base: base{lexer.Span{Start: start, End: end}}, Cond: cond, Body: body, Alt: alt}, nil
}

func (b *Boxer) boxWhile() (Box, error) {
	start := b.cur().Position
	b.advance() // while
	if _, err := b.expect(lexer.KindLParen, "'('"); err != nil {
		return nil, errAt(MalformedWhileStatement, b.cur().Position, "expected '(' after while")
	}
	cond, _, err := b.scanUntilTopLevel(lexer.KindRParen)
	if err != nil {
		return nil, err
	}
	b.advance() // )
	body, err := b.boxBlock()
	if err != nil {
		return nil, err
	}
	end := b.peekAt(-1).Position
	return &While{base: base{lexer.Span{Start: start, End: end}}, Cond: cond, Body: body}, nil
}

func (b *Boxer) boxParams() ([]FuncParam, error) {
	if _, err := b.expect(lexer.KindLParen, "'('"); err != nil {
		return nil, err
	}
	var params []FuncParam
	for b.cur().Kind != lexer.KindRParen {
		name, err := b.expect(lexer.KindIdent, "parameter name")
		if err != nil {
			return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected parameter name")
		}
		if _, err := b.expect(lexer.KindColon, "':'"); err != nil {
			return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected ':' after parameter name")
		}
		typ, err := b.readTypeTokens()
		if err != nil {
			return nil, err
		}
		params = append(params, FuncParam{Name: name, Type: typ})
		if b.cur().Kind == lexer.KindComma {
			b.advance()
		}
	}
	b.advance() // )
	return params, nil
}

func (b *Boxer) boxRetType() (TypeExpr, error) {
	if b.cur().Kind == lexer.KindColon {
		b.advance()
		return b.readTypeTokens()
	}
	return nil, nil
}

func (b *Boxer) boxFuncDec() (Box, error) {
	start := b.cur().Position
	b.advance() // fn
	name, err := b.expect(lexer.KindIdent, "function name")
	if err != nil {
		return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected function name")
	}
	params, err := b.boxParams()
	if err != nil {
		return nil, err
	}
	ret, err := b.boxRetType()
	if err != nil {
		return nil, err
	}
	body, err := b.boxBlock()
	if err != nil {
		return nil, err
	}
	end := b.peekAt(-1).Position
	return &FuncDec{base: base{lexer.Span{Start: start, End: end}}, Name: name, Params: params, RetType: ret, Body: body}, nil
}

func (b *Boxer) boxExternFuncDec() (Box, error) {
	start := b.cur().Position
	b.advance() // extern
	if _, err := b.expect(lexer.KindFn, "'fn'"); err != nil {
		return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected 'fn' after extern")
	}
	name, err := b.expect(lexer.KindIdent, "function name")
	if err != nil {
		return nil, err
	}
	params, err := b.boxParams()
	if err != nil {
		return nil, err
	}
	ret, err := b.boxRetType()
	if err != nil {
		return nil, err
	}
	if _, err := b.expect(lexer.KindSemicolon, "';'"); err != nil {
		return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected ';' after extern declaration")
	}
	end := b.peekAt(-1).Position
	return &ExternFuncDec{base: base{lexer.Span{Start: start, End: end}}, Name: name, Params: params, RetType: ret}, nil
}

func (b *Boxer) boxStructInterface() (Box, error) {
	start := b.cur().Position
	b.advance() // struct
	name, err := b.expect(lexer.KindIdent, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err := b.expect(lexer.KindLBrace, "'{'"); err != nil {
		return nil, err
	}
	var fields []FuncParam
	for b.cur().Kind != lexer.KindRBrace {
		fname, err := b.expect(lexer.KindIdent, "field name")
		if err != nil {
			return nil, errAt(MalformedStructField, b.cur().Position, "expected field name")
		}
		if _, err := b.expect(lexer.KindColon, "':'"); err != nil {
			return nil, errAt(MalformedStructField, b.cur().Position, "expected ':' after field name")
		}
		ftype, err := b.readTypeTokens()
		if err != nil {
			return nil, err
		}
		fields = append(fields, FuncParam{Name: fname, Type: ftype})
		if b.cur().Kind == lexer.KindComma {
			b.advance()
		}
	}
	b.advance() // }
	end := b.peekAt(-1).Position
	return &StructInterface{base: base{lexer.Span{Start: start, End: end}}, Name: name, Fields: fields}, nil
}

// boxMethodBlockFlat desugars `for Struct { fn m(p: T): R {...} ... }` into
// one FuncDec per method, named "Struct:::m" with a prepended `this`
// parameter. It returns every method in the block, since a struct method
// block is the one construct that boxes to more than one top-level Box;
// BoxAll calls this directly instead of going through boxOne.
func (b *Boxer) boxMethodBlockFlat() ([]Box, error) {
	b.advance() // for
	structName, err := b.expect(lexer.KindIdent, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err := b.expect(lexer.KindLBrace, "'{'"); err != nil {
		return nil, err
	}
	var methods []Box
	for b.cur().Kind != lexer.KindRBrace {
		if b.atEOF() {
			return nil, errAt(UnclosedDelimiter, b.cur().Position, "unclosed method block")
		}
		start := b.cur().Position
		if _, err := b.expect(lexer.KindFn, "'fn'"); err != nil {
			return nil, errAt(MalformedFunctionDeclaration, b.cur().Position, "expected 'fn' in method block")
		}
		mname, err := b.expect(lexer.KindIdent, "method name")
		if err != nil {
			return nil, err
		}
		params, err := b.boxParams()
		if err != nil {
			return nil, err
		}
		thisParam := FuncParam{
			Name: lexer.Token{Kind: lexer.KindThis, Text: "this"},
			Type: TypeExpr{structName},
		}
		params = append([]FuncParam{thisParam}, params...)
		ret, err := b.boxRetType()
		if err != nil {
			return nil, err
		}
		body, err := b.boxBlock()
		if err != nil {
			return nil, err
		}
		end := b.peekAt(-1).Position
		mangled := mname
		mangled.Text = structName.Text + ":::" + mname.Text
		methods = append(methods, &FuncDec{
			base:    base{lexer.Span{Start: start, End: end}},
			Name:    mangled,
			Params:  params,
			RetType: ret,
			Body:    body,
		})
	}
	b.advance() // }
	return methods, nil
}

func (b *Boxer) boxReturn() (Box, error) {
	start := b.cur().Position
	b.advance() // return
	value, _, err := b.scanUntilTopLevel(lexer.KindSemicolon)
	if err != nil {
		return nil, err
	}
	end := b.cur().Position
	b.advance() // ;
	return &Return{base: base{lexer.Span{Start: start, End: end}}, Value: value}, nil
}

func (b *Boxer) boxBreak() (Box, error) {
	start := b.cur().Position
	b.advance() // break
	end, err := b.expect(lexer.KindSemicolon, "';'")
	if err != nil {
		return nil, err
	}
	return &Break{base{lexer.Span{Start: start, End: end.Position}}}, nil
}

func (b *Boxer) boxContinue() (Box, error) {
	start := b.cur().Position
	b.advance() // continue
	end, err := b.expect(lexer.KindSemicolon, "';'")
	if err != nil {
		return nil, err
	}
	return &Continue{base{lexer.Span{Start: start, End: end.Position}}}, nil
}

func (b *Boxer) boxImport() (Box, error) {
	start := b.cur().Position
	b.advance() // import
	path := ""
	for b.cur().Kind != lexer.KindSemicolon {
		if b.atEOF() {
			return nil, errAt(UnclosedDelimiter, b.cur().Position, "unclosed import statement")
		}
		if b.cur().Kind == lexer.KindDot {
			path += "."
		} else {
			path += b.cur().Text
		}
		b.advance()
	}
	end := b.cur().Position
	b.advance() // ;
	return &ImportStmt{base: base{lexer.Span{Start: start, End: end}}, Path: path}, nil
}

// boxAssignOrExpr handles the four statement shapes that start with an
// identifier: plain assignment, struct-field reassignment, array-element
// reassignment, and bare expression statements (most often calls).
// Compound assignment (+= etc.) and postfix ++ are desugared here into
// their equivalent plain Assign so downstream packages only ever see one
// assignment shape.
func (b *Boxer) boxAssignOrExpr() (Box, error) {
	start := b.cur().Position
	lhs, stop, err := b.scanUntilTopLevel(
		lexer.KindAssign, lexer.KindPlusEq, lexer.KindMinusEq, lexer.KindStarEq,
		lexer.KindSlashEq, lexer.KindPercentEq, lexer.KindPlusPlus, lexer.KindSemicolon,
	)
	if err != nil {
		return nil, err
	}

	if stop == lexer.KindSemicolon {
		end := b.cur().Position
		b.advance() // ;
		return &ExprStmt{base: base{lexer.Span{Start: start, End: end}}, Tokens: lhs}, nil
	}

	opTok := b.advance() // the assign-like operator

	var rhs []lexer.Token
	switch opTok.Kind {
	case lexer.KindAssign:
		rhs, _, err = b.scanUntilTopLevel(lexer.KindSemicolon)
		if err != nil {
			return nil, err
		}
	case lexer.KindPlusPlus:
		rhs = append(append([]lexer.Token{}, lhs...),
			lexer.Token{Kind: lexer.KindPlus, Text: "+"},
			lexer.Token{Kind: lexer.KindInt, Text: "1", IntVal: 1},
		)
	default:
		binOp := compoundOpToBinary(opTok.Kind)
		expr, _, scanErr := b.scanUntilTopLevel(lexer.KindSemicolon)
		if scanErr != nil {
			return nil, scanErr
		}
		rhs = append(append([]lexer.Token{}, lhs...), binOp)
		rhs = append(rhs, expr...)
	}

	end := b.cur().Position
	if _, err := b.expect(lexer.KindSemicolon, "';'"); err != nil {
		return nil, err
	}

	return buildAssignBox(lexer.Span{Start: start, End: end}, lhs, rhs)
}

func compoundOpToBinary(k lexer.Kind) lexer.Token {
	switch k {
	case lexer.KindPlusEq:
		return lexer.Token{Kind: lexer.KindPlus, Text: "+"}
	case lexer.KindMinusEq:
		return lexer.Token{Kind: lexer.KindMinus, Text: "-"}
	case lexer.KindStarEq:
		return lexer.Token{Kind: lexer.KindStar, Text: "*"}
	case lexer.KindSlashEq:
		return lexer.Token{Kind: lexer.KindSlash, Text: "/"}
	case lexer.KindPercentEq:
		return lexer.Token{Kind: lexer.KindPercent, Text: "%"}
	default:
		return lexer.Token{Kind: lexer.KindPlus, Text: "+"}
	}
}

// buildAssignBox decides, from the shape of lhs, whether this is a plain
// Assign, a StructReassign (NAME.f1.f2...), or an ArrReassign (NAME[idx]).
func buildAssignBox(span lexer.Span, lhs, rhs []lexer.Token) (Box, error) {
	if len(lhs) == 0 {
		return nil, errAt(ExpectedName, span.Start, "missing assignment target")
	}
	name := lhs[0]
	if name.Kind != lexer.KindIdent && name.Kind != lexer.KindThis {
		return nil, errAt(ExpectedName, name.Position, "expected identifier on left side of assignment")
	}

	if len(lhs) == 1 {
		return &Assign{base: base{span}, Name: name, Value: rhs}, nil
	}

	if lhs[1].Kind == lexer.KindDot {
		var fields []string
		for i := 1; i < len(lhs); i += 2 {
			if lhs[i].Kind != lexer.KindDot || i+1 >= len(lhs) || lhs[i+1].Kind != lexer.KindIdent {
				return nil, errAt(UnknownSymbol, lhs[i].Position, "malformed struct field path")
			}
			fields = append(fields, lhs[i+1].Text)
		}
		return &StructReassign{base: base{span}, Name: name, Fields: fields, Value: rhs}, nil
	}

	if lhs[1].Kind == lexer.KindLBracket {
		idx := lhs[2 : len(lhs)-1]
		return &ArrReassign{base: base{span}, Name: name, Index: idx, Value: rhs}, nil
	}

	return nil, errAt(UnknownSymbol, lhs[1].Position, "unrecognized assignment target shape")
}
