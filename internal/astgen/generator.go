// Package astgen turns a boxer.Box stream into a typed ast tree: it resolves
// every name against a scope, infers or checks every expression's type, and
// picks which concrete function a call actually targets.
package astgen

import (
	"strings"

	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/boxer"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/session"
	"github.com/hassan/toyc/internal/types"
)

// ModuleLoader resolves a dotted import path to the module's raw source, so
// Generator can lex, box, and merge it without knowing how modules are
// actually stored (filesystem, embedded, a package registry, ...).
type ModuleLoader interface {
	LoadModule(path string) ([]byte, error)
}

type funcSig struct {
	Params []types.Tag
	Ret    types.Tag
}

// Generator builds the ast tree for one compilation unit, registering every
// struct, extern, and function signature before lowering any body so a
// function can call another declared later in the same file.
type Generator struct {
	sess   *session.Session
	loader ModuleLoader

	structs  map[string]types.Tag
	externs  map[string]funcSig
	funcSigs map[string]funcSig

	curRetType types.Tag
}

// New returns a Generator. loader may be nil if the unit being generated is
// known not to use import statements.
func New(sess *session.Session, loader ModuleLoader) *Generator {
	return &Generator{
		sess:     sess,
		loader:   loader,
		structs:  make(map[string]types.Tag),
		externs:  make(map[string]funcSig),
		funcSigs: make(map[string]funcSig),
	}
}

// scope is a lexical chain of name-to-type bindings, one link per block.
type scope struct {
	vars   map[string]types.Tag
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]types.Tag), parent: parent}
}

func (s *scope) define(name string, t types.Tag) {
	s.vars[name] = t
}

func (s *scope) lookup(name string) (types.Tag, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return types.Tag{}, false
}

// Generate lowers every box in boxes into a top-level ast.Stmt, running
// imports first, then registering every struct/extern/function signature so
// forward references resolve, then lowering bodies in source order.
func (g *Generator) Generate(boxes []boxer.Box) ([]ast.Stmt, error) {
	var importedOut []ast.Stmt
	for _, b := range boxes {
		if imp, ok := b.(*boxer.ImportStmt); ok {
			stmts, err := g.processImport(imp)
			if err != nil {
				return nil, err
			}
			importedOut = append(importedOut, stmts...)
		}
	}

	for _, b := range boxes {
		if si, ok := b.(*boxer.StructInterface); ok {
			if err := g.registerStruct(si); err != nil {
				return nil, err
			}
		}
	}
	for _, b := range boxes {
		if ed, ok := b.(*boxer.ExternFuncDec); ok {
			if err := g.registerExtern(ed); err != nil {
				return nil, err
			}
		}
	}
	funcKeys := make(map[*boxer.FuncDec]string)
	for _, b := range boxes {
		if fd, ok := b.(*boxer.FuncDec); ok {
			key, err := g.registerFuncDec(fd)
			if err != nil {
				return nil, err
			}
			funcKeys[fd] = key
		}
	}

	var out []ast.Stmt
	for _, b := range boxes {
		switch v := b.(type) {
		case *boxer.StructInterface:
			tag := g.structs[v.Name.Text]
			fields := make([]ast.FuncParam, len(tag.Fields))
			for i, f := range tag.Fields {
				fields[i] = ast.FuncParam{Name: f.Name, Type: f.Type}
			}
			out = append(out, ast.NewStructInterface(v.Span().Start, v.Span().End, v.Name.Text, fields))
		case *boxer.ExternFuncDec:
			sig := g.externs[v.Name.Text]
			params := make([]ast.FuncParam, len(v.Params))
			for i, p := range v.Params {
				params[i] = ast.FuncParam{Name: p.Name.Text, Type: sig.Params[i]}
			}
			out = append(out, ast.NewExternFuncDec(v.Span().Start, v.Span().End, v.Name.Text, params, sig.Ret))
		case *boxer.FuncDec:
			key := funcKeys[v]
			sig := g.funcSigs[key]
			fnScope := newScope(nil)
			params := make([]ast.FuncParam, len(v.Params))
			for i, p := range v.Params {
				params[i] = ast.FuncParam{Name: p.Name.Text, Type: sig.Params[i]}
				fnScope.define(p.Name.Text, sig.Params[i])
			}
			prevRet := g.curRetType
			g.curRetType = sig.Ret
			body, err := g.lowerBlock(v.Body, fnScope, false)
			g.curRetType = prevRet
			if err != nil {
				return nil, err
			}
			out = append(out, ast.NewFuncDec(v.Span().Start, v.Span().End, key, params, sig.Ret, body))
		case *boxer.ImportStmt:
			// handled in the import pass above; contributes no node of its own.
		}
	}
	return append(importedOut, out...), nil
}

func (g *Generator) processImport(imp *boxer.ImportStmt) ([]ast.Stmt, error) {
	if g.loader == nil {
		return nil, diag.New(diag.KindImportNotFound, imp.Span().Start, "no module loader configured for import %q", imp.Path)
	}
	src, err := g.loader.LoadModule(imp.Path)
	if err != nil {
		return nil, diag.Wrap(diag.KindImportNotFound, imp.Span().Start, err, "failed to load module %q", imp.Path)
	}
	hash, err := session.ModuleContentHash(src)
	if err != nil {
		return nil, diag.Wrap(diag.KindImportNotFound, imp.Span().Start, err, "failed to hash module %q", imp.Path)
	}
	if _, ok := g.sess.CacheGet(hash); ok {
		return nil, nil
	}
	g.sess.CachePut(hash, true)

	l := lexer.New(string(src), imp.Path)
	var toks []lexer.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, diag.Wrap(diag.KindImportNotFound, imp.Span().Start, err, "failed to lex module %q", imp.Path)
		}
		toks = append(toks, tok)
		if tok.Kind == lexer.KindEOF {
			break
		}
	}
	moduleBoxes, err := boxer.New(toks).BoxAll()
	if err != nil {
		return nil, diag.Wrap(diag.KindImportNotFound, imp.Span().Start, err, "failed to box module %q", imp.Path)
	}
	return g.Generate(moduleBoxes)
}

func (g *Generator) resolveTypeExpr(te boxer.TypeExpr) (types.Tag, error) {
	if len(te) == 0 {
		return types.Void, nil
	}
	base := te.Base()
	var t types.Tag
	switch base.Kind {
	case lexer.KindTypeInt:
		t = types.Int
	case lexer.KindTypeFloat:
		t = types.Float
	case lexer.KindTypeBool:
		t = types.Bool
	case lexer.KindTypeStr:
		t = types.Str
	case lexer.KindTypeVoid:
		t = types.Void
	case lexer.KindIdent:
		st, ok := g.structs[base.Text]
		if !ok {
			return types.Tag{}, diag.New(diag.KindUndefinedStruct, base.Position, "undefined struct %q", base.Text)
		}
		t = st
	default:
		return types.Tag{}, diag.New(diag.KindMalformedLetStatement, base.Position, "invalid type token %s", base.Kind)
	}
	for i := 0; i < te.ArrayDepth(); i++ {
		t = types.ArrayOf(t)
	}
	return t, nil
}

func (g *Generator) registerStruct(si *boxer.StructInterface) error {
	if _, exists := g.structs[si.Name.Text]; exists {
		return diag.New(diag.KindDuplicateDeclaration, si.Name.Position, "struct %q already declared", si.Name.Text)
	}
	fields := make([]types.Field, len(si.Fields))
	for i, f := range si.Fields {
		t, err := g.resolveTypeExpr(f.Type)
		if err != nil {
			return err
		}
		fields[i] = types.Field{Name: f.Name.Text, Type: t}
	}
	g.structs[si.Name.Text] = types.NewStruct(si.Name.Text, fields)
	return nil
}

func (g *Generator) registerExtern(ed *boxer.ExternFuncDec) error {
	if _, exists := g.externs[ed.Name.Text]; exists {
		return diag.New(diag.KindDuplicateDeclaration, ed.Name.Position, "extern %q already declared", ed.Name.Text)
	}
	params := make([]types.Tag, len(ed.Params))
	for i, p := range ed.Params {
		t, err := g.resolveTypeExpr(p.Type)
		if err != nil {
			return err
		}
		params[i] = t
	}
	ret, err := g.resolveTypeExpr(ed.RetType)
	if err != nil {
		return err
	}
	g.externs[ed.Name.Text] = funcSig{Params: params, Ret: ret}
	return nil
}

func (g *Generator) registerFuncDec(fd *boxer.FuncDec) (string, error) {
	params := make([]types.Tag, len(fd.Params))
	for i, p := range fd.Params {
		t, err := g.resolveTypeExpr(p.Type)
		if err != nil {
			return "", err
		}
		params[i] = t
	}
	ret, err := g.resolveTypeExpr(fd.RetType)
	if err != nil {
		return "", err
	}
	sig := funcSig{Params: params, Ret: ret}

	key := fd.Name.Text
	if !strings.Contains(key, ":::") {
		key = mangle(fd.Name.Text, params)
	}
	if _, exists := g.funcSigs[key]; exists {
		return "", diag.New(diag.KindDuplicateDeclaration, fd.Name.Position, "function %q already declared with this signature", fd.Name.Text)
	}
	g.funcSigs[key] = sig
	return key, nil
}
