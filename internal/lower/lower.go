// Package lower converts the typed ast tree astgen produces into the typed
// SSA form tir.Builder assembles: function entry, expression and
// control-flow lowering, and the heap-allocation reference bookkeeping a
// downstream lifetime pass will eventually consume. It never invents
// semantics astgen hasn't already checked; its job is choosing which
// tir.Builder calls realize a given ast node.
package lower

import (
	"fmt"

	"github.com/hassan/toyc/internal/abi"
	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/tir"
	"github.com/hassan/toyc/internal/types"
)

// builtins is the fixed set of names astgen resolves directly rather than
// through a user or extern declaration; lowering dispatches each to its
// own runtime sequence instead of a plain Call.
var builtins = map[string]bool{
	"print": true, "println": true, "len": true,
	"str": true, "bool": true, "int": true, "float": true, "input": true,
}

type loopCtx struct {
	header tir.BlockID
	exit   tir.BlockID
}

// Lowerer drives one compilation unit's worth of ast.Stmt into a
// tir.Builder. It is not safe for concurrent use; nothing in the pipeline
// needs it to be (see section 5's single-threaded model).
type Lowerer struct {
	b *tir.Builder

	structs map[string]types.Tag

	scope *varScope
	loops []loopCtx
}

// Lower builds a tir.Builder out of a flat top-level statement list. isMain
// controls whether the non-declaration statements are wrapped in a
// synthesized user_main, per section 4.4.1: a library unit (isMain false)
// registers its structs/externs/functions but emits no entry point.
func Lower(stmts []ast.Stmt, isMain bool) (*tir.Builder, error) {
	b := tir.NewBuilder()
	abi.RegisterAll(b)
	l := &Lowerer{b: b, structs: make(map[string]types.Tag)}

	var structDecls []*ast.StructInterface
	var externDecls []*ast.ExternFuncDec
	var funcDecls []*ast.FuncDec
	var mainBody []ast.Stmt
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.StructInterface:
			structDecls = append(structDecls, v)
		case *ast.ExternFuncDec:
			externDecls = append(externDecls, v)
		case *ast.FuncDec:
			funcDecls = append(funcDecls, v)
		default:
			mainBody = append(mainBody, s)
		}
	}

	for _, sd := range structDecls {
		fields := make([]types.Field, len(sd.Fields))
		names := make([]string, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = types.Field{Name: f.Name, Type: f.Type}
			names[i] = f.Name
		}
		// sd.Fields already arrives in canonical alphabetical order (astgen
		// built it straight from the registered types.Tag), so NewStruct's
		// own sort here is a no-op; calling it means lowering applies the
		// canonical order itself rather than trusting the caller.
		tag := types.NewStruct(sd.Name, fields)
		l.structs[sd.Name] = tag
		canonicalNames := make([]string, len(tag.Fields))
		for i, f := range tag.Fields {
			canonicalNames[i] = f.Name
		}
		b.CreateStructInterface(sd.Name, canonicalNames)
	}

	for _, ed := range externDecls {
		if _, ok := abi.Lookup(ed.Name); ok {
			// Already registered with its real ABI shape; a source-level
			// extern declaration for a runtime name is just documentation.
			continue
		}
		paramTypes := make([]tir.Type, len(ed.Params))
		for i, p := range ed.Params {
			paramTypes[i] = tir.TypeTagToType(p.Type)
		}
		b.RegisterExtern(ed.Name, paramTypes, tir.TypeTagToType(ed.RetType), false)
	}

	for _, fd := range funcDecls {
		b.DeclareFunc(fd.Name, tir.TypeTagToType(fd.RetType))
	}
	for _, fd := range funcDecls {
		if err := l.lowerFuncDecl(fd); err != nil {
			return nil, err
		}
	}

	if isMain {
		if err := l.lowerMain(mainBody); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (l *Lowerer) lowerFuncDecl(fd *ast.FuncDec) error {
	paramNames := make([]string, len(fd.Params))
	paramTypes := make([]tir.Type, len(fd.Params))
	for i, p := range fd.Params {
		paramNames[i] = p.Name
		paramTypes[i] = tir.TypeTagToType(p.Type)
	}
	idx := l.b.NewFunc(fd.Name, paramNames, paramTypes, tir.TypeTagToType(fd.RetType))

	prevScope := l.scope
	l.scope = newVarScope(nil)
	for i, p := range fd.Params {
		l.scope.define(p.Name, l.b.Functions[idx].Params[i].Value)
	}
	err := l.lowerStmts(fd.Body)
	l.scope = prevScope
	if err != nil {
		return err
	}
	l.terminateFunction(fd.RetType)
	return nil
}

// lowerMain lowers every top-level non-declaration statement as the body
// of a synthesized user_main returning int, implicitly ending with
// `IConst 0; Ret` when the body falls off the end without an explicit
// return (section 4.4.3).
func (l *Lowerer) lowerMain(body []ast.Stmt) error {
	l.b.NewFunc("user_main", nil, nil, tir.I64)
	prevScope := l.scope
	l.scope = newVarScope(nil)
	err := l.lowerStmts(body)
	l.scope = prevScope
	if err != nil {
		return err
	}
	l.terminateFunction(types.Int)
	return nil
}

func (l *Lowerer) terminateFunction(ret types.Tag) {
	if l.b.BlockHasTerminator(l.b.CurrentBlock()) {
		return
	}
	if ret.Kind == types.KindVoid {
		l.b.Ret(nil)
		return
	}
	zero := l.zeroValue(ret)
	l.b.Ret(&zero)
}

func (l *Lowerer) zeroValue(t types.Tag) tir.SsaValue {
	switch tir.TypeTagToType(t) {
	case tir.F64:
		return l.b.FConst(0)
	case tir.I1:
		return l.b.BConst(false)
	case tir.I8PTR:
		return l.b.Retype(l.b.IConst(0), tir.I8PTR)
	default:
		return l.b.IConst(0)
	}
}

func undefinedVariable(name string, pos lexer.Position) error {
	return diag.New(diag.KindUndefinedVariable, pos, "undefined variable %q", name)
}

func (l *Lowerer) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("lower: "+format, args...)
}
