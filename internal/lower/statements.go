package lower

import (
	"sort"

	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/tir"
	"github.com/hassan/toyc/internal/types"
)

func (l *Lowerer) lowerStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := l.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) lowerStmt(s ast.Stmt) error {
	switch v := s.(type) {
	case *ast.VarDec:
		val, err := l.lowerExpr(v.Value)
		if err != nil {
			return err
		}
		l.scope.define(v.Name, val)
		return nil
	case *ast.Assignment:
		val, err := l.lowerExpr(v.Value)
		if err != nil {
			return err
		}
		if !l.scope.rebind(v.Name, val) {
			return undefinedVariable(v.Name, v.Pos())
		}
		return nil
	case *ast.StructFieldAssign:
		return l.lowerStructFieldAssign(v)
	case *ast.ArrAssign:
		return l.lowerArrAssign(v)
	case *ast.IfStmt:
		return l.lowerIf(v)
	case *ast.WhileStmt:
		return l.lowerWhile(v)
	case *ast.ReturnStmt:
		return l.lowerReturn(v)
	case *ast.BreakStmt:
		return l.lowerBreak(v)
	case *ast.ContinueStmt:
		return l.lowerContinue(v)
	case *ast.ExprStmt:
		_, err := l.lowerExpr(v.Value)
		return err
	case *ast.FuncDec, *ast.ExternFuncDec, *ast.StructInterface:
		// handled by Lower's top-level declaration pass before any body is
		// lowered; a nested occurrence can't happen, astgen only emits
		// these at top level.
		return nil
	default:
		return l.errorf("unhandled statement %T", s)
	}
}

// lowerStructFieldAssign lowers `a.b.c = value`: every field but the last
// is a ReadStructLiteral hop to reach the owning struct, and the last
// field is the WriteStructLiteral target.
func (l *Lowerer) lowerStructFieldAssign(v *ast.StructFieldAssign) error {
	base, err := l.lowerExpr(v.Base)
	if err != nil {
		return err
	}
	curType := v.Base.Type()
	for i := 0; i < len(v.Fields)-1; i++ {
		idx, fieldType, err := l.fieldIndex(curType, v.Fields[i], v.Pos())
		if err != nil {
			return err
		}
		base = l.b.ReadStructLiteral(curType.StructName, base, idx, tir.TypeTagToType(fieldType))
		curType = fieldType
	}
	last := v.Fields[len(v.Fields)-1]
	idx, _, err := l.fieldIndex(curType, last, v.Pos())
	if err != nil {
		return err
	}
	value, err := l.lowerExpr(v.Value)
	if err != nil {
		return err
	}
	l.b.WriteStructLiteral(curType.StructName, base, idx, value)
	return nil
}

// fieldIndex looks up name's canonical position and type within struct
// type t.
func (l *Lowerer) fieldIndex(t types.Tag, name string, pos lexer.Position) (int, types.Tag, error) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, f.Type, nil
		}
	}
	return 0, types.Tag{}, diag.New(diag.KindUndefinedField, pos, "undefined field %q on %s", name, t)
}

func (l *Lowerer) lowerArrAssign(v *ast.ArrAssign) error {
	base, err := l.lowerExpr(v.Base)
	if err != nil {
		return err
	}
	idx, err := l.lowerExpr(v.Index)
	if err != nil {
		return err
	}
	value, err := l.lowerExpr(v.Value)
	if err != nil {
		return err
	}
	typeCode := l.b.IConst(int64(tir.InjectTypeCode(v.Value.Type())))
	_, err = l.b.Call("toy_write_to_arr", []tir.SsaValue{base, value, idx, typeCode})
	return err
}

func (l *Lowerer) lowerIf(v *ast.IfStmt) error {
	cond, err := l.lowerExpr(v.Cond)
	if err != nil {
		return err
	}
	if len(v.Alt) == 0 {
		// JumpCond's second block doubles as both the false-edge target and
		// the merge point: with no else, falling through the condition false
		// and falling off the end of the then-body land in the same place.
		thenBlock, mergeBlock := l.b.JumpCond(cond)
		if err := l.lowerBranchTo(thenBlock, v.Body, mergeBlock); err != nil {
			return err
		}
		l.b.SwitchBlock(mergeBlock)
		return nil
	}
	thenBlock, elseBlock := l.b.JumpCond(cond)
	mergeBlock := l.b.CreateBlock()
	if err := l.lowerBranchTo(thenBlock, v.Body, mergeBlock); err != nil {
		return err
	}
	if err := l.lowerBranchTo(elseBlock, v.Alt, mergeBlock); err != nil {
		return err
	}
	l.b.SwitchBlock(mergeBlock)
	return nil
}

func (l *Lowerer) lowerBranchTo(block tir.BlockID, body []ast.Stmt, target tir.BlockID) error {
	l.b.SwitchBlock(block)
	l.scope = newVarScope(l.scope)
	err := l.lowerStmts(body)
	l.scope = l.scope.parent
	if err != nil {
		return err
	}
	if !l.b.BlockHasTerminator(l.b.CurrentBlock()) {
		l.b.JumpBlockUnCond(target)
	}
	return nil
}

func (l *Lowerer) lowerWhile(v *ast.WhileStmt) error {
	entryBlock := l.b.CurrentBlock()
	header := l.b.CreateBlock()
	l.b.JumpBlockUnCond(header)

	names := map[string]bool{}
	collectAssignedNames(v.Body, names)
	type phiCand struct {
		name string
		old  tir.SsaValue
		dest tir.SsaValue
	}
	var cands []phiCand
	for name := range names {
		old, ok := l.scope.lookup(name)
		if !ok {
			continue
		}
		cands = append(cands, phiCand{name: name, old: old, dest: l.b.ReservePhi(old.Type)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].name < cands[j].name })
	for _, c := range cands {
		l.scope.rebind(c.name, c.dest)
	}

	l.b.SwitchBlock(header)
	cond, err := l.lowerExpr(v.Cond)
	if err != nil {
		return err
	}
	body, exit := l.b.JumpCond(cond)

	l.b.SwitchBlock(body)
	l.scope = newVarScope(l.scope)
	l.loops = append(l.loops, loopCtx{header: header, exit: exit})
	err = l.lowerStmts(v.Body)
	l.loops = l.loops[:len(l.loops)-1]
	l.scope = l.scope.parent
	if err != nil {
		return err
	}
	bodyEnd := l.b.CurrentBlock()
	if !l.b.BlockHasTerminator(bodyEnd) {
		l.b.JumpBlockUnCond(header)
	}

	for _, c := range cands {
		newVal, ok := l.scope.lookup(c.name)
		if !ok {
			newVal = c.old
		}
		l.b.FinalizePhi(header, c.dest, []tir.BlockID{entryBlock, bodyEnd}, []tir.SsaValue{c.old, newVal})
	}

	l.b.SwitchBlock(exit)
	return nil
}

// collectAssignedNames gathers every plain-variable reassignment target
// inside stmts, descending into nested if/while bodies (a reassignment
// buried in a nested conditional still needs a phi at the enclosing
// loop's header) but not into nested function declarations, which can't
// appear in a statement list here.
func collectAssignedNames(stmts []ast.Stmt, out map[string]bool) {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.Assignment:
			out[v.Name] = true
		case *ast.IfStmt:
			collectAssignedNames(v.Body, out)
			collectAssignedNames(v.Alt, out)
		case *ast.WhileStmt:
			collectAssignedNames(v.Body, out)
		}
	}
}

func (l *Lowerer) lowerReturn(v *ast.ReturnStmt) error {
	if v.Value == nil {
		l.b.Ret(nil)
		return nil
	}
	val, err := l.lowerExpr(v.Value)
	if err != nil {
		return err
	}
	l.b.Ret(&val)
	return nil
}

func (l *Lowerer) lowerBreak(v *ast.BreakStmt) error {
	if len(l.loops) == 0 {
		return diag.New(diag.KindInvalidLocationForBreak, v.Pos(), "break outside of a loop")
	}
	l.b.JumpBlockUnCond(l.loops[len(l.loops)-1].exit)
	return nil
}

func (l *Lowerer) lowerContinue(v *ast.ContinueStmt) error {
	if len(l.loops) == 0 {
		return diag.New(diag.KindInvalidLocationForContinue, v.Pos(), "continue outside of a loop")
	}
	l.b.JumpBlockUnCond(l.loops[len(l.loops)-1].header)
	return nil
}
