package semantic

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// analyzeStmt walks one statement, type-checking its parts. It never
// returns an error value directly; violations are recorded via addError.
func (a *Analyzer) analyzeStmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		a.analyzeAssign(st)
	case *ast.CompoundStmt:
		for _, inner := range st.Statements {
			a.analyzeStmt(inner)
		}
	case *ast.IfStmt:
		a.expectBoolean(st.Cond, "if condition")
		a.analyzeStmt(st.Then)
		if st.Else != nil {
			a.analyzeStmt(st.Else)
		}
	case *ast.WhileStmt:
		a.expectBoolean(st.Cond, "while condition")
		a.analyzeStmt(st.Body)
	case *ast.RepeatStmt:
		for _, inner := range st.Body {
			a.analyzeStmt(inner)
		}
		a.expectBoolean(st.Cond, "repeat-until condition")
	case *ast.ForStmt:
		a.analyzeFor(st)
	case *ast.CaseStmt:
		a.analyzeCase(st)
	case *ast.WithStmt:
		if _, ok := a.recordVars[canon(st.Record)]; !ok {
			a.addError(st, "undeclared record variable %q", st.Record)
		}
		a.analyzeStmt(st.Body)
	case *ast.GotoStmt, *ast.LabeledStmt:
		if ls, ok := s.(*ast.LabeledStmt); ok {
			a.analyzeStmt(ls.Stmt)
		}
	case *ast.ProcCallStmt:
		a.analyzeProcCall(st)
	case *ast.WriteStmt:
		for _, arg := range st.Args {
			a.analyzeExpr(arg)
		}
	case *ast.ReadStmt:
		for _, name := range st.Args {
			if _, ok := a.symbols.Lookup(name); !ok {
				a.addError(st, "undeclared identifier %q", name)
			}
		}
	case *ast.FileOpStmt:
		a.analyzeFileOp(st)
	case *ast.NewStmt:
		if _, ok := a.pointerVars[canon(st.Name)]; !ok {
			a.addError(st, "undeclared pointer variable %q", st.Name)
		}
	case *ast.DisposeStmt:
		if _, ok := a.pointerVars[canon(st.Name)]; !ok {
			a.addError(st, "undeclared pointer variable %q", st.Name)
		}
	case *ast.PointerAssignStmt:
		pt, ok := a.pointerVars[canon(st.Target)]
		if !ok {
			a.addError(st, "undeclared pointer variable %q", st.Target)
			a.analyzeExpr(st.Value)
			return
		}
		vt := a.analyzeExpr(st.Value)
		if !assignable(vt, pt) {
			a.addError(st, "cannot assign %s to %s^ of type %s", vt, st.Target, pt)
		}
	case *ast.ArrayAssignStmt:
		a.analyzeArrayAssign(st)
	case *ast.RecordAssignStmt:
		a.analyzeRecordAssign(st)
	case *ast.RecordArrayAssignStmt:
		a.analyzeRecordArrayAssign(st)
	case *ast.ArrayRecordAssignStmt:
		a.analyzeArrayRecordAssign(st)
	default:
		a.addError(s, "unrecognized statement node %T", s)
	}
}

func (a *Analyzer) expectBoolean(e ast.Expression, what string) {
	if t := a.analyzeExpr(e); canonType(t) != TBoolean && t != TUnknown {
		a.addError(e, "%s must be boolean, got %s", what, t)
	}
}

func (a *Analyzer) analyzeAssign(st *ast.AssignStmt) {
	vt := a.analyzeExpr(st.Value)
	// A bare assignment to the enclosing function's own name sets its result;
	// resolveTypeName already registered that binding in analyzeProcBody.
	sym, ok := a.symbols.Lookup(st.Target)
	if !ok {
		a.addError(st, "undeclared identifier %q", st.Target)
		return
	}
	if sym.ReadOnly {
		a.addError(st, "cannot assign to constant %q", st.Target)
		return
	}
	if !assignable(vt, sym.Type) {
		a.addError(st, "cannot assign %s to %q of type %s", vt, st.Target, sym.Type)
	}
}

func (a *Analyzer) analyzeFor(st *ast.ForStmt) {
	sym, ok := a.symbols.Lookup(st.Var)
	if !ok {
		a.addError(st, "undeclared identifier %q", st.Var)
	} else if canonType(sym.Type) != TInteger {
		a.addError(st, "for-loop variable %q must be integer, got %s", st.Var, sym.Type)
	}
	if t := a.analyzeExpr(st.Start); canonType(t) != TInteger && t != TUnknown {
		a.addError(st.Start, "for-loop start value must be integer, got %s", t)
	}
	if t := a.analyzeExpr(st.End); canonType(t) != TInteger && t != TUnknown {
		a.addError(st.End, "for-loop end value must be integer, got %s", t)
	}
	a.analyzeStmt(st.Body)
}

func (a *Analyzer) analyzeCase(st *ast.CaseStmt) {
	selType := a.analyzeExpr(st.Selector)
	for _, branch := range st.Branches {
		for _, label := range branch.Labels {
			if label.IsRange {
				lt := a.analyzeExpr(label.Low)
				ht := a.analyzeExpr(label.High)
				if !assignable(lt, selType) || !assignable(ht, selType) {
					a.addError(st, "case range bounds must match selector type %s", selType)
				}
			} else {
				lt := a.analyzeExpr(label.Low)
				if !assignable(lt, selType) {
					a.addError(st, "case label type %s does not match selector type %s", lt, selType)
				}
			}
		}
		a.analyzeStmt(branch.Body)
	}
	if st.Else != nil {
		a.analyzeStmt(st.Else)
	}
}

// analyzeProcCall checks a procedure call used as a statement: it accepts
// both user procedures/functions (result discarded) and builtins usable as
// statements (e.g. a function called purely for its side effect, if any).
func (a *Analyzer) analyzeProcCall(st *ast.ProcCallStmt) {
	if sig, ok := builtins[canon(st.Name)]; ok {
		a.analyzeBuiltinCall(&ast.CallExpr{Base: st.Base, Name: st.Name, Args: st.Args}, sig)
		return
	}
	sig, ok := a.procs[canon(st.Name)]
	if !ok {
		a.addError(st, "call to undeclared procedure %q", st.Name)
		for _, arg := range st.Args {
			a.analyzeExpr(arg)
		}
		return
	}
	if len(st.Args) != len(sig.Params) {
		a.addError(st, "%q expects %d argument(s), got %d", st.Name, len(sig.Params), len(st.Args))
	}
	for i, arg := range st.Args {
		at := a.analyzeExpr(arg)
		if i < len(sig.Params) {
			if sig.Params[i].ByRef {
				if _, isVar := arg.(*ast.VarRef); !isVar {
					a.addError(arg, "argument %d of %q must be a variable (var parameter)", i+1, st.Name)
				}
			}
			if !assignable(at, sig.Params[i].Type) {
				a.addError(arg, "argument %d of %q: cannot use %s as %s", i+1, st.Name, at, sig.Params[i].Type)
			}
		}
	}
}

func (a *Analyzer) analyzeFileOp(st *ast.FileOpStmt) {
	if _, ok := a.fileVars[canon(st.FileName)]; !ok {
		a.addError(st, "undeclared file variable %q", st.FileName)
	}
	for _, arg := range st.Args {
		a.analyzeExpr(arg)
	}
	switch st.Op {
	case lexer.ASSIGN, lexer.RESET, lexer.REWRITE, lexer.CLOSE, lexer.PAGE,
		lexer.GET, lexer.PUT, lexer.PACK, lexer.UNPACK:
	default:
		a.addError(st, "unsupported file operation %q", st.Op.String())
	}
}

func (a *Analyzer) analyzeArrayAssign(st *ast.ArrayAssignStmt) {
	info, ok := a.arrays[canon(st.Name)]
	if !ok {
		a.addError(st, "undeclared array %q", st.Name)
		a.analyzeExpr(st.Value)
		return
	}
	if len(st.Indices) != len(info.Dimensions) {
		a.addError(st, "array %q expects %d index/indices, got %d", st.Name, len(info.Dimensions), len(st.Indices))
	}
	for _, idx := range st.Indices {
		if it := a.analyzeExpr(idx); canonType(it) != TInteger && it != TUnknown {
			a.addError(idx, "array index must be integer, got %s", it)
		}
	}
	vt := a.analyzeExpr(st.Value)
	if !assignable(vt, info.ElemType) {
		a.addError(st, "cannot assign %s to array %q element of type %s", vt, st.Name, info.ElemType)
	}
}

func (a *Analyzer) analyzeRecordAssign(st *ast.RecordAssignStmt) {
	rtName, ok := a.recordVars[canon(st.Record)]
	if !ok {
		a.addError(st, "undeclared record variable %q", st.Record)
		a.analyzeExpr(st.Value)
		return
	}
	rt := a.recordTypes[canon(rtName)]
	ft, ok := rt.FieldType[canon(st.Field)]
	if !ok {
		a.addError(st, "record %q has no field %q", rtName, st.Field)
		a.analyzeExpr(st.Value)
		return
	}
	vt := a.analyzeExpr(st.Value)
	if !assignable(vt, ft) {
		a.addError(st, "cannot assign %s to field %q of type %s", vt, st.Field, ft)
	}
}

func (a *Analyzer) analyzeRecordArrayAssign(st *ast.RecordArrayAssignStmt) {
	rtName, ok := a.recordVars[canon(st.Record)]
	if !ok {
		a.addError(st, "undeclared record variable %q", st.Record)
		a.analyzeExpr(st.Value)
		return
	}
	rt := a.recordTypes[canon(rtName)]
	ft, ok := rt.FieldType[canon(st.Field)]
	if !ok {
		a.addError(st, "record %q has no field %q", rtName, st.Field)
		ft = TUnknown
	}
	for _, idx := range st.Indices {
		if it := a.analyzeExpr(idx); canonType(it) != TInteger && it != TUnknown {
			a.addError(idx, "array index must be integer, got %s", it)
		}
	}
	vt := a.analyzeExpr(st.Value)
	if !assignable(vt, ft) && ft != TUnknown {
		a.addError(st, "cannot assign %s to field %q of type %s", vt, st.Field, ft)
	}
}

func (a *Analyzer) analyzeArrayRecordAssign(st *ast.ArrayRecordAssignStmt) {
	info, ok := a.arrays[canon(st.Array)]
	if !ok {
		a.addError(st, "undeclared array %q", st.Array)
		a.analyzeExpr(st.Index)
		a.analyzeExpr(st.Value)
		return
	}
	if it := a.analyzeExpr(st.Index); canonType(it) != TInteger && it != TUnknown {
		a.addError(st.Index, "array index must be integer, got %s", it)
	}
	rt, ok := a.recordTypes[canon(info.ElemType)]
	if !ok {
		a.addError(st, "array %q is not an array of record", st.Array)
		a.analyzeExpr(st.Value)
		return
	}
	ft, ok := rt.FieldType[canon(st.Field)]
	if !ok {
		a.addError(st, "record %q has no field %q", info.ElemType, st.Field)
		a.analyzeExpr(st.Value)
		return
	}
	vt := a.analyzeExpr(st.Value)
	if !assignable(vt, ft) {
		a.addError(st, "cannot assign %s to field %q of type %s", vt, st.Field, ft)
	}
}
