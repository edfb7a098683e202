package semantic

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// analyzeExpr infers and returns the canonical type of an expression,
// reporting any operator/type-check violation along the way.
// It always returns a usable type (TUnknown on failure) so callers can keep
// walking without nil-checking.
func (a *Analyzer) analyzeExpr(e ast.Expression) string {
	switch ex := e.(type) {
	case *ast.IntegerLit:
		return TInteger
	case *ast.RealLit:
		return TReal
	case *ast.StringLit:
		return TString
	case *ast.BooleanLit:
		return TBoolean
	case *ast.NilLit:
		return TNil
	case *ast.VarRef:
		return a.analyzeVarRef(ex)
	case *ast.BinaryExpr:
		return a.analyzeBinary(ex)
	case *ast.UnaryExpr:
		return a.analyzeUnary(ex)
	case *ast.CallExpr:
		return a.analyzeCall(ex)
	case *ast.ArrayAccess:
		return a.analyzeArrayAccess(ex)
	case *ast.FieldAccess:
		return a.analyzeFieldAccess(ex)
	case *ast.RecordArrayAccess:
		return a.analyzeRecordArrayAccess(ex)
	case *ast.ArrayFieldAccess:
		return a.analyzeArrayFieldAccess(ex)
	case *ast.PointerDeref:
		return a.analyzePointerDeref(ex)
	case *ast.AddrOf:
		return a.analyzeAddrOf(ex)
	case *ast.SetLit:
		return a.analyzeSetLit(ex)
	case *ast.SetMembership:
		return a.analyzeSetMembership(ex)
	case *ast.EOFQuery:
		if _, ok := a.fileVars[canon(ex.FileName)]; !ok {
			a.addError(ex, "eof: undeclared file variable %q", ex.FileName)
		}
		return TBoolean
	default:
		a.addError(e, "unrecognized expression node %T", e)
		return TUnknown
	}
}

// analyzeVarRef resolves a bare identifier against every name table, in the
// order a plain reference can plausibly mean something: scalar/const, enum
// value, record variable, pointer variable, set variable, file variable.
func (a *Analyzer) analyzeVarRef(ref *ast.VarRef) string {
	if sym, ok := a.symbols.Lookup(ref.Name); ok {
		return sym.Type
	}
	if owner, ok := a.enumValue[canon(ref.Name)]; ok {
		return owner
	}
	if rt, ok := a.recordVars[canon(ref.Name)]; ok {
		return rt
	}
	if pt, ok := a.pointerVars[canon(ref.Name)]; ok {
		return "^" + pt
	}
	if st, ok := a.setVars[canon(ref.Name)]; ok {
		return "set of " + st
	}
	if _, ok := a.fileVars[canon(ref.Name)]; ok {
		return "file"
	}
	a.addError(ref, "undeclared identifier %q", ref.Name)
	return TUnknown
}

func (a *Analyzer) analyzeBinary(ex *ast.BinaryExpr) string {
	lt := a.analyzeExpr(ex.Left)
	rt := a.analyzeExpr(ex.Right)
	if lt == TUnknown || rt == TUnknown {
		return TUnknown
	}
	switch ex.Op {
	case lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH:
		if !isNumeric(lt) || !isNumeric(rt) {
			a.addError(ex, "operator %q requires numeric operands, got %s and %s", ex.Op.String(), lt, rt)
			return TUnknown
		}
		if ex.Op == lexer.SLASH {
			return TReal
		}
		if lt == TReal || rt == TReal {
			return TReal
		}
		return TInteger
	case lexer.DIV, lexer.MOD:
		if canonType(lt) != TInteger || canonType(rt) != TInteger {
			a.addError(ex, "%q requires integer operands, got %s and %s", ex.Op.String(), lt, rt)
			return TUnknown
		}
		return TInteger
	case lexer.AND, lexer.OR:
		if canonType(lt) != TBoolean || canonType(rt) != TBoolean {
			a.addError(ex, "%q requires boolean operands, got %s and %s", ex.Op.String(), lt, rt)
			return TUnknown
		}
		return TBoolean
	case lexer.EQ, lexer.NEQ:
		if !typesCompatible(lt, rt) {
			a.addError(ex, "%q requires compatible operands, got %s and %s", ex.Op.String(), lt, rt)
		}
		return TBoolean
	case lexer.LT, lexer.GT, lexer.LE, lexer.GE:
		bothNumeric := isNumeric(lt) && isNumeric(rt)
		bothString := canonType(lt) == TString && canonType(rt) == TString
		if !bothNumeric && !bothString {
			a.addError(ex, "%q requires numeric or string operands, got %s and %s", ex.Op.String(), lt, rt)
		}
		return TBoolean
	default:
		a.addError(ex, "unsupported binary operator %q", ex.Op.String())
		return TUnknown
	}
}

func (a *Analyzer) analyzeUnary(ex *ast.UnaryExpr) string {
	t := a.analyzeExpr(ex.Operand)
	switch ex.Op {
	case lexer.NOT:
		if canonType(t) != TBoolean && t != TUnknown {
			a.addError(ex, "not requires a boolean operand, got %s", t)
		}
		return TBoolean
	case lexer.MINUS, lexer.PLUS:
		if !isNumeric(t) && t != TUnknown {
			a.addError(ex, "unary %q requires a numeric operand, got %s", ex.Op.String(), t)
			return TUnknown
		}
		return t
	default:
		a.addError(ex, "unsupported unary operator %q", ex.Op.String())
		return TUnknown
	}
}

func (a *Analyzer) analyzeCall(ex *ast.CallExpr) string {
	if sig, ok := builtins[canon(ex.Name)]; ok {
		return a.analyzeBuiltinCall(ex, sig)
	}
	sig, ok := a.procs[canon(ex.Name)]
	if !ok {
		a.addError(ex, "call to undeclared function %q", ex.Name)
		for _, arg := range ex.Args {
			a.analyzeExpr(arg)
		}
		return TUnknown
	}
	if len(ex.Args) != len(sig.Params) {
		a.addError(ex, "%q expects %d argument(s), got %d", ex.Name, len(sig.Params), len(ex.Args))
	}
	for i, arg := range ex.Args {
		at := a.analyzeExpr(arg)
		if i < len(sig.Params) && !assignable(at, sig.Params[i].Type) {
			a.addError(arg, "argument %d of %q: cannot use %s as %s", i+1, ex.Name, at, sig.Params[i].Type)
		}
	}
	if !sig.IsFunction() {
		a.addError(ex, "%q is a procedure and has no value", ex.Name)
		return TUnknown
	}
	return sig.ReturnType
}

func (a *Analyzer) analyzeBuiltinCall(ex *ast.CallExpr, sig BuiltinSig) string {
	if sig.Arity >= 0 {
		if len(ex.Args) != sig.Arity {
			a.addError(ex, "%q expects %d argument(s), got %d", ex.Name, sig.Arity, len(ex.Args))
		}
	} else if len(ex.Args) < sig.MinArgs {
		a.addError(ex, "%q expects at least %d argument(s), got %d", ex.Name, sig.MinArgs, len(ex.Args))
	}
	argTypes := make([]string, len(ex.Args))
	for i, arg := range ex.Args {
		argTypes[i] = a.analyzeExpr(arg)
	}
	if numericOnlyBuiltins[canon(ex.Name)] && len(argTypes) > 0 {
		if !isNumeric(argTypes[0]) {
			a.addError(ex, "%q requires a numeric argument, got %s", ex.Name, argTypes[0])
		}
		if sig.ReturnType == TAuto {
			return argTypes[0]
		}
	}
	return sig.ReturnType
}

func (a *Analyzer) analyzeArrayAccess(ex *ast.ArrayAccess) string {
	info, ok := a.arrays[canon(ex.Name)]
	if !ok {
		a.addError(ex, "undeclared array %q", ex.Name)
		for _, idx := range ex.Indices {
			a.analyzeExpr(idx)
		}
		return TUnknown
	}
	if len(ex.Indices) != len(info.Dimensions) {
		a.addError(ex, "array %q expects %d index/indices, got %d", ex.Name, len(info.Dimensions), len(ex.Indices))
	}
	for _, idx := range ex.Indices {
		if it := a.analyzeExpr(idx); canonType(it) != TInteger && it != TUnknown {
			a.addError(idx, "array index must be integer, got %s", it)
		}
	}
	return info.ElemType
}

func (a *Analyzer) analyzeFieldAccess(ex *ast.FieldAccess) string {
	rtName, ok := a.recordVars[canon(ex.Record)]
	if !ok {
		a.addError(ex, "undeclared record variable %q", ex.Record)
		return TUnknown
	}
	rt := a.recordTypes[canon(rtName)]
	ft, ok := rt.FieldType[canon(ex.Field)]
	if !ok {
		a.addError(ex, "record %q has no field %q", rtName, ex.Field)
		return TUnknown
	}
	return ft
}

func (a *Analyzer) analyzeRecordArrayAccess(ex *ast.RecordArrayAccess) string {
	rtName, ok := a.recordVars[canon(ex.Record)]
	if !ok {
		a.addError(ex, "undeclared record variable %q", ex.Record)
		return TUnknown
	}
	rt := a.recordTypes[canon(rtName)]
	ft, ok := rt.FieldType[canon(ex.Field)]
	if !ok {
		a.addError(ex, "record %q has no field %q", rtName, ex.Field)
		ft = TUnknown
	}
	for _, idx := range ex.Indices {
		if it := a.analyzeExpr(idx); canonType(it) != TInteger && it != TUnknown {
			a.addError(idx, "array index must be integer, got %s", it)
		}
	}
	return ft
}

func (a *Analyzer) analyzeArrayFieldAccess(ex *ast.ArrayFieldAccess) string {
	info, ok := a.arrays[canon(ex.Array)]
	if !ok {
		a.addError(ex, "undeclared array %q", ex.Array)
		a.analyzeExpr(ex.Index)
		return TUnknown
	}
	if it := a.analyzeExpr(ex.Index); canonType(it) != TInteger && it != TUnknown {
		a.addError(ex.Index, "array index must be integer, got %s", it)
	}
	rt, ok := a.recordTypes[canon(info.ElemType)]
	if !ok {
		a.addError(ex, "array %q is not an array of record", ex.Array)
		return TUnknown
	}
	ft, ok := rt.FieldType[canon(ex.Field)]
	if !ok {
		a.addError(ex, "record %q has no field %q", info.ElemType, ex.Field)
		return TUnknown
	}
	return ft
}

func (a *Analyzer) analyzePointerDeref(ex *ast.PointerDeref) string {
	t := a.analyzeExpr(ex.Inner)
	if !isPointerType(t) {
		if t != TUnknown {
			a.addError(ex, "cannot dereference non-pointer type %s", t)
		}
		return TUnknown
	}
	return pointerElem(t)
}

func (a *Analyzer) analyzeAddrOf(ex *ast.AddrOf) string {
	if sym, ok := a.symbols.Lookup(ex.Name); ok {
		return "^" + sym.Type
	}
	if _, ok := a.recordVars[canon(ex.Name)]; ok {
		return "^" + a.recordVars[canon(ex.Name)]
	}
	a.addError(ex, "undeclared identifier %q", ex.Name)
	return TUnknown
}

func (a *Analyzer) analyzeSetLit(ex *ast.SetLit) string {
	elem := TUnknown
	for i, el := range ex.Elements {
		t := a.analyzeExpr(el)
		if i == 0 {
			elem = t
		} else if !typesCompatible(elem, t) {
			a.addError(el, "set literal elements must share a type, got %s and %s", elem, t)
		}
	}
	return "set of " + elem
}

func (a *Analyzer) analyzeSetMembership(ex *ast.SetMembership) string {
	vt := a.analyzeExpr(ex.Value)
	st := a.analyzeExpr(ex.Set)
	if !isSetType(st) {
		if st != TUnknown {
			a.addError(ex, "in requires a set on the right, got %s", st)
		}
		return TBoolean
	}
	if elem := setElem(st); !typesCompatible(vt, elem) && vt != TUnknown {
		a.addError(ex, "cannot test %s membership in set of %s", vt, elem)
	}
	return TBoolean
}
