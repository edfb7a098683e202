package interp

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
)

func (i *Interpreter) arrayByName(name string) *arrayStore {
	arr, ok := i.arrays[canon(name)]
	if !ok {
		i.fail("undefined array %s", name)
	}
	return arr
}

func (i *Interpreter) evalIndices(exprs []ast.Expression, sc *scope) []int64 {
	idx := make([]int64, len(exprs))
	for n, e := range exprs {
		v := i.evalExpr(e, sc)
		if v.Kind != bytecode.KindInt {
			i.fail("array index must be an integer")
		}
		idx[n] = v.Int
	}
	return idx
}

func (i *Interpreter) loadArray(name string, indices []ast.Expression, sc *scope) bytecode.Value {
	arr := i.arrayByName(name)
	idx := i.evalIndices(indices, sc)
	offset, err := arr.index(idx)
	if err != nil {
		i.fail("%s", err)
	}
	return arr.data[offset]
}

// storeArrayAt writes value into array name at an already-evaluated index
// list, so callers control whether indices or the value expression
// evaluates first (array assignment evaluates indices before the value,
// matching compileStmt's ArrayAssignStmt lowering).
func (i *Interpreter) storeArrayAt(name string, idx []int64, value bytecode.Value) {
	arr := i.arrayByName(name)
	offset, err := arr.index(idx)
	if err != nil {
		i.fail("%s", err)
	}
	arr.data[offset] = value
}

// evalExpr evaluates an expression node directly against sc, the same
// scope chain shape the VM walks.
func (i *Interpreter) evalExpr(e ast.Expression, sc *scope) bytecode.Value {
	switch n := e.(type) {
	case *ast.IntegerLit:
		return bytecode.IntValue(n.Value)
	case *ast.RealLit:
		return bytecode.RealValue(n.Value)
	case *ast.StringLit:
		return bytecode.StrValue(n.Value)
	case *ast.BooleanLit:
		return bytecode.BoolValue(n.Value)
	case *ast.NilLit:
		return bytecode.NilValue()
	case *ast.VarRef:
		return i.evalVarRef(n.Name, sc)
	case *ast.BinaryExpr:
		left := i.evalExpr(n.Left, sc)
		right := i.evalExpr(n.Right, sc)
		return i.binaryOp(n.Op, left, right)
	case *ast.UnaryExpr:
		v := i.evalExpr(n.Operand, sc)
		result, ok := foldUnary(n.Op, v)
		if !ok {
			i.fail("unsupported unary operator %s", n.Op)
		}
		return result
	case *ast.CallExpr:
		return i.evalCall(n.Name, n.Args, sc)
	case *ast.ArrayAccess:
		return i.loadArray(n.Name, n.Indices, sc)
	case *ast.FieldAccess:
		v, ok := sc.lookup(n.Record + "." + n.Field)
		if !ok {
			i.fail("undefined field %s.%s", n.Record, n.Field)
		}
		return v
	case *ast.RecordArrayAccess:
		return i.loadArray(n.Record+"."+n.Field, n.Indices, sc)
	case *ast.ArrayFieldAccess:
		return i.loadArray(n.Array+"."+n.Field, []ast.Expression{n.Index}, sc)
	case *ast.PointerDeref:
		p := i.evalExpr(n.Inner, sc)
		v, ok := i.heap[p.Addr]
		if !ok {
			i.fail("dereference of unallocated pointer")
		}
		return v
	case *ast.AddrOf:
		v, ok := sc.lookup(n.Name)
		if !ok {
			i.fail("undefined variable %s", n.Name)
		}
		addr := i.allocHeap(v) // shallow copy: later mutation of the source var is invisible here
		return bytecode.HeapValue(addr)
	case *ast.SetLit:
		elems := make([]bytecode.Value, len(n.Elements))
		for idx, el := range n.Elements {
			elems[idx] = i.evalExpr(el, sc)
		}
		return bytecode.SetValue(elems)
	case *ast.SetMembership:
		v := i.evalExpr(n.Value, sc)
		set := i.evalExpr(n.Set, sc)
		return bytecode.BoolValue(set.Contains(v))
	case *ast.EOFQuery:
		return bytecode.BoolValue(i.fileEOF(n.FileName))
	}
	i.fail("unsupported expression node %T", e)
	return bytecode.Value{}
}

// evalVarRef resolves a bare identifier against consts, enum values, and
// plain variables, in that priority order, matching compileVarRef.
func (i *Interpreter) evalVarRef(name string, sc *scope) bytecode.Value {
	if v, ok := i.constVals[canon(name)]; ok {
		return v
	}
	if ord, ok := i.enumOrdinal[canon(name)]; ok {
		return bytecode.IntValue(ord)
	}
	v, ok := sc.lookup(name)
	if !ok {
		i.fail("undefined variable %s", name)
	}
	return v
}

// evalCall evaluates a call used as an expression: a built-in, or a
// user-declared function. Which path runs is decided before any argument
// is evaluated, so a call's arguments are each evaluated exactly once.
func (i *Interpreter) evalCall(name string, args []ast.Expression, sc *scope) bytecode.Value {
	if isBuiltinName(name) {
		v, _ := i.evalBuiltinCall(name, i.evalArgs(args, sc))
		return v
	}
	return i.callUserProc(name, args, sc)
}

func (i *Interpreter) evalArgs(args []ast.Expression, sc *scope) []bytecode.Value {
	vals := make([]bytecode.Value, len(args))
	for idx, a := range args {
		vals[idx] = i.evalExpr(a, sc)
	}
	return vals
}
