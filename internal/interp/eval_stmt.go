package interp

import (
	"fmt"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// execStmt executes a statement node directly against sc, mirroring
// compileStmt's dispatch one-for-one.
func (i *Interpreter) execStmt(s ast.Statement, sc *scope) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		i.execBlock(n.Statements, sc)
	case *ast.AssignStmt:
		sc.store(n.Target, i.evalExpr(n.Value, sc))
	case *ast.IfStmt:
		i.execIf(n, sc)
	case *ast.WhileStmt:
		i.execWhile(n, sc)
	case *ast.RepeatStmt:
		i.execRepeat(n, sc)
	case *ast.ForStmt:
		i.execFor(n, sc)
	case *ast.CaseStmt:
		i.execCase(n, sc)
	case *ast.WithStmt:
		// Field access always names its record explicitly in this grammar
		// (FieldAccess.Record), so `with` carries no extra binding here.
		i.execStmt(n.Body, sc)
	case *ast.GotoStmt:
		panic(gotoSignal{label: n.Label})
	case *ast.LabeledStmt:
		i.execStmt(n.Stmt, sc)
	case *ast.ProcCallStmt:
		i.execProcCall(n, sc)
	case *ast.WriteStmt:
		i.execWrite(n, sc)
	case *ast.ReadStmt:
		i.execRead(n, sc)
	case *ast.FileOpStmt:
		i.execFileOp(n, sc)
	case *ast.NewStmt:
		addr := i.allocHeap(bytecode.NilValue())
		sc.store(n.Name, bytecode.HeapValue(addr))
	case *ast.DisposeStmt:
		// Monotonic heap: addresses are never reclaimed or reused.
	case *ast.PointerAssignStmt:
		p, ok := sc.lookup(n.Target)
		if !ok {
			i.fail("undefined pointer variable %s", n.Target)
		}
		i.heap[p.Addr] = i.evalExpr(n.Value, sc)
	case *ast.ArrayAssignStmt:
		idx := i.evalIndices(n.Indices, sc)
		value := i.evalExpr(n.Value, sc)
		i.storeArrayAt(n.Name, idx, value)
	case *ast.RecordAssignStmt:
		sc.store(n.Record+"."+n.Field, i.evalExpr(n.Value, sc))
	case *ast.RecordArrayAssignStmt:
		idx := i.evalIndices(n.Indices, sc)
		value := i.evalExpr(n.Value, sc)
		i.storeArrayAt(n.Record+"."+n.Field, idx, value)
	case *ast.ArrayRecordAssignStmt:
		idx := i.evalIndices([]ast.Expression{n.Index}, sc)
		value := i.evalExpr(n.Value, sc)
		i.storeArrayAt(n.Array+"."+n.Field, idx, value)
	default:
		i.fail("unsupported statement node %T", s)
	}
}

// execBlock runs a statement sequence, catching a gotoSignal aimed at one
// of this sequence's own labels and resuming from there; any other signal
// (or a goto naming a label this sequence doesn't contain) keeps
// propagating outward to the next enclosing block.
func (i *Interpreter) execBlock(stmts []ast.Statement, sc *scope) {
	idx := 0
	for idx < len(stmts) {
		next, jumped := i.execBlockStmt(stmts, idx, sc)
		if jumped {
			idx = next
			continue
		}
		idx++
	}
}

func (i *Interpreter) execBlockStmt(stmts []ast.Statement, idx int, sc *scope) (next int, jumped bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sig, ok := r.(gotoSignal)
		if !ok {
			panic(r)
		}
		target := labelIndex(stmts, sig.label)
		if target < 0 {
			panic(r)
		}
		next, jumped = target, true
	}()
	i.execStmt(stmts[idx], sc)
	return 0, false
}

func labelIndex(stmts []ast.Statement, label string) int {
	for idx, st := range stmts {
		if l, ok := st.(*ast.LabeledStmt); ok && canon(l.Label) == canon(label) {
			return idx
		}
	}
	return -1
}

func (i *Interpreter) execIf(n *ast.IfStmt, sc *scope) {
	cond := i.evalExpr(n.Cond, sc)
	if cond.Bool {
		i.execStmt(n.Then, sc)
	} else if n.Else != nil {
		i.execStmt(n.Else, sc)
	}
}

func (i *Interpreter) execWhile(n *ast.WhileStmt, sc *scope) {
	for {
		cond := i.evalExpr(n.Cond, sc)
		if !cond.Bool {
			return
		}
		i.execStmt(n.Body, sc)
	}
}

func (i *Interpreter) execRepeat(n *ast.RepeatStmt, sc *scope) {
	for {
		i.execBlock(n.Body, sc)
		if i.evalExpr(n.Cond, sc).Bool {
			return
		}
	}
}

func (i *Interpreter) execFor(n *ast.ForStmt, sc *scope) {
	sc.store(n.Var, i.evalExpr(n.Start, sc))
	for {
		cur, _ := sc.lookup(n.Var)
		end := i.evalExpr(n.End, sc)
		cont := cur.Int <= end.Int
		if n.Down {
			cont = cur.Int >= end.Int
		}
		if !cont {
			return
		}
		i.execStmt(n.Body, sc)
		cur, _ = sc.lookup(n.Var)
		if n.Down {
			sc.store(n.Var, bytecode.IntValue(cur.Int-1))
		} else {
			sc.store(n.Var, bytecode.IntValue(cur.Int+1))
		}
	}
}

// execCase runs `case selector of labels: body; ... end`: the first
// matching branch wins, Else fires when none match.
func (i *Interpreter) execCase(n *ast.CaseStmt, sc *scope) {
	selector := i.evalExpr(n.Selector, sc)
	for _, branch := range n.Branches {
		for _, label := range branch.Labels {
			if i.caseLabelMatches(label, selector, sc) {
				i.execStmt(branch.Body, sc)
				return
			}
		}
	}
	if n.Else != nil {
		i.execStmt(n.Else, sc)
	}
}

func (i *Interpreter) caseLabelMatches(label ast.CaseLabel, selector bytecode.Value, sc *scope) bool {
	if label.IsRange {
		low := i.evalExpr(label.Low, sc)
		high := i.evalExpr(label.High, sc)
		return selector.Int >= low.Int && selector.Int <= high.Int
	}
	return selector.Equal(i.evalExpr(label.Low, sc))
}

// execProcCall runs a procedure call used as a statement: `exit` raises a
// returnSignal, a fixed built-in runs and discards its result, otherwise
// it's a user call whose function result (if any) is discarded.
func (i *Interpreter) execProcCall(n *ast.ProcCallStmt, sc *scope) {
	if canon(n.Name) == "exit" {
		panic(returnSignal{})
	}
	if isBuiltinName(n.Name) {
		i.evalBuiltinCall(n.Name, i.evalArgs(n.Args, sc))
		return
	}
	i.callUserProc(n.Name, n.Args, sc)
}

// execWrite lowers `write`/`writeln`. The first argument is checked against
// the registered file variables to decide console vs file output (Open
// Question #1: peek the first argument instead of a dedicated AST shape).
func (i *Interpreter) execWrite(n *ast.WriteStmt, sc *scope) {
	args := n.Args
	fileName := ""
	if len(args) > 0 {
		if vr, isVar := args[0].(*ast.VarRef); isVar && i.fileVars[canon(vr.Name)] {
			fileName = vr.Name
			args = args[1:]
		}
	}
	if fileName != "" {
		for _, a := range args {
			i.fileWrite(fileName, i.evalExpr(a, sc))
		}
		return
	}
	if len(args) == 0 {
		if n.Newline {
			fmt.Fprintln(i.Stdout)
		}
		return
	}
	for idx, a := range args {
		v := i.evalExpr(a, sc)
		fmt.Fprint(i.Stdout, v.String())
		if idx == len(args)-1 && n.Newline {
			fmt.Fprintln(i.Stdout)
		}
	}
}

func (i *Interpreter) execRead(n *ast.ReadStmt, sc *scope) {
	args := n.Args
	fileName := ""
	if len(args) > 0 && i.fileVars[canon(args[0])] {
		fileName = args[0]
		args = args[1:]
	}
	for _, target := range args {
		var v bytecode.Value
		if fileName != "" {
			v = i.fileRead(fileName)
		} else {
			v = i.readConsoleValue()
		}
		sc.store(target, v)
	}
}

// execFileOp runs the nine case-parallel file statements. PAGE/PACK/UNPACK
// have no effect on the text/typed-file model implemented here; GET/PUT
// degrade to a plain file read/write since no file-buffer-variable is
// modeled, matching compileFileOp.
func (i *Interpreter) execFileOp(n *ast.FileOpStmt, sc *scope) {
	switch n.Op {
	case lexer.ASSIGN:
		if len(n.Args) != 1 {
			i.fail("assign expects a filename argument")
		}
		v := i.evalExpr(n.Args[0], sc)
		i.files[canon(n.FileName)] = &fileHandle{name: v.Str}
	case lexer.RESET:
		i.fileOpen(n.FileName, false)
	case lexer.REWRITE:
		i.fileOpen(n.FileName, true)
	case lexer.CLOSE:
		if h, ok := i.files[canon(n.FileName)]; ok && h.closer != nil {
			h.closer.Close()
		}
	case lexer.GET:
		i.fileRead(n.FileName)
	case lexer.PUT:
		i.fileWrite(n.FileName, bytecode.NilValue())
	case lexer.PAGE, lexer.PACK, lexer.UNPACK:
		// no-op
	default:
		i.fail("unsupported file operation %s", n.Op)
	}
}

// callUserProc calls a user-declared procedure or function: value
// arguments evaluate normally, var-parameter arguments bind the callee's
// local directly to the caller's variable and write it back on return,
// even if the call unwinds via panic.
func (i *Interpreter) callUserProc(name string, args []ast.Expression, sc *scope) (result bytecode.Value) {
	fn, known := i.funcs[canon(name)]
	if !known {
		i.fail("call to undeclared procedure or function %s", name)
	}
	decl := fn.decl
	if len(args) != len(decl.Params) {
		i.fail("%s expects %d arguments, got %d", name, len(decl.Params), len(args))
	}

	callScope := newScope(i.globals)
	byRef := map[string]string{}
	for idx, param := range decl.Params {
		if param.ByRef {
			ref, isVar := args[idx].(*ast.VarRef)
			if !isVar {
				i.fail("argument %d to %s must be a variable (var parameter)", idx+1, name)
			}
			byRef[canon(param.Name)] = ref.Name
			v, _ := sc.lookup(ref.Name)
			callScope.declare(param.Name, v)
			continue
		}
		callScope.declare(param.Name, i.evalExpr(args[idx], sc))
	}
	for _, local := range decl.Locals {
		if vd, isVar := local.(*ast.VarDecl); isVar {
			for _, localName := range vd.Names {
				if _, exists := callScope.vars[canon(localName)]; !exists {
					callScope.declare(localName, bytecode.NilValue())
				}
			}
		}
	}
	if decl.IsFunction() {
		if _, exists := callScope.vars[canon(decl.Name)]; !exists {
			callScope.declare(decl.Name, bytecode.NilValue())
		}
	}

	i.frames = append(i.frames, callFrame{funcName: name, byRef: byRef})
	defer func() {
		f := i.frames[len(i.frames)-1]
		i.frames = i.frames[:len(i.frames)-1]
		for local, callerVar := range f.byRef {
			if v, ok := callScope.vars[local]; ok {
				sc.store(callerVar, v)
			}
		}
		if decl.IsFunction() {
			result = callScope.vars[canon(decl.Name)]
		}
	}()

	i.runProcBody(decl, callScope)
	return
}

// runProcBody executes a procedure/function body, stopping a returnSignal
// (`exit`) right here at the call boundary and turning an escaping
// gotoSignal (a label this procedure never declares) into a fatal error,
// the same way runBlock treats one escaping a program or unit block.
func (i *Interpreter) runProcBody(decl *ast.ProcDecl, callScope *scope) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch sig := r.(type) {
		case returnSignal:
		case gotoSignal:
			i.fail("unresolved goto label %s", sig.label)
		default:
			panic(r)
		}
	}()
	i.execStmt(decl.Body, callScope)
}
