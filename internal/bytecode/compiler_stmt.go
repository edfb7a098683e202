package bytecode

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

func (c *Compiler) compileStmt(s ast.Statement) {
	if !c.ok() || s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, st := range n.Statements {
			c.compileStmt(st)
		}
	case *ast.AssignStmt:
		c.compileExpr(n.Value)
		c.emit(strOp(OpStoreVar, n.Target))
	case *ast.IfStmt:
		c.compileIf(n)
	case *ast.WhileStmt:
		c.compileWhile(n)
	case *ast.RepeatStmt:
		c.compileRepeat(n)
	case *ast.ForStmt:
		c.compileFor(n)
	case *ast.CaseStmt:
		c.compileCase(n)
	case *ast.WithStmt:
		// Field access always names its record explicitly in this grammar
		// (FieldAccess.Record), so `with` carries no extra binding to
		// compile here; it only sugars lookup that never needed it.
		c.compileStmt(n.Body)
	case *ast.GotoStmt:
		c.emit(strOp(OpJump, n.Label))
	case *ast.LabeledStmt:
		c.mark(n.Label)
		c.compileStmt(n.Stmt)
	case *ast.ProcCallStmt:
		c.compileProcCall(n)
	case *ast.WriteStmt:
		c.compileWrite(n)
	case *ast.ReadStmt:
		c.compileRead(n)
	case *ast.FileOpStmt:
		c.compileFileOp(n)
	case *ast.NewStmt:
		c.emit(strOp(OpNew, n.Name))
	case *ast.DisposeStmt:
		c.emit(strOp(OpDispose, n.Name))
	case *ast.PointerAssignStmt:
		c.compileExpr(n.Value)
		c.emit(strOp(OpStoreDeref, n.Target))
	case *ast.ArrayAssignStmt:
		for _, idx := range n.Indices {
			c.compileExpr(idx)
		}
		c.compileExpr(n.Value)
		c.emit(strOp(OpArrayStore, n.Name))
	case *ast.RecordAssignStmt:
		c.compileExpr(n.Value)
		c.emit(strOp(OpStoreVar, n.Record+"."+n.Field))
	case *ast.RecordArrayAssignStmt:
		key := n.Record + "." + n.Field
		if _, known := c.arrayMeta[canon(key)]; !known {
			c.fail("array-typed record field %s is not supported", key)
			return
		}
		for _, idx := range n.Indices {
			c.compileExpr(idx)
		}
		c.compileExpr(n.Value)
		c.emit(strOp(OpArrayStore, key))
	case *ast.ArrayRecordAssignStmt:
		c.compileExpr(n.Index)
		c.compileExpr(n.Value)
		c.emit(strOp(OpArrayStore, n.Array+"."+n.Field))
	default:
		c.fail("unsupported statement node %T", s)
	}
}

func (c *Compiler) compileIf(n *ast.IfStmt) {
	c.compileExpr(n.Cond)
	elseLbl := c.newLabel("else")
	endLbl := c.newLabel("endif")
	c.emit(strOp(OpJumpIfFalse, elseLbl))
	c.compileStmt(n.Then)
	c.emit(strOp(OpJump, endLbl))
	c.mark(elseLbl)
	if n.Else != nil {
		c.compileStmt(n.Else)
	}
	c.mark(endLbl)
}

func (c *Compiler) compileWhile(n *ast.WhileStmt) {
	start := c.newLabel("while")
	end := c.newLabel("endwhile")
	c.mark(start)
	c.compileExpr(n.Cond)
	c.emit(strOp(OpJumpIfFalse, end))
	c.compileStmt(n.Body)
	c.emit(strOp(OpJump, start))
	c.mark(end)
}

func (c *Compiler) compileRepeat(n *ast.RepeatStmt) {
	start := c.newLabel("repeat")
	c.mark(start)
	for _, st := range n.Body {
		c.compileStmt(st)
	}
	c.compileExpr(n.Cond)
	c.emit(strOp(OpJumpIfFalse, start))
}

func (c *Compiler) compileFor(n *ast.ForStmt) {
	c.compileExpr(n.Start)
	c.emit(strOp(OpStoreVar, n.Var))
	start := c.newLabel("for")
	end := c.newLabel("endfor")
	c.mark(start)
	c.emit(strOp(OpLoadVar, n.Var))
	c.compileExpr(n.End)
	if n.Down {
		c.emit(simple(OpGe))
	} else {
		c.emit(simple(OpLe))
	}
	c.emit(strOp(OpJumpIfFalse, end))
	c.compileStmt(n.Body)
	c.emit(strOp(OpLoadVar, n.Var))
	c.emit(intOp(OpPush, 1))
	if n.Down {
		c.emit(simple(OpSub))
	} else {
		c.emit(simple(OpAdd))
	}
	c.emit(strOp(OpStoreVar, n.Var))
	c.emit(strOp(OpJump, start))
	c.mark(end)
}

// compileCase lowers `case selector of labels: body; ... end`. Every
// branch's labels are tested, in order, against one shared DUP'd copy of
// the selector; a match jumps straight to that branch's body. The leftover
// selector copy left over from whichever DUP matched (or, on no match, the
// original push) is discarded right before the code that consumes it runs.
func (c *Compiler) compileCase(n *ast.CaseStmt) {
	c.compileExpr(n.Selector)
	end := c.newLabel("endcase")

	branchLbls := make([]string, len(n.Branches))
	for i, branch := range n.Branches {
		branchLbls[i] = c.newLabel("case")
		for _, label := range branch.Labels {
			c.emit(simple(OpDup))
			if label.IsRange {
				low, ok1 := c.foldConstInt(label.Low)
				high, ok2 := c.foldConstInt(label.High)
				if !ok1 || !ok2 {
					c.fail("case range bounds must be constant integers")
					return
				}
				c.emit(mixedOp(OpCaseRange, []Primitive{PInt(low), PInt(high)}))
			} else {
				c.compileExpr(label.Low)
				c.emit(simple(OpEq))
			}
			c.emit(strOp(OpJumpIfTrue, branchLbls[i]))
		}
	}

	c.emit(simple(OpPop)) // no branch matched: discard the selector
	if n.Else != nil {
		c.compileStmt(n.Else)
	}
	c.emit(strOp(OpJump, end))

	for i, branch := range n.Branches {
		c.mark(branchLbls[i])
		c.emit(simple(OpPop)) // discard the selector copy left by the matching test
		c.compileStmt(branch.Body)
		c.emit(strOp(OpJump, end))
	}
	c.mark(end)
}

func (c *Compiler) compileProcCall(n *ast.ProcCallStmt) {
	if canon(n.Name) == "exit" {
		c.emit(simple(OpReturn))
		return
	}
	if op, isBuiltin1 := builtin1[canon(n.Name)]; isBuiltin1 {
		if len(n.Args) != 1 {
			c.fail("%s expects exactly 1 argument", n.Name)
			return
		}
		c.compileExpr(n.Args[0])
		c.emit(simple(op))
		c.emit(simple(OpPop))
		return
	}
	meta, known := c.funcs[canon(n.Name)]
	if !known {
		c.fail("call to undeclared procedure or function %s", n.Name)
		return
	}
	c.compileUserCall(n.Name, n.Args)
	if meta.IsFunction() {
		c.emit(simple(OpPop))
	}
}

// compileWrite lowers `write`/`writeln`. The first argument is checked
// against the registered file variables to decide console vs file output
// (Open Question #1: peek the first argument rather than add a dedicated
// AST shape for the file-routed form).
func (c *Compiler) compileWrite(n *ast.WriteStmt) {
	args := n.Args
	fileName := ""
	if len(args) > 0 {
		if vr, isVar := args[0].(*ast.VarRef); isVar && c.fileVars[canon(vr.Name)] {
			fileName = vr.Name
			args = args[1:]
		}
	}
	if fileName != "" {
		for _, a := range args {
			c.compileExpr(a)
			c.emit(strOp(OpFileWrite, fileName))
		}
		return
	}
	if len(args) == 0 {
		if n.Newline {
			c.emit(pushValue(StrValue("")))
			c.emit(simple(OpWriteln))
		}
		return
	}
	for i, a := range args {
		c.compileExpr(a)
		if i == len(args)-1 && n.Newline {
			c.emit(simple(OpWriteln))
		} else {
			c.emit(simple(OpWrite))
		}
	}
}

func (c *Compiler) compileRead(n *ast.ReadStmt) {
	args := n.Args
	fileName := ""
	if len(args) > 0 && c.fileVars[canon(args[0])] {
		fileName = args[0]
		args = args[1:]
	}
	for _, target := range args {
		if fileName != "" {
			c.emit(strOp(OpFileRead, fileName))
			c.emit(strOp(OpStoreVar, target))
		} else {
			c.emit(strOp(OpRead, target))
		}
	}
}

// compileFileOp lowers the nine case-parallel file statements. PAGE/PACK/
// UNPACK have no meaningful effect on the text/typed-file model implemented
// here and compile to NOP; GET/PUT degrade to a plain file read/write since
// no file-buffer-variable is modeled.
func (c *Compiler) compileFileOp(n *ast.FileOpStmt) {
	switch n.Op {
	case lexer.ASSIGN:
		if len(n.Args) != 1 {
			c.fail("assign expects a filename argument")
			return
		}
		c.compileExpr(n.Args[0])
		c.emit(strOp(OpFileAssign, n.FileName))
	case lexer.RESET:
		c.emit(strOp(OpFileReset, n.FileName))
	case lexer.REWRITE:
		c.emit(strOp(OpFileRewrite, n.FileName))
	case lexer.CLOSE:
		c.emit(strOp(OpFileClose, n.FileName))
	case lexer.GET:
		c.emit(strOp(OpFileRead, n.FileName))
		c.emit(simple(OpPop))
	case lexer.PUT:
		c.emit(pushValue(NilValue()))
		c.emit(strOp(OpFileWrite, n.FileName))
	case lexer.PAGE, lexer.PACK, lexer.UNPACK:
		c.emit(simple(OpNop))
	default:
		c.fail("unsupported file operation %s", n.Op)
	}
}
