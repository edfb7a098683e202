package bytecode

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

var binaryOps = map[lexer.TokenType]OpCode{
	lexer.PLUS: OpAdd, lexer.MINUS: OpSub, lexer.STAR: OpMul, lexer.SLASH: OpDiv,
	lexer.DIV: OpIDiv, lexer.MOD: OpMod,
	lexer.AND: OpAnd, lexer.OR: OpOr,
	lexer.EQ: OpEq, lexer.NEQ: OpNe, lexer.LT: OpLt, lexer.GT: OpGt, lexer.LE: OpLe, lexer.GE: OpGe,
}

// builtin1 covers every single-argument, fixed-return-type built-in whose
// lowering is "compile the argument, emit one opcode".
var builtin1 = map[string]OpCode{
	"abs": OpAbs, "sqr": OpSqr, "sqrt": OpSqrt, "sin": OpSin, "cos": OpCos,
	"arctan": OpArctan, "ln": OpLn, "exp": OpExp, "trunc": OpTrunc, "round": OpRound,
	"odd": OpOdd, "length": OpLength, "upcase": OpUpcase, "lowercase": OpLowercase,
	"chr": OpChr, "ord": OpOrd,
}

func (c *Compiler) compileExpr(e ast.Expression) {
	if !c.ok() || e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.IntegerLit:
		c.emit(pushValue(IntValue(n.Value)))
	case *ast.RealLit:
		c.emit(pushValue(RealValue(n.Value)))
	case *ast.StringLit:
		c.emit(pushValue(StrValue(n.Value)))
	case *ast.BooleanLit:
		c.emit(pushValue(BoolValue(n.Value)))
	case *ast.NilLit:
		c.emit(simple(OpPushNil))
	case *ast.VarRef:
		c.compileVarRef(n.Name)
	case *ast.BinaryExpr:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		op, known := binaryOps[n.Op]
		if !known {
			c.fail("unsupported binary operator %s", n.Op)
			return
		}
		c.emit(simple(op))
	case *ast.UnaryExpr:
		c.compileExpr(n.Operand)
		switch n.Op {
		case lexer.MINUS:
			c.emit(simple(OpNeg))
		case lexer.NOT:
			c.emit(simple(OpNot))
		case lexer.PLUS:
			// no-op
		default:
			c.fail("unsupported unary operator %s", n.Op)
		}
	case *ast.CallExpr:
		c.compileCall(n.Name, n.Args)
	case *ast.ArrayAccess:
		for _, idx := range n.Indices {
			c.compileExpr(idx)
		}
		c.emit(strOp(OpArrayLoad, n.Name))
	case *ast.FieldAccess:
		c.emit(strOp(OpLoadVar, n.Record+"."+n.Field))
	case *ast.RecordArrayAccess:
		for _, idx := range n.Indices {
			c.compileExpr(idx)
		}
		key := n.Record + "." + n.Field
		if _, known := c.arrayMeta[canon(key)]; !known {
			c.fail("array-typed record field %s is not supported", key)
			return
		}
		c.emit(strOp(OpArrayLoad, key))
	case *ast.ArrayFieldAccess:
		c.compileExpr(n.Index)
		c.emit(strOp(OpArrayLoad, n.Array+"."+n.Field))
	case *ast.PointerDeref:
		c.compileExpr(n.Inner)
		c.emit(simple(OpDeref))
	case *ast.AddrOf:
		c.emit(strOp(OpAddrOf, n.Name))
	case *ast.SetLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emit(intOp(OpSetLiteral, int64(len(n.Elements))))
	case *ast.SetMembership:
		c.compileExpr(n.Value)
		c.compileExpr(n.Set)
		c.emit(simple(OpSetContains))
	case *ast.EOFQuery:
		c.emit(strOp(OpFileEOF, n.FileName))
	default:
		c.fail("unsupported expression node %T", e)
	}
}

// compileVarRef resolves a bare identifier against consts, enum values, and
// plain variables, in that priority order: consts and enum values are
// compile-time substitutable and never occupy a VM variable slot.
func (c *Compiler) compileVarRef(name string) {
	if v, ok := c.constVals[canon(name)]; ok {
		c.emit(pushValue(v))
		return
	}
	if ord, ok := c.enumOrdinal[canon(name)]; ok {
		c.emit(intOp(OpPush, ord))
		return
	}
	c.emit(strOp(OpLoadVar, name))
}

func (c *Compiler) compileCall(name string, args []ast.Expression) {
	lname := canon(name)
	if op, isBuiltin1 := builtin1[lname]; isBuiltin1 {
		if len(args) != 1 {
			c.fail("%s expects exactly 1 argument", name)
			return
		}
		c.compileExpr(args[0])
		c.emit(simple(op))
		return
	}
	switch lname {
	case "copy":
		if len(args) != 3 {
			c.fail("copy expects exactly 3 arguments")
			return
		}
		for _, a := range args {
			c.compileExpr(a)
		}
		c.emit(simple(OpCopy))
		return
	case "pos":
		if len(args) != 2 {
			c.fail("pos expects exactly 2 arguments")
			return
		}
		for _, a := range args {
			c.compileExpr(a)
		}
		c.emit(simple(OpPos))
		return
	case "concat":
		if len(args) < 2 {
			c.fail("concat expects at least 2 arguments")
			return
		}
		for _, a := range args {
			c.compileExpr(a)
		}
		c.emit(intOp(OpConcat, int64(len(args))))
		return
	}

	c.compileUserCall(name, args)
}

// compileUserCall lowers a call to a user-declared procedure or function.
// Value arguments compile their expression normally; var-parameter
// arguments instead push the argument variable's name as a string, which
// the VM's CALL handler recognizes via the callee's ByRef metadata and
// turns into a write-back binding instead of a plain value (
// "var-parameter back-mapping").
func (c *Compiler) compileUserCall(name string, args []ast.Expression) {
	meta, known := c.funcs[canon(name)]
	if !known {
		c.fail("call to undeclared procedure or function %s", name)
		return
	}
	for i, arg := range args {
		byRef := i < len(meta.ByRef) && meta.ByRef[i]
		if byRef {
			ref, isVar := arg.(*ast.VarRef)
			if !isVar {
				c.fail("argument %d to %s must be a variable (var parameter)", i+1, name)
				return
			}
			c.emit(strOp(OpPush, ref.Name))
			continue
		}
		c.compileExpr(arg)
	}
	c.emit(strOp(OpCall, name))
}
