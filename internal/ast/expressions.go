package ast

import (
	"strconv"
	"strings"

	"github.com/cwbudde/go-pasc/internal/lexer"
)

func (*IntegerLit) expressionNode() {}
func (*RealLit) expressionNode() {}
func (*StringLit) expressionNode() {}
func (*BooleanLit) expressionNode() {}
func (*NilLit) expressionNode() {}
func (*VarRef) expressionNode() {}
func (*BinaryExpr) expressionNode() {}
func (*UnaryExpr) expressionNode() {}
func (*CallExpr) expressionNode() {}
func (*ArrayAccess) expressionNode() {}
func (*FieldAccess) expressionNode() {}
func (*RecordArrayAccess) expressionNode() {}
func (*ArrayFieldAccess) expressionNode() {}
func (*PointerDeref) expressionNode() {}
func (*AddrOf) expressionNode() {}
func (*SetLit) expressionNode() {}
func (*SetMembership) expressionNode() {}
func (*EOFQuery) expressionNode() {}

// IntegerLit is an integer literal.
type IntegerLit struct {
	Base
	Value int64
}

func (e *IntegerLit) String() string { return strconv.FormatInt(e.Value, 10) }

// RealLit is a real (floating point) literal.
type RealLit struct {
	Base
	Value float64
}

func (e *RealLit) String() string { return strconv.FormatFloat(e.Value, 'g', -1, 64) }

// StringLit is a string literal.
type StringLit struct {
	Base
	Value string
}

func (e *StringLit) String() string { return "'" + e.Value + "'" }

// BooleanLit is a `true`/`false` literal.
type BooleanLit struct {
	Base
	Value bool
}

func (e *BooleanLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// NilLit is the `nil` pointer literal.
type NilLit struct{ Base }

func (e *NilLit) String() string { return "nil" }

// VarRef is a reference to a previously declared variable or constant.
type VarRef struct {
	Base
	Name string
}

func (e *VarRef) String() string { return e.Name }

// BinaryExpr is a two-operand operator application. Op is the lexer token
// type of the operator (PLUS, MINUS, STAR, SLASH, DIV, MOD, AND, OR, EQ, NEQ,
// LT, GT, LE, GE, IN).
type BinaryExpr struct {
	Base
	Op lexer.TokenType
	Left Expression
	Right Expression
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// UnaryExpr is a prefix operator application: NOT, unary MINUS/PLUS, or
// address-of style usage is modeled separately by AddrOf.
type UnaryExpr struct {
	Base
	Op lexer.TokenType
	Operand Expression
}

func (e *UnaryExpr) String() string {
	if e.Op == lexer.NOT {
		return "not " + e.Operand.String()
	}
	return e.Op.String() + e.Operand.String()
}

// CallExpr is a function call by name with positional arguments.
type CallExpr struct {
	Base
	Name string
	Args []Expression
}

func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ArrayAccess reads one element of an array variable by index list.
type ArrayAccess struct {
	Base
	Name string
	Indices []Expression
}

func (e *ArrayAccess) String() string {
	parts := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		parts[i] = idx.String()
	}
	return e.Name + "[" + strings.Join(parts, ", ") + "]"
}

// FieldAccess reads one field of a record variable.
type FieldAccess struct {
	Base
	Record string
	Field string
}

func (e *FieldAccess) String() string { return e.Record + "." + e.Field }

// RecordArrayAccess reads an array-typed field of a record variable:
// record, field, and indices.
type RecordArrayAccess struct {
	Base
	Record  string
	Field   string
	Indices []Expression
}

func (e *RecordArrayAccess) String() string {
	parts := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		parts[i] = idx.String()
	}
	return e.Record + "." + e.Field + "[" + strings.Join(parts, ", ") + "]"
}

// ArrayFieldAccess reads a field of a record stored in an array element:
// array name, index, and field.
type ArrayFieldAccess struct {
	Base
	Array string
	Index Expression
	Field string
}

func (e *ArrayFieldAccess) String() string {
	return e.Array + "[" + e.Index.String() + "]." + e.Field
}

// PointerDeref is `expr^`.
type PointerDeref struct {
	Base
	Inner Expression
}

func (e *PointerDeref) String() string { return e.Inner.String() + "^" }

// AddrOf is `@variable`.
type AddrOf struct {
	Base
	Name string
}

func (e *AddrOf) String() string { return "@" + e.Name }

// SetLit is a `[e1, e2, ...]` set literal.
type SetLit struct {
	Base
	Elements []Expression
}

func (e *SetLit) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SetMembership is `value in set`.
type SetMembership struct {
	Base
	Value Expression
	Set Expression
}

func (e *SetMembership) String() string { return e.Value.String() + " in " + e.Set.String() }

// EOFQuery is `eof(file)`.
type EOFQuery struct {
	Base
	FileName string
}

func (e *EOFQuery) String() string { return "eof(" + e.FileName + ")" }
