// Package ast defines the abstract syntax tree produced by the parser for
// both programs and units.
package ast

import (
	"strings"

	"github.com/cwbudde/go-pasc/internal/lexer"
)

// Node is the base interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() lexer.Position
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Declaration is any node appearing in a program or unit's declaration lists.
type Declaration interface {
	Node
	declarationNode()
}

// Base embeds a Token and implements TokenLiteral/Pos for every node type.
type Base struct {
	Token lexer.Token
}

func (b Base) TokenLiteral() string { return b.Token.Literal }
func (b Base) Pos() lexer.Position { return b.Token.Pos }

// Dimension is one [low..high] bound of an array declaration (low <= high).
type Dimension struct {
	Low int64
	High int64
}

// Program is the root node for a compiled program.
type Program struct {
	Base
	Name string
	Uses []string
	Consts []*ConstDecl
	Vars []*VarDecl
	ArrayVars []*ArrayVarDecl
	RecordVars []*RecordVarDecl
	FileVars []*FileVarDecl
	PointerVars []*PointerVarDecl
	SetVars []*SetVarDecl
	RecordTypes []*RecordTypeDecl
	EnumTypes []*EnumTypeDecl
	Procs []*ProcDecl
	Body *CompoundStmt
}

func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("program ")
	sb.WriteString(p.Name)
	sb.WriteString(";\n")
	if p.Body != nil {
		sb.WriteString(p.Body.String())
	}
	sb.WriteString(".")
	return sb.String()
}

// UnitSection groups the declarations that appear on one side of a unit:
// types, variables, and either full procedure/function bodies
// (implementation) or bare headers (interface).
type UnitSection struct {
	Consts []*ConstDecl
	Vars []*VarDecl
	ArrayVars []*ArrayVarDecl
	RecordVars []*RecordVarDecl
	FileVars []*FileVarDecl
	PointerVars []*PointerVarDecl
	SetVars []*SetVarDecl
	RecordTypes []*RecordTypeDecl
	EnumTypes []*EnumTypeDecl
	Procs []*ProcDecl
}

// Unit is the root node for a separately compilable unit.
type Unit struct {
	Base
	Name string
	Uses []string
	Interface UnitSection
	Implementation UnitSection
	Init *CompoundStmt
	Final *CompoundStmt
}

func (u *Unit) String() string {
	var sb strings.Builder
	sb.WriteString("unit ")
	sb.WriteString(u.Name)
	sb.WriteString(";\n")
	sb.WriteString("interface\n")
	sb.WriteString("implementation\n")
	if u.Init != nil {
		sb.WriteString("initialization\n")
	}
	if u.Final != nil {
		sb.WriteString("finalization\n")
	}
	sb.WriteString("end.")
	return sb.String()
}

// Ident is a bare name reference used in several declaration lists.
type Ident struct {
	Base
	Name string
}

func (i *Ident) String() string { return i.Name }
