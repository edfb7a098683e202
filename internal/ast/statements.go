package ast

import (
	"strings"

	"github.com/cwbudde/go-pasc/internal/lexer"
)

func (*AssignStmt) statementNode() {}
func (*CompoundStmt) statementNode() {}
func (*IfStmt) statementNode() {}
func (*WhileStmt) statementNode() {}
func (*RepeatStmt) statementNode() {}
func (*ForStmt) statementNode() {}
func (*CaseStmt) statementNode() {}
func (*WithStmt) statementNode() {}
func (*GotoStmt) statementNode() {}
func (*LabeledStmt) statementNode() {}
func (*ProcCallStmt) statementNode() {}
func (*WriteStmt) statementNode() {}
func (*ReadStmt) statementNode() {}
func (*FileOpStmt) statementNode() {}
func (*NewStmt) statementNode() {}
func (*DisposeStmt) statementNode() {}
func (*PointerAssignStmt) statementNode() {}
func (*ArrayAssignStmt) statementNode() {}
func (*RecordAssignStmt) statementNode() {}
func (*RecordArrayAssignStmt) statementNode() {}
func (*ArrayRecordAssignStmt) statementNode() {}

// AssignStmt is `target := value` for a plain scalar variable.
type AssignStmt struct {
	Base
	Target string
	Value Expression
}

func (s *AssignStmt) String() string { return s.Target + " := " + s.Value.String() + ";" }

// CompoundStmt is a `begin ... end` block.
type CompoundStmt struct {
	Base
	Statements []Statement
}

func (s *CompoundStmt) String() string {
	var sb strings.Builder
	sb.WriteString("begin\n")
	for _, st := range s.Statements {
		sb.WriteString(" ")
		sb.WriteString(st.String())
		sb.WriteString("\n")
	}
	sb.WriteString("end")
	return sb.String()
}

// IfStmt is `if cond then thenStmt [else elseStmt]`.
type IfStmt struct {
	Base
	Cond Expression
	Then Statement
	Else Statement // nil when absent
}

func (s *IfStmt) String() string {
	out := "if " + s.Cond.String() + " then " + s.Then.String()
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

// WhileStmt is `while cond do body`.
type WhileStmt struct {
	Base
	Cond Expression
	Body Statement
}

func (s *WhileStmt) String() string { return "while " + s.Cond.String() + " do " + s.Body.String() }

// RepeatStmt is `repeat stmts until cond`.
type RepeatStmt struct {
	Base
	Body []Statement
	Cond Expression
}

func (s *RepeatStmt) String() string {
	var sb strings.Builder
	sb.WriteString("repeat\n")
	for _, st := range s.Body {
		sb.WriteString(" " + st.String() + "\n")
	}
	sb.WriteString("until " + s.Cond.String())
	return sb.String()
}

// ForStmt is `for var := start to|downto end do body`.
type ForStmt struct {
	Base
	Var string
	Start Expression
	End Expression
	Down bool // true for downto
	Body Statement
}

func (s *ForStmt) String() string {
	dir := "to"
	if s.Down {
		dir = "downto"
	}
	return "for " + s.Var + " := " + s.Start.String() + " " + dir + " " + s.End.String() + " do " + s.Body.String()
}

// CaseLabel is one label of a case branch: either a single value or a
// low..high range.
type CaseLabel struct {
	IsRange bool
	Low Expression // the single value when !IsRange
	High Expression // only set when IsRange
}

// CaseBranch pairs a list of labels with the statement they select.
type CaseBranch struct {
	Labels []CaseLabel
	Body Statement
}

// CaseStmt is a `case selector of ... end` statement. The first matching
// branch wins; Else fires when none match.
type CaseStmt struct {
	Base
	Selector Expression
	Branches []CaseBranch
	Else Statement // nil when absent
}

func (s *CaseStmt) String() string { return "case " + s.Selector.String() + " of ... end" }

// WithStmt is `with record do body`.
type WithStmt struct {
	Base
	Record string
	Body Statement
}

func (s *WithStmt) String() string { return "with " + s.Record + " do " + s.Body.String() }

// GotoStmt is `goto label`.
type GotoStmt struct {
	Base
	Label string
}

func (s *GotoStmt) String() string { return "goto " + s.Label }

// LabeledStmt is `label: stmt`.
type LabeledStmt struct {
	Base
	Label string
	Stmt Statement
}

func (s *LabeledStmt) String() string { return s.Label + ": " + s.Stmt.String() }

// ProcCallStmt is a procedure call used as a statement.
type ProcCallStmt struct {
	Base
	Name string
	Args []Expression
}

func (s *ProcCallStmt) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ");"
}

// WriteStmt is `write(...)` or `writeln(...)`.
type WriteStmt struct {
	Base
	Newline bool
	Args []Expression
}

func (s *WriteStmt) String() string {
	name := "write"
	if s.Newline {
		name = "writeln"
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ");"
}

// ReadStmt is `read(...)` or `readln(...)`. Args name the target variables.
type ReadStmt struct {
	Base
	Newline bool
	Args []string
}

func (s *ReadStmt) String() string {
	name := "read"
	if s.Newline {
		name = "readln"
	}
	return name + "(" + strings.Join(s.Args, ", ") + ");"
}

// FileOpStmt covers the case-parallel file I/O statements that all share the
// same shape: an operator keyword, a file variable, and operator-specific
// arguments.
//
//	assign(f, 'name.txt') Op=ASSIGN FileName=f Args=['name.txt']
//	reset(f) / rewrite(f) Op=RESET/REWRITE
//	close(f) Op=CLOSE
//	read(f, x) / write(f,x) Op=GET/PUT style reads and writes targeting a file
//	page(f) get(f) put(f) pack(f,a,b) unpack(f,a,b)
type FileOpStmt struct {
	Base
	Op lexer.TokenType
	FileName string
	Args []Expression
}

func (s *FileOpStmt) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Op.String() + "(" + s.FileName + ", " + strings.Join(parts, ", ") + ");"
}

// NewStmt is `new(p)`.
type NewStmt struct {
	Base
	Name string
}

func (s *NewStmt) String() string { return "new(" + s.Name + ");" }

// DisposeStmt is `dispose(p)`.
type DisposeStmt struct {
	Base
	Name string
}

func (s *DisposeStmt) String() string { return "dispose(" + s.Name + ");" }

// PointerAssignStmt is `ptr^ := value`.
type PointerAssignStmt struct {
	Base
	Target string
	Value Expression
}

func (s *PointerAssignStmt) String() string { return s.Target + "^ := " + s.Value.String() + ";" }

// ArrayAssignStmt is `name[indices] := value`.
type ArrayAssignStmt struct {
	Base
	Name string
	Indices []Expression
	Value Expression
}

func (s *ArrayAssignStmt) String() string {
	parts := make([]string, len(s.Indices))
	for i, idx := range s.Indices {
		parts[i] = idx.String()
	}
	return s.Name + "[" + strings.Join(parts, ", ") + "] := " + s.Value.String() + ";"
}

// RecordAssignStmt is `record.field := value`.
type RecordAssignStmt struct {
	Base
	Record string
	Field string
	Value Expression
}

func (s *RecordAssignStmt) String() string {
	return s.Record + "." + s.Field + " := " + s.Value.String() + ";"
}

// RecordArrayAssignStmt is `record.field[indices] := value`.
type RecordArrayAssignStmt struct {
	Base
	Record string
	Field string
	Indices []Expression
	Value Expression
}

func (s *RecordArrayAssignStmt) String() string {
	parts := make([]string, len(s.Indices))
	for i, idx := range s.Indices {
		parts[i] = idx.String()
	}
	return s.Record + "." + s.Field + "[" + strings.Join(parts, ", ") + "] := " + s.Value.String() + ";"
}

// ArrayRecordAssignStmt is `array[index].field := value`.
type ArrayRecordAssignStmt struct {
	Base
	Array string
	Index Expression
	Field string
	Value Expression
}

func (s *ArrayRecordAssignStmt) String() string {
	return s.Array + "[" + s.Index.String() + "]." + s.Field + " := " + s.Value.String() + ";"
}
