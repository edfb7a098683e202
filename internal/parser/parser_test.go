package parser

import (
	"testing"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := New(lexer.New(src)).ParseProgram()
	require.NoError(t, err)
	return prog
}

func assignValue(t *testing.T, prog *ast.Program) ast.Expression {
	t.Helper()
	require.Len(t, prog.Body.Statements, 1)
	stmt, ok := prog.Body.Statements[0].(*ast.AssignStmt)
	require.True(t, ok, "expected *ast.AssignStmt, got %T", prog.Body.Statements[0])
	return stmt.Value
}

func TestParseProgramHeader(t *testing.T) {
	prog := parseProgram(t, "program Hello;\nbegin\nend.")
	assert.Equal(t, "Hello", prog.Name)
	assert.Empty(t, prog.Uses)
}

func TestParseProgramHeaderDiscardsParamList(t *testing.T) {
	prog := parseProgram(t, "program Hello(input, output);\nbegin\nend.")
	assert.Equal(t, "Hello", prog.Name)
}

func TestParseUsesClause(t *testing.T) {
	prog := parseProgram(t, "program Main;\nuses MathUtils, StrUtils;\nbegin\nend.")
	assert.Equal(t, []string{"MathUtils", "StrUtils"}, prog.Uses)
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, e ast.Expression)
	}{
		{"integer", "program P;\nbegin\n x := 42;\nend.", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.IntegerLit)
			require.True(t, ok, "got %T", e)
			assert.Equal(t, int64(42), lit.Value)
		}},
		{"real", "program P;\nbegin\n x := 3.5;\nend.", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.RealLit)
			require.True(t, ok, "got %T", e)
			assert.Equal(t, 3.5, lit.Value)
		}},
		{"string", "program P;\nbegin\n x := 'hi';\nend.", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.StringLit)
			require.True(t, ok, "got %T", e)
			assert.Equal(t, "hi", lit.Value)
		}},
		{"true", "program P;\nbegin\n x := true;\nend.", func(t *testing.T, e ast.Expression) {
			lit, ok := e.(*ast.BooleanLit)
			require.True(t, ok, "got %T", e)
			assert.True(t, lit.Value)
		}},
		{"nil", "program P;\nbegin\n x := nil;\nend.", func(t *testing.T, e ast.Expression) {
			_, ok := e.(*ast.NilLit)
			assert.True(t, ok, "got %T", e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := parseProgram(t, tt.src)
			tt.check(t, assignValue(t, prog))
		})
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"star_binds_tighter_than_plus", "1 + 2 * 3", "(1 + (2 * 3))"},
		{"left_associative_additive", "1 - 2 - 3", "((1 - 2) - 3)"},
		{"parens_override", "(1 + 2) * 3", "((1 + 2) * 3)"},
		{"comparison_loosest_of_the_relational_tier", "1 + 1 = 2", "((1 + 1) = 2)"},
		{"and_binds_tighter_than_or", "true or false and true", "(true or (false and true))"},
		{"unary_minus", "-1 + 2", "(-1 + 2)"},
		{"not_unary", "not true and false", "(not true and false)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "program P;\nbegin\n x := " + tt.src + ";\nend."
			prog := parseProgram(t, src)
			assert.Equal(t, tt.expected, assignValue(t, prog).String())
		})
	}
}

func TestParseCallExpr(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n x := Double(21);\nend.")
	call, ok := assignValue(t, prog).(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "Double", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, int64(21), call.Args[0].(*ast.IntegerLit).Value)
}

func TestParseArrayAccess(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n x := a[1, 2];\nend.")
	acc, ok := assignValue(t, prog).(*ast.ArrayAccess)
	require.True(t, ok)
	assert.Equal(t, "a", acc.Name)
	require.Len(t, acc.Indices, 2)
}

func TestParseFieldAccess(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n x := p.X;\nend.")
	fa, ok := assignValue(t, prog).(*ast.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, "p", fa.Record)
	assert.Equal(t, "X", fa.Field)
}

func TestParseSetLiteralAndMembership(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n x := 1 in [1, 2, 3];\nend.")
	mem, ok := assignValue(t, prog).(*ast.SetMembership)
	require.True(t, ok)
	set, ok := mem.Set.(*ast.SetLit)
	require.True(t, ok)
	assert.Len(t, set.Elements, 3)
}

func TestParseVarSection(t *testing.T) {
	prog := parseProgram(t, `program P;
var
  x, y: Integer;
  name: String;
  data: array[1..10] of Integer;
  p: ^Integer;
  flags: set of Integer;
begin
end.`)
	require.Len(t, prog.Vars, 2)
	assert.Equal(t, []string{"x", "y"}, prog.Vars[0].Names)
	assert.Equal(t, "integer", prog.Vars[0].TypeName)
	assert.Equal(t, []string{"name"}, prog.Vars[1].Names)

	require.Len(t, prog.ArrayVars, 1)
	assert.Equal(t, "data", prog.ArrayVars[0].Names[0])
	require.Len(t, prog.ArrayVars[0].Dimensions, 1)
	assert.Equal(t, int64(1), prog.ArrayVars[0].Dimensions[0].Low)
	assert.Equal(t, int64(10), prog.ArrayVars[0].Dimensions[0].High)

	require.Len(t, prog.PointerVars, 1)
	assert.Equal(t, "p", prog.PointerVars[0].Names[0])

	require.Len(t, prog.SetVars, 1)
	assert.Equal(t, "flags", prog.SetVars[0].Names[0])
}

func TestParseConstSection(t *testing.T) {
	prog := parseProgram(t, "program P;\nconst\n  Pi = 3.14159;\n  Greeting = 'hi';\nbegin\nend.")
	require.Len(t, prog.Consts, 2)
	assert.Equal(t, "Pi", prog.Consts[0].Name)
	assert.Equal(t, "Greeting", prog.Consts[1].Name)
}

func TestParseRecordType(t *testing.T) {
	prog := parseProgram(t, `program P;
type
  TPoint = record
    X, Y: Integer;
  end;
var
  p: TPoint;
begin
end.`)
	require.Len(t, prog.RecordTypes, 1)
	assert.Equal(t, "TPoint", prog.RecordTypes[0].Name)
	require.Len(t, prog.RecordTypes[0].Fields, 2)
	assert.Equal(t, "X", prog.RecordTypes[0].Fields[0].Name)

	require.Len(t, prog.RecordVars, 1)
	assert.Equal(t, "p", prog.RecordVars[0].Names[0])
	assert.Equal(t, "TPoint", prog.RecordVars[0].TypeName)
}

func TestParseEnumType(t *testing.T) {
	prog := parseProgram(t, "program P;\ntype\n  TColor = (Red, Green, Blue);\nbegin\nend.")
	require.Len(t, prog.EnumTypes, 1)
	assert.Equal(t, "TColor", prog.EnumTypes[0].Name)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, prog.EnumTypes[0].Values)
}

func TestParseProcAndFunctionDecl(t *testing.T) {
	prog := parseProgram(t, `program P;
procedure Greet(name: String);
begin
  WriteLn(name);
end;

function Double(n: Integer): Integer;
begin
  Double := n * 2;
end;

begin
end.`)
	require.Len(t, prog.Procs, 2)
	assert.Equal(t, "Greet", prog.Procs[0].Name)
	require.Len(t, prog.Procs[0].Params, 1)
	assert.Equal(t, "name", prog.Procs[0].Params[0].Name)
	assert.False(t, prog.Procs[0].Params[0].ByRef)

	assert.Equal(t, "Double", prog.Procs[1].Name)
	assert.Equal(t, "integer", prog.Procs[1].ReturnType)
}

func TestParseVarParam(t *testing.T) {
	prog := parseProgram(t, `program P;
procedure Swap(var a, b: Integer);
begin
end;

begin
end.`)
	require.Len(t, prog.Procs, 1)
	params := prog.Procs[0].Params
	require.Len(t, params, 2)
	assert.True(t, params[0].ByRef)
	assert.True(t, params[1].ByRef)
}

func TestParseIfStmt(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n if x > 0 then y := 1 else y := 2;\nend.")
	require.Len(t, prog.Body.Statements, 1)
	ifs, ok := prog.Body.Statements[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifs.Then)
	assert.NotNil(t, ifs.Else)
}

func TestParseWhileStmt(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n while x < 10 do x := x + 1;\nend.")
	stmt, ok := prog.Body.Statements[0].(*ast.WhileStmt)
	require.True(t, ok)
	assert.Equal(t, "(x < 10)", stmt.Cond.String())
}

func TestParseRepeatStmt(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n repeat x := x + 1 until x = 10;\nend.")
	stmt, ok := prog.Body.Statements[0].(*ast.RepeatStmt)
	require.True(t, ok)
	require.Len(t, stmt.Body, 1)
}

func TestParseForStmt(t *testing.T) {
	tests := []struct {
		name string
		src  string
		down bool
	}{
		{"to", "program P;\nbegin\n for i := 1 to 10 do x := x + i;\nend.", false},
		{"downto", "program P;\nbegin\n for i := 10 downto 1 do x := x + i;\nend.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := parseProgram(t, tt.src)
			stmt, ok := prog.Body.Statements[0].(*ast.ForStmt)
			require.True(t, ok)
			assert.Equal(t, "i", stmt.Var)
			assert.Equal(t, tt.down, stmt.Down)
		})
	}
}

func TestParseCaseStmt(t *testing.T) {
	prog := parseProgram(t, `program P;
begin
  case x of
    1: y := 1;
    2, 3: y := 2;
    4..6: y := 3;
  else
    y := 0;
  end;
end.`)
	stmt, ok := prog.Body.Statements[0].(*ast.CaseStmt)
	require.True(t, ok)
	require.Len(t, stmt.Branches, 3)
	assert.Len(t, stmt.Branches[1].Labels, 2)
	assert.True(t, stmt.Branches[2].Labels[0].IsRange)
	assert.NotNil(t, stmt.Else)
}

func TestParseWithStmt(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n with p do X := 1;\nend.")
	stmt, ok := prog.Body.Statements[0].(*ast.WithStmt)
	require.True(t, ok)
	assert.Equal(t, "p", stmt.Record)
}

func TestParseGotoAndLabeledStmt(t *testing.T) {
	prog := parseProgram(t, `program P;
label 1;
begin
  goto 1;
  1: x := 1;
end.`)
	require.Len(t, prog.Body.Statements, 2)
	gt, ok := prog.Body.Statements[0].(*ast.GotoStmt)
	require.True(t, ok)
	assert.Equal(t, "1", gt.Label)

	labeled, ok := prog.Body.Statements[1].(*ast.LabeledStmt)
	require.True(t, ok)
	assert.Equal(t, "1", labeled.Label)
}

func TestParseWriteAndReadStmt(t *testing.T) {
	prog := parseProgram(t, `program P;
var
  n: Integer;
begin
  WriteLn('n =', n);
  ReadLn(n);
end.`)
	require.Len(t, prog.Body.Statements, 2)
	w, ok := prog.Body.Statements[0].(*ast.WriteStmt)
	require.True(t, ok)
	assert.True(t, w.Newline)
	require.Len(t, w.Args, 2)

	r, ok := prog.Body.Statements[1].(*ast.ReadStmt)
	require.True(t, ok)
	assert.True(t, r.Newline)
	assert.Equal(t, []string{"n"}, r.Args)
}

func TestParseArrayAndRecordAssignment(t *testing.T) {
	prog := parseProgram(t, `program P;
begin
  a[1] := 2;
  p.X := 3;
  a[1].X := 4;
  p.Points[1] := 5;
end.`)
	require.Len(t, prog.Body.Statements, 4)

	arr, ok := prog.Body.Statements[0].(*ast.ArrayAssignStmt)
	require.True(t, ok)
	assert.Equal(t, "a", arr.Name)

	rec, ok := prog.Body.Statements[1].(*ast.RecordAssignStmt)
	require.True(t, ok)
	assert.Equal(t, "p", rec.Record)
	assert.Equal(t, "X", rec.Field)

	arf, ok := prog.Body.Statements[2].(*ast.ArrayRecordAssignStmt)
	require.True(t, ok)
	assert.Equal(t, "a", arf.Array)
	assert.Equal(t, "X", arf.Field)

	raa, ok := prog.Body.Statements[3].(*ast.RecordArrayAssignStmt)
	require.True(t, ok)
	assert.Equal(t, "p", raa.Record)
	assert.Equal(t, "Points", raa.Field)
}

func TestParsePointerStmts(t *testing.T) {
	prog := parseProgram(t, `program P;
var
  p: ^Integer;
begin
  new(p);
  p^ := 5;
  dispose(p);
end.`)
	require.Len(t, prog.Body.Statements, 3)
	_, ok := prog.Body.Statements[0].(*ast.NewStmt)
	assert.True(t, ok)
	pa, ok := prog.Body.Statements[1].(*ast.PointerAssignStmt)
	require.True(t, ok)
	assert.Equal(t, "p", pa.Target)
	_, ok = prog.Body.Statements[2].(*ast.DisposeStmt)
	assert.True(t, ok)
}

func TestParseProcCallStmt(t *testing.T) {
	prog := parseProgram(t, "program P;\nbegin\n DoSomething;\n DoSomethingElse(1, 2);\nend.")
	require.Len(t, prog.Body.Statements, 2)
	c1, ok := prog.Body.Statements[0].(*ast.ProcCallStmt)
	require.True(t, ok)
	assert.Equal(t, "DoSomething", c1.Name)
	assert.Nil(t, c1.Args)

	c2, ok := prog.Body.Statements[1].(*ast.ProcCallStmt)
	require.True(t, ok)
	assert.Equal(t, "DoSomethingElse", c2.Name)
	assert.Len(t, c2.Args, 2)
}

func TestParseUnit(t *testing.T) {
	src := `unit MathUtils;

interface

function Double(n: Integer): Integer;

implementation

function Double(n: Integer): Integer;
begin
  Double := n * 2;
end;

initialization
  WriteLn('loaded');
finalization
  WriteLn('unloaded');
end.`
	u, err := New(lexer.New(src)).ParseUnit()
	require.NoError(t, err)
	assert.Equal(t, "MathUtils", u.Name)

	require.Len(t, u.Interface.Procs, 1)
	assert.Nil(t, u.Interface.Procs[0].Body)

	require.Len(t, u.Implementation.Procs, 1)
	assert.NotNil(t, u.Implementation.Procs[0].Body)

	require.NotNil(t, u.Init)
	require.NotNil(t, u.Final)
}

func TestParseUnitUsesClauses(t *testing.T) {
	src := `unit Quad;

interface

uses MathUtils;

function Quadruple(n: Integer): Integer;

implementation

uses StrUtils;

function Quadruple(n: Integer): Integer;
begin
  Quadruple := Double(Double(n));
end;

end.`
	u, err := New(lexer.New(src)).ParseUnit()
	require.NoError(t, err)
	assert.Equal(t, []string{"MathUtils", "StrUtils"}, u.Uses)
}

func TestParseErrorsReportPosition(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing_semicolon_after_var_decl", "program P;\nvar x: integer\nbegin\n x := 1;\nend."},
		{"dangling_operator", "program P;\nbegin\n x := ;\nend."},
		{"unterminated_if", "program P;\nbegin\n if x then\nend."},
		{"missing_program_keyword", "Hello;\nbegin\nend."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(lexer.New(tt.src)).ParseProgram()
			require.Error(t, err)
			perr, ok := err.(*ParseError)
			require.True(t, ok, "expected *ParseError, got %T", err)
			assert.NotZero(t, perr.Pos.Line)
		})
	}
}

func TestParseStopsAtFirstError(t *testing.T) {
	// The parser does not recover: a syntax error anywhere in the body leaves
	// the rest of the statements unparsed rather than attempting resync.
	prog, err := New(lexer.New("program P;\nbegin\n x := ;\n y := 2;\nend.")).ParseProgram()
	require.Error(t, err)
	assert.LessOrEqual(t, len(prog.Body.Statements), 1)
}
