package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runProgram(t *testing.T, prog *ast.Program) string {
	t.Helper()
	compiled, err := CompileProgram(prog)
	require.NoError(t, err)
	vm := NewVM(compiled)
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, vm.Execute())
	return out.String()
}

// TestForLoopSum mirrors the "Fibonacci for-loop" scenario class: a
// for-loop accumulating into a total, printed once at the end.
func TestForLoopSum(t *testing.T) {
	prog := &ast.Program{
		Name: "Sum",
		Vars: []*ast.VarDecl{{Names: []string{"i", "total"}, TypeName: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "total", Value: &ast.IntegerLit{Value: 0}},
			&ast.ForStmt{
				Var: "i", Start: &ast.IntegerLit{Value: 1}, End: &ast.IntegerLit{Value: 5},
				Body: &ast.AssignStmt{
					Target: "total",
					Value: &ast.BinaryExpr{Op: lexer.PLUS,
						Left: &ast.VarRef{Name: "total"}, Right: &ast.VarRef{Name: "i"}},
				},
			},
			&ast.WriteStmt{Newline: true, Args: []ast.Expression{&ast.VarRef{Name: "total"}}},
		}},
	}
	assert.Equal(t, "15\n", runProgram(t, prog))
}

// TestVarParameterSwap mirrors the "var-parameter swap" scenario class.
func TestVarParameterSwap(t *testing.T) {
	swap := &ast.ProcDecl{
		Name: "Swap",
		Params: []ast.Param{
			{Name: "a", TypeName: "integer", ByRef: true},
			{Name: "b", TypeName: "integer", ByRef: true},
		},
		Locals: []ast.Declaration{&ast.VarDecl{Names: []string{"tmp"}, TypeName: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "tmp", Value: &ast.VarRef{Name: "a"}},
			&ast.AssignStmt{Target: "a", Value: &ast.VarRef{Name: "b"}},
			&ast.AssignStmt{Target: "b", Value: &ast.VarRef{Name: "tmp"}},
		}},
	}
	prog := &ast.Program{
		Name:  "SwapTest",
		Vars:  []*ast.VarDecl{{Names: []string{"x", "y"}, TypeName: "integer"}},
		Procs: []*ast.ProcDecl{swap},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "x", Value: &ast.IntegerLit{Value: 1}},
			&ast.AssignStmt{Target: "y", Value: &ast.IntegerLit{Value: 2}},
			&ast.ProcCallStmt{Name: "Swap", Args: []ast.Expression{
				&ast.VarRef{Name: "x"}, &ast.VarRef{Name: "y"},
			}},
			&ast.WriteStmt{Args: []ast.Expression{&ast.VarRef{Name: "x"}}},
			&ast.WriteStmt{Args: []ast.Expression{&ast.VarRef{Name: "y"}}},
		}},
	}
	assert.Equal(t, "21", runProgram(t, prog))
}

// TestNestedFunctionReturn mirrors the "nested function return" scenario
// class: a function whose result is set by assigning to its own name.
func TestNestedFunctionReturn(t *testing.T) {
	square := &ast.ProcDecl{
		Name:       "Square",
		ReturnType: "integer",
		Params:     []ast.Param{{Name: "n", TypeName: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "Square", Value: &ast.BinaryExpr{
				Op: lexer.STAR, Left: &ast.VarRef{Name: "n"}, Right: &ast.VarRef{Name: "n"},
			}},
		}},
	}
	prog := &ast.Program{
		Name:  "SquareTest",
		Procs: []*ast.ProcDecl{square},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.WriteStmt{Args: []ast.Expression{
				&ast.CallExpr{Name: "Square", Args: []ast.Expression{&ast.IntegerLit{Value: 7}}},
			}},
		}},
	}
	assert.Equal(t, "49", runProgram(t, prog))
}

// TestCaseWithRanges mirrors the "case with ranges" scenario class.
func TestCaseWithRanges(t *testing.T) {
	prog := &ast.Program{
		Name: "Grade",
		Vars: []*ast.VarDecl{{Names: []string{"score"}, TypeName: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "score", Value: &ast.IntegerLit{Value: 85}},
			&ast.CaseStmt{
				Selector: &ast.VarRef{Name: "score"},
				Branches: []ast.CaseBranch{
					{
						Labels: []ast.CaseLabel{{IsRange: true, Low: &ast.IntegerLit{Value: 90}, High: &ast.IntegerLit{Value: 100}}},
						Body:   &ast.WriteStmt{Args: []ast.Expression{&ast.StringLit{Value: "A"}}},
					},
					{
						Labels: []ast.CaseLabel{{IsRange: true, Low: &ast.IntegerLit{Value: 80}, High: &ast.IntegerLit{Value: 89}}},
						Body:   &ast.WriteStmt{Args: []ast.Expression{&ast.StringLit{Value: "B"}}},
					},
				},
				Else: &ast.WriteStmt{Args: []ast.Expression{&ast.StringLit{Value: "F"}}},
			},
		}},
	}
	assert.Equal(t, "B", runProgram(t, prog))
}

// TestPointerAllocDispose mirrors the "pointer alloc/dispose" scenario
// class: new() followed by a dereferenced assignment and read-back.
func TestPointerAllocDispose(t *testing.T) {
	prog := &ast.Program{
		Name:        "PtrTest",
		PointerVars: []*ast.PointerVarDecl{{Names: []string{"p"}, PointedType: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.NewStmt{Name: "p"},
			&ast.PointerAssignStmt{Target: "p", Value: &ast.IntegerLit{Value: 99}},
			&ast.WriteStmt{Args: []ast.Expression{&ast.PointerDeref{Inner: &ast.VarRef{Name: "p"}}}},
			&ast.DisposeStmt{Name: "p"},
		}},
	}
	assert.Equal(t, "99", runProgram(t, prog))
}

// TestReadMultipleValuesSharesStdinReader guards against re-wrapping Stdin
// in a fresh bufio.Reader on every read: that would discard whatever the
// first read buffered past its line, losing "b" below entirely.
func TestReadMultipleValuesSharesStdinReader(t *testing.T) {
	prog := &ast.Program{
		Name: "ReadTwo",
		Vars: []*ast.VarDecl{{Names: []string{"a", "b"}, TypeName: "string"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.ReadStmt{Args: []string{"a"}},
			&ast.ReadStmt{Args: []string{"b"}},
			&ast.WriteStmt{Args: []ast.Expression{&ast.VarRef{Name: "a"}, &ast.VarRef{Name: "b"}}},
		}},
	}
	compiled, err := CompileProgram(prog)
	require.NoError(t, err)

	vm := NewVM(compiled)
	vm.Stdin = strings.NewReader("alpha\nbeta\n")
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, vm.Execute())
	assert.Equal(t, "alphabeta", out.String())
}

func TestUnitLinkRunsInitialization(t *testing.T) {
	unit := &ast.Unit{
		Name: "Greeter",
		Implementation: ast.UnitSection{
			Vars: []*ast.VarDecl{{Names: []string{"greeting"}, TypeName: "string"}},
		},
		Init: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "greeting", Value: &ast.StringLit{Value: "hello"}},
		}},
	}
	compiledUnit, err := CompileUnit(unit)
	require.NoError(t, err)

	prog := NewProgram("Main")
	prog.Instructions = []Instruction{
		strOp(OpLoadVar, "greeting"),
		simple(OpWriteln),
		simple(OpHalt),
	}
	vm := NewVM(prog)
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, vm.LinkUnit(compiledUnit))
	require.NoError(t, vm.Execute())
	assert.Equal(t, "hello\n", out.String())
}

func TestSetMembership(t *testing.T) {
	prog := &ast.Program{
		Name: "SetTest",
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.WriteStmt{Args: []ast.Expression{
				&ast.SetMembership{
					Value: &ast.IntegerLit{Value: 2},
					Set: &ast.SetLit{Elements: []ast.Expression{
						&ast.IntegerLit{Value: 1}, &ast.IntegerLit{Value: 2}, &ast.IntegerLit{Value: 3},
					}},
				},
			}},
		}},
	}
	assert.Equal(t, "true", runProgram(t, prog))
}

func TestDisassembleContainsInstructions(t *testing.T) {
	prog := &ast.Program{
		Name: "DisasmTest",
		Vars: []*ast.VarDecl{{Names: []string{"x"}, TypeName: "integer"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.AssignStmt{Target: "x", Value: &ast.IntegerLit{Value: 1}},
		}},
	}
	compiled, err := CompileProgram(prog)
	require.NoError(t, err)
	text := Disassemble(compiled)
	assert.True(t, strings.Contains(text, "STORE_VAR x"))
	assert.True(t, strings.Contains(text, "HALT"))
}
