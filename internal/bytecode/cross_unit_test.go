package bytecode

import (
	"bytes"
	"testing"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doubleUnit() *ast.Unit {
	return &ast.Unit{
		Name: "MathUtils",
		Interface: ast.UnitSection{
			Procs: []*ast.ProcDecl{{
				Name:       "Double",
				Params:     []ast.Param{{Name: "n", TypeName: "integer"}},
				ReturnType: "integer",
			}},
		},
		Implementation: ast.UnitSection{
			Procs: []*ast.ProcDecl{{
				Name:       "Double",
				Params:     []ast.Param{{Name: "n", TypeName: "integer"}},
				ReturnType: "integer",
				Body: &ast.CompoundStmt{Statements: []ast.Statement{
					&ast.AssignStmt{
						Target: "Double",
						Value: &ast.BinaryExpr{
							Op:    lexer.STAR,
							Left:  &ast.VarRef{Name: "n"},
							Right: &ast.IntegerLit{Value: 2},
						},
					},
				}},
			}},
		},
	}
}

func TestCompileProgramRejectsCallIntoUsedUnitWithoutDeclareExternal(t *testing.T) {
	prog := &ast.Program{
		Name: "UsesMath",
		Uses: []string{"MathUtils"},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.WriteStmt{Args: []ast.Expression{
				&ast.CallExpr{Name: "Double", Args: []ast.Expression{&ast.IntegerLit{Value: 21}}},
			}},
		}},
	}
	_, err := CompileProgram(prog)
	assert.Error(t, err)
}

func TestCompileProgramWithUnitsResolvesCrossUnitCall(t *testing.T) {
	unit := doubleUnit()
	compiledUnit, err := CompileUnit(unit)
	require.NoError(t, err)

	prog := &ast.Program{
		Name: "UsesMath",
		Uses: []string{"MathUtils"},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.WriteStmt{Args: []ast.Expression{
				&ast.CallExpr{Name: "Double", Args: []ast.Expression{&ast.IntegerLit{Value: 21}}},
			}},
		}},
	}
	compiled, err := CompileProgramWithUnits(prog, []*ast.Unit{unit})
	require.NoError(t, err)

	vm := NewVM(compiled)
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, vm.LinkUnit(compiledUnit))
	require.NoError(t, vm.Execute())
	assert.Equal(t, "42", out.String())
}

func TestCompileProgramWithUnitsDoesNotDuplicateRecordMetadata(t *testing.T) {
	point := &ast.RecordTypeDecl{
		Name: "TPoint",
		Fields: []ast.FieldDecl{
			{Name: "X", TypeName: "integer"},
			{Name: "Y", TypeName: "integer"},
		},
	}
	unit := &ast.Unit{
		Name: "Points",
		Interface: ast.UnitSection{
			RecordTypes: []*ast.RecordTypeDecl{point},
		},
	}
	compiledUnit, err := CompileUnit(unit)
	require.NoError(t, err)

	prog := &ast.Program{
		Name: "UsesPoints",
		Uses: []string{"Points"},
		RecordVars: []*ast.RecordVarDecl{{Names: []string{"p"}, TypeName: "TPoint"}},
		Body: &ast.CompoundStmt{Statements: []ast.Statement{
			&ast.RecordAssignStmt{Record: "p", Field: "X", Value: &ast.IntegerLit{Value: 1}},
		}},
	}
	compiled, err := CompileProgramWithUnits(prog, []*ast.Unit{unit})
	require.NoError(t, err)

	for _, rm := range compiled.Records {
		assert.NotEqual(t, "TPoint", rm.Name, "TPoint's metadata belongs only to the unit's own bytecode")
	}
	require.Len(t, compiledUnit.Records, 1)
	assert.Equal(t, "TPoint", compiledUnit.Records[0].Name)
}

func TestCompileUnitWithUnitsResolvesTransitiveUnitCall(t *testing.T) {
	base := doubleUnit()
	compiledBase, err := CompileUnit(base)
	require.NoError(t, err)

	quad := &ast.Unit{
		Name: "Quad",
		Uses: []string{"MathUtils"},
		Interface: ast.UnitSection{
			Procs: []*ast.ProcDecl{{Name: "Quadruple", Params: []ast.Param{{Name: "n", TypeName: "integer"}}, ReturnType: "integer"}},
		},
		Implementation: ast.UnitSection{
			Procs: []*ast.ProcDecl{{
				Name:       "Quadruple",
				Params:     []ast.Param{{Name: "n", TypeName: "integer"}},
				ReturnType: "integer",
				Body: &ast.CompoundStmt{Statements: []ast.Statement{
					&ast.AssignStmt{
						Target: "Quadruple",
						Value: &ast.CallExpr{Name: "Double", Args: []ast.Expression{
							&ast.CallExpr{Name: "Double", Args: []ast.Expression{&ast.VarRef{Name: "n"}}},
						}},
					},
				}},
			}},
		},
	}
	compiledQuad, err := CompileUnitWithUnits(quad, []*ast.Unit{base})
	require.NoError(t, err)

	prog := NewProgram("Main")
	prog.Instructions = []Instruction{
		intOp(OpPush, 10),
		strOp(OpCall, "Quadruple"),
		simple(OpWriteln),
		simple(OpHalt),
	}
	vm := NewVM(prog)
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, vm.LinkUnit(compiledBase))
	require.NoError(t, vm.LinkUnit(compiledQuad))
	require.NoError(t, vm.Execute())
	assert.Equal(t, "40\n", out.String())
}
