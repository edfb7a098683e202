package semantic

import (
	"testing"

	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/cwbudde/go-pasc/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeSource(t *testing.T, src string) (*Analyzer, error) {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	a := NewAnalyzer()
	a.SetSource(src, "test.pas")
	return a, a.Analyze(prog)
}

func TestUndeclaredVariableIsReported(t *testing.T) {
	_, err := analyzeSource(t, `program P; begin x := 1; end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared identifier")
}

func TestAssignIntegerToRealIsAllowed(t *testing.T) {
	_, err := analyzeSource(t, `program P; var x: real; begin x := 1; end.`)
	assert.NoError(t, err)
}

func TestAssignStringToIntegerIsRejected(t *testing.T) {
	_, err := analyzeSource(t, `program P; var x: integer; begin x := 'hi'; end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot assign")
}

func TestDivRequiresIntegerOperands(t *testing.T) {
	_, err := analyzeSource(t, `program P; var x: integer; begin x := 3.0 div 2; end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires integer operands")
}

func TestSlashAlwaysYieldsReal(t *testing.T) {
	_, err := analyzeSource(t, `program P; var x: real; begin x := 4 / 2; end.`)
	assert.NoError(t, err)
}

func TestForLoopVariableMustBeInteger(t *testing.T) {
	_, err := analyzeSource(t, `program P; var i: real; begin for i := 1 to 10 do begin end; end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be integer")
}

func TestCallArityMismatchIsReported(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		procedure Greet(name: string);
		begin
		end;
		begin
			Greet();
		end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 1 argument")
}

func TestVarParameterRequiresVariableArgument(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		procedure Inc1(var n: integer);
		begin
			n := n + 1;
		end;
		begin
			Inc1(5);
		end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a variable")
}

func TestRecordFieldAccessResolvesFieldType(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		type TPoint = record x: integer; y: integer; end;
		var p: TPoint;
		begin
			p.x := 3;
		end.`)
	assert.NoError(t, err)
}

func TestRecordFieldAccessRejectsUnknownField(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		type TPoint = record x: integer; end;
		var p: TPoint;
		begin
			p.z := 3;
		end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no field")
}

func TestEnumValueAssignsToEnumVariable(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		type TColor = (Red, Green, Blue);
		var c: TColor;
		begin
			c := Green;
		end.`)
	assert.NoError(t, err)
}

func TestSetMembershipRequiresMatchingElementType(t *testing.T) {
	_, err := analyzeSource(t, `
		program P;
		var s: set of integer;
		var ok: boolean;
		begin
			ok := 'x' in s;
		end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "membership")
}

func TestUnknownFunctionCallIsReported(t *testing.T) {
	_, err := analyzeSource(t, `program P; var x: integer; begin x := Frobnicate(1); end.`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared function")
}
