package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumTypeDecl_OrdinalOf(t *testing.T) {
	e := &EnumTypeDecl{Name: "Color", Values: []string{"Red", "Green", "Blue"}}
	assert.Equal(t, 0, e.OrdinalOf("Red"))
	assert.Equal(t, 1, e.OrdinalOf("green")) // case-insensitive
	assert.Equal(t, 2, e.OrdinalOf("Blue"))
	assert.Equal(t, -1, e.OrdinalOf("Purple"))
}

func TestArrayVarDecl_LinearSize(t *testing.T) {
	d := &ArrayVarDecl{Dimensions: []Dimension{{Low: 1, High: 10}}}
	assert.EqualValues(t, 10, d.LinearSize())

	d2 := &ArrayVarDecl{Dimensions: []Dimension{{Low: 0, High: 2}, {Low: 0, High: 3}}}
	assert.EqualValues(t, 12, d2.LinearSize())
}

func TestProcDecl_ParameterCountIsFlattened(t *testing.T) {
	p := &ProcDecl{
		Params: []Param{
			{Name: "a", TypeName: "integer", ByRef: true},
			{Name: "b", TypeName: "integer", ByRef: true},
			{Name: "c", TypeName: "real"},
		},
	}
	assert.Equal(t, 3, p.ParameterCount())
	assert.False(t, p.IsFunction())

	f := &ProcDecl{Name: "Square", ReturnType: "integer"}
	assert.True(t, f.IsFunction())
}
