package ast

import "strings"

// ConstDecl binds a name to a constant expression value.
type ConstDecl struct {
	Base
	Name string
	Value Expression
}

func (d *ConstDecl) declarationNode() {}
func (d *ConstDecl) String() string { return "const " + d.Name + " = " + d.Value.String() + ";" }

// VarDecl declares one or more scalar/named-type variables sharing a type.
type VarDecl struct {
	Base
	Names []string
	TypeName string
}

func (d *VarDecl) declarationNode() {}
func (d *VarDecl) String() string {
	return strings.Join(d.Names, ", ") + ": " + d.TypeName + ";"
}

// ArrayVarDecl declares array variables. Dimensions is non-empty and each
// bound satisfies low <= high.
type ArrayVarDecl struct {
	Base
	Names      []string
	Dimensions []Dimension
	ElemType   string
}

func (d *ArrayVarDecl) declarationNode() {}
func (d *ArrayVarDecl) String() string {
	return strings.Join(d.Names, ", ") + ": array of " + d.ElemType + ";"
}

// LinearSize returns the product of (high-low+1) across all dimensions,
// the flat element count backing this array.
func (d *ArrayVarDecl) LinearSize() int64 {
	var size int64 = 1
	for _, dim := range d.Dimensions {
		size *= dim.High - dim.Low + 1
	}
	return size
}

// RecordVarDecl declares variables of a named record type.
type RecordVarDecl struct {
	Base
	Names []string
	TypeName string
}

func (d *RecordVarDecl) declarationNode() {}
func (d *RecordVarDecl) String() string {
	return strings.Join(d.Names, ", ") + ": " + d.TypeName + ";"
}

// FileVarDecl declares a file variable: either a text file or a typed
// `file of T`.
type FileVarDecl struct {
	Base
	Names []string
	IsText bool
	ElemType string // empty when IsText
}

func (d *FileVarDecl) declarationNode() {}
func (d *FileVarDecl) String() string {
	if d.IsText {
		return strings.Join(d.Names, ", ") + ": text;"
	}
	return strings.Join(d.Names, ", ") + ": file of " + d.ElemType + ";"
}

// PointerVarDecl declares `^Type` pointer variables.
type PointerVarDecl struct {
	Base
	Names []string
	PointedType string
}

func (d *PointerVarDecl) declarationNode() {}
func (d *PointerVarDecl) String() string {
	return strings.Join(d.Names, ", ") + ": ^" + d.PointedType + ";"
}

// SetVarDecl declares `set of Type` variables.
type SetVarDecl struct {
	Base
	Names []string
	ElemType string
}

func (d *SetVarDecl) declarationNode() {}
func (d *SetVarDecl) String() string {
	return strings.Join(d.Names, ", ") + ": set of " + d.ElemType + ";"
}

// FieldDecl is one field of a record type.
type FieldDecl struct {
	Name string
	TypeName string
}

// RecordTypeDecl declares a named record type with its fields.
type RecordTypeDecl struct {
	Base
	Name string
	Fields []FieldDecl
}

func (d *RecordTypeDecl) declarationNode() {}
func (d *RecordTypeDecl) String() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	sb.WriteString(" = record ")
	for _, f := range d.Fields {
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(f.TypeName)
		sb.WriteString("; ")
	}
	sb.WriteString("end;")
	return sb.String()
}

// EnumTypeDecl declares an ordered enumeration type. Value ordinals are the
// declaration-order index, 0-based.
type EnumTypeDecl struct {
	Base
	Name   string
	Values []string
}

func (d *EnumTypeDecl) declarationNode() {}
func (d *EnumTypeDecl) String() string {
	return d.Name + " = (" + strings.Join(d.Values, ", ") + ");"
}

// OrdinalOf returns the 0-based declaration order of name, or -1 if absent.
func (d *EnumTypeDecl) OrdinalOf(name string) int {
	for i, v := range d.Values {
		if strings.EqualFold(v, name) {
			return i
		}
	}
	return -1
}

// Param is one name within a parameter group; ByRef is carried per-group and
// copied onto each expanded parameter so ParameterCount reflects the
// flattened count.
type Param struct {
	Name     string
	TypeName string
	ByRef    bool
}

// ProcDecl is a procedure or function declaration: name, parameters, locals,
// nested procedures/functions, and a body. A function is a procedure with a
// non-empty ReturnType.
type ProcDecl struct {
	Base
	Name string
	Params []Param
	Locals []Declaration
	Nested []*ProcDecl
	Body *CompoundStmt
	ReturnType string // empty for a procedure
}

func (d *ProcDecl) declarationNode() {}
func (d *ProcDecl) IsFunction() bool { return d.ReturnType != "" }

func (d *ProcDecl) String() string {
	var sb strings.Builder
	if d.IsFunction() {
		sb.WriteString("function ")
	} else {
		sb.WriteString("procedure ")
	}
	sb.WriteString(d.Name)
	sb.WriteString("(")
	for i, p := range d.Params {
		if i > 0 {
			sb.WriteString("; ")
		}
		if p.ByRef {
			sb.WriteString("var ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.TypeName)
	}
	sb.WriteString(")")
	if d.IsFunction() {
		sb.WriteString(": " + d.ReturnType)
	}
	sb.WriteString(";")
	return sb.String()
}

// ParameterCount returns the flattened parameter count (one per name, not
// per group), matching RegisterProcedure's expansion.
func (d *ProcDecl) ParameterCount() int { return len(d.Params) }
