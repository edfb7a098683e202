// Package semantic walks a parsed program or unit, resolving every name to a
// canonical type and accumulating diagnostics rather than failing fast.
package semantic

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/errors"
)

// RecordTypeInfo is a registered record type: its field names in declaration
// order plus each field's canonical type.
type RecordTypeInfo struct {
	Name string
	FieldOrder []string
	FieldType map[string]string
}

// EnumTypeInfo is a registered enum type: its value names in declaration
// order, the order IS the ordinal.
type EnumTypeInfo struct {
	Name   string
	Values []string
}

// ArrayInfo is a registered array variable's shape.
type ArrayInfo struct {
	Dimensions []ast.Dimension
	ElemType string
}

// FileVarInfo is a registered file variable's shape.
type FileVarInfo struct {
	IsText bool
	ElemType string
}

// ParamSig is one formal parameter of a registered procedure/function.
type ParamSig struct {
	Name string
	Type string
	ByRef bool
}

// ProcSig is a registered procedure/function signature.
type ProcSig struct {
	Name string
	Params []ParamSig
	ReturnType string // empty for a procedure
}

func (p *ProcSig) IsFunction() bool { return p.ReturnType != "" }

// Analyzer walks an AST accumulating semantic errors; it never panics and
// never stops at the first error.
type Analyzer struct {
	symbols *SymbolTable
	arrays map[string]*ArrayInfo
	recordVars map[string]string // var name -> record type name
	recordTypes map[string]*RecordTypeInfo
	enumTypes map[string]*EnumTypeInfo
	enumValue map[string]string // enum value name -> owning enum type name
	setVars map[string]string // var name -> element type
	fileVars map[string]*FileVarInfo
	pointerVars map[string]string // var name -> pointed-to type
	procs map[string]*ProcSig

	currentProc *ProcSig

	source string
	file string
	errors []*errors.CompilerError
}

// NewAnalyzer creates an analyzer with empty tables; call SetSource before
// Analyze if source-excerpt error formatting is wanted.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		symbols: NewSymbolTable(),
		arrays: make(map[string]*ArrayInfo),
		recordVars: make(map[string]string),
		recordTypes: make(map[string]*RecordTypeInfo),
		enumTypes: make(map[string]*EnumTypeInfo),
		enumValue: make(map[string]string),
		setVars: make(map[string]string),
		fileVars: make(map[string]*FileVarInfo),
		pointerVars: make(map[string]string),
		procs: make(map[string]*ProcSig),
	}
}

// SetSource attaches the original source text and file name so accumulated
// errors can render a caret-pointed excerpt.
func (a *Analyzer) SetSource(source, file string) {
	a.source = source
	a.file = file
}

// Errors returns every accumulated diagnostic, in the order encountered.
func (a *Analyzer) Errors() []*errors.CompilerError { return a.errors }

// declSet is the common shape of a program body or a unit's merged
// interface+implementation sections, mirroring the bytecode compiler's own
// declSet so both passes walk declarations the same way.
type declSet struct {
	Consts []*ast.ConstDecl
	Vars []*ast.VarDecl
	ArrayVars []*ast.ArrayVarDecl
	RecordVars []*ast.RecordVarDecl
	FileVars []*ast.FileVarDecl
	PointerVars []*ast.PointerVarDecl
	SetVars []*ast.SetVarDecl
	RecordTypes []*ast.RecordTypeDecl
	EnumTypes []*ast.EnumTypeDecl
	Procs []*ast.ProcDecl
}

func fromProgram(p *ast.Program) declSet {
	return declSet{
		Consts: p.Consts, Vars: p.Vars, ArrayVars: p.ArrayVars, RecordVars: p.RecordVars,
		FileVars: p.FileVars, PointerVars: p.PointerVars, SetVars: p.SetVars,
		RecordTypes: p.RecordTypes, EnumTypes: p.EnumTypes, Procs: p.Procs,
	}
}

func fromUnitSections(iface, impl ast.UnitSection) declSet {
	return declSet{
		Consts: append(append([]*ast.ConstDecl{}, iface.Consts...), impl.Consts...),
		Vars: append(append([]*ast.VarDecl{}, iface.Vars...), impl.Vars...),
		ArrayVars: append(append([]*ast.ArrayVarDecl{}, iface.ArrayVars...), impl.ArrayVars...),
		RecordVars: append(append([]*ast.RecordVarDecl{}, iface.RecordVars...), impl.RecordVars...),
		FileVars: append(append([]*ast.FileVarDecl{}, iface.FileVars...), impl.FileVars...),
		PointerVars: append(append([]*ast.PointerVarDecl{}, iface.PointerVars...), impl.PointerVars...),
		SetVars: append(append([]*ast.SetVarDecl{}, iface.SetVars...), impl.SetVars...),
		RecordTypes: append(append([]*ast.RecordTypeDecl{}, iface.RecordTypes...), impl.RecordTypes...),
		EnumTypes: append(append([]*ast.EnumTypeDecl{}, iface.EnumTypes...), impl.EnumTypes...),
		Procs: impl.Procs,
	}
}

// Analyze walks a whole program: register types, then variables, then
// procedures/functions (recursively for nested ones), then every body in its
// own saved-and-restored scope, then the main block.
func (a *Analyzer) Analyze(prog *ast.Program) error {
	d := fromProgram(prog)
	a.registerAll(d)
	a.analyzeProcBodies(d.Procs)
	if prog.Body != nil {
		a.analyzeStmt(prog.Body)
	}
	return a.result()
}

// AnalyzeUnit registers the interface section, matches each interface header
// to its implementation body by case-insensitive name when present, then
// analyzes the initialization/finalization blocks.
func (a *Analyzer) AnalyzeUnit(u *ast.Unit) error {
	d := fromUnitSections(u.Interface, u.Implementation)
	a.registerAll(d)
	a.linkInterfaceBodies(u.Interface.Procs, u.Implementation.Procs)
	a.analyzeProcBodies(d.Procs)
	if u.Init != nil {
		a.analyzeStmt(u.Init)
	}
	if u.Final != nil {
		a.analyzeStmt(u.Final)
	}
	return a.result()
}

// linkInterfaceBodies reports interface headers with no matching
// implementation; a name match is case-insensitive.
func (a *Analyzer) linkInterfaceBodies(headers, bodies []*ast.ProcDecl) {
	implemented := make(map[string]bool, len(bodies))
	for _, b := range bodies {
		implemented[canon(b.Name)] = true
	}
	for _, h := range headers {
		if !implemented[canon(h.Name)] {
			a.addError(h, "procedure/function %q declared in interface but not implemented", h.Name)
		}
	}
}

// AnalyzeProgramWithUnits analyzes prog the same way Analyze does, but first
// seeds each used unit's declarations into the analyzer via declareExternal,
// mirroring the bytecode compiler's CompileProgramWithUnits: a program that
// references a used unit's types, constants, or procedures type-checks the
// same as if those names were declared locally, instead of going unchecked.
func (a *Analyzer) AnalyzeProgramWithUnits(prog *ast.Program, uses []*ast.Unit) error {
	for _, u := range uses {
		a.declareExternal(fromUnitSections(u.Interface, u.Implementation))
	}
	return a.Analyze(prog)
}

// AnalyzeUnitWithUnits analyzes u the same way AnalyzeUnit does, but first
// declares each of u's own used units' signatures via declareExternal, the
// unit-analyzing counterpart of AnalyzeProgramWithUnits.
func (a *Analyzer) AnalyzeUnitWithUnits(u *ast.Unit, uses []*ast.Unit) error {
	for _, dep := range uses {
		a.declareExternal(fromUnitSections(dep.Interface, dep.Implementation))
	}
	return a.AnalyzeUnit(u)
}

// declareExternal registers a used unit's types, constants, variables, and
// procedure/function signatures into the analyzer's own tables without
// re-validating them: the unit was already analyzed on its own, so the only
// redeclaration diagnostics that can still fire here are genuine collisions
// between the unit's names and the importing program's own. Mirrors the
// bytecode compiler's declareExternal so both backends resolve cross-unit
// names the same way.
func (a *Analyzer) declareExternal(d declSet) {
	for _, e := range d.EnumTypes {
		key := canon(e.Name)
		if _, exists := a.enumTypes[key]; exists {
			continue
		}
		a.enumTypes[key] = &EnumTypeInfo{Name: e.Name, Values: append([]string{}, e.Values...)}
		for _, v := range e.Values {
			if _, exists := a.enumValue[canon(v)]; !exists {
				a.enumValue[canon(v)] = e.Name
			}
		}
	}
	for _, r := range d.RecordTypes {
		key := canon(r.Name)
		if _, exists := a.recordTypes[key]; exists {
			continue
		}
		info := &RecordTypeInfo{Name: r.Name, FieldType: make(map[string]string)}
		for _, f := range r.Fields {
			info.FieldOrder = append(info.FieldOrder, f.Name)
			info.FieldType[canon(f.Name)] = a.resolveTypeName(r, f.TypeName)
		}
		a.recordTypes[key] = info
	}
	for _, cd := range d.Consts {
		t := a.analyzeExpr(cd.Value)
		a.symbols.DefineConst(cd.Name, t)
	}
	for _, v := range d.Vars {
		t := a.resolveTypeName(v, v.TypeName)
		for _, name := range v.Names {
			a.symbols.Define(name, t)
		}
	}
	for _, r := range d.RecordVars {
		rt, ok := a.recordTypes[canon(r.TypeName)]
		if !ok {
			continue
		}
		for _, name := range r.Names {
			a.recordVars[canon(name)] = rt.Name
		}
	}
	for _, ar := range d.ArrayVars {
		elem := a.resolveTypeName(ar, ar.ElemType)
		for _, name := range ar.Names {
			a.arrays[canon(name)] = &ArrayInfo{Dimensions: ar.Dimensions, ElemType: elem}
		}
	}
	for _, f := range d.FileVars {
		elem := ""
		if !f.IsText {
			elem = a.resolveTypeName(f, f.ElemType)
		}
		for _, name := range f.Names {
			a.fileVars[canon(name)] = &FileVarInfo{IsText: f.IsText, ElemType: elem}
		}
	}
	for _, p := range d.PointerVars {
		pointed := a.resolveTypeName(p, p.PointedType)
		for _, name := range p.Names {
			a.pointerVars[canon(name)] = pointed
		}
	}
	for _, s := range d.SetVars {
		elem := a.resolveTypeName(s, s.ElemType)
		for _, name := range s.Names {
			a.setVars[canon(name)] = elem
		}
	}
	for _, p := range d.Procs {
		key := canon(p.Name)
		if _, exists := a.procs[key]; exists {
			continue
		}
		sig := &ProcSig{Name: p.Name}
		if p.IsFunction() {
			sig.ReturnType = a.resolveTypeName(p, p.ReturnType)
		}
		for _, param := range p.Params {
			sig.Params = append(sig.Params, ParamSig{
				Name: param.Name, Type: a.resolveTypeName(p, param.TypeName), ByRef: param.ByRef,
			})
		}
		a.procs[key] = sig
	}
}

func (a *Analyzer) result() error {
	if len(a.errors) == 0 {
		return nil
	}
	return &AnalysisError{Errors: a.errors}
}

func (a *Analyzer) registerAll(d declSet) {
	a.registerEnumTypes(d.EnumTypes)
	a.registerRecordTypes(d.RecordTypes)
	a.registerConsts(d.Consts)
	a.registerVars(d.Vars)
	a.registerArrayVars(d.ArrayVars)
	a.registerRecordVars(d.RecordVars)
	a.registerFileVars(d.FileVars)
	a.registerPointerVars(d.PointerVars)
	a.registerSetVars(d.SetVars)
	a.registerProcSignatures(d.Procs)
}

func (a *Analyzer) registerEnumTypes(decls []*ast.EnumTypeDecl) {
	for _, d := range decls {
		key := canon(d.Name)
		if _, exists := a.enumTypes[key]; exists {
			a.addError(d, "enum type %q redeclared", d.Name)
			continue
		}
		info := &EnumTypeInfo{Name: d.Name, Values: append([]string{}, d.Values...)}
		a.enumTypes[key] = info
		for _, v := range d.Values {
			vk := canon(v)
			if owner, exists := a.enumValue[vk]; exists {
				a.addError(d, "enum value %q already declared in %q", v, owner)
				continue
			}
			a.enumValue[vk] = d.Name
		}
	}
}

func (a *Analyzer) registerRecordTypes(decls []*ast.RecordTypeDecl) {
	for _, d := range decls {
		key := canon(d.Name)
		if _, exists := a.recordTypes[key]; exists {
			a.addError(d, "record type %q redeclared", d.Name)
			continue
		}
		info := &RecordTypeInfo{Name: d.Name, FieldType: make(map[string]string)}
		for _, f := range d.Fields {
			info.FieldOrder = append(info.FieldOrder, f.Name)
			info.FieldType[canon(f.Name)] = a.resolveTypeName(d, f.TypeName)
		}
		a.recordTypes[key] = info
	}
}

// resolveTypeName maps a parsed type name to its canonical form, reporting an
// error if it names an unknown record/enum (scalars and pointer/set forms
// pass through as written since the parser already folds them to a string).
func (a *Analyzer) resolveTypeName(node ast.Node, typeName string) string {
	switch canonType(typeName) {
	case TInteger, TReal, TString, TBoolean, TNil, TAuto, TUnknown:
		return canonType(typeName)
	}
	if isPointerType(typeName) || isSetType(typeName) {
		return typeName
	}
	key := canon(typeName)
	if _, ok := a.recordTypes[key]; ok {
		return a.recordTypes[key].Name
	}
	if _, ok := a.enumTypes[key]; ok {
		return a.enumTypes[key].Name
	}
	a.addError(node, "unknown type %q", typeName)
	return TUnknown
}

func (a *Analyzer) registerConsts(decls []*ast.ConstDecl) {
	for _, d := range decls {
		t := a.analyzeExpr(d.Value)
		if !a.symbols.DefineConst(d.Name, t) {
			a.addError(d, "constant %q redeclared", d.Name)
		}
	}
}

func (a *Analyzer) registerVars(decls []*ast.VarDecl) {
	for _, d := range decls {
		t := a.resolveTypeName(d, d.TypeName)
		for _, name := range d.Names {
			if !a.symbols.Define(name, t) {
				a.addError(d, "variable %q redeclared", name)
			}
		}
	}
}

func (a *Analyzer) registerArrayVars(decls []*ast.ArrayVarDecl) {
	for _, d := range decls {
		elem := a.resolveTypeName(d, d.ElemType)
		for _, dim := range d.Dimensions {
			if dim.Low > dim.High {
				a.addError(d, "array dimension low %d exceeds high %d", dim.Low, dim.High)
			}
		}
		for _, name := range d.Names {
			key := canon(name)
			if _, exists := a.arrays[key]; exists {
				a.addError(d, "array %q redeclared", name)
				continue
			}
			a.arrays[key] = &ArrayInfo{Dimensions: d.Dimensions, ElemType: elem}
		}
	}
}

func (a *Analyzer) registerRecordVars(decls []*ast.RecordVarDecl) {
	for _, d := range decls {
		key := canon(d.TypeName)
		if _, ok := a.recordTypes[key]; !ok {
			a.addError(d, "unknown record type %q", d.TypeName)
			continue
		}
		for _, name := range d.Names {
			if _, exists := a.recordVars[canon(name)]; exists {
				a.addError(d, "record variable %q redeclared", name)
				continue
			}
			a.recordVars[canon(name)] = a.recordTypes[key].Name
		}
	}
}

func (a *Analyzer) registerFileVars(decls []*ast.FileVarDecl) {
	for _, d := range decls {
		elem := ""
		if !d.IsText {
			elem = a.resolveTypeName(d, d.ElemType)
		}
		for _, name := range d.Names {
			if _, exists := a.fileVars[canon(name)]; exists {
				a.addError(d, "file variable %q redeclared", name)
				continue
			}
			a.fileVars[canon(name)] = &FileVarInfo{IsText: d.IsText, ElemType: elem}
		}
	}
}

func (a *Analyzer) registerPointerVars(decls []*ast.PointerVarDecl) {
	for _, d := range decls {
		pointed := a.resolveTypeName(d, d.PointedType)
		for _, name := range d.Names {
			if _, exists := a.pointerVars[canon(name)]; exists {
				a.addError(d, "pointer variable %q redeclared", name)
				continue
			}
			a.pointerVars[canon(name)] = pointed
		}
	}
}

func (a *Analyzer) registerSetVars(decls []*ast.SetVarDecl) {
	for _, d := range decls {
		elem := a.resolveTypeName(d, d.ElemType)
		for _, name := range d.Names {
			if _, exists := a.setVars[canon(name)]; exists {
				a.addError(d, "set variable %q redeclared", name)
				continue
			}
			a.setVars[canon(name)] = elem
		}
	}
}

// registerProcSignatures registers every procedure/function (recursively
// through nested ones) before any body is analyzed, so forward/mutual calls
// resolve, with duplicate detection.
func (a *Analyzer) registerProcSignatures(procs []*ast.ProcDecl) {
	for _, p := range procs {
		sig := &ProcSig{Name: p.Name, ReturnType: ""}
		if p.IsFunction() {
			sig.ReturnType = a.resolveTypeName(p, p.ReturnType)
		}
		for _, param := range p.Params {
			sig.Params = append(sig.Params, ParamSig{
				Name: param.Name, Type: a.resolveTypeName(p, param.TypeName), ByRef: param.ByRef,
			})
		}
		key := canon(p.Name)
		if _, exists := a.procs[key]; exists {
			a.addError(p, "procedure/function %q redeclared", p.Name)
		} else {
			a.procs[key] = sig
		}
		if len(p.Nested) > 0 {
			a.registerProcSignatures(p.Nested)
		}
	}
}

// analyzeProcBodies analyzes each procedure/function body in its own
// saved-and-restored scope, recursing into nested procedures.
func (a *Analyzer) analyzeProcBodies(procs []*ast.ProcDecl) {
	for _, p := range procs {
		a.analyzeProcBody(p)
	}
}

func (a *Analyzer) analyzeProcBody(p *ast.ProcDecl) {
	if p.Body == nil {
		return // interface-section forward header with no body yet
	}
	saved := a.symbols
	savedProc := a.currentProc
	a.symbols = NewEnclosedSymbolTable(saved)
	a.currentProc = a.procs[canon(p.Name)]

	for _, param := range p.Params {
		a.symbols.Define(param.Name, a.resolveTypeName(p, param.TypeName))
	}
	if p.IsFunction() {
		a.symbols.Define(p.Name, a.resolveTypeName(p, p.ReturnType))
	}
	for _, local := range p.Locals {
		a.registerLocal(local)
	}
	a.registerProcSignatures(p.Nested)

	a.analyzeStmt(p.Body)
	a.analyzeProcBodies(p.Nested)

	a.symbols = saved
	a.currentProc = savedProc
}

// registerLocal dispatches one local declaration into the same per-kind
// tables used for top-level declarations (locals share the flat array/record/
// pointer/set/file namespaces; only scalars are scope-nested via symbols).
func (a *Analyzer) registerLocal(decl ast.Declaration) {
	switch d := decl.(type) {
	case *ast.VarDecl:
		t := a.resolveTypeName(d, d.TypeName)
		for _, name := range d.Names {
			a.symbols.Define(name, t)
		}
	case *ast.ArrayVarDecl:
		a.registerArrayVars([]*ast.ArrayVarDecl{d})
	case *ast.RecordVarDecl:
		a.registerRecordVars([]*ast.RecordVarDecl{d})
	case *ast.PointerVarDecl:
		a.registerPointerVars([]*ast.PointerVarDecl{d})
	case *ast.SetVarDecl:
		a.registerSetVars([]*ast.SetVarDecl{d})
	case *ast.FileVarDecl:
		a.registerFileVars([]*ast.FileVarDecl{d})
	case *ast.ConstDecl:
		a.registerConsts([]*ast.ConstDecl{d})
	}
}
