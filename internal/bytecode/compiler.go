// Package bytecode lowers the AST to a name-keyed stack-machine instruction
// stream and executes it. Unlike an index-based machine,
// LOAD_VAR/STORE_VAR/CALL all address their target by name; the VM resolves
// names against its own scope chain and function table at run time.
package bytecode

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// CompileError is a fatal compile-time error (unknown identifier, bad
// constant expression, invalid var-parameter argument).
type CompileError struct{ Message string }

func (e *CompileError) Error() string { return e.Message }

func canon(s string) string { return strings.ToLower(s) }

type recordType struct {
	fieldOrder []string
	fieldType map[string]string
}

// Compiler lowers one program or unit at a time. It keeps just enough of its
// own symbol bookkeeping to pick the right opcode/operand shape; full
// semantic validation is the analyzer's job, not this one's.
type Compiler struct {
	prog *Program
	labs labelAllocator

	constVals map[string]Value
	enumOrdinal map[string]int64
	enumOfValue map[string]string
	recordTypes map[string]*recordType
	recordVar map[string]string // var name -> record type name
	arrayMeta map[string]ArrayMeta
	fileVars map[string]bool
	funcs map[string]*FuncMeta

	// externalFuncs/externalTypes name signatures declared via declareExternal
	// (a used unit's interface): known to the compiler for codegen decisions
	// but never emitted into c.prog, since the real metadata arrives later
	// from the unit's own compiled bytecode via VM.LinkUnit.
	externalFuncs map[string]bool
	externalTypes map[string]bool

	err error
}

func newCompiler(name string) *Compiler {
	return &Compiler{
		prog: NewProgram(name),
		constVals: map[string]Value{},
		enumOrdinal: map[string]int64{},
		enumOfValue: map[string]string{},
		recordTypes: map[string]*recordType{},
		recordVar: map[string]string{},
		arrayMeta: map[string]ArrayMeta{},
		fileVars: map[string]bool{},
		funcs: map[string]*FuncMeta{},

		externalFuncs: map[string]bool{},
		externalTypes: map[string]bool{},
	}
}

func (c *Compiler) fail(format string, args ...any) {
	if c.err == nil {
		c.err = &CompileError{Message: fmt.Sprintf(format, args...)}
	}
}

func (c *Compiler) ok() bool { return c.err == nil }

func (c *Compiler) emit(ins Instruction) { c.prog.Instructions = append(c.prog.Instructions, ins) }

func (c *Compiler) mark(label string) { c.prog.Labels[label] = len(c.prog.Instructions) }

func (c *Compiler) newLabel(prefix string) string { return c.labs.next(prefix) }

// declSet is the common shape of a program body or a unit's merged
// interface+implementation sections, so registration code is written once.
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
	d := declSet{
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
	return d
}

// CompileProgram lowers a whole `program` into directly executable
// bytecode.
func CompileProgram(prog *ast.Program) (*Program, error) {
	c := newCompiler(prog.Name)
	c.prog.Uses = prog.Uses
	d := fromProgram(prog)
	c.registerAll(d)
	if !c.ok() {
		return c.prog, c.err
	}

	skip := c.newLabel("skip_procs")
	c.emit(strOp(OpJump, skip))
	c.compileFuncs(d.Procs)
	c.mark(skip)

	if prog.Body != nil {
		c.compileStmt(prog.Body)
	}
	c.emit(simple(OpHalt))

	c.finalize()
	if !c.ok() {
		return c.prog, c.err
	}
	return c.prog, nil
}

// CompileProgramWithUnits compiles prog the same way CompileProgram does,
// but first makes each used unit's declarations resolvable to the compiler
// via declareExternal, so a program that calls into a used unit's functions
// (or references its types/constants) compiles the same as if those names
// were declared locally.
func CompileProgramWithUnits(prog *ast.Program, uses []*ast.Unit) (*Program, error) {
	c := newCompiler(prog.Name)
	c.prog.Uses = prog.Uses
	for _, u := range uses {
		c.declareExternal(fromUnitSections(u.Interface, u.Implementation))
	}
	d := fromProgram(prog)
	c.registerAll(d)
	if !c.ok() {
		return c.prog, c.err
	}

	skip := c.newLabel("skip_procs")
	c.emit(strOp(OpJump, skip))
	c.compileFuncs(d.Procs)
	c.mark(skip)

	if prog.Body != nil {
		c.compileStmt(prog.Body)
	}
	c.emit(simple(OpHalt))

	c.finalize()
	if !c.ok() {
		return c.prog, c.err
	}
	return c.prog, nil
}

// CompileUnit lowers a `unit` into a Program plus its init/final statement
// lists; the VM runs the init list when it links the unit and the final list
// when Finalize is called.
func CompileUnit(u *ast.Unit) (*Unit, error) {
	return CompileUnitWithUnits(u, nil)
}

// CompileUnitWithUnits compiles u the same way CompileUnit does, but first
// declares each of u's own used units' signatures via declareExternal, the
// unit-compiling counterpart of CompileProgramWithUnits.
func CompileUnitWithUnits(u *ast.Unit, uses []*ast.Unit) (*Unit, error) {
	c := newCompiler(u.Name)
	c.prog.Uses = u.Uses
	for _, dep := range uses {
		c.declareExternal(fromUnitSections(dep.Interface, dep.Implementation))
	}
	d := fromUnitSections(u.Interface, u.Implementation)
	c.registerAll(d)
	if !c.ok() {
		return nil, c.err
	}

	skip := c.newLabel("skip_procs")
	c.emit(strOp(OpJump, skip))
	c.compileFuncs(d.Procs)
	c.mark(skip)
	c.emit(simple(OpHalt))
	c.finalize()
	if !c.ok() {
		return nil, c.err
	}

	out := &Unit{Program: *c.prog}
	if u.Init != nil {
		out.Init = compileStmtList(c, u.Init.Statements)
	}
	if u.Final != nil {
		out.Final = compileStmtList(c, u.Final.Statements)
	}
	if !c.ok() {
		return out, c.err
	}
	return out, nil
}

// compileStmtList compiles a statement sequence into a standalone
// instruction slice sharing the compiler's symbol tables but not its main
// instruction stream (used for unit init/final blocks, which the VM runs
// separately from the rest of the unit's code).
func compileStmtList(c *Compiler, stmts []ast.Statement) []Instruction {
	saved := c.prog.Instructions
	c.prog.Instructions = nil
	for _, s := range stmts {
		c.compileStmt(s)
	}
	out := c.prog.Instructions
	c.prog.Instructions = saved
	return out
}

func (c *Compiler) finalize() {
	for name, f := range c.funcs {
		if c.externalFuncs[name] {
			continue
		}
		c.prog.Funcs = append(c.prog.Funcs, *f)
	}
	for typeName, rt := range c.recordTypes {
		if c.externalTypes[typeName] {
			continue
		}
		c.prog.Records = append(c.prog.Records, RecordMeta{Name: typeName, Fields: rt.fieldOrder})
	}
}

// declareExternal registers a used unit's types, constants, and function
// signatures into the compiler's own symbol tables without emitting any of
// it into c.prog: enough for compileVarRef/compileCall/compileUserCall to
// resolve identifiers and validate var-parameter call sites the same way a
// forward-referenced local declaration would, while the unit's actual
// globals/arrays/records/function bodies arrive later, merged in from its
// own separately compiled bytecode via VM.LinkUnit.
func (c *Compiler) declareExternal(d declSet) {
	for _, e := range d.EnumTypes {
		for i, v := range e.Values {
			c.enumOrdinal[canon(v)] = int64(i)
			c.enumOfValue[canon(v)] = e.Name
		}
	}
	for _, r := range d.RecordTypes {
		rt := &recordType{fieldType: map[string]string{}}
		for _, f := range r.Fields {
			rt.fieldOrder = append(rt.fieldOrder, f.Name)
			rt.fieldType[canon(f.Name)] = f.TypeName
		}
		c.recordTypes[canon(r.Name)] = rt
		c.externalTypes[canon(r.Name)] = true
	}
	for _, cd := range d.Consts {
		if v, ok := c.foldConst(cd.Value); ok {
			c.constVals[canon(cd.Name)] = v
		}
	}
	for _, r := range d.RecordVars {
		for _, name := range r.Names {
			c.recordVar[canon(name)] = r.TypeName
		}
	}
	for _, a := range d.ArrayVars {
		dims := make([]Dimension, 0, len(a.Dimensions))
		for _, dm := range a.Dimensions {
			dims = append(dims, Dimension{Low: dm.Low, High: dm.High})
		}
		for _, name := range a.Names {
			c.arrayMeta[canon(name)] = ArrayMeta{Name: name, Dimensions: dims, ElemType: a.ElemType}
			if rt, isRecord := c.recordTypes[canon(a.ElemType)]; isRecord {
				for _, field := range rt.fieldOrder {
					subName := name + "." + field
					c.arrayMeta[canon(subName)] = ArrayMeta{Name: subName, Dimensions: dims, ElemType: rt.fieldType[canon(field)]}
				}
			}
		}
	}
	for _, f := range d.FileVars {
		for _, name := range f.Names {
			c.fileVars[canon(name)] = true
		}
	}
	for _, p := range d.Procs {
		meta := &FuncMeta{Name: p.Name, ReturnType: p.ReturnType}
		for _, param := range p.Params {
			meta.Params = append(meta.Params, param.Name)
			meta.ByRef = append(meta.ByRef, param.ByRef)
		}
		c.funcs[canon(p.Name)] = meta
		c.externalFuncs[canon(p.Name)] = true
	}
}

func (c *Compiler) registerAll(d declSet) {
	c.registerEnumTypes(d.EnumTypes)
	c.registerRecordTypes(d.RecordTypes)
	c.registerConsts(d.Consts)
	c.registerVars(d.Vars)
	c.registerArrayVars(d.ArrayVars)
	c.registerRecordVars(d.RecordVars)
	c.registerPointerVars(d.PointerVars)
	c.registerSetVars(d.SetVars)
	c.registerFileVars(d.FileVars)
	c.registerFuncSignatures(d.Procs)
}

func (c *Compiler) registerEnumTypes(enums []*ast.EnumTypeDecl) {
	for _, e := range enums {
		for i, v := range e.Values {
			c.enumOrdinal[canon(v)] = int64(i)
			c.enumOfValue[canon(v)] = e.Name
		}
		c.prog.Enums = append(c.prog.Enums, EnumMeta{Name: e.Name, Values: e.Values})
	}
}

func (c *Compiler) registerRecordTypes(records []*ast.RecordTypeDecl) {
	for _, r := range records {
		rt := &recordType{fieldType: map[string]string{}}
		for _, f := range r.Fields {
			rt.fieldOrder = append(rt.fieldOrder, f.Name)
			rt.fieldType[canon(f.Name)] = f.TypeName
		}
		c.recordTypes[canon(r.Name)] = rt
	}
}

func (c *Compiler) registerConsts(consts []*ast.ConstDecl) {
	for _, cd := range consts {
		v, ok := c.foldConst(cd.Value)
		if !ok {
			c.fail("constant %s is not a compile-time constant expression", cd.Name)
			return
		}
		c.constVals[canon(cd.Name)] = v
	}
}

func (c *Compiler) registerVars(vars []*ast.VarDecl) {
	for _, v := range vars {
		c.prog.Globals = append(c.prog.Globals, v.Names...)
	}
}

func (c *Compiler) registerArrayVars(arrays []*ast.ArrayVarDecl) {
	dims := make([]Dimension, 0)
	for _, a := range arrays {
		dims = dims[:0]
		for _, d := range a.Dimensions {
			dims = append(dims, Dimension{Low: d.Low, High: d.High})
		}
		elemDims := append([]Dimension{}, dims...)
		for _, name := range a.Names {
			meta := ArrayMeta{Name: name, Dimensions: elemDims, ElemType: a.ElemType}
			c.arrayMeta[canon(name)] = meta
			c.prog.Arrays = append(c.prog.Arrays, meta)

			// Array-of-record is compiled struct-of-arrays: one synthetic
			// sub-array per field, all sharing the element array's shape
			// There's no RECORD_LOAD opcode, so record storage always
			// reduces to plain named slots or named sub-arrays.
			if rt, isRecord := c.recordTypes[canon(a.ElemType)]; isRecord {
				for _, field := range rt.fieldOrder {
					subName := name + "." + field
					subMeta := ArrayMeta{Name: subName, Dimensions: elemDims, ElemType: rt.fieldType[canon(field)]}
					c.arrayMeta[canon(subName)] = subMeta
					c.prog.Arrays = append(c.prog.Arrays, subMeta)
				}
			}
		}
	}
}

func (c *Compiler) registerRecordVars(records []*ast.RecordVarDecl) {
	for _, r := range records {
		rt, known := c.recordTypes[canon(r.TypeName)]
		for _, name := range r.Names {
			c.recordVar[canon(name)] = r.TypeName
			if known {
				for _, field := range rt.fieldOrder {
					c.prog.Globals = append(c.prog.Globals, name+"."+field)
				}
			}
		}
	}
}

func (c *Compiler) registerPointerVars(pointers []*ast.PointerVarDecl) {
	for _, p := range pointers {
		c.prog.Pointers = append(c.prog.Pointers, p.Names...)
		c.prog.Globals = append(c.prog.Globals, p.Names...)
	}
}

func (c *Compiler) registerSetVars(sets []*ast.SetVarDecl) {
	for _, s := range sets {
		c.prog.Sets = append(c.prog.Sets, s.Names...)
		c.prog.Globals = append(c.prog.Globals, s.Names...)
	}
}

func (c *Compiler) registerFileVars(files []*ast.FileVarDecl) {
	for _, f := range files {
		for _, name := range f.Names {
			c.fileVars[canon(name)] = true
			c.prog.Files = append(c.prog.Files, name)
		}
	}
}

// registerFuncSignatures walks procedures/functions (and, recursively,
// their nested procedures) registering a FuncMeta for each so call sites
// compiled before a forward-referenced body still know its arity and
// var-parameter shape.
func (c *Compiler) registerFuncSignatures(procs []*ast.ProcDecl) {
	for _, p := range procs {
		meta := &FuncMeta{Name: p.Name, ReturnType: p.ReturnType}
		for _, param := range p.Params {
			meta.Params = append(meta.Params, param.Name)
			meta.ByRef = append(meta.ByRef, param.ByRef)
		}
		c.funcs[canon(p.Name)] = meta
		c.registerFuncSignatures(p.Nested)
	}
}

// compileFuncs emits every procedure/function body out-of-line, recording
// each one's entry address into its already-registered FuncMeta.
func (c *Compiler) compileFuncs(procs []*ast.ProcDecl) {
	for _, p := range procs {
		if !c.ok() {
			return
		}
		meta := c.funcs[canon(p.Name)]
		for _, decl := range p.Locals {
			if vd, isVar := decl.(*ast.VarDecl); isVar {
				meta.Locals = append(meta.Locals, vd.Names...)
			}
		}
		if meta.IsFunction() {
			meta.Locals = append(meta.Locals, p.Name)
		}
		c.compileFuncs(p.Nested)
		meta.Entry = len(c.prog.Instructions)
		if p.Body != nil {
			c.compileStmt(p.Body)
		}
		c.emit(simple(OpReturn))
	}
}

// foldConst evaluates a constant expression at compile time: literals,
// previously folded consts, enum values, and +/- /* div mod on those.
func (c *Compiler) foldConst(e ast.Expression) (Value, bool) {
	switch n := e.(type) {
	case *ast.IntegerLit:
		return IntValue(n.Value), true
	case *ast.RealLit:
		return RealValue(n.Value), true
	case *ast.StringLit:
		return StrValue(n.Value), true
	case *ast.BooleanLit:
		return BoolValue(n.Value), true
	case *ast.NilLit:
		return NilValue(), true
	case *ast.VarRef:
		if v, ok := c.constVals[canon(n.Name)]; ok {
			return v, true
		}
		if ord, ok := c.enumOrdinal[canon(n.Name)]; ok {
			return IntValue(ord), true
		}
		return Value{}, false
	case *ast.UnaryExpr:
		v, ok := c.foldConst(n.Operand)
		if !ok {
			return Value{}, false
		}
		switch n.Op {
		case lexer.MINUS:
			if v.Kind == KindInt {
				return IntValue(-v.Int), true
			}
			return RealValue(-v.AsFloat()), true
		case lexer.PLUS:
			return v, true
		case lexer.NOT:
			return BoolValue(!v.Bool), true
		}
		return Value{}, false
	case *ast.BinaryExpr:
		a, ok1 := c.foldConst(n.Left)
		b, ok2 := c.foldConst(n.Right)
		if !ok1 || !ok2 {
			return Value{}, false
		}
		return foldBinary(n.Op, a, b)
	}
	return Value{}, false
}

func foldBinary(op lexer.TokenType, a, b Value) (Value, bool) {
	bothInt := a.Kind == KindInt && b.Kind == KindInt
	switch op {
	case lexer.PLUS:
		if a.Kind == KindStr && b.Kind == KindStr {
			return StrValue(a.Str + b.Str), true
		}
		if bothInt {
			return IntValue(a.Int + b.Int), true
		}
		return RealValue(a.AsFloat() + b.AsFloat()), true
	case lexer.MINUS:
		if bothInt {
			return IntValue(a.Int - b.Int), true
		}
		return RealValue(a.AsFloat() - b.AsFloat()), true
	case lexer.STAR:
		if bothInt {
			return IntValue(a.Int * b.Int), true
		}
		return RealValue(a.AsFloat() * b.AsFloat()), true
	case lexer.SLASH:
		return RealValue(a.AsFloat() / b.AsFloat()), true
	case lexer.DIV:
		if !bothInt || b.Int == 0 {
			return Value{}, false
		}
		return IntValue(a.Int / b.Int), true
	case lexer.MOD:
		if !bothInt || b.Int == 0 {
			return Value{}, false
		}
		return IntValue(a.Int % b.Int), true
	}
	return Value{}, false
}

func (c *Compiler) foldConstInt(e ast.Expression) (int64, bool) {
	v, ok := c.foldConst(e)
	if !ok || (v.Kind != KindInt) {
		return 0, false
	}
	return v.Int, true
}
