package interp

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
)

// declSet gathers every kind of declaration list a program or a unit's
// merged interface+implementation sections can carry, mirroring the
// bytecode compiler's declSet so both backends register declarations in
// exactly the same grouped order.
type declSet struct {
	Consts      []*ast.ConstDecl
	Vars        []*ast.VarDecl
	ArrayVars   []*ast.ArrayVarDecl
	RecordVars  []*ast.RecordVarDecl
	FileVars    []*ast.FileVarDecl
	PointerVars []*ast.PointerVarDecl
	SetVars     []*ast.SetVarDecl
	RecordTypes []*ast.RecordTypeDecl
	EnumTypes   []*ast.EnumTypeDecl
	Procs       []*ast.ProcDecl
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
		Consts:      append(append([]*ast.ConstDecl{}, iface.Consts...), impl.Consts...),
		Vars:        append(append([]*ast.VarDecl{}, iface.Vars...), impl.Vars...),
		ArrayVars:   append(append([]*ast.ArrayVarDecl{}, iface.ArrayVars...), impl.ArrayVars...),
		RecordVars:  append(append([]*ast.RecordVarDecl{}, iface.RecordVars...), impl.RecordVars...),
		FileVars:    append(append([]*ast.FileVarDecl{}, iface.FileVars...), impl.FileVars...),
		PointerVars: append(append([]*ast.PointerVarDecl{}, iface.PointerVars...), impl.PointerVars...),
		SetVars:     append(append([]*ast.SetVarDecl{}, iface.SetVars...), impl.SetVars...),
		RecordTypes: append(append([]*ast.RecordTypeDecl{}, iface.RecordTypes...), impl.RecordTypes...),
		EnumTypes:   append(append([]*ast.EnumTypeDecl{}, iface.EnumTypes...), impl.EnumTypes...),
		Procs:       append(append([]*ast.ProcDecl{}, impl.Procs...)),
	}
}

func (i *Interpreter) registerAll(d declSet) {
	i.registerEnumTypes(d.EnumTypes)
	i.registerRecordTypes(d.RecordTypes)
	i.registerConsts(d.Consts)
	i.registerVars(d.Vars)
	i.registerArrayVars(d.ArrayVars)
	i.registerRecordVars(d.RecordVars)
	i.registerPointerVars(d.PointerVars)
	i.registerSetVars(d.SetVars)
	i.registerFileVars(d.FileVars)
	i.registerFuncSignatures(d.Procs)
}

func (i *Interpreter) registerEnumTypes(enums []*ast.EnumTypeDecl) {
	for _, e := range enums {
		for idx, v := range e.Values {
			i.enumOrdinal[canon(v)] = int64(idx)
		}
	}
}

func (i *Interpreter) registerRecordTypes(records []*ast.RecordTypeDecl) {
	for _, r := range records {
		rt := &recordType{fieldType: map[string]string{}}
		for _, f := range r.Fields {
			rt.fieldOrder = append(rt.fieldOrder, f.Name)
			rt.fieldType[canon(f.Name)] = f.TypeName
		}
		i.recordTypes[canon(r.Name)] = rt
	}
}

func (i *Interpreter) registerConsts(consts []*ast.ConstDecl) {
	for _, cd := range consts {
		if v, ok := i.foldConst(cd.Value); ok {
			i.constVals[canon(cd.Name)] = v
		}
	}
}

func (i *Interpreter) registerVars(vars []*ast.VarDecl) {
	for _, v := range vars {
		for _, name := range v.Names {
			i.globals.declare(name, bytecode.NilValue())
		}
	}
}

func (i *Interpreter) registerArrayVars(arrays []*ast.ArrayVarDecl) {
	for _, a := range arrays {
		dims := make([]bytecode.Dimension, 0, len(a.Dimensions))
		for _, d := range a.Dimensions {
			dims = append(dims, bytecode.Dimension{Low: d.Low, High: d.High})
		}
		for _, name := range a.Names {
			meta := bytecode.ArrayMeta{Name: name, Dimensions: dims, ElemType: a.ElemType}
			i.arrayMeta[canon(name)] = meta
			i.arrays[canon(name)] = &arrayStore{meta: meta, data: make([]bytecode.Value, arraySize(meta))}

			// Array-of-record is stored struct-of-arrays: one synthetic
			// sub-array per field, matching the bytecode compiler's
			// approach of compiling record storage down to named slots
			// or named sub-arrays (there is no dedicated record value).
			if rt, isRecord := i.recordTypes[canon(a.ElemType)]; isRecord {
				for _, field := range rt.fieldOrder {
					subName := name + "." + field
					subMeta := bytecode.ArrayMeta{Name: subName, Dimensions: dims, ElemType: rt.fieldType[canon(field)]}
					i.arrayMeta[canon(subName)] = subMeta
					i.arrays[canon(subName)] = &arrayStore{meta: subMeta, data: make([]bytecode.Value, arraySize(subMeta))}
				}
			}
		}
	}
}

func (i *Interpreter) registerRecordVars(records []*ast.RecordVarDecl) {
	for _, r := range records {
		rt, known := i.recordTypes[canon(r.TypeName)]
		for _, name := range r.Names {
			i.recordVar[canon(name)] = r.TypeName
			if known {
				for _, field := range rt.fieldOrder {
					i.globals.declare(name+"."+field, bytecode.NilValue())
				}
			}
		}
	}
}

func (i *Interpreter) registerPointerVars(pointers []*ast.PointerVarDecl) {
	for _, p := range pointers {
		for _, name := range p.Names {
			i.pointerVars[canon(name)] = true
			i.globals.declare(name, bytecode.NilValue())
		}
	}
}

func (i *Interpreter) registerSetVars(sets []*ast.SetVarDecl) {
	for _, s := range sets {
		for _, name := range s.Names {
			i.setVars[canon(name)] = true
			i.globals.declare(name, bytecode.SetValue(nil))
		}
	}
}

func (i *Interpreter) registerFileVars(files []*ast.FileVarDecl) {
	for _, f := range files {
		for _, name := range f.Names {
			i.fileVars[canon(name)] = true
		}
	}
}

func (i *Interpreter) registerFuncSignatures(procs []*ast.ProcDecl) {
	for _, p := range procs {
		i.funcs[canon(p.Name)] = &funcInfo{decl: p}
		i.registerFuncSignatures(p.Nested)
	}
}

// foldConst evaluates a constant expression at registration time: literals,
// previously folded consts, enum values, and +/- /* div mod on those: the
// same constant-expression subset the bytecode compiler folds.
func (i *Interpreter) foldConst(e ast.Expression) (bytecode.Value, bool) {
	switch n := e.(type) {
	case *ast.IntegerLit:
		return bytecode.IntValue(n.Value), true
	case *ast.RealLit:
		return bytecode.RealValue(n.Value), true
	case *ast.StringLit:
		return bytecode.StrValue(n.Value), true
	case *ast.BooleanLit:
		return bytecode.BoolValue(n.Value), true
	case *ast.NilLit:
		return bytecode.NilValue(), true
	case *ast.VarRef:
		if v, ok := i.constVals[canon(n.Name)]; ok {
			return v, true
		}
		if ord, ok := i.enumOrdinal[canon(n.Name)]; ok {
			return bytecode.IntValue(ord), true
		}
		return bytecode.Value{}, false
	case *ast.UnaryExpr:
		v, ok := i.foldConst(n.Operand)
		if !ok {
			return bytecode.Value{}, false
		}
		return foldUnary(n.Op, v)
	case *ast.BinaryExpr:
		a, ok1 := i.foldConst(n.Left)
		b, ok2 := i.foldConst(n.Right)
		if !ok1 || !ok2 {
			return bytecode.Value{}, false
		}
		return foldBinaryConst(n.Op, a, b)
	}
	return bytecode.Value{}, false
}
