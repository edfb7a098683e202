package parser

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// parseDeclarationBlock parses the label/const/type/var/procedure sections
// that precede a program or unit implementation body, in any order the
// source presents them. Each section may appear at most once in
// well-formed input; repeats are accepted and merged.
func (p *Parser) parseDeclarationBlock(
	consts *[]*ast.ConstDecl,
	vars *[]*ast.VarDecl,
	arrayVars *[]*ast.ArrayVarDecl,
	recordVars *[]*ast.RecordVarDecl,
	fileVars *[]*ast.FileVarDecl,
	pointerVars *[]*ast.PointerVarDecl,
	setVars *[]*ast.SetVarDecl,
	recordTypes *[]*ast.RecordTypeDecl,
	enumTypes *[]*ast.EnumTypeDecl,
	procs *[]*ast.ProcDecl,
) {
	for p.ok() {
		switch p.cur.Type {
		case lexer.LABEL:
			p.parseLabelSection()
		case lexer.CONST:
			*consts = append(*consts, p.parseConstSection()...)
		case lexer.TYPE:
			records, enums := p.parseTypeSection()
			*recordTypes = append(*recordTypes, records...)
			*enumTypes = append(*enumTypes, enums...)
		case lexer.VAR:
			r := p.parseVarSection()
			*vars = append(*vars, r.vars...)
			*arrayVars = append(*arrayVars, r.arrays...)
			*recordVars = append(*recordVars, r.records...)
			*fileVars = append(*fileVars, r.files...)
			*pointerVars = append(*pointerVars, r.pointers...)
			*setVars = append(*setVars, r.sets...)
		case lexer.PROCEDURE, lexer.FUNCTION:
			*procs = append(*procs, p.parseProcDecl(true))
		default:
			return
		}
	}
}

// parseInterfaceSection parses a unit's interface part: declarations plus
// bare procedure/function headers (no bodies).
func (p *Parser) parseInterfaceSection(sec *ast.UnitSection) {
	for p.ok() {
		switch p.cur.Type {
		case lexer.LABEL:
			p.parseLabelSection()
		case lexer.CONST:
			sec.Consts = append(sec.Consts, p.parseConstSection()...)
		case lexer.TYPE:
			records, enums := p.parseTypeSection()
			sec.RecordTypes = append(sec.RecordTypes, records...)
			sec.EnumTypes = append(sec.EnumTypes, enums...)
		case lexer.VAR:
			r := p.parseVarSection()
			sec.Vars = append(sec.Vars, r.vars...)
			sec.ArrayVars = append(sec.ArrayVars, r.arrays...)
			sec.RecordVars = append(sec.RecordVars, r.records...)
			sec.FileVars = append(sec.FileVars, r.files...)
			sec.PointerVars = append(sec.PointerVars, r.pointers...)
			sec.SetVars = append(sec.SetVars, r.sets...)
		case lexer.PROCEDURE, lexer.FUNCTION:
			sec.Procs = append(sec.Procs, p.parseProcDecl(false))
		default:
			return
		}
	}
}

// parseLabelSection parses `label 1, 2, done;` and discards the names: the
// AST represents label targets positionally via LabeledStmt.
func (p *Parser) parseLabelSection() {
	p.advance() // consume 'label'
	for p.ok() {
		if p.curIs(lexer.INT) || p.curIs(lexer.IDENT) {
			p.advance()
		} else {
			p.fail("expected a label name, got %s", p.cur.Type)
			return
		}
		if p.ok() && p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMICOLON)
}

func (p *Parser) parseConstSection() []*ast.ConstDecl {
	p.advance() // consume 'const'
	var out []*ast.ConstDecl
	for p.ok() && p.curIs(lexer.IDENT) {
		tok := p.cur
		name := p.expectIdent()
		p.expect(lexer.EQ)
		value := p.parseExpression()
		p.expect(lexer.SEMICOLON)
		out = append(out, &ast.ConstDecl{Base: ast.Base{Token: tok}, Name: name, Value: value})
	}
	return out
}

// parseTypeSection parses `type Name = ...;` entries. Only record and
// enumeration forms produce a declaration node; a plain alias to a scalar
// type (`type TCount = integer;`) is consumed and discarded. The alias is
// not recorded anywhere, so a var declared as TCount keeps "TCount" as its
// type name and is not resolved to the aliased scalar type.
func (p *Parser) parseTypeSection() ([]*ast.RecordTypeDecl, []*ast.EnumTypeDecl) {
	p.advance() // consume 'type'
	var records []*ast.RecordTypeDecl
	var enums []*ast.EnumTypeDecl
	for p.ok() && p.curIs(lexer.IDENT) {
		tok := p.cur
		name := p.expectIdent()
		p.expect(lexer.EQ)
		switch {
		case p.curIs(lexer.LPAREN):
			p.advance()
			var values []string
			for p.ok() {
				values = append(values, p.expectIdent())
				if p.ok() && p.curIs(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			p.expect(lexer.RPAREN)
			p.types.addEnum(name)
			enums = append(enums, &ast.EnumTypeDecl{Base: ast.Base{Token: tok}, Name: name, Values: values})
		case p.curIs(lexer.RECORD):
			p.advance()
			var fields []ast.FieldDecl
			for p.ok() && !p.curIs(lexer.END) {
				names := p.parseNameList()
				p.expect(lexer.COLON)
				typeName := p.parseScalarTypeName()
				for _, n := range names {
					fields = append(fields, ast.FieldDecl{Name: n, TypeName: typeName})
				}
				if p.ok() && p.curIs(lexer.SEMICOLON) {
					p.advance()
				}
			}
			p.expect(lexer.END)
			p.types.addRecord(name)
			records = append(records, &ast.RecordTypeDecl{Base: ast.Base{Token: tok}, Name: name, Fields: fields})
		default:
			// Scalar alias: consume the aliased type name and move on.
			p.parseScalarTypeName()
		}
		p.expect(lexer.SEMICOLON)
	}
	return records, enums
}

// parseNameList parses `a, b, c` identifier lists shared by var/field/param
// declarations.
func (p *Parser) parseNameList() []string {
	var names []string
	for p.ok() {
		names = append(names, p.expectIdent())
		if p.ok() && p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return names
}

// parseScalarTypeName consumes a bare type-name token (a built-in keyword
// type or a previously declared identifier) and returns its canonical text.
func (p *Parser) parseScalarTypeName() string {
	if !p.ok() {
		return ""
	}
	switch p.cur.Type {
	case lexer.INTEGER, lexer.REAL, lexer.STRING_TYPE, lexer.BOOLEAN:
		name := p.cur.Type.String()
		p.advance()
		return name
	case lexer.IDENT:
		return p.expectIdent()
	default:
		p.fail("expected a type name, got %s", p.cur.Type)
		return ""
	}
}

func (p *Parser) consumePacked() {
	if p.ok() && p.curIs(lexer.PACKED) {
		p.advance()
	}
}

type varSectionResult struct {
	vars []*ast.VarDecl
	arrays []*ast.ArrayVarDecl
	records []*ast.RecordVarDecl
	files []*ast.FileVarDecl
	pointers []*ast.PointerVarDecl
	sets []*ast.SetVarDecl
}

// parseVarSection parses a `var` block, dispatching each name group to the
// AST node shape its type form requires.
func (p *Parser) parseVarSection() varSectionResult {
	p.advance() // consume 'var'
	var r varSectionResult
	for p.ok() && p.curIs(lexer.IDENT) {
		tok := p.cur
		names := p.parseNameList()
		p.expect(lexer.COLON)
		p.consumePacked()

		switch p.cur.Type {
		case lexer.ARRAY:
			p.advance()
			p.expect(lexer.LBRACKET)
			dims := p.parseDimensions()
			p.expect(lexer.RBRACKET)
			p.expect(lexer.OF)
			elem := p.parseScalarTypeName()
			r.arrays = append(r.arrays, &ast.ArrayVarDecl{
				Base: ast.Base{Token: tok}, Names: names, Dimensions: toASTDims(dims), ElemType: elem,
			})
		case lexer.CARET:
			p.advance()
			pointed := p.parseScalarTypeName()
			r.pointers = append(r.pointers, &ast.PointerVarDecl{Base: ast.Base{Token: tok}, Names: names, PointedType: pointed})
		case lexer.SET:
			p.advance()
			p.expect(lexer.OF)
			elem := p.parseScalarTypeName()
			r.sets = append(r.sets, &ast.SetVarDecl{Base: ast.Base{Token: tok}, Names: names, ElemType: elem})
		case lexer.FILE:
			p.advance()
			p.expect(lexer.OF)
			elem := p.parseScalarTypeName()
			r.files = append(r.files, &ast.FileVarDecl{Base: ast.Base{Token: tok}, Names: names, ElemType: elem})
		case lexer.TEXT:
			p.advance()
			r.files = append(r.files, &ast.FileVarDecl{Base: ast.Base{Token: tok}, Names: names, IsText: true})
		default:
			typeName := p.parseScalarTypeName()
			if p.types.isRecord(typeName) {
				r.records = append(r.records, &ast.RecordVarDecl{Base: ast.Base{Token: tok}, Names: names, TypeName: typeName})
			} else {
				r.vars = append(r.vars, &ast.VarDecl{Base: ast.Base{Token: tok}, Names: names, TypeName: typeName})
			}
		}
		p.expect(lexer.SEMICOLON)
	}
	return r
}

func toASTDims(dims []Dim) []ast.Dimension {
	out := make([]ast.Dimension, len(dims))
	for i, d := range dims {
		out[i] = ast.Dimension{Low: d.Low, High: d.High}
	}
	return out
}

// parseParamList parses the optional `(var a, b: integer; c: real)` parameter
// list of a procedure/function header, flattening each name in a group into
// its own Param: ParameterCount reflects the flattened form.
func (p *Parser) parseParamList() []ast.Param {
	if !p.ok() || !p.curIs(lexer.LPAREN) {
		return nil
	}
	p.advance()
	var params []ast.Param
	for p.ok() && !p.curIs(lexer.RPAREN) {
		byRef := false
		if p.curIs(lexer.VAR) {
			byRef = true
			p.advance()
		}
		names := p.parseNameList()
		p.expect(lexer.COLON)
		typeName := p.parseScalarTypeName()
		for _, n := range names {
			params = append(params, ast.Param{Name: n, TypeName: typeName, ByRef: byRef})
		}
		if p.ok() && p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

// parseProcDecl parses a procedure or function declaration. When withBody is
// false only the header is consumed (a unit interface forward declaration);
// otherwise the full local declaration block and body follow (
// "Declaration variants: procedure/function").
func (p *Parser) parseProcDecl(withBody bool) *ast.ProcDecl {
	tok := p.cur
	isFunc := p.curIs(lexer.FUNCTION)
	p.advance()
	name := p.expectIdent()
	params := p.parseParamList()

	var returnType string
	if isFunc {
		p.expect(lexer.COLON)
		returnType = p.parseScalarTypeName()
	}
	p.expect(lexer.SEMICOLON)

	decl := &ast.ProcDecl{Base: ast.Base{Token: tok}, Name: name, Params: params, ReturnType: returnType}
	if !withBody {
		return decl
	}

	outer := p.types
	p.types = newTypeNames()
	p.parseLocalBlock(&decl.Locals, &decl.Nested)
	decl.Body = p.parseCompoundStmt()
	p.expect(lexer.SEMICOLON)
	p.types = outer
	return decl
}

// parseLocalBlock parses the label/const/type/var/nested-procedure sections
// inside a procedure or function body, flattening data declarations into a
// single ordered list while keeping nested procedures/functions separate.
func (p *Parser) parseLocalBlock(locals *[]ast.Declaration, nested *[]*ast.ProcDecl) {
	for p.ok() {
		switch p.cur.Type {
		case lexer.LABEL:
			p.parseLabelSection()
		case lexer.CONST:
			for _, d := range p.parseConstSection() {
				*locals = append(*locals, d)
			}
		case lexer.TYPE:
			records, enums := p.parseTypeSection()
			for _, d := range records {
				*locals = append(*locals, d)
			}
			for _, d := range enums {
				*locals = append(*locals, d)
			}
		case lexer.VAR:
			r := p.parseVarSection()
			for _, d := range r.vars {
				*locals = append(*locals, d)
			}
			for _, d := range r.arrays {
				*locals = append(*locals, d)
			}
			for _, d := range r.records {
				*locals = append(*locals, d)
			}
			for _, d := range r.files {
				*locals = append(*locals, d)
			}
			for _, d := range r.pointers {
				*locals = append(*locals, d)
			}
			for _, d := range r.sets {
				*locals = append(*locals, d)
			}
		case lexer.PROCEDURE, lexer.FUNCTION:
			*nested = append(*nested, p.parseProcDecl(true))
		default:
			return
		}
	}
}
