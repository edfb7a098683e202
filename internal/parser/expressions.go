package parser

import (
	"strconv"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// parseExpression enters the precedence-climbing chain at its lowest level.
// Precedence, loosest to tightest:
// logical-or, logical-and, comparison (= <> < > <= >= in), additive (+ -),
// multiplicative (* / div mod), unary (+ - not @), postfix (^ [...] .field (args)).
// All binary levels are left-associative; unary and postfix are not.
func (p *Parser) parseExpression() ast.Expression { return p.parseOr() }

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.ok() && p.curIs(lexer.OR) {
		tok := p.cur
		p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{Base: ast.Base{Token: tok}, Op: lexer.OR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseComparison()
	for p.ok() && p.curIs(lexer.AND) {
		tok := p.cur
		p.advance()
		right := p.parseComparison()
		left = &ast.BinaryExpr{Base: ast.Base{Token: tok}, Op: lexer.AND, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for p.ok() {
		switch p.cur.Type {
		case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE:
			op, tok := p.cur.Type, p.cur
			p.advance()
			right := p.parseAdditive()
			left = &ast.BinaryExpr{Base: ast.Base{Token: tok}, Op: op, Left: left, Right: right}
		case lexer.IN:
			tok := p.cur
			p.advance()
			set := p.parseAdditive()
			left = &ast.SetMembership{Base: ast.Base{Token: tok}, Value: left, Set: set}
		default:
			return left
		}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.ok() && (p.curIs(lexer.PLUS) || p.curIs(lexer.MINUS)) {
		op, tok := p.cur.Type, p.cur
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Base: ast.Base{Token: tok}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.ok() && (p.curIs(lexer.STAR) || p.curIs(lexer.SLASH) || p.curIs(lexer.DIV) || p.curIs(lexer.MOD)) {
		op, tok := p.cur.Type, p.cur
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Base: ast.Base{Token: tok}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if !p.ok() {
		return nil
	}
	switch p.cur.Type {
	case lexer.PLUS, lexer.MINUS, lexer.NOT:
		op, tok := p.cur.Type, p.cur
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Base: ast.Base{Token: tok}, Op: op, Operand: operand}
	case lexer.AT:
		tok := p.cur
		p.advance()
		name := p.expectIdent()
		return &ast.AddrOf{Base: ast.Base{Token: tok}, Name: name}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix chains `^`, `[...]`, `.field`, and `(...)` suffixes onto a
// primary expression, narrowing the node type built so far as each suffix
// is seen: VarRef -> ArrayAccess -> ArrayFieldAccess, VarRef -> FieldAccess ->
// RecordArrayAccess, VarRef -> CallExpr, etc.
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for p.ok() {
		switch p.cur.Type {
		case lexer.CARET:
			tok := p.cur
			p.advance()
			expr = &ast.PointerDeref{Base: ast.Base{Token: tok}, Inner: expr}
		case lexer.LBRACKET:
			tok := p.cur
			p.advance()
			indices := p.parseExprList()
			p.expect(lexer.RBRACKET)
			switch e := expr.(type) {
			case *ast.VarRef:
				expr = &ast.ArrayAccess{Base: ast.Base{Token: tok}, Name: e.Name, Indices: indices}
			case *ast.FieldAccess:
				expr = &ast.RecordArrayAccess{Base: ast.Base{Token: tok}, Record: e.Record, Field: e.Field, Indices: indices}
			default:
				p.fail("'[' is not valid here")
				return expr
			}
		case lexer.DOT:
			tok := p.cur
			p.advance()
			field := p.expectIdent()
			switch e := expr.(type) {
			case *ast.VarRef:
				expr = &ast.FieldAccess{Base: ast.Base{Token: tok}, Record: e.Name, Field: field}
			case *ast.ArrayAccess:
				if len(e.Indices) != 1 {
					p.fail("field access on a multi-dimensional array element is not supported")
					return expr
				}
				expr = &ast.ArrayFieldAccess{Base: ast.Base{Token: tok}, Array: e.Name, Index: e.Indices[0], Field: field}
			default:
				p.fail("'.' is not valid here")
				return expr
			}
		case lexer.LPAREN:
			vr, ok := expr.(*ast.VarRef)
			if !ok {
				return expr
			}
			args := p.parseArgList()
			expr = &ast.CallExpr{Base: vr.Base, Name: vr.Name, Args: args}
		default:
			return expr
		}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	if !p.ok() {
		return &ast.NilLit{}
	}
	tok := p.cur
	switch tok.Type {
	case lexer.INT:
		p.advance()
		return &ast.IntegerLit{Base: ast.Base{Token: tok}, Value: parseIntLiteral(tok.Literal)}
	case lexer.FLOAT:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return &ast.RealLit{Base: ast.Base{Token: tok}, Value: v}
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Base: ast.Base{Token: tok}, Value: tok.Literal}
	case lexer.TRUE:
		p.advance()
		return &ast.BooleanLit{Base: ast.Base{Token: tok}, Value: true}
	case lexer.FALSE:
		p.advance()
		return &ast.BooleanLit{Base: ast.Base{Token: tok}, Value: false}
	case lexer.NIL:
		p.advance()
		return &ast.NilLit{Base: ast.Base{Token: tok}}
	case lexer.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(lexer.RPAREN)
		return inner
	case lexer.LBRACKET:
		p.advance()
		var elems []ast.Expression
		if !p.curIs(lexer.RBRACKET) {
			elems = p.parseExprList()
		}
		p.expect(lexer.RBRACKET)
		return &ast.SetLit{Base: ast.Base{Token: tok}, Elements: elems}
	case lexer.EOFFN:
		p.advance()
		p.expect(lexer.LPAREN)
		name := p.expectIdent()
		p.expect(lexer.RPAREN)
		return &ast.EOFQuery{Base: ast.Base{Token: tok}, FileName: name}
	case lexer.IDENT:
		name := p.expectIdent()
		return &ast.VarRef{Base: ast.Base{Token: tok}, Name: name}
	default:
		p.fail("unexpected token in expression: %s", tok.Type)
		return &ast.NilLit{Base: ast.Base{Token: tok}}
	}
}

// parseExprList parses a bare comma-separated expression list, used for call
// arguments and array index lists once the opening delimiter is consumed.
func (p *Parser) parseExprList() []ast.Expression {
	var list []ast.Expression
	for p.ok() {
		list = append(list, p.parseExpression())
		if p.ok() && p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return list
}

// parseArgList parses an optional `(expr, expr, ...)` call argument list.
func (p *Parser) parseArgList() []ast.Expression {
	if !p.ok() || !p.curIs(lexer.LPAREN) {
		return nil
	}
	p.advance()
	if p.curIs(lexer.RPAREN) {
		p.advance()
		return nil
	}
	args := p.parseExprList()
	p.expect(lexer.RPAREN)
	return args
}
