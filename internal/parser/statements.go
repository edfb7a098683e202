package parser

import (
	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// parseCompoundStmt parses a `begin ... end` block, tolerating empty
// statements between semicolons and a trailing semicolon before `end`.
func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	tok := p.expect(lexer.BEGIN)
	block := &ast.CompoundStmt{Base: ast.Base{Token: tok}}
	for p.ok() && !p.curIs(lexer.END) {
		if p.curIs(lexer.SEMICOLON) {
			p.advance()
			continue
		}
		block.Statements = append(block.Statements, p.parseStatement())
		if p.ok() && p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(lexer.END)
	return block
}

// parseStatement dispatches on the current token to the matching statement
// production.
func (p *Parser) parseStatement() ast.Statement {
	if !p.ok() {
		return nil
	}
	switch p.cur.Type {
	case lexer.BEGIN:
		return p.parseCompoundStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.REPEAT:
		return p.parseRepeatStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.CASE:
		return p.parseCaseStmt()
	case lexer.WITH:
		return p.parseWithStmt()
	case lexer.GOTO:
		return p.parseGotoStmt()
	case lexer.NEW:
		return p.parseNewStmt()
	case lexer.DISPOSE:
		return p.parseDisposeStmt()
	case lexer.ASSIGN, lexer.RESET, lexer.REWRITE, lexer.CLOSE, lexer.PAGE, lexer.GET, lexer.PUT, lexer.PACK, lexer.UNPACK:
		return p.parseFileOpStmt()
	case lexer.INT:
		return p.parseNumericLabeledStmt()
	case lexer.IDENT:
		return p.parseIdentStatement()
	default:
		p.fail("unexpected token %s at start of statement", p.cur.Type)
		return nil
	}
}

func (p *Parser) parseIfStmt() ast.Statement {
	tok := p.cur
	p.advance()
	cond := p.parseExpression()
	p.expect(lexer.THEN)
	thenStmt := p.parseStatement()
	stmt := &ast.IfStmt{Base: ast.Base{Token: tok}, Cond: cond, Then: thenStmt}
	if p.ok() && p.curIs(lexer.ELSE) {
		p.advance()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Statement {
	tok := p.cur
	p.advance()
	cond := p.parseExpression()
	p.expect(lexer.DO)
	body := p.parseStatement()
	return &ast.WhileStmt{Base: ast.Base{Token: tok}, Cond: cond, Body: body}
}

func (p *Parser) parseRepeatStmt() ast.Statement {
	tok := p.cur
	p.advance()
	stmt := &ast.RepeatStmt{Base: ast.Base{Token: tok}}
	for p.ok() && !p.curIs(lexer.UNTIL) {
		if p.curIs(lexer.SEMICOLON) {
			p.advance()
			continue
		}
		stmt.Body = append(stmt.Body, p.parseStatement())
		if p.ok() && p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(lexer.UNTIL)
	stmt.Cond = p.parseExpression()
	return stmt
}

func (p *Parser) parseForStmt() ast.Statement {
	tok := p.cur
	p.advance()
	varName := p.expectIdent()
	p.expect(lexer.ASSIGNOP)
	start := p.parseExpression()
	down := false
	switch {
	case p.curIs(lexer.TO):
		p.advance()
	case p.curIs(lexer.DOWNTO):
		down = true
		p.advance()
	default:
		p.fail("expected 'to' or 'downto', got %s", p.cur.Type)
	}
	end := p.parseExpression()
	p.expect(lexer.DO)
	body := p.parseStatement()
	return &ast.ForStmt{Base: ast.Base{Token: tok}, Var: varName, Start: start, End: end, Down: down, Body: body}
}

func (p *Parser) parseCaseStmt() ast.Statement {
	tok := p.cur
	p.advance()
	selector := p.parseExpression()
	p.expect(lexer.OF)

	stmt := &ast.CaseStmt{Base: ast.Base{Token: tok}, Selector: selector}
	for p.ok() && !p.curIs(lexer.END) && !p.curIs(lexer.ELSE) {
		var labels []ast.CaseLabel
		for p.ok() {
			low := p.parseExpression()
			label := ast.CaseLabel{Low: low}
			if p.ok() && p.curIs(lexer.DOTDOT) {
				p.advance()
				label.IsRange = true
				label.High = p.parseExpression()
			}
			labels = append(labels, label)
			if p.ok() && p.curIs(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(lexer.COLON)
		body := p.parseStatement()
		stmt.Branches = append(stmt.Branches, ast.CaseBranch{Labels: labels, Body: body})
		if p.ok() && p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	if p.ok() && p.curIs(lexer.ELSE) {
		p.advance()
		elseBlock := &ast.CompoundStmt{Base: ast.Base{Token: p.cur}}
		for p.ok() && !p.curIs(lexer.END) {
			if p.curIs(lexer.SEMICOLON) {
				p.advance()
				continue
			}
			elseBlock.Statements = append(elseBlock.Statements, p.parseStatement())
			if p.ok() && p.curIs(lexer.SEMICOLON) {
				p.advance()
			}
		}
		stmt.Else = elseBlock
	}
	p.expect(lexer.END)
	return stmt
}

func (p *Parser) parseWithStmt() ast.Statement {
	tok := p.cur
	p.advance()
	recName := p.expectIdent()
	p.expect(lexer.DO)
	body := p.parseStatement()
	return &ast.WithStmt{Base: ast.Base{Token: tok}, Record: recName, Body: body}
}

func (p *Parser) parseGotoStmt() ast.Statement {
	tok := p.cur
	p.advance()
	var label string
	if p.curIs(lexer.INT) {
		label = p.cur.Literal
		p.advance()
	} else {
		label = p.expectIdent()
	}
	return &ast.GotoStmt{Base: ast.Base{Token: tok}, Label: label}
}

// parseNumericLabeledStmt handles `123: stmt`, the numeric-label form of
// LabeledStmt: goto targets may be numeric.
func (p *Parser) parseNumericLabeledStmt() ast.Statement {
	tok := p.cur
	label := p.cur.Literal
	p.advance()
	p.expect(lexer.COLON)
	inner := p.parseStatement()
	return &ast.LabeledStmt{Base: ast.Base{Token: tok}, Label: label, Stmt: inner}
}

func (p *Parser) parseNewStmt() ast.Statement {
	tok := p.cur
	p.advance()
	p.expect(lexer.LPAREN)
	name := p.expectIdent()
	p.expect(lexer.RPAREN)
	return &ast.NewStmt{Base: ast.Base{Token: tok}, Name: name}
}

func (p *Parser) parseDisposeStmt() ast.Statement {
	tok := p.cur
	p.advance()
	p.expect(lexer.LPAREN)
	name := p.expectIdent()
	p.expect(lexer.RPAREN)
	return &ast.DisposeStmt{Base: ast.Base{Token: tok}, Name: name}
}

// parseFileOpStmt covers assign/reset/rewrite/close/page/get/put/pack/unpack,
// which all share `keyword(fileVar, extraArgs...)` shape.
func (p *Parser) parseFileOpStmt() ast.Statement {
	tok := p.cur
	op := p.cur.Type
	p.advance()
	p.expect(lexer.LPAREN)
	fileName := p.expectIdent()
	var args []ast.Expression
	for p.ok() && p.curIs(lexer.COMMA) {
		p.advance()
		args = append(args, p.parseExpression())
	}
	p.expect(lexer.RPAREN)
	return &ast.FileOpStmt{Base: ast.Base{Token: tok}, Op: op, FileName: fileName, Args: args}
}

// parseIdentStatement handles every statement that starts with a plain
// identifier: write/writeln/read/readln, assignment (plain, array, pointer,
// record, and their combinations), procedure calls, and identifier-labeled
// statements. Disambiguation is purely lookahead-driven on the token right
// after the leading identifier.
func (p *Parser) parseIdentStatement() ast.Statement {
	lname := canon(p.cur.Literal)
	switch lname {
	case "write", "writeln":
		return p.parseWriteStmt(lname == "writeln")
	case "read", "readln":
		return p.parseReadStmt(lname == "readln")
	}

	tok := p.cur
	switch p.peek.Type {
	case lexer.COLON:
		label := p.expectIdent()
		p.expect(lexer.COLON)
		inner := p.parseStatement()
		return &ast.LabeledStmt{Base: ast.Base{Token: tok}, Label: label, Stmt: inner}

	case lexer.ASSIGNOP:
		target := p.expectIdent()
		p.expect(lexer.ASSIGNOP)
		value := p.parseExpression()
		return &ast.AssignStmt{Base: ast.Base{Token: tok}, Target: target, Value: value}

	case lexer.LPAREN:
		name := p.expectIdent()
		args := p.parseArgList()
		return &ast.ProcCallStmt{Base: ast.Base{Token: tok}, Name: name, Args: args}

	case lexer.LBRACKET:
		name := p.expectIdent()
		p.advance() // consume '['
		indices := p.parseExprList()
		p.expect(lexer.RBRACKET)
		if p.ok() && p.curIs(lexer.DOT) {
			p.advance()
			field := p.expectIdent()
			p.expect(lexer.ASSIGNOP)
			value := p.parseExpression()
			if len(indices) != 1 {
				p.fail("field assignment on a multi-dimensional array element is not supported")
				return nil
			}
			return &ast.ArrayRecordAssignStmt{Base: ast.Base{Token: tok}, Array: name, Index: indices[0], Field: field, Value: value}
		}
		p.expect(lexer.ASSIGNOP)
		value := p.parseExpression()
		return &ast.ArrayAssignStmt{Base: ast.Base{Token: tok}, Name: name, Indices: indices, Value: value}

	case lexer.CARET:
		target := p.expectIdent()
		p.advance() // consume '^'
		p.expect(lexer.ASSIGNOP)
		value := p.parseExpression()
		return &ast.PointerAssignStmt{Base: ast.Base{Token: tok}, Target: target, Value: value}

	case lexer.DOT:
		recName := p.expectIdent()
		p.advance() // consume '.'
		field := p.expectIdent()
		if p.ok() && p.curIs(lexer.LBRACKET) {
			p.advance()
			indices := p.parseExprList()
			p.expect(lexer.RBRACKET)
			p.expect(lexer.ASSIGNOP)
			value := p.parseExpression()
			return &ast.RecordArrayAssignStmt{Base: ast.Base{Token: tok}, Record: recName, Field: field, Indices: indices, Value: value}
		}
		p.expect(lexer.ASSIGNOP)
		value := p.parseExpression()
		return &ast.RecordAssignStmt{Base: ast.Base{Token: tok}, Record: recName, Field: field, Value: value}

	default:
		name := p.expectIdent()
		return &ast.ProcCallStmt{Base: ast.Base{Token: tok}, Name: name}
	}
}

func (p *Parser) parseWriteStmt(newline bool) ast.Statement {
	tok := p.cur
	p.advance()
	var args []ast.Expression
	if p.ok() && p.curIs(lexer.LPAREN) {
		args = p.parseArgList()
	}
	return &ast.WriteStmt{Base: ast.Base{Token: tok}, Newline: newline, Args: args}
}

func (p *Parser) parseReadStmt(newline bool) ast.Statement {
	tok := p.cur
	p.advance()
	var names []string
	if p.ok() && p.curIs(lexer.LPAREN) {
		p.advance()
		if !p.curIs(lexer.RPAREN) {
			names = p.parseNameList()
		}
		p.expect(lexer.RPAREN)
	}
	return &ast.ReadStmt{Base: ast.Base{Token: tok}, Newline: newline, Args: names}
}
