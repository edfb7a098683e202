// Package parser implements a recursive-descent parser that turns a token
// stream from internal/lexer into the AST defined by internal/ast.
package parser

import (
	"fmt"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
)

// ParseError is a fatal, position-tagged syntax error.
// The parser does not attempt recovery: ParseProgram/ParseUnit stop at the
// first unexpected token and return the error alongside whatever AST was
// built so far.
type ParseError struct {
	Message string
	Pos     lexer.Position
	Context string // surrounding token context, e.g. "...near 'end'..."
}

func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s at %s (%s)", e.Message, e.Pos, e.Context)
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// Parser is a recursive-descent parser with one token of lookahead.
type Parser struct {
	l     *lexer.Lexer
	cur   lexer.Token
	peek  lexer.Token
	err   *ParseError
	types *typeNames
}

// New creates a Parser reading tokens from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, types: newTypeNames()}
	p.advance()
	p.advance()
	return p
}

// Err returns the first parse error encountered, or nil.
func (p *Parser) Err() *ParseError { return p.err }

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

// fail records the first syntax error. Once set, the parser stops descending
// into further productions; callers check p.err after each parse call.
func (p *Parser) fail(format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     p.cur.Pos,
		Context: fmt.Sprintf("near %q, found %q", p.cur.Literal, p.peek.Literal),
	}
}

func (p *Parser) ok() bool { return p.err == nil }

// expect verifies the current token's type, consumes it, and advances.
// On mismatch it records a syntax error and returns the zero Token.
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	if !p.ok() {
		return lexer.Token{}
	}
	if p.cur.Type != t {
		p.fail("expected %s, got %s", t, p.cur.Type)
		return lexer.Token{}
	}
	tok := p.cur
	p.advance()
	return tok
}

// expectIdent consumes the current token as an identifier name. Only IDENT
// tokens are accepted; a keyword used as a name is a syntax error.
func (p *Parser) expectIdent() string {
	if !p.ok() {
		return ""
	}
	if p.cur.Type != lexer.IDENT {
		p.fail("expected identifier, got %s", p.cur.Type)
		return ""
	}
	name := p.cur.Literal
	p.advance()
	return name
}

// ParseProgram parses a `program ... .` unit, returning the Program node
// built so far (possibly partial) and any syntax error.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	progTok := p.expect(lexer.PROGRAM)
	prog.Base = ast.Base{Token: progTok}
	prog.Name = p.expectIdent()

	// Optional parenthesized parameter list, accepted and discarded.
	if p.ok() && p.curIs(lexer.LPAREN) {
		p.advance()
		for p.ok() && !p.curIs(lexer.RPAREN) {
			p.expectIdent()
			if p.ok() && p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
	}
	p.expect(lexer.SEMICOLON)

	if p.ok() && p.curIs(lexer.USES) {
		prog.Uses = p.parseUsesClause()
	}

	p.parseDeclarationBlock(&prog.Consts, &prog.Vars, &prog.ArrayVars, &prog.RecordVars,
		&prog.FileVars, &prog.PointerVars, &prog.SetVars, &prog.RecordTypes, &prog.EnumTypes, &prog.Procs)

	if p.ok() {
		prog.Body = p.parseCompoundStmt()
	}
	p.expect(lexer.DOT)

	if p.err != nil {
		return prog, p.err
	}
	return prog, nil
}

// ParseUnit parses a `unit ... end.` translation unit.
func (p *Parser) ParseUnit() (*ast.Unit, error) {
	u := &ast.Unit{}
	unitTok := p.expect(lexer.UNIT)
	u.Base = ast.Base{Token: unitTok}
	u.Name = p.expectIdent()
	p.expect(lexer.SEMICOLON)

	p.expect(lexer.INTERFACE)
	if p.ok() && p.curIs(lexer.USES) {
		u.Uses = p.parseUsesClause()
	}
	p.parseInterfaceSection(&u.Interface)

	p.expect(lexer.IMPLEMENTATION)
	if p.ok() && p.curIs(lexer.USES) {
		u.Uses = append(u.Uses, p.parseUsesClause()...)
	}
	p.parseDeclarationBlock(&u.Implementation.Consts, &u.Implementation.Vars, &u.Implementation.ArrayVars,
		&u.Implementation.RecordVars, &u.Implementation.FileVars, &u.Implementation.PointerVars,
		&u.Implementation.SetVars, &u.Implementation.RecordTypes, &u.Implementation.EnumTypes, &u.Implementation.Procs)

	if p.ok() && p.curIs(lexer.INITIALIZATION) {
		p.advance()
		u.Init = p.parseStatementsUntil(lexer.FINALIZATION, lexer.END)
	}
	if p.ok() && p.curIs(lexer.FINALIZATION) {
		p.advance()
		u.Final = p.parseStatementsUntil(lexer.END)
	}
	p.expect(lexer.END)
	p.expect(lexer.DOT)

	if p.err != nil {
		return u, p.err
	}
	return u, nil
}

// parseUsesClause parses `uses Id, Id, ...;`.
func (p *Parser) parseUsesClause() []string {
	p.advance() // consume 'uses'
	var names []string
	for p.ok() {
		names = append(names, p.expectIdent())
		if p.ok() && p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMICOLON)
	return names
}

// parseStatementsUntil parses a bare statement sequence (no enclosing
// begin/end) stopping before any of the given terminator tokens, used for
// initialization/finalization blocks.
func (p *Parser) parseStatementsUntil(terminators ...lexer.TokenType) *ast.CompoundStmt {
	block := &ast.CompoundStmt{Base: ast.Base{Token: p.cur}}
	for p.ok() {
		stop := false
		for _, t := range terminators {
			if p.curIs(t) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		block.Statements = append(block.Statements, p.parseStatement())
		if p.ok() && p.curIs(lexer.SEMICOLON) {
			p.advance()
		}
	}
	return block
}
