package parser

import "github.com/cwbudde/go-pasc/internal/lexer"

// parseConstIntExpr parses the narrow constant-integer grammar used for array
// bounds: an optional leading sign, an integer literal, or a single-character
// string literal converted to its ordinal.
func (p *Parser) parseConstIntExpr() int64 {
	if !p.ok() {
		return 0
	}
	neg := false
	if p.curIs(lexer.MINUS) {
		neg = true
		p.advance()
	} else if p.curIs(lexer.PLUS) {
		p.advance()
	}
	var v int64
	switch p.cur.Type {
	case lexer.INT:
		v = parseIntLiteral(p.cur.Literal)
		p.advance()
	case lexer.STRING:
		if len(p.cur.Literal) != 1 {
			p.fail("expected a single-character literal for an array bound, got %q", p.cur.Literal)
			return 0
		}
		v = int64(p.cur.Literal[0])
		p.advance()
	default:
		p.fail("expected an integer or character-literal array bound, got %s", p.cur.Type)
		return 0
	}
	if neg {
		v = -v
	}
	return v
}

func parseIntLiteral(s string) int64 {
	var v int64
	for i := 0; i < len(s); i++ {
		v = v*10 + int64(s[i]-'0')
	}
	return v
}

// parseDimensions parses the comma-separated `low..high` list inside
// `array[...]`.
func (p *Parser) parseDimensions() []Dim {
	var dims []Dim
	for p.ok() {
		low := p.parseConstIntExpr()
		p.expect(lexer.DOTDOT)
		high := p.parseConstIntExpr()
		dims = append(dims, Dim{Low: low, High: high})
		if p.ok() && p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return dims
}

// Dim mirrors ast.Dimension; kept local to avoid importing ast into every
// helper signature in this file.
type Dim struct{ Low, High int64 }

// typeNames tracks which identifiers were declared as record or enum types in
// the current declaration block, so a var section occurring afterwards can
// pick the right AST node shape for a bare type-name reference: the grammar
// itself doesn't disambiguate "integer" from "TMyRecord", only the type
// table built while parsing does.
type typeNames struct {
	records map[string]bool
	enums map[string]bool
}

func newTypeNames() *typeNames {
	return &typeNames{records: map[string]bool{}, enums: map[string]bool{}}
}

func canon(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (t *typeNames) addRecord(name string) { t.records[canon(name)] = true }
func (t *typeNames) addEnum(name string) { t.enums[canon(name)] = true }
func (t *typeNames) isRecord(name string) bool { return t.records[canon(name)] }
func (t *typeNames) isEnum(name string) bool { return t.enums[canon(name)] }
