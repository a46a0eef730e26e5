package parser

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/token"
)

func (p *Parser) parsePattern() ast.Pattern {
	pat := p.parsePatternAtom()
	if p.check(token.PIPE) {
		alts := []ast.Pattern{pat}
		for p.match(token.PIPE) {
			alts = append(alts, p.parsePatternAtom())
		}
		return &ast.OrPattern{Alternatives: alts, Sp: token.Join(pat.Span(), alts[len(alts)-1].Span())}
	}
	return pat
}

func (p *Parser) parsePatternAtom() ast.Pattern {
	t := p.cur()
	switch t.Kind {
	case token.UNDERSCORE:
		p.advance()
		return &ast.WildcardPattern{Sp: t.Span}
	case token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE, token.NULL, token.CHAR:
		lit := p.parsePrimary()
		return &ast.LiteralPattern{Value: lit, Sp: lit.Span()}
	case token.MINUS:
		lit := p.parsePrefix()
		return &ast.LiteralPattern{Value: lit, Sp: lit.Span()}
	case token.LBRACKET:
		return p.parseListPattern()
	case token.IDENT:
		return p.parseIdentPattern()
	default:
		p.errorf(CodeExpectedPattern, "expected pattern, found %s", t.Kind)
		p.advance()
		return &ast.WildcardPattern{Sp: t.Span}
	}
}

func (p *Parser) parseListPattern() ast.Pattern {
	start := p.cur().Span
	p.advance()
	var elems []ast.Pattern
	rest := ""
	for !p.check(token.RBRACKET) && !p.check(token.EOF) {
		if p.match(token.ELLIPSIS) {
			rest = p.expect(token.IDENT, "rest-binding name").Lexeme
			break
		}
		elems = append(elems, p.parsePattern())
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACKET, "to close list pattern").Span
	return &ast.ListPattern{Elements: elems, Rest: rest, Sp: token.Join(start, end)}
}

// parseIdentPattern handles the identifier-led pattern forms: a plain
// binder, an enum variant pattern (`Option.Some(x)`), or a struct pattern
// (`Point { x, y }`).
func (p *Parser) parseIdentPattern() ast.Pattern {
	start := p.cur()
	name := p.advance().Lexeme

	if p.check(token.DOT) && p.peekKind(1) == token.IDENT {
		p.advance()
		variant := p.advance().Lexeme
		return p.finishVariantPattern(name, variant, start.Span)
	}
	if p.check(token.LPAREN) {
		return p.finishVariantPattern("", name, start.Span)
	}
	if p.check(token.LBRACE) {
		return p.finishStructPattern(name, start.Span)
	}
	return &ast.IdentPattern{Name: name, Sp: start.Span}
}

func (p *Parser) finishVariantPattern(enumName, variantName string, start token.Span) ast.Pattern {
	vp := &ast.VariantPattern{EnumName: enumName, VariantName: variantName, Sp: start}
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			vp.Binders = append(vp.Binders, p.parsePattern())
			if !p.match(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN, "to close variant pattern").Span
		vp.Sp = token.Join(start, end)
	}
	return vp
}

func (p *Parser) finishStructPattern(typeName string, start token.Span) ast.Pattern {
	p.expect(token.LBRACE, "to begin struct pattern")
	var fields []ast.FieldPattern
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fname := p.expect(token.IDENT, "field name").Lexeme
		var fpat ast.Pattern = &ast.IdentPattern{Name: fname}
		if p.match(token.COLON) {
			fpat = p.parsePattern()
		}
		fields = append(fields, ast.FieldPattern{Name: fname, Pattern: fpat})
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE, "to close struct pattern").Span
	return &ast.StructPattern{TypeName: typeName, Fields: fields, Sp: token.Join(start, end)}
}
