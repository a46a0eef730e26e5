package parser

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/token"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parsePrecedence(precOr)
}

// parsePrecedence implements precedence climbing: parse a prefix
// expression, then repeatedly fold in infix operators whose precedence is
// at least minPrec. Left-associative operators recurse at prec+1 so equal
// precedence binds left; right-associative operators (the range operators
// `..` and `..=`) recurse at prec+0.
func (p *Parser) parsePrecedence(minPrec prec) ast.Expr {
	left := p.parsePrefix()
	for {
		rule, ok := infixRules[p.cur().Kind]
		if !ok || rule.prec < minPrec {
			return left
		}
		opTok := p.advance()
		nextMin := rule.prec + 1
		if !rule.leftAssoc {
			nextMin = rule.prec
		}
		right := p.parsePrecedence(nextMin)
		left = &ast.BinaryExpr{Op: rule.op, Left: left, Right: right, Sp: token.Join(left.Span(), right.Span())}
		_ = opTok
	}
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.MINUS:
		p.advance()
		inner := p.parsePrecedence(precUnary)
		return &ast.UnaryExpr{Op: ast.OpNeg, Expr: inner, Sp: token.Join(start, inner.Span())}
	case token.BANG:
		p.advance()
		inner := p.parsePrecedence(precUnary)
		return &ast.UnaryExpr{Op: ast.OpNot, Expr: inner, Sp: token.Join(start, inner.Span())}
	case token.AWAIT:
		p.advance()
		inner := p.parsePrecedence(precUnary)
		return &ast.AwaitExpr{Inner: inner, Sp: token.Join(start, inner.Span())}
	case token.TRY:
		p.advance()
		inner := p.parsePrecedence(precUnary)
		return &ast.TryExpr{Inner: inner, Sp: token.Join(start, inner.Span())}
	case token.AMPERSAND:
		p.advance()
		inner := p.parsePrecedence(precUnary)
		return &ast.StateBinding{Target: inner, Sp: token.Join(start, inner.Span())}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		start := e.Span()
		switch p.cur().Kind {
		case token.LPAREN:
			p.advance()
			var args []ast.Expr
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				args = append(args, p.parseExpr())
				if !p.match(token.COMMA) {
					break
				}
			}
			end := p.expect(token.RPAREN, "to close call arguments").Span
			e = &ast.CallExpr{Callee: e, Args: args, Sp: token.Join(start, end)}
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBRACKET, "to close index expression").Span
			e = &ast.IndexExpr{Receiver: e, Index: idx, Sp: token.Join(start, end)}
		case token.DOT:
			p.advance()
			name := p.expect(token.IDENT, "field/method name").Lexeme
			e = &ast.FieldExpr{Receiver: e, Name: name, Sp: token.Join(start, p.toks[p.pos-1].Span)}
		case token.QUESTION_DOT:
			p.advance()
			name := p.expect(token.IDENT, "field/method name").Lexeme
			e = &ast.FieldExpr{Receiver: e, Name: name, NullSafe: true, Sp: token.Join(start, p.toks[p.pos-1].Span)}
		case token.QUESTION_BRACKET:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBRACKET, "to close index expression").Span
			e = &ast.IndexExpr{Receiver: e, Index: idx, NullSafe: true, Sp: token.Join(start, end)}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.INT:
		p.advance()
		return parseIntLiteral(t)
	case token.HEX_INT, token.BINARY_INT, token.OCTAL_INT:
		p.advance()
		return parseIntLiteral(t)
	case token.FLOAT:
		p.advance()
		return parseFloatLiteral(t)
	case token.TRUE:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Value: true, Sp: t.Span}
	case token.FALSE:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Value: false, Sp: t.Span}
	case token.NULL:
		p.advance()
		return &ast.Literal{Kind: ast.LitNull, Sp: t.Span}
	case token.CHAR:
		p.advance()
		return &ast.Literal{Kind: ast.LitChar, Value: t.Literal, Sp: t.Span}
	case token.STRING:
		p.advance()
		lit, _ := t.Literal.(string)
		return &ast.StringInterpExpr{Parts: []ast.StringPart{{Literal: lit}}, Sp: t.Span}
	case token.STRING_START:
		return p.parseInterpolatedString()
	case token.UNDERSCORE:
		p.advance()
		return &ast.Placeholder{Sp: t.Span}
	case token.DOT:
		p.advance()
		name := p.expect(token.IDENT, "column-shorthand name").Lexeme
		return &ast.ColumnShorthand{Name: name, Sp: token.Join(t.Span, p.toks[p.pos-1].Span)}
	case token.IDENT:
		return p.parseIdentLed()
	case token.LPAREN:
		return p.parseParenOrLambda()
	case token.PIPE:
		return p.parsePipeLambda()
	case token.LBRACKET:
		return p.parseListExpr()
	case token.LBRACE:
		return p.parseBlockAsExpr()
	case token.IF:
		return p.parseIfExpr()
	case token.MATCH:
		return p.parseMatchExpr()
	default:
		p.errorf(CodeExpectedExpression, "expected expression, found %s", t.Kind)
		p.advance()
		return &ast.Literal{Kind: ast.LitNull, Sp: t.Span}
	}
}

// parseIdentLed handles the identifier-started forms that aren't plain
// variable references: struct initialization (`Point { x: 1, y: 2 }`) and
// enum variant construction (`Option.Some(1)`), disambiguated by lookahead.
func (p *Parser) parseIdentLed() ast.Expr {
	start := p.cur()
	name := p.advance().Lexeme
	if p.check(token.DOT) && p.peekKind(1) == token.IDENT {
		save := p.pos
		p.advance() // dot
		variant := p.advance().Lexeme
		return p.finishEnumVariant(name, variant, start.Span, save)
	}
	if p.check(token.LBRACE) && p.looksLikeStructInit() {
		return p.parseStructInit(name, start.Span)
	}
	return &ast.Identifier{Name: name, Sp: start.Span}
}

func (p *Parser) finishEnumVariant(enumName, variantName string, start token.Span, identPos int) ast.Expr {
	ev := &ast.EnumVariantExpr{EnumName: enumName, VariantName: variantName, Sp: start}
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			ev.Args = append(ev.Args, p.parseExpr())
			if !p.match(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN, "to close enum variant arguments").Span
		ev.Sp = token.Join(start, end)
		return ev
	}
	if p.check(token.LBRACE) && p.looksLikeStructInit() {
		p.advance()
		for !p.check(token.RBRACE) && !p.check(token.EOF) {
			fname := p.expect(token.IDENT, "field name").Lexeme
			var val ast.Expr
			if p.match(token.COLON) {
				val = p.parseExpr()
			}
			ev.Fields = append(ev.Fields, ast.StructFieldInit{Name: fname, Value: val})
			if !p.match(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RBRACE, "to close enum variant fields").Span
		ev.Sp = token.Join(start, end)
		return ev
	}
	ev.Sp = token.Join(start, p.toks[identPos].Span)
	return ev
}

func (p *Parser) parseStructInit(typeName string, start token.Span) ast.Expr {
	p.expect(token.LBRACE, "to begin struct initializer")
	var fields []ast.StructFieldInit
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fstart := p.cur().Span
		fname := p.expect(token.IDENT, "field name").Lexeme
		var val ast.Expr
		if p.match(token.COLON) {
			val = p.parseExpr()
		}
		fields = append(fields, ast.StructFieldInit{Name: fname, Value: val, Sp: token.Join(fstart, p.toks[p.pos-1].Span)})
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE, "to close struct initializer").Span
	return &ast.StructInitExpr{TypeName: typeName, Fields: fields, Sp: token.Join(start, end)}
}

// looksLikeStructInit decides whether a `{` following an identifier opens a
// struct initializer or a block expression, by looking past the brace (and
// any would-be trivia, already filtered) at what follows: an empty `{}` is
// a block, and `Ident <colon|comma|rbrace>` looks like struct-literal field
// syntax.
func (p *Parser) looksLikeStructInit() bool {
	if p.peekKind(1) == token.RBRACE {
		return false
	}
	if p.peekKind(1) != token.IDENT {
		return false
	}
	switch p.peekKind(2) {
	case token.COLON, token.COMMA, token.RBRACE:
		return true
	default:
		return false
	}
}

func (p *Parser) parseParenOrLambda() ast.Expr {
	start := p.cur().Span
	save := p.pos
	if looksLikeParenLambda(p.toks, p.pos) {
		return p.parseParenLambda()
	}
	p.pos = save
	p.advance()
	inner := p.parseExpr()
	end := p.expect(token.RPAREN, "to close parenthesized expression").Span
	return &ast.ParenExpr{Inner: inner, Sp: token.Join(start, end)}
}

// looksLikeParenLambda scans forward from an opening `(` to find its
// matching `)` and checks whether `->`/`=>` follows, without allocating a
// parser: a purely syntactic lookahead so parseParenOrLambda can decide
// before committing to either parse path.
func looksLikeParenLambda(toks []token.Token, lparenPos int) bool {
	depth := 0
	i := lparenPos
	for i < len(toks) {
		switch toks[i].Kind {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				nxt := token.EOF
				if i+1 < len(toks) {
					nxt = toks[i+1].Kind
				}
				return nxt == token.ARROW || nxt == token.FAT_ARROW
			}
		}
		i++
	}
	return false
}

func (p *Parser) parseParenLambda() ast.Expr {
	start := p.cur().Span
	params := p.parseParams()
	var ret ast.TypeAnnotation
	var body ast.Expr
	if p.match(token.ARROW) {
		ret = p.parseType()
		p.expect(token.LBRACE, "to begin lambda body")
		p.pos--
		body = p.parseBlockAsExpr()
	} else {
		p.expect(token.FAT_ARROW, "to begin lambda body")
		if p.check(token.LBRACE) {
			body = p.parseBlockAsExpr()
		} else {
			body = p.parseExpr()
		}
	}
	return &ast.LambdaExpr{Params: params, RetType: ret, Body: body, Sp: token.Join(start, body.Span())}
}

func (p *Parser) parsePipeLambda() ast.Expr {
	start := p.cur().Span
	p.expect(token.PIPE, "to begin lambda parameters")
	var params []ast.Param
	for !p.check(token.PIPE) && !p.check(token.EOF) {
		pstart := p.cur().Span
		name := p.expect(token.IDENT, "parameter name").Lexeme
		var ty ast.TypeAnnotation
		if p.match(token.COLON) {
			ty = p.parseType()
		}
		params = append(params, ast.Param{Name: name, Type: ty, Sp: token.Join(pstart, p.toks[p.pos-1].Span)})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.PIPE, "to close lambda parameters")
	body := p.parseExpr()
	return &ast.LambdaExpr{Params: params, Body: body, Sp: token.Join(start, body.Span())}
}

func (p *Parser) parseListExpr() ast.Expr {
	start := p.cur().Span
	p.advance()
	var elems []ast.Expr
	for !p.check(token.RBRACKET) && !p.check(token.EOF) {
		elems = append(elems, p.parseExpr())
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACKET, "to close list literal").Span
	return &ast.ListExpr{Elements: elems, Sp: token.Join(start, end)}
}

func (p *Parser) parseBlockAsExpr() ast.Expr { return p.parseBlock() }

func (p *Parser) parseBlock() *ast.BlockExpr {
	start := p.cur().Span
	p.expect(token.LBRACE, "to begin block")
	var stmts []ast.Stmt
	var tail ast.Expr
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if isTailExpressionStart(p.cur().Kind) {
			save := p.pos
			e := p.parseExpr()
			if p.check(token.RBRACE) {
				tail = e
				break
			}
			p.pos = save
		}
		stmts = append(stmts, p.parseStmt())
	}
	end := p.expect(token.RBRACE, "to close block").Span
	return &ast.BlockExpr{Stmts: stmts, Tail: tail, Sp: token.Join(start, end)}
}

func isTailExpressionStart(k token.Kind) bool {
	switch k {
	case token.LET, token.RETURN, token.FOR, token.WHILE, token.LOOP,
		token.BREAK, token.CONTINUE, token.TRY, token.THROW:
		return false
	default:
		return true
	}
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.cur().Span
	p.expect(token.IF, "to begin if expression")
	cond := p.parseExpr()
	then := p.parseBlock()
	var elseExpr ast.Expr
	if p.match(token.ELSE) {
		if p.check(token.IF) {
			elseExpr = p.parseIfExpr()
		} else {
			elseExpr = p.parseBlock()
		}
	}
	end := p.toks[p.pos-1].Span
	return &ast.IfExpr{Cond: cond, Then: then, Else: elseExpr, Sp: token.Join(start, end)}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.cur().Span
	p.expect(token.MATCH, "to begin match expression")
	subject := p.parseExpr()
	p.expect(token.LBRACE, "to begin match arms")
	var arms []ast.MatchArm
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		arms = append(arms, p.parseMatchArm())
		p.match(token.COMMA)
	}
	end := p.expect(token.RBRACE, "to close match arms").Span
	return &ast.MatchExpr{Subject: subject, Arms: arms, Sp: token.Join(start, end)}
}

func (p *Parser) parseMatchArm() ast.MatchArm {
	start := p.cur().Span
	pat := p.parsePattern()
	var guard ast.Expr
	if p.match(token.IF) {
		guard = p.parseExpr()
	}
	p.expect(token.FAT_ARROW, "to begin match arm body")
	body := p.parseExpr()
	return ast.MatchArm{Pattern: pat, Guard: guard, Body: body, Sp: token.Join(start, body.Span())}
}

// ---- interpolated strings ---------------------------------------------------

func (p *Parser) parseInterpolatedString() ast.Expr {
	start := p.cur().Span
	var parts []ast.StringPart
	startTok := p.advance() // STRING_START
	parts = append(parts, ast.StringPart{Literal: literalString(startTok)})
	for {
		p.expect(token.INTERP_START, "to begin interpolated expression")
		parts = append(parts, ast.StringPart{Expr: p.parseExpr()})
		p.expect(token.INTERP_END, "to close interpolated expression")
		t := p.cur()
		switch t.Kind {
		case token.STRING_PART:
			p.advance()
			parts = append(parts, ast.StringPart{Literal: literalString(t)})
		case token.STRING_END:
			p.advance()
			parts = append(parts, ast.StringPart{Literal: literalString(t)})
			return &ast.StringInterpExpr{Parts: parts, Sp: token.Join(start, t.Span)}
		default:
			p.errorf(CodeUnexpectedToken, "malformed interpolated string")
			return &ast.StringInterpExpr{Parts: parts, Sp: token.Join(start, t.Span)}
		}
	}
}

func literalString(t token.Token) string {
	if s, ok := t.Literal.(string); ok {
		return s
	}
	return ""
}
