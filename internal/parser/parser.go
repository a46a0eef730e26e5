// Package parser implements a Pratt expression parser plus recursive-descent
// statement/item parsing over internal/token's token stream, producing an
// internal/ast tree. Errors are collected into a diagnostics.Bag and parsing
// resynchronizes at statement/item boundaries rather than aborting.
package parser

import (
	"strconv"
	"strings"

	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/diagnostics"
	"github.com/horizonanalytic/stratum/internal/token"
)

// precedence levels, low to high, matching the operator table.
type prec int

const (
	precNone prec = iota
	precOr
	precAnd
	precEquality
	precComparison
	precPipe
	precCoalesce
	precRange
	precTerm
	precFactor
	precUnary
	precPostfix
)

type infixRule struct {
	prec      prec
	leftAssoc bool
	op        ast.BinOp
}

var infixRules = map[token.Kind]infixRule{
	token.OR:             {precOr, true, ast.OpOr},
	token.AND:            {precAnd, true, ast.OpAnd},
	token.EQ:             {precEquality, true, ast.OpEq},
	token.NOT_EQ:         {precEquality, true, ast.OpNe},
	token.LT:             {precComparison, true, ast.OpLt},
	token.LTE:            {precComparison, true, ast.OpLe},
	token.GT:             {precComparison, true, ast.OpGt},
	token.GTE:            {precComparison, true, ast.OpGe},
	token.PIPE_GT:        {precPipe, true, ast.OpPipe},
	token.NULL_COALESCE:  {precCoalesce, true, ast.OpCoalesce},
	token.DOT_DOT:        {precRange, false, ast.OpRange},
	token.DOT_DOT_EQ:     {precRange, false, ast.OpRangeInc},
	token.PLUS:           {precTerm, true, ast.OpAdd},
	token.MINUS:          {precTerm, true, ast.OpSub},
	token.STAR:           {precFactor, true, ast.OpMul},
	token.SLASH:          {precFactor, true, ast.OpDiv},
	token.PERCENT:        {precFactor, true, ast.OpMod},
}

// Parser holds cursor state over a pre-lexed, trivia-filtered token slice.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diagnostics.Bag

	loopDepth     int
	functionDepth int
}

// New constructs a Parser over a full token stream (including trivia,
// which it filters out up front; the lexer still emits trivia tokens so
// other consumers, like a formatter, could use the unfiltered stream).
func New(toks []token.Token) *Parser {
	filtered := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind.IsTrivia() {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Parser{toks: filtered, diags: &diagnostics.Bag{}}
}

// ParseModule parses a full file into an *ast.Module.
func ParseModule(toks []token.Token) (*ast.Module, *diagnostics.Bag) {
	p := New(toks)
	items := p.parseItems()
	sp := token.Span{}
	if len(p.toks) > 0 {
		sp = token.Join(p.toks[0].Span, p.toks[len(p.toks)-1].Span)
	}
	return &ast.Module{Items: items, Sp: sp}, p.diags
}

// ParseExpression parses a single standalone expression (used by the REPL).
func ParseExpression(toks []token.Token) (ast.Expr, *diagnostics.Bag) {
	p := New(toks)
	e := p.parseExpr()
	return e, p.diags
}

// ---- cursor helpers --------------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekKind(offset int) token.Kind {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.EOF
	}
	return p.toks[idx].Kind
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, context string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	t := p.cur()
	p.diags.Addf(CodeExpectedAfter, t.Span, t.Line, t.Column, "expected %s %s, found %s", k, context, t.Kind)
	return t
}

func (p *Parser) errorf(code diagnostics.Code, format string, args ...any) {
	t := p.cur()
	p.diags.Addf(code, t.Span, t.Line, t.Column, format, args...)
}

// synchronize skips tokens until a likely statement/item boundary, used
// after a parse error to avoid a cascade of spurious diagnostics.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.cur().Kind == token.SEMICOLON {
			p.advance()
			return
		}
		switch p.peekKind(0) {
		case token.FX, token.LET, token.STRUCT, token.ENUM, token.INTERFACE,
			token.IMPL, token.IMPORT, token.IF, token.FOR, token.WHILE,
			token.RETURN, token.RBRACE:
			return
		}
		p.advance()
	}
}

// ---- items ------------------------------------------------------------------

func (p *Parser) parseItems() []ast.Item {
	var items []ast.Item
	for !p.check(token.EOF) {
		before := p.pos
		item := p.parseItem()
		if item != nil {
			items = append(items, item)
		}
		if p.pos == before {
			p.advance()
		}
	}
	return items
}

func (p *Parser) parseItem() ast.Item {
	var attrs []ast.Attribute
	for p.check(token.AT) {
		attrs = append(attrs, p.parseAttribute())
	}
	switch p.cur().Kind {
	case token.FX:
		return p.parseFunctionItem(attrs)
	case token.ASYNC:
		p.advance()
		fn := p.parseFunctionItem(attrs)
		if f, ok := fn.(*ast.FunctionItem); ok {
			f.IsAsync = true
		}
		return fn
	case token.STRUCT:
		return p.parseStructItem()
	case token.ENUM:
		return p.parseEnumItem()
	case token.INTERFACE:
		return p.parseInterfaceItem()
	case token.IMPL:
		return p.parseImplItem()
	case token.IMPORT:
		return p.parseImportItem()
	default:
		t := p.cur()
		p.errorf(CodeUnexpectedToken, "expected item, found %s", t.Kind)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseAttribute() ast.Attribute {
	start := p.cur().Span
	p.advance() // @
	name := p.expect(token.IDENT, "attribute name").Lexeme
	var args []ast.Expr
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			args = append(args, p.parseExpr())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, "after attribute arguments")
	}
	return ast.Attribute{Name: name, Args: args, Sp: token.Join(start, p.toks[p.pos-1].Span)}
}

func (p *Parser) parseTypeParams() []ast.TypeParam {
	if !p.match(token.LT) {
		return nil
	}
	var out []ast.TypeParam
	for !p.check(token.GT) && !p.check(token.EOF) {
		name := p.expect(token.IDENT, "type parameter").Lexeme
		var bounds []string
		if p.match(token.COLON) {
			bounds = append(bounds, p.expect(token.IDENT, "interface bound").Lexeme)
			for p.match(token.PLUS) {
				bounds = append(bounds, p.expect(token.IDENT, "interface bound").Lexeme)
			}
		}
		out = append(out, ast.TypeParam{Name: name, Interfaces: bounds})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.GT, "to close type parameter list")
	return out
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LPAREN, "to start parameter list")
	var params []ast.Param
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		start := p.cur().Span
		name := p.expect(token.IDENT, "parameter name").Lexeme
		var ty ast.TypeAnnotation
		if p.match(token.COLON) {
			ty = p.parseType()
		}
		params = append(params, ast.Param{Name: name, Type: ty, Sp: token.Join(start, p.toks[p.pos-1].Span)})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, "to close parameter list")
	return params
}

func (p *Parser) parseFunctionItem(attrs []ast.Attribute) ast.Item {
	start := p.cur().Span
	p.expect(token.FX, "to begin function")
	name := p.expect(token.IDENT, "function name").Lexeme
	typeParams := p.parseTypeParams()
	params := p.parseParams()
	var ret ast.TypeAnnotation
	if p.match(token.ARROW) {
		ret = p.parseType()
	}
	p.functionDepth++
	body := p.parseBlock()
	p.functionDepth--
	end := p.toks[p.pos-1].Span
	return &ast.FunctionItem{
		Name: name, TypeParams: typeParams, Params: params, RetType: ret,
		Body: body, Attrs: attrs, Sp: token.Join(start, end),
	}
}

func (p *Parser) parseStructItem() ast.Item {
	start := p.cur().Span
	p.expect(token.STRUCT, "to begin struct")
	name := p.expect(token.IDENT, "struct name").Lexeme
	typeParams := p.parseTypeParams()
	p.expect(token.LBRACE, "to begin struct body")
	var fields []ast.FieldDecl
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fstart := p.cur().Span
		fname := p.expect(token.IDENT, "field name").Lexeme
		p.expect(token.COLON, "after field name")
		ftype := p.parseType()
		fields = append(fields, ast.FieldDecl{Name: fname, Type: ftype, Sp: token.Join(fstart, p.toks[p.pos-1].Span)})
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE, "to close struct body").Span
	return &ast.StructItem{Name: name, TypeParams: typeParams, Fields: fields, Sp: token.Join(start, end)}
}

func (p *Parser) parseEnumItem() ast.Item {
	start := p.cur().Span
	p.expect(token.ENUM, "to begin enum")
	name := p.expect(token.IDENT, "enum name").Lexeme
	typeParams := p.parseTypeParams()
	p.expect(token.LBRACE, "to begin enum body")
	var variants []ast.EnumVariantDecl
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		variants = append(variants, p.parseEnumVariantDecl())
		if !p.match(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE, "to close enum body").Span
	return &ast.EnumItem{Name: name, TypeParams: typeParams, Variants: variants, Sp: token.Join(start, end)}
}

func (p *Parser) parseEnumVariantDecl() ast.EnumVariantDecl {
	start := p.cur().Span
	name := p.expect(token.IDENT, "variant name").Lexeme
	decl := ast.EnumVariantDecl{Name: name}
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			decl.Tuple = append(decl.Tuple, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, "to close variant payload")
	} else if p.match(token.LBRACE) {
		for !p.check(token.RBRACE) && !p.check(token.EOF) {
			fname := p.expect(token.IDENT, "field name").Lexeme
			p.expect(token.COLON, "after field name")
			ftype := p.parseType()
			decl.Fields = append(decl.Fields, ast.FieldDecl{Name: fname, Type: ftype})
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE, "to close variant payload")
	}
	decl.Sp = token.Join(start, p.toks[p.pos-1].Span)
	return decl
}

func (p *Parser) parseInterfaceItem() ast.Item {
	start := p.cur().Span
	p.expect(token.INTERFACE, "to begin interface")
	name := p.expect(token.IDENT, "interface name").Lexeme
	p.expect(token.LBRACE, "to begin interface body")
	var methods []ast.InterfaceMethodSig
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		mstart := p.cur().Span
		p.expect(token.FX, "to begin method signature")
		mname := p.expect(token.IDENT, "method name").Lexeme
		params := p.parseParams()
		var ret ast.TypeAnnotation
		if p.match(token.ARROW) {
			ret = p.parseType()
		}
		p.match(token.SEMICOLON)
		methods = append(methods, ast.InterfaceMethodSig{
			Name: mname, Params: params, RetType: ret, Sp: token.Join(mstart, p.toks[p.pos-1].Span),
		})
	}
	end := p.expect(token.RBRACE, "to close interface body").Span
	return &ast.InterfaceItem{Name: name, Methods: methods, Sp: token.Join(start, end)}
}

func (p *Parser) parseImplItem() ast.Item {
	start := p.cur().Span
	p.expect(token.IMPL, "to begin impl")
	typeParams := p.parseTypeParams()
	first := p.expect(token.IDENT, "impl target or interface name").Lexeme
	interfaceName := ""
	targetName := first
	if p.match(token.FOR) {
		interfaceName = first
		targetName = p.expect(token.IDENT, "impl target name").Lexeme
	}
	p.expect(token.LBRACE, "to begin impl body")
	var methods []*ast.FunctionItem
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		item := p.parseFunctionItem(nil)
		if fn, ok := item.(*ast.FunctionItem); ok {
			methods = append(methods, fn)
		}
	}
	end := p.expect(token.RBRACE, "to close impl body").Span
	return &ast.ImplItem{
		InterfaceName: interfaceName, TargetName: targetName, TypeParams: typeParams,
		Methods: methods, Sp: token.Join(start, end),
	}
}

func (p *Parser) parseImportItem() ast.Item {
	start := p.cur().Span
	p.expect(token.IMPORT, "to begin import")
	var pathParts []string
	pathParts = append(pathParts, p.expect(token.IDENT, "import path segment").Lexeme)
	for p.match(token.DOT) {
		pathParts = append(pathParts, p.expect(token.IDENT, "import path segment").Lexeme)
	}
	alias := ""
	if p.match(token.AS) {
		alias = p.expect(token.IDENT, "import alias").Lexeme
	}
	end := p.toks[p.pos-1].Span
	p.match(token.SEMICOLON)
	return &ast.ImportItem{Path: strings.Join(pathParts, "."), Alias: alias, Sp: token.Join(start, end)}
}

// ---- types --------------------------------------------------------------------

func (p *Parser) parseType() ast.TypeAnnotation {
	base := p.parseTypeAtom()
	if p.match(token.QUESTION) {
		return &ast.NullableType{Inner: base, Sp: base.Span()}
	}
	return base
}

func (p *Parser) parseTypeAtom() ast.TypeAnnotation {
	start := p.cur().Span
	switch p.cur().Kind {
	case token.LBRACKET:
		p.advance()
		elem := p.parseType()
		end := p.expect(token.RBRACKET, "to close list type").Span
		return &ast.ListShorthandType{Element: elem, Sp: token.Join(start, end)}
	case token.LPAREN:
		p.advance()
		var elems []ast.TypeAnnotation
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			elems = append(elems, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN, "to close tuple/function type").Span
		if p.match(token.ARROW) {
			ret := p.parseType()
			return &ast.FunctionType{Params: elems, Ret: ret, Sp: token.Join(start, p.toks[p.pos-1].Span)}
		}
		if len(elems) == 0 {
			return &ast.UnitType{Sp: token.Join(start, end)}
		}
		return &ast.TupleType{Elements: elems, Sp: token.Join(start, end)}
	case token.UNDERSCORE:
		p.advance()
		return &ast.InferredType{Sp: start}
	case token.BANG:
		p.advance()
		return &ast.NeverType{Sp: start}
	default:
		name := p.expect(token.IDENT, "type name").Lexeme
		var args []ast.TypeAnnotation
		if p.match(token.LT) {
			for !p.check(token.GT) && !p.check(token.EOF) {
				args = append(args, p.parseType())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.GT, "to close type argument list")
		}
		return &ast.NamedType{Name: name, TypeArgs: args, Sp: token.Join(start, p.toks[p.pos-1].Span)}
	}
}

// ---- numbers/literals helpers -------------------------------------------------

func parseIntLiteral(t token.Token) ast.Expr {
	switch v := t.Literal.(type) {
	case int64:
		return &ast.Literal{Kind: ast.LitInt, Value: v, Sp: t.Span}
	default:
		return &ast.Literal{Kind: ast.LitInt, Value: int64(0), Sp: t.Span}
	}
}

func parseFloatLiteral(t token.Token) ast.Expr {
	if v, ok := t.Literal.(float64); ok {
		return &ast.Literal{Kind: ast.LitFloat, Value: v, Sp: t.Span}
	}
	v, _ := strconv.ParseFloat(t.Lexeme, 64)
	return &ast.Literal{Kind: ast.LitFloat, Value: v, Sp: t.Span}
}
