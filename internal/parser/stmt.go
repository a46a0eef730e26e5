package parser

import (
	"github.com/horizonanalytic/stratum/internal/ast"
	"github.com/horizonanalytic/stratum/internal/token"
)

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLetStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.LOOP:
		return p.parseLoopStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.CONTINUE:
		return p.parseContinueStmt()
	case token.TRY:
		if looksLikeTryStatement(p.toks, p.pos) {
			return p.parseTryStmt()
		}
		return p.parseExprOrAssignStmt()
	case token.THROW:
		return p.parseThrowStmt()
	default:
		return p.parseExprOrAssignStmt()
	}
}

// looksLikeTryStatement distinguishes the `try { ... } catch ... ` statement
// form from the `try expr` propagation expression: a statement-form `try`
// is always followed directly by a block.
func looksLikeTryStatement(toks []token.Token, tryPos int) bool {
	if tryPos+1 >= len(toks) {
		return false
	}
	return toks[tryPos+1].Kind == token.LBRACE
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.LET, "to begin let binding")
	mut := p.match(token.MUT)
	pat := p.parsePattern()
	var ty ast.TypeAnnotation
	if p.match(token.COLON) {
		ty = p.parseType()
	}
	p.expect(token.ASSIGN, "in let binding")
	value := p.parseExpr()
	end := p.toks[p.pos-1].Span
	p.match(token.SEMICOLON)
	return &ast.LetStmt{Pattern: pat, Type: ty, Mut: mut, Value: value, Sp: token.Join(start, end)}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.RETURN, "to begin return statement")
	if p.functionDepth == 0 {
		p.errorf(CodeReturnOutsideFunc, "return outside function")
	}
	var value ast.Expr
	if !p.check(token.SEMICOLON) && !p.check(token.RBRACE) {
		value = p.parseExpr()
	}
	end := p.toks[p.pos-1].Span
	p.match(token.SEMICOLON)
	return &ast.ReturnStmt{Value: value, Sp: token.Join(start, end)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.FOR, "to begin for loop")
	binder := p.expect(token.IDENT, "loop variable").Lexeme
	p.expect(token.IN, "in for loop")
	iter := p.parseExpr()
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return &ast.ForStmt{Binder: binder, Iter: iter, Body: body, Sp: token.Join(start, body.Sp)}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.WHILE, "to begin while loop")
	cond := p.parseExpr()
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return &ast.WhileStmt{Cond: cond, Body: body, Sp: token.Join(start, body.Sp)}
}

func (p *Parser) parseLoopStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.LOOP, "to begin loop")
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return &ast.LoopStmt{Body: body, Sp: token.Join(start, body.Sp)}
}

func (p *Parser) parseBreakStmt() ast.Stmt {
	t := p.advance()
	if p.loopDepth == 0 {
		p.errorf(CodeBreakOutsideLoop, "break outside loop")
	}
	p.match(token.SEMICOLON)
	return &ast.BreakStmt{Sp: t.Span}
}

func (p *Parser) parseContinueStmt() ast.Stmt {
	t := p.advance()
	if p.loopDepth == 0 {
		p.errorf(CodeContinueOutsideLoop, "continue outside loop")
	}
	p.match(token.SEMICOLON)
	return &ast.ContinueStmt{Sp: t.Span}
}

func (p *Parser) parseTryStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.TRY, "to begin try statement")
	body := p.parseBlock()
	var catch *ast.CatchClause
	if p.match(token.CATCH) {
		cstart := p.toks[p.pos-1].Span
		binder := ""
		if p.match(token.LPAREN) {
			binder = p.expect(token.IDENT, "catch binder").Lexeme
			p.expect(token.RPAREN, "to close catch binder")
		}
		cbody := p.parseBlock()
		catch = &ast.CatchClause{Binder: binder, Body: cbody, Sp: token.Join(cstart, cbody.Sp)}
	}
	var finally *ast.BlockExpr
	if p.match(token.FINALLY) {
		finally = p.parseBlock()
	}
	end := p.toks[p.pos-1].Span
	return &ast.TryStmt{Body: body, Catch: catch, Finally: finally, Sp: token.Join(start, end)}
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.THROW, "to begin throw statement")
	value := p.parseExpr()
	end := value.Span()
	p.match(token.SEMICOLON)
	return &ast.ThrowStmt{Value: value, Sp: token.Join(start, end)}
}

var assignOps = map[token.Kind]ast.AssignOp{
	token.ASSIGN:         ast.AssignPlain,
	token.PLUS_ASSIGN:    ast.AssignAdd,
	token.MINUS_ASSIGN:   ast.AssignSub,
	token.STAR_ASSIGN:    ast.AssignMul,
	token.SLASH_ASSIGN:   ast.AssignDiv,
	token.PERCENT_ASSIGN: ast.AssignMod,
}

func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	start := p.cur().Span
	e := p.parseExpr()
	if op, ok := assignOps[p.cur().Kind]; ok {
		p.advance()
		value := p.parseExpr()
		end := value.Span()
		p.match(token.SEMICOLON)
		return &ast.AssignStmt{Op: op, Target: e, Value: value, Sp: token.Join(start, end)}
	}
	end := e.Span()
	p.match(token.SEMICOLON)
	return &ast.ExprStmt{Expr: e, Sp: token.Join(start, end)}
}
