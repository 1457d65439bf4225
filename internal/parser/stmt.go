package parser

import "zawk/internal/lexer"

func (p *Parser) parseStmt() Stmt {
	switch {
	case p.check(lexer.TokenLBrace):
		return &BlockStmt{Stmts: p.parseBlock()}
	case p.match(lexer.TokenIf):
		return p.parseIf()
	case p.match(lexer.TokenWhile):
		return p.parseWhile()
	case p.match(lexer.TokenDo):
		return p.parseDoWhile()
	case p.match(lexer.TokenFor):
		return p.parseFor()
	case p.match(lexer.TokenBreak):
		p.optTerm()
		return &BreakStmt{}
	case p.match(lexer.TokenContinue):
		p.optTerm()
		return &ContinueStmt{}
	case p.match(lexer.TokenNext):
		p.optTerm()
		return &NextStmt{}
	case p.match(lexer.TokenNextfile):
		p.optTerm()
		return &NextfileStmt{}
	case p.match(lexer.TokenExit):
		var code Expr
		if p.startsExpr() {
			code = p.parseExpr()
		}
		p.optTerm()
		return &ExitStmt{Code: code}
	case p.match(lexer.TokenReturn):
		var v Expr
		if p.startsExpr() {
			v = p.parseExpr()
		}
		p.optTerm()
		return &ReturnStmt{Value: v}
	case p.match(lexer.TokenDelete):
		return p.parseDelete()
	case p.match(lexer.TokenPrint):
		return p.parsePrint(false)
	case p.match(lexer.TokenPrintf):
		return p.parsePrint(true)
	case p.match(lexer.TokenSemicolon):
		return &BlockStmt{}
	default:
		e := p.parseExpr()
		p.optTerm()
		return &ExprStmt{X: e}
	}
}

func (p *Parser) startsExpr() bool {
	switch p.peek().Type {
	case lexer.TokenSemicolon, lexer.TokenNewline, lexer.TokenRBrace, lexer.TokenEOF:
		return false
	default:
		return true
	}
}

func (p *Parser) parseIf() Stmt {
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen)
	p.skipNewlines()
	then := p.parseStmtAsBlock()
	var els []Stmt
	save := p.pos
	p.skipTerminators()
	if p.match(lexer.TokenElse) {
		p.skipNewlines()
		els = p.parseStmtAsBlock()
	} else {
		p.pos = save
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

// parseStmtAsBlock parses either a brace block or a single statement,
// normalizing both to a []Stmt.
func (p *Parser) parseStmtAsBlock() []Stmt {
	if p.check(lexer.TokenLBrace) {
		return p.parseBlock()
	}
	return []Stmt{p.parseStmt()}
}

func (p *Parser) parseWhile() Stmt {
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen)
	p.skipNewlines()
	body := p.parseStmtAsBlock()
	return &WhileStmt{Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() Stmt {
	p.skipNewlines()
	body := p.parseStmtAsBlock()
	p.skipTerminators()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen)
	p.optTerm()
	return &DoWhileStmt{Body: body, Cond: cond}
}

func (p *Parser) parseFor() Stmt {
	p.expect(lexer.TokenLParen)
	// for (k in arr)
	if (p.check(lexer.TokenIdent) || p.check(lexer.TokenFuncName)) && p.peekAhead(1).Type == lexer.TokenIn {
		name := p.advance().Lexeme
		p.expect(lexer.TokenIn)
		arr := p.expectIdentLike("array name")
		p.expect(lexer.TokenRParen)
		p.skipNewlines()
		body := p.parseStmtAsBlock()
		return &ForInStmt{VarName: name, ArrayName: arr, Body: body}
	}
	var init Stmt
	if !p.check(lexer.TokenSemicolon) {
		init = &ExprStmt{X: p.parseExpr()}
	}
	p.expect(lexer.TokenSemicolon)
	var cond Expr
	if !p.check(lexer.TokenSemicolon) {
		cond = p.parseExpr()
	}
	p.expect(lexer.TokenSemicolon)
	var post Stmt
	if !p.check(lexer.TokenRParen) {
		post = &ExprStmt{X: p.parseExpr()}
	}
	p.expect(lexer.TokenRParen)
	p.skipNewlines()
	body := p.parseStmtAsBlock()
	return &ForStmt{Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) peekAhead(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) parseDelete() Stmt {
	name := p.expectIdentLike("array name")
	var subs []Expr
	if p.match(lexer.TokenLBracket) {
		subs = append(subs, p.parseExpr())
		for p.match(lexer.TokenComma) {
			subs = append(subs, p.parseExpr())
		}
		p.expect(lexer.TokenRBracket)
	} else if p.match(lexer.TokenLParen) {
		// delete arr(...) accepted as an alias for delete arr[...]
		// some AWK variants permit this; harmless to be lenient.
		if !p.check(lexer.TokenRParen) {
			subs = append(subs, p.parseExpr())
			for p.match(lexer.TokenComma) {
				subs = append(subs, p.parseExpr())
			}
		}
		p.expect(lexer.TokenRParen)
	}
	p.optTerm()
	return &DeleteStmt{Array: name, Subscripts: subs}
}

func (p *Parser) parsePrint(isPrintf bool) Stmt {
	loc := p.loc()
	var args []Expr
	p.noGT = true
	if p.startsExpr() && !p.checkRedirect() {
		args = append(args, p.parseTernary())
		for p.match(lexer.TokenComma) {
			p.skipNewlines()
			args = append(args, p.parseTernary())
		}
	}
	p.noGT = false
	var dest *OutputRedirect
	if p.check(lexer.TokenGT) || p.check(lexer.TokenAppend) || p.check(lexer.TokenPipe) {
		mode := string(p.advance().Type)
		target := p.parseTernary()
		dest = &OutputRedirect{Mode: mode, Target: target}
	}
	p.optTerm()
	if isPrintf {
		return &PrintfStmt{Args: args, Dest: dest, Loc: loc}
	}
	return &PrintStmt{Args: args, Dest: dest, Loc: loc}
}

func (p *Parser) checkRedirect() bool {
	return p.check(lexer.TokenGT) || p.check(lexer.TokenAppend) || p.check(lexer.TokenPipe)
}
