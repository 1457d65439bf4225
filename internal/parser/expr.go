package parser

import (
	"strconv"

	"zawk/internal/lexer"
)

func (p *Parser) parseExpr() Expr {
	return p.parseAssign()
}

var assignOps = map[lexer.TokenType]string{
	lexer.TokenAssign:    "=",
	lexer.TokenAddAssign: "+=",
	lexer.TokenSubAssign: "-=",
	lexer.TokenMulAssign: "*=",
	lexer.TokenDivAssign: "/=",
	lexer.TokenModAssign: "%=",
	lexer.TokenPowAssign: "^=",
}

func (p *Parser) parseAssign() Expr {
	left := p.parseTernary()
	if op, ok := assignOps[p.peek().Type]; ok {
		if !isAssignable(left) {
			p.error("left-hand side of assignment must be a variable, field, or array element")
		}
		loc := p.loc()
		p.advance()
		value := p.parseAssign() // right-associative
		return &AssignExpr{Target: left, Op: op, Value: value, Loc: loc}
	}
	return left
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *VarExpr, *FieldExpr, *IndexExpr:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTernary() Expr {
	cond := p.parseOr()
	if p.match(lexer.TokenQuestion) {
		loc := p.loc()
		then := p.parseTernary()
		p.expect(lexer.TokenColon)
		els := p.parseTernary()
		return &TernaryExpr{Cond: cond, Then: then, Else: els, Loc: loc}
	}
	return cond
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.match(lexer.TokenOr) {
		loc := p.loc()
		right := p.parseAnd()
		left = &BinaryExpr{Left: left, Op: "||", Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseIn()
	for p.match(lexer.TokenAnd) {
		loc := p.loc()
		right := p.parseIn()
		left = &BinaryExpr{Left: left, Op: "&&", Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseIn() Expr {
	left := p.parseMatch()
	for p.match(lexer.TokenIn) {
		loc := p.loc()
		arr := p.expectIdentLike("array name")
		subs := []Expr{left}
		if g, ok := left.(*GroupExpr); ok {
			subs = g.Exprs
		}
		left = &InExpr{Subscripts: subs, Array: arr, Loc: loc}
	}
	return left
}

func (p *Parser) parseMatch() Expr {
	left := p.parseRelational()
	for p.check(lexer.TokenMatch) || p.check(lexer.TokenNotMatch) {
		neg := p.peek().Type == lexer.TokenNotMatch
		loc := p.loc()
		p.advance()
		right := p.parseRelational()
		left = &MatchExpr{Left: left, Right: right, Negate: neg, Loc: loc}
	}
	return left
}

func (p *Parser) parseRelational() Expr {
	left := p.parseConcatOrPipeGetline()
	if p.isRelOp() {
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		right := p.parseConcatOrPipeGetline()
		left = &BinaryExpr{Left: left, Op: op, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) isRelOp() bool {
	switch p.peek().Type {
	case lexer.TokenLT, lexer.TokenLE, lexer.TokenNE, lexer.TokenEQ, lexer.TokenGE:
		return true
	case lexer.TokenGT:
		return !p.noGT
	default:
		return false
	}
}

// parseConcatOrPipeGetline parses a concatenation, then checks for a
// trailing `| getline [var]`, AWK's "command pipe into getline" form.
func (p *Parser) parseConcatOrPipeGetline() Expr {
	left := p.parseConcat()
	for p.check(lexer.TokenPipe) && p.peekAhead(1).Type == lexer.TokenGetline {
		loc := p.loc()
		p.advance() // '|'
		p.advance() // getline
		var v Expr
		if p.check(lexer.TokenIdent) || p.check(lexer.TokenDollar) {
			v = p.parseUnary()
		}
		left = &GetlineExpr{Mode: GetlineCommand, Var: v, Source: left, Loc: loc}
	}
	return left
}

// concatStart reports whether the current token can begin another
// operand of an implicit concatenation, i.e. is not an operator,
// separator, or closer.
func (p *Parser) concatStart() bool {
	switch p.peek().Type {
	case lexer.TokenNumber, lexer.TokenString, lexer.TokenRegex, lexer.TokenIdent,
		lexer.TokenFuncName, lexer.TokenDollar, lexer.TokenLParen, lexer.TokenNot,
		lexer.TokenMinus, lexer.TokenPlus, lexer.TokenIncr, lexer.TokenDecr:
		return true
	default:
		return false
	}
}

func (p *Parser) parseConcat() Expr {
	left := p.parseAdditive()
	var parts []Expr
	for p.concatStart() {
		if len(parts) == 0 {
			parts = append(parts, left)
		}
		parts = append(parts, p.parseAdditive())
	}
	if parts == nil {
		return left
	}
	return &ConcatExpr{Parts: parts, Loc: p.loc()}
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		right := p.parseMultiplicative()
		left = &BinaryExpr{Left: left, Op: op, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) || p.check(lexer.TokenPercent) {
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		right := p.parseUnary()
		left = &BinaryExpr{Left: left, Op: op, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.check(lexer.TokenNot) || p.check(lexer.TokenMinus) || p.check(lexer.TokenPlus) {
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		operand := p.parseUnary()
		return &UnaryExpr{Op: op, Operand: operand, Loc: loc}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() Expr {
	left := p.parsePrefixIncrDecr()
	if p.check(lexer.TokenCaret) {
		loc := p.loc()
		p.advance()
		right := p.parseUnary() // right-associative, binds like unary on the rhs
		return &BinaryExpr{Left: left, Op: "^", Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parsePrefixIncrDecr() Expr {
	if p.check(lexer.TokenIncr) || p.check(lexer.TokenDecr) {
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		target := p.parsePostfix()
		return &IncrDecrExpr{Target: target, Op: op, Prefix: true, Loc: loc}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	e := p.parsePrimary()
	for p.check(lexer.TokenIncr) || p.check(lexer.TokenDecr) {
		if !isAssignable(e) {
			break
		}
		op := string(p.peek().Type)
		loc := p.loc()
		p.advance()
		e = &IncrDecrExpr{Target: e, Op: op, Prefix: false, Loc: loc}
	}
	return e
}

func (p *Parser) parsePrimary() Expr {
	loc := p.loc()
	switch {
	case p.match(lexer.TokenNumber):
		return &NumberLit{Value: parseNumber(p.previous().Lexeme), Loc: loc}
	case p.match(lexer.TokenString):
		return &StringLit{Value: p.previous().Lexeme, Loc: loc}
	case p.match(lexer.TokenRegex):
		return &RegexLit{Pattern: p.previous().Lexeme, Loc: loc}
	case p.match(lexer.TokenDollar):
		idx := p.parsePrefixIncrDecr()
		return &FieldExpr{Index: idx, Loc: loc}
	case p.match(lexer.TokenGetline):
		return p.parseGetline()
	case p.match(lexer.TokenLParen):
		savedNoGT := p.noGT
		p.noGT = false
		first := p.parseExpr()
		if p.match(lexer.TokenComma) {
			exprs := []Expr{first}
			exprs = append(exprs, p.parseExpr())
			for p.match(lexer.TokenComma) {
				exprs = append(exprs, p.parseExpr())
			}
			p.expect(lexer.TokenRParen)
			p.noGT = savedNoGT
			return &GroupExpr{Exprs: exprs, Loc: loc}
		}
		p.expect(lexer.TokenRParen)
		p.noGT = savedNoGT
		return first
	case p.check(lexer.TokenFuncName):
		name := p.advance().Lexeme
		p.expect(lexer.TokenLParen)
		savedNoGT := p.noGT
		p.noGT = false
		var args []Expr
		if !p.check(lexer.TokenRParen) {
			args = append(args, p.parseExpr())
			for p.match(lexer.TokenComma) {
				p.skipNewlines()
				args = append(args, p.parseExpr())
			}
		}
		p.expect(lexer.TokenRParen)
		p.noGT = savedNoGT
		return &CallExpr{Name: name, Args: args, Loc: loc}
	case p.check(lexer.TokenIdent):
		name := p.advance().Lexeme
		if p.match(lexer.TokenLBracket) {
			subs := []Expr{p.parseExpr()}
			for p.match(lexer.TokenComma) {
				subs = append(subs, p.parseExpr())
			}
			p.expect(lexer.TokenRBracket)
			return &IndexExpr{Array: name, Subscripts: subs, Loc: loc}
		}
		return &VarExpr{Name: name, Loc: loc}
	default:
		p.error("unexpected token %s in expression", p.peek().Type)
		p.advance()
		return &NumberLit{Value: 0, Loc: loc}
	}
}

// parseGetline handles `getline`, `getline var`, `getline < file`,
// `getline var < file`. The `cmd | getline` form is recognized one
// level up, in parseConcatOrPipeGetline.
func (p *Parser) parseGetline() Expr {
	loc := p.loc()
	var v Expr
	if p.check(lexer.TokenIdent) || p.check(lexer.TokenDollar) {
		v = p.parsePostfix()
	}
	if p.match(lexer.TokenLT) {
		src := p.parseConcat()
		return &GetlineExpr{Mode: GetlineFile, Var: v, Source: src, Loc: loc}
	}
	return &GetlineExpr{Mode: GetlineSimple, Var: v, Loc: loc}
}

func parseNumber(lexeme string) float64 {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0
	}
	return v
}
