package parser

import (
	"strconv"

	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/token"
)

// parseExpr parses one expression. The only real infix operator in this
// grammar is `::` (right-associative list cons) — internal/primitives seeds
// arithmetic and comparison as ordinary named functions (`add`, `sub`,
// `mul`, `eq`, `lt`), so everything else is prefix/postfix dispatch.
func (p *Parser) parseExpr() ast.Expr {
	left := p.parsePostfix(p.parseUnary())
	if p.curIs(token.CONS) {
		p.advance()
		right := p.parseExpr()
		return &ast.ListCons{Pos: span(left.Range(), right.Range()), Head: left, Tail: right}
	}
	return left
}

func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch {
		case p.curIs(token.DOT):
			p.advance()
			labelTok := p.expect(token.IDENT)
			e = &ast.RecordAccess{Pos: span(e.Range(), labelTok.Range), Expr: e, Label: labelTok.Lexeme}
		case p.curIs(token.LPAREN):
			args, rparen := p.parseArgs()
			e = &ast.Apply{Pos: span(e.Range(), rparen), Callee: e, Args: args}
		default:
			return e
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Arg, token.Range) {
	p.expect(token.LPAREN)
	var args []ast.Arg
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseArg())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RPAREN)
	return args, end.Range
}

func (p *Parser) parseArg() ast.Arg {
	start := p.cur().Range
	switch {
	case p.curIs(token.TILDE):
		p.advance()
		label := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		v := p.parseExpr()
		return ast.Arg{Pos: span(start, v.Range()), Label: label, Value: v}
	case p.curIs(token.QUESTION):
		p.advance()
		label := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		v := p.parseExpr()
		return ast.Arg{Pos: span(start, v.Range()), Label: label, Optional: true, Value: v}
	default:
		v := p.parseExpr()
		return ast.Arg{Pos: v.Range(), Value: v}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case token.INT:
		p.advance()
		n, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLit{Pos: tok.Range, Value: n}
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLit{Pos: tok.Range, Value: f}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Pos: tok.Range, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Pos: tok.Range, Value: false}
	case token.CHAR:
		p.advance()
		r := rune(0)
		if len(tok.Lexeme) > 0 {
			r = []rune(tok.Lexeme)[0]
		}
		return &ast.CharLit{Pos: tok.Range, Value: r}
	case token.STRING:
		p.advance()
		if holes, ok := scanFormatHoles(tok.Lexeme); ok {
			return &ast.FormatStringLit{Pos: tok.Range, Value: tok.Lexeme, Holes: holes}
		}
		return &ast.StringLit{Pos: tok.Range, Value: tok.Lexeme}
	case token.LPAREN:
		return p.parseParenExpr()
	case token.LBRACKET:
		return p.parseListLit()
	case token.LBRACE:
		return p.parseRecordExpr()
	case token.IDENT, token.IDENT_UPPER:
		return p.parseIdentOrConstructor()
	case token.FUN:
		return p.parseLambda()
	case token.IF:
		return p.parseIf()
	case token.LET:
		return p.parseLetExprValue()
	case token.CASE:
		return p.parseCaseExpr()
	case token.RECEIVE:
		return p.parseReceiveExpr()
	case token.SPAWN:
		p.advance()
		p.expect(token.LPAREN)
		body := p.parseExpr()
		end := p.expect(token.RPAREN)
		return &ast.SpawnExpr{Pos: span(tok.Range, end.Range), Body: body}
	case token.SELF:
		p.advance()
		return &ast.SelfExpr{Pos: tok.Range}
	case token.SEND:
		p.advance()
		p.expect(token.LPAREN)
		target := p.parseExpr()
		p.expect(token.COMMA)
		value := p.parseExpr()
		end := p.expect(token.RPAREN)
		return &ast.SendExpr{Pos: span(tok.Range, end.Range), Target: target, Value: value}
	case token.DO:
		return p.parseDoExpr()
	default:
		p.errorf("expected an expression, found %s %q", tok.Type, tok.Lexeme)
		p.advance()
		return &ast.UnitLit{Pos: tok.Range}
	}
}

// scanFormatHoles recognizes printf-style hole specifiers (%c %f %e %g %s
// %p %w) inside a string literal's already-unescaped value, returning the
// hole codes in order. A string with no recognized holes is a plain
// StringLit.
func scanFormatHoles(s string) ([]byte, bool) {
	var holes []byte
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i+1 >= len(runes) {
			continue
		}
		switch runes[i+1] {
		case 'c', 'f', 'e', 'g', 's', 'p', 'w':
			holes = append(holes, byte(runes[i+1]))
			i++
		}
	}
	return holes, len(holes) > 0
}

// parseParenExpr disambiguates `()`, `(e)`, and `(e1, e2, ...)`.
func (p *Parser) parseParenExpr() ast.Expr {
	start := p.advance().Range // consume '('
	if p.curIs(token.RPAREN) {
		end := p.advance()
		return &ast.UnitLit{Pos: span(start, end.Range)}
	}
	var elems []ast.Expr
	elems = append(elems, p.parseExpr())
	for p.curIs(token.COMMA) {
		p.advance()
		if p.curIs(token.RPAREN) {
			break // tolerate a trailing comma
		}
		elems = append(elems, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.TupleExpr{Pos: span(start, end.Range), Elements: elems}
}

func (p *Parser) parseListLit() ast.Expr {
	start := p.expect(token.LBRACKET).Range
	lit := &ast.ListLit{Pos: start}
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		lit.Elements = append(lit.Elements, p.parseExpr())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACKET)
	lit.Pos = span(start, end.Range)
	return lit
}

// parseRecordExpr disambiguates a plain record literal (`{ label: value,
// ... }`), a DOTDOT-spread literal (`{ .. base, label: value }`), and an
// update (`{ base with label = value, ... }`) by looking two tokens ahead:
// IDENT immediately followed by COLON can only start a field, since any
// other expression starting with a bare identifier is followed by `.`, `(`,
// `::`, `with`, or `}` — never a bare `:`.
func (p *Parser) parseRecordExpr() ast.Expr {
	start := p.expect(token.LBRACE).Range

	if p.curIs(token.DOTDOT) {
		p.advance()
		spread := p.parseExpr()
		lit := &ast.RecordLit{Pos: start, Spread: spread}
		if p.curIs(token.COMMA) {
			p.advance()
		}
		p.parseRecordFieldsInto(lit)
		end := p.expect(token.RBRACE)
		lit.Pos = span(start, end.Range)
		return lit
	}

	if p.curIs(token.IDENT) && p.peek().Type == token.COLON {
		lit := &ast.RecordLit{Pos: start}
		p.parseRecordFieldsInto(lit)
		end := p.expect(token.RBRACE)
		lit.Pos = span(start, end.Range)
		return lit
	}

	if p.curIs(token.RBRACE) {
		end := p.advance()
		return &ast.RecordLit{Pos: span(start, end.Range)}
	}

	base := p.parseExpr()
	p.expect(token.WITH)
	upd := &ast.RecordUpdate{Pos: start, Base: base}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		fieldPos := p.cur().Range
		label := p.expect(token.IDENT).Lexeme
		p.expect(token.ASSIGN)
		val := p.parseExpr()
		upd.Fields = append(upd.Fields, ast.RecordField{Pos: fieldPos, Label: label, Value: val})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACE)
	upd.Pos = span(start, end.Range)
	return upd
}

func (p *Parser) parseRecordFieldsInto(lit *ast.RecordLit) {
	for p.curIs(token.IDENT) && p.peek().Type == token.COLON {
		fieldPos := p.cur().Range
		label := p.advance().Lexeme
		p.advance() // consume ':'
		val := p.parseExpr()
		lit.Fields = append(lit.Fields, ast.RecordField{Pos: fieldPos, Label: label, Value: val})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
}

// parseIdentOrConstructor handles the value-level identifier surface:
// module-qualified idents (`M.x`), bare constructors (`Some`, `Cons(h, t)`),
// and the two builtin-name-but-no-keyword forms `freeze`/`freeze_update`
// (there is no lexical keyword for either — see DESIGN.md's resolution of
// this as the parser's own reserved-identifier convention, analogous to how
// `send`/`spawn`/`self` got dedicated keywords but this rarer
// hibernation-handoff primitive didn't warrant one).
func (p *Parser) parseIdentOrConstructor() ast.Expr {
	start := p.cur()
	if p.curIs(token.IDENT) {
		name := p.advance().Lexeme
		if name == "freeze" && p.curIs(token.LPAREN) {
			return p.parseFreezeExpr(start.Range)
		}
		if name == "freeze_update" && p.curIs(token.LPAREN) {
			return p.parseFreezeUpdateExpr(start.Range)
		}
		return &ast.Ident{Pos: start.Range, Name: name}
	}

	first := p.advance().Lexeme
	if !p.curIs(token.DOT) {
		var args []ast.Expr
		if p.curIs(token.LPAREN) {
			p.advance()
			for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
				args = append(args, p.parseExpr())
				if p.curIs(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			end := p.expect(token.RPAREN)
			return &ast.ConstructorExpr{Pos: span(start.Range, end.Range), Name: first, Args: args}
		}
		return &ast.ConstructorExpr{Pos: start.Range, Name: first}
	}

	var path []string
	for p.curIs(token.DOT) {
		p.advance()
		segTok := p.cur()
		seg := p.advance().Lexeme
		if p.curIs(token.DOT) {
			path = append(path, seg)
			continue
		}
		path = append([]string{first}, path...)
		return &ast.Ident{Pos: span(start.Range, segTok.Range), ModulePath: path, Name: seg}
	}
	return &ast.Ident{Pos: start.Range, ModulePath: append([]string{first}, path...)}
}

func (p *Parser) parseFreezeExpr(start token.Range) ast.Expr {
	p.expect(token.LPAREN)
	nameTok := p.expect(token.STRING)
	fe := &ast.FreezeExpr{Pos: start, GlobalName: nameTok.Lexeme}
	for p.curIs(token.COMMA) {
		p.advance()
		fe.Args = append(fe.Args, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	fe.Pos = span(start, end.Range)
	return fe
}

func (p *Parser) parseFreezeUpdateExpr(start token.Range) ast.Expr {
	p.expect(token.LPAREN)
	base := p.parseExpr()
	fu := &ast.FreezeUpdateExpr{Pos: start, Base: base}
	for p.curIs(token.COMMA) {
		p.advance()
		fu.Args = append(fu.Args, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	fu.Pos = span(start, end.Range)
	return fu
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.expect(token.FUN).Range
	params := p.parseLambdaParams()
	p.expect(token.ARROW)
	body := p.parseExpr()
	return &ast.Lambda{Pos: span(start, body.Range()), Params: params, Body: body}
}

// parseLambdaParams accepts both `fun(p1, p2) -> body` (parenthesized, like
// function-sugar `let` bindings) and bare `fun p -> body` for the common
// single-parameter case.
func (p *Parser) parseLambdaParams() []ast.Param {
	if p.curIs(token.LPAREN) {
		return p.parseParamList()
	}
	return []ast.Param{p.parseParam()}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.expect(token.IF).Range
	cond := p.parseExpr()
	p.expect(token.THEN)
	then := p.parseExpr()
	p.expect(token.ELSE)
	els := p.parseExpr()
	return &ast.IfExpr{Pos: span(start, els.Range()), Cond: cond, Then: then, Else: els}
}

// parseLetExprValue is `let [rec] b1 and b2 ... in body`, the expression
// form of `let` (as opposed to parseDeclLet's top-level-declaration form).
func (p *Parser) parseLetExprValue() ast.Expr {
	start := p.expect(token.LET).Range
	rec := false
	if p.curIs(token.REC) {
		p.advance()
		rec = true
	}
	var bindings []*ast.ValBinding
	bindings = append(bindings, p.parseValBinding())
	for p.curIs(token.AND) {
		p.advance()
		bindings = append(bindings, p.parseValBinding())
	}
	p.expect(token.IN)
	body := p.parseExpr()
	return &ast.LetExpr{Pos: span(start, body.Range()), Rec: rec, Bindings: bindings, Body: body}
}

func (p *Parser) parseCaseExpr() ast.Expr {
	start := p.expect(token.CASE).Range
	scrut := p.parseExpr()
	p.expect(token.OF)
	var arms []ast.Arm
	for p.curIs(token.PIPE) {
		arms = append(arms, p.parseArm())
	}
	end := p.expect(token.END)
	return &ast.CaseExpr{Pos: span(start, end.Range), Scrutinee: scrut, Arms: arms}
}

func (p *Parser) parseReceiveExpr() ast.Expr {
	start := p.expect(token.RECEIVE).Range
	var arms []ast.Arm
	for p.curIs(token.PIPE) {
		arms = append(arms, p.parseArm())
	}
	end := p.expect(token.END)
	return &ast.ReceiveExpr{Pos: span(start, end.Range), Arms: arms}
}

func (p *Parser) parseArm() ast.Arm {
	start := p.expect(token.PIPE).Range
	pat := p.parsePattern()
	var guard ast.Expr
	if p.curIs(token.IF) {
		p.advance()
		guard = p.parseExpr()
	}
	p.expect(token.ARROW)
	body := p.parseExpr()
	return ast.Arm{Pos: span(start, body.Range()), Pattern: pat, Guard: guard, Body: body}
}

func (p *Parser) parseDoExpr() ast.Expr {
	start := p.expect(token.DO).Range
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.ASSIGN)
	comp := p.parseExpr()
	p.expect(token.IN)
	rest := p.parseExpr()
	return &ast.DoExpr{Pos: span(start, rest.Range()), Name: name, Comp: comp, Rest: rest}
}
