package parser

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/token"
)

// parseTypeParams parses an optional `<a, b, c>` type-parameter name list
// at a `type`/signature `type` declaration header.
func (p *Parser) parseTypeParams() []string {
	if !p.curIs(token.LANGLE) {
		return nil
	}
	p.advance()
	var names []string
	for {
		names = append(names, p.expect(token.IDENT).Lexeme)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RANGLE)
	return names
}

// parseTypeExpr parses one type expression. A CHAR token is always a
// type-variable reference (`'a` lexes as CHAR "a" via the lenient
// single-rune lexer.readQuotedChar), distinguishing it from a TEName
// (IDENT/IDENT_UPPER) without needing to track a binder's declared params at
// parse time.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	switch p.cur().Type {
	case token.CHAR:
		tok := p.advance()
		return &ast.TEVar{Pos: tok.Range, Name: tok.Lexeme}
	case token.LPAREN:
		return p.parseTypeParenOrDomain()
	case token.LBRACE:
		return p.parseTypeRecord()
	case token.IDENT, token.IDENT_UPPER:
		return p.parseTypeName()
	default:
		p.errorf("expected a type, found %s %q", p.cur().Type, p.cur().Lexeme)
		tok := p.cur()
		return &ast.TEName{Pos: tok.Range, Name: "?"}
	}
}

func (p *Parser) parseTypeName() ast.TypeExpr {
	start := p.cur().Range
	var path []string
	name := p.advance().Lexeme
	for p.curIs(token.DOT) {
		p.advance()
		path = append(path, name)
		name = p.advance().Lexeme
	}
	if name == "pid" && p.curIs(token.LANGLE) {
		p.advance()
		inner := p.parseTypeExpr()
		end := p.expect(token.RANGLE)
		return &ast.TEPid{Pos: span(start, end.Range), Inner: inner}
	}
	te := &ast.TEName{Pos: start, ModulePath: path, Name: name}
	if p.curIs(token.LANGLE) {
		p.advance()
		for !p.curIs(token.RANGLE) && !p.curIs(token.EOF) {
			te.Args = append(te.Args, p.parseTypeExpr())
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		end := p.expect(token.RANGLE)
		te.Pos = span(start, end.Range)
	}
	return arrowIfFollowed(p, te)
}

// arrowIfFollowed lets any type primary be the domain of a one-element
// function type written without the parenthesized-domain form, e.g.
// `int -> int` alongside the general `(int, ~x: int) -> int`.
func arrowIfFollowed(p *Parser, t ast.TypeExpr) ast.TypeExpr {
	if p.curIs(token.ARROW) || p.curIs(token.EFFARROW) {
		return p.finishFunc(ast.TEDomain{Ordered: []ast.TypeExpr{t}}, t.Range())
	}
	return t
}

// parseTypeParenOrDomain disambiguates a parenthesized grouping/tuple type
// from a function-type domain list: `(int)` is a grouped int, `(int, int)`
// is a tuple UNLESS followed by `->`/`~>`, in which case the parens were a
// domain list all along.
func (p *Parser) parseTypeParenOrDomain() ast.TypeExpr {
	start := p.advance().Range // consume '('
	dom := ast.TEDomain{}
	var elems []ast.TypeExpr
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		switch {
		case p.curIs(token.TILDE):
			p.advance()
			label := p.expect(token.IDENT).Lexeme
			p.expect(token.COLON)
			dom.Mandatory = append(dom.Mandatory, ast.TypeField{Label: label, Type: p.parseTypeExpr()})
		case p.curIs(token.QUESTION):
			p.advance()
			dom.HasOptional = true
			label := p.expect(token.IDENT).Lexeme
			p.expect(token.COLON)
			dom.Optional = append(dom.Optional, ast.TypeField{Label: label, Type: p.parseTypeExpr()})
		case p.curIs(token.DOTDOT):
			p.advance()
			dom.HasOptional = true
		default:
			t := p.parseTypeExprNoArrow()
			elems = append(elems, t)
			dom.Ordered = append(dom.Ordered, t)
		}
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RPAREN)
	rng := span(start, end.Range)

	if p.curIs(token.ARROW) || p.curIs(token.EFFARROW) {
		return p.finishFunc(dom, rng)
	}
	if len(dom.Mandatory) > 0 || dom.HasOptional {
		// Labeled fields only make sense as a function domain.
		p.errorf("labeled type fields are only valid in a function domain")
	}
	switch len(elems) {
	case 0:
		return &ast.TEName{Pos: rng, Name: "unit"}
	case 1:
		return elems[0]
	default:
		return &ast.TETuple{Pos: rng, Elements: elems}
	}
}

// parseTypeExprNoArrow parses a type primary without letting it greedily
// consume a trailing arrow, used for elements inside a paren list where the
// arrow (if any) belongs to the whole list, not to the last element.
func (p *Parser) parseTypeExprNoArrow() ast.TypeExpr {
	switch p.cur().Type {
	case token.CHAR:
		tok := p.advance()
		return &ast.TEVar{Pos: tok.Range, Name: tok.Lexeme}
	case token.LPAREN:
		return p.parseTypeParenOrDomain()
	case token.LBRACE:
		return p.parseTypeRecord()
	case token.IDENT, token.IDENT_UPPER:
		start := p.cur().Range
		var path []string
		name := p.advance().Lexeme
		for p.curIs(token.DOT) {
			p.advance()
			path = append(path, name)
			name = p.advance().Lexeme
		}
		if name == "pid" && p.curIs(token.LANGLE) {
			p.advance()
			inner := p.parseTypeExpr()
			end := p.expect(token.RANGLE)
			return &ast.TEPid{Pos: span(start, end.Range), Inner: inner}
		}
		te := &ast.TEName{Pos: start, ModulePath: path, Name: name}
		if p.curIs(token.LANGLE) {
			p.advance()
			for !p.curIs(token.RANGLE) && !p.curIs(token.EOF) {
				te.Args = append(te.Args, p.parseTypeExpr())
				if p.curIs(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			end := p.expect(token.RANGLE)
			te.Pos = span(start, end.Range)
		}
		return te
	default:
		p.errorf("expected a type, found %s %q", p.cur().Type, p.cur().Lexeme)
		tok := p.cur()
		return &ast.TEName{Pos: tok.Range, Name: "?"}
	}
}

func (p *Parser) finishFunc(dom ast.TEDomain, start token.Range) ast.TypeExpr {
	p.advance() // consume -> or ~>
	cod := p.parseTypeExpr()
	return &ast.TEFunc{Pos: span(start, cod.Range()), Domain: dom, Codomain: cod}
}

func (p *Parser) parseTypeRecord() ast.TypeExpr {
	start := p.expect(token.LBRACE).Range
	rec := &ast.TERecord{Pos: start}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DOTDOT) {
			p.advance()
			rec.Open = true
			break
		}
		fieldPos := p.cur().Range
		label := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		typ := p.parseTypeExpr()
		rec.Fields = append(rec.Fields, ast.TypeField{Pos: fieldPos, Label: label, Type: typ})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACE)
	rec.Pos = span(start, end.Range)
	return rec
}
