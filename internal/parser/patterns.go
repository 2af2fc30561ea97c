package parser

import (
	"strconv"

	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/token"
)

// parsePattern parses one pattern, then a trailing `::` for cons patterns
// (right-associative, mirroring parseExpr's list-cons handling).
func (p *Parser) parsePattern() ast.Pattern {
	left := p.parsePatternPrimary()
	if p.curIs(token.CONS) {
		p.advance()
		right := p.parsePattern()
		return &ast.PCons{Pos: span(left.Range(), right.Range()), Head: left, Tail: right}
	}
	return left
}

func (p *Parser) parsePatternPrimary() ast.Pattern {
	tok := p.cur()
	switch tok.Type {
	case token.IDENT:
		p.advance()
		if tok.Lexeme == "_" {
			return &ast.PWildcard{Pos: tok.Range}
		}
		return &ast.PVar{Pos: tok.Range, Name: tok.Lexeme}
	case token.IDENT_UPPER:
		p.advance()
		pc := &ast.PConstructor{Pos: tok.Range, Name: tok.Lexeme}
		if p.curIs(token.LPAREN) {
			p.advance()
			for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
				pc.Args = append(pc.Args, p.parsePattern())
				if p.curIs(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			end := p.expect(token.RPAREN)
			pc.Pos = span(tok.Range, end.Range)
		}
		return pc
	case token.INT:
		p.advance()
		n, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.PLit{Pos: tok.Range, Value: &ast.IntLit{Pos: tok.Range, Value: n}}
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.PLit{Pos: tok.Range, Value: &ast.FloatLit{Pos: tok.Range, Value: f}}
	case token.STRING:
		p.advance()
		return &ast.PLit{Pos: tok.Range, Value: &ast.StringLit{Pos: tok.Range, Value: tok.Lexeme}}
	case token.CHAR:
		p.advance()
		r := rune(0)
		if len(tok.Lexeme) > 0 {
			r = []rune(tok.Lexeme)[0]
		}
		return &ast.PLit{Pos: tok.Range, Value: &ast.CharLit{Pos: tok.Range, Value: r}}
	case token.TRUE:
		p.advance()
		return &ast.PLit{Pos: tok.Range, Value: &ast.BoolLit{Pos: tok.Range, Value: true}}
	case token.FALSE:
		p.advance()
		return &ast.PLit{Pos: tok.Range, Value: &ast.BoolLit{Pos: tok.Range, Value: false}}
	case token.LBRACKET:
		return p.parsePatternList()
	case token.LBRACE:
		return p.parsePatternRecord()
	case token.LPAREN:
		return p.parsePatternParen()
	default:
		p.errorf("expected a pattern, found %s %q", tok.Type, tok.Lexeme)
		p.advance()
		return &ast.PWildcard{Pos: tok.Range}
	}
}

func (p *Parser) parsePatternParen() ast.Pattern {
	start := p.advance().Range
	if p.curIs(token.RPAREN) {
		end := p.advance()
		return &ast.PLit{Pos: span(start, end.Range), Value: &ast.UnitLit{Pos: span(start, end.Range)}}
	}
	var elems []ast.Pattern
	elems = append(elems, p.parsePattern())
	for p.curIs(token.COMMA) {
		p.advance()
		if p.curIs(token.RPAREN) {
			break
		}
		elems = append(elems, p.parsePattern())
	}
	end := p.expect(token.RPAREN)
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.PTuple{Pos: span(start, end.Range), Elements: elems}
}

func (p *Parser) parsePatternList() ast.Pattern {
	start := p.expect(token.LBRACKET).Range
	var elems []ast.Pattern
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parsePattern())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACKET)
	rng := span(start, end.Range)
	tail := ast.Pattern(&ast.PListNil{Pos: rng})
	for i := len(elems) - 1; i >= 0; i-- {
		tail = &ast.PCons{Pos: rng, Head: elems[i], Tail: tail}
	}
	return tail
}

func (p *Parser) parsePatternRecord() ast.Pattern {
	start := p.expect(token.LBRACE).Range
	rec := &ast.PRecord{Pos: start}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		fieldPos := p.cur().Range
		label := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		pat := p.parsePattern()
		rec.Fields = append(rec.Fields, ast.PRecordField{Pos: fieldPos, Label: label, Pattern: pat})
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
