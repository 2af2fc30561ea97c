package parser

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/token"
)

func (p *Parser) parseDeclLet() ast.Decl {
	start := p.expect(token.LET).Range
	rec := false
	if p.curIs(token.REC) {
		p.advance()
		rec = true
	}
	d := &ast.DeclLet{Pos: start, Rec: rec}
	d.Bindings = append(d.Bindings, p.parseValBinding())
	for p.curIs(token.AND) {
		p.advance()
		d.Bindings = append(d.Bindings, p.parseValBinding())
	}
	return d
}

func (p *Parser) parseValBinding() *ast.ValBinding {
	start := p.cur().Range
	name := p.expect(token.IDENT).Lexeme
	b := &ast.ValBinding{Pos: start, Name: name}
	if p.curIs(token.LPAREN) {
		b.Params = p.parseParamList()
	}
	p.expect(token.ASSIGN)
	b.Body = p.parseExpr()
	b.Pos = span(start, b.Body.Range())
	return b
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		params = append(params, p.parseParam())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseParam() ast.Param {
	start := p.cur().Range
	var prm ast.Param
	switch {
	case p.curIs(token.TILDE):
		p.advance()
		prm.Label = p.expect(token.IDENT).Lexeme
		prm.Name = prm.Label
	case p.curIs(token.QUESTION):
		p.advance()
		prm.Optional = true
		prm.Label = p.expect(token.IDENT).Lexeme
		prm.Name = prm.Label
	default:
		prm.Name = p.expect(token.IDENT).Lexeme
	}
	if p.curIs(token.COLON) {
		p.advance()
		prm.Type = p.parseTypeExpr()
	}
	if p.curIs(token.ASSIGN) {
		p.advance()
		prm.Default = p.parseExpr()
		prm.Optional = true
	}
	prm.Pos = start
	return prm
}

func (p *Parser) parseDeclExternal() ast.Decl {
	start := p.expect(token.EXTERNAL).Range
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.COLON)
	typ := p.parseTypeExpr()
	p.expect(token.ASSIGN)
	arityTok := p.expect(token.STRING)
	return &ast.DeclExternal{Pos: span(start, arityTok.Range), Name: name, Type: typ, Arity: arityTok.Lexeme}
}

func (p *Parser) parseDeclType() ast.Decl {
	start := p.expect(token.TYPE).Range
	d := &ast.DeclType{Pos: start}
	d.Group = append(d.Group, p.parseTypeDef())
	for p.curIs(token.AND) {
		p.advance()
		d.Group = append(d.Group, p.parseTypeDef())
	}
	return d
}

func (p *Parser) parseTypeDef() *ast.TypeDef {
	start := p.cur().Range
	name := p.expect(token.IDENT).Lexeme
	params := p.parseTypeParams()
	td := &ast.TypeDef{Pos: start, Name: name, Params: params}
	if !p.curIs(token.ASSIGN) {
		// Opaque-looking member inside a `type` group with no body; treat as
		// an empty variant rather than erroring the whole group out.
		return td
	}
	p.advance()
	if p.curIs(token.IDENT_UPPER) {
		td.Ctors = p.parseCtorList()
	} else {
		td.Body = p.parseTypeExpr()
	}
	return td
}

func (p *Parser) parseCtorList() []ast.CtorDef {
	var ctors []ast.CtorDef
	for {
		ctors = append(ctors, p.parseCtorDef())
		if p.curIs(token.PIPE) {
			p.advance()
			continue
		}
		break
	}
	return ctors
}

func (p *Parser) parseCtorDef() ast.CtorDef {
	start := p.cur().Range
	name := p.expect(token.IDENT_UPPER).Lexeme
	ctor := ast.CtorDef{Pos: start, Name: name}
	if p.curIs(token.LPAREN) {
		p.advance()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			ctor.Fields = append(ctor.Fields, p.parseTypeExpr())
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		end := p.expect(token.RPAREN)
		ctor.Pos = span(start, end.Range)
	}
	return ctor
}

func (p *Parser) parseDeclModule() ast.Decl {
	start := p.expect(token.MODULE).Range
	name := p.expect(token.IDENT_UPPER).Lexeme
	p.expect(token.ASSIGN)
	mod := p.parseModuleExpr()
	d := &ast.DeclModule{Pos: span(start, mod.Range()), Name: name, Mod: mod}
	if p.curIs(token.COLON) {
		p.advance()
		d.Sig = p.parseSigExpr()
		d.Pos = span(start, d.Sig.Range())
	}
	return d
}

func (p *Parser) parseDeclSignature() ast.Decl {
	start := p.expect(token.SIGNATURE).Range
	name := p.expect(token.IDENT_UPPER).Lexeme
	p.expect(token.ASSIGN)
	sig := p.parseSigExpr()
	return &ast.DeclSignature{Pos: span(start, sig.Range()), Name: name, Sig: sig}
}

func (p *Parser) parseDeclInclude() ast.Decl {
	start := p.expect(token.INCLUDE).Range
	mod := p.parseModuleExpr()
	return &ast.DeclInclude{Pos: span(start, mod.Range()), Mod: mod}
}

// parseModuleExpr parses a module-expression primary, then chains `.proj`
// and `(arg)` application, mirroring the value-level postfix loop.
func (p *Parser) parseModuleExpr() ast.ModuleExpr {
	m := p.parseModulePrimary()
	for {
		switch {
		case p.curIs(token.DOT):
			p.advance()
			nameTok := p.expect(token.IDENT_UPPER)
			m = &ast.MEProj{Pos: span(m.Range(), nameTok.Range), Mod: m, Name: nameTok.Lexeme}
		case p.curIs(token.LPAREN):
			p.advance()
			arg := p.parseModuleExpr()
			end := p.expect(token.RPAREN)
			m = &ast.MEApply{Pos: span(m.Range(), end.Range), Fn: m, Arg: arg}
		default:
			return m
		}
	}
}

func (p *Parser) parseModulePrimary() ast.ModuleExpr {
	switch p.cur().Type {
	case token.IDENT_UPPER:
		tok := p.advance()
		return &ast.MEVar{Pos: tok.Range, Name: tok.Lexeme}
	case token.STRUCT:
		start := p.advance().Range
		body := &ast.MEStruct{Pos: start}
		for !p.curIs(token.END) && !p.curIs(token.EOF) {
			before := p.pos
			if d := p.parseDecl(); d != nil {
				body.Decls = append(body.Decls, d)
			}
			if p.pos == before {
				p.advance()
			}
		}
		end := p.expect(token.END)
		body.Pos = span(start, end.Range)
		return body
	case token.FUN:
		start := p.advance().Range
		p.expect(token.LPAREN)
		param := p.expect(token.IDENT_UPPER).Lexeme
		p.expect(token.COLON)
		paramSig := p.parseSigExpr()
		p.expect(token.RPAREN)
		p.expect(token.ARROW)
		body := p.parseModuleExpr()
		return &ast.MEFunctor{Pos: span(start, body.Range()), Param: param, ParamSig: paramSig, Body: body}
	case token.LPAREN:
		start := p.advance().Range
		inner := p.parseModuleExpr()
		if p.curIs(token.COLON) {
			p.advance()
			sig := p.parseSigExpr()
			end := p.expect(token.RPAREN)
			return &ast.MECoerce{Pos: span(start, end.Range), Mod: inner, Sig: sig}
		}
		p.expect(token.RPAREN)
		return inner
	default:
		p.errorf("expected a module expression, found %s %q", p.cur().Type, p.cur().Lexeme)
		tok := p.cur()
		return &ast.MEVar{Pos: tok.Range, Name: "?"}
	}
}

// parseSigExpr parses a signature-expression primary, then chains `with
// type path = Type` refinements.
func (p *Parser) parseSigExpr() ast.SigExpr {
	s := p.parseSigPrimary()
	for p.curIs(token.WITH) {
		p.advance()
		p.expect(token.TYPE)
		path := []string{p.expect(token.IDENT).Lexeme}
		for p.curIs(token.DOT) {
			p.advance()
			path = append(path, p.expect(token.IDENT).Lexeme)
		}
		p.expect(token.ASSIGN)
		typ := p.parseTypeExpr()
		s = &ast.SEWith{Pos: span(s.Range(), typ.Range()), Sig: s, Path: path, Type: typ}
	}
	return s
}

func (p *Parser) parseSigPrimary() ast.SigExpr {
	switch p.cur().Type {
	case token.IDENT_UPPER:
		tok := p.advance()
		return &ast.SEName{Pos: tok.Range, Name: tok.Lexeme}
	case token.SIG:
		start := p.advance().Range
		s := &ast.SESig{Pos: start}
		for !p.curIs(token.END) && !p.curIs(token.EOF) {
			before := p.pos
			if e := p.parseSigEntry(); e != nil {
				s.Entries = append(s.Entries, e)
			}
			if p.pos == before {
				p.advance()
			}
		}
		end := p.expect(token.END)
		s.Pos = span(start, end.Range)
		return s
	case token.FUN:
		start := p.advance().Range
		p.expect(token.LPAREN)
		param := p.expect(token.IDENT_UPPER).Lexeme
		p.expect(token.COLON)
		dom := p.parseSigExpr()
		p.expect(token.RPAREN)
		p.expect(token.ARROW)
		cod := p.parseSigExpr()
		return &ast.SEFunctor{Pos: span(start, cod.Range()), Param: param, Domain: dom, Cod: cod}
	case token.LPAREN:
		p.advance()
		inner := p.parseSigExpr()
		p.expect(token.RPAREN)
		return inner
	default:
		p.errorf("expected a signature expression, found %s %q", p.cur().Type, p.cur().Lexeme)
		tok := p.cur()
		return &ast.SEName{Pos: tok.Range, Name: "?"}
	}
}

func (p *Parser) parseSigEntry() ast.SigEntry {
	switch p.cur().Type {
	case token.VAL:
		start := p.advance().Range
		name := p.expect(token.IDENT).Lexeme
		p.expect(token.COLON)
		typ := p.parseTypeExpr()
		return &ast.SigValEntry{Pos: span(start, typ.Range()), Name: name, Type: typ}
	case token.TYPE:
		start := p.advance().Range
		name := p.expect(token.IDENT).Lexeme
		params := p.parseTypeParams()
		e := &ast.SigTypeEntry{Pos: start, Name: name, Params: params}
		if p.curIs(token.ASSIGN) {
			p.advance()
			e.Def = p.parseTypeExpr()
			e.Pos = span(start, e.Def.Range())
		}
		return e
	case token.MODULE:
		start := p.advance().Range
		name := p.expect(token.IDENT_UPPER).Lexeme
		p.expect(token.COLON)
		sig := p.parseSigExpr()
		return &ast.SigModuleEntry{Pos: span(start, sig.Range()), Name: name, Sig: sig}
	case token.SIGNATURE:
		start := p.advance().Range
		name := p.expect(token.IDENT_UPPER).Lexeme
		p.expect(token.ASSIGN)
		sig := p.parseSigExpr()
		return &ast.SigSignatureEntry{Pos: span(start, sig.Range()), Name: name, Sig: sig}
	default:
		p.errorf("expected a signature entry, found %s %q", p.cur().Type, p.cur().Lexeme)
		p.advance()
		return nil
	}
}
