package parser_test

import (
	"testing"

	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/lexer"
	"github.com/sestcore/sest/internal/parser"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks := lexer.Tokens("test.fx", src)
	prog, errs := parser.ParseAll("test.fx", toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return prog
}

func TestParseLetFunctionSugar(t *testing.T) {
	prog := parseOK(t, `let id(x) = x`)
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	d, ok := prog.Decls[0].(*ast.DeclLet)
	if !ok {
		t.Fatalf("expected *ast.DeclLet, got %T", prog.Decls[0])
	}
	if d.Rec {
		t.Fatalf("expected non-recursive binding")
	}
	if len(d.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(d.Bindings))
	}
	b := d.Bindings[0]
	if b.Name != "id" {
		t.Fatalf("expected name id, got %s", b.Name)
	}
	if len(b.Params) != 1 || b.Params[0].Name != "x" {
		t.Fatalf("expected single param x, got %+v", b.Params)
	}
	if _, ok := b.Body.(*ast.Ident); !ok {
		t.Fatalf("expected Ident body, got %T", b.Body)
	}
}

func TestParseLetRecAndGroup(t *testing.T) {
	prog := parseOK(t, `
let rec even(n) = if eq(n, 0) then true else odd(sub(n, 1))
and odd(n) = if eq(n, 0) then false else even(sub(n, 1))
`)
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	d := prog.Decls[0].(*ast.DeclLet)
	if !d.Rec {
		t.Fatalf("expected rec group")
	}
	if len(d.Bindings) != 2 {
		t.Fatalf("expected 2 bindings in the and-group, got %d", len(d.Bindings))
	}
	if d.Bindings[0].Name != "even" || d.Bindings[1].Name != "odd" {
		t.Fatalf("unexpected binding names: %s, %s", d.Bindings[0].Name, d.Bindings[1].Name)
	}
	if _, ok := d.Bindings[0].Body.(*ast.IfExpr); !ok {
		t.Fatalf("expected IfExpr body, got %T", d.Bindings[0].Body)
	}
}

func TestParseLambdaLabeledAndOptionalParams(t *testing.T) {
	prog := parseOK(t, `let f = fun(~x: int, ?y: int = 0) -> x`)
	d := prog.Decls[0].(*ast.DeclLet)
	lam, ok := d.Bindings[0].Body.(*ast.Lambda)
	if !ok {
		t.Fatalf("expected Lambda, got %T", d.Bindings[0].Body)
	}
	if len(lam.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(lam.Params))
	}
	px, py := lam.Params[0], lam.Params[1]
	if px.Label != "x" || px.Optional {
		t.Fatalf("expected mandatory label x, got %+v", px)
	}
	if py.Label != "y" || !py.Optional || py.Default == nil {
		t.Fatalf("expected optional label y with default, got %+v", py)
	}
}

func TestParseApplyLabeledArgs(t *testing.T) {
	prog := parseOK(t, `let r = f(~x: 1, ?y: 2)`)
	d := prog.Decls[0].(*ast.DeclLet)
	app, ok := d.Bindings[0].Body.(*ast.Apply)
	if !ok {
		t.Fatalf("expected Apply, got %T", d.Bindings[0].Body)
	}
	if len(app.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(app.Args))
	}
	if app.Args[0].Label != "x" || app.Args[0].Optional {
		t.Fatalf("expected mandatory label x, got %+v", app.Args[0])
	}
	if app.Args[1].Label != "y" || !app.Args[1].Optional {
		t.Fatalf("expected optional label y, got %+v", app.Args[1])
	}
}

func TestParseRecordLiteralSpreadUpdate(t *testing.T) {
	lit := parseOK(t, `let r = {x: 1, y: 2}`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	rl, ok := lit.(*ast.RecordLit)
	if !ok || rl.Spread != nil || len(rl.Fields) != 2 {
		t.Fatalf("expected plain 2-field RecordLit, got %#v", lit)
	}

	spread := parseOK(t, `let r = {..base, x: 1}`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	sl, ok := spread.(*ast.RecordLit)
	if !ok || sl.Spread == nil || len(sl.Fields) != 1 {
		t.Fatalf("expected spread RecordLit, got %#v", spread)
	}

	upd := parseOK(t, `let r = {base with x = 1, y = 2}`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	ru, ok := upd.(*ast.RecordUpdate)
	if !ok || len(ru.Fields) != 2 {
		t.Fatalf("expected RecordUpdate with 2 fields, got %#v", upd)
	}
}

func TestParseRecordAccessAndEmptyRecord(t *testing.T) {
	access := parseOK(t, `let r = x.label`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	ra, ok := access.(*ast.RecordAccess)
	if !ok || ra.Label != "label" {
		t.Fatalf("expected RecordAccess(label), got %#v", access)
	}

	empty := parseOK(t, `let r = {}`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	if el, ok := empty.(*ast.RecordLit); !ok || len(el.Fields) != 0 {
		t.Fatalf("expected empty RecordLit, got %#v", empty)
	}
}

func TestParseListConsPattern(t *testing.T) {
	prog := parseOK(t, `
let head(xs) = case xs of
  | h :: t -> h
  | [] -> h
end
`)
	d := prog.Decls[0].(*ast.DeclLet)
	ce, ok := d.Bindings[0].Body.(*ast.CaseExpr)
	if !ok {
		t.Fatalf("expected CaseExpr, got %T", d.Bindings[0].Body)
	}
	if len(ce.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(ce.Arms))
	}
	cons, ok := ce.Arms[0].Pattern.(*ast.PCons)
	if !ok {
		t.Fatalf("expected PCons pattern, got %T", ce.Arms[0].Pattern)
	}
	if _, ok := cons.Head.(*ast.PVar); !ok {
		t.Fatalf("expected PVar head, got %T", cons.Head)
	}
	if _, ok := ce.Arms[1].Pattern.(*ast.PListNil); !ok {
		t.Fatalf("expected PListNil for [], got %T", ce.Arms[1].Pattern)
	}
}

func TestParseListLiteralKeptAsListLit(t *testing.T) {
	lit := parseOK(t, `let xs = [1, 2, 3]`).Decls[0].(*ast.DeclLet).Bindings[0].Body
	if _, ok := lit.(*ast.ListLit); !ok {
		t.Fatalf("expected parser-level ListLit sugar, got %T", lit)
	}
}

func TestParseModuleStructAndSignatureAscription(t *testing.T) {
	prog := parseOK(t, `
module M = struct
  let x = 1
end : sig
  val x : int
end
`)
	d := prog.Decls[0].(*ast.DeclModule)
	if d.Name != "M" {
		t.Fatalf("expected module name M, got %s", d.Name)
	}
	st, ok := d.Mod.(*ast.MEStruct)
	if !ok || len(st.Decls) != 1 {
		t.Fatalf("expected MEStruct with 1 decl, got %#v", d.Mod)
	}
	sig, ok := d.Sig.(*ast.SESig)
	if !ok || len(sig.Entries) != 1 {
		t.Fatalf("expected SESig with 1 entry, got %#v", d.Sig)
	}
	if _, ok := sig.Entries[0].(*ast.SigValEntry); !ok {
		t.Fatalf("expected SigValEntry, got %T", sig.Entries[0])
	}
}

func TestParseFunctorAndApply(t *testing.T) {
	prog := parseOK(t, `
signature ORD = sig
  type t
  val lt : (t, t) -> bool
end
module Make = fun(X : ORD) -> struct
  let cmp(a, b) = lt(a, b)
end
module R = Make(Int)
`)
	if len(prog.Decls) != 3 {
		t.Fatalf("expected 3 decls, got %d", len(prog.Decls))
	}
	sigDecl, ok := prog.Decls[0].(*ast.DeclSignature)
	if !ok || sigDecl.Name != "ORD" {
		t.Fatalf("expected DeclSignature ORD, got %#v", prog.Decls[0])
	}
	functorDecl := prog.Decls[1].(*ast.DeclModule)
	functor, ok := functorDecl.Mod.(*ast.MEFunctor)
	if !ok || functor.Param != "X" {
		t.Fatalf("expected MEFunctor parameterized by X, got %#v", functorDecl.Mod)
	}
	applyDecl := prog.Decls[2].(*ast.DeclModule)
	apply, ok := applyDecl.Mod.(*ast.MEApply)
	if !ok {
		t.Fatalf("expected MEApply, got %#v", applyDecl.Mod)
	}
	if fn, ok := apply.Fn.(*ast.MEVar); !ok || fn.Name != "Make" {
		t.Fatalf("expected MEApply callee Make, got %#v", apply.Fn)
	}
}

func TestParseTypeDomainWithLabeledFields(t *testing.T) {
	prog := parseOK(t, `external foo : (int, ~x: int, ?y: int) -> int = "2"`)
	d := prog.Decls[0].(*ast.DeclExternal)
	if d.Name != "foo" || d.Arity != "2" {
		t.Fatalf("unexpected external decl: %#v", d)
	}
	fn, ok := d.Type.(*ast.TEFunc)
	if !ok {
		t.Fatalf("expected TEFunc, got %T", d.Type)
	}
	if len(fn.Domain.Ordered) != 1 || len(fn.Domain.Mandatory) != 1 || !fn.Domain.HasOptional || len(fn.Domain.Optional) != 1 {
		t.Fatalf("unexpected domain shape: %+v", fn.Domain)
	}
	if fn.Domain.Mandatory[0].Label != "x" || fn.Domain.Optional[0].Label != "y" {
		t.Fatalf("unexpected domain labels: %+v", fn.Domain)
	}
}

func TestParseTypeVariableAndRecordType(t *testing.T) {
	prog := parseOK(t, `type pair<a, b> = {fst: 'a, snd: 'b, ..}`)
	d := prog.Decls[0].(*ast.DeclType)
	td := d.Group[0]
	if td.Name != "pair" || len(td.Params) != 2 {
		t.Fatalf("unexpected type params: %+v", td)
	}
	rec, ok := td.Body.(*ast.TERecord)
	if !ok || !rec.Open || len(rec.Fields) != 2 {
		t.Fatalf("expected open TERecord with 2 fields, got %#v", td.Body)
	}
	fst, ok := rec.Fields[0].Type.(*ast.TEVar)
	if !ok || fst.Name != "a" {
		t.Fatalf("expected TEVar a, got %#v", rec.Fields[0].Type)
	}
}

func TestParseVariantTypeGroup(t *testing.T) {
	prog := parseOK(t, `
type tree<a> = Leaf | Node(tree<'a>, 'a, tree<'a>)
`)
	d := prog.Decls[0].(*ast.DeclType)
	td := d.Group[0]
	if len(td.Ctors) != 2 {
		t.Fatalf("expected 2 ctors, got %d", len(td.Ctors))
	}
	if td.Ctors[0].Name != "Leaf" || len(td.Ctors[0].Fields) != 0 {
		t.Fatalf("unexpected Leaf ctor: %+v", td.Ctors[0])
	}
	if td.Ctors[1].Name != "Node" || len(td.Ctors[1].Fields) != 3 {
		t.Fatalf("unexpected Node ctor: %+v", td.Ctors[1])
	}
}

func TestParseCyclicSynonymGroupParsesWithoutAmbiguity(t *testing.T) {
	// `a` and `b` reference each other by name (TEName), never confused with
	// a bound type-variable, since those only ever arise from a CHAR token.
	prog := parseOK(t, `type a = b and b = a`)
	d := prog.Decls[0].(*ast.DeclType)
	if len(d.Group) != 2 {
		t.Fatalf("expected 2 group members, got %d", len(d.Group))
	}
	ref0, ok := d.Group[0].Body.(*ast.TEName)
	if !ok || ref0.Name != "b" {
		t.Fatalf("expected TEName b, got %#v", d.Group[0].Body)
	}
	ref1, ok := d.Group[1].Body.(*ast.TEName)
	if !ok || ref1.Name != "a" {
		t.Fatalf("expected TEName a, got %#v", d.Group[1].Body)
	}
}

func TestParseSpawnSelfSend(t *testing.T) {
	prog := parseOK(t, `
let run() = let p = spawn(receive
  | x -> x
end) in send(p, self)
`)
	d := prog.Decls[0].(*ast.DeclLet)
	letExpr, ok := d.Bindings[0].Body.(*ast.LetExpr)
	if !ok {
		t.Fatalf("expected LetExpr, got %T", d.Bindings[0].Body)
	}
	spawn, ok := letExpr.Bindings[0].Body.(*ast.SpawnExpr)
	if !ok {
		t.Fatalf("expected SpawnExpr, got %T", letExpr.Bindings[0].Body)
	}
	if _, ok := spawn.Body.(*ast.ReceiveExpr); !ok {
		t.Fatalf("expected ReceiveExpr spawn body, got %T", spawn.Body)
	}
	send, ok := letExpr.Body.(*ast.SendExpr)
	if !ok {
		t.Fatalf("expected SendExpr, got %T", letExpr.Body)
	}
	if _, ok := send.Value.(*ast.SelfExpr); !ok {
		t.Fatalf("expected SelfExpr as send value, got %T", send.Value)
	}
}

func TestParseFreezeAndFreezeUpdate(t *testing.T) {
	prog := parseOK(t, `
let h = freeze("handler", 1, 2)
let h2 = freeze_update(h, 3)
`)
	fd := prog.Decls[0].(*ast.DeclLet)
	fe, ok := fd.Bindings[0].Body.(*ast.FreezeExpr)
	if !ok || fe.GlobalName != "handler" || len(fe.Args) != 2 {
		t.Fatalf("unexpected FreezeExpr: %#v", fd.Bindings[0].Body)
	}
	ud := prog.Decls[1].(*ast.DeclLet)
	fu, ok := ud.Bindings[0].Body.(*ast.FreezeUpdateExpr)
	if !ok || len(fu.Args) != 1 {
		t.Fatalf("unexpected FreezeUpdateExpr: %#v", ud.Bindings[0].Body)
	}
	if _, ok := fu.Base.(*ast.Ident); !ok {
		t.Fatalf("expected Ident base, got %T", fu.Base)
	}
}

func TestParseDoExpression(t *testing.T) {
	prog := parseOK(t, `let run() = do x = receive | v -> v end in x`)
	d := prog.Decls[0].(*ast.DeclLet)
	de, ok := d.Bindings[0].Body.(*ast.DoExpr)
	if !ok {
		t.Fatalf("expected DoExpr, got %T", d.Bindings[0].Body)
	}
	if de.Name != "x" {
		t.Fatalf("expected bound name x, got %s", de.Name)
	}
	if _, ok := de.Comp.(*ast.ReceiveExpr); !ok {
		t.Fatalf("expected ReceiveExpr comp, got %T", de.Comp)
	}
	if _, ok := de.Rest.(*ast.Ident); !ok {
		t.Fatalf("expected Ident rest, got %T", de.Rest)
	}
}

func TestParseModuleQualifiedIdent(t *testing.T) {
	prog := parseOK(t, `let r = List.map`)
	d := prog.Decls[0].(*ast.DeclLet)
	id, ok := d.Bindings[0].Body.(*ast.Ident)
	if !ok {
		t.Fatalf("expected Ident, got %T", d.Bindings[0].Body)
	}
	if id.Name != "map" || len(id.ModulePath) != 1 || id.ModulePath[0] != "List" {
		t.Fatalf("unexpected qualified ident: %+v", id)
	}
}

func TestParseErrorsAccumulateWithoutPanicking(t *testing.T) {
	toks := lexer.Tokens("test.fx", `let = +++ in`)
	_, errs := parser.ParseAll("test.fx", toks)
	if len(errs) == 0 {
		t.Fatalf("expected parse errors for malformed input")
	}
}
