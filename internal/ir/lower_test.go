package ir_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/ir"
	"github.com/sestcore/sest/internal/lexer"
	"github.com/sestcore/sest/internal/parser"
)

func parseExprBody(t *testing.T, src string) ast.Expr {
	t.Helper()
	toks := lexer.Tokens("t.fx", "let v = "+src)
	prog, errs := parser.ParseAll("t.fx", toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return prog.Decls[0].(*ast.DeclLet).Bindings[0].Body
}

func TestLowerIfToTwoArmedCase(t *testing.T) {
	n := ir.Lower(parseExprBody(t, "if true then 1 else 2"))
	c, ok := n.(*ir.Case)
	if !ok {
		t.Fatalf("expected *ir.Case, got %T", n)
	}
	if len(c.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(c.Branches))
	}
	lit, ok := c.Branches[0].Pattern.(*ir.PLit)
	if !ok {
		t.Fatalf("expected PLit true-branch pattern, got %T", c.Branches[0].Pattern)
	}
	bc := lit.Value.(*ir.BaseConst)
	if bc.Scalar != "bool" || bc.Value != true {
		t.Fatalf("expected bool true literal, got %+v", bc)
	}
	if _, ok := c.Branches[1].Pattern.(*ir.PWildcard); !ok {
		t.Fatalf("expected wildcard else-branch pattern, got %T", c.Branches[1].Pattern)
	}
}

func TestLowerLambdaParamShapes(t *testing.T) {
	n := ir.Lower(parseExprBody(t, "fun(x, ~y: int, ?z: int = 0) -> x"))
	lam, ok := n.(*ir.Lambda)
	if !ok {
		t.Fatalf("expected *ir.Lambda, got %T", n)
	}
	if len(lam.Ordered) != 1 || lam.Ordered[0] != "x" {
		t.Fatalf("unexpected ordered params: %v", lam.Ordered)
	}
	if len(lam.Mandatory) != 1 || lam.Mandatory[0] != "y" {
		t.Fatalf("unexpected mandatory params: %v", lam.Mandatory)
	}
	if len(lam.Optional) != 1 || lam.Optional[0].Name != "z" || lam.Optional[0].Default == nil {
		t.Fatalf("unexpected optional params: %+v", lam.Optional)
	}
}

func TestLowerApplyArgShapes(t *testing.T) {
	n := ir.Lower(parseExprBody(t, "f(1, ~x: 2, ?y: 3)"))
	app, ok := n.(*ir.Apply)
	if !ok {
		t.Fatalf("expected *ir.Apply, got %T", n)
	}
	if len(app.Ordered) != 1 {
		t.Fatalf("expected 1 ordered arg, got %d", len(app.Ordered))
	}
	if app.Mandatory["x"] == nil {
		t.Fatalf("expected mandatory arg x present")
	}
	if app.Optional["y"] == nil {
		t.Fatalf("expected optional arg y present")
	}
}

func TestLowerDoExprToBindApply(t *testing.T) {
	n := ir.Lower(&ast.DoExpr{
		Name: "x",
		Comp: &ast.IntLit{Value: 1},
		Rest: &ast.Ident{Name: "x"},
	})
	app, ok := n.(*ir.Apply)
	if !ok {
		t.Fatalf("expected *ir.Apply, got %T", n)
	}
	callee, ok := app.Callee.(*ir.Var)
	if !ok || callee.Name != "bind" {
		t.Fatalf("expected bind callee, got %#v", app.Callee)
	}
	if len(app.Ordered) != 2 {
		t.Fatalf("expected comp + continuation, got %d args", len(app.Ordered))
	}
	cont, ok := app.Ordered[1].(*ir.Lambda)
	if !ok || len(cont.Ordered) != 1 || cont.Ordered[0] != "x" {
		t.Fatalf("expected single-param continuation lambda named x, got %#v", app.Ordered[1])
	}
}

func TestLowerListLiteralDesugarsInnermostFirst(t *testing.T) {
	n := ir.Lower(parseExprBody(t, "[1, 2]"))
	outer, ok := n.(*ir.ListCons)
	if !ok {
		t.Fatalf("expected outer ListCons, got %T", n)
	}
	head := outer.Head.(*ir.BaseConst)
	if head.Value != int64(1) {
		t.Fatalf("expected head 1, got %v", head.Value)
	}
	inner, ok := outer.Tail.(*ir.ListCons)
	if !ok {
		t.Fatalf("expected nested ListCons tail, got %T", outer.Tail)
	}
	if _, ok := inner.Tail.(*ir.ListNil); !ok {
		t.Fatalf("expected ListNil terminator, got %T", inner.Tail)
	}
}

func TestLowerRecordLiteralPreservesFieldOrder(t *testing.T) {
	n := ir.Lower(parseExprBody(t, "{b: 1, a: 2}"))
	rec, ok := n.(*ir.Record)
	if !ok {
		t.Fatalf("expected *ir.Record, got %T", n)
	}
	if len(rec.Order) != 2 || rec.Order[0] != "b" || rec.Order[1] != "a" {
		t.Fatalf("expected declaration-order field list, got %v", rec.Order)
	}
}

func TestLowerProgramCollectsTopLevelBindingsInOrder(t *testing.T) {
	toks := lexer.Tokens("t.fx", "let a = 1\nlet b = 2\nlet f(x) = x")
	prog, errs := parser.ParseAll("t.fx", toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	mod := ir.LowerProgram("example", prog.Decls)
	if mod.Path != "example" {
		t.Fatalf("expected path example, got %s", mod.Path)
	}
	if len(mod.Bindings) != 3 {
		t.Fatalf("expected 3 bindings, got %d", len(mod.Bindings))
	}
	names := []string{mod.Bindings[0].Name, mod.Bindings[1].Name, mod.Bindings[2].Name}
	if names[0] != "a" || names[1] != "b" || names[2] != "f" {
		t.Fatalf("unexpected binding order: %v", names)
	}
	if _, ok := mod.Bindings[2].Expr.(*ir.Lambda); !ok {
		t.Fatalf("expected function-sugar binding f to lower to a Lambda, got %T", mod.Bindings[2].Expr)
	}
}

func TestEncodeIsDeterministicAcrossRuns(t *testing.T) {
	mod := &ir.Module{
		Path: "example",
		Bindings: []ir.Binding{
			{Name: "r", Expr: &ir.Record{
				Kind:   ir.KRecord,
				Fields: map[string]ir.Node{"z": &ir.BaseConst{Kind: ir.KBaseConst, Scalar: "int", Value: int64(1)}, "a": &ir.BaseConst{Kind: ir.KBaseConst, Scalar: "int", Value: int64(2)}},
				Order:  []string{"z", "a"},
			}},
		},
	}
	var first, second bytes.Buffer
	if err := ir.Encode(&first, mod); err != nil {
		t.Fatalf("encode 1: %v", err)
	}
	if err := ir.Encode(&second, mod); err != nil {
		t.Fatalf("encode 2: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("expected byte-identical encodings, got:\n%s\nvs\n%s", first.String(), second.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(first.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["path"] != "example" {
		t.Fatalf("expected path example in decoded JSON, got %v", decoded["path"])
	}
}
