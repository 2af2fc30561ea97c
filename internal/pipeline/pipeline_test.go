package pipeline_test

import (
	"testing"

	"github.com/sestcore/sest/internal/ir"
	"github.com/sestcore/sest/internal/pipeline"
)

func TestStandardPipelineLexesParsesElaboratesAndLowers(t *testing.T) {
	ctx := pipeline.NewContext("t.fx", "example", "let id(x) = x\nlet pair() = if true then 1 else 2")
	ctx = pipeline.Standard().Run(ctx)

	if !ctx.OK() {
		t.Fatalf("expected a well-formed program to elaborate cleanly, got errors: %v", ctx.Errors)
	}
	if ctx.TokenStream == nil {
		t.Fatalf("expected LexProcessor to populate TokenStream")
	}
	if ctx.AstRoot == nil || len(ctx.AstRoot.Decls) != 2 {
		t.Fatalf("expected 2 top-level decls, got %#v", ctx.AstRoot)
	}
	if ctx.Sig == nil || ctx.TypeEnv == nil {
		t.Fatalf("expected ElaborateProcessor to populate Sig/TypeEnv")
	}
	if ctx.IR == nil || len(ctx.IR.Bindings) != 2 {
		t.Fatalf("expected 2 lowered bindings, got %#v", ctx.IR)
	}
	if ctx.IR.Bindings[0].Name != "id" || ctx.IR.Bindings[1].Name != "pair" {
		t.Fatalf("unexpected binding order: %+v", ctx.IR.Bindings)
	}
	if _, ok := ctx.IR.Bindings[0].Expr.(*ir.Lambda); !ok {
		t.Fatalf("expected id to lower to a Lambda, got %T", ctx.IR.Bindings[0].Expr)
	}
}

func TestStandardPipelineStopsAtParseErrorsBeforeElaborating(t *testing.T) {
	ctx := pipeline.NewContext("t.fx", "broken", "let = +++ in")
	ctx = pipeline.Standard().Run(ctx)

	if ctx.OK() {
		t.Fatalf("expected malformed source to fail")
	}
	if ctx.Sig != nil || ctx.TypeEnv != nil {
		t.Fatalf("expected elaboration to be skipped once parsing reported errors")
	}
	if ctx.IR != nil {
		t.Fatalf("expected lowering to be skipped once parsing reported errors")
	}
}

func TestStandardPipelineReportsUnboundNameAsElaborationError(t *testing.T) {
	ctx := pipeline.NewContext("t.fx", "example", "let r = thisNameDoesNotExist")
	ctx = pipeline.Standard().Run(ctx)

	if ctx.OK() {
		t.Fatalf("expected an unbound identifier to fail elaboration")
	}
	if len(ctx.AstRoot.Decls) != 1 {
		t.Fatalf("expected parsing to still succeed for syntactically valid source")
	}
	if ctx.IR != nil {
		t.Fatalf("expected lowering to be skipped once elaboration reported an error")
	}
}
