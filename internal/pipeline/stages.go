package pipeline

import (
	"fmt"

	"github.com/sestcore/sest/internal/checker"
	"github.com/sestcore/sest/internal/ir"
	"github.com/sestcore/sest/internal/lexer"
	"github.com/sestcore/sest/internal/modelab"
	"github.com/sestcore/sest/internal/parser"
)

// LexProcessor tokenizes ctx.Source.
type LexProcessor struct{}

func (lp *LexProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.TokenStream = lexer.Tokens(ctx.FilePath, ctx.Source)
	return ctx
}

// ParseProcessor turns the token stream into an ast.Program, matching the
// teacher's ParserProcessor (it also ran only once ctx.TokenStream was
// populated, and back-filled File on whatever it produced).
type ParseProcessor struct{}

func (pp *ParseProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.TokenStream == nil {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("parser: token stream is nil"))
		return ctx
	}
	p := parser.New(ctx.TokenStream)
	ctx.AstRoot = p.ParseProgram(ctx.FilePath)
	for _, e := range p.Errors() {
		ctx.Errors = append(ctx.Errors, e)
	}
	return ctx
}

// ElaborateProcessor runs module elaboration (internal/modelab) over the
// parsed program, driven by a fresh internal/checker.Context.
type ElaborateProcessor struct{}

func (ep *ElaborateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	ctx.Checker = checker.NewContext()
	elab := modelab.New(ctx.Checker)
	sig, typeEnv, cerr := elab.ElaborateProgram(ctx.AstRoot)
	if cerr != nil {
		ctx.Errors = append(ctx.Errors, cerr)
		return ctx
	}
	ctx.Sig = sig
	ctx.TypeEnv = typeEnv
	return ctx
}

// LowerProcessor desugars the elaborated program into internal/ir, the
// CLI's `-o <dir>` output unit.
type LowerProcessor struct{}

func (lop *LowerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}
	ctx.IR = ir.LowerProgram(ctx.ModulePath, ctx.AstRoot.Decls)
	return ctx
}
