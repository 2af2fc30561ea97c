package pipeline

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/checker"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/ir"
	"github.com/sestcore/sest/internal/token"
)

// PipelineContext threads one source file through lex -> parse -> elaborate
// -> lower, each Processor reading the previous stage's output and adding
// its own, mirroring the teacher's ctx.TokenStream/ctx.AstRoot/ctx.Errors
// threading (internal/parser/processor.go in the teacher tree).
type PipelineContext struct {
	FilePath    string
	ModulePath  string
	Source      string
	TokenStream []token.Token
	AstRoot     *ast.Program

	Checker *checker.Context
	Sig     *env.SigRecord
	TypeEnv *env.TypeEnv

	IR *ir.Module

	// Errors accumulates diagnostics from every stage that ran; once it
	// is non-empty the elaborate and lower stages skip their work (see
	// Pipeline.Run).
	Errors []error
}

// NewContext seeds a PipelineContext for one source file.
func NewContext(filePath, modulePath, source string) *PipelineContext {
	return &PipelineContext{FilePath: filePath, ModulePath: modulePath, Source: source}
}

// OK reports whether every stage that has run so far succeeded.
func (c *PipelineContext) OK() bool { return len(c.Errors) == 0 }
