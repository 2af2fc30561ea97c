// Package pipeline threads a single source file through lexing, parsing,
// module elaboration, and IR lowering as a sequence of Processor stages,
// grounded on the teacher's internal/pipeline.Pipeline/Processor shape
// (internal/parser/processor.go's ParserProcessor.Process ran under exactly
// this Pipeline). The teacher's own repo snapshot never actually defines
// Processor/PipelineContext anywhere reachable from that file, so both are
// completed here from how processor.go uses them (ctx.TokenStream,
// ctx.AstRoot, ctx.Errors, continue-past-errors).
package pipeline

// Processor is one pipeline stage: it reads whatever earlier stages left on
// ctx and adds its own result, appending to ctx.Errors on failure rather
// than stopping the pipeline outright.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline is a fixed sequence of stages run in order.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, whatever errors earlier stages
// reported. The elaborate and lower stages do nothing once ctx.Errors is
// non-empty, so errors do not cascade from a stage whose input is broken.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Standard builds the lex -> parse -> elaborate -> lower pipeline the CLI
// drives for every source file.
func Standard() *Pipeline {
	return New(&LexProcessor{}, &ParseProcessor{}, &ElaborateProcessor{}, &LowerProcessor{})
}
