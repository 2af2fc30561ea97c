// Package checker is component J: the expression and pattern checker.
// It walks internal/ast expression trees, producing an internal/types.Type
// for each (and, for process-introducing forms, threading the enclosing
// process's effect/receive type), calling into internal/unify for every
// equation and internal/generalize at each let-binding.
//
// Grounded on wdamron/poly's infer.go (other_examples/2a0dd592_mafm-poly__infer.go.go)
// for the overall Infer(env, level, expr)-returns-Type shape and the
// level+1-for-let-body idiom, and on the teacher's internal/analyzer
// (expressions.go/inference*.go) for which constructs get their own
// case and how literal/record/pattern diagnostics are worded.
package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/generalize"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/primitives"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
	"github.com/sestcore/sest/internal/unify"
)

// Context is the state shared across an entire elaboration run: one per
// compiled program (spec §5: "a Context value threads the ID supply and
// the side tables explicitly; nothing here is a hidden singleton").
type Context struct {
	Supply   *ids.Supply
	Kinds    *kinds.Store
	Typedefs *typedefs.Store
	Unifier  *unify.Unifier
	Builtins *primitives.Builtins
	seedEnv  *env.SigRecord
}

// SeedEnv exposes the root structure (primitives only, no user
// declarations) so internal/modelab can nest the program's own top-level
// SigRecord under it as the lexical parent (spec §4.K: the program itself
// elaborates as the outermost structure body).
func (c *Context) SeedEnv() *env.SigRecord { return c.seedEnv }

// NewContext builds a fresh Context with the seed environment
// (internal/primitives) already registered into Kinds/Typedefs.
func NewContext() *Context {
	supply := ids.NewSupply()
	kindStore := kinds.NewStore()
	typedefStore := typedefs.NewStore()
	rec, builtins := primitives.Seed(supply, kindStore, typedefStore)
	return &Context{
		Supply:   supply,
		Kinds:    kindStore,
		Typedefs: typedefStore,
		Unifier:  unify.New(typedefStore),
		Builtins: builtins,
		seedEnv:  rec,
	}
}

// NewTypeEnv builds a root TypeEnv layering globalRec (the program's own
// top-level namespace, built incrementally by internal/modelab) over the
// context's seed structure.
func (c *Context) NewTypeEnv(globalRec *env.SigRecord) *env.TypeEnv {
	merged := env.NewSigRecord()
	for _, e := range c.seedEnv.Entries {
		merged.Add(e)
	}
	if globalRec != nil {
		for _, e := range globalRec.Entries {
			merged.Add(e)
		}
	}
	return env.NewTypeEnv(merged)
}

// Checker carries the per-expression-tree state: the context, the current
// type environment, the current generalization level, and the enclosing
// process's effect (receive) type.
type Checker struct {
	Ctx     *Context
	Env     *env.TypeEnv
	Level   int
	ProcEff types.Type
}

// New builds a top-level Checker with a fresh process effect variable
// (every program runs as the body of an implicit root process, spec §5).
func New(ctx *Context, e *env.TypeEnv) *Checker {
	return &Checker{Ctx: ctx, Env: e, Level: 0, ProcEff: types.NewFreeVar(ctx.Supply, 0)}
}

func (c *Checker) withEnv(e *env.TypeEnv) *Checker {
	n := *c
	n.Env = e
	return &n
}

func (c *Checker) atLevel(level int) *Checker {
	n := *c
	n.Level = level
	return &n
}

func (c *Checker) withProcEff(eff types.Type) *Checker {
	n := *c
	n.ProcEff = eff
	return &n
}

func (c *Checker) freshVar() *types.TVar    { return types.NewFreeVar(c.Ctx.Supply, c.Level) }
func (c *Checker) freshRow() *types.VarRow  { return types.NewFreeRow(c.Ctx.Supply, c.Level) }

func (c *Checker) unify(rng token.Range, a, b types.Type) *cerr.CoreError {
	return c.Ctx.Unifier.Unify(cerr.PhaseCheck, rng, a, b)
}

// Check infers the type of e under c's environment and level.
func (c *Checker) Check(e ast.Expr) (types.Type, *cerr.CoreError) {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.Int, nil
	case *ast.FloatLit:
		return types.Float, nil
	case *ast.BoolLit:
		return types.Bool, nil
	case *ast.CharLit:
		return types.Char, nil
	case *ast.StringLit:
		return types.Binary, nil
	case *ast.UnitLit:
		return types.Unit, nil
	case *ast.FormatStringLit:
		holes := make([]types.Type, len(n.Holes))
		for i, h := range n.Holes {
			holes[i] = c.holeType(h)
		}
		var body types.Type
		switch len(holes) {
		case 0:
			body = types.Unit
		case 1:
			body = holes[0]
		default:
			body = &types.Product{Elements: holes}
		}
		return &types.Format{Holes: body}, nil

	case *ast.Ident:
		return c.checkIdent(n)

	case *ast.TupleExpr:
		els := make([]types.Type, len(n.Elements))
		for i, el := range n.Elements {
			t, err := c.Check(el)
			if err != nil {
				return nil, err
			}
			els[i] = t
		}
		return &types.Product{Elements: els}, nil

	case *ast.ListNil:
		elem := c.freshVar()
		return &types.Data{ID: c.Ctx.Builtins.ListID, Args: []types.Type{elem}}, nil

	case *ast.ListLit:
		var desugared ast.Expr = &ast.ListNil{Pos: n.Pos}
		for i := len(n.Elements) - 1; i >= 0; i-- {
			desugared = &ast.ListCons{Pos: n.Pos, Head: n.Elements[i], Tail: desugared}
		}
		return c.Check(desugared)

	case *ast.ListCons:
		head, err := c.Check(n.Head)
		if err != nil {
			return nil, err
		}
		listT := &types.Data{ID: c.Ctx.Builtins.ListID, Args: []types.Type{head}}
		tail, err := c.Check(n.Tail)
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, listT, tail); err != nil {
			return nil, err
		}
		return listT, nil

	case *ast.RecordLit:
		return c.checkRecordLit(n)
	case *ast.RecordAccess:
		return c.checkRecordAccess(n)
	case *ast.RecordUpdate:
		return c.checkRecordUpdate(n)

	case *ast.Lambda:
		return c.checkLambda(n)
	case *ast.Apply:
		return c.checkApply(n)
	case *ast.IfExpr:
		return c.checkIf(n)
	case *ast.LetExpr:
		return c.checkLet(n)
	case *ast.CaseExpr:
		return c.checkCase(n)
	case *ast.ConstructorExpr:
		return c.checkConstructor(n)

	case *ast.ReceiveExpr:
		return c.checkReceive(n)
	case *ast.SpawnExpr:
		return c.checkSpawn(n)
	case *ast.SelfExpr:
		return &types.Pid{Elem: c.ProcEff}, nil
	case *ast.SendExpr:
		return c.checkSend(n)
	case *ast.DoExpr:
		return c.checkDo(n)
	case *ast.FreezeExpr:
		return c.checkFreeze(n)
	case *ast.FreezeUpdateExpr:
		return c.checkFreezeUpdate(n)
	}
	return nil, cerr.New(cerr.PhaseCheck, cerr.InvalidIdentifier, token.Range{}, "<unsupported expression>")
}

func (c *Checker) holeType(code byte) types.Type {
	switch code {
	case 'c':
		return types.Char
	case 'f', 'e', 'g':
		return types.Float
	case 's':
		return &types.Data{ID: c.Ctx.Builtins.ListID, Args: []types.Type{types.Char}}
	case 'p', 'w':
		return c.freshVar()
	default:
		return types.Int
	}
}

// checkIdent resolves a (possibly module-qualified) value name. A
// qualified path walks ModuleEntry chains starting at the root structure
// built by internal/modelab (spec §4.K: module members are projected by
// ordinary dotted-path lookup once a structure is elaborated).
func (c *Checker) checkIdent(n *ast.Ident) (types.Type, *cerr.CoreError) {
	if len(n.ModulePath) > 0 {
		rec := c.Env.Globals
		for i, seg := range n.ModulePath {
			var ent *env.Entry
			if i == 0 {
				ent = rec.LookupLexical(seg)
			} else {
				ent = rec.Lookup(seg)
			}
			if ent == nil || ent.Kind != env.ModuleEntry || ent.Module == nil {
				return nil, cerr.New(cerr.PhaseCheck, cerr.UnboundModuleName, n.Pos, seg)
			}
			rec = ent.Module
		}
		ent := rec.Lookup(n.Name)
		if ent == nil || ent.Kind != env.ValEntry {
			return nil, cerr.New(cerr.PhaseCheck, cerr.UnboundVariable, n.Pos, n.Name)
		}
		return generalize.Instantiate(c.Ctx.Supply, c.Ctx.Kinds, c.Level, ent.Scheme), nil
	}
	sch, ok := c.Env.Lookup(n.Name)
	if !ok {
		return nil, cerr.New(cerr.PhaseCheck, cerr.UnboundVariable, n.Pos, n.Name)
	}
	return generalize.Instantiate(c.Ctx.Supply, c.Ctx.Kinds, c.Level, sch), nil
}

func (c *Checker) checkIf(n *ast.IfExpr) (types.Type, *cerr.CoreError) {
	condT, err := c.Check(n.Cond)
	if err != nil {
		return nil, err
	}
	if err := c.unify(n.Pos, types.Bool, condT); err != nil {
		return nil, err
	}
	thenT, err := c.Check(n.Then)
	if err != nil {
		return nil, err
	}
	elseT, err := c.Check(n.Else)
	if err != nil {
		return nil, err
	}
	if err := c.unify(n.Pos, thenT, elseT); err != nil {
		return nil, err
	}
	return thenT, nil
}
