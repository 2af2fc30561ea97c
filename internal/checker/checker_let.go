package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/generalize"
	"github.com/sestcore/sest/internal/types"
)

// checkLet implements spec §4.J.1: each binding's right-hand side is
// checked at level+1 (so its own free variables start deeper than the
// let), then generalized at the let's own level before being bound for
// the body. For `let rec`, every binding in the group is first checked
// against monomorphic placeholders for all of them, and the group is
// generalized only once all of them have been checked.
func (c *Checker) checkLet(n *ast.LetExpr) (types.Type, *cerr.CoreError) {
	inner := c.withEnv(c.Env.Child()).atLevel(c.Level + 1)

	if n.Rec {
		placeholders := make([]*types.TVar, len(n.Bindings))
		for i, b := range n.Bindings {
			placeholders[i] = inner.freshVar()
			inner.Env.Bind(b.Name, types.Mono(placeholders[i]))
		}
		for i, b := range n.Bindings {
			bt, err := inner.checkBinding(b)
			if err != nil {
				return nil, err
			}
			if err := inner.unify(b.Pos, placeholders[i], bt); err != nil {
				return nil, err
			}
		}
	} else {
		for _, b := range n.Bindings {
			bt, err := inner.checkBinding(b)
			if err != nil {
				return nil, err
			}
			inner.Env.Bind(b.Name, types.Mono(bt))
		}
	}

	// Re-bind each name in the outer (body) scope with its generalized
	// scheme; the rhs-checking scope above stays monomorphic throughout
	// (spec §4.J.1: "a recursive binding's own occurrences see the
	// monotype; only the let's body sees the generalized scheme").
	bodyChecker := c.withEnv(c.Env.Child())
	for _, b := range n.Bindings {
		sch, _ := inner.Env.Lookup(b.Name)
		gen := generalize.Generalize(c.Ctx.Supply, c.Ctx.Kinds, c.Level, sch.Body)
		bodyChecker.Env.Bind(b.Name, gen)
	}
	return bodyChecker.Check(n.Body)
}

func (c *Checker) checkBinding(b *ast.ValBinding) (types.Type, *cerr.CoreError) {
	if len(b.Params) == 0 {
		return c.Check(b.Body)
	}
	lam := &ast.Lambda{Pos: b.Pos, Params: b.Params, Body: b.Body}
	return c.Check(lam)
}
