package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/types"
)

// checkLambda builds a Func type from the parameter list, binding each
// parameter monomorphically at the current level (child2 opens a new
// scope without raising the level, so parameter types are never
// generalized inside the body) and checking defaults against
// their param's own type (spec §4.J Lambda: "a default's type must unify
// with the parameter's own type").
func (c *Checker) checkLambda(n *ast.Lambda) (types.Type, *cerr.CoreError) {
	inner := c.child2()
	dom := types.Domain{}
	var optLabels map[string]types.Type

	for _, p := range n.Params {
		pt := inner.freshVar()
		var declared types.Type = pt
		if p.Type != nil {
			dt, err := inner.decodeParamType(p.Type)
			if err != nil {
				return nil, err
			}
			declared = dt
			if err := inner.unify(p.Pos, pt, dt); err != nil {
				return nil, err
			}
		}
		inner.Env.Bind(p.Name, types.Mono(pt))

		switch {
		case p.Label == "":
			dom.Ordered = append(dom.Ordered, declared)
		case !p.Optional:
			if dom.Mandatory == nil {
				dom.Mandatory = make(map[string]types.Type)
			}
			dom.Mandatory[p.Label] = declared
		default:
			if optLabels == nil {
				optLabels = make(map[string]types.Type)
			}
			optLabels[p.Label] = declared
			if p.Default != nil {
				defT, err := inner.Check(p.Default)
				if err != nil {
					return nil, err
				}
				if err := inner.unify(p.Pos, declared, defT); err != nil {
					return nil, err
				}
			}
		}
	}
	if optLabels != nil {
		dom.Optional = &types.FixedRow{Labels: optLabels}
	}

	bodyT, err := inner.Check(n.Body)
	if err != nil {
		return nil, err
	}
	return &types.Func{Domain: dom, Codomain: bodyT}, nil
}

// checkApply unifies the callee against a freshly-shaped Func built from
// the call site's own arguments (spec §4.J Apply): ordered args fill
// Ordered positionally, labeled args split into Mandatory (no Optional
// marker) and a FixedRow of whatever optional labels were actually
// supplied, which is unified against the callee's optional row — a free
// row variable simply becomes that row; a row already pinned down (e.g.
// from a hand-written `external` signature) must match exactly.
func (c *Checker) checkApply(n *ast.Apply) (types.Type, *cerr.CoreError) {
	calleeT, err := c.Check(n.Callee)
	if err != nil {
		return nil, err
	}

	dom := types.Domain{}
	var optLabels map[string]types.Type
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		at, err := c.Check(a.Value)
		if err != nil {
			return nil, err
		}
		argTypes[i] = at
		switch {
		case a.Label == "":
			dom.Ordered = append(dom.Ordered, at)
		case !a.Optional:
			if dom.Mandatory == nil {
				dom.Mandatory = make(map[string]types.Type)
			}
			dom.Mandatory[a.Label] = at
		default:
			if optLabels == nil {
				optLabels = make(map[string]types.Type)
			}
			optLabels[a.Label] = at
		}
	}
	if optLabels != nil {
		dom.Optional = &types.FixedRow{Labels: optLabels}
	}

	retT := c.freshVar()
	wantFunc := &types.Func{Domain: dom, Codomain: retT}
	if err := c.unify(n.Pos, calleeT, wantFunc); err != nil {
		return nil, err
	}
	return retT, nil
}

func (c *Checker) decodeParamType(t ast.TypeExpr) (types.Type, *cerr.CoreError) {
	return c.decodeType(t)
}

// child2 opens a fresh local-binding scope (a function body's own scope)
// without changing the Checker's generalization level: parameter types
// must stay monomorphic within the lambda (spec §4.J: parameters are
// never let-generalized).
func (c *Checker) child2() *Checker {
	return c.withEnv(c.Env.Child())
}
