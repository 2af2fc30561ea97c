package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/generalize"
	"github.com/sestcore/sest/internal/types"
)

// checkReceive unifies every arm's pattern against the enclosing process's
// own effect/receive type (spec §5: "receive only ever matches against
// the receive type of the process executing it") and every arm's body
// together, exactly like checkCase but against c.ProcEff instead of a
// scrutinee expression.
func (c *Checker) checkReceive(n *ast.ReceiveExpr) (types.Type, *cerr.CoreError) {
	var resultT types.Type
	for _, arm := range n.Arms {
		armT, err := c.checkArm(arm, c.ProcEff)
		if err != nil {
			return nil, err
		}
		if resultT == nil {
			resultT = armT
		} else if err := c.unify(arm.Pos, resultT, armT); err != nil {
			return nil, err
		}
	}
	if resultT == nil {
		return nil, cerr.New(cerr.PhaseCheck, cerr.InvalidIdentifier, n.Pos, "receive with no arms")
	}
	return resultT, nil
}

// checkSpawn checks Body under a fresh nested process (its own fresh
// effect/receive type, one level deeper), returning pid<ChildEff> (spec
// §4.J SpawnExpr / §5).
func (c *Checker) checkSpawn(n *ast.SpawnExpr) (types.Type, *cerr.CoreError) {
	childEff := types.NewFreeVar(c.Ctx.Supply, c.Level+1)
	child := c.atLevel(c.Level + 1).withProcEff(childEff).withEnv(c.Env.Child())
	if _, err := child.Check(n.Body); err != nil {
		return nil, err
	}
	return &types.Pid{Elem: childEff}, nil
}

// checkSend requires Target : pid<T> and Value : T, returning unit (spec
// §4.J SendExpr).
func (c *Checker) checkSend(n *ast.SendExpr) (types.Type, *cerr.CoreError) {
	targetT, err := c.Check(n.Target)
	if err != nil {
		return nil, err
	}
	msgT := c.freshVar()
	if err := c.unify(n.Pos, &types.Pid{Elem: msgT}, targetT); err != nil {
		return nil, err
	}
	valueT, err := c.Check(n.Value)
	if err != nil {
		return nil, err
	}
	if err := c.unify(n.Pos, msgT, valueT); err != nil {
		return nil, err
	}
	return types.Unit, nil
}

// checkDo is `do x = comp in rest`: comp's type becomes x's monotype (no
// generalization — spec §4.J DoExpr is sequencing sugar, not let-binding),
// then Rest is checked with x bound.
func (c *Checker) checkDo(n *ast.DoExpr) (types.Type, *cerr.CoreError) {
	compT, err := c.Check(n.Comp)
	if err != nil {
		return nil, err
	}
	inner := c.withEnv(c.Env.Child())
	inner.Env.Bind(n.Name, types.Mono(compT))
	return inner.Check(n.Rest)
}

// checkFreeze types a frozen closure over a global name as `frozen{rest;
// receive; return}`: the named global's Func type has its first
// len(Args) ordered parameters filled, the rest captured as Rest, and its
// own declared effect/return types carried through untouched (spec §4.J
// FreezeExpr — a target-runtime hibernation primitive, typed here but
// otherwise opaque to the core).
func (c *Checker) checkFreeze(n *ast.FreezeExpr) (types.Type, *cerr.CoreError) {
	sch, ok := c.Env.Lookup(n.GlobalName)
	if !ok {
		return nil, cerr.New(cerr.PhaseCheck, cerr.CannotFreezeNonGlobalName, n.Pos, n.GlobalName)
	}
	if c.Env.Globals.Lookup(n.GlobalName) == nil {
		return nil, cerr.New(cerr.PhaseCheck, cerr.CannotFreezeNonGlobalName, n.Pos, n.GlobalName)
	}
	fnT := generalize.Instantiate(c.Ctx.Supply, c.Ctx.Kinds, c.Level, sch)
	fn, ok := fnT.(*types.Func)
	if !ok {
		return nil, cerr.New(cerr.PhaseCheck, cerr.NotOfFunctorType, n.Pos)
	}
	if len(n.Args) > len(fn.Domain.Ordered) {
		return nil, cerr.New(cerr.PhaseCheck, cerr.BadArityOfOrderedArguments, n.Pos, len(fn.Domain.Ordered), len(n.Args))
	}
	for i, a := range n.Args {
		at, err := c.Check(a)
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, fn.Domain.Ordered[i], at); err != nil {
			return nil, err
		}
	}
	rest := types.Domain{
		Ordered:   append([]types.Type{}, fn.Domain.Ordered[len(n.Args):]...),
		Mandatory: fn.Domain.Mandatory,
		Optional:  fn.Domain.Optional,
	}
	recv := fn.Eff
	if recv == nil {
		recv = types.NewFreeVar(c.Ctx.Supply, c.Level)
	}
	return &types.Frozen{Rest: rest, Receive: recv, Return: fn.Codomain}, nil
}

// checkFreezeUpdate re-applies a frozen closure's remaining ordered holes.
func (c *Checker) checkFreezeUpdate(n *ast.FreezeUpdateExpr) (types.Type, *cerr.CoreError) {
	baseT, err := c.Check(n.Base)
	if err != nil {
		return nil, err
	}
	fr, ok := baseT.(*types.Frozen)
	if !ok {
		return nil, cerr.New(cerr.PhaseCheck, cerr.ContradictionError, n.Pos, "frozen{...}", baseT.String())
	}
	if len(n.Args) > len(fr.Rest.Ordered) {
		return nil, cerr.New(cerr.PhaseCheck, cerr.BadArityOfOrderedArguments, n.Pos, len(fr.Rest.Ordered), len(n.Args))
	}
	for i, a := range n.Args {
		at, err := c.Check(a)
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, fr.Rest.Ordered[i], at); err != nil {
			return nil, err
		}
	}
	rest := types.Domain{
		Ordered:   append([]types.Type{}, fr.Rest.Ordered[len(n.Args):]...),
		Mandatory: fr.Rest.Mandatory,
		Optional:  fr.Rest.Optional,
	}
	return &types.Frozen{Rest: rest, Receive: fr.Receive, Return: fr.Return}, nil
}
