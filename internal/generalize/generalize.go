// Package generalize is component H: generalize-at-level and instantiate,
// the two operations that turn a monotype produced during inference of a
// let-binding's body into a polytype (and back into a fresh monotype at
// each use site).
//
// Grounded on wdamron/poly's VarTracker.GeneralizeAtLevel
// (other_examples/2a0dd592_mafm-poly__infer.go.go): walk the type, collect
// every free variable whose Level is strictly greater than the enclosing
// let's level, quantify exactly those, and instantiate by replacing each
// bound leaf with a fresh variable at the current level.
package generalize

import (
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/types"
)

// Generalize turns t into a Scheme, quantifying every free type/row
// variable whose level is > enclosingLevel (spec §4.H: "a variable is
// generalizable at a let iff its level is deeper than the let's own
// level — the standard level-based weak generalization check, avoiding
// the O(n) free-variable scan of naive algorithms").
//
// Each quantified variable's accumulated Kind (if any) is registered into
// the kinds store under its newly minted BoundID, so later instantiation
// sites (and the subtype/signature layer) can still see the requirement.
func Generalize(supply *ids.Supply, kindStore *kinds.Store, enclosingLevel int, t types.Type) *types.Scheme {
	g := &generalizer{
		supply:    supply,
		kinds:     kindStore,
		level:     enclosingLevel,
		varBound:  make(map[*types.TyVarCell]ids.BoundID),
		rowBound:  make(map[*types.RowVarCell]ids.BoundID),
	}
	body := g.walk(t)
	return &types.Scheme{Vars: g.varOrder, RowVars: g.rowOrder, Body: body}
}

type generalizer struct {
	supply   *ids.Supply
	kinds    *kinds.Store
	level    int
	varBound map[*types.TyVarCell]ids.BoundID
	rowBound map[*types.RowVarCell]ids.BoundID
	varOrder []ids.BoundID
	rowOrder []ids.BoundID
}

func (g *generalizer) walk(t types.Type) types.Type {
	t = types.Resolve(t)
	switch a := t.(type) {
	case *types.TVar:
		if a.Cell.State == types.StateFree && a.Cell.Level > g.level {
			id, ok := g.varBound[a.Cell]
			if !ok {
				id = g.supply.FreshBound()
				g.varBound[a.Cell] = id
				g.varOrder = append(g.varOrder, id)
				g.kinds.RegisterBoundType(id, a.Cell.Kind)
			}
			return &types.TBound{ID: id}
		}
		return a
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = g.walk(e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = g.walk(ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, e := range a.Args {
			args[i] = g.walk(e)
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Func:
		dom := g.walkDomain(a.Domain)
		var eff types.Type
		if a.Eff != nil {
			eff = g.walk(a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: g.walk(a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: g.walk(a.Elem)}
	case *types.Format:
		return &types.Format{Holes: g.walk(a.Holes)}
	case *types.Frozen:
		return &types.Frozen{Rest: g.walkDomain(a.Rest), Receive: g.walk(a.Receive), Return: g.walk(a.Return)}
	default:
		return t
	}
}

func (g *generalizer) walkDomain(d types.Domain) types.Domain {
	out := types.Domain{}
	for _, o := range d.Ordered {
		out.Ordered = append(out.Ordered, g.walk(o))
	}
	if len(d.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
		for l, t := range d.Mandatory {
			out.Mandatory[l] = g.walk(t)
		}
	}
	out.Optional = g.walkRow(d.Optional)
	return out
}

func (g *generalizer) walkRow(r types.Row) types.Row {
	if r == nil {
		return nil
	}
	r = types.ResolveRow(r)
	switch a := r.(type) {
	case *types.VarRow:
		if a.Cell.State == types.StateFree && a.Cell.Level > g.level {
			id, ok := g.rowBound[a.Cell]
			if !ok {
				id = g.supply.FreshBound()
				g.rowBound[a.Cell] = id
				g.rowOrder = append(g.rowOrder, id)
				g.kinds.RegisterBoundRow(id, a.Cell.Kind)
			}
			return &types.BoundRow{ID: id}
		}
		return a
	case *types.FixedRow:
		labels := make(map[string]types.Type, len(a.Labels))
		for l, t := range a.Labels {
			labels[l] = g.walk(t)
		}
		return &types.FixedRow{Labels: labels}
	default:
		return r
	}
}

// Instantiate replaces every bound leaf in sch.Body with a fresh free
// variable at level, one fresh variable per distinct BoundID, carrying
// forward the Kind recorded at generalization time (spec §4.H
// instantiate: "each quantified variable becomes a fresh free variable at
// the current level, re-seeded with whatever Kind it had when
// generalized").
func Instantiate(supply *ids.Supply, kindStore *kinds.Store, level int, sch *types.Scheme) types.Type {
	inst := &instantiator{
		supply:  supply,
		kinds:   kindStore,
		level:   level,
		varSub:  make(map[ids.BoundID]*types.TVar),
		rowSub:  make(map[ids.BoundID]*types.VarRow),
	}
	for _, id := range sch.Vars {
		inst.varSub[id] = types.NewFreeVarKinded(supply, level, kindStore.BoundTypeKind(id))
	}
	for _, id := range sch.RowVars {
		v := types.NewFreeRow(supply, level)
		v.Cell.Kind = kindStore.BoundRowKind(id)
		inst.rowSub[id] = v
	}
	return inst.walk(sch.Body)
}

// InstantiateRigid is Instantiate's skolemizing twin: each distinct BoundID
// becomes one fresh *rigid* (MustBeBound) variable instead of a free one, so
// repeated occurrences of the same bound id within sch.Body are forced to
// the same skolem and genuinely distinct quantifiers can never be unified
// with each other. Used by internal/subtype's polytype generality check
// (spec §4.L "subtype_poly_type ... enforce consistent instantiation") in
// place of a bespoke bound-id hash table: NewRigidVar already gives each
// BoundID exactly one cell, and internal/unify's rule that rigid only
// unifies with itself does the consistency checking for free.
func InstantiateRigid(supply *ids.Supply, kindStore *kinds.Store, level int, sch *types.Scheme) types.Type {
	inst := &instantiator{
		supply: supply,
		kinds:  kindStore,
		level:  level,
		varSub: make(map[ids.BoundID]*types.TVar),
		rowSub: make(map[ids.BoundID]*types.VarRow),
	}
	for _, id := range sch.Vars {
		inst.varSub[id] = types.NewRigidVar(supply, level)
	}
	for _, id := range sch.RowVars {
		inst.rowSub[id] = types.NewRigidRow(supply, level)
	}
	return inst.walk(sch.Body)
}

type instantiator struct {
	supply *ids.Supply
	kinds  *kinds.Store
	level  int
	varSub map[ids.BoundID]*types.TVar
	rowSub map[ids.BoundID]*types.VarRow
}

func (g *instantiator) walk(t types.Type) types.Type {
	switch a := t.(type) {
	case *types.TBound:
		if v, ok := g.varSub[a.ID]; ok {
			return v
		}
		return a
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = g.walk(e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = g.walk(ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, e := range a.Args {
			args[i] = g.walk(e)
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Func:
		dom := g.walkDomain(a.Domain)
		var eff types.Type
		if a.Eff != nil {
			eff = g.walk(a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: g.walk(a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: g.walk(a.Elem)}
	case *types.Format:
		return &types.Format{Holes: g.walk(a.Holes)}
	case *types.Frozen:
		return &types.Frozen{Rest: g.walkDomain(a.Rest), Receive: g.walk(a.Receive), Return: g.walk(a.Return)}
	default:
		return t
	}
}

func (g *instantiator) walkDomain(d types.Domain) types.Domain {
	out := types.Domain{}
	for _, o := range d.Ordered {
		out.Ordered = append(out.Ordered, g.walk(o))
	}
	if len(d.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
		for l, t := range d.Mandatory {
			out.Mandatory[l] = g.walk(t)
		}
	}
	out.Optional = g.walkRow(d.Optional)
	return out
}

func (g *instantiator) walkRow(r types.Row) types.Row {
	if r == nil {
		return nil
	}
	switch a := r.(type) {
	case *types.BoundRow:
		if v, ok := g.rowSub[a.ID]; ok {
			return v
		}
		return a
	case *types.FixedRow:
		labels := make(map[string]types.Type, len(a.Labels))
		for l, t := range a.Labels {
			labels[l] = g.walk(t)
		}
		return &types.FixedRow{Labels: labels}
	default:
		return r
	}
}
