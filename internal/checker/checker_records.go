package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/types"
)

// checkRecordLit without a spread produces a closed RecordT; with a
// spread, the base's type is constrained (via a record-kinded free
// variable) to already carry every overridden label, then the result is
// closed over base-labels-plus-overrides (spec §4.J RecordLit).
func (c *Checker) checkRecordLit(n *ast.RecordLit) (types.Type, *cerr.CoreError) {
	fields := make(map[string]types.Type, len(n.Fields))
	for _, f := range n.Fields {
		ft, err := c.Check(f.Value)
		if err != nil {
			return nil, err
		}
		fields[f.Label] = ft
	}
	if n.Spread == nil {
		return &types.RecordT{Fields: fields}, nil
	}
	baseT, err := c.Check(n.Spread)
	if err != nil {
		return nil, err
	}
	kinded := types.NewFreeVarKinded(c.Ctx.Supply, c.Level, types.RecordKind(fields))
	if err := c.unify(n.Pos, kinded, baseT); err != nil {
		return nil, err
	}
	return baseT, nil
}

// checkRecordAccess introduces a fresh record-kinded variable requiring
// exactly the accessed label, and unifies it with the scrutinee's type
// (spec §4.J RecordAccess — the canonical "open record" scenario the
// Kind mechanism exists for).
func (c *Checker) checkRecordAccess(n *ast.RecordAccess) (types.Type, *cerr.CoreError) {
	exprT, err := c.Check(n.Expr)
	if err != nil {
		return nil, err
	}
	fieldT := c.freshVar()
	kinded := types.NewFreeVarKinded(c.Ctx.Supply, c.Level, types.RecordKind(map[string]types.Type{n.Label: fieldT}))
	if err := c.unify(n.Pos, kinded, exprT); err != nil {
		return nil, err
	}
	return fieldT, nil
}

func (c *Checker) checkRecordUpdate(n *ast.RecordUpdate) (types.Type, *cerr.CoreError) {
	baseT, err := c.Check(n.Base)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]types.Type, len(n.Fields))
	for _, f := range n.Fields {
		ft, err := c.Check(f.Value)
		if err != nil {
			return nil, err
		}
		overrides[f.Label] = ft
	}
	kinded := types.NewFreeVarKinded(c.Ctx.Supply, c.Level, types.RecordKind(overrides))
	if err := c.unify(n.Pos, kinded, baseT); err != nil {
		return nil, err
	}
	return baseT, nil
}

// checkConstructor looks up the constructor's owning variant entry from
// the environment, instantiates its declared field types against fresh
// variables for the variant's own type parameters, unifies each argument,
// and returns the fully-applied Data type (spec §4.J ConstructorExpr).
func (c *Checker) checkConstructor(n *ast.ConstructorExpr) (types.Type, *cerr.CoreError) {
	ent := c.Env.Globals.LookupLexical(n.Name)
	if ent == nil || ent.Kind != env.CtorEntry {
		return nil, cerr.New(cerr.PhaseCheck, cerr.UndefinedConstructor, n.Pos, n.Name)
	}
	if len(n.Args) != len(ent.Fields) {
		return nil, cerr.New(cerr.PhaseCheck, cerr.InvalidNumberOfConstructorArguments, n.Pos, n.Name, len(ent.Fields), len(n.Args))
	}
	def := c.Ctx.Typedefs.Variant(ent.VariantID)
	fresh := make(map[uint64]types.Type, len(def.Params))
	paramArgs := make([]types.Type, len(def.Params))
	for i, p := range def.Params {
		v := c.freshVar()
		fresh[uint64(p)] = v
		paramArgs[i] = v
	}
	for i, fieldT := range ent.Fields {
		instField := substBoundLocal(fresh, fieldT)
		argT, err := c.Check(n.Args[i])
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, instField, argT); err != nil {
			return nil, err
		}
	}
	return &types.Data{ID: types.VariantTypeID(def.ID, def.Path, def.Name), Args: paramArgs}, nil
}

func substBoundLocal(fresh map[uint64]types.Type, t types.Type) types.Type {
	switch a := t.(type) {
	case *types.TBound:
		if r, ok := fresh[uint64(a.ID)]; ok {
			return r
		}
		return a
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = substBoundLocal(fresh, e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = substBoundLocal(fresh, ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, e := range a.Args {
			args[i] = substBoundLocal(fresh, e)
		}
		return &types.Data{ID: a.ID, Args: args}
	default:
		return t
	}
}
