package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/types"
)

// checkCase unifies every arm's pattern type with the scrutinee and every
// arm's body type together, in source order (spec §4.J CaseExpr). Guards,
// when present, must be bool.
func (c *Checker) checkCase(n *ast.CaseExpr) (types.Type, *cerr.CoreError) {
	scrutT, err := c.Check(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	var resultT types.Type
	for _, arm := range n.Arms {
		armT, err := c.checkArm(arm, scrutT)
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
		return nil, cerr.New(cerr.PhaseCheck, cerr.InvalidIdentifier, n.Pos, "case with no arms")
	}
	return resultT, nil
}

func (c *Checker) checkArm(arm ast.Arm, scrutT types.Type) (types.Type, *cerr.CoreError) {
	inner := c.withEnv(c.Env.Child())
	patT, err := inner.checkPattern(arm.Pattern)
	if err != nil {
		return nil, err
	}
	if err := inner.unify(arm.Pos, scrutT, patT); err != nil {
		return nil, err
	}
	if arm.Guard != nil {
		guardT, err := inner.Check(arm.Guard)
		if err != nil {
			return nil, err
		}
		if err := inner.unify(arm.Pos, types.Bool, guardT); err != nil {
			return nil, err
		}
	}
	return inner.Check(arm.Body)
}

// checkPattern infers a pattern's type and binds any variables it
// introduces into c.Env (spec §4.J pattern checking: "a repeated variable
// name within one pattern is a BoundMoreThanOnceInPattern error").
func (c *Checker) checkPattern(p ast.Pattern) (types.Type, *cerr.CoreError) {
	bound := make(map[string]bool)
	return c.checkPatternBinding(p, bound)
}

func (c *Checker) checkPatternBinding(p ast.Pattern, bound map[string]bool) (types.Type, *cerr.CoreError) {
	switch n := p.(type) {
	case *ast.PVar:
		if bound[n.Name] {
			return nil, cerr.New(cerr.PhaseCheck, cerr.BoundMoreThanOnceInPattern, n.Pos, n.Name)
		}
		bound[n.Name] = true
		v := c.freshVar()
		c.Env.Bind(n.Name, types.Mono(v))
		return v, nil

	case *ast.PWildcard:
		return c.freshVar(), nil

	case *ast.PLit:
		return c.Check(n.Value)

	case *ast.PTuple:
		els := make([]types.Type, len(n.Elements))
		for i, e := range n.Elements {
			t, err := c.checkPatternBinding(e, bound)
			if err != nil {
				return nil, err
			}
			els[i] = t
		}
		return &types.Product{Elements: els}, nil

	case *ast.PListNil:
		return &types.Data{ID: c.Ctx.Builtins.ListID, Args: []types.Type{c.freshVar()}}, nil

	case *ast.PCons:
		headT, err := c.checkPatternBinding(n.Head, bound)
		if err != nil {
			return nil, err
		}
		listT := &types.Data{ID: c.Ctx.Builtins.ListID, Args: []types.Type{headT}}
		tailT, err := c.checkPatternBinding(n.Tail, bound)
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, listT, tailT); err != nil {
			return nil, err
		}
		return listT, nil

	case *ast.PConstructor:
		return c.checkPConstructor(n, bound)

	case *ast.PRecord:
		fields := make(map[string]types.Type, len(n.Fields))
		for _, f := range n.Fields {
			ft, err := c.checkPatternBinding(f.Pattern, bound)
			if err != nil {
				return nil, err
			}
			fields[f.Label] = ft
		}
		kinded := types.NewFreeVarKinded(c.Ctx.Supply, c.Level, types.RecordKind(fields))
		return kinded, nil
	}
	return nil, cerr.New(cerr.PhaseCheck, cerr.InvalidIdentifier, p.Range(), "<unsupported pattern>")
}

func (c *Checker) checkPConstructor(n *ast.PConstructor, bound map[string]bool) (types.Type, *cerr.CoreError) {
	ent := c.Env.Globals.LookupLexical(n.Name)
	if ent == nil {
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
		argT, err := c.checkPatternBinding(n.Args[i], bound)
		if err != nil {
			return nil, err
		}
		if err := c.unify(n.Pos, instField, argT); err != nil {
			return nil, err
		}
	}
	return &types.Data{ID: types.VariantTypeID(def.ID, def.Path, def.Name), Args: paramArgs}, nil
}
