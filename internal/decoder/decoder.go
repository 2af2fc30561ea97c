// Package decoder is component I: the manual-type decoder, turning a
// hand-written internal/ast.TypeExpr (as found in a `val`/`external`
// signature, a type annotation, or a synonym/variant body) into an
// internal/types.Type.
//
// Grounded on the teacher's internal/analyzer/types_builder.go BuildType:
// same dispatch-by-AST-node shape and the same lowercase/uppercase
// identifier convention (lowercase unbound name => implicit type
// parameter, registered once per decoding scope and reused; uppercase
// name => must resolve to a known type). Generalized to the nominal
// Data/TypeID model of internal/types instead of BuildType's TCon, and to
// explicit rigid (MustBeBound) variables instead of the teacher's bare
// TVar, since a hand-written signature's parameters are never themselves
// subject to further unification-driven instantiation.
package decoder

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
)

// NameResolver looks up a type or variant name visible in the current
// module scope, returning its TypeID and arity. This is satisfied by
// internal/env.SigRecord via a small adapter in internal/checker, keeping
// this package free of an import-cycle on internal/env.
type NameResolver interface {
	ResolveTypeName(path []string, name string) (id types.TypeID, arity int, ok bool)
}

// Decoder holds the per-declaration state needed while decoding one
// signature or type body: the fresh-ID supply, the synonym/variant
// store (for arity checks only; expansion is unify's job), and the
// rigid-variable scope built up as lowercase names are first seen.
type Decoder struct {
	Supply   *ids.Supply
	Typedefs *typedefs.Store
	Resolver NameResolver
	Level    int

	rigidVars map[string]*types.TVar
	rigidRows map[string]*types.VarRow
}

func New(supply *ids.Supply, typedefs *typedefs.Store, resolver NameResolver, level int) *Decoder {
	return &Decoder{
		Supply:    supply,
		Typedefs:  typedefs,
		Resolver:  resolver,
		Level:     level,
		rigidVars: make(map[string]*types.TVar),
		rigidRows: make(map[string]*types.VarRow),
	}
}

// Decode converts a TypeExpr into a types.Type, threading *first* in a
// single decoding pass so every occurrence of the same lowercase name
// within one signature refers to the same rigid variable (spec §4.I:
// "two occurrences of the same lowercase name within one manual type
// denote the same parameter").
func (d *Decoder) Decode(t ast.TypeExpr) (types.Type, *cerr.CoreError) {
	switch n := t.(type) {
	case *ast.TEName:
		return d.decodeName(n)
	case *ast.TEVar:
		return d.rigidVar(n.Name), nil
	case *ast.TETuple:
		els := make([]types.Type, len(n.Elements))
		for i, e := range n.Elements {
			rt, err := d.Decode(e)
			if err != nil {
				return nil, err
			}
			els[i] = rt
		}
		return &types.Product{Elements: els}, nil
	case *ast.TERecord:
		fields := make(map[string]types.Type, len(n.Fields))
		for _, f := range n.Fields {
			ft, err := d.Decode(f.Type)
			if err != nil {
				return nil, err
			}
			fields[f.Label] = ft
		}
		return &types.RecordT{Fields: fields}, nil
	case *ast.TEFunc:
		dom, err := d.decodeDomain(n.Domain)
		if err != nil {
			return nil, err
		}
		var eff types.Type
		if n.Effect != nil {
			eff, err = d.Decode(n.Effect)
			if err != nil {
				return nil, err
			}
		}
		cod, err := d.Decode(n.Codomain)
		if err != nil {
			return nil, err
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: cod}, nil
	case *ast.TEPid:
		inner, err := d.Decode(n.Inner)
		if err != nil {
			return nil, err
		}
		return &types.Pid{Elem: inner}, nil
	}
	return nil, cerr.New(cerr.PhaseDecode, cerr.InvalidIdentifier, token.Range{}, "<unknown type expr>")
}

func (d *Decoder) decodeDomain(dd ast.TEDomain) (types.Domain, *cerr.CoreError) {
	out := types.Domain{}
	for _, o := range dd.Ordered {
		rt, err := d.Decode(o)
		if err != nil {
			return types.Domain{}, err
		}
		out.Ordered = append(out.Ordered, rt)
	}
	if len(dd.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(dd.Mandatory))
		for _, f := range dd.Mandatory {
			rt, err := d.Decode(f.Type)
			if err != nil {
				return types.Domain{}, err
			}
			out.Mandatory[f.Label] = rt
		}
	}
	if dd.HasOptional {
		labels := make(map[string]types.Type, len(dd.Optional))
		for _, f := range dd.Optional {
			rt, err := d.Decode(f.Type)
			if err != nil {
				return types.Domain{}, err
			}
			labels[f.Label] = rt
		}
		out.Optional = &types.FixedRow{Labels: labels}
	}
	return out, nil
}

func (d *Decoder) decodeName(n *ast.TEName) (types.Type, *cerr.CoreError) {
	rng := n.Pos
	switch n.Name {
	case "unit":
		return types.Unit, nil
	case "bool":
		return types.Bool, nil
	case "int":
		return types.Int, nil
	case "float":
		return types.Float, nil
	case "char":
		return types.Char, nil
	case "binary":
		return types.Binary, nil
	}
	if len(n.ModulePath) == 0 && isLower(n.Name) {
		return d.rigidVar(n.Name), nil
	}
	id, arity, ok := d.Resolver.ResolveTypeName(n.ModulePath, n.Name)
	if !ok {
		return nil, cerr.New(cerr.PhaseDecode, cerr.UndefinedTypeName, rng, n.Name)
	}
	if arity != len(n.Args) {
		return nil, cerr.New(cerr.PhaseDecode, cerr.InvalidNumberOfTypeArguments, rng, arity, len(n.Args))
	}
	args := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		rt, err := d.Decode(a)
		if err != nil {
			return nil, err
		}
		args[i] = rt
	}
	return &types.Data{ID: id, Args: args}, nil
}

// BindRigid pre-seeds a rigid variable for name, so every occurrence in
// the expressions subsequently decoded with d resolves to the exact same
// cell. Used by internal/modelab when decoding a `type ... and ...`
// group's bodies, where each member's declared parameter list must share
// identity with the others' forward references within the same group.
func (d *Decoder) BindRigid(name string, v *types.TVar) {
	d.rigidVars[name] = v
}

func (d *Decoder) rigidVar(name string) *types.TVar {
	if v, ok := d.rigidVars[name]; ok {
		return v
	}
	v := types.NewRigidVar(d.Supply, d.Level)
	d.rigidVars[name] = v
	return v
}

func isLower(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'a' && c <= 'z'
}
