package checker

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/decoder"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/types"
)

// decodeType runs internal/decoder over a hand-written type annotation,
// resolving names against this Checker's own structure namespace. A fresh
// Decoder is built per call so repeated lowercase names within one
// annotation denote the same rigid variable (component I's contract)
// without leaking across unrelated annotations in the same expression.
func (c *Checker) decodeType(t ast.TypeExpr) (types.Type, *cerr.CoreError) {
	d := decoder.New(c.Ctx.Supply, c.Ctx.Typedefs, EnvResolver(c.Env.Globals), c.Level)
	return d.Decode(t)
}

// EnvResolver adapts a structure namespace to internal/decoder.NameResolver
// (also reused by internal/modelab, spec §4.K): an empty path resolves
// lexically (the current scope, then its lexical parents), matching
// unqualified name resolution everywhere else in this checker; a
// non-empty path walks module projections strictly (each segment must be
// an actual member of the previous one), matching qualified value lookup
// in checkIdent.
type EnvResolver struct{ Rec *env.SigRecord }

func NewEnvResolver(rec *env.SigRecord) EnvResolver { return EnvResolver{Rec: rec} }

func (r EnvResolver) ResolveTypeName(path []string, name string) (types.TypeID, int, bool) {
	rec := r.Rec
	for i, seg := range path {
		var ent *env.Entry
		if i == 0 {
			ent = rec.LookupLexical(seg)
		} else {
			ent = rec.Lookup(seg)
		}
		if ent == nil || ent.Kind != env.ModuleEntry || ent.Module == nil {
			return types.TypeID{}, 0, false
		}
		rec = ent.Module
	}
	var ent *env.Entry
	if len(path) == 0 {
		ent = rec.LookupLexical(name)
	} else {
		ent = rec.Lookup(name)
	}
	if ent == nil || ent.Kind != env.TypeEntry {
		return types.TypeID{}, 0, false
	}
	id, ok := TypeEntryID(ent)
	if !ok {
		return types.TypeID{}, 0, false
	}
	return id, len(ent.TypeParams), true
}

// TypeEntryID extracts the nominal TypeID a TypeEntry denotes: an opaque
// type's own ID, or the ID carried by its alias body (spec §4.L's
// convention of recording a variant/synonym TypeEntry's Alias as
// `Data{ID: <nominal id>, Args: <params as TBound>}`, shared with
// internal/subtype's checkTypeCorrespondence).
func TypeEntryID(ent *env.Entry) (types.TypeID, bool) {
	if ent.Opaque != 0 {
		return types.OpaqueTypeID(ent.Opaque, nil, ent.Name), true
	}
	if d, ok := ent.Alias.(*types.Data); ok {
		return d.ID, true
	}
	return types.TypeID{}, false
}
