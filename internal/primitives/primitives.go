// Package primitives is the seed environment every elaboration run starts
// from: the `list`/`option` variant types and the core arithmetic and
// comparison functions (`add`, `sub`, `mul`, `eq`, `lt`). Spec §1
// excludes the *table of builtin host functions* as an external
// collaborator ("the builtins table... is a collaborator, not part of
// this module"), but the core still needs *some* seed environment to
// type-check against. `pid`, `spawn`, `self`, `send`, `receive` and
// format strings have no entry here: internal/checker handles them as
// dedicated AST forms and types. Grounded on the teacher's
// internal/analyzer/builtins.go registration pattern.
package primitives

import (
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
)

// Builtins records the nominal IDs of the seed variant types, so
// internal/checker can build/destructure list and option values without
// a name lookup on every list literal.
type Builtins struct {
	ListID     types.TypeID
	NilCtor    ids.CtorID
	ConsCtor   ids.CtorID
	OptionID   types.TypeID
	SomeCtor   ids.CtorID
	NoneCtor   ids.CtorID
}

// Seed builds the root SigRecord (spec's "root structure") containing the
// seed types and value signatures, registering their definitions into
// typedefsStore/kindStore as it goes.
func Seed(supply *ids.Supply, kindStore *kinds.Store, typedefsStore *typedefs.Store) (*env.SigRecord, *Builtins) {
	rec := env.NewSigRecord()
	b := &Builtins{}

	// list<t> = Nil | Cons(t, list<t>)
	listParam := supply.FreshBound()
	kindStore.RegisterBoundType(listParam, types.Universal())
	listSerial := supply.FreshVariant()
	b.ListID = types.VariantTypeID(listSerial, nil, "list")
	b.NilCtor = supply.FreshCtor()
	b.ConsCtor = supply.FreshCtor()
	elemT := &types.TBound{ID: listParam}
	listSelf := &types.Data{ID: b.ListID, Args: []types.Type{elemT}}
	nilEntry := &typedefs.CtorEntry{VariantID: listSerial, CtorID: b.NilCtor, Name: "Nil", Params: []ids.BoundID{listParam}}
	consEntry := &typedefs.CtorEntry{
		VariantID: listSerial, CtorID: b.ConsCtor, Name: "Cons",
		Params: []ids.BoundID{listParam}, Fields: []types.Type{elemT, listSelf},
	}
	typedefsStore.RegisterVariant(&typedefs.VariantDef{
		ID: listSerial, Name: "list", Params: []ids.BoundID{listParam},
		Ctors: map[string]*typedefs.CtorEntry{"Nil": nilEntry, "Cons": consEntry},
		Order: []string{"Nil", "Cons"},
	})
	addCtorEntries(rec, "Nil", nilEntry)
	addCtorEntries(rec, "Cons", consEntry)
	rec.Add(&env.Entry{
		Kind: env.TypeEntry, Name: "list", TypeParams: []ids.BoundID{listParam},
		Alias: &types.Data{ID: b.ListID, Args: []types.Type{elemT}},
	})

	// option<t> = None | Some(t)
	optParam := supply.FreshBound()
	kindStore.RegisterBoundType(optParam, types.Universal())
	optSerial := supply.FreshVariant()
	b.OptionID = types.VariantTypeID(optSerial, nil, "option")
	b.NoneCtor = supply.FreshCtor()
	b.SomeCtor = supply.FreshCtor()
	optElemT := &types.TBound{ID: optParam}
	noneEntry := &typedefs.CtorEntry{VariantID: optSerial, CtorID: b.NoneCtor, Name: "None", Params: []ids.BoundID{optParam}}
	someEntry := &typedefs.CtorEntry{
		VariantID: optSerial, CtorID: b.SomeCtor, Name: "Some",
		Params: []ids.BoundID{optParam}, Fields: []types.Type{optElemT},
	}
	typedefsStore.RegisterVariant(&typedefs.VariantDef{
		ID: optSerial, Name: "option", Params: []ids.BoundID{optParam},
		Ctors: map[string]*typedefs.CtorEntry{"None": noneEntry, "Some": someEntry},
		Order: []string{"None", "Some"},
	})
	addCtorEntries(rec, "None", noneEntry)
	addCtorEntries(rec, "Some", someEntry)
	rec.Add(&env.Entry{
		Kind: env.TypeEntry, Name: "option", TypeParams: []ids.BoundID{optParam},
		Alias: &types.Data{ID: b.OptionID, Args: []types.Type{optElemT}},
	})

	// Arithmetic/comparison: (int, int) -> int / bool, monomorphic seed
	// signatures (spec's builtins table proper lives outside this module;
	// these few are enough for the core's own test fixtures to type-check).
	binOp := func(name string, ret types.Type) {
		rec.Add(&env.Entry{Kind: env.ValEntry, Name: name, Scheme: types.Mono(&types.Func{
			Domain:   types.Domain{Ordered: []types.Type{types.Int, types.Int}},
			Codomain: ret,
		})})
	}
	binOp("add", types.Int)
	binOp("sub", types.Int)
	binOp("mul", types.Int)
	binOp("eq", types.Bool)
	binOp("lt", types.Bool)

	return rec, b
}

func addCtorEntries(rec *env.SigRecord, name string, c *typedefs.CtorEntry) {
	rec.Add(&env.Entry{
		Kind: env.CtorEntry, Name: name,
		VariantID: c.VariantID, CtorID: c.CtorID, Fields: c.Fields,
	})
}
