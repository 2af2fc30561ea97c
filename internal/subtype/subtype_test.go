package subtype

import (
	"testing"

	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
	"github.com/sestcore/sest/internal/unify"
)

func newMatcher() (*Matcher, *ids.Supply, *kinds.Store, *typedefs.Store) {
	supply := ids.NewSupply()
	kindStore := kinds.NewStore()
	defStore := typedefs.NewStore()
	u := unify.New(defStore)
	return New(defStore, supply, kindStore, u), supply, kindStore, defStore
}

// schemeForall builds a forall-a. body scheme, registering a Universal kind
// for the bound id as a hand-written signature parameter would.
func schemeForall(kindStore *kinds.Store, supply *ids.Supply, build func(id ids.BoundID) types.Type) *types.Scheme {
	id := supply.FreshBound()
	kindStore.RegisterBoundType(id, types.Universal())
	return &types.Scheme{Vars: []ids.BoundID{id}, Body: build(id)}
}

func TestMatchOpaqueSeal(t *testing.T) {
	m, supply, kindStore, _ := newMatcher()

	oid := supply.FreshOpaque()
	actual := env.NewSigRecord()
	_ = actual.Add(&env.Entry{Kind: env.TypeEntry, Name: "t", Alias: types.Int})
	idSelf := func(bid ids.BoundID) types.Type {
		return &types.Func{Domain: types.Domain{Ordered: []types.Type{&types.TBound{ID: bid}}}, Codomain: &types.TBound{ID: bid}}
	}
	_ = actual.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: schemeForall(kindStore, supply, idSelf)})
	_ = actual.Add(&env.Entry{Kind: env.ValEntry, Name: "zero", Scheme: types.Mono(types.Int)})

	required := env.NewSigRecord()
	_ = required.Add(&env.Entry{Kind: env.TypeEntry, Name: "t", Opaque: oid})
	_ = required.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: schemeForall(kindStore, supply, idSelf)})
	_ = required.Add(&env.Entry{Kind: env.ValEntry, Name: "zero", Scheme: types.Mono(&types.Data{ID: types.OpaqueTypeID(oid, nil, "t")})})

	out, err := m.Match(actual, required, token.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zeroEntry := out.Lookup("zero")
	if zeroEntry == nil {
		t.Fatalf("expected zero in output")
	}
}

func TestMatchMissingVal(t *testing.T) {
	m, _, _, _ := newMatcher()
	actual := env.NewSigRecord()
	required := env.NewSigRecord()
	_ = required.Add(&env.Entry{Kind: env.ValEntry, Name: "make", Scheme: types.Mono(types.Int)})

	_, err := m.Match(actual, required, token.Range{})
	if err == nil || err.Code != cerr.MissingRequiredValName {
		t.Fatalf("expected MissingRequiredValName, got %v", err)
	}
}

func TestMatchGeneralityOk(t *testing.T) {
	m, supply, kindStore, _ := newMatcher()

	// actual provides `forall a. a -> a`, required only needs `int -> int`:
	// a more general implementation satisfies a monomorphic requirement.
	actualSch := schemeForall(kindStore, supply, func(id ids.BoundID) types.Type {
		return &types.Func{Domain: types.Domain{Ordered: []types.Type{&types.TBound{ID: id}}}, Codomain: &types.TBound{ID: id}}
	})
	requiredSch := types.Mono(&types.Func{Domain: types.Domain{Ordered: []types.Type{types.Int}}, Codomain: types.Int})

	actual := env.NewSigRecord()
	_ = actual.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: actualSch})
	required := env.NewSigRecord()
	_ = required.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: requiredSch})

	if _, err := m.Match(actual, required, token.Range{}); err != nil {
		t.Fatalf("expected a more general actual to satisfy a monomorphic requirement: %v", err)
	}
}

func TestMatchGeneralityFails(t *testing.T) {
	m, supply, kindStore, _ := newMatcher()

	// actual provides a monomorphic `int -> int`, required demands the
	// genuinely polymorphic `forall a. a -> a`: must fail.
	actualSch := types.Mono(&types.Func{Domain: types.Domain{Ordered: []types.Type{types.Int}}, Codomain: types.Int})
	requiredSch := schemeForall(kindStore, supply, func(id ids.BoundID) types.Type {
		return &types.Func{Domain: types.Domain{Ordered: []types.Type{&types.TBound{ID: id}}}, Codomain: &types.TBound{ID: id}}
	})

	actual := env.NewSigRecord()
	_ = actual.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: actualSch})
	required := env.NewSigRecord()
	_ = required.Add(&env.Entry{Kind: env.ValEntry, Name: "id", Scheme: requiredSch})

	_, err := m.Match(actual, required, token.Range{})
	if err == nil || err.Code != cerr.PolymorphicContradiction {
		t.Fatalf("expected PolymorphicContradiction, got %v", err)
	}
}

func TestMatchVariantCorrespondence(t *testing.T) {
	m, supply, _, defStore := newMatcher()

	buildVariant := func(name string) (*typedefs.VariantDef, ids.BoundID) {
		vid := supply.FreshVariant()
		p := supply.FreshBound()
		def := &typedefs.VariantDef{
			ID: vid, Name: name, Params: []ids.BoundID{p},
			Ctors: map[string]*typedefs.CtorEntry{
				"None": {VariantID: vid, CtorID: supply.FreshCtor(), Name: "None"},
				"Some": {VariantID: vid, CtorID: supply.FreshCtor(), Name: "Some", Fields: []types.Type{&types.TBound{ID: p}}},
			},
			Order: []string{"None", "Some"},
		}
		defStore.RegisterVariant(def)
		return def, p
	}

	def1, p1 := buildVariant("option")
	def2, p2 := buildVariant("option")
	_ = p1
	_ = p2

	actual := env.NewSigRecord()
	_ = actual.Add(&env.Entry{
		Kind: env.TypeEntry, Name: "option", TypeParams: def1.Params,
		Alias: &types.Data{ID: types.VariantTypeID(def1.ID, nil, def1.Name), Args: []types.Type{&types.TBound{ID: def1.Params[0]}}},
	})
	required := env.NewSigRecord()
	_ = required.Add(&env.Entry{
		Kind: env.TypeEntry, Name: "option", TypeParams: def2.Params,
		Alias: &types.Data{ID: types.VariantTypeID(def2.ID, nil, def2.Name), Args: []types.Type{&types.TBound{ID: def2.Params[0]}}},
	})

	if _, err := m.Match(actual, required, token.Range{}); err != nil {
		t.Fatalf("expected two structurally identical variant defs to correspond: %v", err)
	}
}
