// Package subtype is component L: structure/signature subtyping via witness
// maps (spec §4.L). The teacher (funvibe-funxy) has no ML-module layer to
// ground this on directly, so the shape below follows spec's own three-step
// description literally — lookup_record, check_well_formedness_of_witness_map,
// subtype_concrete_with_concrete — while reusing this module's existing
// machinery wherever it already does the matching job: internal/generalize's
// Instantiate/InstantiateRigid pair (one per side) feeding internal/unify's
// ordinary Unify is exactly spec's "pair of hash tables keyed by bound ids
// seen on the right, enforcing consistent instantiation" — InstantiateRigid
// already gives each distinct bound id on the required side one fixed
// skolem cell, and unify's rigid-only-unifies-with-itself rule (spec line
// 38) does the consistency check for free.
package subtype

import (
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/generalize"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
	"github.com/sestcore/sest/internal/unify"
)

// WitnessMap is the correspondence discovered during one Match: an opaque
// name's hidden witness type, and the nominal-ID renaming needed to treat
// the two sides' independently-minted variant/synonym IDs as the same type
// (spec §4.L step 1: "opaque ID -> concrete type ID, variant/synonym ID ->
// corresponding ID").
type WitnessMap struct {
	Opaque  map[ids.OpaqueID]opaqueWitness
	Nominal map[types.TypeID]types.TypeID
}

type opaqueWitness struct {
	Params []ids.BoundID
	Body   types.Type
}

func newWitnessMap() *WitnessMap {
	return &WitnessMap{Opaque: make(map[ids.OpaqueID]opaqueWitness), Nominal: make(map[types.TypeID]types.TypeID)}
}

// Matcher carries the shared context threaded through one or more Match
// calls: nominal-ID resolution, a fresh-ID supply/kind store for the
// polytype generality check's throwaway instantiations, and the unifier.
type Matcher struct {
	Typedefs *typedefs.Store
	Supply   *ids.Supply
	Kinds    *kinds.Store
	Unifier  *unify.Unifier
	Level    int
}

func New(typedefsStore *typedefs.Store, supply *ids.Supply, kindStore *kinds.Store, u *unify.Unifier) *Matcher {
	return &Matcher{Typedefs: typedefsStore, Supply: supply, Kinds: kindStore, Unifier: u}
}

// AtLevel returns a copy of m checking at level (spec §4.H-style threading:
// instantiations performed during a subtype check at module-elaboration
// time should start at least as deep as the elaborator's current level).
func (m *Matcher) AtLevel(level int) *Matcher {
	cp := *m
	cp.Level = level
	return &cp
}

// Match checks actual <= required (actual is Σ1, the providing structure;
// required is Σ2, the signature it's sealed/ascribed against) and, on
// success, returns the output record. Sealing against an explicit
// signature always produces exactly required's own view: every entry not
// named in required disappears, including every constructor (spec §3's
// signature grammar has no constructor-entry form, so a sealed variant's
// constructors are never visible from outside).
func (m *Matcher) Match(actual, required *env.SigRecord, rng token.Range) (*env.SigRecord, *cerr.CoreError) {
	wt := newWitnessMap()
	if err := m.lookupAndCheckTypes(wt, actual, required, rng); err != nil {
		return nil, err
	}
	return m.subtypeConcrete(wt, actual, required, rng)
}

// lookupAndCheckTypes is spec §4.L steps 1+2 merged: for every type name
// required names, find its correspondent in actual, and validate +
// register a witness for it. Recurses into nested modules (step 1: "recurse
// into nested modules") and, for a nested signature name, checks both
// directions (spec: "recursively subtype ... (bidirectionally) signatures").
func (m *Matcher) lookupAndCheckTypes(wt *WitnessMap, actual, required *env.SigRecord, rng token.Range) *cerr.CoreError {
	for _, e2 := range required.Entries {
		switch e2.Kind {
		case env.TypeEntry:
			e1 := actual.Lookup(e2.Name)
			if e1 == nil || e1.Kind != env.TypeEntry {
				return cerr.New(cerr.PhaseSubtype, cerr.MissingRequiredTypeName, rng, e2.Name)
			}
			if err := m.checkTypeCorrespondence(wt, e1, e2, rng); err != nil {
				return err
			}
		case env.ModuleEntry:
			e1 := actual.Lookup(e2.Name)
			if e1 == nil || e1.Kind != env.ModuleEntry {
				return cerr.New(cerr.PhaseSubtype, cerr.MissingRequiredModuleName, rng, e2.Name)
			}
			if err := m.lookupAndCheckTypes(wt, e1.Module, e2.Module, rng); err != nil {
				return err
			}
		case env.SignatureEntry:
			e1 := actual.Lookup(e2.Name)
			if e1 == nil || e1.Kind != env.SignatureEntry {
				return cerr.New(cerr.PhaseSubtype, cerr.MissingRequiredSignatureName, rng, e2.Name)
			}
			if err := m.lookupAndCheckTypes(wt, e1.Signature, e2.Signature, rng); err != nil {
				return err
			}
			if err := m.lookupAndCheckTypes(wt, e2.Signature, e1.Signature, rng); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkTypeCorrespondence validates one required TypeEntry against its
// actual correspondent and registers whatever witness that validation
// produces (spec §4.L step 2: "variant mappings: ctor sets equal + field
// types match; synonym mappings: bodies equivalent; opaque mappings:
// arity-equality from step 1 suffices").
func (m *Matcher) checkTypeCorrespondence(wt *WitnessMap, e1, e2 *env.Entry, rng token.Range) *cerr.CoreError {
	if e2.Opaque != 0 {
		if len(e1.TypeParams) != len(e2.TypeParams) {
			return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeTypeOpacity, rng, e2.Name)
		}
		body := e1.Alias
		params := e1.TypeParams
		if body == nil {
			args := make([]types.Type, len(params))
			for i, p := range params {
				args[i] = &types.TBound{ID: p}
			}
			body = &types.Data{ID: types.OpaqueTypeID(e1.Opaque, nil, e1.Name), Args: args}
		}
		wt.Opaque[e2.Opaque] = opaqueWitness{Params: params, Body: body}
		return nil
	}

	// required names a transparent type: actual must also expose one.
	if e1.Alias == nil {
		return cerr.New(cerr.PhaseSubtype, cerr.CannotRestrictTransparentType, rng, e2.Name)
	}
	if len(e1.TypeParams) != len(e2.TypeParams) {
		return cerr.New(cerr.PhaseSubtype, cerr.InvalidNumberOfTypeArguments, rng, len(e2.TypeParams), len(e1.TypeParams))
	}

	d1, ok1 := e1.Alias.(*types.Data)
	d2, ok2 := e2.Alias.(*types.Data)
	if ok1 && ok2 && isNominal(d1.ID) && isNominal(d2.ID) {
		switch d2.ID.Namespace {
		case types.VariantNS:
			if d1.ID.Namespace != types.VariantNS {
				return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, e2.Name)
			}
			if err := m.checkVariantCorrespondence(d1.ID, d2.ID, rng); err != nil {
				return err
			}
		case types.SynonymNS:
			if d1.ID.Namespace != types.SynonymNS {
				return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeSynonym, rng, e2.Name)
			}
			if err := m.checkSynonymCorrespondence(d1.ID, d2.ID, rng); err != nil {
				return err
			}
		}
		wt.Nominal[d2.ID] = d1.ID
		return nil
	}

	// A structural (non-nominal) alias body, e.g. `type pair<a> = (a, a)`:
	// direct equivalence under the two entries' own parameter lists.
	if !m.typeEquivUnderParams(e2.Alias, e1.Alias, e1.TypeParams, e2.TypeParams) {
		return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeSynonym, rng, e2.Name)
	}
	return nil
}

func isNominal(id types.TypeID) bool {
	return id.Namespace == types.VariantNS || id.Namespace == types.SynonymNS
}

func (m *Matcher) checkVariantCorrespondence(id1, id2 types.TypeID, rng token.Range) *cerr.CoreError {
	def1 := m.Typedefs.Variant(ids.VariantID(id1.Serial))
	def2 := m.Typedefs.Variant(ids.VariantID(id2.Serial))
	if len(def1.Order) != len(def2.Order) || len(def1.Params) != len(def2.Params) {
		return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, def2.Name)
	}
	paramSub := make(map[ids.BoundID]types.Type, len(def2.Params))
	for i := range def2.Params {
		paramSub[def2.Params[i]] = &types.TBound{ID: def1.Params[i]}
	}
	for _, name := range def2.Order {
		c2, ok := def2.Ctors[name]
		if !ok {
			return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, name)
		}
		c1, ok := def1.Ctors[name]
		if !ok {
			return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, name)
		}
		if len(c1.Fields) != len(c2.Fields) {
			return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, name)
		}
		for i := range c2.Fields {
			renamed := substBound(paramSub, c2.Fields[i])
			if !polyTypeEqual(renamed, c1.Fields[i]) {
				return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeVariant, rng, name)
			}
		}
	}
	return nil
}

func (m *Matcher) checkSynonymCorrespondence(id1, id2 types.TypeID, rng token.Range) *cerr.CoreError {
	def1 := m.Typedefs.Synonym(ids.SynonymID(id1.Serial))
	def2 := m.Typedefs.Synonym(ids.SynonymID(id2.Serial))
	if len(def1.Params) != len(def2.Params) {
		return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeSynonym, rng, def2.Name)
	}
	sub := make(map[ids.BoundID]types.Type, len(def2.Params))
	for i := range def2.Params {
		sub[def2.Params[i]] = &types.TBound{ID: def1.Params[i]}
	}
	renamed := substBound(sub, def2.Body)
	if !polyTypeEqual(renamed, def1.Body) {
		return cerr.New(cerr.PhaseSubtype, cerr.NotASubtypeSynonym, rng, def2.Name)
	}
	return nil
}

func (m *Matcher) typeEquivUnderParams(required, actualBody types.Type, actualParams, requiredParams []ids.BoundID) bool {
	sub := make(map[ids.BoundID]types.Type, len(requiredParams))
	for i := range requiredParams {
		if i < len(actualParams) {
			sub[requiredParams[i]] = &types.TBound{ID: actualParams[i]}
		}
	}
	renamed := substBound(sub, required)
	return polyTypeEqual(renamed, actualBody)
}

// subtypeConcrete is spec §4.L step 3: apply the witness map to required,
// then for every value name require pty1 <= [wtmap]pty2, recursing into
// nested modules and copying nested signatures through unchanged.
func (m *Matcher) subtypeConcrete(wt *WitnessMap, actual, required *env.SigRecord, rng token.Range) (*env.SigRecord, *cerr.CoreError) {
	out := env.NewSigRecord()
	for _, e2 := range required.Entries {
		switch e2.Kind {
		case env.ValEntry:
			e1 := actual.Lookup(e2.Name)
			if e1 == nil || e1.Kind != env.ValEntry {
				return nil, cerr.New(cerr.PhaseSubtype, cerr.MissingRequiredValName, rng, e2.Name)
			}
			if err := m.subtypePolyType(wt, e1.Scheme, e2.Scheme, rng); err != nil {
				return nil, err
			}
			_ = out.Add(&env.Entry{Kind: env.ValEntry, Name: e2.Name, Scheme: e2.Scheme})
		case env.TypeEntry:
			_ = out.Add(e2)
		case env.ModuleEntry:
			e1 := actual.Lookup(e2.Name)
			if e1 == nil || e1.Kind != env.ModuleEntry {
				return nil, cerr.New(cerr.PhaseSubtype, cerr.MissingRequiredModuleName, rng, e2.Name)
			}
			sub, err := m.subtypeConcrete(wt, e1.Module, e2.Module, rng)
			if err != nil {
				return nil, err
			}
			_ = out.Add(&env.Entry{Kind: env.ModuleEntry, Name: e2.Name, Module: sub})
		case env.SignatureEntry:
			_ = out.Add(e2)
		}
	}
	return out, nil
}

// subtypePolyType requires actual to be at least as general as [wt]required
// (spec §4.L: "pty1 <= [wtmap]pty2"). The required side is first rewritten
// through the witness map, then instantiated with fresh *rigid* variables
// (generalize.InstantiateRigid — one skolem per distinct bound id, spec's
// consistent-instantiation hash table) while actual is instantiated with
// ordinary fresh free variables; a plain Unify between the two decides
// generality, since a rigid skolem can only unify with itself or with a
// free variable that has no record-kind constraints of its own.
func (m *Matcher) subtypePolyType(wt *WitnessMap, actual, required *types.Scheme, rng token.Range) *cerr.CoreError {
	witnessed := &types.Scheme{Vars: required.Vars, RowVars: required.RowVars, Body: applyWitness(wt, required.Body)}
	actualT := generalize.Instantiate(m.Supply, m.Kinds, m.Level, actual)
	requiredT := generalize.InstantiateRigid(m.Supply, m.Kinds, m.Level, witnessed)
	if err := m.Unifier.Unify(cerr.PhaseSubtype, rng, actualT, requiredT); err != nil {
		return cerr.New(cerr.PhaseSubtype, cerr.PolymorphicContradiction, rng, actual.String(), required.String())
	}
	return nil
}

// applyWitness rewrites every Data leaf of t through wt: an opaque
// reference is replaced by its witnessed concrete body (substituting the
// witness's own parameters for the reference's actual type arguments); a
// variant/synonym reference is renamed to its corresponding nominal ID on
// the actual side.
func applyWitness(wt *WitnessMap, t types.Type) types.Type {
	switch a := t.(type) {
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, ar := range a.Args {
			args[i] = applyWitness(wt, ar)
		}
		if a.ID.Namespace == types.OpaqueNS {
			if ow, ok := wt.Opaque[ids.OpaqueID(a.ID.Serial)]; ok {
				sub := make(map[ids.BoundID]types.Type, len(ow.Params))
				for i, p := range ow.Params {
					if i < len(args) {
						sub[p] = args[i]
					}
				}
				return substBound(sub, ow.Body)
			}
		}
		if nid, ok := wt.Nominal[a.ID]; ok {
			return &types.Data{ID: nid, Args: args}
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = applyWitness(wt, e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = applyWitness(wt, ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Func:
		dom := applyWitnessDomain(wt, a.Domain)
		var eff types.Type
		if a.Eff != nil {
			eff = applyWitness(wt, a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: applyWitness(wt, a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: applyWitness(wt, a.Elem)}
	case *types.Format:
		return &types.Format{Holes: applyWitness(wt, a.Holes)}
	case *types.Frozen:
		return &types.Frozen{Rest: applyWitnessDomain(wt, a.Rest), Receive: applyWitness(wt, a.Receive), Return: applyWitness(wt, a.Return)}
	default:
		return t
	}
}

func applyWitnessDomain(wt *WitnessMap, d types.Domain) types.Domain {
	out := types.Domain{}
	for _, o := range d.Ordered {
		out.Ordered = append(out.Ordered, applyWitness(wt, o))
	}
	if len(d.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
		for l, t := range d.Mandatory {
			out.Mandatory[l] = applyWitness(wt, t)
		}
	}
	out.Optional = d.Optional
	if fr, ok := d.Optional.(*types.FixedRow); ok {
		labels := make(map[string]types.Type, len(fr.Labels))
		for l, t := range fr.Labels {
			labels[l] = applyWitness(wt, t)
		}
		out.Optional = &types.FixedRow{Labels: labels}
	}
	return out
}

// substBound replaces each TBound leaf named in sub, walking every node
// shape that can carry one (spec §4.I-style bound-id substitution, reused
// here for renaming one side's variant/synonym parameters onto the
// other's before a structural equivalence check). Row-level (BoundRow)
// parameters aren't substituted: row-polymorphic synonym/variant
// parameters are outside this module's scope.
func substBound(sub map[ids.BoundID]types.Type, t types.Type) types.Type {
	switch a := t.(type) {
	case *types.TBound:
		if r, ok := sub[a.ID]; ok {
			return r
		}
		return a
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = substBound(sub, e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = substBound(sub, ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, e := range a.Args {
			args[i] = substBound(sub, e)
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Func:
		dom := substBoundDomain(sub, a.Domain)
		var eff types.Type
		if a.Eff != nil {
			eff = substBound(sub, a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: substBound(sub, a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: substBound(sub, a.Elem)}
	case *types.Format:
		return &types.Format{Holes: substBound(sub, a.Holes)}
	case *types.Frozen:
		return &types.Frozen{Rest: substBoundDomain(sub, a.Rest), Receive: substBound(sub, a.Receive), Return: substBound(sub, a.Return)}
	default:
		return t
	}
}

func substBoundDomain(sub map[ids.BoundID]types.Type, d types.Domain) types.Domain {
	out := types.Domain{}
	for _, o := range d.Ordered {
		out.Ordered = append(out.Ordered, substBound(sub, o))
	}
	if len(d.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
		for l, t := range d.Mandatory {
			out.Mandatory[l] = substBound(sub, t)
		}
	}
	if fr, ok := d.Optional.(*types.FixedRow); ok {
		labels := make(map[string]types.Type, len(fr.Labels))
		for l, t := range fr.Labels {
			labels[l] = substBound(sub, t)
		}
		out.Optional = &types.FixedRow{Labels: labels}
	} else {
		out.Optional = d.Optional
	}
	return out
}

// polyTypeEqual is plain structural equality over (already bound-id
// aligned) type bodies, used by the variant/synonym correspondence checks
// once one side's parameters have been renamed onto the other's (spec
// §4.L step 2's "poly_type_equal").
func polyTypeEqual(a, b types.Type) bool {
	switch x := a.(type) {
	case *types.TBound:
		y, ok := b.(*types.TBound)
		return ok && x.ID == y.ID
	case *types.BaseScalar:
		y, ok := b.(*types.BaseScalar)
		return ok && x.Name == y.Name
	case *types.Product:
		y, ok := b.(*types.Product)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !polyTypeEqual(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *types.RecordT:
		y, ok := b.(*types.RecordT)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for l, ft := range x.Fields {
			yft, ok := y.Fields[l]
			if !ok || !polyTypeEqual(ft, yft) {
				return false
			}
		}
		return true
	case *types.Data:
		y, ok := b.(*types.Data)
		if !ok || !x.ID.Equal(y.ID) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !polyTypeEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *types.Func:
		y, ok := b.(*types.Func)
		if !ok || !domainEqual(x.Domain, y.Domain) {
			return false
		}
		if (x.Eff == nil) != (y.Eff == nil) {
			return false
		}
		if x.Eff != nil && !polyTypeEqual(x.Eff, y.Eff) {
			return false
		}
		return polyTypeEqual(x.Codomain, y.Codomain)
	case *types.Pid:
		y, ok := b.(*types.Pid)
		return ok && polyTypeEqual(x.Elem, y.Elem)
	case *types.Format:
		y, ok := b.(*types.Format)
		return ok && polyTypeEqual(x.Holes, y.Holes)
	case *types.Frozen:
		y, ok := b.(*types.Frozen)
		if !ok {
			return false
		}
		return domainEqual(x.Rest, y.Rest) && polyTypeEqual(x.Receive, y.Receive) && polyTypeEqual(x.Return, y.Return)
	default:
		return false
	}
}

func domainEqual(a, b types.Domain) bool {
	if len(a.Ordered) != len(b.Ordered) {
		return false
	}
	for i := range a.Ordered {
		if !polyTypeEqual(a.Ordered[i], b.Ordered[i]) {
			return false
		}
	}
	if len(a.Mandatory) != len(b.Mandatory) {
		return false
	}
	for l, t := range a.Mandatory {
		bt, ok := b.Mandatory[l]
		if !ok || !polyTypeEqual(t, bt) {
			return false
		}
	}
	return rowEqual(a.Optional, b.Optional)
}

func rowEqual(a, b types.Row) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *types.FixedRow:
		y, ok := b.(*types.FixedRow)
		if !ok || len(x.Labels) != len(y.Labels) {
			return false
		}
		for l, t := range x.Labels {
			yt, ok := y.Labels[l]
			if !ok || !polyTypeEqual(t, yt) {
				return false
			}
		}
		return true
	case *types.BoundRow:
		y, ok := b.(*types.BoundRow)
		return ok && x.ID == y.ID
	default:
		return false
	}
}
