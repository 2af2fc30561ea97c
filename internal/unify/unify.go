// Package unify is component G: the equational solver across types,
// effects, rows, and record kinds, with occurs check and level update.
//
// Grounded on the teacher's internal/typesystem/unify.go for its
// co-inductive visited-pair cycle guard and its Resolver-style indirection
// for synonym expansion (renamed/repurposed here to take a *typedefs.Store
// directly rather than an interface, since the synonym store's shape is
// already fixed by component D); algorithmically grounded on
// wdamron/poly's row-extend/row-restrict mechanics
// (other_examples/2a0dd592_mafm-poly__infer.go.go).
package unify

import (
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
)

// Unifier carries the mutable stores unification needs: the synonym store
// for eager expansion (spec §4.G step 2), and nothing else — type/row
// variable cells are mutated directly through their pointers.
type Unifier struct {
	Synonyms *typedefs.Store
	visited  map[pairKey]bool
}

type pairKey struct{ a, b Type }
type Type = types.Type

func New(synonyms *typedefs.Store) *Unifier {
	return &Unifier{Synonyms: synonyms, visited: make(map[pairKey]bool)}
}

// Unify attempts to make t1 and t2 equal, mutating cells along the way.
// On failure, cells already linked along the successful prefix remain
// linked (spec §4.G contract: "no observable effect on failure beyond
// possibly having linked variables along the successful prefix").
func (u *Unifier) Unify(phase cerr.Phase, rng token.Range, t1, t2 Type) *cerr.CoreError {
	t1 = types.Resolve(t1)
	t2 = types.Resolve(t2)
	t1 = u.expandSynonym(t1)
	t2 = u.expandSynonym(t2)

	key := pairKey{t1, t2}
	if u.visited[key] {
		return nil
	}

	v1, v1ok := t1.(*types.TVar)
	v2, v2ok := t2.(*types.TVar)

	switch {
	case v1ok && v2ok:
		return u.unifyVarVar(phase, rng, v1, v2)
	case v1ok:
		return u.unifyVarTerm(phase, rng, v1, t2)
	case v2ok:
		return u.unifyVarTerm(phase, rng, v2, t1)
	}

	u.visited[key] = true
	defer delete(u.visited, key)

	switch a := t1.(type) {
	case *types.BaseScalar:
		b, ok := t2.(*types.BaseScalar)
		if !ok || a.Name != b.Name {
			return mismatch(phase, rng, t1, t2)
		}
		return nil
	case *types.Product:
		b, ok := t2.(*types.Product)
		if !ok || len(a.Elements) != len(b.Elements) {
			return mismatch(phase, rng, t1, t2)
		}
		for i := range a.Elements {
			if err := u.Unify(phase, rng, a.Elements[i], b.Elements[i]); err != nil {
				return err
			}
		}
		return nil
	case *types.RecordT:
		b, ok := t2.(*types.RecordT)
		if !ok || len(a.Fields) != len(b.Fields) {
			return mismatch(phase, rng, t1, t2)
		}
		for l, at := range a.Fields {
			bt, ok := b.Fields[l]
			if !ok {
				return mismatch(phase, rng, t1, t2)
			}
			if err := u.Unify(phase, rng, at, bt); err != nil {
				return err
			}
		}
		return nil
	case *types.Data:
		b, ok := t2.(*types.Data)
		if !ok || !a.ID.Equal(b.ID) {
			return mismatch(phase, rng, t1, t2)
		}
		if len(a.Args) != len(b.Args) {
			return cerr.New(phase, cerr.InvalidNumberOfTypeArguments, rng, len(a.Args), len(b.Args))
		}
		for i := range a.Args {
			if err := u.Unify(phase, rng, a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case *types.Func:
		b, ok := t2.(*types.Func)
		if !ok {
			return mismatch(phase, rng, t1, t2)
		}
		if err := u.unifyDomain(phase, rng, a.Domain, b.Domain); err != nil {
			return err
		}
		if (a.Eff == nil) != (b.Eff == nil) {
			return mismatch(phase, rng, t1, t2)
		}
		if a.Eff != nil {
			if err := u.Unify(phase, rng, a.Eff, b.Eff); err != nil {
				return err
			}
		}
		return u.Unify(phase, rng, a.Codomain, b.Codomain)
	case *types.Pid:
		b, ok := t2.(*types.Pid)
		if !ok {
			return mismatch(phase, rng, t1, t2)
		}
		return u.Unify(phase, rng, a.Elem, b.Elem)
	case *types.Format:
		b, ok := t2.(*types.Format)
		if !ok {
			return mismatch(phase, rng, t1, t2)
		}
		return u.Unify(phase, rng, a.Holes, b.Holes)
	case *types.Frozen:
		b, ok := t2.(*types.Frozen)
		if !ok {
			return mismatch(phase, rng, t1, t2)
		}
		if err := u.unifyDomain(phase, rng, a.Rest, b.Rest); err != nil {
			return err
		}
		if err := u.Unify(phase, rng, a.Receive, b.Receive); err != nil {
			return err
		}
		return u.Unify(phase, rng, a.Return, b.Return)
	}
	return mismatch(phase, rng, t1, t2)
}

func (u *Unifier) expandSynonym(t Type) Type {
	d, ok := t.(*types.Data)
	if !ok || d.ID.Namespace != types.SynonymNS {
		return t
	}
	def := u.Synonyms.Synonym(ids.SynonymID(d.ID.Serial))
	body := substituteParams(def.Params, d.Args, def.Body)
	return u.expandSynonym(types.Resolve(body))
}

func substituteParams(params []ids.BoundID, args []Type, t Type) Type {
	m := make(map[ids.BoundID]Type, len(params))
	for i, p := range params {
		if i < len(args) {
			m[p] = args[i]
		}
	}
	return substBound(m, t)
}

func substBound(m map[ids.BoundID]Type, t Type) Type {
	switch a := t.(type) {
	case *types.TBound:
		if r, ok := m[a.ID]; ok {
			return r
		}
		return a
	case *types.Product:
		els := make([]Type, len(a.Elements))
		for i, e := range a.Elements {
			els[i] = substBound(m, e)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = substBound(m, ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]Type, len(a.Args))
		for i, e := range a.Args {
			args[i] = substBound(m, e)
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Func:
		dom := types.Domain{Optional: a.Domain.Optional}
		for _, o := range a.Domain.Ordered {
			dom.Ordered = append(dom.Ordered, substBound(m, o))
		}
		if len(a.Domain.Mandatory) > 0 {
			dom.Mandatory = make(map[string]Type, len(a.Domain.Mandatory))
			for l, mt := range a.Domain.Mandatory {
				dom.Mandatory[l] = substBound(m, mt)
			}
		}
		var eff Type
		if a.Eff != nil {
			eff = substBound(m, a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: substBound(m, a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: substBound(m, a.Elem)}
	default:
		return t
	}
}

func (u *Unifier) unifyDomain(phase cerr.Phase, rng token.Range, a, b types.Domain) *cerr.CoreError {
	if len(a.Ordered) != len(b.Ordered) {
		return cerr.New(phase, cerr.BadArityOfOrderedArguments, rng, len(a.Ordered), len(b.Ordered))
	}
	for i := range a.Ordered {
		if err := u.Unify(phase, rng, a.Ordered[i], b.Ordered[i]); err != nil {
			return err
		}
	}
	for l := range a.Mandatory {
		if _, ok := b.Mandatory[l]; !ok {
			return cerr.New(phase, cerr.UnexpectedMandatoryLabel, rng, l)
		}
	}
	for l, bt := range b.Mandatory {
		at, ok := a.Mandatory[l]
		if !ok {
			return cerr.New(phase, cerr.MissingMandatoryLabel, rng, l)
		}
		if err := u.Unify(phase, rng, at, bt); err != nil {
			return err
		}
	}
	return u.unifyRow(phase, rng, a.Optional, b.Optional)
}

// unifyVarVar handles spec §4.G step 5: both free -> merge; kind merge per
// record-kind union-with-intersection-unify rule.
func (u *Unifier) unifyVarVar(phase cerr.Phase, rng token.Range, v1, v2 *types.TVar) *cerr.CoreError {
	if v1.Cell == v2.Cell {
		return nil
	}
	if v1.Cell.State == types.StateMustBeBound && v2.Cell.State == types.StateMustBeBound {
		// Two distinct rigid cells: rigid only unifies with itself (spec
		// §4.G step 5 / line 38).
		return mismatch(phase, rng, v1, v2)
	}
	if v1.Cell.State == types.StateMustBeBound || v2.Cell.State == types.StateMustBeBound {
		// Exactly one side is rigid: the free side must link to the rigid
		// one, as a plain var-to-term bind would. A free side carrying a
		// record Kind can't be satisfied by an opaque rigid skolem (no
		// fields to check it against), so that remains a mismatch.
		free, rigid := v1, v2
		if v1.Cell.State == types.StateMustBeBound {
			free, rigid = v2, v1
		}
		if free.Cell.Kind.IsRecord {
			return mismatch(phase, rng, v1, v2)
		}
		free.Cell.State = types.StateLink
		free.Cell.Link = rigid
		return nil
	}
	merged, err := u.mergeKinds(phase, rng, v1.Cell.Kind, v2.Cell.Kind)
	if err != nil {
		return err
	}
	v2.Cell.Kind = merged
	v2.Cell.Level = minLevel(v1.Cell.Level, v2.Cell.Level)
	v1.Cell.State = types.StateLink
	v1.Cell.Link = v2
	return nil
}

func minLevel(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (u *Unifier) mergeKinds(phase cerr.Phase, rng token.Range, a, b types.Kind) (types.Kind, *cerr.CoreError) {
	if !a.IsRecord && !b.IsRecord {
		return types.Universal(), nil
	}
	merged := make(map[string]types.Type)
	for l, t := range a.Labels {
		merged[l] = t
	}
	for l, bt := range b.Labels {
		if at, ok := merged[l]; ok {
			if err := u.Unify(phase, rng, at, bt); err != nil {
				return types.Kind{}, err
			}
		} else {
			merged[l] = bt
		}
	}
	return types.RecordKind(merged), nil
}

// unifyVarTerm handles spec §4.G step 6: occurs check + level lowering,
// then (if the term is a record and the var has a RecordKind) a
// superset-and-unify check, then link.
func (u *Unifier) unifyVarTerm(phase cerr.Phase, rng token.Range, v *types.TVar, term Type) *cerr.CoreError {
	if v.Cell.State == types.StateMustBeBound {
		return mismatch(phase, rng, v, term)
	}
	if occursIn(v.Cell, term) {
		return cerr.New(phase, cerr.InclusionError, rng, v.Cell.Serial, term.String())
	}
	lowerLevels(term, v.Cell.Level)

	if v.Cell.Kind.IsRecord {
		rec, ok := term.(*types.RecordT)
		if !ok {
			return cerr.New(phase, cerr.KindContradiction, rng, v.Cell.Kind.String(), term.String())
		}
		for l, kt := range v.Cell.Kind.Labels {
			rt, ok := rec.Fields[l]
			if !ok {
				return cerr.New(phase, cerr.KindContradiction, rng, v.Cell.Kind.String(), term.String())
			}
			if err := u.Unify(phase, rng, kt, rt); err != nil {
				return err
			}
		}
	}
	v.Cell.State = types.StateLink
	v.Cell.Link = term
	return nil
}

func occursIn(cell *types.TyVarCell, t Type) bool {
	t = types.Resolve(t)
	switch a := t.(type) {
	case *types.TVar:
		return a.Cell == cell
	case *types.Product:
		for _, e := range a.Elements {
			if occursIn(cell, e) {
				return true
			}
		}
	case *types.RecordT:
		for _, e := range a.Fields {
			if occursIn(cell, e) {
				return true
			}
		}
	case *types.Data:
		for _, e := range a.Args {
			if occursIn(cell, e) {
				return true
			}
		}
	case *types.Func:
		for _, e := range a.Domain.Ordered {
			if occursIn(cell, e) {
				return true
			}
		}
		for _, e := range a.Domain.Mandatory {
			if occursIn(cell, e) {
				return true
			}
		}
		if a.Eff != nil && occursIn(cell, a.Eff) {
			return true
		}
		return occursIn(cell, a.Codomain)
	case *types.Pid:
		return occursIn(cell, a.Elem)
	case *types.Format:
		return occursIn(cell, a.Holes)
	case *types.Frozen:
		return occursIn(cell, a.Receive) || occursIn(cell, a.Return)
	}
	return false
}

// lowerLevels lowers every free variable reachable from t to min(its own
// level, lvl); this pass must not short-circuit (spec §4.G step 6).
func lowerLevels(t Type, lvl int) {
	t = types.Resolve(t)
	switch a := t.(type) {
	case *types.TVar:
		if a.Cell.State == types.StateFree && lvl < a.Cell.Level {
			a.Cell.Level = lvl
		}
	case *types.Product:
		for _, e := range a.Elements {
			lowerLevels(e, lvl)
		}
	case *types.RecordT:
		for _, e := range a.Fields {
			lowerLevels(e, lvl)
		}
	case *types.Data:
		for _, e := range a.Args {
			lowerLevels(e, lvl)
		}
	case *types.Func:
		for _, e := range a.Domain.Ordered {
			lowerLevels(e, lvl)
		}
		for _, e := range a.Domain.Mandatory {
			lowerLevels(e, lvl)
		}
		lowerRowLevels(a.Domain.Optional, lvl)
		if a.Eff != nil {
			lowerLevels(a.Eff, lvl)
		}
		lowerLevels(a.Codomain, lvl)
	case *types.Pid:
		lowerLevels(a.Elem, lvl)
	case *types.Format:
		lowerLevels(a.Holes, lvl)
	case *types.Frozen:
		lowerLevels(a.Receive, lvl)
		lowerLevels(a.Return, lvl)
	}
}

func lowerRowLevels(r types.Row, lvl int) {
	if r == nil {
		return
	}
	r = types.ResolveRow(r)
	switch a := r.(type) {
	case *types.VarRow:
		if a.Cell.State == types.StateFree && lvl < a.Cell.Level {
			a.Cell.Level = lvl
		}
	case *types.FixedRow:
		for _, t := range a.Labels {
			lowerLevels(t, lvl)
		}
	}
}

// UnifyRow exposes row unification to callers outside this package (the
// checker needs it directly for call-site optional-argument matching,
// spec §4.J Apply).
func (u *Unifier) UnifyRow(phase cerr.Phase, rng token.Range, a, b types.Row) *cerr.CoreError {
	return u.unifyRow(phase, rng, a, b)
}

// unifyRow unifies two optional-argument rows (spec §4.G step 7): fixed
// rows must have identical label sets with pairwise-unifying types; a
// fixed row against a free row variable checks the variable's
// accumulated required-label Kind is a subset and links it; two row
// variables merge their required-label kinds exactly like unifyVarVar.
func (u *Unifier) unifyRow(phase cerr.Phase, rng token.Range, a, b types.Row) *cerr.CoreError {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return cerr.New(phase, cerr.InclusionRowError, rng, "nil", "row")
	}
	a = types.ResolveRow(a)
	b = types.ResolveRow(b)

	av, aIsVar := a.(*types.VarRow)
	bv, bIsVar := b.(*types.VarRow)

	switch {
	case aIsVar && bIsVar:
		if av.Cell == bv.Cell {
			return nil
		}
		merged, err := u.mergeKinds(phase, rng, av.Cell.Kind, bv.Cell.Kind)
		if err != nil {
			return err
		}
		bv.Cell.Kind = merged
		if bv.Cell.Level > minLevel(av.Cell.Level, bv.Cell.Level) {
			bv.Cell.Level = minLevel(av.Cell.Level, bv.Cell.Level)
		}
		av.Cell.State = types.StateLink
		av.Cell.Link = b
		return nil
	case aIsVar:
		return u.unifyRowVarFixed(phase, rng, av, b)
	case bIsVar:
		return u.unifyRowVarFixed(phase, rng, bv, a)
	}

	fa, fb := a.(*types.FixedRow), b.(*types.FixedRow)
	if len(fa.Labels) != len(fb.Labels) {
		return cerr.New(phase, cerr.InclusionRowError, rng, a.String(), b.String())
	}
	for l, at := range fa.Labels {
		bt, ok := fb.Labels[l]
		if !ok {
			return cerr.New(phase, cerr.UnexpectedOptionalLabel, rng, l)
		}
		if err := u.Unify(phase, rng, at, bt); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unifier) unifyRowVarFixed(phase cerr.Phase, rng token.Range, v *types.VarRow, fixed types.Row) *cerr.CoreError {
	if v.Cell.State == types.StateMustBeBound {
		return cerr.New(phase, cerr.InclusionRowError, rng, v.String(), fixed.String())
	}
	f := fixed.(*types.FixedRow)
	for l, kt := range v.Cell.Kind.Labels {
		ft, ok := f.Labels[l]
		if !ok {
			return cerr.New(phase, cerr.MissingMandatoryLabel, rng, l)
		}
		if err := u.Unify(phase, rng, kt, ft); err != nil {
			return err
		}
	}
	for _, t := range f.Labels {
		lowerLevels(t, v.Cell.Level)
	}
	v.Cell.State = types.StateLink
	v.Cell.Link = fixed
	return nil
}

func mismatch(phase cerr.Phase, rng token.Range, a, b Type) *cerr.CoreError {
	return cerr.New(phase, cerr.ContradictionError, rng, b.String(), a.String())
}
