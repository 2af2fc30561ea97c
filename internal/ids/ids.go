// Package ids is component A: fresh monotonically increasing identifiers
// for every namespace the core needs. Grounded on the teacher's
// typesystem.uniqueTVars small-integer-identity pattern, generalized into a
// dedicated counter-per-namespace struct held on a Context rather than a
// package-level singleton (spec §9: "do not expose a hidden singleton; pass
// the context explicitly").
package ids

import "github.com/google/uuid"

// TyVarID, RowVarID, BoundID, OpaqueID, SynonymID, VariantID, CtorID,
// LocalName and GlobalName are disjoint namespaces (spec §3's "three
// disjoint namespaces" extended to every ID kind the core allocates).
type (
	TyVarID  uint64
	RowVarID uint64
	BoundID  uint64
	OpaqueID uint64
	SynonymID uint64
	VariantID uint64
	CtorID    uint64
	LocalName  uint64
	GlobalName uint64
)

// Supply hands out fresh IDs for every namespace. One Supply belongs to
// exactly one Context (see internal/checker); tests construct a fresh
// Supply per case.
type Supply struct {
	// Arena is a fresh UUID stamped on each Supply, so IDs minted by two
	// independently-created Supplies can be told apart; internal/store (the
	// sqlite-backed persistence layer, SPEC_FULL.md §2.2) records it beside
	// every entry it stores.
	Arena uuid.UUID

	nextTyVar    uint64
	nextRowVar   uint64
	nextBound    uint64
	nextOpaque   uint64
	nextSynonym  uint64
	nextVariant  uint64
	nextCtor     uint64
	nextLocal    uint64
	nextGlobal   uint64
}

// NewSupply creates a Supply with a fresh arena tag.
func NewSupply() *Supply {
	return &Supply{Arena: uuid.New()}
}

func (s *Supply) FreshTyVar() TyVarID     { s.nextTyVar++; return TyVarID(s.nextTyVar) }
func (s *Supply) FreshRowVar() RowVarID   { s.nextRowVar++; return RowVarID(s.nextRowVar) }
func (s *Supply) FreshBound() BoundID     { s.nextBound++; return BoundID(s.nextBound) }
func (s *Supply) FreshOpaque() OpaqueID   { s.nextOpaque++; return OpaqueID(s.nextOpaque) }
func (s *Supply) FreshSynonym() SynonymID { s.nextSynonym++; return SynonymID(s.nextSynonym) }
func (s *Supply) FreshVariant() VariantID { s.nextVariant++; return VariantID(s.nextVariant) }
func (s *Supply) FreshCtor() CtorID       { s.nextCtor++; return CtorID(s.nextCtor) }
func (s *Supply) FreshLocalName() LocalName   { s.nextLocal++; return LocalName(s.nextLocal) }
func (s *Supply) FreshGlobalName() GlobalName { s.nextGlobal++; return GlobalName(s.nextGlobal) }
