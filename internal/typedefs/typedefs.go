// Package typedefs is component D: the global type-definition store —
// synonym ID -> (type parameters, body), variant ID -> (type parameters,
// constructor map).
//
// Grounded on the teacher's internal/typesystem/types.go TCon.
// UnderlyingType/TypeParams alias-expansion fields, generalized into a
// dedicated store keyed by the nominal IDs of internal/types rather than
// carried inline on the type itself (spec §3: "Type IDs... equality is
// nominal by a monotonic serial number").
package typedefs

import (
	"fmt"

	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/types"
)

// SynonymDef is a transparent type abbreviation: `type name<params> = Body`.
type SynonymDef struct {
	ID     ids.SynonymID
	Path   []string
	Name   string
	Params []ids.BoundID // rigid parameter ids bound inside Body
	Body   types.Type
}

// CtorEntry is one constructor of a variant: owning variant ID,
// constructor ID, the variant's bound type parameters (shared across all
// constructors), and this constructor's parameter types (spec §3
// "Constructor entry").
type CtorEntry struct {
	VariantID ids.VariantID
	CtorID    ids.CtorID
	Name      string
	Params    []ids.BoundID
	Fields    []types.Type
}

// VariantDef is a nominal sum type: `type name<params> = C1(...) | C2(...)`.
type VariantDef struct {
	ID     ids.VariantID
	Path   []string
	Name   string
	Params []ids.BoundID
	Ctors  map[string]*CtorEntry // keyed by constructor name
	Order  []string              // constructor names in declaration order
}

// Store is the write-once-per-key global table (spec §5).
type Store struct {
	synonyms map[ids.SynonymID]*SynonymDef
	variants map[ids.VariantID]*VariantDef
}

func NewStore() *Store {
	return &Store{
		synonyms: make(map[ids.SynonymID]*SynonymDef),
		variants: make(map[ids.VariantID]*VariantDef),
	}
}

func (s *Store) RegisterSynonym(d *SynonymDef) {
	if _, ok := s.synonyms[d.ID]; ok {
		panic(fmt.Sprintf("typedefs: synonym id %d already registered", d.ID))
	}
	s.synonyms[d.ID] = d
}

func (s *Store) RegisterVariant(d *VariantDef) {
	if _, ok := s.variants[d.ID]; ok {
		panic(fmt.Sprintf("typedefs: variant id %d already registered", d.ID))
	}
	s.variants[d.ID] = d
}

func (s *Store) Synonym(id ids.SynonymID) *SynonymDef {
	d, ok := s.synonyms[id]
	if !ok {
		panic(fmt.Sprintf("typedefs: synonym id %d not registered", id))
	}
	return d
}

func (s *Store) Variant(id ids.VariantID) *VariantDef {
	d, ok := s.variants[id]
	if !ok {
		panic(fmt.Sprintf("typedefs: variant id %d not registered", id))
	}
	return d
}

// LookupCtor finds a constructor by name across a specific variant.
func (s *Store) LookupCtor(variant ids.VariantID, name string) (*CtorEntry, bool) {
	d := s.Variant(variant)
	c, ok := d.Ctors[name]
	return c, ok
}
