// Package kinds is component C: side tables mapping free/bound row IDs to
// their label-kind, and bound type IDs to their base kind.
//
// Grounded on the teacher's internal/typesystem/kinds.go for the
// Universal/Record kind vocabulary, generalized from a single global table
// to a Context-scoped store (spec §9: shared state is process-wide tables
// passed explicitly, never a hidden singleton).
package kinds

import (
	"fmt"

	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/types"
)

// Store holds the write-once-per-key tables for bound type/row kinds. A
// get on a missing key and a register on a present key are both
// programmer errors (spec §5: "a register_* with a key already present is
// a programmer error (assertion failure); a get_* on a missing key is
// likewise an assertion failure").
type Store struct {
	boundTypeKind map[ids.BoundID]types.Kind
	boundRowKind  map[ids.BoundID]types.Kind
}

func NewStore() *Store {
	return &Store{
		boundTypeKind: make(map[ids.BoundID]types.Kind),
		boundRowKind:  make(map[ids.BoundID]types.Kind),
	}
}

func (s *Store) RegisterBoundType(id ids.BoundID, k types.Kind) {
	if _, ok := s.boundTypeKind[id]; ok {
		panic(fmt.Sprintf("kinds: bound type id %d already registered", id))
	}
	s.boundTypeKind[id] = k
}

func (s *Store) RegisterBoundRow(id ids.BoundID, k types.Kind) {
	if _, ok := s.boundRowKind[id]; ok {
		panic(fmt.Sprintf("kinds: bound row id %d already registered", id))
	}
	s.boundRowKind[id] = k
}

func (s *Store) BoundTypeKind(id ids.BoundID) types.Kind {
	k, ok := s.boundTypeKind[id]
	if !ok {
		panic(fmt.Sprintf("kinds: bound type id %d not registered", id))
	}
	return k
}

func (s *Store) BoundRowKind(id ids.BoundID) types.Kind {
	k, ok := s.boundRowKind[id]
	if !ok {
		panic(fmt.Sprintf("kinds: bound row id %d not registered", id))
	}
	return k
}
