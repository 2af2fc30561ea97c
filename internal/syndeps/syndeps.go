// Package syndeps is component F: the synonym-dependency graph and its
// cycle check (spec §4.F) — every synonym's body may reference other
// synonyms, and a cycle through those references (with no intervening
// variant/opaque type, which would break the infinite-expansion chain)
// is a CyclicSynonymTypeDefinition error.
//
// Grounded on the teacher's internal/typesystem/types.go alias-resolution
// walk (the same code that would loop forever on a cyclic alias), turned
// into an explicit graph-plus-DFS cycle check run once before any
// expansion is attempted, rather than relying on a recursion-depth guard
// discovered lazily at unification time.
package syndeps

import (
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/types"
)

// Graph is a directed graph over synonym IDs: an edge A -> B means A's
// body directly mentions synonym B.
type Graph struct {
	edges map[ids.SynonymID][]ids.SynonymID
	order []ids.SynonymID
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[ids.SynonymID][]ids.SynonymID)}
}

// AddSynonym registers id (even with no outgoing edges yet) so isolated
// synonyms still appear in DetectCycles' traversal order.
func (g *Graph) AddSynonym(id ids.SynonymID) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = nil
		g.order = append(g.order, id)
	}
}

// AddEdge records that from's body directly mentions to.
func (g *Graph) AddEdge(from, to ids.SynonymID) {
	g.AddSynonym(from)
	g.AddSynonym(to)
	g.edges[from] = append(g.edges[from], to)
}

// CollectSynonymRefs walks a type body and records every direct reference
// to a synonym ID as an edge from `from`. Call once per synonym
// definition after all synonyms in a `type ... and ...` group are
// registered, so forward references within the group resolve.
func (g *Graph) CollectSynonymRefs(from ids.SynonymID, body types.Type) {
	walkType(body, func(id types.TypeID) {
		if id.Namespace == types.SynonymNS {
			g.AddEdge(from, ids.SynonymID(id.Serial))
		}
	})
}

func walkType(t types.Type, visit func(types.TypeID)) {
	switch a := t.(type) {
	case *types.Data:
		visit(a.ID)
		for _, arg := range a.Args {
			walkType(arg, visit)
		}
	case *types.Product:
		for _, e := range a.Elements {
			walkType(e, visit)
		}
	case *types.RecordT:
		for _, e := range a.Fields {
			walkType(e, visit)
		}
	case *types.Func:
		for _, o := range a.Domain.Ordered {
			walkType(o, visit)
		}
		for _, m := range a.Domain.Mandatory {
			walkType(m, visit)
		}
		walkRow(a.Domain.Optional, visit)
		if a.Eff != nil {
			walkType(a.Eff, visit)
		}
		walkType(a.Codomain, visit)
	case *types.Pid:
		walkType(a.Elem, visit)
	}
}

func walkRow(r types.Row, visit func(types.TypeID)) {
	if fr, ok := r.(*types.FixedRow); ok {
		for _, t := range fr.Labels {
			walkType(t, visit)
		}
	}
}

// DetectCycles runs a DFS over every registered synonym in registration
// order and returns a CyclicSynonymTypeDefinition CoreError for the first
// cycle found, or nil if the graph is acyclic.
func (g *Graph) DetectCycles(rng token.Range) *cerr.CoreError {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ids.SynonymID]int, len(g.order))
	var path []ids.SynonymID

	var visit func(id ids.SynonymID) *cerr.CoreError
	visit = func(id ids.SynonymID) *cerr.CoreError {
		color[id] = gray
		path = append(path, id)
		for _, next := range g.edges[id] {
			switch color[next] {
			case white:
				if err := visit(next); err != nil {
					return err
				}
			case gray:
				cycle := make([]any, 0, len(path)+1)
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				for _, p := range path[start:] {
					cycle = append(cycle, uint64(p))
				}
				cycle = append(cycle, uint64(next))
				return cerr.New(cerr.PhaseElaborate, cerr.CyclicSynonymTypeDefinition, rng, cycle)
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
