// Package env is component E: an ordered signature record (the runtime
// shape of a structure's namespace) plus a scoped type environment used
// while checking expressions.
//
// Grounded on the teacher's internal/symbols/symbol_table_core.go Symbol
// struct and its ScopeType chain (ScopePrelude/ScopeGlobal/ScopeFunction/
// ScopeBlock), generalized: the teacher keeps one flat map per scope
// (unordered, since Go code never needed to print a structure back out);
// this package keeps insertion order too, because spec §3 says "a record
// signature is an ordered sequence of entries... order is observable in
// re-elaboration and in generated output."
package env

import (
	"fmt"

	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/types"
)

// EntryKind distinguishes what a SigRecord entry binds.
type EntryKind int

const (
	ValEntry EntryKind = iota
	TypeEntry
	ModuleEntry
	SignatureEntry
	CtorEntry
)

// Entry is one ordered member of a SigRecord.
type Entry struct {
	Kind EntryKind
	Name string

	// ValEntry
	Scheme *types.Scheme

	// TypeEntry: either a transparent alias (Alias != nil) or an opaque
	// type introducing Opaque (Opaque != 0).
	TypeParams []ids.BoundID
	Alias      types.Type
	Opaque     ids.OpaqueID

	// ModuleEntry: a structure (Module != nil) or a first-order functor
	// value (Functor != nil) — exactly one is set.
	Module  *SigRecord
	Functor *FunctorValue

	// SignatureEntry
	Signature *SigRecord

	// CtorEntry: the owning variant + this constructor's field types,
	// duplicated here (beyond internal/typedefs) so a structure's public
	// namespace can be walked without a typedefs.Store in hand.
	VariantID ids.VariantID
	CtorID    ids.CtorID
	Fields    []types.Type
}

// FunctorValue is a first-order functor's representation once elaborated
// (spec §3's Functor{opaques, domain, codomain, closure}, minus the
// opaques/codomain — recomputed by internal/modelab on every application —
// since a first-order functor body may only reference names visible at its
// own definition point, Closure captures exactly that: the enclosing
// structure's namespace at the `module F = fun(...) -> ...` site).
type FunctorValue struct {
	Param    string
	ParamSig *SigRecord
	Body     ast.ModuleExpr
	Closure  *SigRecord
}

// SigRecord is an ordered sequence of Entries plus a name index for O(1)
// lookup, mirroring a structure's or signature's namespace (spec §3).
//
// Parent, when set, is the enclosing structure's namespace at the point a
// nested `module M = struct ... end` was opened (internal/modelab's
// BindModule): it is consulted only by LookupLexical, never by Lookup, so
// a structure's own Entries always reflect exactly what that structure
// itself declares — qualified projection (`M.x`) must see only M's own
// members, while unqualified references inside M's body may still see
// whatever the surrounding scope already bound (ordinary lexical nesting).
type SigRecord struct {
	Entries []*Entry
	byName  map[string]*Entry
	Parent  *SigRecord
}

func NewSigRecord() *SigRecord {
	return &SigRecord{byName: make(map[string]*Entry)}
}

// NewChildSigRecord builds an empty record lexically nested under parent.
func NewChildSigRecord(parent *SigRecord) *SigRecord {
	rec := NewSigRecord()
	rec.Parent = parent
	return rec
}

// Add appends e, returning a DuplicatedLabel-shaped error (caller attaches
// phase/range) if the name already exists in this record — collisions are
// a caller-level diagnostic, not a programmer error, since user source
// text controls what names appear here. Only this record's own names are
// checked: shadowing a parent's name is ordinary lexical shadowing, not a
// conflict (spec §4.K "disjoint union" applies within one structure body).
func (r *SigRecord) Add(e *Entry) error {
	if _, ok := r.byName[e.Name]; ok {
		return fmt.Errorf("duplicated label: %q", e.Name)
	}
	r.Entries = append(r.Entries, e)
	r.byName[e.Name] = e
	return nil
}

// Lookup finds an entry among this record's own members only, nil if
// absent. Used for qualified member projection (`M.x`), where only M's own
// signature is in play.
func (r *SigRecord) Lookup(name string) *Entry {
	return r.byName[name]
}

// LookupLexical finds name in this record, falling through to Parent when
// absent — ordinary lexical scoping for unqualified references (spec
// §4.J "name resolution follows ordinary lexical shadowing", extended to
// structure namespaces for nested module bodies).
func (r *SigRecord) LookupLexical(name string) *Entry {
	if e, ok := r.byName[name]; ok {
		return e
	}
	if r.Parent != nil {
		return r.Parent.LookupLexical(name)
	}
	return nil
}

// Scope is one level of the lexical chain used while checking expressions
// and patterns: local value bindings only (types/modules/signatures live
// in SigRecord namespaces reached via TypeEnv.Modules).
type Scope struct {
	parent *Scope
	vars   map[string]*types.Scheme
}

// TypeEnv is the full environment threaded through the checker: a scope
// chain for local values, plus the ambient structure namespace (prelude +
// whatever modules are in scope) for everything else.
type TypeEnv struct {
	scope   *Scope
	Globals *SigRecord // the root structure: primitives + user top-level decls
}

func NewTypeEnv(globals *SigRecord) *TypeEnv {
	return &TypeEnv{scope: &Scope{vars: make(map[string]*types.Scheme)}, Globals: globals}
}

// Child opens a new block/function scope (spec §4.J: "name resolution
// follows ordinary lexical shadowing").
func (e *TypeEnv) Child() *TypeEnv {
	return &TypeEnv{scope: &Scope{parent: e.scope, vars: make(map[string]*types.Scheme)}, Globals: e.Globals}
}

// Bind introduces name in the current (innermost) scope only, shadowing
// any outer binding of the same name.
func (e *TypeEnv) Bind(name string, sch *types.Scheme) {
	e.scope.vars[name] = sch
}

// Lookup walks the scope chain first, then falls back to the root
// structure's Val entries.
func (e *TypeEnv) Lookup(name string) (*types.Scheme, bool) {
	for s := e.scope; s != nil; s = s.parent {
		if sch, ok := s.vars[name]; ok {
			return sch, true
		}
	}
	if ent := e.Globals.LookupLexical(name); ent != nil && ent.Kind == ValEntry {
		return ent.Scheme, true
	}
	return nil, false
}
