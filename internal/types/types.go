// Package types is component B: the mono/poly type representation, with
// union-find cells carrying levels for type variables and row variables.
//
// Grounded on the teacher's internal/typesystem/types.go for the Type
// interface shape, String() conventions, and sorted-map-keys-for-
// determinism idiom — but the representation strategy itself is replaced:
// the teacher's design is substitution-based (Subst map[string]Type,
// Apply, Compose); this package instead mutates cells in place and tracks
// a generalization level on every free variable, following
// wdamron/poly's infer.go (other_examples/2a0dd592_mafm-poly__infer.go.go)
// and sunholo-data-ailang's Row/RowVar shape
// (other_examples/cc8feb83_sunholo-data-ailang__internal-types-types_v2.go.go).
// See DESIGN.md for the full grounding ledger.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sestcore/sest/internal/ids"
)

// Type is any mono or poly type leaf/node. Bound leaves (TBound) only ever
// appear inside a Scheme's Body; every other constructor may appear in
// either a monotype or (transiently, before generalization) a poly type
// under construction.
type Type interface {
	isType()
	String() string
}

// ---- Kinds (component C's in-memory counterpart; the stores in
// internal/kinds hold the authoritative bound-id -> Kind mapping) ----

// Kind is a base kind: Universal, or Record(label -> type) — the set of
// labels (and their types) a free type/row variable is already known to
// require. Two free variables with Record kinds merge their label sets on
// unification (spec §4.G step 5); a Universal kind is absorbed into any
// Record kind it meets.
type Kind struct {
	IsRecord bool
	Labels   map[string]Type // nil/empty when !IsRecord
}

// Universal is the trivial kind (no known label requirements).
func Universal() Kind { return Kind{} }

// RecordKind builds a Record(label->type) kind.
func RecordKind(labels map[string]Type) Kind { return Kind{IsRecord: true, Labels: labels} }

func (k Kind) String() string {
	if !k.IsRecord {
		return "*"
	}
	keys := sortedKeys(k.Labels)
	parts := make([]string, len(keys))
	for i, l := range keys {
		parts[i] = fmt.Sprintf("%s: %s", l, k.Labels[l].String())
	}
	return "{" + strings.Join(parts, ", ") + ", ..}"
}

func sortedKeys(m map[string]Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- Type IDs: three disjoint namespaces (spec §3) ----

type IDNamespace int

const (
	SynonymNS IDNamespace = iota
	VariantNS
	OpaqueNS
)

// TypeID is nominal identity for a synonym, variant, or opaque type:
// equal iff Namespace and Serial match. Path is carried only for pretty
// names, never compared.
type TypeID struct {
	Namespace IDNamespace
	Serial    uint64
	Path      []string
	Name      string
}

func (a TypeID) Equal(b TypeID) bool { return a.Namespace == b.Namespace && a.Serial == b.Serial }

func SynonymTypeID(id ids.SynonymID, path []string, name string) TypeID {
	return TypeID{Namespace: SynonymNS, Serial: uint64(id), Path: path, Name: name}
}
func VariantTypeID(id ids.VariantID, path []string, name string) TypeID {
	return TypeID{Namespace: VariantNS, Serial: uint64(id), Path: path, Name: name}
}
func OpaqueTypeID(id ids.OpaqueID, path []string, name string) TypeID {
	return TypeID{Namespace: OpaqueNS, Serial: uint64(id), Path: path, Name: name}
}

// ---- Base scalars ----

type BaseScalar struct{ Name string }

func (b *BaseScalar) isType()        {}
func (b *BaseScalar) String() string { return b.Name }

var (
	Unit   = &BaseScalar{Name: "unit"}
	Bool   = &BaseScalar{Name: "bool"}
	Int    = &BaseScalar{Name: "int"}
	Float  = &BaseScalar{Name: "float"}
	Char   = &BaseScalar{Name: "char"}
	Binary = &BaseScalar{Name: "binary"}
)

// ---- Products, records, data types ----

// Product is a tuple of >= 2 types.
type Product struct{ Elements []Type }

func (p *Product) isType() {}
func (p *Product) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RecordT is a *closed* record type: every label is known. Open/
// unconstrained records are represented instead by a free TVar carrying a
// Record Kind (see Kind, above) until unification pins down every label.
type RecordT struct{ Fields map[string]Type }

func (r *RecordT) isType() {}
func (r *RecordT) String() string {
	keys := sortedKeys(r.Fields)
	parts := make([]string, len(keys))
	for i, l := range keys {
		parts[i] = fmt.Sprintf("%s: %s", l, r.Fields[l].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Data is a synonym or variant application: a type ID plus argument types.
type Data struct {
	ID   TypeID
	Args []Type
}

func (d *Data) isType() {}
func (d *Data) String() string {
	if len(d.Args) == 0 {
		return d.ID.Name
	}
	parts := make([]string, len(d.Args))
	for i, a := range d.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", d.ID.Name, strings.Join(parts, ", "))
}

// ---- Domains, functions, effects ----

// Domain is the argument-shape of a function/effect type: an ordered list,
// a mandatory-labeled map, and an optional row (spec §3).
type Domain struct {
	Ordered   []Type
	Mandatory map[string]Type
	Optional  Row
}

func (d Domain) String() string {
	parts := make([]string, 0, len(d.Ordered)+len(d.Mandatory))
	for _, t := range d.Ordered {
		parts = append(parts, t.String())
	}
	for _, l := range sortedKeys(d.Mandatory) {
		parts = append(parts, fmt.Sprintf("~%s: %s", l, d.Mandatory[l].String()))
	}
	if d.Optional != nil {
		parts = append(parts, "?"+d.Optional.String())
	}
	return strings.Join(parts, ", ")
}

// Func is a function or effect type: `domain -> codomain` (Eff == nil) or
// `domain -[eff]-> codomain` (Eff != nil, the marker type of the receive
// type of the enclosing process, per the Effect glossary entry).
type Func struct {
	Domain   Domain
	Eff      Type // nil => pure
	Codomain Type
}

func (f *Func) isType() {}
func (f *Func) String() string {
	if f.Eff == nil {
		return fmt.Sprintf("(%s) -> %s", f.Domain.String(), f.Codomain.String())
	}
	return fmt.Sprintf("(%s) -[%s]-> %s", f.Domain.String(), f.Eff.String(), f.Codomain.String())
}

// Pid is `pid<T>`.
type Pid struct{ Elem Type }

func (p *Pid) isType()        {}
func (p *Pid) String() string { return fmt.Sprintf("pid<%s>", p.Elem.String()) }

// Format is the inferred type of a format-string literal: unit for no
// holes, the single hole's type for one, a product of hole types for more
// (spec §4.J Literal).
type Format struct{ Holes Type }

func (f *Format) isType()        {}
func (f *Format) String() string { return fmt.Sprintf("format(%s)", f.Holes.String()) }

// Frozen is the type of a frozen closure built by freeze/freeze-update
// (spec §4.J): the remaining un-filled holes, the receive type, and the
// eventual return type.
type Frozen struct {
	Rest    Domain
	Receive Type
	Return  Type
}

func (fr *Frozen) isType() {}
func (fr *Frozen) String() string {
	return fmt.Sprintf("frozen{%s; recv=%s; ret=%s}", fr.Rest.String(), fr.Receive.String(), fr.Return.String())
}

// ---- Type variables: union-find cells with levels ----

type VarState int

const (
	StateFree VarState = iota
	StateLink
	StateMustBeBound
)

// TyVarCell is a mutable union-find cell. Once State becomes StateLink, it
// is never reset (spec §3 invariant); Link holds the resolved type.
type TyVarCell struct {
	Serial ids.TyVarID
	State  VarState
	Level  int
	Kind   Kind
	Link   Type
}

// TVar wraps a *TyVarCell as a Type leaf.
type TVar struct{ Cell *TyVarCell }

func (v *TVar) isType() {}
func (v *TVar) String() string {
	if v.Cell.State == StateLink {
		return Resolve(v).String()
	}
	prefix := "t"
	if v.Cell.State == StateMustBeBound {
		prefix = "r"
	}
	if IsTestMode {
		return fmt.Sprintf("'%s%d", prefix, v.Cell.Serial)
	}
	return fmt.Sprintf("'_%s%d@%d", prefix, v.Cell.Serial, v.Cell.Level)
}

// IsTestMode is this package's own counterpart of config.IsTestMode, kept
// separate to avoid importing internal/config; nothing copies the config
// value into it. When set, TVar.String prints 't<serial> without the level.
var IsTestMode = false

// NewFreeVar allocates a fresh free type variable at the given level.
func NewFreeVar(s *ids.Supply, level int) *TVar {
	return &TVar{Cell: &TyVarCell{Serial: s.FreshTyVar(), State: StateFree, Level: level}}
}

// NewFreeVarKinded allocates a fresh free type variable at the given level
// carrying an initial Kind (e.g. a Record kind for `r.label` access, spec
// §4.J).
func NewFreeVarKinded(s *ids.Supply, level int, k Kind) *TVar {
	return &TVar{Cell: &TyVarCell{Serial: s.FreshTyVar(), State: StateFree, Level: level, Kind: k}}
}

// NewRigidVar allocates a MustBeBound (rigid) type variable, for a
// hand-written type parameter of an enclosing binder (spec §4.I).
func NewRigidVar(s *ids.Supply, level int) *TVar {
	return &TVar{Cell: &TyVarCell{Serial: s.FreshTyVar(), State: StateMustBeBound, Level: level}}
}

// Resolve follows Link chains to the representative type. If the leaf is a
// still-free (or rigid) variable, Resolve returns the TVar itself.
func Resolve(t Type) Type {
	for {
		v, ok := t.(*TVar)
		if !ok || v.Cell.State != StateLink {
			return t
		}
		t = v.Cell.Link
	}
}

// ---- Rows (component B, optional-argument rows) ----

// Row is either a Fixed label map or a row-variable cell (spec §3).
type Row interface {
	isRow()
	String() string
}

// FixedRow is a closed label -> type map.
type FixedRow struct{ Labels map[string]Type }

func (r *FixedRow) isRow() {}
func (r *FixedRow) String() string {
	keys := sortedKeys(r.Labels)
	parts := make([]string, len(keys))
	for i, l := range keys {
		parts[i] = fmt.Sprintf("%s: %s", l, r.Labels[l].String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RowVarCell is the row analogue of TyVarCell.
type RowVarCell struct {
	Serial ids.RowVarID
	State  VarState
	Level  int
	Kind   Kind // required labels accumulated on this row variable so far
	Link   Row
}

// VarRow wraps a *RowVarCell as a Row leaf.
type VarRow struct{ Cell *RowVarCell }

func (v *VarRow) isRow() {}
func (v *VarRow) String() string {
	if v.Cell.State == StateLink {
		return ResolveRow(v).String()
	}
	prefix := "row"
	if v.Cell.State == StateMustBeBound {
		prefix = "rrow"
	}
	return fmt.Sprintf("..%s%d", prefix, v.Cell.Serial)
}

func NewFreeRow(s *ids.Supply, level int) *VarRow {
	return &VarRow{Cell: &RowVarCell{Serial: s.FreshRowVar(), State: StateFree, Level: level}}
}

func NewRigidRow(s *ids.Supply, level int) *VarRow {
	return &VarRow{Cell: &RowVarCell{Serial: s.FreshRowVar(), State: StateMustBeBound, Level: level}}
}

// ResolveRow follows Link chains to the representative row.
func ResolveRow(r Row) Row {
	for {
		v, ok := r.(*VarRow)
		if !ok || v.Cell.State != StateLink {
			return r
		}
		r = v.Cell.Link
	}
}

// ---- Poly types ----

// Scheme is a generalized polytype: Vars/RowVars are the quantified bound
// IDs (spec's `Bound(id)` leaves); their Kind lives in internal/kinds
// (component C), not inline here. Body may reference TBound/BoundRow
// leaves for each quantified id.
type Scheme struct {
	Vars    []ids.BoundID
	RowVars []ids.BoundID
	Body    Type
}

func (s *Scheme) String() string {
	if len(s.Vars) == 0 && len(s.RowVars) == 0 {
		return s.Body.String()
	}
	names := make([]string, 0, len(s.Vars)+len(s.RowVars))
	for _, v := range s.Vars {
		names = append(names, fmt.Sprintf("a%d", v))
	}
	for _, v := range s.RowVars {
		names = append(names, fmt.Sprintf("row%d", v))
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), s.Body.String())
}

// TBound is a bound-variable leaf inside a Scheme's Body.
type TBound struct{ ID ids.BoundID }

func (b *TBound) isType()        {}
func (b *TBound) String() string { return fmt.Sprintf("a%d", b.ID) }

// BoundRow is a bound row-variable leaf inside a Scheme's Body.
type BoundRow struct{ ID ids.BoundID }

func (b *BoundRow) isRow()         {}
func (b *BoundRow) String() string { return fmt.Sprintf("..row%d", b.ID) }

// Mono wraps a monotype with no quantifiers, convenient for environment
// entries that are not let-polymorphic (e.g. lambda parameters).
func Mono(t Type) *Scheme { return &Scheme{Body: t} }
