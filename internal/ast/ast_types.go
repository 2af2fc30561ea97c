package ast

import "github.com/sestcore/sest/internal/token"

// TypeExpr is the source-level type syntax translated by internal/decoder
// (component I) into internal/types.Type values.
type TypeExpr interface {
	typeExprNode()
	Range() token.Range
}

// TEName is a (possibly module-qualified, possibly applied) named type:
// `int`, `list<t>`, `X.t`, `pid<t>`. Built-in names (unit, bool, int,
// float, binary, char, pid) are recognized by internal/decoder, not here.
type TEName struct {
	Pos        token.Range
	ModulePath []string
	Name       string
	Args       []TypeExpr
}

func (t *TEName) typeExprNode()      {}
func (t *TEName) Range() token.Range { return t.Pos }

// TEVar is a lowercase type-variable reference inside a type annotation,
// e.g. `'a`. Must be bound in the enclosing binder's parameter list
// (spec §4.I).
type TEVar struct {
	Pos  token.Range
	Name string
}

func (t *TEVar) typeExprNode()      {}
func (t *TEVar) Range() token.Range { return t.Pos }

type TETuple struct {
	Pos      token.Range
	Elements []TypeExpr
}

func (t *TETuple) typeExprNode()      {}
func (t *TETuple) Range() token.Range { return t.Pos }

// TypeField is one `label: Type` entry of a record type.
type TypeField struct {
	Pos   token.Range
	Label string
	Type  TypeExpr
}

// TERecord is `{ l1: T1, l2: T2 }` (Open == false) or `{ l1: T1, .. }`
// (Open == true, a row-polymorphic annotation with a trailing `..`).
type TERecord struct {
	Pos    token.Range
	Fields []TypeField
	Open   bool
}

func (t *TERecord) typeExprNode()      {}
func (t *TERecord) Range() token.Range { return t.Pos }

// TEDomain is the argument-shape of a function/effect type: an ordered
// list, a mandatory-labeled map, and whether an optional row is present
// (and if so, its fixed labels, if any were annotated).
type TEDomain struct {
	Pos        token.Range
	Ordered    []TypeExpr
	Mandatory  []TypeField
	HasOptional bool
	Optional   []TypeField
}

// TEFunc is `Domain -> Codomain`. Effect != nil names an effectful arrow's
// effect type; internal/parser accepts `Domain ~> Codomain` but builds the
// same node as for `->` and never sets Effect.
type TEFunc struct {
	Pos      token.Range
	Domain   TEDomain
	Effect   TypeExpr // nil for pure arrows
	Codomain TypeExpr
}

func (t *TEFunc) typeExprNode()      {}
func (t *TEFunc) Range() token.Range { return t.Pos }

// TEPid is `pid<T>`.
type TEPid struct {
	Pos   token.Range
	Inner TypeExpr
}

func (t *TEPid) typeExprNode()      {}
func (t *TEPid) Range() token.Range { return t.Pos }
