// Package ast defines the tree shapes produced by internal/parser and
// consumed by internal/checker (component J) and internal/modelab
// (component K). Every node carries a token.Range so typed errors
// (internal/cerr) can always report a source location, per spec §3/§7.
//
// The AST is intentionally small: lexing and parsing are external
// collaborators to the core (SPEC_FULL.md §1), and only the shape consumed
// by the core is specified. This file holds top-level declarations, module
// expressions, and signature expressions (component K's input).
package ast

import "github.com/sestcore/sest/internal/token"

// Program is the root of a single parsed source file: a sequence of
// top-level declarations, threaded through the module elaborator in order.
type Program struct {
	File  string
	Decls []Decl
}

// Decl is a top-level declaration inside a structure body or a program.
type Decl interface {
	declNode()
	Range() token.Range
}

// ValBinding is one name bound by `let`/`let rec`, possibly with function
// sugar `name(p1, p2) = body` desugared by the parser into Params/Body.
type ValBinding struct {
	Pos    token.Range
	Name   string
	Params []Param // non-nil for function-sugar bindings
	Body   Expr
}

// DeclLet is `let [rec] b1 and b2 and ...` — an internal value binding
// group (spec §4.K's BindVal "internal" case).
type DeclLet struct {
	Pos      token.Range
	Rec      bool
	Bindings []*ValBinding
}

func (d *DeclLet) declNode()          {}
func (d *DeclLet) Range() token.Range { return d.Pos }

// DeclExternal is `external name : Type = "arity-stamp"` (spec §4.K's
// BindVal "external" case): declared here, implemented by the target
// runtime.
type DeclExternal struct {
	Pos   token.Range
	Name  string
	Type  TypeExpr
	Arity string
}

func (d *DeclExternal) declNode()          {}
func (d *DeclExternal) Range() token.Range { return d.Pos }

// TypeDef is one member of a `type ... and ...` group: either a synonym
// (Body != nil, Ctors == nil) or a variant (Ctors != nil, Body == nil).
type TypeDef struct {
	Pos    token.Range
	Name   string
	Params []string // lowercase type-parameter names, bound in Body/Ctors
	Body   TypeExpr
	Ctors  []CtorDef
}

// CtorDef is one constructor of a variant type: `Name(T1, T2, ...)`.
type CtorDef struct {
	Pos    token.Range
	Name   string
	Fields []TypeExpr
}

// DeclType is a `type a = ... and b = ...` group (spec §4.F/§4.K BindType).
type DeclType struct {
	Pos   token.Range
	Group []*TypeDef
}

func (d *DeclType) declNode()          {}
func (d *DeclType) Range() token.Range { return d.Pos }

// DeclModule is `module M = <module-expr> [: <sig-expr>]`.
type DeclModule struct {
	Pos  token.Range
	Name string
	Mod  ModuleExpr
	Sig  SigExpr // nil if unascribed
}

func (d *DeclModule) declNode()          {}
func (d *DeclModule) Range() token.Range { return d.Pos }

// DeclSignature is `signature S = <sig-expr>` (spec §4.K BindSig).
type DeclSignature struct {
	Pos  token.Range
	Name string
	Sig  SigExpr
}

func (d *DeclSignature) declNode()          {}
func (d *DeclSignature) Range() token.Range { return d.Pos }

// DeclInclude is `include <module-expr>` (spec §4.K BindInclude): merges
// the included structure's signature record into the enclosing one.
type DeclInclude struct {
	Pos token.Range
	Mod ModuleExpr
}

func (d *DeclInclude) declNode()          {}
func (d *DeclInclude) Range() token.Range { return d.Pos }

// ModuleExpr is the module-level syntax elaborated by internal/modelab.
type ModuleExpr interface {
	moduleExprNode()
	Range() token.Range
}

// MEVar is a bare module-name reference: `ModVar(m)`.
type MEVar struct {
	Pos  token.Range
	Name string
}

func (m *MEVar) moduleExprNode()     {}
func (m *MEVar) Range() token.Range { return m.Pos }

// MEStruct is `struct decl* end`: `ModBinds(bs)`.
type MEStruct struct {
	Pos   token.Range
	Decls []Decl
}

func (m *MEStruct) moduleExprNode()     {}
func (m *MEStruct) Range() token.Range { return m.Pos }

// MEProj is `M.m`: `ModProj(M, m)`.
type MEProj struct {
	Pos  token.Range
	Mod  ModuleExpr
	Name string
}

func (m *MEProj) moduleExprNode()     {}
func (m *MEProj) Range() token.Range { return m.Pos }

// MEFunctor is `fun(X : S) -> Body`: `ModFunctor(X:S) -> M`. Only
// first-order functors are supported (spec §1 Non-goals), so Body must not
// itself be an MEFunctor whose parameter is a functor signature — enforced
// by internal/modelab, not by this node shape.
type MEFunctor struct {
	Pos      token.Range
	Param    string
	ParamSig SigExpr
	Body     ModuleExpr
}

func (m *MEFunctor) moduleExprNode()     {}
func (m *MEFunctor) Range() token.Range { return m.Pos }

// MEApply is `F(A)`: `ModApply(F, A)`.
type MEApply struct {
	Pos  token.Range
	Fn   ModuleExpr
	Arg  ModuleExpr
}

func (m *MEApply) moduleExprNode()     {}
func (m *MEApply) Range() token.Range { return m.Pos }

// MECoerce is `(M : S)`: a sealed module expression, `ModCoerce(M, S)`.
type MECoerce struct {
	Pos token.Range
	Mod ModuleExpr
	Sig SigExpr
}

func (m *MECoerce) moduleExprNode()     {}
func (m *MECoerce) Range() token.Range { return m.Pos }

// SigExpr is the signature-level syntax: either a named reference or an
// inline `sig ... end` body.
type SigExpr interface {
	sigExprNode()
	Range() token.Range
}

// SEName is a reference to a previously bound `signature` name.
type SEName struct {
	Pos  token.Range
	Name string
}

func (s *SEName) sigExprNode()       {}
func (s *SEName) Range() token.Range { return s.Pos }

// SigEntry is one member of a `sig ... end` body.
type SigEntry interface {
	sigEntryNode()
	Range() token.Range
}

// SigValEntry is `val name : Type`.
type SigValEntry struct {
	Pos  token.Range
	Name string
	Type TypeExpr
}

func (s *SigValEntry) sigEntryNode()    {}
func (s *SigValEntry) Range() token.Range { return s.Pos }

// SigTypeEntry is `type t` (Def == nil: opaque) or `type t = Body`
// (transparent synonym exposed in the signature).
type SigTypeEntry struct {
	Pos    token.Range
	Name   string
	Params []string
	Def    TypeExpr // nil => opaque
}

func (s *SigTypeEntry) sigEntryNode()      {}
func (s *SigTypeEntry) Range() token.Range { return s.Pos }

// SigModuleEntry is `module M : S`.
type SigModuleEntry struct {
	Pos  token.Range
	Name string
	Sig  SigExpr
}

func (s *SigModuleEntry) sigEntryNode()      {}
func (s *SigModuleEntry) Range() token.Range { return s.Pos }

// SigSignatureEntry is `signature S = Sig` nested inside another signature.
type SigSignatureEntry struct {
	Pos  token.Range
	Name string
	Sig  SigExpr
}

func (s *SigSignatureEntry) sigEntryNode()      {}
func (s *SigSignatureEntry) Range() token.Range { return s.Pos }

// SESig is `sig entry* end`.
type SESig struct {
	Pos     token.Range
	Entries []SigEntry
}

func (s *SESig) sigExprNode()       {}
func (s *SESig) Range() token.Range { return s.Pos }

// SEFunctor is `fun(X : Dom) -> Cod`, the signature of a functor value
// (spec §3's `Functor{opaques, domain, codomain, closure}` shape, minus the
// closure which is computed during elaboration, not parsed).
type SEFunctor struct {
	Pos    token.Range
	Param  string
	Domain SigExpr
	Cod    SigExpr
}

func (s *SEFunctor) sigExprNode()       {}
func (s *SEFunctor) Range() token.Range { return s.Pos }

// SEWith is `S with type path = Type` (`with type` refinement, spec §1/§4.K).
type SEWith struct {
	Pos  token.Range
	Sig  SigExpr
	Path []string
	Type TypeExpr
}

func (s *SEWith) sigExprNode()       {}
func (s *SEWith) Range() token.Range { return s.Pos }
