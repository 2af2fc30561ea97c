package ast

import "github.com/sestcore/sest/internal/token"

// Expr is the expression-level syntax elaborated by internal/checker
// (component J).
type Expr interface {
	exprNode()
	Range() token.Range
}

// Param is one lambda/function parameter. Exactly one of the following
// holds: plain ordered (Label == ""), mandatory labeled (Label != "",
// Optional == false), or optional labeled (Optional == true; Default may be
// nil). See spec §4.J Lambda.
type Param struct {
	Pos      token.Range
	Name     string
	Label    string
	Optional bool
	Default  Expr
	Type     TypeExpr // nil if unannotated
}

// Arg is one call-site argument, mirroring Param's three shapes.
type Arg struct {
	Pos      token.Range
	Label    string
	Optional bool
	Value    Expr
}

// Ident is a variable reference, optionally module-qualified
// (`ModulePath.Name`).
type Ident struct {
	Pos        token.Range
	ModulePath []string
	Name       string
}

func (e *Ident) exprNode()        {}
func (e *Ident) Range() token.Range { return e.Pos }

type IntLit struct {
	Pos   token.Range
	Value int64
}

func (e *IntLit) exprNode()        {}
func (e *IntLit) Range() token.Range { return e.Pos }

type FloatLit struct {
	Pos   token.Range
	Value float64
}

func (e *FloatLit) exprNode()        {}
func (e *FloatLit) Range() token.Range { return e.Pos }

type BoolLit struct {
	Pos   token.Range
	Value bool
}

func (e *BoolLit) exprNode()        {}
func (e *BoolLit) Range() token.Range { return e.Pos }

type CharLit struct {
	Pos   token.Range
	Value rune
}

func (e *CharLit) exprNode()        {}
func (e *CharLit) Range() token.Range { return e.Pos }

type StringLit struct {
	Pos   token.Range
	Value string
}

func (e *StringLit) exprNode()        {}
func (e *StringLit) Range() token.Range { return e.Pos }

// FormatStringLit is a printf-style format literal; its inferred type is
// `format(T)` where T is the product of hole types (spec §4.J Literal).
type FormatStringLit struct {
	Pos   token.Range
	Value string
	Holes []byte // hole codes in order: 'c','f','e','g','s','p','w'
}

func (e *FormatStringLit) exprNode()        {}
func (e *FormatStringLit) Range() token.Range { return e.Pos }

type UnitLit struct{ Pos token.Range }

func (e *UnitLit) exprNode()        {}
func (e *UnitLit) Range() token.Range { return e.Pos }

type TupleExpr struct {
	Pos      token.Range
	Elements []Expr
}

func (e *TupleExpr) exprNode()        {}
func (e *TupleExpr) Range() token.Range { return e.Pos }

type ListNil struct{ Pos token.Range }

func (e *ListNil) exprNode()        {}
func (e *ListNil) Range() token.Range { return e.Pos }

type ListCons struct {
	Pos        token.Range
	Head, Tail Expr
}

func (e *ListCons) exprNode()        {}
func (e *ListCons) Range() token.Range { return e.Pos }

// ListLit is `[e1, e2, ...]`, list-literal sugar the parser keeps as its
// own node; internal/checker and internal/ir's Lower each expand it into
// nested ListCons ending in ListNil.
type ListLit struct {
	Pos      token.Range
	Elements []Expr
}

func (e *ListLit) exprNode()        {}
func (e *ListLit) Range() token.Range { return e.Pos }

// RecordField is one `label: value` entry of a record literal or pattern.
type RecordField struct {
	Pos   token.Range
	Label string
	Value Expr
}

// RecordLit is `{ l1: e1, l2: e2 }`, or with Spread != nil,
// `{ ..base, l1: e1 }` (record update sugar; the parser emits the
// `{ base with l1 = e1 }` form as a RecordUpdate node instead).
type RecordLit struct {
	Pos    token.Range
	Spread Expr
	Fields []RecordField
}

func (e *RecordLit) exprNode()        {}
func (e *RecordLit) Range() token.Range { return e.Pos }

// RecordAccess is `e.label` (spec §4.J: introduces a fresh record-kinded
// variable and unifies with the scrutinee's type).
type RecordAccess struct {
	Pos   token.Range
	Expr  Expr
	Label string
}

func (e *RecordAccess) exprNode()        {}
func (e *RecordAccess) Range() token.Range { return e.Pos }

// RecordUpdate is `{ e with l1 = e1, l2 = e2 }`.
type RecordUpdate struct {
	Pos    token.Range
	Base   Expr
	Fields []RecordField
}

func (e *RecordUpdate) exprNode()        {}
func (e *RecordUpdate) Range() token.Range { return e.Pos }

// Lambda is `fun(p1, p2, ...) -> body`, or `fun p -> body` for a single
// parameter.
type Lambda struct {
	Pos    token.Range
	Params []Param
	Body   Expr
}

func (e *Lambda) exprNode()        {}
func (e *Lambda) Range() token.Range { return e.Pos }

// Apply is `callee(arg1, arg2, ...)`.
type Apply struct {
	Pos    token.Range
	Callee Expr
	Args   []Arg
}

func (e *Apply) exprNode()        {}
func (e *Apply) Range() token.Range { return e.Pos }

// IfExpr is `if cond then t else f`.
type IfExpr struct {
	Pos              token.Range
	Cond, Then, Else Expr
}

func (e *IfExpr) exprNode()        {}
func (e *IfExpr) Range() token.Range { return e.Pos }

// LetExpr is `let [rec] b1 and b2 ... in body` (spec §4.J.1).
type LetExpr struct {
	Pos      token.Range
	Rec      bool
	Bindings []*ValBinding
	Body     Expr
}

func (e *LetExpr) exprNode()        {}
func (e *LetExpr) Range() token.Range { return e.Pos }

// Arm is one `| pattern -> body` branch of a case or receive expression.
type Arm struct {
	Pos     token.Range
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

// CaseExpr is `case scrutinee of arm* end`.
type CaseExpr struct {
	Pos        token.Range
	Scrutinee  Expr
	Arms       []Arm
}

func (e *CaseExpr) exprNode()        {}
func (e *CaseExpr) Range() token.Range { return e.Pos }

// ConstructorExpr is `Name(arg1, arg2, ...)` or the bare `Name` (Args ==
// nil) applying a variant constructor.
type ConstructorExpr struct {
	Pos  token.Range
	Name string
	Args []Expr
}

func (e *ConstructorExpr) exprNode()        {}
func (e *ConstructorExpr) Range() token.Range { return e.Pos }

// ReceiveExpr is `receive arm* end` (spec §4.J, effectful).
type ReceiveExpr struct {
	Pos  token.Range
	Arms []Arm
}

func (e *ReceiveExpr) exprNode()        {}
func (e *ReceiveExpr) Range() token.Range { return e.Pos }

// SpawnExpr is `spawn(body)`, producing a `pid<T>`.
type SpawnExpr struct {
	Pos  token.Range
	Body Expr
}

func (e *SpawnExpr) exprNode()        {}
func (e *SpawnExpr) Range() token.Range { return e.Pos }

// SelfExpr is the `self` primitive, producing `pid<T>` of the enclosing
// process's receive type.
type SelfExpr struct{ Pos token.Range }

func (e *SelfExpr) exprNode()        {}
func (e *SelfExpr) Range() token.Range { return e.Pos }

// SendExpr is `send(target, msg)`.
type SendExpr struct {
	Pos           token.Range
	Target, Value Expr
}

func (e *SendExpr) exprNode()        {}
func (e *SendExpr) Range() token.Range { return e.Pos }

// DoExpr is `do x = comp in rest` (spec §4.J).
type DoExpr struct {
	Pos      token.Range
	Name     string
	Comp     Expr
	Rest     Expr
}

func (e *DoExpr) exprNode()        {}
func (e *DoExpr) Range() token.Range { return e.Pos }

// FreezeExpr builds a frozen-closure value over a global name, used by the
// target runtime's hibernation/handoff primitive; typed as
// `frozen{rest, receive, return}` (spec §4.J).
type FreezeExpr struct {
	Pos        token.Range
	GlobalName string
	Args       []Expr
}

func (e *FreezeExpr) exprNode()        {}
func (e *FreezeExpr) Range() token.Range { return e.Pos }

// FreezeUpdateExpr re-applies a frozen closure to fill in more holes.
type FreezeUpdateExpr struct {
	Pos  token.Range
	Base Expr
	Args []Expr
}

func (e *FreezeUpdateExpr) exprNode()        {}
func (e *FreezeUpdateExpr) Range() token.Range { return e.Pos }

// Pattern is the pattern-level syntax used by CaseExpr/ReceiveExpr arms and
// by `let (a, b) = ...` destructuring bindings.
type Pattern interface {
	patternNode()
	Range() token.Range
}

type PVar struct {
	Pos  token.Range
	Name string
}

func (p *PVar) patternNode()        {}
func (p *PVar) Range() token.Range { return p.Pos }

type PWildcard struct{ Pos token.Range }

func (p *PWildcard) patternNode()        {}
func (p *PWildcard) Range() token.Range { return p.Pos }

// PLit is a literal pattern (int/float/bool/char/string/unit).
type PLit struct {
	Pos   token.Range
	Value Expr
}

func (p *PLit) patternNode()        {}
func (p *PLit) Range() token.Range { return p.Pos }

type PTuple struct {
	Pos      token.Range
	Elements []Pattern
}

func (p *PTuple) patternNode()        {}
func (p *PTuple) Range() token.Range { return p.Pos }

type PListNil struct{ Pos token.Range }

func (p *PListNil) patternNode()        {}
func (p *PListNil) Range() token.Range { return p.Pos }

type PCons struct {
	Pos        token.Range
	Head, Tail Pattern
}

func (p *PCons) patternNode()        {}
func (p *PCons) Range() token.Range { return p.Pos }

type PConstructor struct {
	Pos  token.Range
	Name string
	Args []Pattern
}

func (p *PConstructor) patternNode()        {}
func (p *PConstructor) Range() token.Range { return p.Pos }

type PRecordField struct {
	Pos     token.Range
	Label   string
	Pattern Pattern
}

type PRecord struct {
	Pos    token.Range
	Fields []PRecordField
}

func (p *PRecord) patternNode()        {}
func (p *PRecord) Range() token.Range { return p.Pos }
