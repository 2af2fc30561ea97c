// Package ir is the output IR value language (SPEC_FULL.md §6): a small,
// strictly value-level desugaring of internal/ast's expression/pattern
// surface, plus a deterministic JSON encoder that is the CLI's actual
// file-per-module output.
//
// Grounded on the teacher's removed internal/vm Bundle concept (a
// serializable unit of compiled code per module) for the "one file per
// emitted module" shape; reimplemented here as a plain data tree encoded
// with encoding/json rather than bytecode, since the target runtime/code
// generator is out of scope (spec §1 Non-goals).
package ir

// Node is any IR value-language node. Lowering (Lower) is purely
// syntax-directed: it does not consult types, so a node's Kind is the only
// thing a consumer can dispatch on.
type Node interface {
	irNode()
}

type Kind string

const (
	KVar            Kind = "Var"
	KApply          Kind = "Apply"
	KLambda         Kind = "Lambda"
	KLetIn          Kind = "LetIn"
	KCase           Kind = "Case"
	KReceive        Kind = "Receive"
	KConstructor    Kind = "Constructor"
	KTuple          Kind = "Tuple"
	KRecord         Kind = "Record"
	KRecordAccess   Kind = "RecordAccess"
	KRecordUpdate   Kind = "RecordUpdate"
	KListNil        Kind = "ListNil"
	KListCons       Kind = "ListCons"
	KFreeze         Kind = "Freeze"
	KFreezeUpdate   Kind = "FreezeUpdate"
	KBaseConst      Kind = "BaseConst"
)

// Var is a bound-variable reference.
type Var struct {
	Kind Kind `json:"kind"`
	Name string `json:"name"`
}

func (*Var) irNode() {}

// Apply is `callee(ordered..., mandatory{...}, optional{...})`.
type Apply struct {
	Kind      Kind            `json:"kind"`
	Callee    Node            `json:"callee"`
	Ordered   []Node          `json:"ordered,omitempty"`
	Mandatory map[string]Node `json:"mandatory,omitempty"`
	Optional  map[string]Node `json:"optional,omitempty"`
}

func (*Apply) irNode() {}

// Lambda is a (possibly self-named, for `let rec`) closure over ordered,
// mandatory, and defaulted-optional parameters.
type Lambda struct {
	Kind      Kind                 `json:"kind"`
	SelfName  string               `json:"selfName,omitempty"`
	Ordered   []string             `json:"ordered,omitempty"`
	Mandatory []string             `json:"mandatory,omitempty"`
	Optional  []OptionalParam      `json:"optional,omitempty"`
	Body      Node                 `json:"body"`
}

type OptionalParam struct {
	Name    string `json:"name"`
	Default Node   `json:"default,omitempty"`
}

func (*Lambda) irNode() {}

// LetIn is one or more simultaneously-bound names (Rec controls whether
// each binding's own Expr may refer to the group) followed by a body.
type LetIn struct {
	Kind     Kind      `json:"kind"`
	Rec      bool      `json:"rec"`
	Names    []string  `json:"names"`
	Exprs    []Node    `json:"exprs"`
	Body     Node      `json:"body"`
}

func (*LetIn) irNode() {}

type Branch struct {
	Pattern Pattern `json:"pattern"`
	Guard   Node    `json:"guard,omitempty"`
	Body    Node    `json:"body"`
}

type Case struct {
	Kind      Kind     `json:"kind"`
	Scrutinee Node     `json:"scrutinee"`
	Branches  []Branch `json:"branches"`
}

func (*Case) irNode() {}

type Receive struct {
	Kind     Kind     `json:"kind"`
	Branches []Branch `json:"branches"`
}

func (*Receive) irNode() {}

// Constructor applies a variant constructor by (source) name; the IR does
// not carry the resolved ConstructorID, since it is emitted before linking
// against a particular consumer's type-definition store.
type Constructor struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
	Args []Node `json:"args,omitempty"`
}

func (*Constructor) irNode() {}

type Tuple struct {
	Kind     Kind   `json:"kind"`
	Elements []Node `json:"elements"`
}

func (*Tuple) irNode() {}

type Record struct {
	Kind   Kind            `json:"kind"`
	Spread Node            `json:"spread,omitempty"`
	Fields map[string]Node `json:"fields"`
	Order  []string        `json:"order"`
}

func (*Record) irNode() {}

type RecordAccess struct {
	Kind  Kind   `json:"kind"`
	Expr  Node   `json:"expr"`
	Label string `json:"label"`
}

func (*RecordAccess) irNode() {}

type RecordUpdate struct {
	Kind   Kind            `json:"kind"`
	Base   Node            `json:"base"`
	Fields map[string]Node `json:"fields"`
	Order  []string        `json:"order"`
}

func (*RecordUpdate) irNode() {}

type ListNil struct {
	Kind Kind `json:"kind"`
}

func (*ListNil) irNode() {}

type ListCons struct {
	Kind Kind `json:"kind"`
	Head Node `json:"head"`
	Tail Node `json:"tail"`
}

func (*ListCons) irNode() {}

type Freeze struct {
	Kind       Kind   `json:"kind"`
	GlobalName string `json:"globalName"`
	Args       []Node `json:"args,omitempty"`
}

func (*Freeze) irNode() {}

type FreezeUpdate struct {
	Kind Kind   `json:"kind"`
	Base Node   `json:"base"`
	Args []Node `json:"args,omitempty"`
}

func (*FreezeUpdate) irNode() {}

// BaseConst is any scalar literal (int/float/bool/char/string/unit/format).
type BaseConst struct {
	Kind  Kind   `json:"kind"`
	Scalar string `json:"scalar"` // one of "int","float","bool","char","string","unit","format"
	Value  any    `json:"value"`
}

func (*BaseConst) irNode() {}

// Pattern mirrors Node's value shapes for case/receive branches.
type Pattern interface {
	irPattern()
}

type PKind string

const (
	PKVar         PKind = "Var"
	PKWildcard    PKind = "Wildcard"
	PKLit         PKind = "Lit"
	PKTuple       PKind = "Tuple"
	PKListNil     PKind = "ListNil"
	PKCons        PKind = "Cons"
	PKConstructor PKind = "Constructor"
	PKRecord      PKind = "Record"
)

type PVar struct {
	PKind PKind  `json:"pkind"`
	Name  string `json:"name"`
}

func (*PVar) irPattern() {}

type PWildcard struct {
	PKind PKind `json:"pkind"`
}

func (*PWildcard) irPattern() {}

type PLit struct {
	PKind PKind `json:"pkind"`
	Value Node  `json:"value"`
}

func (*PLit) irPattern() {}

type PTuple struct {
	PKind    PKind     `json:"pkind"`
	Elements []Pattern `json:"elements"`
}

func (*PTuple) irPattern() {}

type PListNil struct {
	PKind PKind `json:"pkind"`
}

func (*PListNil) irPattern() {}

type PCons struct {
	PKind PKind   `json:"pkind"`
	Head  Pattern `json:"head"`
	Tail  Pattern `json:"tail"`
}

func (*PCons) irPattern() {}

type PConstructor struct {
	PKind PKind     `json:"pkind"`
	Name  string    `json:"name"`
	Args  []Pattern `json:"args,omitempty"`
}

func (*PConstructor) irPattern() {}

type PRecordField struct {
	Label   string  `json:"label"`
	Pattern Pattern `json:"pattern"`
}

type PRecord struct {
	PKind  PKind          `json:"pkind"`
	Fields []PRecordField `json:"fields"`
}

func (*PRecord) irPattern() {}

// Binding is one top-level `let`/`let rec` name lowered to IR, in source
// declaration order (spec §6: "list of IR bindings").
type Binding struct {
	Name string `json:"name"`
	Expr Node   `json:"expr"`
}

// Module is the deterministic per-module output unit: the module's dotted
// path, plus its lowered top-level bindings in order.
type Module struct {
	Path     string    `json:"path"`
	Bindings []Binding `json:"bindings"`
}
