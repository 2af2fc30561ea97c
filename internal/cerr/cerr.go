// Package cerr is the sum-typed error model (spec §7), grounded directly on
// mcgru-funxy/internal/diagnostics/diagnostics.go: a Phase enum, an
// ErrorCode enum, a template table, and a single CoreError struct whose
// Error() renders "<file>: [<phase>] error at <range> [<code>]: <message>".
//
// Every error kind named in spec §7 gets one ErrorCode constant. Internal
// plumbing always returns *CoreError (or nil); nothing panics for normal
// control flow, and nothing is recovered inside the core (spec §7
// propagation policy: "the first error aborts").
package cerr

import (
	"fmt"

	"github.com/sestcore/sest/internal/token"
)

type Phase string

const (
	PhaseLex       Phase = "lex"
	PhaseParse     Phase = "parse"
	PhaseDecode    Phase = "decode"
	PhaseUnify     Phase = "unify"
	PhaseCheck     Phase = "check"
	PhaseElaborate Phase = "elaborate"
	PhaseSubtype   Phase = "subtype"
)

type ErrorCode string

const (
	// Lookup
	UnboundVariable       ErrorCode = "UnboundVariable"
	UnboundModuleName     ErrorCode = "UnboundModuleName"
	UnboundSignatureName  ErrorCode = "UnboundSignatureName"
	UnboundTypeParameter  ErrorCode = "UnboundTypeParameter"
	UnboundRowParameter   ErrorCode = "UnboundRowParameter"
	UndefinedConstructor  ErrorCode = "UndefinedConstructor"
	UndefinedTypeName     ErrorCode = "UndefinedTypeName"
	UndefinedKindName     ErrorCode = "UndefinedKindName"

	// Shape
	NotOfStructureType         ErrorCode = "NotOfStructureType"
	NotOfFunctorType           ErrorCode = "NotOfFunctorType"
	NotAStructureSignature     ErrorCode = "NotAStructureSignature"
	RootModuleMustBeStructure  ErrorCode = "RootModuleMustBeStructure"
	SupportOnlyFirstOrderFunctor ErrorCode = "SupportOnlyFirstOrderFunctor"
	CannotRestrictTransparentType ErrorCode = "CannotRestrictTransparentType"
	InvalidIdentifier          ErrorCode = "InvalidIdentifier"

	// Arity/labels
	InvalidNumberOfTypeArguments        ErrorCode = "InvalidNumberOfTypeArguments"
	InvalidNumberOfConstructorArguments ErrorCode = "InvalidNumberOfConstructorArguments"
	BadArityOfOrderedArguments          ErrorCode = "BadArityOfOrderedArguments"
	UnexpectedMandatoryLabel            ErrorCode = "UnexpectedMandatoryLabel"
	MissingMandatoryLabel               ErrorCode = "MissingMandatoryLabel"
	UnexpectedOptionalLabel             ErrorCode = "UnexpectedOptionalLabel"
	DuplicatedLabel                     ErrorCode = "DuplicatedLabel"
	TypeParameterBoundMoreThanOnce      ErrorCode = "TypeParameterBoundMoreThanOnce"
	RowParameterBoundMoreThanOnce       ErrorCode = "RowParameterBoundMoreThanOnce"
	BoundMoreThanOnceInPattern          ErrorCode = "BoundMoreThanOnceInPattern"
	InvalidByte                         ErrorCode = "InvalidByte"

	// Type-checking
	ContradictionError         ErrorCode = "ContradictionError"
	InclusionError             ErrorCode = "InclusionError"
	InclusionRowError          ErrorCode = "InclusionRowError"
	CyclicTypeParameter        ErrorCode = "CyclicTypeParameter"
	CyclicSynonymTypeDefinition ErrorCode = "CyclicSynonymTypeDefinition"
	KindContradiction          ErrorCode = "KindContradiction"

	// Signature matching
	MissingRequiredValName        ErrorCode = "MissingRequiredValName"
	MissingRequiredTypeName       ErrorCode = "MissingRequiredTypeName"
	MissingRequiredModuleName     ErrorCode = "MissingRequiredModuleName"
	MissingRequiredSignatureName  ErrorCode = "MissingRequiredSignatureName"
	NotASubtype                   ErrorCode = "NotASubtype"
	NotASubtypeVariant             ErrorCode = "NotASubtypeVariant"
	NotASubtypeSynonym              ErrorCode = "NotASubtypeSynonym"
	NotASubtypeTypeOpacity          ErrorCode = "NotASubtypeTypeOpacity"
	PolymorphicContradiction        ErrorCode = "PolymorphicContradiction"
	ConflictInSignature              ErrorCode = "ConflictInSignature"
	OpaqueIDExtrudesScopeViaType     ErrorCode = "OpaqueIDExtrudesScopeViaType"
	OpaqueIDExtrudesScopeViaSignature ErrorCode = "OpaqueIDExtrudesScopeViaSignature"
	CannotFreezeNonGlobalName         ErrorCode = "CannotFreezeNonGlobalName"
)

// CoreError is the single error type every component returns. Args are
// rendered positionally into the code's template by Error().
type CoreError struct {
	Code  ErrorCode
	Phase Phase
	Range token.Range
	Args  []any
}

func (e *CoreError) Error() string {
	template, ok := templates[e.Code]
	if !ok {
		template = string(e.Code)
	}
	msg := template
	if len(e.Args) > 0 {
		msg = fmt.Sprintf(template, e.Args...)
	}
	loc := ""
	if e.Range.Start.Line > 0 {
		loc = fmt.Sprintf(" at %d:%d", e.Range.Start.Line, e.Range.Start.Column)
	}
	file := ""
	if e.Range.File != "" {
		file = e.Range.File + ": "
	}
	return fmt.Sprintf("%s[%s] error%s [%s]: %s", file, e.Phase, loc, e.Code, msg)
}

// New builds a CoreError for the given phase/code/range/args.
func New(phase Phase, code ErrorCode, rng token.Range, args ...any) *CoreError {
	return &CoreError{Code: code, Phase: phase, Range: rng, Args: args}
}

var templates = map[ErrorCode]string{
	UnboundVariable:      "unbound variable: %q",
	UnboundModuleName:    "unbound module name: %q",
	UnboundSignatureName: "unbound signature name: %q",
	UnboundTypeParameter: "unbound type parameter: %q",
	UnboundRowParameter:  "unbound row parameter: %q",
	UndefinedConstructor: "undefined constructor: %q",
	UndefinedTypeName:    "undefined type name: %q",
	UndefinedKindName:    "undefined kind name: %q",

	NotOfStructureType:            "expected a structure, got a functor",
	NotOfFunctorType:              "expected a functor, got a structure",
	NotAStructureSignature:        "expected a structure signature",
	RootModuleMustBeStructure:     "the root module must be a structure",
	SupportOnlyFirstOrderFunctor:  "only first-order functors are supported",
	CannotRestrictTransparentType: "cannot restrict an already-transparent type with `with type`",
	InvalidIdentifier:             "invalid identifier: %q",

	InvalidNumberOfTypeArguments:        "invalid number of type arguments: expected %d, got %d",
	InvalidNumberOfConstructorArguments: "invalid number of constructor arguments for %q: expected %d, got %d",
	BadArityOfOrderedArguments:          "wrong number of ordered arguments: expected %d, got %d",
	UnexpectedMandatoryLabel:            "unexpected mandatory label: %q",
	MissingMandatoryLabel:               "missing mandatory label: %q",
	UnexpectedOptionalLabel:             "unexpected optional label: %q",
	DuplicatedLabel:                     "duplicated label: %q",
	TypeParameterBoundMoreThanOnce:      "type parameter bound more than once: %q",
	RowParameterBoundMoreThanOnce:       "row parameter bound more than once: %q",
	BoundMoreThanOnceInPattern:          "variable bound more than once in pattern: %q",
	InvalidByte:                         "invalid byte in binary literal",

	ContradictionError:          "type mismatch: expected %s, got %s",
	InclusionError:              "occurs check failed for type variable %v in %s",
	InclusionRowError:           "occurs check failed for row variable %v in %s",
	CyclicTypeParameter:         "cyclic type parameter dependency",
	CyclicSynonymTypeDefinition: "cyclic synonym type definition: %v",
	KindContradiction:           "kind mismatch: %s is not compatible with %s",

	MissingRequiredValName:       "signature requires value %q, not provided",
	MissingRequiredTypeName:      "signature requires type %q, not provided",
	MissingRequiredModuleName:    "signature requires module %q, not provided",
	MissingRequiredSignatureName: "signature requires nested signature %q, not provided",
	NotASubtype:                  "not a subtype: %s is not a subtype of %s",
	NotASubtypeVariant:            "variant %q is not a subtype match",
	NotASubtypeSynonym:            "synonym %q is not a subtype match",
	NotASubtypeTypeOpacity:        "opaque type %q arity mismatch",
	PolymorphicContradiction:      "polymorphic type %s is not at least as general as %s",
	ConflictInSignature:           "conflicting name in signature: %q",
	OpaqueIDExtrudesScopeViaType:      "opaque type would extrude its scope via a type",
	OpaqueIDExtrudesScopeViaSignature: "opaque type would extrude its scope via a signature",
	CannotFreezeNonGlobalName:         "cannot freeze a non-global name: %q",
}
