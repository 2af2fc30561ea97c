package modelab_test

import (
	"testing"

	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/checker"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/lexer"
	"github.com/sestcore/sest/internal/modelab"
	"github.com/sestcore/sest/internal/parser"
	"github.com/sestcore/sest/internal/types"
)

// elaborate lexes, parses and elaborates src, failing the test on any
// parse error. The caller inspects the returned root/env/error themselves,
// since several scenarios here expect elaboration itself to fail.
func elaborate(t *testing.T, src string) (*env.SigRecord, *env.TypeEnv, *cerr.CoreError) {
	t.Helper()
	toks := lexer.Tokens("t.fx", src)
	prog, errs := parser.ParseAll("t.fx", toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return modelab.New(checker.NewContext()).ElaborateProgram(prog)
}

// id's principal type generalizes to forall a. a -> a: applying it at two
// unrelated concrete types in the same program must not make the two call
// sites conflict with one another.
func TestGeneralizationLetsIdBeUsedAtTwoTypes(t *testing.T) {
	root, _, err := elaborate(t, `
let id(x) = x
let a = id(1)
let b = id(true)
`)
	if err != nil {
		t.Fatalf("expected id to generalize across both call sites, got error: %v", err)
	}

	idEntry := root.Lookup("id")
	if idEntry == nil || idEntry.Scheme == nil {
		t.Fatalf("expected a Scheme for id, got %#v", idEntry)
	}
	if len(idEntry.Scheme.Vars) == 0 {
		t.Fatalf("expected id's scheme to be quantified over at least one type variable, got %s", idEntry.Scheme.String())
	}

	aEntry := root.Lookup("a")
	bEntry := root.Lookup("b")
	if aEntry == nil || bEntry == nil {
		t.Fatalf("expected bindings a and b in the top-level signature")
	}
	aType := types.Resolve(aEntry.Scheme.Body)
	bType := types.Resolve(bEntry.Scheme.Body)
	if aType != types.Int {
		t.Fatalf("expected a : int, got %s", aType.String())
	}
	if bType != types.Bool {
		t.Fatalf("expected b : bool, got %s", bType.String())
	}
}

// A function that only ever projects one label out of its argument must
// accept records with differing extra fields, so long as the projected
// label's type agrees: that's the row-polymorphism checkRecordAccess's
// NewFreeVarKinded(RecordKind(...)) mechanism exists for.
func TestRowPolymorphicRecordAccessAcceptsDifferingExtraFields(t *testing.T) {
	root, _, err := elaborate(t, `
let getX(r) = r.x
let a = getX({x: 1, y: 2})
let b = getX({x: 3, z: true})
`)
	if err != nil {
		t.Fatalf("expected getX to be row-polymorphic over its argument's extra fields, got error: %v", err)
	}

	getX := root.Lookup("getX")
	if getX == nil || getX.Scheme == nil {
		t.Fatalf("expected a Scheme for getX")
	}
	aType := types.Resolve(root.Lookup("a").Scheme.Body)
	bType := types.Resolve(root.Lookup("b").Scheme.Body)
	if aType != types.Int || bType != types.Int {
		t.Fatalf("expected both projections of x to resolve to int, got a=%s b=%s", aType.String(), bType.String())
	}
}

// Row polymorphism only loosens the *extra* fields a record carries: once
// a function's own body fixes the projected field's type (here, by
// passing it to the int-only `add` primitive), a record whose field is a
// different concrete type must still be rejected.
func TestRecordAccessStillRejectsIncompatibleFieldTypes(t *testing.T) {
	_, _, err := elaborate(t, `
let f(r) = add(r.x, 1)
let a = f({x: true})
`)
	if err == nil {
		t.Fatalf("expected unifying int and bool at label x to fail")
	}
}

// A mutually-recursive pair of type synonyms that only ever refer to one
// another, with no variant/opaque type breaking the cycle, has no ground
// representation and must be rejected during elaboration (spec's
// occurs-style check over internal/syndeps' synonym graph), not merely
// left to loop forever later.
func TestCyclicSynonymGroupIsRejectedDuringElaboration(t *testing.T) {
	_, _, err := elaborate(t, `type a = b and b = a`)
	if err == nil {
		t.Fatalf("expected a cyclic synonym group to be rejected")
	}
	if err.Code != cerr.CyclicSynonymTypeDefinition {
		t.Fatalf("expected CyclicSynonymTypeDefinition, got %s", err.Code)
	}
}

// Sealing two structurally identical structures against the same opaque
// signature twice must mint two distinct opaque identities: M1.t and M2.t
// are not interchangeable even though both are defined as `type t = int`
// underneath, because the sealing signature hides that equation from
// everyone outside the structure.
func TestSealingFreshensOpaqueIdentityPerAscription(t *testing.T) {
	root, _, err := elaborate(t, `
module M1 = struct
  type t = int
  let mk(x) = x
end : sig
  type t
  val mk : int -> t
end
module M2 = struct
  type t = int
  let mk(x) = x
end : sig
  type t
  val mk : int -> t
end
`)
	if err != nil {
		t.Fatalf("expected both sealed structures to elaborate cleanly, got error: %v", err)
	}

	m1 := root.Lookup("M1")
	m2 := root.Lookup("M2")
	if m1 == nil || m1.Module == nil || m2 == nil || m2.Module == nil {
		t.Fatalf("expected M1 and M2 to be ModuleEntry's with their own namespace")
	}
	t1 := m1.Module.Lookup("t")
	t2 := m2.Module.Lookup("t")
	if t1 == nil || t2 == nil || t1.Opaque == 0 || t2.Opaque == 0 {
		t.Fatalf("expected both M1.t and M2.t to carry a nonzero opaque id, got %#v and %#v", t1, t2)
	}
	if t1.Opaque == t2.Opaque {
		t.Fatalf("expected M1.t and M2.t to be freshened to distinct opaque ids, both got %d", t1.Opaque)
	}
}

// A value spawned as its own process can receive a message that the
// spawning function sends to its pid: the spawned process's receive type
// (its ProcEff) must end up unified with whatever gets sent to its pid.
func TestSpawnReceiveAndSendThreadTheProcessEffectType(t *testing.T) {
	root, _, err := elaborate(t, `
let run() =
  let p = spawn(receive
    | x -> x
  end) in
  send(p, 1)
`)
	if err != nil {
		t.Fatalf("expected spawn/receive/send to check cleanly, got error: %v", err)
	}
	run := root.Lookup("run")
	if run == nil || run.Scheme == nil {
		t.Fatalf("expected a Scheme for run")
	}
	fn, ok := types.Resolve(run.Scheme.Body).(*types.Func)
	if !ok {
		t.Fatalf("expected run : () -> unit, got %s", run.Scheme.Body.String())
	}
	if types.Resolve(fn.Codomain) != types.Unit {
		t.Fatalf("expected send to settle run's result to unit, got %s", fn.Codomain.String())
	}
}

// Sending two structurally incompatible payloads down the same pid must
// fail: unlike a let-bound pid (generalized, so each use could pick its
// own fresh message type), a pid arriving as a plain function parameter
// is monomorphic for the whole body, so both sends have to agree with
// each other on the message type.
func TestSendingIncompatibleMessageTypesToSamePidIsRejected(t *testing.T) {
	_, _, err := elaborate(t, `
let dup(p) =
  let a = send(p, 1) in
  send(p, true)
`)
	if err == nil {
		t.Fatalf("expected sending both an int and a bool down the same pid parameter to fail")
	}
}

