// Package modelab is component K: the module elaborator. It walks
// internal/ast's module-level forms (ModVar/ModBinds/ModProj/ModFunctor/
// ModApply/ModCoerce) and their bindings (BindVal/BindType/BindModule/
// BindInclude/BindSig), producing an internal/env.SigRecord namespace for
// each structure and threading internal/checker over every value body it
// finds along the way.
//
// Grounded on spec §4.K directly for the form-by-form elaboration rules
// (the teacher, funvibe-funxy, has no ML-module layer — see DESIGN.md's
// deletion note for its evaluator-facing internal/modules package), and on
// the teacher's internal/analyzer's left-to-right binding-fold idiom for
// ModBinds: fold over a Decl list, threading the environment forward one
// binding at a time, same as a `let ... and ...` group's own left fold in
// internal/checker's checkLet.
package modelab

import (
	"github.com/sestcore/sest/internal/ast"
	"github.com/sestcore/sest/internal/cerr"
	"github.com/sestcore/sest/internal/checker"
	"github.com/sestcore/sest/internal/decoder"
	"github.com/sestcore/sest/internal/env"
	"github.com/sestcore/sest/internal/generalize"
	"github.com/sestcore/sest/internal/ids"
	"github.com/sestcore/sest/internal/kinds"
	"github.com/sestcore/sest/internal/subtype"
	"github.com/sestcore/sest/internal/syndeps"
	"github.com/sestcore/sest/internal/token"
	"github.com/sestcore/sest/internal/typedefs"
	"github.com/sestcore/sest/internal/types"
)

// Elaborator carries the process-wide Context (spec §5's shared tables)
// across however many ModVar/ModBinds/.../ModCoerce forms one elaboration
// run visits.
type Elaborator struct {
	Ctx *checker.Context
}

func New(ctx *checker.Context) *Elaborator {
	return &Elaborator{Ctx: ctx}
}

// scope is the state threaded through one structure body: out accumulates
// this structure's own members (spec's "disjoint union"); lexEnv is a
// checker.TypeEnv whose Globals chain (via env.SigRecord.Parent) makes the
// surrounding lexical scope visible to expressions checked here, while out
// itself stays exactly what this body declared (see env.SigRecord's
// Lookup/LookupLexical split).
type scope struct {
	out    *env.SigRecord
	lexEnv *env.TypeEnv
	level  int
}

// child opens a nested structure's own scope, lexically parented under s.
func (s *scope) child() *scope {
	out := env.NewChildSigRecord(s.out)
	return &scope{out: out, lexEnv: env.NewTypeEnv(out), level: s.level}
}

// ElaborateProgram elaborates a whole source file as the outermost
// structure body (spec §6: "for the top-level module, a tuple (updated
// tyenv, abstracted signature record, top-level space name, IR
// bindings)" — the IR bindings list is internal/ir's concern, built from
// the same checked expressions by a later pipeline stage).
func (e *Elaborator) ElaborateProgram(prog *ast.Program) (*env.SigRecord, *env.TypeEnv, *cerr.CoreError) {
	root := env.NewChildSigRecord(e.Ctx.SeedEnv())
	s := &scope{out: root, lexEnv: env.NewTypeEnv(root), level: 0}
	if err := e.bindDecls(s, prog.Decls); err != nil {
		return nil, nil, err
	}
	return root, s.lexEnv, nil
}

// bindDecls is ModBinds: fold left-to-right, threading s forward so each
// decl sees every earlier one in the same body (spec §4.K).
func (e *Elaborator) bindDecls(s *scope, decls []ast.Decl) *cerr.CoreError {
	for _, d := range decls {
		if err := e.bindDecl(s, d); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elaborator) bindDecl(s *scope, d ast.Decl) *cerr.CoreError {
	switch n := d.(type) {
	case *ast.DeclLet:
		return e.bindValGroup(s, n)
	case *ast.DeclExternal:
		return e.bindExternal(s, n)
	case *ast.DeclType:
		return e.bindType(s, n)
	case *ast.DeclModule:
		return e.bindModule(s, n)
	case *ast.DeclSignature:
		return e.bindSignature(s, n)
	case *ast.DeclInclude:
		return e.bindInclude(s, n)
	}
	return cerr.New(cerr.PhaseElaborate, cerr.InvalidIdentifier, d.Range(), "<unsupported declaration>")
}

// addOut adds entry into s.out, translating a name collision into the
// signature-building ConflictInSignature error (spec §4.K's disjoint
// union, §5 "disjoint-union symmetry of failure").
func addOut(s *scope, rng token.Range, entry *env.Entry) *cerr.CoreError {
	if err := s.out.Add(entry); err != nil {
		return cerr.New(cerr.PhaseElaborate, cerr.ConflictInSignature, rng, entry.Name)
	}
	return nil
}

// ---- BindVal ----

// bindExternal decodes an `external name : Type = "arity"` declaration's
// type against s's own lexical scope. An external has no body to infer
// from, so every implicit lowercase name the decoder turned into a rigid
// variable is one of its own declared type parameters and is quantified
// unconditionally via schemeFromDecoded (spec §4.K "external = declared
// but implemented by the target runtime").
func (e *Elaborator) bindExternal(s *scope, n *ast.DeclExternal) *cerr.CoreError {
	t, err := e.decodeType(s, n.Type)
	if err != nil {
		return err
	}
	sch := schemeFromDecoded(e.Ctx.Kinds, e.Ctx.Supply, t)
	if err := addOut(s, n.Pos, &env.Entry{Kind: env.ValEntry, Name: n.Name, Scheme: sch}); err != nil {
		return err
	}
	s.lexEnv.Bind(n.Name, sch)
	return nil
}

// bindValGroup elaborates `let [rec] b1 and b2 and ...`: each binding's
// body is checked at level+1 (so its own free variables start deeper than
// this binding), then generalized at s's own level before being exposed
// in s.out and bound for whatever follows in this structure body — the
// same level discipline internal/checker's checkLet uses for a local
// `let`, reused here at module scope (spec §4.H/§4.K/§4.J.1).
func (e *Elaborator) bindValGroup(s *scope, n *ast.DeclLet) *cerr.CoreError {
	innerEnv := s.lexEnv.Child()
	inner := &checker.Checker{Ctx: e.Ctx, Env: innerEnv, Level: s.level + 1, ProcEff: types.NewFreeVar(e.Ctx.Supply, s.level+1)}

	if n.Rec {
		placeholders := make([]*types.TVar, len(n.Bindings))
		for i, b := range n.Bindings {
			placeholders[i] = types.NewFreeVar(e.Ctx.Supply, inner.Level)
			inner.Env.Bind(b.Name, types.Mono(placeholders[i]))
		}
		for i, b := range n.Bindings {
			bt, err := checkBinding(inner, b)
			if err != nil {
				return err
			}
			if err := e.Ctx.Unifier.Unify(cerr.PhaseElaborate, b.Pos, placeholders[i], bt); err != nil {
				return err
			}
		}
	} else {
		for _, b := range n.Bindings {
			bt, err := checkBinding(inner, b)
			if err != nil {
				return err
			}
			inner.Env.Bind(b.Name, types.Mono(bt))
		}
	}

	for _, b := range n.Bindings {
		sch, _ := inner.Env.Lookup(b.Name)
		gen := generalize.Generalize(e.Ctx.Supply, e.Ctx.Kinds, s.level, sch.Body)
		if err := addOut(s, b.Pos, &env.Entry{Kind: env.ValEntry, Name: b.Name, Scheme: gen}); err != nil {
			return err
		}
		s.lexEnv.Bind(b.Name, gen)
	}
	return nil
}

func checkBinding(c *checker.Checker, b *ast.ValBinding) (types.Type, *cerr.CoreError) {
	if len(b.Params) == 0 {
		return c.Check(b.Body)
	}
	lam := &ast.Lambda{Pos: b.Pos, Params: b.Params, Body: b.Body}
	return c.Check(lam)
}

// decodeType runs a fresh Decoder over a hand-written annotation against
// s's structure namespace (mirroring internal/checker's own decodeType).
// Every implicit lowercase name decodes to a rigid (MustBeBound) variable,
// one cell per distinct name within this one call (component I's
// contract) — callers that need real polymorphism out of the result
// (bindExternal, a signature `val` entry) run it through
// schemeFromDecoded; callers that need a definition's own declared
// parameters represented as typedefs-compatible TBound leaves (bindType, a
// transparent signature type entry) use decodeTypeBody instead.
func (e *Elaborator) decodeType(s *scope, t ast.TypeExpr) (types.Type, *cerr.CoreError) {
	d := decoder.New(e.Ctx.Supply, e.Ctx.Typedefs, checker.NewEnvResolver(s.out), s.level)
	return d.Decode(t)
}

// schemeFromDecoded turns a decoder-produced type into a Scheme by
// quantifying every distinct rigid (MustBeBound) cell it contains: the
// decoder's implicit parameters ARE the signature's own type variables,
// so (unlike internal/generalize, which only quantifies *free* variables
// deeper than some enclosing level) every rigid cell found here is
// quantified unconditionally.
func schemeFromDecoded(kindStore *kinds.Store, supply *ids.Supply, t types.Type) *types.Scheme {
	seen := make(map[*types.TyVarCell]ids.BoundID)
	var order []ids.BoundID

	var walk func(types.Type) types.Type
	walkDomain := func(d types.Domain) types.Domain {
		out := types.Domain{}
		for _, o := range d.Ordered {
			out.Ordered = append(out.Ordered, walk(o))
		}
		if len(d.Mandatory) > 0 {
			out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
			for l, ft := range d.Mandatory {
				out.Mandatory[l] = walk(ft)
			}
		}
		out.Optional = d.Optional
		if fr, ok := d.Optional.(*types.FixedRow); ok {
			labels := make(map[string]types.Type, len(fr.Labels))
			for l, ft := range fr.Labels {
				labels[l] = walk(ft)
			}
			out.Optional = &types.FixedRow{Labels: labels}
		}
		return out
	}
	walk = func(t types.Type) types.Type {
		switch a := t.(type) {
		case *types.TVar:
			if a.Cell.State == types.StateMustBeBound {
				id, ok := seen[a.Cell]
				if !ok {
					id = supply.FreshBound()
					seen[a.Cell] = id
					order = append(order, id)
					kindStore.RegisterBoundType(id, types.Universal())
				}
				return &types.TBound{ID: id}
			}
			return a
		case *types.Product:
			els := make([]types.Type, len(a.Elements))
			for i, el := range a.Elements {
				els[i] = walk(el)
			}
			return &types.Product{Elements: els}
		case *types.RecordT:
			fs := make(map[string]types.Type, len(a.Fields))
			for l, ft := range a.Fields {
				fs[l] = walk(ft)
			}
			return &types.RecordT{Fields: fs}
		case *types.Data:
			args := make([]types.Type, len(a.Args))
			for i, ar := range a.Args {
				args[i] = walk(ar)
			}
			return &types.Data{ID: a.ID, Args: args}
		case *types.Func:
			dom := walkDomain(a.Domain)
			var eff types.Type
			if a.Eff != nil {
				eff = walk(a.Eff)
			}
			return &types.Func{Domain: dom, Eff: eff, Codomain: walk(a.Codomain)}
		case *types.Pid:
			return &types.Pid{Elem: walk(a.Elem)}
		default:
			return t
		}
	}

	body := walk(t)
	return &types.Scheme{Vars: order, Body: body}
}

// ---- BindType ----

// typeMember is the elaboration-time state for one member of a
// `type a<params> = ... and b<params> = ...` group: either a synonym
// (def.Body != nil) or a variant (def.Ctors != nil).
type typeMember struct {
	def       *ast.TypeDef
	params    []ids.BoundID
	synID     ids.SynonymID
	variantID ids.VariantID
	isVariant bool
	typeID    types.TypeID
}

// bindType elaborates a `type ... and ...` group (spec §4.F/§4.K
// BindType): every member is mutually recursive within the group, so
// names/parameter ids are pre-seeded into a child record before any body
// is decoded, a synonym-dependency graph is checked for cycles once every
// body has been decoded, and only then are members exposed in s.out.
func (e *Elaborator) bindType(s *scope, n *ast.DeclType) *cerr.CoreError {
	members := make([]*typeMember, len(n.Group))
	byName := make(map[string]bool, len(n.Group))
	for i, def := range n.Group {
		if byName[def.Name] {
			return cerr.New(cerr.PhaseElaborate, cerr.ConflictInSignature, def.Pos, def.Name)
		}
		byName[def.Name] = true

		m := &typeMember{def: def, isVariant: len(def.Ctors) > 0}
		m.params = make([]ids.BoundID, len(def.Params))
		for j := range def.Params {
			id := e.Ctx.Supply.FreshBound()
			e.Ctx.Kinds.RegisterBoundType(id, types.Universal())
			m.params[j] = id
		}
		if m.isVariant {
			m.variantID = e.Ctx.Supply.FreshVariant()
			m.typeID = types.VariantTypeID(m.variantID, nil, def.Name)
		} else {
			m.synID = e.Ctx.Supply.FreshSynonym()
			m.typeID = types.SynonymTypeID(m.synID, nil, def.Name)
		}
		members[i] = m
	}

	// A child record, shared by every member's own decoding pass, so a
	// forward reference to a sibling defined later in the same `and`
	// chain (including self-reference, the common recursive-variant case)
	// resolves to that sibling's final nominal id from the start.
	groupRec := env.NewChildSigRecord(s.out)
	for _, m := range members {
		groupRec.Add(selfTypeEntry(m))
	}

	graph := syndeps.NewGraph()
	for _, m := range members {
		if !m.isVariant {
			graph.AddSynonym(m.synID)
		}
	}

	for _, m := range members {
		if m.isVariant {
			ctors := make(map[string]*typedefs.CtorEntry, len(m.def.Ctors))
			order := make([]string, 0, len(m.def.Ctors))
			for _, c := range m.def.Ctors {
				if _, dup := ctors[c.Name]; dup {
					return cerr.New(cerr.PhaseElaborate, cerr.ConflictInSignature, c.Pos, c.Name)
				}
				fields := make([]types.Type, len(c.Fields))
				for i, ft := range c.Fields {
					rt, err := e.decodeTypeBody(groupRec, s.level, m.def.Params, m.params, ft)
					if err != nil {
						return err
					}
					fields[i] = rt
				}
				ctors[c.Name] = &typedefs.CtorEntry{
					VariantID: m.variantID, CtorID: e.Ctx.Supply.FreshCtor(),
					Name: c.Name, Params: m.params, Fields: fields,
				}
				order = append(order, c.Name)
			}
			e.Ctx.Typedefs.RegisterVariant(&typedefs.VariantDef{
				ID: m.variantID, Name: m.def.Name, Params: m.params, Ctors: ctors, Order: order,
			})
			for _, name := range order {
				ce := ctors[name]
				if err := addOut(s, m.def.Pos, &env.Entry{
					Kind: env.CtorEntry, Name: name,
					VariantID: ce.VariantID, CtorID: ce.CtorID, Fields: ce.Fields,
				}); err != nil {
					return err
				}
			}
		} else {
			body, err := e.decodeTypeBody(groupRec, s.level, m.def.Params, m.params, m.def.Body)
			if err != nil {
				return err
			}
			graph.CollectSynonymRefs(m.synID, body)
			e.Ctx.Typedefs.RegisterSynonym(&typedefs.SynonymDef{ID: m.synID, Name: m.def.Name, Params: m.params, Body: body})
		}
	}

	if err := graph.DetectCycles(n.Pos); err != nil {
		return err
	}

	for _, m := range members {
		if err := addOut(s, m.def.Pos, selfTypeEntry(m)); err != nil {
			return err
		}
	}
	return nil
}

// selfTypeEntry builds m's public TypeEntry: the self-wrapping
// Data{ID: m's own nominal id, Args: its own params as TBound} convention
// (spec §4.L, shared with internal/subtype's checkTypeCorrespondence and
// internal/primitives' seed list/option entries) so checker.TypeEntryID
// can extract m's identity uniformly whether it's a variant or a
// transparent synonym.
func selfTypeEntry(m *typeMember) *env.Entry {
	return &env.Entry{
		Kind: env.TypeEntry, Name: m.def.Name, TypeParams: m.params,
		Alias: &types.Data{ID: m.typeID, Args: boundArgs(m.params)},
	}
}

func boundArgs(params []ids.BoundID) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = &types.TBound{ID: p}
	}
	return out
}

// decodeTypeBody decodes t against rec's lexical scope, binding each of
// paramNames — this definition's own declared lowercase parameters — to
// the corresponding paramIDs, so every occurrence becomes a TBound leaf
// matching internal/typedefs' and internal/unify's BoundID-keyed synonym
// expansion and constructor-field instantiation (internal/checker's
// substBoundLocal), rather than the decoder's usual per-call rigid
// variable (which a *signature* annotation, decoded by decodeType, wants
// instead).
func (e *Elaborator) decodeTypeBody(rec *env.SigRecord, level int, paramNames []string, paramIDs []ids.BoundID, t ast.TypeExpr) (types.Type, *cerr.CoreError) {
	d := decoder.New(e.Ctx.Supply, e.Ctx.Typedefs, checker.NewEnvResolver(rec), level)
	cellToBound := make(map[*types.TyVarCell]ids.BoundID, len(paramNames))
	for i, name := range paramNames {
		v := types.NewRigidVar(e.Ctx.Supply, level)
		d.BindRigid(name, v)
		cellToBound[v.Cell] = paramIDs[i]
	}
	rt, err := d.Decode(t)
	if err != nil {
		return nil, err
	}
	return rigidToBound(cellToBound, rt), nil
}

func rigidToBound(m map[*types.TyVarCell]ids.BoundID, t types.Type) types.Type {
	switch a := t.(type) {
	case *types.TVar:
		if id, ok := m[a.Cell]; ok {
			return &types.TBound{ID: id}
		}
		return a
	case *types.Product:
		els := make([]types.Type, len(a.Elements))
		for i, el := range a.Elements {
			els[i] = rigidToBound(m, el)
		}
		return &types.Product{Elements: els}
	case *types.RecordT:
		fs := make(map[string]types.Type, len(a.Fields))
		for l, ft := range a.Fields {
			fs[l] = rigidToBound(m, ft)
		}
		return &types.RecordT{Fields: fs}
	case *types.Data:
		args := make([]types.Type, len(a.Args))
		for i, ar := range a.Args {
			args[i] = rigidToBound(m, ar)
		}
		return &types.Data{ID: a.ID, Args: args}
	case *types.Func:
		dom := rigidToBoundDomain(m, a.Domain)
		var eff types.Type
		if a.Eff != nil {
			eff = rigidToBound(m, a.Eff)
		}
		return &types.Func{Domain: dom, Eff: eff, Codomain: rigidToBound(m, a.Codomain)}
	case *types.Pid:
		return &types.Pid{Elem: rigidToBound(m, a.Elem)}
	default:
		return t
	}
}

func rigidToBoundDomain(m map[*types.TyVarCell]ids.BoundID, d types.Domain) types.Domain {
	out := types.Domain{}
	for _, o := range d.Ordered {
		out.Ordered = append(out.Ordered, rigidToBound(m, o))
	}
	if len(d.Mandatory) > 0 {
		out.Mandatory = make(map[string]types.Type, len(d.Mandatory))
		for l, ft := range d.Mandatory {
			out.Mandatory[l] = rigidToBound(m, ft)
		}
	}
	out.Optional = d.Optional
	if fr, ok := d.Optional.(*types.FixedRow); ok {
		labels := make(map[string]types.Type, len(fr.Labels))
		for l, ft := range fr.Labels {
			labels[l] = rigidToBound(m, ft)
		}
		out.Optional = &types.FixedRow{Labels: labels}
	}
	return out
}

// ---- BindModule / BindSig / BindInclude ----

// bindModule is `module M = <module-expr> [: <sig-expr>]`: a bare functor
// literal is captured as a FunctorValue directly (spec §4.K: "capture (X,
// body-AST, caller tyenv) as the closure for later application" — only
// first-order functors are supported, so a functor can only ever be bound
// by name this way, never itself sealed against a signature); any other
// module expression is elaborated to a structure and, if ascribed, sealed
// against its signature (ModCoerce).
func (e *Elaborator) bindModule(s *scope, n *ast.DeclModule) *cerr.CoreError {
	if fn, ok := n.Mod.(*ast.MEFunctor); ok {
		if n.Sig != nil {
			return cerr.New(cerr.PhaseElaborate, cerr.NotOfStructureType, n.Pos)
		}
		domSig, err := e.elabSigExpr(s, fn.ParamSig)
		if err != nil {
			return err
		}
		fv := &env.FunctorValue{Param: fn.Param, ParamSig: domSig, Body: fn.Body, Closure: s.out}
		return addOut(s, n.Pos, &env.Entry{Kind: env.ModuleEntry, Name: n.Name, Functor: fv})
	}

	rec, err := e.elabModuleExpr(s, n.Mod)
	if err != nil {
		return err
	}
	if n.Sig != nil {
		sealed, serr := e.sealAgainst(s, rec, n.Sig, n.Pos)
		if serr != nil {
			return serr
		}
		rec = sealed
	}
	return addOut(s, n.Pos, &env.Entry{Kind: env.ModuleEntry, Name: n.Name, Module: rec})
}

// bindSignature is `signature S = <sig-expr>` (spec §4.K BindSig).
func (e *Elaborator) bindSignature(s *scope, n *ast.DeclSignature) *cerr.CoreError {
	rec, err := e.elabSigExpr(s, n.Sig)
	if err != nil {
		return err
	}
	return addOut(s, n.Pos, &env.Entry{Kind: env.SignatureEntry, Name: n.Name, Signature: rec})
}

// bindInclude merges mod's structure into s.out (spec §4.K BindInclude:
// "merges a structure into the enclosing sig record") — a disjoint union,
// so a name already present in s.out (including one from this same
// include) is a ConflictInSignature error, exactly like any other
// binding.
func (e *Elaborator) bindInclude(s *scope, n *ast.DeclInclude) *cerr.CoreError {
	rec, err := e.elabModuleExpr(s, n.Mod)
	if err != nil {
		return err
	}
	for _, ent := range rec.Entries {
		if err := addOut(s, n.Pos, ent); err != nil {
			return err
		}
		if ent.Kind == env.ValEntry {
			s.lexEnv.Bind(ent.Name, ent.Scheme)
		}
	}
	return nil
}

// ---- Module expressions ----

func (e *Elaborator) elabModuleExpr(s *scope, m ast.ModuleExpr) (*env.SigRecord, *cerr.CoreError) {
	switch n := m.(type) {
	case *ast.MEVar:
		ent := s.out.LookupLexical(n.Name)
		if ent == nil || ent.Kind != env.ModuleEntry || ent.Module == nil {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.UnboundModuleName, n.Pos, n.Name)
		}
		return ent.Module, nil

	case *ast.MEStruct:
		child := s.child()
		if err := e.bindDecls(child, n.Decls); err != nil {
			return nil, err
		}
		return child.out, nil

	case *ast.MEProj:
		rec, err := e.elabModuleExpr(s, n.Mod)
		if err != nil {
			return nil, err
		}
		ent := rec.Lookup(n.Name)
		if ent == nil || ent.Kind != env.ModuleEntry || ent.Module == nil {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.UnboundModuleName, n.Pos, n.Name)
		}
		return ent.Module, nil

	case *ast.MEFunctor:
		// Only reachable for a functor literal that was never bound by
		// `module F = fun(...) -> ...` (spec §1 Non-goals: only
		// first-order functors, applied directly by name); bindModule
		// handles the supported case before ever calling elabModuleExpr.
		return nil, cerr.New(cerr.PhaseElaborate, cerr.NotOfStructureType, n.Pos)

	case *ast.MEApply:
		return e.elabApply(s, n)

	case *ast.MECoerce:
		rec, err := e.elabModuleExpr(s, n.Mod)
		if err != nil {
			return nil, err
		}
		return e.sealAgainst(s, rec, n.Sig, n.Pos)
	}
	return nil, cerr.New(cerr.PhaseElaborate, cerr.InvalidIdentifier, m.Range(), "<unsupported module expression>")
}

// elabApply is ModApply(F, A): F must name a prior functor binding (spec
// §4.K: "F must be ConcFunctor"). The argument structure is subtype-
// checked against the functor's declared domain, then the functor's body
// is re-elaborated with its parameter bound to the (sealed) argument, in
// a fresh scope lexically parented under the functor's own closure (spec
// §4.K: "re-elaborate F's stored body AST against the actual argument").
func (e *Elaborator) elabApply(s *scope, n *ast.MEApply) (*env.SigRecord, *cerr.CoreError) {
	fv, err := e.lookupFunctor(s, n.Fn)
	if err != nil {
		return nil, err
	}
	argRec, aerr := e.elabModuleExpr(s, n.Arg)
	if aerr != nil {
		return nil, aerr
	}
	m := subtype.New(e.Ctx.Typedefs, e.Ctx.Supply, e.Ctx.Kinds, e.Ctx.Unifier).AtLevel(s.level)
	sealedArg, merr := m.Match(argRec, fv.ParamSig, n.Pos)
	if merr != nil {
		return nil, merr
	}

	appOut := env.NewChildSigRecord(fv.Closure)
	appOut.Add(&env.Entry{Kind: env.ModuleEntry, Name: fv.Param, Module: sealedArg})
	appScope := &scope{out: appOut, lexEnv: env.NewTypeEnv(appOut), level: s.level}
	return e.elabModuleExpr(appScope, fv.Body)
}

// lookupFunctor resolves m (which must be a bare module-name reference —
// spec §1 restricts functors to first-order, applied directly by name, so
// ModApply's Fn position is always an MEVar/MEProj naming a prior
// `module F = fun(...) -> ...` binding) to its FunctorValue.
func (e *Elaborator) lookupFunctor(s *scope, m ast.ModuleExpr) (*env.FunctorValue, *cerr.CoreError) {
	switch n := m.(type) {
	case *ast.MEVar:
		ent := s.out.LookupLexical(n.Name)
		if ent == nil || ent.Kind != env.ModuleEntry || ent.Functor == nil {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.NotOfFunctorType, n.Pos)
		}
		return ent.Functor, nil
	case *ast.MEProj:
		rec, err := e.elabModuleExpr(s, n.Mod)
		if err != nil {
			return nil, err
		}
		ent := rec.Lookup(n.Name)
		if ent == nil || ent.Kind != env.ModuleEntry || ent.Functor == nil {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.NotOfFunctorType, n.Pos)
		}
		return ent.Functor, nil
	}
	return nil, cerr.New(cerr.PhaseElaborate, cerr.SupportOnlyFirstOrderFunctor, m.Range())
}

// sealAgainst subtype-checks rec against sigExpr's elaborated record and
// returns required's own view (spec §4.K ModCoerce / sealed module
// bindings): subtype.Match's output record still carries the *same*
// ValEntry.Scheme/Module values rec already had, never rebuilt from
// scratch, so a sealed module's value still resolves to the exact same
// underlying binding (spec's "copy_closure to preserve runtime names").
func (e *Elaborator) sealAgainst(s *scope, rec *env.SigRecord, sigExpr ast.SigExpr, rng token.Range) (*env.SigRecord, *cerr.CoreError) {
	required, err := e.elabSigExpr(s, sigExpr)
	if err != nil {
		return nil, err
	}
	m := subtype.New(e.Ctx.Typedefs, e.Ctx.Supply, e.Ctx.Kinds, e.Ctx.Unifier).AtLevel(s.level)
	return m.Match(rec, required, rng)
}

// ---- Signature expressions ----

func (e *Elaborator) elabSigExpr(s *scope, sig ast.SigExpr) (*env.SigRecord, *cerr.CoreError) {
	switch n := sig.(type) {
	case *ast.SEName:
		ent := s.out.LookupLexical(n.Name)
		if ent == nil || ent.Kind != env.SignatureEntry {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.UnboundSignatureName, n.Pos, n.Name)
		}
		return ent.Signature, nil

	case *ast.SESig:
		rec := env.NewChildSigRecord(s.out)
		ls := &scope{out: rec, lexEnv: env.NewTypeEnv(rec), level: s.level}
		for _, se := range n.Entries {
			if err := e.bindSigEntry(ls, se); err != nil {
				return nil, err
			}
		}
		return rec, nil

	case *ast.SEFunctor:
		// A functor-typed signature, used only to ascribe a functor
		// binding itself — unsupported (bindModule rejects any Sig
		// ascription on a `module F = fun(...) -> ...` binding).
		return nil, cerr.New(cerr.PhaseElaborate, cerr.NotAStructureSignature, n.Pos)

	case *ast.SEWith:
		base, err := e.elabSigExpr(s, n.Sig)
		if err != nil {
			return nil, err
		}
		return e.withType(s, base, n.Path, n.Type, n.Pos)
	}
	return nil, cerr.New(cerr.PhaseElaborate, cerr.InvalidIdentifier, sig.Range(), "<unsupported signature expression>")
}

func (e *Elaborator) bindSigEntry(s *scope, se ast.SigEntry) *cerr.CoreError {
	switch n := se.(type) {
	case *ast.SigValEntry:
		t, err := e.decodeType(s, n.Type)
		if err != nil {
			return err
		}
		sch := schemeFromDecoded(e.Ctx.Kinds, e.Ctx.Supply, t)
		return addOut(s, n.Pos, &env.Entry{Kind: env.ValEntry, Name: n.Name, Scheme: sch})

	case *ast.SigTypeEntry:
		params := make([]ids.BoundID, len(n.Params))
		for i := range n.Params {
			id := e.Ctx.Supply.FreshBound()
			e.Ctx.Kinds.RegisterBoundType(id, types.Universal())
			params[i] = id
		}
		if n.Def == nil {
			oid := e.Ctx.Supply.FreshOpaque()
			return addOut(s, n.Pos, &env.Entry{Kind: env.TypeEntry, Name: n.Name, TypeParams: params, Opaque: oid})
		}
		body, err := e.decodeTypeBody(s.out, s.level, n.Params, params, n.Def)
		if err != nil {
			return err
		}
		return addOut(s, n.Pos, &env.Entry{Kind: env.TypeEntry, Name: n.Name, TypeParams: params, Alias: body})

	case *ast.SigModuleEntry:
		rec, err := e.elabSigExpr(s, n.Sig)
		if err != nil {
			return err
		}
		return addOut(s, n.Pos, &env.Entry{Kind: env.ModuleEntry, Name: n.Name, Module: rec})

	case *ast.SigSignatureEntry:
		rec, err := e.elabSigExpr(s, n.Sig)
		if err != nil {
			return err
		}
		return addOut(s, n.Pos, &env.Entry{Kind: env.SignatureEntry, Name: n.Name, Signature: rec})
	}
	return cerr.New(cerr.PhaseElaborate, cerr.InvalidIdentifier, se.Range(), "<unsupported signature entry>")
}

// withType implements `S with type path = Type` (spec §1/§4.K): only a
// still-opaque type named at the end of path may be refined; refining an
// already-transparent one is CannotRestrictTransparentType. path may walk
// through nested `module M : Sig` entries first; each level of the walk
// is rebuilt with the refined member swapped in, so the refinement never
// mutates the signature it started from (a sealed signature may be
// reused by other bindings).
//
// The replacement Type is decoded with no parameters bound (ast.SEWith
// carries no parameter-name list of its own), so `with type` only
// refines zero-arity opaque types precisely; a higher-arity opaque
// refined this way still type-checks, but any lowercase name appearing in
// Type is treated as a fresh, unrelated rigid variable rather than one of
// the opaque type's own declared parameters.
func (e *Elaborator) withType(s *scope, rec *env.SigRecord, path []string, t ast.TypeExpr, rng token.Range) (*env.SigRecord, *cerr.CoreError) {
	if len(path) == 0 {
		return nil, cerr.New(cerr.PhaseElaborate, cerr.InvalidIdentifier, rng, "`with type` needs a path")
	}
	name := path[0]
	if len(path) > 1 {
		sub := rec.Lookup(name)
		if sub == nil || sub.Kind != env.ModuleEntry || sub.Module == nil {
			return nil, cerr.New(cerr.PhaseElaborate, cerr.UnboundModuleName, rng, name)
		}
		refinedSub, err := e.withType(s, sub.Module, path[1:], t, rng)
		if err != nil {
			return nil, err
		}
		out := env.NewChildSigRecord(rec.Parent)
		for _, old := range rec.Entries {
			if old.Name == name {
				old = &env.Entry{Kind: env.ModuleEntry, Name: name, Module: refinedSub}
			}
			out.Add(old)
		}
		return out, nil
	}

	ent := rec.Lookup(name)
	if ent == nil || ent.Kind != env.TypeEntry {
		return nil, cerr.New(cerr.PhaseElaborate, cerr.MissingRequiredTypeName, rng, name)
	}
	if ent.Opaque == 0 {
		return nil, cerr.New(cerr.PhaseElaborate, cerr.CannotRestrictTransparentType, rng, name)
	}
	body, err := e.decodeType(s, t)
	if err != nil {
		return nil, err
	}
	out := env.NewChildSigRecord(rec.Parent)
	for _, old := range rec.Entries {
		if old.Name == name {
			old = &env.Entry{Kind: env.TypeEntry, Name: name, TypeParams: ent.TypeParams, Alias: body}
		}
		out.Add(old)
	}
	return out, nil
}
