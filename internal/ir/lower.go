package ir

import "github.com/sestcore/sest/internal/ast"

// Lower desugars a single internal/ast.Expr into the IR value language.
// Purely syntax-directed: it runs after elaboration succeeds (so the
// program is known well-typed) but never consults a types.Type, exactly
// mirroring the teacher's separation between analysis and the bytecode
// emitter it fed.
func Lower(e ast.Expr) Node {
	switch n := e.(type) {
	case *ast.Ident:
		return &Var{Kind: KVar, Name: qualifiedName(n.ModulePath, n.Name)}
	case *ast.IntLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "int", Value: n.Value}
	case *ast.FloatLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "float", Value: n.Value}
	case *ast.BoolLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "bool", Value: n.Value}
	case *ast.CharLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "char", Value: string(n.Value)}
	case *ast.StringLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "string", Value: n.Value}
	case *ast.FormatStringLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "format", Value: n.Value}
	case *ast.UnitLit:
		return &BaseConst{Kind: KBaseConst, Scalar: "unit", Value: nil}

	case *ast.TupleExpr:
		els := make([]Node, len(n.Elements))
		for i, el := range n.Elements {
			els[i] = Lower(el)
		}
		return &Tuple{Kind: KTuple, Elements: els}

	case *ast.ListNil:
		return &ListNil{Kind: KListNil}
	case *ast.ListCons:
		return &ListCons{Kind: KListCons, Head: Lower(n.Head), Tail: Lower(n.Tail)}
	case *ast.ListLit:
		// desugar to nested cons, innermost-first — mirrors what the parser
		// itself would have produced had it not kept ListLit as sugar.
		tail := Node(&ListNil{Kind: KListNil})
		for i := len(n.Elements) - 1; i >= 0; i-- {
			tail = &ListCons{Kind: KListCons, Head: Lower(n.Elements[i]), Tail: tail}
		}
		return tail

	case *ast.RecordLit:
		fields := make(map[string]Node, len(n.Fields))
		order := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[f.Label] = Lower(f.Value)
			order[i] = f.Label
		}
		var spread Node
		if n.Spread != nil {
			spread = Lower(n.Spread)
		}
		return &Record{Kind: KRecord, Spread: spread, Fields: fields, Order: order}
	case *ast.RecordAccess:
		return &RecordAccess{Kind: KRecordAccess, Expr: Lower(n.Expr), Label: n.Label}
	case *ast.RecordUpdate:
		fields := make(map[string]Node, len(n.Fields))
		order := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[f.Label] = Lower(f.Value)
			order[i] = f.Label
		}
		return &RecordUpdate{Kind: KRecordUpdate, Base: Lower(n.Base), Fields: fields, Order: order}

	case *ast.Lambda:
		return lowerLambda("", n.Params, n.Body)

	case *ast.Apply:
		return lowerApply(n)

	case *ast.IfExpr:
		// `if c then t else f` lowers to a two-armed Case over bool,
		// matching the teacher's desugaring of conditionals into its
		// bytecode's branch instruction pair.
		return &Case{
			Kind:      KCase,
			Scrutinee: Lower(n.Cond),
			Branches: []Branch{
				{Pattern: &PLit{PKind: PKLit, Value: &BaseConst{Kind: KBaseConst, Scalar: "bool", Value: true}}, Body: Lower(n.Then)},
				{Pattern: &PWildcard{PKind: PKWildcard}, Body: Lower(n.Else)},
			},
		}

	case *ast.LetExpr:
		names := make([]string, len(n.Bindings))
		exprs := make([]Node, len(n.Bindings))
		for i, b := range n.Bindings {
			names[i] = b.Name
			exprs[i] = lowerBindingExpr(b)
		}
		return &LetIn{Kind: KLetIn, Rec: n.Rec, Names: names, Exprs: exprs, Body: Lower(n.Body)}

	case *ast.CaseExpr:
		return &Case{Kind: KCase, Scrutinee: Lower(n.Scrutinee), Branches: lowerArms(n.Arms)}

	case *ast.ConstructorExpr:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = Lower(a)
		}
		return &Constructor{Kind: KConstructor, Name: n.Name, Args: args}

	case *ast.ReceiveExpr:
		return &Receive{Kind: KReceive, Branches: lowerArms(n.Arms)}
	case *ast.SpawnExpr:
		return &Apply{Kind: KApply, Callee: &Var{Kind: KVar, Name: "spawn"}, Ordered: []Node{Lower(n.Body)}}
	case *ast.SelfExpr:
		return &Var{Kind: KVar, Name: "self"}
	case *ast.SendExpr:
		return &Apply{Kind: KApply, Callee: &Var{Kind: KVar, Name: "send"}, Ordered: []Node{Lower(n.Target), Lower(n.Value)}}

	case *ast.DoExpr:
		// `do x = comp in rest` lowers to an Apply of >>= (bind) whose
		// continuation is a one-parameter Lambda, matching the monadic
		// reading spec §4.J gives `do`.
		return &Apply{
			Kind:   KApply,
			Callee: &Var{Kind: KVar, Name: "bind"},
			Ordered: []Node{
				Lower(n.Comp),
				&Lambda{Kind: KLambda, Ordered: []string{n.Name}, Body: Lower(n.Rest)},
			},
		}

	case *ast.FreezeExpr:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = Lower(a)
		}
		return &Freeze{Kind: KFreeze, GlobalName: n.GlobalName, Args: args}
	case *ast.FreezeUpdateExpr:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = Lower(a)
		}
		return &FreezeUpdate{Kind: KFreezeUpdate, Base: Lower(n.Base), Args: args}
	}
	// Unreachable for a well-formed tree produced by internal/parser.
	return &BaseConst{Kind: KBaseConst, Scalar: "unit", Value: nil}
}

func qualifiedName(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	full := ""
	for _, p := range path {
		full += p + "."
	}
	return full + name
}

// lowerBindingExpr lowers one ValBinding's right-hand side, reintroducing
// function-sugar params (`name(p1, p2) = body`) as a Lambda.
func lowerBindingExpr(b *ast.ValBinding) Node {
	if b.Params != nil {
		return lowerLambda(b.Name, b.Params, b.Body)
	}
	return Lower(b.Body)
}

func lowerLambda(selfName string, params []ast.Param, body ast.Expr) Node {
	lam := &Lambda{Kind: KLambda, SelfName: selfName, Body: Lower(body)}
	for _, p := range params {
		switch {
		case p.Label == "":
			lam.Ordered = append(lam.Ordered, p.Name)
		case !p.Optional:
			lam.Mandatory = append(lam.Mandatory, p.Label)
		default:
			op := OptionalParam{Name: p.Label}
			if p.Default != nil {
				op.Default = Lower(p.Default)
			}
			lam.Optional = append(lam.Optional, op)
		}
	}
	return lam
}

func lowerApply(n *ast.Apply) Node {
	app := &Apply{Kind: KApply, Callee: Lower(n.Callee)}
	for _, a := range n.Args {
		v := Lower(a.Value)
		switch {
		case a.Label == "":
			app.Ordered = append(app.Ordered, v)
		case !a.Optional:
			if app.Mandatory == nil {
				app.Mandatory = map[string]Node{}
			}
			app.Mandatory[a.Label] = v
		default:
			if app.Optional == nil {
				app.Optional = map[string]Node{}
			}
			app.Optional[a.Label] = v
		}
	}
	return app
}

func lowerArms(arms []ast.Arm) []Branch {
	out := make([]Branch, len(arms))
	for i, a := range arms {
		br := Branch{Pattern: LowerPattern(a.Pattern), Body: Lower(a.Body)}
		if a.Guard != nil {
			br.Guard = Lower(a.Guard)
		}
		out[i] = br
	}
	return out
}

// LowerPattern desugars a single internal/ast.Pattern into the IR's
// pattern language.
func LowerPattern(p ast.Pattern) Pattern {
	switch n := p.(type) {
	case *ast.PVar:
		return &PVar{PKind: PKVar, Name: n.Name}
	case *ast.PWildcard:
		return &PWildcard{PKind: PKWildcard}
	case *ast.PLit:
		return &PLit{PKind: PKLit, Value: Lower(n.Value)}
	case *ast.PTuple:
		els := make([]Pattern, len(n.Elements))
		for i, e := range n.Elements {
			els[i] = LowerPattern(e)
		}
		return &PTuple{PKind: PKTuple, Elements: els}
	case *ast.PListNil:
		return &PListNil{PKind: PKListNil}
	case *ast.PCons:
		return &PCons{PKind: PKCons, Head: LowerPattern(n.Head), Tail: LowerPattern(n.Tail)}
	case *ast.PConstructor:
		args := make([]Pattern, len(n.Args))
		for i, a := range n.Args {
			args[i] = LowerPattern(a)
		}
		return &PConstructor{PKind: PKConstructor, Name: n.Name, Args: args}
	case *ast.PRecord:
		fields := make([]PRecordField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = PRecordField{Label: f.Label, Pattern: LowerPattern(f.Pattern)}
		}
		return &PRecord{PKind: PKRecord, Fields: fields}
	}
	return &PWildcard{PKind: PKWildcard}
}

// LowerProgram collects the top-level `let`/`let rec` bindings of a
// structure body into IR bindings, in declaration order, flattening
// `and`-groups (spec §6: "list of IR bindings").
func LowerProgram(path string, decls []ast.Decl) *Module {
	mod := &Module{Path: path}
	for _, d := range decls {
		if dl, ok := d.(*ast.DeclLet); ok {
			for _, b := range dl.Bindings {
				mod.Bindings = append(mod.Bindings, Binding{Name: b.Name, Expr: lowerBindingExpr(b)})
			}
		}
	}
	return mod
}
