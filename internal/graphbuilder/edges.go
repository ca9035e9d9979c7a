package graphbuilder

import (
	"fmt"
	"strings"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// edgeBuffer emits edges in the fixed order spec §4.3 mandates: structural
// -> call-graph -> data-flow -> framework -> type -> decorators ->
// imports/exports -> generators/promises. The framework step adds no edges:
// Collections.FrameworkEdges is not read here. Variable/parameter resolution
// here is scope-local and best-effort (spec §4.3 "Scope-aware variable
// resolution"); cross-function and cross-file resolution is the job of
// internal/enrich, which runs after the whole build.
func edgeBuffer(c *visitor.Collections) []*graph.Edge {
	var edges []*graph.Edge

	// Structural
	moduleID := graph.ModuleID(c.File)
	for _, p := range c.Parameters {
		id := p.FunctionID + "#PARAMETER#" + fmt.Sprint(p.Discriminator())
		edges = append(edges, graph.NewEdge(p.FunctionID, graph.EdgeHasParameter, id))
	}
	for _, cl := range c.Classes {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeContains, cl.ID))
		for _, fn := range c.Functions {
			if fn.ClassID == cl.ID {
				edges = append(edges, graph.NewEdge(cl.ID, graph.EdgeContains, fn.ID))
			}
		}
	}
	for _, fn := range c.Functions {
		if fn.ClassID == "" {
			edges = append(edges, graph.NewEdge(moduleID, graph.EdgeContains, fn.ID))
		}
	}
	for _, iface := range c.Interfaces {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeContains, iface.ID))
	}
	for _, ta := range c.TypeAliases {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeContains, ta.ID))
	}
	for _, e := range c.Enums {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeContains, e.ID))
	}

	// Call graph: CALLS and PASSES_ARGUMENT both need cross-function /
	// cross-file resolution (matching a call's target FUNCTION, matching
	// an argument index to a PARAMETER), so they are MethodCallResolver's
	// and ArgumentParameterLinker's job (spec §4.5), not graphbuilder's.
	// HAS_CALLBACK is resolvable locally: an inline function/arrow literal
	// passed as an argument is itself a FUNCTION node FunctionVisitor
	// already collected at the same coordinates.
	for _, a := range c.Arguments {
		if a.Kind != visitor.ArgFunction {
			continue
		}
		for _, fn := range c.Functions {
			if fn.Line == a.Line && fn.Column == a.Column {
				e := graph.NewEdge(a.CallID, graph.EdgeHasCallback, fn.ID)
				e.Set("argIndex", a.ArgIndex)
				edges = append(edges, e)
				break
			}
		}
	}

	// Data flow
	for _, r := range c.Reassignments {
		edges = append(edges, graph.NewEdge(r.Source, graph.EdgeFlowsInto, r.Target).Set("compound", r.Compound))
		if r.Compound {
			edges = append(edges, graph.NewEdge(r.Target, graph.EdgeReadsFrom, r.Target).Set("selfLoop", true))
		}
	}
	for _, m := range c.ArrayMutations {
		for i, v := range m.InsertedValues {
			e := graph.NewEdge(v, graph.EdgeFlowsInto, m.TargetVariable)
			e.Set("mutationMethod", m.Method).Set("argIndex", i).Set("isSpread", m.IsSpread)
			if m.BaseObjectName != "" {
				e.Set("baseObjectName", m.BaseObjectName).Set("propertyName", m.PropertyName)
			}
			edges = append(edges, e)
		}
	}
	for _, m := range c.ObjectMutations {
		if m.IsThisProperty {
			target := m.EnclosingFn
			if target == "" {
				target = m.EnclosingClass
			}
			// Source is the RHS identifier/expression text (e.g. a
			// constructor parameter name), not the literal "this" receiver
			// (spec §8 scenario 4: FLOWS_INTO(PARAMETER[n] -> FUNCTION[constructor])).
			e := graph.NewEdge(m.Source, graph.EdgeFlowsInto, target)
			e.Set("mutationType", "this_property").Set("propertyName", m.PropertyName)
			edges = append(edges, e)
			continue
		}
		for _, src := range m.Sources {
			e := graph.NewEdge(src, graph.EdgeWritesTo, m.TargetObject)
			e.Set("propertyName", m.PropertyName)
			edges = append(edges, e)
		}
	}

	// Type graph
	for _, cl := range c.Classes {
		if len(cl.Implements) > 0 {
			for _, iface := range cl.Implements {
				edges = append(edges, graph.NewEdge(cl.ID, graph.EdgeImplements, iface))
			}
		}
		if cl.SuperclassRef != "" {
			// Cross-file dangling edges policy (spec §4.3): assume same
			// file first; the target id is computed the same way
			// ClassVisitor computes a CLASS id, so it resolves live once
			// that file's CLASS node with the same name is persisted.
			edges = append(edges, graph.NewEdge(cl.ID, graph.EdgeExtends, cl.SuperclassID))
		}
	}
	for _, r := range c.Reassignments {
		if className, ok := constructorCallClassName(r.Source); ok {
			// Dangling by class name, not id; InstanceOfResolver's global
			// class index finishes the resolution (spec §4.5).
			edges = append(edges, graph.NewEdge(r.Target, graph.EdgeInstanceOf, className).Set("pendingClassName", className))
		}
	}
	for _, tp := range c.TypeParameters {
		for _, constraint := range tp.Constraints {
			edges = append(edges, graph.NewEdge(tp.ID, graph.EdgeExtends, constraint))
		}
		if tp.OwnerID != "" {
			edges = append(edges, graph.NewEdge(tp.OwnerID, graph.EdgeHasTypeParamter, tp.ID))
		}
	}

	// Decorators: DecoratorInfo carries the target's kind but not its id, so
	// the target is the nearest node of that kind appearing at or after the
	// decorator's own line (decorators always precede what they annotate).
	for _, d := range c.Decorators {
		if targetID, ok := nearestDecoratorTarget(c, d); ok {
			edges = append(edges, graph.NewEdge(targetID, graph.EdgeDecoratedBy, d.ID))
		}
	}

	// Imports/exports structural containment
	for _, im := range c.Imports {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeDeclares, im.ID))
	}
	for _, ex := range c.Exports {
		edges = append(edges, graph.NewEdge(moduleID, graph.EdgeDeclares, ex.ID))
	}

	// Generators/promises
	for _, g := range c.Generators {
		kind := graph.EdgeYields
		if g.IsDelegate {
			kind = graph.EdgeDelegatesTo
		}
		edges = append(edges, graph.NewEdge(g.ValueText, kind, g.EnclosingFnID))
	}
	for _, pr := range c.Promises {
		if pr.IsReject {
			edges = append(edges, graph.NewEdge(pr.EnclosingFnID, graph.EdgeRejects, pr.ValueText))
			continue
		}
		edges = append(edges, graph.NewEdge(pr.EnclosingFnID, graph.EdgeResolvesTo, pr.ValueText))
	}

	return edges
}

// nearestDecoratorTarget finds the closest node of d's TargetKind at or
// after d's source position — decorators always precede the declaration
// they annotate, so the smallest non-negative line delta wins.
func nearestDecoratorTarget(c *visitor.Collections, d visitor.DecoratorInfo) (string, bool) {
	bestID := ""
	bestDelta := -1
	consider := func(id string, line int) {
		delta := line - d.Line
		if delta < 0 {
			return
		}
		if bestDelta == -1 || delta < bestDelta {
			bestDelta = delta
			bestID = id
		}
	}
	switch d.TargetKind {
	case graph.KindClass:
		for _, cl := range c.Classes {
			consider(cl.ID, cl.Line)
		}
	case graph.KindFunction:
		for _, fn := range c.Functions {
			consider(fn.ID, fn.Line)
		}
	case graph.KindParameter:
		for _, p := range c.Parameters {
			consider(p.FunctionID+"#PARAMETER#"+fmt.Sprint(p.Discriminator()), p.Line)
		}
	}
	return bestID, bestID != ""
}

// constructorCallClassName extracts "Foo" from a reassignment source text
// like "new Foo(...)" or "new ns.Foo(...)".
func constructorCallClassName(source string) (string, bool) {
	if !strings.HasPrefix(source, "new ") {
		return "", false
	}
	rest := strings.TrimSpace(source[len("new "):])
	end := strings.IndexAny(rest, "( ")
	if end <= 0 {
		return "", false
	}
	name := rest[:end]
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	if name == "" {
		return "", false
	}
	return name, true
}
