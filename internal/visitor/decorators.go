package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// DecoratorInfo is a DECORATOR record; TargetKind selects which records
// graphbuilder searches, and the nearest one at or after the decorator's
// line becomes the DECORATED_BY edge's source node (spec §4.2 "Types").
type DecoratorInfo struct {
	ID           string
	Name         string
	TargetKind   graph.NodeKind // KindClass, KindFunction, or KindParameter
	Line, Column int
}

// DecoratorVisitor extracts `@decorator` annotations preceding a class,
// method, or parameter.
type DecoratorVisitor struct{}

func (DecoratorVisitor) Visit(ctx *Context, n *sitter.Node) {
	if n.Type() != "decorator" {
		return
	}
	expr := n.NamedChild(0)
	name := ctx.text(expr)
	if expr != nil && expr.Type() == "call_expression" {
		name = ctx.text(expr.ChildByFieldName("function"))
	}
	line, col := position(ctx, n)

	target := n.Parent()
	kind := graph.KindClass
	switch {
	case target != nil && target.Type() == "method_definition":
		kind = graph.KindFunction
	case target != nil && (target.Type() == "required_parameter" || target.Type() == "optional_parameter"):
		kind = graph.KindParameter
	}

	idx := ctx.Scope.GetItemCounter("decorator:" + name)
	id := ctx.IDs.StableWithDiscriminator(graph.KindDecorator, name, itoa(idx))
	ctx.Out.Decorators = append(ctx.Out.Decorators, DecoratorInfo{
		ID: id, Name: name, TargetKind: kind, Line: line, Column: col,
	})
}
