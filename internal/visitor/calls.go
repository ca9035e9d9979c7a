package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// CallInfo is a CALL/METHOD_CALL/CONSTRUCTOR_CALL record (spec §3, §4.1
// collision-resistant node classes).
type CallInfo struct {
	ID           string
	Name         string
	Kind         graph.NodeKind // KindCall, KindMethodCall, or KindConstructorCall
	Object       string         // receiver expression text, for method calls
	CallerFnID   string         // enclosing function, for CALLS edge emission
	ArgCount     int
	Line, Column int
}

// CallVisitor extracts call-expression nodes. Ids for CALL/METHOD_CALL go
// through the collision resolver (spec §4.1) because name+scope does not
// uniquely identify a call site — two `foo()` calls in the same function
// are distinct nodes distinguished only by position.
type CallVisitor struct{}

func (CallVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "call_expression":
		extractCall(ctx, n)
	case "new_expression":
		extractConstructorCall(ctx, n)
	}
}

func extractCall(ctx *Context, n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	args := n.ChildByFieldName("arguments")
	argCount := 0
	if args != nil {
		argCount = int(args.NamedChildCount())
	}
	line, col := position(ctx, n)

	var name, object string
	kind := graph.KindCall
	if fn.Type() == "member_expression" {
		kind = graph.KindMethodCall
		object = ctx.text(fn.ChildByFieldName("object"))
		name = ctx.text(fn.ChildByFieldName("property"))
	} else {
		name = ctx.text(fn)
	}

	node := graph.NewNode("", kind, name)
	shape := argShapeHash(ctx, args)
	ctx.IDs.Pending(node, kind, name, line, col, shape)

	info := CallInfo{
		ID: node.ID, Name: name, Kind: kind, Object: object,
		CallerFnID: nearestEnclosingFunctionID(ctx), ArgCount: argCount,
		Line: line, Column: col,
	}
	ctx.Out.Calls = append(ctx.Out.Calls, info)
	ctx.pendingCallNodes = append(ctx.pendingCallNodes, node)
	extractArguments(ctx, node, args)
}

func extractConstructorCall(ctx *Context, n *sitter.Node) {
	fn := n.ChildByFieldName("constructor")
	if fn == nil {
		return
	}
	name := ctx.text(fn)
	args := n.ChildByFieldName("arguments")
	argCount := 0
	if args != nil {
		argCount = int(args.NamedChildCount())
	}
	line, col := position(ctx, n)

	node := graph.NewNode("", graph.KindConstructorCall, name)
	shape := argShapeHash(ctx, args)
	ctx.IDs.Pending(node, graph.KindConstructorCall, name, line, col, shape)

	info := CallInfo{
		ID: node.ID, Name: name, Kind: graph.KindConstructorCall,
		CallerFnID: nearestEnclosingFunctionID(ctx), ArgCount: argCount,
		Line: line, Column: col,
	}
	ctx.Out.Calls = append(ctx.Out.Calls, info)
	ctx.pendingCallNodes = append(ctx.pendingCallNodes, node)
	extractArguments(ctx, node, args)
}

func argShapeHash(ctx *Context, args *sitter.Node) string {
	if args == nil {
		return ""
	}
	shape := ""
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if i > 0 {
			shape += ","
		}
		shape += args.NamedChild(i).Type()
	}
	return shape
}
