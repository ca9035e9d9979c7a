package framework

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// httpMethods are the Express router methods that shape an HTTP_REQUEST
// node (spec §3 framework/domain row).
var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true, "all": true, "use": true,
}

// ExpressVisitor pattern-matches `app.get(path, handler)` /
// `router.post(path, handler)` call shapes into HTTP_REQUEST nodes.
type ExpressVisitor struct{}

func (ExpressVisitor) Visit(ctx *visitor.Context, n *sitter.Node) {
	if n.Type() != "call_expression" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	receiver := visitor.NodeText(ctx, fn.ChildByFieldName("object"))
	if !isExpressReceiver(receiver) {
		return
	}
	method := visitor.NodeText(ctx, fn.ChildByFieldName("property"))
	if !httpMethods[method] {
		return
	}
	args := n.ChildByFieldName("arguments")
	path := ""
	if args != nil && args.NamedChildCount() > 0 {
		path = visitor.NodeText(ctx, args.NamedChild(0))
	}
	line, col := visitor.NodePosition(ctx, n)
	idx := ctx.Scope.GetItemCounter("http:" + method)
	id := ctx.IDs.StableWithDiscriminator(graph.KindHTTPRequest, path, visitor.Itoa(idx))
	info := visitor.FrameworkNodeInfo{
		ID: id, Kind: graph.KindHTTPRequest, Name: path, Line: line, Column: col,
		Attrs: map[string]any{"method": method, "path": path},
	}
	ctx.Out.FrameworkNodes = append(ctx.Out.FrameworkNodes, info)
}

func isExpressReceiver(name string) bool {
	switch name {
	case "app", "router", "server":
		return true
	default:
		return false
	}
}
