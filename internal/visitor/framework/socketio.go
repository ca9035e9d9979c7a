package framework

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// socketioMethods maps a Socket.IO method name to its `socketio:*` tag
// (spec §3).
var socketioMethods = map[string]string{
	"emit": "emit",
	"on":   "on",
	"to":   "room",
	"in":   "room",
}

// SocketIOVisitor pattern-matches `io.emit(...)`, `socket.on(...)` and
// `io.to(room)` call shapes. In `io.to(room).emit(...)` only the to(room)
// call is tagged: the chained emit's receiver is not io, socket or nsp.
type SocketIOVisitor struct{}

func (SocketIOVisitor) Visit(ctx *visitor.Context, n *sitter.Node) {
	if n.Type() != "call_expression" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	receiver := visitor.NodeText(ctx, fn.ChildByFieldName("object"))
	if !isSocketReceiver(receiver) {
		return
	}
	method := visitor.NodeText(ctx, fn.ChildByFieldName("property"))
	tag, ok := socketioMethods[method]
	if !ok {
		return
	}

	args := n.ChildByFieldName("arguments")
	eventName := ""
	if args != nil && args.NamedChildCount() > 0 {
		eventName = visitor.NodeText(ctx, args.NamedChild(0))
	}
	line, col := visitor.NodePosition(ctx, n)
	kind := graph.FrameworkNodeKind("socketio", tag)
	idx := ctx.Scope.GetItemCounter("socketio:" + method)
	id := ctx.IDs.StableWithDiscriminator(kind, eventName, visitor.Itoa(idx))
	ctx.Out.FrameworkNodes = append(ctx.Out.FrameworkNodes, visitor.FrameworkNodeInfo{
		ID: id, Kind: kind, Name: eventName, Line: line, Column: col,
	})
}

// isSocketReceiver is a loose name heuristic (io/socket/nsp), matching the
// teacher's style of string-pattern matching in EmitLanguageFacts rather
// than real type resolution.
func isSocketReceiver(name string) bool {
	switch name {
	case "io", "socket", "nsp":
		return true
	default:
		return false
	}
}
