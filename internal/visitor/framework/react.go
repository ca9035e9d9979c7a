// Package framework holds pattern-matching overlay visitors for the
// domain/framework node kinds (spec §3: "react:component|state|effect|...",
// "socketio:emit|on|room|event", etc.). Overlays are analyses layered on
// the same visitor.Context/Dispatch machinery as the core visitors, not a
// separate pipeline.
package framework

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// reactHooks mirrors the teacher's flat hook-name pattern list.
var reactHooks = map[string]string{
	"useState":             "state",
	"useReducer":           "state",
	"useEffect":            "effect",
	"useLayoutEffect":      "effect",
	"useContext":           "context",
	"useCallback":          "callback",
	"useMemo":              "memo",
	"useRef":               "ref",
	"useImperativeHandle":  "ref",
	"useDeferredValue":     "deferred-value",
	"useTransition":        "transition",
	"useId":                "id",
	"useSyncExternalStore": "external-store",
}

// ReactVisitor tags calls to React hooks with `react:*` node kinds (spec §3
// framework/domain row). Function components are not detected.
type ReactVisitor struct{}

func (ReactVisitor) Visit(ctx *visitor.Context, n *sitter.Node) {
	if n.Type() != "call_expression" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return
	}
	name := visitor.NodeText(ctx, fn)
	tag, ok := reactHooks[name]
	if !ok {
		return
	}
	line, col := visitor.NodePosition(ctx, n)
	kind := graph.FrameworkNodeKind("react", tag)
	idx := ctx.Scope.GetItemCounter("react:" + name)
	id := ctx.IDs.StableWithDiscriminator(kind, name, visitor.Itoa(idx))
	ctx.Out.FrameworkNodes = append(ctx.Out.FrameworkNodes, visitor.FrameworkNodeInfo{
		ID: id, Kind: kind, Name: name, Line: line, Column: col,
	})
}
