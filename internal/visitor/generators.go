package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// GeneratorInfo captures `yield v` / `yield* g` (spec §4.2 "Generators &
// promises"): YIELDS/DELEGATES_TO from the value to the enclosing function.
type GeneratorInfo struct {
	EnclosingFnID string
	ValueText     string
	IsDelegate    bool // yield* g
	Line, Column  int
}

// PromiseInfo captures `resolve(v)`/`reject(v)` inside a `new Promise(exec)`
// body (spec §4.2): RESOLVES_TO from the call to the Promise
// CONSTRUCTOR_CALL, and — for reject — a rejectionPattern recorded on the
// enclosing function.
type PromiseInfo struct {
	EnclosingFnID  string
	IsReject       bool
	ValueText      string
	Line, Column   int
}

// GeneratorVisitor extracts yield expressions and resolve/reject calls
// inside Promise executors.
type GeneratorVisitor struct{}

func (GeneratorVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "yield_expression":
		extractYield(ctx, n)
	case "call_expression":
		extractPromiseSettle(ctx, n)
	}
}

func extractYield(ctx *Context, n *sitter.Node) {
	line, col := position(ctx, n)
	delegate := hasChildOfType(n, "*")
	value := n.NamedChild(0)
	text := ""
	if value != nil {
		text = ctx.text(value)
	}
	ctx.Out.Generators = append(ctx.Out.Generators, GeneratorInfo{
		EnclosingFnID: nearestEnclosingFunctionID(ctx), ValueText: text,
		IsDelegate: delegate, Line: line, Column: col,
	})
}

// extractPromiseSettle recognizes `resolve(v)`/`reject(v)` calls whose name
// matches the executor parameter names of an enclosing `new Promise(exec)`.
// The contract tracking which names are resolve/reject within the current
// executor is approximate: any bare-identifier call named exactly "resolve"
// or "reject" within a function nested inside a Promise constructor call is
// treated as a settle call, matching the common convention the teacher's
// extraction contracts target rather than full lexical binding resolution.
func extractPromiseSettle(ctx *Context, n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return
	}
	name := ctx.text(fn)
	if name != "resolve" && name != "reject" {
		return
	}
	if !withinPromiseExecutor(ctx, n) {
		return
	}
	args := n.ChildByFieldName("arguments")
	text := ""
	if args != nil && args.NamedChildCount() > 0 {
		text = ctx.text(args.NamedChild(0))
	}
	line, col := position(ctx, n)
	ctx.Out.Promises = append(ctx.Out.Promises, PromiseInfo{
		EnclosingFnID: nearestEnclosingFunctionID(ctx), IsReject: name == "reject",
		ValueText: text, Line: line, Column: col,
	})
}

func withinPromiseExecutor(ctx *Context, n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "new_expression" {
			continue
		}
		ctor := p.ChildByFieldName("constructor")
		if ctor != nil && ctx.text(ctor) == "Promise" {
			return true
		}
	}
	return false
}
