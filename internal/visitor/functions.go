package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/astparse"
	"grafema/internal/graph"
)

// FunctionInfo is a FUNCTION record (spec §3, structural node kinds).
type FunctionInfo struct {
	ID           string
	Name         string
	Async        bool
	Generator    bool
	Kind         string // "function", "method", "arrow", "constructor"
	ClassID      string // non-empty for methods/constructors
	Line, Column int
}

var functionNodeTypes = map[string]bool{
	"function_declaration":  true,
	"function":              true,
	"generator_function":    true,
	"generator_function_declaration": true,
	"arrow_function":        true,
	"method_definition":     true,
}

// functionIDIfFunctionLike computes a FUNCTION id for n if n is a
// function-like node. Dispatch pushes it only when no FUNCTION record was
// appended for n (no FunctionVisitor in its list); otherwise it pushes the
// id FunctionVisitor recorded.
func functionIDIfFunctionLike(ctx *Context, n *sitter.Node) (string, bool) {
	if !functionNodeTypes[n.Type()] {
		return "", false
	}
	name := functionName(ctx, n)
	return ctx.IDs.Stable(graph.KindFunction, name), true
}

func functionName(ctx *Context, n *sitter.Node) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return ctx.text(nameNode)
	}
	// Anonymous function/arrow: discriminate by a per-scope counter.
	idx := ctx.Scope.GetItemCounter("anonymous_function")
	return "<anonymous>#" + itoa(idx)
}

// FunctionVisitor extracts FUNCTION records and pushes/pops the
// ScopeTracker's named-scope frame for the function body (spec §4.1
// ScopeTracker contract: balanced push/pop across traversal).
type FunctionVisitor struct{}

func (FunctionVisitor) Visit(ctx *Context, n *sitter.Node) {
	if !functionNodeTypes[n.Type()] {
		return
	}
	name := functionName(ctx, n)
	id := ctx.IDs.Stable(graph.KindFunction, name)
	line, col := position(ctx, n)

	kind := "function"
	switch n.Type() {
	case "arrow_function":
		kind = "arrow"
	case "method_definition":
		kind = "method"
		if name == "constructor" {
			kind = "constructor"
		}
	case "generator_function", "generator_function_declaration":
		kind = "function"
	}

	fn := FunctionInfo{
		ID: id, Name: name, Kind: kind,
		Async:     hasChildOfType(n, "async") || textHasPrefix(ctx, n, "async"),
		Generator: n.Type() == "generator_function" || n.Type() == "generator_function_declaration" || hasChildOfType(n, "*"),
		ClassID:   nearestEnclosingClassID(ctx),
		Line:      line, Column: col,
	}
	ctx.Out.Functions = append(ctx.Out.Functions, fn)

	ctx.Scope.Push(name, graph.KindFunction)
}

// VisitExit pops the ScopeTracker frame Visit pushed, once this function
// node's children have been fully walked (Dispatch calls VisitExit on any
// Visitor that implements ExitVisitor).
func (FunctionVisitor) VisitExit(ctx *Context, n *sitter.Node) {
	if functionNodeTypes[n.Type()] {
		ctx.Scope.Pop()
	}
}

func hasChildOfType(n *sitter.Node, t string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == t {
			return true
		}
	}
	return false
}

func textHasPrefix(ctx *Context, n *sitter.Node, prefix string) bool {
	prev := n.PrevSibling()
	return prev != nil && ctx.text(prev) == prefix
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

var _ = astparse.LanguageJavaScript // keep astparse imported for Tree-producing callers' convenience constants used across the package
