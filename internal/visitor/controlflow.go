package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// ControlFlowInfo is a BRANCH/CASE record plus its terminating structural
// edges (spec §4.2 "Control flow").
type ControlFlowInfo struct {
	ID           string
	Kind         graph.NodeKind // KindBranch or KindCase
	Construct    string         // "if", "switch", "case", "default", "ternary", "try"
	FallsThrough bool
	Line, Column int
}

var controlFlowNodeTypes = map[string]bool{
	"if_statement":          true,
	"switch_statement":      true,
	"switch_case":           true,
	"switch_default":        true,
	"ternary_expression":    true,
	"try_statement":         true,
}

// ControlFlowVisitor extracts BRANCH/CASE nodes and detects fallsThrough
// (break/return/throw/continue, or if-else where both branches terminate).
type ControlFlowVisitor struct{}

func (ControlFlowVisitor) Visit(ctx *Context, n *sitter.Node) {
	if !controlFlowNodeTypes[n.Type()] {
		return
	}
	line, col := position(ctx, n)
	kind := graph.KindBranch
	construct := n.Type()
	switch n.Type() {
	case "switch_case":
		kind = graph.KindCase
		construct = "case"
	case "switch_default":
		kind = graph.KindCase
		construct = "default"
	case "if_statement":
		construct = "if"
	case "switch_statement":
		construct = "switch"
	case "ternary_expression":
		construct = "ternary"
	case "try_statement":
		construct = "try"
	}
	idx := ctx.Scope.GetItemCounter("controlflow:" + construct)
	id := ctx.IDs.StableWithDiscriminator(kind, construct, itoa(idx))

	info := ControlFlowInfo{
		ID: id, Kind: kind, Construct: construct,
		FallsThrough: construct == "case" && !terminates(n),
		Line:         line, Column: col,
	}
	ctx.Out.ControlFlow = append(ctx.Out.ControlFlow, info)
}

// terminates reports whether a switch_case's statements end in a
// break/return/throw/continue (spec §4.2 fallsThrough detection), or — for
// an if_statement passed directly — whether both its consequent and
// alternate terminate.
func terminates(n *sitter.Node) bool {
	switch n.Type() {
	case "switch_case":
		count := int(n.NamedChildCount())
		if count == 0 {
			return false
		}
		last := n.NamedChild(count - 1)
		return isTerminatingStatement(last)
	case "if_statement":
		cons := n.ChildByFieldName("consequence")
		alt := n.ChildByFieldName("alternative")
		return alt != nil && isTerminatingStatement(cons) && isTerminatingStatement(alt)
	}
	return false
}

func isTerminatingStatement(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "break_statement", "return_statement", "throw_statement", "continue_statement":
		return true
	case "if_statement":
		return terminates(n)
	case "statement_block":
		if n.NamedChildCount() == 0 {
			return false
		}
		return isTerminatingStatement(n.NamedChild(int(n.NamedChildCount()) - 1))
	}
	return false
}
