package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// ArgumentKind closes the set of shapes an argument can take (spec §4.2
// "Argument extraction").
type ArgumentKind string

const (
	ArgLiteral       ArgumentKind = "LITERAL"
	ArgVariable      ArgumentKind = "VARIABLE"
	ArgFunction      ArgumentKind = "FUNCTION"
	ArgCall          ArgumentKind = "CALL"
	ArgExpression    ArgumentKind = "EXPRESSION"
	ArgObjectLiteral ArgumentKind = "OBJECT_LITERAL"
	ArgArrayLiteral  ArgumentKind = "ARRAY_LITERAL"
	ArgSpread        ArgumentKind = "SPREAD"
)

// ArgumentInfo records one call argument (spec §4.2): its text and
// line/column. No id is recorded for an argument that is itself a call or
// an inline function.
type ArgumentInfo struct {
	CallID       string
	ArgIndex     int
	IsSpread     bool
	Kind         ArgumentKind
	Text         string
	Line, Column int

	// callNode is resolved to CallID once the owning file's collision
	// resolution pass runs (Context.Resolve): at extraction time the call's
	// own id may still be provisional.
	callNode *graph.Node
}

// extractArguments classifies each argument of a call (spec §4.2) and
// appends one ArgumentInfo per argument. Object/array literal arguments
// are classified only; their contents are not extracted.
func extractArguments(ctx *Context, call *graph.Node, args *sitter.Node) {
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		line, col := position(ctx, arg)
		info := ArgumentInfo{
			ArgIndex: i, Text: ctx.text(arg), Line: line, Column: col, callNode: call,
		}
		switch arg.Type() {
		case "spread_element":
			info.IsSpread = true
			info.Kind = ArgSpread
		case "string", "number", "true", "false", "null", "undefined", "template_string":
			info.Kind = ArgLiteral
		case "identifier":
			info.Kind = ArgVariable
		case "function", "arrow_function":
			info.Kind = ArgFunction
		case "call_expression", "new_expression":
			info.Kind = ArgCall
		case "object":
			info.Kind = ArgObjectLiteral
		case "array":
			info.Kind = ArgArrayLiteral
		default:
			info.Kind = ArgExpression
		}
		ctx.Out.Arguments = append(ctx.Out.Arguments, info)
	}
}
