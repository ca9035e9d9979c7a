package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// ParameterInfo is a single flattened parameter binding (spec §4.2,
// "Parameters"). Destructured patterns are flattened to one ParameterInfo
// per leaf binding: {a, b: {c}} yields two records, not one.
type ParameterInfo struct {
	FunctionID    string
	Name          string
	Index         int    // original slot index in the parameter list
	SubIndex      int    // position within a destructured slot's leaves
	PropertyPath  []string // dotted path for object-destructured bindings
	ArrayIndex    int      // >=0 for array-destructured bindings, else -1
	HasDefault    bool
	IsRest        bool
	DefaultNodeID string // id of the default-value node, if HasDefault
	Line, Column  int
}

// Discriminator returns the stable id suffix for this parameter, per
// spec §4.2: index*1000 + subIndex.
func (p ParameterInfo) Discriminator() int {
	return p.Index*1000 + p.SubIndex
}

// ParamVisitor extracts PARAMETER records from a function/method parameter
// list, flattening destructuring patterns (spec §4.2 "Parameters").
type ParamVisitor struct{}

func (ParamVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "formal_parameters":
		functionID := nearestEnclosingFunctionID(ctx)
		subCounter := 0
		for i := 0; i < int(n.NamedChildCount()); i++ {
			param := n.NamedChild(i)
			extractParam(ctx, param, functionID, i, &subCounter)
		}
	}
}

// extractParam flattens one top-level parameter slot (which may itself be
// a destructuring pattern) into one or more ParameterInfo records.
func extractParam(ctx *Context, n *sitter.Node, functionID string, index int, subCounter *int) {
	switch n.Type() {
	case "required_parameter", "optional_parameter":
		// TypeScript wraps the pattern one level deeper.
		if pattern := n.ChildByFieldName("pattern"); pattern != nil {
			extractParam(ctx, pattern, functionID, index, subCounter)
			return
		}
	case "identifier":
		line, col := position(ctx, n)
		emitParam(ctx, ParameterInfo{
			FunctionID: functionID, Name: ctx.text(n), Index: index, SubIndex: *subCounter,
			ArrayIndex: -1, Line: line, Column: col,
		})
		*subCounter++
	case "assignment_pattern":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		base := extractLeafParam(ctx, left, functionID, index, subCounter)
		if base != nil {
			base.HasDefault = true
			if right != nil {
				base.DefaultNodeID = ctx.IDs.Stable(graph.KindExpression, ctx.text(right))
			}
			emitParam(ctx, *base)
		}
	case "rest_pattern":
		if id := n.NamedChild(0); id != nil {
			line, col := position(ctx, n)
			emitParam(ctx, ParameterInfo{
				FunctionID: functionID, Name: ctx.text(id), Index: index, SubIndex: *subCounter,
				ArrayIndex: -1, IsRest: true, Line: line, Column: col,
			})
			*subCounter++
		}
	case "object_pattern":
		extractObjectPattern(ctx, n, functionID, index, subCounter, nil)
	case "array_pattern":
		extractArrayPattern(ctx, n, functionID, index, subCounter, nil)
	}
}

// extractLeafParam handles the left-hand side of a default-valued
// parameter, which may itself be a plain identifier or a nested pattern.
func extractLeafParam(ctx *Context, n *sitter.Node, functionID string, index int, subCounter *int) *ParameterInfo {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		line, col := position(ctx, n)
		p := ParameterInfo{FunctionID: functionID, Name: ctx.text(n), Index: index, SubIndex: *subCounter, ArrayIndex: -1, Line: line, Column: col}
		*subCounter++
		return &p
	case "object_pattern":
		extractObjectPattern(ctx, n, functionID, index, subCounter, nil)
	case "array_pattern":
		extractArrayPattern(ctx, n, functionID, index, subCounter, nil)
	}
	return nil
}

func extractObjectPattern(ctx *Context, n *sitter.Node, functionID string, index int, subCounter *int, prefix []string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		prop := n.NamedChild(i)
		switch prop.Type() {
		case "shorthand_property_identifier_pattern":
			line, col := position(ctx, prop)
			emitParam(ctx, ParameterInfo{
				FunctionID: functionID, Name: ctx.text(prop), Index: index, SubIndex: *subCounter,
				PropertyPath: appendPath(prefix, ctx.text(prop)), ArrayIndex: -1, Line: line, Column: col,
			})
			*subCounter++
		case "pair_pattern":
			key := ctx.text(prop.ChildByFieldName("key"))
			value := prop.ChildByFieldName("value")
			path := appendPath(prefix, key)
			switch value.Type() {
			case "identifier":
				line, col := position(ctx, value)
				emitParam(ctx, ParameterInfo{
					FunctionID: functionID, Name: ctx.text(value), Index: index, SubIndex: *subCounter,
					PropertyPath: path, ArrayIndex: -1, Line: line, Column: col,
				})
				*subCounter++
			case "assignment_pattern":
				left := value.ChildByFieldName("left")
				right := value.ChildByFieldName("right")
				line, col := position(ctx, value)
				name := key
				if left != nil && left.Type() == "identifier" {
					name = ctx.text(left)
				}
				p := ParameterInfo{
					FunctionID: functionID, Name: name, Index: index, SubIndex: *subCounter,
					PropertyPath: path, ArrayIndex: -1, HasDefault: true, Line: line, Column: col,
				}
				if right != nil {
					p.DefaultNodeID = ctx.IDs.Stable(graph.KindExpression, ctx.text(right))
				}
				emitParam(ctx, p)
				*subCounter++
			case "object_pattern":
				extractObjectPattern(ctx, value, functionID, index, subCounter, path)
			case "array_pattern":
				extractArrayPattern(ctx, value, functionID, index, subCounter, path)
			}
		case "object_assignment_pattern":
			// Shorthand destructured property with a default, e.g.
			// `{ c = 1 }`: tree-sitter-javascript gives this its own
			// node type rather than nesting a pair_pattern inside an
			// assignment_pattern.
			left := prop.ChildByFieldName("left")
			right := prop.ChildByFieldName("right")
			if left == nil {
				continue
			}
			name := ctx.text(left)
			line, col := position(ctx, prop)
			p := ParameterInfo{
				FunctionID: functionID, Name: name, Index: index, SubIndex: *subCounter,
				PropertyPath: appendPath(prefix, name), ArrayIndex: -1, HasDefault: true, Line: line, Column: col,
			}
			if right != nil {
				p.DefaultNodeID = ctx.IDs.Stable(graph.KindExpression, ctx.text(right))
			}
			emitParam(ctx, p)
			*subCounter++
		}
	}
}

func extractArrayPattern(ctx *Context, n *sitter.Node, functionID string, index int, subCounter *int, prefix []string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		el := n.NamedChild(i)
		switch el.Type() {
		case "identifier":
			line, col := position(ctx, el)
			emitParam(ctx, ParameterInfo{
				FunctionID: functionID, Name: ctx.text(el), Index: index, SubIndex: *subCounter,
				PropertyPath: prefix, ArrayIndex: i, Line: line, Column: col,
			})
			*subCounter++
		case "object_pattern":
			extractObjectPattern(ctx, el, functionID, index, subCounter, prefix)
		case "array_pattern":
			extractArrayPattern(ctx, el, functionID, index, subCounter, prefix)
		}
	}
}

func appendPath(prefix []string, name string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, name)
}

func emitParam(ctx *Context, p ParameterInfo) {
	ctx.Out.Parameters = append(ctx.Out.Parameters, p)
}
