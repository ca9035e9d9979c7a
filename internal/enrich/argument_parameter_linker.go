package enrich

import (
	"context"
	"sort"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// ArgumentParameterLinker connects PASSES_ARGUMENT[call, argIndex] to the
// matching PARAMETER by index for every resolved CALLS(call -> fn) edge;
// rest parameters absorb the tail (spec §4.5). Argument records themselves
// are not persisted as nodes (spec §4.2 coordinates-only shape), so this
// pass reads them back from the CALL node's own attrs, which graphbuilder
// set from visitor.Collections — argCount plus the per-argument metadata
// CallVisitor/extractArguments attached to the call node.
type ArgumentParameterLinker struct{}

func (l *ArgumentParameterLinker) Name() string { return "ArgumentParameterLinker" }

func (l *ArgumentParameterLinker) Run(ctx context.Context, b backend.GraphBackend) (int, error) {
	allEdges, err := b.GetAllEdges(ctx)
	if err != nil {
		return 0, err
	}

	var newEdges []*graph.Edge
	for _, e := range allEdges {
		if e.Kind != graph.EdgeCalls {
			continue
		}
		call, ok, err := b.GetNode(ctx, e.From)
		if err != nil {
			return len(newEdges), err
		}
		if !ok {
			continue
		}
		argCountAny, _ := call.Attr("argCount")
		argCount, _ := argCountAny.(int)
		if argCount == 0 {
			continue
		}

		params, err := paramsForFunction(ctx, b, e.To)
		if err != nil {
			return len(newEdges), err
		}
		if len(params) == 0 {
			continue
		}
		for i := 0; i < argCount; i++ {
			target := paramAtIndex(params, i)
			if target == nil {
				continue
			}
			edge := graph.NewEdge(call.ID, graph.EdgePassesArgument, target.ID)
			edge.Set("argIndex", i)
			newEdges = append(newEdges, edge)
		}
	}
	if len(newEdges) == 0 {
		return 0, nil
	}
	if err := b.AddEdges(ctx, newEdges, backend.AddEdgesOptions{SkipValidation: true}); err != nil {
		return 0, err
	}
	return len(newEdges), nil
}

func paramsForFunction(ctx context.Context, b backend.GraphBackend, fnID string) ([]*graph.Node, error) {
	params, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindParameter})
	if err != nil {
		return nil, err
	}
	var out []*graph.Node
	for _, p := range params {
		if owner, ok := p.Attr("functionId"); ok && owner == fnID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		iIdx, _ := out[i].Attr("index")
		jIdx, _ := out[j].Attr("index")
		return toInt(iIdx) < toInt(jIdx)
	})
	return out, nil
}

// paramAtIndex returns the parameter bound at call-site argument index i,
// with a trailing rest parameter absorbing every index past its own
// (spec §4.5 "rest params absorb the tail").
func paramAtIndex(params []*graph.Node, i int) *graph.Node {
	if len(params) == 0 {
		return nil
	}
	last := params[len(params)-1]
	if isRest, _ := last.Attr("isRest"); isRest == true {
		if i >= len(params)-1 {
			return last
		}
	}
	if i < len(params) {
		return params[i]
	}
	return nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
