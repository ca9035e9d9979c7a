package enrich

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// RejectionPropagationEnricher walks CALLS transitively: if a callee
// REJECTS some error value and the caller has no CATCHES_FROM edge
// covering it, the caller is marked as REJECTS too (spec §4.5). Catch-site
// detection (CATCHES_FROM) is not produced by the extraction pass, so
// every reject propagates to every transitive caller.
type RejectionPropagationEnricher struct{}

func (r *RejectionPropagationEnricher) Name() string { return "RejectionPropagationEnricher" }

func (r *RejectionPropagationEnricher) Run(ctx context.Context, b backend.GraphBackend) (int, error) {
	allEdges, err := b.GetAllEdges(ctx)
	if err != nil {
		return 0, err
	}

	callers := make(map[string][]string) // callee fn id -> caller fn ids
	for _, e := range allEdges {
		if e.Kind != graph.EdgeCalls {
			continue
		}
		callNode, ok, err := b.GetNode(ctx, e.From)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		callerFnID, _ := callNode.Attr("callerFnId")
		if s, ok := callerFnID.(string); ok && s != "" {
			callers[e.To] = append(callers[e.To], s)
		}
	}

	rejects := make(map[string][]string) // fn id -> error values it rejects
	caught := make(map[string]map[string]bool)
	for _, e := range allEdges {
		switch e.Kind {
		case graph.EdgeRejects:
			rejects[e.From] = append(rejects[e.From], e.To)
		case graph.EdgeCatchesFrom:
			if caught[e.From] == nil {
				caught[e.From] = make(map[string]bool)
			}
			caught[e.From][e.To] = true
		}
	}

	var newEdges []*graph.Edge
	seen := make(map[string]bool)
	queue := make([]string, 0, len(rejects))
	for fn := range rejects {
		queue = append(queue, fn)
	}
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		for _, errVal := range rejects[fn] {
			for _, caller := range callers[fn] {
				if caught[caller][errVal] {
					continue
				}
				key := caller + "|" + errVal
				if seen[key] {
					continue
				}
				seen[key] = true
				newEdges = append(newEdges, graph.NewEdge(caller, graph.EdgeRejects, errVal))
				rejects[caller] = append(rejects[caller], errVal)
				queue = append(queue, caller)
			}
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
