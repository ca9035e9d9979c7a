package enrich

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// maxAliasDepth bounds the ASSIGNED_FROM walk (spec §4.5 "depth D=20"),
// following internal/mangle/differential.go's bounded-recompute discipline
// rather than chasing a fixpoint with no ceiling.
const maxAliasDepth = 20

// AliasTracker follows ASSIGNED_FROM chains up to maxAliasDepth to build a
// variable-to-origin alias map consumed by validators, notably
// DataFlowValidator's leaf-reachability check (spec §4.5, §4.6). It does
// not itself write graph edges — Run triggers the computation and caches
// it for the run via Aliases so the orchestrator's phase timing/logging
// still applies uniformly to every enrichment pass.
type AliasTracker struct {
	Aliases map[string][]string // variable/constant id -> every origin id reached
}

func (t *AliasTracker) Name() string { return "AliasTracker" }

func (t *AliasTracker) Run(ctx context.Context, b backend.GraphBackend) (int, error) {
	vars, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindVariable})
	if err != nil {
		return 0, err
	}
	consts, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindConstant})
	if err != nil {
		return 0, err
	}
	vars = append(vars, consts...)

	t.Aliases = make(map[string][]string, len(vars))
	for _, v := range vars {
		origins, err := ComputeAliasOrigins(ctx, b, v.ID, maxAliasDepth)
		if err != nil {
			return 0, err
		}
		t.Aliases[v.ID] = origins
	}
	return len(t.Aliases), nil
}

// ComputeAliasOrigins walks ASSIGNED_FROM edges from id outward up to
// maxDepth hops, collecting every node reached (spec §4.5). Cycle-safe: a
// node already on the current path is not revisited.
func ComputeAliasOrigins(ctx context.Context, b backend.GraphBackend, id string, maxDepth int) ([]string, error) {
	var origins []string
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			edges, err := b.GetEdges(ctx, cur, backend.DirectionOut)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if e.Kind != graph.EdgeAssignedFrom {
					continue
				}
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				origins = append(origins, e.To)
				next = append(next, e.To)
			}
		}
		frontier = next
	}
	return origins, nil
}
