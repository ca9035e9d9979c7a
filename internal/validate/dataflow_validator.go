package validate

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

const dataFlowMaxDepth = 20

// DataFlowValidator requires every VARIABLE/CONSTANT to reach a leaf node
// by following ASSIGNED_FROM ∪ DERIVES_FROM, cycle-safe, depth limit 20
// (spec §4.6). Class-property fields with no initializer are exempt; this
// extraction pass does not emit a separate FIELD node kind for declared-
// but-uninitialized class properties, so the exemption is keyed off a
// "hasInitializer" attr. graphbuilder does not set that attr, so only a
// node carrying hasInitializer=false is exempt; every other VARIABLE or
// CONSTANT is checked.
type DataFlowValidator struct{}

func (v *DataFlowValidator) Name() string { return "dataflow-unreachable-leaf" }

func (v *DataFlowValidator) Check(ctx context.Context, b backend.GraphBackend) ([]Issue, error) {
	vars, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindVariable})
	if err != nil {
		return nil, err
	}
	consts, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindConstant})
	if err != nil {
		return nil, err
	}
	vars = append(vars, consts...)

	var issues []Issue
	for _, n := range vars {
		if hasInit, ok := n.Attr("hasInitializer"); ok && hasInit == false {
			continue
		}
		reached, err := reachesLeaf(ctx, b, n.ID, dataFlowMaxDepth)
		if err != nil {
			return nil, err
		}
		if reached {
			continue
		}
		issues = append(issues, Issue{
			Error: &grafemaerr.Error{
				Kind:       grafemaerr.KindValidation,
				Severity:   grafemaerr.SeverityWarning,
				Code:       "dataflow-unreachable-leaf",
				Message:    n.Name + " does not reach a leaf node within depth " + itoa(dataFlowMaxDepth),
				FilePath:   n.File,
				LineNumber: n.Line,
			},
			RuleText: `issue(x, "dataflow-unreachable-leaf") :- node(x, T), (T = "VARIABLE" ; T = "CONSTANT"), \+reaches_leaf(x).`,
		})
	}
	return issues, nil
}

func reachesLeaf(ctx context.Context, b backend.GraphBackend, id string, maxDepth int) (bool, error) {
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			edges, err := b.GetEdges(ctx, cur, backend.DirectionOut)
			if err != nil {
				return false, err
			}
			for _, e := range edges {
				if e.Kind != graph.EdgeAssignedFrom && e.Kind != graph.EdgeDerivesFrom {
					continue
				}
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				target, ok, err := b.GetNode(ctx, e.To)
				if err != nil {
					return false, err
				}
				if ok && graph.LeafKinds[target.Kind] {
					return true, nil
				}
				next = append(next, e.To)
			}
		}
		frontier = next
	}
	return false, nil
}
