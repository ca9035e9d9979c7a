package enrich

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// InstanceOfResolver reconciles dangling INSTANCE_OF edges — graphbuilder
// emits them keyed by class name text rather than a node id, since the
// CLASS node they point at may live in a file not yet analyzed — against
// the global class index (spec §4.5). Edges without a "pendingClassName"
// attr are already resolved and skipped.
type InstanceOfResolver struct{}

func (r *InstanceOfResolver) Name() string { return "InstanceOfResolver" }

func (r *InstanceOfResolver) Run(ctx context.Context, b backend.GraphBackend) (int, error) {
	allEdges, err := b.GetAllEdges(ctx)
	if err != nil {
		return 0, err
	}

	classIndex := make(map[string]*graph.Node)
	classes, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindClass})
	if err != nil {
		return 0, err
	}
	for _, cl := range classes {
		if _, exists := classIndex[cl.Name]; !exists {
			classIndex[cl.Name] = cl
		}
	}

	var resolved []*graph.Edge
	for _, e := range allEdges {
		if e.Kind != graph.EdgeInstanceOf {
			continue
		}
		className, ok := e.Attr("pendingClassName")
		if !ok {
			continue
		}
		cl, found := classIndex[className.(string)]
		if !found {
			continue
		}
		variable, ok, err := b.GetNode(ctx, e.From)
		if err != nil {
			return len(resolved), err
		}
		if !ok || !graph.CheckSignature(graph.EdgeInstanceOf, variable.Kind, cl.Kind) {
			continue
		}
		resolved = append(resolved, graph.NewEdge(e.From, graph.EdgeInstanceOf, cl.ID))
	}
	if len(resolved) == 0 {
		return 0, nil
	}
	if err := b.AddEdges(ctx, resolved, backend.AddEdgesOptions{}); err != nil {
		return 0, err
	}
	return len(resolved), nil
}
