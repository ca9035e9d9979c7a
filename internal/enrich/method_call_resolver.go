package enrich

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// MethodCallResolver adds CALLS edges for every CALL/METHOD_CALL whose name
// matches a FUNCTION.name, same file first, then exported functions of
// imported modules (spec §4.5).
type MethodCallResolver struct{}

func (r *MethodCallResolver) Name() string { return "MethodCallResolver" }

func (r *MethodCallResolver) Run(ctx context.Context, b backend.GraphBackend) (int, error) {
	calls, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindCall})
	if err != nil {
		return 0, err
	}
	methodCalls, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindMethodCall})
	if err != nil {
		return 0, err
	}
	calls = append(calls, methodCalls...)

	var edges []*graph.Edge
	for _, call := range calls {
		if obj, ok := call.Attr("object"); ok && obj != "" {
			continue // has a receiver; name-only resolution does not apply
		}
		target, ok, err := r.resolve(ctx, b, call)
		if err != nil {
			return len(edges), err
		}
		if !ok {
			continue
		}
		edges = append(edges, graph.NewEdge(call.ID, graph.EdgeCalls, target))
	}
	if len(edges) == 0 {
		return 0, nil
	}
	if err := b.AddEdges(ctx, edges, backend.AddEdgesOptions{}); err != nil {
		return 0, err
	}
	return len(edges), nil
}

func (r *MethodCallResolver) resolve(ctx context.Context, b backend.GraphBackend, call *graph.Node) (string, bool, error) {
	candidates, err := functionsByName(ctx, b, call.Name)
	if err != nil {
		return "", false, err
	}
	for _, fn := range candidates {
		if fn.File == call.File {
			return fn.ID, true, nil
		}
	}

	// Cross-file: this file's imports binding call.Name, followed to the
	// exporting file, then matched by name there.
	imports, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindImport, File: call.File})
	if err != nil {
		return "", false, err
	}
	for _, im := range imports {
		importedName, _ := im.Attr("importedName")
		if importedName != call.Name {
			continue
		}
		outEdges, err := b.GetEdges(ctx, im.ID, backend.DirectionOut)
		if err != nil {
			return "", false, err
		}
		for _, e := range outEdges {
			if e.Kind != graph.EdgeImportsFrom {
				continue
			}
			export, ok, err := b.GetNode(ctx, e.To)
			if err != nil {
				return "", false, err
			}
			if !ok {
				continue
			}
			exported, err := functionsByName(ctx, b, call.Name)
			if err != nil {
				return "", false, err
			}
			for _, fn := range exported {
				if fn.File == export.File {
					return fn.ID, true, nil
				}
			}
		}
	}
	return "", false, nil
}
