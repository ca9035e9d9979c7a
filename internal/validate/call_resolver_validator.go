package validate

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// CallResolverValidator flags every CALL with no receiver and no resolved
// CALLS edge (spec §4.6):
//
//	∀ CALL x: (¬attr(x,"object") ∧ ¬∃y. CALLS(x,y)) ⇒ issue:unresolved-call
type CallResolverValidator struct{}

func (v *CallResolverValidator) Name() string { return "unresolved-call" }

func (v *CallResolverValidator) Check(ctx context.Context, b backend.GraphBackend) ([]Issue, error) {
	calls, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindCall})
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]bool)
	allEdges, err := b.GetAllEdges(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range allEdges {
		if e.Kind == graph.EdgeCalls {
			resolved[e.From] = true
		}
	}

	var issues []Issue
	for _, call := range calls {
		if obj, ok := call.Attr("object"); ok && obj != "" {
			continue
		}
		if resolved[call.ID] {
			continue
		}
		issues = append(issues, Issue{
			Error: &grafemaerr.Error{
				Kind:       grafemaerr.KindValidation,
				Severity:   grafemaerr.SeverityWarning,
				Code:       "unresolved-call",
				Message:    "call " + call.Name + " does not resolve to a known FUNCTION",
				FilePath:   call.File,
				LineNumber: call.Line,
			},
			RuleText: `issue(x, "unresolved-call") :- node(x, "CALL"), \+attr(x, "object", _), \+edge(x, _, "CALLS").`,
		})
	}
	return issues, nil
}
