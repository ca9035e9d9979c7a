package validate

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// TypeScriptDeadCodeValidator flags interfaces with zero implementations
// (warning), zero properties (info), and exactly one implementation (info)
// — a hint the interface may be inlineable (spec §4.6).
type TypeScriptDeadCodeValidator struct{}

func (v *TypeScriptDeadCodeValidator) Name() string { return "typescript-dead-interface" }

func (v *TypeScriptDeadCodeValidator) Check(ctx context.Context, b backend.GraphBackend) ([]Issue, error) {
	interfaces, err := b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindInterface})
	if err != nil {
		return nil, err
	}
	allEdges, err := b.GetAllEdges(ctx)
	if err != nil {
		return nil, err
	}
	implCount := make(map[string]int)
	for _, e := range allEdges {
		if e.Kind == graph.EdgeImplements {
			implCount[e.To]++
		}
	}

	var issues []Issue
	for _, iface := range interfaces {
		properties, _ := iface.Attr("properties")
		propCount, _ := properties.(int)
		count := implCount[iface.ID]

		switch {
		case count == 0:
			issues = append(issues, newDeadCodeIssue(iface, grafemaerr.SeverityWarning,
				"zero-implementations", iface.Name+" has no implementing class"))
		case count == 1:
			issues = append(issues, newDeadCodeIssue(iface, grafemaerr.SeverityInfo,
				"single-implementation", iface.Name+" has exactly one implementation; consider inlining"))
		}
		if propCount == 0 {
			issues = append(issues, newDeadCodeIssue(iface, grafemaerr.SeverityInfo,
				"empty-interface", iface.Name+" declares zero properties"))
		}
	}
	return issues, nil
}

func newDeadCodeIssue(iface *graph.Node, severity grafemaerr.Severity, code, message string) Issue {
	return Issue{
		Error: &grafemaerr.Error{
			Kind:       grafemaerr.KindValidation,
			Severity:   severity,
			Code:       code,
			Message:    message,
			FilePath:   iface.File,
			LineNumber: iface.Line,
		},
		RuleText: `issue(x, "` + code + `") :- node(x, "INTERFACE"), ...`,
	}
}
