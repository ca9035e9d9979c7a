// Package enrich runs the post-build passes spec §4.5 names, each one a
// transitive closure over edges already persisted by graphbuilder:
// MethodCallResolver, ArgumentParameterLinker, InstanceOfResolver,
// RejectionPropagationEnricher, AliasTracker.
//
// These are grounded on internal/world/dataflow.go's walk-then-emit shape
// (extract a fact, walk related nodes, emit a derived fact) adapted from
// AST traversal to graph traversal — enrichment runs after the whole file
// set has been built, so it queries the GraphBackend rather than a parse
// tree. AliasTracker's depth-capped transitive walk follows the bounded
// recompute discipline internal/mangle/differential.go uses for
// incremental stratum recomputation (walk until fixpoint or a hard depth
// cap, never unboundedly).
package enrich

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/graph"
)

// Enricher is one enrichment pass (spec §4.5).
type Enricher interface {
	Name() string
	Run(ctx context.Context, b backend.GraphBackend) (int, error)
}

// RunAll runs every enricher in the fixed contractual order spec §4.5 lists
// them (each depends on facts the previous ones may have added: resolved
// CALLS feeds ArgumentParameterLinker's index lookups and
// RejectionPropagationEnricher's transitive walk). It returns the
// AliasTracker so validators can read its alias map directly.
func RunAll(ctx context.Context, b backend.GraphBackend) (*AliasTracker, error) {
	aliases := &AliasTracker{}
	passes := []Enricher{
		&MethodCallResolver{},
		&ArgumentParameterLinker{},
		&InstanceOfResolver{},
		&RejectionPropagationEnricher{},
		aliases,
	}
	for _, p := range passes {
		n, err := p.Run(ctx, b)
		if err != nil {
			return nil, err
		}
		glog.Enrich("%s: added %d edge(s)", p.Name(), n)
	}
	return aliases, nil
}

// functionsByName returns every FUNCTION node with the given name, in the
// backend's order, for MethodCallResolver's name-match lookup; the
// resolver itself prefers a same-file candidate among them.
func functionsByName(ctx context.Context, b backend.GraphBackend, name string) ([]*graph.Node, error) {
	return b.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindFunction, Name: name})
}
