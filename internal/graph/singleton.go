package graph

import "sync"

// Singletons tracks nodes that must be created at most once per graph
// (spec I5): net:stdio, net:request, and each EXTERNAL_MODULE:<source>.
// It is per-build state (spec §5 "Shared resources"): the orchestrator
// owns one instance for the whole pipeline run and every plugin creating a
// singleton node must go through it so concurrent per-file work can't
// double-create one.
type Singletons struct {
	mu      sync.Mutex
	created map[string]bool
}

// NewSingletons returns an empty tracker for a fresh build.
func NewSingletons() *Singletons {
	return &Singletons{created: make(map[string]bool)}
}

// Ensure registers id as created and reports whether this call was the
// first (true) to do so. Callers only emit the node when Ensure returns
// true; subsequent callers simply link to the existing id.
func (s *Singletons) Ensure(id string) (first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[id] {
		return false
	}
	s.created[id] = true
	return true
}

// ContainmentForest validates spec I6: the subgraph induced by
// CONTAINS/HAS_SCOPE edges has no cycles and its roots are exactly the
// MODULE nodes. It takes the full node and edge sets of a completed build
// (or a single file's contribution) and returns an error describing the
// first violation found (a cycle, a MODULE with a parent, or a non-MODULE
// root of a containment tree), or nil. Nodes with no CONTAINS/HAS_SCOPE
// edge at all are not checked.
func ContainmentForest(nodes map[string]NodeKind, edges []*Edge) error {
	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != EdgeContains && e.Kind != EdgeHasScope {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		hasParent[e.To] = true
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	var cyclic func(id string) bool
	cyclic = func(id string) bool {
		color[id] = gray
		for _, c := range children[id] {
			switch color[c] {
			case gray:
				return true
			case white:
				if cyclic(c) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for id, kind := range nodes {
		if hasParent[id] && kind == KindModule {
			return &CycleError{Node: id, Reason: "MODULE node has an incoming CONTAINS/HAS_SCOPE edge"}
		}
		if !hasParent[id] && len(children[id]) > 0 && kind != KindModule {
			return &CycleError{Node: id, Reason: "non-MODULE root in CONTAINS/HAS_SCOPE subgraph"}
		}
	}
	for id := range nodes {
		if color[id] == white {
			if cyclic(id) {
				return &CycleError{Node: id, Reason: "cycle detected in CONTAINS/HAS_SCOPE subgraph"}
			}
		}
	}
	return nil
}

// CycleError reports a containment-forest violation (spec I6 / P5).
type CycleError struct {
	Node   string
	Reason string
}

func (e *CycleError) Error() string {
	return "graph: containment forest violation at " + e.Node + ": " + e.Reason
}
