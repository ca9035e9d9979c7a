// Package memory is an in-process GraphBackend, grounded on the
// lock-guarded flat-map shape of google/mangle/factstore's
// NewSimpleInMemoryStore: one mutex, one set of maps, no persistence.
// Used for unit tests and the CLI's `--memory` escape hatch.
package memory

import (
	"context"
	"sync"

	"grafema/internal/backend"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// Store is an in-memory GraphBackend implementation.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*graph.Node
	edges []*graph.Edge
	// outEdges/inEdges index edges by each endpoint for GetEdges; AddEdges
	// appends to them and DeleteNodes rebuilds both from the surviving edges.
	outEdges map[string][]*graph.Edge
	inEdges  map[string][]*graph.Edge
}

// New returns an empty in-memory backend.
func New() *Store {
	return &Store{
		nodes:    make(map[string]*graph.Node),
		outEdges: make(map[string][]*graph.Edge),
		inEdges:  make(map[string][]*graph.Edge),
	}
}

func (s *Store) AddNodes(_ context.Context, nodes []*graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		if _, exists := s.nodes[n.ID]; exists {
			return grafemaerr.New(grafemaerr.KindDuplicateID, "node id already present: %s", n.ID)
		}
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return nil
}

func (s *Store) AddEdges(_ context.Context, edges []*graph.Edge, opts backend.AddEdgesOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !opts.SkipValidation {
		for _, e := range edges {
			from, fromOK := s.nodes[e.From]
			to, toOK := s.nodes[e.To]
			if !fromOK || !toOK {
				return grafemaerr.New(grafemaerr.KindUnknownTargetType, "edge %s endpoints not both present: %s -> %s", e.Kind, e.From, e.To)
			}
			if !graph.CheckSignature(e.Kind, from.Kind, to.Kind) {
				return grafemaerr.New(grafemaerr.KindUnknownTargetType, "edge %s may not connect %s -> %s", e.Kind, from.Kind, to.Kind)
			}
		}
	}
	for _, e := range edges {
		s.edges = append(s.edges, e)
		s.outEdges[e.From] = append(s.outEdges[e.From], e)
		s.inEdges[e.To] = append(s.inEdges[e.To], e)
	}
	return nil
}

func (s *Store) GetNode(_ context.Context, id string) (*graph.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok, nil
}

func (s *Store) FindNodes(_ context.Context, filter backend.NodeFilter) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Node
	for _, n := range s.nodes {
		if filter.Kind != "" && n.Kind != filter.Kind {
			continue
		}
		if filter.Name != "" && n.Name != filter.Name {
			continue
		}
		if filter.File != "" && n.File != filter.File {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) GetEdges(_ context.Context, nodeID string, dir backend.Direction) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch dir {
	case backend.DirectionOut:
		return append([]*graph.Edge(nil), s.outEdges[nodeID]...), nil
	case backend.DirectionIn:
		return append([]*graph.Edge(nil), s.inEdges[nodeID]...), nil
	default:
		out := append([]*graph.Edge(nil), s.outEdges[nodeID]...)
		return append(out, s.inEdges[nodeID]...), nil
	}
}

func (s *Store) GetAllEdges(_ context.Context) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*graph.Edge(nil), s.edges...), nil
}

func (s *Store) DeleteNodes(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
		delete(s.nodes, id)
	}
	kept := s.edges[:0]
	for _, e := range s.edges {
		if doomed[e.From] || doomed[e.To] {
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	s.outEdges = make(map[string][]*graph.Edge)
	s.inEdges = make(map[string][]*graph.Edge)
	for _, e := range s.edges {
		s.outEdges[e.From] = append(s.outEdges[e.From], e)
		s.inEdges[e.To] = append(s.inEdges[e.To], e)
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ backend.GraphBackend = (*Store)(nil)
