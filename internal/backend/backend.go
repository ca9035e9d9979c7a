// Package backend defines the GraphBackend capability set spec.md treats
// as an external persistence choice (spec §1 Out of scope, §3 Ownership:
// "The GraphBackend exclusively owns nodes and edges"). internal/backend/memory
// and internal/backend/sqlite are the two concrete implementations Grafema
// ships to exercise the rest of the pipeline.
package backend

import (
	"context"

	"grafema/internal/graph"
)

// Direction selects which end of an edge GetEdges walks from a node.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionBoth
)

// AddEdgesOptions controls GraphBuilder's two-phase flush (spec §4.3):
// SkipValidation is set once nodes have just been persisted in the same
// build, so the backend need not re-check endpoint existence.
type AddEdgesOptions struct {
	SkipValidation bool
}

// NodeFilter narrows FindNodes; zero-value fields are wildcards.
type NodeFilter struct {
	Kind graph.NodeKind
	Name string
	File string
}

// GraphBackend is the storage contract the extraction pipeline, enrichment
// passes, validators, and the Datalog wrapper all write through. Resolves
// spec §9 Open Question 3 (GetAllEdges is optional on the source backend):
// Grafema's contract makes it mandatory — every implementation provides an
// efficient enumeration rather than validators degrading to "skipped".
type GraphBackend interface {
	// AddNodes persists a batch of nodes in one call (spec §4.3 "batches,
	// not per-record"). A duplicate id is a grafemaerr.KindDuplicateID
	// error naming the id; the whole batch is rejected so the caller can
	// decide what to retry.
	AddNodes(ctx context.Context, nodes []*graph.Node) error

	// AddEdges persists a batch of edges. With SkipValidation unset, each
	// edge's endpoints must already exist and satisfy graph.CheckSignature
	// or the call fails with grafemaerr.KindUnknownTargetType.
	AddEdges(ctx context.Context, edges []*graph.Edge, opts AddEdgesOptions) error

	// GetNode looks up a single node by id.
	GetNode(ctx context.Context, id string) (*graph.Node, bool, error)

	// FindNodes returns every node matching filter (spec §6 findNodes).
	FindNodes(ctx context.Context, filter NodeFilter) ([]*graph.Node, error)

	// GetEdges returns edges touching nodeID in the given direction.
	GetEdges(ctx context.Context, nodeID string, dir Direction) ([]*graph.Edge, error)

	// GetAllEdges enumerates every edge in the graph, for validators and
	// the containment-forest check (spec I6 / P5) that need the whole
	// CONTAINS/HAS_SCOPE subgraph at once.
	GetAllEdges(ctx context.Context) ([]*graph.Edge, error)

	// DeleteNodes bulk-removes nodes and their incident edges (spec §3
	// Lifecycle: "destroyed only by explicit bulk deletions").
	DeleteNodes(ctx context.Context, ids []string) error

	// Close releases any underlying resources (file handles, connections).
	Close() error
}
