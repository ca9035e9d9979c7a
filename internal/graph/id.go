package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"grafema/internal/grafemaerr"
)

// Semantic ids take the form file -> scopePath -> TYPE -> name [#discriminator]
// (spec §4.1). Legacy positional ids (TYPE#name#file#line[:column[:counter]])
// are documented but not produced by new code — this implementation only
// emits semantic ids, per spec.md's mandate for new implementations.

// pendingNode is a node awaiting collision resolution: its base id plus the
// content hints used to order and discriminate colliding siblings.
type pendingNode struct {
	baseID string
	node   *Node
	line   int
	column int
	shape  string // e.g. a hash of the call's argument shape
}

// IdGenerator computes semantic ids for one file's worth of nodes and
// resolves base-id collisions at end-of-file (spec §4.1 "Collision
// resolution (v2)"). It is per-file state, reset between files — never
// shared across a build the way ScopeTracker is per-file.
type IdGenerator struct {
	scope    *ScopeTracker
	pending  map[string][]*pendingNode
	order    []string // insertion order of base ids, for stable discriminators
	resolved bool
}

// NewIdGenerator binds an IdGenerator to the ScopeTracker driving the
// current file's traversal.
func NewIdGenerator(scope *ScopeTracker) *IdGenerator {
	return &IdGenerator{
		scope:   scope,
		pending: make(map[string][]*pendingNode),
	}
}

// semanticBaseID builds the file -> scopePath -> TYPE -> name portion of a
// semantic id, with no discriminator.
func semanticBaseID(ctx Context, kind NodeKind, name string) string {
	var b strings.Builder
	b.WriteString(ctx.File)
	for _, s := range ctx.ScopePath {
		b.WriteString("/")
		b.WriteString(s)
	}
	b.WriteString("::")
	b.WriteString(string(kind))
	b.WriteString("::")
	b.WriteString(name)
	return b.String()
}

// NodeClassNeedsCollisionResolution reports whether a node kind's
// uniqueness by (type, name, scope) is not guaranteed and must go through
// the collision-resolution pass (spec §4.1: CALL, METHOD_CALL,
// PROPERTY_ACCESS — PROPERTY_ACCESS nodes are modeled here as EXPRESSION).
func NodeClassNeedsCollisionResolution(kind NodeKind) bool {
	switch kind {
	case KindCall, KindMethodCall, KindExpression:
		return true
	default:
		return false
	}
}

// Stable assigns a final id immediately for node classes where (type, name,
// scope) uniqueness already holds — no collision pass required.
func (g *IdGenerator) Stable(kind NodeKind, name string) string {
	ctx := g.scope.GetContext()
	return semanticBaseID(ctx, kind, name)
}

// StableWithDiscriminator assigns a final id using an explicit
// discriminator the caller already computed (e.g. a PARAMETER's
// index*1000+subIndex per spec §4.2).
func (g *IdGenerator) StableWithDiscriminator(kind NodeKind, name string, discriminator string) string {
	return g.Stable(kind, name) + "#" + discriminator
}

// Pending registers a node whose final id depends on end-of-file collision
// resolution (spec §4.1). line/column/shape are the "content hints" used to
// order colliding siblings deterministically.
func (g *IdGenerator) Pending(node *Node, kind NodeKind, name string, line, column int, shape string) {
	ctx := g.scope.GetContext()
	base := semanticBaseID(ctx, kind, name)
	node.ID = base // provisional; rewritten by Resolve if it collides
	p := &pendingNode{baseID: base, node: node, line: line, column: column, shape: shape}
	if _, seen := g.pending[base]; !seen {
		g.order = append(g.order, base)
	}
	g.pending[base] = append(g.pending[base], p)
}

// Resolve runs the collision resolver over every base id registered via
// Pending during this file's traversal: partitions accumulate, singletons
// keep their base id, and partitions with more than one member get a
// stable discriminator derived from content hints ordered by insertion
// (spec §4.1). Must be called exactly once, after the file is fully
// visited; calling it twice is a programming error.
func (g *IdGenerator) Resolve() error {
	if g.resolved {
		return fmt.Errorf("graph: IdGenerator.Resolve called twice for file %s", g.scope.file)
	}
	g.resolved = true
	seen := make(map[string]bool)
	for _, base := range g.order {
		group := g.pending[base]
		if len(group) == 1 {
			group[0].node.ID = base
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].line != group[j].line {
				return group[i].line < group[j].line
			}
			if group[i].column != group[j].column {
				return group[i].column < group[j].column
			}
			return group[i].shape < group[j].shape
		})
		for i, p := range group {
			disc := fmt.Sprintf("%d:%d:%s", p.line, p.column, shortHash(p.shape))
			id := fmt.Sprintf("%s#%d#%s", base, i, disc)
			p.node.ID = id
			if seen[id] {
				return fmt.Errorf("graph: %w: %s", grafemaerr.ErrDuplicateID, id)
			}
			seen[id] = true
		}
	}
	return nil
}

func shortHash(s string) string {
	if s == "" {
		return "0"
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}
