// Package datalog narrows grafema/internal/mangle's general fact-store
// engine to the three-predicate surface spec §4.7 mandates: node/2,
// edge/3, attr/3. It reuses the teacher's Config{FactLimit,QueryTimeout,
// AutoEval} shape verbatim and wraps the same production Datalog engine
// (github.com/google/mangle) the teacher wraps in internal/mangle/engine.go
// and pkg/mangle/mangle.go.
package datalog

import (
	"context"
	"fmt"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
	"grafema/internal/mangle"
)

// Config mirrors the teacher's mangle.Config (spec §5: bindings cap and
// per-query timeout).
type Config = mangle.Config

// DefaultConfig matches spec §5 defaults: 30s query timeout, 10^6 bindings
// cap — FactLimit in the teacher's Config doubles as the bindings cap here
// since Grafema has no separate binding-count knob in the wrapped engine.
func DefaultConfig() Config {
	return Config{FactLimit: 1_000_000, QueryTimeout: 30, AutoEval: true}
}

// Engine is Grafema's Datalog query surface over a loaded graph snapshot.
type Engine struct {
	inner  *mangle.Engine
	tracer *mangle.ProofTreeTracer
}

// New loads a schema declaring the three predicates and returns an Engine.
func New(cfg Config) (*Engine, error) {
	e, err := mangle.NewEngine(cfg, nil)
	if err != nil {
		return nil, grafemaerr.Wrap(grafemaerr.KindBackendUnavailable, err)
	}
	if err := e.LoadSchemaString(SchemaText); err != nil {
		return nil, grafemaerr.Wrap(grafemaerr.KindValidation, err)
	}
	return &Engine{inner: e, tracer: mangle.NewProofTreeTracer(e)}, nil
}

// SchemaText declares node/2, edge/3, attr/3 — the only predicates spec
// §4.7's query surface exposes. Exported so internal/guarantee can validate
// guarantee rule bodies against the same declared set a rule will actually
// run against.
const SchemaText = `
Decl node(Id, Type).
Decl edge(Src, Dst, Type).
Decl attr(Id, Name, Value).
`

// LoadGraph materializes every node/edge/attr fact from a GraphBackend
// snapshot into the engine (spec §4.7 "Query surface").
func (e *Engine) LoadGraph(ctx context.Context, b backend.GraphBackend) error {
	nodes, err := b.FindNodes(ctx, backend.NodeFilter{})
	if err != nil {
		return err
	}
	var facts []mangle.Fact
	for _, n := range nodes {
		facts = append(facts, mangle.Fact{Predicate: "node", Args: []interface{}{n.ID, string(n.Kind)}})
		for k, v := range n.Attrs {
			facts = append(facts, mangle.Fact{Predicate: "attr", Args: []interface{}{n.ID, k, fmt.Sprint(v)}})
		}
	}
	edges, err := b.GetAllEdges(ctx)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		facts = append(facts, mangle.Fact{Predicate: "edge", Args: []interface{}{edge.From, edge.To, string(edge.Kind)}})
	}
	glog.Datalog("loading %d node fact(s), %d edge fact(s) into the query engine", len(nodes), len(edges))
	return e.inner.AddFacts(facts)
}

// Query runs a Datalog query over node/2, edge/3, attr/3 and returns the
// binding rows (spec §4.7).
func (e *Engine) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	result, err := e.inner.Query(ctx, query)
	if err != nil {
		return nil, grafemaerr.Wrap(grafemaerr.KindValidation, err)
	}
	return result.Bindings, nil
}

// Explain runs query and renders the derivation trace behind its results as
// ASCII art, so a guarantee author can see why a rule fired (or why it
// didn't): each result row traces back to the EDB node/edge/attr facts and
// IDB rule applications that produced it.
func (e *Engine) Explain(ctx context.Context, query string) (string, error) {
	e.tracer.IndexRules()
	trace, err := e.tracer.TraceQuery(ctx, query)
	if err != nil {
		return "", grafemaerr.Wrap(grafemaerr.KindValidation, err)
	}
	return trace.RenderASCII(), nil
}

// TraceDataFlow walks ASSIGNED_FROM ∪ DERIVES_FROM ∪ PASSES_ARGUMENT from a
// source node id (spec §6 "traceDataFlow"), direction in {"out","in"},
// bounded by maxDepth.
func (e *Engine) TraceDataFlow(ctx context.Context, sourceID string, direction string, maxDepth int) ([]string, error) {
	kinds := []graph.EdgeKind{graph.EdgeAssignedFrom, graph.EdgeDerivesFrom, graph.EdgePassesArgument}
	var visited []string
	seen := map[string]bool{sourceID: true}
	frontier := []string{sourceID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			q := fmt.Sprintf(`edge(%q, Y, T)`, cur)
			if direction == "in" {
				q = fmt.Sprintf(`edge(Y, %q, T)`, cur)
			}
			rows, err := e.Query(ctx, q)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				t, _ := row["T"].(string)
				if !matchesAny(graph.EdgeKind(t), kinds) {
					continue
				}
				y, _ := row["Y"].(string)
				if y == "" || seen[y] {
					continue
				}
				seen[y] = true
				visited = append(visited, y)
				next = append(next, y)
			}
		}
		frontier = next
	}
	return visited, nil
}

func matchesAny(k graph.EdgeKind, kinds []graph.EdgeKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (e *Engine) Close() error { return e.inner.Close() }
