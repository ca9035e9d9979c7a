package guarantee

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grafema/internal/backend"
	"grafema/internal/backend/memory"
	"grafema/internal/graph"
)

// fakeRunner returns a fixed row set regardless of the query text, enough
// to exercise Check/CheckAll without a real Datalog engine.
type fakeRunner struct {
	rows []map[string]interface{}
	err  error
}

func (f *fakeRunner) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	return f.rows, f.err
}

func newManagerWithModules(t *testing.T, runner QueryRunner, files ...string) (*Manager, context.Context) {
	t.Helper()
	b := memory.New()
	ctx := context.Background()
	for _, f := range files {
		require.NoError(t, b.AddNodes(ctx, []*graph.Node{
			graph.NewNode(graph.ModuleID(f), graph.KindModule, f).WithLocation(f, 0, 0),
		}))
	}
	return New(b, graph.NewSingletons(), runner), ctx
}

func TestCreateRequiresIDAndRule(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{})
	err := mgr.Create(ctx, Definition{Name: "no id or rule"})
	assert.Error(t, err)
}

func TestCreateDefaultsSeverityToWarning(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{})
	def := Definition{ID: "g1", Rule: `violation(X) :- node(X, "CALL").`}
	require.NoError(t, mgr.Create(ctx, def))

	node, ok, err := mgr.backend.GetNode(ctx, guaranteeNodeID("g1"))
	require.NoError(t, err)
	require.True(t, ok)
	sev, _ := node.Attr("severity")
	assert.Equal(t, string(SeverityWarning), sev)
}

func TestCreateRejectsRuleWithUndeclaredPredicate(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{})
	def := Definition{ID: "g1", Rule: `violation(X) :- has_prefix(X, "tmp_").`}
	err := mgr.Create(ctx, def)
	assert.Error(t, err)

	_, ok, getErr := mgr.backend.GetNode(ctx, guaranteeNodeID("g1"))
	require.NoError(t, getErr)
	assert.False(t, ok, "rejected guarantee must not be persisted")
}

func TestCreateEmitsGovernsForMatchingModulesOnly(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{}, "src/api/handler.ts", "src/ui/Button.tsx")
	def := Definition{ID: "g1", Rule: "x.", Governs: []string{"src/api/**"}}
	require.NoError(t, mgr.Create(ctx, def))

	in, err := mgr.backend.GetEdges(ctx, graph.ModuleID("src/api/handler.ts"), backend.DirectionIn)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, graph.EdgeGoverns, in[0].Kind)

	noMatch, err := mgr.backend.GetEdges(ctx, graph.ModuleID("src/ui/Button.tsx"), backend.DirectionIn)
	require.NoError(t, err)
	assert.Empty(t, noMatch)
}

func TestMatchGlobDoublestar(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"src/api/**", "src/api/handler.ts", true},
		{"src/api/**", "src/ui/Button.tsx", false},
		{"**/*.test.ts", "src/deep/nested/foo.test.ts", true},
		{"src/*.ts", "src/index.ts", true},
		{"src/*.ts", "src/deep/index.ts", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, matchGlob(c.pattern, c.path), "pattern=%s path=%s", c.pattern, c.path)
	}
}

func TestCheckReportsViolations(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]interface{}{{"X": "CALL#a.ts#1"}}}
	mgr, ctx := newManagerWithModules(t, runner)
	require.NoError(t, mgr.backend.AddNodes(ctx, []*graph.Node{
		graph.NewNode("CALL#a.ts#1", graph.KindCall, "eval").WithLocation("a.ts", 3, 1),
	}))
	require.NoError(t, mgr.Create(ctx, Definition{ID: "no-eval", Rule: `violation(X) :- node(X,"CALL").`}))

	res := mgr.Check(ctx, "no-eval")
	require.NoError(t, res.Error)
	assert.False(t, res.Passed)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "eval", res.Violations[0].Name)
	assert.Equal(t, "a.ts", res.Violations[0].File)
}

func TestCheckUnknownGuarantee(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{})
	res := mgr.Check(ctx, "does-not-exist")
	assert.Error(t, res.Error)
}

func TestFindAffectedGuarantees(t *testing.T) {
	mgr, ctx := newManagerWithModules(t, &fakeRunner{}, "src/api/handler.ts")
	require.NoError(t, mgr.Create(ctx, Definition{ID: "g1", Rule: "x.", Governs: []string{"src/api/**"}}))
	require.NoError(t, mgr.backend.AddNodes(ctx, []*graph.Node{
		graph.NewNode("CALL#src/api/handler.ts#1", graph.KindCall, "fetch").WithLocation("src/api/handler.ts", 10, 1),
	}))

	affected, err := mgr.FindAffectedGuarantees(ctx, "CALL#src/api/handler.ts#1")
	require.NoError(t, err)
	assert.Equal(t, []string{guaranteeNodeID("g1")}, affected)
}
