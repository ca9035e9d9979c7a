package graphbuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grafema/internal/backend"
	"grafema/internal/backend/memory"
	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// TestBuildResolvesRelativeImportAcrossFiles covers spec §8 scenario 6:
// a.ts exports x, b.ts imports { x } from "./a" — IMPORTS_FROM must resolve
// against the real path of the EXPORT node (path.Join(dir(fromFile), "./a")),
// not the literal concatenation "./a.ts".
func TestBuildResolvesRelativeImportAcrossFiles(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := New(store, graph.NewSingletons())

	aExportID := "EXPORT#a.ts#x"
	aCollections := &visitor.Collections{
		File: "a.ts",
		Exports: []visitor.ExportInfo{
			{ID: aExportID, Name: "x", Line: 1, Column: 1},
		},
	}
	require.NoError(t, b.Build(ctx, aCollections))

	bImportID := "IMPORT#b.ts#x"
	bCollections := &visitor.Collections{
		File: "b.ts",
		Imports: []visitor.ImportInfo{
			{ID: bImportID, Name: "x", ImportedName: "x", Source: "./a", Line: 1, Column: 1},
		},
	}
	require.NoError(t, b.Build(ctx, bCollections))

	edges, err := store.GetEdges(ctx, bImportID, backend.DirectionOut)
	require.NoError(t, err)

	var found *graph.Edge
	for _, e := range edges {
		if e.Kind == graph.EdgeImportsFrom {
			found = e
		}
	}
	if !assert.NotNil(t, found, "expected an IMPORTS_FROM edge from %s", bImportID) {
		return
	}
	assert.Equal(t, aExportID, found.To)
}

// TestResolveRelativeJoinsAgainstFromFileDirectory is a narrower unit test
// for the path-join fix itself: a specifier resolved from a file nested in
// a subdirectory must stay in that subdirectory, not collapse to the
// specifier's own literal text.
func TestResolveRelativeJoinsAgainstFromFileDirectory(t *testing.T) {
	assert.Equal(t, "a.ts", resolveRelative("b.ts", "./a", ".ts"))
	assert.Equal(t, "src/a.ts", resolveRelative("src/b.ts", "./a", ".ts"))
	assert.Equal(t, "lib/a.ts", resolveRelative("src/b.ts", "../lib/a", ".ts"))
}
