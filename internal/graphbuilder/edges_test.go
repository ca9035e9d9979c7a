package graphbuilder

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

func sortedEdgeKeys(edges []*graph.Edge) []string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = fmt.Sprintf("%s|%s|%s", e.From, e.Kind, e.To)
	}
	sort.Strings(keys)
	return keys
}

// TestEdgeBufferDecoratorAndImportEdges compares edgeBuffer's output against
// an expected set order-independently: edgeBuffer's own iteration order
// over map-backed Collections fields isn't a contract worth pinning down
// with assert.Equal's positional comparison.
func TestEdgeBufferDecoratorAndImportEdges(t *testing.T) {
	c := &visitor.Collections{
		File: "a.ts",
		Classes: []visitor.ClassInfo{
			{ID: "CLASS#a.ts#Foo", Line: 3},
		},
		Decorators: []visitor.DecoratorInfo{
			{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindClass, Line: 2},
		},
		Imports: []visitor.ImportInfo{
			{ID: "IMPORT#a.ts#1"},
		},
	}

	got := edgeBuffer(c)

	want := []*graph.Edge{
		graph.NewEdge(graph.ModuleID("a.ts"), graph.EdgeContains, "CLASS#a.ts#Foo"),
		graph.NewEdge("CLASS#a.ts#Foo", graph.EdgeDecoratedBy, "DECORATOR#a.ts#1"),
		graph.NewEdge(graph.ModuleID("a.ts"), graph.EdgeDeclares, "IMPORT#a.ts#1"),
	}

	if diff := cmp.Diff(sortedEdgeKeys(want), sortedEdgeKeys(got), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("edgeBuffer() mismatch (-want +got):\n%s", diff)
	}
}

// TestEdgeBufferThisPropertyAssignmentFlowsFromRHS covers spec §8 scenario 4
// (`class C { constructor(n){ this.name = n } }`): the FLOWS_INTO edge's
// source must be the assigned value ("n"), not the literal "this" receiver.
func TestEdgeBufferThisPropertyAssignmentFlowsFromRHS(t *testing.T) {
	c := &visitor.Collections{
		File: "a.ts",
		ObjectMutations: []visitor.ObjectMutationInfo{
			{
				TargetObject: "this", PropertyName: "name", Source: "n",
				IsThisProperty: true, EnclosingFn: "FUNCTION#a.ts#C.constructor",
			},
		},
	}

	got := edgeBuffer(c)

	var found *graph.Edge
	for _, e := range got {
		if e.Kind == graph.EdgeFlowsInto {
			found = e
		}
	}
	if !assert.NotNil(t, found, "expected a FLOWS_INTO edge") {
		return
	}
	assert.Equal(t, "n", found.From)
	assert.Equal(t, "FUNCTION#a.ts#C.constructor", found.To)
	mutationType, _ := found.Attrs["mutationType"].(string)
	assert.Equal(t, "this_property", mutationType)
}

func TestNearestDecoratorTargetPicksImmediateFollower(t *testing.T) {
	c := &visitor.Collections{
		Classes: []visitor.ClassInfo{
			{ID: "CLASS#a.ts#Foo", Line: 5},
		},
	}
	d := visitor.DecoratorInfo{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindClass, Line: 4}

	id, ok := nearestDecoratorTarget(c, d)
	assert.True(t, ok)
	assert.Equal(t, "CLASS#a.ts#Foo", id)
}

func TestNearestDecoratorTargetPicksClosestAmongSeveral(t *testing.T) {
	c := &visitor.Collections{
		Functions: []visitor.FunctionInfo{
			{ID: "FUNCTION#a.ts#near", Line: 10},
			{ID: "FUNCTION#a.ts#far", Line: 20},
		},
	}
	d := visitor.DecoratorInfo{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindFunction, Line: 9}

	id, ok := nearestDecoratorTarget(c, d)
	assert.True(t, ok)
	assert.Equal(t, "FUNCTION#a.ts#near", id)
}

func TestNearestDecoratorTargetIgnoresCandidatesBeforeDecorator(t *testing.T) {
	c := &visitor.Collections{
		Functions: []visitor.FunctionInfo{
			{ID: "FUNCTION#a.ts#before", Line: 1},
		},
	}
	d := visitor.DecoratorInfo{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindFunction, Line: 5}

	_, ok := nearestDecoratorTarget(c, d)
	assert.False(t, ok)
}

func TestNearestDecoratorTargetParameterUsesDiscriminator(t *testing.T) {
	p := visitor.ParameterInfo{FunctionID: "FUNCTION#a.ts#m", Index: 1, SubIndex: 0, Line: 7}
	c := &visitor.Collections{
		Parameters: []visitor.ParameterInfo{p},
	}
	d := visitor.DecoratorInfo{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindParameter, Line: 7}

	id, ok := nearestDecoratorTarget(c, d)
	assert.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%s#PARAMETER#%d", p.FunctionID, p.Discriminator()), id)
}

func TestNearestDecoratorTargetNoCandidates(t *testing.T) {
	c := &visitor.Collections{}
	d := visitor.DecoratorInfo{ID: "DECORATOR#a.ts#1", TargetKind: graph.KindClass, Line: 1}

	_, ok := nearestDecoratorTarget(c, d)
	assert.False(t, ok)
}

func TestConstructorCallClassName(t *testing.T) {
	cases := []struct {
		source   string
		wantName string
		wantOK   bool
	}{
		{"new Foo()", "Foo", true},
		{"new Foo(1, 2)", "Foo", true},
		{"new ns.Foo()", "Foo", true},
		{"Foo()", "", false},
		{"new ", "", false},
	}
	for _, c := range cases {
		name, ok := constructorCallClassName(c.source)
		assert.Equal(t, c.wantOK, ok, "source=%q", c.source)
		if c.wantOK {
			assert.Equal(t, c.wantName, name, "source=%q", c.source)
		}
	}
}
