package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	meta Metadata
}

func (f *fakePlugin) Metadata() Metadata { return f.meta }
func (f *fakePlugin) Execute(rc *RunContext) (PluginResult, error) {
	return PluginResult{PluginName: f.meta.Name}, nil
}

func names(plugins []Plugin) []string {
	out := make([]string, len(plugins))
	for i, p := range plugins {
		out[i] = p.Metadata().Name
	}
	return out
}

func TestSchedulePhaseOrdersByDependency(t *testing.T) {
	a := &fakePlugin{Metadata{Name: "a"}}
	b := &fakePlugin{Metadata{Name: "b", Dependencies: []string{"a"}}}
	c := &fakePlugin{Metadata{Name: "c", Dependencies: []string{"b"}}}

	order, err := schedulePhase([]Plugin{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(order))
}

func TestSchedulePhaseBreaksTiesByPriorityThenName(t *testing.T) {
	low := &fakePlugin{Metadata{Name: "low", Priority: 0}}
	high := &fakePlugin{Metadata{Name: "high", Priority: 10}}
	alsoHigh := &fakePlugin{Metadata{Name: "alsoHigh", Priority: 10}}

	order, err := schedulePhase([]Plugin{low, high, alsoHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"alsoHigh", "high", "low"}, names(order))
}

func TestSchedulePhaseDetectsCycle(t *testing.T) {
	a := &fakePlugin{Metadata{Name: "a", Dependencies: []string{"b"}}}
	b := &fakePlugin{Metadata{Name: "b", Dependencies: []string{"a"}}}

	_, err := schedulePhase([]Plugin{a, b})
	require.Error(t, err)
}

func TestSchedulePhaseIgnoresDependencyOutsidePhase(t *testing.T) {
	a := &fakePlugin{Metadata{Name: "a", Dependencies: []string{"outside-phase-plugin"}}}

	order, err := schedulePhase([]Plugin{a})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(order))
}
