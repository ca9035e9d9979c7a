package orchestrator

import (
	"context"
	"fmt"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// Orchestrator owns the registered plugins and runs them phase by phase
// (spec §4.4). It mirrors the teacher's ShardManager shape — a registry plus
// a sequential runner — narrowed to the extraction pipeline's five fixed
// phases instead of an open shard-type registry.
type Orchestrator struct {
	backend    backend.GraphBackend
	singletons *graph.Singletons
	plugins    map[Phase][]Plugin
}

// New builds an Orchestrator writing grafema:plugin singleton nodes to b.
func New(b backend.GraphBackend, singletons *graph.Singletons) *Orchestrator {
	return &Orchestrator{backend: b, singletons: singletons, plugins: make(map[Phase][]Plugin)}
}

// Register adds a plugin to its declared phase.
func (o *Orchestrator) Register(p Plugin) {
	md := p.Metadata()
	o.plugins[md.Phase] = append(o.plugins[md.Phase], p)
}

// Run executes every phase in order, each plugin's file work parallelized by
// the plugin itself; the orchestrator only guarantees phase and
// within-phase plugin ordering (spec §4.4 "Execution model").
func (o *Orchestrator) Run(ctx context.Context, files []string, onProgress func(ProgressEvent)) ([]PluginResult, error) {
	if err := o.seedPluginSingletons(ctx); err != nil {
		return nil, err
	}

	var results []PluginResult
	for _, phase := range Phases {
		ordered, err := schedulePhase(o.plugins[phase])
		if err != nil {
			return results, err
		}
		glog.Orchestrator("phase %s: %d plugin(s) scheduled", phase, len(ordered))

		for _, p := range ordered {
			if ctx.Err() != nil {
				glog.OrchestratorWarn("phase %s: run cancelled before plugin %s", phase, p.Metadata().Name)
				return results, ctx.Err()
			}
			timer := glog.StartTimer(glog.CategoryOrchestrator, "plugin:"+p.Metadata().Name)
			rc := &RunContext{Context: ctx, OnProgress: onProgress, Files: files}
			res, err := p.Execute(rc)
			timer.Stop()
			if err != nil {
				// A plugin Execute error (not a PluginResult.Errors entry) is
				// reserved for conditions the plugin cannot continue past:
				// backend unavailable or a caller-supplied fatal error kind.
				if ge, ok := err.(*grafemaerr.Error); ok && !ge.Kind.Fatal() {
					res.Errors = append(res.Errors, err)
					results = append(results, res)
					continue
				}
				glog.OrchestratorError("phase %s: plugin %s aborted the run: %v", phase, p.Metadata().Name, err)
				return results, err
			}
			results = append(results, res)
			if len(res.Errors) > 0 {
				glog.OrchestratorWarn("phase %s: plugin %s completed with %d error(s)", phase, p.Metadata().Name, len(res.Errors))
			}
		}
	}
	return results, nil
}

// seedPluginSingletons creates one grafema:plugin node per registered
// plugin instance so the pipeline itself is queryable via the graph (spec
// §4.4 "Singletons").
func (o *Orchestrator) seedPluginSingletons(ctx context.Context) error {
	var nodes []*graph.Node
	for phase, ps := range o.plugins {
		for _, p := range ps {
			md := p.Metadata()
			id := fmt.Sprintf("%s#%s", graph.KindPlugin, md.Name)
			if !o.singletons.Ensure(id) {
				continue
			}
			nodes = append(nodes, graph.NewNode(id, graph.KindPlugin, md.Name).
				Set("phase", string(phase)).
				Set("priority", md.Priority).
				Set("dependencies", md.Dependencies))
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	if err := o.backend.AddNodes(ctx, nodes); err != nil {
		return grafemaerr.Wrap(grafemaerr.KindBackendUnavailable, err)
	}
	return nil
}
