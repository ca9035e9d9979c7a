package orchestrator

import "context"

// Phase is one of the five strictly ordered pipeline stages (spec §4.4).
type Phase string

const (
	PhaseDiscovery  Phase = "DISCOVERY"
	PhaseIndexing   Phase = "INDEXING"
	PhaseAnalysis   Phase = "ANALYSIS"
	PhaseEnrichment Phase = "ENRICHMENT"
	PhaseValidation Phase = "VALIDATION"
)

// Phases lists every phase in run order.
var Phases = []Phase{PhaseDiscovery, PhaseIndexing, PhaseAnalysis, PhaseEnrichment, PhaseValidation}

// Metadata describes a plugin's scheduling contract (spec §4.4 "Plugin
// contract"). Dependencies names other plugins (by Metadata.Name); a
// dependency in the same phase is scheduled before this plugin, and every
// plugin of an earlier phase has completed anyway. A dependency in a later
// phase, or a name no plugin has, is not checked. Creates is
// advisory: it documents which node/edge kinds the plugin writes, used for
// coverage reporting, not enforced at schedule time.
type Metadata struct {
	Name         string
	Phase        Phase
	Priority     int // higher runs first among ties within a phase
	Dependencies []string
	Creates      Creates
}

// Creates documents the node/edge kinds a plugin is expected to write.
type Creates struct {
	Nodes []string
	Edges []string
}

// ProgressEvent is delivered to an OnProgress callback as a plugin processes
// files (spec §4.4 "Progress & cancellation").
type ProgressEvent struct {
	Phase          Phase
	CurrentPlugin  string
	Message        string
	TotalFiles     int
	ProcessedFiles int
}

// RunContext is the execution context passed to Plugin.Execute. It carries
// the cooperative cancellation signal via ctx.Done() (checked at file
// boundaries, not mid-file) and a progress sink.
type RunContext struct {
	context.Context
	OnProgress func(ProgressEvent)
	Files      []string
}

// Report emits a progress event if a sink is attached.
func (rc *RunContext) Report(ev ProgressEvent) {
	if rc.OnProgress != nil {
		rc.OnProgress(ev)
	}
}

// PluginResult is what Plugin.Execute returns: a non-fatal error list plus
// whatever counts the plugin wants surfaced (spec §4.4 "Failure isolation").
// A plugin returning a non-empty Errors list does not halt the run. An error
// returned from Execute itself halts it, unless it is a *grafemaerr.Error
// whose Kind is not fatal: that one is appended to Errors and the run
// continues.
type PluginResult struct {
	PluginName string
	Errors     []error
	NodesAdded int
	EdgesAdded int
}

// Plugin is one unit of work scheduled by the Orchestrator.
type Plugin interface {
	Metadata() Metadata
	Execute(rc *RunContext) (PluginResult, error)
}
