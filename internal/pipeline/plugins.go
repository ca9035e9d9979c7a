package pipeline

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"grafema/internal/astparse"
	"grafema/internal/backend"
	"grafema/internal/enrich"
	"grafema/internal/glog"
	"grafema/internal/graph"
	"grafema/internal/graphbuilder"
	"grafema/internal/orchestrator"
	"grafema/internal/validate"
	"grafema/internal/visitor"
)

// indexingWorkers bounds the per-file task pool (spec §5 "a small task pool
// for parallelism"); AST parsing and visiting are CPU-bound, so this tracks
// GOMAXPROCS-scale concurrency rather than an I/O-bound fan-out.
const indexingWorkers = 8

// discoveryPlugin seeds rc.Files; a no-op here since Run already resolves
// the file list before invoking the orchestrator, but it keeps the
// DISCOVERY phase represented in the grafema:plugin graph (spec §4.4
// "Singletons").
type discoveryPlugin struct{}

func (discoveryPlugin) Metadata() orchestrator.Metadata {
	return orchestrator.Metadata{Name: "discovery.files", Phase: orchestrator.PhaseDiscovery}
}

func (discoveryPlugin) Execute(rc *orchestrator.RunContext) (orchestrator.PluginResult, error) {
	rc.Report(orchestrator.ProgressEvent{Phase: orchestrator.PhaseDiscovery, Message: fmt.Sprintf("discovered %d file(s)", len(rc.Files)), TotalFiles: len(rc.Files)})
	return orchestrator.PluginResult{PluginName: "discovery.files"}, nil
}

// indexingPlugin runs parse+visit+GraphBuilder.Build over every file (spec
// §4.2-§4.3), the INDEXING phase's sole built-in plugin.
type indexingPlugin struct {
	backend    backend.GraphBackend
	singletons *graph.Singletons
	results    *Result
}

func (p *indexingPlugin) Metadata() orchestrator.Metadata {
	return orchestrator.Metadata{
		Name: "indexing.extract", Phase: orchestrator.PhaseIndexing,
		Creates: orchestrator.Creates{
			Nodes: []string{"FUNCTION", "CLASS", "VARIABLE", "CALL", "IMPORT", "EXPORT"},
			Edges: []string{"CONTAINS", "HAS_PARAMETER", "ASSIGNED_FROM", "IMPORTS_FROM"},
		},
	}
}

// visitResult pairs one file's parse/visit outcome with its source path, so
// the sequential flush stage below can report progress and errors per file.
type visitResult struct {
	path string
	vctx *visitor.Context
	err  error
}

func (p *indexingPlugin) Execute(rc *orchestrator.RunContext) (orchestrator.PluginResult, error) {
	builder := graphbuilder.New(p.backend, p.singletons)
	vs := coreVisitors()

	// Stage 1: parse+visit every file across a bounded worker pool — CPU-bound
	// and independent per file (spec §5). Each worker gets its own Parser
	// since tree-sitter parsers aren't safe to share across goroutines.
	results := make([]visitResult, len(rc.Files))
	group, gctx := errgroup.WithContext(rc)
	group.SetLimit(indexingWorkers)
	for i, path := range rc.Files {
		i, path := i, path
		group.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			parser := astparse.NewParser()
			vctx, err := parseAndVisit(parser, vs, path)
			results[i] = visitResult{path: path, vctx: vctx, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return orchestrator.PluginResult{PluginName: "indexing.extract"}, err
	}

	// Stage 2: flush each file's collections through the shared GraphBuilder
	// sequentially — GraphBuilder tracks per-build pending-import state that
	// is not safe for concurrent Build calls, and the sqlite backend itself
	// serializes writes to a single connection regardless (spec §5 "the
	// backend must serialize writes").
	for i, v := range results {
		if err := rc.Err(); err != nil {
			return orchestrator.PluginResult{PluginName: "indexing.extract"}, err
		}
		rc.Report(orchestrator.ProgressEvent{
			Phase: orchestrator.PhaseIndexing, CurrentPlugin: "indexing.extract",
			Message: v.path, TotalFiles: len(rc.Files), ProcessedFiles: i + 1,
		})
		fr := FileResult{Path: v.path}
		switch {
		case v.err != nil:
			fr.Error = v.err
			glog.GraphBuilderWarn("skipping %s: %v", v.path, v.err)
		default:
			if err := builder.Build(rc, v.vctx.Out); err != nil {
				fr.Error = err
				glog.GraphBuilderWarn("skipping %s: %v", v.path, err)
			}
		}
		p.results.Files = append(p.results.Files, fr)
	}
	if err := builder.ReconcileDangling(rc); err != nil {
		return orchestrator.PluginResult{PluginName: "indexing.extract"}, err
	}
	return orchestrator.PluginResult{PluginName: "indexing.extract"}, nil
}

// enrichmentPlugin wraps one internal/enrich.Enricher as an orchestrator
// plugin, preserving spec §4.5's pass ordering via declared Dependencies.
type enrichmentPlugin struct {
	pass    enrich.Enricher
	after   string
	backend backend.GraphBackend
}

func (p *enrichmentPlugin) Metadata() orchestrator.Metadata {
	md := orchestrator.Metadata{Name: "enrich." + p.pass.Name(), Phase: orchestrator.PhaseEnrichment}
	if p.after != "" {
		md.Dependencies = []string{p.after}
	}
	return md
}

func (p *enrichmentPlugin) Execute(rc *orchestrator.RunContext) (orchestrator.PluginResult, error) {
	n, err := p.pass.Run(rc, p.backend)
	res := orchestrator.PluginResult{PluginName: "enrich." + p.pass.Name(), EdgesAdded: n}
	return res, err
}

// validationPlugin runs every internal/validate.Validator and keeps the
// combined issue list for the caller (spec §4.6).
type validationPlugin struct {
	backend    backend.GraphBackend
	singletons *graph.Singletons
	results    *Result
}

func (p *validationPlugin) Metadata() orchestrator.Metadata {
	return orchestrator.Metadata{Name: "validation.all", Phase: orchestrator.PhaseValidation}
}

func (p *validationPlugin) Execute(rc *orchestrator.RunContext) (orchestrator.PluginResult, error) {
	issues, err := validate.RunAll(rc, p.backend, p.singletons)
	if err != nil {
		return orchestrator.PluginResult{PluginName: "validation.all"}, err
	}
	p.results.Issues = issues
	return orchestrator.PluginResult{PluginName: "validation.all", NodesAdded: len(issues)}, nil
}
