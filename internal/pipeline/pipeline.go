// Package pipeline wires the extraction pipeline's stages — parse
// (internal/astparse), walk (internal/visitor) into a Collections, flush
// through GraphBuilder (internal/graphbuilder), enrich (internal/enrich),
// and validate (internal/validate) — into orchestrator.Plugin values and
// drives one end-to-end run through internal/orchestrator's five-phase
// scheduler (spec §4.4). Grounded on the teacher's
// cmd/nerd/cmd_init_scan.go runScan(), which drives the same
// parse-then-extract-then-persist shape over a file list before handing
// off to downstream passes.
package pipeline

import (
	"context"
	"os"

	"grafema/internal/astparse"
	"grafema/internal/backend"
	"grafema/internal/enrich"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
	"grafema/internal/graphbuilder"
	"grafema/internal/orchestrator"
	"grafema/internal/validate"
	"grafema/internal/visitor"
	"grafema/internal/visitor/framework"
)

// coreVisitors is every concern-specific visitor Dispatch runs per file,
// in the fixed registration order spec §4.2 lists (syntactic concerns
// first, framework overlays last so they can see core nodes already
// pushed onto ctx's scope/function stacks).
func coreVisitors() []visitor.Visitor {
	return []visitor.Visitor{
		visitor.FunctionVisitor{},
		visitor.ClassVisitor{},
		visitor.ParamVisitor{},
		visitor.CallVisitor{},
		visitor.ControlFlowVisitor{},
		visitor.MutationVisitor{},
		visitor.ImportExportVisitor{},
		visitor.TypeVisitor{},
		visitor.DecoratorVisitor{},
		visitor.GeneratorVisitor{},
		framework.ExpressVisitor{},
		framework.ReactVisitor{},
		framework.SocketIOVisitor{},
		framework.DatabaseVisitor{},
	}
}

// FileResult reports one file's outcome, so a caller can keep going past a
// single bad file (spec §7: per-file parse failures are non-fatal).
type FileResult struct {
	Path  string
	Error error
}

// Result is Run's aggregate outcome.
type Result struct {
	Files   []FileResult
	Issues  []validate.Issue
	Plugins []orchestrator.PluginResult
}

// Run schedules one full pipeline pass over paths through the orchestrator
// (spec §4.4): DISCOVERY → INDEXING (parse/visit/build) → ANALYSIS (no
// built-in plugins) → ENRICHMENT (spec §4.5's five passes,
// chained by Dependencies so they run in their documented order) →
// VALIDATION (spec §4.6's three validators). onProgress, if non-nil, is
// relayed every orchestrator.ProgressEvent.
func Run(ctx context.Context, b backend.GraphBackend, singletons *graph.Singletons, paths []string, onProgress func(ev orchestrator.ProgressEvent)) (*Result, error) {
	result := &Result{}
	orch := orchestrator.New(b, singletons)

	orch.Register(discoveryPlugin{})
	orch.Register(&indexingPlugin{backend: b, singletons: singletons, results: result})

	var lastEnrich string
	for _, pass := range []enrich.Enricher{
		&enrich.MethodCallResolver{},
		&enrich.ArgumentParameterLinker{},
		&enrich.InstanceOfResolver{},
		&enrich.RejectionPropagationEnricher{},
		&enrich.AliasTracker{},
	} {
		p := &enrichmentPlugin{pass: pass, after: lastEnrich, backend: b}
		orch.Register(p)
		lastEnrich = "enrich." + pass.Name()
	}

	orch.Register(&validationPlugin{backend: b, singletons: singletons, results: result})

	results, err := orch.Run(ctx, paths, onProgress)
	result.Plugins = results
	return result, err
}

// parseAndVisit runs the CPU-bound half of one file's extraction — parse
// and walk — without touching the backend, so callers can run it across a
// worker pool (spec §5 "a small task pool for parallelism"; AST parsing and
// visiting are CPU-bound and synchronous, the only suspension point being
// the file read itself).
func parseAndVisit(parser *astparse.Parser, vs []visitor.Visitor, path string) (*visitor.Context, error) {
	if !astparse.Supports(path) {
		return nil, grafemaerr.New(grafemaerr.KindParse, "unsupported file type: %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := parser.Parse(path, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	vctx := visitor.NewContext(path, tree)
	visitor.Dispatch(vctx, tree.Root, vs)
	if err := vctx.Resolve(); err != nil {
		return nil, err
	}
	return vctx, nil
}

// processFile runs parseAndVisit then flushes the result through builder —
// the fully sequential path, kept for callers that don't need the worker
// pool (e.g. a future single-file "grafema analyze --watch" re-run).
func processFile(ctx context.Context, parser *astparse.Parser, builder *graphbuilder.Builder, vs []visitor.Visitor, path string) error {
	vctx, err := parseAndVisit(parser, vs, path)
	if err != nil {
		return err
	}
	return builder.Build(ctx, vctx.Out)
}
