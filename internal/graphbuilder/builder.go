// Package graphbuilder turns a visitor.Collections into GraphBackend
// writes with spec §4.3's two guarantees: every edge endpoint exists by
// the time the edge is inserted, and the backend is called in batches, not
// per-record. Grounded on internal/mangle/engine.go's AddFacts/
// ReplaceFactsForFile batch-then-evaluate discipline — GraphBuilder's
// batch-then-flush mirrors that same shape one layer up the stack.
package graphbuilder

import (
	"context"
	"fmt"
	"path"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// importExtensions are tried in order when resolving a relative import
// specifier to a file path (spec §4.3).
var importExtensions = []string{"", ".js", ".ts", ".jsx", ".tsx", "/index.js", "/index.ts"}

// Builder accumulates nodes/edges for one file and flushes them to a
// GraphBackend in the fixed two-phase order spec §4.3 mandates.
type Builder struct {
	backend    backend.GraphBackend
	singletons *graph.Singletons

	// pendingImports holds IMPORTS_FROM targets this build could not
	// resolve locally, carried forward to the orchestrator's end-of-build
	// reconciliation pass (spec §4.3 "Cross-file dangling edges policy").
	pendingImports []unresolvedImport
}

type unresolvedImport struct {
	importID string
	source   string
	fromFile string
}

// New builds a Builder writing to b, sharing singletons across every file
// in the current build (spec §5 "singletons tracking set: per-build").
func New(b backend.GraphBackend, singletons *graph.Singletons) *Builder {
	return &Builder{backend: b, singletons: singletons}
}

// nodeBuffer collects every node a collection contributes before the first
// flush (spec §4.3 step 1).
func nodeBuffer(c *visitor.Collections) []*graph.Node {
	var nodes []*graph.Node
	add := func(id string, kind graph.NodeKind, name, file string, line, col int, attrs map[string]any) {
		n := graph.NewNode(id, kind, name).WithLocation(file, line, col)
		for k, v := range attrs {
			n.Set(k, v)
		}
		nodes = append(nodes, n)
	}

	// Every file gets exactly one MODULE node: the root of its CONTAINS
	// forest and the unit guarantee globs match against (spec §4.7).
	add(graph.ModuleID(c.File), graph.KindModule, c.File, c.File, 0, 0, nil)

	for _, f := range c.Functions {
		add(f.ID, graph.KindFunction, f.Name, c.File, f.Line, f.Column, map[string]any{
			"async": f.Async, "generator": f.Generator, "kind": f.Kind, "classId": f.ClassID,
		})
	}
	for _, p := range c.Parameters {
		id := p.FunctionID + "#PARAMETER#" + fmt.Sprint(p.Discriminator())
		add(id, graph.KindParameter, p.Name, c.File, p.Line, p.Column, map[string]any{
			"index": p.Index, "subIndex": p.SubIndex, "propertyPath": p.PropertyPath,
			"arrayIndex": p.ArrayIndex, "hasDefault": p.HasDefault, "isRest": p.IsRest,
			"functionId": p.FunctionID,
		})
	}
	for _, cl := range c.Classes {
		add(cl.ID, graph.KindClass, cl.Name, c.File, cl.Line, cl.Column, map[string]any{
			"superclassRef": cl.SuperclassRef, "implements": cl.Implements,
		})
	}
	for _, call := range c.Calls {
		add(call.ID, call.Kind, call.Name, c.File, call.Line, call.Column, map[string]any{
			"object": call.Object, "argCount": call.ArgCount, "callerFnId": call.CallerFnID,
		})
	}
	for _, cf := range c.ControlFlow {
		add(cf.ID, cf.Kind, cf.Construct, c.File, cf.Line, cf.Column, map[string]any{
			"fallsThrough": cf.FallsThrough,
		})
	}
	for _, im := range c.Imports {
		add(im.ID, graph.KindImport, im.Name, c.File, im.Line, im.Column, map[string]any{
			"source": im.Source, "importedName": im.ImportedName, "isDefault": im.IsDefault, "isNamespace": im.IsNamespace,
		})
	}
	for _, ex := range c.Exports {
		add(ex.ID, graph.KindExport, ex.Name, c.File, ex.Line, ex.Column, map[string]any{
			"isDefault": ex.IsDefault,
		})
	}
	for _, iface := range c.Interfaces {
		add(iface.ID, graph.KindInterface, iface.Name, c.File, iface.Line, iface.Column, map[string]any{
			"extends": iface.Extends, "properties": iface.Properties,
		})
	}
	for _, ta := range c.TypeAliases {
		add(ta.ID, graph.KindType, ta.Name, c.File, ta.Line, ta.Column, map[string]any{
			"isMapped": ta.IsMapped, "isConditional": ta.IsConditional,
		})
	}
	for _, e := range c.Enums {
		add(e.ID, graph.KindEnum, e.Name, c.File, e.Line, e.Column, map[string]any{"members": e.Members})
	}
	for _, tp := range c.TypeParameters {
		add(tp.ID, graph.KindTypeParameter, tp.Name, c.File, tp.Line, tp.Column, map[string]any{
			"ownerId": tp.OwnerID, "constraints": tp.Constraints,
		})
	}
	for _, d := range c.Decorators {
		add(d.ID, graph.KindDecorator, d.Name, c.File, d.Line, d.Column, map[string]any{"targetKind": d.TargetKind})
	}
	for _, fn := range c.FrameworkNodes {
		add(fn.ID, fn.Kind, fn.Name, c.File, fn.Line, fn.Column, fn.Attrs)
	}
	return nodes
}

// Build runs the full two-phase flush for one file's collections (spec
// §4.3): emit nodes, emit edges in fixed order, flush both batched, then
// run the async post-passes.
func (b *Builder) Build(ctx context.Context, c *visitor.Collections) error {
	nodes := nodeBuffer(c)
	if err := b.backend.AddNodes(ctx, nodes); err != nil {
		return fmt.Errorf("graphbuilder: flush nodes for %s: %w", c.File, err)
	}

	edges := edgeBuffer(c)
	if err := b.backend.AddEdges(ctx, edges, backend.AddEdgesOptions{SkipValidation: true}); err != nil {
		return fmt.Errorf("graphbuilder: flush edges for %s: %w", c.File, err)
	}

	glog.GraphBuilderDebug("built %s: %d nodes, %d edges", c.File, len(nodes), len(edges))
	b.resolveImports(ctx, c)
	return nil
}

// resolveImports is the async IMPORTS_FROM post-pass (spec §4.3): for each
// IMPORT record, try a relative path against importExtensions and link to
// the corresponding EXPORT node if one exists yet. Unresolved imports are
// queued for the orchestrator's end-of-build reconciliation.
func (b *Builder) resolveImports(ctx context.Context, c *visitor.Collections) {
	for _, im := range c.Imports {
		target, ok := b.findExport(ctx, im, c.File)
		if !ok {
			b.pendingImports = append(b.pendingImports, unresolvedImport{importID: im.ID, source: im.Source, fromFile: c.File})
			continue
		}
		edge := graph.NewEdge(im.ID, graph.EdgeImportsFrom, target)
		if err := b.backend.AddEdges(ctx, []*graph.Edge{edge}, backend.AddEdgesOptions{SkipValidation: true}); err != nil {
			glog.GraphBuilderWarn("failed to persist IMPORTS_FROM %s -> %s: %v", im.ID, target, err)
		}
	}
}

// findExport resolves im to the EXPORT node it refers to. fromFile is the
// path of the file containing the import statement: a relative specifier
// like "./a" is resolved against fromFile's directory, not against its own
// literal text, so "./a" imported from "src/b.ts" resolves candidates under
// "src/", not a literal "./a.ts".
func (b *Builder) findExport(ctx context.Context, im visitor.ImportInfo, fromFile string) (string, bool) {
	if !isRelativeSpecifier(im.Source) {
		id := graph.ExternalModuleID(im.Source)
		if b.singletons.Ensure(id) {
			node := graph.NewNode(id, graph.KindExternalModule, im.Source)
			_ = b.backend.AddNodes(ctx, []*graph.Node{node})
		}
		return id, true
	}
	for _, ext := range importExtensions {
		candidate := resolveRelative(fromFile, im.Source, ext)
		nodes, err := b.backend.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindExport, File: candidate, Name: im.ImportedName})
		if err != nil || len(nodes) == 0 {
			continue
		}
		return nodes[0].ID, true
	}
	return "", false
}

func isRelativeSpecifier(source string) bool {
	return len(source) > 0 && (source[0] == '.' || source[0] == '/')
}

// resolveRelative joins source against fromFile's directory before
// appending ext, so the resulting candidate is a real path comparable
// against the File field persisted nodes carry (spec §4.3).
func resolveRelative(fromFile, source, ext string) string {
	base := path.Join(path.Dir(fromFile), source)
	return base + ext
}

// ReconcileDangling resolves every import left unresolved across a whole
// build's worth of files, once all files have been processed (spec §4.3
// "End-of-analysis enrichment reconciles remaining dangling edges").
// Imports still unresolved after this pass get a VIOLATES edge to a
// synthetic issue node.
func (b *Builder) ReconcileDangling(ctx context.Context) error {
	still := b.pendingImports[:0]
	for _, p := range b.pendingImports {
		target, ok := b.findExport(ctx, visitor.ImportInfo{Source: p.source}, p.fromFile)
		if !ok {
			issueID := graph.IssueNodeKind("unresolved-import")
			node := graph.NewNode(fmt.Sprintf("issue:unresolved-import#%s", p.importID), issueID, "unresolved-import").
				Set("callName", p.source).Set("file", p.fromFile)
			if err := b.backend.AddNodes(ctx, []*graph.Node{node}); err != nil {
				glog.GraphBuilderWarn("failed to persist unresolved-import issue for %s: %v", p.importID, err)
			}
			edge := graph.NewEdge(p.importID, graph.EdgeViolates, node.ID)
			if err := b.backend.AddEdges(ctx, []*graph.Edge{edge}, backend.AddEdgesOptions{SkipValidation: true}); err != nil {
				glog.GraphBuilderWarn("failed to persist VIOLATES edge for %s: %v", p.importID, err)
			}
			still = append(still, p)
			continue
		}
		edge := graph.NewEdge(p.importID, graph.EdgeImportsFrom, target)
		if err := b.backend.AddEdges(ctx, []*graph.Edge{edge}, backend.AddEdgesOptions{SkipValidation: true}); err != nil {
			return grafemaerr.Wrap(grafemaerr.KindUnknownTargetType, err)
		}
	}
	b.pendingImports = still
	return nil
}
