package guarantee

import (
	"context"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"grafema/internal/backend"
	"grafema/internal/graph"
)

// exportDocument is the top-level YAML shape written by Export (spec §4.7
// "export(path)"), versioned the way internal/config's loader versions its
// own top-level document.
type exportDocument struct {
	Version    int          `yaml:"version"`
	ExportedAt string       `yaml:"exportedAt"`
	Guarantees []Definition `yaml:"guarantees"`
}

// Export writes every known guarantee to path as YAML.
func (m *Manager) Export(ctx context.Context, path string, exportedAt string) error {
	defs, err := m.list(ctx)
	if err != nil {
		return err
	}
	doc := exportDocument{Version: 1, ExportedAt: exportedAt, Guarantees: defs}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func (m *Manager) list(ctx context.Context) ([]Definition, error) {
	nodes, err := m.backend.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindGuarantee})
	if err != nil {
		return nil, err
	}
	defs := make([]Definition, 0, len(nodes))
	for _, n := range nodes {
		defs = append(defs, definitionFromNode(n))
	}
	return defs, nil
}

func definitionFromNode(n *graph.Node) Definition {
	rule, _ := n.Attr("rule")
	severity, _ := n.Attr("severity")
	governs, _ := n.Attr("governs")
	governsList, _ := governs.([]string)
	return Definition{
		ID:       strings.TrimPrefix(n.ID, string(graph.KindGuarantee)+"#"),
		Name:     n.Name,
		Rule:     toStr(rule),
		Severity: Severity(toStr(severity)),
		Governs:  governsList,
	}
}

func toStr(v any) string {
	s, _ := v.(string)
	return s
}

// ImportOptions governs Import's conflict handling (spec §4.7
// "import(path, {clearExisting?})").
type ImportOptions struct {
	ClearExisting bool
}

// Import loads guarantee definitions from path's YAML document. Existing
// ids are skipped unless ClearExisting is set, in which case the graph's
// existing GUARANTEE nodes are dropped first.
func (m *Manager) Import(ctx context.Context, path string, opts ImportOptions) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var doc exportDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, err
	}

	existing := make(map[string]bool)
	if opts.ClearExisting {
		nodes, err := m.backend.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindGuarantee})
		if err != nil {
			return 0, err
		}
		var ids []string
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
		if len(ids) > 0 {
			if err := m.backend.DeleteNodes(ctx, ids); err != nil {
				return 0, err
			}
		}
	} else {
		defs, err := m.list(ctx)
		if err != nil {
			return 0, err
		}
		for _, d := range defs {
			existing[d.ID] = true
		}
	}

	imported := 0
	for _, def := range doc.Guarantees {
		if !opts.ClearExisting && existing[def.ID] {
			continue
		}
		if err := m.Create(ctx, def); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// DriftResult is drift(path)'s return shape (spec §4.7 "drift(path)").
type DriftResult struct {
	OnlyInGraph []string
	OnlyInFile  []string
	Modified    []string
	Unchanged   []string
}

// Drift compares the graph's current guarantees against path's YAML
// document, reporting additions, removals, and field-level modifications.
func (m *Manager) Drift(ctx context.Context, path string) (DriftResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DriftResult{}, err
	}
	var doc exportDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return DriftResult{}, err
	}
	fileDefs := make(map[string]Definition, len(doc.Guarantees))
	for _, d := range doc.Guarantees {
		fileDefs[d.ID] = d
	}

	graphDefs, err := m.list(ctx)
	if err != nil {
		return DriftResult{}, err
	}
	graphByID := make(map[string]Definition, len(graphDefs))
	for _, d := range graphDefs {
		graphByID[d.ID] = d
	}

	var result DriftResult
	for id, gd := range graphByID {
		fd, ok := fileDefs[id]
		if !ok {
			result.OnlyInGraph = append(result.OnlyInGraph, id)
			continue
		}
		if definitionChanged(gd, fd) {
			result.Modified = append(result.Modified, id)
		} else {
			result.Unchanged = append(result.Unchanged, id)
		}
	}
	for id := range fileDefs {
		if _, ok := graphByID[id]; !ok {
			result.OnlyInFile = append(result.OnlyInFile, id)
		}
	}
	return result, nil
}

// definitionChanged reports whether any of rule|severity|name|governs
// differs between the graph's copy and the file's copy (spec §4.7 drift
// "modified" criterion).
func definitionChanged(a, b Definition) bool {
	if a.Rule != b.Rule || a.Severity != b.Severity || a.Name != b.Name {
		return true
	}
	if len(a.Governs) != len(b.Governs) {
		return true
	}
	for i := range a.Governs {
		if a.Governs[i] != b.Governs[i] {
			return true
		}
	}
	return false
}
