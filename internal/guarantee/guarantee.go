// Package guarantee persists GUARANTEE nodes and their GOVERNS edges
// (spec §4.7), plus YAML export/import/drift over them. The YAML
// persistence idiom (gopkg.in/yaml.v3, top-level versioned document) follows
// internal/config's config.go loader/writer shape adapted from a single
// application config file to a list of guarantee definitions.
package guarantee

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"grafema/internal/backend"
	"grafema/internal/datalog"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
	"grafema/internal/mangle"
	"grafema/internal/mangle/transpiler"
)

// Severity mirrors spec §4.7's {error, warning, info}.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Definition is a guarantee's persisted shape (spec §4.7 "Guarantee node").
type Definition struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Rule     string   `yaml:"rule"`
	Severity Severity `yaml:"severity"`
	Governs  []string `yaml:"governs"`
}

// Violation is one binding returned by a guarantee's rule, enriched with
// the target node's identity (spec §4.7 "check(id)").
type Violation struct {
	NodeID string
	Type   string
	Name   string
	File   string
	Line   int
}

// CheckResult is check(id)'s return shape.
type CheckResult struct {
	Passed         bool
	ViolationCount int
	DurationMs     int64
	Violations     []Violation
	Error          error
}

// CheckAllResult is checkAll()'s aggregated return shape.
type CheckAllResult struct {
	Total  int
	Passed int
	Failed int
	Errors []error
}

// QueryRunner is the minimal Datalog surface Manager needs (implemented by
// internal/datalog.Engine); Manager runs queries only through this
// interface, never through a concrete engine type.
type QueryRunner interface {
	Query(ctx context.Context, query string) ([]map[string]interface{}, error)
}

// RuleExplainer is the optional proof-tree surface a QueryRunner may offer
// (internal/datalog.Engine does). Manager.Explain degrades to an error when
// the configured QueryRunner doesn't implement it.
type RuleExplainer interface {
	Explain(ctx context.Context, query string) (string, error)
}

// Manager implements spec §4.7's guarantee operations.
type Manager struct {
	backend    backend.GraphBackend
	singletons *graph.Singletons
	query      QueryRunner
	sanitizer  *transpiler.Sanitizer
	schema     *mangle.SchemaValidator
}

// New builds a Manager writing GUARANTEE/GOVERNS to b and running check
// queries through q. Rule text is run through the same Sanitizer the query
// command uses on ad-hoc Datalog, so a guarantee author can write SQL-style
// aggregations and unsafe negations and still persist a rule Mangle accepts.
// Rule bodies are additionally checked against datalog.SchemaText's declared
// predicates (node/2, edge/3, attr/3) — the only facts a guarantee rule can
// ever match against once it runs — so a rule referencing a typo'd or
// made-up predicate is rejected at Create time instead of silently never
// firing.
func New(b backend.GraphBackend, singletons *graph.Singletons, q QueryRunner) *Manager {
	schema := mangle.NewSchemaValidator(datalog.SchemaText)
	_ = schema.LoadDeclaredPredicates()
	return &Manager{backend: b, singletons: singletons, query: q, sanitizer: transpiler.NewSanitizer(), schema: schema}
}

func guaranteeNodeID(id string) string {
	return string(graph.KindGuarantee) + "#" + id
}

// Create validates required fields, creates the GUARANTEE node, and emits
// GOVERNS edges via glob match against every known MODULE (spec §4.7
// "create(def)").
func (m *Manager) Create(ctx context.Context, def Definition) error {
	if def.ID == "" || def.Rule == "" {
		return grafemaerr.New(grafemaerr.KindValidation, "guarantee requires id and rule")
	}
	if def.Severity == "" {
		def.Severity = SeverityWarning
	}
	if clean, err := m.sanitizer.Sanitize(def.Rule); err == nil {
		def.Rule = clean
	} else {
		glog.GuaranteeWarn("rule %s: sanitize failed, storing as written: %v", def.ID, err)
	}
	if err := m.schema.ValidateRule(def.Rule); err != nil {
		return grafemaerr.Wrap(grafemaerr.KindValidation, fmt.Errorf("guarantee %s: %w", def.ID, err))
	}
	nodeID := guaranteeNodeID(def.ID)
	node := graph.NewNode(nodeID, graph.KindGuarantee, def.Name).
		Set("rule", def.Rule).Set("severity", string(def.Severity)).Set("governs", def.Governs)
	if err := m.backend.AddNodes(ctx, []*graph.Node{node}); err != nil {
		return err
	}
	glog.Guarantee("created guarantee %s (%s)", def.ID, def.Severity)
	return m.emitGovernsEdges(ctx, nodeID, def.Governs)
}

func (m *Manager) emitGovernsEdges(ctx context.Context, guaranteeNodeID string, patterns []string) error {
	modules, err := m.backend.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindModule})
	if err != nil {
		return err
	}
	var edges []*graph.Edge
	for _, mod := range modules {
		for _, pattern := range patterns {
			if matchGlob(pattern, mod.File) {
				edges = append(edges, graph.NewEdge(guaranteeNodeID, graph.EdgeGoverns, mod.ID))
				break
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}
	return m.backend.AddEdges(ctx, edges, backend.AddEdgesOptions{SkipValidation: true})
}

// matchGlob extends path/filepath.Match with a small doublestar-style
// splitter so a "**/" segment matches across directory boundaries — the
// one corner of guarantee matching that stays on the standard library
// rather than a third-party glob package (see DESIGN.md).
func matchGlob(pattern, path string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := filepath.Match(pattern, path)
		return ok
	}
	parts := strings.SplitN(pattern, "**", 2)
	prefix, suffix := parts[0], strings.TrimPrefix(parts[1], "/")
	if prefix != "" && !strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")) {
		return false
	}
	if suffix == "" {
		return true
	}
	ok, _ := filepath.Match(suffix, filepath.Base(path))
	if ok {
		return true
	}
	ok, _ = filepath.Match("*/"+suffix, path)
	return ok
}

// Explain renders the proof tree behind a guarantee's rule: which EDB
// node/edge/attr facts and IDB rule applications produced each violation,
// so an author can see why a failing guarantee fired. Returns an error if
// the Manager's QueryRunner doesn't support tracing.
func (m *Manager) Explain(ctx context.Context, id string) (string, error) {
	nodeID := guaranteeNodeID(id)
	node, ok, err := m.backend.GetNode(ctx, nodeID)
	if err != nil || !ok {
		return "", grafemaerr.New(grafemaerr.KindValidation, "unknown guarantee: %s", id)
	}
	explainer, ok := m.query.(RuleExplainer)
	if !ok {
		return "", grafemaerr.New(grafemaerr.KindValidation, "configured query runner does not support Explain")
	}
	rule, _ := node.Attr("rule")
	return explainer.Explain(ctx, fmt.Sprint(rule))
}

// Check runs the guarantee's rule and enriches each violation binding
// (spec §4.7 "check(id)").
func (m *Manager) Check(ctx context.Context, id string) CheckResult {
	nodeID := guaranteeNodeID(id)
	node, ok, err := m.backend.GetNode(ctx, nodeID)
	if err != nil || !ok {
		return CheckResult{Error: grafemaerr.New(grafemaerr.KindValidation, "unknown guarantee: %s", id)}
	}
	rule, _ := node.Attr("rule")
	timer := glog.StartTimer(glog.CategoryGuarantee, "check:"+id)
	defer timer.Stop()

	rows, err := m.query.Query(ctx, fmt.Sprint(rule))
	if err != nil {
		return CheckResult{Error: err}
	}
	var violations []Violation
	for _, row := range rows {
		x, _ := row["X"].(string)
		if x == "" {
			continue
		}
		target, ok, err := m.backend.GetNode(ctx, x)
		if err != nil || !ok {
			continue
		}
		violations = append(violations, Violation{
			NodeID: target.ID, Type: string(target.Kind), Name: target.Name,
			File: target.File, Line: target.Line,
		})
	}
	return CheckResult{
		Passed: len(violations) == 0, ViolationCount: len(violations), Violations: violations,
	}
}

// CheckAll runs every known guarantee and aggregates the outcome (spec
// §4.7 "checkAll()").
func (m *Manager) CheckAll(ctx context.Context) (CheckAllResult, error) {
	nodes, err := m.backend.FindNodes(ctx, backend.NodeFilter{Kind: graph.KindGuarantee})
	if err != nil {
		return CheckAllResult{}, err
	}
	var result CheckAllResult
	for _, n := range nodes {
		id := strings.TrimPrefix(n.ID, string(graph.KindGuarantee)+"#")
		res := m.Check(ctx, id)
		result.Total++
		if res.Error != nil {
			result.Errors = append(result.Errors, res.Error)
			continue
		}
		if res.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// FindAffectedGuarantees climbs to the enclosing MODULE of nodeID — every
// node carries the file it was extracted from, so this is a direct lookup
// rather than a CONTAINS-edge walk — and returns every guarantee with an
// incoming GOVERNS edge to it (spec §4.7 "findAffectedGuarantees").
func (m *Manager) FindAffectedGuarantees(ctx context.Context, nodeID string) ([]string, error) {
	node, ok, err := m.backend.GetNode(ctx, nodeID)
	if err != nil || !ok {
		return nil, err
	}
	module := graph.ModuleID(node.File)
	in, err := m.backend.GetEdges(ctx, module, backend.DirectionIn)
	if err != nil {
		return nil, err
	}
	var guarantees []string
	for _, e := range in {
		if e.Kind == graph.EdgeGoverns {
			guarantees = append(guarantees, e.From)
		}
	}
	return guarantees, nil
}
