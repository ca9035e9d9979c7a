// Package validate implements spec §4.6's validators: one file per
// invariant (CallResolverValidator, DataFlowValidator,
// TypeScriptDeadCodeValidator), each returning structured Issue values and
// emitting issue:* graph nodes, following the teacher's
// internal/core/validator_*.go family (validator_syntax.go,
// validator_codedom.go, validator_dir.go: a CanValidate/Validate pair per
// concern, returning a structured result rather than a bare error).
// Datalog rule text is embedded alongside each Go check as the executable
// specification, matching internal/mangle/schema_validator.go's pattern of
// validating against a declared predicate shape.
package validate

import (
	"context"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// Issue is one validator finding (spec §4.6, §7). Kind is always
// grafemaerr.KindValidation; Severity/Code/FilePath/LineNumber carry the
// rest of spec §7's structured validator error shape.
type Issue struct {
	*grafemaerr.Error
	RuleText string // the Datalog predicate this check mirrors, for reference
}

// Validator is one invariant check over the whole graph.
type Validator interface {
	Name() string
	Check(ctx context.Context, b backend.GraphBackend) ([]Issue, error)
}

// RunAll runs every validator and persists each issue as an issue:* node
// (spec §4.6 "emit issue:* nodes"), returning the combined issue list.
func RunAll(ctx context.Context, b backend.GraphBackend, singletons *graph.Singletons) ([]Issue, error) {
	validators := []Validator{
		&CallResolverValidator{},
		&DataFlowValidator{},
		&TypeScriptDeadCodeValidator{},
	}
	var all []Issue
	for _, v := range validators {
		issues, err := v.Check(ctx, b)
		if err != nil {
			return all, err
		}
		glog.Validate("%s: %d issue(s)", v.Name(), len(issues))
		if err := persistIssues(ctx, b, singletons, v.Name(), issues); err != nil {
			return all, err
		}
		all = append(all, issues...)
	}
	return all, nil
}

func persistIssues(ctx context.Context, b backend.GraphBackend, singletons *graph.Singletons, validatorName string, issues []Issue) error {
	var nodes []*graph.Node
	for i, issue := range issues {
		id := graph.IssueNodeKind(validatorName)
		nodeID := string(id) + "#" + issue.FilePath + "#" + itoa(i)
		if !singletons.Ensure(nodeID) {
			continue
		}
		n := graph.NewNode(nodeID, id, issue.Code).WithLocation(issue.FilePath, issue.LineNumber, 0)
		n.Set("severity", string(issue.Severity)).Set("message", issue.Message).Set("rule", issue.RuleText)
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return nil
	}
	return b.AddNodes(ctx, nodes)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
