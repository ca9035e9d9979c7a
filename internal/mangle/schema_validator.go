package mangle

import (
	"fmt"
	"regexp"
	"strings"
)

// SchemaValidator rejects guarantee rules that reference predicates with no
// data source: every predicate in a rule's body must be declared in the
// schema text it was built with (internal/datalog's node/2, edge/3, attr/3
// surface, for Grafema's guarantees), or be one of the small set of Mangle
// builtins (count, sum, match, ...).
//
// Example BAD rule (will be rejected):
//   violates_naming(N) :- has_prefix(N, "tmp_").
//   ^ "has_prefix" isn't declared — this rule would never fire.
type SchemaValidator struct {
	declaredPredicates map[string]bool
	schemaText         string
}

// NewSchemaValidator builds a validator that will check rule bodies against
// every predicate declared in schemaText once LoadDeclaredPredicates runs.
func NewSchemaValidator(schemaText string) *SchemaValidator {
	return &SchemaValidator{
		declaredPredicates: make(map[string]bool),
		schemaText:         schemaText,
	}
}

var declPattern = regexp.MustCompile(`(?m)^Decl\s+([a-z_][a-z0-9_]*)\s*\(`)

// LoadDeclaredPredicates extracts every predicate named in a Decl statement
// of the validator's schema text.
func (sv *SchemaValidator) LoadDeclaredPredicates() error {
	for _, match := range declPattern.FindAllStringSubmatch(sv.schemaText, -1) {
		sv.declaredPredicates[match[1]] = true
	}
	return nil
}

var predicateCallPattern = regexp.MustCompile(`([a-z_][a-z0-9_]*)\s*\(`)

// ValidateRule checks that every predicate called in ruleText's body (the
// part after ":-") is declared. A fact (no ":-") has no body to check and
// always passes.
func (sv *SchemaValidator) ValidateRule(ruleText string) error {
	parts := strings.SplitN(ruleText, ":-", 2)
	if len(parts) < 2 {
		return nil
	}
	body := parts[1]

	var undefined []string
	for _, match := range predicateCallPattern.FindAllStringSubmatch(body, -1) {
		predicate := match[1]
		if sv.isBuiltin(predicate) || sv.declaredPredicates[predicate] {
			continue
		}
		undefined = append(undefined, predicate)
	}
	if len(undefined) > 0 {
		return fmt.Errorf("rule uses undeclared predicate(s): %v (declared: %v)", undefined, sv.GetDeclaredPredicates())
	}
	return nil
}

// isBuiltin reports whether predicate is a Mangle built-in rather than a
// fact-store predicate that must be declared.
func (sv *SchemaValidator) isBuiltin(predicate string) bool {
	builtins := map[string]bool{
		"count": true, "sum": true, "min": true, "max": true, "avg": true,
		"bound": true, "applyFn": true, "fn": true, "match": true, "collect": true,
	}
	return builtins[predicate]
}

// IsDeclared reports whether predicate was declared in the validator's
// schema text.
func (sv *SchemaValidator) IsDeclared(predicate string) bool {
	return sv.declaredPredicates[predicate]
}

// GetDeclaredPredicates returns every declared predicate name, for
// diagnostics and tests.
func (sv *SchemaValidator) GetDeclaredPredicates() []string {
	predicates := make([]string, 0, len(sv.declaredPredicates))
	for p := range sv.declaredPredicates {
		predicates = append(predicates, p)
	}
	return predicates
}
