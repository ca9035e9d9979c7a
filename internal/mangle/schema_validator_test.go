package mangle

import (
	"testing"
)

// TestNewSchemaValidator tests validator construction.
func TestNewSchemaValidator(t *testing.T) {
	sv := NewSchemaValidator("")
	if sv == nil {
		t.Fatal("Expected non-nil validator")
	}
	if sv.declaredPredicates == nil {
		t.Error("Expected declaredPredicates map to be initialized")
	}
}

// TestLoadDeclaredPredicates tests predicate extraction from schemas.
func TestLoadDeclaredPredicates(t *testing.T) {
	schemas := `
Decl node(Id, Type).
Decl edge(Src, Dst, Type).
Decl attr(Id, Name, Value).
`
	sv := NewSchemaValidator(schemas)
	if err := sv.LoadDeclaredPredicates(); err != nil {
		t.Fatalf("LoadDeclaredPredicates failed: %v", err)
	}

	if !sv.IsDeclared("node") {
		t.Error("Expected node to be declared")
	}
	if !sv.IsDeclared("edge") {
		t.Error("Expected edge to be declared")
	}
	if !sv.IsDeclared("attr") {
		t.Error("Expected attr to be declared")
	}
	if sv.IsDeclared("nonexistent_predicate") {
		t.Error("Expected nonexistent_predicate to not be declared")
	}
}

// TestValidateRule tests rule validation against the declared predicates.
func TestValidateRule(t *testing.T) {
	schemas := `
Decl node(Id, Type).
Decl edge(Src, Dst, Type).
Decl attr(Id, Name, Value).
`
	sv := NewSchemaValidator(schemas)
	if err := sv.LoadDeclaredPredicates(); err != nil {
		t.Fatalf("LoadDeclaredPredicates failed: %v", err)
	}

	tests := []struct {
		name        string
		rule        string
		expectError bool
	}{
		{
			"valid rule using only declared predicates",
			`violates(X) :- node(X, "FUNCTION"), attr(X, "async", "true").`,
			false,
		},
		{
			"invalid rule with undeclared predicate",
			`violates(X) :- has_prefix(X, "tmp_"), node(X, "FUNCTION").`,
			true,
		},
		{
			"fact (no body) is valid",
			`node("m1", "MODULE").`,
			false,
		},
		{
			"rule with only builtins in body is valid",
			`result(X) :- count(X).`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sv.ValidateRule(tt.rule)
			if tt.expectError && err == nil {
				t.Errorf("ValidateRule expected error for: %s", tt.rule)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidateRule unexpected error for: %s: %v", tt.rule, err)
			}
		})
	}
}

// TestGetDeclaredPredicates tests retrieval of all declared predicates.
func TestGetDeclaredPredicates(t *testing.T) {
	schemas := `
Decl node(Id, Type).
Decl edge(Src, Dst, Type).
Decl attr(Id, Name, Value).
`
	sv := NewSchemaValidator(schemas)
	if err := sv.LoadDeclaredPredicates(); err != nil {
		t.Fatalf("LoadDeclaredPredicates failed: %v", err)
	}

	predicates := sv.GetDeclaredPredicates()
	if len(predicates) != 3 {
		t.Errorf("Expected 3 predicates, got %d", len(predicates))
	}

	expected := map[string]bool{"node": true, "edge": true, "attr": true}
	for _, p := range predicates {
		if !expected[p] {
			t.Errorf("Unexpected predicate: %s", p)
		}
		delete(expected, p)
	}
	if len(expected) > 0 {
		t.Errorf("Missing predicates: %v", expected)
	}
}
