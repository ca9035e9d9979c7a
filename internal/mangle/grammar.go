package mangle

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ============================================================================
// Atom grammar validation for Datalog rule and fact text
// ============================================================================

// AtomValidator validates Mangle atom syntax against the node/edge/attr
// predicate surface before it reaches the engine, catching malformed
// guarantee rules and hand-written queries before evaluation.
type AtomValidator struct {
	// ValidPredicates is the set of known predicates: the built-in core set
	// plus any added by UpdateFromSchema
	ValidPredicates map[string]PredicateSpec

	// ValidNameConstants is the set of valid /name constants
	ValidNameConstants map[string]bool
}

// PredicateSpec describes a predicate's expected arity and argument types.
type PredicateSpec struct {
	Name  string
	Arity int
	Args  []ArgSpec
}

// ArgSpec describes an argument's expected type.
type ArgSpec struct {
	Name     string
	Type     ArgType
	Optional bool
}

// ArgType represents Mangle argument types.
type ArgType int

const (
	ArgTypeAny      ArgType = iota
	ArgTypeName             // /name_constant
	ArgTypeString           // "quoted string"
	ArgTypeNumber           // numeric value
	ArgTypeVariable         // Uppercase Variable
	ArgTypeBool             // true/false
)

// ValidationResult contains the result of atom validation.
type ValidationResult struct {
	Valid    bool
	Atom     string
	Errors   []ValidationError
	Repaired string // Suggested repair if invalid
}

// ValidationError describes a specific validation error.
type ValidationError struct {
	Position int
	Message  string
	Severity ErrorSeverity
}

// ErrorSeverity indicates how severe a validation error is.
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityFatal
)

// NewAtomValidator creates a validator preloaded with Grafema's core schema.
func NewAtomValidator() *AtomValidator {
	v := &AtomValidator{
		ValidPredicates:    make(map[string]PredicateSpec),
		ValidNameConstants: make(map[string]bool),
	}
	v.loadCorePredicates()
	v.loadCoreNameConstants()
	return v
}

// loadCorePredicates registers the built-in core predicates.
func (v *AtomValidator) loadCorePredicates() {
	// Core graph surface (spec §4.7): every extracted node, edge, and
	// attribute is asserted through exactly these three predicates.
	v.ValidPredicates["node"] = PredicateSpec{
		Name: "node", Arity: 2,
		Args: []ArgSpec{
			{Name: "ID", Type: ArgTypeName},
			{Name: "Kind", Type: ArgTypeName},
		},
	}
	v.ValidPredicates["edge"] = PredicateSpec{
		Name: "edge", Arity: 3,
		Args: []ArgSpec{
			{Name: "From", Type: ArgTypeName},
			{Name: "To", Type: ArgTypeName},
			{Name: "Kind", Type: ArgTypeName},
		},
	}
	v.ValidPredicates["attr"] = PredicateSpec{
		Name: "attr", Arity: 3,
		Args: []ArgSpec{
			{Name: "ID", Type: ArgTypeName},
			{Name: "Key", Type: ArgTypeName},
			{Name: "Value", Type: ArgTypeAny},
		},
	}

	// Guarantee surface (spec §4.7): a GUARANTEE node governs a glob of
	// nodes via a GOVERNS edge and a severity attribute.
	v.ValidPredicates["guarantee"] = PredicateSpec{
		Name: "guarantee", Arity: 3,
		Args: []ArgSpec{
			{Name: "ID", Type: ArgTypeName},
			{Name: "Severity", Type: ArgTypeName},
			{Name: "Glob", Type: ArgTypeString},
		},
	}

	// Diagnostic surface: validators and the dangling-edge policy both
	// emit issue nodes through this predicate.
	v.ValidPredicates["issue"] = PredicateSpec{
		Name: "issue", Arity: 4,
		Args: []ArgSpec{
			{Name: "ID", Type: ArgTypeName},
			{Name: "Code", Type: ArgTypeName},
			{Name: "Severity", Type: ArgTypeName},
			{Name: "Message", Type: ArgTypeString},
		},
	}
}

// UpdateFromSchema updates ValidPredicates by parsing Decl statements from a schema string.
func (v *AtomValidator) UpdateFromSchema(schema string) error {
	// Simple regex-based parser for getting Decls to populate ValidPredicates
	// Pattern: Decl predicate(Type, Type).
	// Types: Name, String, Number, etc. (mapped to ArgType)

	// Normalize newlines
	schema = strings.ReplaceAll(schema, "\r\n", "\n")
	lines := strings.Split(schema, "\n")

	declRe := regexp.MustCompile(`^Decl\s+([a-z][a-z0-9_]*)\((.*)\)\.`)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		matches := declRe.FindStringSubmatch(line)
		if Matches := matches; len(Matches) == 3 {
			predName := Matches[1]
			argsStr := Matches[2]

			// Parse args
			argParts := splitArgs(argsStr)
			var argSpecs []ArgSpec

			for i, argTypeStr := range argParts {
				argTypeStr = strings.TrimSpace(argTypeStr)
				typ := parseArgTypeFromSchema(argTypeStr)

				argSpecs = append(argSpecs, ArgSpec{
					Name: fmt.Sprintf("Arg%d", i),
					Type: typ,
				})
			}

			v.ValidPredicates[predName] = PredicateSpec{
				Name:  predName,
				Arity: len(argSpecs),
				Args:  argSpecs,
			}
		}
	}
	return nil
}

// splitArgs splits by comma, respecting parentheses if any (though simpl types usually don't have them)
func splitArgs(s string) []string {
	return strings.Split(s, ",")
}

// parseArgTypeFromSchema maps schema type names to ArgType
func parseArgTypeFromSchema(s string) ArgType {
	s = strings.TrimSpace(s)
	switch s {
	case "Name", "name":
		return ArgTypeName
	case "String", "string":
		return ArgTypeString
	case "Number", "number", "Int", "int", "Float", "float":
		return ArgTypeNumber
	case "Bool", "bool":
		return ArgTypeBool
	case "Any", "any":
		return ArgTypeAny
	default:
		return ArgTypeAny
	}
}

// loadCoreNameConstants loads the /name constants node and edge kinds are
// drawn from, matching the node/edge taxonomy in spec.md §3.
func (v *AtomValidator) loadCoreNameConstants() {
	// Structural node kinds
	nodeKinds := []string{
		"/module", "/class", "/function", "/method", "/parameter",
		"/variable", "/property", "/interface", "/type_alias", "/enum",
		"/decorator", "/call_site", "/literal", "/singleton", "/issue",
		"/guarantee",
	}
	for _, k := range nodeKinds {
		v.ValidNameConstants[k] = true
	}

	// Edge kinds
	edgeKinds := []string{
		"/contains", "/calls", "/extends", "/implements", "/imports_from",
		"/assigned_from", "/flows_into", "/reads_from", "/mutates",
		"/rejects", "/instanceof", "/governs", "/violates",
	}
	for _, k := range edgeKinds {
		v.ValidNameConstants[k] = true
	}

	// Languages
	languages := []string{"/ts", "/tsx", "/js", "/jsx"}
	for _, lang := range languages {
		v.ValidNameConstants[lang] = true
	}

	// Severities
	v.ValidNameConstants["/fatal"] = true
	v.ValidNameConstants["/error"] = true
	v.ValidNameConstants["/warning"] = true
	v.ValidNameConstants["/info"] = true

	// Visibility
	v.ValidNameConstants["/public"] = true
	v.ValidNameConstants["/private"] = true
	v.ValidNameConstants["/protected"] = true

	// Generic
	v.ValidNameConstants["/true"] = true
	v.ValidNameConstants["/false"] = true
	v.ValidNameConstants["/none"] = true
	v.ValidNameConstants["/current_intent"] = true
}

// ValidateAtom validates a single Mangle atom string.
func (v *AtomValidator) ValidateAtom(atom string) ValidationResult {
	result := ValidationResult{
		Atom:   atom,
		Valid:  true,
		Errors: []ValidationError{},
	}

	atom = strings.TrimSpace(atom)
	if atom == "" {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Position: 0,
			Message:  "empty atom",
			Severity: SeverityFatal,
		})
		return result
	}

	// Remove trailing period if present
	atom = strings.TrimSuffix(atom, ".")

	// Parse predicate name
	parenIdx := strings.Index(atom, "(")
	if parenIdx == -1 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Position: 0,
			Message:  "missing opening parenthesis",
			Severity: SeverityFatal,
		})
		return result
	}

	predicate := atom[:parenIdx]
	if !isValidPredicate(predicate) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Position: 0,
			Message:  fmt.Sprintf("invalid predicate name '%s': must be lowercase identifier", predicate),
			Severity: SeverityError,
		})
	}

	// Check if predicate is known
	spec, known := v.ValidPredicates[predicate]
	if !known {
		result.Errors = append(result.Errors, ValidationError{
			Position: 0,
			Message:  fmt.Sprintf("unknown predicate '%s'", predicate),
			Severity: SeverityWarning,
		})
	}

	// Parse arguments
	if !strings.HasSuffix(atom, ")") {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Position: len(atom),
			Message:  "missing closing parenthesis",
			Severity: SeverityFatal,
		})
		return result
	}

	argsStr := atom[parenIdx+1 : len(atom)-1]
	args := parseAtomArgs(argsStr)

	// Validate arity if predicate is known
	if known && len(args) != spec.Arity {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Position: parenIdx,
			Message:  fmt.Sprintf("wrong arity for '%s': expected %d args, got %d", predicate, spec.Arity, len(args)),
			Severity: SeverityError,
		})
	}

	// Validate each argument
	for i, arg := range args {
		argErrors := v.validateArg(arg, i, spec, known)
		result.Errors = append(result.Errors, argErrors...)
		for _, err := range argErrors {
			if err.Severity >= SeverityError {
				result.Valid = false
			}
		}
	}

	// Attempt repair if invalid
	if !result.Valid {
		result.Repaired = v.attemptRepair(atom, result.Errors)
	}

	return result
}

// validateArg validates a single argument.
func (v *AtomValidator) validateArg(arg string, idx int, spec PredicateSpec, known bool) []ValidationError {
	var errors []ValidationError
	arg = strings.TrimSpace(arg)

	if arg == "" {
		errors = append(errors, ValidationError{
			Position: idx,
			Message:  fmt.Sprintf("argument %d is empty", idx+1),
			Severity: SeverityError,
		})
		return errors
	}

	// Determine actual type
	actualType := inferArgType(arg)

	// Check type constraint if predicate is known
	if known && idx < len(spec.Args) {
		expectedType := spec.Args[idx].Type
		if expectedType != ArgTypeAny && !compatibleTypes(actualType, expectedType) {
			errors = append(errors, ValidationError{
				Position: idx,
				Message:  fmt.Sprintf("argument %d (%s): expected %s, got %s", idx+1, spec.Args[idx].Name, typeString(expectedType), typeString(actualType)),
				Severity: SeverityWarning,
			})
		}
	}

	// Validate name constants
	if actualType == ArgTypeName {
		if !v.ValidNameConstants[arg] {
			errors = append(errors, ValidationError{
				Position: idx,
				Message:  fmt.Sprintf("unknown name constant '%s'", arg),
				Severity: SeverityWarning,
			})
		}
	}

	// Validate string syntax
	if actualType == ArgTypeString {
		if !strings.HasPrefix(arg, "\"") || !strings.HasSuffix(arg, "\"") {
			errors = append(errors, ValidationError{
				Position: idx,
				Message:  fmt.Sprintf("malformed string argument %d", idx+1),
				Severity: SeverityError,
			})
		}
	}

	return errors
}

// attemptRepair tries to fix common syntax errors.
func (v *AtomValidator) attemptRepair(atom string, errors []ValidationError) string {
	repaired := atom

	for _, err := range errors {
		switch {
		case strings.Contains(err.Message, "missing closing parenthesis"):
			repaired = repaired + ")"
		case strings.Contains(err.Message, "missing opening parenthesis"):
			// Try to find predicate and add ()
			if idx := strings.Index(repaired, " "); idx > 0 {
				repaired = repaired[:idx] + "()" + repaired[idx:]
			}
		case strings.Contains(err.Message, "malformed string"):
			// Try to fix unquoted strings
			repaired = fixUnquotedStrings(repaired)
		}
	}

	return repaired
}

// ValidateAtoms validates multiple atoms and returns all results.
func (v *AtomValidator) ValidateAtoms(atoms []string) []ValidationResult {
	results := make([]ValidationResult, len(atoms))
	for i, atom := range atoms {
		results[i] = v.ValidateAtom(atom)
	}
	return results
}

// ============================================================================
// Helper Functions
// ============================================================================

// isValidPredicate checks if a string is a valid Mangle predicate name.
func isValidPredicate(s string) bool {
	if len(s) == 0 {
		return false
	}
	// Must start with lowercase letter
	if !unicode.IsLower(rune(s[0])) {
		return false
	}
	// Must contain only alphanumeric and underscore
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// parseAtomArgs splits argument string respecting quotes and parentheses.
func parseAtomArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	depth := 0
	inQuote := false

	for i := 0; i < len(argsStr); i++ {
		c := argsStr[i]

		if c == '"' && (i == 0 || argsStr[i-1] != '\\') {
			inQuote = !inQuote
		}

		if !inQuote {
			if c == '(' {
				depth++
			} else if c == ')' {
				depth--
			} else if c == ',' && depth == 0 {
				args = append(args, current.String())
				current.Reset()
				continue
			}
		}

		current.WriteByte(c)
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// inferArgType determines the type of an argument.
func inferArgType(arg string) ArgType {
	arg = strings.TrimSpace(arg)

	// Name constant starts with /
	if strings.HasPrefix(arg, "/") {
		return ArgTypeName
	}

	// String is quoted
	if strings.HasPrefix(arg, "\"") {
		return ArgTypeString
	}

	// Variable starts with uppercase
	if len(arg) > 0 && unicode.IsUpper(rune(arg[0])) {
		return ArgTypeVariable
	}

	// Boolean
	if arg == "true" || arg == "false" {
		return ArgTypeBool
	}

	// Number
	if isNumeric(arg) {
		return ArgTypeNumber
	}

	return ArgTypeAny
}

// isNumeric checks if a string represents a number.
func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	matched, _ := regexp.MatchString(`^-?\d+(\.\d+)?$`, s)
	return matched
}

// compatibleTypes checks if actual type is compatible with expected.
func compatibleTypes(actual, expected ArgType) bool {
	if expected == ArgTypeAny {
		return true
	}
	return actual == expected
}

// typeString returns a human-readable type name.
func typeString(t ArgType) string {
	switch t {
	case ArgTypeName:
		return "name constant (/...)"
	case ArgTypeString:
		return "quoted string"
	case ArgTypeNumber:
		return "number"
	case ArgTypeVariable:
		return "variable (Uppercase)"
	case ArgTypeBool:
		return "boolean"
	default:
		return "any"
	}
}

// fixUnquotedStrings attempts to quote unquoted string arguments.
func fixUnquotedStrings(atom string) string {
	// Simple heuristic: find unquoted multi-word args and quote them
	// This is a best-effort repair
	re := regexp.MustCompile(`\(([^"/)][^,)]*)\)`)
	return re.ReplaceAllStringFunc(atom, func(match string) string {
		inner := match[1 : len(match)-1]
		if !strings.HasPrefix(inner, "\"") && !strings.HasPrefix(inner, "/") && !isNumeric(inner) {
			return "(\"" + inner + "\")"
		}
		return match
	})
}

// ============================================================================
// Atom repair loop
// ============================================================================

// RepairLoop validates a batch of atoms and produces a diagnostic report
// describing every syntax error plus any best-effort repair found.
type RepairLoop struct {
	Validator  *AtomValidator
	MaxRetries int
}

// NewRepairLoop creates a new repair loop with default settings.
func NewRepairLoop() *RepairLoop {
	return &RepairLoop{
		Validator:  NewAtomValidator(),
		MaxRetries: 3,
	}
}

// ValidateAndRepair validates atoms and generates a diagnostic report if needed.
func (r *RepairLoop) ValidateAndRepair(atoms []string) ([]string, error, string) {
	results := r.Validator.ValidateAtoms(atoms)

	var validAtoms []string
	var invalidAtoms []ValidationResult

	for _, result := range results {
		if result.Valid {
			validAtoms = append(validAtoms, result.Atom)
		} else {
			invalidAtoms = append(invalidAtoms, result)
		}
	}

	if len(invalidAtoms) == 0 {
		return validAtoms, nil, ""
	}

	// Generate repair prompt
	report := r.generateDiagnosticReport(invalidAtoms)

	return validAtoms, fmt.Errorf("%d invalid atoms", len(invalidAtoms)), report
}

// generateDiagnosticReport renders a human-readable explanation of every
// invalid atom, its errors, and any suggested repair.
func (r *RepairLoop) generateDiagnosticReport(invalid []ValidationResult) string {
	var sb strings.Builder

	sb.WriteString("Mangle syntax error - the following atoms are invalid:\n\n")

	for _, result := range invalid {
		sb.WriteString(fmt.Sprintf("Invalid: %s\n", result.Atom))
		for _, err := range result.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Message))
		}
		if result.Repaired != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", result.Repaired))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("MANGLE SYNTAX RULES:\n")
	sb.WriteString("- Predicates must be lowercase_with_underscores\n")
	sb.WriteString("- Name constants start with / (e.g., /query, /mutation)\n")
	sb.WriteString("- Strings must be double-quoted (e.g., \"hello\")\n")
	sb.WriteString("- Variables start with uppercase (e.g., Result, X)\n")
	sb.WriteString("- Atoms end with period: predicate(arg1, arg2).\n")

	return sb.String()
}
