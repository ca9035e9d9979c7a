// Package graph defines Grafema's node/edge type universe and the
// semantic identifier service used to name every node.
package graph

// NodeKind is a closed tag for every entity the extraction pipeline can
// produce. String-typed at the persistence boundary only; everywhere else
// it is this enum.
type NodeKind string

const (
	// Structural
	KindModule          NodeKind = "MODULE"
	KindFunction        NodeKind = "FUNCTION"
	KindParameter       NodeKind = "PARAMETER"
	KindScope           NodeKind = "SCOPE"
	KindBranch          NodeKind = "BRANCH"
	KindCase            NodeKind = "CASE"
	KindCall            NodeKind = "CALL"
	KindMethodCall      NodeKind = "METHOD_CALL"
	KindConstructorCall NodeKind = "CONSTRUCTOR_CALL"
	KindVariable        NodeKind = "VARIABLE"
	KindConstant        NodeKind = "CONSTANT"
	KindLiteral         NodeKind = "LITERAL"
	KindObjectLiteral   NodeKind = "OBJECT_LITERAL"
	KindArrayLiteral    NodeKind = "ARRAY_LITERAL"
	KindExpression      NodeKind = "EXPRESSION"
	KindImport          NodeKind = "IMPORT"
	KindExport          NodeKind = "EXPORT"
	KindExternalModule  NodeKind = "EXTERNAL_MODULE"

	// Type system
	KindClass         NodeKind = "CLASS"
	KindInterface     NodeKind = "INTERFACE"
	KindType          NodeKind = "TYPE"
	KindEnum          NodeKind = "ENUM"
	KindTypeParameter NodeKind = "TYPE_PARAMETER"
	KindDecorator     NodeKind = "DECORATOR"

	// Framework / domain
	KindHTTPRequest   NodeKind = "HTTP_REQUEST"
	KindDatabaseQuery NodeKind = "DATABASE_QUERY"
	KindEventListener NodeKind = "EVENT_LISTENER"

	// Runtime singletons
	KindNetStdio   NodeKind = "net:stdio"
	KindNetRequest NodeKind = "net:request"

	// Governance
	KindGuarantee NodeKind = "GUARANTEE"
	KindPlugin    NodeKind = "grafema:plugin"
)

// FrameworkNodeKind builds a namespaced kind like "socketio:emit" or
// "react:component" for overlay visitors (spec §3, framework/domain row).
func FrameworkNodeKind(namespace, tag string) NodeKind {
	return NodeKind(namespace + ":" + tag)
}

// IssueNodeKind builds a diagnostic node kind like "issue:unresolved-call".
func IssueNodeKind(category string) NodeKind {
	return NodeKind("issue:" + category)
}

// ExternalModuleID is the singleton-per-source id for an EXTERNAL_MODULE
// node (spec I5): at most one such node per distinct import source.
func ExternalModuleID(source string) string {
	return string(KindExternalModule) + "#" + source
}

// ModuleID is the singleton-per-file id for a file's MODULE node — the
// root of that file's CONTAINS forest and the unit glob patterns in a
// guarantee's `governs` list match against (spec §4.7).
func ModuleID(file string) string {
	return string(KindModule) + "#" + file
}

// EdgeKind is the closed, stable edge vocabulary (spec §3).
type EdgeKind string

const (
	// Containment
	EdgeContains        EdgeKind = "CONTAINS"
	EdgeHasScope        EdgeKind = "HAS_SCOPE"
	EdgeDeclares        EdgeKind = "DECLARES"
	EdgeDefines         EdgeKind = "DEFINES"
	EdgeHasParameter    EdgeKind = "HAS_PARAMETER"
	EdgeHasProperty     EdgeKind = "HAS_PROPERTY"
	EdgeHasElement      EdgeKind = "HAS_ELEMENT"
	EdgeHasTypeParamter EdgeKind = "HAS_TYPE_PARAMETER"

	// Control
	EdgeHasCase       EdgeKind = "HAS_CASE"
	EdgeHasDefault    EdgeKind = "HAS_DEFAULT"
	EdgeHasConsequent EdgeKind = "HAS_CONSEQUENT"
	EdgeHasAlternate  EdgeKind = "HAS_ALTERNATE"
	EdgeHasCatch      EdgeKind = "HAS_CATCH"
	EdgeHasFinally    EdgeKind = "HAS_FINALLY"

	// Call graph
	EdgeCalls         EdgeKind = "CALLS"
	EdgeHasCallback   EdgeKind = "HAS_CALLBACK"
	EdgePassesArgument EdgeKind = "PASSES_ARGUMENT"
	EdgeMakesRequest  EdgeKind = "MAKES_REQUEST"
	EdgeMakesQuery    EdgeKind = "MAKES_QUERY"

	// Data flow
	EdgeAssignedFrom EdgeKind = "ASSIGNED_FROM"
	EdgeDerivesFrom  EdgeKind = "DERIVES_FROM"
	EdgeFlowsInto    EdgeKind = "FLOWS_INTO"
	EdgeReadsFrom    EdgeKind = "READS_FROM"
	EdgeWritesTo     EdgeKind = "WRITES_TO"
	EdgeCaptures     EdgeKind = "CAPTURES"
	EdgeModifies     EdgeKind = "MODIFIES"

	// Module graph
	EdgeImports     EdgeKind = "IMPORTS"
	EdgeImportsFrom EdgeKind = "IMPORTS_FROM"

	// Type graph
	EdgeExtends      EdgeKind = "EXTENDS"
	EdgeImplements   EdgeKind = "IMPLEMENTS"
	EdgeInstanceOf   EdgeKind = "INSTANCE_OF"
	EdgeDecoratedBy  EdgeKind = "DECORATED_BY"

	// Events / async
	EdgeEmitsEvent  EdgeKind = "EMITS_EVENT"
	EdgeListenedBy  EdgeKind = "LISTENED_BY"
	EdgeListensTo   EdgeKind = "LISTENS_TO"
	EdgeHandledBy   EdgeKind = "HANDLED_BY"
	EdgeYields      EdgeKind = "YIELDS"
	EdgeDelegatesTo EdgeKind = "DELEGATES_TO"
	EdgeResolvesTo  EdgeKind = "RESOLVES_TO"
	EdgeThrows      EdgeKind = "THROWS"
	EdgeRejects     EdgeKind = "REJECTS"
	EdgeCatchesFrom EdgeKind = "CATCHES_FROM"

	// Governance
	EdgeGoverns  EdgeKind = "GOVERNS"
	EdgeViolates EdgeKind = "VIOLATES"
	EdgeAffects  EdgeKind = "AFFECTS"
)

// signature constrains which (source kind, target kind) pairs an edge kind
// may connect (spec I4). An edge kind with no entry in this map is
// "unconstrained" — used for edges whose endpoints are genuinely
// polymorphic (e.g. CONTAINS, which roots at MODULE but nests arbitrarily
// deep).
var signatures = map[EdgeKind][][2]NodeKind{
	EdgeCalls:       {{KindCall, KindFunction}, {KindMethodCall, KindFunction}},
	EdgeImplements:  {{KindClass, KindInterface}},
	EdgeExtends:     {{KindClass, KindClass}, {KindInterface, KindInterface}, {KindTypeParameter, KindInterface}},
	EdgeInstanceOf:  {{KindVariable, KindClass}, {KindConstant, KindClass}},
	EdgeHasParameter: {{KindFunction, KindParameter}},
	EdgeResolvesTo:  {{KindCall, KindConstructorCall}},
	EdgeDecoratedBy: {{KindClass, KindDecorator}, {KindFunction, KindDecorator}, {KindParameter, KindDecorator}},
}

// CheckSignature reports whether an edge of kind k may connect a node of
// kind from to a node of kind to. Edge kinds with no declared signature are
// treated as unconstrained (spec I4 only enumerates "representative"
// signatures, not an exhaustive table).
func CheckSignature(k EdgeKind, from, to NodeKind) bool {
	sig, ok := signatures[k]
	if !ok {
		return true
	}
	for _, pair := range sig {
		if pair[0] == from && pair[1] == to {
			return true
		}
	}
	return false
}
