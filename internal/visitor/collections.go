// Package visitor walks a parsed syntax tree (internal/astparse) one
// syntactic concern at a time and emits flat typed records into shared
// Collections buffers. No graph I/O happens here; GraphBuilder is the only
// consumer of a Collections value (spec §4.2).
package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// Collections is the full set of pre-allocated record buffers every
// per-syntactic-concern visitor appends to. One Collections is built per
// file and handed whole to graphbuilder's Builder.Build.
type Collections struct {
	File string

	Functions    []FunctionInfo
	Parameters   []ParameterInfo
	Classes      []ClassInfo
	Variables    []VariableInfo
	Calls        []CallInfo
	Arguments    []ArgumentInfo
	ControlFlow  []ControlFlowInfo
	Imports      []ImportInfo
	Exports      []ExportInfo
	ArrayMutations  []ArrayMutationInfo
	ObjectMutations []ObjectMutationInfo
	Reassignments   []ReassignmentInfo
	Interfaces   []InterfaceInfo
	TypeAliases  []TypeAliasInfo
	Enums        []EnumInfo
	Decorators   []DecoratorInfo
	TypeParameters []TypeParameterInfo
	Generators   []GeneratorInfo
	Promises     []PromiseInfo
	FrameworkNodes []FrameworkNodeInfo
	FrameworkEdges []FrameworkEdgeInfo
}

// FrameworkNodeInfo is a domain/framework node emitted by an overlay
// visitor (spec §3: socketio:*, react:*, browser:*, HTTP_REQUEST,
// DATABASE_QUERY, EVENT_LISTENER).
type FrameworkNodeInfo struct {
	ID           string
	Kind         graph.NodeKind
	Name         string
	Attrs        map[string]any
	Line, Column int
}

// FrameworkEdgeInfo is an edge between a framework node and the core node
// it annotates (e.g. EMITS_EVENT, MAKES_REQUEST, MAKES_QUERY). No overlay
// visitor appends one, and graphbuilder does not read FrameworkEdges.
type FrameworkEdgeInfo struct {
	From string
	Kind graph.EdgeKind
	To   string
}

// NewCollections returns an empty Collections for file.
func NewCollections(file string) *Collections {
	return &Collections{File: file}
}

// Tree is the minimal view of a parsed file every visitor needs: text
// slicing and line/column lookup. internal/astparse.Tree satisfies this.
type Tree interface {
	Text(n *sitter.Node) string
	Position(n *sitter.Node) (line, column int)
}

// Context bundles the per-file state every visitor needs: the scope
// tracker for computing ids, the id generator, and the parsed tree for
// text/position lookups. Built once per file by the orchestrator's INDEXING
// phase driver and passed to every visitor function.
type Context struct {
	File  string
	Scope *graph.ScopeTracker
	IDs   *graph.IdGenerator
	Out   *Collections
	Src   Tree

	// functionStack tracks the id of each enclosing function/method as
	// FunctionVisitor pushes/pops it, so nested visitors (params,
	// arguments, control flow) can find their nearest enclosing function
	// without re-walking ancestors.
	functionStack []string

	// classStack tracks the id of each enclosing class, mirroring
	// functionStack but maintained by ClassVisitor.
	classStack []string

	// pendingCallNodes holds every CALL/METHOD_CALL/CONSTRUCTOR_CALL *Node
	// registered through IDs.Pending during this file's traversal, so the
	// caller can run IDs.Resolve() once the whole file is walked and then
	// read back final ids via these same pointers.
	pendingCallNodes []*graph.Node
}

// PendingCallNodes returns the CALL/METHOD_CALL/CONSTRUCTOR_CALL nodes
// registered for collision resolution during this file's traversal. Call
// after Resolve (see Context.Resolve) to read final ids.
func (ctx *Context) PendingCallNodes() []*graph.Node {
	return ctx.pendingCallNodes
}

// Resolve runs the id generator's end-of-file collision resolution (spec
// §4.1) and then back-fills CallInfo.ID from the resolved node ids:
// CallInfo entries and pendingCallNodes are appended in lockstep by
// extractCall/extractConstructorCall, so they can be zipped by index.
func (ctx *Context) Resolve() error {
	if err := ctx.IDs.Resolve(); err != nil {
		return err
	}
	for i, n := range ctx.pendingCallNodes {
		if i < len(ctx.Out.Calls) {
			ctx.Out.Calls[i].ID = n.ID
		}
	}
	for i := range ctx.Out.Arguments {
		if n := ctx.Out.Arguments[i].callNode; n != nil {
			ctx.Out.Arguments[i].CallID = n.ID
		}
	}
	return nil
}

// NewContext builds a fresh per-file visiting context over src.
func NewContext(file string, src Tree) *Context {
	scope := graph.NewScopeTracker(file)
	return &Context{
		File:  file,
		Scope: scope,
		IDs:   graph.NewIdGenerator(scope),
		Out:   NewCollections(file),
		Src:   src,
	}
}

func (ctx *Context) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return ctx.Src.Text(n)
}

func position(ctx *Context, n *sitter.Node) (line, column int) {
	return ctx.Src.Position(n)
}

// NodeText and NodePosition are exported for overlay visitors in
// internal/visitor/framework, which live in a separate package to keep
// each framework's pattern-matching rules isolated from the core syntactic
// visitors.
func NodeText(ctx *Context, n *sitter.Node) string { return ctx.text(n) }

func NodePosition(ctx *Context, n *sitter.Node) (line, column int) { return position(ctx, n) }

// Itoa is the same small integer formatter the core visitors use for
// discriminator suffixes, exported for overlay visitors.
func Itoa(n int) string { return itoa(n) }

// PushFunction records functionID as the innermost enclosing function.
// FunctionVisitor calls this on entry to a function/method body and PopFunction
// on exit.
func (ctx *Context) PushFunction(functionID string) {
	ctx.functionStack = append(ctx.functionStack, functionID)
}

// PopFunction leaves the innermost function scope.
func (ctx *Context) PopFunction() {
	if len(ctx.functionStack) == 0 {
		return
	}
	ctx.functionStack = ctx.functionStack[:len(ctx.functionStack)-1]
}

func nearestEnclosingFunctionID(ctx *Context) string {
	if len(ctx.functionStack) == 0 {
		return ""
	}
	return ctx.functionStack[len(ctx.functionStack)-1]
}

// Visitor consumes AST nodes of specific kinds and appends records to
// ctx.Out. Each concrete visitor (calls, functions, classes, ...)
// implements this by switching on n.Type() for the node kinds it owns.
type Visitor interface {
	Visit(ctx *Context, n *sitter.Node)
}

// ExitVisitor is implemented by visitors that need a post-order hook
// (e.g. popping a ScopeTracker frame pushed on entry). Dispatch calls
// VisitExit after a node's children have been fully walked, for every
// Visitor in its list that also implements ExitVisitor.
type ExitVisitor interface {
	VisitExit(ctx *Context, n *sitter.Node)
}

// Dispatch is the language-agnostic traversal all concern-specific visitors
// share: depth-first over every named node, delegating node-kind
// recognition to vs in registration order. Every visitor sees every node;
// each one ignores types it doesn't own by switching on n.Type().
//
// Dispatch also maintains ctx's enclosing-function stack: when it descends
// into a function-like node it pushes that function's id first, and pops it
// on the way back out, so params/arguments/control-flow visitors can find
// their nearest enclosing function without independently re-walking
// ancestors.
func Dispatch(ctx *Context, root *sitter.Node, vs []Visitor) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		before := len(ctx.Out.Functions)
		for _, v := range vs {
			v.Visit(ctx, n)
		}
		pushed := false
		if functionNodeTypes[n.Type()] && len(ctx.Out.Functions) > before {
			ctx.PushFunction(ctx.Out.Functions[len(ctx.Out.Functions)-1].ID)
			pushed = true
		} else if id, ok := functionIDIfFunctionLike(ctx, n); ok {
			ctx.PushFunction(id)
			pushed = true
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
		if pushed {
			ctx.PopFunction()
		}
		for _, v := range vs {
			if ev, ok := v.(ExitVisitor); ok {
				ev.VisitExit(ctx, n)
			}
		}
	}
	walk(root)
}
