package graph

// Node is the common envelope every entity in the graph carries (spec §3,
// "Common attributes"). Kind-specific data lives in Attrs rather than a
// variant struct so the buffered writer can stay a flat slice-of-Node
// through the whole pipeline; validators and enrichment passes that need a
// typed view construct one on demand from Attrs.
type Node struct {
	ID     string
	Kind   NodeKind
	Name   string
	File   string
	Line   int
	Column int
	Attrs  map[string]any
}

// NewNode builds a Node with an initialized Attrs map, ready for
// Set/SetAll calls from a visitor.
func NewNode(id string, kind NodeKind, name string) *Node {
	return &Node{ID: id, Kind: kind, Name: name, Attrs: make(map[string]any)}
}

// Set stores a kind-specific attribute (e.g. "async", "source",
// "propertyPath") and returns the node for chaining during construction.
func (n *Node) Set(key string, value any) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
	return n
}

// Attr reads a kind-specific attribute, returning (nil, false) if absent.
func (n *Node) Attr(key string) (any, bool) {
	if n.Attrs == nil {
		return nil, false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// WithLocation sets the source coordinates (spec §3 common attributes).
func (n *Node) WithLocation(file string, line, column int) *Node {
	n.File = file
	n.Line = line
	n.Column = column
	return n
}

// Edge is a typed directed connection between two nodes, referenced by id
// (spec §9 Design Notes: "hold them by id throughout; never store
// back-pointers").
type Edge struct {
	From  string
	Kind  EdgeKind
	To    string
	Attrs map[string]any
}

// NewEdge builds an Edge with an initialized Attrs map.
func NewEdge(from string, kind EdgeKind, to string) *Edge {
	return &Edge{From: from, Kind: kind, To: to, Attrs: make(map[string]any)}
}

// Set stores an edge attribute (e.g. "mutationMethod", "argIndex",
// "isSpread") and returns the edge for chaining.
func (e *Edge) Set(key string, value any) *Edge {
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}
	e.Attrs[key] = value
	return e
}

// Attr reads an edge attribute, returning (nil, false) if absent.
func (e *Edge) Attr(key string) (any, bool) {
	if e.Attrs == nil {
		return nil, false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// LeafKinds is the set of node kinds at which a data-flow trace is allowed
// to terminate (spec §4.6 DataFlowValidator, GLOSSARY "Leaf node").
var LeafKinds = map[NodeKind]bool{
	KindLiteral:         true,
	KindArrayLiteral:    true,
	KindObjectLiteral:   true,
	KindClass:           true,
	KindFunction:        true,
	KindCall:            true,
	KindConstructorCall: true,
	KindNetStdio:        true,
	KindNetRequest:      true,
	NodeKind("db:query"):       true,
	NodeKind("fs:operation"):   true,
	NodeKind("event:listener"): true,
}
