package framework

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
	"grafema/internal/visitor"
)

// dbMethods are receiver-agnostic query method names that signal a
// DATABASE_QUERY node (spec §3). Matched the same loose way the teacher's
// EmitLanguageFacts matches React hooks: by name, not by type resolution.
var dbMethods = map[string]bool{
	"query": true, "execute": true, "find": true, "findOne": true, "findMany": true,
	"insert": true, "update": true, "delete": true, "aggregate": true,
}

// DatabaseVisitor pattern-matches ORM/driver call shapes
// (`db.query(sql)`, `Model.findOne(filter)`) into DATABASE_QUERY nodes. It
// emits no edge to or from the node.
type DatabaseVisitor struct{}

func (DatabaseVisitor) Visit(ctx *visitor.Context, n *sitter.Node) {
	if n.Type() != "call_expression" {
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	method := visitor.NodeText(ctx, fn.ChildByFieldName("property"))
	if !dbMethods[method] {
		return
	}
	receiver := visitor.NodeText(ctx, fn.ChildByFieldName("object"))
	if !looksLikeDBReceiver(receiver) {
		return
	}

	args := n.ChildByFieldName("arguments")
	query := ""
	if args != nil && args.NamedChildCount() > 0 {
		query = visitor.NodeText(ctx, args.NamedChild(0))
	}
	line, col := visitor.NodePosition(ctx, n)
	idx := ctx.Scope.GetItemCounter("db:" + method)
	id := ctx.IDs.StableWithDiscriminator(graph.KindDatabaseQuery, method, visitor.Itoa(idx))
	ctx.Out.FrameworkNodes = append(ctx.Out.FrameworkNodes, visitor.FrameworkNodeInfo{
		ID: id, Kind: graph.KindDatabaseQuery, Name: method, Line: line, Column: col,
		Attrs: map[string]any{"query": query},
	})
}

// looksLikeDBReceiver matches receiver names by a small set of common
// conventions (db/conn/pool/a PascalCase model name), the same
// string-heuristic style the teacher's parser uses for framework overlays.
func looksLikeDBReceiver(name string) bool {
	switch strings.ToLower(name) {
	case "db", "conn", "connection", "pool", "client", "knex", "sequelize":
		return true
	}
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}
