package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// InterfaceInfo is an INTERFACE record (spec §4.2 "Types (TypeScript-shape)").
type InterfaceInfo struct {
	ID           string
	Name         string
	Extends      []string
	Properties   int
	Line, Column int
}

// TypeAliasInfo is a TYPE record for a `type X = ...` alias, including
// mapped/conditional type metadata where the grammar exposes it.
type TypeAliasInfo struct {
	ID           string
	Name         string
	IsMapped     bool
	IsConditional bool
	Line, Column int
}

// EnumInfo is an ENUM record.
type EnumInfo struct {
	ID           string
	Name         string
	Members      []string
	Line, Column int
}

// TypeParameterInfo is a TYPE_PARAMETER record; Constraints produce EXTENDS
// edges against same-file interfaces or external reference nodes.
type TypeParameterInfo struct {
	ID           string
	Name         string
	OwnerID      string
	Constraints  []string
	Line, Column int
}

// TypeVisitor extracts TypeScript type declarations.
type TypeVisitor struct{}

func (TypeVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "interface_declaration":
		extractInterface(ctx, n)
	case "type_alias_declaration":
		extractTypeAlias(ctx, n)
	case "enum_declaration":
		extractEnum(ctx, n)
	case "type_parameters":
		extractTypeParameters(ctx, n)
	}
}

func extractInterface(ctx *Context, n *sitter.Node) {
	name := ctx.text(n.ChildByFieldName("name"))
	id := ctx.IDs.Stable(graph.KindInterface, name)
	line, col := position(ctx, n)

	info := InterfaceInfo{ID: id, Name: name, Line: line, Column: col}
	if ext := n.ChildByFieldName("extends"); ext != nil {
		for i := 0; i < int(ext.NamedChildCount()); i++ {
			info.Extends = append(info.Extends, ctx.text(ext.NamedChild(i)))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		info.Properties = int(body.NamedChildCount())
	}
	ctx.Out.Interfaces = append(ctx.Out.Interfaces, info)
}

func extractTypeAlias(ctx *Context, n *sitter.Node) {
	name := ctx.text(n.ChildByFieldName("name"))
	id := ctx.IDs.Stable(graph.KindType, name)
	line, col := position(ctx, n)
	value := n.ChildByFieldName("value")
	info := TypeAliasInfo{ID: id, Name: name, Line: line, Column: col}
	if value != nil {
		info.IsMapped = value.Type() == "mapped_type_clause" || value.Type() == "object_type"
		info.IsConditional = value.Type() == "conditional_type"
	}
	ctx.Out.TypeAliases = append(ctx.Out.TypeAliases, info)
}

func extractEnum(ctx *Context, n *sitter.Node) {
	name := ctx.text(n.ChildByFieldName("name"))
	id := ctx.IDs.Stable(graph.KindEnum, name)
	line, col := position(ctx, n)
	info := EnumInfo{ID: id, Name: name, Line: line, Column: col}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			info.Members = append(info.Members, ctx.text(member.ChildByFieldName("name")))
		}
	}
	ctx.Out.Enums = append(ctx.Out.Enums, info)
}

func extractTypeParameters(ctx *Context, n *sitter.Node) {
	owner := nearestEnclosingFunctionID(ctx)
	if owner == "" {
		owner = nearestEnclosingClassID(ctx)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		tp := n.NamedChild(i)
		if tp.Type() != "type_parameter" {
			continue
		}
		name := ctx.text(tp.ChildByFieldName("name"))
		id := ctx.IDs.Stable(graph.KindTypeParameter, name)
		line, col := position(ctx, tp)
		info := TypeParameterInfo{ID: id, Name: name, OwnerID: owner, Line: line, Column: col}
		if c := tp.ChildByFieldName("constraint"); c != nil {
			info.Constraints = append(info.Constraints, ctx.text(c))
		}
		ctx.Out.TypeParameters = append(ctx.Out.TypeParameters, info)
	}
}
