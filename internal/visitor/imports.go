package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// ImportInfo is an IMPORT record (spec §3). Source is the raw import
// specifier text; resolution to a target EXPORT/EXTERNAL_MODULE happens in
// GraphBuilder's async IMPORTS_FROM post-pass (spec §4.3), not here.
type ImportInfo struct {
	ID           string
	Name         string // local binding name
	ImportedName string // exported name in the source module ("" for default/namespace)
	Source       string
	IsDefault    bool
	IsNamespace  bool
	Line, Column int
}

// ExportInfo is an EXPORT record.
type ExportInfo struct {
	ID           string
	Name         string
	IsDefault    bool
	Line, Column int
}

// ImportExportVisitor extracts IMPORT/EXPORT records from ES module syntax.
type ImportExportVisitor struct{}

func (ImportExportVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		extractImport(ctx, n)
	case "export_statement":
		extractExport(ctx, n)
	}
}

func extractImport(ctx *Context, n *sitter.Node) {
	source := importSourceText(ctx, n)
	line, col := position(ctx, n)
	clause := n.ChildByFieldName("import") // "named_imports" / identifier / namespace_import wrapper, grammar-dependent

	emit := func(local, imported string, isDefault, isNamespace bool) {
		id := ctx.IDs.Stable(graph.KindImport, local)
		ctx.Out.Imports = append(ctx.Out.Imports, ImportInfo{
			ID: id, Name: local, ImportedName: imported, Source: source,
			IsDefault: isDefault, IsNamespace: isNamespace, Line: line, Column: col,
		})
	}

	if clause == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walkImportClauseChild(ctx, n.NamedChild(i), emit)
		}
		return
	}
	walkImportClauseChild(ctx, clause, emit)
}

func walkImportClauseChild(ctx *Context, n *sitter.Node, emit func(local, imported string, isDefault, isNamespace bool)) {
	switch n.Type() {
	case "identifier":
		emit(ctx.text(n), "", true, false)
	case "namespace_import":
		if id := n.NamedChild(0); id != nil {
			emit(ctx.text(id), "", false, true)
		}
	case "named_imports":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			if spec.Type() != "import_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			alias := spec.ChildByFieldName("alias")
			imported := ctx.text(name)
			local := imported
			if alias != nil {
				local = ctx.text(alias)
			}
			emit(local, imported, false, false)
		}
	}
}

func importSourceText(ctx *Context, n *sitter.Node) string {
	src := n.ChildByFieldName("source")
	if src == nil {
		return ""
	}
	text := ctx.text(src)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func extractExport(ctx *Context, n *sitter.Node) {
	line, col := position(ctx, n)
	isDefault := hasChildOfType(n, "default")
	declaration := n.ChildByFieldName("declaration")
	if declaration != nil {
		name := declarationName(ctx, declaration)
		if name != "" {
			id := ctx.IDs.Stable(graph.KindExport, name)
			ctx.Out.Exports = append(ctx.Out.Exports, ExportInfo{ID: id, Name: name, IsDefault: isDefault, Line: line, Column: col})
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := ctx.text(spec.ChildByFieldName("name"))
			id := ctx.IDs.Stable(graph.KindExport, name)
			ctx.Out.Exports = append(ctx.Out.Exports, ExportInfo{ID: id, Name: name, Line: line, Column: col})
		}
	}
}

func declarationName(ctx *Context, n *sitter.Node) string {
	switch n.Type() {
	case "function_declaration", "class_declaration", "generator_function_declaration":
		return ctx.text(n.ChildByFieldName("name"))
	case "lexical_declaration", "variable_declaration":
		if d := n.NamedChild(0); d != nil {
			return ctx.text(d.ChildByFieldName("name"))
		}
	}
	return ctx.text(n)
}
