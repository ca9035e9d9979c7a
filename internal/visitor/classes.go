package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"grafema/internal/graph"
)

// ClassInfo is a CLASS record (spec §3, type-system node kinds).
type ClassInfo struct {
	ID            string
	Name          string
	SuperclassRef string // cross-file dangling target per spec §4.3
	SuperclassID  string // CLASS id for SuperclassRef in the class's enclosing scope
	Implements    []string
	Line, Column  int
}

func (ctx *Context) pushClass(id string)  { ctx.classStack = append(ctx.classStack, id) }
func (ctx *Context) popClass() {
	if len(ctx.classStack) > 0 {
		ctx.classStack = ctx.classStack[:len(ctx.classStack)-1]
	}
}
func nearestEnclosingClassID(ctx *Context) string {
	if len(ctx.classStack) == 0 {
		return ""
	}
	return ctx.classStack[len(ctx.classStack)-1]
}

// ClassVisitor extracts CLASS records, superclass/implements edges (spec
// §4.3 "Cross-file dangling edges policy" — superclass target id is
// computed assuming the same file until reconciled by enrichment).
type ClassVisitor struct{}

func (ClassVisitor) Visit(ctx *Context, n *sitter.Node) {
	if n.Type() != "class_declaration" && n.Type() != "class" {
		return
	}
	nameNode := n.ChildByFieldName("name")
	name := ctx.text(nameNode)
	if name == "" {
		idx := ctx.Scope.GetItemCounter("anonymous_class")
		name = "<anonymous>#" + itoa(idx)
	}
	id := ctx.IDs.Stable(graph.KindClass, name)
	line, col := position(ctx, n)

	info := ClassInfo{ID: id, Name: name, Line: line, Column: col}
	heritage := n.ChildByFieldName("heritage") // class_heritage wraps extends/implements in some grammars
	scanHeritage := heritage
	if scanHeritage == nil {
		scanHeritage = n
	}
	for i := 0; i < int(scanHeritage.NamedChildCount()); i++ {
		h := scanHeritage.NamedChild(i)
		switch h.Type() {
		case "class_heritage":
			for j := 0; j < int(h.NamedChildCount()); j++ {
				hh := h.NamedChild(j)
				collectHeritage(ctx, hh, &info)
			}
		case "extends_clause", "implements_clause":
			collectHeritage(ctx, h, &info)
		}
	}

	ctx.Out.Classes = append(ctx.Out.Classes, info)
	ctx.Scope.Push(name, graph.KindClass)
	ctx.pushClass(id)
}

func collectHeritage(ctx *Context, h *sitter.Node, info *ClassInfo) {
	switch h.Type() {
	case "extends_clause":
		if target := h.NamedChild(0); target != nil {
			info.SuperclassRef = ctx.text(target)
			info.SuperclassID = ctx.IDs.Stable(graph.KindClass, info.SuperclassRef)
		}
	case "implements_clause":
		for i := 0; i < int(h.NamedChildCount()); i++ {
			info.Implements = append(info.Implements, ctx.text(h.NamedChild(i)))
		}
	}
}

func (ClassVisitor) VisitExit(ctx *Context, n *sitter.Node) {
	if n.Type() == "class_declaration" || n.Type() == "class" {
		ctx.Scope.Pop()
		ctx.popClass()
	}
}
