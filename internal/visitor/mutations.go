package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ArrayMutationInfo captures push/unshift/splice/indexed-assignment (spec
// §4.2 "Mutations" — Array).
type ArrayMutationInfo struct {
	TargetVariable  string
	BaseObjectName  string // set when the target is `obj.arr.push(x)`
	PropertyName    string
	Method          string // "push", "unshift", "splice", "index"
	InsertedValues  []string
	IsSpread        bool
	Line, Column    int
}

// ObjectMutationInfo captures property assignment, Object.assign, spread,
// and `this.prop = v` (spec §4.2 "Mutations" — Object).
type ObjectMutationInfo struct {
	TargetObject   string
	PropertyName   string
	Source         string   // RHS of `this.prop = v`; the value flowing in
	Sources        []string // for Object.assign(target, ...sources)
	IsThisProperty bool
	EnclosingClass string // nearest enclosing class, set for every this.* assignment
	EnclosingFn    string // set when the nearest enclosing function is a constructor; edges use it when non-empty
	Line, Column   int
}

// ReassignmentInfo captures `x = y` (FLOWS_INTO) and compound `x += y`
// (FLOWS_INTO plus an idempotent READS_FROM self-loop), spec §4.2.
type ReassignmentInfo struct {
	Target       string
	Source       string
	Compound     bool
	Line, Column int
}

var arrayMutationMethods = map[string]bool{"push": true, "unshift": true, "splice": true}

// MutationVisitor extracts array/object mutations and reassignments.
type MutationVisitor struct{}

func (MutationVisitor) Visit(ctx *Context, n *sitter.Node) {
	switch n.Type() {
	case "call_expression":
		extractMutationCall(ctx, n)
	case "assignment_expression":
		extractAssignment(ctx, n)
	}
}

func extractMutationCall(ctx *Context, n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return
	}
	method := ctx.text(fn.ChildByFieldName("property"))
	object := fn.ChildByFieldName("object")
	args := n.ChildByFieldName("arguments")
	line, col := position(ctx, n)

	if arrayMutationMethods[method] {
		target, base, prop := splitMutationTarget(ctx, object)
		var values []string
		isSpread := false
		if args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				a := args.NamedChild(i)
				if a.Type() == "spread_element" {
					isSpread = true
					if id := a.NamedChild(0); id != nil {
						values = append(values, ctx.text(id))
					}
					continue
				}
				values = append(values, ctx.text(a))
			}
		}
		ctx.Out.ArrayMutations = append(ctx.Out.ArrayMutations, ArrayMutationInfo{
			TargetVariable: target, BaseObjectName: base, PropertyName: prop,
			Method: method, InsertedValues: values, IsSpread: isSpread,
			Line: line, Column: col,
		})
		return
	}

	// Object.assign(target, ...sources)
	if ctx.text(fn.ChildByFieldName("object")) == "Object" && method == "assign" && args != nil && args.NamedChildCount() > 0 {
		target := ctx.text(args.NamedChild(0))
		var sources []string
		for i := 1; i < int(args.NamedChildCount()); i++ {
			sources = append(sources, ctx.text(args.NamedChild(i)))
		}
		ctx.Out.ObjectMutations = append(ctx.Out.ObjectMutations, ObjectMutationInfo{
			TargetObject: target, Sources: sources, Line: line, Column: col,
		})
	}
}

// splitMutationTarget handles `obj.arr.push(x)`: the direct receiver of
// push is `obj.arr`, a member_expression itself, so we record the base
// object and property name one level up per spec §4.2.
func splitMutationTarget(ctx *Context, object *sitter.Node) (target, base, prop string) {
	target = ctx.text(object)
	if object != nil && object.Type() == "member_expression" {
		base = ctx.text(object.ChildByFieldName("object"))
		prop = ctx.text(object.ChildByFieldName("property"))
	}
	return
}

func extractAssignment(ctx *Context, n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	op := ctx.text(n.ChildByFieldName("operator"))
	if left == nil || right == nil {
		return
	}
	line, col := position(ctx, n)

	if left.Type() == "member_expression" && ctx.text(left.ChildByFieldName("object")) == "this" {
		prop := ctx.text(left.ChildByFieldName("property"))
		m := ObjectMutationInfo{
			TargetObject: "this", PropertyName: prop, Source: ctx.text(right), IsThisProperty: true,
			EnclosingClass: nearestEnclosingClassID(ctx), Line: line, Column: col,
		}
		fnID := nearestEnclosingFunctionID(ctx)
		for _, f := range ctx.Out.Functions {
			if f.ID == fnID && f.Kind == "constructor" {
				m.EnclosingFn = fnID
			}
		}
		ctx.Out.ObjectMutations = append(ctx.Out.ObjectMutations, m)
		return
	}
	if left.Type() == "member_expression" {
		ctx.Out.ObjectMutations = append(ctx.Out.ObjectMutations, ObjectMutationInfo{
			TargetObject: ctx.text(left.ChildByFieldName("object")),
			PropertyName: ctx.text(left.ChildByFieldName("property")),
			Line:         line, Column: col,
		})
		return
	}

	compound := op != "=" && op != ""
	ctx.Out.Reassignments = append(ctx.Out.Reassignments, ReassignmentInfo{
		Target: ctx.text(left), Source: ctx.text(right), Compound: compound,
		Line: line, Column: col,
	})
}
