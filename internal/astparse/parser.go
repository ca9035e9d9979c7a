// Package astparse is Grafema's concrete AST producer for JavaScript and
// TypeScript source, wrapping github.com/smacker/go-tree-sitter. The
// extraction pipeline above this package (internal/visitor) treats the
// result as a generic syntax tree; this package owns the parser and the
// grammars, while the visitors import go-tree-sitter only to walk nodes.
package astparse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
)

// Language identifies which grammar produced a tree.
type Language string

const (
	LanguageTypeScript Language = "ts"
	LanguageJavaScript Language = "js"
)

// Parser wraps one tree-sitter parser per grammar needed for JS/TS, mirroring
// the teacher's two-parser split (one for TypeScript's superset grammar, one
// for plain JavaScript) so .js files don't pay the TS grammar's ambiguity
// cost.
type Parser struct {
	ts *sitter.Parser
	js *sitter.Parser
}

// NewParser builds both grammar parsers up front; tree-sitter parsers are
// not safe for concurrent use, so callers parsing files in parallel must
// use one Parser per goroutine (cheap: construction just sets a language).
func NewParser() *Parser {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())
	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())
	return &Parser{ts: ts, js: js}
}

// supportedExtensions lists the file extensions this package parses.
var supportedExtensions = map[string]Language{
	".ts":  LanguageTypeScript,
	".tsx": LanguageTypeScript,
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
}

// Supports reports whether path's extension is one this parser handles.
func Supports(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Tree is a parsed file: the root syntax node plus the context a visitor
// needs to turn byte offsets into line/column and text.
type Tree struct {
	Path     string
	Language Language
	Content  []byte
	Root     *sitter.Node
	raw      *sitter.Tree
}

// Close releases the tree-sitter tree. Callers call this once walking is
// done; the pipeline's parseAndVisit defers it immediately after a
// successful Parse.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

// Text returns the source text spanned by n.
func (t *Tree) Text(n *sitter.Node) string {
	return string(t.Content[n.StartByte():n.EndByte()])
}

// Position returns n's 1-based line and column, the coordinates every Node
// in internal/graph carries.
func (t *Tree) Position(n *sitter.Node) (line, column int) {
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// HasExportAncestor reports whether n is wrapped in an `export` or
// `export default` statement, the signal the teacher's walkNode uses to
// set an element's hasExport flag.
func HasExportAncestor(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && (parent.Type() == "export_statement" || parent.Type() == "export_default_declaration")
}

// Parse parses content as path's language, returning a Tree a visitor can
// walk. A parse failure is a grafemaerr.KindParse error, per-file and
// non-fatal: the caller logs it and continues with the next file (spec §7).
func (p *Parser) Parse(path string, content []byte) (*Tree, error) {
	start := time.Now()
	lang, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, grafemaerr.New(grafemaerr.KindParse, "unsupported extension for %s", path)
	}
	parser := p.ts
	if lang == LanguageJavaScript {
		parser = p.js
	}
	glog.ASTDebug("parsing %s", path)
	raw, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		glog.ASTError("parse failed for %s: %v", path, err)
		return nil, grafemaerr.Wrap(grafemaerr.KindParse, fmt.Errorf("%s: %w", path, err))
	}
	root := raw.RootNode()
	if root.HasError() {
		glog.ASTWarn("%s parsed with syntax errors, proceeding best-effort", path)
	}
	glog.ASTDebug("parsed %s in %v", path, time.Since(start))
	return &Tree{Path: path, Language: lang, Content: content, Root: root, raw: raw}, nil
}
