// Package inspect extracts declarations from Python source using tree-sitter.
// Source is never executed or imported; everything is read off the syntax tree.
package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/libctx/internal/lang"
	"github.com/phobologic/libctx/internal/model"
)

var (
	// ErrSyntax is wrapped by every *SyntaxError.
	ErrSyntax = errors.New("invalid python syntax")
	// ErrEncoding reports source files that are not valid UTF-8.
	ErrEncoding = errors.New("source is not valid UTF-8")
)

// SyntaxError reports a source unit that does not parse as Python.
// Line and Column are 1-based; zero means unknown.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<source>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	if e.Near != "" {
		return fmt.Sprintf("%s: %v near %q", loc, ErrSyntax, e.Near)
	}
	return fmt.Sprintf("%s: %v", loc, ErrSyntax)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Inspector turns Python source into model.Module values. It owns a
// tree-sitter parser and must not be shared between goroutines.
type Inspector struct {
	parser *sitter.Parser
}

// New creates an Inspector with its own parser.
func New() *Inspector {
	return &Inspector{parser: lang.NewParser()}
}

// Source inspects a single source unit with a throwaway Inspector.
func Source(source []byte, moduleName, path string) (*model.Module, error) {
	return New().Inspect(source, moduleName, path)
}

// File reads and inspects one Python file. An empty moduleName defaults to
// the file stem.
func (in *Inspector) File(path, moduleName string) (*model.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%s: %w", path, ErrEncoding)
	}
	if moduleName == "" {
		moduleName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return in.Inspect(source, moduleName, path)
}

// Inspect parses source and extracts its module-level declarations. The only
// error it returns is a *SyntaxError; unusual but valid constructs degrade to
// absent fields.
func (in *Inspector) Inspect(source []byte, moduleName, path string) (*model.Module, error) {
	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	tree, err := in.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &SyntaxError{Path: path}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(lang.FirstError(root), source, path)
	}
	if bad := invalidNode(root); bad != nil {
		return nil, syntaxError(bad, source, path)
	}

	x := &extractor{printer: printer{source: source}}
	mod := &model.Module{
		Name:      moduleName,
		Path:      path,
		Docstring: x.docstring(root),
	}
	mod.Exports, mod.HasExports = findExports(root, source)

	for _, stmt := range lang.NamedChildren(root) {
		switch stmt.Type() {
		case "class_definition":
			mod.Classes = append(mod.Classes, x.class(stmt, nil, ""))
		case "function_definition":
			mod.Functions = append(mod.Functions, x.function(stmt, nil, ""))
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Type() {
			case "class_definition":
				mod.Classes = append(mod.Classes, x.class(def, stmt, ""))
			case "function_definition":
				mod.Functions = append(mod.Functions, x.function(def, stmt, ""))
			}
		case "expression_statement":
			mod.Variables = append(mod.Variables, x.variables(stmt)...)
		}
	}

	return mod, nil
}

func syntaxError(bad *sitter.Node, source []byte, path string) *SyntaxError {
	se := &SyntaxError{Path: path}
	if bad == nil {
		return se
	}
	pt := bad.StartPoint()
	se.Line = int(pt.Row) + 1
	se.Column = int(pt.Column) + 1
	near := lang.NodeText(bad, source)
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if len(near) > 40 {
		near = near[:40]
	}
	se.Near = strings.TrimSpace(near)
	return se
}

type extractor struct {
	printer
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (x *extractor) decorators(decorated *sitter.Node) []string {
	if decorated == nil {
		return nil
	}
	var out []string
	for _, child := range lang.NamedChildren(decorated) {
		if child.Type() != "decorator" {
			continue
		}
		exprs := lang.NamedChildren(child)
		if len(exprs) == 0 {
			continue
		}
		out = append(out, x.textOrSource(exprs[0]))
	}
	return out
}

func (x *extractor) function(node, decorated *sitter.Node, prefix string) model.Function {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = lang.NodeText(n, x.source)
	}

	fn := model.Function{
		Name:             name,
		QualName:         qualify(prefix, name),
		ReturnAnnotation: x.text(node.ChildByFieldName("return_type")),
		Decorators:       x.decorators(decorated),
		Line:             int(node.StartPoint().Row) + 1,
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			fn.IsAsync = true
			break
		}
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Parameters, _ = extractParameters(params, &x.printer)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Docstring = x.docstring(body)
	}

	for _, d := range fn.Decorators {
		switch d {
		case "property":
			fn.IsProperty = true
		case "classmethod":
			fn.IsClassMethod = true
		case "staticmethod":
			fn.IsStaticMethod = true
		}
	}

	return fn
}

// class extracts a class and its direct members. The body is iterated one
// level deep so helpers nested inside method bodies are never picked up.
func (x *extractor) class(node, decorated *sitter.Node, prefix string) model.Class {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = lang.NodeText(n, x.source)
	}
	qualname := qualify(prefix, name)

	cls := model.Class{
		Name:       name,
		QualName:   qualname,
		Decorators: x.decorators(decorated),
		Line:       int(node.StartPoint().Row) + 1,
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range lang.NamedChildren(supers) {
			if arg.Type() == "keyword_argument" || arg.Type() == "dictionary_splat" {
				continue
			}
			cls.Bases = append(cls.Bases, x.textOrSource(arg))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	cls.Docstring = x.docstring(body)

	for _, stmt := range lang.NamedChildren(body) {
		switch stmt.Type() {
		case "function_definition":
			cls.Methods = append(cls.Methods, x.function(stmt, nil, qualname))
		case "class_definition":
			cls.InnerClasses = append(cls.InnerClasses, x.class(stmt, nil, qualname))
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Type() {
			case "function_definition":
				cls.Methods = append(cls.Methods, x.function(def, stmt, qualname))
			case "class_definition":
				cls.InnerClasses = append(cls.InnerClasses, x.class(def, stmt, qualname))
			}
		case "expression_statement":
			cls.ClassVariables = append(cls.ClassVariables, x.variables(stmt)...)
		}
	}

	return cls
}

// variables extracts the plain-name assignments of one expression statement.
// Annotated assignments yield one variable with its annotation; chained
// assignments yield one variable per name target, all sharing the value.
func (x *extractor) variables(stmt *sitter.Node) []model.Variable {
	var out []model.Variable
	for _, expr := range lang.NamedChildren(stmt) {
		if expr.Type() != "assignment" {
			continue
		}
		line := int(expr.StartPoint().Row) + 1

		if annotation := expr.ChildByFieldName("type"); annotation != nil {
			left := expr.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" {
				continue
			}
			out = append(out, model.Variable{
				Name:       lang.NodeText(left, x.source),
				Annotation: x.text(annotation),
				Value:      x.text(expr.ChildByFieldName("right")),
				Line:       line,
			})
			continue
		}

		value, targets := assignmentTargets(expr)
		for _, target := range targets {
			if target.Type() != "identifier" {
				continue
			}
			out = append(out, model.Variable{
				Name:  lang.NodeText(target, x.source),
				Value: x.text(value),
				Line:  line,
			})
		}
	}
	return out
}

// docstring returns the cleaned docstring of a module or block node: its first
// statement when that is a plain string literal.
func (x *extractor) docstring(body *sitter.Node) *string {
	stmts := lang.NamedChildren(body)
	if len(stmts) == 0 || stmts[0].Type() != "expression_statement" {
		return nil
	}
	exprs := lang.NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return nil
	}
	raw, ok := docText(exprs[0], x.source)
	if !ok {
		return nil
	}
	doc := cleanDoc(raw)
	if doc == "" {
		return nil
	}
	return &doc
}

// docText is plainString for docstrings: a str literal whose escapes cannot
// be decoded contributes its body as written instead of dropping the whole
// docstring.
func docText(node *sitter.Node, source []byte) (string, bool) {
	if s, ok := plainString(node, source); ok {
		return s, true
	}
	parts := []*sitter.Node{node}
	switch node.Type() {
	case "string":
	case "concatenated_string":
		parts = lang.NamedChildren(node)
	default:
		return "", false
	}
	var b strings.Builder
	for _, part := range parts {
		if part.Type() != "string" {
			return "", false
		}
		text := lang.NodeText(part, source)
		if lit, ok := decodeLiteral(text); ok {
			if lit.kind != strLiteral {
				return "", false
			}
			b.WriteString(lit.value)
			continue
		}
		body, kind, _, ok := splitLiteral(text)
		if !ok || kind != strLiteral {
			return "", false
		}
		b.WriteString(body)
	}
	return b.String(), true
}
