// Package lang wires the tree-sitter Python grammar and provides small helpers
// shared by code that walks Python syntax trees.
package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Extensions lists the file extensions treated as Python source.
var Extensions = []string{".py"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Python returns the tree-sitter Python language.
func Python() *sitter.Language {
	return python.GetLanguage()
}

// NewParser creates a fresh tree-sitter parser for Python.
// Parsers are not thread-safe; each goroutine must use its own.
func NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(Python())
	return p
}

// IsSource reports whether ext is a Python source extension.
func IsSource(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NamedChildren returns the named children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// FirstError returns the first ERROR or missing node under node in document
// order, or nil when the tree is clean.
func FirstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := FirstError(node.Child(i)); found != nil {
			return found
		}
	}
	return node
}
