package inspect

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/libctx/internal/lang"
)

const exportsName = "__all__"

// findExports collects the module's __all__ declarations in source order.
// A plain assignment replaces the running list and += extends it; entries
// that are not string literals are ignored. ok is false when the module never
// assigns __all__ a list or tuple.
func findExports(root *sitter.Node, source []byte) (exports []string, ok bool) {
	for _, stmt := range lang.NamedChildren(root) {
		if stmt.Type() != "expression_statement" {
			continue
		}
		for _, expr := range lang.NamedChildren(stmt) {
			switch expr.Type() {
			case "assignment":
				value, targets := assignmentTargets(expr)
				if value == nil || !isSequence(value) {
					continue
				}
				for _, target := range targets {
					if target.Type() == "identifier" && lang.NodeText(target, source) == exportsName {
						exports = stringEntries(value, source)
						ok = true
						break
					}
				}
			case "augmented_assignment":
				left := expr.ChildByFieldName("left")
				op := expr.ChildByFieldName("operator")
				right := expr.ChildByFieldName("right")
				if left == nil || op == nil || right == nil {
					continue
				}
				if left.Type() != "identifier" || lang.NodeText(left, source) != exportsName {
					continue
				}
				if lang.NodeText(op, source) != "+=" || !isSequence(right) {
					continue
				}
				exports = append(exports, stringEntries(right, source)...)
				ok = true
			}
		}
	}
	if ok && exports == nil {
		exports = []string{}
	}
	return exports, ok
}

// assignmentTargets unwinds a chained assignment (a = b = value) into its
// name targets and the final value. Annotated assignments have no targets.
func assignmentTargets(node *sitter.Node) (value *sitter.Node, targets []*sitter.Node) {
	for node != nil && node.Type() == "assignment" {
		if node.ChildByFieldName("type") != nil {
			return nil, nil
		}
		left := node.ChildByFieldName("left")
		if left != nil {
			targets = append(targets, left)
		}
		right := node.ChildByFieldName("right")
		if right == nil || right.Type() != "assignment" {
			return right, targets
		}
		node = right
	}
	return nil, targets
}

func isSequence(node *sitter.Node) bool {
	switch node.Type() {
	case "list", "tuple", "expression_list":
		return true
	}
	return false
}

func stringEntries(seq *sitter.Node, source []byte) []string {
	var out []string
	for _, elt := range lang.NamedChildren(seq) {
		if s, ok := plainString(elt, source); ok {
			out = append(out, s)
		}
	}
	return out
}

// plainString returns the value of a str literal node (or an implicit
// concatenation of str literals). f-strings and bytes are not plain strings.
func plainString(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "string":
		lit, ok := decodeLiteral(lang.NodeText(node, source))
		if !ok || lit.kind != strLiteral {
			return "", false
		}
		return lit.value, true
	case "concatenated_string":
		p := &printer{source: source}
		s, kind, ok := p.folded(node)
		if !ok || kind != strLiteral {
			return "", false
		}
		return s, true
	}
	return "", false
}
