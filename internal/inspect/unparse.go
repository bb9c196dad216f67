package inspect

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/libctx/internal/lang"
)

// printer renders expression nodes back to Python source in one canonical
// style: strings use repr quoting, numbers keep their source spelling, and
// operators and separators are spaced the same way everywhere. Node types it
// does not know make the whole rendering fail.
type printer struct {
	source []byte
}

// text renders an optional expression node, returning nil when the node is
// absent or cannot be rendered.
func (p *printer) text(node *sitter.Node) *string {
	if node == nil {
		return nil
	}
	s, ok := p.expr(node)
	if !ok {
		return nil
	}
	return &s
}

// textOrSource renders node canonically and falls back to its collapsed
// source text. Used where a value must always be present (decorators, bases).
func (p *printer) textOrSource(node *sitter.Node) string {
	if s, ok := p.expr(node); ok {
		return s
	}
	return lang.CollapseWhitespace(lang.NodeText(node, p.source))
}

func (p *printer) expr(node *sitter.Node) (string, bool) {
	switch node.Type() {
	case "identifier", "integer", "float", "keyword_identifier":
		return lang.NodeText(node, p.source), true
	case "true":
		return "True", true
	case "false":
		return "False", true
	case "none":
		return "None", true
	case "ellipsis":
		return "...", true
	case "string":
		return p.str(node)
	case "concatenated_string":
		return p.concatenated(node)
	case "type":
		children := lang.NamedChildren(node)
		if len(children) != 1 {
			return "", false
		}
		return p.expr(children[0])
	case "attribute":
		obj, ok := p.field(node, "object")
		if !ok {
			return "", false
		}
		attr, ok := p.field(node, "attribute")
		if !ok {
			return "", false
		}
		return obj + "." + attr, true
	case "subscript":
		return p.subscript(node)
	case "slice":
		return p.slice(node)
	case "call":
		fn, ok := p.field(node, "function")
		if !ok {
			return "", false
		}
		args := node.ChildByFieldName("arguments")
		if args == nil {
			return "", false
		}
		if args.Type() == "generator_expression" {
			inner, ok := p.comprehension(args, "(", ")")
			return fn + inner, ok
		}
		items, ok := p.list(args)
		if !ok {
			return "", false
		}
		return fn + "(" + items + ")", true
	case "keyword_argument":
		name, ok := p.field(node, "name")
		if !ok {
			return "", false
		}
		value, ok := p.field(node, "value")
		if !ok {
			return "", false
		}
		return name + "=" + value, true
	case "list_splat", "list_splat_pattern", "parenthesized_list_splat":
		return p.prefixed(node, "*")
	case "dictionary_splat", "dictionary_splat_pattern":
		return p.prefixed(node, "**")
	case "list", "list_pattern":
		items, ok := p.list(node)
		return "[" + items + "]", ok
	case "set":
		items, ok := p.list(node)
		return "{" + items + "}", ok
	case "tuple", "tuple_pattern", "expression_list":
		return p.tuple(node)
	case "pattern_list":
		return p.list(node)
	case "dictionary":
		items, ok := p.list(node)
		return "{" + items + "}", ok
	case "pair":
		key, ok := p.field(node, "key")
		if !ok {
			return "", false
		}
		value, ok := p.field(node, "value")
		if !ok {
			return "", false
		}
		return key + ": " + value, true
	case "parenthesized_expression":
		children := lang.NamedChildren(node)
		if len(children) != 1 {
			return "", false
		}
		inner, ok := p.expr(children[0])
		return "(" + inner + ")", ok
	case "binary_operator", "boolean_operator":
		left, ok := p.field(node, "left")
		if !ok {
			return "", false
		}
		right, ok := p.field(node, "right")
		if !ok {
			return "", false
		}
		op := node.ChildByFieldName("operator")
		if op == nil {
			return "", false
		}
		return left + " " + lang.NodeText(op, p.source) + " " + right, true
	case "unary_operator":
		op := node.ChildByFieldName("operator")
		arg, ok := p.field(node, "argument")
		if op == nil || !ok {
			return "", false
		}
		return lang.NodeText(op, p.source) + arg, true
	case "not_operator":
		arg, ok := p.field(node, "argument")
		return "not " + arg, ok
	case "await":
		return p.prefixed(node, "await ")
	case "comparison_operator":
		return p.spaced(node)
	case "conditional_expression":
		children := lang.NamedChildren(node)
		if len(children) != 3 {
			return "", false
		}
		parts, ok := p.all(children)
		if !ok {
			return "", false
		}
		return parts[0] + " if " + parts[1] + " else " + parts[2], true
	case "named_expression":
		name, ok := p.field(node, "name")
		if !ok {
			return "", false
		}
		value, ok := p.field(node, "value")
		if !ok {
			return "", false
		}
		return name + " := " + value, true
	case "lambda":
		return p.lambda(node)
	case "list_comprehension":
		return p.comprehension(node, "[", "]")
	case "set_comprehension", "dictionary_comprehension":
		return p.comprehension(node, "{", "}")
	case "generator_expression":
		return p.comprehension(node, "(", ")")
	case "generic_type":
		children := lang.NamedChildren(node)
		if len(children) != 2 {
			return "", false
		}
		name, ok := p.expr(children[0])
		if !ok {
			return "", false
		}
		params, ok := p.list(children[1])
		return name + "[" + params + "]", ok
	case "union_type":
		children := lang.NamedChildren(node)
		parts, ok := p.all(children)
		return strings.Join(parts, " | "), ok && len(parts) == 2
	case "member_type":
		children := lang.NamedChildren(node)
		parts, ok := p.all(children)
		return strings.Join(parts, "."), ok && len(parts) == 2
	case "constrained_type":
		children := lang.NamedChildren(node)
		parts, ok := p.all(children)
		return strings.Join(parts, ": "), ok && len(parts) == 2
	case "splat_type":
		text := lang.NodeText(node, p.source)
		if strings.HasPrefix(text, "**") {
			return p.prefixed(node, "**")
		}
		return p.prefixed(node, "*")
	}
	return "", false
}

func (p *printer) field(node *sitter.Node, name string) (string, bool) {
	child := node.ChildByFieldName(name)
	if child == nil {
		return "", false
	}
	return p.expr(child)
}

func (p *printer) all(nodes []*sitter.Node) ([]string, bool) {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s, ok := p.expr(n)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// list renders the named children of node joined by ", ".
func (p *printer) list(node *sitter.Node) (string, bool) {
	parts, ok := p.all(lang.NamedChildren(node))
	if !ok {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

func (p *printer) tuple(node *sitter.Node) (string, bool) {
	parts, ok := p.all(lang.NamedChildren(node))
	if !ok {
		return "", false
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)", true
	}
	return "(" + strings.Join(parts, ", ") + ")", true
}

func (p *printer) prefixed(node *sitter.Node, prefix string) (string, bool) {
	children := lang.NamedChildren(node)
	if len(children) != 1 {
		return "", false
	}
	inner, ok := p.expr(children[0])
	return prefix + inner, ok
}

// spaced renders every child in order separated by single spaces. Operator
// tokens are emitted as written, so "not in" and "is not" survive either as
// one aliased token or as two.
func (p *printer) spaced(node *sitter.Node) (string, bool) {
	var parts []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "comment" {
			continue
		}
		if !child.IsNamed() {
			parts = append(parts, lang.CollapseWhitespace(lang.NodeText(child, p.source)))
			continue
		}
		s, ok := p.expr(child)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), true
}

func (p *printer) subscript(node *sitter.Node) (string, bool) {
	value, ok := p.field(node, "value")
	if !ok {
		return "", false
	}
	var subs []string
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) != "subscript" {
			continue
		}
		s, ok := p.expr(node.Child(i))
		if !ok {
			return "", false
		}
		subs = append(subs, s)
	}
	if len(subs) == 0 {
		return "", false
	}
	return value + "[" + strings.Join(subs, ", ") + "]", true
}

func (p *printer) slice(node *sitter.Node) (string, bool) {
	var b strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch {
		case child.Type() == "comment":
		case child.Type() == ":":
			b.WriteString(":")
		case child.IsNamed():
			s, ok := p.expr(child)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		default:
			return "", false
		}
	}
	return b.String(), true
}

func (p *printer) str(node *sitter.Node) (string, bool) {
	text := lang.NodeText(node, p.source)
	lit, ok := decodeLiteral(text)
	if !ok {
		return "", false
	}
	switch lit.kind {
	case bytesLiteral:
		return reprBytes(lit.value), true
	case formatLiteral:
		if strings.Contains(text, "\n") {
			return "", false
		}
		return text, true
	}
	return reprString(lit.value), true
}

// concatenated folds implicit string concatenation into one literal, like
// the Python compiler does. Mixed f-string concatenations are not rendered.
func (p *printer) concatenated(node *sitter.Node) (string, bool) {
	s, kind, ok := p.folded(node)
	if !ok {
		return "", false
	}
	if kind == bytesLiteral {
		return reprBytes(s), true
	}
	return reprString(s), true
}

func (p *printer) folded(node *sitter.Node) (string, literalKind, bool) {
	var b strings.Builder
	kind := literalKind(-1)
	for _, part := range lang.NamedChildren(node) {
		if part.Type() != "string" {
			return "", 0, false
		}
		lit, ok := decodeLiteral(lang.NodeText(part, p.source))
		if !ok || lit.kind == formatLiteral {
			return "", 0, false
		}
		if kind >= 0 && lit.kind != kind {
			return "", 0, false
		}
		kind = lit.kind
		b.WriteString(lit.value)
	}
	if kind < 0 {
		return "", 0, false
	}
	return b.String(), kind, true
}

func (p *printer) lambda(node *sitter.Node) (string, bool) {
	body, ok := p.field(node, "body")
	if !ok {
		return "", false
	}
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return "lambda: " + body, true
	}
	params, ok := extractParameters(paramsNode, p)
	if !ok {
		return "", false
	}
	return "lambda " + formatLambdaParams(params) + ": " + body, true
}

func (p *printer) comprehension(node *sitter.Node, opening, closing string) (string, bool) {
	var parts []string
	for _, child := range lang.NamedChildren(node) {
		switch child.Type() {
		case "for_in_clause":
			s, ok := p.forIn(child)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		case "if_clause":
			children := lang.NamedChildren(child)
			if len(children) != 1 {
				return "", false
			}
			cond, ok := p.expr(children[0])
			if !ok {
				return "", false
			}
			parts = append(parts, "if "+cond)
		default:
			s, ok := p.expr(child)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
	}
	if len(parts) < 2 {
		return "", false
	}
	return opening + strings.Join(parts, " ") + closing, true
}

func (p *printer) forIn(node *sitter.Node) (string, bool) {
	var left string
	var right []string
	async := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "async" {
			async = true
			continue
		}
		switch node.FieldNameForChild(i) {
		case "left":
			s, ok := p.expr(child)
			if !ok {
				return "", false
			}
			left = s
		case "right":
			s, ok := p.expr(child)
			if !ok {
				return "", false
			}
			right = append(right, s)
		}
	}
	if left == "" || len(right) == 0 {
		return "", false
	}
	prefix := "for "
	if async {
		prefix = "async for "
	}
	return prefix + left + " in " + strings.Join(right, ", "), true
}
