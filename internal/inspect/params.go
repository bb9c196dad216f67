package inspect

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/libctx/internal/lang"
	"github.com/phobologic/libctx/internal/model"
)

// extractParameters partitions a parameters (or lambda_parameters) node into
// model parameters in source order. A "/" marks every earlier parameter as
// positional-only; a bare "*" or a *args parameter makes every later named
// parameter keyword-only. The returned flag is false when some annotation or
// default could not be rendered (those fields are left absent).
func extractParameters(node *sitter.Node, p *printer) ([]model.Parameter, bool) {
	var params []model.Parameter
	complete := true
	keywordOnly := false

	render := func(n *sitter.Node) *string {
		if n == nil {
			return nil
		}
		s := p.text(n)
		if s == nil {
			complete = false
		}
		return s
	}

	add := func(name string, annotation, def *sitter.Node) {
		kind := model.PositionalOrKeyword
		if keywordOnly {
			kind = model.KeywordOnly
		}
		params = append(params, model.Parameter{
			Name:       name,
			Annotation: render(annotation),
			Default:    render(def),
			Kind:       kind,
		})
	}

	addVariadic := func(splat *sitter.Node, annotation *sitter.Node) {
		name := splatName(splat, p.source)
		kind := model.VarPositional
		if splat.Type() == "dictionary_splat_pattern" {
			kind = model.VarKeyword
		} else {
			keywordOnly = true
		}
		params = append(params, model.Parameter{
			Name:       name,
			Annotation: render(annotation),
			Kind:       kind,
		})
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "positional_separator", "/":
			for j := range params {
				if params[j].Kind == model.PositionalOrKeyword {
					params[j].Kind = model.PositionalOnly
				}
			}
		case "keyword_separator", "*":
			keywordOnly = true
		case "identifier":
			add(lang.NodeText(child, p.source), nil, nil)
		case "typed_parameter":
			annotation := child.ChildByFieldName("type")
			for _, inner := range lang.NamedChildren(child) {
				switch inner.Type() {
				case "identifier":
					add(lang.NodeText(inner, p.source), annotation, nil)
				case "list_splat_pattern", "dictionary_splat_pattern":
					addVariadic(inner, annotation)
				default:
					continue
				}
				break
			}
		case "default_parameter":
			name := child.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				complete = false
				continue
			}
			add(lang.NodeText(name, p.source), nil, child.ChildByFieldName("value"))
		case "typed_default_parameter":
			name := child.ChildByFieldName("name")
			if name == nil {
				complete = false
				continue
			}
			add(lang.NodeText(name, p.source), child.ChildByFieldName("type"), child.ChildByFieldName("value"))
		case "list_splat_pattern", "dictionary_splat_pattern":
			addVariadic(child, nil)
		case "tuple_pattern":
			complete = false
		}
	}

	return params, complete
}

func splatName(node *sitter.Node, source []byte) string {
	for _, child := range lang.NamedChildren(node) {
		if child.Type() == "identifier" {
			return lang.NodeText(child, source)
		}
	}
	return strings.TrimLeft(lang.NodeText(node, source), "*")
}

// formatLambdaParams renders lambda parameters the way Python prints them:
// no annotations, defaults without surrounding spaces.
func formatLambdaParams(params []model.Parameter) string {
	var parts []string
	var prev model.ParamKind
	for _, param := range params {
		if prev == model.PositionalOnly && param.Kind != model.PositionalOnly {
			parts = append(parts, "/")
		}
		if param.Kind == model.KeywordOnly && prev != model.VarPositional && prev != model.KeywordOnly {
			parts = append(parts, "*")
		}
		s := param.Name
		switch param.Kind {
		case model.VarPositional:
			s = "*" + s
		case model.VarKeyword:
			s = "**" + s
		}
		if param.Default != nil {
			s += "=" + *param.Default
		}
		parts = append(parts, s)
		prev = param.Kind
	}
	if prev == model.PositionalOnly {
		parts = append(parts, "/")
	}
	return strings.Join(parts, ", ")
}
