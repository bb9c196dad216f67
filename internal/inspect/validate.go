package inspect

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/libctx/internal/lang"
)

// invalidNode returns the first node that tree-sitter accepts but Python 3
// rejects, or nil. The grammar still carries Python 2 print and exec
// statements and does not check the order of parameters.
func invalidNode(node *sitter.Node) *sitter.Node {
	switch node.Type() {
	case "print_statement":
		// "print >>f, x" is a valid tuple expression in Python 3.
		if !hasChild(node, "chevron") {
			return node
		}
	case "exec_statement":
		return node
	case "parameters", "lambda_parameters":
		if bad := misplacedParameter(node); bad != nil {
			return bad
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if bad := invalidNode(node.NamedChild(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func hasChild(node *sitter.Node, typ string) bool {
	for _, child := range lang.NamedChildren(node) {
		if child.Type() == typ {
			return true
		}
	}
	return false
}

type paramSlot int

const (
	slotNone paramSlot = iota
	slotPlain
	slotDefault
	slotSlash
	slotStar
	slotArgs
	slotKwargs
	slotTuple
)

func parameterSlot(node *sitter.Node) paramSlot {
	switch node.Type() {
	case "identifier":
		return slotPlain
	case "default_parameter", "typed_default_parameter":
		return slotDefault
	case "positional_separator", "/":
		return slotSlash
	case "keyword_separator", "*":
		return slotStar
	case "list_splat_pattern":
		return slotArgs
	case "dictionary_splat_pattern":
		return slotKwargs
	case "tuple_pattern":
		return slotTuple
	case "typed_parameter":
		for _, inner := range lang.NamedChildren(node) {
			switch inner.Type() {
			case "list_splat_pattern":
				return slotArgs
			case "dictionary_splat_pattern":
				return slotKwargs
			case "identifier":
				return slotPlain
			}
		}
		return slotPlain
	}
	return slotNone
}

// misplacedParameter returns the first parameter of a parameter list that
// breaks Python's ordering rules, or nil. Positional parameters without a
// default may not follow one with a default, nothing may follow **kwargs,
// "*" and *args appear at most once, "/" needs a parameter before it and
// must precede the star, and a bare "*" must be followed by a keyword-only
// parameter.
func misplacedParameter(params *sitter.Node) *sitter.Node {
	var (
		named, defaulted, slash, star, kwargs bool
		bareStar                              *sitter.Node
	)
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		slot := parameterSlot(child)
		if slot == slotNone {
			continue
		}
		if kwargs || slot == slotTuple {
			return child
		}
		switch slot {
		case slotPlain:
			if defaulted && !star {
				return child
			}
			named = true
			bareStar = nil
		case slotDefault:
			if !star {
				defaulted = true
			}
			named = true
			bareStar = nil
		case slotSlash:
			if slash || star || !named {
				return child
			}
			slash = true
		case slotStar, slotArgs:
			if star {
				return child
			}
			star = true
			if slot == slotStar {
				bareStar = child
			}
		case slotKwargs:
			if bareStar != nil {
				return bareStar
			}
			kwargs = true
		}
	}
	return bareStar
}
