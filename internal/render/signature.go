package render

import (
	"strings"

	"github.com/phobologic/libctx/internal/model"
)

// Signature formats fn as "[async ]def name(params) -> ret". Inside a class
// the implicit self and cls parameters are hidden; the "/" and "*"
// separators are placed from parameter kinds.
func Signature(fn *model.Function, inClass bool) string {
	params := fn.Parameters
	if inClass {
		params = make([]model.Parameter, 0, len(fn.Parameters))
		for _, p := range fn.Parameters {
			if p.Name == "self" || p.Name == "cls" {
				continue
			}
			params = append(params, p)
		}
	}

	var parts []string
	var prev model.ParamKind
	for _, p := range params {
		if prev == model.PositionalOnly && p.Kind != model.PositionalOnly {
			parts = append(parts, "/")
		}
		if p.Kind == model.KeywordOnly && prev != model.VarPositional && prev != model.KeywordOnly {
			parts = append(parts, "*")
		}
		parts = append(parts, Param(p))
		prev = p.Kind
	}
	if prev == model.PositionalOnly {
		parts = append(parts, "/")
	}

	prefix := "def "
	if fn.IsAsync {
		prefix = "async def "
	}
	sig := prefix + fn.Name + "(" + strings.Join(parts, ", ") + ")"
	if fn.ReturnAnnotation != nil {
		sig += " -> " + *fn.ReturnAnnotation
	}
	return sig
}

// Param formats one parameter as "name[: annotation][ = default]", with the
// star prefixes of variadic parameters.
func Param(p model.Parameter) string {
	var b strings.Builder
	switch p.Kind {
	case model.VarPositional:
		b.WriteString("*")
	case model.VarKeyword:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Annotation != nil {
		b.WriteString(": " + *p.Annotation)
	}
	if p.Default != nil {
		b.WriteString(" = " + *p.Default)
	}
	return b.String()
}
