// Package render turns an analyzed package into a Markdown API reference
// meant to be read by LLM coding assistants. Output is deterministic.
package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/phobologic/libctx/internal/config"
	"github.com/phobologic/libctx/internal/model"
	"github.com/phobologic/libctx/internal/visibility"
)

const (
	maxValueLen     = 80
	truncatedReadme = "*(README truncated)*"
)

// Options controls which sections are rendered.
type Options struct {
	IncludeReadme  bool
	MaxReadmeLines int
	ExtraContext   string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{IncludeReadme: true, MaxReadmeLines: config.DefaultMaxReadmeLines}
}

// Package renders pkg as a Markdown document.
func Package(pkg *model.Package, opts Options) string {
	var lines []string

	version := ""
	if pkg.Version != nil && *pkg.Version != "" {
		version = " v" + *pkg.Version
	}
	lines = append(lines, fmt.Sprintf("# %s%s — API Reference", pkg.Name, version), "")

	if pkg.Summary != nil && *pkg.Summary != "" {
		lines = append(lines, "> "+*pkg.Summary, "")
	}

	if opts.IncludeReadme && pkg.Readme != nil && strings.TrimSpace(*pkg.Readme) != "" {
		lines = append(lines, "## Overview", "")
		lines = append(lines, readmeLines(*pkg.Readme, opts.MaxReadmeLines)...)
		lines = append(lines, "")
	}

	if extra := strings.TrimSpace(opts.ExtraContext); extra != "" {
		lines = append(lines, "## Notes", "", extra, "")
	}

	modules := pkg.NonEmptyModules()
	if len(modules) > 0 {
		lines = append(lines, "## API Reference", "")
		for i := range modules {
			lines = append(lines, Module(&modules[i]), "", "---", "")
		}
	}

	return strings.Join(lines, "\n")
}

func readmeLines(readme string, limit int) []string {
	if limit <= 0 {
		limit = config.DefaultMaxReadmeLines
	}
	lines := strings.Split(strings.TrimSpace(readme), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if len(lines) > limit {
		lines = append(lines[:limit:limit], "", truncatedReadme)
	}
	return lines
}

// Module renders one module section.
func Module(mod *model.Module) string {
	lines := []string{fmt.Sprintf("### `%s`", mod.Name)}

	if doc := FirstParagraph(mod.Docstring); doc != "" {
		lines = append(lines, "", doc)
	}

	if len(mod.Submodules) > 0 {
		names := make([]string, len(mod.Submodules))
		for i, s := range mod.Submodules {
			names[i] = "`" + s + "`"
		}
		lines = append(lines, "", "**Submodules:** "+strings.Join(names, ", "))
	}

	public := visibility.ModuleFilter(mod.Exports, mod.HasExports)

	for i := range mod.Classes {
		if public(mod.Classes[i].Name) {
			lines = append(lines, "", Class(&mod.Classes[i]))
		}
	}

	var functions []string
	for i := range mod.Functions {
		if public(mod.Functions[i].Name) {
			functions = append(functions, "", function(&mod.Functions[i], false))
		}
	}
	if len(functions) > 0 {
		lines = append(lines, "", "**Functions:**")
		lines = append(lines, functions...)
	}

	var constants, variables []string
	for i := range mod.Variables {
		v := &mod.Variables[i]
		if !public(v.Name) {
			continue
		}
		if IsConstantName(v.Name) {
			constants = append(constants, variable(v))
		} else {
			variables = append(variables, variable(v))
		}
	}
	if len(constants) > 0 {
		lines = append(lines, "", "**Constants:**")
		lines = append(lines, constants...)
	}
	if len(variables) > 0 {
		lines = append(lines, "", "**Module Variables:**")
		lines = append(lines, variables...)
	}

	return strings.Join(lines, "\n")
}

// Class renders a class section, including nested public classes.
// Members always use the underscore rule; a module's export list does not
// reach inside classes.
func Class(cls *model.Class) string {
	var header strings.Builder
	header.WriteString("#### ")
	for _, d := range cls.Decorators {
		fmt.Fprintf(&header, "`@%s` ", d)
	}
	header.WriteString("`class " + cls.Name)
	if len(cls.Bases) > 0 {
		header.WriteString("(" + strings.Join(cls.Bases, ", ") + ")")
	}
	header.WriteString("`")

	lines := []string{header.String()}

	if doc := FirstParagraph(cls.Docstring); doc != "" {
		lines = append(lines, "", doc)
	}

	var attrs []string
	for i := range cls.ClassVariables {
		if visibility.IsPublic(cls.ClassVariables[i].Name, false) {
			attrs = append(attrs, variable(&cls.ClassVariables[i]))
		}
	}
	if len(attrs) > 0 {
		lines = append(lines, "", "**Attributes:**")
		lines = append(lines, attrs...)
	}

	var methods []string
	for i := range cls.Methods {
		if visibility.IsPublic(cls.Methods[i].Name, true) {
			methods = append(methods, function(&cls.Methods[i], true))
		}
	}
	if len(methods) > 0 {
		lines = append(lines, "", "**Methods:**")
		lines = append(lines, methods...)
	}

	for i := range cls.InnerClasses {
		if visibility.IsPublic(cls.InnerClasses[i].Name, false) {
			lines = append(lines, "", Class(&cls.InnerClasses[i]))
		}
	}

	return strings.Join(lines, "\n")
}

func isBuiltinDecorator(d string) bool {
	return d == "property" || d == "classmethod" || d == "staticmethod"
}

func function(fn *model.Function, inClass bool) string {
	var lines []string
	for _, d := range fn.Decorators {
		if !isBuiltinDecorator(d) {
			lines = append(lines, fmt.Sprintf("- `@%s`", d))
		}
	}
	lines = append(lines, fmt.Sprintf("- `%s`", Signature(fn, inClass)))
	if doc := FirstParagraph(fn.Docstring); doc != "" {
		lines = append(lines, "  "+doc)
	}
	return strings.Join(lines, "\n")
}

func variable(v *model.Variable) string {
	var b strings.Builder
	b.WriteString("- `" + v.Name)
	if v.Annotation != nil {
		b.WriteString(": " + *v.Annotation)
	}
	if v.Value != nil {
		b.WriteString(" = " + truncate(*v.Value, maxValueLen))
	}
	b.WriteString("`")
	return b.String()
}

func truncate(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit-3]) + "..."
}

// IsConstantName reports whether every cased character of name is upper
// case. Names without cased characters are not constants.
func IsConstantName(name string) bool {
	cased := false
	for _, r := range name {
		switch {
		case unicode.IsLower(r) || unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// FirstParagraph joins the leading non-blank lines of doc with single
// spaces. It returns "" for an absent or blank docstring.
func FirstParagraph(doc *string) string {
	if doc == nil {
		return ""
	}
	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(*doc), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
