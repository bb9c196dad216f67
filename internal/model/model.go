// Package model defines the declaration records produced by inspecting Python
// source. Records are built once by the inspector and treated as read-only.
package model

// ParamKind is the binding kind of a function parameter.
type ParamKind string

const (
	PositionalOnly      ParamKind = "POSITIONAL_ONLY"
	PositionalOrKeyword ParamKind = "POSITIONAL_OR_KEYWORD"
	VarPositional       ParamKind = "VAR_POSITIONAL"
	KeywordOnly         ParamKind = "KEYWORD_ONLY"
	VarKeyword          ParamKind = "VAR_KEYWORD"
)

// Parameter is a single function or method parameter. Name is the bare
// identifier; variadic parameters carry their stars in Kind, not in Name.
type Parameter struct {
	Name       string
	Annotation *string
	Default    *string
	Kind       ParamKind
}

// Function is a function or method definition.
type Function struct {
	Name             string
	QualName         string
	Parameters       []Parameter
	ReturnAnnotation *string
	Docstring        *string
	Decorators       []string
	IsAsync          bool
	IsProperty       bool
	IsClassMethod    bool
	IsStaticMethod   bool
	Line             int
}

// Variable is a module-level or class-level assignment to a plain name.
type Variable struct {
	Name       string
	Annotation *string
	Value      *string
	Line       int
}

// Class is a class definition with its direct members.
type Class struct {
	Name           string
	QualName       string
	Bases          []string
	Docstring      *string
	Methods        []Function
	ClassVariables []Variable
	Decorators     []string
	InnerClasses   []Class
	Line           int
}

// Module is one Python source file.
//
// HasExports distinguishes a module without __all__ (no restriction) from one
// that declares an empty __all__.
type Module struct {
	Name       string
	Path       string
	Docstring  *string
	Classes    []Class
	Functions  []Function
	Variables  []Variable
	Exports    []string
	HasExports bool
	Submodules []string
}

// IsEmpty reports whether the module has nothing worth rendering.
func (m *Module) IsEmpty() bool {
	return len(m.Classes) == 0 && len(m.Functions) == 0 && len(m.Variables) == 0 && m.Docstring == nil
}

// Package is a complete analyzed Python package, ready for rendering.
type Package struct {
	Name    string
	Version *string
	Summary *string
	Readme  *string
	Modules []Module
}

// NonEmptyModules returns the modules that have content, in package order.
func (p *Package) NonEmptyModules() []Module {
	var out []Module
	for i := range p.Modules {
		if !p.Modules[i].IsEmpty() {
			out = append(out, p.Modules[i])
		}
	}
	return out
}

// Str returns a pointer to s. It is a convenience for building optional fields.
func Str(s string) *string {
	return &s
}
