// Package visibility decides which declarations belong to a module's public
// surface.
package visibility

import "strings"

// documentedDunders is the closed set of dunder methods worth documenting.
var documentedDunders = map[string]struct{}{
	"__init__":          {},
	"__call__":          {},
	"__enter__":         {},
	"__exit__":          {},
	"__aenter__":        {},
	"__aexit__":         {},
	"__getitem__":       {},
	"__setitem__":       {},
	"__delitem__":       {},
	"__len__":           {},
	"__iter__":          {},
	"__next__":          {},
	"__aiter__":         {},
	"__anext__":         {},
	"__contains__":      {},
	"__eq__":            {},
	"__ne__":            {},
	"__lt__":            {},
	"__le__":            {},
	"__gt__":            {},
	"__ge__":            {},
	"__hash__":          {},
	"__repr__":          {},
	"__str__":           {},
	"__bool__":          {},
	"__add__":           {},
	"__sub__":           {},
	"__mul__":           {},
	"__truediv__":       {},
	"__floordiv__":      {},
	"__mod__":           {},
	"__pow__":           {},
	"__and__":           {},
	"__or__":            {},
	"__xor__":           {},
	"__invert__":        {},
	"__neg__":           {},
	"__pos__":           {},
	"__abs__":           {},
	"__int__":           {},
	"__float__":         {},
	"__complex__":       {},
	"__index__":         {},
	"__await__":         {},
	"__get__":           {},
	"__set__":           {},
	"__delete__":        {},
	"__init_subclass__": {},
	"__class_getitem__": {},
	"__missing__":       {},
	"__format__":        {},
	"__sizeof__":        {},
	"__reduce__":        {},
	"__copy__":          {},
	"__deepcopy__":      {},
	"__fspath__":        {},
}

// IsDunder reports whether name starts and ends with a double underscore.
func IsDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// IsPublic reports whether name is part of the public surface. Dunders are
// public only as methods, and only when documented; other names are public
// unless they start with an underscore.
func IsPublic(name string, isMethod bool) bool {
	if IsDunder(name) {
		if !isMethod {
			return false
		}
		_, ok := documentedDunders[name]
		return ok
	}
	return !strings.HasPrefix(name, "_")
}

// ModuleFilter returns the visibility predicate for a module's top-level
// classes, functions and variables. An explicit export list replaces the
// underscore rule entirely.
func ModuleFilter(exports []string, hasExports bool) func(name string) bool {
	if !hasExports {
		return func(name string) bool {
			return IsPublic(name, false)
		}
	}
	set := make(map[string]struct{}, len(exports))
	for _, e := range exports {
		set[e] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}
