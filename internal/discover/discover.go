// Package discover finds the Python modules that make up a package.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/libctx/internal/lang"
)

// Entry is one discovered module.
type Entry struct {
	Path   string // Relative to the package root
	Module string // Dotted module name
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	"site-packages": {},
	"venv":          {},
}

const initFile = "__init__.py"

// Modules lists the Python modules under root, a package directory or a
// single-file module, sorted by path. Hidden paths and caches are skipped, as
// are paths matched by a .gitignore at root. Unless includePrivate is set,
// any path component starting with an underscore other than __init__.py is
// skipped too.
func Modules(root, packageName string, includePrivate bool) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []Entry{{Path: filepath.Base(root), Module: packageName}}, nil
	}

	gi := loadGitignore(root)
	var results []Entry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || skipName(name, includePrivate) || isMetadataDir(name) {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !lang.IsSource(filepath.Ext(name)) || skipName(name, includePrivate) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		results = append(results, Entry{Path: rel, Module: ModuleName(rel, packageName)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return lessPath(results[i].Path, results[j].Path)
	})

	return results, nil
}

func skipName(name string, includePrivate bool) bool {
	if name == initFile {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return !includePrivate && strings.HasPrefix(name, "_")
}

func isMetadataDir(name string) bool {
	return strings.HasSuffix(name, ".egg-info") || strings.HasSuffix(name, ".dist-info")
}

// lessPath orders paths component by component, so a directory's contents
// sort together regardless of separator ordering.
func lessPath(a, b string) bool {
	pa := strings.Split(filepath.ToSlash(a), "/")
	pb := strings.Split(filepath.ToSlash(b), "/")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

// ModuleName maps a path relative to the package root to a dotted module
// name: a/b.py becomes pkg.a.b and a/__init__.py becomes pkg.a.
func ModuleName(rel, packageName string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := parts[len(parts)-1]
	if last == initFile {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = strings.TrimSuffix(last, filepath.Ext(last))
	}
	if len(parts) == 0 {
		return packageName
	}
	return packageName + "." + strings.Join(parts, ".")
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
