package collect

import (
	"os"
	"path/filepath"
	"strings"
)

// FindPackage locates an importable dotted name on the search paths without
// importing it. It returns the package directory for packages and the file
// for single-module distributions. Regular packages and modules on any path
// win over namespace directories, following the import system's precedence.
func FindPackage(name string, searchPaths []string) (string, bool) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return "", false
	}
	rel := filepath.Join(strings.Split(name, ".")...)

	namespace := ""
	for _, dir := range searchPaths {
		base := filepath.Join(dir, rel)
		if isFile(filepath.Join(base, "__init__.py")) {
			return base, true
		}
		if isFile(base + ".py") {
			return base + ".py", true
		}
		if namespace == "" && isDir(base) {
			namespace = base
		}
	}
	if namespace != "" {
		return namespace, true
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
