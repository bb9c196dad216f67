package collect

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPython is the interpreter consulted for search paths.
const DefaultPython = "python3"

const searchPathTimeout = 10 * time.Second

// pathScript prints the interpreter's module search path, one entry per line.
// It imports nothing beyond sys.
const pathScript = "import sys\nfor p in sys.path:\n    print(p)"

// DefaultSearchPaths returns the directories searched for installed packages:
// PYTHONPATH entries first, then the interpreter's own sys.path.
func DefaultSearchPaths(ctx context.Context, python string) ([]string, error) {
	if python == "" {
		python = DefaultPython
	}

	var paths []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, p := range filepath.SplitList(os.Getenv("PYTHONPATH")) {
		add(p)
	}

	ctx, cancel := context.WithTimeout(ctx, searchPathTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, python, "-c", pathScript)
	out, err := cmd.Output()
	if err != nil {
		return paths, fmt.Errorf("querying %s for sys.path: %w", python, err)
	}
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		add(strings.TrimSpace(line))
	}
	return paths, nil
}
