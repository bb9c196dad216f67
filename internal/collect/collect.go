// Package collect gathers everything needed to render one Python package:
// its modules, metadata, README and configuration.
package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/libctx/internal/config"
	"github.com/phobologic/libctx/internal/discover"
	"github.com/phobologic/libctx/internal/inspect"
	"github.com/phobologic/libctx/internal/model"
)

// ErrPackageNotFound is returned when a target is neither an existing path
// nor an importable package on the search paths.
var ErrPackageNotFound = errors.New("package not found")

// Collector resolves and analyzes packages. The zero value collects local
// paths with automatic configuration discovery and no README.
type Collector struct {
	// Config, when set, replaces configuration discovery. It is copied
	// before use and never modified.
	Config *config.Config
	// IncludePrivate widens discovery to underscore-prefixed paths
	// regardless of configuration.
	IncludePrivate bool
	IncludeReadme  bool
	SearchPaths    []string
	Logger         logrus.FieldLogger

	fallbackOnce sync.Once
	fallback     *logrus.Logger
}

// Result is a collected package along with the configuration applied to it.
type Result struct {
	Package *model.Package
	Config  config.Config
	Path    string
}

// log returns Logger, or a warn-level stderr logger built on first use when
// Logger is nil.
func (c *Collector) log() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	c.fallbackOnce.Do(func() {
		c.fallback = logrus.New()
		c.fallback.SetOutput(os.Stderr)
		c.fallback.SetLevel(logrus.WarnLevel)
	})
	return c.fallback
}

// Collect analyzes target, which is either a filesystem path (a package
// directory or a single module file) or an importable dotted name.
func (c *Collector) Collect(target string) (*Result, error) {
	log := c.log().WithField("package", target)

	var (
		pkgPath string
		pkgName string
		meta    Metadata
	)
	if info, err := os.Stat(target); err == nil {
		pkgPath, err = filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", target, err)
		}
		pkgName = filepath.Base(pkgPath)
		if !info.IsDir() {
			pkgName = strings.TrimSuffix(pkgName, filepath.Ext(pkgName))
		}
		meta = ProjectMetadata(pkgPath, log)
		log.Debugf("resolved as local path: %s", pkgPath)
	} else {
		found, ok := FindPackage(target, c.SearchPaths)
		if !ok {
			return nil, fmt.Errorf("%w: %q (make sure it is installed in the current environment)", ErrPackageNotFound, target)
		}
		pkgPath = found
		pkgName = target
		meta = DistMetadata(target, c.SearchPaths, log)
		log.Debugf("resolved as installed package: %s", pkgPath)
	}

	var cfg config.Config
	if c.Config != nil {
		cfg = c.Config.Clone()
	} else {
		found, err := config.FindForPackage(pkgPath, log)
		if err != nil {
			return nil, err
		}
		cfg = found
	}
	if c.IncludePrivate {
		cfg.IncludePrivate = true
	}

	modules, err := c.walk(pkgPath, pkgName, cfg, log)
	if err != nil {
		return nil, err
	}

	pkg := &model.Package{
		Name:    pkgName,
		Version: meta.Version,
		Summary: meta.Summary,
		Modules: modules,
	}
	if c.IncludeReadme {
		pkg.Readme = FindReadme(meta, pkgPath, log)
	}

	log.Debugf("collected %d modules", len(modules))
	return &Result{Package: pkg, Config: cfg, Path: pkgPath}, nil
}

// walk inspects every discovered module that passes the configured filters.
// Modules that fail to read or parse are logged and skipped.
func (c *Collector) walk(pkgPath, pkgName string, cfg config.Config, log logrus.FieldLogger) ([]model.Module, error) {
	entries, err := discover.Modules(pkgPath, pkgName, cfg.IncludePrivate)
	if err != nil {
		return nil, fmt.Errorf("discovering modules: %w", err)
	}

	base := pkgPath
	if info, err := os.Stat(pkgPath); err == nil && !info.IsDir() {
		base = filepath.Dir(pkgPath)
	}

	in := inspect.New()
	var modules []model.Module
	for _, e := range entries {
		if !cfg.Allows(e.Module, pkgName) {
			log.Debugf("skipping filtered module %s", e.Module)
			continue
		}
		path := filepath.Join(base, e.Path)
		mod, err := in.File(path, e.Module)
		if err != nil {
			logSkip(log, path, err)
			continue
		}
		if filepath.Base(e.Path) == "__init__.py" {
			mod.Submodules = []string{}
		}
		modules = append(modules, *mod)
	}

	linkSubmodules(modules)
	return modules, nil
}

func logSkip(log logrus.FieldLogger, path string, err error) {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, inspect.ErrSyntax):
		log.WithError(err).Warnf("syntax error in %s", path)
	case errors.Is(err, inspect.ErrEncoding):
		log.WithError(err).Warnf("encoding error in %s", path)
	case errors.As(err, &pathErr):
		log.WithError(err).Warnf("cannot read %s", path)
	default:
		log.WithError(err).Warnf("skipping %s", path)
	}
}

// linkSubmodules fills the Submodules list of every package module with the
// direct children present in modules. Only modules collected from an
// __init__.py carry a non-nil list.
func linkSubmodules(modules []model.Module) {
	index := make(map[string]int, len(modules))
	for i := range modules {
		if modules[i].Submodules != nil {
			index[modules[i].Name] = i
		}
	}
	for _, m := range modules {
		dot := strings.LastIndexByte(m.Name, '.')
		if dot < 0 {
			continue
		}
		if i, ok := index[m.Name[:dot]]; ok {
			modules[i].Submodules = append(modules[i].Submodules, m.Name)
		}
	}
	for i := range modules {
		sort.Strings(modules[i].Submodules)
	}
}
