package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/libctx/internal/config"
	"github.com/phobologic/libctx/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func moduleNames(pkg *model.Package) []string {
	out := make([]string, len(pkg.Modules))
	for i, m := range pkg.Modules {
		out[i] = m.Name
	}
	return out
}

func findModule(t *testing.T, pkg *model.Package, name string) *model.Module {
	t.Helper()
	for i := range pkg.Modules {
		if pkg.Modules[i].Name == name {
			return &pkg.Modules[i]
		}
	}
	t.Fatalf("module %s not collected", name)
	return nil
}

// localProject lays out a src-layout project with a pyproject.toml.
func localProject(t *testing.T, tool string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "pyproject.toml", `[project]
name = "mypkg"
version = "0.3.1"
description = "Tools for things."
`+tool)
	writeFile(t, root, "README.md", "# mypkg\n\nHello.\n")
	writeFile(t, root, "src/mypkg/__init__.py", `"""Top level."""`+"\n\nfrom .core import run\n")
	writeFile(t, root, "src/mypkg/core.py", "def run(x: int) -> int:\n    return x\n")
	writeFile(t, root, "src/mypkg/_impl.py", "def hidden():\n    pass\n")
	writeFile(t, root, "src/mypkg/sub/__init__.py", "")
	writeFile(t, root, "src/mypkg/sub/models.py", "class User:\n    pass\n")
	writeFile(t, root, "src/mypkg/tests/test_core.py", "def test_run():\n    pass\n")
	return filepath.Join(root, "src", "mypkg")
}

func TestCollectLocalPackage(t *testing.T) {
	t.Parallel()
	pkgDir := localProject(t, "")
	log, _ := logtest.NewNullLogger()

	c := &Collector{IncludeReadme: true, Logger: log}
	res, err := c.Collect(pkgDir)
	require.NoError(t, err)

	pkg := res.Package
	assert.Equal(t, "mypkg", pkg.Name)
	require.NotNil(t, pkg.Version)
	assert.Equal(t, "0.3.1", *pkg.Version)
	require.NotNil(t, pkg.Summary)
	assert.Equal(t, "Tools for things.", *pkg.Summary)
	require.NotNil(t, pkg.Readme)
	assert.Contains(t, *pkg.Readme, "Hello.")

	assert.Equal(t, []string{"mypkg", "mypkg.core", "mypkg.sub", "mypkg.sub.models", "mypkg.tests.test_core"}, moduleNames(pkg))

	root := findModule(t, pkg, "mypkg")
	assert.Equal(t, []string{"mypkg.core", "mypkg.sub"}, root.Submodules)
	assert.Equal(t, []string{"mypkg.sub.models"}, findModule(t, pkg, "mypkg.sub").Submodules)
	assert.Nil(t, findModule(t, pkg, "mypkg.core").Submodules)

	core := findModule(t, pkg, "mypkg.core")
	require.Len(t, core.Functions, 1)
	assert.Equal(t, "run", core.Functions[0].Name)
}

func TestCollectConfigFromPyproject(t *testing.T) {
	t.Parallel()
	pkgDir := localProject(t, `
[tool.libcontext]
exclude_modules = ["mypkg.tests"]
include_private = true
extra_context = "Be nice."
`)
	log, _ := logtest.NewNullLogger()

	res, err := (&Collector{Logger: log}).Collect(pkgDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"mypkg", "mypkg._impl", "mypkg.core", "mypkg.sub", "mypkg.sub.models"}, moduleNames(res.Package))
	assert.Equal(t, "Be nice.", res.Config.ExtraContext)
	assert.Nil(t, res.Package.Readme)
}

func TestCollectIncludeModules(t *testing.T) {
	t.Parallel()
	pkgDir := localProject(t, "")
	log, _ := logtest.NewNullLogger()

	cfg := config.Default()
	cfg.IncludeModules = []string{"mypkg.sub"}
	res, err := (&Collector{Config: &cfg, Logger: log}).Collect(pkgDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"mypkg", "mypkg.sub", "mypkg.sub.models"}, moduleNames(res.Package))
}

func TestCollectDoesNotMutateConfig(t *testing.T) {
	t.Parallel()
	pkgDir := localProject(t, "")
	log, _ := logtest.NewNullLogger()

	cfg := config.Config{IncludeModules: []string{"mypkg.core"}, MaxReadmeLines: 7}
	before := cfg.Clone()

	c := &Collector{Config: &cfg, IncludePrivate: true, Logger: log}
	first, err := c.Collect(pkgDir)
	require.NoError(t, err)
	second, err := c.Collect(pkgDir)
	require.NoError(t, err)

	assert.Equal(t, before, cfg)
	assert.True(t, first.Config.IncludePrivate)
	assert.Equal(t, moduleNames(first.Package), moduleNames(second.Package))
}

func TestCollectSkipsBrokenModules(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "pkg/__init__.py", "")
	writeFile(t, root, "pkg/good.py", "def ok():\n    pass\n")
	writeFile(t, root, "pkg/bad.py", "def broken(:\n")
	writeFile(t, root, "pkg/latin.py", "x = '\xe9'\n")

	log, hook := logtest.NewNullLogger()
	res, err := (&Collector{Logger: log}).Collect(filepath.Join(root, "pkg"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg.good"}, moduleNames(res.Package))

	var warnings []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e.Message)
		}
	}
	require.Len(t, warnings, 2)
	assert.True(t, strings.HasPrefix(warnings[0], "syntax error in "))
	assert.True(t, strings.HasPrefix(warnings[1], "encoding error in "))
}

func TestCollectSingleFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "tool.py", `"""A tool."""`+"\n\nVERSION = '1'\n")
	log, _ := logtest.NewNullLogger()

	res, err := (&Collector{Logger: log}).Collect(filepath.Join(root, "tool.py"))
	require.NoError(t, err)
	assert.Equal(t, "tool", res.Package.Name)
	require.Len(t, res.Package.Modules, 1)
	assert.Equal(t, "tool", res.Package.Modules[0].Name)
}

func TestCollectInstalledPackage(t *testing.T) {
	t.Parallel()
	site := t.TempDir()
	writeFile(t, site, "fancylib/__init__.py", "def hello():\n    pass\n")
	writeFile(t, site, "fancylib-2.0.0.dist-info/METADATA", `Metadata-Version: 2.1
Name: fancylib
Version: 2.0.0
Summary: A fancy library.
Requires-Dist: requests

# fancylib

Long description here.
`)
	log, _ := logtest.NewNullLogger()

	c := &Collector{SearchPaths: []string{t.TempDir(), site}, IncludeReadme: true, Logger: log}
	res, err := c.Collect("fancylib")
	require.NoError(t, err)

	pkg := res.Package
	assert.Equal(t, "fancylib", pkg.Name)
	require.NotNil(t, pkg.Version)
	assert.Equal(t, "2.0.0", *pkg.Version)
	require.NotNil(t, pkg.Summary)
	assert.Equal(t, "A fancy library.", *pkg.Summary)
	require.NotNil(t, pkg.Readme)
	assert.Equal(t, "# fancylib\n\nLong description here.", *pkg.Readme)
	assert.Equal(t, filepath.Join(site, "fancylib"), res.Path)
}

func TestCollectNotFound(t *testing.T) {
	t.Parallel()
	log, _ := logtest.NewNullLogger()
	_, err := (&Collector{SearchPaths: []string{t.TempDir()}, Logger: log}).Collect("definitely_not_a_package_xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageNotFound))
}

func TestCollectConfigErrorIsFatal(t *testing.T) {
	t.Parallel()
	pkgDir := localProject(t, "\n[tool.libcontext]\nmax_readme_lines = \"lots\"\n")
	log, _ := logtest.NewNullLogger()
	_, err := (&Collector{Logger: log}).Collect(pkgDir)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestCollectorFallbackLogger(t *testing.T) {
	t.Parallel()
	c := &Collector{}
	first := c.log()
	assert.Same(t, first, c.log())

	l, ok := first.(*logrus.Logger)
	require.True(t, ok)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	log, _ := logtest.NewNullLogger()
	c.Logger = log
	assert.Same(t, log, c.log())
}

func TestFindPackage(t *testing.T) {
	t.Parallel()
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "ns/part.py", "")
	writeFile(t, second, "ns/__init__.py", "")
	writeFile(t, second, "single.py", "")
	writeFile(t, second, "deep/pkg/__init__.py", "")

	got, ok := FindPackage("ns", []string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "ns"), got)

	got, ok = FindPackage("single", []string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "single.py"), got)

	got, ok = FindPackage("deep.pkg", []string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "deep", "pkg"), got)

	got, ok = FindPackage("ns", []string{first})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "ns"), got)

	_, ok = FindPackage("missing", []string{first, second})
	assert.False(t, ok)
	_, ok = FindPackage(".relative", []string{first})
	assert.False(t, ok)
}

func TestParseMetadata(t *testing.T) {
	t.Parallel()
	meta, err := ParseMetadata(strings.NewReader("Metadata-Version: 2.1\nName: x\nVersion: 1.0\nSummary:  Short.  \n\nBody text\n"))
	require.NoError(t, err)
	require.NotNil(t, meta.Version)
	assert.Equal(t, "1.0", *meta.Version)
	require.NotNil(t, meta.Summary)
	assert.Equal(t, "Short.", *meta.Summary)
	require.NotNil(t, meta.Description)
	assert.Equal(t, "Body text", *meta.Description)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "my-package", NormalizeName("My.Package"))
	assert.Equal(t, "my-package", NormalizeName("my__package"))
	assert.Equal(t, NormalizeName("typing_extensions"), NormalizeName("typing-extensions"))
}

func TestFindReadmeSearchOrder(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "README.rst", "parent readme")
	writeFile(t, root, "pkg/README.txt", "package readme")
	log, _ := logtest.NewNullLogger()

	got := FindReadme(Metadata{}, filepath.Join(root, "pkg"), log)
	require.NotNil(t, got)
	assert.Equal(t, "package readme", *got)

	desc := "from metadata"
	got = FindReadme(Metadata{Description: &desc}, filepath.Join(root, "pkg"), log)
	require.NotNil(t, got)
	assert.Equal(t, "from metadata", *got)

	assert.Nil(t, FindReadme(Metadata{}, filepath.Join(t.TempDir(), "a", "b", "c"), log))
}

func TestDefaultSearchPathsBadInterpreter(t *testing.T) {
	extra := t.TempDir()
	t.Setenv("PYTHONPATH", extra)

	paths, err := DefaultSearchPaths(context.Background(), filepath.Join(t.TempDir(), "no-such-python"))
	require.Error(t, err)
	assert.Equal(t, []string{extra}, paths)
}
