package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFromMapFull(t *testing.T) {
	t.Parallel()
	cfg, err := FromMap(map[string]any{
		"include_modules":  []any{"pkg.core", "pkg.models"},
		"exclude_modules":  []any{"pkg.tests"},
		"include_private":  true,
		"extra_context":    "Extra notes.",
		"max_readme_lines": int64(50),
	})
	require.NoError(t, err)
	assert.Equal(t, Config{
		IncludeModules: []string{"pkg.core", "pkg.models"},
		ExcludeModules: []string{"pkg.tests"},
		IncludePrivate: true,
		ExtraContext:   "Extra notes.",
		MaxReadmeLines: 50,
	}, cfg)
}

func TestFromMapEmpty(t *testing.T) {
	t.Parallel()
	cfg, err := FromMap(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultMaxReadmeLines, cfg.MaxReadmeLines)
}

func TestFromMapInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data map[string]any
		key  string
	}{
		{"include not list", map[string]any{"include_modules": "pkg.core"}, "include_modules"},
		{"exclude not list", map[string]any{"exclude_modules": int64(3)}, "exclude_modules"},
		{"list of numbers", map[string]any{"include_modules": []any{int64(1)}}, "include_modules"},
		{"private not bool", map[string]any{"include_private": "yes"}, "include_private"},
		{"extra not string", map[string]any{"extra_context": int64(42)}, "extra_context"},
		{"lines not int", map[string]any{"max_readme_lines": "many"}, "max_readme_lines"},
		{"lines bool", map[string]any{"max_readme_lines": true}, "max_readme_lines"},
		{"lines float", map[string]any{"max_readme_lines": 1.5}, "max_readme_lines"},
		{"lines zero", map[string]any{"max_readme_lines": int64(0)}, "max_readme_lines"},
		{"lines negative", map[string]any{"max_readme_lines": int64(-5)}, "max_readme_lines"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromMap(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.key, cerr.Key)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	cfg, found, err := Parse([]byte(`
[project]
name = "mypkg"

[tool.libcontext]
include_private = true
max_readme_lines = 42
include_modules = ["mypkg.core"]
`))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, cfg.IncludePrivate)
	assert.Equal(t, 42, cfg.MaxReadmeLines)
	assert.Equal(t, []string{"mypkg.core"}, cfg.IncludeModules)
}

func TestParseNoTable(t *testing.T) {
	t.Parallel()
	cfg, found, err := Parse([]byte("[tool.black]\nline-length = 88\n"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)
}

func TestParseInvalidTOML(t *testing.T) {
	t.Parallel()
	_, _, err := Parse([]byte("[tool.libcontext\nbroken = "))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}

func TestParseTableWrongShape(t *testing.T) {
	t.Parallel()
	_, found, err := Parse([]byte("[tool]\nlibcontext = 3\n"))
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "[tool.libcontext]\nextra_context = \"hello\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", cfg.ExtraContext)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestFindForPackageSrcLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[tool.libcontext]\nexclude_modules = [\"mypkg.tests\"]\n")
	pkgDir := filepath.Join(root, "src", "mypkg")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))

	cfg, err := FindForPackage(pkgDir, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"mypkg.tests"}, cfg.ExcludeModules)
}

func TestFindForPackageSkipsFilesWithoutTable(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[tool.libcontext]\ninclude_private = true\n")
	pkgDir := filepath.Join(root, "mypkg")
	writeFile(t, filepath.Join(pkgDir, FileName), "[tool.other]\nx = 1\n")

	cfg, err := FindForPackage(pkgDir, quietLogger())
	require.NoError(t, err)
	assert.True(t, cfg.IncludePrivate)
}

func TestFindForPackageInvalidTOMLDegrades(t *testing.T) {
	t.Parallel()
	pkgDir := filepath.Join(t.TempDir(), "mypkg")
	writeFile(t, filepath.Join(pkgDir, FileName), "not [valid toml")

	cfg, err := FindForPackage(pkgDir, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFindForPackageShapeErrorIsFatal(t *testing.T) {
	t.Parallel()
	pkgDir := filepath.Join(t.TempDir(), "mypkg")
	writeFile(t, filepath.Join(pkgDir, FileName), "[tool.libcontext]\ninclude_private = \"yes\"\n")

	_, err := FindForPackage(pkgDir, quietLogger())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFindForPackageNothing(t *testing.T) {
	t.Parallel()
	cfg, err := FindForPackage(filepath.Join(t.TempDir(), "a", "b", "c"), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	orig := Config{IncludeModules: []string{"a"}, ExcludeModules: []string{"b"}, MaxReadmeLines: 10}
	c := orig.Clone()
	c.IncludeModules[0] = "changed"
	c.ExcludeModules = append(c.ExcludeModules, "c")
	c.IncludePrivate = true

	assert.Equal(t, []string{"a"}, orig.IncludeModules)
	assert.Equal(t, []string{"b"}, orig.ExcludeModules)
	assert.False(t, orig.IncludePrivate)
}

func TestAllows(t *testing.T) {
	t.Parallel()
	cfg := Config{
		IncludeModules: []string{"pkg.core"},
		ExcludeModules: []string{"pkg.core.internal"},
	}
	assert.True(t, cfg.Allows("pkg", "pkg"))
	assert.True(t, cfg.Allows("pkg.core", "pkg"))
	assert.True(t, cfg.Allows("pkg.core.models", "pkg"))
	assert.False(t, cfg.Allows("pkg.corex", "pkg"))
	assert.False(t, cfg.Allows("pkg.other", "pkg"))
	assert.False(t, cfg.Allows("pkg.core.internal", "pkg"))
	assert.False(t, cfg.Allows("pkg.core.internal.deep", "pkg"))

	assert.True(t, Default().Allows("pkg.anything", "pkg"))
	excludeRoot := Config{ExcludeModules: []string{"pkg"}}
	assert.False(t, excludeRoot.Allows("pkg", "pkg"))
}

func TestAllowsPatterns(t *testing.T) {
	t.Parallel()
	cfg := Config{ExcludeModules: []string{"pkg.*.tests", "pkg.**.conftest"}}
	assert.False(t, cfg.Allows("pkg.core.tests", "pkg"))
	assert.False(t, cfg.Allows("pkg.core.tests.test_x", "pkg"))
	assert.False(t, cfg.Allows("pkg.a.b.conftest", "pkg"))
	assert.True(t, cfg.Allows("pkg.tests", "pkg"))
	assert.True(t, cfg.Allows("pkg.core.models", "pkg"))

	include := Config{IncludeModules: []string{"pkg.{core,models}"}}
	assert.True(t, include.Allows("pkg.core.sub", "pkg"))
	assert.True(t, include.Allows("pkg.models", "pkg"))
	assert.False(t, include.Allows("pkg.views", "pkg"))
}

func TestFromMapInvalidPattern(t *testing.T) {
	t.Parallel()
	_, err := FromMap(map[string]any{"exclude_modules": []any{"pkg.[tests"}})
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "exclude_modules", cerr.Key)
}

func TestSearchDirs(t *testing.T) {
	t.Parallel()
	dir := filepath.Join("a", "b", "c")
	assert.Equal(t, []string{dir, filepath.Join("a", "b"), "a"}, SearchDirs(dir))
}
