// Package config reads the optional [tool.libcontext] table of a
// pyproject.toml. Library authors use it to choose which modules end up in
// the generated context.
//
//	[tool.libcontext]
//	include_modules = ["mypackage.core", "mypackage.models"]
//	exclude_modules = ["mypackage._internal"]
//	include_private = false
//	extra_context = "This library uses the repository pattern."
//	max_readme_lines = 150
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

const (
	// FileName is the file searched for configuration.
	FileName = "pyproject.toml"
	// DefaultMaxReadmeLines bounds the Overview section when
	// max_readme_lines is not set.
	DefaultMaxReadmeLines = 100
)

// ErrInvalid is wrapped by every configuration shape error.
var ErrInvalid = errors.New("invalid configuration")

// Error reports a recognized option holding a value of the wrong shape.
type Error struct {
	Key  string
	Want string
	Got  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s must be %s, got %s", e.Key, e.Want, e.Got)
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Config holds the options that shape context generation.
type Config struct {
	IncludeModules []string
	ExcludeModules []string
	IncludePrivate bool
	ExtraContext   string
	MaxReadmeLines int
}

// Default returns the configuration used when none is found.
func Default() Config {
	return Config{MaxReadmeLines: DefaultMaxReadmeLines}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.IncludeModules = append([]string(nil), c.IncludeModules...)
	out.ExcludeModules = append([]string(nil), c.ExcludeModules...)
	return out
}

// Allows reports whether module passes the include and exclude filters. With
// a non-empty include list only listed modules, their dotted descendants and
// the package root are kept; the exclude list is applied afterwards.
//
// Entries may be glob patterns over dotted names ("pkg.*.tests"), where "*"
// stays within one name component and "**" spans several.
func (c Config) Allows(module, root string) bool {
	if len(c.IncludeModules) > 0 && module != root && !matchesAny(module, c.IncludeModules) {
		return false
	}
	return !matchesAny(module, c.ExcludeModules)
}

func matchesAny(module string, patterns []string) bool {
	for _, p := range patterns {
		if matches(module, p) {
			return true
		}
	}
	return false
}

// matches reports whether module or one of its dotted ancestors matches p.
func matches(module, p string) bool {
	if !isPattern(p) {
		return module == p || strings.HasPrefix(module, p+".")
	}
	g, err := glob.Compile(p, '.')
	if err != nil {
		return false
	}
	for name := module; ; {
		if g.Match(name) {
			return true
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return false
		}
		name = name[:i]
	}
}

func isPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// FromMap builds a Config from a decoded [tool.libcontext] table. Missing keys
// keep their defaults; unknown keys are ignored.
func FromMap(data map[string]any) (Config, error) {
	cfg := Default()
	var err error

	if cfg.IncludeModules, err = stringList(data, "include_modules"); err != nil {
		return Config{}, err
	}
	if cfg.ExcludeModules, err = stringList(data, "exclude_modules"); err != nil {
		return Config{}, err
	}

	if v, ok := data["include_private"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return Config{}, &Error{Key: "include_private", Want: "a bool", Got: typeName(v)}
		}
		cfg.IncludePrivate = b
	}

	if v, ok := data["extra_context"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return Config{}, &Error{Key: "extra_context", Want: "a string", Got: typeName(v)}
		}
		cfg.ExtraContext = s
	}

	if v, ok := data["max_readme_lines"]; ok {
		var n int64
		switch x := v.(type) {
		case int64:
			n = x
		case int:
			n = int64(x)
		default:
			return Config{}, &Error{Key: "max_readme_lines", Want: "an integer", Got: typeName(v)}
		}
		if n <= 0 {
			return Config{}, &Error{Key: "max_readme_lines", Want: "a positive integer", Got: fmt.Sprint(n)}
		}
		cfg.MaxReadmeLines = int(n)
	}

	return cfg, nil
}

func stringList(data map[string]any, key string) ([]string, error) {
	v, ok := data[key]
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		out := append([]string(nil), list...)
		return out, validPatterns(key, out)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, isString := item.(string)
			if !isString {
				return nil, &Error{Key: key, Want: "a list of strings", Got: "a list containing " + typeName(item)}
			}
			out = append(out, s)
		}
		return out, validPatterns(key, out)
	}
	return nil, &Error{Key: key, Want: "a list", Got: typeName(v)}
}

func validPatterns(key string, patterns []string) error {
	for _, p := range patterns {
		if !isPattern(p) {
			continue
		}
		if _, err := glob.Compile(p, '.'); err != nil {
			return &Error{Key: key, Want: "valid module patterns", Got: fmt.Sprintf("%q", p)}
		}
	}
	return nil
}

// typeName names a decoded TOML value the way TOML does.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64:
		return "integer"
	case float64:
		return "float"
	case []any, []string, []map[string]any:
		return "array"
	case map[string]any:
		return "table"
	}
	return fmt.Sprintf("%T", v)
}

// Parse decodes pyproject.toml contents. found reports whether the document
// has a [tool.libcontext] table; without one the defaults are returned.
func Parse(data []byte) (cfg Config, found bool, err error) {
	var doc struct {
		Tool map[string]any `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return Config{}, false, fmt.Errorf("parsing toml: %w", err)
	}

	raw, ok := doc.Tool["libcontext"]
	if !ok {
		return Default(), false, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return Config{}, true, &Error{Key: "tool.libcontext", Want: "a table", Got: typeName(raw)}
	}
	cfg, err = FromMap(table)
	return cfg, true, err
}

// Load reads the configuration of one pyproject.toml file. A file without a
// [tool.libcontext] table yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, _, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SearchDirs lists dir and its parent and grandparent, the places a src/
// layout keeps project files.
func SearchDirs(dir string) []string {
	dir = filepath.Clean(dir)
	dirs := []string{dir}
	for i := 0; i < 2; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dirs = append(dirs, parent)
		dir = parent
	}
	return dirs
}

// FindForPackage returns the first [tool.libcontext] configuration found in a
// pyproject.toml next to the package directory or up to two levels above it.
// Unreadable or malformed TOML files are logged and skipped; option shape
// errors are returned.
func FindForPackage(dir string, log logrus.FieldLogger) (Config, error) {
	for _, d := range SearchDirs(dir) {
		path := filepath.Join(d, FileName)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).Debugf("cannot read %s", path)
			continue
		}
		cfg, found, err := Parse(data)
		if err != nil {
			if errors.Is(err, ErrInvalid) {
				return Config{}, fmt.Errorf("%s: %w", path, err)
			}
			log.WithError(err).Warnf("invalid TOML in %s", path)
			continue
		}
		if found {
			log.Debugf("found [tool.libcontext] config in %s", path)
			return cfg, nil
		}
	}

	log.Debugf("no [tool.libcontext] config found near %s", dir)
	return Default(), nil
}
