package collect

import (
	"bufio"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/phobologic/libctx/internal/config"
	"github.com/phobologic/libctx/internal/model"
)

// Metadata is the package-level information shown above the API reference.
type Metadata struct {
	Version     *string
	Summary     *string
	Description *string
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName folds a distribution name the way installers do, so
// "My.Package", "my-package" and "my_package" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}

// DistMetadata reads the METADATA file of the installed distribution named
// name. Missing or unreadable metadata yields an empty Metadata.
func DistMetadata(name string, searchPaths []string, log logrus.FieldLogger) Metadata {
	path, ok := findDistInfo(name, searchPaths)
	if !ok {
		log.Debugf("no installed metadata for %q", name)
		return Metadata{}
	}
	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).Debugf("cannot read %s", path)
		return Metadata{}
	}
	defer f.Close()

	meta, err := ParseMetadata(f)
	if err != nil {
		log.WithError(err).Debugf("malformed metadata in %s", path)
		return Metadata{}
	}
	return meta
}

func findDistInfo(name string, searchPaths []string) (string, bool) {
	want := NormalizeName(name)
	for _, dir := range searchPaths {
		matches, err := filepath.Glob(filepath.Join(dir, "*.dist-info"))
		if err != nil {
			continue
		}
		for _, m := range matches {
			base := strings.TrimSuffix(filepath.Base(m), ".dist-info")
			dist, _, _ := strings.Cut(base, "-")
			if NormalizeName(dist) != want {
				continue
			}
			path := filepath.Join(m, "METADATA")
			if isFile(path) {
				return path, true
			}
		}
	}
	return "", false
}

// ParseMetadata parses a core metadata document: RFC 822 style headers
// followed by the long description as the message body.
func ParseMetadata(r io.Reader) (Metadata, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return Metadata{}, err
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata
	if v := strings.TrimSpace(msg.Header.Get("Version")); v != "" {
		meta.Version = model.Str(v)
	}
	if s := strings.TrimSpace(msg.Header.Get("Summary")); s != "" {
		meta.Summary = model.Str(s)
	}
	if d := strings.TrimSpace(string(body)); d != "" {
		meta.Description = model.Str(d)
	}
	return meta, nil
}

type pyproject struct {
	Project struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"project"`
}

// ProjectMetadata reads version and summary from the [project] table of the
// nearest pyproject.toml at or up to two levels above pkgPath. Local
// packages have no installed metadata to consult.
func ProjectMetadata(pkgPath string, log logrus.FieldLogger) Metadata {
	for _, dir := range config.SearchDirs(pkgPath) {
		path := filepath.Join(dir, config.FileName)
		if !isFile(path) {
			continue
		}
		var doc pyproject
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			log.WithError(err).Debugf("cannot read project metadata from %s", path)
			continue
		}
		if doc.Project.Name == "" && doc.Project.Version == "" && doc.Project.Description == "" {
			continue
		}
		var meta Metadata
		if doc.Project.Version != "" {
			meta.Version = model.Str(doc.Project.Version)
		}
		if doc.Project.Description != "" {
			meta.Summary = model.Str(doc.Project.Description)
		}
		return meta
	}
	return Metadata{}
}
