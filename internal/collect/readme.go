package collect

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/libctx/internal/config"
)

var readmeNames = []string{"README.md", "README.rst", "README.txt", "README"}

// FindReadme prefers the long description from package metadata, then looks
// for a README file next to the package or up to two levels above it.
func FindReadme(meta Metadata, pkgPath string, log logrus.FieldLogger) *string {
	if meta.Description != nil {
		log.Debug("README found in package metadata")
		return meta.Description
	}
	for _, dir := range config.SearchDirs(pkgPath) {
		for _, name := range readmeNames {
			path := filepath.Join(dir, name)
			if !isFile(path) {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.WithError(err).Debugf("cannot read README %s", path)
				continue
			}
			if !utf8.Valid(data) {
				log.Debugf("README %s is not valid UTF-8", path)
				continue
			}
			log.Debugf("README found at %s", path)
			s := string(data)
			return &s
		}
	}
	return nil
}
