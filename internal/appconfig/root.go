package appconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Root resolves config file names (apps.json, a build-layout file, a
// preset file) against a primary config directory with a fallback
// directory, in the style of a primary/fallback directory search.
type Root struct {
	Primary  string
	Fallback string
}

// Resolve looks up name (without extension) as "<dir>/name.json" in the
// primary directory, then the fallback directory, then finally treats name
// itself as a standalone path, so an absolute or relative override passed
// on the command line just works.
func (r Root) Resolve(name string) (string, error) {
	if r.Primary != "" {
		candidate := filepath.Join(r.Primary, name+".json")
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	if r.Fallback != "" {
		candidate := filepath.Join(r.Fallback, name+".json")
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	if fileExists(name) {
		return name, nil
	}
	return "", errors.Errorf("could not find config file %q in %q, %q, or as a standalone path", name, r.Primary, r.Fallback)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
