package altar

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader resolves a template name to its source text. identity is an
// opaque string (the absolute path, an ETag, a content hash — the
// loader's choice) used to key the Engine's compiled-template cache;
// two lookups that return the same identity are assumed to return the
// same source.
//
// Abs resolves a name referenced from within base (the template doing
// the {% extends/include/import %}) to the name Load expects; base is
// "" for a top-level Render/Parse call.
type Loader interface {
	Abs(base, name string) string
	Load(name string) (source string, identity string, err error)
}

// LocalFileSystemLoader resolves templates from a directory tree on
// disk, the default and usual choice.
type LocalFileSystemLoader struct {
	baseDir string
}

// NewLocalFileSystemLoader builds a loader rooted at baseDir. An empty
// baseDir defers to the working directory of whichever template does
// the referencing.
func NewLocalFileSystemLoader(baseDir string) (*LocalFileSystemLoader, error) {
	fs := &LocalFileSystemLoader{}
	if baseDir != "" {
		if err := fs.setBaseDir(baseDir); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// MustNewLocalFileSystemLoader panics instead of returning an error;
// handy for package-init-time loader construction.
func MustNewLocalFileSystemLoader(baseDir string) *LocalFileSystemLoader {
	fs, err := NewLocalFileSystemLoader(baseDir)
	if err != nil {
		panic(err)
	}
	return fs
}

func (fs *LocalFileSystemLoader) setBaseDir(path string) error {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		path = abs
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("the given path '%s' is not a directory", path)
	}
	fs.baseDir = path
	return nil
}

// Abs resolves name relative to base (or the loader's baseDir, which
// takes priority when set). Absolute names pass through unchanged.
func (fs *LocalFileSystemLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if fs.baseDir != "" {
		return filepath.Join(fs.baseDir, name)
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return name
		}
		return filepath.Join(wd, name)
	}
	return filepath.Join(filepath.Dir(base), name)
}

// Load reads name (already resolved via Abs) from disk, using the
// cleaned absolute path as the cache identity.
func (fs *LocalFileSystemLoader) Load(name string) (source string, identity string, err error) {
	buf, err := os.ReadFile(name)
	if err != nil {
		return "", "", err
	}
	return string(buf), filepath.Clean(name), nil
}

// MapLoader resolves templates from an in-memory name-to-source map,
// with no filesystem access at all. Useful for tests and for embedding
// a fixed set of templates into a binary; names are looked up as given,
// with no path-joining, so {% extends %}/{% include %} references must
// match map keys exactly.
type MapLoader map[string]string

// Abs returns name unchanged; MapLoader has no directory structure to
// resolve against.
func (m MapLoader) Abs(base, name string) string {
	return name
}

// Load looks name up directly; the identity is the name itself, since
// map contents are assumed stable for the loader's lifetime.
func (m MapLoader) Load(name string) (source string, identity string, err error) {
	src, ok := m[name]
	if !ok {
		return "", "", fmt.Errorf("template '%s' not found in MapLoader", name)
	}
	return src, name, nil
}
