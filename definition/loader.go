package definition

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/eradiate-pp/errors"
)

// Loader loads definitions by name.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches dirs, in order, for
// <name>.yaml or <name>.yml. Subdirectories are searched after the
// top level of each directory.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first matching definition. A document without a name
// takes the name it was loaded under.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		path, ok := find(dir, name)
		if !ok {
			continue
		}
		d, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, errors.NotFound("definition", name).WithDetail("dirs", l.dirs)
}

func find(dir, name string) (string, bool) {
	candidates := []string{name + ".yaml", name + ".yml"}
	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	var found string
	_ = filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return nil
		}
		for _, c := range candidates {
			if e.Name() == c {
				found = path
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found, found != ""
}

// LoadFile reads and parses a single definition file. A document without
// a name is named after the file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("definition file", path)
		}
		return nil, errors.Internal("reading "+path, err)
	}
	d, err := parse(data, nameFromPath(path))
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr.WithDetail("file", path)
		}
		return nil, err
	}
	return d, nil
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
