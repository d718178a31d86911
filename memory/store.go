package memory

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/palaver/errors"
)

// Store locates saved conversation files under a base directory.
type Store struct {
	Dir string
}

// List returns the names of saved conversation files matching the glob
// pattern, sorted. An empty pattern matches every .json file. A missing base
// directory is treated as an empty store.
func (s Store) List(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not read conversation directory %s", s.Dir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Path resolves a conversation name to its file path under the store
// directory, appending the .json extension when absent. Names are plain file
// names: anything containing a path separator or referring outside the store
// directory is rejected, so callers can pass untrusted input through.
func (s Store) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", errors.New("invalid conversation name '%s'", name)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(s.Dir, name), nil
}
