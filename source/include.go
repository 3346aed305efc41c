package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Includer locates and loads the targets of include directives.
type Includer interface {
	// Resolve maps an include name to a full path, searching dir first.
	// It returns an *IncludeError wrapping ErrIncludeNotFound when the
	// name cannot be located.
	Resolve(name, dir string) (string, error)
	// Load returns the raw lines of a resolved path.
	Load(path string) ([]string, error)
}

// DefaultCacheSize is the number of loaded files a FileIncluder keeps.
const DefaultCacheSize = 128

// FileIncluder resolves include names against the file system. The
// including file's directory is searched first, then Dirs in order. Each
// candidate is tried as written and with every extension in Exts.
//
// Loaded files are kept in an LRU cache so files included from many
// places are read once.
type FileIncluder struct {
	Dirs []string
	Exts []string

	cache *lru.Cache[string, []string]
}

// NewFileIncluder creates a FileIncluder with an LRU cache of the given
// size (DefaultCacheSize when size <= 0).
func NewFileIncluder(dirs, exts []string, size int) (*FileIncluder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating include cache: %w", err)
	}
	return &FileIncluder{Dirs: dirs, Exts: exts, cache: cache}, nil
}

func (fi *FileIncluder) Resolve(name, dir string) (string, error) {
	var bases []string
	if filepath.IsAbs(name) {
		bases = []string{""}
	} else {
		if dir != "" {
			bases = append(bases, dir)
		}
		bases = append(bases, fi.Dirs...)
		if len(bases) == 0 {
			bases = []string{"."}
		}
	}
	exts := append([]string{""}, fi.Exts...)
	for _, base := range bases {
		for _, ext := range exts {
			candidate := filepath.Join(base, name+ext)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs, nil
			}
			return candidate, nil
		}
	}
	return "", &IncludeError{Name: name, Dir: dir}
}

func (fi *FileIncluder) Load(path string) ([]string, error) {
	if fi.cache != nil {
		if lines, ok := fi.cache.Get(path); ok {
			return lines, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	lines := SplitLines(string(data))
	if fi.cache != nil {
		fi.cache.Add(path, lines)
	}
	return lines, nil
}

// Cached reports whether path is currently held in the load cache.
func (fi *FileIncluder) Cached(path string) bool {
	return fi.cache != nil && fi.cache.Contains(path)
}

// MapIncluder resolves include names from an in-memory table of
// name to file contents. Dir is ignored.
type MapIncluder map[string]string

func (m MapIncluder) Resolve(name, dir string) (string, error) {
	if _, ok := m[name]; ok {
		return name, nil
	}
	return "", &IncludeError{Name: name, Dir: dir}
}

func (m MapIncluder) Load(path string) ([]string, error) {
	text, ok := m[path]
	if !ok {
		return nil, &IncludeError{Name: path}
	}
	return SplitLines(text), nil
}

// SplitLines splits text into lines, accepting \n and \r\n endings. A
// trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
