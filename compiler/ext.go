package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Ext is the default source file extension.
const Ext = ".tl"

// IsSourceFile reports whether name carries one of exts, or Ext when
// exts is empty.
func IsSourceFile(name string, exts ...string) bool {
	if len(exts) == 0 {
		exts = []string{Ext}
	}
	return slices.ContainsFunc(exts, func(ext string) bool {
		return ext != "" && strings.HasSuffix(name, ext)
	})
}

// TrimExt removes a source extension from name.
func TrimExt(name string, exts ...string) string {
	if len(exts) == 0 {
		exts = []string{Ext}
	}
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// FindSource looks for basePath with each extension in order and returns
// the first that exists, or an empty string.
func FindSource(basePath string, exts ...string) string {
	if len(exts) == 0 {
		exts = []string{Ext}
	}
	for _, ext := range exts {
		if fileExists(basePath + ext) {
			return basePath + ext
		}
	}
	return ""
}

// CollectSources expands directories in paths into the source files they
// contain. Plain file arguments are kept as given.
func CollectSources(paths []string, exts ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSourceFile(path, exts...) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
	}
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
