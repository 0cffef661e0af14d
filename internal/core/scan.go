package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrDirNotFound  = errors.New("input directory not found")
	ErrNoInputFiles = errors.New("no input files found")
)

// ScanDir returns the files in dir whose name ends with ext, sorted by
// name. Symlinks are followed; directories and dangling links are skipped.
// Subdirectories are not descended into.
func ScanDir(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isFile(entry, path) {
			continue
		}
		files = append(files, path)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoInputFiles, ext, dir)
	}

	sort.Strings(files)
	return files, nil
}

// isFile reports whether entry is, or links to, a non-directory.
func isFile(entry fs.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return !entry.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
