package utils

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FindMetaFiles recursively finds all .meta files in the specified directory.
// Results are sorted so directory traversal order never leaks into output.
func FindMetaFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		// Check if file has .meta extension
		if filepath.Ext(path) == ".meta" {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
