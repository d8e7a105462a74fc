package fileops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
)

// FindEmptySubfolders lists the directories under root that contain no
// entries at all, deepest first. root itself is never listed. A folder
// holding only an empty folder is not empty. Nothing is modified.
func FindEmptySubfolders(root string) ([]string, error) {
	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reversed walk order visits children before their parents.
	slices.Reverse(dirs)

	var empty []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logging.Debug("Skipping unreadable folder %s: %v", dir, err)
			continue
		}
		if len(entries) == 0 {
			empty = append(empty, filepath.Clean(dir))
		}
	}
	return empty, nil
}
