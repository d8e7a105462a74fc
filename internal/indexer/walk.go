package indexer

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/mediatypes"
)

// enumerate returns every supported image under root in walk order.
// Unreadable subdirectories are logged and skipped. It stops early when
// ctx ends or stop reports true.
func enumerate(ctx context.Context, root string, skipHidden bool, stop func() bool) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil || stop() {
			return fs.SkipAll
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if skipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if mediatypes.IsSupportedImage(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}
