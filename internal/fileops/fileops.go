package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/otiai10/copy"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

// ErrDestinationNotDir is returned when the target folder is missing or is
// not a directory. No file is touched in that case.
var ErrDestinationNotDir = errors.New("destination is not a directory")

// sequencePrefix matches the numeric prefix written by Copy.
var sequencePrefix = regexp.MustCompile(`^(\d+)_`)

// Transfer records where one file ended up.
type Transfer struct {
	From string
	To   string
}

// MoveResult reports a batch move. Renamed holds the new base names of
// files that had to be renamed to avoid a collision.
type MoveResult struct {
	Moved     int
	Renamed   []string
	Errors    []string
	Transfers []Transfer
}

// CopyResult reports a batch copy.
type CopyResult struct {
	Copied    int
	Errors    []string
	Transfers []Transfer
}

// Service performs batch file operations. Failures of individual files are
// collected in the result and never stop the batch.
type Service struct {
	// TrashDir is the root of the trash used by Trash. It must contain or
	// be allowed to create files/ and info/.
	TrashDir string

	now func() time.Time
}

// NewService returns a Service that trashes into DefaultTrashDir().
func NewService() *Service {
	return &Service{TrashDir: DefaultTrashDir(), now: time.Now}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func requireDir(dest string) error {
	info, err := filesystem.StatWithRetry(dest, filesystem.DefaultRetryConfig())
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDestinationNotDir, dest)
	}
	return nil
}

// freeName returns path itself when nothing exists there, otherwise the
// first of name_1.ext, name_2.ext, ... that is free.
func freeName(path string) string {
	if !filesystem.Exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !filesystem.Exists(candidate) {
			return candidate
		}
	}
}

// Move moves every path into dest. A name already taken in dest gets a
// numeric suffix instead of being overwritten.
func (s *Service) Move(paths []string, dest string) (*MoveResult, error) {
	if err := requireDir(dest); err != nil {
		return nil, err
	}

	res := &MoveResult{}
	for _, src := range paths {
		base := filepath.Base(src)
		if !filesystem.Exists(src) {
			res.Errors = append(res.Errors, "Source file not found: "+base)
			metrics.FileOpsTotal.WithLabelValues("move", "error").Inc()
			continue
		}

		wanted := filepath.Join(dest, base)
		target := freeName(wanted)
		if err := moveFile(src, target); err != nil {
			msg := fmt.Sprintf("Error moving %s: %v", base, err)
			logging.Warn("%s", msg)
			res.Errors = append(res.Errors, msg)
			metrics.FileOpsTotal.WithLabelValues("move", "error").Inc()
			continue
		}

		res.Moved++
		res.Transfers = append(res.Transfers, Transfer{From: src, To: target})
		metrics.FileOpsTotal.WithLabelValues("move", "success").Inc()
		if target != wanted {
			res.Renamed = append(res.Renamed, filepath.Base(target))
			metrics.FileOpsTotal.WithLabelValues("move", "renamed").Inc()
		}
	}

	logging.Info("Moved %d of %d files to %s (%d renamed, %d errors)",
		res.Moved, len(paths), dest, len(res.Renamed), len(res.Errors))
	return res, nil
}

// moveFile renames src to dst, copying across devices when a rename is
// not possible.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	logging.Debug("Cross-device move of %s, copying instead", src)
	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
		_ = os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

// NextSequence returns one more than the highest NNN_ prefix among the
// regular files in dir, or 1 when there is none.
func NextSequence(dir string) (int, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := sequencePrefix.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Copy copies ordered into dest as NNN_<name>, numbering on from the
// highest prefix already there. The number advances only when a copy
// succeeds. Modification times are preserved.
func (s *Service) Copy(ordered []string, dest string) (*CopyResult, error) {
	if err := requireDir(dest); err != nil {
		return nil, err
	}
	next, err := NextSequence(dest)
	if err != nil {
		return nil, fmt.Errorf("read destination folder: %w", err)
	}

	res := &CopyResult{}
	for _, src := range ordered {
		base := filepath.Base(src)
		info, err := os.Stat(src)
		if err != nil {
			res.Errors = append(res.Errors, "Source file not found: "+base)
			metrics.FileOpsTotal.WithLabelValues("copy", "error").Inc()
			continue
		}
		if info.IsDir() {
			res.Errors = append(res.Errors, fmt.Sprintf("Error copying %s: is a directory", base))
			metrics.FileOpsTotal.WithLabelValues("copy", "error").Inc()
			continue
		}

		target := freeName(filepath.Join(dest, fmt.Sprintf("%03d_%s", next, base)))
		if err := copy.Copy(src, target, copy.Options{PreserveTimes: true}); err != nil {
			msg := fmt.Sprintf("Error copying %s: %v", base, err)
			logging.Warn("%s", msg)
			res.Errors = append(res.Errors, msg)
			metrics.FileOpsTotal.WithLabelValues("copy", "error").Inc()
			continue
		}

		res.Copied++
		next++
		res.Transfers = append(res.Transfers, Transfer{From: src, To: target})
		metrics.FileOpsTotal.WithLabelValues("copy", "success").Inc()
	}

	logging.Info("Copied %d of %d files to %s (%d errors)", res.Copied, len(ordered), dest, len(res.Errors))
	return res, nil
}
