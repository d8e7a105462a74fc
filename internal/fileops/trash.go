package fileops

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"prompt-sorter/internal/filesystem"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/metrics"
)

const trashInfoTimeFormat = "2006-01-02T15:04:05"

// TrashResult reports a batch trash operation.
type TrashResult struct {
	Trashed   int
	Errors    []string
	Transfers []Transfer
}

// DefaultTrashDir returns the user's freedesktop trash:
// $XDG_DATA_HOME/Trash, falling back to ~/.local/share/Trash.
func DefaultTrashDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "Trash")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "Trash")
	}
	return filepath.Join(os.TempDir(), "prompt-sorter-trash")
}

// Trash moves files or folders into TrashDir/files and writes a matching
// .trashinfo record so desktop trash tools can restore them. Nothing is
// ever deleted permanently.
func (s *Service) Trash(paths []string) (*TrashResult, error) {
	filesDir := filepath.Join(s.TrashDir, "files")
	infoDir := filepath.Join(s.TrashDir, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("prepare trash: %w", err)
		}
	}

	res := &TrashResult{}
	for _, src := range paths {
		target, err := s.trashOne(src, filesDir, infoDir)
		if err != nil {
			msg := fmt.Sprintf("Failed to move to trash %s: %v", src, err)
			logging.Warn("%s", msg)
			res.Errors = append(res.Errors, msg)
			metrics.FileOpsTotal.WithLabelValues("trash", "error").Inc()
			continue
		}
		res.Trashed++
		res.Transfers = append(res.Transfers, Transfer{From: src, To: target})
		metrics.FileOpsTotal.WithLabelValues("trash", "success").Inc()
		logging.Debug("Moved to trash: %s", src)
	}
	return res, nil
}

func (s *Service) trashOne(src, filesDir, infoDir string) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	if !filesystem.Exists(abs) {
		return "", os.ErrNotExist
	}

	name, info, err := reserveInfo(infoDir, filepath.Base(abs))
	if err != nil {
		return "", err
	}

	record := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(), s.clock().Format(trashInfoTimeFormat))
	if _, err := info.WriteString(record); err != nil {
		info.Close()
		os.Remove(info.Name())
		return "", err
	}
	if err := info.Close(); err != nil {
		os.Remove(info.Name())
		return "", err
	}

	target := filepath.Join(filesDir, name)
	if err := moveFile(abs, target); err != nil {
		os.Remove(info.Name())
		return "", err
	}
	return target, nil
}

// reserveInfo creates info/<name>.trashinfo exclusively, picking name,
// name_1, name_2, ... until one is free.
func reserveInfo(infoDir, base string) (string, *os.File, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(infoDir, name+".trashinfo"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return name, f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", nil, err
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}
