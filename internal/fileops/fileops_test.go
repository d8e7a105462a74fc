package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(b)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestMoveRenamesCollisions(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	first := writeFile(t, filepath.Join(root, "one", "img.png"), "first")
	second := writeFile(t, filepath.Join(root, "two", "img.png"), "second")

	res, err := NewService().Move([]string{first, second}, dest)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if res.Moved != 2 || len(res.Errors) != 0 {
		t.Fatalf("Expected 2 moved without errors, got %+v", res)
	}
	if !reflect.DeepEqual(res.Renamed, []string{"img_1.png"}) {
		t.Errorf("Expected [img_1.png] renamed, got %v", res.Renamed)
	}
	if got := readFile(t, filepath.Join(dest, "img.png")); got != "first" {
		t.Errorf("img.png holds %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "img_1.png")); got != "second" {
		t.Errorf("img_1.png holds %q", got)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("Source should be gone after move")
	}
	want := []Transfer{
		{From: first, To: filepath.Join(dest, "img.png")},
		{From: second, To: filepath.Join(dest, "img_1.png")},
	}
	if !reflect.DeepEqual(res.Transfers, want) {
		t.Errorf("Expected transfers %+v, got %+v", want, res.Transfers)
	}
}

func TestMoveSuffixSkipsTakenNames(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	writeFile(t, filepath.Join(dest, "a.png"), "x")
	writeFile(t, filepath.Join(dest, "a_1.png"), "x")
	src := writeFile(t, filepath.Join(root, "a.png"), "new")

	res, err := NewService().Move([]string{src}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Renamed, []string{"a_2.png"}) {
		t.Errorf("Expected a_2.png, got %v", res.Renamed)
	}
}

func TestMovePartialFailure(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	ok := writeFile(t, filepath.Join(root, "ok.png"), "x")
	missing := filepath.Join(root, "gone.png")

	res, err := NewService().Move([]string{missing, ok}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != 1 {
		t.Errorf("Expected the remaining file to move, got %d", res.Moved)
	}
	if !reflect.DeepEqual(res.Errors, []string{"Source file not found: gone.png"}) {
		t.Errorf("Unexpected errors %v", res.Errors)
	}
}

func TestDestinationNotDir(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "f.txt"), "x")
	src := writeFile(t, filepath.Join(root, "a.png"), "x")
	s := NewService()

	for _, dest := range []string{file, filepath.Join(root, "nope")} {
		if _, err := s.Move([]string{src}, dest); !errors.Is(err, ErrDestinationNotDir) {
			t.Errorf("Move to %s: expected ErrDestinationNotDir, got %v", dest, err)
		}
		if _, err := s.Copy([]string{src}, dest); !errors.Is(err, ErrDestinationNotDir) {
			t.Errorf("Copy to %s: expected ErrDestinationNotDir, got %v", dest, err)
		}
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("Source must be untouched")
	}
}

func TestCopySequenceResumes(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	writeFile(t, filepath.Join(dest, "005_x.png"), "old")
	writeFile(t, filepath.Join(dest, "notes.txt"), "")
	if err := os.MkdirAll(filepath.Join(dest, "900_folder"), 0o755); err != nil {
		t.Fatal(err)
	}
	b := writeFile(t, filepath.Join(root, "b.png"), "b")
	a := writeFile(t, filepath.Join(root, "a.png"), "a")

	res, err := NewService().Copy([]string{b, a}, dest)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if res.Copied != 2 || len(res.Errors) != 0 {
		t.Fatalf("Unexpected result %+v", res)
	}
	if got := readFile(t, filepath.Join(dest, "006_b.png")); got != "b" {
		t.Errorf("006_b.png holds %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "007_a.png")); got != "a" {
		t.Errorf("007_a.png holds %q", got)
	}
	if _, err := os.Stat(a); err != nil {
		t.Error("Copy must keep the source")
	}

	// A second batch keeps extending the sequence.
	res, err = NewService().Copy([]string{a}, dest)
	if err != nil || res.Copied != 1 {
		t.Fatalf("Second copy failed: %+v %v", res, err)
	}
	if res.Transfers[0].To != filepath.Join(dest, "008_a.png") {
		t.Errorf("Expected 008_a.png, got %s", res.Transfers[0].To)
	}
}

func TestCopyStartsAtOne(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	src := writeFile(t, filepath.Join(root, "x.webp"), "x")
	missing := filepath.Join(root, "missing.png")

	res, err := NewService().Copy([]string{missing, src}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(listDir(t, dest), []string{"001_x.webp"}) {
		t.Errorf("Expected 001_x.webp, got %v", listDir(t, dest))
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "missing.png") {
		t.Errorf("Expected one error naming missing.png, got %v", res.Errors)
	}
}

func TestCopyPreservesModTime(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	src := writeFile(t, filepath.Join(root, "a.png"), "a")
	mt := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := os.Chtimes(src, mt, mt); err != nil {
		t.Fatal(err)
	}

	res, err := NewService().Copy([]string{src}, dest)
	if err != nil || res.Copied != 1 {
		t.Fatalf("Copy failed: %+v %v", res, err)
	}
	info, err := os.Stat(res.Transfers[0].To)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mt) {
		t.Errorf("Expected mtime %v, got %v", mt, info.ModTime())
	}
}

func TestNextSequence(t *testing.T) {
	dir := t.TempDir()
	if n, err := NextSequence(dir); err != nil || n != 1 {
		t.Errorf("Expected 1 for empty folder, got %d, %v", n, err)
	}
	for _, name := range []string{"002_a.png", "010_b.png", "7_c.png", "abc_d.png", "99x_e.png"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	if n, _ := NextSequence(dir); n != 11 {
		t.Errorf("Expected 11, got %d", n)
	}
}
