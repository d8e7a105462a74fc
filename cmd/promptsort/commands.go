package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"prompt-sorter/internal/catalog"
	"prompt-sorter/internal/export"
	"prompt-sorter/internal/fileops"
	"prompt-sorter/internal/indexer"
	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/mediatypes"
	"prompt-sorter/internal/metadata"
)

// scanFolder runs one scan to completion and loads the result into the
// catalog. It returns the sorted display list.
func (a *app) scanFolder(ctx context.Context, root string, status io.Writer) ([]string, error) {
	start := time.Now()
	events, err := a.scanner.Start(ctx, root, a.cfg.ThumbnailSize)
	if err != nil {
		return nil, err
	}

	p := newProgress(status)
	var paths []string
	var total int
	for ev := range events {
		switch ev.Kind {
		case indexer.EventProgress:
			total = ev.Total
			p.update(ev.Loaded, ev.Total)
		case indexer.EventFinished:
			paths = ev.Paths
		}
	}
	p.done()

	if _, err := a.scanner.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	displayed := a.catalog.Set(paths)
	a.publish()
	logging.Info("Loaded %s of %s images in %v", humanize.Comma(int64(len(paths))),
		humanize.Comma(int64(total)), time.Since(start).Round(time.Millisecond))
	return displayed, nil
}

func parseSortFlag(value string) (mediatypes.SortKey, bool, error) {
	if value == "" {
		return "", false, nil
	}
	key, err := mediatypes.ParseSortKey(value)
	if err != nil {
		return "", false, usageError(err.Error())
	}
	return key, true, nil
}

func printPaths(out io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
}

func runScan(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("scan")
	sortFlag := fs.String("sort", "", "sort order (filename_asc, filename_desc, date_asc, date_desc)")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("expected exactly one folder")
	}
	key, sortSet, err := parseSortFlag(*sortFlag)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	paths, err := a.scanFolder(ctx, fs.Arg(0), os.Stderr)
	if err != nil {
		return err
	}
	if sortSet {
		paths = a.catalog.Sort(key)
		a.publish()
	}
	printPaths(out, paths)
	return nil
}

func runFilter(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("filter")
	and := fs.Bool("and", false, "require every term instead of any")
	sortFlag := fs.String("sort", "", "sort order (filename_asc, filename_desc, date_asc, date_desc)")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return usageError("expected a folder and search terms")
	}
	key, sortSet, err := parseSortFlag(*sortFlag)
	if err != nil {
		return err
	}
	mode := catalog.ModeOr
	if *and {
		mode = catalog.ModeAnd
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.scanFolder(ctx, fs.Arg(0), os.Stderr); err != nil {
		return err
	}
	if sortSet {
		a.catalog.Sort(key)
	}
	query := strings.Join(fs.Args()[1:], " ")
	matched := a.catalog.FilterQuery(query, mode)
	a.publish()

	logging.Info("%s of %s images match %q (%s)", humanize.Comma(int64(len(matched))),
		humanize.Comma(int64(len(a.catalog.All()))), query, mode)
	printPaths(out, matched)
	return nil
}

// showRecord is the -json form of one extraction.
type showRecord struct {
	Path      string           `json:"path"`
	Container string           `json:"container"`
	Status    string           `json:"status"`
	Prompt    *metadata.Triple `json:"prompt,omitempty"`
	Fields    []metadata.Field `json:"fields,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func newShowRecord(res metadata.Result, raw bool) showRecord {
	rec := showRecord{Path: res.Path, Container: string(res.Container), Status: res.Kind.String()}
	switch res.Kind {
	case metadata.KindParsed:
		triple := res.Triple
		rec.Prompt = &triple
		if raw {
			rec.Fields = res.Fields
		}
	case metadata.KindError:
		rec.Error = res.AsError().Error()
	}
	return rec
}

func runShow(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("show")
	asJSON := fs.Bool("json", false, "print JSON lines")
	raw := fs.Bool("raw", false, "include every raw metadata field")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("expected at least one file")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	enc := json.NewEncoder(out)
	for i, path := range fs.Args() {
		res := a.extractor.Extract(path)
		if *asJSON {
			if err := enc.Encode(newShowRecord(res, *raw)); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeResult(out, res, *raw)
	}
	return nil
}

func writeResult(out io.Writer, res metadata.Result, raw bool) {
	fmt.Fprintf(out, "== %s ==\n", res.Path)
	switch res.Kind {
	case metadata.KindNoMetadata:
		fmt.Fprintln(out, metadata.ErrNoMetadata.Error())
		return
	case metadata.KindError:
		fmt.Fprintf(out, "Error: %v\n", res.AsError())
		return
	}
	fmt.Fprintf(out, "Positive prompt:\n%s\n", res.Triple.Positive)
	fmt.Fprintf(out, "Negative prompt:\n%s\n", res.Triple.Negative)
	fmt.Fprintf(out, "Generation info:\n%s\n", res.Triple.GenerationInfo)
	if raw {
		for _, f := range res.Fields {
			fmt.Fprintf(out, "[%s]\n%s\n", f.Key, f.Value)
		}
	}
}

func transferSources(transfers []fileops.Transfer) []string {
	out := make([]string, len(transfers))
	for i, t := range transfers {
		out[i] = t.From
	}
	return out
}

func printErrors(errs []string) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  %s\n", e)
	}
}

func runMove(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("move")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return usageError("expected a destination and at least one file")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.files.Move(fs.Args()[1:], fs.Arg(0))
	if err != nil {
		return err
	}
	a.forget(ctx, transferSources(res.Transfers))

	fmt.Fprintf(out, "Moved %s file(s) to %s\n", humanize.Comma(int64(res.Moved)), fs.Arg(0))
	for _, name := range res.Renamed {
		fmt.Fprintf(out, "  renamed to %s\n", name)
	}
	if len(res.Errors) > 0 {
		printErrors(res.Errors)
		return fmt.Errorf("%d file(s) could not be moved", len(res.Errors))
	}
	return nil
}

func runCopy(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("copy")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return usageError("expected a destination and at least one file")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// The argument order is the selection order.
	files := fs.Args()[1:]
	a.catalog.Set(files)
	for _, f := range files {
		if a.catalog.Select(f) == 0 {
			fmt.Fprintf(os.Stderr, "  skipping %s: not found\n", f)
		}
	}
	a.publish()

	res, err := a.files.Copy(a.catalog.SelectionOrder(), fs.Arg(0))
	if err != nil {
		return err
	}
	for _, t := range res.Transfers {
		fmt.Fprintf(out, "%s -> %s\n", t.From, filepath.Base(t.To))
	}
	fmt.Fprintf(out, "Copied %s file(s) to %s\n", humanize.Comma(int64(res.Copied)), fs.Arg(0))
	if len(res.Errors) > 0 {
		printErrors(res.Errors)
		return fmt.Errorf("%d file(s) could not be copied", len(res.Errors))
	}
	return nil
}

func runEmptyDirs(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("empty-dirs")
	trash := fs.Bool("trash", false, "move the empty folders to the trash")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("expected exactly one folder")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	dirs, err := fileops.FindEmptySubfolders(fs.Arg(0))
	if err != nil {
		return err
	}
	printPaths(out, dirs)
	if !*trash || len(dirs) == 0 {
		return nil
	}

	if !*yes {
		ok, err := confirm(os.Stdin, os.Stderr, fmt.Sprintf("Move %d folder(s) to %s?", len(dirs), a.files.TrashDir))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
	}

	res, err := a.files.Trash(dirs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Moved %d folder(s) to the trash\n", res.Trashed)
	if len(res.Errors) > 0 {
		printErrors(res.Errors)
		return fmt.Errorf("%d folder(s) could not be trashed", len(res.Errors))
	}
	return nil
}

// confirm asks a yes/no question on an interactive terminal and refuses
// when in is not one.
func confirm(in *os.File, prompt io.Writer, question string) (bool, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return false, errors.New("refusing to trash without a terminal; pass -yes")
	}
	fmt.Fprintf(prompt, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("export")
	crlf := fs.Bool("crlf", false, "write Windows line endings")
	output := fs.String("o", "", "output file (default stdout)")
	comment := fs.String("comment", "", "comment written above each prompt; {name} is the file name")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("expected at least one file")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var entries []export.Entry
	for _, path := range fs.Args() {
		res := a.extractor.Extract(path)
		if res.Kind != metadata.KindParsed {
			logging.Warn("Skipping %s: %v", path, res.AsError())
			continue
		}
		text := strings.ReplaceAll(*comment, "{name}", filepath.Base(path))
		entries = append(entries, export.NewEntry(res, text))
	}

	w := out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, entries, export.Options{CRLF: *crlf}); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logging.Info("Exported %d of %d prompts", len(entries), fs.NArg())
	return nil
}

func runThumb(ctx context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("thumb")
	size := fs.Int("size", 0, "longest side in pixels (default THUMBNAIL_SIZE)")
	output := fs.String("o", "", "output image; the format follows the extension")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return usageError("expected one file and -o")
	}
	format, err := imaging.FormatFromFilename(*output)
	if err != nil {
		return usageError(err.Error())
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if *size < 1 {
		*size = a.cfg.ThumbnailSize
	}
	bmp := a.cache.GetContext(ctx, fs.Arg(0), *size)
	if bmp == nil {
		return fmt.Errorf("could not decode %s", fs.Arg(0))
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}
	if err := bmp.Encode(f, format); err != nil {
		f.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %dx%d\n", *output, bmp.Width(), bmp.Height())
	return nil
}
