package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"prompt-sorter/internal/logging"
	"prompt-sorter/internal/startup"
)

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, args []string, out io.Writer) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"scan":       {"scan [-sort key] <folder>", "Load thumbnails for a folder and list the images", runScan},
		"filter":     {"filter [-and] [-sort key] <folder> <terms>", "List images whose metadata contains the comma-separated terms", runFilter},
		"show":       {"show [-json] [-raw] <file>...", "Print the prompt metadata of images", runShow},
		"move":       {"move <dest> <file>...", "Move images into a folder, renaming on collision", runMove},
		"copy":       {"copy <dest> <file>...", "Copy images in the given order with a numeric prefix", runCopy},
		"empty-dirs": {"empty-dirs [-trash] [-yes] <folder>", "List empty subfolders, optionally moving them to the trash", runEmptyDirs},
		"export":     {"export [-crlf] [-o file] [-comment text] <file>...", "Write the positive prompts of images as a text list", runExport},
		"thumb":      {"thumb [-size n] -o out.png <file>", "Render one thumbnail to an image file", runThumb},
		"version":    {"version", "Print build information", runVersion},
	}
}

var commandOrder = []string{"scan", "filter", "show", "move", "copy", "empty-dirs", "export", "thumb", "version"}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	code := run(ctx, os.Args[1], os.Args[2:], os.Stdout)
	cancel()
	os.Exit(code)
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, name string, args []string, out io.Writer) int {
	switch name {
	case "help", "-h", "-help", "--help":
		printUsage(out)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		// Sanitize command input using allowlist to break taint chain
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(name)) //nolint:gosec // only [a-zA-Z0-9_-] pass sanitizeCommand
		printUsage(os.Stderr)
		return 1
	}

	if err := cmd.run(ctx, args, out); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "Error: %v\nUsage: promptsort %s\n", err, cmd.usage)
			return 2
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// usageError reports bad arguments to a subcommand.
type usageError string

func (e usageError) Error() string { return string(e) }

// newFlagSet returns a flag set that reports errors instead of exiting
// and registers the shared -v flag.
func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: promptsort %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	verbose := fs.Bool("v", false, "enable debug logging")
	return fs, verbose
}

// parseFlags parses args and applies -v.
func parseFlags(fs *flag.FlagSet, verbose *bool, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *verbose {
		logging.SetLevel(logging.LevelDebug)
	}
	return nil
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Prompt Sorter")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: promptsort <command> [flags] [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  THUMBNAIL_SIZE, CACHE_SIZE, CACHE_POLICY, SCAN_WORKERS, SORT_ORDER,")
	fmt.Fprintln(w, "  DECODE_TIMEOUT, SKIP_HIDDEN, VIPS_ENABLED, METADATA_DB, METRICS_ADDR,")
	fmt.Fprintln(w, "  MEMORY_LIMIT, MEMORY_RATIO, LOG_LEVEL")
}

func runVersion(_ context.Context, args []string, out io.Writer) error {
	fs, verbose := newFlagSet("version")
	if err := parseFlags(fs, verbose, args); err != nil {
		return err
	}
	info := startup.GetBuildInfo()
	fmt.Fprintf(out, "promptsort %s (commit %s, built %s, %s %s/%s)\n",
		info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
	return nil
}
