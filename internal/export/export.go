// Package export turns the positive prompts of selected images into a
// plain text list, one optional "# comment" line and one prompt line per
// image.
package export

import (
	"bufio"
	"io"
	"strings"

	"prompt-sorter/internal/metadata"
)

// Entry is one image in an export.
type Entry struct {
	Path    string
	Comment string
	// Lines are the positive prompt split on newlines.
	Lines []string
	// Checked marks which Lines are included. Ignored when All is set.
	Checked []bool
	// All includes every non-blank line.
	All bool
}

// Options controls Write.
type Options struct {
	// CRLF writes Windows line endings.
	CRLF bool
}

// PromptLines splits a positive prompt into lines, keeping commas intact.
func PromptLines(positive string) []string {
	if positive == "" {
		return nil
	}
	lines := strings.Split(positive, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// NewEntry builds an entry from an extraction result with every line
// selected.
func NewEntry(res metadata.Result, comment string) Entry {
	return Entry{Path: res.Path, Comment: comment, Lines: PromptLines(res.Triple.Positive), All: true}
}

// Prompt joins the included, non-blank lines with a single space.
func (e Entry) Prompt() string {
	var selected []string
	for i, line := range e.Lines {
		if !e.All && (i >= len(e.Checked) || !e.Checked[i]) {
			continue
		}
		if strings.TrimSpace(line) != "" {
			selected = append(selected, line)
		}
	}
	return strings.Join(selected, " ")
}

// Format renders entries with "\n" line endings. Empty comments and empty
// prompts produce no line.
func Format(entries []Entry) string {
	var out []string
	for _, e := range entries {
		if c := strings.TrimSpace(e.Comment); c != "" {
			out = append(out, "# "+c)
		}
		if p := strings.TrimSpace(e.Prompt()); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// Write writes Format(entries) to w.
func Write(w io.Writer, entries []Entry, opts Options) error {
	text := Format(entries)
	if opts.CRLF {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(text); err != nil {
		return err
	}
	return bw.Flush()
}
