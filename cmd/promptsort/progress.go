package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// progress draws a single updating status line when w is a terminal and
// stays silent otherwise, so piped output contains only results.
type progress struct {
	w       io.Writer
	enabled bool
	drawn   bool
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w}
	if f, ok := w.(*os.File); ok {
		p.enabled = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progress) update(loaded, total int) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.w, "\rLoading thumbnails: %s / %s", humanize.Comma(int64(loaded)), humanize.Comma(int64(total)))
	p.drawn = true
}

func (p *progress) done() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
