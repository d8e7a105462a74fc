package export

import (
	"bytes"
	"reflect"
	"testing"

	"prompt-sorter/internal/metadata"
)

func TestPromptLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"cat, dog", []string{"cat, dog"}},
		{"cat\r\n\nblue sky", []string{"cat", "", "blue sky"}},
	}
	for _, tt := range tests {
		if got := PromptLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PromptLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntryPrompt(t *testing.T) {
	lines := []string{"masterpiece,", "  ", "cat, dog", "night"}
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"all", Entry{Lines: lines, All: true}, "masterpiece, cat, dog night"},
		{"checked", Entry{Lines: lines, Checked: []bool{true, true, false, true}}, "masterpiece, night"},
		{"short checked", Entry{Lines: lines, Checked: []bool{false, false, true}}, "cat, dog"},
		{"nothing checked", Entry{Lines: lines}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Prompt(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	entries := []Entry{
		{Comment: " first ", Lines: []string{"a", "b"}, All: true},
		{Lines: []string{"c"}, All: true},
		{Comment: "only comment"},
		{},
	}
	want := "# first\na b\nc\n# only comment"
	if got := Format(entries); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWriteCRLF(t *testing.T) {
	entries := []Entry{{Comment: "x", Lines: []string{"y"}, All: true}}

	var lf, crlf bytes.Buffer
	if err := Write(&lf, entries, Options{}); err != nil {
		t.Fatal(err)
	}
	if err := Write(&crlf, entries, Options{CRLF: true}); err != nil {
		t.Fatal(err)
	}
	if lf.String() != "# x\ny" {
		t.Errorf("Unexpected LF output %q", lf.String())
	}
	if crlf.String() != "# x\r\ny" {
		t.Errorf("Unexpected CRLF output %q", crlf.String())
	}
}

func TestNewEntry(t *testing.T) {
	res := metadata.Result{
		Path:   "/img/a.png",
		Kind:   metadata.KindParsed,
		Triple: metadata.Triple{Positive: "cat\ndog", Negative: "blurry"},
	}
	e := NewEntry(res, "pets")
	if e.Path != "/img/a.png" || e.Prompt() != "cat dog" {
		t.Errorf("Unexpected entry %+v", e)
	}
}
