package mediatypes

import "testing"

func TestContainerFor(t *testing.T) {
	tests := []struct {
		path     string
		expected Container
	}{
		{"/a/b.png", ContainerPNG},
		{"/a/b.PNG", ContainerPNG},
		{"b.jpg", ContainerJPEG},
		{"b.JpEg", ContainerJPEG},
		{"b.webp", ContainerWebP},
		{"b.gif", ContainerOther},
		{"b.BMP", ContainerOther},
		{"scan.tif", ContainerTIFF},
		{"scan.TIFF", ContainerTIFF},
		{"b.heic", ContainerUnknown},
		{"noext", ContainerUnknown},
		{"archive.png.txt", ContainerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ContainerFor(tt.path); got != tt.expected {
				t.Errorf("ContainerFor(%q) = %q, want %q", tt.path, got, tt.expected)
			}
			if got := IsSupportedImage(tt.path); got != (tt.expected != ContainerUnknown) {
				t.Errorf("IsSupportedImage(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	for _, k := range SortKeys {
		got, err := ParseSortKey(string(k))
		if err != nil || got != k {
			t.Errorf("ParseSortKey(%q) = %q, %v", k, got, err)
		}
	}

	if got, err := ParseSortKey(" DATE_DESC "); err != nil || got != SortDateDesc {
		t.Errorf("Expected case-insensitive parse, got %q, %v", got, err)
	}

	if _, err := ParseSortKey("size_asc"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestSortKeyProperties(t *testing.T) {
	tests := []struct {
		key        SortKey
		byDate     bool
		descending bool
	}{
		{SortFilenameAsc, false, false},
		{SortFilenameDesc, false, true},
		{SortDateAsc, true, false},
		{SortDateDesc, true, true},
	}
	for _, tt := range tests {
		if tt.key.ByDate() != tt.byDate || tt.key.Descending() != tt.descending {
			t.Errorf("%s: ByDate=%v Descending=%v", tt.key, tt.key.ByDate(), tt.key.Descending())
		}
	}
	if DefaultSortKey != SortFilenameAsc {
		t.Errorf("Expected default filename_asc, got %s", DefaultSortKey)
	}
}
