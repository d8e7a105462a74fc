package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Container identifies the file format that carries embedded metadata.
type Container string

const (
	// ContainerPNG is a PNG file; metadata lives in text chunks.
	ContainerPNG Container = "png"
	// ContainerJPEG is a JPEG file; metadata lives in the EXIF UserComment.
	ContainerJPEG Container = "jpeg"
	// ContainerWebP is a WebP file; metadata lives in the EXIF UserComment.
	ContainerWebP Container = "webp"
	// ContainerTIFF is a TIFF file; the file itself is the EXIF structure.
	ContainerTIFF Container = "tiff"
	// ContainerOther is a displayable image that carries no prompt
	// metadata (GIF, BMP).
	ContainerOther Container = "other"
	// ContainerUnknown is anything else.
	ContainerUnknown Container = "unknown"
)

// ImageExtensions maps lowercase extensions to their container.
var ImageExtensions = map[string]Container{
	".png":  ContainerPNG,
	".jpg":  ContainerJPEG,
	".jpeg": ContainerJPEG,
	".webp": ContainerWebP,
	".tif":  ContainerTIFF,
	".tiff": ContainerTIFF,
	".gif":  ContainerOther,
	".bmp":  ContainerOther,
}

// Containers lists every supported container, for metric label setup.
var Containers = []Container{ContainerPNG, ContainerJPEG, ContainerWebP, ContainerTIFF, ContainerOther, ContainerUnknown}

// ContainerFor returns the container for a path based on its extension.
func ContainerFor(path string) Container {
	if c, ok := ImageExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return ContainerUnknown
}

// IsSupportedImage reports whether the path has a supported image extension.
// Matching is case-insensitive.
func IsSupportedImage(path string) bool {
	return ContainerFor(path) != ContainerUnknown
}

// SortKey selects the ordering of the display list.
type SortKey string

const (
	// SortFilenameAsc orders by lowercased base name, A to Z.
	SortFilenameAsc SortKey = "filename_asc"
	// SortFilenameDesc orders by lowercased base name, Z to A.
	SortFilenameDesc SortKey = "filename_desc"
	// SortDateAsc orders by modification time, oldest first.
	SortDateAsc SortKey = "date_asc"
	// SortDateDesc orders by modification time, newest first.
	SortDateDesc SortKey = "date_desc"

	// DefaultSortKey is used when no order has been chosen.
	DefaultSortKey = SortFilenameAsc
)

// SortKeys lists every valid sort key.
var SortKeys = []SortKey{SortFilenameAsc, SortFilenameDesc, SortDateAsc, SortDateDesc}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range SortKeys {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ByDate reports whether the key orders by modification time.
func (k SortKey) ByDate() bool {
	return k == SortDateAsc || k == SortDateDesc
}

// Descending reports whether the key orders in reverse.
func (k SortKey) Descending() bool {
	return k == SortFilenameDesc || k == SortDateDesc
}
