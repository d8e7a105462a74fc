package media

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// Bitmap is a decoded, downscaled thumbnail. It is read-only: it satisfies
// image.Image for drawing, and Clone returns a private mutable copy.
type Bitmap struct {
	img *image.NRGBA
}

func newBitmap(img image.Image) *Bitmap {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return &Bitmap{img: nrgba}
	}
	return &Bitmap{img: imaging.Clone(img)}
}

// ColorModel implements image.Image.
func (b *Bitmap) ColorModel() color.Model { return b.img.ColorModel() }

// Bounds implements image.Image.
func (b *Bitmap) Bounds() image.Rectangle { return b.img.Bounds() }

// At implements image.Image.
func (b *Bitmap) At(x, y int) color.Color { return b.img.At(x, y) }

// Width returns the thumbnail width in pixels.
func (b *Bitmap) Width() int { return b.img.Bounds().Dx() }

// Height returns the thumbnail height in pixels.
func (b *Bitmap) Height() int { return b.img.Bounds().Dy() }

// Clone returns a copy the caller may modify.
func (b *Bitmap) Clone() *image.NRGBA {
	return imaging.Clone(b.img)
}

// Encode writes the thumbnail in the given format.
func (b *Bitmap) Encode(w io.Writer, format imaging.Format) error {
	return imaging.Encode(w, b.img, format, imaging.JPEGQuality(90))
}
