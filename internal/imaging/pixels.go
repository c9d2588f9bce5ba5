package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ToNRGBA copies img into a new 8-bit non-premultiplied RGBA buffer whose
// bounds start at (0,0). The source is never aliased, even when it already is
// an *image.NRGBA.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// HasAlpha reports whether the color model of img can carry transparency.
func HasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return false
	}
	return true
}

// Crop extracts r from img into a new buffer.
func Crop(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}

// Transparent returns a new fully transparent width x height buffer.
func Transparent(width, height int) *image.NRGBA {
	return imaging.New(width, height, color.NRGBA{})
}

// Resample scales img to width x height. Shrinking averages source areas with a
// box filter, enlarging interpolates bicubically. A same-size request returns a
// copy.
func Resample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	switch {
	case width == b.Dx() && height == b.Dy():
		return imaging.Clone(img)
	case width <= b.Dx() && height <= b.Dy():
		return imaging.Resize(img, width, height, imaging.Box)
	default:
		return imaging.Resize(img, width, height, imaging.CatmullRom)
	}
}
