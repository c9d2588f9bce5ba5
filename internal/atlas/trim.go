package atlas

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
)

// stripWhitespace trims rows (StripWhitespaceX), then columns within the
// surviving rows (StripWhitespaceY), whose alpha never exceeds the threshold.
// It returns a nil Rect when the image is blank and blank images are ignored.
func (n Normalizer) stripWhitespace(img *image.NRGBA, hasAlpha bool) (*Rect, *image.NRGBA) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	full := &Rect{
		Width:          width,
		Height:         height,
		OriginalWidth:  width,
		OriginalHeight: height,
		CanRotate:      true,
	}
	s := n.Settings
	if !hasAlpha || (!s.StripWhitespaceX && !s.StripWhitespaceY) {
		return full, img
	}

	threshold := uint8(s.AlphaThreshold)

	top, bottom := 0, height
	if s.StripWhitespaceX {
		rows := rowMaxAlpha(img)
		for top < height && rows[top] <= threshold {
			top++
		}
		for bottom > top && rows[bottom-1] <= threshold {
			bottom--
		}
	}

	left, right := 0, width
	if s.StripWhitespaceY {
		cols := columnMaxAlpha(img, top, bottom)
		for left < width && cols[left] <= threshold {
			left++
		}
		for right > left && cols[right-1] <= threshold {
			right--
		}
	}

	if right-left <= 0 || bottom-top <= 0 {
		if s.IgnoreBlankImages {
			return nil, nil
		}
		return &Rect{
			Width:          1,
			Height:         1,
			OriginalWidth:  1,
			OriginalHeight: 1,
			CanRotate:      true,
			Blank:          true,
		}, imaging.Transparent(1, 1)
	}

	if left == 0 && top == 0 && right == width && bottom == height {
		return full, img
	}
	return &Rect{
		Width:          right - left,
		Height:         bottom - top,
		OffsetX:        left,
		OffsetY:        top,
		OriginalWidth:  width,
		OriginalHeight: height,
		CanRotate:      true,
	}, imaging.Crop(img, image.Rect(left, top, right, bottom))
}

// rowMaxAlpha returns the highest alpha value of every row.
func rowMaxAlpha(img *image.NRGBA) []uint8 {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]uint8, height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+width*4]
			var m uint8
			for i := 3; i < len(row); i += 4 {
				if row[i] > m {
					m = row[i]
				}
			}
			out[y] = m
		}
	})
	return out
}

// columnMaxAlpha returns the highest alpha value of every column, looking only
// at rows top through bottom-1.
func columnMaxAlpha(img *image.NRGBA, top, bottom int) []uint8 {
	width := img.Bounds().Dx()
	out := make([]uint8, width)
	parallel.Line(width, func(start, end int) {
		for x := start; x < end; x++ {
			var m uint8
			for y := top; y < bottom; y++ {
				if a := img.Pix[y*img.Stride+x*4+3]; a > m {
					m = a
				}
			}
			out[x] = m
		}
	})
	return out
}
