package atlas

import (
	"image"
	"regexp"
	"strconv"
	"strings"

	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
	"github.com/ironsheep/atlas-prep-mcp/internal/ninepatch"
)

const patchSuffix = ".9"

var indexPattern = regexp.MustCompile(`^(.+)_(\d+)$`)

// Normalizer turns one decoded image into a Rect. It holds no state between
// calls and is safe for concurrent use.
type Normalizer struct {
	Settings Settings
	Scale    float64
}

// Process runs the normalization pipeline on src. name is the logical name with
// the file extension already removed.
//
// A nil Rect with a nil error means the image was blank and IgnoreBlankImages
// dropped it. Errors are *ninepatch.MalformedPatchError for bad control
// borders, *InvalidArgumentError for bad settings, or a wrapped
// ninepatch.ErrTooSmall.
func (n Normalizer) Process(src image.Image, name string) (*Rect, error) {
	if err := validateScale(n.Scale); err != nil {
		return nil, err
	}
	if err := n.Settings.Validate(); err != nil {
		return nil, err
	}

	img := imaging.ToNRGBA(src)

	var rect *Rect
	if strings.HasSuffix(name, patchSuffix) {
		name = strings.TrimSuffix(name, patchSuffix)
		var err error
		if rect, img, err = n.extractPatch(img, name); err != nil {
			return nil, err
		}
	} else {
		rect, img = n.stripWhitespace(img, imaging.HasAlpha(src))
		if rect == nil {
			return nil, nil
		}
	}

	if !rect.Blank {
		img = n.rescale(rect, img)
	}
	if rect.Pads != nil && rect.Splits != nil && *rect.Pads == *rect.Splits {
		rect.Pads = nil
	}

	rect.Name, rect.Index = n.splitIndex(name)
	rect.image = img
	rect.scale = n.Scale
	return rect, nil
}

func (n Normalizer) extractPatch(img *image.NRGBA, name string) (*Rect, *image.NRGBA, error) {
	splits, pads, err := ninepatch.Read(img, name)
	if err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	content := imaging.Crop(img, image.Rect(1, 1, b.Dx()-1, b.Dy()-1))
	w, h := content.Bounds().Dx(), content.Bounds().Dy()
	return &Rect{
		Width:          w,
		Height:         h,
		OriginalWidth:  w,
		OriginalHeight: h,
		IsPatch:        true,
		Splits:         splits,
		Pads:           pads,
		CanRotate:      false,
	}, content, nil
}

func (n Normalizer) rescale(rect *Rect, img *image.NRGBA) *image.NRGBA {
	if n.Scale == 1 {
		return img
	}
	s := n.Scale
	rect.Width = scaleDim(rect.Width, s)
	rect.Height = scaleDim(rect.Height, s)
	rect.OffsetX = ninepatch.RoundHalfUp(float64(rect.OffsetX) * s)
	rect.OffsetY = ninepatch.RoundHalfUp(float64(rect.OffsetY) * s)
	rect.OriginalWidth = scaleDim(rect.OriginalWidth, s)
	rect.OriginalHeight = scaleDim(rect.OriginalHeight, s)
	if rect.Splits != nil {
		scaled := rect.Splits.Scale(s)
		rect.Splits = &scaled
	}
	if rect.Pads != nil {
		scaled := rect.Pads.Scale(s)
		rect.Pads = &scaled
	}
	return imaging.Resample(img, rect.Width, rect.Height)
}

// scaleDim scales a pixel dimension, never below one pixel.
func scaleDim(v int, s float64) int {
	if d := ninepatch.RoundHalfUp(float64(v) * s); d > 0 {
		return d
	}
	return 1
}

func (n Normalizer) splitIndex(name string) (string, int) {
	if !n.Settings.UseIndexes {
		return name, -1
	}
	m := indexPattern.FindStringSubmatch(name)
	if m == nil {
		return name, -1
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		// Too many digits for an int; keep the name whole.
		return name, -1
	}
	return m[1], index
}
