// Package ninepatch reads stretch and padding markers from the 1-pixel control
// border of a nine-patch image.
//
// The top row and left column carry the split (stretch) markers, the bottom row
// and right column carry the pad (content) markers. A marker run is opaque black
// (0,0,0,255) and ends at the first fully transparent pixel; anything else inside
// a run is a malformed image.
package ninepatch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrTooSmall is returned for images that cannot hold a control border around
// at least one content pixel.
var ErrTooSmall = errors.New("ninepatch image must be at least 3x3")

// Insets holds pixel distances measured inward from each edge of the content
// area (the image without its control border).
type Insets struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Scale multiplies every inset by f, rounding half up.
func (in Insets) Scale(f float64) Insets {
	return Insets{
		Left:   RoundHalfUp(float64(in.Left) * f),
		Right:  RoundHalfUp(float64(in.Right) * f),
		Top:    RoundHalfUp(float64(in.Top) * f),
		Bottom: RoundHalfUp(float64(in.Bottom) * f),
	}
}

// RoundHalfUp rounds v to the nearest integer, ties toward positive infinity.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MalformedPatchError reports a pixel inside a marker run that is neither
// opaque black nor fully transparent.
type MalformedPatchError struct {
	Name string
	X, Y int
	RGBA color.NRGBA
}

func (e *MalformedPatchError) Error() string {
	return fmt.Sprintf("invalid %s ninepatch split pixel at %d, %d, rgba: %d, %d, %d, %d",
		e.Name, e.X, e.Y, e.RGBA.R, e.RGBA.G, e.RGBA.B, e.RGBA.A)
}

// Read returns the splits and pads encoded in the border of img.
//
// splits is nil when the border has no split markers. pads is nil when the
// border has no pad markers; an axis without pad markers reports -1 for both of
// its insets. An axis whose marker never starts falls back to full stretch:
// the near inset is 0 and the far inset is the content size.
//
// Offsets are in content coordinates, i.e. already adjusted for the border that
// the caller crops away. img bounds must start at (0,0).
func Read(img *image.NRGBA, name string) (splits, pads *Insets, err error) {
	b := img.Bounds()
	if b.Min != (image.Point{}) {
		return nil, nil, fmt.Errorf("%s: bounds must start at (0,0), got %v", name, b.Min)
	}
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil, nil, fmt.Errorf("%s is %dx%d: %w", name, b.Dx(), b.Dy(), ErrTooSmall)
	}
	s := scanner{img: img, name: name}
	if splits, err = s.splits(); err != nil {
		return nil, nil, err
	}
	if pads, err = s.pads(); err != nil {
		return nil, nil, err
	}
	return splits, pads, nil
}

type scanner struct {
	img  *image.NRGBA
	name string
}

func (s scanner) width() int  { return s.img.Bounds().Dx() }
func (s scanner) height() int { return s.img.Bounds().Dy() }

func (s scanner) splits() (*Insets, error) {
	startX, err := s.point(1, 0, true, true)
	if err != nil {
		return nil, err
	}
	endX, err := s.point(startX, 0, false, true)
	if err != nil {
		return nil, err
	}
	// No start-mode rescan past the end: a start scan never fails.
	startY, err := s.point(0, 1, true, false)
	if err != nil {
		return nil, err
	}
	endY, err := s.point(0, startY, false, false)
	if err != nil {
		return nil, err
	}

	if startX == 0 && endX == 0 && startY == 0 && endY == 0 {
		return nil, nil
	}

	left, right := s.span(startX, endX, s.width())
	top, bottom := s.span(startY, endY, s.height())
	return &Insets{Left: left, Right: right, Top: top, Bottom: bottom}, nil
}

func (s scanner) pads() (*Insets, error) {
	bottomRow := s.height() - 1
	rightCol := s.width() - 1

	startX, err := s.point(1, bottomRow, true, true)
	if err != nil {
		return nil, err
	}
	startY, err := s.point(rightCol, 1, true, false)
	if err != nil {
		return nil, err
	}

	// No need to hunt for an end where no start was found.
	endX, endY := 0, 0
	if startX != 0 {
		if endX, err = s.point(startX+1, bottomRow, false, true); err != nil {
			return nil, err
		}
	}
	if startY != 0 {
		if endY, err = s.point(rightCol, startY+1, false, false); err != nil {
			return nil, err
		}
	}

	if startX == 0 && endX == 0 && startY == 0 && endY == 0 {
		return nil, nil
	}

	pads := &Insets{Left: -1, Right: -1, Top: -1, Bottom: -1}
	if startX != 0 || endX != 0 {
		pads.Left, pads.Right = s.span(startX, endX, s.width())
	}
	if startY != 0 || endY != 0 {
		pads.Top, pads.Bottom = s.span(startY, endY, s.height())
	}
	return pads, nil
}

// span converts a marker run found in border coordinates into near and far
// insets of the content area. size is the border-inclusive length of the axis.
func (s scanner) span(start, end, size int) (near, far int) {
	if start == 0 {
		return 0, size - 2
	}
	if end == 0 {
		// Run continues into the far corner.
		end = size - 1
	}
	return start - 1, size - 2 - (end - 1)
}

// point hunts along one axis starting at (x, y). With start set it returns the
// first opaque pixel; otherwise it returns the first transparent pixel and
// rejects anything that is not opaque black on the way. 0 means not found,
// which is safe because index 0 is always border.
func (s scanner) point(x, y int, start, xAxis bool) (int, error) {
	next, end := y, s.height()
	if xAxis {
		next, end = x, s.width()
	}
	var breakA uint8
	if start {
		breakA = 255
	}

	for ; next < end; next++ {
		if xAxis {
			x = next
		} else {
			y = next
		}
		c := s.img.NRGBAAt(x, y)
		if c.A == breakA {
			return next, nil
		}
		if !start && (c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255) {
			return 0, &MalformedPatchError{Name: s.name, X: x, Y: y, RGBA: c}
		}
	}
	return 0, nil
}
