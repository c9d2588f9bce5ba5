package atlas

import (
	"image"

	"github.com/ironsheep/atlas-prep-mcp/internal/ninepatch"
)

// Rect describes one processed image, ready to be placed by a packer.
type Rect struct {
	// Name is the logical name: root and extension stripped, ".9" and any
	// index suffix removed.
	Name string `json:"name"`

	// Index is the numeric suffix of the name, or -1.
	Index int `json:"index"`

	// Width and Height are the dimensions of the processed pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// OffsetX and OffsetY locate the trimmed region inside the untrimmed image,
	// measured from its top-left corner.
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`

	// OriginalWidth and OriginalHeight are the dimensions before trimming.
	OriginalWidth  int `json:"original_width"`
	OriginalHeight int `json:"original_height"`

	IsPatch   bool              `json:"is_patch"`
	Splits    *ninepatch.Insets `json:"splits,omitempty"`
	Pads      *ninepatch.Insets `json:"pads,omitempty"`
	CanRotate bool              `json:"can_rotate"`

	// Blank marks the 1x1 placeholder emitted for an image that trimmed to
	// nothing while IgnoreBlankImages is off.
	Blank bool `json:"blank,omitempty"`

	// Aliases lists the images later found to have identical pixels.
	Aliases []Alias `json:"aliases,omitempty"`

	// Source is the absolute path the image was read from, if any.
	Source string `json:"source,omitempty"`

	image *image.NRGBA
	scale float64
}

// Alias is an additional name that maps to the same packed pixels.
type Alias struct {
	Name           string `json:"name"`
	Index          int    `json:"index"`
	OffsetX        int    `json:"offset_x"`
	OffsetY        int    `json:"offset_y"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
}

func newAlias(r *Rect) Alias {
	return Alias{
		Name:           r.Name,
		Index:          r.Index,
		OffsetX:        r.OffsetX,
		OffsetY:        r.OffsetY,
		OriginalWidth:  r.OriginalWidth,
		OriginalHeight: r.OriginalHeight,
	}
}

// Image returns the processed pixels, or nil once they have been released.
// Use Ingestor.Pixels to get them back.
func (r *Rect) Image() *image.NRGBA {
	return r.image
}

// Loaded reports whether the pixels are held in memory.
func (r *Rect) Loaded() bool {
	return r.image != nil
}

// AliasNames returns the names of all aliases in the order they were found.
func (r *Rect) AliasNames() []string {
	names := make([]string, len(r.Aliases))
	for i, a := range r.Aliases {
		names[i] = a.Name
	}
	return names
}

// Status tells what happened to a submitted image.
type Status string

const (
	// StatusAdded means the image became a new rectangle.
	StatusAdded Status = "added"

	// StatusAliased means the image matched an existing rectangle and was
	// recorded as one of its aliases.
	StatusAliased Status = "aliased"

	// StatusSkipped means the image was blank and IgnoreBlankImages dropped it.
	StatusSkipped Status = "skipped"
)

// Result is the outcome of adding one image. For StatusAliased, Rect is the
// existing rectangle that absorbed the image. For StatusSkipped, Rect is nil.
type Result struct {
	Rect   *Rect  `json:"rect,omitempty"`
	Status Status `json:"status"`
}
