package atlas

import (
	"fmt"
	"math"
)

// Settings controls how images are normalized and registered.
type Settings struct {
	// AlphaThreshold is the highest alpha value (0-255) still treated as
	// whitespace when trimming.
	AlphaThreshold int

	// StripWhitespaceX trims transparent rows from the top and bottom edges.
	// The name follows the libGDX TexturePacker setting of the same name.
	StripWhitespaceX bool

	// StripWhitespaceY trims transparent columns from the left and right edges.
	StripWhitespaceY bool

	// IgnoreBlankImages drops images that trim down to nothing. When false such
	// images become a 1x1 transparent placeholder.
	IgnoreBlankImages bool

	// Alias folds images with identical pixels into a single rectangle.
	Alias bool

	// UseIndexes turns a trailing "_<digits>" in the name into the index.
	UseIndexes bool

	// LimitMemory releases the pixels of file-backed rectangles once they are
	// registered. Ingestor.Pixels decodes them again on demand.
	LimitMemory bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		AlphaThreshold:    0,
		IgnoreBlankImages: true,
		Alias:             true,
		UseIndexes:        true,
	}
}

// Validate reports settings that can never produce a rectangle.
func (s Settings) Validate() error {
	if s.AlphaThreshold < 0 || s.AlphaThreshold > 255 {
		return &InvalidArgumentError{Name: "alpha threshold", Value: fmt.Sprint(s.AlphaThreshold), Reason: "must be within 0-255"}
	}
	return nil
}

func validateScale(scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return &InvalidArgumentError{Name: "scale", Value: fmt.Sprint(scale), Reason: "must be a finite number > 0"}
	}
	return nil
}
