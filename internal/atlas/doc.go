// Package atlas prepares source images for texture-atlas packing.
//
// An Ingestor owns the working set of accepted rectangles. Each image it
// receives runs through a Normalizer, which applies a fixed sequence of steps:
//
//  1. Format normalization to 8-bit non-premultiplied RGBA.
//  2. Nine-patch detection: a logical name ending in ".9" marks a patch.
//  3. Nine-patch extraction: splits and pads are read from the 1-pixel control
//     border, which is then cropped away. Patches never rotate and are not
//     trimmed.
//  4. Whitespace trim: rows and columns whose alpha never exceeds the threshold
//     are removed from the edges.
//  5. Rescale by the ingestor's scale factor.
//  6. Naming: a trailing "_<digits>" becomes the rectangle index.
//
// With aliasing enabled the ingestor hashes the final pixels and folds images
// with identical content into the first rectangle that produced them, recording
// the newcomer as an Alias.
//
// The resulting rectangles are the input contract of a downstream bin packer:
// they carry the metadata needed to place them on a page and to write nine-patch
// descriptors, and (unless released in memory-limit mode) their pixels.
package atlas
