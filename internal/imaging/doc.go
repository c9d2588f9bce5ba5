// Package imaging provides the pixel-buffer and codec layer for the atlas pipeline.
//
// Every pipeline stage works on *image.NRGBA buffers: 8 bits per channel,
// non-premultiplied alpha, row-major, with bounds starting at (0,0). Stages never
// modify their input; each one that changes format or dimensions returns a freshly
// allocated buffer.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right)
//
// # Codecs
//
// Decoding goes through the Codec interface so callers can substitute their own
// decoder. DefaultCodec decodes PNG, JPEG, GIF, BMP, TIFF and WebP and encodes PNG.
// Decode failures are reported as *DecodeError carrying the source path.
//
// # Resampling
//
// Resample shrinks with an area-averaging box filter and enlarges with a bicubic
// (Catmull-Rom) filter. Both are deterministic for a given input.
//
// # Thread Safety
//
// All functions are stateless and may be called concurrently on different images.
package imaging
