package atlas

import (
	"crypto/sha1"
	"encoding/binary"
	"image"
	"math/big"
)

// Hash returns the content key used for aliasing.
//
// The digest is SHA-1 over every pixel as a big-endian ARGB word in row-major
// order (zero for pixels with alpha 0), followed by the big-endian 32-bit width and height. The key is the
// digest as an unsigned integer in lowercase hex, without leading zeros, so it
// matches keys produced by existing asset pipelines.
func Hash(img *image.NRGBA) string {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	h := sha1.New()
	row := make([]byte, width*4)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(src); i += 4 {
			// Fully transparent pixels hash as zero whatever color they carry.
			if src[i+3] == 0 {
				row[i], row[i+1], row[i+2], row[i+3] = 0, 0, 0, 0
				continue
			}
			row[i] = src[i+3]
			row[i+1] = src[i]
			row[i+2] = src[i+1]
			row[i+3] = src[i+2]
		}
		h.Write(row)
	}

	var size [8]byte
	binary.BigEndian.PutUint32(size[0:4], uint32(width))
	binary.BigEndian.PutUint32(size[4:8], uint32(height))
	h.Write(size[:])

	return new(big.Int).SetBytes(h.Sum(nil)).Text(16)
}
