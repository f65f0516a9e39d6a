// Package media decodes content bytes into the frames and sample buffers the
// fingerprint pipeline consumes. Decoding is pure CPU work; nothing here
// touches the network.
package media

import (
	"bytes"
	"fmt"
	"image"

	// Registered stdlib decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// Extended formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a single image from raw bytes. The format name follows
// the registered decoder ("jpeg", "png", "gif", "webp", "bmp", "tiff").
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}
