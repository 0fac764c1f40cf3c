// Package encode serialises tile images.
package encode

import (
	"fmt"
	"image"
	"strings"
)

// Encoder encodes an image into tile bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name ("png" or "webp").
	Format() string

	// ContentType returns the MIME type of the encoded bytes.
	ContentType() string
}

// NewEncoder returns the encoder for format.
func NewEncoder(format string) (Encoder, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return &PNGEncoder{}, nil
	case "webp":
		return &WebPEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported tile format: %q (supported: png, webp)", format)
	}
}
