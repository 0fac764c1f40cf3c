package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/webp"
)

// Decode reads a tile written by one of the encoders back into an image.
// WebP is decoded to RGBA; webp.Decode would go through 4:2:0 YUV and lose
// the exact colours of a lossless file.
func Decode(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png", "":
		return png.Decode(r)
	case "webp":
		w, err := webp.DecodeAll(r)
		if err != nil {
			return nil, err
		}
		if len(w.Image) == 0 {
			return nil, errors.New("webp: no frames")
		}
		return w.Image[0], nil
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}
