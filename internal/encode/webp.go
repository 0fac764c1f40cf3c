package encode

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes tiles as lossless (VP8L) WebP, keeping RGB under
// transparent pixels. It uses a system libwebp via purego when present and
// the bundled WASM build otherwise.
type WebPEncoder struct{}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Lossless: true, Exact: true}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string      { return "webp" }
func (e *WebPEncoder) ContentType() string { return "image/webp" }
