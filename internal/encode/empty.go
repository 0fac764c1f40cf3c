package encode

import "image"

// TileSize is the edge length of every encoded tile.
const TileSize = 256

// EmptyTile encodes a fully transparent tile with enc. The result is the
// same on every call for a given encoder.
func EmptyTile(enc Encoder) ([]byte, error) {
	return enc.Encode(image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize)))
}
