package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testImage creates a heat-map like NRGBA image with transparent cells.
func testImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a := uint8(200)
			if (x+y)%3 == 0 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(255 - x), A: a})
		}
	}
	return img
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		format   string
		wantFmt  string
		wantMIME string
		wantErr  bool
	}{
		{"png", "png", "image/png", false},
		{"PNG", "png", "image/png", false},
		{"", "png", "image/png", false},
		{"webp", "webp", "image/webp", false},
		{"jpeg", "", "", true},
		{"bmp", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := NewEncoder(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc.Format() != tt.wantFmt {
				t.Errorf("Format() = %q, want %q", enc.Format(), tt.wantFmt)
			}
			if enc.ContentType() != tt.wantMIME {
				t.Errorf("ContentType() = %q, want %q", enc.ContentType(), tt.wantMIME)
			}
		})
	}
}

func TestPNGEncoder_RoundTrip(t *testing.T) {
	img := testImage(64)
	data, err := (&PNGEncoder{}).Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("output is not a PNG")
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.NRGBA", decoded)
	}
	// Colour under zero alpha survives.
	if diff := cmp.Diff(img.Pix, got.Pix); diff != "" {
		t.Errorf("pixel mismatch (-want +got):\n%s", diff)
	}
}

func TestWebPEncoder_RoundTrip(t *testing.T) {
	img := testImage(32)
	data, err := (&WebPEncoder{}).Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) < 16 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Fatal("output is not a WebP")
	}
	if chunk := string(data[12:16]); chunk != "VP8L" {
		t.Fatalf("first chunk = %q, want VP8L (lossless)", chunk)
	}

	decoded, err := Decode(data, "webp")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := decoded.(*image.NYCbCrA); ok {
		t.Fatal("decoded through YUV")
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			want := img.NRGBAAt(x, y)
			got := color.NRGBAModel.Convert(decoded.At(x, y)).(color.NRGBA)
			if got.A != want.A || (want.A != 0 && !near(got, want)) {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestWebPEncoder_UniformHeatColour(t *testing.T) {
	want := color.NRGBA{R: 127, G: 255, B: 127, A: 200}
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = want.R, want.G, want.B, want.A
	}
	data, err := (&WebPEncoder{}).Encode(img)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data, "webp")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, p := range []image.Point{{0, 0}, {128, 128}, {255, 255}} {
		got := color.NRGBAModel.Convert(decoded.At(p.X, p.Y)).(color.NRGBA)
		if !near(got, want) {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
}

func TestEmptyTile(t *testing.T) {
	for _, enc := range []Encoder{&PNGEncoder{}, &WebPEncoder{}} {
		t.Run(enc.Format(), func(t *testing.T) {
			a, err := EmptyTile(enc)
			if err != nil {
				t.Fatalf("EmptyTile: %v", err)
			}
			b, err := EmptyTile(enc)
			if err != nil {
				t.Fatalf("EmptyTile: %v", err)
			}
			if !bytes.Equal(a, b) {
				t.Error("EmptyTile is not stable across calls")
			}
		})
	}
}

func TestEmptyTile_PNGIsTransparent(t *testing.T) {
	data, err := EmptyTile(&PNGEncoder{})
	if err != nil {
		t.Fatalf("EmptyTile: %v", err)
	}
	img, err := Decode(data, "png")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != TileSize || img.Bounds().Dy() != TileSize {
		t.Fatalf("size = %v, want %dx%d", img.Bounds(), TileSize, TileSize)
	}
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				t.Fatalf("pixel (%d, %d) alpha = %d, want 0", x, y, a)
			}
		}
	}
}

// near tolerates the rounding of a premultiplied decode.
func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) bool { return x-y <= 1 || y-x <= 1 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && a.A == b.A
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	if _, err := Decode([]byte{0}, "jpeg"); err == nil {
		t.Error("expected error for jpeg")
	}
}
