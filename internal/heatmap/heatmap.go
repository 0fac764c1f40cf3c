// Package heatmap turns a resampled value grid into a coloured RGBA image.
//
// Values are optionally filtered to [MinVal, MaxVal], masked where > 0,
// normalised through the display range and mapped to a fixed ramp: red rises
// with the value, green peaks at the middle of the range and blue falls.
package heatmap

import (
	"image"
	"math"

	"github.com/petchppo/heattile/internal/warp"
)

const (
	DefaultDisplayMin = 0.0
	DefaultDisplayMax = 2500.0
	// ValidAlpha is the opacity of cells with a positive value.
	ValidAlpha = 200
)

// Params holds the optional value bounds of a request.
type Params struct {
	MinVal *float64
	MaxVal *float64
}

// Filtering reports whether both bounds are set. A single bound does not
// filter.
func (p Params) Filtering() bool {
	return p.MinVal != nil && p.MaxVal != nil
}

// Filter zeroes every cell outside [MinVal, MaxVal] when both are set. The
// bounds are compared in float32. With MinVal > MaxVal or a NaN bound every
// cell is zeroed.
func (p Params) Filter(g *warp.Grid) {
	if !p.Filtering() {
		return
	}
	lo, hi := float32(*p.MinVal), float32(*p.MaxVal)
	for i, v := range g.Values {
		if !(v >= lo && v <= hi) {
			g.Values[i] = 0
		}
	}
}

// DisplayRange returns the normalisation range. Each end falls back to its
// default on its own.
func (p Params) DisplayRange() (lo, hi float64) {
	lo, hi = DefaultDisplayMin, DefaultDisplayMax
	if p.MinVal != nil {
		lo = *p.MinVal
	}
	if p.MaxVal != nil {
		hi = *p.MaxVal
	}
	return lo, hi
}

// Valid reports whether a cell value counts as data.
func Valid(v float32) bool { return v > 0 }

// CountValid returns the number of cells with data.
func CountValid(g *warp.Grid) int {
	n := 0
	for _, v := range g.Values {
		if Valid(v) {
			n++
		}
	}
	return n
}

// Normalize maps v into [0, 1] through [lo, hi] in float32 arithmetic; the
// span hi-lo is taken in float64 first. A degenerate range yields 0 or 1 by
// sign, and NaN yields 0.
func Normalize(v float32, lo, hi float64) float32 {
	span := float32(hi - lo)
	n := float32(v-float32(lo)) / span
	switch {
	case math.IsNaN(float64(n)):
		return 0
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

// Ramp returns the colour of normalised value n. Channels are truncated
// from float32 products.
func Ramp(n float32) (r, g, b uint8) {
	s := float32(math.Sin(float64(n * float32(math.Pi))))
	return channel(n * 255), channel(s * 255), channel((1 - n) * 255)
}

// channel truncates toward zero; the sine dips a hair below 0 at n=1.
func channel(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	return uint8(f)
}

// Colorize renders g into a non-premultiplied image. RGB is written for
// every cell; alpha is ValidAlpha where the cell holds data and 0 elsewhere.
func Colorize(g *warp.Grid, lo, hi float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Size, g.Size))
	for row := 0; row < g.Size; row++ {
		for col := 0; col < g.Size; col++ {
			v := g.At(col, row)
			r, gr, b := Ramp(Normalize(v, lo, hi))
			var a uint8
			if Valid(v) {
				a = ValidAlpha
			}
			i := img.PixOffset(col, row)
			img.Pix[i+0] = r
			img.Pix[i+1] = gr
			img.Pix[i+2] = b
			img.Pix[i+3] = a
		}
	}
	return img
}
