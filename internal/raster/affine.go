package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Affine maps pixel-edge coordinates (col, row) to CRS coordinates:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// (0, 0) is the outer corner of the upper-left pixel.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// NorthUp returns the transform of an unrotated grid whose upper-left corner
// is (originX, originY) with the given positive pixel sizes.
func NorthUp(originX, originY, sizeX, sizeY float64) Affine {
	return Affine{A: sizeX, C: originX, E: -sizeY, F: originY}
}

// Apply maps (col, row) to CRS coordinates.
func (a Affine) Apply(col, row float64) (x, y float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

// Inverse returns the transform mapping CRS coordinates back to (col, row).
func (a Affine) Inverse() (Affine, error) {
	det := a.A*a.E - a.B*a.D
	if det == 0 || math.IsNaN(det) {
		return Affine{}, fmt.Errorf("affine transform is not invertible")
	}
	return Affine{
		A: a.E / det,
		B: -a.B / det,
		C: (a.B*a.F - a.E*a.C) / det,
		D: -a.D / det,
		E: a.A / det,
		F: (a.D*a.C - a.A*a.F) / det,
	}, nil
}

// PixelSize returns the absolute ground size of one pixel along each axis.
func (a Affine) PixelSize() (x, y float64) {
	return math.Hypot(a.A, a.D), math.Hypot(a.B, a.E)
}

// Rotated reports whether the grid is not axis-aligned.
func (a Affine) Rotated() bool {
	return a.B != 0 || a.D != 0
}

// Bounds returns the CRS bounding box of a width x height grid.
func (a Affine) Bounds(width, height int) orb.Bound {
	w, h := float64(width), float64(height)
	var b orb.Bound
	for i, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := a.Apply(c[0], c[1])
		if i == 0 {
			b = orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x, y}}
			continue
		}
		b = b.Extend(orb.Point{x, y})
	}
	return b
}

// String formats the six coefficients in GDAL geotransform order.
func (a Affine) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g, %g, %g)", a.C, a.A, a.B, a.F, a.D, a.E)
}
