package coord

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BoundsDensifyPoints is the number of intermediate points sampled along each
// edge when a bounding box is carried between CRSs.
const BoundsDensifyPoints = 21

// TransformBounds carries a bounding box from one CRS to another by projecting
// points along its edges and taking the extremes. It is a bounding-box
// approximation, not a per-pixel transform.
func TransformBounds(b orb.Bound, from, to Projection, densify int) (orb.Bound, error) {
	if from.EPSG() == to.EPSG() {
		return b, nil
	}
	if densify < 0 {
		densify = 0
	}

	out := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	add := func(x, y float64) {
		lon, lat := from.ToWGS84(x, y)
		tx, ty := to.FromWGS84(lon, lat)
		out.Min[0] = math.Min(out.Min[0], tx)
		out.Min[1] = math.Min(out.Min[1], ty)
		out.Max[0] = math.Max(out.Max[0], tx)
		out.Max[1] = math.Max(out.Max[1], ty)
	}

	steps := densify + 1
	dx := (b.Max[0] - b.Min[0]) / float64(steps)
	dy := (b.Max[1] - b.Min[1]) / float64(steps)
	for i := 0; i <= steps; i++ {
		x := b.Min[0] + float64(i)*dx
		y := b.Min[1] + float64(i)*dy
		add(x, b.Min[1])
		add(x, b.Max[1])
		add(b.Min[0], y)
		add(b.Max[0], y)
	}

	for _, v := range []float64{out.Min[0], out.Min[1], out.Max[0], out.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return orb.Bound{}, fmt.Errorf("EPSG:%d to EPSG:%d: bounds not representable", from.EPSG(), to.EPSG())
		}
	}
	return out, nil
}

// Overlaps reports whether two boxes share a region of positive area.
// Boxes that only touch along an edge do not overlap.
func Overlaps(a, b orb.Bound) bool {
	return !(a.Max[0] <= b.Min[0] || a.Min[0] >= b.Max[0] ||
		a.Max[1] <= b.Min[1] || a.Min[1] >= b.Max[1])
}
