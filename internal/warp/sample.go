package warp

import "math"

// sampler reads band 1 at continuous pixel-edge coordinates, where (0, 0)
// is the outer corner of the upper-left pixel.
type sampler struct {
	src  Source
	w, h int
}

func (s *sampler) inside(px, py float64) bool {
	return px >= 0 && py >= 0 && px < float64(s.w) && py < float64(s.h)
}

// nearest returns the pixel containing (px, py).
func (s *sampler) nearest(px, py float64) (float64, bool, error) {
	if !s.inside(px, py) {
		return 0, false, nil
	}
	v, err := s.src.Value(1, int(px), int(py))
	if err != nil || math.IsNaN(v) {
		return 0, false, err
	}
	return v, true, nil
}

// bilinear interpolates between the four pixel centres around (px, py).
// Neighbours outside the image or holding nodata drop out and the remaining
// weights are renormalised.
func (s *sampler) bilinear(px, py float64) (float64, bool, error) {
	if !s.inside(px, py) {
		return 0, false, nil
	}
	fx, fy := px-0.5, py-0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	dx, dy := fx-float64(x0), fy-float64(y0)

	var sum, weight float64
	for _, n := range [4]struct {
		x, y int
		w    float64
	}{
		{x0, y0, (1 - dx) * (1 - dy)},
		{x0 + 1, y0, dx * (1 - dy)},
		{x0, y0 + 1, (1 - dx) * dy},
		{x0 + 1, y0 + 1, dx * dy},
	} {
		if n.w == 0 || n.x < 0 || n.y < 0 || n.x >= s.w || n.y >= s.h {
			continue
		}
		v, err := s.src.Value(1, n.x, n.y)
		if err != nil {
			return 0, false, err
		}
		if math.IsNaN(v) {
			continue
		}
		sum += v * n.w
		weight += n.w
	}
	if weight == 0 {
		return 0, false, nil
	}
	return sum / weight, true, nil
}
