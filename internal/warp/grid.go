package warp

import "github.com/paulmach/orb"

// Grid is a square float32 raster aligned to a Web-Mercator tile. Row 0 is
// the northern edge.
type Grid struct {
	Size   int
	Bounds orb.Bound // EPSG:3857 metres
	Values []float32
}

// NewGrid returns a zero-filled size x size grid covering bounds.
func NewGrid(size int, bounds orb.Bound) *Grid {
	return &Grid{Size: size, Bounds: bounds, Values: make([]float32, size*size)}
}

// At returns the value at (col, row).
func (g *Grid) At(col, row int) float32 {
	return g.Values[row*g.Size+col]
}

// Set stores v at (col, row).
func (g *Grid) Set(col, row int, v float32) {
	g.Values[row*g.Size+col] = v
}

// Resolution returns the grid cell size in metres.
func (g *Grid) Resolution() float64 {
	return (g.Bounds.Max[0] - g.Bounds.Min[0]) / float64(g.Size)
}

// CellCenter returns the EPSG:3857 coordinate of the centre of (col, row).
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	res := g.Resolution()
	return g.Bounds.Min[0] + (float64(col)+0.5)*res, g.Bounds.Max[1] - (float64(row)+0.5)*res
}
