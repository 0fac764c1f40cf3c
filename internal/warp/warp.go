// Package warp resamples a georeferenced raster onto a Web-Mercator tile grid.
package warp

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/petchppo/heattile/internal/coord"
	"github.com/petchppo/heattile/internal/raster"
)

// Source is the raster interface Reproject reads from.
type Source interface {
	Width() int
	Height() int
	EPSG() int
	Transform() raster.Affine
	Value(band, col, row int) (float64, error)
}

// Reproject samples band 1 of src onto the grid of tile t. Cells whose
// centre falls outside the source, or whose neighbourhood holds only
// nodata, stay 0.
func Reproject(ctx context.Context, src Source, t coord.TileID, mode Resampling) (*Grid, error) {
	proj, err := coord.ForEPSG(src.EPSG())
	if err != nil {
		return nil, err
	}
	inv, err := src.Transform().Inverse()
	if err != nil {
		return nil, err
	}

	grid := NewGrid(coord.TileSize, coord.MercatorBounds(t))
	s := sampler{src: src, w: src.Width(), h: src.Height()}
	merc := &coord.WebMercatorProj{}
	sameCRS := proj.EPSG() == merc.EPSG()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for row := 0; row < grid.Size; row++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("resampling row %d: panic: %v", row, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			for col := 0; col < grid.Size; col++ {
				x, y := grid.CellCenter(col, row)
				if !sameCRS {
					x, y = proj.FromWGS84(merc.ToWGS84(x, y))
					if math.IsNaN(x) || math.IsNaN(y) {
						continue
					}
				}
				px, py := inv.Apply(x, y)
				var v float64
				var ok bool
				if mode == Nearest {
					v, ok, err = s.nearest(px, py)
				} else {
					v, ok, err = s.bilinear(px, py)
				}
				if err != nil {
					return err
				}
				if ok {
					grid.Set(col, row, float32(v))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}
