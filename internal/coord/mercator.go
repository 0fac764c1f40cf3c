package coord

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

const (
	// EarthCircumference is the equatorial circumference in meters at zoom 0.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference: the Web Mercator extent
	// on either side of the origin.
	OriginShift = EarthCircumference / 2.0
	// TileSize is the edge length of an output tile in pixels.
	TileSize = 256
	// MaxZoom is the deepest level of the tile pyramid.
	MaxZoom = 30
)

// TileID addresses a tile in the XYZ scheme, origin top-left.
// Values are not range-checked against the zoom level.
type TileID struct {
	X, Y, Z int
}

// String formats the tile as x/y/z.
func (t TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.X, t.Y, t.Z)
}

// Valid reports whether the tile exists in the pyramid at its zoom level.
// Rendering does not require it; tiles outside simply miss the raster.
func (t TileID) Valid() bool {
	if t.Z < 0 || t.Z > MaxZoom || t.X < 0 || t.Y < 0 {
		return false
	}
	n := 1 << uint(t.Z)
	return t.X < n && t.Y < n
}

// WebMercatorProj implements the Projection interface for EPSG:3857.
type WebMercatorProj struct{}

func (w *WebMercatorProj) EPSG() int { return 3857 }

func (w *WebMercatorProj) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / OriginShift * 180.0
	lat = math.Atan(math.Exp(y*math.Pi/OriginShift))*360.0/math.Pi - 90.0
	return
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return
}

// MercatorBounds returns the EPSG:3857 bounding box of a tile. Tiles outside
// the pyramid yield bounds outside the world extent rather than an error.
func MercatorBounds(t TileID) orb.Bound {
	size := EarthCircumference / math.Exp2(float64(t.Z))
	left := -OriginShift + float64(t.X)*size
	right := -OriginShift + float64(t.X+1)*size
	top := OriginShift - float64(t.Y)*size
	bottom := OriginShift - float64(t.Y+1)*size
	return orb.Bound{
		Min: orb.Point{left, bottom},
		Max: orb.Point{right, top},
	}
}

// TileBounds returns the WGS84 bounding box of a tile.
func TileBounds(t TileID) orb.Bound {
	n := math.Exp2(float64(t.Z))
	minLon := float64(t.X)/n*360.0 - 180.0
	maxLon := float64(t.X+1)/n*360.0 - 180.0
	minLat := math.Atan(math.Sinh(math.Pi*(1.0-2.0*float64(t.Y+1)/n))) * 180.0 / math.Pi
	maxLat := math.Atan(math.Sinh(math.Pi*(1.0-2.0*float64(t.Y)/n))) * 180.0 / math.Pi
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

// MercatorToTile returns the tile at zoom z containing the EPSG:3857 point p.
func MercatorToTile(p orb.Point, z int) TileID {
	ll := project.Mercator.ToWGS84(p)
	mt := maptile.At(ll, maptile.Zoom(z))
	return TileID{X: int(mt.X), Y: int(mt.Y), Z: int(mt.Z)}
}

// ResolutionAtLat returns the ground resolution in meters/pixel at the given latitude and zoom level.
func ResolutionAtLat(lat float64, zoom int) float64 {
	return EarthCircumference * math.Cos(lat*math.Pi/180.0) / math.Exp2(float64(zoom)) / float64(TileSize)
}

// MaxZoomForResolution returns the deepest zoom whose ground resolution at
// centerLat is still no finer than pixelSize meters.
func MaxZoomForResolution(pixelSize, centerLat float64) int {
	for z := MaxZoom; z >= 0; z-- {
		if ResolutionAtLat(centerLat, z) >= pixelSize {
			return z
		}
	}
	return 0
}
