package coord

import (
	"errors"
	"fmt"
)

// ErrUnknownCRS is returned when a raster's CRS has no registered projection.
var ErrUnknownCRS = errors.New("unknown CRS")

// Projection defines the interface for converting between a source CRS and WGS84.
// Points a projection cannot represent come back as NaN.
type Projection interface {
	// ToWGS84 converts source CRS coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to source CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG returns the EPSG code for this projection.
	EPSG() int
}

// ForEPSG returns a Projection for the given EPSG code. Codes without a
// closed-form implementation are looked up in the proj4 definition table.
func ForEPSG(epsg int) (Projection, error) {
	switch epsg {
	case 0:
		return nil, fmt.Errorf("raster carries no EPSG code: %w", ErrUnknownCRS)
	case 2056:
		return &SwissLV95{}, nil
	case 4326:
		return &WGS84Identity{}, nil
	case 3857, 900913:
		return &WebMercatorProj{}, nil
	}
	def, ok := proj4Definition(epsg)
	if !ok {
		return nil, fmt.Errorf("EPSG:%d: %w", epsg, ErrUnknownCRS)
	}
	return newProj4Projection(epsg, def)
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (w *WGS84Identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (w *WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (w *WGS84Identity) EPSG() int                                 { return 4326 }
