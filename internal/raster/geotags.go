package raster

import (
	"math"
	"strconv"
	"strings"
)

// GeoTIFF GeoKey IDs.
const (
	gkModelType        = 1024
	gkRasterType       = 1025
	gkGeographicType   = 2048
	gkProjectedCSType  = 3072
	rasterPixelIsPoint = 2
	userDefinedKey     = 32767
)

// georeference derives the pixel-to-CRS transform from the model tags.
// ModelTransformation wins over tiepoint+scale when both are present.
func georeference(ifd *IFD) (Affine, bool) {
	var a Affine
	switch {
	case len(ifd.ModelTransformation) >= 16:
		m := ifd.ModelTransformation
		a = Affine{A: m[0], B: m[1], C: m[3], D: m[4], E: m[5], F: m[7]}
	case len(ifd.ModelTiepoint) >= 6 && len(ifd.ModelPixelScale) >= 2:
		tp, sc := ifd.ModelTiepoint, ifd.ModelPixelScale
		a = NorthUp(tp[3]-tp[0]*sc[0], tp[4]+tp[1]*sc[1], sc[0], sc[1])
	default:
		return Affine{}, false
	}

	// PixelIsPoint rasters anchor the tiepoint on the pixel centre.
	if geoKey(ifd.GeoKeys, gkRasterType) == rasterPixelIsPoint {
		a.C -= (a.A + a.B) / 2
		a.F -= (a.D + a.E) / 2
	}
	return a, true
}

// parseEPSG returns the projected or geographic CRS code, 0 if absent or
// user-defined.
func parseEPSG(geoKeys []uint16) int {
	for _, key := range []uint16{gkProjectedCSType, gkGeographicType} {
		if v := geoKey(geoKeys, key); v > 0 && v != userDefinedKey {
			return int(v)
		}
	}
	return 0
}

// geoKey returns the inline SHORT value of a GeoKey, 0 if absent.
func geoKey(geoKeys []uint16, id uint16) uint16 {
	if len(geoKeys) < 4 {
		return 0
	}
	n := int(geoKeys[3])
	for i := 0; i < n; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		// Location 0 means the value is stored inline.
		if geoKeys[base] == id && geoKeys[base+1] == 0 {
			return geoKeys[base+3]
		}
	}
	return 0
}

// parseNoData parses the GDAL_NODATA ASCII tag.
func parseNoData(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch strings.ToLower(s) {
	case "nan", "-nan":
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
