package coord

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

const wgs84Def = "+proj=longlat +datum=WGS84 +no_defs"

var proj4Defs = map[int]string{
	2154:  "+proj=lcc +lat_0=46.5 +lon_0=3 +lat_1=49 +lat_2=44 +x_0=700000 +y_0=6600000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	3310:  "+proj=aea +lat_0=0 +lon_0=-120 +lat_1=34 +lat_2=40.5 +x_0=0 +y_0=-4000000 +datum=NAD83 +units=m +no_defs",
	3395:  "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	5070:  "+proj=aea +lat_0=23 +lon_0=-96 +lat_1=29.5 +lat_2=45.5 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
	27700: "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs",
}

// proj4Definition returns the proj4 string for a registered EPSG code.
// WGS84 UTM zones (326xx north, 327xx south) are generated.
func proj4Definition(epsg int) (string, bool) {
	if def, ok := proj4Defs[epsg]; ok {
		return def, true
	}
	var falseNorthing int
	switch {
	case epsg > 32600 && epsg <= 32660:
	case epsg > 32700 && epsg <= 32760:
		falseNorthing = 10000000
	default:
		return "", false
	}
	zone := epsg % 100
	centralMeridian := zone*6 - 183
	return fmt.Sprintf("+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=%d +datum=WGS84 +units=m +no_defs",
		centralMeridian, falseNorthing), true
}

// proj4Projection evaluates a proj4 definition through ctessum/geom/proj.
type proj4Projection struct {
	epsg    int
	toWGS   proj.Transformer
	fromWGS proj.Transformer
}

func newProj4Projection(epsg int, def string) (*proj4Projection, error) {
	src, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parsing proj4 definition for EPSG:%d: %w", epsg, err)
	}
	wgs, err := proj.Parse(wgs84Def)
	if err != nil {
		return nil, fmt.Errorf("parsing WGS84 definition: %w", err)
	}
	toWGS, err := src.NewTransform(wgs)
	if err != nil {
		return nil, fmt.Errorf("EPSG:%d to WGS84: %w", epsg, err)
	}
	fromWGS, err := wgs.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("WGS84 to EPSG:%d: %w", epsg, err)
	}
	return &proj4Projection{epsg: epsg, toWGS: toWGS, fromWGS: fromWGS}, nil
}

func (p *proj4Projection) EPSG() int { return p.epsg }

func (p *proj4Projection) ToWGS84(x, y float64) (lon, lat float64) {
	lon, lat, err := p.toWGS(x, y)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return lon, lat
}

func (p *proj4Projection) FromWGS84(lon, lat float64) (x, y float64) {
	x, y, err := p.fromWGS(lon, lat)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return x, y
}
