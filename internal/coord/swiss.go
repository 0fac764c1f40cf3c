package coord

// SwissLV95 implements the Projection interface for EPSG:2056 (CH1903+ / LV95)
// with swisstopo's published approximation formulas (~1 m accuracy).
type SwissLV95 struct{}

const (
	lv95FalseEasting  = 2_600_000
	lv95FalseNorthing = 1_200_000
	bernLatSeconds    = 169028.66
	bernLonSeconds    = 26782.5
)

func (s *SwissLV95) EPSG() int { return 2056 }

// ToWGS84 converts LV95 easting/northing to degrees.
func (s *SwissLV95) ToWGS84(easting, northing float64) (lon, lat float64) {
	// Offsets from Bern in units of 1000 km.
	e := (easting - lv95FalseEasting) / 1e6
	n := (northing - lv95FalseNorthing) / 1e6

	// Results are in units of 10000 arc seconds.
	lonAux := 2.6779094 + e*(4.728982+0.791484*n+0.1306*n*n-0.0436*e*e)
	latAux := 16.9023892 + 3.238272*n - e*e*(0.270978+0.0447*n) - n*n*(0.002528+0.0140*n)

	return lonAux * 100 / 36, latAux * 100 / 36
}

// FromWGS84 converts degrees to LV95 easting/northing.
func (s *SwissLV95) FromWGS84(lon, lat float64) (easting, northing float64) {
	phi := (lat*3600 - bernLatSeconds) / 10000
	lambda := (lon*3600 - bernLonSeconds) / 10000

	easting = 2_600_072.37 +
		lambda*(211_455.93-10_938.51*phi-0.36*phi*phi-44.54*lambda*lambda)
	northing = 1_200_147.07 +
		308_807.95*phi +
		lambda*lambda*(3_745.25-194.56*phi) +
		phi*phi*(76.63+119.79*phi)
	return
}
