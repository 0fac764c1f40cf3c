package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BandStats summarises the valid samples of one band.
type BandStats struct {
	Count  int // all pixels
	Valid  int // non-nodata, non-NaN pixels
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// Stats computes summary statistics over values, skipping NaN.
func Stats(values []float64) BandStats {
	s := BandStats{Count: len(values)}
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}
	s.Valid = len(valid)
	if s.Valid == 0 {
		s.Min, s.Max, s.Mean, s.StdDev, s.Median = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min, s.Max = floats.Min(valid), floats.Max(valid)
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	if s.Valid == 1 {
		s.StdDev = 0
	}
	sort.Float64s(valid)
	s.Median = stat.Quantile(0.5, stat.Empirical, valid, nil)
	return s
}

// Summarize reads band and computes its statistics.
func (r *Reader) Summarize(band int) (BandStats, error) {
	values, err := r.ReadBand(band)
	if err != nil {
		return BandStats{}, err
	}
	return Stats(values), nil
}
