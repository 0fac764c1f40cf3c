package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petchppo/heattile/internal/raster/rastertest"
)

func TestStats(t *testing.T) {
	s := Stats([]float64{1, 2, 3, 4, math.NaN(), 10})
	require.Equal(t, 6, s.Count)
	require.Equal(t, 5, s.Valid)
	require.Equal(t, 1.0, s.Min)
	require.Equal(t, 10.0, s.Max)
	require.InDelta(t, 4.0, s.Mean, 1e-12)
	require.Equal(t, 3.0, s.Median)
	require.Greater(t, s.StdDev, 0.0)
}

func TestStats_NoValid(t *testing.T) {
	s := Stats([]float64{math.NaN(), math.NaN()})
	require.Equal(t, 0, s.Valid)
	require.True(t, math.IsNaN(s.Mean))
}

func TestReader_Summarize(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{
		Width: 10, Height: 10, EPSG: 3857, NoData: "0",
		Values: func(_, col, _ int) float64 { return float64(col) },
	})
	s, err := r.Summarize(1)
	require.NoError(t, err)
	require.Equal(t, 100, s.Count)
	require.Equal(t, 90, s.Valid)
	require.Equal(t, 1.0, s.Min)
	require.Equal(t, 9.0, s.Max)
	require.InDelta(t, 5.0, s.Mean, 1e-12)
}
