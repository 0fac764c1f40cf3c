package raster

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/petchppo/heattile/internal/raster/rastertest"
)

func ramp(band, col, row int) float64 {
	return float64(band*10000 + row*100 + col)
}

func openFixture(t *testing.T, g rastertest.GeoTIFF) *Reader {
	t.Helper()
	path := rastertest.Write(t, t.TempDir(), "fixture.tif", g)
	r, err := Open(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReader_Layouts(t *testing.T) {
	base := rastertest.GeoTIFF{
		Width: 37, Height: 29,
		Values:       ramp,
		EPSG:         2056,
		GeoTransform: rastertest.NorthUp(2_600_000, 1_200_000, 10),
	}
	tests := []struct {
		name string
		mod  func(*rastertest.GeoTIFF)
	}{
		{"strip", func(g *rastertest.GeoTIFF) {}},
		{"strips of 4", func(g *rastertest.GeoTIFF) { g.RowsPerStrip = 4 }},
		{"tiled", func(g *rastertest.GeoTIFF) { g.TileSize = 16 }},
		{"deflate", func(g *rastertest.GeoTIFF) { g.TileSize = 16; g.Compression = rastertest.Deflate }},
		{"lzw", func(g *rastertest.GeoTIFF) { g.RowsPerStrip = 8; g.Compression = rastertest.LZW }},
		{"packbits", func(g *rastertest.GeoTIFF) { g.Compression = rastertest.PackBits }},
		{"zstd", func(g *rastertest.GeoTIFF) { g.TileSize = 32; g.Compression = rastertest.ZSTD }},
		{"float predictor", func(g *rastertest.GeoTIFF) { g.Compression = rastertest.Deflate; g.Predictor = 3 }},
		{"float64", func(g *rastertest.GeoTIFF) { g.Type = rastertest.Float64 }},
		{"int32 predictor", func(g *rastertest.GeoTIFF) {
			g.Type = rastertest.Int32
			g.Predictor = 2
			g.Compression = rastertest.LZW
		}},
		{"uint16 big-endian", func(g *rastertest.GeoTIFF) { g.Type = rastertest.Uint16; g.BigEndian = true }},
		{"float predictor big-endian", func(g *rastertest.GeoTIFF) {
			g.BigEndian = true
			g.Predictor = 3
			g.TileSize = 16
		}},
		{"matrix", func(g *rastertest.GeoTIFF) { g.Matrix = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.mod(&g)
			r := openFixture(t, g)

			require.Equal(t, 37, r.Width())
			require.Equal(t, 29, r.Height())
			require.Equal(t, 2056, r.EPSG())
			for _, p := range [][2]int{{0, 0}, {36, 0}, {0, 28}, {36, 28}, {17, 13}, {16, 16}} {
				got, err := r.Value(1, p[0], p[1])
				require.NoError(t, err)
				if want := ramp(0, p[0], p[1]); got != want {
					t.Errorf("Value(%d, %d) = %v, want %v", p[0], p[1], got, want)
				}
			}
		})
	}
}

func TestReader_Georeference(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{
		Width: 100, Height: 50,
		EPSG:         2056,
		GeoTransform: rastertest.NorthUp(2_600_000, 1_200_000, 2),
	})
	want := orb.Bound{Min: orb.Point{2_600_000, 1_199_900}, Max: orb.Point{2_600_200, 1_200_000}}
	require.Equal(t, want, r.Bounds())
	require.Equal(t, NorthUp(2_600_000, 1_200_000, 2, 2), r.Transform())
}

func TestReader_OutsideIsNaN(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{Width: 4, Height: 4, Values: ramp, EPSG: 3857})
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		v, err := r.Value(1, p[0], p[1])
		require.NoError(t, err)
		if !math.IsNaN(v) {
			t.Errorf("Value(%d, %d) = %v, want NaN", p[0], p[1], v)
		}
	}
	if _, err := r.Value(2, 0, 0); err == nil {
		t.Error("expected error for band 2 of a single-band raster")
	}
}

func TestReader_NoData(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{
		Width: 4, Height: 4,
		EPSG:   3857,
		NoData: "-9999",
		Values: func(_, col, row int) float64 {
			if col == row {
				return -9999
			}
			return 5
		},
	})
	nd, ok := r.NoData()
	require.True(t, ok)
	require.Equal(t, -9999.0, nd)

	v, err := r.Value(1, 2, 2)
	require.NoError(t, err)
	require.True(t, math.IsNaN(v), "nodata sample = %v, want NaN", v)

	v, err = r.Value(1, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5.0, v)
}

func TestReader_MultiBand(t *testing.T) {
	for _, planar := range []bool{false, true} {
		r := openFixture(t, rastertest.GeoTIFF{
			Width: 20, Height: 10, Bands: 3,
			Values: ramp, EPSG: 4326, Planar: planar,
			TileSize: 16, Compression: rastertest.Deflate,
			GeoTransform: rastertest.NorthUp(8, 47, 0.01),
		})
		require.Equal(t, 3, r.Bands())
		require.Equal(t, planar, r.Layout().Planar)
		for band := 1; band <= 3; band++ {
			got, err := r.Value(band, 19, 9)
			require.NoError(t, err)
			require.Equal(t, ramp(band-1, 19, 9), got, "planar=%v band=%d", planar, band)
		}
	}
}

func TestReader_ReadBand(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{
		Width: 21, Height: 19, Values: ramp, EPSG: 3857, TileSize: 16,
	})
	values, err := r.ReadBand(1)
	require.NoError(t, err)
	require.Len(t, values, 21*19)
	for row := 0; row < 19; row++ {
		for col := 0; col < 21; col++ {
			if got, want := values[row*21+col], ramp(0, col, row); got != want {
				t.Fatalf("ReadBand[%d, %d] = %v, want %v", col, row, got, want)
			}
		}
	}
}

func TestReader_WorldFile(t *testing.T) {
	dir := t.TempDir()
	gt := rastertest.NorthUp(2_600_000, 1_200_000, 5)
	path := rastertest.Write(t, dir, "plain.tif", rastertest.GeoTIFF{Width: 8, Height: 8, NoGeoTags: true})
	rastertest.WriteWorldFile(t, path, gt)

	r, err := Open(path, 0)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 2056, r.EPSG())
	a := r.Transform()
	if math.Abs(a.C-2_600_000) > 1e-6 || math.Abs(a.F-1_200_000) > 1e-6 || a.A != 5 || a.E != -5 {
		t.Errorf("world file transform = %v", a)
	}
}

func TestReader_NoGeoreference(t *testing.T) {
	path := rastertest.Write(t, t.TempDir(), "bare.tif", rastertest.GeoTIFF{Width: 8, Height: 8, NoGeoTags: true})
	if _, err := Open(path, 0); err == nil {
		t.Error("expected error for raster without georeferencing")
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.tif")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	junk := filepath.Join(dir, "junk.tif")
	require.NoError(t, os.WriteFile(junk, []byte("this is not a tiff file"), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.tif"), empty, junk} {
		if _, err := Open(path, 0); err == nil {
			t.Errorf("Open(%s): expected error", filepath.Base(path))
		}
	}
}

func TestValidate_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		ifd  IFD
	}{
		{"jpeg", IFD{Width: 1, Height: 1, SamplesPerPixel: 1, Compression: compressionJPEG, SampleFormat: SampleUint, BitsPerSample: []uint16{8}, Predictor: 1}},
		{"12-bit", IFD{Width: 1, Height: 1, SamplesPerPixel: 1, Compression: 1, SampleFormat: SampleUint, BitsPerSample: []uint16{12}, Predictor: 1}},
		{"16-bit float", IFD{Width: 1, Height: 1, SamplesPerPixel: 1, Compression: 1, SampleFormat: SampleFloat, BitsPerSample: []uint16{16}, Predictor: 1}},
		{"complex", IFD{Width: 1, Height: 1, SamplesPerPixel: 1, Compression: 1, SampleFormat: 6, BitsPerSample: []uint16{32}, Predictor: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validate(&tt.ifd); !errors.Is(err, ErrUnsupported) {
				t.Errorf("validate = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestReader_Layout(t *testing.T) {
	r := openFixture(t, rastertest.GeoTIFF{
		Width: 40, Height: 40, EPSG: 3857,
		TileSize: 16, Compression: rastertest.ZSTD, Predictor: 3,
	})
	l := r.Layout()
	require.Equal(t, Layout{
		Tiled: true, BlockWidth: 16, BlockHeight: 16,
		Compression: "zstd", Predictor: 3,
		SampleFormat: SampleFloat, BitsPerSample: 32,
	}, l)
}
