// Command rasterinfo prints the structure, georeferencing and band
// statistics of a GeoTIFF, and optionally how a tile relates to it.
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/petchppo/heattile/internal/coord"
	"github.com/petchppo/heattile/internal/raster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	tile    string
	band    int
	stats   bool
	samples int
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "rasterinfo [flags] <file.tif>",
		Short:         "Describe a GeoTIFF as heattile sees it",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := raster.Open(args[0], 0)
			if err != nil {
				return err
			}
			defer r.Close()
			return report(cmd.OutOrStdout(), r, opts)
		},
	}
	cmd.Flags().StringVar(&opts.tile, "tile", "", "also describe tile z/x/y against the raster")
	cmd.Flags().IntVar(&opts.band, "band", 1, "band for statistics and samples")
	cmd.Flags().BoolVar(&opts.stats, "stats", true, "compute band statistics (reads the whole band)")
	cmd.Flags().IntVar(&opts.samples, "samples", 5, "number of diagonal sample values to print")
	return cmd
}

func report(w io.Writer, r *raster.Reader, opts options) error {
	l := r.Layout()
	fmt.Fprintf(w, "File: %s\n", r.Path())
	fmt.Fprintf(w, "Size: %d x %d, %d band(s)\n", r.Width(), r.Height(), r.Bands())
	fmt.Fprintf(w, "Samples: format=%s bits=%d planar=%v big-endian=%v\n",
		sampleFormatName(l.SampleFormat), l.BitsPerSample, l.Planar, l.BigEndian)
	if l.Tiled {
		fmt.Fprintf(w, "Layout: tiled %dx%d\n", l.BlockWidth, l.BlockHeight)
	} else {
		fmt.Fprintf(w, "Layout: strips of %d rows\n", l.BlockHeight)
	}
	fmt.Fprintf(w, "Compression: %s, predictor=%d\n", l.Compression, l.Predictor)

	fmt.Fprintf(w, "EPSG: %d\n", r.EPSG())
	a := r.Transform()
	sx, sy := a.PixelSize()
	fmt.Fprintf(w, "GeoTransform: %s\n", a)
	fmt.Fprintf(w, "Pixel size (CRS units): %g x %g\n", sx, sy)
	b := r.Bounds()
	fmt.Fprintf(w, "Bounds (CRS): X=[%f, %f], Y=[%f, %f]\n", b.Min[0], b.Max[0], b.Min[1], b.Max[1])

	proj, err := coord.ForEPSG(r.EPSG())
	if err != nil {
		fmt.Fprintf(w, "Bounds (WGS84): unavailable: %v\n", err)
	} else if ll, err := coord.TransformBounds(b, proj, &coord.WGS84Identity{}, coord.BoundsDensifyPoints); err != nil {
		fmt.Fprintf(w, "Bounds (WGS84): unavailable: %v\n", err)
	} else {
		fmt.Fprintf(w, "Bounds (WGS84): lon=[%f, %f], lat=[%f, %f]\n", ll.Min[0], ll.Max[0], ll.Min[1], ll.Max[1])
		lat := ll.Center()[1]
		ground := groundPixelSize(ll, r.Width())
		fmt.Fprintf(w, "Native zoom: %d (%.2f m/pixel at lat %.4f)\n",
			coord.MaxZoomForResolution(ground, lat), ground, lat)
	}

	if nd, ok := r.NoData(); ok {
		fmt.Fprintf(w, "NoData: %g\n", nd)
	} else {
		fmt.Fprintln(w, "NoData: none")
	}

	if opts.samples > 0 {
		if err := printSamples(w, r, opts.band, opts.samples); err != nil {
			return err
		}
	}
	if opts.stats {
		s, err := r.Summarize(opts.band)
		if err != nil {
			return fmt.Errorf("band %d statistics: %w", opts.band, err)
		}
		fmt.Fprintf(w, "Band %d: valid=%d/%d min=%g max=%g mean=%g stddev=%g median=%g\n",
			opts.band, s.Valid, s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
	}

	if opts.tile != "" {
		t, err := parseTile(opts.tile)
		if err != nil {
			return err
		}
		return describeTile(w, r, t)
	}
	return nil
}

// groundPixelSize estimates the east-west pixel size in meters from the
// raster's WGS84 footprint.
func groundPixelSize(ll orb.Bound, width int) float64 {
	lat := ll.Center()[1]
	meters := (ll.Max[0] - ll.Min[0]) * coord.EarthCircumference / 360 * math.Cos(lat*math.Pi/180)
	return meters / float64(width)
}

func printSamples(w io.Writer, r *raster.Reader, band, count int) error {
	fmt.Fprintf(w, "Sample values (diagonal, band %d):\n", band)
	for i := 1; i <= count; i++ {
		col := i * r.Width() / (count + 1)
		row := i * r.Height() / (count + 1)
		v, err := r.Value(band, col, row)
		if err != nil {
			return fmt.Errorf("reading (%d, %d): %w", col, row, err)
		}
		fmt.Fprintf(w, "  (%d,%d): %g\n", col, row, v)
	}
	return nil
}

// parseTile parses "z/x/y".
func parseTile(s string) (coord.TileID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return coord.TileID{}, fmt.Errorf("tile %q: want z/x/y", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return coord.TileID{}, fmt.Errorf("tile %q: %w", s, err)
		}
		v[i] = n
	}
	return coord.TileID{Z: v[0], X: v[1], Y: v[2]}, nil
}

func describeTile(w io.Writer, r *raster.Reader, t coord.TileID) error {
	merc := coord.MercatorBounds(t)
	ll := coord.TileBounds(t)
	fmt.Fprintf(w, "Tile %d/%d/%d (z/x/y):\n", t.Z, t.X, t.Y)
	fmt.Fprintf(w, "  In pyramid: %v\n", t.Valid())
	fmt.Fprintf(w, "  Bounds (EPSG:3857): %s\n", formatBound(merc))
	fmt.Fprintf(w, "  Bounds (WGS84): %s\n", formatBound(ll))
	fmt.Fprintf(w, "  Resolution: %.3f m/px at centre latitude\n", coord.ResolutionAtLat(ll.Center()[1], t.Z))

	proj, err := coord.ForEPSG(r.EPSG())
	if err != nil {
		return err
	}
	native, err := coord.TransformBounds(merc, &coord.WebMercatorProj{}, proj, coord.BoundsDensifyPoints)
	if err != nil {
		return fmt.Errorf("transforming tile bounds: %w", err)
	}
	fmt.Fprintf(w, "  Bounds (EPSG:%d): %s\n", r.EPSG(), formatBound(native))
	fmt.Fprintf(w, "  Intersects: %v\n", coord.Overlaps(native, r.Bounds()))
	return nil
}

func formatBound(b orb.Bound) string {
	return fmt.Sprintf("[%f, %f, %f, %f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

func sampleFormatName(f int) string {
	switch f {
	case raster.SampleUint:
		return "uint"
	case raster.SampleInt:
		return "int"
	case raster.SampleFloat:
		return "float"
	}
	return fmt.Sprintf("unknown(%d)", f)
}
