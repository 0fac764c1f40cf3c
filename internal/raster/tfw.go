package raster

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readWorldFile parses a six-line ESRI world file. Lines 5 and 6 locate the
// centre of the upper-left pixel; the returned transform is shifted to its
// outer corner.
func readWorldFile(path string) (Affine, error) {
	f, err := os.Open(path)
	if err != nil {
		return Affine{}, fmt.Errorf("opening world file: %w", err)
	}
	defer f.Close()

	var vals []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(vals) < 6 {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Affine{}, fmt.Errorf("world file %s line %d: %w", path, len(vals)+1, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return Affine{}, fmt.Errorf("reading world file %s: %w", path, err)
	}
	if len(vals) < 6 {
		return Affine{}, fmt.Errorf("world file %s: expected 6 values, got %d", path, len(vals))
	}

	a := Affine{A: vals[0], D: vals[1], B: vals[2], E: vals[3], C: vals[4], F: vals[5]}
	a.C -= (a.A + a.B) / 2
	a.F -= (a.D + a.E) / 2
	return a, nil
}

// findWorldFile returns the sidecar world file next to a TIFF, or "".
func findWorldFile(tiffPath string) string {
	base := strings.TrimSuffix(tiffPath, filepath.Ext(tiffPath))
	for _, ext := range []string{".tfw", ".TFW", ".tifw", ".TIFW", ".wld", ".WLD"} {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext
		}
	}
	return ""
}

// inferEPSG guesses the CRS of a world-file raster from the magnitude of
// its upper-left corner. Returns 0 when nothing plausible matches.
func inferEPSG(a Affine) int {
	x, y := a.C, a.F
	switch {
	case x >= -180 && x <= 180 && y >= -90 && y <= 90:
		return 4326
	case x >= 2_480_000 && x <= 2_840_000 && y >= 1_070_000 && y <= 1_300_000:
		return 2056
	case math.Abs(x) <= 20_037_508.35 && math.Abs(y) <= 20_048_966.11:
		return 3857
	}
	return 0
}
