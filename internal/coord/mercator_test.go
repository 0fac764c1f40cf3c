package coord

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestMercatorBounds_WorldTile(t *testing.T) {
	b := MercatorBounds(TileID{0, 0, 0})
	want := orb.Bound{
		Min: orb.Point{-OriginShift, -OriginShift},
		Max: orb.Point{OriginShift, OriginShift},
	}
	for i := 0; i < 2; i++ {
		if math.Abs(b.Min[i]-want.Min[i]) > 1e-6 || math.Abs(b.Max[i]-want.Max[i]) > 1e-6 {
			t.Fatalf("MercatorBounds(0/0/0) = %v, want %v", b, want)
		}
	}
	if math.Abs(OriginShift-20037508.342789244) > 1e-6 {
		t.Errorf("OriginShift = %.9f", OriginShift)
	}
}

func TestMercatorBounds_Quadrants(t *testing.T) {
	tests := []struct {
		tile      TileID
		left, top float64
	}{
		{TileID{0, 0, 1}, -OriginShift, OriginShift},
		{TileID{1, 0, 1}, 0, OriginShift},
		{TileID{0, 1, 1}, -OriginShift, 0},
		{TileID{1, 1, 1}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.tile.String(), func(t *testing.T) {
			b := MercatorBounds(tt.tile)
			if math.Abs(b.Min[0]-tt.left) > 1e-6 || math.Abs(b.Max[1]-tt.top) > 1e-6 {
				t.Errorf("left/top = (%v, %v), want (%v, %v)", b.Min[0], b.Max[1], tt.left, tt.top)
			}
			if w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]; math.Abs(w-OriginShift) > 1e-6 || math.Abs(h-OriginShift) > 1e-6 {
				t.Errorf("size = %vx%v, want %v square", w, h, OriginShift)
			}
		})
	}
}

func TestMercatorBounds_AdjacentTilesShareEdges(t *testing.T) {
	a := MercatorBounds(TileID{5, 7, 4})
	right := MercatorBounds(TileID{6, 7, 4})
	below := MercatorBounds(TileID{5, 8, 4})
	if a.Max[0] != right.Min[0] {
		t.Errorf("right edge %v != neighbour left edge %v", a.Max[0], right.Min[0])
	}
	if a.Min[1] != below.Max[1] {
		t.Errorf("bottom edge %v != neighbour top edge %v", a.Min[1], below.Max[1])
	}
}

func TestMercatorBounds_EdgesExactAcrossZooms(t *testing.T) {
	for z := 1; z <= 24; z += 3 {
		n := 1 << z
		for _, i := range []int{0, n / 3, n/2 - 1, n - 2} {
			a := MercatorBounds(TileID{X: i, Y: i, Z: z})
			right := MercatorBounds(TileID{X: i + 1, Y: i, Z: z})
			below := MercatorBounds(TileID{X: i, Y: i + 1, Z: z})
			if a.Max[0] != right.Min[0] || a.Min[1] != below.Max[1] {
				t.Errorf("z=%d i=%d: edges %v/%v and %v/%v differ", z, i, a.Max[0], right.Min[0], a.Min[1], below.Max[1])
			}
		}
	}
	if b := MercatorBounds(TileID{X: 0, Y: 0, Z: 1}); b.Min[1] != 0 || b.Max[0] != 0 {
		t.Errorf("tile 0/0/1 = %v, want edges on the origin", b)
	}
}

func TestMercatorBounds_OutOfRangeTile(t *testing.T) {
	b := MercatorBounds(TileID{4, 0, 1})
	if b.Min[0] <= OriginShift {
		t.Errorf("tile x=4 at z=1 should start east of the world extent, got left=%v", b.Min[0])
	}
}

func TestMercatorToTile_RoundTrip(t *testing.T) {
	for z := 0; z <= 20; z++ {
		n := 1 << uint(z)
		samples := []TileID{
			{0, 0, z},
			{n - 1, n - 1, z},
			{n / 2, n / 3, z},
			{n / 5, n - 1 - n/7, z},
		}
		for _, tile := range samples {
			b := MercatorBounds(tile)
			got := MercatorToTile(b.Center(), z)
			if got != tile {
				t.Errorf("z=%d: %v -> bounds -> %v", z, tile, got)
			}
		}
	}
}

func TestTileBounds_WorldTile(t *testing.T) {
	b := TileBounds(TileID{0, 0, 0})
	if math.Abs(b.Min[0]+180) > 1e-9 || math.Abs(b.Max[0]-180) > 1e-9 {
		t.Errorf("lon range = [%v, %v], want [-180, 180]", b.Min[0], b.Max[0])
	}
	if b.Max[1] < 85.05 || b.Max[1] > 85.06 || b.Min[1] > -85.05 || b.Min[1] < -85.06 {
		t.Errorf("lat range = [%v, %v], want ~±85.0511", b.Min[1], b.Max[1])
	}
}

func TestTileBounds_MatchesMercatorBounds(t *testing.T) {
	wm := &WebMercatorProj{}
	tile := TileID{535, 358, 10}
	ll := TileBounds(tile)
	m := MercatorBounds(tile)

	x0, y0 := wm.FromWGS84(ll.Min[0], ll.Min[1])
	x1, y1 := wm.FromWGS84(ll.Max[0], ll.Max[1])
	for _, d := range []float64{x0 - m.Min[0], y0 - m.Min[1], x1 - m.Max[0], y1 - m.Max[1]} {
		if math.Abs(d) > 1e-3 {
			t.Fatalf("WGS84 bounds %v project to (%v,%v)-(%v,%v), want %v", ll, x0, y0, x1, y1, m)
		}
	}
}

func TestTileID_Valid(t *testing.T) {
	tests := []struct {
		tile TileID
		want bool
	}{
		{TileID{0, 0, 0}, true},
		{TileID{1, 0, 0}, false},
		{TileID{3, 3, 2}, true},
		{TileID{4, 3, 2}, false},
		{TileID{-1, 0, 3}, false},
		{TileID{0, 0, -1}, false},
	}
	for _, tt := range tests {
		if got := tt.tile.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.tile, got, tt.want)
		}
	}
}

func TestResolutionAtLat(t *testing.T) {
	res0 := ResolutionAtLat(0, 0)
	if want := EarthCircumference / 256; math.Abs(res0-want)/want > 1e-9 {
		t.Errorf("ResolutionAtLat(0, 0) = %v, want %v", res0, want)
	}
	if res1 := ResolutionAtLat(0, 1); math.Abs(res1-res0/2)/res0 > 1e-9 {
		t.Errorf("ResolutionAtLat(0, 1) = %v, want %v", res1, res0/2)
	}
	if res60 := ResolutionAtLat(60, 0); math.Abs(res60-res0/2)/res0 > 1e-9 {
		t.Errorf("ResolutionAtLat(60, 0) = %v, want %v", res60, res0/2)
	}
}

func TestMaxZoomForResolution(t *testing.T) {
	tests := []struct {
		pixel float64
		lat   float64
		want  int
	}{
		{EarthCircumference / 256, 0, 0},
		{EarthCircumference / 512, 0, 1},
		{EarthCircumference / 300, 0, 0},
		{1e9, 0, 0},
		{0, 0, MaxZoom},
		{ResolutionAtLat(47, 14), 47, 14},
	}
	for _, tt := range tests {
		if got := MaxZoomForResolution(tt.pixel, tt.lat); got != tt.want {
			t.Errorf("MaxZoomForResolution(%g, %g) = %d, want %d", tt.pixel, tt.lat, got, tt.want)
		}
	}
}
