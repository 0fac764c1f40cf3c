// Package rastertest writes small GeoTIFF fixtures for tests.
package rastertest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// DataType selects the on-disk sample type.
type DataType int

const (
	Float32 DataType = iota
	Float64
	Uint8
	Uint16
	Int16
	Int32
)

func (d DataType) size() int {
	switch d {
	case Float64:
		return 8
	case Uint8:
		return 1
	case Uint16, Int16:
		return 2
	}
	return 4
}

func (d DataType) format() uint16 {
	switch d {
	case Float32, Float64:
		return 3
	case Int16, Int32:
		return 2
	}
	return 1
}

// Compression selects the block codec.
type Compression int

const (
	None Compression = iota
	Deflate
	LZW
	PackBits
	ZSTD
)

func (c Compression) tag() uint16 {
	switch c {
	case Deflate:
		return 8
	case LZW:
		return 5
	case PackBits:
		return 32773
	case ZSTD:
		return 50000
	}
	return 1
}

// GeoTIFF describes a fixture. The zero value plus Width and Height is a
// single-band float32 strip image with no georeferencing values set.
type GeoTIFF struct {
	Width, Height int
	Bands         int
	Type          DataType

	// Values returns the sample for band (0-based) at (col, row). nil is 0.
	Values func(band, col, row int) float64

	EPSG int
	// GeoTransform is in GDAL order: origin x, pixel width, row rotation,
	// origin y, column rotation, pixel height (negative for north-up).
	GeoTransform [6]float64
	// Matrix writes ModelTransformation instead of tiepoint and scale.
	Matrix bool
	// NoGeoTags omits all georeferencing, for world file tests.
	NoGeoTags bool

	TileSize     int // 0 writes strips
	RowsPerStrip int // 0 writes one strip
	Planar       bool
	Compression  Compression
	Predictor    int
	NoData       string
	BigEndian    bool
}

// NorthUp returns a GDAL geotransform for an unrotated grid.
func NorthUp(originX, originY, pixelSize float64) [6]float64 {
	return [6]float64{originX, pixelSize, 0, originY, 0, -pixelSize}
}

// Write encodes g into dir/name and returns the path.
func Write(t testing.TB, dir, name string, g GeoTIFF) string {
	t.Helper()
	data, err := g.Encode()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteWorldFile writes a .tfw next to a TIFF for geotransform gt.
func WriteWorldFile(t testing.TB, tiffPath string, gt [6]float64) string {
	t.Helper()
	path := tiffPath[:len(tiffPath)-len(filepath.Ext(tiffPath))] + ".tfw"
	// World files locate the centre of the upper-left pixel.
	cx := gt[0] + (gt[1]+gt[2])/2
	cy := gt[3] + (gt[4]+gt[5])/2
	body := fmt.Sprintf("%v\n%v\n%v\n%v\n%v\n%v\n", gt[1], gt[4], gt[2], gt[5], cx, cy)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// Encode renders the fixture as a classic TIFF.
func (g GeoTIFF) Encode() ([]byte, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", g.Width, g.Height)
	}
	if g.Bands == 0 {
		g.Bands = 1
	}
	var bo binary.ByteOrder = binary.LittleEndian
	if g.BigEndian {
		bo = binary.BigEndian
	}

	bw, bh := g.Width, g.Height
	if g.TileSize > 0 {
		bw, bh = g.TileSize, g.TileSize
	} else if g.RowsPerStrip > 0 {
		bh = g.RowsPerStrip
	}
	across := (g.Width + bw - 1) / bw
	down := (g.Height + bh - 1) / bh

	var buf bytes.Buffer
	buf.Write(make([]byte, 8))
	var offsets, counts []uint32

	planes := 1
	if g.Planar {
		planes = g.Bands
	}
	for p := 0; p < planes; p++ {
		for by := 0; by < down; by++ {
			for bx := 0; bx < across; bx++ {
				raw := g.block(bo, p, bx*bw, by*bh, bw, bh)
				enc, err := g.compress(raw)
				if err != nil {
					return nil, err
				}
				offsets = append(offsets, uint32(buf.Len()))
				counts = append(counts, uint32(len(enc)))
				buf.Write(enc)
				if buf.Len()%2 == 1 {
					buf.WriteByte(0)
				}
			}
		}
	}

	perSample := func(v uint16) []uint16 {
		out := make([]uint16, g.Bands)
		for i := range out {
			out[i] = v
		}
		return out
	}

	entries := []entry{
		longs(bo, 256, uint32(g.Width)),
		longs(bo, 257, uint32(g.Height)),
		shorts(bo, 258, perSample(uint16(g.Type.size()*8))...),
		shorts(bo, 259, g.Compression.tag()),
		shorts(bo, 262, 1),
		shorts(bo, 277, uint16(g.Bands)),
		shorts(bo, 284, planarConfig(g.Planar)),
		shorts(bo, 339, perSample(g.Type.format())...),
	}
	if g.Predictor > 1 {
		entries = append(entries, shorts(bo, 317, uint16(g.Predictor)))
	}
	if g.TileSize > 0 {
		entries = append(entries,
			longs(bo, 322, uint32(bw)),
			longs(bo, 323, uint32(bh)),
			longs(bo, 324, offsets...),
			longs(bo, 325, counts...))
	} else {
		entries = append(entries,
			longs(bo, 273, offsets...),
			longs(bo, 278, uint32(bh)),
			longs(bo, 279, counts...))
	}
	if !g.NoGeoTags {
		gt := g.GeoTransform
		if g.Matrix {
			entries = append(entries, doubles(bo, 34264,
				gt[1], gt[2], 0, gt[0],
				gt[4], gt[5], 0, gt[3],
				0, 0, 0, 0,
				0, 0, 0, 1))
		} else {
			entries = append(entries,
				doubles(bo, 33550, gt[1], -gt[5], 0),
				doubles(bo, 33922, 0, 0, 0, gt[0], gt[3], 0))
		}
		entries = append(entries, shorts(bo, 34735, geoKeys(g.EPSG)...))
	}
	if g.NoData != "" {
		entries = append(entries, entry{tag: 42113, typ: 2, count: uint32(len(g.NoData) + 1), data: append([]byte(g.NoData), 0)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdOff := uint32(buf.Len())
	extraOff := ifdOff + 2 + 12*uint32(len(entries)) + 4
	var dir, extra bytes.Buffer
	binary.Write(&dir, bo, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&dir, bo, e.tag)
		binary.Write(&dir, bo, e.typ)
		binary.Write(&dir, bo, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			dir.Write(v)
			continue
		}
		binary.Write(&dir, bo, extraOff+uint32(extra.Len()))
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	binary.Write(&dir, bo, uint32(0))

	out := buf.Bytes()
	if g.BigEndian {
		copy(out, "MM")
	} else {
		copy(out, "II")
	}
	bo.PutUint16(out[2:], 42)
	bo.PutUint32(out[4:], ifdOff)
	out = append(out, dir.Bytes()...)
	return append(out, extra.Bytes()...), nil
}

func planarConfig(planar bool) uint16 {
	if planar {
		return 2
	}
	return 1
}

func geoKeys(epsg int) []uint16 {
	if epsg == 0 {
		return []uint16{1, 1, 0, 1, 1025, 0, 1, 1}
	}
	model, key := uint16(1), uint16(3072)
	if epsg == 4326 {
		model, key = 2, 2048
	}
	return []uint16{
		1, 1, 0, 3,
		1024, 0, 1, model,
		1025, 0, 1, 1,
		key, 0, 1, uint16(epsg),
	}
}

// block encodes one block, padding past the image edge with zeros, and
// applies the predictor.
func (g GeoTIFF) block(bo binary.ByteOrder, plane, x0, y0, bw, bh int) []byte {
	size := g.Type.size()
	spp, first := g.Bands, 0
	if g.Planar {
		spp, first = 1, plane
	}
	rows := bh
	if g.TileSize == 0 {
		rows = min(bh, g.Height-y0)
	}
	out := make([]byte, bw*rows*spp*size)
	for y := 0; y < rows; y++ {
		for x := 0; x < bw; x++ {
			for s := 0; s < spp; s++ {
				var v float64
				col, row := x0+x, y0+y
				if g.Values != nil && col < g.Width && row < g.Height {
					v = g.Values(first+s, col, row)
				}
				g.put(out[((y*bw+x)*spp+s)*size:], bo, v)
			}
		}
	}
	switch g.Predictor {
	case 2:
		horizontalDiff(out, bo, size, bw*spp, spp)
	case 3:
		floatDiff(out, bo, size, bw*spp, spp)
	}
	return out
}

func (g GeoTIFF) put(p []byte, bo binary.ByteOrder, v float64) {
	switch g.Type {
	case Float32:
		bo.PutUint32(p, math.Float32bits(float32(v)))
	case Float64:
		bo.PutUint64(p, math.Float64bits(v))
	case Uint8:
		p[0] = uint8(v)
	case Uint16:
		bo.PutUint16(p, uint16(v))
	case Int16:
		bo.PutUint16(p, uint16(int16(v)))
	case Int32:
		bo.PutUint32(p, uint32(int32(v)))
	}
}

func horizontalDiff(buf []byte, bo binary.ByteOrder, size, rowLen, stride int) {
	rowBytes := rowLen * size
	for row := 0; row < len(buf); row += rowBytes {
		r := buf[row : row+rowBytes]
		for i := rowLen - 1; i >= stride; i-- {
			switch size {
			case 1:
				r[i] -= r[i-stride]
			case 2:
				bo.PutUint16(r[2*i:], bo.Uint16(r[2*i:])-bo.Uint16(r[2*(i-stride):]))
			case 4:
				bo.PutUint32(r[4*i:], bo.Uint32(r[4*i:])-bo.Uint32(r[4*(i-stride):]))
			}
		}
	}
}

// floatDiff splits each row into big-endian byte planes and differences
// them.
func floatDiff(buf []byte, bo binary.ByteOrder, size, rowLen, stride int) {
	rowBytes := rowLen * size
	tmp := make([]byte, rowBytes)
	for row := 0; row < len(buf); row += rowBytes {
		r := buf[row : row+rowBytes]
		for i := 0; i < rowLen; i++ {
			for b := 0; b < size; b++ {
				src := b
				if bo == binary.LittleEndian {
					src = size - 1 - b
				}
				tmp[b*rowLen+i] = r[i*size+src]
			}
		}
		for i := rowBytes - 1; i >= stride; i-- {
			tmp[i] -= tmp[i-stride]
		}
		copy(r, tmp)
	}
}

func (g GeoTIFF) compress(raw []byte) ([]byte, error) {
	switch g.Compression {
	case Deflate:
		var b bytes.Buffer
		zw := zlib.NewWriter(&b)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case LZW:
		return EncodeLZW(raw), nil
	case PackBits:
		return EncodePackBits(raw), nil
	case ZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	}
	return raw, nil
}

// EncodePackBits run-length encodes src.
func EncodePackBits(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && run < 128 && src[i+run] == src[i] {
			run++
		}
		if run >= 2 {
			out = append(out, byte(int8(1-run)), src[i])
			i += run
			continue
		}
		j := i + 1
		for j < len(src) && j-i < 128 && (j+1 >= len(src) || src[j] != src[j+1]) {
			j++
		}
		out = append(out, byte(j-i-1))
		out = append(out, src[i:j]...)
		i = j
	}
	return out
}

func shorts(bo binary.ByteOrder, tag uint16, v ...uint16) entry {
	b := make([]byte, 2*len(v))
	for i, x := range v {
		bo.PutUint16(b[2*i:], x)
	}
	return entry{tag: tag, typ: 3, count: uint32(len(v)), data: b}
}

func longs(bo binary.ByteOrder, tag uint16, v ...uint32) entry {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		bo.PutUint32(b[4*i:], x)
	}
	return entry{tag: tag, typ: 4, count: uint32(len(v)), data: b}
}

func doubles(bo binary.ByteOrder, tag uint16, v ...float64) entry {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		bo.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return entry{tag: tag, typ: 12, count: uint32(len(v)), data: b}
}
