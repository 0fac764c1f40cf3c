package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
)

// Layout describes how samples are stored on disk.
type Layout struct {
	Tiled         bool
	BlockWidth    int
	BlockHeight   int
	Compression   string
	Predictor     int
	SampleFormat  int
	BitsPerSample int
	Planar        bool
	BigEndian     bool
}

// Reader gives sample-level access to the first image of a GeoTIFF.
// The file is memory-mapped; a Reader is safe for concurrent use.
type Reader struct {
	path   string
	data   []byte
	unmap  func() error
	bo     binary.ByteOrder
	ifd    IFD
	affine Affine
	epsg   int

	noData    float64
	hasNoData bool

	bps    int // bytes per sample
	cache  *blockCache
	across int
	down   int
}

// Open maps path and parses its structure. blockCache is the number of
// decoded blocks to keep; <= 0 selects DefaultBlockCache.
func Open(path string, blockCache int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}

	r, err := newReader(path, data)
	if err != nil {
		unmap()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.unmap = unmap
	r.cache = newBlockCache(blockCache)
	return r, nil
}

func newReader(path string, data []byte) (*Reader, error) {
	ifds, bo, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	if len(ifds) == 0 {
		return nil, fmt.Errorf("no IFDs found")
	}

	r := &Reader{path: path, data: data, bo: bo, ifd: ifds[0]}
	ifd := &r.ifd
	if err := validate(ifd); err != nil {
		return nil, err
	}
	r.bps = ifd.bytesPerSample()
	r.across, r.down = ifd.BlocksAcross(), ifd.BlocksDown()

	want := r.across * r.down
	if ifd.PlanarConfig == 2 {
		want *= int(ifd.SamplesPerPixel)
	}
	if len(ifd.BlockOffsets) < want || len(ifd.BlockByteCounts) < want {
		return nil, fmt.Errorf("expected %d blocks, found %d offsets and %d byte counts",
			want, len(ifd.BlockOffsets), len(ifd.BlockByteCounts))
	}

	r.noData, r.hasNoData = parseNoData(ifd.NoData)
	r.epsg = parseEPSG(ifd.GeoKeys)

	a, ok := georeference(ifd)
	if !ok {
		wf := findWorldFile(path)
		if wf == "" {
			return nil, fmt.Errorf("no georeferencing tags and no world file")
		}
		if a, err = readWorldFile(wf); err != nil {
			return nil, err
		}
		if r.epsg == 0 {
			r.epsg = inferEPSG(a)
		}
	}
	r.affine = a
	return r, nil
}

func validate(ifd *IFD) error {
	if ifd.Width == 0 || ifd.Height == 0 {
		return fmt.Errorf("image has zero size %dx%d", ifd.Width, ifd.Height)
	}
	if ifd.SamplesPerPixel == 0 {
		return fmt.Errorf("image has no samples per pixel")
	}
	switch ifd.Compression {
	case compressionNone, compressionLZW, compressionDeflate, compressionAdobeZip,
		compressionPackBits, compressionZSTD:
	default:
		return fmt.Errorf("%w: compression %s", ErrUnsupported, compressionName(ifd.Compression))
	}
	for _, b := range ifd.BitsPerSample {
		if b != ifd.BitsPerSample[0] {
			return fmt.Errorf("%w: mixed bits per sample %v", ErrUnsupported, ifd.BitsPerSample)
		}
	}
	bits := 8
	if len(ifd.BitsPerSample) > 0 {
		bits = int(ifd.BitsPerSample[0])
	}
	switch ifd.SampleFormat {
	case SampleUint, SampleInt:
		if bits != 8 && bits != 16 && bits != 32 && bits != 64 {
			return fmt.Errorf("%w: %d-bit integer samples", ErrUnsupported, bits)
		}
	case SampleFloat:
		if bits != 32 && bits != 64 {
			return fmt.Errorf("%w: %d-bit float samples", ErrUnsupported, bits)
		}
	default:
		return fmt.Errorf("%w: sample format %d", ErrUnsupported, ifd.SampleFormat)
	}
	switch ifd.Predictor {
	case predictorNone, predictorHorizontal, predictorFloat:
	default:
		return fmt.Errorf("%w: predictor %d", ErrUnsupported, ifd.Predictor)
	}
	return nil
}

// Close releases the mapping and the block cache.
func (r *Reader) Close() error {
	if r.cache != nil {
		r.cache.stop()
		r.cache = nil
	}
	if r.unmap == nil {
		return nil
	}
	err := r.unmap()
	r.unmap, r.data = nil, nil
	return err
}

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// Width returns the image width in pixels.
func (r *Reader) Width() int { return int(r.ifd.Width) }

// Height returns the image height in pixels.
func (r *Reader) Height() int { return int(r.ifd.Height) }

// Bands returns the number of samples per pixel.
func (r *Reader) Bands() int { return int(r.ifd.SamplesPerPixel) }

// EPSG returns the CRS code, 0 if unknown.
func (r *Reader) EPSG() int { return r.epsg }

// Transform returns the pixel-to-CRS transform.
func (r *Reader) Transform() Affine { return r.affine }

// Bounds returns the raster extent in its own CRS.
func (r *Reader) Bounds() orb.Bound {
	return r.affine.Bounds(r.Width(), r.Height())
}

// NoData returns the nodata value, if the file declares one.
func (r *Reader) NoData() (float64, bool) { return r.noData, r.hasNoData }

// Layout reports the on-disk storage of the samples.
func (r *Reader) Layout() Layout {
	bw, bh := r.ifd.BlockSize()
	return Layout{
		Tiled:         r.ifd.Tiled(),
		BlockWidth:    bw,
		BlockHeight:   bh,
		Compression:   compressionName(r.ifd.Compression),
		Predictor:     int(r.ifd.Predictor),
		SampleFormat:  int(r.ifd.SampleFormat),
		BitsPerSample: r.bps * 8,
		Planar:        r.ifd.PlanarConfig == 2,
		BigEndian:     r.bo == binary.BigEndian,
	}
}

// Value returns band's sample at (col, row). Pixels outside the image and
// nodata samples are NaN. band is 1-based.
func (r *Reader) Value(band, col, row int) (float64, error) {
	if band < 1 || band > r.Bands() {
		return 0, fmt.Errorf("band %d out of range [1, %d]", band, r.Bands())
	}
	if col < 0 || row < 0 || col >= r.Width() || row >= r.Height() {
		return math.NaN(), nil
	}
	bw, bh := r.ifd.BlockSize()
	b, err := r.block(band, col/bw, row/bh)
	if err != nil {
		return 0, err
	}
	x, y := col%bw, row%bh
	if y >= b.height || x >= b.width {
		return math.NaN(), nil
	}
	return b.values[y*b.width+x], nil
}

// ReadBand returns the whole band row-major, with nodata as NaN.
func (r *Reader) ReadBand(band int) ([]float64, error) {
	if band < 1 || band > r.Bands() {
		return nil, fmt.Errorf("band %d out of range [1, %d]", band, r.Bands())
	}
	w, h := r.Width(), r.Height()
	bw, bh := r.ifd.BlockSize()
	out := make([]float64, w*h)
	for by := 0; by < r.down; by++ {
		for bx := 0; bx < r.across; bx++ {
			b, err := r.block(band, bx, by)
			if err != nil {
				return nil, err
			}
			for y := 0; y < b.height && by*bh+y < h; y++ {
				x0 := bx * bw
				n := min(b.width, w-x0)
				copy(out[(by*bh+y)*w+x0:], b.values[y*b.width:y*b.width+n])
			}
		}
	}
	return out, nil
}

func (r *Reader) block(band, bx, by int) (*block, error) {
	index := by*r.across + bx
	if r.ifd.PlanarConfig == 2 {
		index += (band - 1) * r.across * r.down
	}
	if r.cache == nil {
		return r.loadBlock(band, index, by)
	}
	return r.cache.get(band, index, func() (*block, error) {
		return r.loadBlock(band, index, by)
	})
}

func (r *Reader) loadBlock(band, index, by int) (*block, error) {
	ifd := &r.ifd
	bw, bh := ifd.BlockSize()
	rows := bh
	if !ifd.Tiled() {
		rows = min(bh, int(ifd.Height)-by*bh)
	}

	spp, sample := int(ifd.SamplesPerPixel), band-1
	if ifd.PlanarConfig == 2 {
		spp, sample = 1, 0
	}
	b := &block{width: bw, height: rows, values: make([]float64, bw*rows)}

	off, n := ifd.BlockOffsets[index], ifd.BlockByteCounts[index]
	if n == 0 {
		// Sparse block.
		for i := range b.values {
			b.values[i] = math.NaN()
		}
		return b, nil
	}
	if off+n > uint64(len(r.data)) {
		return nil, fmt.Errorf("block %d at offset %d+%d exceeds file size %d", index, off, n, len(r.data))
	}

	size := bw * rows * spp * r.bps
	buf, err := decompress(ifd.Compression, r.data[off:off+n], size)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", index, err)
	}
	if len(buf) < size {
		return nil, fmt.Errorf("block %d: decoded %d bytes, want %d", index, len(buf), size)
	}
	buf = buf[:size]

	bo := r.bo
	switch ifd.Predictor {
	case predictorHorizontal, predictorFloat:
		if ifd.Compression == compressionNone {
			// The mapping is read-only.
			buf = append([]byte(nil), buf...)
		}
		if ifd.Predictor == predictorHorizontal {
			if err := undoHorizontal(buf, bo, r.bps, bw*spp, spp); err != nil {
				return nil, err
			}
		} else {
			undoFloatPredictor(buf, r.bps, bw*spp, spp)
			bo = binary.BigEndian
		}
	}

	for i := range b.values {
		v := decodeSample(buf[(i*spp+sample)*r.bps:], bo, ifd.SampleFormat, r.bps)
		if r.hasNoData && v == r.noData {
			v = math.NaN()
		}
		b.values[i] = v
	}
	return b, nil
}

func decodeSample(p []byte, bo binary.ByteOrder, format uint16, size int) float64 {
	switch format {
	case SampleFloat:
		if size == 4 {
			return float64(math.Float32frombits(bo.Uint32(p)))
		}
		return math.Float64frombits(bo.Uint64(p))
	case SampleInt:
		switch size {
		case 1:
			return float64(int8(p[0]))
		case 2:
			return float64(int16(bo.Uint16(p)))
		case 4:
			return float64(int32(bo.Uint32(p)))
		default:
			return float64(int64(bo.Uint64(p)))
		}
	default:
		switch size {
		case 1:
			return float64(p[0])
		case 2:
			return float64(bo.Uint16(p))
		case 4:
			return float64(bo.Uint32(p))
		default:
			return float64(bo.Uint64(p))
		}
	}
}
