package raster

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TIFF tag IDs.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagPhotometric         = 262
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagPlanarConfig        = 284
	tagPredictor           = 317
	tagTileWidth           = 322
	tagTileLength          = 323
	tagTileOffsets         = 324
	tagTileByteCounts      = 325
	tagSampleFormat        = 339
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
	tagGeoDoubleParams     = 34736
	tagGeoASCIIParams      = 34737
	tagGDALNoData          = 42113
)

// TIFF field types.
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndef     = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
	dtLong8     = 16
	dtSLong8    = 17
	dtIFD8      = 18
)

// Sample formats.
const (
	SampleUint  = 1
	SampleInt   = 2
	SampleFloat = 3
)

// maxIFDs bounds the IFD chain walk so a cyclic file cannot loop forever.
const maxIFDs = 64

// IFD is the subset of a TIFF Image File Directory needed to read a value grid.
type IFD struct {
	Width           uint32
	Height          uint32
	BitsPerSample   []uint16
	SamplesPerPixel uint16
	SampleFormat    uint16
	Compression     uint16
	Photometric     uint16
	PlanarConfig    uint16
	Predictor       uint16

	// Tiled images set TileWidth/TileHeight; stripped images set RowsPerStrip.
	TileWidth    uint32
	TileHeight   uint32
	RowsPerStrip uint32

	BlockOffsets    []uint64
	BlockByteCounts []uint64

	ModelTiepoint       []float64
	ModelPixelScale     []float64
	ModelTransformation []float64
	GeoKeys             []uint16
	GeoDoubleParams     []float64
	GeoASCIIParams      string
	NoData              string
}

// Tiled reports whether blocks are tiles rather than strips.
func (ifd *IFD) Tiled() bool {
	return ifd.TileWidth > 0 && ifd.TileHeight > 0
}

// BlockSize returns the nominal width and height of one block in pixels.
func (ifd *IFD) BlockSize() (w, h int) {
	if ifd.Tiled() {
		return int(ifd.TileWidth), int(ifd.TileHeight)
	}
	rows := ifd.RowsPerStrip
	if rows == 0 || rows > ifd.Height {
		rows = ifd.Height
	}
	return int(ifd.Width), int(rows)
}

// BlocksAcross returns the number of blocks in the horizontal direction.
func (ifd *IFD) BlocksAcross() int {
	w, _ := ifd.BlockSize()
	return (int(ifd.Width) + w - 1) / w
}

// BlocksDown returns the number of blocks in the vertical direction.
func (ifd *IFD) BlocksDown() int {
	_, h := ifd.BlockSize()
	return (int(ifd.Height) + h - 1) / h
}

// bytesPerSample returns the sample width, assuming all samples share it.
func (ifd *IFD) bytesPerSample() int {
	if len(ifd.BitsPerSample) == 0 {
		return 1
	}
	return int(ifd.BitsPerSample[0]) / 8
}

// tiffFile is a parsed TIFF header over an in-memory (usually mmapped) file.
type tiffFile struct {
	data []byte
	bo   binary.ByteOrder
	big  bool
}

func (f *tiffFile) slice(off, n uint64) ([]byte, error) {
	end := off + n
	if end < off || end > uint64(len(f.data)) {
		return nil, fmt.Errorf("range [%d:%d] exceeds file size %d", off, end, len(f.data))
	}
	return f.data[off:end], nil
}

// parseTIFF reads the header and walks the IFD chain.
func parseTIFF(data []byte) ([]IFD, binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("file too short for a TIFF header")
	}
	f := &tiffFile{data: data}
	switch string(data[0:2]) {
	case "II":
		f.bo = binary.LittleEndian
	case "MM":
		f.bo = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("invalid TIFF byte order: %x", data[0:2])
	}

	var next uint64
	switch magic := f.bo.Uint16(data[2:4]); magic {
	case 42:
		next = uint64(f.bo.Uint32(data[4:8]))
	case 43:
		if len(data) < 16 {
			return nil, nil, fmt.Errorf("file too short for a BigTIFF header")
		}
		f.big = true
		next = f.bo.Uint64(data[8:16])
	default:
		return nil, nil, fmt.Errorf("invalid TIFF magic: %d", magic)
	}

	var ifds []IFD
	for next != 0 {
		if len(ifds) == maxIFDs {
			return nil, nil, fmt.Errorf("more than %d IFDs", maxIFDs)
		}
		ifd, n, err := f.readIFD(next)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing IFD at offset %d: %w", next, err)
		}
		ifds = append(ifds, ifd)
		next = n
	}
	return ifds, f.bo, nil
}

// field is one directory entry with its value bytes resolved.
type field struct {
	tag   uint16
	typ   uint16
	count uint64
	raw   []byte
}

func (f *tiffFile) readIFD(off uint64) (IFD, uint64, error) {
	countSize, entrySize, offSize := uint64(2), uint64(12), uint64(4)
	if f.big {
		countSize, entrySize, offSize = 8, 20, 8
	}

	head, err := f.slice(off, countSize)
	if err != nil {
		return IFD{}, 0, err
	}
	var n uint64
	if f.big {
		n = f.bo.Uint64(head)
	} else {
		n = uint64(f.bo.Uint16(head))
	}

	entries, err := f.slice(off+countSize, n*entrySize+offSize)
	if err != nil {
		return IFD{}, 0, err
	}

	fields := make([]field, 0, n)
	for i := uint64(0); i < n; i++ {
		fd, err := f.readField(entries[i*entrySize : (i+1)*entrySize])
		if err != nil {
			return IFD{}, 0, err
		}
		fields = append(fields, fd)
	}

	tail := entries[n*entrySize:]
	var next uint64
	if f.big {
		next = f.bo.Uint64(tail)
	} else {
		next = uint64(f.bo.Uint32(tail))
	}
	return f.buildIFD(fields), next, nil
}

func (f *tiffFile) readField(e []byte) (field, error) {
	fd := field{tag: f.bo.Uint16(e[0:2]), typ: f.bo.Uint16(e[2:4])}
	var inline []byte
	if f.big {
		fd.count = f.bo.Uint64(e[4:12])
		inline = e[12:20]
	} else {
		fd.count = uint64(f.bo.Uint32(e[4:8]))
		inline = e[8:12]
	}

	size := fd.count * uint64(typeSize(fd.typ))
	if size <= uint64(len(inline)) {
		fd.raw = inline[:size]
		return fd, nil
	}
	var at uint64
	if f.big {
		at = f.bo.Uint64(inline)
	} else {
		at = uint64(f.bo.Uint32(inline))
	}
	raw, err := f.slice(at, size)
	if err != nil {
		return field{}, fmt.Errorf("tag %d: %w", fd.tag, err)
	}
	fd.raw = raw
	return fd, nil
}

func typeSize(dt uint16) int {
	switch dt {
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat:
		return 4
	case dtRational, dtSRational, dtDouble, dtLong8, dtSLong8, dtIFD8:
		return 8
	default:
		return 1
	}
}

func (f *tiffFile) buildIFD(fields []field) IFD {
	ifd := IFD{
		SamplesPerPixel: 1,
		SampleFormat:    SampleUint,
		Compression:     1,
		PlanarConfig:    1,
		Predictor:       1,
	}
	var stripOffsets, stripCounts, tileOffsets, tileCounts []uint64

	for _, fd := range fields {
		switch fd.tag {
		case tagImageWidth:
			ifd.Width = uint32(f.uint(fd))
		case tagImageLength:
			ifd.Height = uint32(f.uint(fd))
		case tagBitsPerSample:
			for _, v := range f.uints(fd) {
				ifd.BitsPerSample = append(ifd.BitsPerSample, uint16(v))
			}
		case tagSamplesPerPixel:
			ifd.SamplesPerPixel = uint16(f.uint(fd))
		case tagSampleFormat:
			ifd.SampleFormat = uint16(f.uint(fd))
		case tagCompression:
			ifd.Compression = uint16(f.uint(fd))
		case tagPhotometric:
			ifd.Photometric = uint16(f.uint(fd))
		case tagPlanarConfig:
			ifd.PlanarConfig = uint16(f.uint(fd))
		case tagPredictor:
			ifd.Predictor = uint16(f.uint(fd))
		case tagTileWidth:
			ifd.TileWidth = uint32(f.uint(fd))
		case tagTileLength:
			ifd.TileHeight = uint32(f.uint(fd))
		case tagRowsPerStrip:
			ifd.RowsPerStrip = uint32(f.uint(fd))
		case tagStripOffsets:
			stripOffsets = f.uints(fd)
		case tagStripByteCounts:
			stripCounts = f.uints(fd)
		case tagTileOffsets:
			tileOffsets = f.uints(fd)
		case tagTileByteCounts:
			tileCounts = f.uints(fd)
		case tagModelTiepoint:
			ifd.ModelTiepoint = f.floats(fd)
		case tagModelPixelScale:
			ifd.ModelPixelScale = f.floats(fd)
		case tagModelTransformation:
			ifd.ModelTransformation = f.floats(fd)
		case tagGeoKeyDirectory:
			for _, v := range f.uints(fd) {
				ifd.GeoKeys = append(ifd.GeoKeys, uint16(v))
			}
		case tagGeoDoubleParams:
			ifd.GeoDoubleParams = f.floats(fd)
		case tagGeoASCIIParams:
			ifd.GeoASCIIParams = asciiValue(fd.raw)
		case tagGDALNoData:
			ifd.NoData = asciiValue(fd.raw)
		}
	}

	if ifd.Tiled() {
		ifd.BlockOffsets, ifd.BlockByteCounts = tileOffsets, tileCounts
	} else {
		ifd.BlockOffsets, ifd.BlockByteCounts = stripOffsets, stripCounts
	}
	return ifd
}

// asciiValue trims the NUL terminator(s) of an ASCII field.
func asciiValue(raw []byte) string {
	end := len(raw)
	for end > 0 && (raw[end-1] == 0 || raw[end-1] == ' ') {
		end--
	}
	return string(raw[:end])
}

func (f *tiffFile) uint(fd field) uint64 {
	if v := f.uints(fd); len(v) > 0 {
		return v[0]
	}
	return 0
}

func (f *tiffFile) uints(fd field) []uint64 {
	size := typeSize(fd.typ)
	n := len(fd.raw) / size
	out := make([]uint64, n)
	for i := range out {
		b := fd.raw[i*size : (i+1)*size]
		switch fd.typ {
		case dtShort, dtSShort:
			out[i] = uint64(f.bo.Uint16(b))
		case dtLong, dtSLong:
			out[i] = uint64(f.bo.Uint32(b))
		case dtLong8, dtSLong8, dtIFD8:
			out[i] = f.bo.Uint64(b)
		default:
			out[i] = uint64(b[0])
		}
	}
	return out
}

func (f *tiffFile) floats(fd field) []float64 {
	size := typeSize(fd.typ)
	n := len(fd.raw) / size
	out := make([]float64, n)
	for i := range out {
		b := fd.raw[i*size : (i+1)*size]
		switch fd.typ {
		case dtDouble:
			out[i] = math.Float64frombits(f.bo.Uint64(b))
		case dtFloat:
			out[i] = float64(math.Float32frombits(f.bo.Uint32(b)))
		case dtShort:
			out[i] = float64(f.bo.Uint16(b))
		case dtLong:
			out[i] = float64(f.bo.Uint32(b))
		}
	}
	return out
}
