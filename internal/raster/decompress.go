package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// TIFF compression schemes.
const (
	compressionNone     = 1
	compressionLZW      = 5
	compressionJPEG     = 7
	compressionDeflate  = 8
	compressionPackBits = 32773
	compressionAdobeZip = 32946
	compressionZSTD     = 50000
)

// TIFF predictors.
const (
	predictorNone       = 1
	predictorHorizontal = 2
	predictorFloat      = 3
)

// ErrUnsupported marks rasters whose encoding this package cannot read.
var ErrUnsupported = errors.New("unsupported raster encoding")

var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
})

func compressionName(c uint16) string {
	switch c {
	case compressionNone:
		return "none"
	case compressionLZW:
		return "lzw"
	case compressionJPEG:
		return "jpeg"
	case compressionDeflate, compressionAdobeZip:
		return "deflate"
	case compressionPackBits:
		return "packbits"
	case compressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", c)
}

// decompress expands one block. size is the expected decoded byte count.
func decompress(compression uint16, src []byte, size int) ([]byte, error) {
	switch compression {
	case compressionNone:
		return src, nil
	case compressionLZW:
		return decodeLZW(src, size)
	case compressionDeflate, compressionAdobeZip:
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer zr.Close()
		out := bytes.NewBuffer(make([]byte, 0, size))
		if _, err := io.Copy(out, zr); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out.Bytes(), nil
	case compressionPackBits:
		return decodePackBits(src, size)
	case compressionZSTD:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		out, err := dec.DecodeAll(src, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: compression %s", ErrUnsupported, compressionName(compression))
}

// decodePackBits expands Apple PackBits run-length data.
func decodePackBits(src []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	for i := 0; i < len(src); {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(src) {
				return nil, fmt.Errorf("packbits: literal run overruns input")
			}
			out = append(out, src[i:i+n+1]...)
			i += n + 1
		case n != -128:
			if i >= len(src) {
				return nil, fmt.Errorf("packbits: missing repeat byte")
			}
			for k := 0; k < 1-n; k++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	return out, nil
}

// undoHorizontal reverses horizontal differencing in place. rowLen is the
// number of samples per row (block width times samples per pixel for
// chunky data) and stride the number of interleaved samples per pixel.
func undoHorizontal(buf []byte, bo binary.ByteOrder, bytesPerSample, rowLen, stride int) error {
	rowBytes := rowLen * bytesPerSample
	if rowBytes == 0 {
		return nil
	}
	for row := 0; row+rowBytes <= len(buf); row += rowBytes {
		r := buf[row : row+rowBytes]
		switch bytesPerSample {
		case 1:
			for i := stride; i < rowLen; i++ {
				r[i] += r[i-stride]
			}
		case 2:
			for i := stride; i < rowLen; i++ {
				v := bo.Uint16(r[2*i:]) + bo.Uint16(r[2*(i-stride):])
				bo.PutUint16(r[2*i:], v)
			}
		case 4:
			for i := stride; i < rowLen; i++ {
				v := bo.Uint32(r[4*i:]) + bo.Uint32(r[4*(i-stride):])
				bo.PutUint32(r[4*i:], v)
			}
		case 8:
			for i := stride; i < rowLen; i++ {
				v := bo.Uint64(r[8*i:]) + bo.Uint64(r[8*(i-stride):])
				bo.PutUint64(r[8*i:], v)
			}
		default:
			return fmt.Errorf("%w: horizontal predictor with %d-byte samples", ErrUnsupported, bytesPerSample)
		}
	}
	return nil
}

// undoFloatPredictor reverses the floating point predictor. Each row stores
// byte-differenced planes, most significant byte first. The restored samples
// are big-endian regardless of the file's byte order.
func undoFloatPredictor(buf []byte, bytesPerSample, rowLen, stride int) {
	rowBytes := rowLen * bytesPerSample
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for row := 0; row+rowBytes <= len(buf); row += rowBytes {
		r := buf[row : row+rowBytes]
		for i := stride; i < rowBytes; i++ {
			r[i] += r[i-stride]
		}
		copy(tmp, r)
		for i := 0; i < rowLen; i++ {
			for b := 0; b < bytesPerSample; b++ {
				r[i*bytesPerSample+b] = tmp[b*rowLen+i]
			}
		}
	}
}
