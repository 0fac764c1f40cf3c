package raster

import "errors"

// TIFF LZW differs from compress/lzw (GIF order): codes are MSB-first and
// the code width grows one code early.

const (
	lzwClear    = 256
	lzwEOI      = 257
	lzwFirst    = 258
	lzwMaxCodes = 1 << 12
)

var errLZWCode = errors.New("lzw: invalid code")

// decodeLZW expands a TIFF LZW stream. sizeHint preallocates the output.
//
// Every dictionary string is a contiguous run of the output produced so far,
// so the table stores (start, length) pairs into out instead of chains.
func decodeLZW(src []byte, sizeHint int) ([]byte, error) {
	out := make([]byte, 0, sizeHint)
	var (
		start  [lzwMaxCodes]int
		length [lzwMaxCodes]int
		next   = lzwFirst
		width  = uint(9)
		prev   = -1

		acc   uint32
		nbits uint
		pos   int
	)

	for {
		for nbits < width && pos < len(src) {
			acc = acc<<8 | uint32(src[pos])
			pos++
			nbits += 8
		}
		if nbits < width {
			// Truncated stream without EOI; keep what decoded.
			return out, nil
		}
		code := int(acc>>(nbits-width)) & (1<<width - 1)
		nbits -= width

		switch {
		case code == lzwEOI:
			return out, nil
		case code == lzwClear:
			next, width, prev = lzwFirst, 9, -1
			continue
		case prev < 0:
			if code > 255 {
				return nil, errLZWCode
			}
			length[code] = 1
			out = append(out, byte(code))
			prev = code
			continue
		}

		at := len(out)
		switch {
		case code < 256:
			out = append(out, byte(code))
		case code < next:
			s := start[code]
			out = append(out, out[s:s+length[code]]...)
		case code == next:
			s := at - length[prev]
			out = append(out, out[s:s+length[prev]]...)
			out = append(out, out[s])
		default:
			return nil, errLZWCode
		}
		if code < 256 {
			length[code] = 1
		}

		if next < lzwMaxCodes {
			// prev's string sits directly behind at, followed by the first
			// byte just written.
			start[next] = at - length[prev]
			length[next] = length[prev] + 1
			next++
		}
		if next+1 >= 1<<width && width < 12 {
			width++
		}
		prev = code
	}
}
