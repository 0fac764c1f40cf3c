package rastertest

// bitWriter packs codes MSB-first.
type bitWriter struct {
	out   []byte
	acc   uint32
	nbits uint
}

func (w *bitWriter) write(code, width int) {
	w.acc = w.acc<<uint(width) | uint32(code)
	w.nbits += uint(width)
	for w.nbits >= 8 {
		w.out = append(w.out, byte(w.acc>>(w.nbits-8)))
		w.nbits -= 8
	}
}

func (w *bitWriter) flush() []byte {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nbits)))
		w.nbits = 0
	}
	return w.out
}

// EncodeLZW compresses src as a TIFF LZW stream (MSB-first codes with the
// early width change libtiff writes).
func EncodeLZW(src []byte) []byte {
	const (
		clear = 256
		eoi   = 257
		first = 258
		full  = 4094
	)
	var w bitWriter
	width := 9
	next := first
	dict := make(map[uint32]int)

	w.write(clear, width)
	if len(src) == 0 {
		w.write(eoi, width)
		return w.flush()
	}

	grow := func() {
		next++
		if next >= 1<<width && width < 12 {
			width++
		}
	}

	prefix := int(src[0])
	for _, c := range src[1:] {
		key := uint32(prefix)<<8 | uint32(c)
		if code, ok := dict[key]; ok {
			prefix = code
			continue
		}
		w.write(prefix, width)
		dict[key] = next
		if next+1 == full {
			w.write(clear, width)
			dict = make(map[uint32]int)
			next, width = first, 9
		} else {
			grow()
		}
		prefix = int(c)
	}
	w.write(prefix, width)
	grow()
	w.write(eoi, width)
	return w.flush()
}
