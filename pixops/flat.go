package pixops

// RGBAToFlat composites dst over the opaque background bg, leaving the
// alpha channel of dst as it was. bg alpha is ignored.
func RGBAToFlat(dst, bg *Tile) {
	for i := 0; i < len(dst); i += 4 {
		rest := uint32(One) - min(uint32(dst[i+3]), One)
		for c := 0; c < 3; c++ {
			dst[i+c] = sat16(uint32(dst[i+c]) + (rest*uint32(bg[i+c]))>>15)
		}
	}
}

// FlatToRGBA turns a flattened tile back into a translucent one: the
// result has the smallest alpha such that result over bg reproduces the
// flat colour, and never less alpha than dst had.
func FlatToRGBA(dst, bg *Tile) {
	for i := 0; i < len(dst); i += 4 {
		final := int64(0)
		for c := 0; c < 3; c++ {
			change := int64(dst[i+c]) - int64(bg[i+c])
			switch {
			case change > 0:
				if room := int64(One) - int64(bg[i+c]); room > 0 {
					final = max(final, change*One/room)
				} else {
					final = One
				}
			case change < 0:
				if bg[i+c] > 0 {
					final = max(final, -change*One/int64(bg[i+c]))
				}
			}
		}
		final = min(max(final, int64(dst[i+3])), One)

		dst[i+3] = uint16(final)
		if final == 0 {
			dst[i], dst[i+1], dst[i+2] = 0, 0, 0
			continue
		}
		for c := 0; c < 3; c++ {
			change := int64(dst[i+c]) - int64(bg[i+c])
			res := int64(bg[i+c])*final/One + change
			dst[i+c] = uint16(min(max(res, 0), final))
		}
	}
}
