package pixops

// Colorspace states how 8-bit samples relate to light intensity.
type Colorspace int

const (
	// SRGB samples are gamma encoded with the sRGB transfer curve.
	SRGB Colorspace = iota
	// Linear samples are proportional to intensity.
	Linear
)

func (c Colorspace) String() string {
	switch c {
	case SRGB:
		return "srgb"
	case Linear:
		return "linear"
	}
	return "unknown"
}

// ParseColorspace maps a configuration value to a Colorspace. Unknown
// names fall back to SRGB.
func ParseColorspace(s string) Colorspace {
	if s == "linear" {
		return Linear
	}
	return SRGB
}

func from8(v uint8) uint32 {
	return (uint32(v)*One + 255/2) / 255
}

func to8(v uint32) uint8 {
	if v > One {
		v = One
	}
	return uint8((v*255 + One/2) >> 15)
}

// ConvertRGBA8ToLinear expands an 8-bit tile into dst as linear
// premultiplied fixed point. Without alpha the fourth byte is ignored and
// the result is opaque.
func ConvertRGBA8ToLinear(dst *Tile, src Tile8, hasAlpha bool, cs Colorspace) {
	i := 0
	for y := 0; y < TileSize; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < TileSize; x++ {
			p := row[x*4 : x*4+4]
			r, g, b := from8(p[0]), from8(p[1]), from8(p[2])
			a := uint32(One)
			if hasAlpha {
				a = from8(p[3])
			}
			if cs == SRGB {
				r = uint32(srgb2lin[r])
				g = uint32(srgb2lin[g])
				b = uint32(srgb2lin[b])
			}
			dst[i+0] = uint16((r*a + One/2) >> 15)
			dst[i+1] = uint16((g*a + One/2) >> 15)
			dst[i+2] = uint16((b*a + One/2) >> 15)
			dst[i+3] = uint16(a)
			i += 4
		}
	}
}

// ConvertLinearToRGBA8 writes src into an 8-bit tile. With alpha the colour
// is un-premultiplied first (zero alpha gives zero colour); without alpha
// the colour is taken as already flattened and the alpha byte is 255.
func ConvertLinearToRGBA8(dst Tile8, src *Tile, hasAlpha bool, cs Colorspace) {
	i := 0
	for y := 0; y < TileSize; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < TileSize; x++ {
			r, g, b, a := uint32(src[i]), uint32(src[i+1]), uint32(src[i+2]), uint32(src[i+3])
			i += 4
			if hasAlpha {
				if a > One {
					a = One
				}
				if a != 0 {
					r = min(((r<<15)+a/2)/a, One)
					g = min(((g<<15)+a/2)/a, One)
					b = min(((b<<15)+a/2)/a, One)
				} else {
					r, g, b = 0, 0, 0
				}
			} else {
				r, g, b = min(r, One), min(g, One), min(b, One)
				a = One
			}
			if cs == SRGB {
				r = uint32(lin2srgb[r])
				g = uint32(lin2srgb[g])
				b = uint32(lin2srgb[b])
			}
			p := row[x*4 : x*4+4]
			p[0], p[1], p[2], p[3] = to8(r), to8(g), to8(b), to8(a)
		}
	}
}
