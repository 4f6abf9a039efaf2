package pixops

func fix15(f float64) uint32 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return One
	}
	return uint32(f*One + 0.5)
}

func sat16(v uint32) uint16 {
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}

// CompositeOver blends src over dst with the given opacity:
//
//	dst = src*opacity + dst*(1 - src.alpha*opacity)
//
// for all four channels. An opacity of zero leaves dst untouched.
func CompositeOver(dst, src *Tile, opacity float64) {
	opac := fix15(opacity)
	if opac == 0 {
		return
	}
	for i := 0; i < len(dst); i += 4 {
		sa := (uint32(src[i+3])*opac + One/2) >> 15
		if sa == 0 && src[i] == 0 && src[i+1] == 0 && src[i+2] == 0 {
			continue
		}
		keep := uint32(One) - min(sa, One)
		for c := 0; c < 3; c++ {
			s := (uint32(src[i+c])*opac + One/2) >> 15
			dst[i+c] = sat16(s + (uint32(dst[i+c])*keep+One/2)>>15)
		}
		dst[i+3] = sat16(sa + (uint32(dst[i+3])*keep+One/2)>>15)
	}
}

// ScaleTile multiplies every channel of t by f, clamped to [0, 1].
func ScaleTile(t *Tile, f float64) {
	k := fix15(f)
	if k == One {
		return
	}
	if k == 0 {
		t.Clear()
		return
	}
	for i := range t {
		t[i] = uint16((uint32(t[i])*k + One/2) >> 15)
	}
}

// CompositeFraction composites the part of src that has to go underneath
// the remaining (1-t) share of src so that (src*(1-t)) over result equals
// src over dst. opacity applies to src as in CompositeOver.
//
// Repeating it with growing t and scaling src by (1-t) afterwards
// moves a layer into the one below it step by step without changing the
// combined appearance.
func CompositeFraction(dst, src *Tile, opacity, t float64) {
	if t <= 0 || opacity <= 0 {
		return
	}
	if t >= 1 {
		CompositeOver(dst, src, opacity)
		return
	}
	keepShare := 1 - t
	for i := 0; i < len(dst); i += 4 {
		sa := float64(src[i+3]) / One * opacity
		if src[i+3] == 0 && src[i] == 0 && src[i+1] == 0 && src[i+2] == 0 {
			continue
		}
		denom := 1 - keepShare*sa
		if denom <= 0 {
			continue
		}
		k := opacity * t / denom
		pa := float64(src[i+3]) * k
		keep := 1 - pa/One
		for c := 0; c < 3; c++ {
			v := float64(src[i+c])*k + float64(dst[i+c])*keep
			dst[i+c] = sat16(uint32(max(v, 0) + 0.5))
		}
		v := pa + float64(dst[i+3])*keep
		dst[i+3] = sat16(uint32(max(v, 0) + 0.5))
	}
}
