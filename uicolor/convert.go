package uicolor

import "math"

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h = wrapHue(h) * 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	}
	return v, p, q
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	hi := max(r, g, b)
	lo := min(r, g, b)
	v = hi
	if hi == lo {
		return 0, 0, v
	}
	d := hi - lo
	s = d / hi
	rc := (hi - r) / d
	gc := (hi - g) / d
	bc := (hi - b) / d
	switch hi {
	case r:
		h = bc - gc
	case g:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	return wrapHue(h / 6), s, v
}

// BT.601, chroma in [-0.5, 0.5]
func rgbToYCbCr(r, g, b float64) (y, cb, cr float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	cb = -0.169*r - 0.331*g + 0.500*b
	cr = 0.500*r - 0.419*g - 0.081*b
	return y, cb, cr
}

func ycbcrToRGB(y, cb, cr float64) (r, g, b float64) {
	r = y + 1.403*cr
	g = y - 0.344*cb - 0.714*cr
	b = y + 1.773*cb
	return r, g, b
}

// Luma weights of the HCY model.
const (
	redLuma   = 0.3
	greenLuma = 0.59
	blueLuma  = 0.11
)

// rgbToHCY returns hue, chroma relative to the largest chroma the RGB cube
// allows at that hue and luma, and luma.
func rgbToHCY(r, g, b float64) (h, c, y float64) {
	y = redLuma*r + greenLuma*g + blueLuma*b
	p := max(r, g, b)
	n := min(r, g, b)
	d := p - n
	switch {
	case p == n:
		h = 0
	case p == r:
		h = (g - b) / d
		if h < 0 {
			h += 6
		}
	case p == g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	if r == g && g == b {
		return h, 0, y
	}
	c = max((y-n)/y, (p-y)/(1-y))
	return h, c, y
}

func hcyToRGB(h, c, y float64) (r, g, b float64) {
	if c == 0 {
		return y, y, y
	}
	h = wrapHue(h) * 6

	var th, tm float64
	switch {
	case h < 1:
		th = h
		tm = redLuma + greenLuma*th
	case h < 2:
		th = 2 - h
		tm = greenLuma + redLuma*th
	case h < 3:
		th = h - 2
		tm = greenLuma + blueLuma*th
	case h < 4:
		th = 4 - h
		tm = blueLuma + greenLuma*th
	case h < 5:
		th = h - 4
		tm = blueLuma + redLuma*th
	default:
		th = 6 - h
		tm = redLuma + blueLuma*th
	}

	// largest, middle and smallest component
	var p, o, n float64
	if tm >= y {
		p = y + y*c*(1-tm)/tm
		o = y + y*c*(th-tm)/tm
		n = y - y*c
	} else {
		p = y + (1-y)*c
		o = y + (1-y)*c*(th-tm)/(1-tm)
		n = y - (1-y)*c*tm/(1-tm)
	}

	switch {
	case h < 1:
		return p, o, n
	case h < 2:
		return o, p, n
	case h < 3:
		return n, p, o
	case h < 4:
		return n, o, p
	case h < 5:
		return o, n, p
	}
	return p, n, o
}
