package pixops

import "math"

// Transfer tables between 15-bit linear light and 15-bit sRGB, indexed by
// the fixed point value. Built once and never written afterwards.
var (
	lin2srgb [One + 1]uint16
	srgb2lin [One + 1]uint16
)

const srgbA = 0.055

func init() {
	for i := range lin2srgb {
		v := float64(i) / One

		e := 12.92 * v
		if v > 0.0031308 {
			e = (1+srgbA)*math.Pow(v, 1/2.4) - srgbA
		}
		lin2srgb[i] = uint16(e*One + 0.5)

		d := v / 12.92
		if v > 0.04045 {
			d = math.Pow((v+srgbA)/(1+srgbA), 2.4)
		}
		srgb2lin[i] = uint16(d*One + 0.5)
	}
}

// Lin2SRGB gamma-encodes a linear fixed point sample. Values above One
// saturate.
func Lin2SRGB(v uint16) uint16 {
	if v > One {
		v = One
	}
	return lin2srgb[v]
}

// SRGB2Lin decodes a gamma-encoded fixed point sample to linear light.
// Values above One saturate.
func SRGB2Lin(v uint16) uint16 {
	if v > One {
		v = One
	}
	return srgb2lin[v]
}
