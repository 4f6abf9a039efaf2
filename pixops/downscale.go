package pixops

// Downscale box-filters src to half size and writes the result into the
// TileSize/2 square of dst whose top-left pixel is (dstX, dstY).
//
// The data is linear and premultiplied, so a plain average is exact.
func Downscale(dst, src *Tile, dstX, dstY int) {
	const half = TileSize / 2
	for y := 0; y < half; y++ {
		s0 := (2 * y) * TileSize * 4
		s1 := s0 + TileSize*4
		d := ((y+dstY)*TileSize + dstX) * 4
		for x := 0; x < half; x++ {
			for c := 0; c < 4; c++ {
				sum := uint32(src[s0+c]) + uint32(src[s0+4+c]) +
					uint32(src[s1+c]) + uint32(src[s1+4+c])
				dst[d+c] = uint16((sum + 2) >> 2)
			}
			s0 += 8
			s1 += 8
			d += 4
		}
	}
}

// DownscaleInto builds a parent tile from up to four children given in the
// order of Coord.Children. Missing children count as transparent. It
// reports false when all children are missing.
func DownscaleInto(dst *Tile, children [4]*Tile) bool {
	const half = TileSize / 2
	found := false
	offsets := [4][2]int{{0, 0}, {half, 0}, {0, half}, {half, half}}
	for i, child := range children {
		if child == nil {
			clearQuarter(dst, offsets[i][0], offsets[i][1])
			continue
		}
		found = true
		Downscale(dst, child, offsets[i][0], offsets[i][1])
	}
	return found
}

func clearQuarter(t *Tile, x0, y0 int) {
	const half = TileSize / 2
	for y := y0; y < y0+half; y++ {
		i := (y*TileSize + x0) * 4
		clear(t[i : i+half*4])
	}
}
