package pixops

// PerceptualChange compares two versions of a tile and marks in mask
// (TileSize*TileSize bytes, one per pixel) the pixels a stroke visibly
// changed: a clear alpha increase or a colour change where both versions
// are opaque enough. Alpha decreases alone (erasing) are not marked.
func PerceptualChange(before, after *Tile, mask []uint8) {
	for p := 0; p < TileSize*TileSize; p++ {
		i := p * 4
		colorChange := int32(0)
		for c := 0; c < 3; c++ {
			// scale both by the other alpha so they are comparable
			ac := int32(uint32(before[i+c]) * uint32(after[i+3]) / One)
			bc := int32(uint32(after[i+c]) * uint32(before[i+3]) / One)
			d := bc - ac
			if d < 0 {
				d = -d
			}
			colorChange += d
		}

		alphaOld := int32(before[i+3])
		alphaNew := int32(after[i+3])
		alphaDiff := alphaNew - alphaOld

		colorChanged := colorChange > max(alphaOld, alphaNew)/16
		alphaIncreased := alphaDiff > One/4
		bigRelativeIncrease := alphaDiff > One/64 && alphaDiff > alphaOld/2

		if colorChanged || alphaIncreased || bigRelativeIncrease {
			mask[p] = 1
		} else {
			mask[p] = 0
		}
	}
}
