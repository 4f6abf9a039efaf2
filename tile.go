package main

import (
	"tilecanvas/pixops"
	"tilecanvas/viewport"
)

// TileSize is the canvas tile edge in pixels.
const TileSize = pixops.TileSize

// ZoomMin and ZoomMax bound the render command's scale.
const (
	ZoomMin = viewport.ZoomMin
	ZoomMax = viewport.ZoomMax
)

// File extensions read and written by the commands.
const (
	ArchiveExt = "tca"
	PNG        = "png"
	ThumbExt   = "thumb.png"
)

// Constants naming the PNG compression levels accepted in the config.
const (
	CompressionDefault = "default"
	CompressionNone    = "none"
	CompressionSpeed   = "speed"
	CompressionBest    = "best"
)
