package pixops

import "fmt"

// ConfigurationError reports input whose pixel dimensions are not a
// multiple of TileSize.
type ConfigurationError struct {
	What          string
	Width, Height int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: unsupported size %dx%d, must be a multiple of %d",
		e.What, e.Width, e.Height, TileSize)
}

// InvalidRegionError reports an export region that is not tile aligned.
type InvalidRegionError struct {
	X, Y, W, H int
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("region (%d, %d, %d, %d) is not aligned to %d pixel tiles",
		e.X, e.Y, e.W, e.H, TileSize)
}

// CheckTileMultiple returns a ConfigurationError unless w and h are
// positive multiples of TileSize.
func CheckTileMultiple(what string, w, h int) error {
	if w <= 0 || h <= 0 || w%TileSize != 0 || h%TileSize != 0 {
		return &ConfigurationError{What: what, Width: w, Height: h}
	}
	return nil
}
