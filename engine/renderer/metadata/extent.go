package metadata

import "fmt"

/** @brief A 2D size in pixels. */
type Extent struct {
	Width  uint32
	Height uint32
}

func NewExtent(width, height uint32) Extent {
	return Extent{Width: width, Height: height}
}

/**
 * @brief Reports whether either dimension is zero. A degenerate extent
 * (typically a minimized window) means "skip rendering", never an error.
 */
func (e Extent) Degenerate() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}
