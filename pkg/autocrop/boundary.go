package autocrop

import (
	"fmt"
	"image"
)

// Side selects the edge a boundary scan starts from
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

// String returns the side name
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Boundaries is the content bounding box. All four coordinates are inclusive
// pixel indices relative to the image origin.
type Boundaries struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Width returns the number of columns covered by the box
func (b Boundaries) Width() int {
	return b.Right - b.Left + 1
}

// Height returns the number of rows covered by the box
func (b Boundaries) Height() int {
	return b.Bottom - b.Top + 1
}

// Rect converts the inclusive box to a half-open image.Rectangle
func (b Boundaries) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right+1, b.Bottom+1)
}

// Contains reports whether o lies entirely inside b
func (b Boundaries) Contains(o Boundaries) bool {
	return b.Left <= o.Left && b.Right >= o.Right && b.Top <= o.Top && b.Bottom >= o.Bottom
}

// FindBoundary returns the first row or column, scanning inward from side,
// holding a pixel with any channel strictly below threshold. When nothing
// qualifies the image edge on that side is returned.
func FindBoundary(img image.Image, threshold int, side Side) (int, error) {
	r, err := newRaster(img, threshold)
	if err != nil {
		return 0, err
	}
	if side < Left || side > Bottom {
		return 0, fmt.Errorf("%w: unknown side %d", ErrInvalidArgument, int(side))
	}
	return r.scan(uint8(threshold), side), nil
}

// FindBoundaries runs the directional scan for all four sides
func FindBoundaries(img image.Image, threshold int) (Boundaries, error) {
	r, err := newRaster(img, threshold)
	if err != nil {
		return Boundaries{}, err
	}
	return r.boundaries(uint8(threshold)), nil
}

func (r *raster) boundaries(threshold uint8) Boundaries {
	return Boundaries{
		Left:   r.scan(threshold, Left),
		Right:  r.scan(threshold, Right),
		Top:    r.scan(threshold, Top),
		Bottom: r.scan(threshold, Bottom),
	}
}

// scan walks lines (columns for Left/Right, rows for Top/Bottom) in the
// order given by side and stops at the first line holding content.
func (r *raster) scan(threshold uint8, side Side) int {
	var first, last, step int
	var line func(int) bool

	switch side {
	case Left, Right:
		first, last = 0, r.width-1
		line = func(x int) bool { return r.columnHasContent(x, threshold) }
	default:
		first, last = 0, r.height-1
		line = func(y int) bool { return r.rowHasContent(y, threshold) }
	}

	start, fallback := first, first
	step = 1
	if side == Right || side == Bottom {
		start, fallback = last, last
		step = -1
	}

	for i := start; i >= first && i <= last; i += step {
		if line(i) {
			return i
		}
	}
	return fallback
}

func (r *raster) rowHasContent(y int, threshold uint8) bool {
	off := r.offset(0, y)
	for x := 0; x < r.width; x++ {
		if below(r.pix[off:off+3], threshold) {
			return true
		}
		off += 4
	}
	return false
}

func (r *raster) columnHasContent(x int, threshold uint8) bool {
	off := r.offset(x, 0)
	for y := 0; y < r.height; y++ {
		if below(r.pix[off:off+3], threshold) {
			return true
		}
		off += r.stride
	}
	return false
}

// below reports whether any RGB channel is strictly under threshold. Alpha is
// not inspected.
func below(px []uint8, threshold uint8) bool {
	return px[0] < threshold || px[1] < threshold || px[2] < threshold
}
