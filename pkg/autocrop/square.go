package autocrop

import (
	"image"

	"github.com/disintegration/imaging"
)

// SquarePlan records every stage of the square computation. Original and the
// two pads are kept next to the padded and clamped boxes so the rebalancing
// step can read pre-clamp values.
type SquarePlan struct {
	Original Boundaries
	// HorizontalPad and VerticalPad are the symmetric pads derived from the
	// original box.
	HorizontalPad int
	VerticalPad   int
	// Padded is Original grown by the pads; it may extend past the image.
	Padded Boundaries
	// Clamped is Padded limited to the image extents.
	Clamped Boundaries
	// Final is Clamped after the single rebalancing step.
	Final Boundaries
}

// PlanSquare computes the square region around b for a width x height image
func PlanSquare(b Boundaries, width, height int) SquarePlan {
	p := SquarePlan{Original: b}

	side := max(b.Width(), b.Height())
	p.HorizontalPad = (side - b.Width()) / 2
	p.VerticalPad = (side - b.Height()) / 2

	p.Padded = Boundaries{
		Left:   b.Left - p.HorizontalPad,
		Right:  b.Right + p.HorizontalPad,
		Top:    b.Top - p.VerticalPad,
		Bottom: b.Bottom + p.VerticalPad,
	}
	p.Clamped = Boundaries{
		Left:   max(0, p.Padded.Left),
		Right:  min(width-1, p.Padded.Right),
		Top:    max(0, p.Padded.Top),
		Bottom: min(height-1, p.Padded.Bottom),
	}

	p.Final = p.Clamped
	hspan := p.Clamped.Right - p.Clamped.Left
	vspan := p.Clamped.Bottom - p.Clamped.Top

	// One pixel correction, applied once. The extension is measured from the
	// original box and pads, never from the clamped box.
	switch {
	case hspan > vspan:
		if p.Clamped.Top > 0 {
			p.Final.Top = b.Top - p.VerticalPad - 1
		} else if p.Clamped.Bottom < height-1 {
			p.Final.Bottom = b.Bottom + p.VerticalPad + 1
		}
	case hspan < vspan:
		if p.Clamped.Left > 0 {
			p.Final.Left = b.Left - p.HorizontalPad - 1
		} else if p.Clamped.Right < width-1 {
			p.Final.Right = b.Right + p.HorizontalPad + 1
		}
	}

	return p
}

// IsSquare reports whether the final region has equal sides
func (p SquarePlan) IsSquare() bool {
	return p.Final.Width() == p.Final.Height()
}

// CropSquare cuts the square region around b out of img. The result is a copy
// with origin (0,0); img is not modified.
func CropSquare(img image.Image, b Boundaries) (*image.NRGBA, SquarePlan, error) {
	n, err := asNRGBA(img)
	if err != nil {
		return nil, SquarePlan{}, err
	}
	bounds := n.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if b.Left < 0 || b.Top < 0 || b.Right >= w || b.Bottom >= h || b.Left > b.Right || b.Top > b.Bottom {
		return nil, SquarePlan{}, errBoundaries(b, w, h)
	}

	plan := PlanSquare(b, w, h)
	rect := plan.Final.Rect().Add(bounds.Min)
	return imaging.Crop(n, rect), plan, nil
}
