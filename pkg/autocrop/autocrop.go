// Package autocrop trims uniform background around product photos and returns
// the smallest square that still holds all the content.
//
// Content is any pixel with at least one RGB channel strictly below a
// threshold. The bounding box of that content is found by scanning inward
// from each edge, then padded symmetrically to a square and clamped to the
// image.
package autocrop

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidInput is returned for images with zero width or height
	ErrInvalidInput = errors.New("autocrop: invalid input")
	// ErrInvalidArgument is returned for a threshold outside [0,255]
	ErrInvalidArgument = errors.New("autocrop: invalid argument")
	// ErrMalformedInput is returned for nil images and pixel buffers that do
	// not match their declared shape
	ErrMalformedInput = errors.New("autocrop: malformed input")
)

func errBoundaries(b Boundaries, w, h int) error {
	return fmt.Errorf("%w: boundaries %+v outside %dx%d image", ErrInvalidArgument, b, w, h)
}

// DefaultThreshold treats near-white pixels as background
const DefaultThreshold = 230

// Config holds configuration for the cropper
type Config struct {
	Threshold int
}

// Cropper crops images to a square around their non-background content
type Cropper struct {
	config Config
}

// New creates a Cropper with the default threshold
func New() *Cropper {
	return &Cropper{
		config: Config{Threshold: DefaultThreshold},
	}
}

// NewWithConfig creates a Cropper with custom configuration
func NewWithConfig(config Config) *Cropper {
	return &Cropper{config: config}
}

// Threshold returns the configured background cutoff
func (c *Cropper) Threshold() int {
	return c.config.Threshold
}

// Result contains the outcome of a crop
type Result struct {
	Image *image.NRGBA
	// Content is the detected bounding box, zero-based.
	Content Boundaries
	// Region is the cropped area, zero-based.
	Region image.Rectangle
	Plan   SquarePlan
}

// Square reports whether the cropped image has equal sides
func (r Result) Square() bool {
	b := r.Image.Bounds()
	return b.Dx() == b.Dy()
}

// Crop finds the content box of img and cuts the square around it
func (c *Cropper) Crop(img image.Image) (Result, error) {
	r, err := newRaster(img, c.config.Threshold)
	if err != nil {
		return Result{}, err
	}

	content := r.boundaries(uint8(c.config.Threshold))
	cropped, plan, err := CropSquare(r.img, content)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Image:   cropped,
		Content: content,
		Region:  plan.Final.Rect(),
		Plan:    plan,
	}, nil
}

// CropToSquare crops img with the given threshold and returns only the image
func CropToSquare(img image.Image, threshold int) (*image.NRGBA, error) {
	res, err := NewWithConfig(Config{Threshold: threshold}).Crop(img)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}
