package autocrop

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Channels is the number of colour samples per pixel in a raw RGB buffer
const Channels = 3

// raster is a read-only view over 8-bit NRGBA pixels with origin (0,0)
type raster struct {
	img    *image.NRGBA
	pix    []uint8
	stride int
	width  int
	height int
	minX   int
	minY   int
}

func newRaster(img image.Image, threshold int) (*raster, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("%w: threshold %d outside [0,255]", ErrInvalidArgument, threshold)
	}
	n, err := asNRGBA(img)
	if err != nil {
		return nil, err
	}
	b := n.Bounds()
	return &raster{
		img:    n,
		pix:    n.Pix,
		stride: n.Stride,
		width:  b.Dx(),
		height: b.Dy(),
		minX:   b.Min.X,
		minY:   b.Min.Y,
	}, nil
}

// asNRGBA validates img and returns it as NRGBA without copying when possible
func asNRGBA(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrMalformedInput)
	}
	n, ok := img.(*image.NRGBA)
	if ok && n == nil {
		return nil, fmt.Errorf("%w: nil image", ErrMalformedInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrInvalidInput, b.Dx(), b.Dy())
	}
	if !ok {
		return imaging.Clone(img), nil
	}
	last := n.PixOffset(b.Max.X-1, b.Max.Y-1) + 4
	if n.Stride < b.Dx()*4 || last > len(n.Pix) {
		return nil, fmt.Errorf("%w: pixel buffer of %d bytes does not cover %dx%d (stride %d)",
			ErrMalformedInput, len(n.Pix), b.Dx(), b.Dy(), n.Stride)
	}
	return n, nil
}

func (r *raster) offset(x, y int) int {
	return r.img.PixOffset(r.minX+x, r.minY+y)
}

// FromRGB builds an opaque image from a row-major, channel-interleaved
// height x width x 3 buffer.
func FromRGB(pix []uint8, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrInvalidInput, width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("%w: buffer has %d samples, want %dx%dx%d",
			ErrMalformedInput, len(pix), height, width, Channels)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	src, dst := 0, 0
	for i := 0; i < width*height; i++ {
		img.Pix[dst+0] = pix[src+0]
		img.Pix[dst+1] = pix[src+1]
		img.Pix[dst+2] = pix[src+2]
		img.Pix[dst+3] = 0xff
		src += Channels
		dst += 4
	}
	return img, nil
}

// ToRGB flattens img into a row-major height x width x 3 buffer, dropping alpha
func ToRGB(img image.Image) ([]uint8, error) {
	n, err := asNRGBA(img)
	if err != nil {
		return nil, err
	}
	b := n.Bounds()
	w, h := b.Dx(), b.Dy()

	out := make([]uint8, 0, w*h*Channels)
	for y := 0; y < h; y++ {
		off := n.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			out = append(out, n.Pix[off], n.Pix[off+1], n.Pix[off+2])
			off += 4
		}
	}
	return out, nil
}
