package imageio

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ImageRef identifies the photo of one product listing
type ImageRef struct {
	ImageID   int64
	ProductID int64
}

// Filename returns the canonical file name, image_<imageid>_product_<productid>.jpg
func (r ImageRef) Filename() string {
	return fmt.Sprintf("image_%d_product_%d.jpg", r.ImageID, r.ProductID)
}

var refPattern = regexp.MustCompile(`^image_(\d+)_product_(\d+)\.[A-Za-z]+$`)

// ParseImageRef extracts the identifiers from a canonical file name. Any
// directory prefix is ignored.
func ParseImageRef(name string) (ImageRef, error) {
	m := refPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return ImageRef{}, fmt.Errorf("not a product image name: %q", name)
	}
	imageID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ImageRef{}, fmt.Errorf("image id in %q: %w", name, err)
	}
	productID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return ImageRef{}, fmt.Errorf("product id in %q: %w", name, err)
	}
	return ImageRef{ImageID: imageID, ProductID: productID}, nil
}

// Source opens product images by reference
type Source interface {
	Open(ctx context.Context, ref ImageRef) (image.Image, error)
}

// DirSource reads images from a local directory
type DirSource struct {
	Dir       string
	processor *Processor
}

// NewDirSource creates a source rooted at dir
func NewDirSource(dir string, processor *Processor) *DirSource {
	if processor == nil {
		processor = NewProcessor()
	}
	return &DirSource{Dir: dir, processor: processor}
}

// Open loads the image for ref
func (s *DirSource) Open(ctx context.Context, ref ImageRef) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, ref.Filename())
	img, err := s.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := s.processor.checkSize(img); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// HTTPSource fetches images from a static file server. Requests share the
// processor's rate limiter.
type HTTPSource struct {
	BaseURL   string
	processor *Processor
}

// NewHTTPSource creates a source that appends canonical names to baseURL
func NewHTTPSource(baseURL string, processor *Processor) *HTTPSource {
	if processor == nil {
		processor = NewProcessor()
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), processor: processor}
}

// Open downloads the image for ref
func (s *HTTPSource) Open(ctx context.Context, ref ImageRef) (image.Image, error) {
	u := s.BaseURL + "/" + ref.Filename()
	img, err := s.processor.LoadImageFromURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	if err := s.processor.checkSize(img); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	return img, nil
}
