// Package vectorize turns product photos into fixed-size pixel rows for
// image models.
package vectorize

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/product-prep/pkg/autocrop"
	"github.com/menta2k/product-prep/pkg/imageio"
)

// Backend selects the resampling library
type Backend string

const (
	// BackendImaging resizes with disintegration/imaging (bilinear)
	BackendImaging Backend = "imaging"
	// BackendNfnt resizes with nfnt/resize (bilinear)
	BackendNfnt Backend = "nfnt"
)

// DefaultSide is the edge length of vectorized images
const DefaultSide = 100

// Config holds configuration for the vectorizer
type Config struct {
	Side      int
	Threshold int
	Backend   Backend
	Workers   int
	Logger    *slog.Logger
}

// DefaultConfig returns the settings used by New
func DefaultConfig() Config {
	return Config{
		Side:      DefaultSide,
		Threshold: autocrop.DefaultThreshold,
		Backend:   BackendImaging,
		Workers:   runtime.NumCPU(),
	}
}

// Vectorizer crops, resizes and flattens images
type Vectorizer struct {
	config  Config
	cropper *autocrop.Cropper
	logger  *slog.Logger
}

// New creates a vectorizer with default settings
func New() *Vectorizer {
	v, _ := NewWithConfig(DefaultConfig())
	return v
}

// NewWithConfig creates a vectorizer with custom configuration
func NewWithConfig(config Config) (*Vectorizer, error) {
	if config.Side < 1 {
		return nil, fmt.Errorf("side must be positive, got %d", config.Side)
	}
	if config.Threshold < 0 || config.Threshold > 255 {
		return nil, fmt.Errorf("%w: threshold %d outside [0, 255]", autocrop.ErrInvalidArgument, config.Threshold)
	}
	switch config.Backend {
	case "":
		config.Backend = BackendImaging
	case BackendImaging, BackendNfnt:
	default:
		return nil, fmt.Errorf("unknown resize backend %q", config.Backend)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Vectorizer{
		config:  config,
		cropper: autocrop.NewWithConfig(autocrop.Config{Threshold: config.Threshold}),
		logger:  logger,
	}, nil
}

// Side returns the output edge length
func (v *Vectorizer) Side() int {
	return v.config.Side
}

// Width returns the length of one vectorized image
func (v *Vectorizer) Width() int {
	return v.config.Side * v.config.Side * autocrop.Channels
}

// Vectorize crops img to a square, resizes it to Side x Side and flattens
// it into height x width x RGB order
func (v *Vectorizer) Vectorize(img image.Image) ([]uint8, error) {
	res, err := v.cropper.Crop(img)
	if err != nil {
		return nil, err
	}
	return autocrop.ToRGB(v.resize(res.Image))
}

func (v *Vectorizer) resize(img *image.NRGBA) image.Image {
	side := v.config.Side
	if v.config.Backend == BackendNfnt {
		return resize.Resize(uint(side), uint(side), img, resize.Bilinear)
	}
	return imaging.Resize(img, side, side, imaging.Linear)
}

var checkpoints = map[int]bool{1000: true, 2000: true, 3000: true, 4000: true}

func isCheckpoint(n int) bool {
	return checkpoints[n] || n%5000 == 0
}

// Matrix loads every ref from src and vectorizes it. Rows follow refs. The
// first failure cancels the batch.
func (v *Vectorizer) Matrix(ctx context.Context, src imageio.Source, refs []imageio.ImageRef) (*Matrix, error) {
	m := NewMatrix(len(refs), v.Width())
	start := time.Now()
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.config.Workers)
	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			img, err := src.Open(gctx, ref)
			if err != nil {
				return fmt.Errorf("open %s: %w", ref.Filename(), err)
			}
			row, err := v.Vectorize(img)
			if err != nil {
				return fmt.Errorf("vectorize %s: %w", ref.Filename(), err)
			}
			copy(m.Row(i), row)

			if n := int(done.Add(1)); isCheckpoint(n) {
				v.logger.Info("Vectorized images", "count", n, "elapsed", time.Since(start).Round(time.Second))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.logger.Info("Vectorization finished", "images", len(refs), "elapsed", time.Since(start).Round(time.Millisecond))
	return m, nil
}
