// Package productprep prepares product listings for multimodal
// classification.
//
// Photos are trimmed to the smallest square holding the product, resized and
// flattened into pixel rows. Titles and descriptions are cleaned, lemmatized,
// tagged with a language and weighted by TF-IDF.
//
// Basic usage:
//
//	p, err := productprep.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	img, err := p.LoadImage(ctx, "image_1263597046_product_3804725264.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := p.CropImage(img)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("content %+v, crop %v\n", res.Content, res.Region)
//
// The package wires together:
//
//  1. autocrop (pkg/autocrop): boundary scan and square crop
//  2. imageio (pkg/imageio): decoding, encoding and image sources
//  3. vectorize (pkg/vectorize): image matrices and tensors
//  4. textprep (pkg/textprep): text cleaning, lemmas and languages
//  5. features (pkg/features): scaler, encoders and TF-IDF
package productprep

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/product-prep/internal/config"
	"github.com/menta2k/product-prep/internal/utils"
	"github.com/menta2k/product-prep/pkg/autocrop"
	"github.com/menta2k/product-prep/pkg/features"
	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/records"
	"github.com/menta2k/product-prep/pkg/textprep"
	"github.com/menta2k/product-prep/pkg/vectorize"
)

// Version of the product-prep library
const Version = "1.0.0"

// Pipeline provides a high-level interface over the image and text steps
type Pipeline struct {
	config     *config.Config
	logger     *slog.Logger
	processor  *imageio.Processor
	cropper    *autocrop.Cropper
	vectorizer *vectorize.Vectorizer

	// built on first use; loads the lemma dictionary
	textOnce func() (*textprep.Preprocessor, error)
}

// New creates a Pipeline with default configuration
func New() (*Pipeline, error) {
	return NewWithConfig(config.Default(), nil)
}

// NewWithConfig creates a Pipeline from cfg. A nil logger discards output.
func NewWithConfig(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	vec, err := vectorize.NewWithConfig(vectorize.Config{
		Side:      cfg.Image.Side,
		Threshold: cfg.Crop.Threshold,
		Backend:   vectorize.Backend(cfg.Image.Backend),
		Workers:   cfg.Image.Workers,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	src := cfg.Image.Source
	p := &Pipeline{
		config: cfg,
		logger: logger,
		processor: imageio.NewProcessorWithConfig(imageio.Config{
			Timeout:       time.Duration(src.TimeoutSeconds) * time.Second,
			UserAgent:     imageio.DefaultConfig().UserAgent,
			RatePerSecond: src.RatePerSecond,
			Burst:         src.Burst,
			MinSize:       src.MinSize,
		}),
		cropper:    autocrop.NewWithConfig(autocrop.Config{Threshold: cfg.Crop.Threshold}),
		vectorizer: vec,
	}
	p.textOnce = sync.OnceValues(func() (*textprep.Preprocessor, error) {
		return textprep.NewWithConfig(textprep.Config{
			MinConfidence:       cfg.Text.MinConfidence,
			CorrectionLanguages: cfg.Text.CorrectionLanguages,
			SkipLemmas:          cfg.Text.SkipLemmas,
			Workers:             cfg.Text.Workers,
			Logger:              logger,
		})
	})
	return p, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() *config.Config {
	return p.config
}

// Processor returns the image processor shared by every source
func (p *Pipeline) Processor() *imageio.Processor {
	return p.processor
}

// LoadImage loads an image from a file path or an http(s) URL
func (p *Pipeline) LoadImage(ctx context.Context, source string) (image.Image, error) {
	return p.processor.LoadImageSmart(ctx, source)
}

// SaveImage saves img in the configured crop format
func (p *Pipeline) SaveImage(img image.Image, path string) error {
	c := p.config.Crop
	return p.processor.SaveImage(img, path, c.Format, c.Quality, c.Lossless)
}

// CropImage trims img to the square around its content. With a positive
// crop size the result is resized to that size.
func (p *Pipeline) CropImage(img image.Image) (autocrop.Result, error) {
	res, err := p.cropper.Crop(img)
	if err != nil {
		return autocrop.Result{}, err
	}
	if size := p.config.Crop.Size; size > 0 {
		res.Image = imaging.Resize(res.Image, size, size, imaging.Lanczos)
	}
	return res, nil
}

// ProcessImageFile loads, crops and saves one image and returns the output
// path
func (p *Pipeline) ProcessImageFile(ctx context.Context, inputPath, outputDir string) (string, error) {
	img, err := p.LoadImage(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	res, err := p.CropImage(img)
	if err != nil {
		return "", fmt.Errorf("cropping failed: %w", err)
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out := p.config.Output
	outputPath := utils.GenerateOutputFilename(inputPath, outputDir, out.Prefix, out.Suffix, p.config.Crop.Format)
	if err := p.SaveImage(res.Image, outputPath); err != nil {
		return "", fmt.Errorf("failed to save crop: %w", err)
	}

	p.logger.Debug("Cropped image", "input", inputPath, "output", outputPath,
		"content", res.Content, "region", res.Region, "square", res.Square())
	return outputPath, nil
}

// Source opens the image source described by the configuration
func (p *Pipeline) Source() (imageio.Source, error) {
	src := p.config.Image.Source
	switch src.Kind {
	case config.SourceDir:
		return imageio.NewDirSource(src.Dir, p.processor), nil
	case config.SourceHTTP:
		return imageio.NewHTTPSource(src.BaseURL, p.processor), nil
	case config.SourceS3:
		return imageio.NewS3Source(src.S3, p.processor)
	default:
		return nil, fmt.Errorf("unknown image source kind %q", src.Kind)
	}
}

// ImageMatrix vectorizes the photo of every record, one row per record
func (p *Pipeline) ImageMatrix(ctx context.Context, src imageio.Source, recs []records.Record) (*vectorize.Matrix, error) {
	return p.vectorizer.Matrix(ctx, src, records.ImageRefs(recs))
}

// ImageData vectorizes both splits and reshapes them into tensors scaled by
// the configured factor
func (p *Pipeline) ImageData(ctx context.Context, src imageio.Source, train, test []records.Record) (*vectorize.ImageSet, error) {
	mTrain, err := p.ImageMatrix(ctx, src, train)
	if err != nil {
		return nil, fmt.Errorf("train images: %w", err)
	}
	mTest, err := p.ImageMatrix(ctx, src, test)
	if err != nil {
		return nil, fmt.Errorf("test images: %w", err)
	}
	return vectorize.ImageData(mTrain, mTest, p.config.Image.Side, p.config.Image.Scale)
}

// Preprocess cleans the text of every record
func (p *Pipeline) Preprocess(ctx context.Context, recs []records.Record) ([]textprep.Document, error) {
	tp, err := p.textOnce()
	if err != nil {
		return nil, err
	}
	return tp.Process(ctx, records.TextInputs(recs))
}

// TextData preprocesses both splits and fits the text features and targets
// on the training split
func (p *Pipeline) TextData(ctx context.Context, train, test []records.Record) (*features.TextSet, error) {
	docsTrain, err := p.Preprocess(ctx, train)
	if err != nil {
		return nil, fmt.Errorf("train text: %w", err)
	}
	docsTest, err := p.Preprocess(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("test text: %w", err)
	}

	set, err := features.TextData(docsTrain, docsTest, records.Targets(train), records.Targets(test), p.config.Text.MaxFeatures)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Built text features",
		"vocabulary", len(set.Features.Vectorizer.Vocabulary),
		"languages", len(set.Features.Language.Categories),
		"classes", len(set.Targets.Classes))
	return set, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
