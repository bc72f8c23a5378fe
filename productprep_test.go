package productprep

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-prep/internal/config"
	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/records"
)

// createProductImage creates a near-white photo with a dark product filling product
func createProductImage(width, height int, product image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			c := color.NRGBA{250, 250, 250, 255}
			if image.Pt(px, py).In(product) {
				c = color.NRGBA{40, 60, 80, 255}
			}
			img.SetNRGBA(px, py, c)
		}
	}
	return img
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Image.Side = 8
	cfg.Image.Scale = 255
	cfg.Image.Source.Dir = t.TempDir()
	cfg.Text.SkipLemmas = true
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestNew(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, 230, p.Config().Crop.Threshold)
	assert.Equal(t, "1.0.0", GetVersion())

	cfg := config.Default()
	cfg.Image.Side = 0
	_, err = NewWithConfig(cfg, nil)
	assert.Error(t, err)
}

func TestCropImage(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewWithConfig(cfg, nil)
	require.NoError(t, err)

	res, err := p.CropImage(createProductImage(60, 40, image.Rect(10, 10, 30, 20)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 5, 30, 25), res.Region)
	assert.True(t, res.Square())

	cfg.Crop.Size = 16
	res, err = p.CropImage(createProductImage(60, 40, image.Rect(10, 10, 30, 20)))
	require.NoError(t, err)
	assert.Equal(t, 16, res.Image.Bounds().Dx())
}

func TestProcessImageFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crop.Format = "png"
	p, err := NewWithConfig(cfg, nil)
	require.NoError(t, err)

	input := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, p.Processor().SaveImage(createProductImage(50, 30, image.Rect(5, 5, 15, 25)), input, "png", 100, false))

	out, err := p.ProcessImageFile(context.Background(), input, cfg.Output.Dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "photo_square.png"), out)

	img, err := p.LoadImage(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), img.Bounds().Size())

	_, err = p.ProcessImageFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"), cfg.Output.Dir)
	assert.Error(t, err)
}

func TestImageData(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewWithConfig(cfg, nil)
	require.NoError(t, err)

	recs := []records.Record{
		{ProductID: 1, ImageID: 10},
		{ProductID: 2, ImageID: 20},
		{ProductID: 3, ImageID: 30},
	}
	for _, r := range recs {
		path := filepath.Join(cfg.Image.Source.Dir, r.ImageRef().Filename())
		require.NoError(t, p.Processor().SaveImage(createProductImage(40, 30, image.Rect(8, 6, 20, 24)), path, "jpg", 95, false))
	}

	src, err := p.Source()
	require.NoError(t, err)
	assert.IsType(t, &imageio.DirSource{}, src)

	set, err := p.ImageData(context.Background(), src, recs[:2], recs[2:])
	require.NoError(t, err)
	assert.Equal(t, [4]int{2, 8, 8, 3}, set.Train.Shape())
	assert.Equal(t, [4]int{1, 8, 8, 3}, set.Test.Shape())
	for _, v := range set.Train.Data {
		assert.LessOrEqual(t, v, float32(1))
	}

	_, err = p.ImageData(context.Background(), src, []records.Record{{ProductID: 9, ImageID: 9}}, nil)
	assert.ErrorContains(t, err, "train images")
}

func TestSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Image.Source.Kind = config.SourceHTTP
	cfg.Image.Source.BaseURL = "http://localhost:8080/images"
	p, err := NewWithConfig(cfg, nil)
	require.NoError(t, err)

	src, err := p.Source()
	require.NoError(t, err)
	assert.IsType(t, &imageio.HTTPSource{}, src)
}

func TestTextData(t *testing.T) {
	p, err := NewWithConfig(testConfig(t), nil)
	require.NoError(t, err)

	train := []records.Record{
		{Designation: "Jouet en bois pour enfants", Description: "<p>Un jouet solide et durable</p>", PrdTypeCode: 1280},
		{Designation: "Harry Potter livre de poche", Description: "Roman jeunesse", PrdTypeCode: 10},
	}
	test := []records.Record{
		{Designation: "Livre de cuisine", PrdTypeCode: 10},
	}

	set, err := p.TextData(context.Background(), train, test)
	require.NoError(t, err)

	rows, cols := set.XTrain.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, set.Features.Width(), cols)
	testRows, testCols := set.XTest.Shape()
	assert.Equal(t, 1, testRows)
	assert.Equal(t, cols, testCols)
	assert.Equal(t, []int{10, 1280}, set.Targets.Classes)
	assert.Equal(t, [][]int{{1, 0}}, set.YTest)
	assert.Contains(t, set.Features.Vectorizer.Vocabulary, "jouet")
}
