package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-prep/internal/config"
	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/records"
	"github.com/menta2k/product-prep/pkg/vectorize"
)

func TestLoadListingsFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"image_1_product_2.jpg", "image_3_product_4.png", "cover.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	cfg := config.Default()
	cfg.Image.Source.Dir = dir
	src := imageio.NewDirSource(dir, imageio.NewProcessor())

	recs, err := loadListings(context.Background(), cfg, src, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []records.Record{
		{Index: 0, ImageID: 1, ProductID: 2},
		{Index: 1, ImageID: 3, ProductID: 4},
	}, recs)

	recs, err = loadListings(context.Background(), cfg, src, "", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestLoadListingsRequiresRecords(t *testing.T) {
	cfg := config.Default()
	cfg.Image.Source.Kind = config.SourceHTTP
	src := imageio.NewHTTPSource("http://example.com", imageio.NewProcessor())

	_, err := loadListings(context.Background(), cfg, src, "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--records is required")
}

func TestLoadListingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "X_train.csv")
	data := "designation,description,productid,imageid\n" +
		"Toy,,10,20\n" +
		"Mug,white,11,21\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	recs, err := loadListings(context.Background(), config.Default(), nil, path, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(10), recs[0].ProductID)
}

func TestArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a := &app{cfg: config.Default(), start: time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)}
	a.cfg.Output.Dir = dir

	path, err := a.artifact("X_image_train", "csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "X_image_train.csv"), path)
	assert.DirExists(t, dir)

	a.cfg.Output.Timestamp = true
	path, err = a.artifact("vocabulary", "txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2403091405_vocabulary.txt"), path)
}

func TestSaveMatrixUsesListingIndex(t *testing.T) {
	a := &app{cfg: config.Default(), start: time.Now()}
	a.cfg.Output.Dir = t.TempDir()

	m := vectorize.NewMatrix(2, 2)
	copy(m.Pix, []uint8{1, 2, 3, 4})
	recs := []records.Record{
		{Index: 42, ProductID: 10, ImageID: 20},
		{Index: 7, ProductID: 11, ImageID: 21},
	}
	require.NoError(t, saveMatrix(a, "X_image_train", m, recs))

	data, err := os.ReadFile(filepath.Join(a.cfg.Output.Dir, "X_image_train.csv"))
	require.NoError(t, err)
	assert.Equal(t, ",px_0,px_1\n42,1,2\n7,3,4\n", string(data))
}
