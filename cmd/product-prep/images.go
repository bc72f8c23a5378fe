package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	productprep "github.com/menta2k/product-prep"
	"github.com/menta2k/product-prep/internal/config"
	"github.com/menta2k/product-prep/internal/utils"
	"github.com/menta2k/product-prep/pkg/imageio"
	"github.com/menta2k/product-prep/pkg/records"
	"github.com/menta2k/product-prep/pkg/vectorize"
)

func newImagesCmd(a *app) *cobra.Command {
	var (
		recordsPath, testPath string
		source, dir, baseURL  string
		bucket, prefix        string
		backend               string
		side, workers, limit  int
		scale                 float64
		preview               string
		previewCount          int
		save                  bool
	)

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Build the image feature matrix of product listings",
		Long: `Images loads the photo of every listing, crops it to the square around the
product, resizes it to side x side pixels and flattens it into one matrix row.

Listings come from --records (CSV or Parquet). Without --records every canonical
image_<imageid>_product_<productid> file of a dir or s3 source is used.
With --test the train and test matrices are reshaped into scaled tensors.`,
		Example: `  product-prep images --records X_train.csv --dir images/image_train --side 100
  product-prep images --source s3 --bucket products --prefix image_train --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			src := &a.cfg.Image.Source
			if flags.Changed("source") {
				src.Kind = source
			}
			if flags.Changed("dir") {
				src.Dir = dir
			}
			if flags.Changed("base-url") {
				src.BaseURL = baseURL
			}
			if flags.Changed("bucket") {
				src.S3.Bucket = bucket
			}
			if flags.Changed("prefix") {
				src.S3.Prefix = prefix
			}
			if flags.Changed("side") {
				a.cfg.Image.Side = side
			}
			if flags.Changed("workers") {
				a.cfg.Image.Workers = workers
			}
			if flags.Changed("scale") {
				a.cfg.Image.Scale = scale
			}
			if flags.Changed("backend") {
				a.cfg.Image.Backend = backend
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			imgSrc, err := p.Source()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			train, err := loadListings(ctx, a.cfg, imgSrc, recordsPath, limit)
			if err != nil {
				return err
			}
			slog.Info("Vectorizing images", "listings", len(train), "source", src.Kind, "side", a.cfg.Image.Side)

			if preview != "" {
				if err := writePreviews(ctx, p, imgSrc, train, preview, previewCount); err != nil {
					return err
				}
			}

			m, err := p.ImageMatrix(ctx, imgSrc, train)
			if err != nil {
				return err
			}
			fmt.Printf("Image matrix: %d rows x %d columns\n", m.Rows, m.Cols)

			if save {
				if err := saveMatrix(a, "X_image_train", m, train); err != nil {
					return err
				}
			}

			if testPath == "" {
				return nil
			}
			test, err := loadListings(ctx, a.cfg, imgSrc, testPath, limit)
			if err != nil {
				return err
			}
			mTest, err := p.ImageMatrix(ctx, imgSrc, test)
			if err != nil {
				return fmt.Errorf("test images: %w", err)
			}
			if save {
				if err := saveMatrix(a, "X_image_test", mTest, test); err != nil {
					return err
				}
			}
			set, err := vectorize.ImageData(m, mTest, a.cfg.Image.Side, a.cfg.Image.Scale)
			if err != nil {
				return err
			}
			fmt.Printf("Train tensor: %v\nTest tensor: %v\n", set.Train.Shape(), set.Test.Shape())
			return nil
		},
	}

	cmd.Flags().StringVar(&recordsPath, "records", "", "listings file (.csv or .parquet)")
	cmd.Flags().StringVar(&testPath, "test", "", "test listings file; builds train and test tensors")
	cmd.Flags().StringVar(&source, "source", config.SourceDir, "image source: dir|http|s3")
	cmd.Flags().StringVar(&dir, "dir", "", "image directory for the dir source")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL for the http source")
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket for the s3 source")
	cmd.Flags().StringVar(&prefix, "prefix", "", "object prefix for the s3 source")
	cmd.Flags().StringVar(&backend, "backend", "imaging", "resize backend: imaging|nfnt")
	cmd.Flags().IntVar(&side, "side", vectorize.DefaultSide, "edge length of vectorized images")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel image workers")
	cmd.Flags().IntVar(&limit, "limit", 0, "read at most this many listings, 0 reads all")
	cmd.Flags().Float64Var(&scale, "scale", 0, "divide tensor values by scale, 0 keeps raw intensities")
	cmd.Flags().StringVar(&preview, "preview", "", "directory for crop overlays of the first listings")
	cmd.Flags().IntVar(&previewCount, "preview-count", 10, "number of listings to preview")
	cmd.Flags().BoolVar(&save, "save", false, "write the matrices as CSV into the output directory")

	return cmd
}

// lister is implemented by sources that can enumerate their images
type lister interface {
	List(ctx context.Context) ([]imageio.ImageRef, error)
}

// loadListings reads path, or enumerates the source when path is empty
func loadListings(ctx context.Context, cfg *config.Config, src imageio.Source, path string, limit int) ([]records.Record, error) {
	if path != "" {
		return load(path, limit)
	}

	var refs []imageio.ImageRef
	switch s := src.(type) {
	case lister:
		var err error
		if refs, err = s.List(ctx); err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}
	case *imageio.DirSource:
		files, err := utils.ListImageFiles(s.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}
		for _, f := range files {
			ref, err := imageio.ParseImageRef(f)
			if err != nil {
				slog.Debug("Skipping file", "path", f, "error", err)
				continue
			}
			refs = append(refs, ref)
		}
	default:
		return nil, fmt.Errorf("--records is required for %s sources", cfg.Image.Source.Kind)
	}

	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	recs := make([]records.Record, len(refs))
	for i, ref := range refs {
		recs[i] = records.Record{Index: int64(i), ImageID: ref.ImageID, ProductID: ref.ProductID}
	}
	return recs, nil
}

// writePreviews saves crop overlays of the first n listings
func writePreviews(ctx context.Context, p *productprep.Pipeline, src imageio.Source, recs []records.Record, dir string, n int) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	for _, rec := range recs[:min(n, len(recs))] {
		ref := rec.ImageRef()
		img, err := src.Open(ctx, ref)
		if err != nil {
			slog.Warn("Failed to open preview image", "image", ref.Filename(), "error", err)
			continue
		}
		res, err := p.CropImage(img)
		if err != nil {
			slog.Warn("Failed to crop preview image", "image", ref.Filename(), "error", err)
			continue
		}
		overlay := p.Processor().CreateDebugOverlay(img, res.Content.Rect(), res.Region)
		out := utils.GenerateOutputFilename(ref.Filename(), dir, "", "_preview", "png")
		if err := p.Processor().SaveImage(overlay, out, "png", 0, false); err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}
		slog.Debug("Saved preview", "output", out, "square", res.Square())
	}
	return nil
}

// saveMatrix writes m with the listing index as first column
func saveMatrix(a *app, name string, m *vectorize.Matrix, recs []records.Record) error {
	path, err := a.artifact(name, "csv")
	if err != nil {
		return err
	}
	index := records.Indexes(recs)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := m.WriteCSV(f, index); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	logArtifact("Saved dataset", path)
	return nil
}
