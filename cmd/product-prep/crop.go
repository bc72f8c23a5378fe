package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	productprep "github.com/menta2k/product-prep"
	"github.com/menta2k/product-prep/internal/utils"
)

func newCropCmd(a *app) *cobra.Command {
	var (
		in, out, ext string
		threshold    int
		size         int
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Crop product photos to the square around the product",
		Long: `Crop finds the bounding box of every pixel darker than the threshold in at
least one channel and writes the smallest square around it.

--in accepts an image file, a directory (searched recursively) or an http(s) URL.`,
		Example: `  product-prep crop --in photos/ --out squares/ --threshold 230
  product-prep crop --in image_1_product_2.jpg --size 500 --ext webp --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return fmt.Errorf("--in is required")
			}
			if cmd.Flags().Changed("threshold") {
				a.cfg.Crop.Threshold = threshold
			}
			if cmd.Flags().Changed("size") {
				a.cfg.Crop.Size = size
			}
			if cmd.Flags().Changed("ext") {
				a.cfg.Crop.Format = ext
			}
			if out == "" {
				out = a.cfg.Output.Dir
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}

			inputs := []string{in}
			if utils.DirExists(in) {
				if inputs, err = utils.ListImageFiles(in); err != nil {
					return fmt.Errorf("failed to list images: %w", err)
				}
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no images found in %s", in)
			}
			slog.Info("Cropping images", "count", len(inputs), "threshold", a.cfg.Crop.Threshold, "output", out)

			failed := 0
			for i, path := range inputs {
				saved, err := p.ProcessImageFile(cmd.Context(), path, out)
				if err != nil {
					failed++
					slog.Warn("Failed to crop image", "input", path, "error", err)
					continue
				}
				slog.Debug("Saved crop", "index", i+1, "total", len(inputs), "output", saved)

				if debug {
					if err := writeOverlay(cmd.Context(), p, path, out); err != nil {
						slog.Warn("Failed to write debug overlay", "input", path, "error", err)
					}
				}
			}

			slog.Info("Cropping finished", "cropped", len(inputs)-failed, "failed", failed)
			if failed == len(inputs) {
				return fmt.Errorf("no image could be cropped")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input image, directory or URL")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default from config)")
	cmd.Flags().IntVar(&threshold, "threshold", 230, "background cutoff; pixels with any channel below it are content (0-255)")
	cmd.Flags().IntVar(&size, "size", 0, "resize crops to size x size pixels, 0 keeps the crop size")
	cmd.Flags().StringVar(&ext, "ext", "jpg", "output format: jpg|png|webp")
	cmd.Flags().BoolVar(&debug, "debug", false, "also write an overlay with the content box and crop region")

	return cmd
}

// writeOverlay draws the content box and crop region on the source image
func writeOverlay(ctx context.Context, p *productprep.Pipeline, path, outDir string) error {
	img, err := p.LoadImage(ctx, path)
	if err != nil {
		return err
	}
	res, err := p.CropImage(img)
	if err != nil {
		return err
	}
	overlay := p.Processor().CreateDebugOverlay(img, res.Content.Rect(), res.Region)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.Processor().SaveImage(overlay, filepath.Join(outDir, name+"_debug.png"), "png", 0, false)
}
