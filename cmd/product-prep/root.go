package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	productprep "github.com/menta2k/product-prep"
	"github.com/menta2k/product-prep/internal/config"
	"github.com/menta2k/product-prep/internal/utils"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	start  time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "product-prep",
		Short: "Prepare product photos and listings for classification models",
		Long: `product-prep crops product photos to the square around the product,
turns them into pixel matrices, and builds TF-IDF text features from listing
titles and descriptions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (YAML or JSON; default "+config.GetConfigPath()+" when present)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newCropCmd(a))
	cmd.AddCommand(newImagesCmd(a))
	cmd.AddCommand(newTextCmd(a))

	return cmd
}

func (a *app) setup() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	a.start = time.Now()

	path := a.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path == "" {
		a.cfg = config.Default()
		return nil
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	slog.Debug("Loaded configuration", "path", path)
	a.cfg = cfg
	return nil
}

// pipeline validates the (flag-adjusted) configuration and builds the pipeline
func (a *app) pipeline() (*productprep.Pipeline, error) {
	p, err := productprep.NewWithConfig(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// artifact returns the output path of a named run artifact
func (a *app) artifact(name, ext string) (string, error) {
	dir := a.cfg.Output.Dir
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	stamp := ""
	if a.cfg.Output.Timestamp {
		stamp = utils.TimestampPrefix(a.start)
	}
	return utils.ArtifactPath(dir, stamp, name, ext), nil
}

// logArtifact reports a written artifact with its size on disk
func logArtifact(msg, path string) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("Failed to stat artifact", "path", path, "error", err)
		return
	}
	slog.Info(msg, "path", path, "size", utils.FormatFileSize(info.Size()))
}
