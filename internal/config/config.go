package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/product-prep/pkg/imageio"
)

// Config holds the application configuration
type Config struct {
	Crop   CropConfig   `yaml:"crop" json:"crop"`
	Image  ImageConfig  `yaml:"image" json:"image"`
	Text   TextConfig   `yaml:"text" json:"text"`
	Output OutputConfig `yaml:"output" json:"output"`
}

// CropConfig holds configuration for the square cropper
type CropConfig struct {
	Threshold int    `yaml:"threshold" json:"threshold"`
	Format    string `yaml:"format" json:"format"`
	Quality   int    `yaml:"quality" json:"quality"`
	Lossless  bool   `yaml:"lossless" json:"lossless"`
	// Size resizes crops to Size x Size when positive
	Size int `yaml:"size" json:"size"`
}

// ImageConfig holds configuration for image vectorization
type ImageConfig struct {
	Side    int          `yaml:"side" json:"side"`
	Scale   float64      `yaml:"scale" json:"scale"`
	Backend string       `yaml:"backend" json:"backend"`
	Workers int          `yaml:"workers" json:"workers"`
	Source  SourceConfig `yaml:"source" json:"source"`
}

// SourceConfig selects where product images are read from
type SourceConfig struct {
	Kind           string           `yaml:"kind" json:"kind"`
	Dir            string           `yaml:"dir" json:"dir"`
	BaseURL        string           `yaml:"base_url" json:"base_url"`
	TimeoutSeconds int              `yaml:"timeout_seconds" json:"timeout_seconds"`
	RatePerSecond  float64          `yaml:"rate_per_second" json:"rate_per_second"`
	Burst          int              `yaml:"burst" json:"burst"`
	MinSize        int              `yaml:"min_size" json:"min_size"`
	S3             imageio.S3Config `yaml:"s3" json:"s3"`
}

// TextConfig holds configuration for text preprocessing and features
type TextConfig struct {
	MaxFeatures         int      `yaml:"max_features" json:"max_features"`
	MinConfidence       float64  `yaml:"min_confidence" json:"min_confidence"`
	CorrectionLanguages []string `yaml:"correction_languages" json:"correction_languages"`
	SkipLemmas          bool     `yaml:"skip_lemmas" json:"skip_lemmas"`
	Workers             int      `yaml:"workers" json:"workers"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir    string `yaml:"dir" json:"dir"`
	Prefix string `yaml:"prefix" json:"prefix"`
	Suffix string `yaml:"suffix" json:"suffix"`
	// Timestamp prefixes artifact names with the run time
	Timestamp bool `yaml:"timestamp" json:"timestamp"`
}

// Source kinds
const (
	SourceDir  = "dir"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			Threshold: 230,
			Format:    "jpg",
			Quality:   95,
		},
		Image: ImageConfig{
			Side:    100,
			Backend: "imaging",
			Workers: 4,
			Source: SourceConfig{
				Kind:           SourceDir,
				Dir:            "./images",
				TimeoutSeconds: 30,
				MinSize:        1,
			},
		},
		Text: TextConfig{
			MaxFeatures:         5000,
			MinConfidence:       0.5,
			CorrectionLanguages: []string{"fr", "en"},
			Workers:             4,
		},
		Output: OutputConfig{
			Dir:    "./output",
			Suffix: "_square",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, chosen by
// extension. Environment references like ${VAR} are expanded first. Fields
// missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		err = json.Unmarshal(expanded, config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, config)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as YAML or JSON, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("unsupported config format: %s", filename)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Crop.Threshold < 0 || c.Crop.Threshold > 255 {
		return fmt.Errorf("crop.threshold must be between 0 and 255")
	}

	if c.Crop.Quality < 1 || c.Crop.Quality > 100 {
		return fmt.Errorf("crop.quality must be between 1 and 100")
	}

	if !slices.Contains([]string{"jpg", "jpeg", "png", "webp"}, strings.ToLower(c.Crop.Format)) {
		return fmt.Errorf("crop.format must be one of jpg, png, webp")
	}

	if c.Crop.Size < 0 {
		return fmt.Errorf("crop.size cannot be negative")
	}

	if c.Image.Side < 1 {
		return fmt.Errorf("image.side must be positive")
	}

	if c.Image.Scale < 0 {
		return fmt.Errorf("image.scale cannot be negative")
	}

	if c.Image.Backend != "imaging" && c.Image.Backend != "nfnt" {
		return fmt.Errorf("image.backend must be imaging or nfnt")
	}

	switch c.Image.Source.Kind {
	case SourceDir:
		if c.Image.Source.Dir == "" {
			return fmt.Errorf("image.source.dir is required for dir sources")
		}
	case SourceHTTP:
		if c.Image.Source.BaseURL == "" {
			return fmt.Errorf("image.source.base_url is required for http sources")
		}
	case SourceS3:
		if c.Image.Source.S3.Bucket == "" || c.Image.Source.S3.Endpoint == "" {
			return fmt.Errorf("image.source.s3 needs endpoint and bucket")
		}
	default:
		return fmt.Errorf("image.source.kind must be dir, http or s3")
	}

	if c.Image.Source.MinSize < 0 {
		return fmt.Errorf("image.source.min_size cannot be negative")
	}

	if c.Image.Source.RatePerSecond < 0 {
		return fmt.Errorf("image.source.rate_per_second cannot be negative")
	}

	if c.Text.MaxFeatures < 0 {
		return fmt.Errorf("text.max_features cannot be negative")
	}

	if c.Text.MinConfidence < 0 || c.Text.MinConfidence > 1 {
		return fmt.Errorf("text.min_confidence must be between 0 and 1")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "product-prep", "config.yaml")
}
