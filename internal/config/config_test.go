package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("PREP_S3_SECRET", "s3cr3t")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crop:
  threshold: 200
image:
  side: 64
  source:
    kind: s3
    s3:
      endpoint: localhost:9000
      bucket: products
      secret_key: ${PREP_S3_SECRET}
text:
  correction_languages: [fr, en, de]
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Crop.Threshold)
	assert.Equal(t, 64, cfg.Image.Side)
	assert.Equal(t, "s3cr3t", cfg.Image.Source.S3.SecretKey)
	assert.Equal(t, []string{"fr", "en", "de"}, cfg.Text.CorrectionLanguages)
	// untouched fields keep defaults
	assert.Equal(t, 5000, cfg.Text.MaxFeatures)
	assert.Equal(t, "jpg", cfg.Crop.Format)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Image.Backend = "nfnt"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	toml := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("a = 1"), 0o644))
	_, err = LoadFromFile(toml)
	assert.ErrorContains(t, err, "unsupported")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "parse")

	assert.Error(t, Default().SaveToFile(filepath.Join(dir, "config.ini")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"threshold", func(c *Config) { c.Crop.Threshold = 300 }},
		{"quality", func(c *Config) { c.Crop.Quality = 0 }},
		{"format", func(c *Config) { c.Crop.Format = "gif" }},
		{"size", func(c *Config) { c.Crop.Size = -1 }},
		{"side", func(c *Config) { c.Image.Side = 0 }},
		{"scale", func(c *Config) { c.Image.Scale = -255 }},
		{"backend", func(c *Config) { c.Image.Backend = "gocv" }},
		{"source kind", func(c *Config) { c.Image.Source.Kind = "ftp" }},
		{"dir source", func(c *Config) { c.Image.Source.Dir = "" }},
		{"http source", func(c *Config) { c.Image.Source.Kind = SourceHTTP }},
		{"s3 source", func(c *Config) { c.Image.Source.Kind = SourceS3 }},
		{"rate", func(c *Config) { c.Image.Source.RatePerSecond = -1 }},
		{"min size", func(c *Config) { c.Image.Source.MinSize = -1 }},
		{"max features", func(c *Config) { c.Text.MaxFeatures = -1 }},
		{"confidence", func(c *Config) { c.Text.MinConfidence = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(GetConfigPath()))
}
