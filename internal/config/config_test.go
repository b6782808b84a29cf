package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"storage": {"region": "eu-west-1", "input_bucket": "in", "output_bucket": "out"},
		"links": {"upload_ttl": "2m"},
		"queue": {"enabled": true, "batch_size": 4}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("PROCESSOR_STORAGE_OUTPUT_BUCKET", "out-override")
	t.Setenv("PROCESSOR_PIPELINE_CONCURRENCY", "4")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "in", cfg.Storage.InputBucket)
	assert.Equal(t, "out-override", cfg.Storage.OutputBucket)
	assert.Equal(t, 2*time.Minute, cfg.Links.UploadTTL)
	assert.Equal(t, time.Hour, cfg.Links.DownloadTTL)
	assert.Equal(t, 800, cfg.Pipeline.DefaultWidth)
	assert.Equal(t, 85, cfg.Pipeline.JPEGQuality)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 10000, cfg.Pipeline.MaxWidth)
	assert.Equal(t, 50_000_000, cfg.Pipeline.MaxPixels)
	assert.True(t, cfg.Queue.Enabled)
	assert.EqualValues(t, 4, cfg.Queue.BatchSize)
}

func TestLoadRequiresBuckets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage": {"input_bucket": "in"}}`), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROCESSOR_STORAGE_INPUT_BUCKET", "ssking-in")
	t.Setenv("PROCESSOR_STORAGE_OUTPUT_BUCKET", "ssking-out")
	t.Setenv("PROCESSOR_LINKS_LEGACY_IMAGE_NAMES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ssking-in", cfg.Storage.InputBucket)
	assert.Equal(t, "ssking-out", cfg.Storage.OutputBucket)
	assert.True(t, cfg.Links.LegacyImageNames)
	assert.Equal(t, 5*time.Minute, cfg.Links.UploadTTL)
}
