package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OUTPUT_PATH", "")
	t.Setenv("PAGE_CONTENT_WIDTH", "")
	t.Setenv("PAGE_CONTENT_HEIGHT", "")
	t.Setenv("RENDER_JPEG_QUALITY", "")
	t.Setenv("FILTER_IGNORE_CASE", "")
	t.Setenv("PRINT_COMMAND", "")

	cfg := FromEnv()

	assert.Equal(t, filepath.Join(home, "workout.pdf"), cfg.Output.Path)
	assert.True(t, cfg.Output.Verify)
	assert.Equal(t, 583.0, cfg.Page.ContentWidth)
	assert.Equal(t, 829.0, cfg.Page.ContentHeight)
	assert.Equal(t, 90, cfg.Render.JPEGQuality)
	assert.False(t, cfg.Filter.IgnoreCase)
	assert.Equal(t, "lpr", cfg.Printer.Command)
	assert.Equal(t, "img2pdf-", cfg.Staging.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Staging.SweepAge)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OUTPUT_PATH", "/tmp/out.pdf")
	t.Setenv("FILTER_IGNORE_CASE", "yes")
	t.Setenv("RENDER_JPEG_QUALITY", "250")
	t.Setenv("PRINT_TIMEOUT", "5s")
	t.Setenv("PAGE_CONTENT_WIDTH", "-3")

	cfg := FromEnv()

	require.Equal(t, "/tmp/out.pdf", cfg.Output.Path)
	assert.True(t, cfg.Filter.IgnoreCase)
	assert.Equal(t, 90, cfg.Render.JPEGQuality, "out of range quality falls back")
	assert.Equal(t, 5*time.Second, cfg.Printer.Timeout)
	assert.Equal(t, 583.0, cfg.Page.ContentWidth, "non-positive width falls back")
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "0", "false", "nope"} {
		assert.False(t, parseBool(s), s)
	}
}
