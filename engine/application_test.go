package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 5, cfg.FramesInFlight)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name = "bloom test"
demo = "bloom"
frames_in_flight = 3
width = 640
show_fps = false
hot_reload = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bloom test", cfg.Name)
	assert.Equal(t, "bloom", cfg.Demo)
	assert.Equal(t, 3, cfg.FramesInFlight)
	assert.Equal(t, uint32(640), cfg.StartWidth)
	assert.Equal(t, uint32(720), cfg.StartHeight)
	require.NotNil(t, cfg.ShowFPS)
	assert.False(t, *cfg.ShowFPS)
	assert.True(t, cfg.HotReload)
	assert.Equal(t, "shaders", cfg.ShaderDir)
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"zero frames":   "frames_in_flight = 0",
		"unknown demo":  `demo = "teapot"`,
		"bad log level": `log_level = "loud"`,
		"zero width":    "width = 0",
		"broken toml":   "demo = ",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestShowFPSOverride(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.showFPS(true))
	assert.False(t, cfg.showFPS(false))

	off := false
	cfg.ShowFPS = &off
	assert.False(t, cfg.showFPS(true))
}
