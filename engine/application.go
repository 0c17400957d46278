package engine

import (
	"os"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkdemos/engine/core"
)

// Demos lists the demo names accepted by the config.
var Demos = []string{"triangle", "shadowmap", "bloom"}

type ApplicationConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting width.
	StartWidth uint32 `toml:"width"`
	// Window starting height.
	StartHeight uint32 `toml:"height"`
	// Window starting position x axis.
	StartPosX uint32 `toml:"pos_x"`
	// Window starting position y axis.
	StartPosY uint32 `toml:"pos_y"`

	Demo           string `toml:"demo"`
	FramesInFlight int    `toml:"frames_in_flight"`
	LogLevel       string `toml:"log_level"`
	ShaderDir      string `toml:"shader_dir"`
	Validation     bool   `toml:"validation"`
	// ShowFPS overrides the demo's own choice when set.
	ShowFPS   *bool `toml:"show_fps"`
	HotReload bool  `toml:"hot_reload"`
}

// DefaultConfig is used for every field the config file leaves out.
func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "vkdemos",
		StartWidth:     1280,
		StartHeight:    720,
		StartPosX:      100,
		StartPosY:      100,
		Demo:           "triangle",
		FramesInFlight: 5,
		LogLevel:       "info",
		ShaderDir:      "shaders",
	}
}

// LoadConfig reads a toml file over the defaults. A missing file is not an error.
func LoadConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			core.LogWarn("config file %s not found, using defaults", path)
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", path)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.FramesInFlight < 1 {
		return errors.Newf("frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	}
	if !slices.Contains(Demos, c.Demo) {
		return errors.Newf("unknown demo %q, expected one of %v", c.Demo, Demos)
	}
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return errors.Newf("window size must be non zero, got %dx%d", c.StartWidth, c.StartHeight)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level")
	}
	return nil
}

// showFPS resolves the frame rate display: the config wins over the demo default.
func (c *ApplicationConfig) showFPS(demoDefault bool) bool {
	if c.ShowFPS != nil {
		return *c.ShowFPS
	}
	return demoDefault
}
