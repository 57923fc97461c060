// Package config loads the sandbox configuration from a TOML file layered over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/pass"
)

// Config is the complete sandbox configuration.
type Config struct {
	// AssetsDir holds the shaders, textures and models subdirectories.
	AssetsDir string `toml:"assets_dir"`
	Assets    Assets `toml:"assets"`
	Window    Window `toml:"window"`
	Render    Render `toml:"render"`
	Shader    Shader `toml:"shader"`

	// Watch invalidates cached assets when their files change.
	Watch bool `toml:"watch"`
	// PrefetchWorkers is the size of the startup prefetch pool.
	PrefetchWorkers int `toml:"prefetch_workers"`
	// TickRate is the camera update rate in ticks per second.
	TickRate float64 `toml:"tick_rate"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	Profile  bool   `toml:"profile"`
}

// Assets names the subdirectories of AssetsDir.
type Assets struct {
	Shaders  string `toml:"shaders"`
	Textures string `toml:"textures"`
	Models   string `toml:"models"`
}

type Window struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Title  string `toml:"title"`
}

type Render struct {
	// Scale is the offscreen resolution relative to the window, in (0, 1].
	Scale       float32 `toml:"scale"`
	FovY        float32 `toml:"fov_y_degrees"`
	Near        float32 `toml:"near"`
	Far         float32 `toml:"far"`
	PresentMode string  `toml:"present_mode"`
	ModelFile   string  `toml:"model_file"`
	ModelName   string  `toml:"model_name"`
	Texture     string  `toml:"texture"`
}

type Shader struct {
	// Strict turns preprocessor warnings into errors. Unset means strict only at debug log level.
	Strict          *bool `toml:"strict,omitempty"`
	MaxIncludeDepth int   `toml:"max_include_depth"`
}

var presentModes = map[string]gpu.PresentMode{
	"fifo":      gpu.PresentModeFifo,
	"mailbox":   gpu.PresentModeMailbox,
	"immediate": gpu.PresentModeImmediate,
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AssetsDir: "assets",
		Assets:    Assets{Shaders: "shaders", Textures: "textures", Models: "models"},
		Window:    Window{Width: 1280, Height: 800, Title: "prism"},
		Render: Render{
			Scale:       1,
			FovY:        45,
			Near:        0.1,
			Far:         100,
			PresentMode: "mailbox",
			ModelFile:   "torus.obj",
			ModelName:   "Torus",
			Texture:     "gray_marble.tif",
		},
		Shader:          Shader{MaxIncludeDepth: 5},
		PrefetchWorkers: 4,
		TickRate:        60,
		LogLevel:        "info",
	}
}

// Load reads the file at path over the defaults. A missing file yields the defaults.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the validated configuration
//   - error: error if the file cannot be read, is malformed or fails validation
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the validated configuration
//   - error: error if the document is malformed or fails validation
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.TrimSpace(strict.String()))
		}
		var decode *toml.DecodeError
		if errors.As(err, &decode) {
			row, col := decode.Position()
			return Config{}, fmt.Errorf("%w: line %d column %d: %v", errs.ErrInvalidConfig, row, col, decode)
		}
		return Config{}, fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every field. The error names the offending key.
func (c Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", errs.ErrInvalidConfig, key, fmt.Sprintf(format, args...))
	}
	switch {
	case c.AssetsDir == "":
		return invalid("assets_dir", "must not be empty")
	case c.Assets.Shaders == "" || c.Assets.Textures == "" || c.Assets.Models == "":
		return invalid("assets", "subdirectory names must not be empty")
	case c.Window.Width == 0:
		return invalid("window.width", "must be positive")
	case c.Window.Height == 0:
		return invalid("window.height", "must be positive")
	case !(c.Render.Scale > 0 && c.Render.Scale <= 1):
		return invalid("render.scale", "%v outside (0, 1]", c.Render.Scale)
	case !(c.Render.FovY > 0 && c.Render.FovY < 180):
		return invalid("render.fov_y_degrees", "%v outside (0, 180)", c.Render.FovY)
	case !(c.Render.Near > 0):
		return invalid("render.near", "must be positive")
	case !(c.Render.Far > c.Render.Near):
		return invalid("render.far", "must be greater than render.near")
	case c.Render.ModelFile == "":
		return invalid("render.model_file", "must not be empty")
	case c.Render.Texture == "":
		return invalid("render.texture", "must not be empty")
	case c.Shader.MaxIncludeDepth < 1:
		return invalid("shader.max_include_depth", "must be at least 1")
	case c.PrefetchWorkers < 1:
		return invalid("prefetch_workers", "must be at least 1")
	case !(c.TickRate > 0):
		return invalid("tick_rate", "must be positive")
	}
	if _, ok := presentModes[c.Render.PresentMode]; !ok {
		return invalid("render.present_mode", "%q is not one of fifo, mailbox, immediate", c.Render.PresentMode)
	}
	if !contains(logLevels, c.LogLevel) {
		return invalid("log_level", "%q is not one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PresentMode returns the configured present mode, mailbox when unrecognised.
func (c Config) PresentMode() gpu.PresentMode {
	if m, ok := presentModes[c.Render.PresentMode]; ok {
		return m
	}
	return gpu.PresentModeMailbox
}

// StrictShaders reports whether shader warnings are errors.
func (c Config) StrictShaders() bool {
	if c.Shader.Strict != nil {
		return *c.Shader.Strict
	}
	return c.LogLevel == "debug"
}

// MainPass returns the main pass configuration for the configured scene.
func (c Config) MainPass() pass.MainPassConfig {
	cfg := pass.DefaultMainPassConfig(c.Render.Scale)
	cfg.Basic.Model = model.Name{File: c.Render.ModelFile, Model: c.Render.ModelName}
	cfg.Basic.Texture = c.Render.Texture
	cfg.Basic.FovY = c.Render.FovY
	cfg.Basic.Near = c.Render.Near
	cfg.Basic.Far = c.Render.Far
	return cfg
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
