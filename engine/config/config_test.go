package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "assets", cfg.AssetsDir)
	assert.Equal(t, uint32(1280), cfg.Window.Width)
	assert.Equal(t, uint32(800), cfg.Window.Height)
	assert.Equal(t, float32(1), cfg.Render.Scale)
	assert.Equal(t, float32(45), cfg.Render.FovY)
	assert.Equal(t, gpu.PresentModeMailbox, cfg.PresentMode())
	assert.Equal(t, 5, cfg.Shader.MaxIncludeDepth)
	assert.Equal(t, 4, cfg.PrefetchWorkers)
	assert.False(t, cfg.StrictShaders())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "prism.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets_dir = "data"
watch = true
log_level = "debug"

[window]
width = 1920

[render]
scale = 0.5
present_mode = "fifo"
model_name = "Cube"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.AssetsDir)
	assert.True(t, cfg.Watch)
	assert.Equal(t, uint32(1920), cfg.Window.Width)
	assert.Equal(t, uint32(800), cfg.Window.Height, "unset keys keep their defaults")
	assert.Equal(t, float32(0.5), cfg.Render.Scale)
	assert.Equal(t, gpu.PresentModeFifo, cfg.PresentMode())
	assert.Equal(t, "Cube", cfg.Render.ModelName)
	assert.Equal(t, "torus.obj", cfg.Render.ModelFile)
	assert.True(t, cfg.StrictShaders(), "debug level implies strict shaders")
}

func TestStrictShadersExplicit(t *testing.T) {
	cfg, err := Parse([]byte("log_level = \"debug\"\n[shader]\nstrict = false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.StrictShaders())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("[window\nwidth = 1"))
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("[render]\nscael = 0.5\n"))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "scael")
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\nscale = 2.0\n"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bad.toml")
	assert.Contains(t, err.Error(), "render.scale")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero scale", func(c *Config) { c.Render.Scale = 0 }, "render.scale"},
		{"scale above one", func(c *Config) { c.Render.Scale = 1.5 }, "render.scale"},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"zero height", func(c *Config) { c.Window.Height = 0 }, "window.height"},
		{"flat fov", func(c *Config) { c.Render.FovY = 180 }, "render.fov_y_degrees"},
		{"negative near", func(c *Config) { c.Render.Near = -1 }, "render.near"},
		{"far before near", func(c *Config) { c.Render.Far = 0.05 }, "render.far"},
		{"unknown present mode", func(c *Config) { c.Render.PresentMode = "vsync" }, "render.present_mode"},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"no include depth", func(c *Config) { c.Shader.MaxIncludeDepth = 0 }, "shader.max_include_depth"},
		{"no workers", func(c *Config) { c.PrefetchWorkers = 0 }, "prefetch_workers"},
		{"no tick rate", func(c *Config) { c.TickRate = 0 }, "tick_rate"},
		{"no assets dir", func(c *Config) { c.AssetsDir = "" }, "assets_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, errs.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestMarshalLoadsBack(t *testing.T) {
	cfg := Default()
	cfg.Render.Scale = 0.25
	cfg.Watch = true

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "scale = 0.25")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestMainPass(t *testing.T) {
	cfg := Default()
	cfg.Render.Scale = 0.5
	cfg.Render.FovY = 60
	cfg.Render.ModelFile = "cube.obj"
	cfg.Render.ModelName = "Cube"

	mp := cfg.MainPass()
	assert.Equal(t, float32(0.5), mp.Scale)
	assert.Equal(t, model.Name{File: "cube.obj", Model: "Cube"}, mp.Basic.Model)
	assert.Equal(t, float32(60), mp.Basic.FovY)
	assert.Equal(t, "gray_marble.tif", mp.Basic.Texture)
	assert.Equal(t, "basic.vert", mp.Basic.VertexShader)
}
