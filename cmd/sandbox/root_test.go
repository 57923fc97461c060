package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/pass"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte("assets_dir = \"from-file\"\n[render]\nscale = 0.75\n"), 0o644))

	out, err := execute(t, "config", "--config", path, "--scale", "0.5", "--watch")
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AssetsDir)
	assert.Equal(t, float32(0.5), cfg.Render.Scale, "flags override the file")
	assert.True(t, cfg.Watch)
}

func TestConfigCommandDefaults(t *testing.T) {
	out, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Render, cfg.Render)
}

func TestInvalidFlag(t *testing.T) {
	_, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.toml"), "--scale", "2")
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestPrefetchRequest(t *testing.T) {
	req := prefetchRequest(pass.DefaultMainPassConfig(1))
	assert.Equal(t, []string{"basic.vert", "basic.frag", "post.vert", "post.frag"}, req.Shaders)
	assert.Equal(t, []string{"gray_marble.tif"}, req.Textures)
	assert.Equal(t, []model.Name{{File: "torus.obj", Model: "Torus"}}, req.Models)
}
