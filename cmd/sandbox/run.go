package main

import (
	"context"
	"path/filepath"

	"github.com/pkg/profile"

	"github.com/Carmen-Shannon/prism/engine"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/core"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/prefetch"
	"github.com/Carmen-Shannon/prism/engine/renderer"
	"github.com/Carmen-Shannon/prism/engine/renderer/pass"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/watcher"
	"github.com/Carmen-Shannon/prism/engine/window"
)

// run opens the window, builds the core and the engine, warms the caches and blocks
// until the window closes.
func run(ctx context.Context, cfg config.Config) error {
	if cfg.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := renderer.NewRenderer(win.SurfaceDescriptor())
	if err != nil {
		return err
	}

	policy := shader.WarningsLog
	if cfg.StrictShaders() {
		policy = shader.WarningsAsErrors
	}
	width, height := win.Size()
	c, err := core.NewCore(r.Device(), r.Surface(), width, height,
		core.WithFormat(r.Surface().PreferredFormat()),
		core.WithPresentMode(cfg.PresentMode()),
		core.WithAssetsDir(cfg.AssetsDir),
		core.WithAssetSubdirs(cfg.Assets.Shaders, cfg.Assets.Textures, cfg.Assets.Models),
		core.WithShaderOptions(
			shader.WithWarningPolicy(policy),
			shader.WithMaxIncludeDepth(cfg.Shader.MaxIncludeDepth),
		),
	)
	if err != nil {
		r.Device().Release()
		return err
	}

	mainConfig := cfg.MainPass()
	// a failed prefetch is not fatal; the engine reports the same error while building
	if err := prefetch.NewPrefetcher(c, prefetch.WithWorkers(cfg.PrefetchWorkers)).Prefetch(ctx, prefetchRequest(mainConfig)); err != nil {
		logger.Logger().Warn("prefetch failed", "error", err)
	}

	options := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithTickRate(cfg.TickRate),
		engine.WithProfiling(cfg.Profile),
	}
	if cfg.Watch {
		options = append(options, engine.WithWatcher(watcher.Dirs{
			Shaders:  filepath.Join(cfg.AssetsDir, cfg.Assets.Shaders),
			Textures: filepath.Join(cfg.AssetsDir, cfg.Assets.Textures),
			Models:   filepath.Join(cfg.AssetsDir, cfg.Assets.Models),
		}))
	}
	eng, err := engine.NewEngine(c, mainConfig, options...)
	if err != nil {
		c.Shutdown()
		return err
	}

	logger.Logger().Info("sandbox running", "width", width, "height", height, "scale", cfg.Render.Scale, "watch", cfg.Watch)
	eng.Run()
	return nil
}

// prefetchRequest lists every asset the main pass loads while building.
func prefetchRequest(mp pass.MainPassConfig) prefetch.Request {
	return prefetch.Request{
		Shaders: []string{
			mp.Basic.VertexShader,
			mp.Basic.FragmentShader,
			mp.PostVertexShader,
			mp.PostFragmentShader,
		},
		Textures: []string{mp.Basic.Texture},
		Models:   []model.Name{mp.Basic.Model},
	}
}
