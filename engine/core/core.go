// Package core owns the process-wide rendering state: the device, the presentable surface and
// its descriptor, and the shader, texture and model caches.
package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/pass"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// core is the implementation of the Core interface.
type core struct {
	mu      sync.Mutex
	device  gpu.Device
	surface gpu.Surface
	desc    resource.SwapchainDesc

	shaders  shader.ShaderCache
	textures texture.TextureCache
	models   model.ModelCache

	// the following are consumed by NewCore when the caches are created.

	assetsDir      string
	assetsFS       fs.FS
	shadersDir     string
	texturesDir    string
	modelsDir      string
	shaderOptions  []shader.ShaderCacheBuilderOption
	textureOptions []texture.TextureCacheBuilderOption
	modelOptions   []model.ModelCacheBuilderOption

	shutdown sync.Once
	closed   bool
}

// Core is the long-lived renderer state shared by every pass.
type Core interface {
	pass.Core

	// Surface returns the presentable surface.
	Surface() gpu.Surface

	// Swapchain returns the current swapchain descriptor.
	//
	// Returns:
	//   - resource.SwapchainDesc: the descriptor
	Swapchain() resource.SwapchainDesc

	// Resize reconfigures the surface for a new size. A zero dimension (a minimised window)
	// and an unchanged size are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - bool: true if the swapchain changed and dependent passes must be refreshed
	//   - error: error if the surface cannot be reconfigured
	Resize(width, height uint32) (bool, error)

	// AcquireFrame acquires the next swapchain image.
	//
	// Returns:
	//   - resource.Frame: the frame
	//   - error: errs.ErrFrameUnavailable on a transient failure, errs.ErrClosed after Shutdown
	AcquireFrame() (resource.Frame, error)

	// ClearCaches empties the shader, texture and model caches.
	ClearCaches()

	// Shutdown empties the caches and releases the surface and the device. Safe to call more than once.
	Shutdown()
}

var _ Core = &core{}

// NewCore creates the core and configures the surface for a width by height swapchain.
//
// Parameters:
//   - device: the GPU device
//   - surface: the presentable surface
//   - width: the initial swapchain width
//   - height: the initial swapchain height
//   - options: functional options (format, present mode, asset roots, cache options)
//
// Returns:
//   - Core: the core
//   - error: error if the surface cannot be configured
func NewCore(device gpu.Device, surface gpu.Surface, width, height uint32, options ...CoreBuilderOption) (Core, error) {
	c := &core{
		device:      device,
		surface:     surface,
		assetsDir:   "assets",
		shadersDir:  "shaders",
		texturesDir: "textures",
		modelsDir:   "models",
		desc: resource.SwapchainDesc{
			Width:       width,
			Height:      height,
			Format:      gpu.TextureFormatBGRA8Unorm,
			PresentMode: gpu.PresentModeMailbox,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	if err := c.configure(c.desc); err != nil {
		return nil, err
	}

	shaderOpts := append([]shader.ShaderCacheBuilderOption{shader.WithFS(c.root(c.shadersDir))}, c.shaderOptions...)
	textureOpts := append([]texture.TextureCacheBuilderOption{texture.WithFS(c.root(c.texturesDir))}, c.textureOptions...)
	modelOpts := append([]model.ModelCacheBuilderOption{model.WithFS(c.root(c.modelsDir))}, loader.NewLoader(nil).ModelCacheOptions()...)
	modelOpts = append(modelOpts, c.modelOptions...)
	c.shaders = shader.NewShaderCache(device, shaderOpts...)
	c.textures = texture.NewTextureCache(device, textureOpts...)
	c.models = model.NewModelCache(device, modelOpts...)

	logger.Logger().Info("core created",
		"width", c.desc.Width, "height", c.desc.Height, "format", c.desc.Format.String(), "assets", c.assetsDir)
	return c, nil
}

// root returns the file system of one asset subdirectory.
func (c *core) root(name string) fs.FS {
	if c.assetsFS != nil {
		if sub, err := fs.Sub(c.assetsFS, name); err == nil {
			return sub
		}
	}
	return os.DirFS(filepath.Join(c.assetsDir, name))
}

func (c *core) configure(desc resource.SwapchainDesc) error {
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("core: swapchain size %dx%d", desc.Width, desc.Height)
	}
	err := c.surface.Configure(gpu.SurfaceConfiguration{
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      desc.Format,
		PresentMode: desc.PresentMode,
	})
	if err != nil {
		return fmt.Errorf("core: configure surface: %w", err)
	}
	return nil
}

func (c *core) Device() gpu.Device {
	return c.device
}

func (c *core) Surface() gpu.Surface {
	return c.surface
}

func (c *core) Shaders() shader.ShaderCache {
	return c.shaders
}

func (c *core) Textures() texture.TextureCache {
	return c.textures
}

func (c *core) Models() model.ModelCache {
	return c.models
}

func (c *core) Swapchain() resource.SwapchainDesc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc
}

func (c *core) Resize(width, height uint32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, fmt.Errorf("%w: core shut down", errs.ErrClosed)
	}
	if width == 0 || height == 0 {
		logger.Logger().Debug("resize ignored", "width", width, "height", height)
		return false, nil
	}
	if width == c.desc.Width && height == c.desc.Height {
		return false, nil
	}

	next := c.desc
	next.Width, next.Height = width, height
	if err := c.configure(next); err != nil {
		return false, err
	}
	c.desc = next
	logger.Logger().Info("swapchain resized", "width", width, "height", height)
	return true, nil
}

func (c *core) AcquireFrame() (resource.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return resource.Frame{}, fmt.Errorf("%w: core shut down", errs.ErrClosed)
	}
	st, err := c.surface.Acquire()
	if err != nil {
		return resource.Frame{}, fmt.Errorf("%w: %v", errs.ErrFrameUnavailable, err)
	}
	return resource.Frame{Texture: st, Desc: c.desc}, nil
}

func (c *core) ClearCaches() {
	c.shaders.Clear()
	c.textures.Clear()
	c.models.Clear()
	logger.Logger().Info("asset caches cleared")
}

func (c *core) Shutdown() {
	c.shutdown.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.ClearCaches()
		c.surface.Release()
		c.device.Release()
		logger.Logger().Info("core shut down")
	})
}
