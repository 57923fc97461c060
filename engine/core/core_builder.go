package core

import (
	"io/fs"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// CoreBuilderOption is a functional option for configuring a Core.
type CoreBuilderOption func(*core)

// WithFormat sets the swapchain color format. The default is gpu.TextureFormatBGRA8Unorm.
//
// Parameters:
//   - format: the swapchain format
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithFormat(format gpu.TextureFormat) CoreBuilderOption {
	return func(c *core) {
		if format != gpu.TextureFormatUndefined {
			c.desc.Format = format
		}
	}
}

// WithPresentMode sets the swapchain present mode. The default is gpu.PresentModeMailbox.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithPresentMode(mode gpu.PresentMode) CoreBuilderOption {
	return func(c *core) {
		c.desc.PresentMode = mode
	}
}

// WithAssetsDir sets the directory holding the shaders, textures and models subdirectories.
//
// Parameters:
//   - dir: the assets directory (default "assets")
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithAssetsDir(dir string) CoreBuilderOption {
	return func(c *core) {
		c.assetsDir = dir
	}
}

// WithAssetSubdirs renames the shaders, textures and models subdirectories. Empty names keep the default.
//
// Parameters:
//   - shaders: the shader subdirectory
//   - textures: the texture subdirectory
//   - models: the model subdirectory
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithAssetSubdirs(shaders, textures, models string) CoreBuilderOption {
	return func(c *core) {
		c.shadersDir = common.Coalesce(shaders, c.shadersDir)
		c.texturesDir = common.Coalesce(textures, c.texturesDir)
		c.modelsDir = common.Coalesce(models, c.modelsDir)
	}
}

// WithAssetsFS reads assets from fsys instead of the assets directory. fsys holds the
// shaders, textures and models subdirectories.
//
// Parameters:
//   - fsys: the assets file system
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithAssetsFS(fsys fs.FS) CoreBuilderOption {
	return func(c *core) {
		c.assetsFS = fsys
	}
}

// WithShaderOptions passes extra options to the shader cache, applied after the shaders root.
//
// Parameters:
//   - options: the shader cache options
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithShaderOptions(options ...shader.ShaderCacheBuilderOption) CoreBuilderOption {
	return func(c *core) {
		c.shaderOptions = append(c.shaderOptions, options...)
	}
}

// WithTextureOptions passes extra options to the texture cache, applied after the textures root.
//
// Parameters:
//   - options: the texture cache options
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithTextureOptions(options ...texture.TextureCacheBuilderOption) CoreBuilderOption {
	return func(c *core) {
		c.textureOptions = append(c.textureOptions, options...)
	}
}

// WithModelOptions passes extra options to the model cache, applied after the models root.
//
// Parameters:
//   - options: the model cache options
//
// Returns:
//   - CoreBuilderOption: option function to apply
func WithModelOptions(options ...model.ModelCacheBuilderOption) CoreBuilderOption {
	return func(c *core) {
		c.modelOptions = append(c.modelOptions, options...)
	}
}
