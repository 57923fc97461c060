package texture

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/prism/engine/cache"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// Entry is a decoded texture resident on the GPU together with its sampler and
// the bind group layout passes use to bind it.
type Entry struct {
	Name    string
	Texture gpu.Texture
	View    gpu.TextureView
	Sampler gpu.Sampler
	Format  gpu.TextureFormat
	Width   uint32
	Height  uint32

	// Layout has two entries: binding 0 is the sampled texture, binding 1 the sampler.
	Layout        gpu.BindGroupLayout
	LayoutEntries []gpu.BindGroupLayoutEntry
}

// Release frees every GPU object held by the entry.
func (e *Entry) Release() {
	for _, r := range []gpu.Releasable{e.Layout, e.Sampler, e.View, e.Texture} {
		if r != nil {
			r.Release()
		}
	}
}

// textureCache is the implementation of the TextureCache interface.
type textureCache struct {
	device  gpu.Device
	fsys    fs.FS
	entries cache.Cache[string, *Entry]
}

// TextureCache decodes image files into sampled GPU textures, memoized by file name.
type TextureCache interface {
	cache.AssetCache[string, *Entry]

	// BindGroup creates a bind group binding the entry's view and sampler against its layout.
	//
	// Parameters:
	//   - entry: a loaded texture entry
	//
	// Returns:
	//   - gpu.BindGroup: the (texture, sampler) bind group
	//   - error: error if creation fails
	BindGroup(entry *Entry) (gpu.BindGroup, error)

	// Loads returns how many times a texture was decoded and uploaded.
	Loads() uint64

	// Len returns the number of cached textures.
	Len() int
}

var _ TextureCache = &textureCache{}

// NewTextureCache creates a TextureCache uploading through device.
//
// Parameters:
//   - device: the device textures are created on
//   - options: functional options (texture root)
//
// Returns:
//   - TextureCache: the empty cache
func NewTextureCache(device gpu.Device, options ...TextureCacheBuilderOption) TextureCache {
	tc := &textureCache{
		device: device,
		fsys:   os.DirFS("assets/textures"),
	}
	for _, opt := range options {
		opt(tc)
	}
	tc.entries = cache.New(tc.build, cache.WithOnEvict(func(_ string, e *Entry) {
		e.Release()
	}))
	return tc
}

func (tc *textureCache) Load(name string) (*Entry, error) {
	return tc.entries.Load(name)
}

func (tc *textureCache) Invalidate(name string) {
	tc.entries.Invalidate(name)
}

func (tc *textureCache) Clear() {
	tc.entries.Clear()
}

func (tc *textureCache) Loads() uint64 {
	return tc.entries.Loads()
}

func (tc *textureCache) Len() int {
	return tc.entries.Len()
}

func (tc *textureCache) BindGroup(entry *Entry) (gpu.BindGroup, error) {
	return tc.device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:  entry.Name + " Bind Group",
		Layout: entry.Layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, TextureView: entry.View},
			{Binding: 1, Sampler: entry.Sampler},
		},
	})
}

// build is the cache loader: decode, upload and create the sampler and layout.
func (tc *textureCache) build(name string) (*Entry, error) {
	img, err := tc.decode(name)
	if err != nil {
		return nil, err
	}
	st, err := toStaging(name, img)
	if err != nil {
		return nil, err
	}

	e := &Entry{Name: name, Format: st.format, Width: st.width, Height: st.height}
	if err := tc.upload(e, st); err != nil {
		e.Release()
		return nil, err
	}
	logger.Logger().Debug("texture loaded", "texture", name, "format", st.format, "width", st.width, "height", st.height)
	return e, nil
}

func (tc *textureCache) decode(name string) (image.Image, error) {
	f, err := tc.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: texture %q: %v", errs.ErrNotFound, name, err)
		}
		return nil, fmt.Errorf("%w: open texture %q: %v", errs.ErrNotFound, name, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode texture %q: %v", errs.ErrUnsupportedFormat, name, err)
	}
	logger.Logger().Debug("texture decoded", "texture", name, "codec", format)
	return img, nil
}

func (tc *textureCache) upload(e *Entry, st staging) error {
	size := gpu.Extent3D{Width: st.width, Height: st.height, DepthOrArrayLayers: 1}

	tex, err := tc.device.CreateTexture(&gpu.TextureDescriptor{
		Label:         e.Name,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        st.format,
		Usage:         gpu.TextureUsageTextureBinding | gpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("texture: create %q: %w", e.Name, err)
	}
	e.Texture = tex

	if err := tc.device.Queue().WriteTexture(&gpu.TextureWrite{
		Texture:      tex,
		Data:         st.pixels,
		BytesPerRow:  st.bytesPerRow(),
		RowsPerImage: st.height,
		Size:         size,
	}); err != nil {
		return fmt.Errorf("texture: upload %q: %w", e.Name, err)
	}

	if e.View, err = tex.CreateView(); err != nil {
		return fmt.Errorf("texture: view %q: %w", e.Name, err)
	}

	if e.Sampler, err = tc.device.CreateSampler(&gpu.SamplerDescriptor{
		Label:         e.Name + " Sampler",
		AddressModeU:  gpu.AddressModeClampToEdge,
		AddressModeV:  gpu.AddressModeClampToEdge,
		AddressModeW:  gpu.AddressModeClampToEdge,
		MagFilter:     gpu.FilterModeLinear,
		MinFilter:     gpu.FilterModeLinear,
		MipmapFilter:  gpu.FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}); err != nil {
		return fmt.Errorf("texture: sampler %q: %w", e.Name, err)
	}

	e.LayoutEntries = LayoutEntries()
	if e.Layout, err = tc.device.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
		Label:   e.Name + " Layout",
		Entries: e.LayoutEntries,
	}); err != nil {
		return fmt.Errorf("texture: layout %q: %w", e.Name, err)
	}
	return nil
}

// LayoutEntries returns the (texture, sampler) layout every texture entry uses.
func LayoutEntries() []gpu.BindGroupLayoutEntry {
	return []gpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gpu.ShaderStageFragment,
			Texture: gpu.TextureBindingLayout{
				SampleType:    gpu.TextureSampleTypeFloat,
				ViewDimension: gpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    1,
			Visibility: gpu.ShaderStageFragment,
			Sampler:    gpu.SamplerBindingLayout{Type: gpu.SamplerBindingTypeFiltering},
		},
	}
}
