package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// entries describes every binding of the group.
	entries []gpu.BindGroupLayoutEntry

	// The following fields are GPU allocated resources populated by Init.

	// bindGroup is the GPU bind group created for this provider, or nil before Init.
	bindGroup gpu.BindGroup
	// bindGroupLayout is the layout the group is created against.
	bindGroupLayout gpu.BindGroupLayout
	// ownsLayout is true when Init created the layout and Release must free it.
	ownsLayout bool
	// buffers holds the uniform and storage buffers created by Init, keyed by binding index.
	buffers map[int]gpu.Buffer
	// bufferSizes sizes the buffers Init creates, keyed by binding index.
	bufferSizes map[int]uint64

	// textureViews and samplers are borrowed; the provider never releases them.
	textureViews map[int]gpu.TextureView
	samplers     map[int]gpu.Sampler
}

// BindGroupProvider owns one bind group and the buffers it binds.
//
// Usage pattern:
//  1. A pass creates a provider with layout entries, buffer sizes and any borrowed views or samplers
//  2. The pass calls Init(device) to create the layout, buffers and group
//  3. The pass calls WriteBuffers each frame to update uniforms
//  4. The pass binds BindGroup() in its render pass and calls Release when rebuilt
type BindGroupProvider interface {
	// Release releases the bind group, the layout if the provider created it, and every
	// buffer the provider created.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Init creates the GPU objects described by the provider's entries.
	//
	// Parameters:
	//   - device: the device to create on
	//
	// Returns:
	//   - error: error if a binding has no resource or creation fails
	Init(device gpu.Device) error

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group or nil
	BindGroup() gpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created against.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout or nil
	BindGroupLayout() gpu.BindGroupLayout

	// Buffer returns the buffer created for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(binding int) gpu.Buffer

	// TextureView returns the texture view bound at binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.TextureView: the texture view or nil
	TextureView(binding int) gpu.TextureView

	// Sampler returns the sampler bound at binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Sampler: the sampler or nil
	Sampler(binding int) gpu.Sampler
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for the given layout entries.
//
// Parameters:
//   - label: debug label used for every object the provider creates
//   - entries: the bind group layout entries
//   - options: functional options supplying buffer sizes, views, samplers or an existing layout
//
// Returns:
//   - BindGroupProvider: the provider, not yet initialized
func NewBindGroupProvider(label string, entries []gpu.BindGroupLayoutEntry, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		entries:      entries,
		buffers:      make(map[int]gpu.Buffer),
		bufferSizes:  make(map[int]uint64),
		textureViews: make(map[int]gpu.TextureView),
		samplers:     make(map[int]gpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Init(device gpu.Device) error {
	if p.bindGroupLayout == nil {
		layout, err := device.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
			Label:   p.label + " Layout",
			Entries: p.entries,
		})
		if err != nil {
			return err
		}
		p.bindGroupLayout = layout
		p.ownsLayout = true
	}

	groupEntries := make([]gpu.BindGroupEntry, len(p.entries))
	for i, entry := range p.entries {
		binding := int(entry.Binding)
		groupEntries[i].Binding = entry.Binding

		switch {
		case entry.Buffer.Type != gpu.BufferBindingTypeUndefined:
			buf := p.buffers[binding]
			if buf == nil {
				size := p.bufferSizes[binding]
				if size == 0 {
					size = entry.Buffer.MinBindingSize
				}
				usage := gpu.BufferUsageUniform
				if entry.Buffer.Type != gpu.BufferBindingTypeUniform {
					usage = gpu.BufferUsageStorage
				}
				var err error
				buf, err = device.CreateBuffer(&gpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", p.label, binding),
					Size:  size,
					Usage: usage | gpu.BufferUsageCopyDst,
				})
				if err != nil {
					return err
				}
				p.buffers[binding] = buf
			}
			groupEntries[i].Buffer = buf
			groupEntries[i].Size = gpu.WholeSize
		case entry.Texture.SampleType != gpu.TextureSampleTypeUndefined:
			view := p.textureViews[binding]
			if view == nil {
				return fmt.Errorf("bind group %q: no texture view for binding %d", p.label, binding)
			}
			groupEntries[i].TextureView = view
		case entry.Sampler.Type != gpu.SamplerBindingTypeUndefined:
			s := p.samplers[binding]
			if s == nil {
				return fmt.Errorf("bind group %q: no sampler for binding %d", p.label, binding)
			}
			groupEntries[i].Sampler = s
		default:
			return fmt.Errorf("bind group %q: binding %d has no resource type", p.label, binding)
		}
	}

	bindGroup, err := device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   p.label + " Bind Group",
		Layout:  p.bindGroupLayout,
		Entries: groupEntries,
	})
	if err != nil {
		return err
	}
	p.bindGroup = bindGroup
	return nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.ownsLayout && p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
		p.ownsLayout = false
	}
	for binding, buf := range p.buffers {
		buf.Release()
		delete(p.buffers, binding)
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() gpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) gpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) gpu.Sampler {
	return p.samplers[binding]
}
