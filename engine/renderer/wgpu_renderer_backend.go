package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// wgpuDevice implements gpu.Device over a WebGPU device. It owns the adapter and the
// instance and releases them with the device.
type wgpuDevice struct {
	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpuQueue
	released bool
}

var _ gpu.Device = &wgpuDevice{}

func (d *wgpuDevice) Queue() gpu.Queue {
	return d.queue
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

func (d *wgpuDevice) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	var (
		buf *wgpu.Buffer
		err error
	)
	if len(desc.Contents) > 0 {
		buf, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    bufferUsage(desc.Usage),
		})
	} else {
		buf, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: bufferUsage(desc.Usage),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	size := desc.Size
	if len(desc.Contents) > 0 {
		size = uint64(len(desc.Contents))
	}
	return &wgpuBuffer{buffer: buf, label: desc.Label, size: size, usage: desc.Usage}, nil
}

func (d *wgpuDevice) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     textureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: common.Coalesce(desc.Size.DepthOrArrayLayers, 1),
		},
		Format:        textureFormat(desc.Format),
		MipLevelCount: common.Coalesce(desc.MipLevelCount, 1),
		SampleCount:   common.Coalesce(desc.SampleCount, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	return &wgpuTexture{texture: tex, desc: *desc}, nil
}

func (d *wgpuDevice) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  addressMode(desc.AddressModeU),
		AddressModeV:  addressMode(desc.AddressModeV),
		AddressModeW:  addressMode(desc.AddressModeW),
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  mipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   desc.LodMinClamp,
		LodMaxClamp:   common.Coalesce(desc.LodMaxClamp, 32.0),
		Compare:       compareFunction(desc.Compare),
		MaxAnisotropy: common.Coalesce(desc.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{sampler: samp}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = bindGroupLayoutEntry(e)
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{layout: layout, entries: append([]gpu.BindGroupLayoutEntry(nil), desc.Entries...)}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	layout, ok := desc.Layout.(*wgpuBindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("create bind group %q: layout %T is not a WebGPU layout", desc.Label, desc.Layout)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			buf, ok := e.Buffer.(*wgpuBuffer)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d buffer %T is foreign", desc.Label, e.Binding, e.Buffer)
			}
			entry.Buffer = buf.buffer
			entry.Offset = e.Offset
			entry.Size = common.Coalesce(e.Size, wgpu.WholeSize)
		case e.Sampler != nil:
			samp, ok := e.Sampler.(*wgpuSampler)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d sampler %T is foreign", desc.Label, e.Binding, e.Sampler)
			}
			entry.Sampler = samp.sampler
		case e.TextureView != nil:
			view, ok := e.TextureView.(*wgpuTextureView)
			if !ok {
				return nil, fmt.Errorf("create bind group %q: binding %d view %T is foreign", desc.Label, e.Binding, e.TextureView)
			}
			entry.TextureView = view.view
		default:
			return nil, fmt.Errorf("create bind group %q: binding %d has no resource", desc.Label, e.Binding)
		}
		entries[i] = entry
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{group: group}, nil
}

func (d *wgpuDevice) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layout, ok := l.(*wgpuBindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("create pipeline layout %q: group %d layout %T is foreign", desc.Label, i, l)
		}
		layouts[i] = layout.layout
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", desc.Label, err)
	}
	return &wgpuPipelineLayout{layout: layout}, nil
}

func (d *wgpuDevice) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	wdesc, err := shaderModuleDescriptor(desc)
	if err != nil {
		return nil, err
	}
	module, err := d.device.CreateShaderModule(wdesc)
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", desc.Label, err)
	}
	return &wgpuShaderModule{module: module, label: desc.Label}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	layout, ok := desc.Layout.(*wgpuPipelineLayout)
	if !ok {
		return nil, fmt.Errorf("create render pipeline %q: layout %T is foreign", desc.Label, desc.Layout)
	}
	vs, ok := desc.Vertex.Module.(*wgpuShaderModule)
	if !ok {
		return nil, fmt.Errorf("create render pipeline %q: vertex module %T is foreign", desc.Label, desc.Vertex.Module)
	}

	buffers := make([]wgpu.VertexBufferLayout, len(desc.VertexBuffers))
	for i, vb := range desc.VertexBuffers {
		attrs := make([]wgpu.VertexAttribute, len(vb.Attributes))
		for j, a := range vb.Attributes {
			attrs[j] = wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: vb.ArrayStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}

	wdesc := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.layout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopology(desc.Primitive.Topology),
			FrontFace: frontFace(desc.Primitive.FrontFace),
			CullMode:  cullMode(desc.Primitive.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: common.Coalesce(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	}
	if desc.Fragment != nil {
		fs, ok := desc.Fragment.Module.(*wgpuShaderModule)
		if !ok {
			return nil, fmt.Errorf("create render pipeline %q: fragment module %T is foreign", desc.Label, desc.Fragment.Module)
		}
		targets := make([]wgpu.ColorTargetState, len(desc.Targets))
		for i, t := range desc.Targets {
			targets[i] = wgpu.ColorTargetState{
				Format:    textureFormat(t.Format),
				Blend:     blendState(t.Blend),
				WriteMask: colorWriteMask(common.Coalesce(t.WriteMask, gpu.ColorWriteMaskAll)),
			}
		}
		wdesc.Fragment = &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		}
	}
	if ds := desc.DepthStencil; ds != nil {
		wdesc.DepthStencil = &wgpu.DepthStencilState{
			Format:            textureFormat(ds.Format),
			DepthWriteEnabled: ds.DepthWriteEnabled,
			DepthCompare:      compareFunction(ds.DepthCompare),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	created, err := d.device.CreateRenderPipeline(wdesc)
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{pipeline: created}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder %q: %w", label, err)
	}
	return &wgpuCommandEncoder{encoder: enc}, nil
}

// wgpuQueue implements gpu.Queue. Writes and submits are serialized.
type wgpuQueue struct {
	mu    sync.Mutex
	queue *wgpu.Queue
}

func (q *wgpuQueue) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	buf, ok := buffer.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("write buffer: %T is foreign", buffer)
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("write buffer %q: %d bytes at %d overflow size %d", buf.label, len(data), offset, buf.size)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue.WriteBuffer(buf.buffer, offset, data)
	return nil
}

func (q *wgpuQueue) WriteTexture(write *gpu.TextureWrite) error {
	tex, ok := write.Texture.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("write texture: %T is foreign", write.Texture)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.texture,
			MipLevel: write.MipLevel,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		write.Data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  write.BytesPerRow,
			RowsPerImage: write.RowsPerImage,
		},
		&wgpu.Extent3D{
			Width:              write.Size.Width,
			Height:             write.Size.Height,
			DepthOrArrayLayers: common.Coalesce(write.Size.DepthOrArrayLayers, 1),
		},
	)
	return nil
}

func (q *wgpuQueue) Submit(buffers ...gpu.CommandBuffer) {
	cmds := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if cb, ok := b.(*wgpuCommandBuffer); ok {
			cmds = append(cmds, cb.buffer)
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue.Submit(cmds...)
}

// releaseOnce guards the Release of a wrapped object.
type releaseOnce struct {
	once sync.Once
}

func (r *releaseOnce) do(f func()) {
	r.once.Do(f)
}

type wgpuBuffer struct {
	releaseOnce
	buffer *wgpu.Buffer
	label  string
	size   uint64
	usage  gpu.BufferUsage
}

func (b *wgpuBuffer) Label() string          { return b.label }
func (b *wgpuBuffer) Size() uint64           { return b.size }
func (b *wgpuBuffer) Usage() gpu.BufferUsage { return b.usage }
func (b *wgpuBuffer) Release()               { b.do(b.buffer.Release) }

type wgpuTexture struct {
	releaseOnce
	texture *wgpu.Texture
	desc    gpu.TextureDescriptor
}

func (t *wgpuTexture) Label() string                     { return t.desc.Label }
func (t *wgpuTexture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *wgpuTexture) Release()                          { t.do(t.texture.Release) }

func (t *wgpuTexture) CreateView() (gpu.TextureView, error) {
	view, err := t.texture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("create view of %q: %w", t.desc.Label, err)
	}
	return &wgpuTextureView{view: view, label: t.desc.Label + " View"}, nil
}

type wgpuTextureView struct {
	releaseOnce
	view  *wgpu.TextureView
	label string
}

func (v *wgpuTextureView) Label() string { return v.label }
func (v *wgpuTextureView) Release()      { v.do(v.view.Release) }

type wgpuSampler struct {
	releaseOnce
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Release() { s.do(s.sampler.Release) }

type wgpuBindGroupLayout struct {
	releaseOnce
	layout  *wgpu.BindGroupLayout
	entries []gpu.BindGroupLayoutEntry
}

func (l *wgpuBindGroupLayout) Entries() []gpu.BindGroupLayoutEntry { return l.entries }
func (l *wgpuBindGroupLayout) Release()                            { l.do(l.layout.Release) }

type wgpuBindGroup struct {
	releaseOnce
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() { g.do(g.group.Release) }

type wgpuPipelineLayout struct {
	releaseOnce
	layout *wgpu.PipelineLayout
}

func (l *wgpuPipelineLayout) Release() { l.do(l.layout.Release) }

type wgpuShaderModule struct {
	releaseOnce
	module *wgpu.ShaderModule
	label  string
}

func (m *wgpuShaderModule) Label() string { return m.label }
func (m *wgpuShaderModule) Release()      { m.do(m.module.Release) }

type wgpuRenderPipeline struct {
	releaseOnce
	pipeline *wgpu.RenderPipeline
}

func (p *wgpuRenderPipeline) Release() { p.do(p.pipeline.Release) }

type wgpuCommandBuffer struct {
	releaseOnce
	buffer *wgpu.CommandBuffer
}

func (b *wgpuCommandBuffer) Release() { b.do(b.buffer.Release) }

type wgpuCommandEncoder struct {
	releaseOnce
	encoder *wgpu.CommandEncoder
}

func (e *wgpuCommandEncoder) Release() { e.do(e.encoder.Release) }

func (e *wgpuCommandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPassEncoder, error) {
	colors := make([]wgpu.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, c := range desc.ColorAttachments {
		view, ok := c.View.(*wgpuTextureView)
		if !ok {
			return nil, fmt.Errorf("begin render pass %q: color view %T is foreign", desc.Label, c.View)
		}
		colors[i] = wgpu.RenderPassColorAttachment{
			View:    view.view,
			LoadOp:  loadOp(c.LoadOp),
			StoreOp: storeOp(c.StoreOp),
			ClearValue: wgpu.Color{
				R: c.ClearValue.R, G: c.ClearValue.G, B: c.ClearValue.B, A: c.ClearValue.A,
			},
		}
	}
	wdesc := &wgpu.RenderPassDescriptor{Label: desc.Label, ColorAttachments: colors}
	if ds := desc.DepthStencilAttachment; ds != nil {
		view, ok := ds.View.(*wgpuTextureView)
		if !ok {
			return nil, fmt.Errorf("begin render pass %q: depth view %T is foreign", desc.Label, ds.View)
		}
		wdesc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view.view,
			DepthLoadOp:     loadOp(ds.DepthLoadOp),
			DepthStoreOp:    storeOp(ds.DepthStoreOp),
			DepthClearValue: ds.DepthClearValue,
		}
	}
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(wdesc)}, nil
}

func (e *wgpuCommandEncoder) Finish() (gpu.CommandBuffer, error) {
	buf, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish command encoder: %w", err)
	}
	return &wgpuCommandBuffer{buffer: buf}, nil
}

// wgpuRenderPass implements gpu.RenderPassEncoder. Foreign objects are skipped; the
// WebGPU validation layer then reports the incomplete pass at End.
type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(rp gpu.RenderPipeline) {
	if pl, ok := rp.(*wgpuRenderPipeline); ok {
		p.pass.SetPipeline(pl.pipeline)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group gpu.BindGroup) {
	if g, ok := group.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(index, g.group, nil)
	}
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buffer gpu.Buffer) {
	if b, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetVertexBuffer(slot, b.buffer, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buffer gpu.Buffer, format gpu.IndexFormat) {
	if b, ok := buffer.(*wgpuBuffer); ok {
		p.pass.SetIndexBuffer(b.buffer, indexFormat(format), 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) End() error {
	p.pass.End()
	p.pass.Release()
	return nil
}
