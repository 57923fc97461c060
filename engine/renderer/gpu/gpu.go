// Package gpu defines the backend-neutral GPU object model consumed by the caches and
// render passes. Concrete backends (the WebGPU backend in package renderer, the
// in-memory fakegpu used by tests) implement these interfaces.
package gpu

// Releasable is implemented by every GPU object that owns backend memory.
type Releasable interface {
	// Release frees the backend object. Releasing twice is a no-op.
	Release()
}

type Buffer interface {
	Releasable
	Label() string
	Size() uint64
	Usage() BufferUsage
}

type Texture interface {
	Releasable
	Label() string
	Descriptor() TextureDescriptor
	// CreateView creates the default full-texture view.
	CreateView() (TextureView, error)
}

type TextureView interface {
	Releasable
	Label() string
}

type Sampler interface {
	Releasable
}

type BindGroupLayout interface {
	Releasable
	Entries() []BindGroupLayoutEntry
}

type BindGroup interface {
	Releasable
}

type PipelineLayout interface {
	Releasable
}

type ShaderModule interface {
	Releasable
	Label() string
}

type RenderPipeline interface {
	Releasable
}

type CommandBuffer interface {
	Releasable
}

// RenderPassEncoder records draw commands for one render pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buffer Buffer)
	SetIndexBuffer(buffer Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

// CommandEncoder records render passes into a command buffer.
type CommandEncoder interface {
	Releasable
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPassEncoder, error)
	Finish() (CommandBuffer, error)
}

// Queue uploads data and submits recorded work. Submission order is execution order.
type Queue interface {
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error
	WriteTexture(write *TextureWrite) error
	Submit(buffers ...CommandBuffer)
}

// Device creates GPU objects. Implementations must be safe for concurrent use.
type Device interface {
	Releasable
	Queue() Queue
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
}

// SurfaceTexture is one acquired swapchain image.
type SurfaceTexture interface {
	View() TextureView
	// Present queues the image for display and releases it.
	Present()
	// Discard releases the image without presenting it.
	Discard()
}

// Surface is the presentable window surface.
type Surface interface {
	Releasable
	Configure(cfg SurfaceConfiguration) error
	// PreferredFormat returns the surface's preferred color format.
	PreferredFormat() TextureFormat
	// Acquire returns the next image. A failure is transient; the caller skips the frame.
	Acquire() (SurfaceTexture, error)
}
