package gpu

// BufferDescriptor describes a buffer to create. When Contents is non-empty the
// buffer is created with Size = len(Contents) and initialized with those bytes.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Usage    BufferUsage
	Contents []byte
}

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	Label         string
	Size          Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Format        TextureFormat
	Usage         TextureUsage
}

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label        string
	AddressModeU AddressMode
	AddressModeV AddressMode
	AddressModeW AddressMode
	MagFilter    FilterMode
	MinFilter    FilterMode
	MipmapFilter FilterMode
	LodMinClamp  float32
	LodMaxClamp  float32
	Compare      CompareFunction
	// MaxAnisotropy defaults to 1 when zero.
	MaxAnisotropy uint16
}

type BufferBindingLayout struct {
	Type           BufferBindingType
	MinBindingSize uint64
}

type SamplerBindingLayout struct {
	Type SamplerBindingType
}

type TextureBindingLayout struct {
	SampleType    TextureSampleType
	ViewDimension TextureViewDimension
	Multisampled  bool
}

// BindGroupLayoutEntry describes one binding slot. Exactly one of Buffer, Sampler
// or Texture has a non-undefined type.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Buffer     BufferBindingLayout
	Sampler    SamplerBindingLayout
	Texture    TextureBindingLayout
}

type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource to a slot. Exactly one of Buffer, Sampler or
// TextureView is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	Sampler     Sampler
	TextureView TextureView
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// ShaderModuleDescriptor carries the preprocessed WGSL source of a module along with
// its compiled SPIR-V words. Backends consume whichever representation they accept.
type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

type ColorTargetState struct {
	Format    TextureFormat
	Blend     *BlendState
	WriteMask ColorWriteMask
}

type PrimitiveState struct {
	Topology  PrimitiveTopology
	FrontFace FrontFace
	CullMode  CullMode
}

type DepthStencilState struct {
	Format            TextureFormat
	DepthWriteEnabled bool
	DepthCompare      CompareFunction
}

type RenderPipelineDescriptor struct {
	Label         string
	Layout        PipelineLayout
	Vertex        ProgrammableStage
	VertexBuffers []VertexBufferLayout
	Fragment      *ProgrammableStage
	Targets       []ColorTargetState
	Primitive     PrimitiveState
	DepthStencil  *DepthStencilState
	SampleCount   uint32
}

type RenderPassColorAttachment struct {
	View       TextureView
	LoadOp     LoadOp
	StoreOp    StoreOp
	ClearValue Color
}

type RenderPassDepthStencilAttachment struct {
	View            TextureView
	DepthLoadOp     LoadOp
	DepthStoreOp    StoreOp
	DepthClearValue float32
}

type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []RenderPassColorAttachment
	DepthStencilAttachment *RenderPassDepthStencilAttachment
}

// TextureWrite describes a CPU to GPU copy into mip level MipLevel of Texture.
type TextureWrite struct {
	Texture      Texture
	MipLevel     uint32
	Data         []byte
	BytesPerRow  uint32
	RowsPerImage uint32
	Size         Extent3D
}

// SurfaceConfiguration configures the presentable surface (the swapchain).
type SurfaceConfiguration struct {
	Width       uint32
	Height      uint32
	Format      TextureFormat
	PresentMode PresentMode
}
