package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// The functions below translate the backend-neutral gpu types into their WebGPU
// counterparts. Unknown values fall back to the WebGPU zero value.

func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gpu.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case gpu.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case gpu.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gpu.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case gpu.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case gpu.TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case gpu.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}

// fromTextureFormat is the inverse of textureFormat for the formats a surface may prefer.
func fromTextureFormat(f wgpu.TextureFormat) gpu.TextureFormat {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm:
		return gpu.TextureFormatRGBA8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return gpu.TextureFormatRGBA8UnormSrgb
	case wgpu.TextureFormatBGRA8Unorm:
		return gpu.TextureFormatBGRA8Unorm
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return gpu.TextureFormatBGRA8UnormSrgb
	case wgpu.TextureFormatRGBA16Float:
		return gpu.TextureFormatRGBA16Float
	default:
		return gpu.TextureFormatUndefined
	}
}

func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	for bit, w := range map[gpu.TextureUsage]wgpu.TextureUsage{
		gpu.TextureUsageCopySrc:          wgpu.TextureUsageCopySrc,
		gpu.TextureUsageCopyDst:          wgpu.TextureUsageCopyDst,
		gpu.TextureUsageTextureBinding:   wgpu.TextureUsageTextureBinding,
		gpu.TextureUsageStorageBinding:   wgpu.TextureUsageStorageBinding,
		gpu.TextureUsageRenderAttachment: wgpu.TextureUsageRenderAttachment,
	} {
		if u&bit != 0 {
			out |= w
		}
	}
	return out
}

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for bit, w := range map[gpu.BufferUsage]wgpu.BufferUsage{
		gpu.BufferUsageCopySrc: wgpu.BufferUsageCopySrc,
		gpu.BufferUsageCopyDst: wgpu.BufferUsageCopyDst,
		gpu.BufferUsageIndex:   wgpu.BufferUsageIndex,
		gpu.BufferUsageVertex:  wgpu.BufferUsageVertex,
		gpu.BufferUsageUniform: wgpu.BufferUsageUniform,
		gpu.BufferUsageStorage: wgpu.BufferUsageStorage,
	} {
		if u&bit != 0 {
			out |= w
		}
	}
	return out
}

func shaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	out := wgpu.ShaderStageNone
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func presentMode(m gpu.PresentMode) wgpu.PresentMode {
	switch m {
	case gpu.PresentModeMailbox:
		return wgpu.PresentModeMailbox
	case gpu.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

func loadOp(op gpu.LoadOp) wgpu.LoadOp {
	if op == gpu.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOp(op gpu.StoreOp) wgpu.StoreOp {
	if op == gpu.StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

func filterMode(f gpu.FilterMode) wgpu.FilterMode {
	if f == gpu.FilterModeLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func mipmapFilterMode(f gpu.FilterMode) wgpu.MipmapFilterMode {
	if f == gpu.FilterModeLinear {
		return wgpu.MipmapFilterModeLinear
	}
	return wgpu.MipmapFilterModeNearest
}

func addressMode(m gpu.AddressMode) wgpu.AddressMode {
	switch m {
	case gpu.AddressModeRepeat:
		return wgpu.AddressModeRepeat
	case gpu.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeClampToEdge
	}
}

func compareFunction(c gpu.CompareFunction) wgpu.CompareFunction {
	switch c {
	case gpu.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gpu.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case gpu.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gpu.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gpu.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}

func indexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func vertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}

func primitiveTopology(t gpu.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gpu.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func frontFace(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func cullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func blendFactor(f gpu.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gpu.BlendFactorOne:
		return wgpu.BlendFactorOne
	case gpu.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case gpu.BlendFactorDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case gpu.BlendFactorOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func blendComponent(c gpu.BlendComponent) wgpu.BlendComponent {
	op := wgpu.BlendOperationAdd
	if c.Operation == gpu.BlendOperationSubtract {
		op = wgpu.BlendOperationSubtract
	}
	return wgpu.BlendComponent{
		Operation: op,
		SrcFactor: blendFactor(c.SrcFactor),
		DstFactor: blendFactor(c.DstFactor),
	}
}

func blendState(b *gpu.BlendState) *wgpu.BlendState {
	if b == nil {
		return nil
	}
	return &wgpu.BlendState{Color: blendComponent(b.Color), Alpha: blendComponent(b.Alpha)}
}

func colorWriteMask(m gpu.ColorWriteMask) wgpu.ColorWriteMask {
	var out wgpu.ColorWriteMask
	if m&gpu.ColorWriteMaskRed != 0 {
		out |= wgpu.ColorWriteMaskRed
	}
	if m&gpu.ColorWriteMaskGreen != 0 {
		out |= wgpu.ColorWriteMaskGreen
	}
	if m&gpu.ColorWriteMaskBlue != 0 {
		out |= wgpu.ColorWriteMaskBlue
	}
	if m&gpu.ColorWriteMaskAlpha != 0 {
		out |= wgpu.ColorWriteMaskAlpha
	}
	return out
}

func bindGroupLayoutEntry(e gpu.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: shaderStage(e.Visibility),
	}
	switch e.Buffer.Type {
	case gpu.BufferBindingTypeUniform:
		out.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: e.Buffer.MinBindingSize}
	case gpu.BufferBindingTypeStorage:
		out.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage, MinBindingSize: e.Buffer.MinBindingSize}
	case gpu.BufferBindingTypeReadOnlyStorage:
		out.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: e.Buffer.MinBindingSize}
	}
	switch e.Sampler.Type {
	case gpu.SamplerBindingTypeFiltering:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case gpu.SamplerBindingTypeNonFiltering:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeNonFiltering}
	case gpu.SamplerBindingTypeComparison:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
	}
	if e.Texture.SampleType != gpu.TextureSampleTypeUndefined {
		sampleType := wgpu.TextureSampleTypeFloat
		switch e.Texture.SampleType {
		case gpu.TextureSampleTypeUnfilterableFloat:
			sampleType = wgpu.TextureSampleTypeUnfilterableFloat
		case gpu.TextureSampleTypeDepth:
			sampleType = wgpu.TextureSampleTypeDepth
		}
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: wgpu.TextureViewDimension2D,
			Multisampled:  e.Texture.Multisampled,
		}
	}
	return out
}

// shaderModuleDescriptor prefers the WGSL source, which wgpu-native validates itself,
// and falls back to the SPIR-V words as little-endian bytes.
func shaderModuleDescriptor(desc *gpu.ShaderModuleDescriptor) (*wgpu.ShaderModuleDescriptor, error) {
	wdesc := &wgpu.ShaderModuleDescriptor{Label: desc.Label}
	switch {
	case desc.WGSL != "":
		wdesc.WGSLDescriptor = &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL}
	case len(desc.SPIRV) > 0:
		wdesc.SPIRVDescriptor = &wgpu.ShaderModuleSPIRVDescriptor{Code: common.SliceToBytes(desc.SPIRV)}
	default:
		return nil, fmt.Errorf("create shader module %q: no source", desc.Label)
	}
	return wdesc, nil
}
