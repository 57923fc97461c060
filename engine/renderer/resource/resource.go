// Package resource defines the resource kinds passes exchange. Every kind pairs a
// descriptor, the construction-time shape, with a handle, the live per-frame object.
package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// Kind names a resource kind and ties its descriptor type D to its handle type H.
type Kind[D, H any] struct {
	name string
}

func (k Kind[D, H]) String() string {
	return k.name
}

var (
	// UniformBuffer is a uniform buffer: described by size, handled as a gpu.Buffer.
	UniformBuffer = Kind[UniformBufferDesc, gpu.Buffer]{"uniform buffer"}

	// Texture is a texture: described by gpu.TextureDescriptor, handled as a gpu.Texture.
	Texture = Kind[gpu.TextureDescriptor, gpu.Texture]{"texture"}

	// TextureView is a view of a color texture.
	TextureView = Kind[TextureViewDesc, gpu.TextureView]{"texture view"}

	// Sampler is a texture sampler.
	Sampler = Kind[gpu.SamplerDescriptor, gpu.Sampler]{"sampler"}

	// Swapchain is the presentable surface: described by SwapchainDesc, handled as an acquired Frame.
	Swapchain = Kind[SwapchainDesc, Frame]{"swapchain"}

	// AnyAttachment is either a texture view or a swapchain frame.
	AnyAttachment = Kind[AttachmentDesc, AttachmentHandle]{"any attachment"}
)

// UniformBufferDesc describes a uniform buffer.
type UniformBufferDesc struct {
	Label string
	Size  uint64
}

// TextureViewDesc describes the texture behind a color view.
type TextureViewDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format gpu.TextureFormat
}

// SwapchainDesc describes the presentable surface.
type SwapchainDesc struct {
	Width       uint32
	Height      uint32
	Format      gpu.TextureFormat
	PresentMode gpu.PresentMode
}

// Aspect returns width / height, or 1 for a degenerate size.
func (d SwapchainDesc) Aspect() float32 {
	return aspect(d.Width, d.Height)
}

// Frame is one acquired swapchain image.
type Frame struct {
	Texture gpu.SurfaceTexture
	Desc    SwapchainDesc
}

// View returns the frame's color view.
func (f Frame) View() gpu.TextureView {
	if f.Texture == nil {
		return nil
	}
	return f.Texture.View()
}

// AttachmentDesc describes a color attachment that is either an offscreen view or the swapchain.
// The zero value is invalid; build one with ViewAttachment or SwapchainAttachment.
type AttachmentDesc struct {
	view      *TextureViewDesc
	swapchain *SwapchainDesc
}

// ViewAttachment describes an offscreen texture view attachment.
func ViewAttachment(d TextureViewDesc) AttachmentDesc {
	return AttachmentDesc{view: &d}
}

// SwapchainAttachment describes a swapchain attachment.
func SwapchainAttachment(d SwapchainDesc) AttachmentDesc {
	return AttachmentDesc{swapchain: &d}
}

// View returns the texture view descriptor when the attachment is offscreen.
func (a AttachmentDesc) View() (TextureViewDesc, bool) {
	if a.view == nil {
		return TextureViewDesc{}, false
	}
	return *a.view, true
}

// Swapchain returns the swapchain descriptor when the attachment is the swapchain.
func (a AttachmentDesc) Swapchain() (SwapchainDesc, bool) {
	if a.swapchain == nil {
		return SwapchainDesc{}, false
	}
	return *a.swapchain, true
}

// Valid reports whether the descriptor was built by one of the constructors.
func (a AttachmentDesc) Valid() bool {
	return a.view != nil || a.swapchain != nil
}

func (a AttachmentDesc) Width() uint32 {
	switch {
	case a.view != nil:
		return a.view.Width
	case a.swapchain != nil:
		return a.swapchain.Width
	}
	return 0
}

func (a AttachmentDesc) Height() uint32 {
	switch {
	case a.view != nil:
		return a.view.Height
	case a.swapchain != nil:
		return a.swapchain.Height
	}
	return 0
}

func (a AttachmentDesc) Format() gpu.TextureFormat {
	switch {
	case a.view != nil:
		return a.view.Format
	case a.swapchain != nil:
		return a.swapchain.Format
	}
	return gpu.TextureFormatUndefined
}

// Aspect returns width / height, or 1 for a degenerate size.
func (a AttachmentDesc) Aspect() float32 {
	return aspect(a.Width(), a.Height())
}

func (a AttachmentDesc) String() string {
	kind := "view"
	if a.swapchain != nil {
		kind = "swapchain"
	}
	return fmt.Sprintf("%s %dx%d %s", kind, a.Width(), a.Height(), a.Format())
}

// AttachmentHandle is the live counterpart of AttachmentDesc.
type AttachmentHandle struct {
	view  gpu.TextureView
	frame *Frame
}

// ViewHandle wraps an offscreen view.
func ViewHandle(v gpu.TextureView) AttachmentHandle {
	return AttachmentHandle{view: v}
}

// FrameHandle wraps a swapchain frame.
func FrameHandle(f Frame) AttachmentHandle {
	return AttachmentHandle{frame: &f}
}

// View returns the color view to render into.
func (h AttachmentHandle) View() gpu.TextureView {
	if h.frame != nil {
		return h.frame.View()
	}
	return h.view
}

// Frame returns the swapchain frame when the handle wraps one.
func (h AttachmentHandle) Frame() (Frame, bool) {
	if h.frame == nil {
		return Frame{}, false
	}
	return *h.frame, true
}

func aspect(w, h uint32) float32 {
	if w == 0 || h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}
