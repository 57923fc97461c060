// Package pass implements the render passes of a frame and the contract that chains them.
//
// A pass is built from a configuration and the descriptor of its input resource, yielding the
// descriptor of its output resource. It is then performed every frame against the live handle
// of its input, yielding the handle of its output. Construction fixes every pipeline, layout
// and size-dependent resource; Perform only records commands.
package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// Core is what passes need from the renderer core: the device and the asset caches.
type Core interface {
	Device() gpu.Device
	Shaders() shader.ShaderCache
	Textures() texture.TextureCache
	Models() model.ModelCache
}

// Pass is the lifecycle shared by every pass.
//
// C is the construction config, ID and IH the input descriptor and handle, P the per-call
// parameters and OD and OH the output descriptor and handle. Construction is a package-level
// function per pass, NewXPass(core, config, inputDescriptor) (*XPass, OD, error).
type Pass[C, ID, IH, P, OD, OH any] interface {
	// Perform records one frame of work.
	//
	// Parameters:
	//   - params: the per-call parameters
	//   - in: the live input handle
	//
	// Returns:
	//   - OH: the output handle
	//   - error: errs.ErrClosed if the pass is not constructed, or an encoding error
	Perform(params P, in IH) (OH, error)

	// Refresh rebuilds the pass in place for a new config or input descriptor. On error the
	// pass is left as it was.
	//
	// Parameters:
	//   - config: the construction config
	//   - in: the new input descriptor
	//
	// Returns:
	//   - OD: the new output descriptor
	//   - error: error if reconstruction fails
	Refresh(config C, in ID) (OD, error)

	// Release frees the GPU objects the pass owns. A released pass fails Perform with errs.ErrClosed.
	Release()
}

// state tracks the pass lifecycle. The zero value is an unconstructed pass.
type state int

const (
	stateUnconstructed state = iota
	stateReady
	stateReleased
)

func (s state) check(name string) error {
	switch s {
	case stateReady:
		return nil
	case stateReleased:
		return fmt.Errorf("%w: %s pass released", errs.ErrClosed, name)
	default:
		return fmt.Errorf("%w: %s pass not constructed", errs.ErrClosed, name)
	}
}

// base is embedded by every pass.
type base struct {
	state state
	core  Core
}

// refreshable reports errs.ErrClosed for a pass that was never constructed.
func (b *base) refreshable(name string) error {
	if b.core == nil {
		return fmt.Errorf("%w: %s pass not constructed", errs.ErrClosed, name)
	}
	return nil
}

// rebuild runs construct and, on success, releases the old pass and moves the new one into its place.
func rebuild[T, C, ID, OD any](p *T, free func(*T), construct func(Core, C, ID) (*T, OD, error), core Core, config C, in ID) (OD, error) {
	fresh, out, err := construct(core, config, in)
	if err != nil {
		var zero OD
		return zero, err
	}
	free(p)
	*p = *fresh
	return out, nil
}

// endPass ends a render pass encoder, wrapping the error with the pass name.
func endPass(name string, rp gpu.RenderPassEncoder) error {
	if err := rp.End(); err != nil {
		return fmt.Errorf("%s pass: end: %w", name, err)
	}
	return nil
}

func release(rs ...gpu.Releasable) {
	for _, r := range rs {
		if r != nil {
			r.Release()
		}
	}
}
