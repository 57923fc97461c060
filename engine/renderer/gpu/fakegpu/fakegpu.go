// Package fakegpu is an in-memory gpu.Device that records every object it creates
// and every command it is asked to encode. It backs the package tests of the caches
// and render passes so they run without a GPU adapter.
package fakegpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("fakegpu: injected failure")

// Object is embedded in every fake GPU object.
type Object struct {
	ID       uint64
	Kind     string
	Name     string
	released atomic.Bool
}

func (o *Object) Release() {
	o.released.Store(true)
}

// Released reports whether Release was called.
func (o *Object) Released() bool {
	return o.released.Load()
}

func (o *Object) Label() string {
	return o.Name
}

type Buffer struct {
	Object
	Desc gpu.BufferDescriptor
	// Data holds the current contents, updated by Queue.WriteBuffer.
	Data []byte
	mu   sync.Mutex
}

func (b *Buffer) Size() uint64          { return b.Desc.Size }
func (b *Buffer) Usage() gpu.BufferUsage { return b.Desc.Usage }

// Snapshot returns a copy of the buffer contents.
func (b *Buffer) Snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.Data...)
}

type Texture struct {
	Object
	Desc   gpu.TextureDescriptor
	Writes []gpu.TextureWrite
	dev    *Device
}

func (t *Texture) Descriptor() gpu.TextureDescriptor { return t.Desc }

func (t *Texture) CreateView() (gpu.TextureView, error) {
	v := &TextureView{Texture: t}
	if err := t.dev.register(&v.Object, "view", t.Name+" view"); err != nil {
		return nil, err
	}
	return v, nil
}

type TextureView struct {
	Object
	Texture *Texture
}

type Sampler struct {
	Object
	Desc gpu.SamplerDescriptor
}

type BindGroupLayout struct {
	Object
	Desc gpu.BindGroupLayoutDescriptor
}

func (l *BindGroupLayout) Entries() []gpu.BindGroupLayoutEntry { return l.Desc.Entries }

type BindGroup struct {
	Object
	Desc gpu.BindGroupDescriptor
}

type PipelineLayout struct {
	Object
	Desc gpu.PipelineLayoutDescriptor
}

type ShaderModule struct {
	Object
	Desc gpu.ShaderModuleDescriptor
}

type RenderPipeline struct {
	Object
	Desc gpu.RenderPipelineDescriptor
}

type CommandBuffer struct {
	Object
	Passes []*RenderPass
}

// Command is one recorded render pass command.
type Command struct {
	Op    string
	Args  []any
	Index uint32
}

// RenderPass records the descriptor and commands of one encoded render pass.
type RenderPass struct {
	Desc     gpu.RenderPassDescriptor
	Commands []Command
	Ended    bool
}

func (p *RenderPass) record(op string, args ...any) {
	p.Commands = append(p.Commands, Command{Op: op, Args: args})
}

func (p *RenderPass) SetPipeline(rp gpu.RenderPipeline) { p.record("SetPipeline", rp) }
func (p *RenderPass) SetBindGroup(index uint32, g gpu.BindGroup) {
	p.Commands = append(p.Commands, Command{Op: "SetBindGroup", Args: []any{g}, Index: index})
}
func (p *RenderPass) SetVertexBuffer(slot uint32, b gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: "SetVertexBuffer", Args: []any{b}, Index: slot})
}
func (p *RenderPass) SetIndexBuffer(b gpu.Buffer, f gpu.IndexFormat) {
	p.record("SetIndexBuffer", b, f)
}
func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.record("Draw", vertexCount, instanceCount, firstVertex, firstInstance)
}
func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.record("DrawIndexed", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
func (p *RenderPass) End() error {
	if p.Ended {
		return errors.New("fakegpu: render pass ended twice")
	}
	p.Ended = true
	return nil
}

// Find returns the commands with the given op, in order.
func (p *RenderPass) Find(op string) []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

type CommandEncoder struct {
	Object
	Passes   []*RenderPass
	finished bool
}

func (e *CommandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPassEncoder, error) {
	if e.finished {
		return nil, errors.New("fakegpu: encoder already finished")
	}
	p := &RenderPass{Desc: *desc}
	e.Passes = append(e.Passes, p)
	return p, nil
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	for i, p := range e.Passes {
		if !p.Ended {
			return nil, fmt.Errorf("fakegpu: render pass %d not ended", i)
		}
	}
	e.finished = true
	return &CommandBuffer{Passes: e.Passes}, nil
}

type Queue struct {
	mu        sync.Mutex
	Submitted []*CommandBuffer
	writes    atomic.Int64
}

func (q *Queue) WriteBuffer(buffer gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buffer.(*Buffer)
	if !ok {
		return fmt.Errorf("fakegpu: foreign buffer %T", buffer)
	}
	if offset+uint64(len(data)) > b.Desc.Size {
		return fmt.Errorf("fakegpu: write of %d bytes at %d overflows buffer %q of size %d", len(data), offset, b.Name, b.Desc.Size)
	}
	b.mu.Lock()
	copy(b.Data[offset:], data)
	b.mu.Unlock()
	q.writes.Add(1)
	return nil
}

func (q *Queue) WriteTexture(w *gpu.TextureWrite) error {
	t, ok := w.Texture.(*Texture)
	if !ok {
		return fmt.Errorf("fakegpu: foreign texture %T", w.Texture)
	}
	want := uint64(w.BytesPerRow) * uint64(w.RowsPerImage)
	if uint64(len(w.Data)) < want {
		return fmt.Errorf("fakegpu: texture write has %d bytes, layout needs %d", len(w.Data), want)
	}
	q.mu.Lock()
	t.Writes = append(t.Writes, *w)
	q.mu.Unlock()
	q.writes.Add(1)
	return nil
}

func (q *Queue) Submit(buffers ...gpu.CommandBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, b := range buffers {
		if cb, ok := b.(*CommandBuffer); ok {
			q.Submitted = append(q.Submitted, cb)
		}
	}
}

// Writes returns the number of successful buffer and texture writes.
func (q *Queue) Writes() int64 {
	return q.writes.Load()
}

// Device is the fake gpu.Device. The zero value is not usable; call New.
type Device struct {
	mu      sync.Mutex
	nextID  uint64
	objects []*Object
	counts  map[string]int
	queue   *Queue

	// Fail makes the named create operation ("buffer", "texture", "sampler",
	// "layout", "bindgroup", "pipelinelayout", "shader", "pipeline", "encoder") fail.
	fail map[string]bool

	released atomic.Bool
}

var _ gpu.Device = &Device{}

// New creates an empty fake device.
func New() *Device {
	return &Device{
		counts: make(map[string]int),
		queue:  &Queue{},
		fail:   make(map[string]bool),
	}
}

// FailOn makes subsequent creations of the given kind return ErrInjected.
func (d *Device) FailOn(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[kind] = true
}

func (d *Device) register(o *Object, kind, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[kind] {
		return fmt.Errorf("%w: create %s %q", ErrInjected, kind, label)
	}
	d.nextID++
	o.ID = d.nextID
	o.Kind = kind
	o.Name = label
	d.objects = append(d.objects, o)
	d.counts[kind]++
	return nil
}

// Count returns how many objects of kind were created.
func (d *Device) Count(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[kind]
}

// Live returns the objects of kind that have not been released.
func (d *Device) Live(kind string) []*Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Object
	for _, o := range d.objects {
		if o.Kind == kind && !o.Released() {
			out = append(out, o)
		}
	}
	return out
}

func (d *Device) Release() {
	d.released.Store(true)
}

// Released reports whether the device itself was released.
func (d *Device) Released() bool {
	return d.released.Load()
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

// FakeQueue returns the concrete queue for inspection.
func (d *Device) FakeQueue() *Queue {
	return d.queue
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	b := &Buffer{Desc: *desc}
	if len(desc.Contents) > 0 {
		b.Desc.Size = uint64(len(desc.Contents))
		b.Data = append([]byte(nil), desc.Contents...)
	} else {
		b.Data = make([]byte, desc.Size)
	}
	b.Desc.Contents = nil
	if err := d.register(&b.Object, "buffer", desc.Label); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Device) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Size.Width == 0 || desc.Size.Height == 0 {
		return nil, fmt.Errorf("fakegpu: texture %q has zero size", desc.Label)
	}
	t := &Texture{Desc: *desc, dev: d}
	if err := d.register(&t.Object, "texture", desc.Label); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	s := &Sampler{Desc: *desc}
	if err := d.register(&s.Object, "sampler", desc.Label); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	l := &BindGroupLayout{Desc: *desc}
	if err := d.register(&l.Object, "layout", desc.Label); err != nil {
		return nil, err
	}
	return l, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if desc.Layout == nil {
		return nil, fmt.Errorf("fakegpu: bind group %q has no layout", desc.Label)
	}
	if n := len(desc.Layout.Entries()); n != len(desc.Entries) {
		return nil, fmt.Errorf("fakegpu: bind group %q has %d entries, layout has %d", desc.Label, len(desc.Entries), n)
	}
	g := &BindGroup{Desc: *desc}
	if err := d.register(&g.Object, "bindgroup", desc.Label); err != nil {
		return nil, err
	}
	return g, nil
}

func (d *Device) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	l := &PipelineLayout{Desc: *desc}
	if err := d.register(&l.Object, "pipelinelayout", desc.Label); err != nil {
		return nil, err
	}
	return l, nil
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	m := &ShaderModule{Desc: *desc}
	if err := d.register(&m.Object, "shader", desc.Label); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if desc.Vertex.Module == nil {
		return nil, fmt.Errorf("fakegpu: pipeline %q has no vertex module", desc.Label)
	}
	p := &RenderPipeline{Desc: *desc}
	if err := d.register(&p.Object, "pipeline", desc.Label); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	e := &CommandEncoder{}
	if err := d.register(&e.Object, "encoder", label); err != nil {
		return nil, err
	}
	return e, nil
}

type SurfaceTexture struct {
	view      *TextureView
	Presented bool
	Discarded bool
}

func (s *SurfaceTexture) View() gpu.TextureView { return s.view }
func (s *SurfaceTexture) Present()              { s.Presented = true }
func (s *SurfaceTexture) Discard()              { s.Discarded = true }

// Surface is a fake swapchain surface.
type Surface struct {
	Object
	dev *Device

	mu      sync.Mutex
	Config  gpu.SurfaceConfiguration
	Configs int
	// FailAcquire makes the next N Acquire calls fail.
	FailAcquire int
	Frames      []*SurfaceTexture
}

var _ gpu.Surface = &Surface{}

// NewSurface creates a fake surface bound to d.
func NewSurface(d *Device) *Surface {
	return &Surface{dev: d}
}

func (s *Surface) Configure(cfg gpu.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return errors.New("fakegpu: surface configured with zero size")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config = cfg
	s.Configs++
	return nil
}

func (s *Surface) PreferredFormat() gpu.TextureFormat {
	return gpu.TextureFormatBGRA8Unorm
}

func (s *Surface) Acquire() (gpu.SurfaceTexture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAcquire > 0 {
		s.FailAcquire--
		return nil, errors.New("fakegpu: surface timeout")
	}
	tex := &Texture{
		Desc: gpu.TextureDescriptor{
			Label:  "surface",
			Size:   gpu.Extent3D{Width: s.Config.Width, Height: s.Config.Height, DepthOrArrayLayers: 1},
			Format: s.Config.Format,
			Usage:  gpu.TextureUsageRenderAttachment,
		},
		dev: s.dev,
	}
	view := &TextureView{Texture: tex}
	st := &SurfaceTexture{view: view}
	s.Frames = append(s.Frames, st)
	return st, nil
}
