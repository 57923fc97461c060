package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/cache"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// modelCache is the implementation of the ModelCache interface.
// Entries are cached per file; a file's models become visible together.
type modelCache struct {
	device  gpu.Device
	fsys    fs.FS
	formats map[string]Parser
	files   cache.Cache[string, *fileEntry]
}

// Parser decodes one mesh file of fsys into its meshes in file order. A missing file is
// reported as errs.ErrNotFound and malformed content as errs.ErrUnsupportedFormat.
type Parser func(fsys fs.FS, file string) ([]*Mesh, error)

// ModelCache parses mesh files into GPU vertex and index buffers, memoized by file and
// addressed by model name within the file.
type ModelCache interface {
	cache.AssetCache[Name, *Entry]

	// Models lists the model names of a loaded file in file order.
	//
	// Parameters:
	//   - file: the mesh file
	//
	// Returns:
	//   - []string: the model names
	//   - bool: false if the file is not loaded
	Models(file string) ([]string, bool)

	// Loads returns how many times a file was parsed and uploaded.
	Loads() uint64

	// Len returns the number of loaded files.
	Len() int
}

var _ ModelCache = &modelCache{}

// NewModelCache creates a ModelCache uploading through device.
//
// Parameters:
//   - device: the device buffers are created on
//   - options: functional options (models root)
//
// Returns:
//   - ModelCache: the empty cache
func NewModelCache(device gpu.Device, options ...ModelCacheBuilderOption) ModelCache {
	mc := &modelCache{
		device:  device,
		fsys:    os.DirFS("assets/models"),
		formats: make(map[string]Parser),
	}
	for _, opt := range options {
		opt(mc)
	}
	mc.files = cache.New(mc.build, cache.WithOnEvict(func(_ string, f *fileEntry) {
		f.release()
	}))
	return mc
}

func (mc *modelCache) Load(name Name) (*Entry, error) {
	f, err := mc.files.Load(name.File)
	if err != nil {
		return nil, err
	}
	e, ok := f.models[name.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q (have %v)", errs.ErrModelNotInFile, name.Model, name.File, f.order)
	}
	return e, nil
}

// Invalidate drops the file name.File along with every model it contained.
func (mc *modelCache) Invalidate(name Name) {
	mc.files.Invalidate(name.File)
}

func (mc *modelCache) Clear() {
	mc.files.Clear()
}

func (mc *modelCache) Models(file string) ([]string, bool) {
	f, ok := mc.files.Peek(file)
	if !ok {
		return nil, false
	}
	return append([]string(nil), f.order...), true
}

func (mc *modelCache) Loads() uint64 {
	return mc.files.Loads()
}

func (mc *modelCache) Len() int {
	return mc.files.Len()
}

// build is the per-file loader. Nothing is published unless every model uploads.
func (mc *modelCache) build(file string) (*fileEntry, error) {
	meshes, err := mc.parse(file)
	if err != nil {
		return nil, err
	}

	f := &fileEntry{models: make(map[string]*Entry, len(meshes))}
	for _, m := range meshes {
		e, err := mc.upload(Name{File: file, Model: m.Name}, m)
		if err != nil {
			f.release()
			return nil, err
		}
		if prev, dup := f.models[m.Name]; dup {
			logger.Logger().Warn("duplicate model name, keeping the last", "file", file, "model", m.Name)
			prev.Release()
		} else {
			f.order = append(f.order, m.Name)
		}
		f.models[m.Name] = e
		logger.Logger().Debug("model loaded", "file", file, "model", m.Name, "indices", e.VertexCount,
			"normals", e.Normals != nil, "texcoords", e.Texcoords != nil)
	}
	return f, nil
}

// parse decodes file with the parser registered for its extension. Files without one
// are read as OBJ.
func (mc *modelCache) parse(file string) ([]*Mesh, error) {
	if parse, ok := mc.formats[strings.ToLower(path.Ext(file))]; ok {
		meshes, err := parse(mc.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", file, err)
		}
		return meshes, nil
	}

	r, err := mc.fsys.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: model file %q: %v", errs.ErrNotFound, file, err)
		}
		return nil, fmt.Errorf("%w: open model file %q: %v", errs.ErrNotFound, file, err)
	}
	defer r.Close()

	meshes, err := ParseOBJ(r)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", file, err)
	}
	return meshes, nil
}

func (mc *modelCache) upload(name Name, m *Mesh) (*Entry, error) {
	e := &Entry{
		Name:        name,
		VertexCount: uint32(len(m.Indices)),
		Material:    m.Material,
		Mesh:        m,
	}

	var err error
	fail := func(stream string) (*Entry, error) {
		e.Release()
		return nil, fmt.Errorf("model: %s %s buffer: %w", name, stream, err)
	}

	if e.Positions, err = createStream(mc.device, name, "Positions", m.Positions, gpu.BufferUsageVertex); err != nil {
		return fail("position")
	}
	if e.Indices, err = createStream(mc.device, name, "Indices", m.Indices, gpu.BufferUsageIndex); err != nil {
		return fail("index")
	}
	if len(m.Normals) > 0 {
		if e.Normals, err = createStream(mc.device, name, "Normals", m.Normals, gpu.BufferUsageVertex); err != nil {
			return fail("normal")
		}
	}
	if len(m.Texcoords) > 0 {
		if e.Texcoords, err = createStream(mc.device, name, "Texcoords", m.Texcoords, gpu.BufferUsageVertex); err != nil {
			return fail("texcoord")
		}
	}
	return e, nil
}

// createStream uploads one vertex or index stream.
func createStream[T float32 | uint32](device gpu.Device, name Name, stream string, data []T, usage gpu.BufferUsage) (gpu.Buffer, error) {
	contents := common.SliceToBytes(data)
	return device.CreateBuffer(&gpu.BufferDescriptor{
		Label:    name.String() + " " + stream,
		Size:     uint64(len(contents)),
		Usage:    usage | gpu.BufferUsageCopyDst,
		Contents: contents,
	})
}
