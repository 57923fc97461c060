package shader

import (
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
)

const vertexBody = `@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`

const fragmentBody = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}`

// countingFS counts Open calls per file.
type countingFS struct {
	fs.FS
	mu    sync.Mutex
	opens map[string]int
}

func newCountingFS(files fstest.MapFS) *countingFS {
	return &countingFS{FS: files, opens: make(map[string]int)}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	return c.FS.Open(name)
}

func (c *countingFS) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

// fakeCompiler records invocations and reports overlapping calls.
type fakeCompiler struct {
	calls      atomic.Int32
	active     atomic.Int32
	overlapped atomic.Bool
	err        error
	sources    sync.Map
}

func (f *fakeCompiler) Compile(name string, _ ShaderType, source string) ([]uint32, error) {
	if f.active.Add(1) > 1 {
		f.overlapped.Store(true)
	}
	defer f.active.Add(-1)
	f.calls.Add(1)
	f.sources.Store(name, source)
	if f.err != nil {
		return nil, f.err
	}
	return []uint32{0x07230203, 1, 2, 3}, nil
}

func TestTypeFromName(t *testing.T) {
	cases := map[string]ShaderType{
		"basic.vert":      ShaderTypeVertex,
		"basic.frag":      ShaderTypeFragment,
		"cull.comp":       ShaderTypeCompute,
		"post.frag.wgsl":  ShaderTypeFragment,
		"dir/a.vert.wgsl": ShaderTypeVertex,
	}
	for name, want := range cases {
		got, err := TypeFromName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := TypeFromName("basic.glsl")
	assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)
	_, err = TypeFromName("basic.wgsl")
	assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)
}

func TestShaderCacheLoadsOnce(t *testing.T) {
	files := newCountingFS(fstest.MapFS{
		"basic.vert":  {Data: []byte("#include \"common.wgsl\"\n" + vertexBody)},
		"common.wgsl": {Data: []byte("const PI: f32 = 3.14159;")},
	})
	dev := fakegpu.New()
	comp := &fakeCompiler{}
	sc := NewShaderCache(dev, WithFS(files), WithCompiler(comp))

	a, err := sc.Load("basic.vert")
	require.NoError(t, err)
	b, err := sc.Load("basic.vert")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, files.count("basic.vert"))
	assert.Equal(t, 1, files.count("common.wgsl"))
	assert.EqualValues(t, 1, comp.calls.Load())
	assert.Equal(t, 1, dev.Count("shader"))
	assert.EqualValues(t, 1, sc.Loads())

	assert.Equal(t, ShaderTypeVertex, a.ShaderType())
	assert.Equal(t, "vs_main", a.EntryPoint())
	assert.Contains(t, a.Source(), "const PI")
	assert.NotContains(t, a.Source(), "#include")
	assert.Equal(t, []uint32{0x07230203, 1, 2, 3}, a.SPIRV())
	assert.Equal(t, a.Module(), a.Stage().Module)
}

func TestShaderCacheConcurrentLoadsCompileOnceAndSerialize(t *testing.T) {
	files := newCountingFS(fstest.MapFS{
		"a.vert": {Data: []byte(vertexBody)},
		"b.frag": {Data: []byte(fragmentBody)},
	})
	comp := &fakeCompiler{}
	sc := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(comp))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		name := "a.vert"
		if i%2 == 1 {
			name = "b.frag"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sc.Load(name)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, comp.calls.Load())
	assert.False(t, comp.overlapped.Load())
	assert.Equal(t, 2, sc.Len())
}

func TestShaderCacheInvalidateReleasesModule(t *testing.T) {
	files := newCountingFS(fstest.MapFS{"a.frag": {Data: []byte(fragmentBody)}})
	dev := fakegpu.New()
	sc := NewShaderCache(dev, WithFS(files), WithCompiler(&fakeCompiler{}))

	first, err := sc.Load("a.frag")
	require.NoError(t, err)
	sc.Invalidate("a.frag")
	assert.True(t, first.Module().(*fakegpu.ShaderModule).Released())

	second, err := sc.Load("a.frag")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, files.count("a.frag"))

	sc.Clear()
	assert.Zero(t, sc.Len())
	assert.True(t, second.Module().(*fakegpu.ShaderModule).Released())
}

func TestShaderCacheIncludeResolution(t *testing.T) {
	files := fstest.MapFS{
		"pass/post.frag":  {Data: []byte("#include \"local.wgsl\"\n#include <shared/lib.wgsl>\n" + fragmentBody)},
		"pass/local.wgsl": {Data: []byte("// local")},
		"shared/lib.wgsl": {Data: []byte("// shared")},
	}
	comp := &fakeCompiler{}
	sc := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(comp))

	s, err := sc.Load("pass/post.frag")
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "// local")
	assert.Contains(t, s.Source(), "// shared")

	// quoted includes resolve next to the including file, never from the root
	files["lib.wgsl"] = &fstest.MapFile{Data: []byte("// root")}
	files["pass/bad.frag"] = &fstest.MapFile{Data: []byte("#include \"lib.wgsl\"\n" + fragmentBody)}
	_, err = sc.Load("pass/bad.frag")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestShaderCacheIncludeTrailingComment(t *testing.T) {
	files := fstest.MapFS{
		"a.vert": {Data: []byte("#include \"b.wgsl\" // shared types\n" + vertexBody)},
		"b.wgsl": {Data: []byte("struct Shared { x: f32 }")},
	}
	sc := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(&fakeCompiler{}))

	s, err := sc.Load("a.vert")
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "struct Shared")
	assert.NotContains(t, s.Source(), "#include")

	files["c.vert"] = &fstest.MapFile{Data: []byte("#include \"missing.wgsl\" // gone\n" + vertexBody)}
	_, err = sc.Load("c.vert")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestShaderCacheIncludeDepth(t *testing.T) {
	chain := func(n int) fstest.MapFS {
		files := fstest.MapFS{}
		files["top.vert"] = &fstest.MapFile{Data: []byte("#include \"i1.wgsl\"\n" + vertexBody)}
		for i := 1; i < n; i++ {
			files[incName(i)] = &fstest.MapFile{Data: []byte("#include \"" + incName(i+1) + "\"\n")}
		}
		files[incName(n)] = &fstest.MapFile{Data: []byte("// leaf")}
		return files
	}

	sc := NewShaderCache(fakegpu.New(), WithFS(chain(5)), WithCompiler(&fakeCompiler{}))
	_, err := sc.Load("top.vert")
	require.NoError(t, err)

	comp := &fakeCompiler{}
	sc = NewShaderCache(fakegpu.New(), WithFS(chain(6)), WithCompiler(comp))
	_, err = sc.Load("top.vert")
	require.ErrorIs(t, err, errs.ErrIncludeDepthExceeded)
	assert.Contains(t, err.Error(), "i6.wgsl")
	assert.Contains(t, err.Error(), "i5.wgsl")
	assert.Zero(t, comp.calls.Load())
}

func incName(i int) string {
	return "i" + string(rune('0'+i)) + ".wgsl"
}

func TestShaderCacheErrors(t *testing.T) {
	files := fstest.MapFS{
		"a.glsl":       {Data: []byte(vertexBody)},
		"noentry.vert": {Data: []byte(fragmentBody)},
		"ok.vert":      {Data: []byte(vertexBody)},
	}
	comp := &fakeCompiler{}
	sc := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(comp))

	_, err := sc.Load("a.glsl")
	assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)

	_, err = sc.Load("missing.vert")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = sc.Load("noentry.vert")
	assert.ErrorIs(t, err, errs.ErrCompilation)
	assert.Zero(t, comp.calls.Load())

	comp.err = errs.ErrCompilation
	_, err = sc.Load("ok.vert")
	assert.ErrorIs(t, err, errs.ErrCompilation)
	assert.Zero(t, sc.Len())
}

func TestShaderCacheWarningPolicy(t *testing.T) {
	files := fstest.MapFS{
		"dup.frag":   {Data: []byte("#include \"c.wgsl\"\n#include \"c.wgsl\"\n" + fragmentBody)},
		"empty.frag": {Data: []byte("#include \"e.wgsl\"\n" + fragmentBody)},
		"c.wgsl":     {Data: []byte("// c")},
		"e.wgsl":     {Data: []byte("  \n")},
	}

	lenient := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(&fakeCompiler{}))
	_, err := lenient.Load("dup.frag")
	assert.NoError(t, err)
	_, err = lenient.Load("empty.frag")
	assert.NoError(t, err)

	quiet := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(&fakeCompiler{}), WithWarningPolicy(WarningsSuppress))
	_, err = quiet.Load("dup.frag")
	assert.NoError(t, err)

	strict := NewShaderCache(fakegpu.New(), WithFS(files), WithCompiler(&fakeCompiler{}), WithWarningPolicy(WarningsAsErrors))
	_, err = strict.Load("dup.frag")
	assert.ErrorIs(t, err, errs.ErrCompilation)
	_, err = strict.Load("empty.frag")
	assert.ErrorIs(t, err, errs.ErrCompilation)
}

func TestNagaCompiler(t *testing.T) {
	c := NewNagaCompiler()

	_, err := c.Compile("broken.vert", ShaderTypeVertex, "fn nope( {")
	assert.ErrorIs(t, err, errs.ErrCompilation)

	words, err := c.Compile("basic.vert", ShaderTypeVertex, vertexBody)
	if err != nil {
		t.Skipf("naga could not compile the trivial shader: %v", err)
	}
	require.NotEmpty(t, words)
	assert.Equal(t, uint32(0x07230203), words[0])
}
