package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/errs"
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	fsys           fs.FS
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads a glTF or GLB document and reads typed accessor data from it.
type gltfParser interface {
	// Parse loads the document at file, detecting GLB by extension or magic number, and
	// resolves every buffer.
	//
	// Parameters:
	//   - file: the document path inside the parser's file system
	//
	// Returns:
	//   - error: errs.ErrNotFound for a missing document or buffer, errs.ErrUnsupportedFormat otherwise
	Parse(file string) error

	// Document returns the parsed document, nil before a successful Parse.
	Document() *gltfDocument

	// ReadVec2Accessor reads a VEC2 FLOAT accessor.
	ReadVec2Accessor(accessorIndex int) ([][2]float32, error)

	// ReadVec3Accessor reads a VEC3 FLOAT accessor.
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)

	// ReadIndicesAccessor reads a SCALAR accessor of unsigned bytes, shorts or ints as uint32.
	ReadIndicesAccessor(accessorIndex int) ([]uint32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a parser reading documents and external buffers from fsys.
func newGLTFParser(fsys fs.FS) gltfParser {
	return &gltfParserImpl{fsys: fsys}
}

// malformed wraps a decoding failure as ErrUnsupportedFormat.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: gltf: %s", errs.ErrUnsupportedFormat, fmt.Sprintf(format, args...))
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(file string) error {
	p.baseDir = path.Dir(file)

	data, err := p.readFile(file)
	if err != nil {
		return err
	}

	if strings.EqualFold(path.Ext(file), ".glb") || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) readFile(file string) ([]byte, error) {
	if !fs.ValidPath(file) {
		return nil, fmt.Errorf("%w: gltf: path %q escapes the models root", errs.ErrNotFound, file)
	}
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("%w: gltf: %v", errs.ErrNotFound, err)
	}
	return data, nil
}

// parseGLTF parses a glTF JSON document.
func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return malformed("parse JSON: %v", err)
	}
	return p.finish(&doc)
}

// parseGLB parses a GLB container: a header, a JSON chunk and an optional BIN chunk.
func (p *gltfParserImpl) parseGLB(data []byte) error {
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return malformed("read GLB header: %v", err)
	}
	if header.Magic != gltfGLBMagic {
		return malformed("invalid GLB magic 0x%08x", header.Magic)
	}
	if header.Version != gltfGLBVersion {
		return malformed("unsupported GLB version %d", header.Version)
	}

	var jsonData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return malformed("read chunk header: %v", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return malformed("chunk of %d bytes overruns the file", chunk.ChunkLength)
		}
		chunkData := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return malformed("read chunk: %v", err)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = chunkData
		}
	}
	if jsonData == nil {
		return malformed("GLB has no JSON chunk")
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return malformed("parse JSON chunk: %v", err)
	}
	return p.finish(&doc)
}

// finish validates the document version and loads its buffers.
func (p *gltfParserImpl) finish(doc *gltfDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return malformed("unsupported version %q, want 2.x", doc.Asset.Version)
	}
	if len(doc.ExtensionsRequired) > 0 {
		return malformed("required extensions %v are not supported", doc.ExtensionsRequired)
	}
	if err := p.loadBuffers(doc); err != nil {
		return err
	}
	p.document = doc
	return nil
}

// loadBuffers resolves every buffer from a data URI, a file next to the document, or the
// GLB binary chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return malformed("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return malformed("buffer %d: %v", i, err)
			}
			buf.Data = data
		default:
			data, err := p.readFile(path.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return malformed("buffer %d holds %d bytes, declares %d", i, len(buf.Data), buf.ByteLength)
		}
	}
	return nil
}

// decodeDataURI decodes a base64 data URI of the form data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("data URI has no payload")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding %q", header)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// readAccessorData returns the tightly packed elements of an accessor.
func (p *gltfParserImpl) readAccessorData(accessorIndex int) (*gltfAccessor, []byte, error) {
	if p.document == nil {
		return nil, nil, errors.New("gltf: no document loaded")
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, nil, malformed("accessor %d out of range", accessorIndex)
	}
	acc := &doc.Accessors[accessorIndex]
	if acc.Sparse != nil {
		return nil, nil, malformed("accessor %d is sparse", accessorIndex)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, nil, malformed("accessor %d has no valid bufferView", accessorIndex)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, nil, malformed("bufferView %d references buffer %d", *acc.BufferView, bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].Data

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 || acc.Count < 0 {
		return nil, nil, malformed("accessor %d has type %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := start + (acc.Count-1)*stride + elementSize
		if start < 0 || end > bv.ByteOffset+bv.ByteLength || end > len(buf) {
			return nil, nil, malformed("accessor %d overruns its bufferView", accessorIndex)
		}
	}

	out := make([]byte, acc.Count*elementSize)
	for i := range acc.Count {
		src := start + i*stride
		copy(out[i*elementSize:(i+1)*elementSize], buf[src:src+elementSize])
	}
	return acc, out, nil
}

func (p *gltfParserImpl) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	return readFloats[[2]float32](p, accessorIndex, gltfAccessorTypeVec2)
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	return readFloats[[3]float32](p, accessorIndex, gltfAccessorTypeVec3)
}

// readFloats reads a FLOAT accessor of the given element type.
func readFloats[T [2]float32 | [3]float32](p *gltfParserImpl, accessorIndex int, accessorType string) ([]T, error) {
	acc, data, err := p.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != accessorType || acc.ComponentType != gltfComponentTypeFloat {
		return nil, malformed("accessor %d is %s/%d, want %s FLOAT", accessorIndex, acc.Type, acc.ComponentType, accessorType)
	}
	result := make([]T, acc.Count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, result); err != nil {
		return nil, malformed("accessor %d: %v", accessorIndex, err)
	}
	return result, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	acc, data, err := p.readAccessorData(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, malformed("index accessor %d is %s, want SCALAR", accessorIndex, acc.Type)
	}

	result := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i, b := range data {
			result[i] = uint32(b)
		}
	case gltfComponentTypeUnsignedShort:
		for i := range result {
			result[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range result {
			result[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, malformed("index accessor %d has component type %d", accessorIndex, acc.ComponentType)
	}
	return result, nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
