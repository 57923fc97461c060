package camera

import (
	"encoding/binary"
	"math"
)

const (
	// GPUCameraUniformSize is the byte size of GPUCameraUniform.
	GPUCameraUniformSize = 128

	// GPUProjectionUniformSize is the byte size of GPUProjectionUniform.
	GPUProjectionUniformSize = 64
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Every vec3 is padded to 16 bytes so the block is valid under std140 and WGSL uniform rules.
type GPUCameraUniform struct {
	View   [16]float32 // offset   0: view matrix (mat4x4<f32>)
	Pos    [4]float32  // offset  64: eye position
	Center [4]float32  // offset  80: gimbal center
	Dir    [4]float32  // offset  96: normalized view direction
	Top    [4]float32  // offset 112: up vector
}

// Marshal serializes the uniform into little-endian bytes for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	putFloats(buf[0:], g.View[:])
	putFloats(buf[64:], g.Pos[:])
	putFloats(buf[80:], g.Center[:])
	putFloats(buf[96:], g.Dir[:])
	putFloats(buf[112:], g.Top[:])
	return buf
}

// GPUProjectionUniform is the GPU-aligned projection uniform buffer.
type GPUProjectionUniform struct {
	Matrix [16]float32
}

// Marshal serializes the uniform into little-endian bytes for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUProjectionUniform) Marshal() []byte {
	buf := make([]byte, GPUProjectionUniformSize)
	putFloats(buf, g.Matrix[:])
	return buf
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
