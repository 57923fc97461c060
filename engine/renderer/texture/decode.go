package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	// registered decoders
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// BGRAImage is implemented by decoded images whose pixels are stored in BGRA order.
// No registered decoder produces one; third-party decoders may.
type BGRAImage interface {
	image.Image

	// BGRA returns the pixel bytes, 4 per pixel, and the row stride in bytes.
	BGRA() (pix []byte, stride int)
}

// staging is a decoded image ready for upload.
type staging struct {
	pixels []byte
	format gpu.TextureFormat
	width  uint32
	height uint32
}

// bytesPerRow is the tightly packed row size of the staging data.
func (s staging) bytesPerRow() uint32 {
	return s.width * s.format.BytesPerPixel()
}

// toStaging maps img onto a GPU texture format and packs its pixels row by row.
// Layouts without a direct mapping are rejected rather than converted.
func toStaging(name string, img image.Image) (staging, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	st := staging{width: uint32(w), height: uint32(h)}

	switch m := img.(type) {
	case BGRAImage:
		pix, stride := m.BGRA()
		st.format = gpu.TextureFormatBGRA8Unorm
		st.pixels = packRows(pix, stride, w*4, h)
	case *image.RGBA:
		st.format = gpu.TextureFormatRGBA8Unorm
		st.pixels = packRows(m.Pix, m.Stride, w*4, h)
	case *image.NRGBA:
		st.format = gpu.TextureFormatRGBA8Unorm
		st.pixels = packRows(m.Pix, m.Stride, w*4, h)
	case *image.RGBA64:
		st.format = gpu.TextureFormatRGBA16Float
		st.pixels = halfRows(m.Pix, m.Stride, w, h)
	case *image.NRGBA64:
		st.format = gpu.TextureFormatRGBA16Float
		st.pixels = halfRows(m.Pix, m.Stride, w, h)
	default:
		return staging{}, fmt.Errorf("%w: texture %q has unsupported pixel layout %T", errs.ErrUnsupportedFormat, name, img)
	}
	return st, nil
}

// packRows copies h rows of rowLen bytes out of a strided pixel buffer.
func packRows(pix []byte, stride, rowLen, h int) []byte {
	if stride == rowLen {
		out := make([]byte, rowLen*h)
		copy(out, pix)
		return out
	}
	out := make([]byte, 0, rowLen*h)
	for y := 0; y < h; y++ {
		out = append(out, pix[y*stride:y*stride+rowLen]...)
	}
	return out
}

// halfRows converts big-endian 16-bit channels into little-endian half floats of value/65535.
func halfRows(pix []byte, stride, w, h int) []byte {
	out := make([]byte, w*h*8)
	o := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*8]
		for i := 0; i < len(row); i += 2 {
			v := uint16(row[i])<<8 | uint16(row[i+1])
			binary.LittleEndian.PutUint16(out[o:], toHalf(float32(v)/math.MaxUint16))
			o += 2
		}
	}
	return out
}

// toHalf converts f to IEEE 754 binary16, rounding to nearest even.
func toHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case bits&0x7fffffff == 0:
		return sign
	case bits>>23&0xff == 0xff:
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		h := mant >> shift
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && h&1 == 1) {
			h++
		}
		return sign | uint16(h)
	}

	h := uint32(exp)<<10 | mant>>13
	rem := mant & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
		h++
	}
	return sign | uint16(h)
}
