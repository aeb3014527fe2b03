// Package gfx provides the narrow graphics-device surface used by mesh and
// texture code. All global binding state (vertex arrays, buffers, texture
// units, uniforms) is mutated only through a Device so that drawing can be
// exercised against a recording fake without a GL context.
package gfx

// VertexArray is a device vertex-array handle.
type VertexArray uint32

// Buffer is a device buffer handle.
type Buffer uint32

// Texture is a device texture handle. Zero is never a valid generated handle.
type Texture uint32

// Program is a linked shader program handle.
type Program uint32

// Target selects the buffer binding point.
type Target int

const (
	ArrayBuffer Target = iota
	ElementArrayBuffer
)

// ComponentType is the scalar type of a vertex attribute component.
type ComponentType int

const (
	Float ComponentType = iota
	Int
)

// Attribute describes one per-vertex attribute channel.
type Attribute struct {
	Index      uint32
	Components int32
	Type       ComponentType
	Offset     uintptr

	// Integer attributes are declared with the integer pointer variant and
	// reach the shader as ivec, not as converted floats.
	Integer bool
}

// PixelFormat is the client-side layout of texture pixel data.
type PixelFormat int

const (
	FormatRed PixelFormat = iota + 1
	FormatRGB
	FormatRGBA
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatRed:
		return "RED"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return "unknown"
	}
}

// Device is the binding context for mesh upload, texture upload and drawing.
// Implementations are not safe for concurrent use; callers must stay on the
// thread that owns the graphics context.
type Device interface {
	GenVertexArray() VertexArray
	GenBuffer() Buffer
	BindVertexArray(vao VertexArray)
	BindBuffer(target Target, buf Buffer)
	// BufferData uploads data to the buffer bound at target with static usage.
	BufferData(target Target, data []byte)
	// VertexAttrib enables the channel and sets its pointer for the bound
	// vertex array using the given stride.
	VertexAttrib(attr Attribute, stride int32)

	GenTexture() Texture
	// TexImage2D uploads 8-bit pixel data to tex, generates mipmaps and sets
	// repeat wrapping with linear-mipmap filtering.
	TexImage2D(tex Texture, format PixelFormat, width, height int, pix []byte)
	ActiveTexture(unit uint32)
	BindTexture2D(tex Texture)

	// Uniform1i sets an integer uniform by name. Unknown names are ignored.
	Uniform1i(program Program, name string, value int32)
	// DrawTriangles issues an indexed triangle-list draw of count uint32
	// indices from the bound vertex array.
	DrawTriangles(count int32)

	DeleteVertexArray(vao VertexArray)
	DeleteBuffer(buf Buffer)
	DeleteTexture(tex Texture)
}
