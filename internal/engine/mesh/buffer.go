package mesh

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/Faultbox/modelview/internal/engine/gfx"
)

// ErrIndexOutOfRange is returned when an index references a missing vertex.
var ErrIndexOutOfRange = errors.New("index out of range")

// Buffer holds one mesh ready for drawing. Its device buffers are created
// once in New and never re-uploaded.
type Buffer struct {
	Vertices []Vertex
	Indices  []uint32
	Textures []TextureRef

	vao gfx.VertexArray
	vbo gfx.Buffer
	ebo gfx.Buffer

	released bool
}

// New copies the given data and uploads it to dev.
func New(dev gfx.Device, vertices []Vertex, indices []uint32, textures []TextureRef) (*Buffer, error) {
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("index %d at %d (vertex count %d): %w", idx, i, len(vertices), ErrIndexOutOfRange)
		}
	}

	b := &Buffer{
		Vertices: append([]Vertex(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
		Textures: append([]TextureRef(nil), textures...),
	}
	b.setup(dev)
	return b, nil
}

func (b *Buffer) setup(dev gfx.Device) {
	b.vao = dev.GenVertexArray()
	b.vbo = dev.GenBuffer()
	b.ebo = dev.GenBuffer()

	dev.BindVertexArray(b.vao)

	dev.BindBuffer(gfx.ArrayBuffer, b.vbo)
	dev.BufferData(gfx.ArrayBuffer, vertexBytes(b.Vertices))

	dev.BindBuffer(gfx.ElementArrayBuffer, b.ebo)
	dev.BufferData(gfx.ElementArrayBuffer, indexBytes(b.Indices))

	for _, attr := range Layout {
		dev.VertexAttrib(attr, VertexSize)
	}

	dev.BindVertexArray(0)
}

// Draw binds every texture to its own unit, points the matching sampler
// uniform at it and draws all indices. The active unit is left at 0.
func (b *Buffer) Draw(dev gfx.Device, program gfx.Program) {
	var counters [numKinds]int
	for i, tex := range b.Textures {
		unit := uint32(i)
		dev.ActiveTexture(unit)

		name := tex.Kind.Label()
		if tex.Kind >= 0 && tex.Kind < numKinds {
			counters[tex.Kind]++
			name = tex.Kind.Uniform(counters[tex.Kind])
		}
		dev.Uniform1i(program, name, int32(unit))
		dev.BindTexture2D(tex.ID)
	}

	dev.BindVertexArray(b.vao)
	dev.DrawTriangles(int32(len(b.Indices)))
	dev.BindVertexArray(0)

	dev.ActiveTexture(0)
}

// HasKind reports whether any texture of kind k is attached.
func (b *Buffer) HasKind(k Kind) bool {
	for _, t := range b.Textures {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// VertexArray returns the device vertex array created at construction.
func (b *Buffer) VertexArray() gfx.VertexArray {
	return b.vao
}

// Release deletes the vertex array and both buffers. Texture handles are
// shared and released by their owner. Calling Release twice is a no-op.
func (b *Buffer) Release(dev gfx.Device) {
	if b.released {
		return
	}
	b.released = true
	dev.DeleteBuffer(b.ebo)
	dev.DeleteBuffer(b.vbo)
	dev.DeleteVertexArray(b.vao)
}

func vertexBytes(v []Vertex) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(VertexSize))
}

func indexBytes(idx []uint32) []byte {
	if len(idx) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&idx[0])), len(idx)*4)
}
