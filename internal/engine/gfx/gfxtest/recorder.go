// Package gfxtest provides a recording gfx.Device for tests.
package gfxtest

import (
	"fmt"

	"github.com/Faultbox/modelview/internal/engine/gfx"
)

// Call is one recorded device call.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Upload records a texture upload.
type Upload struct {
	Texture gfx.Texture
	Format  gfx.PixelFormat
	Width   int
	Height  int
	Bytes   int
}

// UniformSet records a Uniform1i call.
type UniformSet struct {
	Program gfx.Program
	Name    string
	Value   int32
}

// Recorder is an in-memory gfx.Device. Handles are allocated from a single
// counter starting at 1 so every generated handle is distinct.
type Recorder struct {
	Calls    []Call
	Uploads  []Upload
	Uniforms []UniformSet
	Draws    []int32

	// BufferBytes holds the byte length of the last upload per target.
	BufferBytes map[gfx.Target]int
	Attribs     []gfx.Attribute

	ActiveUnit uint32

	next    uint32
	live    map[string]map[uint32]bool
	deleted map[string]int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		BufferBytes: make(map[gfx.Target]int),
		live: map[string]map[uint32]bool{
			"vao":     {},
			"buffer":  {},
			"texture": {},
		},
		deleted: make(map[string]int),
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) gen(kind string) uint32 {
	r.next++
	r.live[kind][r.next] = true
	return r.next
}

func (r *Recorder) del(kind string, h uint32) {
	if r.live[kind][h] {
		delete(r.live[kind], h)
	}
	r.deleted[kind]++
}

// Live returns the number of handles of kind ("vao", "buffer", "texture")
// generated and not yet deleted.
func (r *Recorder) Live(kind string) int {
	return len(r.live[kind])
}

// Deleted returns how many delete calls were made for kind.
func (r *Recorder) Deleted(kind string) int {
	return r.deleted[kind]
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Reset clears recorded calls but keeps handle state.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Uploads = nil
	r.Uniforms = nil
	r.Draws = nil
	r.Attribs = nil
}

func (r *Recorder) GenVertexArray() gfx.VertexArray {
	h := r.gen("vao")
	r.record("GenVertexArray", h)
	return gfx.VertexArray(h)
}

func (r *Recorder) GenBuffer() gfx.Buffer {
	h := r.gen("buffer")
	r.record("GenBuffer", h)
	return gfx.Buffer(h)
}

func (r *Recorder) BindVertexArray(vao gfx.VertexArray) {
	r.record("BindVertexArray", vao)
}

func (r *Recorder) BindBuffer(target gfx.Target, buf gfx.Buffer) {
	r.record("BindBuffer", target, buf)
}

func (r *Recorder) BufferData(target gfx.Target, data []byte) {
	r.BufferBytes[target] = len(data)
	r.record("BufferData", target, len(data))
}

func (r *Recorder) VertexAttrib(attr gfx.Attribute, stride int32) {
	r.Attribs = append(r.Attribs, attr)
	r.record("VertexAttrib", attr.Index, stride)
}

func (r *Recorder) GenTexture() gfx.Texture {
	h := r.gen("texture")
	r.record("GenTexture", h)
	return gfx.Texture(h)
}

func (r *Recorder) TexImage2D(tex gfx.Texture, format gfx.PixelFormat, width, height int, pix []byte) {
	r.Uploads = append(r.Uploads, Upload{Texture: tex, Format: format, Width: width, Height: height, Bytes: len(pix)})
	r.record("TexImage2D", tex, format)
}

func (r *Recorder) ActiveTexture(unit uint32) {
	r.ActiveUnit = unit
	r.record("ActiveTexture", unit)
}

func (r *Recorder) BindTexture2D(tex gfx.Texture) {
	r.record("BindTexture2D", tex)
}

func (r *Recorder) Uniform1i(program gfx.Program, name string, value int32) {
	r.Uniforms = append(r.Uniforms, UniformSet{Program: program, Name: name, Value: value})
	r.record("Uniform1i", name, value)
}

func (r *Recorder) DrawTriangles(count int32) {
	r.Draws = append(r.Draws, count)
	r.record("DrawTriangles", count)
}

func (r *Recorder) DeleteVertexArray(vao gfx.VertexArray) {
	r.del("vao", uint32(vao))
	r.record("DeleteVertexArray", vao)
}

func (r *Recorder) DeleteBuffer(buf gfx.Buffer) {
	r.del("buffer", uint32(buf))
	r.record("DeleteBuffer", buf)
}

func (r *Recorder) DeleteTexture(tex gfx.Texture) {
	r.del("texture", uint32(tex))
	r.record("DeleteTexture", tex)
}

var _ gfx.Device = (*Recorder)(nil)
