package gfx

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/logger"
)

// GLDevice implements Device on top of the OpenGL 4.1 core profile.
// gl.Init must have been called on the current context.
type GLDevice struct{}

// NewGLDevice initializes OpenGL function pointers for the current context.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func NewGLDevice() (*GLDevice, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return &GLDevice{}, nil
}

func glTarget(t Target) uint32 {
	if t == ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glPixelFormat(f PixelFormat) uint32 {
	switch f {
	case FormatRed:
		return gl.RED
	case FormatRGB:
		return gl.RGB
	default:
		return gl.RGBA
	}
}

func (d *GLDevice) GenVertexArray() VertexArray {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return VertexArray(vao)
}

func (d *GLDevice) GenBuffer() Buffer {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return Buffer(buf)
}

func (d *GLDevice) BindVertexArray(vao VertexArray) {
	gl.BindVertexArray(uint32(vao))
}

func (d *GLDevice) BindBuffer(target Target, buf Buffer) {
	gl.BindBuffer(glTarget(target), uint32(buf))
}

func (d *GLDevice) BufferData(target Target, data []byte) {
	if len(data) == 0 {
		gl.BufferData(glTarget(target), 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(glTarget(target), len(data), gl.Ptr(&data[0]), gl.STATIC_DRAW)
}

func (d *GLDevice) VertexAttrib(attr Attribute, stride int32) {
	gl.EnableVertexAttribArray(attr.Index)
	if attr.Integer {
		gl.VertexAttribIPointer(attr.Index, attr.Components, gl.INT, stride, gl.PtrOffset(int(attr.Offset)))
		return
	}
	xtype := uint32(gl.FLOAT)
	if attr.Type == Int {
		xtype = gl.INT
	}
	gl.VertexAttribPointerWithOffset(attr.Index, attr.Components, xtype, false, stride, attr.Offset)
}

func (d *GLDevice) GenTexture() Texture {
	var tex uint32
	gl.GenTextures(1, &tex)
	return Texture(tex)
}

func (d *GLDevice) TexImage2D(tex Texture, format PixelFormat, width, height int, pix []byte) {
	if len(pix) == 0 {
		return
	}
	f := glPixelFormat(format)

	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	// RGB and RED rows are tightly packed
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(f), int32(width), int32(height), 0, f, gl.UNSIGNED_BYTE, gl.Ptr(&pix[0]))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
}

func (d *GLDevice) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (d *GLDevice) BindTexture2D(tex Texture) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

func (d *GLDevice) Uniform1i(program Program, name string, value int32) {
	loc := gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
	// location -1 is a no-op for glUniform*
	gl.Uniform1i(loc, value)
}

func (d *GLDevice) DrawTriangles(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil)
}

func (d *GLDevice) DeleteVertexArray(vao VertexArray) {
	v := uint32(vao)
	gl.DeleteVertexArrays(1, &v)
}

func (d *GLDevice) DeleteBuffer(buf Buffer) {
	b := uint32(buf)
	gl.DeleteBuffers(1, &b)
}

func (d *GLDevice) DeleteTexture(tex Texture) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}
