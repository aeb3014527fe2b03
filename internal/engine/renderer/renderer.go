// Package renderer owns per-frame OpenGL state: clearing, viewport,
// polygon mode and framebuffer readback.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/gfx"
	"github.com/Faultbox/modelview/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width       int
	Height      int
	Background  [3]float32
	Multisample bool
}

// Renderer handles frame-level GL state.
// IMPORTANT: New must be called after the GL context is created.
type Renderer struct {
	config    Config
	device    *gfx.GLDevice
	wireframe bool
}

// New loads GL entry points and sets the default state.
func New(cfg Config) (*Renderer, error) {
	dev, err := gfx.NewGLDevice()
	if err != nil {
		return nil, fmt.Errorf("creating device: %w", err)
	}

	r := &Renderer{config: cfg, device: dev}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	if cfg.Multisample {
		gl.Enable(gl.MULTISAMPLE)
	}
	bg := cfg.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1.0)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Device returns the device meshes and textures are uploaded through.
func (r *Renderer) Device() gfx.Device { return r.device }

// Resize updates the viewport to the drawable size.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("viewport resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns width / height of the current viewport.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin clears color and depth for a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ToggleWireframe switches between filled and line polygon mode.
func (r *Renderer) ToggleWireframe() bool {
	r.SetWireframe(!r.wireframe)
	return r.wireframe
}

// SetWireframe selects line or fill polygon mode.
func (r *Renderer) SetWireframe(on bool) {
	r.wireframe = on
	mode := uint32(gl.FILL)
	if on {
		mode = gl.LINE
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, mode)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels, w, h
}

// Close logs shutdown; GL objects die with the context.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
}
