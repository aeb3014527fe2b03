// Package viewer runs the interactive model viewer: window, input, camera
// and the frame loop around a loaded model.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/assets"
	"github.com/Faultbox/modelview/internal/config"
	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/debug"
	"github.com/Faultbox/modelview/internal/engine/importer"
	"github.com/Faultbox/modelview/internal/engine/input"
	"github.com/Faultbox/modelview/internal/engine/mesh"
	"github.com/Faultbox/modelview/internal/engine/model"
	"github.com/Faultbox/modelview/internal/engine/renderer"
	"github.com/Faultbox/modelview/internal/engine/shader"
	"github.com/Faultbox/modelview/internal/engine/window"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/internal/viewer/shaders"
)

const title = "modelview"

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	program  *shader.Program
	shots    *debug.ScreenshotCapture

	importer importer.Importer
	options  model.Options
	model    *model.Model
	path     string
	watcher  *assets.Watcher
}

// New creates the window, GL state and shader program.
func New(cfg *config.Config) (*Viewer, error) {
	slots, err := model.ParseSlots(cfg.Textures.Slots)
	if err != nil {
		return nil, err
	}
	shots, err := debug.NewScreenshotCapture(cfg.Screenshot.Dir, "modelview", cfg.Screenshot.Format)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		cfg:      cfg,
		input:    input.New(),
		camera:   camera.NewOrbitCamera(),
		shots:    shots,
		importer: importer.Default(),
		options:  model.Options{Slots: slots, Steps: model.DefaultSteps},
	}
	logger.Info("texture slots", zap.Stringer("table", slots))

	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:       w,
		Height:      h,
		Background:  cfg.Viewer.Background,
		Multisample: cfg.Window.Samples > 0,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.SetWireframe(cfg.Viewer.Wireframe)

	v.program, err = shader.Compile(shaders.ModelVertexShader, shaders.ModelFragmentShader)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to compile model shader: %w", err)
	}

	logger.Info("viewer initialized")
	return v, nil
}

// Open loads path and replaces the current model. On failure the current
// model stays on screen.
func (v *Viewer) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	start := time.Now()
	m := model.New(v.renderer.Device(), v.importer, v.options)
	if err := m.Load(filepath.ToSlash(abs)); err != nil {
		m.Release()
		return err
	}

	if v.model != nil {
		v.model.Release()
	}
	reopened := v.path == abs
	v.model = m
	v.path = abs

	if !reopened {
		if b, ok := m.Bounds(); ok {
			v.camera.FitToBounds(b.Min, b.Max)
		}
	}
	v.window.SetTitle(fmt.Sprintf("%s - %s", title, filepath.Base(abs)))
	logger.Info("model opened",
		zap.String("path", abs),
		zap.Int("meshes", len(m.Meshes())),
		zap.Int("textures", m.TextureCount()),
		zap.Duration("elapsed", time.Since(start)))

	if v.cfg.Viewer.Watch && !reopened {
		v.watch(abs)
	}
	return nil
}

func (v *Viewer) watch(path string) {
	if v.watcher != nil {
		v.watcher.Close()
		v.watcher = nil
	}
	w, err := assets.Watch(path, v.cfg.Viewer.Debounce)
	if err != nil {
		logger.Warn("hot reload disabled", zap.String("path", path), zap.Error(err))
		return
	}
	v.watcher = w
}

// Run starts the frame loop and returns when the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")
	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.pollReload()

		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (v *Viewer) handleEvents() {
	for _, ev := range v.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())

		case input.EventMouseMove:
			switch {
			case v.input.ButtonHeld(sdl.BUTTON_LEFT):
				v.camera.HandleDrag(ev.DeltaX, ev.DeltaY)
			case v.input.ButtonHeld(sdl.BUTTON_RIGHT), v.input.ButtonHeld(sdl.BUTTON_MIDDLE):
				v.camera.HandlePan(ev.DeltaX, ev.DeltaY)
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(ev.DeltaY)

		case input.EventFileDrop:
			if err := v.Open(ev.Path); err != nil {
				logger.Error("failed to open dropped file", zap.String("path", ev.Path), zap.Error(err))
			}

		case input.EventKeyDown:
			v.handleKey(ev.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_F:
		if v.model != nil {
			if b, ok := v.model.Bounds(); ok {
				v.camera.FitToBounds(b.Min, b.Max)
			}
		}
	case sdl.SCANCODE_W:
		logger.Info("wireframe", zap.Bool("on", v.renderer.ToggleWireframe()))
	case sdl.SCANCODE_R:
		v.reload()
	case sdl.SCANCODE_F12:
		v.screenshot()
	}
}

func (v *Viewer) pollReload() {
	if v.watcher == nil {
		return
	}
	select {
	case <-v.watcher.Changes():
		v.reload()
	default:
	}
}

func (v *Viewer) reload() {
	if v.path == "" {
		return
	}
	logger.Info("reloading model", zap.String("path", v.path))
	if err := v.Open(v.path); err != nil {
		logger.Error("reload failed", zap.String("path", v.path), zap.Error(err))
	}
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}

func (v *Viewer) render() {
	v.renderer.Begin()
	if v.model == nil {
		return
	}

	view := v.camera.ViewMatrix()
	proj := v.camera.ProjectionMatrix(v.renderer.Aspect())
	modelMat := mgl32.Ident4()

	v.program.Use()
	v.program.SetMat4("uModel", modelMat)
	v.program.SetMat4("uView", view)
	v.program.SetMat4("uProjection", proj)
	v.program.SetMat3("uNormalMatrix", modelMat.Mat3().Inv().Transpose())
	v.program.SetVec3("uLightDir", v.cfg.Viewer.Light.Direction())
	v.program.SetVec3("uViewPos", v.camera.Position())

	v.model.DrawWith(v.program.ID(), func(b *mesh.Buffer) {
		v.program.SetInt("uTextureMask", TextureMask(b))
	})
}

// TextureMask encodes which sampler kinds a mesh provides: bit 0 diffuse,
// bit 1 specular, bit 2 normal.
func TextureMask(b *mesh.Buffer) int32 {
	var mask int32
	for bit, k := range []mesh.Kind{mesh.KindDiffuse, mesh.KindSpecular, mesh.KindNormal} {
		if b.HasKind(k) {
			mask |= 1 << bit
		}
	}
	return mask
}

// Close releases the model and tears down GL and the window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	var errs []error
	if v.watcher != nil {
		errs = append(errs, v.watcher.Close())
	}
	if v.model != nil {
		v.model.Release()
	}
	if v.program != nil {
		v.program.Delete()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("errors during shutdown", zap.Error(err))
	}
}
