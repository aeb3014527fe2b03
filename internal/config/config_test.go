package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func parse(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("modelview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := Parse(fs, args)
	if err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return f
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Viewer.Watch {
		t.Error("expected watch to be off by default")
	}
	if cfg.Viewer.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Viewer.Debounce)
	}
	if len(cfg.Textures.Slots) != 0 {
		t.Errorf("expected no slot overrides, got %v", cfg.Textures.Slots)
	}
	if cfg.Screenshot.Format != "png" {
		t.Errorf("expected png screenshots, got %s", cfg.Screenshot.Format)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelview.yaml")
	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
viewer:
  model: models/ship.gltf
  watch: true
  debounce: 500ms
  background: [0, 0, 0]
textures:
  slots:
    normal: normals
screenshot:
  format: webp
logging:
  level: debug
  file: modelview.log
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Window.Width != 1920 || !cfg.Window.Fullscreen {
		t.Errorf("window = %+v", cfg.Window)
	}
	// Unset fields keep their defaults
	if !cfg.Window.VSync {
		t.Error("vsync should keep its default")
	}
	if cfg.Viewer.ModelPath != "models/ship.gltf" || !cfg.Viewer.Watch {
		t.Errorf("viewer = %+v", cfg.Viewer)
	}
	if cfg.Viewer.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Viewer.Debounce)
	}
	if cfg.Textures.Slots["normal"] != "normals" {
		t.Errorf("slots = %v", cfg.Textures.Slots)
	}
	if cfg.Screenshot.Format != "webp" {
		t.Errorf("screenshot format = %s", cfg.Screenshot.Format)
	}
	if cfg.Logging.File != "modelview.log" {
		t.Errorf("log file = %s", cfg.Logging.File)
	}
}

func TestFlagPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelview.yaml")
	if err := os.WriteFile(path, []byte("window:\n  width: 800\n  fullscreen: true\nviewer:\n  model: from-file.obj\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		args      []string
		wantWidth int
		wantFull  bool
		wantModel string
		wantLevel string
	}{
		{"file only", []string{"-config", path}, 800, true, "from-file.obj", "info"},
		{"flags win", []string{"-config", path, "-width", "1024", "-windowed", "-debug"}, 1024, false, "from-file.obj", "debug"},
		{"model flag", []string{"-config", path, "-model", "flag.gltf"}, 800, true, "flag.gltf", "info"},
		{"positional model", []string{"-config", path, "arg.glb"}, 800, true, "arg.glb", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(parse(t, tt.args...))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Window.Width != tt.wantWidth {
				t.Errorf("width = %d, want %d", cfg.Window.Width, tt.wantWidth)
			}
			if cfg.Window.Fullscreen != tt.wantFull {
				t.Errorf("fullscreen = %v, want %v", cfg.Window.Fullscreen, tt.wantFull)
			}
			if cfg.Viewer.ModelPath != tt.wantModel {
				t.Errorf("model = %q, want %q", cfg.Viewer.ModelPath, tt.wantModel)
			}
			if cfg.Logging.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", cfg.Logging.Level, tt.wantLevel)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(&Flags{Config: filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("window: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&Flags{Config: path}); err == nil {
		t.Error("expected YAML error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"bad screenshot format", func(c *Config) { c.Screenshot.Format = "gif" }},
		{"background out of range", func(c *Config) { c.Viewer.Background[1] = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "modelview.yaml")

	cfg := Default()
	cfg.Viewer.ModelPath = "scene.glb"
	cfg.Textures.Slots = map[string]string{"height": "height"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Viewer.ModelPath != "scene.glb" || loaded.Textures.Slots["height"] != "height" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoggerOptions(t *testing.T) {
	cfg := Default()
	cfg.Logging.File = "out.log"
	opts := cfg.LoggerOptions()
	if opts.Path != "out.log" || !opts.Console || opts.Level != "info" {
		t.Errorf("logger options = %+v", opts)
	}
}
