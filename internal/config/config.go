// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/internal/logger"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Textures   TexturesConfig   `yaml:"textures"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"`
}

// ViewerConfig holds what to show and how.
type ViewerConfig struct {
	ModelPath  string        `yaml:"model"`
	Watch      bool          `yaml:"watch"`
	Debounce   time.Duration `yaml:"debounce"`
	Background [3]float32    `yaml:"background,flow"`
	Wireframe  bool          `yaml:"wireframe"`
	Light      lighting.Sun  `yaml:"light"`
}

// TexturesConfig maps texture kinds (diffuse, specular, normal, height) to
// importer material slots. Kinds left out keep their default slot.
type TexturesConfig struct {
	Slots map[string]string `yaml:"slots,omitempty"`
}

// ScreenshotConfig controls F12 captures.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	lo := logger.DefaultOptions()
	return &Config{
		Window: WindowConfig{
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Viewer: ViewerConfig{
			Debounce:   250 * time.Millisecond,
			Background: [3]float32{0.1, 0.1, 0.12},
			Light:      lighting.DefaultSun(),
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:      lo.Level,
			MaxSizeMB:  lo.MaxSizeMB,
			MaxBackups: lo.MaxBackups,
			MaxAgeDays: lo.MaxAgeDays,
			Compress:   lo.Compress,
		},
	}
}

// Validate checks values a file or flag may have set out of range.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	switch strings.ToLower(c.Screenshot.Format) {
	case "png", "webp":
	default:
		return fmt.Errorf("%w: screenshot format %q", ErrInvalid, c.Screenshot.Format)
	}
	for i, v := range c.Viewer.Background {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: background[%d] = %v", ErrInvalid, i, v)
		}
	}
	return nil
}

// LoggerOptions converts the logging section for logger.Init.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Logging.Level,
		Console:    true,
		Path:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}
