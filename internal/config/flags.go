package config

import "flag"

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config     string
	Model      string
	Debug      bool
	Watch      bool
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
}

// RegisterFlags defines the viewer flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.Model, "model", "", "Model file to open (also accepted as first argument)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Watch, "watch", false, "Reload the model when its files change")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	return f
}

// Parse parses args and takes the first positional argument as the model
// path when -model is not given.
func Parse(fs *flag.FlagSet, args []string) (*Flags, error) {
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Model == "" && fs.NArg() > 0 {
		f.Model = fs.Arg(0)
	}
	return f, nil
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Model != "" {
		cfg.Viewer.ModelPath = f.Model
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Watch {
		cfg.Viewer.Watch = true
	}
	if f.Windowed {
		cfg.Window.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Window.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Window.Height = f.Height
	}
}
