package texture

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/gfx"
	"github.com/Faultbox/modelview/internal/logger"
)

// Source resolves a material texture path to encoded image bytes. hint
// names the encoding (file name or MIME type) for Decode.
type Source interface {
	Open(path string) (data []byte, hint string, err error)
}

// DirSource reads texture files relative to a model directory.
type DirSource struct {
	Dir string
}

// Open joins Dir and name with '/' and reads the file.
func (s DirSource) Open(name string) ([]byte, string, error) {
	full := s.Dir + "/" + name
	if s.Dir == "" {
		full = name
	}
	data, err := os.ReadFile(filepath.FromSlash(full))
	if err != nil {
		return nil, "", err
	}
	return data, path.Base(name), nil
}

type entry struct {
	tex  gfx.Texture
	refs int
}

// Cache deduplicates texture uploads by material path. Every Acquire of a
// path returns the same device handle; the handle is deleted once every
// acquired reference has been released.
type Cache struct {
	dev     gfx.Device
	src     Source
	entries map[string]*entry
	order   []string
	loads   int
}

// NewCache creates an empty cache uploading to dev.
func NewCache(dev gfx.Device, src Source) *Cache {
	return &Cache{
		dev:     dev,
		src:     src,
		entries: make(map[string]*entry),
	}
}

// Acquire returns the handle for path, loading it on first use. A texture
// that cannot be read or decoded still gets a handle, with no image data.
func (c *Cache) Acquire(path string) gfx.Texture {
	if e, ok := c.entries[path]; ok {
		e.refs++
		return e.tex
	}

	tex := c.dev.GenTexture()
	c.loads++
	if err := c.upload(tex, path); err != nil {
		logger.Warn("texture failed to load", zap.String("path", path), zap.Error(err))
	}

	c.entries[path] = &entry{tex: tex, refs: 1}
	c.order = append(c.order, path)
	return tex
}

func (c *Cache) upload(tex gfx.Texture, path string) error {
	data, hint, err := c.src.Open(path)
	if err != nil {
		return err
	}
	px, err := Decode(data, hint)
	if err != nil {
		return err
	}
	format, err := FormatFor(px.Components)
	if err != nil {
		return err
	}
	if len(px.Pix) < px.Width*px.Height*px.Components {
		return fmt.Errorf("short pixel buffer for %dx%d", px.Width, px.Height)
	}
	c.dev.TexImage2D(tex, format, px.Width, px.Height, px.Pix)
	logger.Debug("texture uploaded",
		zap.String("path", path),
		zap.Int("width", px.Width),
		zap.Int("height", px.Height),
		zap.Stringer("format", format))
	return nil
}

// Release drops one reference to path, deleting the device texture when
// the last one goes.
func (c *Cache) Release(path string) {
	e, ok := c.entries[path]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	c.dev.DeleteTexture(e.tex)
	delete(c.entries, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len is the number of distinct textures held.
func (c *Cache) Len() int { return len(c.order) }
