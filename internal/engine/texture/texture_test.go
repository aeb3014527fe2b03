package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/modelview/internal/engine/gfx"
	"github.com/Faultbox/modelview/internal/engine/gfx/gfxtest"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// tga24 builds an uncompressed true-color TGA with top-left origin.
func tga24(w, h int, r, g, b byte) []byte {
	hdr := []byte{
		0, 0, 2, // no id, no color map, true-color
		0, 0, 0, 0, 0, // color map spec
		0, 0, 0, 0, // origin
		byte(w), byte(w >> 8), byte(h), byte(h >> 8),
		24, 0x20,
	}
	for i := 0; i < w*h; i++ {
		hdr = append(hdr, b, g, r)
	}
	return hdr
}

// tga32 builds an uncompressed true-color TGA with 8 alpha bits.
func tga32(w, h int, r, g, b, a byte) []byte {
	hdr := []byte{
		0, 0, 2,
		0, 0, 0, 0, 0,
		0, 0, 0, 0,
		byte(w), byte(w >> 8), byte(h), byte(h >> 8),
		32, 0x28,
	}
	for i := 0; i < w*h; i++ {
		hdr = append(hdr, b, g, r, a)
	}
	return hdr
}

func TestDecodeComponents(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, solid(8, 8, color.NRGBA{255, 0, 0, 255}), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}

	var bm bytes.Buffer
	if err := bmp.Encode(&bm, solid(2, 2, color.NRGBA{0, 0, 255, 255})); err != nil {
		t.Fatalf("bmp encode: %v", err)
	}

	tests := []struct {
		name       string
		data       []byte
		hint       string
		components int
		width      int
		format     gfx.PixelFormat
	}{
		{"gray png", encodePNG(t, gray), "height.png", 1, 4, gfx.FormatRed},
		{"jpeg", jpg.Bytes(), "albedo.JPG", 3, 8, gfx.FormatRGB},
		{"rgba png", encodePNG(t, solid(3, 3, color.NRGBA{10, 20, 30, 128})), "image/png", 4, 3, gfx.FormatRGBA},
		{"sniffed png", encodePNG(t, gray), "*0", 1, 4, gfx.FormatRed},
		{"rgb png", encodePNG(t, solid(5, 2, color.NRGBA{10, 20, 30, 255})), "albedo.png", 3, 5, gfx.FormatRGB},
		{"rgb png by mime", encodePNG(t, solid(5, 2, color.NRGBA{10, 20, 30, 255})), "image/png", 3, 5, gfx.FormatRGB},
		{"bmp 24-bit", bm.Bytes(), "tex.bmp", 3, 2, gfx.FormatRGB},
		{"tga 24-bit", tga24(3, 2, 0, 255, 0), "skin.tga", 3, 3, gfx.FormatRGB},
		{"tga 32-bit", tga32(3, 2, 0, 255, 0, 128), "decal.tga", 4, 3, gfx.FormatRGBA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, err := Decode(tt.data, tt.hint)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if px.Components != tt.components {
				t.Errorf("components = %d, want %d", px.Components, tt.components)
			}
			if px.Width != tt.width {
				t.Errorf("width = %d, want %d", px.Width, tt.width)
			}
			if len(px.Pix) != px.Width*px.Height*px.Components {
				t.Errorf("pix len = %d, want %d", len(px.Pix), px.Width*px.Height*px.Components)
			}
			f, err := FormatFor(px.Components)
			if err != nil || f != tt.format {
				t.Errorf("FormatFor = %v, %v; want %v", f, err, tt.format)
			}
		})
	}
}

func TestDecodeTGA(t *testing.T) {
	px, err := Decode(tga24(2, 2, 255, 0, 0), "skin.tga")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if px.Width != 2 || px.Height != 2 {
		t.Fatalf("size = %dx%d", px.Width, px.Height)
	}
	if px.Components != 3 {
		t.Errorf("components = %d, want 3", px.Components)
	}
	if px.Pix[0] != 255 || px.Pix[1] != 0 {
		t.Errorf("first pixel = %v, want red", px.Pix[:px.Components])
	}
}

func TestDecodeStraightAlpha(t *testing.T) {
	px := FromImage(solid(1, 1, color.NRGBA{200, 100, 50, 128}))
	want := []byte{200, 100, 50, 128}
	if !bytes.Equal(px.Pix, want) {
		t.Errorf("pix = %v, want %v", px.Pix, want)
	}
}

func TestDecodeOpaquePalette(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	img.Pix[1] = 1
	px := FromImage(img)
	if px.Components != 3 {
		t.Fatalf("components = %d, want 3", px.Components)
	}
	if !bytes.Equal(px.Pix, []byte{0, 0, 0, 255, 255, 255}) {
		t.Errorf("pix = %v", px.Pix)
	}
}

func TestFromImageComponents(t *testing.T) {
	opaqueRGBA := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaqueRGBA.Pix {
		opaqueRGBA.Pix[i] = 255
	}
	// Premultiplied half-transparent red
	translucentRGBA := image.NewRGBA(image.Rect(0, 0, 1, 1))
	translucentRGBA.SetRGBA(0, 0, color.RGBA{128, 0, 0, 128})

	translucentPalette := image.NewPaletted(image.Rect(0, 0, 2, 1),
		color.Palette{color.Black, color.NRGBA{255, 255, 255, 0}})
	translucentPalette.Pix[1] = 1

	tests := []struct {
		name       string
		img        image.Image
		components int
	}{
		{"opaque rgba", opaqueRGBA, 3},
		{"translucent rgba", translucentRGBA, 4},
		{"opaque nrgba", solid(2, 2, color.NRGBA{1, 2, 3, 255}), 3},
		{"translucent nrgba", solid(2, 2, color.NRGBA{1, 2, 3, 254}), 4},
		{"translucent palette", translucentPalette, 4},
		{"cmyk", image.NewCMYK(image.Rect(0, 0, 2, 2)), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px := FromImage(tt.img)
			if px.Components != tt.components {
				t.Errorf("components = %d, want %d", px.Components, tt.components)
			}
			if len(px.Pix) != px.Width*px.Height*px.Components {
				t.Errorf("pix len = %d", len(px.Pix))
			}
		})
	}

	px := FromImage(translucentRGBA)
	if !bytes.Equal(px.Pix, []byte{255, 0, 0, 128}) {
		t.Errorf("premultiplied pixel = %v, want straight {255 0 0 128}", px.Pix)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image"), "a.png"); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestFormatForUnsupported(t *testing.T) {
	for _, n := range []int{0, 2, 5} {
		if _, err := FormatFor(n); !errors.Is(err, ErrUnsupportedComponents) {
			t.Errorf("FormatFor(%d) err = %v", n, err)
		}
	}
}

type memSource map[string][]byte

func (m memSource) Open(path string) ([]byte, string, error) {
	data, ok := m[path]
	if !ok {
		return nil, "", os.ErrNotExist
	}
	return data, path, nil
}

func TestCacheDeduplicates(t *testing.T) {
	dev := gfxtest.NewRecorder()
	src := memSource{"a.png": encodePNG(t, solid(2, 2, color.NRGBA{1, 2, 3, 255}))}
	c := NewCache(dev, src)

	first := c.Acquire("a.png")
	second := c.Acquire("a.png")

	if first != second {
		t.Errorf("handles differ: %d vs %d", first, second)
	}
	if len(dev.Uploads) != 1 {
		t.Errorf("expected 1 upload, got %d", len(dev.Uploads))
	}
	if c.loads != 1 || c.Len() != 1 {
		t.Errorf("loads=%d len=%d, want 1 and 1", c.loads, c.Len())
	}
	if dev.Uploads[0].Format != gfx.FormatRGB {
		t.Errorf("upload format = %v, want RGB for an opaque png", dev.Uploads[0].Format)
	}
}

func TestCacheMissingTexture(t *testing.T) {
	dev := gfxtest.NewRecorder()
	c := NewCache(dev, memSource{})

	tex := c.Acquire("missing.png")
	if tex == 0 {
		t.Error("missing texture should still get a handle")
	}
	if len(dev.Uploads) != 0 {
		t.Errorf("no data should be uploaded, got %d uploads", len(dev.Uploads))
	}
	if e, ok := c.entries["missing.png"]; !ok || e.tex != tex {
		t.Error("failed texture should still be cached")
	}
}

func TestCacheRefcount(t *testing.T) {
	dev := gfxtest.NewRecorder()
	c := NewCache(dev, memSource{})

	c.Acquire("a.png")
	c.Acquire("a.png")
	c.Acquire("b.png")

	c.Release("a.png")
	if dev.Deleted("texture") != 0 {
		t.Fatal("texture deleted while still referenced")
	}
	c.Release("a.png")
	if dev.Deleted("texture") != 1 {
		t.Errorf("expected 1 delete, got %d", dev.Deleted("texture"))
	}
	c.Release("a.png") // no-op
	if dev.Deleted("texture") != 1 {
		t.Error("extra release deleted again")
	}
	if len(c.order) != 1 || c.order[0] != "b.png" {
		t.Errorf("order = %v", c.order)
	}

	c.Release("b.png")
	if dev.Live("texture") != 0 || c.Len() != 0 {
		t.Errorf("live=%d len=%d after last release", dev.Live("texture"), c.Len())
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tex"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tex", "a.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	data, hint, err := DirSource{Dir: filepath.ToSlash(dir)}.Open("tex/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(data) != "x" || hint != "a.png" {
		t.Errorf("got %q, %q", data, hint)
	}
}
