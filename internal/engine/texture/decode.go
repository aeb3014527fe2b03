// Package texture provides image decoding and the per-model texture cache
// that uploads each referenced image to the device once.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Faultbox/modelview/internal/engine/gfx"
)

// ErrUnsupportedComponents is returned for pixel data that is not 1, 3 or 4
// components per pixel.
var ErrUnsupportedComponents = errors.New("unsupported component count")

type decodeFunc func(io.Reader) (image.Image, error)

// Decoders keyed by lowercase file extension and by MIME type. TGA has no
// magic number, so it is only ever selected explicitly.
var decoders = map[string]decodeFunc{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,

	"image/png":  png.Decode,
	"image/jpeg": jpeg.Decode,
	"image/gif":  gif.Decode,
	"image/bmp":  bmp.Decode,
	"image/tiff": tiff.Decode,
	"image/webp": webp.Decode,
}

var magics = []struct {
	prefix string
	key    string
}{
	{"\x89PNG\r\n\x1a\n", ".png"},
	{"\xff\xd8", ".jpg"},
	{"GIF8", ".gif"},
	{"BM", ".bmp"},
	{"II*\x00", ".tif"},
	{"MM\x00*", ".tif"},
}

// sniff identifies data by its leading bytes.
func sniff(data []byte) string {
	for _, m := range magics {
		if bytes.HasPrefix(data, []byte(m.prefix)) {
			return m.key
		}
	}
	if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return ".webp"
	}
	return ""
}

// Pixels is tightly packed 8-bit image data, top row first.
type Pixels struct {
	Width      int
	Height     int
	Components int
	Pix        []byte
}

// FormatFor maps a component count to the device pixel format.
func FormatFor(components int) (gfx.PixelFormat, error) {
	switch components {
	case 1:
		return gfx.FormatRed, nil
	case 3:
		return gfx.FormatRGB, nil
	case 4:
		return gfx.FormatRGBA, nil
	default:
		return 0, fmt.Errorf("%d components: %w", components, ErrUnsupportedComponents)
	}
}

// Decode decodes image data. hint is a file name, extension or MIME type
// used to pick the decoder; unknown hints fall back to the data's magic
// bytes.
func Decode(data []byte, hint string) (*Pixels, error) {
	key := strings.ToLower(hint)
	if !strings.Contains(key, "/") || strings.Contains(key, ".") {
		key = strings.ToLower(path.Ext(hint))
	}

	dec, ok := decoders[key]
	if !ok {
		dec, ok = decoders[sniff(data)]
	}
	if !ok {
		return nil, fmt.Errorf("decoding %s: %w", hint, image.ErrFormat)
	}
	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", hint, err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image into packed pixels, keeping the
// component count the source format carries: gray images stay single
// channel, fully opaque images become RGB and the rest RGBA.
func FromImage(img image.Image) *Pixels {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		px := &Pixels{Width: w, Height: h, Components: 1, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(px.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return px
	case *image.Gray16:
		px := &Pixels{Width: w, Height: h, Components: 1, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px.Pix[y*w+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return px
	}

	// Convert to straight (non-premultiplied) alpha
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*w || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	if !hasAlpha(img) {
		px := &Pixels{Width: w, Height: h, Components: 3, Pix: make([]byte, w*h*3)}
		for i, j := 0, 0; i < len(nrgba.Pix); i, j = i+4, j+3 {
			px.Pix[j] = nrgba.Pix[i]
			px.Pix[j+1] = nrgba.Pix[i+1]
			px.Pix[j+2] = nrgba.Pix[i+2]
		}
		return px
	}
	return &Pixels{Width: w, Height: h, Components: 4, Pix: nrgba.Pix}
}

// hasAlpha reports whether any pixel is not fully opaque. Decoders differ
// in the type they return for sources without alpha (png and bmp give
// RGBA, tga gives NRGBA, jpeg gives YCbCr), so the pixels decide.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
