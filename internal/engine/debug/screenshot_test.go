package debug

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/webp"
)

// twoRows is a 1x2 image read back bottom-up: red bottom row, blue top row.
var twoRows = []byte{
	255, 0, 0, 255,
	0, 0, 255, 255,
}

func TestFlipRows(t *testing.T) {
	img, err := FlipRows(twoRows, 1, 2)
	if err != nil {
		t.Fatalf("FlipRows: %v", err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); b == 0 || r != 0 {
		t.Errorf("top row should be blue, got %v", img.At(0, 0))
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r == 0 {
		t.Errorf("bottom row should be red, got %v", img.At(0, 1))
	}
}

func TestFlipRowsSizeMismatch(t *testing.T) {
	if _, err := FlipRows(twoRows, 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestCaptureFormats(t *testing.T) {
	tests := []struct {
		format string
		ext    string
		decode func(f *os.File) error
	}{
		{"png", ".png", func(f *os.File) error { _, err := png.Decode(f); return err }},
		{"WEBP", ".webp", func(f *os.File) error { _, err := webp.Decode(f); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "shots")
			sc, err := NewScreenshotCapture(dir, "model", tt.format)
			if err != nil {
				t.Fatalf("NewScreenshotCapture: %v", err)
			}

			name, err := sc.CaptureFromPixels(twoRows, 1, 2)
			if err != nil {
				t.Fatalf("CaptureFromPixels: %v", err)
			}
			if !strings.HasSuffix(name, tt.ext) || filepath.Dir(name) != dir {
				t.Errorf("unexpected filename %q", name)
			}

			f, err := os.Open(name)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer f.Close()
			if err := tt.decode(f); err != nil {
				t.Errorf("decoding written file: %v", err)
			}
		})
	}
}

func TestGenerateFilename(t *testing.T) {
	sc, err := NewScreenshotCapture("", "shot", "")
	if err != nil {
		t.Fatalf("NewScreenshotCapture: %v", err)
	}
	sc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC) }

	if got := sc.GenerateFilename(); got != "shot_2024-03-01_12-30-05.000.png" {
		t.Errorf("GenerateFilename() = %q", got)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := NewScreenshotCapture("", "x", "bmp"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
