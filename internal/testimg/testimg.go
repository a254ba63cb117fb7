// Package testimg writes small deterministic images for tests.
package testimg

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Pattern returns a w×h RGBA image whose pixels are derived from seed.
func Pattern(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x*7+y*13) + seed
			img.SetRGBA(x, y, color.RGBA{R: v, G: v ^ seed, B: v + 31*seed, A: 255})
		}
	}
	return img
}

// WritePNG encodes img as PNG at path, creating parent directories.
func WritePNG(t testing.TB, path string, img image.Image) string {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WriteJPEG encodes img as JPEG at path, creating parent directories.
func WriteJPEG(t testing.TB, path string, img image.Image) string {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WriteFile writes raw bytes, for files that must fail to decode.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func create(t testing.TB, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return f
}
