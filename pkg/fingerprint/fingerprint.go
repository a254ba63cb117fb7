// Package fingerprint reduces images to single-channel intensity grids and
// decides whether two grids describe the same picture.
package fingerprint

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"
)

// Grid is a row-major grayscale raster with one byte per pixel.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// Loader produces a fingerprint for a path.
type Loader func(path string) (*Grid, error)

// DecodeError is returned when a file cannot be read as a supported image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FromFile decodes path and converts it to grayscale.
func FromFile(path string) (*Grid, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	g := FromImage(img)
	klog.V(2).Infof("fingerprinted %s: %dx%d", path, g.Width, g.Height)
	return g, nil
}

// FromImage converts an already decoded image.
func FromImage(img image.Image) *Grid {
	gray := effect.Grayscale(img)
	b := gray.Bounds()
	g := &Grid{Width: b.Dx(), Height: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < g.Height; y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		copy(g.Pix[y*g.Width:(y+1)*g.Width], gray.Pix[off:off+g.Width])
	}
	return g
}

// Dimensions reads only the image header of path.
func Dimensions(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, &DecodeError{Path: path, Err: err}
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// Size returns the grid dimensions as a point.
func (g *Grid) Size() image.Point {
	return image.Pt(g.Width, g.Height)
}

// Equal reports whether a and b are pixel-identical. Grids of different
// dimensions are rejected before any pixel is read.
func Equal(a, b *Grid) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Height != b.Height || a.Width != b.Width {
		return false
	}
	return MeanSquaredError(a, b) == 0
}

// MeanSquaredError returns the summed squared intensity difference divided by
// the pixel count. It is NaN for empty grids. Callers must ensure matching
// dimensions.
func MeanSquaredError(a, b *Grid) float64 {
	var sum float64
	n := a.Width * a.Height
	for i := 0; i < n; i++ {
		d := float64(a.Pix[i]) - float64(b.Pix[i])
		sum += d * d
	}
	return sum / float64(n)
}
