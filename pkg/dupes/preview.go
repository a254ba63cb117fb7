package dupes

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fileops"
)

// previewGap is the gutter between the two halves of a preview, in pixels.
const previewGap = 8

// Preview renders the original on the left and the duplicate on the right,
// both scaled to height.
func Preview(p Pair, height int) (image.Image, error) {
	if height <= 0 {
		return nil, fmt.Errorf("invalid preview height %d", height)
	}

	left, err := imaging.Open(p.Original)
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}
	right, err := imaging.Open(p.Duplicate)
	if err != nil {
		return nil, fmt.Errorf("open duplicate: %w", err)
	}

	left = imaging.Resize(left, 0, height, imaging.Lanczos)
	right = imaging.Resize(right, 0, height, imaging.Lanczos)

	w := left.Bounds().Dx() + previewGap + right.Bounds().Dx()
	canvas := imaging.New(w, height, color.White)
	canvas = imaging.Paste(canvas, left, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, right, image.Pt(left.Bounds().Dx()+previewGap, 0))
	return canvas, nil
}

// SavePreview writes Preview output for p into dir and returns its path.
func SavePreview(dir string, p Pair, height int) (string, error) {
	img, err := Preview(p, height)
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(p.Duplicate), filepath.Ext(p.Duplicate))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	path := fileops.UniquePath(filepath.Join(dir, base+"@preview.jpg"))
	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	klog.V(1).Infof("wrote preview %s", path)
	return path, nil
}
