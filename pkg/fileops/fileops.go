// Package fileops moves photos around without clobbering anything.
package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// Move renames src to dst, creating dst's directory. Moves across devices
// fall back to copy and remove.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename: %w", err)
	}

	klog.V(1).Infof("%s -> %s crosses devices, copying", src, dst)
	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// UniquePath returns path, or path with a numeric suffix if it already exists.
func UniquePath(path string) string {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		p := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
	}
}
