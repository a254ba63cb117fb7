// Package scan enumerates image files below a directory.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/progress"
)

// ImageExtensions is the default allow-list, compared case-insensitively.
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// EnumerationError means the root directory could not be walked at all.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Options control Find.
type Options struct {
	// Extensions overrides ImageExtensions.
	Extensions []string
	// Progress receives one Scanning event per matching file.
	Progress progress.Func
}

// Find returns matching files below root in lexical walk order. Unreadable
// subdirectories are skipped; an inaccessible root is an *EnumerationError.
func Find(ctx context.Context, root string, opts Options) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}
	if !fi.IsDir() {
		return nil, &EnumerationError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	exts := map[string]bool{}
	list := opts.Extensions
	if len(list) == 0 {
		list = ImageExtensions
	}
	for _, e := range list {
		exts[strings.ToLower(e)] = true
	}

	// godirwalk refuses a symlinked root, so walk its target and report
	// paths below the root as given.
	dir, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}

	found := []string{}
	err = godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == dir {
				return nil
			}
			if strings.HasPrefix(de.Name(), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() {
				return nil
			}
			if !exts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			path = filepath.Join(root, rel)

			klog.V(1).Infof("found %s", path)
			found = append(found, path)
			opts.Progress.Emit(progress.Event{Phase: progress.Scanning, Index: len(found), Label: path})
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if path == dir || ctx.Err() != nil {
				return godirwalk.Halt
			}
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		return found, &EnumerationError{Root: root, Err: err}
	}
	return found, nil
}
