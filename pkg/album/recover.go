package album

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fingerprint"
	"github.com/tstromberg/fotokit/pkg/progress"
	"github.com/tstromberg/fotokit/pkg/scan"
)

// IncompatibleFingerprintError aborts a recovery because an entry has no
// usable stored fingerprint.
type IncompatibleFingerprintError struct {
	Album string
	Path  string
}

func (e *IncompatibleFingerprintError) Error() string {
	return fmt.Sprintf("album %q: no usable fingerprint stored for %s", e.Album, e.Path)
}

// RecoverOptions control Recover.
type RecoverOptions struct {
	// Extensions overrides scan.ImageExtensions.
	Extensions []string
	Load       fingerprint.Loader
	Progress   progress.Func
}

// Relocation is a missing entry that was found elsewhere.
type Relocation struct {
	From string
	To   string
}

// FileError is a candidate that could not be read during recovery.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// Recovery is the outcome of Recover.
type Recovery struct {
	Cancelled  bool
	Relocated  []Relocation
	Unresolved []string
	Errors     []FileError
}

// Recover looks for the missing entries of a below dir. Each missing entry is
// compared against the candidates in walk order, and the first exact match
// wins. Entry paths are rebound only once the sweep has finished; a
// cancelled recovery leaves a untouched.
func Recover(ctx context.Context, a *Album, dir string, opts RecoverOptions) (*Recovery, error) {
	load := opts.Load
	if load == nil {
		load = fingerprint.FromFile
	}

	var missing []*Entry
	for i, e := range a.Entries {
		opts.Progress.Emit(progress.Event{Phase: progress.Indexing, Index: i, Total: len(a.Entries), Label: e.Path})
		if e.Fingerprint == nil {
			return nil, &IncompatibleFingerprintError{Album: a.Title, Path: e.Path}
		}
		if _, err := os.Stat(e.Path); errors.Is(err, os.ErrNotExist) {
			klog.V(1).Infof("%s is missing", e.Path)
			missing = append(missing, e)
		}
	}

	rec := &Recovery{}
	if len(missing) == 0 {
		klog.Infof("album %q has no missing entries", a.Title)
		return rec, nil
	}

	candidates, err := scan.Find(ctx, dir, scan.Options{Extensions: opts.Extensions})
	if err != nil {
		if ctx.Err() != nil {
			rec.Cancelled = true
			return rec, nil
		}
		return nil, err
	}
	klog.Infof("looking for %d missing entries of %q among %d files in %s", len(missing), a.Title, len(candidates), dir)

	sizes := map[string]image.Point{}
	failed := map[string]bool{}
	fail := func(k int, path string, err error) {
		klog.Errorf("skipping %s: %v", path, err)
		failed[path] = true
		rec.Errors = append(rec.Errors, FileError{Path: path, Err: err})
		opts.Progress.Emit(progress.Event{Phase: progress.Locating, Index: k, Total: len(missing), Label: path, Err: err})
	}

	found := map[*Entry]string{}
	for k, e := range missing {
		if err := ctx.Err(); err != nil {
			klog.Infof("recovery cancelled at %d/%d: %v", k, len(missing), err)
			rec.Cancelled = true
			return rec, nil
		}

		for j, c := range candidates {
			if failed[c] {
				continue
			}
			size, ok := sizes[c]
			if !ok {
				size, err = fingerprint.Dimensions(c)
				if err != nil {
					fail(k, c, err)
					continue
				}
				sizes[c] = size
			}
			opts.Progress.Emit(progress.Event{Phase: progress.Locating, Index: k, Inner: j, Total: len(missing), Label: c})
			if size != e.Fingerprint.Size() {
				continue
			}

			g, err := load(c)
			if err != nil {
				fail(k, c, err)
				continue
			}
			if fingerprint.Equal(e.Fingerprint, g) {
				klog.Infof("found %s at %s", e.Path, c)
				found[e] = c
				break
			}
		}
	}

	for _, e := range missing {
		to, ok := found[e]
		if !ok {
			rec.Unresolved = append(rec.Unresolved, e.Path)
			continue
		}
		rec.Relocated = append(rec.Relocated, Relocation{From: e.Path, To: to})
		e.Path = to
	}
	return rec, nil
}
