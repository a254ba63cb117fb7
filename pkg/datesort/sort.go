package datesort

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fileops"
	"github.com/tstromberg/fotokit/pkg/progress"
	"github.com/tstromberg/fotokit/pkg/scan"
)

// Granularity selects the directory layout below the destination.
type Granularity int

const (
	// Years files photos into DEST/YYYY.
	Years Granularity = iota
	// Months files photos into DEST/YYYY/MM.
	Months
)

func (g Granularity) String() string {
	if g == Months {
		return "months"
	}
	return "years"
}

// Options control Sort and Watch.
type Options struct {
	Granularity Granularity
	// DryRun reports the moves without making them.
	DryRun bool
	// Extensions overrides scan.ImageExtensions.
	Extensions []string
	// Reader defaults to ExifReader.
	Reader   DateReader
	Progress progress.Func
}

// Move is a photo that was (or in a dry run, would be) moved.
type Move struct {
	From  string
	To    string
	Taken time.Time
}

// FileError is a photo that could not be moved.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("move %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Result is the outcome of Sort.
type Result struct {
	Cancelled bool
	Moves     []Move
	// Undated photos have no usable date and are left where they are.
	Undated []string
	Failed  []*FileError
}

// Destination returns the directory below dest that a photo taken at t
// belongs in.
func Destination(dest string, t time.Time, g Granularity) string {
	dir := filepath.Join(dest, fmt.Sprintf("%d", t.Year()))
	if g == Months {
		dir = filepath.Join(dir, fmt.Sprintf("%02d", int(t.Month())))
	}
	return dir
}

// Sort moves every photo below src into dated directories below dest. Photos
// that are already in the right directory stay put; name collisions get a
// numeric suffix.
func Sort(ctx context.Context, src, dest string, opts Options) (*Result, error) {
	paths, err := scan.Find(ctx, src, scan.Options{Extensions: opts.Extensions})
	res := &Result{}
	if err != nil {
		if ctx.Err() != nil {
			res.Cancelled = true
			return res, nil
		}
		return nil, err
	}

	r := opts.Reader
	if r == nil {
		r = ExifReader{}
	}

	klog.Infof("sorting %d photos from %s into %s by %s (dry run: %v)", len(paths), src, dest, opts.Granularity, opts.DryRun)
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			klog.Infof("sort cancelled at %d/%d: %v", i, len(paths), err)
			res.Cancelled = true
			return res, nil
		}
		opts.Progress.Emit(progress.Event{Phase: progress.Sorting, Index: i, Total: len(paths), Label: p})

		t, ok := taken(r, p)
		if !ok {
			klog.Warningf("no date for %s, leaving it alone", p)
			res.Undated = append(res.Undated, p)
			continue
		}

		dir := Destination(dest, t, opts.Granularity)
		if sameDir(filepath.Dir(p), dir) {
			klog.V(1).Infof("%s is already sorted", p)
			continue
		}

		to := fileops.UniquePath(filepath.Join(dir, filepath.Base(p)))
		klog.Infof("%s -> %s", p, to)
		if !opts.DryRun {
			if err := fileops.Move(p, to); err != nil {
				fe := &FileError{Path: p, Err: err}
				klog.Errorf("%v", fe)
				res.Failed = append(res.Failed, fe)
				opts.Progress.Emit(progress.Event{Phase: progress.Sorting, Index: i, Total: len(paths), Label: p, Err: err})
				continue
			}
		}
		res.Moves = append(res.Moves, Move{From: p, To: to, Taken: t})
	}
	return res, nil
}

func sameDir(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == bb
}
