// Package dupes finds pixel-identical photos and moves the extra copies aside.
package dupes

import (
	"context"
	"fmt"
	"slices"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fingerprint"
	"github.com/tstromberg/fotokit/pkg/progress"
)

// State is the lifecycle stage of a duplicate run.
type State int

const (
	Idle State = iota
	Scanning
	Comparing
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Comparing:
		return "comparing"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FileError is a per-file failure that did not stop the run.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// Options control Compare.
type Options struct {
	// Load fingerprints a path. Defaults to fingerprint.FromFile.
	Load     fingerprint.Loader
	Progress progress.Func
}

// Result is everything a duplicate run produced. It owns its registry.
type Result struct {
	State       State
	Roots       []string
	Files       []string
	Registry    *Registry
	Errors      []FileError
	Comparisons int
}

// Unique returns the files that are neither recorded duplicates nor failed
// to decode, in scan order.
func (r *Result) Unique() []string {
	failed := map[string]bool{}
	for _, e := range r.Errors {
		failed[e.Path] = true
	}
	var out []string
	for _, f := range r.Files {
		if !failed[f] && !r.Registry.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// Reset clears the registry and file lists once the run has been acted on.
func (r *Result) Reset() {
	r.Registry.Clear()
	r.Files = nil
	r.Errors = nil
	r.Roots = nil
	r.Comparisons = 0
	r.State = Idle
}

// Compare sweeps paths pairwise on the calling goroutine. Each outer file is
// decoded once; every inner file is decoded fresh for each comparison. ctx is
// checked before each outer file, so a cancelled result holds the matches of
// the completed outer iterations only.
func Compare(ctx context.Context, paths []string, opts Options) *Result {
	load := opts.Load
	if load == nil {
		load = fingerprint.FromFile
	}

	n := len(paths)
	res := &Result{
		State:    Comparing,
		Files:    slices.Clone(paths),
		Registry: NewRegistry(),
	}
	failed := make([]bool, n)
	fail := func(i, j int, err error) {
		klog.Errorf("skipping %s: %v", paths[j], err)
		failed[j] = true
		res.Errors = append(res.Errors, FileError{Path: paths[j], Err: err})
		opts.Progress.Emit(progress.Event{Phase: progress.Comparing, Index: i, Inner: j, Total: n, Label: paths[j], Err: err})
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			klog.Infof("comparison cancelled at %d/%d: %v", i, n, err)
			res.State = Cancelled
			return res
		}
		if failed[i] {
			continue
		}

		a, err := load(paths[i])
		if err != nil {
			fail(i, i, err)
			continue
		}
		klog.V(1).Infof("comparing %s against %d files", paths[i], n-i-1)

		for j := i + 1; j < n; j++ {
			if failed[j] {
				continue
			}
			b, err := load(paths[j])
			if err != nil {
				fail(i, j, err)
				continue
			}

			res.Comparisons++
			if fingerprint.Equal(a, b) && res.Registry.Add(paths[j], paths[i]) {
				klog.V(1).Infof("%s is a duplicate of %s", paths[j], paths[i])
			}
			opts.Progress.Emit(progress.Event{Phase: progress.Comparing, Index: i, Inner: j, Total: n, Label: paths[j]})
		}
	}

	res.State = Completed
	return res
}
