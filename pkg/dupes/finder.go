package dupes

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fingerprint"
	"github.com/tstromberg/fotokit/pkg/progress"
	"github.com/tstromberg/fotokit/pkg/scan"
)

// ErrBusy is returned when a Finder is asked to start a second sweep.
var ErrBusy = errors.New("a duplicate sweep is already running")

// Config holds parameters for a Finder.
type Config struct {
	// Extensions overrides scan.ImageExtensions.
	Extensions []string
	Load       fingerprint.Loader
	Progress   progress.Func
}

// Finder runs scan-then-compare sessions, one at a time.
type Finder struct {
	cfg Config

	mu    sync.Mutex
	state State
}

// NewFinder returns an idle Finder.
func NewFinder(cfg Config) *Finder {
	return &Finder{cfg: cfg}
}

// State returns the stage of the current or most recent run.
func (f *Finder) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Finder) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Run enumerates every root and sweeps the combined file list. An
// enumeration failure fails the run with a *scan.EnumerationError; per-file
// decode failures end up in Result.Errors.
func (f *Finder) Run(ctx context.Context, roots ...string) (*Result, error) {
	f.mu.Lock()
	if f.state == Scanning || f.state == Comparing {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.state = Scanning
	f.mu.Unlock()

	klog.Infof("scanning %d directories: %v", len(roots), roots)
	var paths []string
	seen := map[string]bool{}
	for _, root := range roots {
		found, err := scan.Find(ctx, root, scan.Options{Extensions: f.cfg.Extensions, Progress: f.cfg.Progress})
		if err != nil {
			res := &Result{Roots: roots, Files: appendNew(paths, seen, found), Registry: NewRegistry()}
			if ctx.Err() != nil {
				res.State = Cancelled
				f.setState(Cancelled)
				return res, nil
			}
			res.State = Failed
			f.setState(Failed)
			return res, err
		}
		paths = appendNew(paths, seen, found)
	}

	klog.Infof("cross-matching %d files", len(paths))
	f.setState(Comparing)
	res := Compare(ctx, paths, Options{Load: f.cfg.Load, Progress: f.cfg.Progress})
	res.Roots = roots
	f.setState(res.State)

	klog.Infof("%s: %d files, %d duplicates, %d errors, %d comparisons",
		res.State, len(res.Files), res.Registry.Len(), len(res.Errors), res.Comparisons)
	return res, nil
}

// appendNew appends the paths not yet in seen. Overlapping roots would
// otherwise list a file twice and make it a duplicate of itself.
func appendNew(paths []string, seen map[string]bool, found []string) []string {
	for _, p := range found {
		c := filepath.Clean(p)
		if seen[c] {
			klog.V(1).Infof("%s already scanned", p)
			continue
		}
		seen[c] = true
		paths = append(paths, p)
	}
	return paths
}
