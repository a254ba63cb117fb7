package dupes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fileops"
)

// ErrNotCompleted is returned when finalizing a run that did not complete.
var ErrNotCompleted = errors.New("duplicate run has not completed")

// MoveError records a duplicate that could not be moved aside.
type MoveError struct {
	Path string
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s: %v", e.Path, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Move is a duplicate that was moved.
type Move struct {
	From string
	To   string
}

// MoveReport summarizes Finalize.
type MoveReport struct {
	Dir    string
	Moved  []Move
	Failed []*MoveError
}

// Finalize moves every registered duplicate into dir. Files that fail to
// move are reported, not fatal. It refuses to run on an incomplete result.
func (r *Result) Finalize(dir string) (*MoveReport, error) {
	if r.State != Completed {
		return nil, fmt.Errorf("%w (state %s)", ErrNotCompleted, r.State)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	rep := &MoveReport{Dir: dir}
	for _, p := range r.Registry.Pairs() {
		dst := fileops.UniquePath(filepath.Join(dir, filepath.Base(p.Duplicate)))
		if err := fileops.Move(p.Duplicate, dst); err != nil {
			klog.Errorf("unable to move %s: %v", p.Duplicate, err)
			rep.Failed = append(rep.Failed, &MoveError{Path: p.Duplicate, Err: err})
			continue
		}
		klog.V(1).Infof("moved %s -> %s", p.Duplicate, dst)
		rep.Moved = append(rep.Moved, Move{From: p.Duplicate, To: dst})
	}

	klog.Infof("moved %d duplicates to %s (%d failed)", len(rep.Moved), dir, len(rep.Failed))
	return rep, nil
}
