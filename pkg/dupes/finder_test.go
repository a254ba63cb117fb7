package dupes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tstromberg/fotokit/internal/testimg"
	"github.com/tstromberg/fotokit/pkg/progress"
	"github.com/tstromberg/fotokit/pkg/scan"
)

// photoTree writes a directory with two copies of a.png and one broken file.
func photoTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testimg.WritePNG(t, filepath.Join(root, "a.png"), testimg.Pattern(12, 8, 1))
	testimg.WritePNG(t, filepath.Join(root, "b.png"), testimg.Pattern(12, 8, 1))
	testimg.WritePNG(t, filepath.Join(root, "c.png"), testimg.Pattern(12, 8, 2))
	testimg.WritePNG(t, filepath.Join(root, "sub", "d.PNG"), testimg.Pattern(12, 8, 1))
	testimg.WritePNG(t, filepath.Join(root, "sub", "e.png"), testimg.Pattern(8, 12, 1))
	testimg.WriteFile(t, filepath.Join(root, "broken.jpg"), []byte("garbage"))
	testimg.WriteFile(t, filepath.Join(root, "readme.txt"), []byte("not a photo"))
	return root
}

func TestFinderRun(t *testing.T) {
	root := photoTree(t)
	in := func(rel string) string { return filepath.Join(root, rel) }

	phases := map[progress.Phase]int{}
	f := NewFinder(Config{Progress: func(e progress.Event) { phases[e.Phase]++ }})
	res, err := f.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.State != Completed || f.State() != Completed {
		t.Errorf("state = %s/%s, want completed", res.State, f.State())
	}

	wantFiles := []string{in("a.png"), in("b.png"), in("broken.jpg"), in("c.png"), in("sub/d.PNG"), in("sub/e.png")}
	if diff := cmp.Diff(wantFiles, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	wantPairs := []Pair{
		{Duplicate: in("b.png"), Original: in("a.png")},
		{Duplicate: in("sub/d.PNG"), Original: in("a.png")},
	}
	if diff := cmp.Diff(wantPairs, res.Registry.Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}

	if len(res.Errors) != 1 || res.Errors[0].Path != in("broken.jpg") {
		t.Errorf("Errors = %v, want broken.jpg", res.Errors)
	}
	if diff := cmp.Diff([]string{in("a.png"), in("c.png"), in("sub/e.png")}, res.Unique()); diff != "" {
		t.Errorf("Unique mismatch (-want +got):\n%s", diff)
	}

	if phases[progress.Scanning] != 6 {
		t.Errorf("got %d scanning events, want 6", phases[progress.Scanning])
	}
	// 5 decodable files: 10 comparisons plus one error event.
	if phases[progress.Comparing] != 11 {
		t.Errorf("got %d comparing events, want 11", phases[progress.Comparing])
	}
}

func TestFinderOverlappingRoots(t *testing.T) {
	root := t.TempDir()
	other := testimg.WritePNG(t, filepath.Join(root, "other.png"), testimg.Pattern(5, 5, 1))
	only := testimg.WritePNG(t, filepath.Join(root, "sub", "only.png"), testimg.Pattern(5, 5, 2))

	res, err := NewFinder(Config{}).Run(context.Background(), root, filepath.Join(root, "sub"), root+"/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{other, only}, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if res.Registry.Len() != 0 {
		t.Errorf("pairs = %v, want none", res.Registry.Pairs())
	}

	rep, err := res.Finalize(filepath.Join(t.TempDir(), "hold"))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(rep.Moved) != 0 {
		t.Errorf("moved %v", rep.Moved)
	}
	if _, err := os.Stat(only); err != nil {
		t.Errorf("sole copy is gone: %v", err)
	}
}

func TestCompareSamePathTwice(t *testing.T) {
	p := testimg.WritePNG(t, filepath.Join(t.TempDir(), "a.png"), testimg.Pattern(4, 4, 1))
	res := Compare(context.Background(), []string{p, p}, Options{})
	if res.Registry.Len() != 0 {
		t.Errorf("pairs = %v, want none", res.Registry.Pairs())
	}
}

func TestFinderEnumerationError(t *testing.T) {
	f := NewFinder(Config{})
	res, err := f.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))

	var ee *scan.EnumerationError
	if !errors.As(err, &ee) {
		t.Fatalf("Run error = %v, want *scan.EnumerationError", err)
	}
	if res.State != Failed || f.State() != Failed {
		t.Errorf("state = %s/%s, want failed", res.State, f.State())
	}

	// A failed Finder may run again.
	if _, err := f.Run(context.Background(), t.TempDir()); err != nil {
		t.Errorf("second Run: %v", err)
	}
}

func TestFinderCancelledDuringScan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFinder(Config{})
	res, err := f.Run(ctx, photoTree(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != Cancelled {
		t.Errorf("State = %s, want cancelled", res.State)
	}
}

func TestFinderBusy(t *testing.T) {
	f := NewFinder(Config{})
	f.state = Comparing
	if _, err := f.Run(context.Background(), t.TempDir()); !errors.Is(err, ErrBusy) {
		t.Errorf("Run error = %v, want ErrBusy", err)
	}
}
