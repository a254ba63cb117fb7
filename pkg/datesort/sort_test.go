package datesort

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tstromberg/fotokit/internal/testimg"
	"github.com/tstromberg/fotokit/pkg/progress"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestSort(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	a := testimg.WritePNG(t, filepath.Join(src, "a.png"), testimg.Pattern(2, 2, 1))
	b := testimg.WritePNG(t, filepath.Join(src, "nested", "b.jpg"), testimg.Pattern(2, 2, 2))
	named := testimg.WritePNG(t, filepath.Join(src, "IMG_20200102_030405.png"), testimg.Pattern(2, 2, 3))
	undated := testimg.WritePNG(t, filepath.Join(src, "mystery.png"), testimg.Pattern(2, 2, 4))
	testimg.WriteFile(t, filepath.Join(src, "notes.txt"), []byte("skip me"))
	// An older a.png from the same month is already in place.
	testimg.WritePNG(t, filepath.Join(dest, "2019", "07", "a.png"), testimg.Pattern(2, 2, 9))

	reader := fakeReader{
		"a.png": day(2019, time.July, 4),
		"b.jpg": day(2019, time.July, 30),
	}

	var events int
	res, err := Sort(context.Background(), src, dest, Options{
		Granularity: Months,
		Reader:      reader,
		Progress:    func(progress.Event) { events++ },
	})
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}

	want := []Move{
		{From: named, To: filepath.Join(dest, "2020", "01", "IMG_20200102_030405.png"), Taken: time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{From: a, To: filepath.Join(dest, "2019", "07", "a_1.png"), Taken: day(2019, time.July, 4)},
		{From: b, To: filepath.Join(dest, "2019", "07", "b.jpg"), Taken: day(2019, time.July, 30)},
	}
	if diff := cmp.Diff(want, res.Moves); diff != "" {
		t.Errorf("Moves mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{undated}, res.Undated); diff != "" {
		t.Errorf("Undated mismatch (-want +got):\n%s", diff)
	}
	if events != 4 {
		t.Errorf("got %d events, want 4", events)
	}

	for _, m := range want {
		if exists(t, m.From) || !exists(t, m.To) {
			t.Errorf("%s was not moved to %s", m.From, m.To)
		}
	}
	if !exists(t, undated) {
		t.Errorf("undated photo %s was moved", undated)
	}
}

func TestSortDryRun(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	a := testimg.WritePNG(t, filepath.Join(src, "a.png"), testimg.Pattern(2, 2, 1))

	res, err := Sort(context.Background(), src, dest, Options{
		DryRun: true,
		Reader: fakeReader{"a.png": day(2001, time.May, 1)},
	})
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if len(res.Moves) != 1 || res.Moves[0].To != filepath.Join(dest, "2001", "a.png") {
		t.Errorf("Moves = %+v", res.Moves)
	}
	if !exists(t, a) || exists(t, filepath.Join(dest, "2001")) {
		t.Error("dry run touched the file system")
	}
}

func TestSortInPlace(t *testing.T) {
	root := t.TempDir()
	testimg.WritePNG(t, filepath.Join(root, "a.png"), testimg.Pattern(2, 2, 1))
	r := fakeReader{"a.png": day(2010, time.June, 1)}

	for pass, wantMoves := range []int{1, 0} {
		res, err := Sort(context.Background(), root, root, Options{Reader: r})
		if err != nil {
			t.Fatalf("pass %d: Sort: %v", pass, err)
		}
		if len(res.Moves) != wantMoves {
			t.Errorf("pass %d: %d moves, want %d", pass, len(res.Moves), wantMoves)
		}
	}
	if !exists(t, filepath.Join(root, "2010", "a.png")) {
		t.Error("a.png not sorted into 2010")
	}
}

func TestSortCancelled(t *testing.T) {
	src := t.TempDir()
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		testimg.WritePNG(t, filepath.Join(src, n), testimg.Pattern(2, 2, 1))
	}
	r := fakeReader{"a.png": day(2001, 1, 1), "b.png": day(2002, 1, 1), "c.png": day(2003, 1, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := Sort(ctx, src, t.TempDir(), Options{
		Reader:   r,
		Progress: func(progress.Event) { cancel() },
	})
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if !res.Cancelled || len(res.Moves) != 1 {
		t.Errorf("Cancelled = %v with %d moves, want true with 1", res.Cancelled, len(res.Moves))
	}
}

func TestWatch(t *testing.T) {
	settle = 50 * time.Millisecond
	src := t.TempDir()
	dest := t.TempDir()
	r := fakeReader{"first.png": day(2011, 1, 1), "late.png": day(2012, 2, 2)}
	testimg.WritePNG(t, filepath.Join(src, "first.png"), testimg.Pattern(2, 2, 1))

	ctx, cancel := context.WithCancel(context.Background())
	passes := make(chan *Result, 10)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, src, dest, Options{Reader: r}, func(res *Result, err error) {
			if err == nil {
				passes <- res
			}
		})
	}()

	waitMoves := func(want string) {
		t.Helper()
		deadline := time.After(10 * time.Second)
		for {
			select {
			case res := <-passes:
				for _, m := range res.Moves {
					if filepath.Base(m.To) == want {
						return
					}
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s to be sorted", want)
			}
		}
	}

	waitMoves("first.png")
	testimg.WritePNG(t, filepath.Join(src, "later", "late.png"), testimg.Pattern(2, 2, 2))
	waitMoves("late.png")

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Watch: %v", err)
	}
	if !exists(t, filepath.Join(dest, "2012", "late.png")) {
		t.Error("late.png not sorted")
	}
}
