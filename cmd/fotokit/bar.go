package main

import (
	"context"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tstromberg/fotokit/pkg/progress"
)

// withProgress runs work on its own goroutine while another one draws the
// events it emits.
func withProgress(ctx context.Context, work func(ctx context.Context, emit progress.Func) error) error {
	ch := make(chan progress.Event, 64)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		return work(ctx, progress.Chan(ch))
	})
	g.Go(func() error {
		render(ch)
		return nil
	})
	return g.Wait()
}

// render draws one bar per phase until ch is closed.
func render(ch <-chan progress.Event) {
	var bar *progressbar.ProgressBar
	var phase progress.Phase
	finish := func() {
		if bar != nil {
			bar.Finish()
		}
	}
	defer finish()

	for e := range ch {
		if noProgress {
			continue
		}
		if e.Phase != phase || bar == nil {
			finish()
			phase = e.Phase
			bar = progressbar.Default(barMax(e), string(e.Phase))
		}
		if e.Err != nil {
			continue
		}

		switch e.Phase {
		case progress.Scanning, progress.Comparing:
			bar.Add(1)
		case progress.Locating:
			bar.Set(e.Index)
		default:
			bar.Set(e.Index + 1)
		}
	}
}

// barMax is the bar length for a phase; -1 draws a spinner.
func barMax(e progress.Event) int64 {
	switch {
	case e.Total <= 0:
		return -1
	case e.Phase == progress.Comparing:
		n := int64(e.Total)
		return n * (n - 1) / 2
	default:
		return int64(e.Total)
	}
}
