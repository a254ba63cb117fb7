package datesort

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// settle is how long Watch waits after the last change before sorting, so
// that a burst of copies results in a single pass.
var settle = 500 * time.Millisecond

// Watch sorts src once, then again whenever files are created or written
// below it, until ctx is done. done, if set, receives the outcome of every
// pass.
func Watch(ctx context.Context, src, dest string, opts Options, done func(*Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	if err := watchTree(w, src); err != nil {
		return err
	}

	pass := func() {
		res, err := Sort(ctx, src, dest, opts)
		if err != nil {
			klog.Errorf("sort failed: %v", err)
		}
		if done != nil {
			done(res, err)
		}
	}
	pass()

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch; errors mean it was a file.
				if err := watchTree(w, event.Name); err != nil {
					klog.V(2).Infof("not watching %s: %v", event.Name, err)
				}
			}
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Warningf("watch error: %v", err)
		case <-timer.C:
			pass()
		}
	}
}

// watchTree adds root and every non-hidden directory below it.
func watchTree(w *fsnotify.Watcher, root string) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				if path == root {
					return fmt.Errorf("%s is not a directory", path)
				}
				return nil
			}
			if path != root && strings.HasPrefix(de.Name(), ".") {
				return godirwalk.SkipThis
			}
			klog.V(1).Infof("watching %s", path)
			if err := w.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		},
	})
}
