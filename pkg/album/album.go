// Package album keeps named collections of photo paths, each with the
// fingerprint it had when it was added, and relocates entries whose files
// have gone missing.
package album

import (
	"errors"
	"fmt"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/fingerprint"
)

// Entry is one photo in an album.
type Entry struct {
	Path string
	// Fingerprint is nil when no usable fingerprint was stored.
	Fingerprint *fingerprint.Grid
}

// Album represents a collection of images.
type Album struct {
	Title       string
	Description string
	ModTime     time.Time

	Entries []*Entry
}

// New returns an empty album.
func New(title, description string) *Album {
	return &Album{Title: title, Description: description}
}

// Add fingerprints path and appends it. Paths already in the album are
// ignored.
func (a *Album) Add(path string, load fingerprint.Loader) error {
	if a.Find(path) != nil {
		klog.V(1).Infof("%s already in %q", path, a.Title)
		return nil
	}
	if load == nil {
		load = fingerprint.FromFile
	}
	g, err := load(path)
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	a.Entries = append(a.Entries, &Entry{Path: path, Fingerprint: g})
	return nil
}

// Find returns the entry for path, or nil.
func (a *Album) Find(path string) *Entry {
	for _, e := range a.Entries {
		if e.Path == path {
			return e
		}
	}
	return nil
}

// Paths returns the entry paths in album order.
func (a *Album) Paths() []string {
	ps := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		ps = append(ps, e.Path)
	}
	return ps
}

// Missing returns the entries whose files no longer exist.
func (a *Album) Missing() []*Entry {
	var out []*Entry
	for _, e := range a.Entries {
		if _, err := os.Stat(e.Path); errors.Is(err, os.ErrNotExist) {
			out = append(out, e)
		}
	}
	return out
}
