// Package datesort files photos into year or year/month directories by the
// date they were taken.
package datesort

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// DateReader returns when the photo at path was taken.
type DateReader interface {
	Taken(path string) (time.Time, error)
}

// ExifReader reads the EXIF DateTimeOriginal tag in-process.
type ExifReader struct{}

func (ExifReader) Taken(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode exif: %w", err)
	}
	return x.DateTime()
}

// ExiftoolReader asks a long-running exiftool process, which understands
// more formats than ExifReader.
type ExiftoolReader struct {
	et *exiftool.Exiftool
}

// NewExiftoolReader starts exiftool. Call Close when done.
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

func (r *ExiftoolReader) Taken(path string) (time.Time, error) {
	fi := r.et.ExtractMetadata(path)[0]
	if fi.Err != nil {
		return time.Time{}, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		return time.Time{}, fmt.Errorf("DateTimeOriginal: %w", err)
	}
	t, err := time.Parse(exifDate, ds)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", ds, err)
	}
	return t, nil
}

// Close stops exiftool.
func (r *ExiftoolReader) Close() error {
	return r.et.Close()
}

// Most specific first.
var namePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102"},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	{regexp.MustCompile(`(?:^|\D)(\d{8})(?:\D|$)`), "20060102"},
}

// FromName extracts a date embedded in a file name, such as
// IMG_20190704_101500.jpg or 2019-07-04 beach.png.
func FromName(name string) (time.Time, bool) {
	for _, p := range namePatterns {
		m := p.re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		t, err := time.Parse(p.layout, m[1])
		if err == nil && t.Year() >= 1826 {
			return t, true
		}
	}
	return time.Time{}, false
}

// taken prefers the reader, then the file name.
func taken(r DateReader, path string) (time.Time, bool) {
	if r != nil {
		t, err := r.Taken(path)
		if err == nil && !t.IsZero() {
			return t, true
		}
		klog.V(1).Infof("no capture date in metadata of %s: %v", path, err)
	}
	return FromName(filepath.Base(path))
}
