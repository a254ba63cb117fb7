package dupes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var logTimeFormat = "02-01-2006 15-04-05"

// LogName returns the file name of a run log written at t.
func LogName(t time.Time) string {
	return "log-" + t.Format(logTimeFormat) + ".txt"
}

// WriteLog renders the run log: directories scanned, duplicates found,
// decode errors, files that failed to move and every file scanned. Paths
// below a scanned root are shown relative to it. rep may be nil.
func WriteLog(w io.Writer, r *Result, rep *MoveReport, now time.Time) error {
	bw := bufio.NewWriter(w)
	rel := relativizer(r.Roots)

	fmt.Fprintf(bw, "LOG FILE FOR FOTOKIT DUPLICATE FINDER ON %s\n", now.Format("02/01/2006 15:04:05"))
	fmt.Fprintln(bw, "If two sections are touching, there are no items in the former section.")

	fmt.Fprintln(bw, "==========DIRECTORY SCANNED==========")
	for _, root := range r.Roots {
		fmt.Fprintln(bw, root)
	}

	fmt.Fprintln(bw, "==========DUPLICATES FOUND==========")
	for _, p := range r.Registry.Pairs() {
		fmt.Fprintf(bw, "%q dupe of %q\n", rel(p.Duplicate), rel(p.Original))
	}

	fmt.Fprintln(bw, "==========ERROR READING FILES==========")
	for _, e := range r.Errors {
		fmt.Fprintf(bw, "%s: %v\n", rel(e.Path), e.Err)
	}

	fmt.Fprintln(bw, "==========ERROR MOVING FILES==========")
	if rep != nil {
		for _, e := range rep.Failed {
			fmt.Fprintln(bw, rel(e.Path))
		}
	}

	fmt.Fprintln(bw, "==========FILES SCANNED==========")
	for _, f := range r.Files {
		fmt.Fprintln(bw, rel(f))
	}

	return bw.Flush()
}

// SaveLog writes the run log into dir and returns its path.
func SaveLog(dir string, r *Result, rep *MoveReport, now time.Time) (string, error) {
	path := filepath.Join(dir, LogName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	if err := WriteLog(f, r, rep, now); err != nil {
		f.Close()
		return "", fmt.Errorf("write: %w", err)
	}
	return path, f.Close()
}

func relativizer(roots []string) func(string) string {
	return func(p string) string {
		for _, root := range roots {
			if r, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(r, "..") {
				return "." + string(filepath.Separator) + r
			}
		}
		return p
	}
}
