package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tstromberg/fotokit/internal/testimg"
)

func TestDupesMoveTo(t *testing.T) {
	root := t.TempDir()
	hold := filepath.Join(t.TempDir(), "hold")
	previews := filepath.Join(t.TempDir(), "previews")

	a := testimg.WritePNG(t, filepath.Join(root, "a.png"), testimg.Pattern(12, 8, 1))
	b := testimg.WritePNG(t, filepath.Join(root, "b.png"), testimg.Pattern(12, 8, 1))
	c := testimg.WritePNG(t, filepath.Join(root, "c.png"), testimg.Pattern(12, 8, 1))
	d := testimg.WritePNG(t, filepath.Join(root, "d.png"), testimg.Pattern(12, 8, 5))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"dupes", root,
		"--no-progress",
		"--db", filepath.Join(t.TempDir(), "albums.db"),
		"--keep", filepath.Join(root, ".", "c.png") + "/",
		"--preview-dir", previews,
		"--move-to", hold,
	})
	defer func() {
		keep, moveTo, previewDir, noProgress = nil, "", "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	}()
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dupes: %v", err)
	}

	for _, p := range []string{a, c, d, filepath.Join(hold, "b.png")} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
	if _, err := os.Stat(b); !os.IsNotExist(err) {
		t.Errorf("%s still present: %v", b, err)
	}

	if got := out.String(); !strings.Contains(got, b+"\tdupe of\t"+a) || strings.Contains(got, c+"\tdupe of") {
		t.Errorf("output:\n%s", got)
	}

	logs, _ := filepath.Glob(filepath.Join(hold, "log-*.txt"))
	if len(logs) != 1 {
		t.Fatalf("logs in %s = %v, want one", hold, logs)
	}
	log, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "b.png") {
		t.Errorf("log does not mention b.png:\n%s", log)
	}

	// --keep removed c before previews were drawn.
	shots, _ := filepath.Glob(filepath.Join(previews, "*@preview.jpg"))
	if len(shots) != 1 {
		t.Errorf("previews = %v, want one", shots)
	}
}
