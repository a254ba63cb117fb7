package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/dupes"
	"github.com/tstromberg/fotokit/pkg/progress"
)

var (
	moveTo        string
	keep          []string
	previewDir    string
	previewHeight int
	showAll       bool
)

var dupesCmd = &cobra.Command{
	Use:   "dupes DIR...",
	Short: "Find pixel-identical photos",
	Long: `dupes walks every DIR for PNG and JPEG files and reports each photo that
is pixel-for-pixel identical to one seen earlier. With --move-to, duplicates
are moved out of the way and a run log is written next to them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDupes,
}

func init() {
	dupesCmd.Flags().StringVar(&moveTo, "move-to", "", "move duplicates into this directory")
	dupesCmd.Flags().StringArrayVar(&keep, "keep", nil, "treat this duplicate as an original (repeatable)")
	dupesCmd.Flags().StringVar(&previewDir, "preview-dir", "", "write side-by-side previews of each pair here")
	dupesCmd.Flags().IntVar(&previewHeight, "preview-height", 240, "height of preview images in pixels")
	dupesCmd.Flags().BoolVar(&showAll, "show-all", false, "also list files without duplicates")
	rootCmd.AddCommand(dupesCmd)
}

func runDupes(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	var res *dupes.Result
	err := withProgress(ctx, func(ctx context.Context, emit progress.Func) error {
		f := dupes.NewFinder(dupes.Config{Progress: emit})
		var err error
		res, err = f.Run(ctx, args...)
		return err
	})
	if err != nil {
		return err
	}

	for _, k := range keep {
		if !res.Registry.Remove(filepath.Clean(k)) {
			klog.Warningf("--keep %s: not a duplicate", k)
		}
	}

	out := cmd.OutOrStdout()
	for _, p := range res.Registry.Pairs() {
		fmt.Fprintf(out, "%s\tdupe of\t%s\n", p.Duplicate, p.Original)
	}
	if showAll {
		for _, u := range res.Unique() {
			fmt.Fprintf(out, "%s\tunique\n", u)
		}
	}
	for _, fe := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\tunreadable: %v\n", fe.Path, fe.Err)
	}

	if res.State != dupes.Completed {
		klog.Warningf("sweep %s after %d comparisons; results are partial and nothing was moved", res.State, res.Comparisons)
		return nil
	}

	if previewDir != "" {
		for _, p := range res.Registry.Pairs() {
			path, err := dupes.SavePreview(previewDir, p, previewHeight)
			if err != nil {
				klog.Errorf("preview of %s: %v", p.Duplicate, err)
				continue
			}
			klog.V(1).Infof("wrote %s", path)
		}
	}

	if moveTo == "" {
		return nil
	}
	rep, err := res.Finalize(moveTo)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	logPath, err := dupes.SaveLog(moveTo, res, rep, time.Now())
	if err != nil {
		return fmt.Errorf("save log: %w", err)
	}
	fmt.Fprintf(out, "moved %d duplicates to %s (%d failed), log: %s\n", len(rep.Moved), moveTo, len(rep.Failed), logPath)
	res.Reset()
	return nil
}
