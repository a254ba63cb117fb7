package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/datesort"
	"github.com/tstromberg/fotokit/pkg/progress"
)

var (
	byMonth     bool
	dryRun      bool
	useExiftool bool
	watchFlag   bool
)

var sortCmd = &cobra.Command{
	Use:   "sort SRC DEST",
	Short: "Move photos into DEST/YYYY or DEST/YYYY/MM by capture date",
	Long: `sort reads the capture date of every photo below SRC from its EXIF data,
falling back to a date in the file name, and moves it into a year (or, with
--months, year/month) directory below DEST. Photos without a date stay put.`,
	Args: cobra.ExactArgs(2),
	RunE: runSort,
}

func init() {
	sortCmd.Flags().BoolVar(&byMonth, "months", false, "sort into year/month directories")
	sortCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "dry-run mode, don't move things")
	sortCmd.Flags().BoolVar(&useExiftool, "exiftool", false, "read dates with exiftool instead of the built-in EXIF reader")
	sortCmd.Flags().BoolVar(&watchFlag, "watch", false, "keep running and sort new photos as they arrive")
	rootCmd.AddCommand(sortCmd)
}

func runSort(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	opts := datesort.Options{DryRun: dryRun}
	if byMonth {
		opts.Granularity = datesort.Months
	}
	if useExiftool {
		r, err := datesort.NewExiftoolReader()
		if err != nil {
			return err
		}
		defer r.Close()
		opts.Reader = r
	}

	out := cmd.OutOrStdout()
	report := func(res *datesort.Result) {
		for _, m := range res.Moves {
			fmt.Fprintf(out, "%s -> %s\n", m.From, m.To)
		}
		for _, u := range res.Undated {
			fmt.Fprintf(out, "%s\tno date\n", u)
		}
		for _, fe := range res.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", fe)
		}
	}

	if watchFlag {
		klog.Infof("watching %s, interrupt to stop", args[0])
		return datesort.Watch(ctx, args[0], args[1], opts, func(res *datesort.Result, err error) {
			if err == nil {
				report(res)
			}
		})
	}

	var res *datesort.Result
	err := withProgress(ctx, func(ctx context.Context, emit progress.Func) error {
		o := opts
		o.Progress = emit
		var err error
		res, err = datesort.Sort(ctx, args[0], args[1], o)
		return err
	})
	if err != nil {
		return err
	}
	report(res)
	if res.Cancelled {
		klog.Warningf("sort cancelled; %d photos moved before stopping", len(res.Moves))
	}
	return nil
}
