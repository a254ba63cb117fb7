package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/album"
)

var (
	dbPath     string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "fotokit",
	Short: "Photo housekeeping: duplicates, albums, and date sorting",
	Long: `fotokit finds pixel-identical duplicate photos, keeps albums whose
files can be found again after they move, and sorts photos into year or
year/month directories by the date they were taken.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", album.DefaultPath(), "album database")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "do not draw progress bars")
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func openStore() (*album.Store, error) {
	return album.Open(dbPath)
}
