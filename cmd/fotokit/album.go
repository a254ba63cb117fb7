package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotokit/pkg/album"
	"github.com/tstromberg/fotokit/pkg/progress"
)

var description string

var albumCmd = &cobra.Command{
	Use:   "album",
	Short: "Manage photo albums",
}

var albumCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create an empty album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *album.Store) error {
			if _, err := s.Load(cmd.Context(), args[0]); err == nil {
				return fmt.Errorf("album %q already exists", args[0])
			}
			return s.Save(cmd.Context(), album.New(args[0], description))
		})
	},
}

var albumAddCmd = &cobra.Command{
	Use:   "add TITLE PATH...",
	Short: "Add photos to an album",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *album.Store) error {
			a, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, p := range args[1:] {
				abs, err := filepath.Abs(p)
				if err != nil {
					return fmt.Errorf("abs: %w", err)
				}
				if err := a.Add(abs, nil); err != nil {
					return fmt.Errorf("add %s: %w", p, err)
				}
			}
			return s.Save(cmd.Context(), a)
		})
	},
}

var albumListCmd = &cobra.Command{
	Use:   "list",
	Short: "List albums",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(s *album.Store) error {
			sums, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, sm := range sums {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d photos\t%s\t%s\n", sm.Title, sm.Entries, sm.ModTime.Local().Format("2006-01-02 15:04"), sm.Description)
			}
			return nil
		})
	},
}

var albumShowCmd = &cobra.Command{
	Use:   "show TITLE",
	Short: "List the photos in an album, flagging missing ones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *album.Store) error {
			a, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", a.Title, a.Description)
			for _, e := range a.Entries {
				status := "ok"
				if _, err := os.Stat(e.Path); err != nil {
					status = "MISSING"
				}
				if e.Fingerprint == nil {
					status += ", no fingerprint"
				}
				fmt.Fprintf(out, "  %s\t%s\n", e.Path, status)
			}
			return nil
		})
	},
}

var albumRmCmd = &cobra.Command{
	Use:   "rm TITLE",
	Short: "Delete an album (the photos stay)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *album.Store) error {
			return s.Delete(cmd.Context(), args[0])
		})
	},
}

var albumRecoverCmd = &cobra.Command{
	Use:   "recover TITLE DIR",
	Short: "Find the missing photos of an album below DIR",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		return withStore(func(s *album.Store) error {
			a, err := s.Load(ctx, args[0])
			if err != nil {
				return err
			}

			var rec *album.Recovery
			err = withProgress(ctx, func(ctx context.Context, emit progress.Func) error {
				var err error
				rec, err = album.Recover(ctx, a, args[1], album.RecoverOptions{Progress: emit})
				return err
			})
			if err != nil {
				return err
			}
			if rec.Cancelled {
				klog.Warningf("recovery cancelled; album %q left unchanged", a.Title)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, r := range rec.Relocated {
				fmt.Fprintf(out, "%s\tfound at\t%s\n", r.From, r.To)
			}
			for _, u := range rec.Unresolved {
				fmt.Fprintf(out, "%s\tnot found\n", u)
			}
			if len(rec.Relocated) == 0 {
				return nil
			}
			// A fresh context: the album is saved even if a signal arrives now.
			return s.Save(context.WithoutCancel(ctx), a)
		})
	},
}

func init() {
	albumCreateCmd.Flags().StringVar(&description, "description", "", "album description")
	albumCmd.AddCommand(albumCreateCmd, albumAddCmd, albumListCmd, albumShowCmd, albumRmCmd, albumRecoverCmd)
	rootCmd.AddCommand(albumCmd)
}

func withStore(fn func(*album.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
