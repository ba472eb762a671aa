package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sharefastly/sharefastly.github.io/internal/dropwatch"
	"github.com/sharefastly/sharefastly.github.io/internal/mirror"
)

type pullReport struct {
	Dest    string   `json:"dest" yaml:"dest"`
	Written int      `json:"written" yaml:"written"`
	Skipped int      `json:"skipped" yaml:"skipped"`
	Failed  int      `json:"failed" yaml:"failed"`
	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newPullCommand(a *app) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "pull DEST",
		Short: "Copy the share into a local directory, one subdirectory per folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := a.folderArg(folder)
			if err != nil {
				return err
			}

			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			sum, err := mirror.Pull(cmd.Context(), a.ctl, a.session.Snapshot(), mirror.Options{
				Dest:        args[0],
				FolderID:    folderID,
				Concurrency: a.cfg.UploadConcurrency,
			}, a.logger)
			if err != nil {
				return err
			}

			report := pullReport{Dest: args[0], Written: sum.Written, Skipped: sum.Skipped, Failed: sum.Failed}
			for _, e := range sum.Errors {
				report.Errors = append(report.Errors, e.Error())
			}

			if err := a.render(report, func(w io.Writer) {
				fmt.Fprintf(w, "%s: written %d, up to date %d, failed %d\n",
					report.Dest, report.Written, report.Skipped, report.Failed)
			}); err != nil {
				return err
			}

			if sum.Failed > 0 {
				return fmt.Errorf("%d downloads failed: %w", sum.Failed, errors.Join(sum.Errors...))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "only this folder, written directly into DEST")

	return cmd
}

// newDropWatcher builds a watcher for dir feeding the controller.
func (a *app) newDropWatcher(dir, folder string, after func(context.Context)) (*dropwatch.Watcher, error) {
	folderID, err := a.folderArg(folder)
	if err != nil {
		return nil, err
	}

	return dropwatch.New(dropwatch.Config{
		Dir:         dir,
		FolderID:    folderID,
		Uploader:    a.ctl,
		Ledger:      a.state,
		AfterUpload: after,
	}, a.logger)
}

func newWatchCommand(a *app) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Upload files as they appear in DIR",
		Long: `Watch DIR and upload every new or changed file once it has settled.
Files already uploaded are remembered in the state database. Runs until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newDropWatcher(args[0], folder, nil)
			if err != nil {
				return err
			}

			a.logger.Info("watching", slog.String("dir", w.Dir()))

			err = w.Watch(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "folder label or id (default: the folder chosen with use)")

	return cmd
}
