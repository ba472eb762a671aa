package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/models"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
	"github.com/sharefastly/sharefastly.github.io/internal/syncer"
)

type uploadRow struct {
	File  string `json:"file" yaml:"file"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type deleteReport struct {
	Deleted int      `json:"deleted" yaml:"deleted"`
	Failed  int      `json:"failed" yaml:"failed"`
	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newUploadCommand(a *app) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files, at most UPLOAD_CONCURRENCY at a time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := a.folderArg(folder)
			if err != nil {
				return err
			}

			items := make([]syncer.Item, 0, len(args))

			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				items = append(items, syncer.Item{
					FileName: filepath.Base(path),
					Content:  content,
					FolderID: folderID,
				})
			}

			results := a.ctl.UploadBatch(cmd.Context(), items)

			rows := make([]uploadRow, len(results))

			var errs []error

			for i, res := range results {
				rows[i] = uploadRow{File: args[i], Name: res.Name}

				if res.Err != nil {
					rows[i].Error = res.Err.Error()
					errs = append(errs, res.Err)
				}
			}

			if err := a.render(rows, func(w io.Writer) {
				fmt.Fprintln(w, "FILE\tSTORED AS\tERROR")

				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.File, r.Name, r.Error)
				}
			}); err != nil {
				return err
			}

			if len(errs) > 0 {
				return fmt.Errorf("%d of %d uploads failed: %w", len(errs), len(results), errors.Join(errs...))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "folder label or id (default: the folder chosen with use)")

	return cmd
}

func newNoteCommand(a *app) *cobra.Command {
	var title, folder string

	cmd := &cobra.Command{
		Use:   "note (CONTENT | -)",
		Short: "Save a text note; - reads the note from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := a.folderArg(folder)
			if err != nil {
				return err
			}

			content := args[0]
			if content == "-" {
				data, err := io.ReadAll(a.in)
				if err != nil {
					return fmt.Errorf("reading note: %w", err)
				}

				content = string(data)
			}

			entry, err := a.ctl.CreateNote(cmd.Context(), title, content, folderID)
			if err != nil {
				return err
			}

			return a.render(uploadRow{File: "-", Name: entry.Name}, func(w io.Writer) {
				fmt.Fprintln(w, entry.Name)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "note title")
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "folder label or id (default: the folder chosen with use)")

	return cmd
}

func newMkdirCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir NAME",
		Short: "Create an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			entry, err := a.ctl.CreateFolder(cmd.Context(), args[0], a.session.Snapshot())
			if err != nil {
				return err
			}

			row := folderRow{ID: entry.Name, Label: naming.FolderLabel(entry.Name)}

			return a.render(row, func(w io.Writer) {
				fmt.Fprintln(w, row.ID)
			})
		},
	}
}

// folderMembers returns every stored name in a named folder, its marker
// last.
func folderMembers(snap *catalog.Snapshot, id string) []string {
	var names []string
	for _, e := range catalog.FilterForFolder(snap, id) {
		names = append(names, e.Raw.Name)
	}

	if f, ok := snap.ByFolder[id]; ok && f.Marker != nil {
		names = append(names, f.Marker.Raw.Name)
	}

	return names
}

func newRmCommand(a *app) *cobra.Command {
	var allIn, password string

	cmd := &cobra.Command{
		Use:   "rm [NAME...]",
		Short: "Delete stored files; requires the delete password",
		Long: `Delete stored files by name. With --all-in, delete every file of a folder
and the folder itself. The password is read from --password or prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := auth.NewDeleteGuard(a.cfg.DeletePasswordHash)
			if err != nil {
				return err
			}

			if !guard.Enabled() {
				return fmt.Errorf("%w: deletes are disabled, set DELETE_PASSWORD_HASH", shareerr.ErrUnauthorized)
			}

			names := append([]string(nil), args...)

			if allIn != "" {
				id := naming.ResolveFolder(allIn)
				if id == "" || id == naming.AllFolder {
					return fmt.Errorf("%w: --all-in needs a named folder", shareerr.ErrInvalidInput)
				}

				if err := a.refresh(cmd.Context()); err != nil {
					return err
				}

				snap := a.session.Snapshot()
				if !snap.HasFolder(id) {
					return fmt.Errorf("%w: folder %s", shareerr.ErrNotFound, id)
				}

				names = append(names, folderMembers(snap, id)...)
			}

			if len(names) == 0 {
				return fmt.Errorf("%w: nothing to delete", shareerr.ErrInvalidInput)
			}

			if password == "" {
				password, err = a.readPassword("Delete password: ")
				if err != nil {
					return err
				}
			}

			if err := guard.Check(password); err != nil {
				return err
			}

			sum := a.ctl.DeleteAll(cmd.Context(), names)

			report := deleteReport{Deleted: sum.Deleted, Failed: sum.Failed}
			for _, e := range sum.Errors {
				report.Errors = append(report.Errors, e.Error())
			}

			if err := a.render(report, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %d, failed %d\n", report.Deleted, report.Failed)

				for _, e := range report.Errors {
					fmt.Fprintf(w, "  %s\n", e)
				}
			}); err != nil {
				return err
			}

			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d deletes failed: %w", sum.Failed, len(names), errors.Join(sum.Errors...))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&allIn, "all-in", "", "delete every file in this folder and the folder")
	cmd.Flags().StringVar(&password, "password", "", "delete password (prompted for when omitted)")

	return cmd
}

func newUploadsCommand(a *app) *cobra.Command {
	var (
		interrupted bool
		prune       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show the local upload journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prune > 0 {
				n, err := a.state.PruneUploads(a.now().Add(-prune))
				if err != nil {
					return fmt.Errorf("pruning uploads: %w", err)
				}

				fmt.Fprintf(a.errOut, "pruned %d records\n", n)
			}

			var (
				records []models.UploadRecord
				err     error
			)

			if interrupted {
				records, err = a.state.InterruptedUploads()
			} else {
				records, err = a.state.Uploads()
			}

			if err != nil {
				return fmt.Errorf("reading uploads: %w", err)
			}

			return a.render(records, func(w io.Writer) {
				fmt.Fprintln(w, "UPDATED\tSTATE\tATTEMPTS\tSIZE\tNAME\tERROR")

				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
						r.UpdatedAt.Local().Format(time.DateTime), r.State, r.Attempts,
						catalog.FormatSize(r.Size), r.Name, r.Error)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&interrupted, "interrupted", false, "only uploads that never finished")
	cmd.Flags().DurationVar(&prune, "prune", 0, "first remove finished records older than this")

	return cmd
}
