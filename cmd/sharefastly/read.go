package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharefastly/sharefastly.github.io/internal/catalog"
	shareerr "github.com/sharefastly/sharefastly.github.io/internal/errors"
	"github.com/sharefastly/sharefastly.github.io/internal/naming"
)

type fileList struct {
	Folder    string             `json:"folder" yaml:"folder"`
	Degraded  bool               `json:"degraded" yaml:"degraded"`
	FetchedAt time.Time          `json:"fetched_at" yaml:"fetched_at"`
	Files     []catalog.FileInfo `json:"files" yaml:"files"`
}

type folderRow struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Files int    `json:"files" yaml:"files"`
}

// snapshot returns a fresh snapshot, or with cached set, the last good
// listing from the state database without touching the network.
func (a *app) snapshot(ctx context.Context, cached bool) (*catalog.Snapshot, error) {
	if !cached {
		return a.session.Refresh(ctx), nil
	}

	cl, err := a.state.Listing(a.cfg.Source())
	if err != nil {
		return nil, fmt.Errorf("reading cached listing: %w", err)
	}

	if cl == nil {
		return nil, fmt.Errorf("%w: no cached listing for %s", shareerr.ErrNotFound, a.cfg.Source())
	}

	snap := catalog.Reconcile(cl.Entries, a.cfg.Codec())
	snap.FetchedAt = cl.FetchedAt

	return snap, nil
}

func newListCommand(a *app) *cobra.Command {
	var (
		folder string
		search string
		cached bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List files, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			folderID, err := a.folderArg(folder)
			if err != nil {
				return err
			}

			snap, err := a.snapshot(cmd.Context(), cached)
			if err != nil {
				return err
			}

			if snap.Degraded {
				fmt.Fprintln(a.errOut, "warning: listing failed, showing no files")
			}

			view := catalog.View{ActiveFolder: folderID, Search: search}
			list := fileList{
				Folder:    view.Folder(),
				Degraded:  snap.Degraded,
				FetchedAt: snap.FetchedAt,
				Files:     catalog.DescribeAll(view.Visible(snap), a.now()),
			}

			return a.render(list, func(w io.Writer) {
				fmt.Fprintln(w, "AGE\tFOLDER\tTYPE\tSIZE\tTITLE\tNAME")

				for _, f := range list.Files {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", f.Age, f.Folder, f.Type, f.SizeLabel, f.Title, f.Name)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "folder label or id (default: the folder chosen with use)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search text")
	cmd.Flags().BoolVar(&cached, "cached", false, "use the last good listing instead of the network")

	return cmd
}

func newFoldersCommand(a *app) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List folders with their file counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context(), cached)
			if err != nil {
				return err
			}

			var rows []folderRow
			for _, f := range snap.Folders() {
				rows = append(rows, folderRow{ID: f.ID, Label: f.Label, Files: f.MemberCount})
			}

			return a.render(rows, func(w io.Writer) {
				fmt.Fprintln(w, "LABEL\tFILES\tID")

				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\t%s\n", r.Label, r.Files, r.ID)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "use the last good listing instead of the network")

	return cmd
}

func newCatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat NAME",
		Short: "Print the content of a stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			entry, ok := a.session.Snapshot().Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", shareerr.ErrNotFound, args[0])
			}

			body, err := a.ctl.ReadContent(cmd.Context(), entry)
			if err != nil {
				return err
			}

			_, err = a.out.Write(body)

			return err
		},
	}
}

func newUseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use [FOLDER]",
		Short: "Show or set the default folder",
		Long: `With no argument, print the default folder. With a folder label or id,
make it the default for list, upload and note. "all" clears the default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				id := a.state.ActiveFolder()
				if id == "" {
					id = naming.AllFolder
				}

				fmt.Fprintln(a.out, id)

				return nil
			}

			id := naming.ResolveFolder(args[0])

			switch id {
			case "":
				return fmt.Errorf("%w: invalid folder %q", shareerr.ErrInvalidInput, args[0])
			case naming.AllFolder:
				return a.state.SetActiveFolder("")
			}

			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}

			if !a.session.Snapshot().HasFolder(id) {
				return fmt.Errorf("%w: folder %s", shareerr.ErrNotFound, id)
			}

			if err := a.state.SetActiveFolder(id); err != nil {
				return err
			}

			fmt.Fprintln(a.out, id)

			return nil
		},
	}
}
