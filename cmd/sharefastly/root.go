package main

import (
	"github.com/spf13/cobra"
)

// offline marks commands that run without config or network.
const offline = "offline"

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sharefastly",
		Short: "Share files and notes through a GitHub repository",
		Long: `sharefastly stores files and notes in a single directory of a GitHub
repository. Folders are virtual: each stored name carries its upload time,
its folder and its display name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validFormat(a.format); err != nil {
				return err
			}

			if !needsApp(cmd) {
				return nil
			}

			return a.open()
		},
	}

	root.PersistentFlags().StringVarP(&a.format, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		newListCommand(a),
		newFoldersCommand(a),
		newCatCommand(a),
		newUseCommand(a),
		newUploadCommand(a),
		newNoteCommand(a),
		newMkdirCommand(a),
		newRmCommand(a),
		newUploadsCommand(a),
		newPullCommand(a),
		newWatchCommand(a),
		newServeCommand(a),
		newHashPasswordCommand(a),
		newVersionCommand(a),
	)

	return root
}

// needsApp reports whether cmd reads config and the share. Help and
// shell completion never do.
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}

	if cmd.Annotations[offline] != "" {
		return false
	}

	return !cmd.HasParent() || cmd.Parent().Name() != "completion"
}
