package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharefastly/sharefastly.github.io/internal/auth"
)

func newHashPasswordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "hash-password",
		Short:       "Print a bcrypt hash for DELETE_PASSWORD_HASH",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			password, err := a.readPassword("Enter password: ")
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, hash)

			return nil
		},
	}
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(a.out, Version)
			return nil
		},
	}
}
