package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share <remote> <username>...",
	Short: "Give other users read access to one of your files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		recipients := args[1:]

		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		ctx := cmd.Context()
		if err := app.login(ctx); err != nil {
			return failure(err)
		}

		if err := app.vault.Share(ctx, ref, recipients, app.auth); err != nil {
			return failure(err)
		}
		success("shared %s with %s", color.YellowString(ref), strings.Join(recipients, ", "))
		return nil
	},
}
