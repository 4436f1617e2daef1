package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <remote>",
	Short: "Remove a file from the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		ctx := cmd.Context()
		if err := app.login(ctx); err != nil {
			return failure(err)
		}

		info, err := app.vault.Resolve(ctx, ref, app.auth)
		if err != nil {
			return failure(err)
		}
		if err := app.vault.Delete(ctx, ref, app.auth); err != nil {
			return failure(err)
		}
		// Local sync records for the file are now stale.
		if err := app.table.DeleteByRemote(info.FileID); err != nil {
			return failure(err)
		}
		success("deleted %s", color.YellowString(ref))
		return nil
	},
}
