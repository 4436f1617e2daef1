package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/crypto"
)

var updateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Push local changes of a synchronized file to the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		rec, err := app.table.Lookup(path)
		if err != nil {
			return failure(err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return failure(err)
		}

		ctx := cmd.Context()
		if err := app.login(ctx); err != nil {
			return failure(err)
		}

		changed, err := app.vault.Update(ctx, rec.FileID, content, app.auth)
		if err != nil {
			return failure(err)
		}
		rec.LastHash = crypto.HashContent(content)
		if err := app.table.Update(*rec); err != nil {
			return failure(err)
		}
		if changed {
			success("pushed changes of %s", path)
		} else {
			success("%s is already up to date", path)
		}
		return nil
	},
}
