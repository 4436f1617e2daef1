package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/client/vault"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
)

var downloadSync bool

func init() {
	downloadCmd.Flags().BoolVar(&downloadSync, "sync", false, "keep the local file synchronized with the remote copy")
}

var downloadCmd = &cobra.Command{
	Use:   "download <remote> [path]",
	Short: "Fetch and decrypt a file from the server",
	Long: `Fetches a remote file by name, or by "@owner/name" for a file
someone shared with you, and writes the decrypted content locally.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		_, name := vault.ParseRemotePath(ref)
		path := name
		if len(args) == 2 {
			path = args[1]
		}

		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		ctx := cmd.Context()
		if err := app.login(ctx); err != nil {
			return failure(err)
		}

		info, content, err := app.vault.DownloadByRef(ctx, ref, app.auth)
		if err != nil {
			return failure(err)
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return failure(err)
		}
		if downloadSync {
			if _, err := app.table.Create(path, info.FileID, crypto.HashContent(content)); err != nil {
				return failure(err)
			}
		}
		success("downloaded %s to %s", color.YellowString(ref), path)
		return nil
	},
}
