package main

import (
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/crypto"
)

var (
	uploadOverwrite bool
	uploadSync      bool
)

func init() {
	uploadCmd.Flags().BoolVarP(&uploadOverwrite, "overwrite", "f", false, "replace a remote file with the same name")
	uploadCmd.Flags().BoolVar(&uploadSync, "sync", false, "keep the local file synchronized with the remote copy")
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path> [remote-name]",
	Short: "Encrypt a file and store it on the server",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := filepath.Base(path)
		if len(args) == 2 {
			name = args[1]
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return failure(err)
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

		fileID, err := app.vault.Upload(ctx, name, content, uploadOverwrite, app.auth)
		if err != nil {
			return failure(err)
		}
		if uploadSync {
			if _, err := app.table.Create(path, fileID, crypto.HashContent(content)); err != nil {
				return failure(err)
			}
		}
		success("uploaded %s as %s", path, color.YellowString(name))
		return nil
	},
}
