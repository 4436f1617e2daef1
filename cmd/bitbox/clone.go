package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/client/vault"
	"github.com/trehansiddharth/bitbox-client/internal/crypto"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <remote> [path]",
	Short: "Clone a remote file and keep it synchronized",
	Long: `Downloads a remote file, or "@owner/name" for a file someone shared
with you, and records it for synchronization. If another synchronized
copy with the same content already exists locally, the file is
duplicated from it instead of downloaded again.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		_, name := vault.ParseRemotePath(ref)
		path := filepath.Base(name)
		if len(args) == 2 {
			path = args[1]
		}
		if _, err := os.Stat(path); err == nil {
			return failure(fmt.Errorf("a local file at %s already exists", path))
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

		info, err := app.vault.Resolve(ctx, ref, app.auth)
		if err != nil {
			return failure(err)
		}

		// An up-to-date local copy means the content is already known;
		// duplicate it instead of downloading.
		records, err := app.table.LookupByRemote(info.FileID)
		if err != nil {
			return failure(err)
		}
		for _, rec := range records {
			if rec.LastHash == info.Hash {
				if _, err := app.table.Copy(rec.SyncID, path); err != nil {
					return failure(err)
				}
				success("cloned %s to %s from a local copy", color.YellowString(ref), path)
				return nil
			}
		}

		content, err := app.vault.Download(ctx, info.FileID, app.auth)
		if err != nil {
			return failure(err)
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return failure(err)
		}
		if _, err := app.table.Create(path, info.FileID, crypto.HashContent(content)); err != nil {
			return failure(err)
		}
		success("cloned %s to %s", color.YellowString(ref), path)
		return nil
	},
}
