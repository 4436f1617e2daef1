package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	syncpkg "github.com/trehansiddharth/bitbox-client/internal/client/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Reconcile synchronized files with the server",
	Long: `Compares every synchronized file under the given path (default the
current directory) with its remote copy and pulls remote changes. A
file with local edits is only overwritten after you confirm; use the
update command to push local changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
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

		engine := syncpkg.NewEngine(app.table, app.vault, app.log.Log, func(path string) bool {
			return confirm(fmt.Sprintf("%s has local edits; overwrite them with the server copy?", color.YellowString(path)))
		})

		info, err := os.Stat(root)
		if err != nil {
			return failure(err)
		}
		if !info.IsDir() {
			outcome, err := engine.SyncFile(ctx, root, app.auth)
			if err != nil {
				return failure(err)
			}
			reportOutcome(root, outcome)
			return nil
		}

		modified, err := engine.SyncDir(ctx, root, app.auth)
		success("%d file(s) synchronized", modified)
		if err != nil {
			return failure(err)
		}
		return nil
	},
}

func reportOutcome(path string, outcome syncpkg.Outcome) {
	switch outcome {
	case syncpkg.Pulled:
		success("pulled server changes into %s", path)
	case syncpkg.Detached:
		success("remote file is gone; %s is no longer synchronized", path)
	case syncpkg.Skipped:
		fmt.Println(color.YellowString("! ") + path + " left untouched")
	default:
		success("%s is already up to date", path)
	}
}
