package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List your files and the files shared with you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		ctx := cmd.Context()
		if err := app.login(ctx); err != nil {
			return failure(err)
		}

		files, err := app.vault.List(ctx, app.auth)
		if err != nil {
			return failure(err)
		}
		if len(files) == 0 {
			fmt.Println("no files stored")
			return nil
		}
		for _, f := range files {
			name := f.Name
			if f.Owner != app.auth.KeyInfo.Username {
				name = "@" + f.Owner + "/" + f.Name
			}
			line := fmt.Sprintf("%s  %8d bytes  %s",
				color.YellowString("%-30s", name),
				f.Bytes,
				time.UnixMilli(f.LastModified).Format("2006-01-02 15:04"))
			if len(f.SharedWith) > 0 {
				line += "  shared with " + strings.Join(f.SharedWith, ", ")
			}
			fmt.Println(line)
		}
		return nil
	},
}
