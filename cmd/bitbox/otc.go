package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/client/account"
	"github.com/trehansiddharth/bitbox-client/internal/otc"
)

var otcCmd = &cobra.Command{
	Use:   "otc",
	Short: "Back up your key and print a one-time recovery code",
	Long: `Escrows your (still encrypted) private key on the server, locked
behind a fresh one-time code. Enter the code's words with
"bitbox login" on another machine to recover the account there.`,
	Args: cobra.NoArgs,
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

		code, err := app.client.GenerateOTC(ctx, app.auth)
		if err != nil {
			return failure(err)
		}
		if err := account.Backup(ctx, app.client, code, app.auth); err != nil {
			return failure(err)
		}
		words, err := otc.Render(code)
		if err != nil {
			return failure(err)
		}

		success("recovery key backed up")
		cmd.Println("Your one-time code is:")
		cmd.Println("    " + color.YellowString(words))
		cmd.Println("It can be used once, by anyone, so keep it private.")
		return nil
	},
}
