package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/client/account"
)

var setupCmd = &cobra.Command{
	Use:   "setup <username>",
	Short: "Create a new account and set up this machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		app, err := newApp()
		if err != nil {
			return failure(err)
		}
		defer app.close()

		existing, err := app.store.KeyInfo()
		if err != nil {
			return failure(err)
		}
		if existing != nil {
			return failure(fmt.Errorf("this machine is already set up for %s", color.YellowString(existing.Username)))
		}

		password, err := promptPassword("Choose a password (empty for none): ")
		if err != nil {
			return failure(err)
		}
		if password != "" {
			again, err := promptPassword("Repeat password: ")
			if err != nil {
				return failure(err)
			}
			if again != password {
				return failure(fmt.Errorf("passwords do not match"))
			}
		}

		ctx := cmd.Context()
		keyInfo, priv, err := account.Register(ctx, app.client, username, password)
		if err != nil {
			return failure(err)
		}
		if err := app.store.SetKeyInfo(*keyInfo); err != nil {
			return failure(err)
		}

		session, err := app.client.EstablishSession(ctx, username, priv)
		if err != nil {
			return failure(err)
		}
		if err := app.store.SetSession(session); err != nil {
			return failure(err)
		}

		success("account %s created", color.YellowString(username))
		fmt.Println("Run " + color.YellowString("bitbox otc") + " to back up your key for recovery.")
		return nil
	},
}
