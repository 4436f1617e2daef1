package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/account"
	"github.com/trehansiddharth/bitbox-client/internal/otc"
)

const otcAttempts = 3

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Recover an existing account onto this machine",
	Long: `Fetches your escrowed key from the server and unlocks it with the
one-time code you generated with "bitbox otc" on another machine.`,
	Args: cobra.ExactArgs(1),
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

		ctx := cmd.Context()
		passwordPrompt := func() (string, error) { return promptPassword("Password: ") }

		for attempt := 1; attempt <= otcAttempts; attempt++ {
			phrase, err := promptLine("One-time code words: ")
			if err != nil {
				return failure(err)
			}
			code, err := otc.Parse(phrase)
			if err != nil {
				fmt.Println(color.RedString("✗") + " that is not a valid code phrase")
				continue
			}

			keyInfo, priv, err := account.Recover(ctx, app.client, username, code, passwordPrompt)
			if errors.Is(err, bberrors.ErrInvalidOTC) {
				fmt.Println(color.RedString("✗") + " wrong one-time code")
				continue
			}
			if errors.Is(err, bberrors.ErrRecoveryNotReady) {
				return failure(fmt.Errorf("no recovery key has been backed up for %s", username))
			}
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
			success("account %s recovered on this machine", color.YellowString(username))
			return nil
		}
		return failure(fmt.Errorf("too many failed attempts"))
	},
}
