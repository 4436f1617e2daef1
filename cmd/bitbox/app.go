package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
	"github.com/trehansiddharth/bitbox-client/internal/client/api"
	"github.com/trehansiddharth/bitbox-client/internal/client/profile"
	syncpkg "github.com/trehansiddharth/bitbox-client/internal/client/sync"
	"github.com/trehansiddharth/bitbox-client/internal/client/vault"
	"github.com/trehansiddharth/bitbox-client/internal/logger"
)

// app bundles everything one command invocation needs: the profile on
// disk, the API client, and, after login, the live auth.
type app struct {
	client *api.Client
	store  *profile.Store
	vault  *vault.Vault
	table  *syncpkg.Table
	log    *logger.Logger
	auth   *api.Auth
}

func newApp() (*app, error) {
	store, err := profile.Open(profile.Dir())
	if err != nil {
		return nil, err
	}
	client := api.New(serverURL, nil)
	return &app{
		client: client,
		store:  store,
		vault:  vault.New(client),
		table:  syncpkg.NewTable(store),
		log:    logger.New(),
	}, nil
}

// login builds the auth for this invocation from the stored key file
// and session, prompting for the password only if the private key is
// actually needed.
func (a *app) login(ctx context.Context) error {
	keyInfo, err := a.store.KeyInfo()
	if err != nil {
		return err
	}
	if keyInfo == nil {
		return fmt.Errorf("no account on this machine; run %s or %s first",
			color.YellowString("bitbox setup"), color.YellowString("bitbox login"))
	}
	session, err := a.store.Session()
	if err != nil {
		return err
	}
	source := api.KeySource{
		Kind:   api.PromptOnDemand,
		Prompt: func() (string, error) { return promptPassword("Password: ") },
	}
	auth, err := a.client.Login(ctx, *keyInfo, source, session, a.store.SetSession)
	if err != nil {
		return err
	}
	a.auth = auth
	return nil
}

func (a *app) close() {
	if a.auth != nil {
		a.auth.Zero()
	}
}

func promptPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func confirm(msg string) bool {
	answer, err := promptLine(msg + " [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func success(format string, args ...any) {
	fmt.Println(color.GreenString("✓ ") + fmt.Sprintf(format, args...))
}

func failure(err error) error {
	switch {
	case errors.Is(err, bberrors.ErrInvalidVersion):
		return fmt.Errorf("%s this client is too old for the server; please upgrade", color.RedString("✗"))
	case errors.Is(err, bberrors.ErrServerSide):
		return fmt.Errorf("%s the server hit an internal error; try again later", color.RedString("✗"))
	default:
		return fmt.Errorf("%s %w", color.RedString("✗"), err)
	}
}
