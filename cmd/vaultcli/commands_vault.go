package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

func vaultCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "create a new vault at the configured database path",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runInit(ctx)
			},
		},
		{
			Name:  "unlock",
			Usage: "unlock the vault and start an interactive session",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runUnlock(ctx)
			},
		},
		{
			Name:  "passphrase",
			Usage: "manage the vault passphrase",
			Commands: []*cli.Command{
				{
					Name:  "change",
					Usage: "re-wrap the vault's data encryption key under a new passphrase",
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runPassphraseChange(ctx)
					},
				},
			},
		},
	}
}

func runInit(ctx context.Context) error {
	container := newContainer()
	logger := container.Logger()
	defer closeContainer(container, logger)

	gateway, err := container.Gateway()
	if err != nil {
		return err
	}

	passphrase, err := readPassphraseConfirmed()
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(passphrase)

	if err := gateway.Init(ctx, passphrase); err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	fmt.Fprintln(os.Stdout, "vault created")
	return nil
}

func runPassphraseChange(ctx context.Context) error {
	container := newContainer()
	logger := container.Logger()
	defer closeContainer(container, logger)

	gateway, err := container.Gateway()
	if err != nil {
		return err
	}

	oldPassphrase, err := readPassphrase("Current passphrase: ")
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(oldPassphrase)

	newPassphrase, err := readPassphraseConfirmed()
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(newPassphrase)

	if err := gateway.ChangePassphrase(ctx, oldPassphrase, newPassphrase); err != nil {
		return fmt.Errorf("change passphrase: %w", err)
	}

	fmt.Fprintln(os.Stdout, "passphrase changed")
	return nil
}

func runUnlock(ctx context.Context) error {
	container := newContainer()
	logger := container.Logger()
	defer closeContainer(container, logger)

	gateway, err := container.Gateway()
	if err != nil {
		return err
	}

	passphrase, err := readPassphrase("Passphrase: ")
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(passphrase)

	tainted, err := gateway.Unlock(ctx, passphrase)
	if err != nil {
		return fmt.Errorf("unlock vault: %w", err)
	}
	defer func() { _ = gateway.Lock(context.Background()) }()

	if tainted {
		fmt.Fprintln(os.Stderr, "WARNING: audit chain failed verification, this vault may have been tampered with")
	}

	return runREPL(ctx, gateway)
}
