package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	"github.com/allisson/vaultcli/internal/session"
)

func projectCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "project",
			Usage: "manage projects that group credentials",
			Commands: []*cli.Command{
				{
					Name:  "create",
					Usage: "create a new project",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name", Required: true, Usage: "project name"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
							p, err := gw.CreateProject(ctx, cmd.String("name"))
							if err != nil {
								return err
							}
							fmt.Fprintf(os.Stdout, "%s  %s\n", p.ID, p.Name)
							return nil
						})
					},
				},
				{
					Name:  "list",
					Usage: "list projects",
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
							projects, err := gw.ListProjects(ctx)
							if err != nil {
								return err
							}
							for _, p := range projects {
								fmt.Fprintf(os.Stdout, "%s  %s\n", p.ID, p.Name)
							}
							return nil
						})
					},
				},
				{
					Name:  "delete",
					Usage: "delete a project",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "id", Required: true, Usage: "project id"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						id, err := uuid.Parse(cmd.String("id"))
						if err != nil {
							return fmt.Errorf("invalid id: %w", err)
						}
						return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
							return gw.DeleteProject(ctx, id)
						})
					},
				},
			},
		},
	}
}

// withUnlockedGateway opens the container, prompts for the passphrase,
// unlocks the session, runs fn, and locks and shuts down afterward. Every
// one-shot (non-REPL) command shares this lifecycle so a scripted caller
// never leaves a live DEK behind.
func withUnlockedGateway(ctx context.Context, fn func(ctx context.Context, gw *session.Gateway) error) error {
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

	return fn(ctx, gateway)
}
