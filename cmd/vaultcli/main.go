// Package main provides vaultcli's entry point: a urfave/cli/v3 command tree
// driving the vault core directly, with no HTTP server and no worker
// process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vaultcli/internal/app"
	"github.com/allisson/vaultcli/internal/config"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	internalErrors "github.com/allisson/vaultcli/internal/errors"
)

const version = "1.0.0"

// errAuditTamperedDeclined is returned by the audit verify command, after
// the report is printed, whenever the chain does not verify.
var errAuditTamperedDeclined = errors.New("audit tampering detected, aborted")

func main() {
	cmd := &cli.Command{
		Name:     "vaultcli",
		Usage:    "local, passphrase-protected credential vault",
		Version:  version,
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps the core's error taxonomy onto the process exit codes:
// 0 normal, 1 bad passphrase, 2 storage/corruption/audit-tampered-on-unlock,
// 3 audit tampering declined interactively.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, errAuditTamperedDeclined):
		return 3
	case errors.Is(err, internalErrors.ErrCorrupt),
		errors.Is(err, internalErrors.ErrStorage),
		errors.Is(err, internalErrors.ErrAuditTampered):
		return 2
	case errors.Is(err, cryptoDomain.ErrBadPassphrase):
		return 1
	default:
		return 1
	}
}

func newContainer() *app.Container {
	cfg := config.Load()
	return app.NewContainer(cfg)
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
