package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// statsCommand renders the Prometheus registry in text exposition format.
// There is no HTTP server to scrape it from, so "vaultcli stats" is the only
// way to see the counters BusinessMetrics has been recording.
func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print operation counters and durations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStats(ctx)
		},
	}
}

func runStats(ctx context.Context) error {
	container := newContainer()
	logger := container.Logger()
	defer closeContainer(container, logger)

	// Touch VaultUseCase so the decorator's meters are registered even if
	// this process has not performed any vault operation yet.
	if _, err := container.VaultUseCase(); err != nil {
		return err
	}

	provider, err := container.MetricsProvider()
	if err != nil {
		return err
	}

	snapshot, err := provider.Snapshot()
	if err != nil {
		return fmt.Errorf("render metrics: %w", err)
	}

	fmt.Fprint(os.Stdout, snapshot)
	return nil
}
