package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vaultcli/internal/audit"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

func auditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "audit",
			Usage: "audit log operations",
			Commands: []*cli.Command{
				{
					Name:  "verify",
					Usage: "recompute the audit hash chain and report whether it is intact",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "format",
							Value: "text",
							Usage: "output format: text or json",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runAuditVerify(ctx, cmd.String("format"))
					},
				},
			},
		},
	}
}

func runAuditVerify(ctx context.Context, format string) error {
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

	report, err := gateway.VerifyAuditChain(ctx)
	if err != nil {
		return fmt.Errorf("verify audit chain: %w", err)
	}
	if tainted {
		report.Tainted = true
		report.Verified = false
	}

	if format == "json" {
		return printAuditReportJSON(report)
	}
	printAuditReportText(report)

	if !report.Verified {
		return errAuditTamperedDeclined
	}
	return nil
}

func printAuditReportText(report audit.Report) {
	fmt.Fprintf(os.Stdout, "Total entries: %d\n", report.TotalEntries)
	if report.Verified {
		fmt.Fprintln(os.Stdout, "Status: PASSED")
		return
	}
	fmt.Fprintln(os.Stdout, "Status: TAMPERED")
	if report.FirstBadSeq != nil {
		fmt.Fprintf(os.Stdout, "First bad sequence: %d\n", *report.FirstBadSeq)
	}
}

func printAuditReportJSON(report audit.Report) error {
	result := map[string]any{
		"total_entries": report.TotalEntries,
		"verified":      report.Verified,
		"tainted":       report.Tainted,
	}
	if report.FirstBadSeq != nil {
		result["first_bad_seq"] = *report.FirstBadSeq
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
