package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/session"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/usecase"
)

func replCredential(ctx context.Context, gateway *session.Gateway, args []string, reader *bufio.Reader) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, "usage: credential create|show|update|delete|list ...")
		return
	}
	switch args[0] {
	case "create":
		in, err := readCredentialFields(reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		c, err := gateway.CreateCredential(ctx, in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, c.ID)
	case "show":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: credential show <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		dc, err := gateway.GetCredential(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		if err := gateway.RecordCredentialCopied(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		printCredential(dc)
	case "update":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: credential update <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		in, err := readCredentialUpdateFields(reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		c, err := gateway.UpdateCredential(ctx, id, in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintf(os.Stdout, "updated, now at version %d\n", c.Version)
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: credential delete <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		if err := gateway.DeleteCredential(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, "deleted")
	case "list":
		credentials, err := gateway.ListCredentials(ctx, parseREPLFilter(args[1:]))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		for _, c := range credentials {
			fmt.Fprintf(os.Stdout, "%s  %-30s  v%d\n", c.ID, c.Title, c.Version)
		}
	default:
		fmt.Fprintln(os.Stdout, "usage: credential create|show|update|delete|list ...")
	}
}

// readCredentialFields prompts for every plaintext field of a credential
// using the REPL's own line reader, so the prompt sequence never competes
// with the REPL loop for buffered stdin bytes.
func readCredentialFields(reader *bufio.Reader) (usecase.CredentialInput, error) {
	var in usecase.CredentialInput
	var err error
	if in.Title, err = readLineFrom(reader, "Title: "); err != nil {
		return in, err
	}
	if in.Username, err = readLineFrom(reader, "Username (blank to skip): "); err != nil {
		return in, err
	}
	if in.Password, err = readLineFrom(reader, "Password (blank to skip): "); err != nil {
		return in, err
	}
	if in.URL, err = readLineFrom(reader, "URL (blank to skip): "); err != nil {
		return in, err
	}
	in.URLHint = usecase.HintFromURL(in.URL)
	if in.Notes, err = readLineFrom(reader, "Notes (blank to skip): "); err != nil {
		return in, err
	}
	if in.TOTPSeed, err = readLineFrom(reader, "TOTP seed, base32 (blank to skip): "); err != nil {
		return in, err
	}
	tagsLine, err := readLineFrom(reader, "Tags, comma-separated (blank to skip): ")
	if err != nil {
		return in, err
	}
	in.Tags = splitTags(tagsLine)
	return in, nil
}

// readCredentialUpdateFields prompts for an update's fields: blank answers
// keep the stored values, "-" clears a field. The tag prompt follows the
// same contract (blank keeps the stored tag set, "-" empties it).
func readCredentialUpdateFields(reader *bufio.Reader) (usecase.CredentialInput, error) {
	var in usecase.CredentialInput
	var err error
	if in.Title, err = readLineFrom(reader, "Title (blank to keep): "); err != nil {
		return in, err
	}
	if in.Username, in.ClearUsername, err = readUpdateLineFrom(reader, "Username"); err != nil {
		return in, err
	}
	if in.Password, in.ClearPassword, err = readUpdateLineFrom(reader, "Password"); err != nil {
		return in, err
	}
	if in.URL, in.ClearURL, err = readUpdateLineFrom(reader, "URL"); err != nil {
		return in, err
	}
	in.URLHint = usecase.HintFromURL(in.URL)
	if in.Notes, in.ClearNotes, err = readUpdateLineFrom(reader, "Notes"); err != nil {
		return in, err
	}
	if in.TOTPSeed, in.ClearTOTP, err = readUpdateLineFrom(reader, "TOTP seed, base32"); err != nil {
		return in, err
	}
	tagsLine, err := readLineFrom(reader, "Tags, comma-separated (blank to keep, '-' to clear): ")
	if err != nil {
		return in, err
	}
	switch tagsLine {
	case "":
		// nil keeps the stored tag set
	case "-":
		in.Tags = []string{}
	default:
		in.Tags = splitTags(tagsLine)
	}
	return in, nil
}

func parseREPLFilter(args []string) domain.CredentialFilter {
	var filter domain.CredentialFilter
	for i := 0; i+1 < len(args); i += 2 {
		switch args[i] {
		case "project":
			if id, err := uuid.Parse(args[i+1]); err == nil {
				filter.ProjectID = &id
			}
		case "tag":
			filter.Tag = args[i+1]
		case "query":
			filter.Query = args[i+1]
		}
	}
	return filter
}

