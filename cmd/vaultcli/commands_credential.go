package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pquerna/otp/totp"
	"github.com/urfave/cli/v3"

	"github.com/allisson/vaultcli/internal/session"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/usecase"
)

func credentialCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "credential",
			Usage: "manage stored credentials",
			Commands: []*cli.Command{
				{
					Name:  "create",
					Usage: "create a new credential, prompting for its secret fields",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "project", Usage: "project id"},
						&cli.StringFlag{Name: "tags", Usage: "comma-separated tags"},
						&cli.BoolFlag{Name: "search-by-url", Usage: "index the URL hint for search"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runCredentialCreate(ctx, cmd)
					},
				},
				{
					Name:  "show",
					Usage: "decrypt and print a credential",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "id", Required: true},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runCredentialShow(ctx, cmd)
					},
				},
				{
					Name:  "update",
					Usage: "update a credential's fields under a new version; untouched fields keep their stored values",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "id", Required: true},
						&cli.StringFlag{Name: "title", Usage: "new title (omit to keep current)"},
						&cli.StringFlag{Name: "project", Usage: "project id ('-' to detach)"},
						&cli.StringFlag{Name: "tags", Usage: "comma-separated tags (replaces the tag set; omit to keep current)"},
						&cli.BoolFlag{Name: "search-by-url", Usage: "index the URL hint for search"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runCredentialUpdate(ctx, cmd)
					},
				},
				{
					Name:  "delete",
					Usage: "delete a credential",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "id", Required: true},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						id, err := uuid.Parse(cmd.String("id"))
						if err != nil {
							return fmt.Errorf("invalid id: %w", err)
						}
						return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
							return gw.DeleteCredential(ctx, id)
						})
					},
				},
				{
					Name:  "list",
					Usage: "list credentials by plaintext metadata",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "project", Usage: "filter by project id"},
						&cli.StringFlag{Name: "tag", Usage: "filter by tag"},
						&cli.StringFlag{Name: "query", Usage: "full-text search over title/url/tags"},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return runCredentialList(ctx, cmd)
					},
				},
				{
					Name:  "tag",
					Usage: "manage a credential's tags",
					Commands: []*cli.Command{
						{
							Name:  "add",
							Usage: "add a tag to a credential",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "id", Required: true},
								&cli.StringFlag{Name: "tag", Required: true},
							},
							Action: func(ctx context.Context, cmd *cli.Command) error {
								id, err := uuid.Parse(cmd.String("id"))
								if err != nil {
									return fmt.Errorf("invalid id: %w", err)
								}
								tag := cmd.String("tag")
								return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
									tags, err := gw.ListTags(ctx, id)
									if err != nil {
										return err
									}
									for _, t := range tags {
										if t == tag {
											return nil
										}
									}
									return gw.SetTags(ctx, id, append(tags, tag))
								})
							},
						},
						{
							Name:  "remove",
							Usage: "remove a tag from a credential",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "id", Required: true},
								&cli.StringFlag{Name: "tag", Required: true},
							},
							Action: func(ctx context.Context, cmd *cli.Command) error {
								id, err := uuid.Parse(cmd.String("id"))
								if err != nil {
									return fmt.Errorf("invalid id: %w", err)
								}
								tag := cmd.String("tag")
								return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
									tags, err := gw.ListTags(ctx, id)
									if err != nil {
										return err
									}
									remaining := tags[:0]
									for _, t := range tags {
										if t != tag {
											remaining = append(remaining, t)
										}
									}
									return gw.SetTags(ctx, id, remaining)
								})
							},
						},
						{
							Name:  "set",
							Usage: "replace a credential's tag set",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "id", Required: true},
								&cli.StringFlag{Name: "tags", Required: true, Usage: "comma-separated tags"},
							},
							Action: func(ctx context.Context, cmd *cli.Command) error {
								id, err := uuid.Parse(cmd.String("id"))
								if err != nil {
									return fmt.Errorf("invalid id: %w", err)
								}
								tags := splitTags(cmd.String("tags"))
								return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
									return gw.SetTags(ctx, id, tags)
								})
							},
						},
						{
							Name:  "list",
							Usage: "list a credential's tags",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "id", Required: true},
							},
							Action: func(ctx context.Context, cmd *cli.Command) error {
								id, err := uuid.Parse(cmd.String("id"))
								if err != nil {
									return fmt.Errorf("invalid id: %w", err)
								}
								return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
									tags, err := gw.ListTags(ctx, id)
									if err != nil {
										return err
									}
									fmt.Fprintln(os.Stdout, strings.Join(tags, ", "))
									return nil
								})
							},
						},
					},
				},
			},
		},
	}
}

func credentialInputFromPrompts(cmd *cli.Command) (usecase.CredentialInput, error) {
	in := usecase.CredentialInput{
		Title:       cmd.String("title"),
		Tags:        splitTags(cmd.String("tags")),
		SearchByURL: cmd.Bool("search-by-url"),
	}
	if raw := cmd.String("project"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, fmt.Errorf("invalid project id: %w", err)
		}
		in.ProjectID = &id
	}

	reader := bufio.NewReader(os.Stdin)
	var err error
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
	return in, nil
}

func runCredentialCreate(ctx context.Context, cmd *cli.Command) error {
	in, err := credentialInputFromPrompts(cmd)
	if err != nil {
		return err
	}
	return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
		c, err := gw.CreateCredential(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, c.ID)
		return nil
	})
}

// credentialUpdateInputFromPrompts gathers the fields of an update: flags
// left unset and prompts answered blank keep the stored values, "-" clears.
func credentialUpdateInputFromPrompts(cmd *cli.Command) (usecase.CredentialInput, error) {
	in := usecase.CredentialInput{
		Title:       cmd.String("title"),
		SearchByURL: cmd.Bool("search-by-url"),
	}
	if cmd.IsSet("tags") {
		in.Tags = splitTags(cmd.String("tags"))
	}
	if raw := cmd.String("project"); raw != "" {
		if raw == "-" {
			in.ClearProject = true
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				return in, fmt.Errorf("invalid project id: %w", err)
			}
			in.ProjectID = &id
		}
	}

	reader := bufio.NewReader(os.Stdin)
	var err error
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
	return in, nil
}

func runCredentialUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := uuid.Parse(cmd.String("id"))
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	in, err := credentialUpdateInputFromPrompts(cmd)
	if err != nil {
		return err
	}
	return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
		c, err := gw.UpdateCredential(ctx, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "updated, now at version %d\n", c.Version)
		return nil
	})
}

func runCredentialShow(ctx context.Context, cmd *cli.Command) error {
	id, err := uuid.Parse(cmd.String("id"))
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
		dc, err := gw.GetCredential(ctx, id)
		if err != nil {
			return err
		}
		if err := gw.RecordCredentialCopied(ctx, id); err != nil {
			return err
		}
		printCredential(dc)
		return nil
	})
}

func printCredential(dc domain.DecryptedCredential) {
	fmt.Fprintf(os.Stdout, "Title:    %s\n", dc.Title)
	if dc.Username != "" {
		fmt.Fprintf(os.Stdout, "Username: %s\n", dc.Username)
	}
	if dc.Password != "" {
		fmt.Fprintf(os.Stdout, "Password: %s\n", color.YellowString(dc.Password))
	}
	if dc.URL != "" {
		fmt.Fprintf(os.Stdout, "URL:      %s\n", dc.URL)
	}
	if dc.Notes != "" {
		fmt.Fprintf(os.Stdout, "Notes:    %s\n", dc.Notes)
	}
	if dc.TOTPSeed != "" {
		code, err := totp.GenerateCode(dc.TOTPSeed, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stdout, "TOTP:     %s\n", color.RedString("invalid seed: %v", err))
		} else {
			fmt.Fprintf(os.Stdout, "TOTP:     %s\n", color.GreenString(code))
		}
	}
	if len(dc.Tags) > 0 {
		fmt.Fprintf(os.Stdout, "Tags:     %s\n", strings.Join(dc.Tags, ", "))
	}
}

func runCredentialList(ctx context.Context, cmd *cli.Command) error {
	filter := domain.CredentialFilter{
		Tag:   cmd.String("tag"),
		Query: cmd.String("query"),
	}
	if raw := cmd.String("project"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}
		filter.ProjectID = &id
	}

	return withUnlockedGateway(ctx, func(ctx context.Context, gw *session.Gateway) error {
		credentials, err := gw.ListCredentials(ctx, filter)
		if err != nil {
			return err
		}
		table := tablewriter.NewTable(os.Stdout)
		table.Header("ID", "Title", "Version", "Updated")
		for _, c := range credentials {
			table.Append(c.ID.String(), c.Title, fmt.Sprintf("%d", c.Version), c.UpdatedAt.Format(time.RFC3339))
		}
		return table.Render()
	})
}
