package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/session"
)

// runREPL drives an interactive session against an already-unlocked gateway.
// Every line is one operation; the idle-lock ticker keeps running underneath
// while the REPL blocks on stdin, so an operator who walks away mid-session
// still gets auto-locked.
func runREPL(ctx context.Context, gateway *session.Gateway) error {
	fmt.Fprintln(os.Stdout, "vault unlocked, type 'help' for commands, 'exit' to lock and quit")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Fprint(os.Stdout, "vault> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if gateway.Locked() {
			fmt.Fprintln(os.Stdout, "session auto-locked due to inactivity, exiting")
			return nil
		}

		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "exit", "quit", "lock":
			return nil
		case "help":
			printREPLHelp()
		case "project":
			replProject(ctx, gateway, args, reader)
		case "credential":
			replCredential(ctx, gateway, args, reader)
		case "tag":
			replTag(ctx, gateway, args)
		case "audit":
			replAudit(ctx, gateway)
		default:
			fmt.Fprintf(os.Stdout, "unknown command %q, type 'help'\n", cmd)
		}
	}
}

func printREPLHelp() {
	fmt.Fprintln(os.Stdout, `commands:
  project create <name>
  project list
  project delete <id>
  credential create
  credential show <id>
  credential update <id>
  credential delete <id>
  credential list [project <id>] [tag <tag>] [query <text>]
  tag add <id> <tag>
  tag remove <id> <tag>
  tag set <id> <comma,separated,tags>
  tag list <id>
  audit verify
  exit`)
}

func replProject(ctx context.Context, gateway *session.Gateway, args []string, reader *bufio.Reader) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, "usage: project create|list|delete ...")
		return
	}
	switch args[0] {
	case "create":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: project create <name>")
			return
		}
		name := strings.Join(args[1:], " ")
		p, err := gateway.CreateProject(ctx, name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintf(os.Stdout, "created project %s (%s)\n", p.Name, p.ID)
	case "list":
		projects, err := gateway.ListProjects(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		for _, p := range projects {
			fmt.Fprintf(os.Stdout, "%s  %s\n", p.ID, p.Name)
		}
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: project delete <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		if err := gateway.DeleteProject(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, "deleted")
	default:
		fmt.Fprintln(os.Stdout, "usage: project create|list|delete ...")
	}
}

func replTag(ctx context.Context, gateway *session.Gateway, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, "usage: tag add|remove|set|list <id> ...")
		return
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stdout, "usage: tag add <id> <tag>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		tag := args[2]
		tags, err := gateway.ListTags(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		for _, t := range tags {
			if t == tag {
				fmt.Fprintln(os.Stdout, "tags updated")
				return
			}
		}
		if err := gateway.SetTags(ctx, id, append(tags, tag)); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, "tags updated")
	case "remove":
		if len(args) < 3 {
			fmt.Fprintln(os.Stdout, "usage: tag remove <id> <tag>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		tag := args[2]
		tags, err := gateway.ListTags(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		remaining := tags[:0]
		for _, t := range tags {
			if t != tag {
				remaining = append(remaining, t)
			}
		}
		if err := gateway.SetTags(ctx, id, remaining); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, "tags updated")
	case "set":
		if len(args) < 3 {
			fmt.Fprintln(os.Stdout, "usage: tag set <id> <comma,separated,tags>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		tags := splitTags(args[2])
		if err := gateway.SetTags(ctx, id, tags); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, "tags updated")
	case "list":
		if len(args) < 2 {
			fmt.Fprintln(os.Stdout, "usage: tag list <id>")
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: invalid id")
			return
		}
		tags, err := gateway.ListTags(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Fprintln(os.Stdout, strings.Join(tags, ", "))
	default:
		fmt.Fprintln(os.Stdout, "usage: tag add|remove|set|list <id> ...")
	}
}

func replAudit(ctx context.Context, gateway *session.Gateway) {
	report, err := gateway.VerifyAuditChain(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	printAuditReportText(report)
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
