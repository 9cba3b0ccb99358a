package main

import (
	"github.com/urfave/cli/v3"
)

// getCommands assembles vaultcli's full command tree, in the reference
// service's main.go shape: one *cli.Command literal per subcommand, each
// wiring its own flags and dispatching to a runXxx function that owns the
// container lifecycle.
func getCommands() []*cli.Command {
	var commands []*cli.Command
	commands = append(commands, vaultCommands()...)
	commands = append(commands, projectCommands()...)
	commands = append(commands, credentialCommands()...)
	commands = append(commands, auditCommands()...)
	commands = append(commands, statsCommand())
	return commands
}
