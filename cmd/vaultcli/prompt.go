package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassphrase prompts on os.Stderr and reads a line from fd 0 without
// echoing it, the way every local secret-prompting CLI in the ecosystem
// reads a master passphrase.
func readPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return passphrase, nil
}

// readPassphraseConfirmed prompts twice and requires both entries to match,
// for vault init and passphrase change.
func readPassphraseConfirmed() ([]byte, error) {
	first, err := readPassphrase("New passphrase: ")
	if err != nil {
		return nil, err
	}
	second, err := readPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	if string(first) != string(second) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

// readLineFrom reads one line of plaintext input, trimmed, from reader.
// Callers share one *bufio.Reader across an entire prompt sequence so
// buffered-ahead input is never dropped between prompts.
func readLineFrom(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readUpdateLineFrom prompts for a field's new value during a credential
// update: a blank line keeps the stored value and "-" clears it, so an
// operator changing one field never silently erases the others.
func readUpdateLineFrom(reader *bufio.Reader, label string) (value string, clear bool, err error) {
	line, err := readLineFrom(reader, label+" (blank to keep, '-' to clear): ")
	if err != nil {
		return "", false, err
	}
	if line == "-" {
		return "", true, nil
	}
	return line, false, nil
}
