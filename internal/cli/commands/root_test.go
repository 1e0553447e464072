package commands

import (
	"strings"
	"testing"
)

func TestRootListsCommands(t *testing.T) {
	stdout, _, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, sub := range []string{"convert", "validate", "list", "init", "serve", "version"} {
		if !strings.Contains(stdout, sub) {
			t.Errorf("help does not mention %q", sub)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "ccppdoc version:") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "Go version:") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := runCommand(t, "frobnicate")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}
