package main

import (
	"os"

	"github.com/ligiabernardet/ccpp-doc/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
