// Package main is the entry point for the sitecrawl CLI.
package main

import (
	"os"

	"github.com/jmylchreest/sitecrawl/cmd/sitecrawl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
