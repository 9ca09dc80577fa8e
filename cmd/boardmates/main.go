// Package main is the entrypoint for the boardmates CLI.
// All state lives on the server; the CLI is a thin client over the
// HTTP API. Run 'boardmates --help' for the available commands.
package main

import (
	"os"

	"github.com/boardmates/boardmates/internal/cli"
)

// Version information set at build time via ldflags.
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	os.Exit(cli.New().Execute())
}
